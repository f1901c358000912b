package segment

// DefaultMinimumScore is used when a project taxonomy does not set its own
// threshold.
const DefaultMinimumScore = 0.5

// Filter keeps segments whose score meets the minimum. The comparison is
// inclusive: a segment scoring exactly the threshold is retained.
func Filter(segs []Segment, minimumScore float64) []Segment {
	kept := make([]Segment, 0, len(segs))
	for _, s := range segs {
		if s.BrollScore >= minimumScore {
			kept = append(kept, s)
		}
	}
	return kept
}
