package taxonomy

import (
	"strings"

	"github.com/mkravets/brollscout/internal/segment"
)

// Learn harvests novel terms observed in segments back into the taxonomy
// list fields. Comparison is case-insensitive and first-appearance order
// is preserved. Returns the number of terms added.
func (t *Taxonomy) Learn(segs []segment.Segment) int {
	added := 0
	for _, seg := range segs {
		added += appendNew(&t.Equipment, seg.Equipment)
		added += appendNew(&t.Products, seg.Products)
		added += appendNew(&t.Techniques, seg.Technique)
		added += appendNew(&t.SubjectDescriptors, seg.SubjectDescriptors)
	}
	return added
}

func appendNew(existing *[]string, terms []string) int {
	seen := make(map[string]bool, len(*existing))
	for _, term := range *existing {
		seen[strings.ToLower(strings.TrimSpace(term))] = true
	}

	added := 0
	for _, term := range terms {
		term = strings.TrimSpace(term)
		if term == "" {
			continue
		}
		key := strings.ToLower(term)
		if seen[key] {
			continue
		}
		seen[key] = true
		*existing = append(*existing, term)
		added++
	}
	return added
}
