package media

// Preview window constants. The insets shave the shaky first and last
// instants off a segment; the centered fallback prevents degenerate
// near-zero previews for very short segments.
const (
	minRawDuration = 0.2

	maxStartInset   = 0.18
	startInsetRatio = 0.24
	maxEndInset     = 0.08
	endInsetRatio   = 0.18

	minTidiedDuration = 0.38
	fallbackHalfSpan  = 0.22

	minFinalDuration = 0.25
)

// Window is the time range actually rendered into a preview, distinct
// from the segment's raw reported boundaries.
type Window struct {
	Start    float64
	Duration float64
}

// TidyWindow computes the trimmed preview window for a segment.
func TidyWindow(startSeconds, endSeconds float64) Window {
	raw := endSeconds - startSeconds
	if raw < minRawDuration {
		raw = minRawDuration
	}

	startInset := min(maxStartInset, startInsetRatio*raw)
	endInset := min(maxEndInset, endInsetRatio*raw)

	start := startSeconds + startInset
	end := endSeconds - endInset

	if end-start < minTidiedDuration {
		mid := (startSeconds + endSeconds) / 2
		start = mid - fallbackHalfSpan
		if start < 0 {
			start = 0
		}
		end = mid + fallbackHalfSpan
	}

	duration := end - start
	if duration < minFinalDuration {
		duration = minFinalDuration
	}

	return Window{Start: start, Duration: duration}
}
