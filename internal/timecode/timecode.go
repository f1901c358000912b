// Package timecode converts between second counts and the M:SS display
// form used throughout the clip catalog.
package timecode

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FormatSeconds renders a second count as a display timestamp, e.g. 83.4
// becomes "1:23". Negative inputs are clamped to zero.
func FormatSeconds(sec float64) string {
	if sec < 0 || math.IsNaN(sec) {
		sec = 0
	}
	total := int(math.Round(sec))
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

// ParseTimestamp parses "M:SS", "H:MM:SS" or a plain second count such as
// "45.5" into seconds.
func ParseTimestamp(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty timestamp")
	}

	parts := strings.Split(s, ":")

	var hours, minutes, seconds float64
	var err error

	switch len(parts) {
	case 1:
		seconds, err = strconv.ParseFloat(parts[0], 64)
		if err != nil {
			return 0, fmt.Errorf("invalid timestamp format: %s", s)
		}
	case 2:
		minutes, err = strconv.ParseFloat(parts[0], 64)
		if err != nil {
			return 0, fmt.Errorf("invalid timestamp format: %s", s)
		}
		seconds, err = strconv.ParseFloat(parts[1], 64)
		if err != nil {
			return 0, fmt.Errorf("invalid timestamp format: %s", s)
		}
	case 3:
		hours, err = strconv.ParseFloat(parts[0], 64)
		if err != nil {
			return 0, fmt.Errorf("invalid timestamp format: %s", s)
		}
		minutes, err = strconv.ParseFloat(parts[1], 64)
		if err != nil {
			return 0, fmt.Errorf("invalid timestamp format: %s", s)
		}
		seconds, err = strconv.ParseFloat(parts[2], 64)
		if err != nil {
			return 0, fmt.Errorf("invalid timestamp format: %s", s)
		}
	default:
		return 0, fmt.Errorf("invalid timestamp format: %s", s)
	}

	total := hours*3600 + minutes*60 + seconds
	if total < 0 {
		return 0, fmt.Errorf("negative timestamp: %s", s)
	}
	return total, nil
}
