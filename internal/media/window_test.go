package media

import (
	"math"
	"testing"
)

func TestTidyWindowInsets(t *testing.T) {
	// A comfortably long segment gets the full insets.
	w := TidyWindow(10, 13)
	wantStart := 10 + 0.18
	wantEnd := 13 - 0.08
	if math.Abs(w.Start-wantStart) > 1e-9 {
		t.Errorf("start = %v, want %v", w.Start, wantStart)
	}
	if math.Abs(w.Start+w.Duration-wantEnd) > 1e-9 {
		t.Errorf("end = %v, want %v", w.Start+w.Duration, wantEnd)
	}
}

func TestTidyWindowInsetsScaleWithShortSegments(t *testing.T) {
	// raw = 0.5: insets become 0.24*0.5 = 0.12 and 0.18*0.5 = 0.09 -> 0.08 cap.
	w := TidyWindow(5, 5.5)
	// 5.12 .. 5.42 is 0.30 long, below 0.38: fallback engages instead.
	mid := 5.25
	if math.Abs(w.Start-(mid-0.22)) > 1e-9 {
		t.Errorf("fallback start = %v, want %v", w.Start, mid-0.22)
	}
	if math.Abs(w.Duration-0.44) > 1e-9 {
		t.Errorf("fallback duration = %v, want 0.44", w.Duration)
	}
}

func TestTidyWindowInvariants(t *testing.T) {
	cases := []struct{ start, end float64 }{
		{0, 0.1},
		{0, 2},
		{10, 13},
		{0.05, 0.3},
		{100, 100.39},
		{3, 3},
		{7, 6.5}, // inverted input: raw clamps to the minimum
	}

	for _, c := range cases {
		w := TidyWindow(c.start, c.end)
		if w.Start < 0 {
			t.Errorf("TidyWindow(%v, %v): negative start %v", c.start, c.end, w.Start)
		}
		if w.Duration < 0.25 {
			t.Errorf("TidyWindow(%v, %v): duration %v below floor", c.start, c.end, w.Duration)
		}
	}
}

func TestTidyWindowNonDegenerateStaysInside(t *testing.T) {
	// When the inset branch is taken, the window stays inside the segment.
	w := TidyWindow(20, 30)
	if w.Start < 20 {
		t.Errorf("window starts before the segment: %v", w.Start)
	}
	if w.Start+w.Duration > 30 {
		t.Errorf("window ends after the segment: %v", w.Start+w.Duration)
	}
}

func TestTidyWindowFallbackCentersOnMidpoint(t *testing.T) {
	w := TidyWindow(10, 10.2)
	mid := 10.1
	if math.Abs((w.Start+w.Duration/2)-mid) > 1e-9 {
		t.Errorf("fallback window not centered: start %v duration %v", w.Start, w.Duration)
	}
}

func TestTidyWindowFallbackClampsAtZero(t *testing.T) {
	w := TidyWindow(0, 0.1)
	if w.Start != 0 {
		t.Errorf("fallback should clamp start at 0, got %v", w.Start)
	}
	if w.Duration < 0.25 {
		t.Errorf("duration %v below floor", w.Duration)
	}
}
