package jobs

import (
	"bytes"
	"strings"
	"sync"
)

const (
	// maxBufferedLines is the point at which the buffer truncates.
	maxBufferedLines = 500
	// keptLines is how many of the newest lines survive a truncation.
	keptLines = 300
)

const truncationMarker = "... earlier output truncated ..."

// LogBuffer captures a job's console output line by line so it can be
// served over the API. When the buffer exceeds maxBufferedLines it drops
// the oldest lines, keeping the newest keptLines behind a marker.
type LogBuffer struct {
	mu      sync.Mutex
	lines   []string
	partial bytes.Buffer
}

// Write implements io.Writer; it is safe for concurrent use.
func (b *LogBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.partial.Write(p)
	for {
		raw := b.partial.String()
		i := strings.IndexByte(raw, '\n')
		if i < 0 {
			break
		}
		b.lines = append(b.lines, strings.TrimRight(raw[:i], "\r"))
		b.partial.Reset()
		b.partial.WriteString(raw[i+1:])
	}

	if len(b.lines) > maxBufferedLines {
		kept := make([]string, 0, keptLines+1)
		kept = append(kept, truncationMarker)
		kept = append(kept, b.lines[len(b.lines)-keptLines:]...)
		b.lines = kept
	}
	return len(p), nil
}

// Lines returns a copy of the buffered lines.
func (b *LogBuffer) Lines() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, len(b.lines))
	copy(out, b.lines)
	return out
}
