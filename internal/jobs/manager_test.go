package jobs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"
)

func waitForStatus(t *testing.T, m *Manager, id string, want Status) Snapshot {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		snap, ok := m.Get(id)
		if !ok {
			t.Fatalf("job %s disappeared", id)
		}
		if snap.Status == want {
			return snap
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("job %s never reached status %s", id, want)
	return Snapshot{}
}

func TestStartAndComplete(t *testing.T) {
	m := NewManager()
	id, err := m.Start(context.Background(), "coffee", func(ctx context.Context, w io.Writer) error {
		fmt.Fprintln(w, "analyzing")
		return nil
	})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	snap := waitForStatus(t, m, id, StatusCompleted)
	if snap.Error != "" {
		t.Errorf("unexpected error: %q", snap.Error)
	}
	if snap.FinishedAt == nil {
		t.Error("finishedAt not set")
	}
	if len(snap.Logs) != 1 || snap.Logs[0] != "analyzing" {
		t.Errorf("logs = %v", snap.Logs)
	}
}

func TestFailedJobCarriesError(t *testing.T) {
	m := NewManager()
	id, err := m.Start(context.Background(), "coffee", func(ctx context.Context, w io.Writer) error {
		return errors.New("upload failed")
	})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	snap := waitForStatus(t, m, id, StatusFailed)
	if snap.Error != "upload failed" {
		t.Errorf("error = %q", snap.Error)
	}
}

func TestSecondStartForSameProjectIsRejected(t *testing.T) {
	m := NewManager()
	release := make(chan struct{})
	id, err := m.Start(context.Background(), "coffee", func(ctx context.Context, w io.Writer) error {
		<-release
		return nil
	})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	if _, err := m.Start(context.Background(), "coffee", func(ctx context.Context, w io.Writer) error {
		return nil
	}); !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("err = %v, want ErrAlreadyRunning", err)
	}

	// A different project is not blocked.
	if _, err := m.Start(context.Background(), "tea", func(ctx context.Context, w io.Writer) error {
		return nil
	}); err != nil {
		t.Errorf("other project blocked: %v", err)
	}

	close(release)
	waitForStatus(t, m, id, StatusCompleted)

	// Once finished, the project can run again.
	if _, err := m.Start(context.Background(), "coffee", func(ctx context.Context, w io.Writer) error {
		return nil
	}); err != nil {
		t.Errorf("restart after completion blocked: %v", err)
	}
	m.Wait()
}

func TestGetUnknownJob(t *testing.T) {
	m := NewManager()
	if _, ok := m.Get("nope"); ok {
		t.Error("expected unknown job to report not found")
	}
}

func TestLogBufferSplitsLines(t *testing.T) {
	var b LogBuffer
	b.Write([]byte("first li"))
	b.Write([]byte("ne\nsecond line\npart"))

	lines := b.Lines()
	if len(lines) != 2 {
		t.Fatalf("lines = %v", lines)
	}
	if lines[0] != "first line" || lines[1] != "second line" {
		t.Errorf("lines = %v", lines)
	}

	b.Write([]byte("ial\n"))
	lines = b.Lines()
	if len(lines) != 3 || lines[2] != "partial" {
		t.Errorf("lines = %v", lines)
	}
}

func TestLogBufferTruncatesOldestLines(t *testing.T) {
	var b LogBuffer
	for i := 0; i < 501; i++ {
		fmt.Fprintf(&b, "line %d\n", i)
	}

	lines := b.Lines()
	if len(lines) != 301 {
		t.Fatalf("len = %d, want 301 (marker + 300 kept)", len(lines))
	}
	if !strings.Contains(lines[0], "truncated") {
		t.Errorf("first line should be the truncation marker, got %q", lines[0])
	}
	if lines[1] != "line 201" {
		t.Errorf("oldest kept line = %q, want line 201", lines[1])
	}
	if lines[len(lines)-1] != "line 500" {
		t.Errorf("newest line = %q, want line 500", lines[len(lines)-1])
	}
}
