package retry

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestDoSucceedsOnSecondAttempt(t *testing.T) {
	calls := 0
	p := Policy{MaxAttempts: 3, Backoff: Linear(0)}

	err := p.Do(context.Background(), "upload", func() error {
		calls++
		if calls < 2 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 2 {
		t.Errorf("expected 2 calls, got %d", calls)
	}
}

func TestDoExhaustionNamesLastCause(t *testing.T) {
	calls := 0
	p := Policy{MaxAttempts: 3, Backoff: Linear(0)}

	err := p.Do(context.Background(), "classification", func() error {
		calls++
		return fmt.Errorf("cause %d", calls)
	})
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
	if !strings.Contains(err.Error(), "classification failed after 3 attempts") {
		t.Errorf("error should name op and attempts: %v", err)
	}
	if !strings.Contains(err.Error(), "cause 3") {
		t.Errorf("error should name the last cause: %v", err)
	}
}

func TestDoNoBackoffAfterFinalAttempt(t *testing.T) {
	p := Policy{MaxAttempts: 2, Backoff: Linear(time.Hour)}
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	calls := 0
	err := p.Do(ctx, "op", func() error {
		calls++
		if calls == 1 {
			return errors.New("fail once")
		}
		return nil
	})
	// The one backoff between the attempts is interrupted by the context.
	if err == nil {
		t.Fatal("expected context interruption")
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("backoff not interrupted, took %v", elapsed)
	}
}

func TestLinearBackoff(t *testing.T) {
	b := Linear(5 * time.Second)
	if b(1) != 5*time.Second || b(2) != 10*time.Second || b(3) != 15*time.Second {
		t.Errorf("linear backoff wrong: %v %v %v", b(1), b(2), b(3))
	}
}

func TestDoSingleAttemptFloor(t *testing.T) {
	calls := 0
	p := Policy{MaxAttempts: 0}
	_ = p.Do(context.Background(), "op", func() error {
		calls++
		return errors.New("nope")
	})
	if calls != 1 {
		t.Errorf("expected exactly 1 call, got %d", calls)
	}
}
