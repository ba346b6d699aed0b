package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fastPolicy() Policy {
	return Policy{
		BaseDelay:   time.Millisecond,
		MaxDelay:    4 * time.Millisecond,
		MaxAttempts: 3,
	}
}

func TestDoSucceedsFirstAttempt(t *testing.T) {
	attempts, err := fastPolicy().Do(context.Background(), func(ctx context.Context) error {
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if attempts != 1 {
		t.Errorf("expected 1 attempt, got %d", attempts)
	}
}

func TestDoRetriesUntilSuccess(t *testing.T) {
	calls := 0
	attempts, err := fastPolicy().Do(context.Background(), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if attempts != 3 || calls != 3 {
		t.Errorf("expected 3 attempts, got attempts=%d calls=%d", attempts, calls)
	}
}

func TestDoExhaustsBudget(t *testing.T) {
	wantErr := errors.New("still failing")
	calls := 0
	attempts, err := fastPolicy().Do(context.Background(), func(ctx context.Context) error {
		calls++
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected last error, got %v", err)
	}
	if attempts != 3 || calls != 3 {
		t.Errorf("expected 3 attempts, got attempts=%d calls=%d", attempts, calls)
	}
}

func TestDoPermanentAbortsImmediately(t *testing.T) {
	wantErr := errors.New("bad input")
	calls := 0
	attempts, err := fastPolicy().Do(context.Background(), func(ctx context.Context) error {
		calls++
		return Permanent(wantErr)
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected wrapped permanent error, got %v", err)
	}
	if !IsPermanent(err) {
		t.Error("expected permanent marker to survive")
	}
	if attempts != 1 || calls != 1 {
		t.Errorf("expected a single attempt, got attempts=%d calls=%d", attempts, calls)
	}
}

func TestDoContextCancelAbortsBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	policy := Policy{
		BaseDelay:   time.Hour,
		MaxDelay:    time.Hour,
		MaxAttempts: 3,
	}

	done := make(chan struct{})
	var err error
	go func() {
		_, err = policy.Do(ctx, func(ctx context.Context) error {
			return errors.New("transient")
		})
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Do did not return after context cancellation")
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestPermanentNil(t *testing.T) {
	if Permanent(nil) != nil {
		t.Error("Permanent(nil) should stay nil")
	}
	if IsPermanent(errors.New("plain")) {
		t.Error("plain error should not be permanent")
	}
}
