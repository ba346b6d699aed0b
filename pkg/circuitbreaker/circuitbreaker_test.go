package circuitbreaker

import (
	"errors"
	"testing"
	"time"
)

func testConfig() Config {
	return Config{
		FailureThreshold:    3,
		SuccessThreshold:    2,
		Timeout:             20 * time.Millisecond,
		HalfOpenMaxRequests: 2,
	}
}

func trip(cb *CircuitBreaker, n int) {
	for i := 0; i < n; i++ {
		_ = cb.Execute(func() error { return errors.New("boom") })
	}
}

func TestOpensAfterThreshold(t *testing.T) {
	cb := NewCircuitBreaker(testConfig())

	trip(cb, 3)
	if got := cb.GetState(); got != StateClosed {
		// the transition happens on the next Execute's state check
		t.Logf("state after failures: %v", got)
	}

	err := cb.Execute(func() error { return nil })
	if !errors.Is(err, ErrCircuitBreakerOpen) {
		t.Fatalf("expected ErrCircuitBreakerOpen, got %v", err)
	}
	if cb.GetState() != StateOpen {
		t.Errorf("expected open state, got %v", cb.GetState())
	}
}

func TestRecoversThroughHalfOpen(t *testing.T) {
	cb := NewCircuitBreaker(testConfig())
	trip(cb, 3)
	_ = cb.Execute(func() error { return nil }) // observe open

	time.Sleep(25 * time.Millisecond)

	// two half-open successes close the breaker
	for i := 0; i < 2; i++ {
		if err := cb.Execute(func() error { return nil }); err != nil {
			t.Fatalf("half-open probe %d rejected: %v", i, err)
		}
	}

	if err := cb.Execute(func() error { return nil }); err != nil {
		t.Fatalf("expected closed breaker to pass requests, got %v", err)
	}
	if cb.GetState() != StateClosed {
		t.Errorf("expected closed state, got %v", cb.GetState())
	}
}

func TestHalfOpenFailureReopens(t *testing.T) {
	cb := NewCircuitBreaker(testConfig())
	trip(cb, 3)
	_ = cb.Execute(func() error { return nil })

	time.Sleep(25 * time.Millisecond)

	_ = cb.Execute(func() error { return errors.New("still down") })
	if cb.GetState() != StateOpen {
		t.Errorf("expected re-opened breaker, got %v", cb.GetState())
	}
}

func TestReset(t *testing.T) {
	cb := NewCircuitBreaker(testConfig())
	trip(cb, 3)
	_ = cb.Execute(func() error { return nil })

	cb.Reset()
	if cb.GetState() != StateClosed {
		t.Errorf("expected closed after reset, got %v", cb.GetState())
	}
	if err := cb.Execute(func() error { return nil }); err != nil {
		t.Errorf("expected request to pass after reset, got %v", err)
	}
}

func TestSuccessResetsFailureCount(t *testing.T) {
	cb := NewCircuitBreaker(testConfig())

	trip(cb, 2)
	if err := cb.Execute(func() error { return nil }); err != nil {
		t.Fatalf("unexpected rejection: %v", err)
	}
	trip(cb, 2)

	// 2 failures, success, 2 failures: never reaches the threshold of 3
	if err := cb.Execute(func() error { return nil }); err != nil {
		t.Errorf("breaker should still be closed, got %v", err)
	}
}
