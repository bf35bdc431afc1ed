package resilience

import (
	"errors"
	"testing"
	"time"
)

func TestCircuitBreakerOpensAfterThreshold(t *testing.T) {
	cb := NewCircuitBreaker("test", CircuitBreakerConfig{FailureThreshold: 3, ResetTimeout: time.Hour, HalfOpenMaxRequests: 1})
	failure := errors.New("boom")

	for i := 0; i < 2; i++ {
		if err := cb.Execute(func() error { return failure }); !errors.Is(err, failure) {
			t.Fatalf("Execute() = %v, want the underlying failure", err)
		}
	}
	if cb.GetState() != StateClosed {
		t.Fatalf("state = %v, want closed before threshold reached", cb.GetState())
	}

	if err := cb.Execute(func() error { return failure }); !errors.Is(err, failure) {
		t.Fatalf("Execute() = %v, want the underlying failure", err)
	}
	if cb.GetState() != StateOpen {
		t.Fatalf("state = %v, want open after threshold reached", cb.GetState())
	}
}

func TestCircuitBreakerFailsFastWhileOpen(t *testing.T) {
	cb := NewCircuitBreaker("test", CircuitBreakerConfig{FailureThreshold: 1, ResetTimeout: time.Hour, HalfOpenMaxRequests: 1})
	cb.Execute(func() error { return errors.New("boom") })
	if cb.GetState() != StateOpen {
		t.Fatalf("state = %v, want open", cb.GetState())
	}

	called := false
	err := cb.Execute(func() error { called = true; return nil })
	if called {
		t.Fatal("Execute invoked fn while circuit is open; must fail fast without calling it")
	}
	if !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("Execute() = %v, want ErrCircuitOpen", err)
	}
}

func TestCircuitBreakerRecoversThroughHalfOpen(t *testing.T) {
	cb := NewCircuitBreaker("test", CircuitBreakerConfig{FailureThreshold: 1, ResetTimeout: 10 * time.Millisecond, HalfOpenMaxRequests: 1})
	cb.Execute(func() error { return errors.New("boom") })
	if cb.GetState() != StateOpen {
		t.Fatalf("state = %v, want open", cb.GetState())
	}

	time.Sleep(20 * time.Millisecond)

	if err := cb.Execute(func() error { return nil }); err != nil {
		t.Fatalf("half-open probe returned error: %v", err)
	}
	if cb.GetState() != StateClosed {
		t.Fatalf("state = %v, want closed after a successful half-open probe", cb.GetState())
	}
}

func TestCircuitBreakerReopensOnFailedProbe(t *testing.T) {
	cb := NewCircuitBreaker("test", CircuitBreakerConfig{FailureThreshold: 1, ResetTimeout: 10 * time.Millisecond, HalfOpenMaxRequests: 1})
	cb.Execute(func() error { return errors.New("boom") })
	time.Sleep(20 * time.Millisecond)

	cb.Execute(func() error { return errors.New("still broken") })
	if cb.GetState() != StateOpen {
		t.Fatalf("state = %v, want open after a failed half-open probe", cb.GetState())
	}
}

func TestCircuitBreakerResetForcesClosed(t *testing.T) {
	cb := NewCircuitBreaker("test", CircuitBreakerConfig{FailureThreshold: 1, ResetTimeout: time.Hour, HalfOpenMaxRequests: 1})
	cb.Execute(func() error { return errors.New("boom") })
	if cb.GetState() != StateOpen {
		t.Fatalf("state = %v, want open", cb.GetState())
	}

	cb.Reset()
	if cb.GetState() != StateClosed {
		t.Fatalf("state = %v, want closed after Reset", cb.GetState())
	}
}
