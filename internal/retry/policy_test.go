package retry_test

import (
	"testing"
	"time"

	"pageforge/internal/config"
	"pageforge/internal/retry"
	"pageforge/internal/services"
)

func testPolicy() retry.Policy {
	return retry.FromConfig(config.Retry{
		MaxAttempts:      3,
		BaseDelaySeconds: 5,
		MaxDelaySeconds:  300,
	})
}

func TestDecideFatalGoesToError(t *testing.T) {
	policy := testPolicy()
	outcome, delay := policy.Decide(services.ClassFatal, 0)
	if outcome != retry.OutcomeError {
		t.Fatalf("outcome = %s, want error", outcome)
	}
	if delay != 0 {
		t.Fatalf("delay = %s, want 0", delay)
	}
}

func TestDecideRetriesUntilBudgetExhausted(t *testing.T) {
	policy := testPolicy()
	for attempt := 0; attempt < policy.MaxAttempts; attempt++ {
		outcome, delay := policy.Decide(services.ClassRetriable, attempt)
		if outcome != retry.OutcomeRetry {
			t.Fatalf("attempt %d: outcome = %s, want retry", attempt, outcome)
		}
		if delay <= 0 {
			t.Fatalf("attempt %d: delay = %s, want positive", attempt, delay)
		}
	}
	outcome, _ := policy.Decide(services.ClassRetriable, policy.MaxAttempts)
	if outcome != retry.OutcomeFail {
		t.Fatalf("outcome at budget = %s, want fail", outcome)
	}
}

func TestDelayMonotonicAndCapped(t *testing.T) {
	policy := testPolicy()
	previous := time.Duration(0)
	for attempt := 0; attempt < 12; attempt++ {
		delay := policy.Delay(attempt)
		if delay < previous {
			t.Fatalf("delay regressed at attempt %d: %s < %s", attempt, delay, previous)
		}
		if delay > policy.MaxDelay {
			t.Fatalf("delay exceeds cap at attempt %d: %s", attempt, delay)
		}
		previous = delay
	}
	if policy.Delay(0) != 5*time.Second {
		t.Fatalf("base delay = %s, want 5s", policy.Delay(0))
	}
	if policy.Delay(1) != 10*time.Second {
		t.Fatalf("second delay = %s, want 10s", policy.Delay(1))
	}
	if policy.Delay(11) != policy.MaxDelay {
		t.Fatalf("late delay = %s, want cap %s", policy.Delay(11), policy.MaxDelay)
	}
}

func TestDelayDefaultsWhenUnconfigured(t *testing.T) {
	policy := retry.Policy{MaxAttempts: 1}
	if got := policy.Delay(0); got != time.Second {
		t.Fatalf("fallback delay = %s, want 1s", got)
	}
	// No cap configured: doubling continues unbounded.
	if got := policy.Delay(3); got != 8*time.Second {
		t.Fatalf("uncapped delay = %s, want 8s", got)
	}
}

func TestOutcomeString(t *testing.T) {
	if retry.OutcomeRetry.String() != "retry" || retry.OutcomeFail.String() != "fail" || retry.OutcomeError.String() != "error" {
		t.Fatal("unexpected outcome strings")
	}
}
