// Package retry decides what happens to a task after a stage failure: retry
// with an exponential backoff window, terminal failed on exhaustion, or
// terminal error on a fatal classification.
package retry

import (
	"time"

	"pageforge/internal/config"
	"pageforge/internal/services"
)

// Outcome is the policy's verdict for a failed stage execution.
type Outcome int

const (
	// OutcomeRetry keeps the task at its stage entry status; it becomes
	// eligible again once the returned delay elapses.
	OutcomeRetry Outcome = iota
	// OutcomeFail moves the task to the terminal failed status.
	OutcomeFail
	// OutcomeError moves the task to the error status for operator triage.
	OutcomeError
)

func (o Outcome) String() string {
	switch o {
	case OutcomeRetry:
		return "retry"
	case OutcomeFail:
		return "fail"
	default:
		return "error"
	}
}

// Policy holds the shared retry/backoff settings.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// FromConfig builds a policy from the retry configuration section.
func FromConfig(cfg config.Retry) Policy {
	return Policy{
		MaxAttempts: cfg.MaxAttempts,
		BaseDelay:   time.Duration(cfg.BaseDelaySeconds) * time.Second,
		MaxDelay:    time.Duration(cfg.MaxDelaySeconds) * time.Second,
	}
}

// Decide classifies a failure against the task's attempt count. attemptCount
// is the number of retriable failures already recorded for the current stage.
func (p Policy) Decide(class services.Class, attemptCount int) (Outcome, time.Duration) {
	if class == services.ClassFatal {
		return OutcomeError, 0
	}
	if attemptCount >= p.MaxAttempts {
		return OutcomeFail, 0
	}
	return OutcomeRetry, p.Delay(attemptCount)
}

// Delay returns the backoff window for the given attempt count: base delay
// doubled per attempt, capped at the configured maximum. Consecutive delays
// for the same task are therefore non-decreasing.
func (p Policy) Delay(attemptCount int) time.Duration {
	delay := p.BaseDelay
	if delay <= 0 {
		delay = time.Second
	}
	for i := 0; i < attemptCount; i++ {
		delay *= 2
		if p.MaxDelay > 0 && delay >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	if p.MaxDelay > 0 && delay > p.MaxDelay {
		return p.MaxDelay
	}
	return delay
}
