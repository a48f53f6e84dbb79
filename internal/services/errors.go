package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Sentinel markers for failure classification. Wrap tags executor errors with
// one of these; Classify maps them onto the retry policy's two classes.
var (
	// Retriable failures: the same call may succeed later.
	ErrTransient   = errors.New("transient failure")
	ErrTimeout     = errors.New("timeout")
	ErrUnavailable = errors.New("service unavailable")
	ErrRateLimited = errors.New("rate limited")

	// Fatal failures: retrying cannot help without operator intervention.
	ErrValidation    = errors.New("validation error")
	ErrRejected      = errors.New("permanently rejected")
	ErrConfiguration = errors.New("configuration error")
)

// Class is the failure classification consumed by the retry policy.
type Class int

const (
	ClassRetriable Class = iota
	ClassFatal
)

func (c Class) String() string {
	if c == ClassFatal {
		return "fatal"
	}
	return "retriable"
}

// Wrap builds an error message that includes stage context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Classify maps a stage error onto the retry policy's failure classes.
// Deadline expiry counts as retriable: the external call is abandoned to its
// timeout, not condemned. Untagged errors default to retriable so an executor
// that forgot to classify cannot poison a task permanently.
func Classify(err error) Class {
	switch {
	case errors.Is(err, ErrValidation), errors.Is(err, ErrRejected), errors.Is(err, ErrConfiguration):
		return ClassFatal
	case errors.Is(err, context.DeadlineExceeded):
		return ClassRetriable
	default:
		return ClassRetriable
	}
}

// Message extracts the operator-facing detail from a wrapped stage error.
func Message(err error) string {
	if err == nil {
		return ""
	}
	text := err.Error()
	for _, marker := range []error{
		ErrTransient, ErrTimeout, ErrUnavailable, ErrRateLimited,
		ErrValidation, ErrRejected, ErrConfiguration,
	} {
		prefix := marker.Error() + ": "
		if strings.HasPrefix(text, prefix) {
			return strings.TrimPrefix(text, prefix)
		}
	}
	return text
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
