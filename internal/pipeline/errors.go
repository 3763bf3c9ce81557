package pipeline

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrTailoringInProgress rejects a second attempt on a record with one in flight.
	ErrTailoringInProgress = errors.New("tailoring already in progress")
	// ErrRecordDeleted is returned for operations on soft-deleted records.
	ErrRecordDeleted = errors.New("record is deleted")
	// ErrNotInFlight is returned by Cancel when the record has nothing to cancel.
	ErrNotInFlight = errors.New("no tailoring attempt in flight")
	// ErrCancelled is returned by Tailor when the operator cancelled the attempt.
	ErrCancelled = errors.New("tailoring cancelled")
	// ErrInvalidThreshold rejects a request threshold outside [0, 1].
	ErrInvalidThreshold = errors.New("threshold must be within [0, 1]")
	// ErrThresholdNotMet is matched by *ThresholdNotMetError.
	ErrThresholdNotMet = errors.New("score below threshold")
	// ErrMaxRetriesExceeded is matched by *MaxRetriesExceededError.
	ErrMaxRetriesExceeded = errors.New("max retries exceeded")
	// ErrIntegrity is matched by *IntegrityError.
	ErrIntegrity = errors.New("integrity violation")
)

// ThresholdNotMetError reports a score below the tailoring gate.
type ThresholdNotMetError struct {
	Overall   float64
	Threshold float64
}

func (e *ThresholdNotMetError) Error() string {
	return fmt.Sprintf("overall score %.2f is below threshold %.2f", e.Overall, e.Threshold)
}

func (e *ThresholdNotMetError) Is(target error) bool {
	return target == ErrThresholdNotMet
}

// MaxRetriesExceededError wraps the last transient failure after the attempt ceiling.
type MaxRetriesExceededError struct {
	Attempts int
	Last     error
}

func (e *MaxRetriesExceededError) Error() string {
	return fmt.Sprintf("tailoring failed after %d attempts: %v", e.Attempts, e.Last)
}

func (e *MaxRetriesExceededError) Is(target error) bool {
	return target == ErrMaxRetriesExceeded
}

func (e *MaxRetriesExceededError) Unwrap() error {
	return e.Last
}

// IntegrityError lists the unsupported content found in a generated resume.
type IntegrityError struct {
	Violations []string
}

func (e *IntegrityError) Error() string {
	return "generated resume failed the integrity check: " + strings.Join(e.Violations, "; ")
}

func (e *IntegrityError) Is(target error) bool {
	return target == ErrIntegrity
}
