package record

import (
	"errors"
	"fmt"
	"strings"
)

// Status is the lifecycle state of an application record.
type Status string

const (
	StatusScored          Status = "scored"
	StatusTailoring       Status = "tailoring"
	StatusPendingReview   Status = "pending_review"
	StatusApproved        Status = "approved"
	StatusRejected        Status = "rejected"
	StatusApplied         Status = "applied"
	StatusTailoringFailed Status = "tailoring_failed"
	StatusDeleted         Status = "deleted"
)

// ErrInvalidTransition is matched by *TransitionError.
var ErrInvalidTransition = errors.New("invalid status transition")

// TransitionError reports a move the state machine does not allow.
type TransitionError struct {
	From Status
	To   Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid status transition %s -> %s", e.From, e.To)
}

func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

var transitions = map[Status][]Status{
	StatusScored:          {StatusScored, StatusTailoring},
	StatusTailoring:       {StatusPendingReview, StatusTailoringFailed, StatusScored},
	StatusTailoringFailed: {StatusTailoring, StatusScored},
	StatusPendingReview:   {StatusApproved, StatusRejected},
	StatusApproved:        {StatusApplied},
	StatusRejected:        {},
	StatusApplied:         {},
	StatusDeleted:         {},
}

// Statuses lists every status in lifecycle order.
func Statuses() []Status {
	return []Status{
		StatusScored,
		StatusTailoring,
		StatusPendingReview,
		StatusApproved,
		StatusRejected,
		StatusApplied,
		StatusTailoringFailed,
		StatusDeleted,
	}
}

// ParseStatus accepts the stored form of a status, case-insensitively.
func ParseStatus(s string) (Status, error) {
	status := Status(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := transitions[status]; !ok {
		return "", fmt.Errorf("unknown status %q", s)
	}
	return status, nil
}

// CanTransition reports whether the state machine allows from -> to. Every status except
// deleted may move to deleted.
func CanTransition(from, to Status) bool {
	if to == StatusDeleted {
		return from != StatusDeleted
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Tailorable reports whether a tailoring attempt may start from the status.
func (s Status) Tailorable() bool {
	return s == StatusScored || s == StatusTailoringFailed
}

// Rescorable reports whether a fresh score may be recorded in the status.
func (s Status) Rescorable() bool {
	return s == StatusScored || s == StatusTailoringFailed
}
