package scoring

import (
	"errors"
	"fmt"
)

var (
	// ErrInsufficientInput is matched by *InsufficientInputError.
	ErrInsufficientInput = errors.New("insufficient input")
	// ErrEmptyProfile is returned when the profile lists no skills.
	ErrEmptyProfile = errors.New("profile has no skills")
)

// InsufficientInputError reports a posting shorter than the configured floor.
type InsufficientInputError struct {
	Length  int
	Minimum int
}

func (e *InsufficientInputError) Error() string {
	return fmt.Sprintf("posting text has %d characters, at least %d required", e.Length, e.Minimum)
}

func (e *InsufficientInputError) Is(target error) bool {
	return target == ErrInsufficientInput
}

// IsValidation reports whether err is a caller input error that must not be retried.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInsufficientInput) || errors.Is(err, ErrEmptyProfile)
}
