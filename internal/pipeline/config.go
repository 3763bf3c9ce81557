package pipeline

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Config is the immutable pipeline configuration.
type Config struct {
	// DefaultThreshold gates tailoring when a request carries no threshold of its own.
	DefaultThreshold float64 `mapstructure:"threshold" json:"threshold" validate:"gte=0,lte=1"`
	// MaxAttempts is the attempt ceiling for transient failures.
	MaxAttempts    int           `mapstructure:"max-attempts" json:"max-attempts" validate:"gte=1,lte=10"`
	BaseBackoff    time.Duration `mapstructure:"base-backoff" json:"base-backoff" validate:"gte=0"`
	MaxBackoff     time.Duration `mapstructure:"max-backoff" json:"max-backoff" validate:"gte=0"`
	AttemptTimeout time.Duration `mapstructure:"attempt-timeout" json:"attempt-timeout" validate:"gt=0"`
	// Concurrency bounds batch tailoring.
	Concurrency int `mapstructure:"concurrency" json:"concurrency" validate:"gte=1,lte=32"`
}

func DefaultConfig() Config {
	return Config{
		DefaultThreshold: 0.70,
		MaxAttempts:      3,
		BaseBackoff:      2 * time.Second,
		MaxBackoff:       30 * time.Second,
		AttemptTimeout:   3 * time.Minute,
		Concurrency:      4,
	}
}

func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid pipeline config: %w", err)
	}
	if c.MaxBackoff > 0 && c.MaxBackoff < c.BaseBackoff {
		return errors.New("invalid pipeline config: max-backoff is below base-backoff")
	}
	return nil
}
