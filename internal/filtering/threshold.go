package filtering

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/spigell/hh-tailor/internal/record"
)

type thresholdFilter struct {
	base
	minimum float64
}

// NewThreshold creates a filter that drops records scoring below minimum.
func NewThreshold(minimum float64) Filter {
	return &thresholdFilter{minimum: minimum}
}

func (f *thresholdFilter) Name() string { return "threshold" }

func (f *thresholdFilter) Validate() error {
	if f.minimum < 0 || f.minimum > 1 {
		return fmt.Errorf("minimum score %.2f is outside [0, 1]", f.minimum)
	}
	return nil
}

func (f *thresholdFilter) Apply(_ context.Context, deps Deps, records []*record.Record) ([]*record.Record, Step, error) {
	left, dropped := keep(records, func(r *record.Record) bool {
		return r.Overall() >= f.minimum
	})
	if deps.Logger != nil && len(dropped) > 0 {
		deps.Logger.Info("excluding records below the threshold",
			zap.Float64("threshold", f.minimum),
			zap.Strings("excluded_records", dropped),
			zap.Int("records_left", len(left)),
		)
	}
	return left, stepOf(len(records), left), nil
}

func (f *thresholdFilter) Status() Status {
	return Status{
		Name:    f.Name(),
		Enabled: f.IsEnabled(),
		Reason:  f.reason,
		Details: map[string]string{"minimum": strconv.FormatFloat(f.minimum, 'f', 2, 64)},
	}
}
