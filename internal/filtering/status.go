package filtering

import (
	"context"
	"errors"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/hh-tailor/internal/record"
)

type statusFilter struct {
	base
	allowed []record.Status
}

// NewStatus creates a filter that keeps records in one of the allowed statuses. Without
// statuses it keeps the ones a tailoring attempt may start from.
func NewStatus(allowed ...record.Status) Filter {
	if len(allowed) == 0 {
		for _, s := range record.Statuses() {
			if s.Tailorable() {
				allowed = append(allowed, s)
			}
		}
	}
	return &statusFilter{allowed: allowed}
}

func (f *statusFilter) Name() string { return "status" }

func (f *statusFilter) Validate() error {
	for _, s := range f.allowed {
		if _, err := record.ParseStatus(string(s)); err != nil {
			return err
		}
		if s == record.StatusDeleted {
			return errors.New("deleted records cannot be shortlisted")
		}
	}
	return nil
}

func (f *statusFilter) Apply(_ context.Context, deps Deps, records []*record.Record) ([]*record.Record, Step, error) {
	left, dropped := keep(records, func(r *record.Record) bool {
		return !r.Deleted && slices.Contains(f.allowed, r.Status)
	})
	if deps.Logger != nil && len(dropped) > 0 {
		deps.Logger.Info("excluding records by status",
			zap.Strings("excluded_records", dropped),
			zap.Int("records_left", len(left)),
		)
	}
	return left, stepOf(len(records), left), nil
}

func (f *statusFilter) Status() Status {
	names := make([]string, 0, len(f.allowed))
	for _, s := range f.allowed {
		names = append(names, string(s))
	}
	return Status{
		Name:    f.Name(),
		Enabled: f.IsEnabled(),
		Reason:  f.reason,
		Details: map[string]string{"allowed": strings.Join(names, ",")},
	}
}
