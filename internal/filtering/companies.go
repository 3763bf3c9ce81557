package filtering

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/hh-tailor/internal/record"
)

type companiesFilter struct {
	base
	companies []string
}

// NewExcludedCompanies creates a filter that removes records of the given companies.
// Names are compared case-insensitively.
func NewExcludedCompanies(companies []string) Filter {
	normalized := make([]string, 0, len(companies))
	for _, c := range companies {
		if c = normalizeCompany(c); c != "" {
			normalized = append(normalized, c)
		}
	}
	return &companiesFilter{companies: normalized}
}

func (f *companiesFilter) Name() string { return "companies" }

func (f *companiesFilter) Validate() error { return nil }

func (f *companiesFilter) Apply(_ context.Context, deps Deps, records []*record.Record) ([]*record.Record, Step, error) {
	if len(f.companies) == 0 {
		return records, stepOf(len(records), records), nil
	}

	excluded := make(map[string]bool, len(f.companies))
	for _, c := range f.companies {
		excluded[c] = true
	}

	left, dropped := keep(records, func(r *record.Record) bool {
		return !excluded[normalizeCompany(r.Posting.Company)]
	})
	if deps.Logger != nil && len(dropped) > 0 {
		deps.Logger.Info("excluding records by companies",
			zap.Strings("excluded_companies", f.companies),
			zap.Strings("excluded_records", dropped),
			zap.Int("records_left", len(left)),
		)
	}
	return left, stepOf(len(records), left), nil
}

func (f *companiesFilter) Status() Status {
	details := map[string]string{}
	if len(f.companies) > 0 {
		details["companies"] = strings.Join(f.companies, ",")
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason, Details: details}
}

func normalizeCompany(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}
