package filtering

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/spigell/hh-tailor/internal/record"
)

// ExcludedRecords is the content of an exclude file.
type ExcludedRecords struct {
	Items []ExcludedRecord `json:"items"`
}

// ExcludedRecord names a record that must never be shortlisted.
type ExcludedRecord struct {
	ID     string `json:"id"`
	Reason string `json:"reason,omitempty"`
}

// IDs returns the excluded record IDs.
func (e *ExcludedRecords) IDs() []string {
	ids := make([]string, 0, len(e.Items))
	for _, item := range e.Items {
		ids = append(ids, item.ID)
	}
	return ids
}

// ReadExcludeFile loads an exclude file. A missing or empty file excludes nothing.
func ReadExcludeFile(path string) (*ExcludedRecords, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &ExcludedRecords{}, nil
	}
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return &ExcludedRecords{}, nil
	}

	var excluded ExcludedRecords
	if err := json.Unmarshal(data, &excluded); err != nil {
		return nil, fmt.Errorf("decode exclude file %s: %w", path, err)
	}
	return &excluded, nil
}

// AppendExcludeFile adds records to an exclude file, creating it when needed. IDs already
// present are skipped.
func AppendExcludeFile(path string, items ...ExcludedRecord) error {
	excluded, err := ReadExcludeFile(path)
	if err != nil {
		return err
	}

	known := make(map[string]bool, len(excluded.Items))
	for _, item := range excluded.Items {
		known[item.ID] = true
	}
	for _, item := range items {
		if item.ID == "" || known[item.ID] {
			continue
		}
		known[item.ID] = true
		excluded.Items = append(excluded.Items, item)
	}

	data, err := json.MarshalIndent(excluded, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

type excludeFileFilter struct {
	base
	path string
}

// NewExcludeFile creates a filter that removes records listed in an exclude file.
func NewExcludeFile(path string) Filter {
	return &excludeFileFilter{path: path}
}

func (f *excludeFileFilter) Name() string { return "exclude_file" }

func (f *excludeFileFilter) Validate() error { return nil }

func (f *excludeFileFilter) Apply(_ context.Context, deps Deps, records []*record.Record) ([]*record.Record, Step, error) {
	if f.path == "" {
		return records, stepOf(len(records), records), nil
	}

	excluded, err := ReadExcludeFile(f.path)
	if err != nil {
		return nil, Step{}, fmt.Errorf("getting excluded records from file: %w", err)
	}

	ids := make(map[string]bool, len(excluded.Items))
	for _, id := range excluded.IDs() {
		ids[id] = true
	}

	left, dropped := keep(records, func(r *record.Record) bool { return !ids[r.ID] })
	if deps.Logger != nil && len(dropped) > 0 {
		deps.Logger.Info("excluding records based on exclude file",
			zap.String("path", f.path),
			zap.Strings("excluded_records", dropped),
			zap.Int("records_left", len(left)),
		)
	}
	return left, stepOf(len(records), left), nil
}

func (f *excludeFileFilter) Status() Status {
	details := map[string]string{}
	if f.path != "" {
		details["path"] = f.path
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason, Details: details}
}
