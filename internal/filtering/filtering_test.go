package filtering

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/hh-tailor/internal/record"
	"github.com/spigell/hh-tailor/internal/scoring"
)

func newRecord(id, company string, overall float64, status record.Status) *record.Record {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	r := record.New(scoring.Posting{ID: id, Company: company}, &scoring.MatchResult{Overall: overall}, now)
	r.Status = status
	r.Deleted = status == record.StatusDeleted
	return r
}

func ids(records []*record.Record) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.ID)
	}
	return out
}

func sample() []*record.Record {
	return []*record.Record{
		newRecord("a", "Acme", 0.9, record.StatusScored),
		newRecord("b", "Globex", 0.6, record.StatusScored),
		newRecord("c", "Initech", 0.8, record.StatusPendingReview),
		newRecord("d", " acme ", 0.75, record.StatusTailoringFailed),
		newRecord("e", "Umbrella", 0.95, record.StatusDeleted),
		newRecord("f", "Hooli", 0.85, record.StatusScored),
	}
}

func TestRunAppliesStepsInOrder(t *testing.T) {
	input := sample()
	steps := []Filter{
		NewStatus(),
		NewThreshold(0.7),
		NewExcludedCompanies([]string{"ACME"}),
	}

	got, report, err := Run(context.Background(), Deps{Logger: zap.NewNop()}, steps, input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if want := []string{"f"}; !reflect.DeepEqual(ids(got), want) {
		t.Fatalf("unexpected records: %v", ids(got))
	}

	want := []Step{
		{Name: "status", Initial: 6, Dropped: 2, Left: 4},
		{Name: "threshold", Initial: 4, Dropped: 1, Left: 3},
		{Name: "companies", Initial: 3, Dropped: 2, Left: 1},
	}
	if !reflect.DeepEqual(report, want) {
		t.Fatalf("unexpected report: %+v", report)
	}

	if len(input) != 6 {
		t.Fatalf("input was modified: %v", ids(input))
	}
}

func TestRunSkipsDisabledFilters(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)
	steps := []Filter{NewThreshold(0.99), NewStatus()}
	DisableByName(steps, "threshold", "manual run")

	got, report, err := Run(context.Background(), Deps{Logger: zap.New(core)}, steps, sample())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("expected 4 records, got %v", ids(got))
	}
	if len(report) != 1 || report[0].Name != "status" {
		t.Fatalf("unexpected report: %+v", report)
	}
	if observed.FilterMessage("filter disabled").Len() != 1 {
		t.Fatal("expected disabled filter to be logged")
	}

	statuses := Describe(steps)
	if statuses[0].Enabled || statuses[0].Reason != "manual run" {
		t.Fatalf("unexpected status: %+v", statuses[0])
	}
	if statuses[1].Details["allowed"] != "scored,tailoring_failed" {
		t.Fatalf("unexpected status details: %+v", statuses[1])
	}
}

func TestRunValidatesBeforeApplying(t *testing.T) {
	tests := []struct {
		name  string
		steps []Filter
	}{
		{name: "threshold out of range", steps: []Filter{NewThreshold(1.5)}},
		{name: "unknown status", steps: []Filter{NewStatus("archived")}},
		{name: "deleted status", steps: []Filter{NewStatus(record.StatusDeleted)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := Run(context.Background(), Deps{}, tt.steps, sample()); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestStatusFilterWithExplicitStatuses(t *testing.T) {
	got, info, err := NewStatus(record.StatusPendingReview).Apply(context.Background(), Deps{}, sample())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := []string{"c"}; !reflect.DeepEqual(ids(got), want) {
		t.Fatalf("unexpected records: %v", ids(got))
	}
	if info.Dropped != 5 || info.Left != 1 {
		t.Fatalf("unexpected step: %+v", info)
	}
}

func TestExcludeFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exclude.json")

	// A missing file excludes nothing.
	got, _, err := NewExcludeFile(path).Apply(context.Background(), Deps{}, sample())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 6 {
		t.Fatalf("expected all records, got %v", ids(got))
	}

	if err := AppendExcludeFile(path, ExcludedRecord{ID: "a", Reason: "rejected"}, ExcludedRecord{ID: "f"}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := AppendExcludeFile(path, ExcludedRecord{ID: "a"}, ExcludedRecord{}); err != nil {
		t.Fatalf("append: %v", err)
	}

	excluded, err := ReadExcludeFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if want := []string{"a", "f"}; !reflect.DeepEqual(excluded.IDs(), want) {
		t.Fatalf("unexpected ids: %v", excluded.IDs())
	}
	if excluded.Items[0].Reason != "rejected" {
		t.Fatalf("reason lost: %+v", excluded.Items[0])
	}

	got, info, err := NewExcludeFile(path).Apply(context.Background(), Deps{}, sample())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := []string{"b", "c", "d", "e"}; !reflect.DeepEqual(ids(got), want) {
		t.Fatalf("unexpected records: %v", ids(got))
	}
	if info.Dropped != 2 {
		t.Fatalf("unexpected step: %+v", info)
	}
}

func TestExcludeFileRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exclude.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, _, err := NewExcludeFile(path).Apply(context.Background(), Deps{}, sample()); err == nil {
		t.Fatal("expected decode error")
	}
}
