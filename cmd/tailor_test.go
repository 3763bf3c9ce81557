package cmd

import (
	"context"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/hh-tailor/internal/record"
	"github.com/spigell/hh-tailor/internal/scoring"
)

func TestShortlist(t *testing.T) {
	config, err := loadConfig(t, "")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	config.Database = filepath.Join(t.TempDir(), "records.db")
	config.Exclude.Companies = []string{"Initech"}

	ctx := context.Background()
	a, err := newApplication(ctx, config, zap.NewNop(), false)
	if err != nil {
		t.Fatalf("creating the application: %v", err)
	}
	defer a.Close()

	now := time.Now().UTC()
	save := func(id, company string, overall float64, path ...record.Status) {
		t.Helper()
		rec := record.New(scoring.Posting{ID: id, Company: company}, &scoring.MatchResult{Overall: overall}, now)
		for _, to := range path {
			if err := rec.Transition(to, "test", now); err != nil {
				t.Fatalf("transition %s: %v", id, err)
			}
		}
		if err := a.store.Save(ctx, rec); err != nil {
			t.Fatalf("save %s: %v", id, err)
		}
	}

	save("scored", "Acme", 0.9)
	save("low", "Acme", 0.5)
	save("failed", "Globex", 0.8, record.StatusTailoring, record.StatusTailoringFailed)
	save("review", "Acme", 0.95, record.StatusTailoring, record.StatusPendingReview)
	save("gone", "Acme", 0.95, record.StatusDeleted)
	save("excluded", "Initech", 0.95)

	ids := func(threshold *float64) []string {
		t.Helper()
		records, err := a.shortlist(ctx, threshold)
		if err != nil {
			t.Fatalf("shortlist: %v", err)
		}
		out := make([]string, 0, len(records))
		for _, rec := range records {
			out = append(out, rec.ID)
		}
		return out
	}

	got := ids(nil)
	if len(got) != 2 || !slices.Contains(got, "scored") || !slices.Contains(got, "failed") {
		t.Fatalf("unexpected shortlist with the default threshold: %v", got)
	}

	zero := 0.0
	got = ids(&zero)
	if len(got) != 3 || !slices.Contains(got, "low") {
		t.Fatalf("an explicit zero threshold must keep every tailorable record, got %v", got)
	}
}

