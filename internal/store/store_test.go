package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spigell/hh-tailor/internal/record"
	"github.com/spigell/hh-tailor/internal/scoring"
)

var base = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func implementations(t *testing.T) map[string]Store {
	t.Helper()

	sqlite, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "nested", "records.db"))
	require.NoError(t, err)
	t.Cleanup(func() { sqlite.Close() })

	return map[string]Store{
		"memory": NewMemory(),
		"sqlite": sqlite,
	}
}

func newRecord(id string, overall float64, at time.Time) *record.Record {
	return record.New(
		scoring.Posting{ID: id, Title: "Engineer", Company: "Acme", Description: "text", Level: scoring.LevelSenior},
		&scoring.MatchResult{
			Overall:       overall,
			MatchedSkills: []scoring.SkillMatch{{Skill: "go", Profile: "Go", Span: "golang", Kind: scoring.MatchAlias}},
			Gaps:          []string{"rust"},
			Strengths:     []string{"go"},
		},
		at,
	)
}

func TestRoundTrip(t *testing.T) {
	for name, s := range implementations(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			r := newRecord("job-1", 0.82, base)
			require.NoError(t, s.Save(ctx, r))

			require.NoError(t, r.Transition(record.StatusTailoring, "attempt", base.Add(time.Second)))
			r.Append(record.Outcome{
				Attempt:    1,
				Error:      "rate limited",
				ErrorKind:  "rate_limited",
				StartedAt:  base.Add(time.Second),
				FinishedAt: base.Add(2 * time.Second),
			})
			r.Append(record.Outcome{
				Attempt:     2,
				Success:     true,
				Resume:      "resume",
				CoverLetter: "letter",
				Changes:     []record.Change{{Section: "skills", Action: record.ActionReordered}},
				Usage:       record.Usage{PromptTokens: 10, OutputTokens: 20},
				StartedAt:   base.Add(3 * time.Second),
				FinishedAt:  base.Add(4 * time.Second),
			})
			require.NoError(t, r.Transition(record.StatusPendingReview, "tailored", base.Add(4*time.Second)))
			require.NoError(t, s.Save(ctx, r))

			got, err := s.Load(ctx, "job-1")
			require.NoError(t, err)
			assert.Equal(t, r, got)
		})
	}
}

func TestLoadMissing(t *testing.T) {
	for name, s := range implementations(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.Load(context.Background(), "nope")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestAppendOnly(t *testing.T) {
	for name, s := range implementations(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			r := newRecord("job-2", 0.9, base)
			r.Append(record.Outcome{Attempt: 1, Error: "boom"})
			require.NoError(t, s.Save(ctx, r))

			truncated := r.Clone()
			truncated.Outcomes = nil
			assert.ErrorIs(t, s.Save(ctx, truncated), ErrHistoryRewritten)

			got, err := s.Load(ctx, "job-2")
			require.NoError(t, err)
			assert.Len(t, got.Outcomes, 1)
		})
	}
}

func TestSaveRejectsStaleVersion(t *testing.T) {
	for name, s := range implementations(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			r := newRecord("job-4", 0.9, base)
			require.NoError(t, s.Save(ctx, r))
			assert.EqualValues(t, 1, r.Version)

			first, err := s.Load(ctx, "job-4")
			require.NoError(t, err)
			second, err := s.Load(ctx, "job-4")
			require.NoError(t, err)

			require.NoError(t, first.Transition(record.StatusTailoring, "attempt", base.Add(time.Second)))
			require.NoError(t, s.Save(ctx, first))
			assert.EqualValues(t, 2, first.Version)

			second.Append(record.Outcome{Attempt: 1, Cancelled: true})
			require.NoError(t, second.Transition(record.StatusDeleted, "cleanup", base.Add(time.Second)))
			assert.ErrorIs(t, s.Save(ctx, second), ErrConflict)
			assert.EqualValues(t, 1, second.Version)

			got, err := s.Load(ctx, "job-4")
			require.NoError(t, err)
			assert.Equal(t, record.StatusTailoring, got.Status)
			assert.Empty(t, got.Outcomes)
			assert.EqualValues(t, 2, got.Version)

			// A second new record with a taken id is a conflict as well.
			assert.ErrorIs(t, s.Save(ctx, newRecord("job-4", 0.1, base)), ErrConflict)
		})
	}
}

func TestListByStatus(t *testing.T) {
	for name, s := range implementations(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			a := newRecord("b-job", 0.7, base)
			b := newRecord("a-job", 0.8, base)
			c := newRecord("c-job", 0.9, base.Add(-time.Hour))
			require.NoError(t, c.Transition(record.StatusDeleted, "cleanup", base))

			for _, r := range []*record.Record{a, b, c} {
				require.NoError(t, s.Save(ctx, r))
			}

			scored, err := s.ListByStatus(ctx, record.StatusScored)
			require.NoError(t, err)
			require.Len(t, scored, 2)
			assert.Equal(t, "a-job", scored[0].ID)
			assert.Equal(t, "b-job", scored[1].ID)

			deleted, err := s.ListByStatus(ctx, record.StatusDeleted)
			require.NoError(t, err)
			require.Len(t, deleted, 1)
			assert.True(t, deleted[0].Deleted)

			all, err := s.List(ctx)
			require.NoError(t, err)
			require.Len(t, all, 3)
			assert.Equal(t, "c-job", all[0].ID)

			none, err := s.ListByStatus(ctx, record.StatusApplied)
			require.NoError(t, err)
			assert.Empty(t, none)
		})
	}
}

func TestMemoryCopiesRecords(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	r := newRecord("job-3", 0.5, base)
	require.NoError(t, s.Save(ctx, r))
	r.Match.Gaps[0] = "mutated"

	got, err := s.Load(ctx, "job-3")
	require.NoError(t, err)
	assert.Equal(t, "rust", got.Match.Gaps[0])
}

func TestSQLiteAddsVersionColumn(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "old.db")

	old, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	_, err = old.ExecContext(ctx, `CREATE TABLE records (
		id TEXT PRIMARY KEY, status TEXT NOT NULL, deleted INTEGER NOT NULL DEFAULT 0,
		posting TEXT NOT NULL, match TEXT, created_at TEXT NOT NULL, updated_at TEXT NOT NULL
	)`)
	require.NoError(t, err)
	_, err = old.ExecContext(ctx,
		`INSERT INTO records (id, status, posting, created_at, updated_at) VALUES ('legacy', 'scored', '{"id":"legacy"}', ?, ?)`,
		formatTime(base), formatTime(base),
	)
	require.NoError(t, err)
	require.NoError(t, old.Close())

	s, err := OpenSQLite(ctx, path)
	require.NoError(t, err)
	defer s.Close()

	r, err := s.Load(ctx, "legacy")
	require.NoError(t, err)
	assert.Zero(t, r.Version)

	require.NoError(t, r.Transition(record.StatusTailoring, "attempt", base.Add(time.Second)))
	require.NoError(t, s.Save(ctx, r))
	assert.EqualValues(t, 1, r.Version)
}
