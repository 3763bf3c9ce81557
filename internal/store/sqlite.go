package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/spigell/hh-tailor/internal/record"
	"github.com/spigell/hh-tailor/internal/scoring"
)

// timeLayout has a fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const schema = `
CREATE TABLE IF NOT EXISTS records (
	id         TEXT PRIMARY KEY,
	status     TEXT NOT NULL,
	deleted    INTEGER NOT NULL DEFAULT 0,
	version    INTEGER NOT NULL DEFAULT 0,
	posting    TEXT NOT NULL,
	match      TEXT,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS records_status ON records (status);
CREATE TABLE IF NOT EXISTS outcomes (
	record_id TEXT NOT NULL,
	seq       INTEGER NOT NULL,
	data      TEXT NOT NULL,
	PRIMARY KEY (record_id, seq)
);
CREATE TABLE IF NOT EXISTS status_history (
	record_id   TEXT NOT NULL,
	seq         INTEGER NOT NULL,
	from_status TEXT NOT NULL,
	to_status   TEXT NOT NULL,
	reason      TEXT,
	at          TEXT NOT NULL,
	PRIMARY KEY (record_id, seq)
);
`

// SQLite stores records in a single database file. Outcomes and status changes live in
// their own tables and are only ever inserted.
type SQLite struct {
	db *sql.DB
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// OpenSQLite opens (or creates) the database at path.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("store: mkdir %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("store: open db: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite: single writer

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: init schema: %w", err)
	}
	if err := migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLite{db: db}, nil
}

// migrate adds columns missing from databases created by older versions.
func migrate(ctx context.Context, db *sql.DB) error {
	var n int
	if err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM pragma_table_info('records') WHERE name = 'version'`,
	).Scan(&n); err != nil {
		return fmt.Errorf("store: inspect schema: %w", err)
	}
	if n > 0 {
		return nil
	}
	if _, err := db.ExecContext(ctx, `ALTER TABLE records ADD COLUMN version INTEGER NOT NULL DEFAULT 0`); err != nil {
		return fmt.Errorf("store: add version column: %w", err)
	}
	return nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) Load(ctx context.Context, id string) (*record.Record, error) {
	return load(ctx, s.db, id)
}

func (s *SQLite) Save(ctx context.Context, r *record.Record) error {
	posting, err := json.Marshal(r.Posting)
	if err != nil {
		return fmt.Errorf("save %s: encode posting: %w", r.ID, err)
	}
	var match []byte
	if r.Match != nil {
		if match, err = json.Marshal(r.Match); err != nil {
			return fmt.Errorf("save %s: encode match: %w", r.ID, err)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save %s: begin: %w", r.ID, err)
	}
	defer tx.Rollback() //nolint:errcheck

	var (
		stored int64
		exists = true
	)
	err = tx.QueryRowContext(ctx, `SELECT version FROM records WHERE id = ?`, r.ID).Scan(&stored)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		exists = false
	case err != nil:
		return fmt.Errorf("save %s: read version: %w", r.ID, err)
	}
	if err := checkVersion(stored, exists, r); err != nil {
		return err
	}

	var outcomes, history int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM outcomes WHERE record_id = ?`, r.ID).Scan(&outcomes); err != nil {
		return fmt.Errorf("save %s: count outcomes: %w", r.ID, err)
	}
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM status_history WHERE record_id = ?`, r.ID).Scan(&history); err != nil {
		return fmt.Errorf("save %s: count history: %w", r.ID, err)
	}
	if len(r.Outcomes) < outcomes || len(r.History) < history {
		return fmt.Errorf("save %s: %w", r.ID, ErrHistoryRewritten)
	}

	var res sql.Result
	if exists {
		res, err = tx.ExecContext(ctx,
			`UPDATE records SET status = ?, deleted = ?, posting = ?, match = ?, updated_at = ?, version = version + 1
			 WHERE id = ? AND version = ?`,
			string(r.Status), r.Deleted, string(posting), nullString(match), formatTime(r.UpdatedAt),
			r.ID, r.Version,
		)
	} else {
		res, err = tx.ExecContext(ctx,
			`INSERT INTO records (id, status, deleted, version, posting, match, created_at, updated_at)
			 VALUES (?, ?, ?, 1, ?, ?, ?, ?)
			 ON CONFLICT (id) DO NOTHING`,
			r.ID, string(r.Status), r.Deleted, string(posting), nullString(match),
			formatTime(r.CreatedAt), formatTime(r.UpdatedAt),
		)
	}
	if err != nil {
		return fmt.Errorf("save %s: write record: %w", r.ID, err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("save %s: write record: %w", r.ID, err)
	} else if n == 0 {
		return fmt.Errorf("save %s at version %d: %w", r.ID, r.Version, ErrConflict)
	}

	for seq := outcomes; seq < len(r.Outcomes); seq++ {
		data, err := json.Marshal(r.Outcomes[seq])
		if err != nil {
			return fmt.Errorf("save %s: encode outcome %d: %w", r.ID, seq, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO outcomes (record_id, seq, data) VALUES (?, ?, ?)`,
			r.ID, seq, string(data),
		); err != nil {
			return fmt.Errorf("save %s: insert outcome %d: %w", r.ID, seq, err)
		}
	}

	for seq := history; seq < len(r.History); seq++ {
		h := r.History[seq]
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO status_history (record_id, seq, from_status, to_status, reason, at) VALUES (?, ?, ?, ?, ?, ?)`,
			r.ID, seq, string(h.From), string(h.To), h.Reason, formatTime(h.At),
		); err != nil {
			return fmt.Errorf("save %s: insert status change %d: %w", r.ID, seq, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save %s: commit: %w", r.ID, err)
	}
	r.Version++
	return nil
}

// ListByStatus filters in SQL so only matching records are decoded.
func (s *SQLite) ListByStatus(ctx context.Context, status record.Status) ([]*record.Record, error) {
	return s.list(ctx, `SELECT id FROM records WHERE status = ? ORDER BY created_at, id`, string(status))
}

func (s *SQLite) List(ctx context.Context) ([]*record.Record, error) {
	return s.list(ctx, `SELECT id FROM records ORDER BY created_at, id`)
}

func (s *SQLite) list(ctx context.Context, query string, args ...any) ([]*record.Record, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}

	// Collect IDs first: the single connection is busy until rows are closed.
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("list records: scan: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("list records: %w", err)
	}
	rows.Close()

	out := make([]*record.Record, 0, len(ids))
	for _, id := range ids {
		r, err := load(ctx, s.db, id)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

func load(ctx context.Context, q querier, id string) (*record.Record, error) {
	var (
		r                    record.Record
		status               string
		posting              string
		match                sql.NullString
		createdAt, updatedAt string
	)
	err := q.QueryRowContext(ctx,
		`SELECT id, status, deleted, version, posting, match, created_at, updated_at FROM records WHERE id = ?`, id,
	).Scan(&r.ID, &status, &r.Deleted, &r.Version, &posting, &match, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("load %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", id, err)
	}

	r.Status = record.Status(status)
	if err := json.Unmarshal([]byte(posting), &r.Posting); err != nil {
		return nil, fmt.Errorf("load %s: decode posting: %w", id, err)
	}
	if match.Valid {
		r.Match = &scoring.MatchResult{}
		if err := json.Unmarshal([]byte(match.String), r.Match); err != nil {
			return nil, fmt.Errorf("load %s: decode match: %w", id, err)
		}
	}
	if r.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("load %s: %w", id, err)
	}
	if r.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("load %s: %w", id, err)
	}

	if r.Outcomes, err = loadOutcomes(ctx, q, id); err != nil {
		return nil, err
	}
	if r.History, err = loadHistory(ctx, q, id); err != nil {
		return nil, err
	}
	return &r, nil
}

func loadOutcomes(ctx context.Context, q querier, id string) ([]record.Outcome, error) {
	rows, err := q.QueryContext(ctx, `SELECT data FROM outcomes WHERE record_id = ? ORDER BY seq`, id)
	if err != nil {
		return nil, fmt.Errorf("load %s: outcomes: %w", id, err)
	}
	defer rows.Close()

	var out []record.Outcome
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("load %s: scan outcome: %w", id, err)
		}
		var o record.Outcome
		if err := json.Unmarshal([]byte(data), &o); err != nil {
			return nil, fmt.Errorf("load %s: decode outcome: %w", id, err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func loadHistory(ctx context.Context, q querier, id string) ([]record.StatusChange, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT from_status, to_status, reason, at FROM status_history WHERE record_id = ? ORDER BY seq`, id)
	if err != nil {
		return nil, fmt.Errorf("load %s: history: %w", id, err)
	}
	defer rows.Close()

	var out []record.StatusChange
	for rows.Next() {
		var (
			from, to, at string
			reason       sql.NullString
		)
		if err := rows.Scan(&from, &to, &reason, &at); err != nil {
			return nil, fmt.Errorf("load %s: scan status change: %w", id, err)
		}
		ts, err := parseTime(at)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", id, err)
		}
		out = append(out, record.StatusChange{
			From:   record.Status(from),
			To:     record.Status(to),
			Reason: reason.String,
			At:     ts,
		})
	}
	return out, rows.Err()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", s, err)
	}
	return t, nil
}

func nullString(b []byte) sql.NullString {
	if b == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: string(b), Valid: true}
}
