// Package store persists application records.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/spigell/hh-tailor/internal/record"
)

var (
	// ErrNotFound is returned by Load for unknown record IDs.
	ErrNotFound = errors.New("record not found")
	// ErrHistoryRewritten is returned by Save when the record carries fewer outcomes or
	// status changes than already stored.
	ErrHistoryRewritten = errors.New("record history is append-only")
	// ErrConflict is returned by Save when the record was saved by someone else since it
	// was loaded.
	ErrConflict = errors.New("record was modified concurrently")
)

// Store is the persistence boundary of the pipeline. Save is atomic with respect to the
// status and the outcomes appended since the last save. Save accepts a record only at the
// stored Version (zero for a new record) and increments r.Version on success.
type Store interface {
	Load(ctx context.Context, id string) (*record.Record, error)
	Save(ctx context.Context, r *record.Record) error
	ListByStatus(ctx context.Context, status record.Status) ([]*record.Record, error)
	List(ctx context.Context) ([]*record.Record, error)
	Close() error
}

func checkVersion(stored int64, exists bool, next *record.Record) error {
	if !exists && next.Version != 0 || exists && stored != next.Version {
		return fmt.Errorf("save %s at version %d: %w", next.ID, next.Version, ErrConflict)
	}
	return nil
}

func checkAppendOnly(stored, next *record.Record) error {
	if len(next.Outcomes) < len(stored.Outcomes) || len(next.History) < len(stored.History) {
		return fmt.Errorf("save %s: %w", next.ID, ErrHistoryRewritten)
	}
	return nil
}
