package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/spigell/hh-tailor/internal/record"
)

// Memory keeps records in process memory. Records are copied on the way in and out.
type Memory struct {
	mu      sync.RWMutex
	records map[string]*record.Record
}

func NewMemory() *Memory {
	return &Memory{records: make(map[string]*record.Record)}
}

func (m *Memory) Load(_ context.Context, id string) (*record.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.records[id]
	if !ok {
		return nil, fmt.Errorf("load %s: %w", id, ErrNotFound)
	}
	return r.Clone(), nil
}

func (m *Memory) Save(_ context.Context, r *record.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.records[r.ID]
	var version int64
	if ok {
		version = stored.Version
	}
	if err := checkVersion(version, ok, r); err != nil {
		return err
	}
	if ok {
		if err := checkAppendOnly(stored, r); err != nil {
			return err
		}
	}
	r.Version++
	m.records[r.ID] = r.Clone()
	return nil
}

func (m *Memory) ListByStatus(_ context.Context, status record.Status) ([]*record.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*record.Record
	for _, r := range m.records {
		if r.Status == status {
			out = append(out, r.Clone())
		}
	}
	sortRecords(out)
	return out, nil
}

func (m *Memory) List(_ context.Context) ([]*record.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*record.Record, 0, len(m.records))
	for _, r := range m.records {
		out = append(out, r.Clone())
	}
	sortRecords(out)
	return out, nil
}

func (m *Memory) Close() error {
	return nil
}

// sortRecords orders records by creation time, then ID, the same order the SQLite store uses.
func sortRecords(records []*record.Record) {
	sort.Slice(records, func(i, j int) bool {
		if !records[i].CreatedAt.Equal(records[j].CreatedAt) {
			return records[i].CreatedAt.Before(records[j].CreatedAt)
		}
		return records[i].ID < records[j].ID
	})
}
