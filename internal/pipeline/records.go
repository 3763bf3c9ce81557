package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spigell/hh-tailor/internal/logger"
	"github.com/spigell/hh-tailor/internal/record"
	"github.com/spigell/hh-tailor/internal/scoring"
	"github.com/spigell/hh-tailor/internal/store"
)

// Evaluate scores a posting and stores the result. A new posting creates a SCORED record;
// a known one is rescored when its status allows it.
func (p *Pipeline) Evaluate(ctx context.Context, profile scoring.Profile, posting scoring.Posting) (*record.Record, error) {
	if posting.ID == "" {
		posting.ID = uuid.NewString()
	}
	if _, err := p.acquire(posting.ID, nil); err != nil {
		return nil, err
	}
	defer p.release(posting.ID)

	rec, err := p.load(ctx, posting.ID)
	switch {
	case errors.Is(err, store.ErrNotFound):
	case err != nil:
		return nil, err
	case rec.Deleted:
		return nil, fmt.Errorf("record %s: %w", posting.ID, ErrRecordDeleted)
	case !rec.Status.Rescorable():
		return nil, &record.TransitionError{From: rec.Status, To: record.StatusScored}
	}

	match, err := p.scorer.Score(profile, posting)
	if err != nil {
		return nil, fmt.Errorf("score record %s: %w", posting.ID, err)
	}

	now := p.now()
	if rec == nil {
		rec = record.New(posting, match, now)
	} else {
		rec.Posting = posting
		rec.Match = match
		if err := rec.Transition(record.StatusScored, "rescored", now); err != nil {
			return nil, err
		}
	}

	if err := p.save(ctx, rec); err != nil {
		return nil, err
	}

	logger.WithRecord(p.logger, rec.ID, posting.Company).Info("posting scored",
		zap.Float64("overall", match.Overall),
		zap.String("verdict", string(match.Verdict)),
	)
	return rec, nil
}

// Approve accepts the tailored resume of a record in review.
func (p *Pipeline) Approve(ctx context.Context, id, reason string) (*record.Record, error) {
	return p.move(ctx, id, record.StatusApproved, reasonOr(reason, "approved"))
}

// Reject declines the tailored resume of a record in review.
func (p *Pipeline) Reject(ctx context.Context, id, reason string) (*record.Record, error) {
	return p.move(ctx, id, record.StatusRejected, reasonOr(reason, "rejected"))
}

// MarkApplied records that an approved application was submitted.
func (p *Pipeline) MarkApplied(ctx context.Context, id, reason string) (*record.Record, error) {
	return p.move(ctx, id, record.StatusApplied, reasonOr(reason, "submitted"))
}

// Delete soft-deletes a record. Its history is kept.
func (p *Pipeline) Delete(ctx context.Context, id, reason string) (*record.Record, error) {
	return p.move(ctx, id, record.StatusDeleted, reasonOr(reason, "deleted"))
}

func (p *Pipeline) move(ctx context.Context, id string, to record.Status, reason string) (*record.Record, error) {
	if _, err := p.acquire(id, nil); err != nil {
		return nil, err
	}
	defer p.release(id)

	rec, err := p.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec.Deleted {
		return nil, fmt.Errorf("record %s: %w", id, ErrRecordDeleted)
	}

	from := rec.Status
	if err := rec.Transition(to, reason, p.now()); err != nil {
		return nil, err
	}
	if err := p.save(ctx, rec); err != nil {
		return nil, err
	}

	logger.WithRecord(p.logger, id, rec.Posting.Company).Info("status changed",
		zap.String("from", string(from)),
		zap.String("to", string(to)),
		zap.String("reason", reason),
	)
	return rec, nil
}

// Record returns a record, deleted ones included.
func (p *Pipeline) Record(ctx context.Context, id string) (*record.Record, error) {
	return p.load(ctx, id)
}

// Outcomes returns the attempt history of a record, oldest first.
func (p *Pipeline) Outcomes(ctx context.Context, id string) ([]record.Outcome, error) {
	rec, err := p.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return rec.Outcomes, nil
}

// ListByStatus returns the records in a status, oldest first.
func (p *Pipeline) ListByStatus(ctx context.Context, status record.Status) ([]*record.Record, error) {
	records, err := p.store.ListByStatus(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("list %s records: %w", status, err)
	}
	return records, nil
}

// ReviewQueue returns the records waiting for review, best match first.
func (p *Pipeline) ReviewQueue(ctx context.Context) ([]*record.Record, error) {
	records, err := p.ListByStatus(ctx, record.StatusPendingReview)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Overall() > records[j].Overall()
	})
	return records, nil
}

// Stats summarizes the record store.
type Stats struct {
	// Total counts records that are not deleted.
	Total    int                   `json:"total"`
	ByStatus map[record.Status]int `json:"by_status"`
	// AverageScore is the mean overall score of records that are not deleted.
	AverageScore   float64      `json:"average_score"`
	Attempts       int          `json:"attempts"`
	FailedAttempts int          `json:"failed_attempts"`
	Usage          record.Usage `json:"usage"`
}

func (p *Pipeline) Stats(ctx context.Context) (*Stats, error) {
	records, err := p.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}

	s := &Stats{ByStatus: make(map[record.Status]int, len(record.Statuses()))}
	for _, status := range record.Statuses() {
		s.ByStatus[status] = 0
	}

	var sum float64
	for _, rec := range records {
		s.ByStatus[rec.Status]++
		for _, o := range rec.Outcomes {
			s.Attempts++
			if !o.Success {
				s.FailedAttempts++
			}
			s.Usage.Add(o.Usage)
		}
		if rec.Deleted {
			continue
		}
		s.Total++
		sum += rec.Overall()
	}
	if s.Total > 0 {
		s.AverageScore = sum / float64(s.Total)
	}
	return s, nil
}

func (p *Pipeline) load(ctx context.Context, id string) (*record.Record, error) {
	rec, err := p.store.Load(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load record %s: %w", id, err)
	}
	return rec, nil
}

func (p *Pipeline) save(ctx context.Context, rec *record.Record) error {
	if err := p.store.Save(ctx, rec); err != nil {
		return fmt.Errorf("save record %s: %w", rec.ID, err)
	}
	return nil
}

func reasonOr(reason, fallback string) string {
	if reason == "" {
		return fallback
	}
	return reason
}
