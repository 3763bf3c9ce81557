package pipeline

import (
	"context"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/spigell/hh-tailor/internal/record"
)

// Result is the outcome of one request of a batch.
type Result struct {
	RecordID string
	Outcome  *record.Outcome
	Err      error
}

// TailorAll tailors the requests with at most Config.Concurrency running at once. A failure
// of one record does not stop the others. Results keep the order of the requests.
func (p *Pipeline) TailorAll(ctx context.Context, reqs []Request) []Result {
	results := make([]Result, len(reqs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Concurrency)

	for i, req := range reqs {
		if req.id() == "" {
			req.RecordID = uuid.NewString()
		}
		g.Go(func() error {
			out, err := p.Tailor(gctx, req)
			results[i] = Result{RecordID: req.id(), Outcome: out, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	return results
}
