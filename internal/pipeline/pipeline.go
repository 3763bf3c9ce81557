// Package pipeline drives application records from a score to a reviewed, tailored resume.
// It owns the tailoring gate, the per-record in-flight registry, retries and the audit trail.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/hh-tailor/internal/ai"
	"github.com/spigell/hh-tailor/internal/lexicon"
	"github.com/spigell/hh-tailor/internal/logger"
	"github.com/spigell/hh-tailor/internal/prompts"
	"github.com/spigell/hh-tailor/internal/record"
	"github.com/spigell/hh-tailor/internal/scoring"
	"github.com/spigell/hh-tailor/internal/store"
)

// Scorer computes match results. *scoring.Engine implements it.
type Scorer interface {
	Score(profile scoring.Profile, posting scoring.Posting) (*scoring.MatchResult, error)
}

// Tailorer produces resume drafts and cover letters. *ai.Client implements it.
type Tailorer interface {
	TailorResume(ctx context.Context, p ai.Payload) (*ai.ResumeDraft, error)
	WriteCoverLetter(ctx context.Context, p ai.Payload) (*ai.CoverLetter, error)
	// Forget drops any cached answer for the payload.
	Forget(ctx context.Context, p ai.Payload)
}

// Renderer renders prompt templates. *prompts.Loader implements it.
type Renderer interface {
	Render(name string, vars prompts.Vars) (string, error)
}

// Deps are the collaborators of a Pipeline. Without AI and Prompts the pipeline scores and
// manages records but cannot tailor. Lexicon and Logger are optional.
type Deps struct {
	Store   store.Store
	Scorer  Scorer
	AI      Tailorer
	Prompts Renderer
	Lexicon *lexicon.Lexicon
	Logger  *zap.Logger
}

// Pipeline is safe for concurrent use. Different records are processed in parallel, a
// single record never has more than one tailoring attempt in flight.
type Pipeline struct {
	cfg     Config
	store   store.Store
	scorer  Scorer
	ai      Tailorer
	prompts Renderer
	lex     *lexicon.Lexicon
	logger  *zap.Logger
	now     func() time.Time

	mu       sync.Mutex
	inflight map[string]*attempt
}

// attempt is the registry entry of a running Tailor call. Its flags are guarded by
// Pipeline.mu.
type attempt struct {
	cancel    context.CancelFunc
	cancelled bool
	network   bool
}

func New(cfg Config, deps Deps) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if deps.Store == nil || deps.Scorer == nil {
		return nil, errors.New("pipeline requires a store and a scorer")
	}

	lex := deps.Lexicon
	if lex == nil {
		lex = lexicon.Default()
	}
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return &Pipeline{
		cfg:      cfg,
		store:    deps.Store,
		scorer:   deps.Scorer,
		ai:       deps.AI,
		prompts:  deps.Prompts,
		lex:      lex,
		logger:   log,
		now:      func() time.Time { return time.Now().UTC() },
		inflight: make(map[string]*attempt),
	}, nil
}

// Config returns the pipeline configuration.
func (p *Pipeline) Config() Config {
	return p.cfg
}

// acquire claims the in-flight slot of a record. Tailor passes the cancel func of its run;
// status changes claim the slot with a nil cancel for the duration of a load and save.
func (p *Pipeline) acquire(id string, cancel context.CancelFunc) (*attempt, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, busy := p.inflight[id]; busy {
		return nil, fmt.Errorf("record %s: %w", id, ErrTailoringInProgress)
	}
	a := &attempt{cancel: cancel}
	p.inflight[id] = a
	return a, nil
}

func (p *Pipeline) release(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.inflight, id)
}

// beginNetwork marks the first backend call of an attempt. It fails when the attempt was
// cancelled before that point.
func (p *Pipeline) beginNetwork(a *attempt) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if a.cancelled {
		return false
	}
	a.network = true
	return true
}

func (p *Pipeline) isCancelled(a *attempt) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return a.cancelled
}

// Cancel asks the in-flight attempt of a record to stop. Cancellation is cooperative: a
// backend call already running is not interrupted on the provider side, but its result is
// discarded. A record left in TAILORING by a process that is gone is resolved to
// TAILORING_FAILED.
func (p *Pipeline) Cancel(ctx context.Context, id string) error {
	p.mu.Lock()
	a, ok := p.inflight[id]
	switch {
	case ok && a.cancel != nil:
		a.cancelled = true
		a.cancel()
	case ok:
		p.mu.Unlock()
		return fmt.Errorf("record %s: %w", id, ErrNotInFlight)
	default:
		p.inflight[id] = &attempt{}
	}
	p.mu.Unlock()

	if ok {
		p.logger.Info("cancelling tailoring attempt", zap.String(logger.FieldRecord, id))
		return nil
	}
	defer p.release(id)

	rec, err := p.load(ctx, id)
	if err != nil {
		return err
	}
	if rec.Status != record.StatusTailoring {
		return fmt.Errorf("record %s: %w", id, ErrNotInFlight)
	}

	now := p.now()
	rec.Append(cancelledOutcome(len(rec.Outcomes)+1, "", now, now))
	if err := rec.Transition(record.StatusTailoringFailed, "stale attempt cancelled", now); err != nil {
		return err
	}
	if err := p.save(ctx, rec); err != nil {
		return err
	}
	p.logger.Warn("stale tailoring attempt resolved", zap.String(logger.FieldRecord, id))
	return nil
}
