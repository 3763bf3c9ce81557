package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spigell/hh-tailor/internal/ai"
	"github.com/spigell/hh-tailor/internal/logger"
	"github.com/spigell/hh-tailor/internal/prompts"
	"github.com/spigell/hh-tailor/internal/record"
	"github.com/spigell/hh-tailor/internal/scoring"
	"github.com/spigell/hh-tailor/internal/store"
	"github.com/spigell/hh-tailor/internal/utils"
)

var (
	// ErrEmptyResume is returned when the request carries no resume text to tailor.
	ErrEmptyResume = errors.New("resume variant has no text")
	// ErrNoBackend is returned by Tailor on a pipeline built without an AI client.
	ErrNoBackend = errors.New("no AI backend configured")
	// ErrAttemptTimeout marks an attempt that ran out of its time limit. It is transient.
	ErrAttemptTimeout = errors.New("attempt timed out")
)

// Variant is a named resume text of the candidate.
type Variant struct {
	Name string `mapstructure:"name" json:"name"`
	Text string `mapstructure:"text" json:"text"`
}

// Request is one user-initiated tailoring attempt.
type Request struct {
	// RecordID defaults to the posting ID. A random one is generated when both are empty.
	RecordID string
	Posting  scoring.Posting
	Profile  scoring.Profile
	Variant  Variant
	// Level overrides the posting level when set.
	Level scoring.RoleLevel
	// Threshold is the gate at evaluation time. Nil selects Config.DefaultThreshold.
	Threshold *float64
}

func (r Request) id() string {
	if id := strings.TrimSpace(r.RecordID); id != "" {
		return id
	}
	return strings.TrimSpace(r.Posting.ID)
}

// Tailor re-scores the posting, enforces the threshold gate and, when it passes, generates
// a tailored resume and cover letter. Transient backend failures are retried with
// exponential backoff; every attempt is appended to the record's outcomes.
func (p *Pipeline) Tailor(ctx context.Context, req Request) (*record.Outcome, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	id := req.id()
	if id == "" {
		id = uuid.NewString()
	}
	req.Posting.ID = id
	if req.Level != "" {
		req.Posting.Level = req.Level
	}
	if p.ai == nil || p.prompts == nil {
		return nil, ErrNoBackend
	}
	if strings.TrimSpace(req.Variant.Text) == "" {
		return nil, ErrEmptyResume
	}
	threshold := p.cfg.DefaultThreshold
	if req.Threshold != nil {
		threshold = *req.Threshold
		if threshold < 0 || threshold > 1 {
			return nil, fmt.Errorf("threshold %.2f: %w", threshold, ErrInvalidThreshold)
		}
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	a, err := p.acquire(id, cancel)
	if err != nil {
		return nil, err
	}
	defer p.release(id)

	// Persistence must survive cancellation of the run.
	persist := context.WithoutCancel(ctx)
	log := logger.WithRecord(p.logger, id, req.Posting.Company)

	rec, err := p.load(persist, id)
	switch {
	case errors.Is(err, store.ErrNotFound):
	case err != nil:
		return nil, err
	case rec.Deleted:
		return nil, fmt.Errorf("record %s: %w", id, ErrRecordDeleted)
	case !rec.Status.Tailorable():
		return nil, &record.TransitionError{From: rec.Status, To: record.StatusTailoring}
	}

	match, err := p.scorer.Score(req.Profile, req.Posting)
	if err != nil {
		return nil, fmt.Errorf("score record %s: %w", id, err)
	}

	now := p.now()
	if rec == nil {
		rec = record.New(req.Posting, match, now)
	} else {
		rec.Posting = req.Posting
		rec.Match = match
		rec.UpdatedAt = now
	}

	if match.Overall < threshold {
		if rec.Status != record.StatusScored {
			if err := rec.Transition(record.StatusScored, "rescored", now); err != nil {
				return nil, err
			}
		}
		if err := p.save(persist, rec); err != nil {
			return nil, err
		}
		log.Info("score is below the threshold, skipping tailoring",
			zap.Float64("overall", match.Overall),
			zap.Float64("threshold", threshold),
		)
		return nil, &ThresholdNotMetError{Overall: match.Overall, Threshold: threshold}
	}

	reason := fmt.Sprintf("score %.2f meets threshold %.2f", match.Overall, threshold)
	if err := rec.Transition(record.StatusTailoring, reason, now); err != nil {
		return nil, err
	}
	if err := p.save(persist, rec); err != nil {
		return nil, err
	}

	return p.run(runCtx, persist, a, rec, req, log)
}

func (p *Pipeline) run(ctx, persist context.Context, a *attempt, rec *record.Record, req Request, log *zap.Logger) (*record.Outcome, error) {
	resumePayload, letterPayload, err := p.payloads(req)
	if err != nil {
		now := p.now()
		rec.Append(failedOutcome(len(rec.Outcomes)+1, req.Variant.Name, now, now, err))
		log.Error("rendering prompts", zap.Error(err))
		return nil, p.fail(persist, rec, "prompt rendering failed", err)
	}

	for n := 1; ; n++ {
		started := p.now()
		if ctx.Err() != nil || !p.beginNetwork(a) {
			return nil, p.abort(persist, ctx, rec, a, n, req.Variant.Name, started, log)
		}

		log.Info("tailoring attempt", logger.Attempt(n))
		draft, letter, err := p.generate(ctx, resumePayload, letterPayload)
		finished := p.now()

		if p.isCancelled(a) || ctx.Err() != nil {
			return nil, p.abort(persist, ctx, rec, a, n, req.Variant.Name, started, log)
		}

		if err != nil {
			rec.Append(failedOutcome(n, req.Variant.Name, started, finished, err))
			transient := isTransient(err)
			log.Warn("tailoring attempt failed",
				logger.Attempt(n),
				zap.String("kind", errorKind(err)),
				zap.Bool("transient", transient),
				zap.Error(err),
			)

			if !transient {
				return nil, p.fail(persist, rec, "permanent failure: "+errorKind(err), err)
			}
			if n >= p.cfg.MaxAttempts {
				return nil, p.fail(persist, rec, "max retries exceeded", &MaxRetriesExceededError{Attempts: n, Last: err})
			}
			if err := p.save(persist, rec); err != nil {
				return nil, err
			}

			delay := p.backoff(n, err)
			log.Info("retrying tailoring", logger.Attempt(n+1), zap.Duration("backoff", delay))
			if err := utils.WaitFor(ctx, delay); err != nil {
				return nil, p.abort(persist, ctx, rec, a, n+1, req.Variant.Name, p.now(), log)
			}
			continue
		}

		outcome := record.Outcome{
			Attempt:     n,
			Variant:     req.Variant.Name,
			Resume:      draft.Resume,
			CoverLetter: letter.Text,
			Changes:     changes(draft.Changes),
			Usage:       usage(draft.Usage),
			StartedAt:   started,
			FinishedAt:  finished,
		}
		outcome.Usage.Add(usage(letter.Usage))

		if violations := checkIntegrity(p.lex, req.Profile, req.Variant.Text, draft); len(violations) > 0 {
			ierr := &IntegrityError{Violations: violations}
			outcome.ErrorKind = "integrity"
			outcome.Error = ierr.Error()
			outcome.IntegrityViolation = true
			outcome.Violations = violations
			rec.Append(outcome)
			log.Error("generated resume failed the integrity check", logger.Attempt(n), zap.Strings("violations", violations))
			p.ai.Forget(persist, resumePayload)
			return nil, p.fail(persist, rec, "integrity violation", ierr)
		}

		outcome.Success = true
		rec.Append(outcome)
		if err := rec.Transition(record.StatusPendingReview, "tailored", finished); err != nil {
			return nil, err
		}
		if err := p.save(persist, rec); err != nil {
			return nil, err
		}

		log.Info("tailoring succeeded",
			logger.Attempt(n),
			zap.Int("changes", len(outcome.Changes)),
			zap.Int("prompt_tokens", outcome.Usage.PromptTokens),
			zap.Int("output_tokens", outcome.Usage.OutputTokens),
			zap.Bool("cached", outcome.Usage.Cached),
		)
		return &outcome, nil
	}
}

func (p *Pipeline) payloads(req Request) (ai.Payload, ai.Payload, error) {
	level := req.Posting.Level
	if level == "" {
		level = scoring.LevelStandard
	}
	vars := prompts.Vars{
		prompts.VarRoleLevel:      string(level),
		prompts.VarCompanyName:    req.Posting.Company,
		prompts.VarJobTitle:       req.Posting.Title,
		prompts.VarJobDescription: req.Posting.Description,
		prompts.VarResumeText:     req.Variant.Text,
	}

	system, err := p.prompts.Render(prompts.System, vars)
	if err != nil {
		return ai.Payload{}, ai.Payload{}, err
	}
	resume, err := p.prompts.Render(prompts.Resume, vars)
	if err != nil {
		return ai.Payload{}, ai.Payload{}, err
	}
	letter, err := p.prompts.Render(prompts.CoverLetter, vars)
	if err != nil {
		return ai.Payload{}, ai.Payload{}, err
	}

	return ai.Payload{Name: prompts.Resume, System: system, Text: resume, JSON: true},
		ai.Payload{Name: prompts.CoverLetter, System: system, Text: letter},
		nil
}

// generate runs one attempt under the attempt timeout.
func (p *Pipeline) generate(ctx context.Context, resumePayload, letterPayload ai.Payload) (*ai.ResumeDraft, *ai.CoverLetter, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, p.cfg.AttemptTimeout)
	defer cancel()

	draft, err := p.ai.TailorResume(attemptCtx, resumePayload)
	var letter *ai.CoverLetter
	if err == nil {
		letter, err = p.ai.WriteCoverLetter(attemptCtx, letterPayload)
	}
	if err != nil {
		if errors.Is(attemptCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, nil, fmt.Errorf("%w after %s: %w", ErrAttemptTimeout, p.cfg.AttemptTimeout, err)
		}
		return nil, nil, err
	}
	return draft, letter, nil
}

func (p *Pipeline) backoff(n int, err error) time.Duration {
	d := utils.Backoff(p.cfg.BaseBackoff, p.cfg.MaxBackoff, n)
	if hint := ai.RetryAfter(err); hint > d {
		d = hint
	}
	return d
}

// abort resolves a cancelled attempt. Before any backend call the record returns to
// SCORED; afterwards the attempt is recorded as cancelled and the record fails.
func (p *Pipeline) abort(persist, ctx context.Context, rec *record.Record, a *attempt, n int, variant string, started time.Time, log *zap.Logger) error {
	p.mu.Lock()
	network, byOperator := a.network, a.cancelled
	p.mu.Unlock()

	cause := ErrCancelled
	if !byOperator && ctx.Err() != nil {
		cause = fmt.Errorf("tailoring interrupted: %w", ctx.Err())
	}

	now := p.now()
	if !network {
		if err := rec.Transition(record.StatusScored, "cancelled before any request", now); err != nil {
			return err
		}
		if err := p.save(persist, rec); err != nil {
			return err
		}
		log.Info("tailoring cancelled before any request")
		return cause
	}

	rec.Append(cancelledOutcome(n, variant, started, now))
	log.Warn("tailoring cancelled, result discarded", logger.Attempt(n))
	if err := p.fail(persist, rec, "cancelled", nil); err != nil {
		return err
	}
	return cause
}

// fail moves the record to TAILORING_FAILED and returns cause, or the save error.
func (p *Pipeline) fail(ctx context.Context, rec *record.Record, reason string, cause error) error {
	if err := rec.Transition(record.StatusTailoringFailed, reason, p.now()); err != nil {
		return err
	}
	if err := p.save(ctx, rec); err != nil {
		return err
	}
	return cause
}

func isTransient(err error) bool {
	return ai.IsTransient(err) || errors.Is(err, ErrAttemptTimeout)
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, ErrAttemptTimeout):
		return "timeout"
	case errors.Is(err, prompts.ErrTemplate), errors.Is(err, prompts.ErrUnknownTemplate):
		return "template"
	default:
		return ai.Kind(err)
	}
}

func failedOutcome(n int, variant string, started, finished time.Time, err error) record.Outcome {
	return record.Outcome{
		Attempt:    n,
		Variant:    variant,
		ErrorKind:  errorKind(err),
		Error:      err.Error(),
		StartedAt:  started,
		FinishedAt: finished,
	}
}

func cancelledOutcome(n int, variant string, started, finished time.Time) record.Outcome {
	return record.Outcome{
		Attempt:    n,
		Variant:    variant,
		ErrorKind:  "cancelled",
		Error:      ErrCancelled.Error(),
		Cancelled:  true,
		StartedAt:  started,
		FinishedAt: finished,
	}
}

func changes(in []ai.DraftChange) []record.Change {
	out := make([]record.Change, 0, len(in))
	for _, c := range in {
		out = append(out, record.Change{Section: c.Section, Action: record.Action(c.Action), Detail: c.Detail})
	}
	return out
}

func usage(u ai.Usage) record.Usage {
	return record.Usage{PromptTokens: u.PromptTokens, OutputTokens: u.OutputTokens, Cached: u.Cached}
}
