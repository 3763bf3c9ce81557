// Package record defines the application record, its tailoring outcomes and the status
// state machine the pipeline drives it through.
package record

import (
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/spigell/hh-tailor/internal/scoring"
)

// Action is the kind of structural change a tailoring run applied to a resume section.
type Action string

const (
	ActionReordered        Action = "reordered"
	ActionEmphasized       Action = "emphasized"
	ActionExpandedExisting Action = "expanded-existing"
)

// Valid reports whether the action belongs to the closed set of allowed edits.
func (a Action) Valid() bool {
	switch a {
	case ActionReordered, ActionEmphasized, ActionExpandedExisting:
		return true
	}
	return false
}

// Change is one entry of the diff summary of a tailored resume.
type Change struct {
	Section string `json:"section"`
	Action  Action `json:"action"`
	Detail  string `json:"detail,omitempty"`
}

// Usage is the token accounting of one attempt.
type Usage struct {
	PromptTokens int  `json:"prompt_tokens"`
	OutputTokens int  `json:"output_tokens"`
	Cached       bool `json:"cached,omitempty"`
}

// Add accumulates another usage into u.
func (u *Usage) Add(o Usage) {
	u.PromptTokens += o.PromptTokens
	u.OutputTokens += o.OutputTokens
	u.Cached = u.Cached || o.Cached
}

// Outcome is the result of a single tailoring attempt. Outcomes are append-only.
type Outcome struct {
	Attempt     int      `json:"attempt"`
	Success     bool     `json:"success"`
	Variant     string   `json:"variant,omitempty"`
	Resume      string   `json:"resume,omitempty"`
	CoverLetter string   `json:"cover_letter,omitempty"`
	Changes     []Change `json:"changes,omitempty"`
	Usage       Usage    `json:"usage"`

	ErrorKind string `json:"error_kind,omitempty"`
	Error     string `json:"error,omitempty"`

	IntegrityViolation bool     `json:"integrity_violation,omitempty"`
	Violations         []string `json:"violations,omitempty"`
	Cancelled          bool     `json:"cancelled,omitempty"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// StatusChange is one entry of the record's activity log.
type StatusChange struct {
	From   Status    `json:"from"`
	To     Status    `json:"to"`
	Reason string    `json:"reason,omitempty"`
	At     time.Time `json:"at"`
}

// Record tracks one posting from its first score to submission.
type Record struct {
	ID       string               `json:"id"`
	Posting  scoring.Posting      `json:"posting"`
	Match    *scoring.MatchResult `json:"match,omitempty"`
	Outcomes []Outcome            `json:"outcomes"`
	Status   Status               `json:"status"`
	History  []StatusChange       `json:"history"`
	Deleted  bool                 `json:"deleted"`

	// Version is the stored revision the record was loaded at. Stores bump it on every save
	// and reject saves from an older revision.
	Version int64 `json:"version"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// New creates a SCORED record. The posting ID becomes the record ID; a random one is
// generated when it is empty.
func New(posting scoring.Posting, match *scoring.MatchResult, now time.Time) *Record {
	if posting.ID == "" {
		posting.ID = uuid.NewString()
	}
	return &Record{
		ID:        posting.ID,
		Posting:   posting,
		Match:     match.Clone(),
		Status:    StatusScored,
		History:   []StatusChange{{To: StatusScored, Reason: "scored", At: now}},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Transition moves the record to the given status and logs the change.
func (r *Record) Transition(to Status, reason string, now time.Time) error {
	if !CanTransition(r.Status, to) {
		return &TransitionError{From: r.Status, To: to}
	}
	r.History = append(r.History, StatusChange{From: r.Status, To: to, Reason: reason, At: now})
	r.Status = to
	r.UpdatedAt = now
	if to == StatusDeleted {
		r.Deleted = true
	}
	return nil
}

// Append adds an outcome to the audit trail.
func (r *Record) Append(o Outcome) {
	r.Outcomes = append(r.Outcomes, o)
	if !o.FinishedAt.IsZero() {
		r.UpdatedAt = o.FinishedAt
	}
}

// LastOutcome returns the most recent attempt.
func (r *Record) LastOutcome() (Outcome, bool) {
	if len(r.Outcomes) == 0 {
		return Outcome{}, false
	}
	return r.Outcomes[len(r.Outcomes)-1], true
}

// LastSuccess returns the most recent successful attempt.
func (r *Record) LastSuccess() (Outcome, bool) {
	for i := len(r.Outcomes) - 1; i >= 0; i-- {
		if r.Outcomes[i].Success {
			return r.Outcomes[i], true
		}
	}
	return Outcome{}, false
}

// Overall returns the latest overall score, or zero when the record was never scored.
func (r *Record) Overall() float64 {
	if r.Match == nil {
		return 0
	}
	return r.Match.Overall
}

// Clone returns a deep copy, so callers can hand records across goroutines.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	c := *r
	c.Match = r.Match.Clone()
	c.History = slices.Clone(r.History)
	c.Outcomes = make([]Outcome, len(r.Outcomes))
	for i, o := range r.Outcomes {
		o.Changes = slices.Clone(o.Changes)
		o.Violations = slices.Clone(o.Violations)
		c.Outcomes[i] = o
	}
	if r.Outcomes == nil {
		c.Outcomes = nil
	}
	return &c
}
