package record

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spigell/hh-tailor/internal/scoring"
)

var now = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func TestLifecycle(t *testing.T) {
	t.Parallel()

	r := New(scoring.Posting{ID: "job-1"}, &scoring.MatchResult{Overall: 0.8}, now)
	require.Equal(t, StatusScored, r.Status)
	require.Equal(t, "job-1", r.ID)

	steps := []Status{StatusTailoring, StatusPendingReview, StatusApproved, StatusApplied, StatusDeleted}
	for _, to := range steps {
		require.NoError(t, r.Transition(to, "step", now))
	}

	assert.True(t, r.Deleted)
	assert.Len(t, r.History, len(steps)+1)
	assert.Equal(t, StatusApproved, r.History[len(r.History)-2].From)

	err := r.Transition(StatusScored, "revive", now)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestCanTransition(t *testing.T) {
	t.Parallel()

	tests := []struct {
		from, to Status
		ok       bool
	}{
		{StatusScored, StatusTailoring, true},
		{StatusScored, StatusScored, true},
		{StatusScored, StatusPendingReview, false},
		{StatusTailoring, StatusScored, true},
		{StatusTailoringFailed, StatusTailoring, true},
		{StatusPendingReview, StatusApplied, false},
		{StatusApproved, StatusApplied, true},
		{StatusRejected, StatusTailoring, false},
		{StatusApplied, StatusDeleted, true},
		{StatusDeleted, StatusDeleted, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.ok, CanTransition(tt.from, tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestNewGeneratesID(t *testing.T) {
	t.Parallel()

	r := New(scoring.Posting{}, nil, now)
	assert.NotEmpty(t, r.ID)
	assert.Equal(t, r.ID, r.Posting.ID)
	assert.Zero(t, r.Overall())
}

func TestCloneIsDeep(t *testing.T) {
	t.Parallel()

	r := New(scoring.Posting{ID: "job-2"}, &scoring.MatchResult{Gaps: []string{"go"}}, now)
	r.Append(Outcome{Attempt: 1, Changes: []Change{{Section: "summary", Action: ActionEmphasized}}})

	c := r.Clone()
	c.Match.Gaps[0] = "rust"
	c.Outcomes[0].Changes[0].Section = "skills"
	c.History[0].Reason = "changed"

	assert.Equal(t, "go", r.Match.Gaps[0])
	assert.Equal(t, "summary", r.Outcomes[0].Changes[0].Section)
	assert.Equal(t, "scored", r.History[0].Reason)
}

func TestLastSuccess(t *testing.T) {
	t.Parallel()

	r := New(scoring.Posting{ID: "job-3"}, nil, now)
	_, ok := r.LastSuccess()
	assert.False(t, ok)

	r.Append(Outcome{Attempt: 1, Success: true, Resume: "first"})
	r.Append(Outcome{Attempt: 1, Error: "boom"})

	o, ok := r.LastSuccess()
	require.True(t, ok)
	assert.Equal(t, "first", o.Resume)

	last, _ := r.LastOutcome()
	assert.Equal(t, "boom", last.Error)
}

func TestActionValid(t *testing.T) {
	t.Parallel()

	assert.True(t, ActionExpandedExisting.Valid())
	assert.False(t, Action("added-new-fact").Valid())
	assert.False(t, Action("fabricated").Valid())
}

func TestParseStatus(t *testing.T) {
	t.Parallel()

	s, err := ParseStatus(" Pending_Review ")
	require.NoError(t, err)
	assert.Equal(t, StatusPendingReview, s)

	_, err = ParseStatus("archived")
	assert.Error(t, err)
}
