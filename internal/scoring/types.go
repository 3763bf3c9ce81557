// Package scoring implements the compatibility scoring engine: a deterministic,
// multi-factor matcher between a candidate profile and a job posting.
package scoring

import (
	"fmt"
	"slices"
	"strings"
)

// RoleLevel is the seniority band a posting targets.
type RoleLevel string

const (
	LevelStandard  RoleLevel = "standard"
	LevelSenior    RoleLevel = "senior"
	LevelLead      RoleLevel = "lead"
	LevelPrincipal RoleLevel = "principal"
)

var levelRanks = map[RoleLevel]int{
	LevelStandard:  0,
	LevelSenior:    1,
	LevelLead:      2,
	LevelPrincipal: 3,
}

// Levels lists role levels in ascending seniority.
func Levels() []RoleLevel {
	return []RoleLevel{LevelStandard, LevelSenior, LevelLead, LevelPrincipal}
}

// ParseRoleLevel parses a level name. An empty string means LevelStandard.
func ParseRoleLevel(s string) (RoleLevel, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return LevelStandard, nil
	}
	level := RoleLevel(s)
	if _, ok := levelRanks[level]; !ok {
		return "", fmt.Errorf("unknown role level %q (valid: standard, senior, lead, principal)", s)
	}
	return level, nil
}

// Rank returns the ordinal position of the level. Unknown levels rank as standard.
func (l RoleLevel) Rank() int {
	return levelRanks[l]
}

// Experience is a single entry of the candidate's work history.
type Experience struct {
	Title       string `json:"title" mapstructure:"title"`
	Company     string `json:"company,omitempty" mapstructure:"company"`
	Description string `json:"description,omitempty" mapstructure:"description"`
	Duration    string `json:"duration,omitempty" mapstructure:"duration"`
}

// Profile is the candidate side of a match. It is never modified by the engine.
type Profile struct {
	Name           string       `json:"name,omitempty" mapstructure:"name"`
	Skills         []string     `json:"skills" mapstructure:"skills"`
	Experience     []Experience `json:"experience,omitempty" mapstructure:"experience"`
	Certifications []string     `json:"certifications,omitempty" mapstructure:"certifications"`
}

// Posting is the job side of a match.
type Posting struct {
	ID          string    `json:"id"`
	Title       string    `json:"title,omitempty"`
	Company     string    `json:"company,omitempty"`
	Description string    `json:"description"`
	Level       RoleLevel `json:"level"`
}

// MatchKind tells how a profile skill was found in the posting.
type MatchKind string

const (
	MatchExact MatchKind = "exact"
	MatchAlias MatchKind = "alias"
	MatchFuzzy MatchKind = "fuzzy"
)

// SkillMatch is the evidence for one matched profile skill.
type SkillMatch struct {
	// Skill is the canonical skill, or the normalized profile text for skills unknown to the lexicon.
	Skill string `json:"skill"`
	// Profile is the skill as the candidate wrote it.
	Profile string `json:"profile"`
	// Span is the posting text that matched.
	Span string    `json:"span"`
	Kind MatchKind `json:"kind"`
}

// KeywordHit counts mentions of a globally important keyword.
type KeywordHit struct {
	Keyword string `json:"keyword"`
	Count   int    `json:"count"`
}

// Verdict is a coarse recommendation tier derived from the overall score.
type Verdict string

const (
	VerdictStrong Verdict = "strong_fit"
	VerdictGood   Verdict = "good_fit"
	VerdictReview Verdict = "review"
	VerdictSkip   Verdict = "skip"
)

// MatchResult is the output of Engine.Score.
type MatchResult struct {
	Overall    float64 `json:"overall"`
	Skills     float64 `json:"skills"`
	Experience float64 `json:"experience"`
	Keyword    float64 `json:"keyword"`

	LevelMultiplier float64   `json:"level_multiplier"`
	Level           RoleLevel `json:"level"`

	MatchedSkills      []SkillMatch `json:"matched_skills"`
	Gaps               []string     `json:"gaps"`
	Strengths          []string     `json:"strengths"`
	RelevantExperience []string     `json:"relevant_experience,omitempty"`
	KeywordHits        []KeywordHit `json:"keyword_hits,omitempty"`
	Recommendations    []string     `json:"recommendations"`
	Verdict            Verdict      `json:"verdict"`
}

// Meets reports whether the overall score reaches the threshold.
func (r *MatchResult) Meets(threshold float64) bool {
	return r != nil && r.Overall >= threshold
}

// Matched returns the evidence for the given canonical skill.
func (r *MatchResult) Matched(skill string) (SkillMatch, bool) {
	if r == nil {
		return SkillMatch{}, false
	}
	for _, m := range r.MatchedSkills {
		if m.Skill == skill {
			return m, true
		}
	}
	return SkillMatch{}, false
}

// Clone returns a deep copy of the result.
func (r *MatchResult) Clone() *MatchResult {
	if r == nil {
		return nil
	}
	c := *r
	c.MatchedSkills = slices.Clone(r.MatchedSkills)
	c.Gaps = slices.Clone(r.Gaps)
	c.Strengths = slices.Clone(r.Strengths)
	c.RelevantExperience = slices.Clone(r.RelevantExperience)
	c.KeywordHits = slices.Clone(r.KeywordHits)
	c.Recommendations = slices.Clone(r.Recommendations)
	return &c
}
