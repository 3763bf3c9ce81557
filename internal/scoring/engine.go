package scoring

import (
	"strings"
	"unicode/utf8"

	"github.com/spigell/hh-tailor/internal/lexicon"
)

// Engine scores profiles against postings. It holds no mutable state, so one Engine may
// be shared by any number of goroutines.
type Engine struct {
	cfg Config
	lex *lexicon.Lexicon
}

// NewEngine validates the config and builds an engine. A nil lexicon selects the default one.
func NewEngine(cfg Config, lex *lexicon.Lexicon) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if lex == nil {
		lex = lexicon.Default()
	}
	return &Engine{cfg: cfg.clone(), lex: lex}, nil
}

// Config returns a copy of the engine configuration.
func (e *Engine) Config() Config {
	return e.cfg.clone()
}

// Lexicon returns the vocabulary the engine matches with.
func (e *Engine) Lexicon() *lexicon.Lexicon {
	return e.lex
}

// Score computes the compatibility of the profile with the posting. Identical inputs
// always produce identical results.
func (e *Engine) Score(profile Profile, posting Posting) (*MatchResult, error) {
	text := strings.TrimSpace(posting.Description)
	if n := utf8.RuneCountInString(text); n < e.cfg.MinPostingChars {
		return nil, &InsufficientInputError{Length: n, Minimum: e.cfg.MinPostingChars}
	}
	if !hasSkills(profile.Skills) {
		return nil, ErrEmptyProfile
	}

	level := posting.Level
	if _, ok := levelRanks[level]; !ok {
		level = LevelStandard
	}

	doc := newDocument(posting.Title + "\n" + text)

	skills := e.scoreSkills(profile.Skills, doc)
	exp := e.scoreExperience(profile.Experience, doc, level)
	kw := e.scoreKeywords(doc)

	w := e.cfg.Weights
	base := clamp01(w.Skills*skills.score + w.Experience*exp.score + w.Keyword*kw.score)
	multiplier := e.levelMultiplier(doc, level)

	res := &MatchResult{
		Overall:            clamp01(base * multiplier),
		Skills:             skills.score,
		Experience:         exp.score,
		Keyword:            kw.score,
		LevelMultiplier:    multiplier,
		Level:              level,
		MatchedSkills:      nonNil(skills.matches),
		Gaps:               nonNil(skills.gaps),
		Strengths:          nonNil(skills.strengths),
		RelevantExperience: exp.relevant,
		KeywordHits:        kw.hits,
	}
	res.Verdict = VerdictFor(res.Overall)
	res.Recommendations = recommend(res)

	return res, nil
}

func hasSkills(skills []string) bool {
	for _, s := range skills {
		if strings.TrimSpace(s) != "" {
			return true
		}
	}
	return false
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
