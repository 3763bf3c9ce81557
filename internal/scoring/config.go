package scoring

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Weights are the blend factors of the three sub-scores.
type Weights struct {
	Skills     float64 `mapstructure:"skills" validate:"gte=0,lte=1"`
	Experience float64 `mapstructure:"experience" validate:"gte=0,lte=1"`
	Keyword    float64 `mapstructure:"keyword" validate:"gte=0,lte=1"`
}

// Config holds every tunable of the engine. An Engine copies it on construction.
type Config struct {
	Weights Weights `mapstructure:"weights"`

	// MinPostingChars is the shortest posting text, in characters after trimming, that can be scored.
	MinPostingChars int `mapstructure:"min-posting-chars" validate:"gte=1"`

	// FuzzyRatio bounds the edit distance of a fuzzy match relative to the skill length.
	FuzzyRatio float64 `mapstructure:"fuzzy-ratio" validate:"gte=0,lte=0.5"`
	// FuzzyMinLength is the shortest skill form eligible for fuzzy matching.
	FuzzyMinLength int `mapstructure:"fuzzy-min-length" validate:"gte=2"`
	// PrefixMinRatio is the minimum length ratio for a prefix match to count as fuzzy.
	PrefixMinRatio float64 `mapstructure:"prefix-min-ratio" validate:"gt=0,lte=1"`

	ExperienceHitTarget  int     `mapstructure:"experience-hit-target" validate:"gte=1"`
	ExperienceTitleBonus float64 `mapstructure:"experience-title-bonus" validate:"gte=0,lte=1"`
	ExperienceSaturation float64 `mapstructure:"experience-saturation" validate:"gt=0"`
	// SeniorityDecay is applied once per level of distance between an entry and the posting.
	SeniorityDecay float64 `mapstructure:"seniority-decay" validate:"gt=0,lte=1"`
	// RelevanceFloor is the per-entry relevance above which an entry is reported as relevant.
	RelevanceFloor float64 `mapstructure:"relevance-floor" validate:"gte=0,lte=1"`

	Keywords      []string `mapstructure:"keywords" validate:"min=1,dive,required"`
	SaturationCap int      `mapstructure:"saturation-cap" validate:"gte=1"`
	KeywordTarget float64  `mapstructure:"keyword-target" validate:"gt=0"`

	LevelMatch    float64 `mapstructure:"level-match" validate:"gte=0.9,lte=1.1"`
	LevelMismatch float64 `mapstructure:"level-mismatch" validate:"gte=0.9,lte=1.1"`
}

// DefaultKeywords are the globally important terms counted by the keyword sub-score.
var DefaultKeywords = []string{
	"help desk",
	"service desk",
	"infrastructure",
	"architect",
	"cloud",
	"ai",
	"governance",
	"training",
	"leadership",
	"senior",
	"manager",
	"security",
	"automation",
	"distributed",
	"mentoring",
}

// DefaultConfig returns the stock tuning.
func DefaultConfig() Config {
	return Config{
		Weights: Weights{
			Skills:     0.4,
			Experience: 0.4,
			Keyword:    0.2,
		},
		MinPostingChars:      100,
		FuzzyRatio:           0.2,
		FuzzyMinLength:       5,
		PrefixMinRatio:       0.6,
		ExperienceHitTarget:  6,
		ExperienceTitleBonus: 0.3,
		ExperienceSaturation: 2.0,
		SeniorityDecay:       0.5,
		RelevanceFloor:       0.3,
		Keywords:             append([]string(nil), DefaultKeywords...),
		SaturationCap:        3,
		KeywordTarget:        4,
		LevelMatch:           1.1,
		LevelMismatch:        0.9,
	}
}

var validate = validator.New()

// Validate checks ranges of every field.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid scoring config: %w", err)
	}
	if c.Weights.Skills+c.Weights.Experience+c.Weights.Keyword <= 0 {
		return fmt.Errorf("invalid scoring config: weights must not all be zero")
	}
	return nil
}

func (c Config) clone() Config {
	c.Keywords = append([]string(nil), c.Keywords...)
	return c
}
