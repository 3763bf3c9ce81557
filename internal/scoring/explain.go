package scoring

import (
	"fmt"
	"strings"
)

// maxRecommendations caps the advice attached to a result.
const maxRecommendations = 3

// VerdictFor maps an overall score to its tier.
func VerdictFor(overall float64) Verdict {
	switch {
	case overall >= 0.85:
		return VerdictStrong
	case overall >= 0.80:
		return VerdictGood
	case overall >= 0.70:
		return VerdictReview
	default:
		return VerdictSkip
	}
}

func recommend(r *MatchResult) []string {
	var out []string

	switch len(r.Gaps) {
	case 0:
		if len(r.Strengths) > 0 {
			out = append(out, fmt.Sprintf("Lead with %s: every recognized requirement is covered.", strings.Join(r.Strengths, ", ")))
		}
	default:
		for _, gap := range r.Gaps[:min(2, len(r.Gaps))] {
			out = append(out, fmt.Sprintf("Surface existing work related to %s if there is any; do not claim it otherwise.", gap))
		}
		if rest := r.Gaps[min(2, len(r.Gaps)):]; len(rest) > 0 {
			out = append(out, fmt.Sprintf("%d more required skills are missing from the profile: %s.", len(rest), strings.Join(rest, ", ")))
		}
	}

	if len(out) < maxRecommendations && r.Experience < 0.3 {
		out = append(out, fmt.Sprintf("Move the experience closest to a %s role to the top.", r.Level))
	}
	if len(out) == 0 {
		out = append(out, "Keep the resume as is; emphasize the matched skills in the summary.")
	}

	return out[:min(maxRecommendations, len(out))]
}

// Summary renders a one-line human readable digest.
func (r *MatchResult) Summary() string {
	if r == nil {
		return ""
	}
	return fmt.Sprintf("%s overall=%.3f skills=%.3f experience=%.3f keyword=%.3f level=%s x%.2f gaps=[%s]",
		r.Verdict, r.Overall, r.Skills, r.Experience, r.Keyword, r.Level, r.LevelMultiplier, strings.Join(r.Gaps, ", "))
}
