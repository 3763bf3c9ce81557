package pipeline

import (
	"fmt"
	"strings"

	"github.com/spigell/hh-tailor/internal/ai"
	"github.com/spigell/hh-tailor/internal/lexicon"
	"github.com/spigell/hh-tailor/internal/record"
	"github.com/spigell/hh-tailor/internal/scoring"
)

// checkIntegrity returns why a draft must not reach review. A skill is supported when the
// profile lists it or the candidate's own material mentions it; every other skill named by
// the draft, declared or written into the resume text, is a violation.
func checkIntegrity(lex *lexicon.Lexicon, profile scoring.Profile, source string, draft *ai.ResumeDraft) []string {
	var violations []string

	for _, c := range draft.Changes {
		if !record.Action(c.Action).Valid() {
			violations = append(violations, fmt.Sprintf("change to %q uses action %q", c.Section, c.Action))
		}
	}

	material := sourceMaterial(profile, source)
	supported := make(map[string]bool)
	for _, s := range profile.Skills {
		supported[scoring.SkillKey(lex, s)] = true
	}
	for _, s := range scoring.Mentions(lex, material) {
		supported[string(s)] = true
	}

	checked := make(map[string]bool)
	for _, s := range draft.Skills {
		key := scoring.SkillKey(lex, s)
		if key == "" || checked[key] {
			continue
		}
		checked[key] = true
		if supported[key] {
			continue
		}
		if !lex.Contains(key) && scoring.MentionsPhrase(material, key) {
			continue
		}
		violations = append(violations, fmt.Sprintf("declared skill %q is not supported by the profile", s))
	}

	for _, s := range scoring.Mentions(lex, draft.Resume) {
		key := string(s)
		if checked[key] || supported[key] {
			continue
		}
		checked[key] = true
		violations = append(violations, fmt.Sprintf("resume mentions %q, which the profile does not", key))
	}

	return violations
}

func sourceMaterial(profile scoring.Profile, source string) string {
	parts := []string{source}
	parts = append(parts, profile.Skills...)
	parts = append(parts, profile.Certifications...)
	for _, e := range profile.Experience {
		parts = append(parts, e.Title, e.Description)
	}
	return strings.Join(parts, "\n")
}
