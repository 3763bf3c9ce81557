package scoring

import (
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"

	"github.com/spigell/hh-tailor/internal/lexicon"
)

type skillOutcome struct {
	score     float64
	matches   []SkillMatch
	required  []string
	gaps      []string
	strengths []string
}

// scoreSkills matches every profile skill against the posting. Required skills are the
// lexicon skills mentioned by the posting, in declaration order.
func (e *Engine) scoreSkills(profile []string, doc *document) skillOutcome {
	var out skillOutcome

	requiredSet := make(map[string]bool)
	for _, skill := range mentioned(e.lex, doc) {
		out.required = append(out.required, string(skill))
		requiredSet[string(skill)] = true
	}

	seen := make(map[string]bool, len(profile))
	matched := make(map[string]bool, len(profile))
	union := len(out.required)

	for _, raw := range profile {
		norm := normalizePhrase(raw)
		if norm == "" {
			continue
		}
		canonical, known := e.lex.Canonicalize(norm)
		key := SkillKey(e.lex, norm)
		if seen[key] {
			continue
		}
		seen[key] = true
		if !requiredSet[key] {
			union++
		}

		m, ok := e.matchSkill(raw, norm, canonical, known, doc)
		if !ok {
			continue
		}
		m.Skill = key
		matched[key] = true
		out.matches = append(out.matches, m)
		if requiredSet[key] {
			out.strengths = append(out.strengths, key)
		}
	}

	for _, skill := range out.required {
		if !matched[skill] {
			out.gaps = append(out.gaps, skill)
		}
	}

	if union > 0 {
		out.score = clamp01(float64(len(out.matches)) / float64(union))
	}
	return out
}

func (e *Engine) matchSkill(raw, norm string, canonical lexicon.Skill, known bool, doc *document) (SkillMatch, bool) {
	if doc.has(norm) {
		return SkillMatch{Profile: raw, Span: norm, Kind: MatchExact}, true
	}

	forms := []string{norm}
	if known {
		forms = forms[:0]
		for _, f := range e.lex.Forms(canonical) {
			forms = append(forms, normalizePhrase(f))
		}

		// Longest alias span wins, then declaration order.
		best := ""
		for _, f := range forms {
			if f == norm || !doc.has(f) {
				continue
			}
			if utf8.RuneCountInString(f) > utf8.RuneCountInString(best) {
				best = f
			}
		}
		if best != "" {
			return SkillMatch{Profile: raw, Span: best, Kind: MatchAlias}, true
		}
	}

	if span, ok := e.fuzzySpan(forms, canonical, known, doc); ok {
		return SkillMatch{Profile: raw, Span: span, Kind: MatchFuzzy}, true
	}
	return SkillMatch{}, false
}

// fuzzySpan looks for a posting term close to one of the forms. Ties are broken by the
// longer span, then by form declaration order, then by lexical order of the term.
func (e *Engine) fuzzySpan(forms []string, canonical lexicon.Skill, known bool, doc *document) (string, bool) {
	var (
		best     string
		bestLen  = -1
		bestForm = len(forms)
	)

	for fi, form := range forms {
		if utf8.RuneCountInString(form) < e.cfg.FuzzyMinLength {
			continue
		}
		for _, term := range doc.termList {
			if owner, ok := e.lex.Canonicalize(term); ok && (!known || owner != canonical) {
				// The term is another recognized skill.
				continue
			}
			if !e.fuzzyEqual(form, term) {
				continue
			}
			n := utf8.RuneCountInString(term)
			if n > bestLen || (n == bestLen && fi < bestForm) {
				best, bestLen, bestForm = term, n, fi
			}
		}
	}

	return best, bestLen >= 0
}

func (e *Engine) fuzzyEqual(form, term string) bool {
	fl := utf8.RuneCountInString(form)
	tl := utf8.RuneCountInString(term)
	if tl < e.cfg.FuzzyMinLength {
		return false
	}

	short, long := form, term
	sl, ll := fl, tl
	if sl > ll {
		short, long = long, short
		sl, ll = ll, sl
	}
	if float64(sl)/float64(ll) >= e.cfg.PrefixMinRatio && strings.HasPrefix(long, short) {
		return true
	}

	limit := int(float64(fl) * e.cfg.FuzzyRatio)
	if limit < 1 {
		limit = 1
	}
	if abs(fl-tl) > limit {
		return false
	}
	return levenshtein.ComputeDistance(form, term) <= limit
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
