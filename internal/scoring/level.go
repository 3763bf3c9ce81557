package scoring

import "math"

// levelSignals are the phrases that reveal the seniority a text is written for.
var levelSignals = map[RoleLevel][]string{
	LevelStandard:  {"junior", "mid level", "intermediate", "associate", "entry level"},
	LevelSenior:    {"senior", "sr"},
	LevelLead:      {"lead", "staff", "team lead", "tech lead", "manager", "head"},
	LevelPrincipal: {"principal", "distinguished", "architect", "director"},
}

// signals returns the levels whose signal words occur in the document.
func signals(doc *document) map[RoleLevel]bool {
	found := make(map[RoleLevel]bool)
	for _, level := range Levels() {
		for _, phrase := range levelSignals[level] {
			if doc.count(phrase) > 0 {
				found[level] = true
				break
			}
		}
	}
	return found
}

// levelMultiplier nudges the blended score up when the posting speaks to the requested
// level and down when it only speaks to other levels.
func (e *Engine) levelMultiplier(doc *document, level RoleLevel) float64 {
	found := signals(doc)
	switch {
	case len(found) == 0:
		return 1.0
	case found[level]:
		return clamp(e.cfg.LevelMatch, 0.9, 1.1)
	default:
		return clamp(e.cfg.LevelMismatch, 0.9, 1.1)
	}
}

// inferLevel returns the most senior level signalled by a job title.
func inferLevel(title string) RoleLevel {
	found := signals(newDocument(title))
	levels := Levels()
	for i := len(levels) - 1; i >= 0; i-- {
		if found[levels[i]] {
			return levels[i]
		}
	}
	return LevelStandard
}

// seniorityWeight decays by one factor per level of distance.
func (e *Engine) seniorityWeight(entry, posting RoleLevel) float64 {
	return math.Pow(e.cfg.SeniorityDecay, float64(abs(entry.Rank()-posting.Rank())))
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return clamp(v, 0, 1)
}
