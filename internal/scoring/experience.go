package scoring

type experienceOutcome struct {
	score    float64
	relevant []string
}

// scoreExperience rates each history entry by keyword co-occurrence with the posting,
// weighted by how close the entry's seniority is to the posting level.
func (e *Engine) scoreExperience(entries []Experience, doc *document, level RoleLevel) experienceOutcome {
	var (
		out   experienceOutcome
		total float64
	)

	for _, entry := range entries {
		hits := 0
		for kw := range keywordSet(entry.Title + " " + entry.Description) {
			if _, ok := doc.keywords[kw]; ok {
				hits++
			}
		}

		relevance := float64(hits) / float64(e.cfg.ExperienceHitTarget)
		if title := normalizePhrase(entry.Title); title != "" && doc.count(title) > 0 {
			relevance += e.cfg.ExperienceTitleBonus
		}
		relevance = clamp01(relevance)

		total += relevance * e.seniorityWeight(inferLevel(entry.Title), level)

		if relevance >= e.cfg.RelevanceFloor && entry.Title != "" {
			out.relevant = append(out.relevant, entry.Title)
		}
	}

	out.score = clamp01(total / e.cfg.ExperienceSaturation)
	return out
}
