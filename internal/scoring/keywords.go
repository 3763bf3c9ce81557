package scoring

type keywordOutcome struct {
	score float64
	hits  []KeywordHit
}

// scoreKeywords counts mentions of the configured keywords, each saturating at
// SaturationCap occurrences.
func (e *Engine) scoreKeywords(doc *document) keywordOutcome {
	var (
		out keywordOutcome
		sum float64
	)

	for _, kw := range e.cfg.Keywords {
		n := doc.count(kw)
		if n == 0 {
			continue
		}
		out.hits = append(out.hits, KeywordHit{Keyword: kw, Count: n})
		sum += float64(min(n, e.cfg.SaturationCap)) / float64(e.cfg.SaturationCap)
	}

	out.score = clamp01(sum / e.cfg.KeywordTarget)
	return out
}
