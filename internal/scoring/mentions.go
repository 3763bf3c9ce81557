package scoring

import "github.com/spigell/hh-tailor/internal/lexicon"

// Mentions returns the lexicon skills named anywhere in text, in declaration order.
func Mentions(lex *lexicon.Lexicon, text string) []lexicon.Skill {
	return mentioned(lex, newDocument(text))
}

// MentionsPhrase reports whether text contains the phrase as a whole token sequence.
func MentionsPhrase(text, phrase string) bool {
	return newDocument(text).count(phrase) > 0
}

// SkillKey is the identity of a skill name: its canonical form when the lexicon knows it,
// the normalized text otherwise.
func SkillKey(lex *lexicon.Lexicon, name string) string {
	norm := normalizePhrase(name)
	if skill, ok := lex.Canonicalize(norm); ok {
		return string(skill)
	}
	return norm
}

func mentioned(lex *lexicon.Lexicon, doc *document) []lexicon.Skill {
	var out []lexicon.Skill
	for _, skill := range lex.Skills() {
		for _, form := range lex.Forms(skill) {
			if doc.has(normalizePhrase(form)) {
				out = append(out, skill)
				break
			}
		}
	}
	return out
}
