package scoring

import (
	"sort"
	"strings"
	"unicode"
)

// maxGram is the longest phrase, in tokens, a skill form may span.
const maxGram = 3

// stopWords filters common English words that add noise to experience matching.
var stopWords = map[string]bool{
	"and": true, "the": true, "for": true, "with": true, "you": true,
	"are": true, "have": true, "will": true, "this": true, "that": true,
	"from": true, "our": true, "your": true, "their": true, "they": true,
	"work": true, "team": true, "role": true, "job": true, "join": true,
	"about": true, "which": true, "what": true, "who": true, "how": true,
	"can": true, "not": true, "but": true, "all": true, "also": true,
	"more": true, "than": true, "into": true, "has": true, "its": true,
	"was": true, "were": true, "been": true, "each": true, "new": true,
	"use": true, "using": true, "used": true, "well": true, "high": true,
	"good": true, "able": true, "get": true, "set": true, "such": true,
	"years": true, "year": true, "experience": true, "including": true,
}

// document is the tokenized form of a text, built once per scoring call.
type document struct {
	tokens []string
	// terms holds every 1..maxGram token phrase.
	terms map[string]struct{}
	// termList is terms in lexical order, used where iteration order leaks into results.
	termList []string
	// keywords are tokens of at least 3 characters that are not stop words.
	keywords map[string]struct{}
}

func newDocument(text string) *document {
	tokens := tokenize(text)
	d := &document{
		tokens:   tokens,
		terms:    make(map[string]struct{}, len(tokens)*maxGram),
		keywords: make(map[string]struct{}, len(tokens)),
	}

	for i := range tokens {
		for n := 1; n <= maxGram && i+n <= len(tokens); n++ {
			d.terms[strings.Join(tokens[i:i+n], " ")] = struct{}{}
		}
		if isKeyword(tokens[i]) {
			d.keywords[tokens[i]] = struct{}{}
		}
	}

	d.termList = make([]string, 0, len(d.terms))
	for term := range d.terms {
		d.termList = append(d.termList, term)
	}
	sort.Strings(d.termList)

	return d
}

func (d *document) has(term string) bool {
	_, ok := d.terms[term]
	return ok
}

// count returns the number of occurrences of a phrase in the token sequence.
func (d *document) count(phrase string) int {
	words := tokenize(phrase)
	if len(words) == 0 || len(words) > len(d.tokens) {
		return 0
	}

	n := 0
	for i := 0; i+len(words) <= len(d.tokens); i++ {
		match := true
		for j, w := range words {
			if d.tokens[i+j] != w {
				match = false
				break
			}
		}
		if match {
			n++
		}
	}
	return n
}

// tokenize splits lower-cased text into words. It keeps tech suffixes like "c++", "c#",
// "node.js" and "ci/cd" together by treating + # . / as word characters.
func tokenize(text string) []string {
	var (
		out  []string
		word strings.Builder
	)
	flush := func() {
		w := strings.Trim(word.String(), "./")
		word.Reset()
		if w != "" {
			out = append(out, w)
		}
	}
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '+' || r == '#' || r == '.' || r == '/' {
			word.WriteRune(r)
		} else {
			flush()
		}
	}
	flush()
	return out
}

func isKeyword(w string) bool {
	return len([]rune(w)) >= 3 && !stopWords[w]
}

// keywordSet extracts the keyword set of a text.
func keywordSet(text string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, w := range tokenize(text) {
		if isKeyword(w) {
			out[w] = struct{}{}
		}
	}
	return out
}

// normalizePhrase renders text the way document terms are stored.
func normalizePhrase(text string) string {
	return strings.Join(tokenize(text), " ")
}
