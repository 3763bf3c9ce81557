// Package lexicon holds the normalized skill vocabulary used for matching.
package lexicon

import (
	"fmt"
	"strings"
)

// Skill is a canonical skill name, always lower case and whitespace-normalized.
type Skill string

// Entry declares a canonical skill together with its aliases.
type Entry struct {
	Name    string
	Aliases []string
}

// Lexicon resolves skill tokens to canonical skills. It is immutable after construction
// and safe for concurrent use.
type Lexicon struct {
	skills []Skill
	forms  map[Skill][]string
	index  map[string]Skill
	order  map[Skill]int
}

// New builds a lexicon from entries. Entry order is the declaration order used for
// deterministic tie-breaking by the matcher.
func New(entries []Entry) (*Lexicon, error) {
	l := &Lexicon{
		skills: make([]Skill, 0, len(entries)),
		forms:  make(map[Skill][]string, len(entries)),
		index:  make(map[string]Skill),
		order:  make(map[Skill]int, len(entries)),
	}

	for _, entry := range entries {
		name := Normalize(entry.Name)
		if name == "" {
			return nil, fmt.Errorf("lexicon entry with empty name")
		}
		skill := Skill(name)
		if _, ok := l.order[skill]; ok {
			return nil, fmt.Errorf("duplicate skill %q", name)
		}

		forms := []string{name}
		for _, alias := range entry.Aliases {
			alias = Normalize(alias)
			if alias == "" || alias == name {
				continue
			}
			forms = append(forms, alias)
		}

		for _, form := range forms {
			if owner, ok := l.index[form]; ok {
				return nil, fmt.Errorf("form %q of %q already declared by %q", form, name, owner)
			}
			l.index[form] = skill
		}

		l.order[skill] = len(l.skills)
		l.skills = append(l.skills, skill)
		l.forms[skill] = forms
	}

	return l, nil
}

// MustNew is like New but panics on invalid entries. Used for the built-in table.
func MustNew(entries []Entry) *Lexicon {
	l, err := New(entries)
	if err != nil {
		panic(fmt.Sprintf("invalid lexicon: %v", err))
	}
	return l
}

// Canonicalize returns the canonical skill for a token. Lookup is case-insensitive and
// ignores redundant whitespace.
func (l *Lexicon) Canonicalize(token string) (Skill, bool) {
	if l == nil {
		return "", false
	}
	skill, ok := l.index[Normalize(token)]
	return skill, ok
}

// AliasesOf returns the aliases of a skill without its canonical name, in declaration order.
func (l *Lexicon) AliasesOf(skill Skill) []string {
	forms := l.Forms(skill)
	if len(forms) <= 1 {
		return nil
	}
	aliases := make([]string, len(forms)-1)
	copy(aliases, forms[1:])
	return aliases
}

// Forms returns the canonical name followed by the aliases of a skill.
func (l *Lexicon) Forms(skill Skill) []string {
	if l == nil {
		return nil
	}
	forms := l.forms[skill]
	out := make([]string, len(forms))
	copy(out, forms)
	return out
}

// Skills lists canonical skills in declaration order.
func (l *Lexicon) Skills() []Skill {
	if l == nil {
		return nil
	}
	out := make([]Skill, len(l.skills))
	copy(out, l.skills)
	return out
}

// Index returns the declaration position of a skill, or -1 when it is unknown.
func (l *Lexicon) Index(skill Skill) int {
	if l == nil {
		return -1
	}
	if i, ok := l.order[skill]; ok {
		return i
	}
	return -1
}

// Contains reports whether the token is a canonical name or an alias.
func (l *Lexicon) Contains(token string) bool {
	_, ok := l.Canonicalize(token)
	return ok
}

// Len returns the number of canonical skills.
func (l *Lexicon) Len() int {
	if l == nil {
		return 0
	}
	return len(l.skills)
}

// Normalize lower-cases the token and collapses inner whitespace.
func Normalize(token string) string {
	return strings.Join(strings.Fields(strings.ToLower(token)), " ")
}
