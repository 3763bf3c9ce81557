package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/spigell/hh-tailor/internal/lexicon"
)

func TestMentions(t *testing.T) {
	t.Parallel()
	lex := lexicon.Default()

	got := Mentions(lex, "Built services in Golang on K8s, some Terraform.")
	assert.Equal(t, []lexicon.Skill{"go", "kubernetes", "terraform"}, got)
	assert.Empty(t, Mentions(lex, "Led a support desk of five people."))
}

func TestMentionsPhrase(t *testing.T) {
	t.Parallel()

	assert.True(t, MentionsPhrase("Ran Apache Kafka clusters.", "apache kafka"))
	assert.False(t, MentionsPhrase("Ran Apache clusters.", "apache kafka"))
	assert.False(t, MentionsPhrase("trusted partner", "rust"))
}

func TestSkillKey(t *testing.T) {
	t.Parallel()
	lex := lexicon.Default()

	assert.Equal(t, "kubernetes", SkillKey(lex, " K8s "))
	assert.Equal(t, "go", SkillKey(lex, "Golang"))
	assert.Equal(t, "kafka", SkillKey(lex, "Apache  Kafka"))
	assert.Equal(t, "haskell", SkillKey(lex, "Haskell"))
}
