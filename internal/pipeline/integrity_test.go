package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/spigell/hh-tailor/internal/ai"
	"github.com/spigell/hh-tailor/internal/lexicon"
	"github.com/spigell/hh-tailor/internal/scoring"
)

func TestCheckIntegrity(t *testing.T) {
	t.Parallel()
	lex := lexicon.Default()

	tests := []struct {
		name       string
		draft      ai.ResumeDraft
		violations int
	}{
		{
			name:  "aliases of profile skills",
			draft: ai.ResumeDraft{Resume: "Golang and K8s.", Skills: []string{"golang", "k8s"}},
		},
		{
			name:  "skill from the source resume",
			draft: ai.ResumeDraft{Resume: "Shipped with GitHub Actions.", Skills: []string{"GitHub"}},
		},
		{
			name:  "unknown skill named in the source",
			draft: ai.ResumeDraft{Resume: "Platform engineer.", Skills: []string{"platform engineer"}},
		},
		{
			name:       "unknown skill not in the source",
			draft:      ai.ResumeDraft{Resume: "Platform engineer.", Skills: []string{"Haskell"}},
			violations: 1,
		},
		{
			name:       "lexicon skill written into the resume",
			draft:      ai.ResumeDraft{Resume: "Go, Kubernetes, Rust and Kafka."},
			violations: 2,
		},
		{
			name:       "declared and written once",
			draft:      ai.ResumeDraft{Resume: "Terraform modules.", Skills: []string{"terraform"}},
			violations: 1,
		},
		{
			name: "closed set of actions",
			draft: ai.ResumeDraft{Resume: "Go.", Changes: []ai.DraftChange{
				{Section: "Summary", Action: "emphasized"},
				{Section: "Experience", Action: "expanded-existing"},
				{Section: "Projects", Action: "fabricated"},
			}},
			violations: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := checkIntegrity(lex, testProfile, sourceResume, &tt.draft)
			assert.Len(t, got, tt.violations, "%v", got)
		})
	}
}

func TestCheckIntegrityUsesExperienceAndCertifications(t *testing.T) {
	t.Parallel()

	profile := scoring.Profile{
		Skills:         []string{"Python"},
		Certifications: []string{"AWS Solutions Architect"},
		Experience:     []scoring.Experience{{Title: "Data Engineer", Description: "Airflow pipelines"}},
	}
	draft := &ai.ResumeDraft{Resume: "Python, AWS and Apache Airflow.", Skills: []string{"python", "aws", "airflow"}}

	assert.Empty(t, checkIntegrity(lexicon.Default(), profile, "", draft))
}
