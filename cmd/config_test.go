package cmd

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/hh-tailor/internal/pipeline"
	"github.com/spigell/hh-tailor/internal/scoring"
)

func loadConfig(t *testing.T, yaml string) (*Config, error) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
	bindEnv()

	if yaml != "" {
		path := filepath.Join(t.TempDir(), "hh-tailor.yaml")
		if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
			t.Fatalf("write config: %v", err)
		}
		viper.SetConfigFile(path)
		if err := viper.ReadInConfig(); err != nil {
			t.Fatalf("read config: %v", err)
		}
	}
	return getConfig()
}

func TestGetConfigDefaults(t *testing.T) {
	config, err := loadConfig(t, "")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if config.Database != "hh-tailor.db" {
		t.Fatalf("unexpected database: %q", config.Database)
	}
	if config.Pipeline != pipeline.DefaultConfig() {
		t.Fatalf("unexpected pipeline config: %+v", config.Pipeline)
	}
	if len(config.Scoring.Keywords) != len(scoring.DefaultKeywords) {
		t.Fatalf("expected default keywords, got %v", config.Scoring.Keywords)
	}
	if config.AI.Provider != "gemini" || config.AI.Cache.Size != 256 {
		t.Fatalf("unexpected ai config: %+v", config.AI)
	}
}

func TestGetConfigFromFileAndEnv(t *testing.T) {
	t.Setenv("HH_TAILOR_AI_GEMINI_API_KEY_FILE", "/run/secrets/gemini")
	t.Setenv("HH_TAILOR_PIPELINE_THRESHOLD", "0.8")

	config, err := loadConfig(t, `
database: /var/lib/hh-tailor/records.db
profile:
  name: Jane Doe
  skills: [Go, Kubernetes]
  experience:
    - title: Platform Engineer
      description: Built the deployment platform.
resumes:
  - name: platform
    text: Jane Doe, platform engineer.
scoring:
  keywords: [platform]
pipeline:
  max-attempts: 5
  base-backoff: 1s
ai:
  request-timeout: 45s
  gemini:
    model: gemini-2.5-pro
    temperature: 0.3
`)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if config.Database != "/var/lib/hh-tailor/records.db" {
		t.Fatalf("unexpected database: %q", config.Database)
	}
	if len(config.Profile.Skills) != 2 || config.Profile.Experience[0].Title != "Platform Engineer" {
		t.Fatalf("unexpected profile: %+v", config.Profile)
	}
	if len(config.Scoring.Keywords) != 1 || config.Scoring.Keywords[0] != "platform" {
		t.Fatalf("configured keywords must replace the defaults, got %v", config.Scoring.Keywords)
	}
	if config.Pipeline.MaxAttempts != 5 || config.Pipeline.BaseBackoff != time.Second {
		t.Fatalf("unexpected pipeline config: %+v", config.Pipeline)
	}
	if config.Pipeline.DefaultThreshold != 0.8 {
		t.Fatalf("expected threshold from env, got %v", config.Pipeline.DefaultThreshold)
	}
	if config.Pipeline.Concurrency != pipeline.DefaultConfig().Concurrency {
		t.Fatalf("unset keys must keep defaults, got %+v", config.Pipeline)
	}
	if config.AI.RequestTimeout != 45*time.Second || config.AI.Gemini.Model != "gemini-2.5-pro" {
		t.Fatalf("unexpected ai config: %+v", config.AI)
	}
	if config.AI.Gemini.Temperature == nil || *config.AI.Gemini.Temperature != 0.3 {
		t.Fatalf("unexpected temperature: %v", config.AI.Gemini.Temperature)
	}
	if config.AI.Gemini.APIKeyFile != "/run/secrets/gemini" {
		t.Fatalf("expected api key file from env, got %q", config.AI.Gemini.APIKeyFile)
	}
}

func TestGetConfigValidation(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{name: "provider", yaml: "ai:\n  provider: openai\n"},
		{name: "attempts", yaml: "pipeline:\n  max-attempts: 0\n"},
		{name: "threshold", yaml: "pipeline:\n  threshold: 1.5\n"},
		{name: "weights", yaml: "scoring:\n  weights:\n    skills: 2\n"},
		{name: "resume without text", yaml: "resumes:\n  - name: empty\n"},
		{name: "duplicate resumes", yaml: "resumes:\n  - name: a\n    text: one\n  - name: a\n    text: two\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := loadConfig(t, tt.yaml); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestVariant(t *testing.T) {
	path := filepath.Join(t.TempDir(), "backend.md")
	if err := os.WriteFile(path, []byte("Jane Doe, backend engineer."), 0o600); err != nil {
		t.Fatalf("write resume: %v", err)
	}

	a := &application{
		config: &Config{Resumes: []ResumeConfig{
			{Name: "platform", Text: "Jane Doe, platform engineer."},
			{Name: "backend", File: path},
		}},
		logger: zap.NewNop(),
	}

	v, err := a.variant("")
	if err != nil || v.Name != "platform" || v.Text != "Jane Doe, platform engineer." {
		t.Fatalf("unexpected default variant %+v (%v)", v, err)
	}

	v, err = a.variant("backend")
	if err != nil || v.Text != "Jane Doe, backend engineer." {
		t.Fatalf("unexpected file variant %+v (%v)", v, err)
	}

	if _, err := a.variant("missing"); err == nil {
		t.Fatal("expected error for unknown variant")
	}
	if _, err := (&application{config: &Config{}}).variant(""); err == nil {
		t.Fatal("expected error without resumes")
	}
}
