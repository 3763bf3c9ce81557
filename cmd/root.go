package cmd

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spigell/hh-tailor/internal/ai"
	"github.com/spigell/hh-tailor/internal/pipeline"
	"github.com/spigell/hh-tailor/internal/scoring"
)

const (
	app       = "hh-tailor"
	envPrefix = "HH_TAILOR"
)

var validate = validator.New()

type Config struct {
	Database    string          `mapstructure:"database" validate:"required"`
	ExcludeFile string          `mapstructure:"exclude-file"`
	Prompts     string          `mapstructure:"prompts"`
	Profile     scoring.Profile `mapstructure:"profile"`
	Resumes     []ResumeConfig  `mapstructure:"resumes" validate:"dive"`
	Exclude     ExcludeConfig   `mapstructure:"exclude"`
	Scoring     scoring.Config  `mapstructure:"scoring"`
	Pipeline    pipeline.Config `mapstructure:"pipeline"`
	AI          AIConfig        `mapstructure:"ai"`
}

// ResumeConfig is a named resume variant, inline or in a file.
type ResumeConfig struct {
	Name string `mapstructure:"name" validate:"required"`
	File string `mapstructure:"file" validate:"required_without=Text"`
	Text string `mapstructure:"text"`
}

type ExcludeConfig struct {
	Companies []string `mapstructure:"companies"`
}

type AIConfig struct {
	Provider          string        `mapstructure:"provider" validate:"oneof=gemini"`
	ContextLimit      int           `mapstructure:"context-limit" validate:"gte=0"`
	TokenOverhead     int           `mapstructure:"token-overhead" validate:"gte=0"`
	RequestTimeout    time.Duration `mapstructure:"request-timeout" validate:"gte=0"`
	RequestsPerMinute int           `mapstructure:"requests-per-minute" validate:"gte=0"`
	MaxLogLength      int           `mapstructure:"max-log-length" validate:"gte=0"`
	Cache             CacheConfig   `mapstructure:"cache"`
	Gemini            GeminiConfig  `mapstructure:"gemini"`
}

type CacheConfig struct {
	Size     int           `mapstructure:"size" validate:"gte=0"`
	RedisURL string        `mapstructure:"redis-url"`
	TTL      time.Duration `mapstructure:"ttl" validate:"gte=0"`
}

type GeminiConfig struct {
	APIKey      string   `mapstructure:"api-key" json:"-"`
	APIKeyFile  string   `mapstructure:"api-key-file"`
	Model       string   `mapstructure:"model"`
	Temperature *float32 `mapstructure:"temperature" validate:"omitempty,gte=0,lte=2"`
}

func defaultConfig() *Config {
	aiDefaults := ai.DefaultConfig()
	return &Config{
		Database: app + ".db",
		Scoring:  scoring.DefaultConfig(),
		Pipeline: pipeline.DefaultConfig(),
		AI: AIConfig{
			Provider:       "gemini",
			ContextLimit:   aiDefaults.ContextLimit,
			TokenOverhead:  aiDefaults.TokenOverhead,
			RequestTimeout: aiDefaults.RequestTimeout,
			MaxLogLength:   aiDefaults.MaxLogLength,
			Cache:          CacheConfig{Size: 256, TTL: 7 * 24 * time.Hour},
		},
	}
}

// Validate checks the whole configuration, including the scoring and pipeline sections.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if err := c.Scoring.Validate(); err != nil {
		return err
	}
	if err := c.Pipeline.Validate(); err != nil {
		return err
	}

	seen := make(map[string]bool, len(c.Resumes))
	for _, r := range c.Resumes {
		if seen[r.Name] {
			return fmt.Errorf("invalid config: resume %q is defined twice", r.Name)
		}
		seen[r.Name] = true
	}
	return nil
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "hh-tailor scores job postings against your profile and tailors your resume for the good ones",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is hh-tailor.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")
	rootCmd.PersistentFlags().String("database", "", "path to the records database")
	rootCmd.PersistentFlags().StringP("exclude-file", "e", "", "special file with records to exclude. Default is unset.")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	viper.BindPFlag("database", rootCmd.PersistentFlags().Lookup("database"))
	viper.BindPFlag("exclude-file", rootCmd.PersistentFlags().Lookup("exclude-file"))

	bindEnv()
}

// bindEnv makes HH_TAILOR_<SECTION>_<KEY> override the config file. Keys without a default
// must be bound explicitly to be picked up by Unmarshal.
func bindEnv() {
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	for _, key := range []string{
		"database",
		"exclude-file",
		"prompts",
		"pipeline.threshold",
		"ai.gemini.api-key",
		"ai.gemini.api-key-file",
		"ai.gemini.model",
		"ai.cache.redis-url",
	} {
		if err := viper.BindEnv(key); err != nil {
			log.Fatalf("binding %s environment variable: %v", key, err)
		}
	}
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	err := viper.ReadInConfig()
	var notFound viper.ConfigFileNotFoundError
	if err != nil && (cfgFile != "" || !errors.As(err, &notFound)) {
		// We can't proceed if the config file parsed with error.
		log.Fatal(err)
	}
}

func getConfig() (*Config, error) {
	config := defaultConfig()
	// Decoding into a non-empty slice keeps the default tail, so a configured keyword list
	// starts from scratch.
	if viper.IsSet("scoring.keywords") {
		config.Scoring.Keywords = nil
	}

	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}
