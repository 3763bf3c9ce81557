package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/hh-tailor/internal/ai"
	"github.com/spigell/hh-tailor/internal/ai/gemini"
	"github.com/spigell/hh-tailor/internal/logger"
	"github.com/spigell/hh-tailor/internal/pipeline"
	"github.com/spigell/hh-tailor/internal/prompts"
	"github.com/spigell/hh-tailor/internal/scoring"
	"github.com/spigell/hh-tailor/internal/secrets"
	"github.com/spigell/hh-tailor/internal/store"
)

// application is the wired object graph shared by the subcommands.
type application struct {
	config   *Config
	logger   *zap.Logger
	store    store.Store
	engine   *scoring.Engine
	pipeline *pipeline.Pipeline

	closers []func() error
}

// mustApplication builds the application or exits. The AI client is only created when
// withAI is set, so the record commands work without an api key.
func mustApplication(ctx context.Context, withAI bool) *application {
	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	a, err := newApplication(ctx, config, logger, withAI)
	if err != nil {
		logger.Fatal("preparing the application", zap.Error(err))
	}
	return a
}

func newApplication(ctx context.Context, config *Config, log *zap.Logger, withAI bool) (*application, error) {
	a := &application{config: config, logger: log}

	engine, err := scoring.NewEngine(config.Scoring, nil)
	if err != nil {
		return nil, fmt.Errorf("creating the scoring engine: %w", err)
	}
	a.engine = engine
	log.Debug("scoring engine ready", zap.Int("lexicon_skills", engine.Lexicon().Len()))

	db, err := store.OpenSQLite(ctx, config.Database)
	if err != nil {
		return nil, fmt.Errorf("opening the database: %w", err)
	}
	a.store = db
	a.closers = append(a.closers, db.Close)

	deps := pipeline.Deps{
		Store:   db,
		Scorer:  engine,
		Lexicon: engine.Lexicon(),
		Logger:  log,
	}

	if withAI {
		client, err := a.newAIClient(ctx)
		if err != nil {
			a.Close()
			return nil, err
		}
		loader, err := prompts.NewLoader(config.Prompts)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("loading prompts: %w (templates may use %s)", err, strings.Join(prompts.Variables(), ", "))
		}
		log.Debug("prompts loaded", zap.Strings("templates", loader.Names()))
		deps.AI = client
		deps.Prompts = loader
	}

	p, err := pipeline.New(config.Pipeline, deps)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("creating the pipeline: %w", err)
	}
	a.pipeline = p

	return a, nil
}

func (a *application) newAIClient(ctx context.Context) (*ai.Client, error) {
	cfg := a.config.AI

	key, err := secrets.Load(secrets.Source{
		Name:  "gemini api key",
		Value: cfg.Gemini.APIKey,
		File:  cfg.Gemini.APIKeyFile,
		Env:   "GEMINI_API_KEY",
	})
	if err != nil {
		return nil, fmt.Errorf("%w (hint: set %s_AI_GEMINI_API_KEY_FILE or GEMINI_API_KEY)", err, envPrefix)
	}

	var opts []gemini.Option
	if cfg.Gemini.Temperature != nil {
		opts = append(opts, gemini.WithTemperature(*cfg.Gemini.Temperature))
	}
	backend, err := gemini.New(ctx, key, cfg.Gemini.Model, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating the gemini backend: %w", err)
	}

	client := ai.NewClient(backend, a.newCache(ctx), ai.Config{
		ContextLimit:      cfg.ContextLimit,
		TokenOverhead:     cfg.TokenOverhead,
		RequestTimeout:    cfg.RequestTimeout,
		RequestsPerMinute: cfg.RequestsPerMinute,
		MaxLogLength:      cfg.MaxLogLength,
	}, a.logger)

	provider, model := client.Provider()
	a.logger.Info("ai backend ready", zap.String("provider", provider), zap.String("model", model))
	return client, nil
}

// newCache returns the in-process LRU, backed by redis when a url is configured and
// reachable.
func (a *application) newCache(ctx context.Context) ai.Cache {
	cfg := a.config.AI.Cache
	l1 := ai.NewLRUCache(cfg.Size)
	if strings.TrimSpace(cfg.RedisURL) == "" {
		return l1
	}

	client, err := ai.DialRedis(ctx, cfg.RedisURL)
	if err != nil {
		a.logger.Warn("redis cache is unavailable, using the in-memory cache only", zap.Error(err))
		return l1
	}
	a.closers = append(a.closers, client.Close)

	return ai.NewTieredCache(l1, ai.NewRedisCache(client, cfg.TTL, a.logger))
}

// variant resolves a resume variant by name. An empty name selects the first configured one.
func (a *application) variant(name string) (pipeline.Variant, error) {
	if len(a.config.Resumes) == 0 {
		return pipeline.Variant{}, fmt.Errorf("no resumes configured")
	}

	resume := a.config.Resumes[0]
	if name != "" {
		found := false
		for _, r := range a.config.Resumes {
			if r.Name == name {
				resume, found = r, true
				break
			}
		}
		if !found {
			return pipeline.Variant{}, fmt.Errorf("resume %q is not configured", name)
		}
	}

	text := resume.Text
	if resume.File != "" {
		data, err := os.ReadFile(resume.File)
		if err != nil {
			return pipeline.Variant{}, fmt.Errorf("reading resume %q: %w", resume.Name, err)
		}
		text = string(data)
	}
	return pipeline.Variant{Name: resume.Name, Text: text}, nil
}

func (a *application) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("closing a resource", zap.Error(err))
		}
	}
	a.closers = nil
	_ = a.logger.Sync()
}
