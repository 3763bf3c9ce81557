package ai

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/spigell/hh-tailor/internal/logger"
	"github.com/spigell/hh-tailor/internal/utils"
)

// Config tunes the client. Zero values fall back to DefaultConfig.
type Config struct {
	// ContextLimit is the backend context window in tokens.
	ContextLimit int
	// TokenOverhead is added to every estimate for the response and framing.
	TokenOverhead  int
	RequestTimeout time.Duration
	// RequestsPerMinute limits backend calls. Zero disables limiting.
	RequestsPerMinute int
	MaxLogLength      int
}

func DefaultConfig() Config {
	return Config{
		ContextLimit:   1_000_000,
		TokenOverhead:  1024,
		RequestTimeout: 2 * time.Minute,
		MaxLogLength:   200,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.ContextLimit <= 0 {
		c.ContextLimit = d.ContextLimit
	}
	if c.TokenOverhead < 0 {
		c.TokenOverhead = d.TokenOverhead
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = d.RequestTimeout
	}
	if c.MaxLogLength <= 0 {
		c.MaxLogLength = d.MaxLogLength
	}
	return c
}

// Payload is everything that determines a completion. Equal payloads share a cache entry.
type Payload struct {
	Name   string
	System string
	Text   string
	JSON   bool
}

// Key is a stable hash of the payload.
func (p Payload) Key() string {
	h := sha256.New()
	for _, part := range []string{p.Name, p.System, p.Text} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	if p.JSON {
		h.Write([]byte{1})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Usage is the token accounting of one Generate call. Cached answers cost nothing.
type Usage struct {
	PromptTokens int
	OutputTokens int
	Cached       bool
}

// Response is a completion as seen by callers.
type Response struct {
	Text  string
	Usage Usage
}

// Client wraps a Backend with a token budget, a response cache, call coalescing and rate
// limiting. It is safe for concurrent use.
type Client struct {
	backend Backend
	cache   Cache
	cfg     Config
	limiter *rate.Limiter
	group   singleflight.Group
	logger  *zap.Logger
}

// NewClient builds a client. A nil cache selects a default sized LRU cache.
func NewClient(backend Backend, cache Cache, cfg Config, log *zap.Logger) *Client {
	cfg = cfg.withDefaults()
	if cache == nil {
		cache = NewLRUCache(0)
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), 1)
	}

	return &Client{
		backend: backend,
		cache:   cache,
		cfg:     cfg,
		limiter: limiter,
		logger:  logger.WithCommonFields(log, backend.Name(), backend.Model()),
	}
}

// EstimateTokens approximates the token count of text at four characters per token.
func EstimateTokens(text string) int {
	n := utf8.RuneCountInString(text)
	return (n + 3) / 4
}

// Generate returns the completion for the payload, from cache when possible. Concurrent
// calls with equal payloads share one backend call, run under the first caller's context.
func (c *Client) Generate(ctx context.Context, p Payload) (*Response, error) {
	estimated := EstimateTokens(p.System) + EstimateTokens(p.Text) + c.cfg.TokenOverhead
	if estimated > c.cfg.ContextLimit {
		return nil, &TokenBudgetExceededError{Estimated: estimated, Limit: c.cfg.ContextLimit}
	}

	key := p.Key()
	if e, ok := c.cache.Get(ctx, key); ok {
		c.logger.Debug("completion cache hit", zap.String("payload", p.Name), zap.String("key", key[:12]))
		return &Response{Text: e.Text, Usage: Usage{Cached: true}}, nil
	}

	self := new(byte)
	v, err, _ := c.group.Do(key, func() (any, error) {
		if e, ok := c.cache.Get(ctx, key); ok {
			return coalesced{resp: &Response{Text: e.Text, Usage: Usage{Cached: true}}}, nil
		}

		comp, err := c.complete(ctx, p, estimated)
		if err != nil {
			return nil, err
		}
		c.cache.Set(ctx, key, Entry{Text: comp.Text, PromptTokens: comp.PromptTokens, OutputTokens: comp.OutputTokens})

		return coalesced{
			resp:  &Response{Text: comp.Text, Usage: Usage{PromptTokens: comp.PromptTokens, OutputTokens: comp.OutputTokens}},
			owner: self,
		}, nil
	})
	if err != nil {
		return nil, err
	}

	res := v.(coalesced)
	resp := *res.resp
	if res.owner != self {
		// Only the caller that reached the backend is charged for the call.
		resp.Usage = Usage{Cached: true}
	}
	return &resp, nil
}

type coalesced struct {
	resp  *Response
	owner *byte
}

// Forget evicts the payload's cached completion, e.g. after it failed to decode.
func (c *Client) Forget(ctx context.Context, p Payload) {
	c.cache.Delete(ctx, p.Key())
}

func (c *Client) complete(ctx context.Context, p Payload, estimated int) (*Completion, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	c.logger.Debug("generate content request",
		zap.String("payload", p.Name),
		zap.Int("estimated_tokens", estimated),
		zap.String("prompt_preview", utils.TruncateForLog(p.Text, c.cfg.MaxLogLength)),
	)

	callCtx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout)
	defer cancel()

	comp, err := c.backend.Complete(callCtx, Request{System: p.System, Prompt: p.Text, JSON: p.JSON})
	if err != nil {
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, &BackendError{Kind: ErrUnavailable, Message: "request timed out after " + c.cfg.RequestTimeout.String()}
		}
		return nil, err
	}
	if comp == nil || strings.TrimSpace(comp.Text) == "" {
		return nil, &BackendError{Kind: ErrInvalidResponse, Message: "empty response"}
	}

	c.logger.Debug("generate content response",
		zap.String("payload", p.Name),
		zap.Int("prompt_tokens", comp.PromptTokens),
		zap.Int("output_tokens", comp.OutputTokens),
		zap.String("response_preview", utils.TruncateForLog(comp.Text, c.cfg.MaxLogLength)),
	)

	return comp, nil
}

// TailorResume generates and decodes a resume draft. A cached answer that fails to decode is
// evicted so a retry reaches the backend.
func (c *Client) TailorResume(ctx context.Context, p Payload) (*ResumeDraft, error) {
	p.JSON = true
	resp, err := c.Generate(ctx, p)
	if err != nil {
		return nil, err
	}

	draft, err := decodeDraft(resp.Text)
	if err != nil {
		c.Forget(ctx, p)
		c.logger.Debug("dropping undecodable resume draft",
			zap.Error(err),
			zap.String("response_preview", utils.TruncateForLog(resp.Text, c.cfg.MaxLogLength)),
		)
		return nil, err
	}
	draft.Usage = resp.Usage
	return draft, nil
}

// WriteCoverLetter generates a cover letter.
func (c *Client) WriteCoverLetter(ctx context.Context, p Payload) (*CoverLetter, error) {
	p.JSON = false
	resp, err := c.Generate(ctx, p)
	if err != nil {
		return nil, err
	}

	text, err := decodeCoverLetter(resp.Text)
	if err != nil {
		c.Forget(ctx, p)
		return nil, err
	}
	return &CoverLetter{Text: text, Usage: resp.Usage}, nil
}

// Provider returns the backend name and model.
func (c *Client) Provider() (name, model string) {
	return c.backend.Name(), c.backend.Model()
}
