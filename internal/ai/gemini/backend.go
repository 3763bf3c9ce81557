// Package gemini adapts the Google GenAI SDK to the ai.Backend contract.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/spigell/hh-tailor/internal/ai"
)

const (
	ProviderName = "gemini"
	defaultModel = "gemini-2.5-flash"
)

var retryAfterPattern = regexp.MustCompile(`(?i)retry (?:after|in) (\d+(?:\.\d+)?)\s*s`)

type modelsAPI interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Backend sends prompts to Gemini models.
type Backend struct {
	models      modelsAPI
	model       string
	temperature *float32
}

// Option customizes a Backend.
type Option func(*Backend)

// WithTemperature sets the sampling temperature. Without it the model default applies.
func WithTemperature(t float32) Option {
	return func(b *Backend) {
		b.temperature = &t
	}
}

// New creates a Backend for the Gemini API.
func New(ctx context.Context, apiKey, model string, opts ...Option) (*Backend, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return newBackend(client.Models, model, opts...), nil
}

func newBackend(models modelsAPI, model string, opts ...Option) *Backend {
	if model = strings.TrimSpace(model); model == "" {
		model = defaultModel
	}
	b := &Backend{models: models, model: model}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Backend) Name() string  { return ProviderName }
func (b *Backend) Model() string { return b.model }

// Complete runs one GenerateContent call and translates failures into the ai error taxonomy.
func (b *Backend) Complete(ctx context.Context, req ai.Request) (*ai.Completion, error) {
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return nil, errors.New("prompt must not be empty")
	}

	cfg := &genai.GenerateContentConfig{Temperature: b.temperature}
	if system := strings.TrimSpace(req.System); system != "" {
		cfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: system}}}
	}
	if req.JSON {
		cfg.ResponseMIMEType = "application/json"
	}

	resp, err := b.models.GenerateContent(ctx, b.model, genai.Text(prompt), cfg)
	if err != nil {
		return nil, translate(err)
	}

	text := responseText(resp)
	if text == "" {
		return nil, &ai.BackendError{Kind: ai.ErrInvalidResponse, Message: "gemini api returned empty response"}
	}

	comp := &ai.Completion{Text: text}
	if resp.UsageMetadata != nil {
		comp.PromptTokens = int(resp.UsageMetadata.PromptTokenCount)
		comp.OutputTokens = int(resp.UsageMetadata.CandidatesTokenCount)
	}
	return comp, nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}

	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil || part.Thought {
				continue
			}
			text := strings.TrimSpace(part.Text)
			if text == "" {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(text)
		}
		// Only the first candidate with content is used.
		if builder.Len() > 0 {
			break
		}
	}
	return strings.TrimSpace(builder.String())
}

// translate maps SDK errors onto the ai taxonomy. Context errors pass through untouched.
func translate(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var apiErr genai.APIError
	if !errors.As(err, &apiErr) {
		var apiErrPtr *genai.APIError
		if !errors.As(err, &apiErrPtr) || apiErrPtr == nil {
			return &ai.BackendError{Kind: ai.ErrUnavailable, Message: err.Error()}
		}
		apiErr = *apiErrPtr
	}

	be := &ai.BackendError{Code: apiErr.Code, Message: strings.TrimSpace(apiErr.Message)}
	if be.Message == "" {
		be.Message = apiErr.Status
	}

	switch {
	case apiErr.Code == http.StatusTooManyRequests:
		be.Kind = ai.ErrRateLimited
		be.RetryAfter = parseRetryAfter(apiErr.Message)
	case apiErr.Code == http.StatusUnauthorized || apiErr.Code == http.StatusForbidden:
		be.Kind = ai.ErrUnauthorized
	case apiErr.Code == http.StatusRequestTimeout || apiErr.Code >= 500:
		be.Kind = ai.ErrUnavailable
	default:
		be.Kind = ai.ErrInvalidResponse
	}
	return be
}

func parseRetryAfter(message string) time.Duration {
	m := retryAfterPattern.FindStringSubmatch(message)
	if m == nil {
		return 0
	}
	secs, err := strconv.ParseFloat(m[1], 64)
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs * float64(time.Second))
}
