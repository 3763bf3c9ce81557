package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"google.golang.org/genai"

	"github.com/spigell/hh-tailor/internal/ai"
)

type fakeModels struct {
	mu    sync.Mutex
	calls []modelsCall
	resp  *genai.GenerateContentResponse
	err   error
}

type modelsCall struct {
	model    string
	contents []*genai.Content
	config   *genai.GenerateContentConfig
}

func (f *fakeModels) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, modelsCall{model: model, contents: contents, config: config})
	return f.resp, f.err
}

func textResponse(parts ...string) *genai.GenerateContentResponse {
	content := &genai.Content{}
	for _, p := range parts {
		content.Parts = append(content.Parts, &genai.Part{Text: p})
	}
	return &genai.GenerateContentResponse{
		Candidates:    []*genai.Candidate{{Content: content}},
		UsageMetadata: &genai.GenerateContentResponseUsageMetadata{PromptTokenCount: 12, CandidatesTokenCount: 5},
	}
}

func TestCompleteSendsSystemInstruction(t *testing.T) {
	models := &fakeModels{resp: textResponse("first", "second")}
	b := newBackend(models, "gemini-pro", WithTemperature(0.2))

	comp, err := b.Complete(context.Background(), ai.Request{System: "system", Prompt: "message", JSON: true})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if comp.Text != "first\nsecond" {
		t.Fatalf("unexpected text: %q", comp.Text)
	}
	if comp.PromptTokens != 12 || comp.OutputTokens != 5 {
		t.Fatalf("unexpected usage: %+v", comp)
	}

	if len(models.calls) != 1 {
		t.Fatalf("expected 1 call, got %d", len(models.calls))
	}
	call := models.calls[0]
	if call.model != "gemini-pro" {
		t.Fatalf("unexpected model: %q", call.model)
	}
	if call.config == nil || call.config.SystemInstruction == nil {
		t.Fatalf("expected system instruction to be set")
	}
	if got := call.config.SystemInstruction.Parts[0].Text; got != "system" {
		t.Fatalf("unexpected system instruction: %q", got)
	}
	if call.config.ResponseMIMEType != "application/json" {
		t.Fatalf("expected json mime type, got %q", call.config.ResponseMIMEType)
	}
	if call.config.Temperature == nil || *call.config.Temperature != 0.2 {
		t.Fatalf("unexpected temperature: %v", call.config.Temperature)
	}
	if got := call.contents[0].Parts[0].Text; got != "message" {
		t.Fatalf("unexpected prompt: %q", got)
	}
}

func TestCompleteDefaults(t *testing.T) {
	models := &fakeModels{resp: textResponse("ok")}
	b := newBackend(models, "  ")

	if b.Name() != ProviderName {
		t.Fatalf("unexpected name: %q", b.Name())
	}
	if b.Model() != defaultModel {
		t.Fatalf("unexpected model: %q", b.Model())
	}

	if _, err := b.Complete(context.Background(), ai.Request{Prompt: "message"}); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	cfg := models.calls[0].config
	if cfg.SystemInstruction != nil || cfg.ResponseMIMEType != "" || cfg.Temperature != nil {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestCompleteEmptyResponse(t *testing.T) {
	models := &fakeModels{resp: &genai.GenerateContentResponse{}}
	b := newBackend(models, "gemini-pro")

	_, err := b.Complete(context.Background(), ai.Request{Prompt: "message"})
	if !errors.Is(err, ai.ErrInvalidResponse) {
		t.Fatalf("expected invalid response, got %v", err)
	}
}

func TestCompleteRejectsEmptyPrompt(t *testing.T) {
	models := &fakeModels{resp: textResponse("ok")}
	b := newBackend(models, "gemini-pro")

	if _, err := b.Complete(context.Background(), ai.Request{Prompt: " "}); err == nil {
		t.Fatal("expected error for empty prompt")
	}
	if len(models.calls) != 0 {
		t.Fatalf("expected no calls, got %d", len(models.calls))
	}
}

func TestNewRequiresAPIKey(t *testing.T) {
	if _, err := New(context.Background(), " ", ""); err == nil {
		t.Fatal("expected error for empty api key")
	}
}

func TestCompleteTranslatesErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		kind       error
		retryAfter time.Duration
	}{
		{
			name: "quota",
			err: genai.APIError{
				Code:    http.StatusTooManyRequests,
				Status:  "RESOURCE_EXHAUSTED",
				Message: "quota exhausted, retry after 60 seconds",
			},
			kind:       ai.ErrRateLimited,
			retryAfter: 60 * time.Second,
		},
		{
			name:       "quota pointer",
			err:        fmt.Errorf("wrapped: %w", &genai.APIError{Code: http.StatusTooManyRequests, Message: "Please retry in 1.5s."}),
			kind:       ai.ErrRateLimited,
			retryAfter: 1500 * time.Millisecond,
		},
		{name: "internal", err: genai.APIError{Code: http.StatusInternalServerError, Status: "INTERNAL"}, kind: ai.ErrUnavailable},
		{name: "timeout", err: genai.APIError{Code: http.StatusRequestTimeout}, kind: ai.ErrUnavailable},
		{name: "forbidden", err: genai.APIError{Code: http.StatusForbidden, Status: "PERMISSION_DENIED"}, kind: ai.ErrUnauthorized},
		{name: "unauthorized", err: genai.APIError{Code: http.StatusUnauthorized}, kind: ai.ErrUnauthorized},
		{name: "bad request", err: genai.APIError{Code: http.StatusBadRequest, Message: "invalid argument"}, kind: ai.ErrInvalidResponse},
		{name: "transport", err: errors.New("connection reset by peer"), kind: ai.ErrUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newBackend(&fakeModels{err: tt.err}, "gemini-pro")

			_, err := b.Complete(context.Background(), ai.Request{Prompt: "message"})
			if !errors.Is(err, tt.kind) {
				t.Fatalf("expected %v, got %v", tt.kind, err)
			}
			if got := ai.RetryAfter(err); got != tt.retryAfter {
				t.Fatalf("expected retry after %v, got %v", tt.retryAfter, got)
			}
		})
	}
}

func TestCompletePassesContextErrors(t *testing.T) {
	b := newBackend(&fakeModels{err: fmt.Errorf("send: %w", context.Canceled)}, "gemini-pro")

	_, err := b.Complete(context.Background(), ai.Request{Prompt: "message"})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context canceled, got %v", err)
	}
	if ai.IsTransient(err) {
		t.Fatal("cancellation must not be transient")
	}
}
