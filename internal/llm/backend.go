package llm

import (
	"context"
	"errors"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// Default endpoints and models for the standard chain, in priority order:
// a large instruction model first, then two smaller conversational models.
const (
	GroqBaseURL     = "https://api.groq.com/openai/v1"
	DeepSeekBaseURL = "https://api.deepseek.com"
	MistralBaseURL  = "https://api.mistral.ai/v1"

	DefaultGroqModel     = "llama-3.3-70b-versatile"
	DefaultDeepSeekModel = "deepseek-chat"
	DefaultMistralModel  = "mistral-small-latest"
)

// Request is one text-generation call to a backend.
type Request struct {
	System      string
	Prompt      string
	MaxTokens   int
	Temperature float32
}

// Backend is a single rung of the fallback chain: a remote endpoint that
// either produces text or fails with an error from the taxonomy in
// errors.go. Name identifies the rung in provenance tags and logs.
type Backend interface {
	Name() string
	Complete(ctx context.Context, req Request) (string, error)
}

// BackendConfig describes one OpenAI-compatible chat backend.
type BackendConfig struct {
	Name    string
	BaseURL string
	APIKey  string
	Model   string
}

// ChatBackend calls an OpenAI-compatible chat-completions API. Groq,
// DeepSeek, and Mistral all speak this protocol, so one implementation
// covers the whole default chain.
type ChatBackend struct {
	name   string
	api    *openai.Client
	model  string
	hasKey bool
}

var _ Backend = (*ChatBackend)(nil)

// NewChatBackend creates a backend from its config. A missing API key is
// not a construction error: the backend stays in the chain and fails every
// call, which routes traffic to the next rung.
func NewChatBackend(cfg BackendConfig) *ChatBackend {
	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}
	return &ChatBackend{
		name:   cfg.Name,
		api:    openai.NewClientWithConfig(config),
		model:  cfg.Model,
		hasKey: cfg.APIKey != "",
	}
}

// Name returns the backend identifier used in provenance tags.
func (b *ChatBackend) Name() string { return b.name }

// Complete issues one chat completion and returns the trimmed reply text.
func (b *ChatBackend) Complete(ctx context.Context, req Request) (string, error) {
	if !b.hasKey {
		return "", &ErrBackendUnavailable{Backend: b.name, Reason: "missing credential"}
	}

	var msgs []openai.ChatCompletionMessage
	if req.System != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}
	msgs = append(msgs, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.Prompt,
	})

	resp, err := b.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       b.model,
		Messages:    msgs,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	})
	if err != nil {
		return "", b.mapError(err)
	}

	if len(resp.Choices) == 0 {
		return "", &ErrUnparseableResponse{Backend: b.name, Reason: "no choices in response"}
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", &ErrUnparseableResponse{Backend: b.name, Reason: "empty completion"}
	}
	return text, nil
}

func (b *ChatBackend) mapError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.HTTPStatusCode == http.StatusTooManyRequests:
			return &ErrBackendUnavailable{Backend: b.name, Reason: "rate limited", Err: err}
		case apiErr.HTTPStatusCode >= 500:
			return &ErrBackendUnavailable{Backend: b.name, Reason: "server error", Err: err}
		}
	}
	return &ErrBackendUnavailable{Backend: b.name, Reason: "request failed", Err: err}
}
