// Package llmadapter is C3: a single synchronous text-generation call plus
// tolerant JSON parsing for the engines that consume LLM output (spec §4.3).
package llmadapter

import (
	"context"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// Provider generates text from a single prompt. Implementations must honor
// ctx cancellation at the transport layer.
type Provider interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Config configures an OpenAI-compatible provider.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	// Timeout bounds a single Generate call. Zero uses DefaultTimeout (§5:
	// "LLM batches have a per-call timeout (default 60 s)").
	Timeout time.Duration
}

// DefaultTimeout is the per-call LLM timeout spec §5 specifies.
const DefaultTimeout = 60 * time.Second

// OpenAICompatProvider is a Provider backed by any OpenAI-compatible chat
// completions endpoint.
type OpenAICompatProvider struct {
	client  openai.Client
	model   string
	timeout time.Duration
}

// NewOpenAICompatProvider builds a provider over cfg. BaseURL may point at
// the official OpenAI API or any compatible gateway.
func NewOpenAICompatProvider(cfg Config) *OpenAICompatProvider {
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &OpenAICompatProvider{
		client:  openai.NewClient(opts...),
		model:   cfg.Model,
		timeout: timeout,
	}
}

// Generate issues a single chat completion call and returns the first
// choice's raw text (§4.3: "Single call, synchronous").
func (p *OpenAICompatProvider) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	resp, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: p.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}
