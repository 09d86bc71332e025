package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// LanguageModel turns a prompt into free text. Implementations may block on
// network I/O and must honour ctx.
type LanguageModel interface {
	Invoke(ctx context.Context, prompt string) (string, error)
}

// Func adapts a plain function to LanguageModel.
type Func func(ctx context.Context, prompt string) (string, error)

func (f Func) Invoke(ctx context.Context, prompt string) (string, error) { return f(ctx, prompt) }

// Provider names accepted by New.
const (
	ProviderGemini    = "gemini"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

var (
	ErrMissingAPIKey   = errors.New("api key is required")
	ErrUnknownProvider = errors.New("unknown provider")
	ErrEmptyResponse   = errors.New("model returned no text")
)

// Options selects and tunes one provider.
type Options struct {
	Provider    string
	Model       string
	APIKey      string
	BaseURL     string
	Temperature float64
	MaxTokens   int
}

// DefaultModel returns the model used when Options.Model is empty.
func DefaultModel(provider string) string {
	switch provider {
	case ProviderGemini:
		return "gemini-flash-latest"
	case ProviderOpenAI:
		return "gpt-4o-mini"
	case ProviderAnthropic:
		return "claude-3-5-haiku-latest"
	}
	return ""
}

// New builds the adapter for opts.Provider.
func New(ctx context.Context, opts Options) (LanguageModel, error) {
	opts.Provider = strings.ToLower(strings.TrimSpace(opts.Provider))
	if opts.Provider == "" {
		opts.Provider = ProviderGemini
	}
	if opts.Model == "" {
		opts.Model = DefaultModel(opts.Provider)
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 4096
	}

	switch opts.Provider {
	case ProviderGemini:
		return NewGemini(ctx, opts)
	case ProviderOpenAI:
		return NewOpenAI(opts)
	case ProviderAnthropic:
		return NewAnthropic(opts)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, opts.Provider)
}

// WithTimeout bounds every Invoke on m by d. d <= 0 returns m unchanged.
func WithTimeout(m LanguageModel, d time.Duration) LanguageModel {
	if d <= 0 {
		return m
	}
	return Func(func(ctx context.Context, prompt string) (string, error) {
		ctx, cancel := context.WithTimeout(ctx, d)
		defer cancel()
		return m.Invoke(ctx, prompt)
	})
}
