// Package llm wraps chat-completion backends behind a single Generator
// interface.
package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/fyrsmithlabs/docqd/internal/config"
)

var (
	// ErrInvalidConfig indicates invalid configuration.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrInference indicates the completion call failed.
	ErrInference = errors.New("inference failed")
)

// Generator produces a completion for a prompt. Implementations must be safe
// for concurrent use.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// langchainGenerator adapts a langchaingo model to Generator.
type langchainGenerator struct {
	model llms.Model
}

// Generate runs a single-prompt completion.
func (g *langchainGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	out, err := llms.GenerateFromSinglePrompt(ctx, g.model, prompt)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInference, err)
	}
	return out, nil
}

// NewGenerator creates a Generator from config. Provider is ollama (default)
// or openai; openai also covers OpenAI-compatible endpoints via BaseURL.
func NewGenerator(cfg config.LLMConfig) (Generator, error) {
	switch cfg.Provider {
	case "ollama", "":
		model, err := ollama.New(
			ollama.WithServerURL(cfg.BaseURL),
			ollama.WithModel(cfg.Model),
		)
		if err != nil {
			return nil, fmt.Errorf("creating ollama client: %w", err)
		}
		return &langchainGenerator{model: model}, nil

	case "openai":
		apiKey := cfg.APIKey.Value()
		if apiKey == "" {
			apiKey = "placeholder"
		}
		model, err := openai.New(
			openai.WithBaseURL(cfg.BaseURL),
			openai.WithModel(cfg.Model),
			openai.WithToken(apiKey),
		)
		if err != nil {
			return nil, fmt.Errorf("creating openai client: %w", err)
		}
		return &langchainGenerator{model: model}, nil

	default:
		return nil, fmt.Errorf("%w: unsupported llm provider %q (supported: ollama, openai)",
			ErrInvalidConfig, cfg.Provider)
	}
}
