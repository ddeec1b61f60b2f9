// Package llm abstracts the text-completion capability behind the
// orchestrator. Two backends ship: an Ollama client and an
// OpenAI-compatible client. Both support buffered and streamed completion.
package llm

import (
	"context"
	"fmt"
	"strings"
)

// Message is one turn forwarded to a model backend.
type Message struct {
	Role    string
	Content string
}

// Options tune a single completion call. Zero values mean "backend default".
type Options struct {
	Model       string
	Temperature float64
	MaxTokens   int
}

// Chunk is one element of a streamed completion. Err terminates the stream
// when non-nil; the channel is closed after the final chunk.
type Chunk struct {
	Delta string
	Err   error
}

// LanguageModel is the opaque model capability: a system prompt plus a
// bounded message history in, free text out. Complete buffers the whole
// response; CompleteStream yields deltas as they arrive and closes the
// channel when the model signals completion.
type LanguageModel interface {
	Complete(ctx context.Context, system string, messages []Message, opts *Options) (string, error)
	CompleteStream(ctx context.Context, system string, messages []Message, opts *Options) (<-chan Chunk, error)
}

// Config selects and configures a backend.
type Config struct {
	Provider    string
	Endpoint    string
	Model       string
	APIKey      string
	Temperature float64
	MaxTokens   int
	Debug       bool
}

// New builds the configured backend. A missing credential or endpoint is a
// configuration error the caller surfaces before any other phase starts.
func New(cfg Config) (LanguageModel, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", "ollama":
		client := NewOllamaClient(cfg.Endpoint, cfg.Model)
		client.Debug = cfg.Debug
		return client, nil
	case "openai":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("openai provider requires an api key")
		}
		return NewOpenAIClient(cfg.APIKey, cfg.Endpoint, cfg.Model), nil
	default:
		return nil, fmt.Errorf("unknown model provider %q", cfg.Provider)
	}
}
