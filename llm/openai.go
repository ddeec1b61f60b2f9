package llm

import (
	"context"
	"errors"
	"fmt"
	"io"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIClient implements LanguageModel for any OpenAI-compatible endpoint.
type OpenAIClient struct {
	client *openai.Client
	model  string
}

// NewOpenAIClient builds a client. An empty baseURL targets api.openai.com;
// setting it allows pointing at compatible gateways.
func NewOpenAIClient(apiKey, baseURL, model string) *OpenAIClient {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if model == "" {
		model = openai.GPT4oMini
	}
	return &OpenAIClient{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

// Complete issues one buffered chat completion.
func (c *OpenAIClient) Complete(ctx context.Context, system string, messages []Message, opts *Options) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, c.request(system, messages, opts, false))
	if err != nil {
		return "", fmt.Errorf("openai completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// CompleteStream issues one streaming chat completion and forwards content
// deltas until the backend signals EOF.
func (c *OpenAIClient) CompleteStream(ctx context.Context, system string, messages []Message, opts *Options) (<-chan Chunk, error) {
	stream, err := c.client.CreateChatCompletionStream(ctx, c.request(system, messages, opts, true))
	if err != nil {
		return nil, fmt.Errorf("openai stream: %w", err)
	}
	ch := make(chan Chunk)
	go func() {
		defer stream.Close()
		defer close(ch)
		for {
			resp, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				ch <- Chunk{Err: fmt.Errorf("openai stream: %w", err)}
				return
			}
			if len(resp.Choices) == 0 {
				continue
			}
			delta := resp.Choices[0].Delta.Content
			if delta == "" {
				continue
			}
			select {
			case ch <- Chunk{Delta: delta}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch, nil
}

func (c *OpenAIClient) request(system string, messages []Message, opts *Options, stream bool) openai.ChatCompletionRequest {
	converted := make([]openai.ChatCompletionMessage, 0, len(messages)+1)
	if system != "" {
		converted = append(converted, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: system,
		})
	}
	for _, m := range messages {
		converted = append(converted, openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}
	model := c.model
	req := openai.ChatCompletionRequest{
		Model:    model,
		Messages: converted,
		Stream:   stream,
	}
	if opts != nil {
		if opts.Model != "" {
			req.Model = opts.Model
		}
		if opts.Temperature != 0 {
			req.Temperature = float32(opts.Temperature)
		}
		if opts.MaxTokens != 0 {
			req.MaxTokens = opts.MaxTokens
		}
	}
	return req
}
