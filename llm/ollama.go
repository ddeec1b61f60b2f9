package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

// OllamaClient implements LanguageModel against the Ollama chat API.
type OllamaClient struct {
	Endpoint string
	Model    string
	Debug    bool
	client   *http.Client
}

// NewOllamaClient builds a client for the given endpoint, defaulting to the
// local daemon.
func NewOllamaClient(endpoint, model string) *OllamaClient {
	if endpoint == "" {
		endpoint = "http://localhost:11434"
	}
	return &OllamaClient{
		Endpoint: endpoint,
		Model:    model,
		client: &http.Client{
			Timeout: 3 * time.Minute,
		},
	}
}

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaChunk struct {
	Message  *ollamaMessage `json:"message"`
	Response string         `json:"response"`
	Done     bool           `json:"done"`
	Error    string         `json:"error"`
}

// Complete issues one buffered chat call.
func (c *OllamaClient) Complete(ctx context.Context, system string, messages []Message, opts *Options) (string, error) {
	payload := c.payload(system, messages, opts, false)
	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	c.logf("request /api/chat payload: %s", truncate(string(body), 2048))
	resp, err := c.post(ctx, body)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		return "", err
	}
	var chunk ollamaChunk
	if err := json.NewDecoder(resp.Body).Decode(&chunk); err != nil {
		return "", fmt.Errorf("decode ollama response: %w", err)
	}
	if chunk.Error != "" {
		return "", fmt.Errorf("ollama: %s", chunk.Error)
	}
	text := chunk.Response
	if text == "" && chunk.Message != nil {
		text = chunk.Message.Content
	}
	c.logf("response /api/chat payload: %s", truncate(text, 2048))
	return text, nil
}

// CompleteStream issues one streaming chat call. Ollama streams one JSON
// object per line; the reader goroutine forwards message deltas and closes
// the channel when the done flag arrives.
func (c *OllamaClient) CompleteStream(ctx context.Context, system string, messages []Message, opts *Options) (<-chan Chunk, error) {
	payload := c.payload(system, messages, opts, true)
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	resp, err := c.post(ctx, body)
	if err != nil {
		return nil, err
	}
	if err := checkStatus(resp); err != nil {
		resp.Body.Close()
		return nil, err
	}
	ch := make(chan Chunk)
	go func() {
		defer resp.Body.Close()
		defer close(ch)
		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			var chunk ollamaChunk
			if err := json.Unmarshal([]byte(line), &chunk); err != nil {
				ch <- Chunk{Err: fmt.Errorf("decode ollama stream: %w", err)}
				return
			}
			if chunk.Error != "" {
				ch <- Chunk{Err: fmt.Errorf("ollama: %s", chunk.Error)}
				return
			}
			delta := chunk.Response
			if delta == "" && chunk.Message != nil {
				delta = chunk.Message.Content
			}
			if delta != "" {
				select {
				case ch <- Chunk{Delta: delta}:
				case <-ctx.Done():
					return
				}
			}
			if chunk.Done {
				return
			}
		}
		if err := scanner.Err(); err != nil {
			ch <- Chunk{Err: err}
		}
	}()
	return ch, nil
}

func (c *OllamaClient) payload(system string, messages []Message, opts *Options, stream bool) map[string]any {
	converted := make([]ollamaMessage, 0, len(messages)+1)
	if system != "" {
		converted = append(converted, ollamaMessage{Role: "system", Content: system})
	}
	for _, m := range messages {
		converted = append(converted, ollamaMessage{Role: m.Role, Content: m.Content})
	}
	payload := map[string]any{
		"model":    c.model(opts),
		"messages": converted,
		"stream":   stream,
	}
	options := map[string]any{}
	if opts != nil {
		if opts.Temperature != 0 {
			options["temperature"] = opts.Temperature
		}
		if opts.MaxTokens != 0 {
			options["num_predict"] = opts.MaxTokens
		}
	}
	if len(options) > 0 {
		payload["options"] = options
	}
	return payload
}

func (c *OllamaClient) post(ctx context.Context, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.client.Do(req)
}

func (c *OllamaClient) model(opts *Options) string {
	if opts != nil && opts.Model != "" {
		return opts.Model
	}
	if c.Model != "" {
		return c.Model
	}
	return "llama3.1"
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode < 300 {
		return nil
	}
	msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	detail := strings.TrimSpace(string(msg))
	if detail != "" {
		return fmt.Errorf("ollama error: %s: %s", resp.Status, detail)
	}
	return fmt.Errorf("ollama error: %s", resp.Status)
}

func (c *OllamaClient) logf(format string, args ...any) {
	if !c.Debug {
		return
	}
	log.Printf("[ollama] "+format, args...)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}
