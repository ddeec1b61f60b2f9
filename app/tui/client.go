package tui

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/canvaspilot/canvaspilot/chat"
)

// StreamClient consumes the server's NDJSON chat stream.
type StreamClient struct {
	BaseURL string
	client  *http.Client
}

// NewStreamClient builds a client for the given server base URL.
func NewStreamClient(baseURL string) *StreamClient {
	return &StreamClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		// No overall timeout: a chat stream legitimately stays open for
		// the duration of the model's work. Cancellation comes from ctx.
		client: &http.Client{Timeout: 0},
	}
}

// Chat posts one request and returns a channel of decoded events. The
// channel closes when the server sends the end sentinel, the stream ends,
// or ctx is cancelled.
func (c *StreamClient) Chat(ctx context.Context, req chat.Request) (<-chan chat.Event, <-chan error, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, nil, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil, nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, nil, fmt.Errorf("server returned %s", resp.Status)
	}

	events := make(chan chat.Event)
	errs := make(chan error, 1)
	go func() {
		defer resp.Body.Close()
		defer close(events)
		defer close(errs)
		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			if line == "[DONE]" {
				return
			}
			var event chat.Event
			if err := json.Unmarshal([]byte(line), &event); err != nil {
				errs <- fmt.Errorf("malformed event: %w", err)
				return
			}
			select {
			case events <- event:
			case <-ctx.Done():
				return
			}
		}
		if err := scanner.Err(); err != nil && ctx.Err() == nil {
			errs <- err
		}
	}()
	return events, errs, nil
}

// Healthy pings the server.
func (c *StreamClient) Healthy(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/healthz", nil)
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server returned %s", resp.Status)
	}
	return nil
}
