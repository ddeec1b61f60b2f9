// Package canvas talks to the Canvas LMS REST API and exposes the fixed
// catalogue of study-data tools the assistant can call.
package canvas

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client is a minimal Canvas REST client scoped to the operations in the
// tool catalogue. Auth is a bearer token; every call is bounded by the HTTP
// client timeout.
type Client struct {
	BaseURL string
	Token   string
	client  *http.Client
}

// NewClient builds a client for the given Canvas instance. baseURL is the
// instance root, e.g. https://school.instructure.com.
func NewClient(baseURL, token string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// WithCredentials returns a copy of the client using per-request
// credentials when both are present. Requests may carry their own Canvas
// URL/token which override the configured ones.
func (c *Client) WithCredentials(baseURL, token string) *Client {
	if baseURL == "" && token == "" {
		return c
	}
	clone := *c
	if baseURL != "" {
		clone.BaseURL = strings.TrimRight(baseURL, "/")
	}
	if token != "" {
		clone.Token = token
	}
	return &clone
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	if c.BaseURL == "" || c.Token == "" {
		return fmt.Errorf("canvas credentials not configured")
	}
	endpoint := c.BaseURL + "/api/v1" + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.Token)
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("canvas request %s: %w", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		detail := strings.TrimSpace(string(msg))
		if detail != "" {
			return fmt.Errorf("canvas %s: %s: %s", path, resp.Status, detail)
		}
		return fmt.Errorf("canvas %s: %s", path, resp.Status)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("canvas %s: decode: %w", path, err)
	}
	return nil
}
