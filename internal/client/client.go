// Package client provides an HTTP client for the Thinkable server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/thinkable-app/thinkable-go/internal/db"
)

// Client talks to the Thinkable server's REST API and push channel.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// New creates a client. Empty baseURL falls back to THINKABLE_SERVER_URL,
// then localhost. Empty token falls back to THINKABLE_TOKEN. Timeout can
// be configured via THINKABLE_CLIENT_TIMEOUT.
func New(baseURL, token string) *Client {
	if baseURL == "" {
		baseURL = os.Getenv("THINKABLE_SERVER_URL")
	}
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	if token == "" {
		token = os.Getenv("THINKABLE_TOKEN")
	}

	timeout := 30 * time.Second
	if t := os.Getenv("THINKABLE_CLIENT_TIMEOUT"); t != "" {
		if d, err := time.ParseDuration(t); err == nil {
			timeout = d
		}
	}

	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// errorEnvelope is the server's JSON error shape.
type errorEnvelope struct {
	Error string `json:"error"`
}

// do issues a request and decodes the JSON response into result. Non-2xx
// responses are returned as errors carrying the server's error message.
func (c *Client) do(ctx context.Context, method, path string, body, result any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var envelope errorEnvelope
		if json.Unmarshal(data, &envelope) == nil && envelope.Error != "" {
			return fmt.Errorf("server error: %s - %s", resp.Status, envelope.Error)
		}
		return fmt.Errorf("server error: %s - %s", resp.Status, string(data))
	}

	if result != nil && len(data) > 0 {
		if err := json.Unmarshal(data, result); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}
	return nil
}

// HomepageBoard fetches the public homepage board.
func (c *Client) HomepageBoard(ctx context.Context) (*db.BoardBundle, error) {
	var bundle db.BoardBundle
	if err := c.do(ctx, http.MethodGet, "/api/homepage-board", nil, &bundle); err != nil {
		return nil, err
	}
	return &bundle, nil
}

// DeleteAccountResult is the outcome of an account deletion.
type DeleteAccountResult struct {
	Success   bool   `json:"success"`
	SignedOut bool   `json:"signedOut"`
	Error     string `json:"error,omitempty"`
}

// DeleteAccount deletes the authenticated account. On a server-side
// failure the result is still returned when the body is decodable, because
// the signedOut flag matters either way.
func (c *Client) DeleteAccount(ctx context.Context) (*DeleteAccountResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/auth/delete-account", nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var result DeleteAccountResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("server error: %s - %s", resp.Status, string(data))
	}
	return &result, nil
}

// Health checks the server is up.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check: %s", resp.Status)
	}
	return nil
}

// PushEvent is one change notification from the push channel.
type PushEvent struct {
	Table  string `json:"table"`
	Action string `json:"action"`
	ID     string `json:"id"`
}

// Subscribe opens the push channel and streams events until ctx is
// cancelled or the connection drops, after which the channel is closed.
func (c *Client) Subscribe(ctx context.Context) (<-chan PushEvent, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse server url: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	u.Path = "/api/subscribe"
	u.RawQuery = url.Values{"access_token": {c.token}}.Encode()

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("subscribe: %s: %w", resp.Status, err)
		}
		return nil, fmt.Errorf("subscribe: %w", err)
	}
	if resp != nil {
		resp.Body.Close()
	}

	events := make(chan PushEvent)
	go func() {
		defer close(events)
		defer conn.Close()
		for {
			var ev PushEvent
			if err := conn.ReadJSON(&ev); err != nil {
				return
			}
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()
	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	return events, nil
}
