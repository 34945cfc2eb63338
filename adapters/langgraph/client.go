// Package langgraph implements the thread adapter contract against a managed
// cloud thread-storage API whose native unit is a thread with a metadata bag.
package langgraph

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	threads "github.com/pressw-llc/threads-go"
)

// RemoteThread is the remote API's thread resource.
type RemoteThread struct {
	ThreadID  string         `json:"thread_id"`
	Metadata  map[string]any `json:"metadata"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// SearchParams filter a remote thread search. Only metadata equality is
// supported by the remote API.
type SearchParams struct {
	Metadata map[string]any `json:"metadata,omitempty"`
	Limit    int            `json:"limit,omitempty"`
	Offset   int            `json:"offset,omitempty"`
}

// Client is the remote API surface the adapter consumes. GetThread returns
// (nil, nil) for an unknown id; DeleteThread of an unknown id is a no-op.
type Client interface {
	CreateThread(ctx context.Context, threadID string, metadata map[string]any) (*RemoteThread, error)
	GetThread(ctx context.Context, threadID string) (*RemoteThread, error)
	SearchThreads(ctx context.Context, params SearchParams) ([]RemoteThread, error)
	UpdateThread(ctx context.Context, threadID string, metadata map[string]any) (*RemoteThread, error)
	DeleteThread(ctx context.Context, threadID string) error
}

// HTTPClient talks to a LangGraph deployment over HTTP.
type HTTPClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// HTTPOption configures an HTTPClient.
type HTTPOption func(*HTTPClient)

// WithHTTPClient overrides the underlying http.Client, e.g. to set timeouts.
func WithHTTPClient(client *http.Client) HTTPOption {
	return func(c *HTTPClient) {
		c.client = client
	}
}

// NewHTTPClient creates a client for the deployment at baseURL. apiKey may be
// empty for deployments without auth.
func NewHTTPClient(baseURL, apiKey string, opts ...HTTPOption) (*HTTPClient, error) {
	if baseURL == "" {
		return nil, threads.NewConfigurationError("base URL is required", nil)
	}

	c := &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

func (c *HTTPClient) CreateThread(ctx context.Context, threadID string, metadata map[string]any) (*RemoteThread, error) {
	body := map[string]any{"metadata": metadata}
	if threadID != "" {
		body["thread_id"] = threadID
	}

	var created RemoteThread
	if err := c.do(ctx, http.MethodPost, "/threads", body, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *HTTPClient) GetThread(ctx context.Context, threadID string) (*RemoteThread, error) {
	var thread RemoteThread
	err := c.do(ctx, http.MethodGet, "/threads/"+threadID, nil, &thread)
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &thread, nil
}

func (c *HTTPClient) SearchThreads(ctx context.Context, params SearchParams) ([]RemoteThread, error) {
	var results []RemoteThread
	if err := c.do(ctx, http.MethodPost, "/threads/search", params, &results); err != nil {
		return nil, err
	}
	return results, nil
}

func (c *HTTPClient) UpdateThread(ctx context.Context, threadID string, metadata map[string]any) (*RemoteThread, error) {
	body := map[string]any{"metadata": metadata}

	var updated RemoteThread
	if err := c.do(ctx, http.MethodPatch, "/threads/"+threadID, body, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (c *HTTPClient) DeleteThread(ctx context.Context, threadID string) error {
	err := c.do(ctx, http.MethodDelete, "/threads/"+threadID, nil, nil)
	if isNotFound(err) {
		return nil
	}
	return err
}

// statusError carries a non-2xx remote response.
type statusError struct {
	status int
	body   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("remote api returned %d: %s", e.status, e.body)
}

func isNotFound(err error) bool {
	var se *statusError
	return errors.As(err, &se) && se.status == http.StatusNotFound
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-Api-Key", c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return threads.NewBackendError(method+" "+path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &statusError{status: resp.StatusCode, body: strings.TrimSpace(string(raw))}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return threads.NewBackendError("decoding response of "+method+" "+path, err)
	}

	return nil
}
