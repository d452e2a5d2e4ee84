package sync

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	// DefaultBaseURL is the hosted document-store endpoint.
	DefaultBaseURL = "https://sync.taskdeck.dev"
)

// Config holds remote store connection settings.
type Config struct {
	Token      string
	BaseURL    string // Override for testing
	MaxRetries int
	RetryDelay time.Duration
}

// Client implements Remote over the document-store HTTP API: one JSON
// document per user, fetched and upserted whole. Upsert merges on the
// server side, so fields this client never sends survive.
type Client struct {
	config  Config
	client  *http.Client
	baseURL string
}

// NewClient creates a remote store client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("remote store token is required")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &Client{
		config:  cfg,
		client:  &http.Client{Timeout: 30 * time.Second},
		baseURL: baseURL,
	}, nil
}

// doRequest performs an authenticated API request with simple retry on
// transient failure.
func (c *Client) doRequest(ctx context.Context, method, path string, body interface{}) (*http.Response, error) {
	url := c.baseURL + path

	maxRetries := c.config.MaxRetries
	if maxRetries == 0 {
		maxRetries = 1
	}
	retryDelay := c.config.RetryDelay
	if retryDelay == 0 {
		retryDelay = time.Second
	}

	var resp *http.Response
	var err error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		var bodyReader io.Reader
		if body != nil {
			data, merr := json.Marshal(body)
			if merr != nil {
				return nil, merr
			}
			bodyReader = bytes.NewReader(data)
		}

		req, rerr := http.NewRequestWithContext(ctx, method, url, bodyReader)
		if rerr != nil {
			return nil, rerr
		}
		req.Header.Set("Authorization", "Bearer "+c.config.Token)
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err = c.client.Do(req)
		if err == nil && resp.StatusCode != http.StatusTooManyRequests && resp.StatusCode < 500 {
			return resp, nil
		}
		if resp != nil {
			_ = resp.Body.Close()
		}
		if attempt < maxRetries {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(retryDelay):
			}
		}
	}

	if err != nil {
		return nil, err
	}
	return resp, nil
}

// Fetch retrieves the user's document, or (nil, nil) when none exists.
func (c *Client) Fetch(ctx context.Context, userID string) (*Document, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/v1/users/"+userID+"/dataset", nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("remote store returned %d", resp.StatusCode)
	}

	var doc Document
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decoding remote document: %w", err)
	}
	return &doc, nil
}

// Upsert stores the user's document, creating it when absent and merging
// into the existing one otherwise.
func (c *Client) Upsert(ctx context.Context, userID string, doc *Document) error {
	resp, err := c.doRequest(ctx, http.MethodPut, "/v1/users/"+userID+"/dataset", doc)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("remote store returned %d", resp.StatusCode)
	}
	return nil
}

// Close closes idle connections.
func (c *Client) Close() error {
	if c.client == nil {
		return nil
	}
	c.client.CloseIdleConnections()
	return nil
}

// Verify interface compliance at compile time
var _ Remote = (*Client)(nil)
