// Package http is the node's REST surface as seen from the client: the one-time
// snapshot read and the request submission.
package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/rngsync/internal/logging"
	"github.com/aretw0/rngsync/pkg/domain"
	"github.com/aretw0/rngsync/pkg/ports"
)

// ResultsPath is the node resource for both the snapshot and submissions.
const ResultsPath = "/randoms"

const maxDrain = 64 << 10

// Client talks to a node over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

var (
	_ ports.SnapshotFetcher  = (*Client)(nil)
	_ ports.RequestTransport = (*Client)(nil)
)

// Option configures the Client.
type Option func(*Client)

// WithHTTPClient replaces the default client (10s timeout).
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		if c != nil {
			cl.httpClient = c
		}
	}
}

// WithLogger configures a logger for the Client.
func WithLogger(logger *slog.Logger) Option {
	return func(cl *Client) {
		if logger != nil {
			cl.logger = logger
		}
	}
}

// New creates a Client for the node at baseURL (for example http://localhost:8080/rng:rng:template.os).
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchSnapshot returns every result the node holds, oldest first.
func (c *Client) FetchSnapshot(ctx context.Context) ([]domain.ResultEntry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+ResultsPath, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build snapshot request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch snapshot: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		drain(resp.Body)
		return nil, &domain.RequestFailedError{
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("snapshot: unexpected status %s", resp.Status),
		}
	}

	var entries []domain.ResultEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	if entries == nil {
		entries = []domain.ResultEntry{}
	}
	c.logger.Debug("snapshot fetched", "entries", len(entries))
	return entries, nil
}

// SubmitRequest posts spec to the node. Any 2xx answer is success; the body is
// drained and ignored.
func (c *Client) SubmitRequest(ctx context.Context, spec domain.RequestSpec) error {
	body, err := json.Marshal(spec)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+ResultsPath, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &domain.RequestFailedError{Err: err}
	}
	defer resp.Body.Close()
	drain(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &domain.RequestFailedError{
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected status %s", resp.Status),
		}
	}
	return nil
}

// drain lets the transport reuse the connection.
func drain(r io.Reader) {
	_, _ = io.Copy(io.Discard, io.LimitReader(r, maxDrain))
}
