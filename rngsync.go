package rngsync

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aretw0/rngsync/internal/config"
	"github.com/aretw0/rngsync/internal/logging"
	nodehttp "github.com/aretw0/rngsync/pkg/adapters/http"
	"github.com/aretw0/rngsync/pkg/adapters/websocket"
	"github.com/aretw0/rngsync/pkg/domain"
	"github.com/aretw0/rngsync/pkg/gateway"
	"github.com/aretw0/rngsync/pkg/history"
	"github.com/aretw0/rngsync/pkg/observability"
	"github.com/aretw0/rngsync/pkg/ports"
	"github.com/aretw0/rngsync/pkg/session"
)

// Client wires the history store, the push channel and the request gateway
// against one node.
type Client struct {
	History *history.Store
	Channel *session.Channel
	Gateway *gateway.Gateway

	nodeURL      string
	pushEndpoint string
	identity     domain.Identity
	store        ports.StateStore
	stateKey     string
	logger       *slog.Logger
	metrics      *observability.Metrics
	httpClient   *http.Client
	dialer       ports.PushDialer
	onParseError func(error)
	submitRPS    float64
	submitBurst  int
}

// Option defines a functional option for configuring the Client.
type Option func(*Client)

// WithNode sets the node base URL used for the snapshot and submissions.
func WithNode(baseURL string) Option {
	return func(c *Client) {
		c.nodeURL = baseURL
	}
}

// WithPushEndpoint overrides the WebSocket endpoint derived from the node URL.
func WithPushEndpoint(endpoint string) Option {
	return func(c *Client) {
		c.pushEndpoint = endpoint
	}
}

// WithIdentity sets the node and process the push channel is opened as.
func WithIdentity(id domain.Identity) Option {
	return func(c *Client) {
		c.identity = id
	}
}

// WithStateStore sets the durable slot. Defaults to memory only.
func WithStateStore(store ports.StateStore) Option {
	return func(c *Client) {
		c.store = store
	}
}

// WithStateKey sets the durable slot name.
func WithStateKey(key string) Option {
	return func(c *Client) {
		c.stateKey = key
	}
}

// WithLogger sets a custom structured logger for every component.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithMetrics enables the Prometheus instruments.
func WithMetrics(m *observability.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithHTTPClient sets the client used for the snapshot and submissions.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithPushDialer replaces the WebSocket dialer.
func WithPushDialer(d ports.PushDialer) Option {
	return func(c *Client) {
		c.dialer = d
	}
}

// WithParseErrorHandler receives push frames that could not be decoded.
func WithParseErrorHandler(fn func(error)) Option {
	return func(c *Client) {
		c.onParseError = fn
	}
}

// WithSubmitRateLimit throttles submissions per target peer.
func WithSubmitRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		c.submitRPS = rps
		c.submitBurst = burst
	}
}

// New builds a Client. The node URL is required; the push endpoint is derived
// from it unless set explicitly.
func New(opts ...Option) (*Client, error) {
	c := &Client{
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if strings.TrimSpace(c.nodeURL) == "" {
		return nil, &domain.ConfigurationError{Field: "node url"}
	}
	if c.pushEndpoint == "" {
		endpoint, err := config.DerivePushURL(c.nodeURL)
		if err != nil {
			return nil, err
		}
		c.pushEndpoint = endpoint
	}
	if c.logger == nil {
		c.logger = logging.NewNop()
	}
	if c.dialer == nil {
		c.dialer = websocket.NewDialer(websocket.WithLogger(c.logger))
	}

	node := nodehttp.New(c.nodeURL,
		nodehttp.WithHTTPClient(c.httpClient),
		nodehttp.WithLogger(c.logger),
	)

	c.History = history.New(c.store,
		history.WithKey(c.stateKey),
		history.WithSnapshotFetcher(node),
		history.WithLogger(c.logger),
		history.WithMetrics(c.metrics),
	)

	channelOpts := []session.Option{
		session.WithLogger(c.logger),
		session.WithMetrics(c.metrics),
	}
	if c.onParseError != nil {
		channelOpts = append(channelOpts, session.WithErrorHandler(c.onParseError))
	}
	c.Channel = session.New(c.dialer, c.History, channelOpts...)

	c.Gateway = gateway.New(node,
		gateway.WithLogger(c.logger),
		gateway.WithMetrics(c.metrics),
		gateway.WithRateLimit(c.submitRPS, c.submitBurst),
	)
	return c, nil
}

// Start loads the history and opens the push channel.
//
// A snapshot failure is not fatal: the local history is kept and the error is
// returned joined with the outcome of opening the channel. A missing identity
// yields a *domain.ConfigurationError and the channel stays disconnected.
func (c *Client) Start(ctx context.Context) error {
	snapshotErr := c.History.Initialize(ctx)
	if snapshotErr != nil {
		c.logger.Warn("starting with local history only", "err", snapshotErr)
	}

	openErr := c.Channel.Open(ctx, c.pushEndpoint, c.identity)
	return errors.Join(openErr, snapshotErr)
}

// Submit sends one generation request. See gateway.Gateway.Submit.
func (c *Client) Submit(ctx context.Context, spec domain.RequestSpec) error {
	return c.Gateway.Submit(ctx, spec)
}

// Subscribe registers a history listener. See history.Store.Subscribe.
func (c *Client) Subscribe(l history.Listener) (unsubscribe func()) {
	return c.History.Subscribe(l)
}

// PushEndpoint returns the resolved WebSocket endpoint.
func (c *Client) PushEndpoint() string {
	return c.pushEndpoint
}

// Close stops the push channel and drops history listeners.
// The state store is owned by the caller and stays open.
func (c *Client) Close() error {
	err := c.Channel.Close()
	c.History.Close()
	return err
}
