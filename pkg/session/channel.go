package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/aretw0/rngsync/internal/logging"
	"github.com/aretw0/rngsync/pkg/domain"
	"github.com/aretw0/rngsync/pkg/observability"
	"github.com/aretw0/rngsync/pkg/ports"
	"github.com/google/uuid"
)

// Recorder receives decoded results. *history.Store satisfies it.
type Recorder interface {
	RecordEntry(ctx context.Context, entry domain.ResultEntry)
}

// ErrClosedWhileConnecting is returned by Open when Close wins the race with the dial.
var ErrClosedWhileConnecting = errors.New("channel closed while connecting")

var closedDone = func() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}()

// Channel is the push-channel state machine.
type Channel struct {
	dialer   ports.PushDialer
	recorder Recorder
	logger   *slog.Logger
	metrics  *observability.Metrics
	onState  func(State)
	onError  func(error)

	mu     sync.Mutex
	state  State
	conn   ports.PushConn
	cancel context.CancelFunc
	done   chan struct{}
	gen    uint64

	// deliverMu makes Close wait for an in-flight delivery, so that nothing from
	// an old connection reaches the recorder after Close returns.
	deliverMu sync.Mutex
}

// Option configures the Channel.
type Option func(*Channel)

// WithLogger configures a logger for the Channel.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Channel) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics records frames, parse errors and state changes.
func WithMetrics(m *observability.Metrics) Option {
	return func(c *Channel) {
		c.metrics = m
	}
}

// WithStateHook is called after every state change, outside the channel's locks.
func WithStateHook(fn func(State)) Option {
	return func(c *Channel) {
		c.onState = fn
	}
}

// WithErrorHandler receives every *domain.ParseError raised by an inbound frame.
// It runs on the reader goroutine and must not call Close.
func WithErrorHandler(fn func(error)) Option {
	return func(c *Channel) {
		c.onError = fn
	}
}

// New creates a disconnected Channel that delivers results to recorder.
func New(dialer ports.PushDialer, recorder Recorder, opts ...Option) *Channel {
	c := &Channel{
		dialer:   dialer,
		recorder: recorder,
		logger:   logging.NewNop(),
		state:    Disconnected,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Open connects to endpoint as id. Any connection already open is closed first.
//
// A missing endpoint or identity returns a *domain.ConfigurationError and the
// channel stays Disconnected. A dial failure returns the channel to Disconnected.
func (c *Channel) Open(ctx context.Context, endpoint string, id domain.Identity) error {
	switch {
	case strings.TrimSpace(endpoint) == "":
		return &domain.ConfigurationError{Field: "endpoint"}
	case strings.TrimSpace(id.NodeID) == "":
		return &domain.ConfigurationError{Field: "node id"}
	case strings.TrimSpace(id.ProcessID) == "":
		return &domain.ConfigurationError{Field: "process id"}
	}

	if err := c.Close(); err != nil {
		c.logger.Warn("failed to close previous push connection", "err", err)
	}

	c.mu.Lock()
	gen := c.gen
	c.state = Connecting
	c.mu.Unlock()
	c.stateChanged(Connecting)

	connID := uuid.NewString()
	logger := c.logger.With("conn_id", connID, "endpoint", endpoint)
	logger.Debug("dialing push channel")

	conn, err := c.dialer.Dial(ctx, endpoint, id)
	if err != nil {
		c.mu.Lock()
		stale := c.gen != gen
		if !stale {
			c.state = Disconnected
		}
		c.mu.Unlock()
		if !stale {
			c.stateChanged(Disconnected)
		}
		logger.Warn("push channel dial failed", "err", err)
		return fmt.Errorf("failed to open push channel: %w", err)
	}

	c.mu.Lock()
	if c.gen != gen {
		c.mu.Unlock()
		_ = conn.Close()
		return ErrClosedWhileConnecting
	}
	readCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	c.conn = conn
	c.cancel = cancel
	c.done = done
	c.state = Connected
	c.mu.Unlock()

	c.stateChanged(Connected)
	logger.Info("push channel connected")

	go c.read(readCtx, conn, gen, logger, done)
	return nil
}

func (c *Channel) read(ctx context.Context, conn ports.PushConn, gen uint64, logger *slog.Logger, done chan struct{}) {
	defer close(done)
	for {
		raw, err := conn.Receive(ctx)
		if errors.Is(err, domain.ErrParse) && ctx.Err() == nil {
			c.parseFailed(err, logger)
			continue
		}
		if err != nil {
			c.lost(gen, err, logger)
			return
		}
		c.handleFrame(ctx, gen, raw, logger)
	}
}

func (c *Channel) handleFrame(ctx context.Context, gen uint64, raw []byte, logger *slog.Logger) {
	event, err := domain.DecodeEnvelope(raw)
	if err != nil {
		c.parseFailed(err, logger)
		return
	}

	switch ev := event.(type) {
	case domain.NewRandomEvent:
		c.metrics.FrameReceived(domain.KindNewRandom)
		c.deliverMu.Lock()
		defer c.deliverMu.Unlock()
		if !c.current(gen) {
			return
		}
		c.recorder.RecordEntry(ctx, ev.Entry)
	case domain.IgnoredEvent:
		c.metrics.FrameReceived(ev.Kind)
		logger.Debug("ignoring push frame", "kind", ev.Kind)
	}
}

// parseFailed reports a dropped frame; the connection stays up.
func (c *Channel) parseFailed(err error, logger *slog.Logger) {
	c.metrics.ParseError()
	logger.Warn("dropping undecodable push frame", "err", err)
	if c.onError != nil {
		c.onError(err)
	}
}

// lost handles a transport-initiated close or error.
func (c *Channel) lost(gen uint64, err error, logger *slog.Logger) {
	c.mu.Lock()
	if c.gen != gen {
		c.mu.Unlock()
		return
	}
	c.gen++
	conn, cancel := c.conn, c.cancel
	c.conn, c.cancel = nil, nil
	c.state = Disconnected
	c.mu.Unlock()

	cancel()
	_ = conn.Close()
	logger.Info("push channel disconnected", "err", err)
	c.stateChanged(Disconnected)
}

func (c *Channel) current(gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen == gen
}

// Close tears down the current connection and leaves the channel Disconnected.
// It is idempotent. Once it returns, no further entry from the closed connection
// is delivered. It must not be called from inside the Recorder.
func (c *Channel) Close() error {
	c.mu.Lock()
	c.gen++
	conn, cancel := c.conn, c.cancel
	c.conn, c.cancel = nil, nil
	prev := c.state
	c.state = Disconnected
	c.mu.Unlock()

	// Wait out a delivery that checked the generation before the bump.
	c.deliverMu.Lock()
	c.deliverMu.Unlock()

	if cancel != nil {
		cancel()
	}
	var err error
	if conn != nil {
		err = conn.Close()
	}
	if prev != Disconnected {
		c.logger.Info("push channel closed")
		c.stateChanged(Disconnected)
	}
	return err
}

// State returns the current connection state.
func (c *Channel) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Done is closed when the reader of the latest connection exits.
// Before the first successful Open it returns an already closed channel.
func (c *Channel) Done() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.done == nil {
		return closedDone
	}
	return c.done
}

func (c *Channel) stateChanged(s State) {
	c.metrics.ChannelState(s.String(), allStates...)
	if c.onState != nil {
		c.onState(s)
	}
}
