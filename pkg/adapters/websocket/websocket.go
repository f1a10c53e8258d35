// Package websocket implements the push channel transport over WebSocket text frames.
package websocket

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/aretw0/rngsync/internal/logging"
	"github.com/aretw0/rngsync/pkg/domain"
	"github.com/aretw0/rngsync/pkg/ports"
	"golang.org/x/net/websocket"
)

// Handshake headers that carry the channel identity.
const (
	HeaderNodeID    = "X-Node-Id"
	HeaderProcessID = "X-Process-Id"
)

// MaxFrameBytes bounds a single inbound frame.
const MaxFrameBytes = 1 << 20

// Dialer opens push connections.
type Dialer struct {
	origin string
	logger *slog.Logger
}

var _ ports.PushDialer = (*Dialer)(nil)

// DialerOption configures the Dialer.
type DialerOption func(*Dialer)

// WithOrigin overrides the Origin header. By default it is derived from the endpoint.
func WithOrigin(origin string) DialerOption {
	return func(d *Dialer) {
		d.origin = origin
	}
}

// WithLogger configures a logger for the Dialer.
func WithLogger(logger *slog.Logger) DialerOption {
	return func(d *Dialer) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// NewDialer creates a Dialer.
func NewDialer(opts ...DialerOption) *Dialer {
	d := &Dialer{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dial performs the WebSocket handshake against endpoint (ws:// or wss://).
func (d *Dialer) Dial(ctx context.Context, endpoint string, id domain.Identity) (ports.PushConn, error) {
	origin := d.origin
	if origin == "" {
		o, err := originFor(endpoint)
		if err != nil {
			return nil, err
		}
		origin = o
	}

	cfg, err := websocket.NewConfig(endpoint, origin)
	if err != nil {
		return nil, fmt.Errorf("invalid push endpoint %q: %w", endpoint, err)
	}
	cfg.Header = make(http.Header)
	cfg.Header.Set(HeaderNodeID, id.NodeID)
	cfg.Header.Set(HeaderProcessID, id.ProcessID)

	ws, err := cfg.DialContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("websocket handshake with %s failed: %w", endpoint, err)
	}
	ws.MaxPayloadBytes = MaxFrameBytes
	d.logger.Debug("websocket connected", "endpoint", endpoint)
	return &Conn{ws: ws}, nil
}

func originFor(endpoint string) (string, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid push endpoint %q: %w", endpoint, err)
	}
	scheme := "http"
	if u.Scheme == "wss" || u.Scheme == "https" {
		scheme = "https"
	}
	return scheme + "://" + u.Host, nil
}

// Conn is one open WebSocket push connection.
type Conn struct {
	ws        *websocket.Conn
	closeOnce sync.Once
	closeErr  error
}

// Receive returns the payload of the next frame. Cancelling ctx unblocks it.
// A frame over MaxFrameBytes yields a *domain.ParseError wrapping
// domain.ErrFrameTooLarge and leaves the connection open.
func (c *Conn) Receive(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	stop := context.AfterFunc(ctx, func() {
		_ = c.ws.SetReadDeadline(time.Now())
	})
	defer stop()

	var msg []byte
	if err := websocket.Message.Receive(c.ws, &msg); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		// The oversized frame is drained by the next Receive.
		if errors.Is(err, websocket.ErrFrameTooLarge) {
			return nil, &domain.ParseError{Err: fmt.Errorf("%w: limit %d bytes", domain.ErrFrameTooLarge, MaxFrameBytes)}
		}
		return nil, err
	}
	return msg, nil
}

// Close closes the connection. Later calls return the first result.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.ws.Close()
	})
	return c.closeErr
}

// IdentityFromRequest reads the handshake headers set by Dial.
func IdentityFromRequest(r *http.Request) domain.Identity {
	return domain.Identity{
		NodeID:    r.Header.Get(HeaderNodeID),
		ProcessID: r.Header.Get(HeaderProcessID),
	}
}
