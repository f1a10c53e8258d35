package ports

import (
	"context"

	"github.com/aretw0/rngsync/pkg/domain"
)

// PushDialer opens the long-lived, server-initiated message stream.
type PushDialer interface {
	Dial(ctx context.Context, endpoint string, id domain.Identity) (PushConn, error)
}

// PushConn is one open push connection.
type PushConn interface {
	// Receive blocks until the next inbound payload arrives.
	// It returns an error once the connection is closed by either side.
	// A *domain.ParseError means only the current frame was dropped; the
	// connection is still open and Receive may be called again.
	Receive(ctx context.Context) ([]byte, error)

	// Close tears the connection down. It is safe to call more than once.
	Close() error
}
