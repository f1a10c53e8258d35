package devnode

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"
)

const shutdownGrace = 5 * time.Second

// ListenAndServe serves the node on addr until ctx is cancelled, then shuts down gracefully.
func (n *Node) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return n.Serve(ctx, ln)
}

// Serve is ListenAndServe on an existing listener.
func (n *Node) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           n.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		n.logger.Info("devnode listening", "addr", ln.Addr().String(), "node", n.id, "base_path", n.basePath)
		serverErrors <- srv.Serve(ln)
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			n.logger.Warn("graceful shutdown did not complete", "err", err)
			_ = srv.Close()
		}
		n.logger.Info("devnode stopped")
		return nil
	}
}
