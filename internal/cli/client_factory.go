package cli

import (
	"log/slog"
	"net/http"

	"github.com/aretw0/rngsync"
	"github.com/aretw0/rngsync/internal/config"
	"github.com/aretw0/rngsync/pkg/observability"
)

// NewClient builds a Client from cfg. The returned close function stops the
// client and releases the store.
func NewClient(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics, extra ...rngsync.Option) (*rngsync.Client, func() error, error) {
	store, closeStore, err := OpenStore(cfg.Storage)
	if err != nil {
		return nil, nil, err
	}

	opts := []rngsync.Option{
		rngsync.WithNode(cfg.NodeURL),
		rngsync.WithPushEndpoint(cfg.PushURL),
		rngsync.WithIdentity(cfg.Identity()),
		rngsync.WithStateStore(store),
		rngsync.WithStateKey(cfg.StateKey),
		rngsync.WithLogger(logger),
		rngsync.WithMetrics(metrics),
		rngsync.WithHTTPClient(&http.Client{Timeout: cfg.RequestTimeout}),
		rngsync.WithSubmitRateLimit(cfg.SubmitRPS, cfg.SubmitBurst),
	}
	opts = append(opts, extra...)

	client, err := rngsync.New(opts...)
	if err != nil {
		_ = closeStore()
		return nil, nil, err
	}

	return client, func() error {
		cerr := client.Close()
		if serr := closeStore(); serr != nil && cerr == nil {
			cerr = serr
		}
		return cerr
	}, nil
}
