package cli

import (
	"context"
	"io"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"github.com/aretw0/rngsync/internal/config"
	"github.com/aretw0/rngsync/internal/devnode"
	"github.com/aretw0/rngsync/internal/presentation/tui"
	"github.com/aretw0/rngsync/pkg/domain"
	"github.com/aretw0/rngsync/pkg/history"
)

// RunRequest submits one generation request. The value is not returned: it
// arrives on the push channel of every watcher.
func RunRequest(ctx context.Context, cfg *config.Config, logger *slog.Logger, out io.Writer, spec domain.RequestSpec) error {
	client, closeClient, err := NewClient(cfg, logger, nil)
	if err != nil {
		return err
	}
	defer closeClient()

	if err := client.Submit(ctx, spec); err != nil {
		return err
	}
	printSystemMessage(out, "request for %s %s accepted by %s", spec.TargetPeer, spec.Range.String(), cfg.NodeURL)
	return nil
}

// RunHistory renders the persisted history. With sync it first reconciles with
// the node snapshot.
func RunHistory(ctx context.Context, cfg *config.Config, logger *slog.Logger, out io.Writer, renderer *tui.Renderer, sync bool) error {
	if sync {
		client, closeClient, err := NewClient(cfg, logger, nil)
		if err != nil {
			return err
		}
		defer closeClient()

		if err := client.History.Initialize(ctx); err != nil {
			printSystemMessage(out, "%v", err)
		}
		return renderer.RenderHistory(out, client.History.State())
	}

	store, closeStore, err := OpenStore(cfg.Storage)
	if err != nil {
		return err
	}
	defer closeStore()

	h := history.New(store, history.WithKey(cfg.StateKey), history.WithLogger(logger))
	if err := h.Initialize(ctx); err != nil {
		return err
	}
	return renderer.RenderHistory(out, h.State())
}

// RunToggleTheme flips the persisted theme and reports the new one.
func RunToggleTheme(ctx context.Context, cfg *config.Config, logger *slog.Logger, out io.Writer) (domain.Theme, error) {
	store, closeStore, err := OpenStore(cfg.Storage)
	if err != nil {
		return "", err
	}
	defer closeStore()

	h := history.New(store, history.WithKey(cfg.StateKey), history.WithLogger(logger))
	if err := h.Initialize(ctx); err != nil {
		return "", err
	}
	h.ToggleTheme(ctx)
	theme := h.Theme()
	printSystemMessage(out, "theme is now %s", theme)
	return theme, nil
}

// DevNodeOptions configures RunDevNode.
type DevNodeOptions struct {
	Addr string
	// Persist keeps the node's results in the configured store under its own key.
	Persist bool
}

// RunDevNode serves a loopback node until ctx is cancelled. It is mounted under
// the path of cfg.NodeURL so a default watch connects to it unchanged.
func RunDevNode(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts DevNodeOptions) error {
	nodeID := cfg.NodeID
	if nodeID == "" {
		nodeID = "devnode.os"
	}

	nodeOpts := []devnode.Option{
		devnode.WithLogger(logger),
		devnode.WithBasePath(basePath(cfg.NodeURL)),
		devnode.WithRateLimit(cfg.SubmitRPS, cfg.SubmitBurst),
	}
	if opts.Persist {
		store, closeStore, err := OpenStore(cfg.Storage)
		if err != nil {
			return err
		}
		defer closeStore()
		nodeOpts = append(nodeOpts, devnode.WithStore(store))
	}

	node := devnode.New(nodeID, nodeOpts...)
	if err := node.Load(ctx); err != nil {
		return err
	}
	return node.ListenAndServe(ctx, opts.Addr)
}

func basePath(nodeURL string) string {
	u, err := url.Parse(nodeURL)
	if err != nil {
		return devnode.DefaultBasePath
	}
	return strings.TrimRight(u.Path, "/")
}

// ParseRange reads the two CLI bounds.
func ParseRange(minArg, maxArg string) (domain.Range, error) {
	lo, err := strconv.ParseUint(minArg, 10, 64)
	if err != nil {
		return domain.Range{}, &domain.ValidationError{Field: "min", Reason: "must be a non-negative integer"}
	}
	hi, err := strconv.ParseUint(maxArg, 10, 64)
	if err != nil {
		return domain.Range{}, &domain.ValidationError{Field: "max", Reason: "must be a non-negative integer"}
	}
	return domain.Range{Min: lo, Max: hi}, nil
}
