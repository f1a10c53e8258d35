package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/aretw0/rngsync"
	"github.com/aretw0/rngsync/internal/config"
	"github.com/aretw0/rngsync/internal/presentation/tui"
	"github.com/aretw0/rngsync/pkg/domain"
	"github.com/aretw0/rngsync/pkg/observability"
	"github.com/aretw0/rngsync/pkg/session"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
)

// ErrChannelLost is returned by RunWatch when the node closes the push channel.
var ErrChannelLost = errors.New("push channel closed by node")

// WatchOptions tunes RunWatch.
type WatchOptions struct {
	Banner bool
}

// RunWatch opens the push channel and prints every new result until ctx is
// cancelled or the node goes away. With cfg.MetricsAddr set it also serves /metrics.
func RunWatch(ctx context.Context, cfg *config.Config, logger *slog.Logger, out io.Writer, opts WatchOptions) error {
	if opts.Banner {
		tui.PrintBanner(out)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(reg)

	client, closeClient, err := NewClient(cfg, logger, metrics,
		rngsync.WithParseErrorHandler(func(err error) {
			printSystemMessage(out, "dropped frame: %v", err)
		}),
	)
	if err != nil {
		return err
	}
	defer closeClient()

	printer := newEntryPrinter(out)
	client.Subscribe(printer.onChange)

	if err := client.Start(ctx); err != nil {
		if client.Channel.State() != session.Connected {
			return err
		}
		printSystemMessage(out, "snapshot unavailable, showing local history: %v", err)
	}
	printSystemMessage(out, "watching %s as %s (%s)", client.PushEndpoint(), cfg.NodeID, tui.StateLabel(client.Channel.State()))

	g, gctx := errgroup.WithContext(ctx)

	if cfg.MetricsAddr != "" {
		srv := &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           metricsMux(reg),
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			logger.Info("serving metrics", "addr", cfg.MetricsAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	g.Go(func() error {
		select {
		case <-gctx.Done():
			return nil
		case <-client.Channel.Done():
			if ctx.Err() != nil {
				return nil
			}
			return ErrChannelLost
		}
	})

	err = g.Wait()
	printSystemMessage(out, "stopped with %d results in history", len(client.History.Entries()))
	return err
}

func metricsMux(reg *prometheus.Registry) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	return mux
}

// entryPrinter prints one line per recorded entry and a summary when a
// snapshot replaces the list.
type entryPrinter struct {
	mu   sync.Mutex
	out  io.Writer
	last domain.HistoryState
}

func newEntryPrinter(out io.Writer) *entryPrinter {
	return &entryPrinter{out: out, last: domain.DefaultHistoryState()}
}

func (p *entryPrinter) onChange(s domain.HistoryState) {
	p.mu.Lock()
	defer p.mu.Unlock()

	diff := domain.Diff(p.last, s)
	p.last = s

	if diff.Replaced {
		printSystemMessage(p.out, "history has %d results", len(s.Entries))
	}
	// Added is most recent first; print in arrival order.
	for i := len(diff.Added) - 1; i >= 0; i-- {
		fmt.Fprintln(p.out, tui.FormatEntry(diff.Added[i]))
	}
	if diff.Theme != nil {
		printSystemMessage(p.out, "theme is now %s", *diff.Theme)
	}
}
