// Package gateway validates outbound generation requests and hands them to the
// request transport.
//
// A successful Submit only means the node accepted the request. The generated value
// is observed later through the push channel, like any other peer's result.
package gateway

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/aretw0/rngsync/internal/logging"
	"github.com/aretw0/rngsync/internal/platform/ratelimiter"
	"github.com/aretw0/rngsync/pkg/domain"
	"github.com/aretw0/rngsync/pkg/observability"
	"github.com/aretw0/rngsync/pkg/ports"
)

// Gateway submits RequestSpecs. It holds no state besides the optional limiter.
type Gateway struct {
	transport ports.RequestTransport
	limiter   *ratelimiter.KeyedLimiter
	logger    *slog.Logger
	metrics   *observability.Metrics
	now       func() time.Time
}

// Option configures the Gateway.
type Option func(*Gateway)

// WithLogger configures a logger for the Gateway.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Gateway) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// WithMetrics records submission outcomes and transport latency.
func WithMetrics(m *observability.Metrics) Option {
	return func(g *Gateway) {
		g.metrics = m
	}
}

// WithRateLimit throttles submissions per target peer. Non-positive values disable it.
func WithRateLimit(rps float64, burst int) Option {
	return func(g *Gateway) {
		g.limiter = ratelimiter.New(rps, burst, 0)
	}
}

// New creates a Gateway over transport.
func New(transport ports.RequestTransport, opts ...Option) *Gateway {
	g := &Gateway{
		transport: transport,
		logger:    logging.NewNop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Validate checks spec without any network call.
func Validate(spec domain.RequestSpec) error {
	if strings.TrimSpace(spec.TargetPeer) == "" {
		return &domain.ValidationError{Field: "target", Reason: "must not be empty"}
	}
	if spec.Range.Max <= spec.Range.Min {
		return &domain.ValidationError{Field: "range", Reason: "max must be greater than min"}
	}
	return nil
}

// Submit validates spec and makes exactly one transport call.
//
// Invalid specs return a *domain.ValidationError and nothing is sent. Transport
// failures and local throttling return a *domain.RequestFailedError. There is no retry.
func (g *Gateway) Submit(ctx context.Context, spec domain.RequestSpec) error {
	if err := Validate(spec); err != nil {
		g.metrics.Submission(observability.OutcomeInvalid, 0)
		g.logger.Debug("request rejected", "target", spec.TargetPeer, "err", err)
		return err
	}

	if !g.limiter.Allow(spec.TargetPeer, g.now()) {
		g.metrics.Submission(observability.OutcomeThrottled, 0)
		g.logger.Warn("request throttled", "target", spec.TargetPeer)
		return &domain.RequestFailedError{Err: domain.ErrThrottled}
	}

	start := time.Now()
	err := g.transport.SubmitRequest(ctx, spec)
	elapsed := time.Since(start)
	if err != nil {
		g.metrics.Submission(observability.OutcomeFailed, elapsed)
		g.logger.Warn("request failed", "target", spec.TargetPeer, "err", err)

		var rf *domain.RequestFailedError
		if errors.As(err, &rf) {
			return rf
		}
		return &domain.RequestFailedError{Err: err}
	}

	g.metrics.Submission(observability.OutcomeOK, elapsed)
	g.logger.Debug("request accepted", "target", spec.TargetPeer, "range", spec.Range.String())
	return nil
}
