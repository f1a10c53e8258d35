package ports

import (
	"context"

	"github.com/aretw0/rngsync/pkg/domain"
)

// SnapshotFetcher performs the one-time bulk read of prior results.
type SnapshotFetcher interface {
	// FetchSnapshot returns the node's results oldest-first (wire order).
	FetchSnapshot(ctx context.Context) ([]domain.ResultEntry, error)
}

// RequestTransport carries a generation request to the node.
// It reports only whether the call succeeded; the generated value arrives
// later through the push channel.
type RequestTransport interface {
	SubmitRequest(ctx context.Context, spec domain.RequestSpec) error
}
