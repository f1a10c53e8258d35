package gateway_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/rngsync/pkg/domain"
	"github.com/aretw0/rngsync/pkg/gateway"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingTransport struct {
	calls []domain.RequestSpec
	err   error
}

func (r *recordingTransport) SubmitRequest(ctx context.Context, spec domain.RequestSpec) error {
	r.calls = append(r.calls, spec)
	return r.err
}

func validSpec() domain.RequestSpec {
	return domain.RequestSpec{TargetPeer: "node-b.os", Range: domain.Range{Min: 1, Max: 6}, Context: "dice"}
}

func TestSubmit_Valid(t *testing.T) {
	transport := &recordingTransport{}
	g := gateway.New(transport)

	require.NoError(t, g.Submit(context.Background(), validSpec()))
	assert.Equal(t, []domain.RequestSpec{validSpec()}, transport.calls)
}

func TestSubmit_ValidationErrors(t *testing.T) {
	cases := []struct {
		name  string
		spec  domain.RequestSpec
		field string
	}{
		{"empty target", domain.RequestSpec{Range: domain.Range{Min: 1, Max: 6}}, "target"},
		{"blank target", domain.RequestSpec{TargetPeer: "   ", Range: domain.Range{Min: 1, Max: 6}}, "target"},
		{"min equals max", domain.RequestSpec{TargetPeer: "b.os", Range: domain.Range{Min: 5, Max: 5}}, "range"},
		{"min above max", domain.RequestSpec{TargetPeer: "b.os", Range: domain.Range{Min: 9, Max: 1}}, "range"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			transport := &recordingTransport{}
			err := gateway.New(transport).Submit(context.Background(), tc.spec)

			var verr *domain.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tc.field, verr.Field)
			assert.ErrorIs(t, err, domain.ErrValidation)
			assert.Empty(t, transport.calls)
		})
	}
}

func TestSubmit_TransportFailure(t *testing.T) {
	cause := errors.New("connection refused")
	transport := &recordingTransport{err: cause}

	err := gateway.New(transport).Submit(context.Background(), validSpec())

	var rf *domain.RequestFailedError
	require.ErrorAs(t, err, &rf)
	assert.Zero(t, rf.StatusCode)
	assert.ErrorIs(t, err, domain.ErrRequestFailed)
	assert.ErrorIs(t, err, cause)
	assert.Len(t, transport.calls, 1)
}

func TestSubmit_PreservesStatusCode(t *testing.T) {
	transport := &recordingTransport{err: &domain.RequestFailedError{StatusCode: 503, Err: errors.New("unavailable")}}

	err := gateway.New(transport).Submit(context.Background(), validSpec())

	var rf *domain.RequestFailedError
	require.ErrorAs(t, err, &rf)
	assert.Equal(t, 503, rf.StatusCode)
}

func TestSubmit_Throttled(t *testing.T) {
	transport := &recordingTransport{}
	g := gateway.New(transport, gateway.WithRateLimit(0.001, 1))
	ctx := context.Background()

	require.NoError(t, g.Submit(ctx, validSpec()))
	err := g.Submit(ctx, validSpec())

	assert.ErrorIs(t, err, domain.ErrRequestFailed)
	assert.ErrorIs(t, err, domain.ErrThrottled)
	assert.Len(t, transport.calls, 1)

	other := validSpec()
	other.TargetPeer = "node-c.os"
	assert.NoError(t, g.Submit(ctx, other))
}
