package devnode_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/rngsync/internal/devnode"
	"github.com/aretw0/rngsync/pkg/adapters/memory"
	"github.com/aretw0/rngsync/pkg/adapters/websocket"
	"github.com/aretw0/rngsync/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedSource(v uint64) devnode.Option {
	return devnode.WithSource(func(n uint64) uint64 { return v % n })
}

func post(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestNode_SubmitAndList(t *testing.T) {
	node := devnode.New("node-a.os", fixedSource(2))
	srv := httptest.NewServer(node.Handler())
	defer srv.Close()
	base := srv.URL + devnode.DefaultBasePath

	resp := post(t, base+"/randoms", `{"target":"node-b.os","range":{"min":10,"max":20},"context":"dice"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var entry domain.ResultEntry
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&entry))
	assert.Equal(t, "node-b.os", entry.SourcePeer)
	assert.Equal(t, "node-a.os", entry.OriginPeer)
	assert.Equal(t, float64(12), entry.Value)
	assert.Equal(t, "dice", entry.Context)

	post(t, base+"/randoms", `{"target":"node-a.os","range":{"min":1,"max":1}}`)

	list, err := http.Get(base + "/randoms")
	require.NoError(t, err)
	defer list.Body.Close()

	var entries []domain.ResultEntry
	require.NoError(t, json.NewDecoder(list.Body).Decode(&entries))
	require.Len(t, entries, 2)
	assert.Equal(t, "dice", entries[0].Context, "oldest first")
	assert.Equal(t, float64(1), entries[1].Value)
}

func TestNode_SubmitBadRequests(t *testing.T) {
	node := devnode.New("node-a.os", devnode.WithBasePath(""))
	srv := httptest.NewServer(node.Handler())
	defer srv.Close()

	for _, body := range []string{
		`not json`,
		`{"range":{"min":1,"max":2}}`,
		`{"target":"b.os","range":{"min":1}}`,
		`{"target":"b.os"}`,
		`{"target":"b.os","range":{"min":5,"max":1}}`,
	} {
		resp := post(t, srv.URL+"/randoms", body)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, body)
	}
	assert.Empty(t, node.Results())
}

func TestNode_RateLimit(t *testing.T) {
	node := devnode.New("node-a.os", devnode.WithBasePath(""), devnode.WithRateLimit(0.001, 1))
	srv := httptest.NewServer(node.Handler())
	defer srv.Close()

	body := `{"target":"b.os","range":{"min":1,"max":6}}`
	assert.Equal(t, http.StatusOK, post(t, srv.URL+"/randoms", body).StatusCode)
	assert.Equal(t, http.StatusTooManyRequests, post(t, srv.URL+"/randoms", body).StatusCode)
}

func TestNode_Health(t *testing.T) {
	srv := httptest.NewServer(devnode.New("node-a.os").Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestNode_PushesToOpenChannels(t *testing.T) {
	node := devnode.New("node-a.os", fixedSource(0))
	srv := httptest.NewServer(node.Handler())
	defer srv.Close()

	endpoint := "ws" + strings.TrimPrefix(srv.URL, "http") + devnode.DefaultBasePath + "/"
	conn, err := websocket.NewDialer().Dial(context.Background(), endpoint,
		domain.Identity{NodeID: "node-a.os", ProcessID: "rng:rng:template.os"})
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return node.Clients() == 1 }, 2*time.Second, 10*time.Millisecond)

	_, err = node.Generate(context.Background(), "node-a.os",
		domain.RequestSpec{TargetPeer: "node-b.os", Range: domain.Range{Min: 3, Max: 9}})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	raw, err := conn.Receive(ctx)
	require.NoError(t, err)

	event, err := domain.DecodeEnvelope(raw)
	require.NoError(t, err)
	nr, ok := event.(domain.NewRandomEvent)
	require.True(t, ok)
	assert.Equal(t, float64(3), nr.Entry.Value)
	assert.Equal(t, domain.Range{Min: 3, Max: 9}, nr.Entry.Range)

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return node.Clients() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestNode_PersistsAndReloads(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	first := devnode.New("node-a.os", devnode.WithStore(store))
	_, err := first.Generate(ctx, "node-a.os", domain.RequestSpec{TargetPeer: "node-a.os", Range: domain.Range{Min: 1, Max: 6}})
	require.NoError(t, err)

	second := devnode.New("node-a.os", devnode.WithStore(store))
	require.NoError(t, second.Load(ctx))
	assert.Equal(t, first.Results(), second.Results())
}

func TestNode_GenerateInvalidRange(t *testing.T) {
	_, err := devnode.New("n").Generate(context.Background(), "n", domain.RequestSpec{TargetPeer: "n", Range: domain.Range{Min: 2, Max: 1}})
	assert.ErrorIs(t, err, devnode.ErrInvalidRange)
}

func TestNode_ServeStopsOnCancel(t *testing.T) {
	node := devnode.New("n")
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- node.ListenAndServe(ctx, "127.0.0.1:0") }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not stop")
	}
}

