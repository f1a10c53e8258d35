package cli_test

import (
	"bytes"
	"context"
	"math"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/rngsync/internal/cli"
	"github.com/aretw0/rngsync/internal/config"
	"github.com/aretw0/rngsync/internal/devnode"
	"github.com/aretw0/rngsync/internal/logging"
	"github.com/aretw0/rngsync/internal/presentation/tui"
	"github.com/aretw0/rngsync/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// syncBuffer lets the test read output written by a running command.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func testConfig(t *testing.T, nodeURL string) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.NodeURL = nodeURL
	cfg.NodeID = "node-a.os"
	cfg.Storage.Backend = config.BackendFile
	cfg.Storage.Path = t.TempDir()
	return cfg
}

func startNode(t *testing.T) (*devnode.Node, string) {
	t.Helper()
	node := devnode.New("node-a.os", devnode.WithSource(func(n uint64) uint64 { return 0 }))
	srv := httptest.NewServer(node.Handler())
	t.Cleanup(srv.Close)
	return node, srv.URL + devnode.DefaultBasePath
}

func sampleState() domain.HistoryState {
	return domain.HistoryState{
		Entries: []domain.ResultEntry{{
			SourcePeer: "node-b.os",
			OriginPeer: "node-a.os",
			Range:      domain.Range{Min: 1, Max: 6},
			Value:      4,
			Context:    "secret-dice",
		}},
		Theme: domain.ThemeDark,
	}
}

func TestOpenStore_Backends(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	cases := map[string]config.StorageConfig{
		"memory": {Backend: config.BackendMemory},
		"file":   {Backend: config.BackendFile, Path: t.TempDir()},
		"sqlite": {Backend: config.BackendSQLite, Path: filepath.Join(t.TempDir(), "state.db")},
		"redis":  {Backend: config.BackendRedis, RedisAddr: mr.Addr()},
	}

	for name, sc := range cases {
		t.Run(name, func(t *testing.T) {
			store, closeStore, err := cli.OpenStore(sc)
			require.NoError(t, err)
			defer closeStore()

			require.NoError(t, store.Save(ctx, "k", sampleState()))
			got, err := store.Load(ctx, "k")
			require.NoError(t, err)
			assert.Equal(t, sampleState().Entries[0].Context, got.Entries[0].Context)
			assert.Equal(t, domain.ThemeDark, got.Theme)
		})
	}
}

func TestOpenStore_UnknownBackend(t *testing.T) {
	_, _, err := cli.OpenStore(config.StorageConfig{Backend: "tape"})
	assert.ErrorContains(t, err, "tape")
}

func TestOpenStore_RedactsAndEncrypts(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	sc := config.StorageConfig{
		Backend:        config.BackendFile,
		Path:           dir,
		RedactPatterns: []string{"^secret"},
		EncryptionKey:  strings.Repeat("ab", 32),
	}

	store, closeStore, err := cli.OpenStore(sc)
	require.NoError(t, err)
	defer closeStore()
	require.NoError(t, store.Save(ctx, "k", sampleState()))

	got, err := store.Load(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "***", got.Entries[0].Context)

	plain, closePlain, err := cli.OpenStore(config.StorageConfig{Backend: config.BackendFile, Path: dir})
	require.NoError(t, err)
	defer closePlain()
	raw, err := plain.Load(ctx, "k")
	require.NoError(t, err)
	require.Len(t, raw.Entries, 1)
	assert.NotContains(t, raw.Entries[0].Context, "dice")
	assert.Equal(t, domain.ThemeDark, raw.Theme)
}

func TestOpenStore_BadKey(t *testing.T) {
	_, _, err := cli.OpenStore(config.StorageConfig{Backend: config.BackendMemory, EncryptionKey: "short"})
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestRunRequest(t *testing.T) {
	node, base := startNode(t)
	var out bytes.Buffer

	spec := domain.RequestSpec{TargetPeer: "node-b.os", Range: domain.Range{Min: 3, Max: 9}, Context: "cli"}
	require.NoError(t, cli.RunRequest(context.Background(), testConfig(t, base), logging.NewNop(), &out, spec))

	require.Len(t, node.Results(), 1)
	assert.Equal(t, "cli", node.Results()[0].Context)
	assert.Contains(t, out.String(), "[3..9]")
}

func TestRunRequest_Invalid(t *testing.T) {
	node, base := startNode(t)
	spec := domain.RequestSpec{TargetPeer: "node-b.os", Range: domain.Range{Min: 9, Max: 3}}

	err := cli.RunRequest(context.Background(), testConfig(t, base), logging.NewNop(), &bytes.Buffer{}, spec)
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Empty(t, node.Results())
}

func TestRunHistory_SyncThenLocal(t *testing.T) {
	node, base := startNode(t)
	ctx := context.Background()
	_, err := node.Generate(ctx, "node-a.os", domain.RequestSpec{TargetPeer: "node-b.os", Range: domain.Range{Min: 1, Max: 6}, Context: "synced"})
	require.NoError(t, err)

	cfg := testConfig(t, base)
	renderer := tui.NewPlainRenderer()

	var out bytes.Buffer
	require.NoError(t, cli.RunHistory(ctx, cfg, logging.NewNop(), &out, renderer, true))
	assert.Contains(t, out.String(), "synced")

	out.Reset()
	require.NoError(t, cli.RunHistory(ctx, cfg, logging.NewNop(), &out, renderer, false))
	assert.Contains(t, out.String(), "synced", "sync persisted the snapshot")
}

func TestRunToggleTheme_Persists(t *testing.T) {
	cfg := testConfig(t, "http://localhost:1/rng")
	ctx := context.Background()

	theme, err := cli.RunToggleTheme(ctx, cfg, logging.NewNop(), &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, domain.ThemeDark, theme)

	theme, err = cli.RunToggleTheme(ctx, cfg, logging.NewNop(), &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, domain.ThemeLight, theme)
}

func TestRunWatch_PrintsPushedResults(t *testing.T) {
	node, base := startNode(t)
	cfg := testConfig(t, base)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	out := &syncBuffer{}
	done := make(chan error, 1)
	go func() { done <- cli.RunWatch(ctx, cfg, logging.NewNop(), out, cli.WatchOptions{}) }()

	require.Eventually(t, func() bool { return node.Clients() == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Contains(t, out.String(), "watching")

	_, err := node.Generate(ctx, "node-c.os", domain.RequestSpec{TargetPeer: "node-b.os", Range: domain.Range{Min: 5, Max: 7}, Context: "pushed"})
	require.NoError(t, err)
	require.Eventually(t, func() bool { return strings.Contains(out.String(), "pushed") }, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("watch did not stop")
	}
	assert.Contains(t, out.String(), "1 results")
}

func TestRunWatch_NodeDown(t *testing.T) {
	cfg := testConfig(t, "http://127.0.0.1:1/rng")
	err := cli.RunWatch(context.Background(), cfg, logging.NewNop(), &bytes.Buffer{}, cli.WatchOptions{})
	assert.Error(t, err)
}

func TestParseRange(t *testing.T) {
	r, err := cli.ParseRange("3", "18446744073709551615")
	require.NoError(t, err)
	assert.Equal(t, domain.Range{Min: 3, Max: math.MaxUint64}, r)

	_, err = cli.ParseRange("x", "1")
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = cli.ParseRange("-3", "12")
	assert.ErrorIs(t, err, domain.ErrValidation)
}
