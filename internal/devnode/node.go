package devnode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/rngsync/internal/logging"
	"github.com/aretw0/rngsync/internal/platform/ratelimiter"
	wsadapter "github.com/aretw0/rngsync/pkg/adapters/websocket"
	"github.com/aretw0/rngsync/pkg/domain"
	"github.com/aretw0/rngsync/pkg/ports"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/net/websocket"
)

// DefaultBasePath mirrors the process path a real node mounts the app under.
const DefaultBasePath = "/rng:rng:template.os"

const stateKey = "devnode"

// ErrInvalidRange is returned by Generate when min > max.
var ErrInvalidRange = errors.New("invalid number range")

// Node is an in-process randomness node.
type Node struct {
	id       string
	basePath string
	logger   *slog.Logger
	store    ports.StateStore
	limiter  *ratelimiter.KeyedLimiter
	streams  *StreamManager
	now      func() time.Time
	intn     func(n uint64) uint64

	mu      sync.Mutex
	randoms []domain.ResultEntry // oldest first
}

// Option configures the Node.
type Option func(*Node)

// WithBasePath mounts the results and push routes under path. "" mounts them at the root.
func WithBasePath(path string) Option {
	return func(n *Node) {
		n.basePath = strings.TrimRight(path, "/")
	}
}

// WithLogger configures a logger for the Node.
func WithLogger(logger *slog.Logger) Option {
	return func(n *Node) {
		if logger != nil {
			n.logger = logger
		}
	}
}

// WithStore persists the result log so it survives restarts.
func WithStore(store ports.StateStore) Option {
	return func(n *Node) {
		n.store = store
	}
}

// WithRateLimit throttles POSTs per target. Throttled requests get 429.
func WithRateLimit(rps float64, burst int) Option {
	return func(n *Node) {
		n.limiter = ratelimiter.New(rps, burst, 0)
	}
}

// WithSource replaces the value generator; intn returns a value in [0, n).
func WithSource(intn func(n uint64) uint64) Option {
	return func(n *Node) {
		if intn != nil {
			n.intn = intn
		}
	}
}

// New creates a Node named id.
func New(id string, opts ...Option) *Node {
	n := &Node{
		id:       id,
		basePath: DefaultBasePath,
		logger:   logging.NewNop(),
		now:      func() time.Time { return time.Now().UTC() },
		intn:     rand.Uint64N,
		randoms:  []domain.ResultEntry{},
	}
	for _, opt := range opts {
		opt(n)
	}
	n.streams = NewStreamManager(n.logger)
	return n
}

// ID returns the node name.
func (n *Node) ID() string { return n.id }

// BasePath returns the mount point of the results and push routes.
func (n *Node) BasePath() string { return n.basePath }

// Load restores the result log from the store, if one is configured.
func (n *Node) Load(ctx context.Context) error {
	if n.store == nil {
		return nil
	}
	state, err := n.store.Load(ctx, stateKey)
	if err != nil {
		if errors.Is(err, domain.ErrStateNotFound) {
			return nil
		}
		return fmt.Errorf("failed to load node state: %w", err)
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	n.randoms = append([]domain.ResultEntry{}, state.Entries...)
	return nil
}

// Results returns a copy of the result log, oldest first.
func (n *Node) Results() []domain.ResultEntry {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]domain.ResultEntry, len(n.randoms))
	copy(out, n.randoms)
	return out
}

// Clients returns the number of open push channels.
func (n *Node) Clients() int { return n.streams.Len() }

// Generate produces a value for spec on behalf of origin, records it and pushes
// it to every open channel. min == max is allowed and yields min.
func (n *Node) Generate(ctx context.Context, origin string, spec domain.RequestSpec) (domain.ResultEntry, error) {
	if spec.Range.Min > spec.Range.Max {
		return domain.ResultEntry{}, ErrInvalidRange
	}

	span := spec.Range.Max - spec.Range.Min + 1
	var offset uint64
	if span != 0 {
		offset = n.intn(span)
	} else {
		offset = rand.Uint64()
	}

	entry := domain.ResultEntry{
		SourcePeer: spec.TargetPeer,
		OriginPeer: origin,
		Range:      spec.Range,
		Value:      float64(spec.Range.Min + offset),
		Context:    spec.Context,
		ObservedAt: n.now(),
	}

	n.mu.Lock()
	n.randoms = append(n.randoms, entry)
	snapshot := domain.HistoryState{Entries: append([]domain.ResultEntry{}, n.randoms...), Theme: domain.ThemeLight}
	n.mu.Unlock()

	if n.store != nil {
		if err := n.store.Save(ctx, stateKey, snapshot); err != nil {
			n.logger.Error("failed to persist node state", "err", err)
		}
	}

	frame, err := domain.EncodeNewRandom(entry)
	if err != nil {
		return entry, fmt.Errorf("failed to encode push frame: %w", err)
	}
	n.streams.Broadcast(frame)
	n.logger.Info("generated", "target", entry.SourcePeer, "range", entry.Range.String(), "value", entry.Value, "clients", n.streams.Len())
	return entry, nil
}

// Handler returns the node's HTTP surface.
func (n *Node) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "node": n.id, "clients": n.streams.Len()})
	})

	routes := func(r chi.Router) {
		r.Get("/randoms", n.listResults)
		r.Post("/randoms", n.submit)
		r.Get("/", n.push().ServeHTTP)
	}
	if n.basePath == "" {
		routes(r)
	} else {
		r.Route(n.basePath, routes)
	}
	return r
}

func (n *Node) listResults(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, n.Results())
}

type submitBody struct {
	Target  *string `json:"target"`
	Range   *struct {
		Min *uint64 `json:"min"`
		Max *uint64 `json:"max"`
	} `json:"range"`
	Context *string `json:"context"`
}

func (n *Node) submit(w http.ResponseWriter, r *http.Request) {
	var body submitBody
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&body); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	if body.Target == nil || body.Range == nil || body.Range.Min == nil || body.Range.Max == nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	target := strings.TrimSpace(*body.Target)
	if !n.limiter.Allow(target, time.Now()) {
		w.WriteHeader(http.StatusTooManyRequests)
		return
	}

	spec := domain.RequestSpec{
		TargetPeer: target,
		Range:      domain.Range{Min: *body.Range.Min, Max: *body.Range.Max},
	}
	if body.Context != nil {
		spec.Context = *body.Context
	}

	entry, err := n.Generate(r.Context(), n.id, spec)
	if err != nil {
		if errors.Is(err, ErrInvalidRange) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		n.logger.Error("failed to handle request", "err", err)
		http.Error(w, "Service Unavailable", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (n *Node) push() websocket.Handler {
	return func(conn *websocket.Conn) {
		defer conn.Close()

		id := wsadapter.IdentityFromRequest(conn.Request())
		channelID, frames, unsubscribe := n.streams.Subscribe()
		defer unsubscribe()
		logger := n.logger.With("channel_id", channelID, "peer", id.NodeID)
		logger.Info("push client connected")

		// The client never sends; a read error means it went away.
		gone := make(chan struct{})
		go func() {
			defer close(gone)
			var discard []byte
			for websocket.Message.Receive(conn, &discard) == nil {
			}
		}()

		for {
			select {
			case <-gone:
				logger.Info("push client disconnected")
				return
			case frame, ok := <-frames:
				if !ok {
					return
				}
				if err := websocket.Message.Send(conn, string(frame)); err != nil {
					logger.Warn("push failed", "err", err)
					return
				}
			}
		}
	}
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
