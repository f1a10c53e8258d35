package history

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/aretw0/rngsync/internal/logging"
	"github.com/aretw0/rngsync/pkg/adapters/memory"
	"github.com/aretw0/rngsync/pkg/domain"
	"github.com/aretw0/rngsync/pkg/observability"
	"github.com/aretw0/rngsync/pkg/ports"
)

// Listener receives a copy of the full state after every mutation.
// It must not call RecordEntry, ToggleTheme or Initialize on the same store.
type Listener func(domain.HistoryState)

type subscription struct {
	id uint64
	fn Listener
}

// Store is the process-wide history of observed results.
type Store struct {
	backend ports.StateStore
	key     string
	fetcher ports.SnapshotFetcher
	logger  *slog.Logger
	metrics *observability.Metrics

	// writeMu serializes mutate -> persist -> notify.
	writeMu sync.Mutex

	mu    sync.RWMutex
	state domain.HistoryState

	subMu  sync.Mutex
	subs   []subscription
	nextID uint64
}

// Option configures the Store.
type Option func(*Store)

// WithKey sets the durable slot name. Defaults to domain.DefaultStateKey.
func WithKey(key string) Option {
	return func(s *Store) {
		if key != "" {
			s.key = key
		}
	}
}

// WithSnapshotFetcher enables the one-time remote reconciliation in Initialize.
func WithSnapshotFetcher(f ports.SnapshotFetcher) Option {
	return func(s *Store) {
		s.fetcher = f
	}
}

// WithLogger configures a logger for the Store.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics records inserts and persistence failures.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Store) {
		s.metrics = m
	}
}

// New creates a Store backed by backend. A nil backend keeps history in memory only.
// The store starts with the default state until Initialize is called.
func New(backend ports.StateStore, opts ...Option) *Store {
	if backend == nil {
		backend = memory.NewStore()
	}
	s := &Store{
		backend: backend,
		key:     domain.DefaultStateKey,
		logger:  logging.NewNop(),
		state:   domain.DefaultHistoryState(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Initialize rehydrates from durable storage, then replaces the entries with the
// remote snapshot when a fetcher is configured. The local theme always survives.
//
// A failed fetch leaves the rehydrated state in place and returns an error
// matching domain.ErrSnapshotUnavailable; the store remains usable.
func (s *Store) Initialize(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.set(s.rehydrate(ctx))

	if s.fetcher == nil {
		s.notify()
		return nil
	}

	snapshot, err := s.fetcher.FetchSnapshot(ctx)
	if err != nil {
		s.logger.Warn("snapshot fetch failed, keeping local history", "key", s.key, "err", err)
		s.notify()
		return fmt.Errorf("%w: %w", domain.ErrSnapshotUnavailable, err)
	}

	s.mu.Lock()
	s.state = domain.HistoryState{
		Entries: domain.NewestFirst(snapshot),
		Theme:   s.state.Theme,
	}
	s.mu.Unlock()

	s.logger.Debug("history reconciled with snapshot", "key", s.key, "entries", len(snapshot))
	s.persist(ctx)
	s.notify()
	return nil
}

func (s *Store) rehydrate(ctx context.Context) domain.HistoryState {
	state, err := s.backend.Load(ctx, s.key)
	if err != nil {
		if !errors.Is(err, domain.ErrStateNotFound) {
			s.logger.Warn("failed to load persisted history, starting empty", "key", s.key, "err",
				&domain.PersistenceError{Op: "load", Key: s.key, Err: err})
			s.metrics.PersistenceFailure("load")
		}
		return domain.DefaultHistoryState()
	}

	if state.Entries == nil {
		state.Entries = []domain.ResultEntry{}
	}
	if !state.Theme.Valid() {
		s.logger.Warn("persisted theme is invalid, using light", "key", s.key, "theme", state.Theme)
		state.Theme = domain.ThemeLight
	}
	return state
}

// RecordEntry inserts entry at the front of the history, persists and notifies.
// Entries are never deduplicated.
func (s *Store) RecordEntry(ctx context.Context, entry domain.ResultEntry) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	s.state = s.state.Prepend(entry)
	n := len(s.state.Entries)
	s.mu.Unlock()

	s.metrics.EntryRecorded()
	s.logger.Debug("entry recorded", "key", s.key, "entries", n)
	s.persist(ctx)
	s.notify()
}

// ToggleTheme flips the theme, persists and notifies.
func (s *Store) ToggleTheme(ctx context.Context) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	s.state.Theme = s.state.Theme.Toggle()
	theme := s.state.Theme
	s.mu.Unlock()

	s.logger.Debug("theme toggled", "key", s.key, "theme", theme)
	s.persist(ctx)
	s.notify()
}

// Subscribe registers l and returns a function that removes it.
// The returned function is safe to call more than once.
func (s *Store) Subscribe(l Listener) (unsubscribe func()) {
	s.subMu.Lock()
	s.nextID++
	id := s.nextID
	s.subs = append(s.subs, subscription{id: id, fn: l})
	s.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subMu.Lock()
			defer s.subMu.Unlock()
			for i, sub := range s.subs {
				if sub.id == id {
					s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
					return
				}
			}
		})
	}
}

// State returns a copy of the current state.
func (s *Store) State() domain.HistoryState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

// Entries returns a copy of the entries, most recent first.
func (s *Store) Entries() []domain.ResultEntry {
	return s.State().Entries
}

// Theme returns the current theme.
func (s *Store) Theme() domain.Theme {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Theme
}

// Close drops every listener. The state stays readable.
func (s *Store) Close() {
	s.subMu.Lock()
	s.subs = nil
	s.subMu.Unlock()
}

func (s *Store) set(state domain.HistoryState) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

// persist writes the current state through. Failures never reach the caller.
func (s *Store) persist(ctx context.Context) {
	state := s.State()
	if err := s.backend.Save(ctx, s.key, state); err != nil {
		perr := &domain.PersistenceError{Op: "save", Key: s.key, Err: err}
		s.logger.Error("failed to persist history", "key", s.key, "err", perr)
		s.metrics.PersistenceFailure("save")
	}
}

func (s *Store) notify() {
	s.subMu.Lock()
	subs := make([]subscription, len(s.subs))
	copy(subs, s.subs)
	s.subMu.Unlock()

	if len(subs) == 0 {
		return
	}
	state := s.State()
	for _, sub := range subs {
		sub.fn(state.Clone())
	}
}
