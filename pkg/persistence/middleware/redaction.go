package middleware

import (
	"context"
	"regexp"

	"github.com/aretw0/rngsync/pkg/domain"
	"github.com/aretw0/rngsync/pkg/ports"
)

// RedactedContext replaces a context tag matched by a redaction pattern.
const RedactedContext = "***"

type redactionMiddleware struct {
	next     ports.StateStore
	patterns []*regexp.Regexp
}

// NewRedactionMiddleware masks entry context tags matching any pattern before they reach storage.
// The in-memory history keeps the original tags; only the persisted copy is masked.
func NewRedactionMiddleware(patternStrings []string) (Middleware, error) {
	patterns := make([]*regexp.Regexp, 0, len(patternStrings))
	for _, p := range patternStrings {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, err
		}
		patterns = append(patterns, re)
	}
	return func(next ports.StateStore) ports.StateStore {
		return &redactionMiddleware{next: next, patterns: patterns}
	}, nil
}

func (m *redactionMiddleware) Save(ctx context.Context, key string, state domain.HistoryState) error {
	cloned := state.Clone()
	for i := range cloned.Entries {
		if m.matches(cloned.Entries[i].Context) {
			cloned.Entries[i].Context = RedactedContext
		}
	}
	return m.next.Save(ctx, key, cloned)
}

func (m *redactionMiddleware) matches(s string) bool {
	if s == "" {
		return false
	}
	for _, p := range m.patterns {
		if p.MatchString(s) {
			return true
		}
	}
	return false
}

func (m *redactionMiddleware) Load(ctx context.Context, key string) (domain.HistoryState, error) {
	return m.next.Load(ctx, key)
}

func (m *redactionMiddleware) Delete(ctx context.Context, key string) error {
	return m.next.Delete(ctx, key)
}

func (m *redactionMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}
