package domain

// Theme is the presentation theme flag persisted alongside the history.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// Valid reports whether t is one of the two legal themes.
func (t Theme) Valid() bool {
	return t == ThemeLight || t == ThemeDark
}

// Toggle returns the other theme. Anything that is not dark toggles to dark.
func (t Theme) Toggle() Theme {
	if t == ThemeDark {
		return ThemeLight
	}
	return ThemeDark
}

// HistoryState is the persisted, process-wide view of observed results.
type HistoryState struct {
	// Entries is ordered most-recent-first. It is never reordered or deduplicated.
	Entries []ResultEntry `json:"entries"`

	Theme Theme `json:"theme"`
}

// DefaultHistoryState is the state used when nothing usable is persisted.
func DefaultHistoryState() HistoryState {
	return HistoryState{
		Entries: []ResultEntry{},
		Theme:   ThemeLight,
	}
}

// Clone returns a copy whose entry slice does not alias s.
func (s HistoryState) Clone() HistoryState {
	entries := make([]ResultEntry, len(s.Entries))
	copy(entries, s.Entries)
	return HistoryState{Entries: entries, Theme: s.Theme}
}

// Prepend returns a copy of s with entry inserted at position 0.
func (s HistoryState) Prepend(entry ResultEntry) HistoryState {
	entries := make([]ResultEntry, 0, len(s.Entries)+1)
	entries = append(entries, entry)
	entries = append(entries, s.Entries...)
	return HistoryState{Entries: entries, Theme: s.Theme}
}

// NewestFirst reverses an oldest-first sequence (the snapshot wire order)
// into a fresh most-recent-first slice.
func NewestFirst(oldestFirst []ResultEntry) []ResultEntry {
	out := make([]ResultEntry, len(oldestFirst))
	for i, e := range oldestFirst {
		out[len(oldestFirst)-1-i] = e
	}
	return out
}
