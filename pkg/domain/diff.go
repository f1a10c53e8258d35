package domain

// HistoryDiff represents the changes between two history states.
type HistoryDiff struct {
	// Added holds the entries prepended since the old state, most recent first.
	Added []ResultEntry

	// Replaced is set when the old entries are no longer a suffix of the new ones,
	// i.e. the list was swapped wholesale by a snapshot reconciliation.
	Replaced bool

	// Theme is set when the theme changed.
	Theme *Theme
}

// Empty reports whether the diff carries no change.
func (d HistoryDiff) Empty() bool {
	return len(d.Added) == 0 && !d.Replaced && d.Theme == nil
}

// Diff calculates the difference between oldState and newState.
// Entries only ever grow at the front, so anything else is reported as Replaced.
func Diff(oldState, newState HistoryState) HistoryDiff {
	var diff HistoryDiff

	if oldState.Theme != newState.Theme {
		theme := newState.Theme
		diff.Theme = &theme
	}

	grown := len(newState.Entries) - len(oldState.Entries)
	if grown < 0 || !sameEntries(newState.Entries[grown:], oldState.Entries) {
		diff.Replaced = true
		return diff
	}
	if grown > 0 {
		diff.Added = make([]ResultEntry, grown)
		copy(diff.Added, newState.Entries[:grown])
	}
	return diff
}

func sameEntries(a, b []ResultEntry) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

// Equal reports whether two entries carry the same values.
// Equal entries are still distinct history rows.
func (e ResultEntry) Equal(o ResultEntry) bool {
	return e.SourcePeer == o.SourcePeer &&
		e.OriginPeer == o.OriginPeer &&
		e.Range == o.Range &&
		e.Value == o.Value &&
		e.Context == o.Context &&
		e.ObservedAt.Equal(o.ObservedAt)
}
