package domain

const (
	// DefaultStateKey is the fixed application identifier under which the
	// HistoryState is persisted.
	DefaultStateKey = "kinode_rng"

	// KindNewRandom is the only envelope kind understood by this client.
	KindNewRandom = "NewRandom"
)
