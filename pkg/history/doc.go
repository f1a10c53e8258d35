/*
Package history keeps the ordered, persisted record of every observed result.

A Store is the single authoritative in-memory view for the process. Mutations run
to completion (insert, persist, notify) before the next one starts, and listeners
see every change synchronously in registration order.

	store := history.New(file.New(""), history.WithSnapshotFetcher(node))
	if err := store.Initialize(ctx); err != nil {
		log.Printf("continuing with local history: %v", err)
	}
	unsubscribe := store.Subscribe(func(s domain.HistoryState) { render(s) })
	defer unsubscribe()

Persistence is write-through and best effort: a failed save is logged and counted,
and the in-memory state stays authoritative.
*/
package history
