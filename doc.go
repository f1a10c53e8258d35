/*
Package rngsync is a live-synchronization client for a randomness node.

It submits generation requests to a named peer, listens on the node's push channel
for every result any peer produces, and keeps a locally persisted, most-recent-first
history of all observed results.

# Concept

Three components meet in the Client:

  - History (pkg/history): the authoritative, write-through history with synchronous listeners.
  - Channel (pkg/session): the push-channel state machine that turns frames into typed events.
  - Gateway (pkg/gateway): validation plus a single transport call per request.

A submission never returns the generated value. The result shows up later on the
push channel, exactly like a result requested by anyone else.

# Usage

	client, err := rngsync.New(
		rngsync.WithNode("http://localhost:8080/rng:rng:template.os"),
		rngsync.WithIdentity(domain.Identity{NodeID: "our.os", ProcessID: "rng:rng:template.os"}),
		rngsync.WithStateStore(file.New("")),
	)
	if err != nil {
		log.Fatal(err)
	}
	defer client.Close()

	client.Subscribe(func(s domain.HistoryState) {
		fmt.Println(len(s.Entries), "results")
	})
	if err := client.Start(ctx); err != nil && !errors.Is(err, domain.ErrSnapshotUnavailable) {
		log.Fatal(err)
	}

	err = client.Submit(ctx, domain.RequestSpec{
		TargetPeer: "their.os",
		Range:      domain.Range{Min: 1, Max: 6},
	})

# Storage

Any ports.StateStore works: memory, file, redis and sqlite adapters ship in
pkg/adapters, and pkg/persistence/middleware adds encryption and redaction.
*/
package rngsync
