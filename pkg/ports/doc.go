/*
Package ports defines the driven ports (interfaces) of the rngsync client.

These interfaces decouple the History Store, Session Channel and Request Gateway
from the node's transports and from durable storage.

# Key Interfaces

  - StateStore: durable local slot holding the persisted HistoryState.
  - SnapshotFetcher: one-time read of the node's result history.
  - RequestTransport: request/response submission of a RequestSpec.
  - PushDialer / PushConn: the push channel delivering {kind, data} envelopes.
*/
package ports
