/*
Package domain contains the core data shapes of the rngsync client.

It defines the records exchanged with a randomness node and the persisted history
state. This package is kept pure and free of I/O; the components that consume these
shapes (gateway, session, history) validate them at their own boundary.

# Key Entities

  - ResultEntry: one observed randomness result, from any requester.
  - RequestSpec: one outbound generation request addressed to a target peer.
  - HistoryState: the ordered (most-recent-first) result list plus the UI theme.
  - Event: the decoded form of a push-channel envelope (NewRandomEvent or IgnoredEvent).
*/
package domain
