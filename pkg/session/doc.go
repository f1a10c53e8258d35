/*
Package session manages the push channel: one long-lived, server-initiated message
stream per process that turns raw frames into typed events.

A Channel moves through three states:

	Disconnected --Open--> Connecting --dial ok--> Connected
	     ^                     |                       |
	     +------ dial error ---+---- close / error ----+

Every NewRandom event is handed to the Recorder exactly once, in transport order.
Malformed frames are reported to the error handler and dropped; the connection
stays up. There is no automatic reconnect: callers decide when to Open again.
*/
package session
