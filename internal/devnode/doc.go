/*
Package devnode is a loopback node for local development and end-to-end tests.

It serves the same surface a real node exposes to the client:

	GET  <base>/randoms   every result, oldest first
	POST <base>/randoms   {"target":..,"range":{"min":..,"max":..},"context":..}
	GET  <base>/          WebSocket push channel ({"kind":"NewRandom","data":..})
	GET  /health

A request addressed to the node itself is answered locally; any other target is
simulated as if that peer had generated the value. Every result is pushed to all
open channels.
*/
package devnode
