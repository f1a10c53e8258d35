/*
Package observability provides the Prometheus instruments shared by the history
store, the session channel and the request gateway.

A nil *Metrics is valid and records nothing, so components can be built without a
registry in tests and libraries.
*/
package observability
