/*
Package session implements palette session management and persistence orchestration.

Transport adapters (HTTP, MCP) serve many clients over one action tree. Each client owns
a navigation state (scope stack, query, highlighted index) keyed by a session id. The
Manager serialises access per session, optionally across replicas through a
DistributedLocker, and round-trips that state through a ports.StateStore around every
request.
*/
package session
