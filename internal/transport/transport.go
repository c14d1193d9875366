// Package transport defines the narrow interface the dispatcher uses to
// exchange JSON-RPC messages with clients, independent of whether the
// wire is a stdio pipe or HTTP+SSE.
package transport

import (
	"context"
	"encoding/json"
)

// Inbound is one raw JSON-RPC payload arriving from a session, paired
// with the session ID it arrived on. The payload may be a single
// request/notification object or a batch array; parsing, batch
// detection, and JSON-RPC validation are the Dispatcher's job (spec.md
// §4.5), not the transport's.
type Inbound struct {
	SessionID string
	Raw       json.RawMessage
}

// Transport abstracts how a server accepts connections, receives
// inbound JSON-RPC messages, and delivers outbound responses and
// notifications — spec.md §4.6's minimal surface.
type Transport interface {
	// Receive blocks until an inbound message is available or ctx is
	// canceled.
	Receive(ctx context.Context) (Inbound, error)

	// Send delivers a response or notification (any JSON-marshalable value,
	// such as an already-encoded json.RawMessage response or a
	// mcptype.Notification) to the named session.
	Send(ctx context.Context, sessionID string, msg any) error

	// ListSessions returns the IDs of currently connected sessions.
	ListSessions() []string

	// OpenSession registers a new session with the transport and returns
	// its ID.
	OpenSession(ctx context.Context) (string, error)

	// CloseSession tears down a session's connection.
	CloseSession(sessionID string) error
}
