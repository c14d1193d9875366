// Package httpsse implements the Transport interface over HTTP with
// Server-Sent Events: a client opens a long-lived GET {prefix}/sse stream
// to receive an endpoint announcement and all outbound messages, then
// POSTs JSON-RPC requests to {prefix}/message?clientId=... Each POST
// returns 202 immediately; its eventual response is delivered back over
// the client's SSE stream. Routing follows the teacher's dashboard
// server's stdlib net/http + http.ServeMux style.
package httpsse

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/mehmetkoksal-w/mcpserver/internal/transport"
)

type client struct {
	id     string
	flush  func()
	w      http.ResponseWriter
	done   chan struct{}
	closed bool
}

// Transport serves the SSE stream and message endpoints and implements
// transport.Transport.
type Transport struct {
	pathPrefix string
	log        zerolog.Logger

	mu      sync.Mutex
	clients map[string]*client

	inbound chan transport.Inbound
}

// New builds an HTTP+SSE transport mounting its endpoints under prefix
// (e.g. "/mcp" yields "/mcp/sse" and "/mcp/message").
func New(prefix string, log zerolog.Logger) *Transport {
	return &Transport{
		pathPrefix: prefix,
		log:        log,
		clients:    make(map[string]*client),
		inbound:    make(chan transport.Inbound, 64),
	}
}

// Handler returns the http.Handler to mount at the server's root (or
// behind any additional prefix the caller wants).
func (t *Transport) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(t.pathPrefix+"/sse", t.handleSSE)
	mux.HandleFunc(t.pathPrefix+"/message", t.handleMessage)
	return mux
}

func (t *Transport) handleSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	id, err := t.OpenSession(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	t.mu.Lock()
	c := t.clients[id]
	c.w = w
	c.flush = flusher.Flush
	t.mu.Unlock()

	endpoint := fmt.Sprintf("%s/message?clientId=%s", t.pathPrefix, id)
	fmt.Fprintf(w, "event: endpoint\ndata: %s\n\n", endpoint)
	flusher.Flush()

	select {
	case <-c.done:
	case <-r.Context().Done():
		t.CloseSession(id)
	}
}

func (t *Transport) handleMessage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	id := r.URL.Query().Get("clientId")
	t.mu.Lock()
	_, ok := t.clients[id]
	t.mu.Unlock()
	if id == "" || !ok {
		http.Error(w, "unknown clientId", http.StatusBadRequest)
		return
	}

	if ct := r.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "application/json") {
		http.Error(w, "unsupported content type", http.StatusUnsupportedMediaType)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, 16*1024*1024))
	if err != nil {
		http.Error(w, "read body", http.StatusBadRequest)
		return
	}
	if len(bytes.TrimSpace(body)) == 0 {
		http.Error(w, "empty body", http.StatusBadRequest)
		return
	}
	if !json.Valid(body) {
		// Still forward to the Dispatcher so its parse-error handling
		// produces a -32700 frame delivered over the client's SSE stream,
		// in addition to this request's own 400.
		t.enqueueInbound(id, body)
		http.Error(w, "malformed JSON", http.StatusBadRequest)
		return
	}

	w.WriteHeader(http.StatusAccepted)
	t.enqueueInbound(id, body)
}

func (t *Transport) enqueueInbound(id string, body []byte) {
	select {
	case t.inbound <- transport.Inbound{SessionID: id, Raw: json.RawMessage(body)}:
	default:
		t.log.Warn().Str("session", id).Msg("inbound queue full, dropping message")
	}
}

// Receive blocks until the next inbound message from any client.
func (t *Transport) Receive(ctx context.Context) (transport.Inbound, error) {
	select {
	case in := <-t.inbound:
		return in, nil
	case <-ctx.Done():
		return transport.Inbound{}, ctx.Err()
	}
}

// Send writes msg as an SSE "message" event to sessionID's open stream.
func (t *Transport) Send(ctx context.Context, sessionID string, msg any) error {
	t.mu.Lock()
	c, ok := t.clients[sessionID]
	t.mu.Unlock()
	if !ok || c.closed {
		return fmt.Errorf("httpsse: no open stream for session %q", sessionID)
	}

	b, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("httpsse: marshal response: %w", err)
	}
	fmt.Fprintf(c.w, "event: message\ndata: %s\n\n", b)
	c.flush()
	return nil
}

// ListSessions returns the IDs of clients with an open SSE stream.
func (t *Transport) ListSessions() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]string, 0, len(t.clients))
	for id := range t.clients {
		out = append(out, id)
	}
	return out
}

// OpenSession is invoked by handleSSE when a new stream connects; it is
// also part of transport.Transport for symmetry, though callers normally
// never invoke it directly over HTTP.
func (t *Transport) OpenSession(ctx context.Context) (string, error) {
	id := newClientID()
	t.mu.Lock()
	t.clients[id] = &client{id: id, done: make(chan struct{})}
	t.mu.Unlock()
	return id, nil
}

// CloseSession tears down a client's SSE stream.
func (t *Transport) CloseSession(id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	c, ok := t.clients[id]
	if !ok {
		return nil
	}
	if !c.closed {
		c.closed = true
		close(c.done)
	}
	delete(t.clients, id)
	return nil
}

var clientIDCounter struct {
	sync.Mutex
	n int
}

func newClientID() string {
	clientIDCounter.Lock()
	defer clientIDCounter.Unlock()
	clientIDCounter.n++
	return fmt.Sprintf("c%d", clientIDCounter.n)
}
