// Package session implements the per-connection session lifecycle:
// the initialize/initialized handshake gate, resource subscriptions with
// a global reverse index, a TTL-based garbage collector, and each
// session's outbound message queue.
package session

import (
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mehmetkoksal-w/mcpserver/internal/mcptype"
)

// Session tracks one client connection's handshake state, resource
// subscriptions, and pending outbound messages.
type Session struct {
	ID string

	mu                sync.Mutex
	handshakeStarted  bool
	initialized       bool
	clientInfo        mcptype.ClientInfo
	subscriptions     map[string]struct{}
	lastActivity      time.Time
	queue             []any
	requestedLogLevel string
}

func newSession(id string) *Session {
	return &Session{
		ID:            id,
		subscriptions: make(map[string]struct{}),
		lastActivity:  time.Now(),
	}
}

// MarkInitialize records the client's handshake info; the session is not
// yet usable until MarkInitialized is also called, reflecting the
// initialize -> notifications/initialized two-step gate (spec.md §3).
func (s *Session) MarkInitialize(info mcptype.ClientInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clientInfo = info
	s.handshakeStarted = true
}

// MarkInitialized completes the handshake gate.
func (s *Session) MarkInitialized() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.initialized = true
}

// Initialized reports whether the handshake has completed.
func (s *Session) Initialized() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initialized
}

// HandshakeStarted reports whether initialize has been received, whether
// or not notifications/initialized has completed the handshake yet.
func (s *Session) HandshakeStarted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.handshakeStarted
}

// SetLogLevel records the level most recently requested via
// logging/setLevel.
func (s *Session) SetLogLevel(level string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requestedLogLevel = level
}

// LogLevel returns the level most recently requested via logging/setLevel,
// or "" if the client never sent one.
func (s *Session) LogLevel() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requestedLogLevel
}

// Touch refreshes the session's last-activity timestamp, resetting its
// TTL-based GC clock.
func (s *Session) Touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActivity = time.Now()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActivity
}

// Subscribe adds uri to this session's subscription set.
func (s *Session) Subscribe(uri string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscriptions[uri] = struct{}{}
}

// Unsubscribe removes uri from this session's subscription set.
func (s *Session) Unsubscribe(uri string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subscriptions, uri)
}

// Subscriptions returns a snapshot of this session's subscribed URIs.
func (s *Session) Subscriptions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.subscriptions))
	for uri := range s.subscriptions {
		out = append(out, uri)
	}
	return out
}

// Enqueue appends msg (a mcptype.Response or mcptype.Notification) to
// the session's outbound FIFO queue.
func (s *Session) Enqueue(msg any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue = append(s.queue, msg)
}

// Dequeue atomically returns and clears the entire pending queue — the
// transport layer's single point of draining, satisfying the invariant
// that no message is ever delivered twice (spec.md §5 invariant I3).
func (s *Session) Dequeue() []any {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.queue
	s.queue = nil
	return out
}

// Store tracks all live sessions, the global uri -> subscribed-session-IDs
// reverse index, and runs the TTL garbage collector.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	reverse  map[string]map[string]struct{} // uri -> set of session IDs

	ttl      time.Duration
	gcPeriod time.Duration
	log      zerolog.Logger

	stop chan struct{}
	once sync.Once
}

// NewStore creates a Store with the given TTL and GC sweep period.
func NewStore(ttl, gcPeriod time.Duration, log zerolog.Logger) *Store {
	return &Store{
		sessions: make(map[string]*Session),
		reverse:  make(map[string]map[string]struct{}),
		ttl:      ttl,
		gcPeriod: gcPeriod,
		log:      log,
		stop:     make(chan struct{}),
	}
}

// Open creates a new session with a fresh hex-encoded UUID-derived ID: the
// dashes in uuid.NewString()'s canonical form are stripped, matching the
// session-ID format spec.md advertises.
func (st *Store) Open() *Session {
	return st.OpenWithID(strings.ReplaceAll(uuid.NewString(), "-", ""))
}

// OpenWithID creates a session under a transport-assigned ID (stdio's
// fixed single session, or an HTTP+SSE client ID minted at stream-connect
// time). If a session already exists under id, it is returned unchanged.
func (st *Store) OpenWithID(id string) *Session {
	st.mu.Lock()
	defer st.mu.Unlock()
	if s, ok := st.sessions[id]; ok {
		return s
	}
	s := newSession(id)
	st.sessions[id] = s
	return s
}

// Get returns the session with the given ID, if still live.
func (st *Store) Get(id string) (*Session, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	s, ok := st.sessions[id]
	return s, ok
}

// Close removes a session and unsubscribes it from every resource it had
// subscribed to.
func (st *Store) Close(id string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.sessions[id]
	if !ok {
		return
	}
	for _, uri := range s.Subscriptions() {
		st.unsubscribeLocked(id, uri)
	}
	delete(st.sessions, id)
}

// Subscribe records that session id has subscribed to uri, updating both
// the session's own set and the global reverse index.
func (st *Store) Subscribe(id, uri string) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.sessions[id]
	if !ok {
		return false
	}
	s.Subscribe(uri)
	if st.reverse[uri] == nil {
		st.reverse[uri] = make(map[string]struct{})
	}
	st.reverse[uri][id] = struct{}{}
	return true
}

// Unsubscribe removes session id's subscription to uri.
func (st *Store) Unsubscribe(id, uri string) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.sessions[id]
	if !ok {
		return false
	}
	s.Unsubscribe(uri)
	st.unsubscribeLocked(id, uri)
	return true
}

func (st *Store) unsubscribeLocked(id, uri string) {
	set, ok := st.reverse[uri]
	if !ok {
		return
	}
	delete(set, id)
	if len(set) == 0 {
		delete(st.reverse, uri)
	}
}

// SubscribersOf returns the IDs of every session currently subscribed to
// uri, used to route resources/updated notifications.
func (st *Store) SubscribersOf(uri string) []string {
	st.mu.RLock()
	defer st.mu.RUnlock()
	set := st.reverse[uri]
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	return out
}

// All returns every live session ID, used to route listChanged broadcasts
// that aren't scoped to a specific subscription.
func (st *Store) All() []string {
	st.mu.RLock()
	defer st.mu.RUnlock()
	out := make([]string, 0, len(st.sessions))
	for id := range st.sessions {
		out = append(out, id)
	}
	return out
}

// StartGC launches the TTL garbage-collection loop in a background
// goroutine; call Stop to end it.
func (st *Store) StartGC() {
	go func() {
		ticker := time.NewTicker(st.gcPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				st.sweep()
			case <-st.stop:
				return
			}
		}
	}()
}

func (st *Store) sweep() {
	st.mu.Lock()
	type expiredSession struct {
		id        string
		idleSince time.Time
	}
	var expired []expiredSession
	now := time.Now()
	for id, s := range st.sessions {
		if idle := s.idleSince(); now.Sub(idle) > st.ttl {
			expired = append(expired, expiredSession{id: id, idleSince: idle})
		}
	}
	st.mu.Unlock()

	for _, e := range expired {
		st.log.Info().Str("session", e.id).Str("idle", humanize.Time(e.idleSince)).Msg("session expired, garbage collected")
		st.Close(e.id)
	}
}

// Stop ends the GC loop. Safe to call multiple times.
func (st *Store) Stop() {
	st.once.Do(func() { close(st.stop) })
}
