package session

import (
	"regexp"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/mehmetkoksal-w/mcpserver/internal/mcptype"
)

func TestOpenAssignsUniqueIDs(t *testing.T) {
	st := NewStore(time.Hour, time.Minute, zerolog.Nop())
	a := st.Open()
	b := st.Open()
	if a.ID == "" || a.ID == b.ID {
		t.Errorf("expected distinct non-empty session IDs, got %q %q", a.ID, b.ID)
	}
}

var hexSessionID = regexp.MustCompile(`^[0-9a-f]{32}$`)

func TestOpenAssignsHexEncodedIDs(t *testing.T) {
	st := NewStore(time.Hour, time.Minute, zerolog.Nop())
	s := st.Open()
	if !hexSessionID.MatchString(s.ID) {
		t.Errorf("ID = %q, want a 32-character hex string with no dashes", s.ID)
	}
}

func TestHandshakeGate(t *testing.T) {
	st := NewStore(time.Hour, time.Minute, zerolog.Nop())
	s := st.Open()
	if s.Initialized() {
		t.Fatal("new session should not be initialized")
	}
	s.MarkInitialize(mcptype.ClientInfo{Name: "test-client"})
	if s.Initialized() {
		t.Fatal("MarkInitialize alone should not complete the handshake")
	}
	s.MarkInitialized()
	if !s.Initialized() {
		t.Fatal("expected handshake complete after MarkInitialized")
	}
}

func TestSubscriptionReverseIndex(t *testing.T) {
	st := NewStore(time.Hour, time.Minute, zerolog.Nop())
	a := st.Open()
	b := st.Open()

	st.Subscribe(a.ID, "config://app")
	st.Subscribe(b.ID, "config://app")

	subs := st.SubscribersOf("config://app")
	if len(subs) != 2 {
		t.Fatalf("got %d subscribers, want 2", len(subs))
	}

	st.Unsubscribe(a.ID, "config://app")
	subs = st.SubscribersOf("config://app")
	if len(subs) != 1 || subs[0] != b.ID {
		t.Errorf("got %v after unsubscribe, want only %q", subs, b.ID)
	}
}

func TestCloseRemovesSubscriptions(t *testing.T) {
	st := NewStore(time.Hour, time.Minute, zerolog.Nop())
	a := st.Open()
	st.Subscribe(a.ID, "config://app")
	st.Close(a.ID)

	if subs := st.SubscribersOf("config://app"); len(subs) != 0 {
		t.Errorf("expected no subscribers after Close, got %v", subs)
	}
	if _, ok := st.Get(a.ID); ok {
		t.Error("expected session to be gone after Close")
	}
}

func TestDequeueAtomicallyClearsQueue(t *testing.T) {
	s := newSession("test")
	s.Enqueue(mcptype.Response{JSONRPC: "2.0"})
	s.Enqueue(mcptype.Response{JSONRPC: "2.0"})

	first := s.Dequeue()
	if len(first) != 2 {
		t.Fatalf("got %d messages, want 2", len(first))
	}
	second := s.Dequeue()
	if len(second) != 0 {
		t.Errorf("got %d messages on second dequeue, want 0", len(second))
	}
}

func TestGCSweepsExpiredSessions(t *testing.T) {
	st := NewStore(10*time.Millisecond, 5*time.Millisecond, zerolog.Nop())
	s := st.Open()
	st.StartGC()
	defer st.Stop()

	deadline := time.Now().Add(500 * time.Millisecond)
	for time.Now().Before(deadline) {
		if _, ok := st.Get(s.ID); !ok {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("expected session to be garbage collected")
}
