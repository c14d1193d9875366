package stdio

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/mehmetkoksal-w/mcpserver/internal/logging"
)

func TestReceiveReturnsRawLine(t *testing.T) {
	in := strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"ping"}` + "\n")
	var out bytes.Buffer
	tr := New(in, &out, logging.Nop())

	inbound, err := tr.Receive(context.Background())
	if err != nil {
		t.Fatalf("Receive: %v", err)
	}
	if !strings.Contains(string(inbound.Raw), `"method":"ping"`) {
		t.Errorf("Raw = %s", inbound.Raw)
	}
	if inbound.SessionID != sessionID {
		t.Errorf("SessionID = %q", inbound.SessionID)
	}
}

func TestReceiveSkipsBlankLines(t *testing.T) {
	in := strings.NewReader("\n\n" + `{"jsonrpc":"2.0","id":1,"method":"ping"}` + "\n")
	var out bytes.Buffer
	tr := New(in, &out, logging.Nop())

	inbound, err := tr.Receive(context.Background())
	if err != nil {
		t.Fatalf("Receive: %v", err)
	}
	if !strings.Contains(string(inbound.Raw), "ping") {
		t.Errorf("Raw = %s", inbound.Raw)
	}
}

func TestReceivePassesThroughMalformedLine(t *testing.T) {
	in := strings.NewReader(`not json` + "\n")
	var out bytes.Buffer
	tr := New(in, &out, logging.Nop())

	inbound, err := tr.Receive(context.Background())
	if err != nil {
		t.Fatalf("Receive: %v", err)
	}
	if string(inbound.Raw) != "not json" {
		t.Errorf("Raw = %s, want pass-through of the malformed line", inbound.Raw)
	}
}
