// Package stdio implements the Transport interface over newline-delimited
// JSON on stdin/stdout: one OS process is one session, matching how a
// client typically launches an MCP server as a child process.
package stdio

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/rs/zerolog"

	"github.com/mehmetkoksal-w/mcpserver/internal/transport"
)

const sessionID = "stdio"

// Transport reads newline-delimited JSON-RPC requests from r and writes
// newline-delimited JSON-RPC responses to w.
type Transport struct {
	scanner *bufio.Scanner
	w       io.Writer
	writeMu sync.Mutex
	log     zerolog.Logger

	opened bool
	openMu sync.Mutex
}

// New builds a stdio transport over the given reader/writer.
func New(r io.Reader, w io.Writer, log zerolog.Logger) *Transport {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	return &Transport{scanner: scanner, w: w, log: log}
}

// Receive blocks until the next newline-delimited JSON line is read.
// Blank lines are skipped; the line's bytes are handed to the Dispatcher
// unparsed, since batch-vs-single detection and JSON-RPC validation are
// its responsibility.
func (t *Transport) Receive(ctx context.Context) (transport.Inbound, error) {
	for {
		if !t.scanner.Scan() {
			if err := t.scanner.Err(); err != nil {
				return transport.Inbound{}, err
			}
			return transport.Inbound{}, io.EOF
		}
		line := t.scanner.Bytes()
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		raw := make(json.RawMessage, len(line))
		copy(raw, line)
		return transport.Inbound{SessionID: sessionID, Raw: raw}, nil
	}
}

// Send writes msg as a single JSON line. Writes are serialized since
// stdout is shared across concurrently-dispatched requests.
func (t *Transport) Send(ctx context.Context, targetSessionID string, msg any) error {
	b, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("stdio: marshal response: %w", err)
	}
	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	if _, err := t.w.Write(append(b, '\n')); err != nil {
		return fmt.Errorf("stdio: write response: %w", err)
	}
	return nil
}

// ListSessions always reports the single implicit stdio session once
// opened.
func (t *Transport) ListSessions() []string {
	t.openMu.Lock()
	defer t.openMu.Unlock()
	if !t.opened {
		return nil
	}
	return []string{sessionID}
}

// OpenSession returns the process's single implicit session ID.
func (t *Transport) OpenSession(ctx context.Context) (string, error) {
	t.openMu.Lock()
	defer t.openMu.Unlock()
	t.opened = true
	return sessionID, nil
}

// CloseSession only marks the one stdio session as no longer open; it
// closes neither stdin nor stdout.
func (t *Transport) CloseSession(id string) error {
	t.openMu.Lock()
	defer t.openMu.Unlock()
	t.opened = false
	return nil
}
