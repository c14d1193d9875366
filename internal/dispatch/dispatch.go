// Package dispatch implements the JSON-RPC routing table (spec.md §4.5):
// request parsing and validation, the initialize/initialized lifecycle
// gate, batch handling, pagination, and every method handler that binds
// the Registry, argument marshaller, and response formatter together.
package dispatch

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/mehmetkoksal-w/mcpserver/internal/config"
	"github.com/mehmetkoksal-w/mcpserver/internal/mcptype"
	"github.com/mehmetkoksal-w/mcpserver/internal/registry"
	"github.com/mehmetkoksal-w/mcpserver/internal/session"
)

// Dispatcher routes JSON-RPC requests to catalog handlers and produces
// the matching response/notification frames.
type Dispatcher struct {
	reg      *registry.Registry
	sessions *session.Store
	cfg      *config.Config
	log      zerolog.Logger
}

// New builds a Dispatcher over the given Registry, Session Store, and
// config.
func New(reg *registry.Registry, sessions *session.Store, cfg *config.Config, log zerolog.Logger) *Dispatcher {
	d := &Dispatcher{reg: reg, sessions: sessions, cfg: cfg, log: log}
	reg.OnChange(d.broadcastListChanged)
	return d
}

func (d *Dispatcher) broadcastListChanged(kind registry.ChangeKind) {
	var method string
	switch kind {
	case registry.ToolsChanged:
		method = "notifications/tools/list_changed"
	case registry.ResourcesChanged:
		method = "notifications/resources/list_changed"
	case registry.PromptsChanged:
		method = "notifications/prompts/list_changed"
	default:
		return
	}
	notif := mcptype.NewNotification(method, nil)
	for _, id := range d.sessions.All() {
		if s, ok := d.sessions.Get(id); ok && s.Initialized() {
			s.Enqueue(notif)
		}
	}
}

// NotifyResourceUpdated enqueues notifications/resources/updated on every
// session subscribed to uri, per spec.md §4.5.
func (d *Dispatcher) NotifyResourceUpdated(uri string) {
	notif := mcptype.NewNotification("notifications/resources/updated", map[string]any{"uri": uri})
	for _, id := range d.sessions.SubscribersOf(uri) {
		if s, ok := d.sessions.Get(id); ok {
			s.Enqueue(notif)
		}
	}
}

// HandleMessage processes one raw inbound payload — a single JSON-RPC
// object or a batch array — and returns the raw bytes to send back, or
// nil if nothing should be sent (an all-notification message/batch).
func (d *Dispatcher) HandleMessage(ctx context.Context, sessionID string, raw []byte) []byte {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" {
		return encodeSingle(mcptype.NewErrorResponse(nil, mcptype.CodeInvalidRequest, "Invalid Request", nil))
	}

	if trimmed[0] == '[' {
		return d.handleBatch(ctx, sessionID, raw)
	}
	return d.handleSingleRaw(ctx, sessionID, raw)
}

func (d *Dispatcher) handleBatch(ctx context.Context, sessionID string, raw []byte) []byte {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return encodeSingle(mcptype.NewErrorResponse(nil, mcptype.CodeParseError, "Parse error", nil))
	}
	if len(items) == 0 {
		return encodeSingle(mcptype.NewErrorResponse(nil, mcptype.CodeInvalidRequest, "Invalid Request", nil))
	}

	var responses []mcptype.Response
	for _, item := range items {
		if resp, ok := d.handleSingle(ctx, sessionID, item); ok {
			responses = append(responses, resp)
		}
	}
	if len(responses) == 0 {
		return nil
	}
	b, _ := json.Marshal(responses)
	return b
}

func (d *Dispatcher) handleSingleRaw(ctx context.Context, sessionID string, raw []byte) []byte {
	resp, ok := d.handleSingle(ctx, sessionID, raw)
	if !ok {
		return nil
	}
	return encodeSingle(resp)
}

func encodeSingle(resp mcptype.Response) []byte {
	b, _ := json.Marshal(resp)
	return b
}

// handleSingle parses and dispatches one JSON-RPC object. ok is false
// when the message is a notification and produces no response frame.
func (d *Dispatcher) handleSingle(ctx context.Context, sessionID string, raw json.RawMessage) (mcptype.Response, bool) {
	var req mcptype.Request
	if err := json.Unmarshal(raw, &req); err != nil {
		return mcptype.NewErrorResponse(nil, mcptype.CodeParseError, "Parse error", nil), true
	}

	if req.JSONRPC != "2.0" || req.Method == "" {
		return mcptype.NewErrorResponse(idOrNil(req), mcptype.CodeInvalidRequest, "Invalid Request", nil), true
	}
	if req.HasInvalidID() {
		return mcptype.NewErrorResponse(nil, mcptype.CodeInvalidRequest, "Invalid Request", nil), true
	}

	isNotification := req.IsNotification()

	sess, ok := d.sessions.Get(sessionID)
	if !ok {
		if isNotification {
			return mcptype.Response{}, false
		}
		return mcptype.NewErrorResponse(req.ID, mcptype.CodeInvalidRequest, "Session not initialized", nil), true
	}

	// notifications/initialized completes the handshake gate; it is only
	// honored once initialize has actually been received (spec.md §3).
	if req.Method == "notifications/initialized" {
		if sess.HandshakeStarted() {
			sess.Touch()
			d.route(ctx, sess, req)
		}
		return mcptype.Response{}, false
	}

	if req.Method != "initialize" && req.Method != "ping" && !sess.Initialized() {
		if isNotification {
			return mcptype.Response{}, false
		}
		return mcptype.NewErrorResponse(req.ID, mcptype.CodeInvalidRequest, "Session not initialized", nil), true
	}

	sess.Touch()

	result, rpcErr := d.route(ctx, sess, req)
	if isNotification {
		return mcptype.Response{}, false
	}
	if rpcErr != nil {
		return mcptype.NewErrorResponse(req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data), true
	}
	return mcptype.NewResponse(req.ID, result), true
}

func idOrNil(req mcptype.Request) any {
	if req.IsNotification() {
		return nil
	}
	return req.ID
}

// rpcError is the Dispatcher's internal error carrier, converted to a
// mcptype.Error at the response boundary.
type rpcError struct {
	Code    int
	Message string
	Data    any
}

func (e *rpcError) Error() string { return e.Message }

func invalidParams(msg string) *rpcError {
	return &rpcError{Code: mcptype.CodeInvalidParams, Message: msg}
}

func methodNotFound(method string) *rpcError {
	return &rpcError{Code: mcptype.CodeMethodNotFound, Message: "Method not found: " + method}
}

func internalError(err error) *rpcError {
	return &rpcError{Code: mcptype.CodeInternalError, Message: safeMessage(err)}
}

// safeMessage renders an error's type and trimmed message, never a stack
// trace, per spec.md §4.5's "any other handler exception" rule.
func safeMessage(err error) string {
	return fmt.Sprintf("%T: %s", err, strings.TrimSpace(err.Error()))
}

func (d *Dispatcher) route(ctx context.Context, sess *session.Session, req mcptype.Request) (any, *rpcError) {
	switch req.Method {
	case "initialize":
		return d.handleInitialize(sess, req.Params)
	case "notifications/initialized":
		sess.MarkInitialized()
		return nil, nil
	case "ping":
		return map[string]any{}, nil
	case "tools/list":
		return d.handleToolsList(req.Params)
	case "tools/call":
		return d.handleToolsCall(req.Params)
	case "resources/list":
		return d.handleResourcesList(req.Params)
	case "resources/templates/list":
		return d.handleResourceTemplatesList(req.Params)
	case "resources/read":
		return d.handleResourcesRead(req.Params)
	case "resources/subscribe":
		return d.handleSubscribe(sess, req.Params)
	case "resources/unsubscribe":
		return d.handleUnsubscribe(sess, req.Params)
	case "prompts/list":
		return d.handlePromptsList(req.Params)
	case "prompts/get":
		return d.handlePromptsGet(req.Params)
	case "completion/complete":
		return d.handleCompletionComplete(req.Params)
	case "logging/setLevel":
		return d.handleLoggingSetLevel(sess, req.Params)
	default:
		return nil, methodNotFound(req.Method)
	}
}

func (d *Dispatcher) handleInitialize(sess *session.Session, params json.RawMessage) (any, *rpcError) {
	var p mcptype.InitializeParams
	if len(params) > 0 {
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, invalidParams("invalid initialize params: " + err.Error())
		}
	}
	sess.MarkInitialize(p.ClientInfo)

	return mcptype.InitializeResult{
		ServerInfo:      mcptype.ServerInfo{Name: d.cfg.ServerName, Version: d.cfg.ServerVersion},
		ProtocolVersion: mcptype.SupportedProtocolVersion,
		Capabilities:    d.cfg.Capabilities,
	}, nil
}

type setLevelParams struct {
	Level string `json:"level"`
}

// handleLoggingSetLevel persists the client's requested level onto the
// session (spec.md's logging/setLevel routing table entry); it does not
// reconfigure the server's own diagnostic logger.
func (d *Dispatcher) handleLoggingSetLevel(sess *session.Session, params json.RawMessage) (any, *rpcError) {
	var p setLevelParams
	if len(params) > 0 {
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, invalidParams("invalid logging/setLevel params: " + err.Error())
		}
	}
	if p.Level == "" {
		return nil, invalidParams("logging/setLevel requires a level")
	}
	sess.SetLogLevel(p.Level)
	return map[string]any{}, nil
}

func encodeCursor(index int) string {
	return base64.StdEncoding.EncodeToString([]byte(fmt.Sprintf("%d", index)))
}

func decodeCursor(cursor string) (int, error) {
	if cursor == "" {
		return 0, nil
	}
	b, err := base64.StdEncoding.DecodeString(cursor)
	if err != nil {
		return 0, fmt.Errorf("invalid cursor")
	}
	var idx int
	if _, err := fmt.Sscanf(string(b), "%d", &idx); err != nil {
		return 0, fmt.Errorf("invalid cursor")
	}
	return idx, nil
}
