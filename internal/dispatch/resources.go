package dispatch

import (
	"encoding/json"

	"github.com/mehmetkoksal-w/mcpserver/internal/argmarshal"
	"github.com/mehmetkoksal-w/mcpserver/internal/mcptype"
	"github.com/mehmetkoksal-w/mcpserver/internal/respformat"
	"github.com/mehmetkoksal-w/mcpserver/internal/session"
)

type listResourcesResult struct {
	Resources  []mcptype.Resource `json:"resources"`
	NextCursor string             `json:"nextCursor,omitempty"`
}

func (d *Dispatcher) handleResourcesList(params json.RawMessage) (any, *rpcError) {
	var p listToolsParams
	if len(params) > 0 {
		json.Unmarshal(params, &p)
	}
	all := d.reg.Resources()
	start, err := decodeCursor(p.Cursor)
	if err != nil {
		return nil, invalidParams(err.Error())
	}

	pageSize := d.cfg.PaginationPageSize
	end := start + pageSize
	if end > len(all) {
		end = len(all)
	}
	if start > len(all) {
		start = len(all)
	}

	result := listResourcesResult{Resources: all[start:end]}
	if end < len(all) {
		result.NextCursor = encodeCursor(end)
	}
	return result, nil
}

type listResourceTemplatesResult struct {
	ResourceTemplates []mcptype.ResourceTemplate `json:"resourceTemplates"`
	NextCursor        string                     `json:"nextCursor,omitempty"`
}

func (d *Dispatcher) handleResourceTemplatesList(params json.RawMessage) (any, *rpcError) {
	var p listToolsParams
	if len(params) > 0 {
		json.Unmarshal(params, &p)
	}
	all := d.reg.Templates()
	start, err := decodeCursor(p.Cursor)
	if err != nil {
		return nil, invalidParams(err.Error())
	}

	pageSize := d.cfg.PaginationPageSize
	end := start + pageSize
	if end > len(all) {
		end = len(all)
	}
	if start > len(all) {
		start = len(all)
	}

	result := listResourceTemplatesResult{ResourceTemplates: all[start:end]}
	if end < len(all) {
		result.NextCursor = encodeCursor(end)
	}
	return result, nil
}

type readResourceParams struct {
	URI string `json:"uri"`
}

type readResourceResult struct {
	Contents []mcptype.ResourceContents `json:"contents"`
}

func (d *Dispatcher) handleResourcesRead(params json.RawMessage) (any, *rpcError) {
	var p readResourceParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, invalidParams("invalid resources/read params: " + err.Error())
	}

	if res, ok := d.reg.Resource(p.URI); ok {
		v, err := invokeHandler(res.Handler, map[string]any{"uri": p.URI})
		if err != nil {
			if _, isInvalid := err.(*argmarshal.InvalidParamsError); isInvalid {
				return nil, invalidParams(err.Error())
			}
			return nil, internalError(err)
		}
		contents, err := respformat.ResourceResult(p.URI, res.MimeType, v)
		if err != nil {
			return nil, &rpcError{Code: mcptype.CodeInternalError, Message: safeMessage(err)}
		}
		d.warnIfMimeForced(p.URI, res.MimeType, v)
		return readResourceResult{Contents: contents}, nil
	}

	tpl, vars, ok := d.reg.MatchTemplate(p.URI)
	if !ok {
		return nil, invalidParams("Resource not found: " + p.URI)
	}

	args := make(map[string]any, len(vars)+1)
	for k, v := range vars {
		args[k] = v
	}
	args["uri"] = p.URI

	v, err := invokeHandler(tpl.Handler, args)
	if err != nil {
		if _, isInvalid := err.(*argmarshal.InvalidParamsError); isInvalid {
			return nil, invalidParams(err.Error())
		}
		return nil, internalError(err)
	}
	contents, err := respformat.ResourceResult(p.URI, tpl.MimeType, v)
	if err != nil {
		return nil, &rpcError{Code: mcptype.CodeInternalError, Message: safeMessage(err)}
	}
	d.warnIfMimeForced(p.URI, tpl.MimeType, v)
	return readResourceResult{Contents: contents}, nil
}

// warnIfMimeForced logs when formatting v as a resource forced its MIME
// type to application/json away from a non-JSON registered MIME (spec.md
// §4.4 step 8). Only the "any other mapping" branch of ResourceResult can
// force the MIME this way, so this only applies when v is a plain map.
func (d *Dispatcher) warnIfMimeForced(uri, registeredMime string, v any) {
	if _, isMap := v.(map[string]any); !isMap {
		return
	}
	if respformat.MimeWasForced(registeredMime) {
		d.log.Warn().Str("uri", uri).Str("registeredMime", registeredMime).Msg("resource MIME forced to application/json")
	}
}

type subscribeParams struct {
	URI string `json:"uri"`
}

func (d *Dispatcher) handleSubscribe(sess *session.Session, params json.RawMessage) (any, *rpcError) {
	if d.cfg.Capabilities.Resources == nil || !d.cfg.Capabilities.Resources.Subscribe {
		return nil, methodNotFound("resources/subscribe")
	}
	var p subscribeParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, invalidParams("invalid resources/subscribe params: " + err.Error())
	}
	d.sessions.Subscribe(sess.ID, p.URI)
	return map[string]any{}, nil
}

func (d *Dispatcher) handleUnsubscribe(sess *session.Session, params json.RawMessage) (any, *rpcError) {
	var p subscribeParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, invalidParams("invalid resources/unsubscribe params: " + err.Error())
	}
	d.sessions.Unsubscribe(sess.ID, p.URI)
	return map[string]any{}, nil
}
