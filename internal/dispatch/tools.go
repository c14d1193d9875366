package dispatch

import (
	"encoding/json"
	"fmt"

	"github.com/mehmetkoksal-w/mcpserver/internal/argmarshal"
	"github.com/mehmetkoksal-w/mcpserver/internal/handler"
	"github.com/mehmetkoksal-w/mcpserver/internal/mcptype"
	"github.com/mehmetkoksal-w/mcpserver/internal/respformat"
	"github.com/mehmetkoksal-w/mcpserver/internal/validate"
)

type listToolsParams struct {
	Cursor string `json:"cursor,omitempty"`
}

type listToolsResult struct {
	Tools      []mcptype.Tool `json:"tools"`
	NextCursor string         `json:"nextCursor,omitempty"`
}

func (d *Dispatcher) handleToolsList(params json.RawMessage) (any, *rpcError) {
	var p listToolsParams
	if len(params) > 0 {
		json.Unmarshal(params, &p)
	}
	all := d.reg.Tools()
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

	result := listToolsResult{Tools: all[start:end]}
	if end < len(all) {
		result.NextCursor = encodeCursor(end)
	}
	return result, nil
}

type callToolParams struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

func (d *Dispatcher) handleToolsCall(params json.RawMessage) (any, *rpcError) {
	var p callToolParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, invalidParams("invalid tools/call params: " + err.Error())
	}

	tool, ok := d.reg.Tool(p.Name)
	if !ok {
		return nil, invalidParams("Tool not found: " + p.Name)
	}

	schema, err := validate.CompileCached("tool:"+tool.Name, tool.InputSchema)
	if err != nil {
		return nil, &rpcError{Code: mcptype.CodeInternalError, Message: "invalid tool schema: " + tool.Name}
	}

	result, err := invokeValidatedTool(tool.Handler, p.Arguments, schema)
	if err != nil {
		if _, isInvalid := err.(*argmarshal.InvalidParamsError); isInvalid {
			return nil, invalidParams(err.Error())
		}
		return respformat.ErrorResult(err), nil
	}
	return respformat.SuccessResult(result), nil
}

// invokeValidatedTool marshals args against the handler's declared Params
// type when it has one, validates the *coerced* representation against
// schema, and only then invokes the handler — schema validation runs on
// post-coercion values, never on the raw wire-format arguments, so a
// numeric string like "3" still coerces to an integer and validates
// cleanly (spec.md §8 Scenario 3) instead of failing schema's strict
// `type:integer` check before the marshaller ever runs. Handlers whose
// Invoke closure takes the raw arguments map directly (no declared Params
// struct) have no coercion step, so validation runs against args as given.
func invokeValidatedTool(ref mcptype.HandlerRef, args map[string]any, schema *validate.Schema) (any, error) {
	paramsType, hasParams := handler.ParamsType(ref.ClassID, ref.Method)
	if !hasParams {
		if err := schema.Validate(args); err != nil {
			return nil, &argmarshal.InvalidParamsError{Msg: err.Error()}
		}
		return invokeHandler(ref, args)
	}

	pv, err := argmarshal.Marshal(paramsType, args)
	if err != nil {
		return nil, err
	}
	if err := schema.Validate(argmarshal.ToMap(pv)); err != nil {
		return nil, &argmarshal.InvalidParamsError{Msg: err.Error()}
	}
	return invokeHandler(ref, args)
}

// invokeHandler marshals args against the handler's declared Params type
// (when Invoke wraps a reflect-discovered method) or calls the closure
// directly when it already takes a raw map, per spec.md §4.3's
// "handler declares one Params-shaped argument" convention. A panic inside
// the handler is recovered and returned as an ordinary handler error.
func invokeHandler(ref mcptype.HandlerRef, args map[string]any) (result any, err error) {
	defer func() {
		if p := recover(); p != nil {
			result, err = nil, fmt.Errorf("handler panic: %v", p)
		}
	}()
	if ref.Invoke != nil {
		return ref.Invoke(args)
	}
	return nil, &argmarshal.InvalidParamsError{Param: "", Msg: "handler not resolved"}
}
