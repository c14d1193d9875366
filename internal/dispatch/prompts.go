package dispatch

import (
	"encoding/json"

	"github.com/mehmetkoksal-w/mcpserver/internal/argmarshal"
	"github.com/mehmetkoksal-w/mcpserver/internal/mcptype"
	"github.com/mehmetkoksal-w/mcpserver/internal/respformat"
)

type listPromptsResult struct {
	Prompts    []mcptype.Prompt `json:"prompts"`
	NextCursor string           `json:"nextCursor,omitempty"`
}

func (d *Dispatcher) handlePromptsList(params json.RawMessage) (any, *rpcError) {
	var p listToolsParams
	if len(params) > 0 {
		json.Unmarshal(params, &p)
	}
	all := d.reg.Prompts()
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

	result := listPromptsResult{Prompts: all[start:end]}
	if end < len(all) {
		result.NextCursor = encodeCursor(end)
	}
	return result, nil
}

type getPromptParams struct {
	Name      string            `json:"name"`
	Arguments map[string]string `json:"arguments"`
}

type getPromptResult struct {
	Description string                  `json:"description,omitempty"`
	Messages    []mcptype.PromptMessage `json:"messages"`
}

func (d *Dispatcher) handlePromptsGet(params json.RawMessage) (any, *rpcError) {
	var p getPromptParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, invalidParams("invalid prompts/get params: " + err.Error())
	}

	prompt, ok := d.reg.Prompt(p.Name)
	if !ok {
		return nil, invalidParams("Prompt not found: " + p.Name)
	}

	args := make(map[string]any, len(p.Arguments))
	for k, v := range p.Arguments {
		args[k] = v
	}

	v, err := invokeHandler(prompt.Handler, args)
	if err != nil {
		if _, isInvalid := err.(*argmarshal.InvalidParamsError); isInvalid {
			return nil, invalidParams(err.Error())
		}
		return nil, internalError(err)
	}

	messages, err := respformat.PromptResult(v)
	if err != nil {
		return nil, &rpcError{Code: mcptype.CodeInternalError, Message: safeMessage(err)}
	}
	return getPromptResult{Description: prompt.Description, Messages: messages}, nil
}
