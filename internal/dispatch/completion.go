package dispatch

import (
	"encoding/json"

	"github.com/mehmetkoksal-w/mcpserver/internal/mcptype"
)

type completionRef struct {
	Type string `json:"type"`
	Name string `json:"name,omitempty"`
	URI  string `json:"uri,omitempty"`
}

type completionArgument struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type completeParams struct {
	Ref      completionRef      `json:"ref"`
	Argument completionArgument `json:"argument"`
}

type completeResultBody struct {
	Values  []string `json:"values"`
	Total   int      `json:"total,omitempty"`
	HasMore bool     `json:"hasMore,omitempty"`
}

type completeResult struct {
	Completion completeResultBody `json:"completion"`
}

func (d *Dispatcher) handleCompletionComplete(params json.RawMessage) (any, *rpcError) {
	var p completeParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, invalidParams("invalid completion/complete params: " + err.Error())
	}

	var completions map[string]mcptype.CompletionProvider

	switch p.Ref.Type {
	case "ref/prompt":
		prompt, ok := d.reg.Prompt(p.Ref.Name)
		if !ok {
			return nil, invalidParams("Prompt not found: " + p.Ref.Name)
		}
		completions = prompt.Completions
	case "ref/resource":
		tpl, _, ok := d.reg.MatchTemplate(p.Ref.URI)
		if !ok {
			return nil, invalidParams("Resource template not found: " + p.Ref.URI)
		}
		completions = tpl.Completions
	default:
		return nil, invalidParams("unknown ref type: " + p.Ref.Type)
	}

	provider, ok := completions[p.Argument.Name]
	if !ok {
		return completeResult{Completion: completeResultBody{Values: []string{}}}, nil
	}

	values, total, hasMore := provider.Complete(p.Argument.Value, 0, d.cfg.PaginationPageSize)
	return completeResult{Completion: completeResultBody{Values: values, Total: total, HasMore: hasMore}}, nil
}
