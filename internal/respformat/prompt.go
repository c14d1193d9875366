package respformat

import (
	"fmt"

	"github.com/mehmetkoksal-w/mcpserver/internal/mcptype"
)

// PromptResult coerces a prompt handler's return value into an ordered
// PromptMessage sequence, per spec.md §4.4's three-step decision chain.
func PromptResult(v any) ([]mcptype.PromptMessage, error) {
	switch val := v.(type) {
	case []mcptype.PromptMessage:
		return val, nil
	case mcptype.PromptMessage:
		return []mcptype.PromptMessage{val}, nil
	case map[string]any:
		return promptFromUserAssistantMap(val)
	case []any:
		return promptFromSlice(val)
	default:
		return nil, fmt.Errorf("internal error: cannot format %T as prompt messages", v)
	}
}

func promptFromUserAssistantMap(m map[string]any) ([]mcptype.PromptMessage, error) {
	_, hasUser := m["user"]
	_, hasAssistant := m["assistant"]
	if !hasUser && !hasAssistant {
		return nil, fmt.Errorf("internal error: prompt map must have 'user' and/or 'assistant'")
	}
	var out []mcptype.PromptMessage
	if u, ok := m["user"]; ok {
		text, ok := u.(string)
		if !ok {
			return nil, fmt.Errorf("internal error: prompt 'user' must be text")
		}
		out = append(out, mcptype.PromptMessage{Role: "user", Content: mcptype.TextContent(text)})
	}
	if a, ok := m["assistant"]; ok {
		text, ok := a.(string)
		if !ok {
			return nil, fmt.Errorf("internal error: prompt 'assistant' must be text")
		}
		out = append(out, mcptype.PromptMessage{Role: "assistant", Content: mcptype.TextContent(text)})
	}
	return out, nil
}

func promptFromSlice(items []any) ([]mcptype.PromptMessage, error) {
	out := make([]mcptype.PromptMessage, 0, len(items))
	for i, item := range items {
		msg, err := promptMessageFromAny(item)
		if err != nil {
			return nil, fmt.Errorf("internal error: prompt message at index %d: %w", i, err)
		}
		out = append(out, msg)
	}
	return out, nil
}

func promptMessageFromAny(item any) (mcptype.PromptMessage, error) {
	if msg, ok := item.(mcptype.PromptMessage); ok {
		return msg, nil
	}
	m, ok := item.(map[string]any)
	if !ok {
		return mcptype.PromptMessage{}, fmt.Errorf("expected a PromptMessage or {role, content} map, got %T", item)
	}

	role, _ := m["role"].(string)
	if role != "user" && role != "assistant" {
		return mcptype.PromptMessage{}, fmt.Errorf("unknown role %q", role)
	}

	content, ok := m["content"]
	if !ok {
		return mcptype.PromptMessage{}, fmt.Errorf("missing 'content'")
	}

	c, err := contentFromAny(content)
	if err != nil {
		return mcptype.PromptMessage{}, err
	}
	return mcptype.PromptMessage{Role: role, Content: c}, nil
}

func contentFromAny(v any) (mcptype.Content, error) {
	switch val := v.(type) {
	case mcptype.Content:
		return val, nil
	case string:
		return mcptype.TextContent(val), nil
	case map[string]any:
		t, _ := val["type"].(string)
		switch t {
		case "text":
			text, _ := val["text"].(string)
			return mcptype.TextContent(text), nil
		case "image":
			data, _ := val["data"].(string)
			mime, _ := val["mimeType"].(string)
			return mcptype.ImageContent(data, mime), nil
		case "audio":
			data, _ := val["data"].(string)
			mime, _ := val["mimeType"].(string)
			return mcptype.AudioContent(data, mime), nil
		case "resource":
			return mcptype.Content{}, fmt.Errorf("resource content requires an EmbeddedResource value, not a raw map")
		default:
			return mcptype.Content{}, fmt.Errorf("unknown content type %q", t)
		}
	default:
		return mcptype.Content{}, fmt.Errorf("unsupported content value %T", v)
	}
}
