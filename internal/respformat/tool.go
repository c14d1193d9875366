// Package respformat coerces arbitrary handler return values into the MCP
// content envelopes, following the three decision chains in spec.md §4.4.
package respformat

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/mehmetkoksal-w/mcpserver/internal/mcptype"
)

// ToolResult coerces a tool handler's return value into an ordered Content
// sequence, per spec.md §4.4's strict first-match-wins decision order.
func ToolResult(v any) []mcptype.Content {
	switch val := v.(type) {
	case []mcptype.Content:
		return val
	case mcptype.Content:
		return []mcptype.Content{val}
	case nil:
		return []mcptype.Content{mcptype.TextContent("(null)")}
	case bool:
		return []mcptype.Content{mcptype.TextContent(strconv.FormatBool(val))}
	case string:
		return []mcptype.Content{mcptype.TextContent(val)}
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return []mcptype.Content{mcptype.TextContent(fmt.Sprintf("%v", val))}
	default:
		return []mcptype.Content{mcptype.TextContent(prettyJSON(v))}
	}
}

// prettyJSON renders v as indented, UTF-8-preserving JSON, substituting any
// invalid UTF-8 byte sequences with U+FFFD before encoding (encoding/json
// itself only errors on invalid UTF-8; it never substitutes).
func prettyJSON(v any) string {
	sanitized := sanitizeUTF8(v)

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(sanitized); err != nil {
		return fmt.Sprintf("%v", v)
	}
	return strings.TrimRight(buf.String(), "\n")
}

// sanitizeUTF8 walks a decoded-JSON-shaped value replacing any invalid
// UTF-8 strings it finds with a validated copy.
func sanitizeUTF8(v any) any {
	switch val := v.(type) {
	case string:
		if utf8.ValidString(val) {
			return val
		}
		return strings.ToValidUTF8(val, "�")
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, vv := range val {
			out[k] = sanitizeUTF8(vv)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, vv := range val {
			out[i] = sanitizeUTF8(vv)
		}
		return out
	default:
		return v
	}
}

// ErrorResult builds the one-TextContent error envelope used when a tool
// handler returns an error: not a JSON-RPC error, a successful result
// flagged isError:true (spec.md §4.5/§7).
func ErrorResult(err error) mcptype.ToolCallResult {
	return mcptype.ToolCallResult{
		Content: []mcptype.Content{mcptype.TextContent(err.Error())},
		IsError: true,
	}
}

// SuccessResult wraps a tool's raw return value as a successful result.
func SuccessResult(v any) mcptype.ToolCallResult {
	return mcptype.ToolCallResult{Content: ToolResult(v), IsError: false}
}
