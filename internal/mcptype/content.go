package mcptype

import "encoding/json"

// Content is the discriminated union returned by tool calls and carried
// inside prompt messages and embedded resources. Exactly one of the typed
// fields is populated depending on Type.
type Content struct {
	Type     string            `json:"type"`
	Text     string            `json:"text,omitempty"`
	Data     string            `json:"data,omitempty"`     // base64 for image/audio
	MimeType string            `json:"mimeType,omitempty"`
	Resource *EmbeddedResource `json:"resource,omitempty"`
}

// TextContent builds a Content of type "text".
func TextContent(text string) Content {
	return Content{Type: "text", Text: text}
}

// ImageContent builds a Content of type "image".
func ImageContent(base64Data, mimeType string) Content {
	return Content{Type: "image", Data: base64Data, MimeType: mimeType}
}

// AudioContent builds a Content of type "audio".
func AudioContent(base64Data, mimeType string) Content {
	return Content{Type: "audio", Data: base64Data, MimeType: mimeType}
}

// EmbeddedResource wraps a ResourceContents inside a Content of type
// "resource" — the "EmbeddedResource(resource)" half of this module's
// Session/ResourceContents taxonomy decision (spec.md §9 Open Questions).
type EmbeddedResource struct {
	Resource ResourceContents `json:"resource"`
}

// ResourceContents is the discriminated union returned by resource reads:
// either TextResourceContents or BlobResourceContents.
type ResourceContents struct {
	URI      string `json:"uri"`
	MimeType string `json:"mimeType,omitempty"`
	Text     string `json:"text,omitempty"`
	Blob     string `json:"blob,omitempty"`
}

// TextResourceContents builds a text-flavored ResourceContents.
func TextResourceContents(uri, mimeType, text string) ResourceContents {
	return ResourceContents{URI: uri, MimeType: mimeType, Text: text}
}

// BlobResourceContents builds a blob-flavored (base64) ResourceContents.
func BlobResourceContents(uri, mimeType, base64Blob string) ResourceContents {
	return ResourceContents{URI: uri, MimeType: mimeType, Blob: base64Blob}
}

// PromptMessage is one message in a rendered prompt.
type PromptMessage struct {
	Role    string  `json:"role"` // "user" | "assistant"
	Content Content `json:"content"`
}

// ToolCallResult is the result envelope for tools/call: a content sequence
// plus the isError flag that distinguishes a protocol-level failure from a
// successful call whose tool reported a handler-level failure (spec.md §7).
type ToolCallResult struct {
	Content []Content `json:"content"`
	IsError bool      `json:"isError"`
}

// ReadResourceResult is the result envelope for resources/read.
type ReadResourceResult struct {
	Contents []ResourceContents `json:"contents"`
}

// GetPromptResult is the result envelope for prompts/get.
type GetPromptResult struct {
	Description string          `json:"description,omitempty"`
	Messages    []PromptMessage `json:"messages"`
}

// RawJSON is a convenience for building json.RawMessage params in tests and
// in the transport layer's framing code.
func RawJSON(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		return json.RawMessage(`null`)
	}
	return b
}
