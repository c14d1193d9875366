package respformat

import (
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mehmetkoksal-w/mcpserver/internal/mcptype"
)

// ResourceResult coerces a resource handler's return value into an ordered
// ResourceContents sequence, per spec.md §4.4's nine-step decision chain.
// uri is the resource's canonical URI (used to stamp URI on synthesized
// contents); registeredMime is the MIME type declared at registration, if
// any (used as the default before falling back to content sniffing).
func ResourceResult(uri, registeredMime string, v any) ([]mcptype.ResourceContents, error) {
	switch val := v.(type) {
	case []mcptype.ResourceContents:
		return stampURI(uri, val), nil
	case mcptype.ResourceContents:
		return stampURI(uri, []mcptype.ResourceContents{val}), nil
	case []mcptype.EmbeddedResource:
		out := make([]mcptype.ResourceContents, len(val))
		for i, e := range val {
			out[i] = e.Resource
		}
		return stampURI(uri, out), nil
	case mcptype.EmbeddedResource:
		return stampURI(uri, []mcptype.ResourceContents{val.Resource}), nil
	case string:
		mime := registeredMime
		if mime == "" {
			mime = sniffTextMime(val)
		}
		return []mcptype.ResourceContents{mcptype.TextResourceContents(uri, mime, val)}, nil
	case io.ReadCloser:
		defer val.Close()
		data, err := io.ReadAll(val)
		if err != nil {
			return nil, fmt.Errorf("internal error: read resource stream: %w", err)
		}
		mime := registeredMime
		if mime == "" {
			mime = "application/octet-stream"
		}
		return []mcptype.ResourceContents{mcptype.BlobResourceContents(uri, mime, base64.StdEncoding.EncodeToString(data))}, nil
	case map[string]any:
		return resourceFromMap(uri, registeredMime, val)
	case fileInfoLike:
		return resourceFromFile(uri, registeredMime, val.Path())
	default:
		return nil, fmt.Errorf("internal error: cannot format %T as a resource", v)
	}
}

func stampURI(uri string, contents []mcptype.ResourceContents) []mcptype.ResourceContents {
	out := make([]mcptype.ResourceContents, len(contents))
	for i, c := range contents {
		if c.URI == "" {
			c.URI = uri
		}
		out[i] = c
	}
	return out
}

// fileInfoLike is implemented by handler return values that refer to a
// readable file by path rather than returning an opened stream.
type fileInfoLike interface {
	Path() string
}

func resourceFromFile(uri, registeredMime, path string) ([]mcptype.ResourceContents, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("internal error: open resource file: %w", err)
	}
	return ResourceResult(uri, registeredMime, io.ReadCloser(f))
}

func resourceFromMap(uri, registeredMime string, m map[string]any) ([]mcptype.ResourceContents, error) {
	if blob, ok := m["blob"].(string); ok {
		mime := registeredMime
		if mime == "" {
			mime = "application/octet-stream"
		}
		return []mcptype.ResourceContents{mcptype.BlobResourceContents(uri, mime, blob)}, nil
	}
	if text, ok := m["text"].(string); ok {
		mime := registeredMime
		if mime == "" {
			mime = sniffTextMime(text)
		}
		return []mcptype.ResourceContents{mcptype.TextResourceContents(uri, mime, text)}, nil
	}

	// Any other mapping: JSON-encode; keep a registered "json"-ish MIME,
	// else force application/json. The caller logs a warning when this
	// forces a change away from a non-JSON registered MIME (spec.md §4.4
	// step 8) via MimeWasForced.
	body := prettyJSON(m)
	mime := registeredMime
	if mime == "" || !strings.Contains(strings.ToLower(mime), "json") {
		mime = "application/json"
	}
	return []mcptype.ResourceContents{mcptype.TextResourceContents(uri, mime, body)}, nil
}

// MimeWasForced reports whether formatting an "any other mapping" result
// forced the MIME type to application/json away from a non-JSON registered
// MIME — the dispatcher logs a warning when this is true, per spec.md §4.4
// step 8.
func MimeWasForced(registeredMime string) bool {
	return registeredMime != "" && !strings.Contains(strings.ToLower(registeredMime), "json")
}

// sniffTextMime guesses a MIME type from the leading bytes of text content,
// per spec.md §4.4 step 3.
func sniffTextMime(text string) string {
	trimmed := strings.TrimSpace(text)
	lower := strings.ToLower(trimmed)
	switch {
	case strings.HasPrefix(lower, "<html"):
		return "text/html"
	case strings.HasPrefix(lower, "<?xml"):
		return "application/xml"
	case strings.HasPrefix(trimmed, "{") && strings.HasSuffix(trimmed, "}"):
		return "application/json"
	case strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]"):
		return "application/json"
	case strings.HasPrefix(trimmed, "<"):
		return "text/plain"
	default:
		return "text/plain"
	}
}
