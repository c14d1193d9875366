package registry

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mehmetkoksal-w/mcpserver/internal/cache"
	"github.com/mehmetkoksal-w/mcpserver/internal/handler"
	"github.com/mehmetkoksal-w/mcpserver/internal/mcptype"
)

const (
	kindTool             = "tool"
	kindResource         = "resource"
	kindResourceTemplate = "resourceTemplate"
	kindPrompt           = "prompt"
)

// cachedEntry wraps a catalog value with the ClassID/Method pair needed to
// rebuild its Handler.Invoke closure on load, since a Go func value cannot
// itself be serialized.
type cachedEntry[T any] struct {
	Value   T      `json:"value"`
	ClassID string `json:"classId"`
	Method  string `json:"method"`
}

// SaveToCache persists every currently discovered (non-manual) catalog
// entry to c, replacing whatever was previously cached for each kind —
// the Registry's warm-start snapshot (spec.md §4.1's on-disk cache).
func (r *Registry) SaveToCache(ctx context.Context, c *cache.Cache) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if err := c.DeleteKind(ctx, kindTool); err != nil {
		return err
	}
	for _, t := range r.tools {
		if t.Manual {
			continue
		}
		if err := putEntry(ctx, c, kindTool, t.Name, cachedEntry[mcptype.Tool]{Value: t, ClassID: t.Handler.ClassID, Method: t.Handler.Method}); err != nil {
			return err
		}
	}

	if err := c.DeleteKind(ctx, kindResource); err != nil {
		return err
	}
	for _, res := range r.resources {
		if res.Manual {
			continue
		}
		if err := putEntry(ctx, c, kindResource, res.URI, cachedEntry[mcptype.Resource]{Value: res, ClassID: res.Handler.ClassID, Method: res.Handler.Method}); err != nil {
			return err
		}
	}

	if err := c.DeleteKind(ctx, kindResourceTemplate); err != nil {
		return err
	}
	for _, te := range r.templates {
		if te.entry.Manual {
			continue
		}
		tpl := te.entry
		if err := putEntry(ctx, c, kindResourceTemplate, tpl.URITemplate, cachedEntry[mcptype.ResourceTemplate]{Value: tpl, ClassID: tpl.Handler.ClassID, Method: tpl.Handler.Method}); err != nil {
			return err
		}
	}

	if err := c.DeleteKind(ctx, kindPrompt); err != nil {
		return err
	}
	for _, p := range r.prompts {
		if p.Manual {
			continue
		}
		if err := putEntry(ctx, c, kindPrompt, p.Name, cachedEntry[mcptype.Prompt]{Value: p, ClassID: p.Handler.ClassID, Method: p.Handler.Method}); err != nil {
			return err
		}
	}
	return nil
}

func putEntry[T any](ctx context.Context, c *cache.Cache, kind, key string, entry cachedEntry[T]) error {
	b, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal %s %s: %w", kind, key, err)
	}
	return c.Put(ctx, kind, key, b)
}

// LoadFromCache replays every cached entry into the Registry as a
// discovered (non-manual) entry, suppressing change notifications for the
// duration of the replay. Handler.Invoke is rebuilt lazily via
// handler.BuildInvoke, so a cached entry whose owning handler package has
// not re-registered this process only fails when actually invoked, not on
// load (spec.md §4.1's "restores the previously discovered catalog").
func (r *Registry) LoadFromCache(ctx context.Context, c *cache.Cache) error {
	r.SetBulkLoad(true)
	defer r.SetBulkLoad(false)

	tools, err := c.List(ctx, kindTool)
	if err != nil {
		return err
	}
	for _, e := range tools {
		var ce cachedEntry[mcptype.Tool]
		if err := json.Unmarshal(e.Payload, &ce); err != nil {
			continue
		}
		ce.Value.Handler = mcptype.HandlerRef{ClassID: ce.ClassID, Method: ce.Method, Invoke: handler.BuildInvoke(ce.ClassID, ce.Method)}
		r.RegisterTool(ce.Value, false)
	}

	resources, err := c.List(ctx, kindResource)
	if err != nil {
		return err
	}
	for _, e := range resources {
		var ce cachedEntry[mcptype.Resource]
		if err := json.Unmarshal(e.Payload, &ce); err != nil {
			continue
		}
		ce.Value.Handler = mcptype.HandlerRef{ClassID: ce.ClassID, Method: ce.Method, Invoke: handler.BuildInvoke(ce.ClassID, ce.Method)}
		r.RegisterResource(ce.Value, false)
	}

	templates, err := c.List(ctx, kindResourceTemplate)
	if err != nil {
		return err
	}
	for _, e := range templates {
		var ce cachedEntry[mcptype.ResourceTemplate]
		if err := json.Unmarshal(e.Payload, &ce); err != nil {
			continue
		}
		ce.Value.Handler = mcptype.HandlerRef{ClassID: ce.ClassID, Method: ce.Method, Invoke: handler.BuildInvoke(ce.ClassID, ce.Method)}
		if err := r.RegisterTemplate(ce.Value, false); err != nil {
			r.log.Warn().Str("template", ce.Value.URITemplate).Err(err).Msg("cache: skipping invalid cached template")
		}
	}

	prompts, err := c.List(ctx, kindPrompt)
	if err != nil {
		return err
	}
	for _, e := range prompts {
		var ce cachedEntry[mcptype.Prompt]
		if err := json.Unmarshal(e.Payload, &ce); err != nil {
			continue
		}
		ce.Value.Handler = mcptype.HandlerRef{ClassID: ce.ClassID, Method: ce.Method, Invoke: handler.BuildInvoke(ce.ClassID, ce.Method)}
		r.RegisterPrompt(ce.Value, false)
	}

	return nil
}
