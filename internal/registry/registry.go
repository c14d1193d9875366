// Package registry holds the live catalog of tools, resources, resource
// templates, and prompts, enforcing the manual-over-discovered precedence
// rule (spec.md §4.2's invariant I1) and notifying subscribers of
// additions and replacements.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/mehmetkoksal-w/mcpserver/internal/mcptype"
	"github.com/mehmetkoksal-w/mcpserver/internal/uritemplate"
)

// ChangeKind identifies which list a change notification concerns.
type ChangeKind int

const (
	ToolsChanged ChangeKind = iota
	ResourcesChanged
	PromptsChanged
)

// ChangeListener is invoked whenever a catalog list changes shape, so the
// session layer can broadcast the corresponding notifications/*/list_changed
// message to every initialized session.
type ChangeListener func(kind ChangeKind)

type templateEntry struct {
	tmpl  *uritemplate.Template
	entry mcptype.ResourceTemplate
}

// Registry is the live, in-memory catalog. All methods are safe for
// concurrent use.
type Registry struct {
	mu sync.RWMutex

	tools     map[string]mcptype.Tool
	resources map[string]mcptype.Resource
	templates []templateEntry
	prompts   map[string]mcptype.Prompt

	manualTools     map[string]struct{}
	manualResources map[string]struct{}
	manualTemplates map[string]struct{}
	manualPrompts   map[string]struct{}

	listeners []ChangeListener
	log       zerolog.Logger

	// suppressNotify is set during bulk cache-load replay so that
	// restoring a previously-discovered catalog does not fire a storm of
	// listChanged notifications before any client has subscribed.
	suppressNotify bool
}

// New creates an empty Registry.
func New(log zerolog.Logger) *Registry {
	return &Registry{
		tools:           make(map[string]mcptype.Tool),
		resources:       make(map[string]mcptype.Resource),
		prompts:         make(map[string]mcptype.Prompt),
		manualTools:     make(map[string]struct{}),
		manualResources: make(map[string]struct{}),
		manualTemplates: make(map[string]struct{}),
		manualPrompts:   make(map[string]struct{}),
		log:             log,
	}
}

// OnChange registers a listener invoked after each tool, resource or prompt
// registration; RegisterTemplate and the Attach* completion setters do not
// invoke it.
func (r *Registry) OnChange(l ChangeListener) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners = append(r.listeners, l)
}

func (r *Registry) notify(kind ChangeKind) {
	if r.suppressNotify {
		return
	}
	for _, l := range r.listeners {
		l(kind)
	}
}

// SetBulkLoad toggles notification suppression for bulk cache replay;
// callers must invoke it with false once the initial load is complete.
func (r *Registry) SetBulkLoad(suppressed bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.suppressNotify = suppressed
}

// RegisterTool adds or replaces a tool entry. isManual distinguishes a
// direct registration by the embedding program from a directive-comment
// discovery result. A manual registration always wins over a discovered
// one; within the same origin, the newest registration replaces the
// previous one and logs a warning.
func (r *Registry) RegisterTool(t mcptype.Tool, isManual bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.tools[t.Name]; ok {
		_, existingManual := r.manualTools[t.Name]
		if existingManual && !isManual {
			r.log.Debug().Str("tool", t.Name).Msg("discovered tool ignored: a manual registration already claims this name")
			return
		}
		if existingManual == isManual {
			r.log.Warn().Str("tool", t.Name).Bool("manual", isManual).Msg("tool registration replaced")
		}
		_ = existing
	}

	t.Manual = isManual
	r.tools[t.Name] = t
	if isManual {
		r.manualTools[t.Name] = struct{}{}
	} else {
		delete(r.manualTools, t.Name)
	}
	r.notify(ToolsChanged)
}

// RegisterResource adds or replaces a static resource entry, with the
// same manual-over-discovered precedence as RegisterTool.
func (r *Registry) RegisterResource(res mcptype.Resource, isManual bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.resources[res.URI]; ok {
		_, existingManual := r.manualResources[res.URI]
		if existingManual && !isManual {
			r.log.Debug().Str("resource", res.URI).Msg("discovered resource ignored: a manual registration already claims this URI")
			return
		}
		if existingManual == isManual {
			r.log.Warn().Str("resource", res.URI).Bool("manual", isManual).Msg("resource registration replaced")
		}
	}

	res.Manual = isManual
	r.resources[res.URI] = res
	if isManual {
		r.manualResources[res.URI] = struct{}{}
	} else {
		delete(r.manualResources, res.URI)
	}
	r.notify(ResourcesChanged)
}

// RegisterTemplate adds or replaces a resource template. Precedence is
// keyed on the template's raw URI template text.
func (r *Registry) RegisterTemplate(tpl mcptype.ResourceTemplate, isManual bool) error {
	compiled, err := uritemplate.Compile(tpl.URITemplate)
	if err != nil {
		return fmt.Errorf("registry: invalid resource template %q: %w", tpl.URITemplate, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for i, existing := range r.templates {
		if existing.entry.URITemplate != tpl.URITemplate {
			continue
		}
		_, existingManual := r.manualTemplates[tpl.URITemplate]
		if existingManual && !isManual {
			r.log.Debug().Str("template", tpl.URITemplate).Msg("discovered template ignored: a manual registration already claims this template")
			return nil
		}
		if existingManual == isManual {
			r.log.Warn().Str("template", tpl.URITemplate).Bool("manual", isManual).Msg("resource template replaced")
		}
		tpl.Manual = isManual
		r.templates[i] = templateEntry{tmpl: compiled, entry: tpl}
		r.markTemplateManual(tpl.URITemplate, isManual)
		return nil
	}

	tpl.Manual = isManual
	r.templates = append(r.templates, templateEntry{tmpl: compiled, entry: tpl})
	r.markTemplateManual(tpl.URITemplate, isManual)
	return nil
}

func (r *Registry) markTemplateManual(uriTemplate string, isManual bool) {
	if isManual {
		r.manualTemplates[uriTemplate] = struct{}{}
	} else {
		delete(r.manualTemplates, uriTemplate)
	}
}

// RegisterPrompt adds or replaces a prompt entry, with the same
// manual-over-discovered precedence as RegisterTool.
func (r *Registry) RegisterPrompt(p mcptype.Prompt, isManual bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.prompts[p.Name]; ok {
		_, existingManual := r.manualPrompts[p.Name]
		if existingManual && !isManual {
			r.log.Debug().Str("prompt", p.Name).Msg("discovered prompt ignored: a manual registration already claims this name")
			return
		}
		if existingManual == isManual {
			r.log.Warn().Str("prompt", p.Name).Bool("manual", isManual).Msg("prompt registration replaced")
		}
	}

	p.Manual = isManual
	r.prompts[p.Name] = p
	if isManual {
		r.manualPrompts[p.Name] = struct{}{}
	} else {
		delete(r.manualPrompts, p.Name)
	}
	r.notify(PromptsChanged)
}

// Tool returns the named tool, if registered.
func (r *Registry) Tool(name string) (mcptype.Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// Tools returns all registered tools, sorted by name for stable pagination.
func (r *Registry) Tools() []mcptype.Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]mcptype.Tool, 0, len(r.tools))
	for _, t := range r.tools {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Resource returns the exact-match static resource, if registered.
func (r *Registry) Resource(uri string) (mcptype.Resource, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res, ok := r.resources[uri]
	return res, ok
}

// Resources returns all static resources, sorted by URI.
func (r *Registry) Resources() []mcptype.Resource {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]mcptype.Resource, 0, len(r.resources))
	for _, res := range r.resources {
		out = append(out, res)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].URI < out[j].URI })
	return out
}

// Templates returns all resource templates, sorted by template text.
func (r *Registry) Templates() []mcptype.ResourceTemplate {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]mcptype.ResourceTemplate, len(r.templates))
	for i, te := range r.templates {
		out[i] = te.entry
	}
	sort.Slice(out, func(i, j int) bool { return out[i].URITemplate < out[j].URITemplate })
	return out
}

// MatchTemplate finds the first resource template whose pattern matches
// uri, per spec.md §4.5's "exact match first, then template match in
// registration order" resources/read resolution rule.
func (r *Registry) MatchTemplate(uri string) (mcptype.ResourceTemplate, map[string]string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, te := range r.templates {
		if vars, ok := te.tmpl.Match(uri); ok {
			return te.entry, vars, true
		}
	}
	return mcptype.ResourceTemplate{}, nil, false
}

// Prompt returns the named prompt, if registered.
func (r *Registry) Prompt(name string) (mcptype.Prompt, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.prompts[name]
	return p, ok
}

// Prompts returns all registered prompts, sorted by name.
func (r *Registry) Prompts() []mcptype.Prompt {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]mcptype.Prompt, 0, len(r.prompts))
	for _, p := range r.prompts {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// AttachTemplateCompletion registers a completion provider for one
// argument of an already-registered resource template. It reports false if
// no template with that URI template text is registered yet. Attaching a
// completion provider is not itself a catalog-shape change, so it never
// fires a change notification (spec.md: "templates do not emit").
func (r *Registry) AttachTemplateCompletion(uriTemplate, param string, p mcptype.CompletionProvider) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, te := range r.templates {
		if te.entry.URITemplate != uriTemplate {
			continue
		}
		if r.templates[i].entry.Completions == nil {
			r.templates[i].entry.Completions = make(map[string]mcptype.CompletionProvider)
		}
		r.templates[i].entry.Completions[param] = p
		return true
	}
	return false
}

// AttachPromptCompletion registers a completion provider for one argument
// of an already-registered prompt. It reports false if no prompt with that
// name is registered yet.
func (r *Registry) AttachPromptCompletion(name, param string, p mcptype.CompletionProvider) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	prompt, ok := r.prompts[name]
	if !ok {
		return false
	}
	if prompt.Completions == nil {
		prompt.Completions = make(map[string]mcptype.CompletionProvider)
	}
	prompt.Completions[param] = p
	r.prompts[name] = prompt
	return true
}
