package discover_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mehmetkoksal-w/mcpserver/internal/config"
	"github.com/mehmetkoksal-w/mcpserver/internal/discover"
	"github.com/mehmetkoksal-w/mcpserver/internal/handler"
	"github.com/mehmetkoksal-w/mcpserver/internal/logging"
	"github.com/mehmetkoksal-w/mcpserver/internal/registry"
)

type EchoParams struct {
	Text string `json:"text"`
}

type echoHandler struct{}

func (h *echoHandler) Echo(p EchoParams) (any, error) {
	return p.Text, nil
}

const handlerSource = `package fixture

//mcp:tool name=echo description="echoes the input back"
func (h *echoHandler) Echo(p EchoParams) (any, error) {
	return p.Text, nil
}

func (h *echoHandler) unannotated(p EchoParams) (any, error) {
	return nil, nil
}
`

func TestRunRegistersDirectiveAnnotatedTool(t *testing.T) {
	handler.Register("echoHandler", &echoHandler{})

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "handler.go"), []byte(handlerSource), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	reg := registry.New(logging.Nop())
	d := discover.New(reg, logging.Nop())

	if err := d.Run(config.Discovery{BaseDir: dir, IncludeGlobs: []string{"**/*.go"}}); err != nil {
		t.Fatalf("Run: %v", err)
	}

	tool, ok := reg.Tool("echo")
	if !ok {
		t.Fatal("expected echo tool to be registered")
	}
	if tool.Manual {
		t.Fatal("discovered tool must not be marked manual")
	}
	if tool.Description != "echoes the input back" {
		t.Fatalf("description = %q", tool.Description)
	}

	result, err := tool.Handler.Invoke(map[string]any{"text": "hi"})
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if result != "hi" {
		t.Fatalf("result = %v, want hi", result)
	}
}

func TestRunSkipsFilesWithoutMatchingHandler(t *testing.T) {
	dir := t.TempDir()
	src := `package fixture

//mcp:tool name=ghost
func (h *ghostHandler) DoThing(p EchoParams) (any, error) {
	return nil, nil
}
`
	if err := os.WriteFile(filepath.Join(dir, "ghost.go"), []byte(src), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	reg := registry.New(logging.Nop())
	d := discover.New(reg, logging.Nop())
	if err := d.Run(config.Discovery{BaseDir: dir, IncludeGlobs: []string{"**/*.go"}}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if _, ok := reg.Tool("ghost"); ok {
		t.Fatal("ghost tool should not be registered: no handler.Register for ghostHandler")
	}
}

type notesTemplateHandler struct{}

type ReadNoteParams struct {
	ID string `json:"id"`
}

func (h *notesTemplateHandler) Read(p ReadNoteParams) (any, error) {
	return p.ID, nil
}

func (h *notesTemplateHandler) CompleteID(prefix string, offset, limit int) ([]string, int, bool) {
	return []string{"alpha", "beta"}, 2, false
}

const templateSource = `package fixture

//mcp:resourceTemplate uriTemplate="notes://{id}" name=note
func (h *notesTemplateHandler) Read(p ReadNoteParams) (any, error) {
	return p.ID, nil
}
`

const completionSource = `package fixture

//mcp:completion param=id for="notes://{id}" ref=template
func (h *notesTemplateHandler) CompleteID(prefix string, offset, limit int) ([]string, int, bool) {
	return nil, 0, false
}
`

func TestRunWiresCompletionDirectiveOntoItsTemplate(t *testing.T) {
	handler.Register("notesTemplateHandler", &notesTemplateHandler{})

	dir := t.TempDir()
	// Filenames are chosen so filepath.WalkDir visits the template before
	// the completion directive that attaches to it.
	if err := os.WriteFile(filepath.Join(dir, "a_template.go"), []byte(templateSource), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "b_completion.go"), []byte(completionSource), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	reg := registry.New(logging.Nop())
	d := discover.New(reg, logging.Nop())
	if err := d.Run(config.Discovery{BaseDir: dir, IncludeGlobs: []string{"**/*.go"}}); err != nil {
		t.Fatalf("Run: %v", err)
	}

	var found bool
	for _, tpl := range reg.Templates() {
		if tpl.URITemplate != "notes://{id}" {
			continue
		}
		found = true
		provider, ok := tpl.Completions["id"]
		if !ok {
			t.Fatal("expected a completion provider registered for param \"id\"")
		}
		values, total, _ := provider.Complete("", 0, 10)
		if total != 2 || len(values) != 2 {
			t.Fatalf("Complete() = %v, %d, want 2 values", values, total)
		}
	}
	if !found {
		t.Fatal("expected notes://{id} template to be registered")
	}
}

func TestRunContinuesPastMalformedFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "broken.go"), []byte("not valid go {{{"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	handler.Register("echoHandler", &echoHandler{})
	if err := os.WriteFile(filepath.Join(dir, "handler.go"), []byte(handlerSource), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	reg := registry.New(logging.Nop())
	d := discover.New(reg, logging.Nop())
	if err := d.Run(config.Discovery{BaseDir: dir, IncludeGlobs: []string{"**/*.go"}}); err != nil {
		t.Fatalf("Run should not abort on a malformed file: %v", err)
	}
	if _, ok := reg.Tool("echo"); !ok {
		t.Fatal("expected echo tool to still be registered despite the broken file")
	}
}
