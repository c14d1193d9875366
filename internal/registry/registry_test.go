package registry

import (
	"testing"

	"github.com/rs/zerolog"

	"github.com/mehmetkoksal-w/mcpserver/internal/mcptype"
)

func TestManualWinsOverDiscovered(t *testing.T) {
	r := New(zerolog.Nop())
	r.RegisterTool(mcptype.Tool{Name: "greet", Description: "manual"}, true)
	r.RegisterTool(mcptype.Tool{Name: "greet", Description: "discovered"}, false)

	got, ok := r.Tool("greet")
	if !ok {
		t.Fatal("expected greet to be registered")
	}
	if got.Description != "manual" {
		t.Errorf("Description = %q, want manual registration to win", got.Description)
	}
}

func TestDiscoveredReplacesDiscovered(t *testing.T) {
	r := New(zerolog.Nop())
	r.RegisterTool(mcptype.Tool{Name: "greet", Description: "v1"}, false)
	r.RegisterTool(mcptype.Tool{Name: "greet", Description: "v2"}, false)

	got, _ := r.Tool("greet")
	if got.Description != "v2" {
		t.Errorf("Description = %q, want v2 to replace v1", got.Description)
	}
}

func TestChangeListenerFiresOnRegister(t *testing.T) {
	r := New(zerolog.Nop())
	var fired []ChangeKind
	r.OnChange(func(kind ChangeKind) { fired = append(fired, kind) })

	r.RegisterTool(mcptype.Tool{Name: "a"}, true)
	r.RegisterResource(mcptype.Resource{URI: "x://y"}, true)
	r.RegisterPrompt(mcptype.Prompt{Name: "p"}, true)

	if len(fired) != 3 {
		t.Fatalf("got %d notifications, want 3", len(fired))
	}
	if fired[0] != ToolsChanged || fired[1] != ResourcesChanged || fired[2] != PromptsChanged {
		t.Errorf("fired = %v", fired)
	}
}

func TestRegisterTemplateNeverNotifies(t *testing.T) {
	r := New(zerolog.Nop())
	var fired int
	r.OnChange(func(ChangeKind) { fired++ })

	if err := r.RegisterTemplate(mcptype.ResourceTemplate{URITemplate: "user://{id}"}, true); err != nil {
		t.Fatalf("RegisterTemplate: %v", err)
	}
	if err := r.RegisterTemplate(mcptype.ResourceTemplate{URITemplate: "user://{id}", Description: "replaced"}, true); err != nil {
		t.Fatalf("RegisterTemplate (replace): %v", err)
	}
	if fired != 0 {
		t.Errorf("fired = %d, want 0: templates do not emit change notifications", fired)
	}
}

func TestBulkLoadSuppressesNotifications(t *testing.T) {
	r := New(zerolog.Nop())
	var fired int
	r.OnChange(func(ChangeKind) { fired++ })

	r.SetBulkLoad(true)
	r.RegisterTool(mcptype.Tool{Name: "a"}, false)
	r.RegisterTool(mcptype.Tool{Name: "b"}, false)
	r.SetBulkLoad(false)

	if fired != 0 {
		t.Errorf("fired = %d during bulk load, want 0", fired)
	}

	r.RegisterTool(mcptype.Tool{Name: "c"}, false)
	if fired != 1 {
		t.Errorf("fired = %d after bulk load ends, want 1", fired)
	}
}

func TestMatchTemplateExactThenFirstMatch(t *testing.T) {
	r := New(zerolog.Nop())
	if err := r.RegisterTemplate(mcptype.ResourceTemplate{URITemplate: "user://{id}/profile"}, true); err != nil {
		t.Fatalf("RegisterTemplate: %v", err)
	}
	if err := r.RegisterTemplate(mcptype.ResourceTemplate{URITemplate: "user://{name}/profile"}, true); err != nil {
		t.Fatalf("RegisterTemplate: %v", err)
	}

	tpl, vars, ok := r.MatchTemplate("user://42/profile")
	if !ok {
		t.Fatal("expected a template match")
	}
	if tpl.URITemplate != "user://{id}/profile" || vars["id"] != "42" {
		t.Errorf("got template %+v vars %v", tpl, vars)
	}

	if _, _, ok := r.MatchTemplate("user://42/other"); ok {
		t.Error("expected no match for a non-matching URI")
	}
}

func TestToolsSortedByName(t *testing.T) {
	r := New(zerolog.Nop())
	r.RegisterTool(mcptype.Tool{Name: "zeta"}, true)
	r.RegisterTool(mcptype.Tool{Name: "alpha"}, true)

	tools := r.Tools()
	if len(tools) != 2 || tools[0].Name != "alpha" || tools[1].Name != "zeta" {
		t.Errorf("got %+v", tools)
	}
}
