package uritemplate

import "testing"

func TestMatchRejectsMultiSegmentCapture(t *testing.T) {
	tpl, err := Compile("scheme://{x}/{y}")
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	_, ok := tpl.Match("scheme://a/b/c")
	if ok {
		t.Fatal("expected scheme://a/b/c to NOT match scheme://{x}/{y}: captures must be per-segment")
	}
}

func TestMatchSimple(t *testing.T) {
	tpl, err := Compile("user://{userId}/profile")
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	vars, ok := tpl.Match("user://42/profile")
	if !ok {
		t.Fatalf("expected match")
	}
	if vars["userId"] != "42" {
		t.Errorf("userId = %q, want 42", vars["userId"])
	}

	if _, ok := tpl.Match("user://42/settings"); ok {
		t.Error("expected no match for differing literal suffix")
	}
}

func TestVariables(t *testing.T) {
	tpl, err := Compile("config://{scope}/{key}")
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	vars := tpl.Variables()
	if len(vars) != 2 || vars[0] != "scope" || vars[1] != "key" {
		t.Errorf("Variables() = %v", vars)
	}
}

func TestCompileEmpty(t *testing.T) {
	if _, err := Compile(""); err == nil {
		t.Error("expected error for empty template")
	}
}
