package argmarshal

import (
	"reflect"
	"testing"
)

type greetParams struct {
	Name  string
	Count int `mcp:"default=1"`
}

func TestMarshalCoercesStringToInt(t *testing.T) {
	v, err := Marshal(reflect.TypeOf(greetParams{}), map[string]any{
		"name":  "Ada",
		"count": "3",
	})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	p := v.Interface().(greetParams)
	if p.Name != "Ada" || p.Count != 3 {
		t.Errorf("got %+v", p)
	}
}

func TestMarshalRejectsDecimalForInt(t *testing.T) {
	_, err := Marshal(reflect.TypeOf(greetParams{}), map[string]any{
		"name":  "Ada",
		"count": "3.5",
	})
	if err == nil {
		t.Fatal("expected error for decimal string on int field")
	}
	ipe, ok := err.(*InvalidParamsError)
	if !ok {
		t.Fatalf("error type = %T, want *InvalidParamsError", err)
	}
	if ipe.Param != "count" {
		t.Errorf("Param = %q, want count", ipe.Param)
	}
}

func TestMarshalAppliesDefault(t *testing.T) {
	v, err := Marshal(reflect.TypeOf(greetParams{}), map[string]any{"name": "Ada"})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	p := v.Interface().(greetParams)
	if p.Count != 1 {
		t.Errorf("Count = %d, want 1 (default)", p.Count)
	}
}

func TestMarshalMissingRequired(t *testing.T) {
	_, err := Marshal(reflect.TypeOf(greetParams{}), map[string]any{})
	if err == nil {
		t.Fatal("expected error for missing required name")
	}
	ipe := err.(*InvalidParamsError)
	if ipe.Param != "name" {
		t.Errorf("Param = %q, want name", ipe.Param)
	}
}

type boolParams struct {
	Enabled bool
}

func TestMarshalBoolCoercion(t *testing.T) {
	cases := []struct {
		in   any
		want bool
	}{
		{true, true},
		{false, false},
		{"true", true},
		{"FALSE", false},
		{"1", true},
		{"0", false},
		{float64(1), true},
		{float64(0), false},
	}
	for _, tc := range cases {
		v, err := Marshal(reflect.TypeOf(boolParams{}), map[string]any{"enabled": tc.in})
		if err != nil {
			t.Fatalf("Marshal(%v): %v", tc.in, err)
		}
		p := v.Interface().(boolParams)
		if p.Enabled != tc.want {
			t.Errorf("Marshal(%v) = %v, want %v", tc.in, p.Enabled, tc.want)
		}
	}
}

type nullableParams struct {
	Nickname *string
}

func TestMarshalNullableOmitted(t *testing.T) {
	v, err := Marshal(reflect.TypeOf(nullableParams{}), map[string]any{})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	p := v.Interface().(nullableParams)
	if p.Nickname != nil {
		t.Errorf("Nickname = %v, want nil", p.Nickname)
	}
}

type sliceParams struct {
	Files []string
}

func TestMarshalSlice(t *testing.T) {
	v, err := Marshal(reflect.TypeOf(sliceParams{}), map[string]any{
		"files": []any{"a.go", "b.go"},
	})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	p := v.Interface().(sliceParams)
	if len(p.Files) != 2 || p.Files[0] != "a.go" {
		t.Errorf("Files = %v", p.Files)
	}
}

func TestMarshalIgnoresUnknownKeys(t *testing.T) {
	v, err := Marshal(reflect.TypeOf(greetParams{}), map[string]any{
		"name":    "Ada",
		"bogus":   "ignored",
		"another": 123,
	})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if v.Interface().(greetParams).Name != "Ada" {
		t.Error("expected name to be set despite unknown keys")
	}
}
