package schemagen

import (
	"reflect"
	"testing"
)

type greetParams struct {
	Name  string `mcp:"description=Name to greet"`
	Count int    `mcp:"default=1"`
}

func TestGenerateRequiredAndDefault(t *testing.T) {
	schema := Generate(reflect.TypeOf(greetParams{}))

	if schema["type"] != "object" {
		t.Fatalf("type = %v, want object", schema["type"])
	}
	if schema["additionalProperties"] != false {
		t.Fatalf("additionalProperties = %v, want false", schema["additionalProperties"])
	}

	required, _ := schema["required"].([]string)
	if len(required) != 1 || required[0] != "name" {
		t.Errorf("required = %v, want [name]", required)
	}

	props := schema["properties"].(map[string]any)
	nameSchema := props["name"].(map[string]any)
	if nameSchema["type"] != "string" {
		t.Errorf("name type = %v, want string", nameSchema["type"])
	}
	if nameSchema["description"] != "Name to greet" {
		t.Errorf("name description = %v", nameSchema["description"])
	}

	countSchema := props["count"].(map[string]any)
	if countSchema["type"] != "integer" {
		t.Errorf("count type = %v, want integer", countSchema["type"])
	}
	if countSchema["default"] != int64(1) {
		t.Errorf("count default = %v, want 1", countSchema["default"])
	}
}

type withSlice struct {
	Files []string
}

func TestGenerateArray(t *testing.T) {
	schema := Generate(reflect.TypeOf(withSlice{}))
	props := schema["properties"].(map[string]any)
	filesSchema := props["files"].(map[string]any)
	if filesSchema["type"] != "array" {
		t.Fatalf("type = %v, want array", filesSchema["type"])
	}
	items := filesSchema["items"].(map[string]any)
	if items["type"] != "string" {
		t.Errorf("items type = %v, want string", items["type"])
	}
}

type withNullable struct {
	Nickname *string
}

func TestGenerateNullable(t *testing.T) {
	schema := Generate(reflect.TypeOf(withNullable{}))
	props := schema["properties"].(map[string]any)
	nick := props["nickname"].(map[string]any)
	types, ok := nick["type"].([]any)
	if !ok || len(types) != 2 {
		t.Fatalf("type = %v, want [string null]", nick["type"])
	}

	required, _ := schema["required"].([]string)
	for _, r := range required {
		if r == "nickname" {
			t.Error("nullable field should not be required")
		}
	}
}

type kindEnum string

func (kindEnum) Values() []string { return []string{"a", "b", "c"} }

type withEnum struct {
	Kind kindEnum `mcp:"required=true"`
}

func TestGenerateEnum(t *testing.T) {
	schema := Generate(reflect.TypeOf(withEnum{}))
	props := schema["properties"].(map[string]any)
	kind := props["kind"].(map[string]any)
	if kind["type"] != "string" {
		t.Errorf("type = %v, want string", kind["type"])
	}
	enum, ok := kind["enum"].([]any)
	if !ok || len(enum) != 3 {
		t.Fatalf("enum = %v", kind["enum"])
	}
}

type withExplicitEnum struct {
	Mode string `mcp:"enum=off|auto|full"`
}

func TestGenerateExplicitEnumOverride(t *testing.T) {
	schema := Generate(reflect.TypeOf(withExplicitEnum{}))
	props := schema["properties"].(map[string]any)
	mode := props["mode"].(map[string]any)
	enum, ok := mode["enum"].([]any)
	if !ok || len(enum) != 3 || enum[0] != "off" {
		t.Fatalf("enum = %v", mode["enum"])
	}
}
