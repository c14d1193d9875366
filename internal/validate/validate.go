// Package validate compiles a tool's generated JSON Schema (internal/
// schemagen's output) with santhosh-tekuri/jsonschema and validates call
// arguments against it — the belt-and-braces check spec.md §4.3 calls for:
// the schema generator's own output must accept what the argument
// marshaller produced, catching generator/marshaller drift as well as
// runtime input the coercion rules didn't anticipate.
package validate

import (
	"fmt"
	"sync"
	"sync/atomic"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v6"
)

var resourceSeq int64

// Compile builds a validator over schemaDoc (a JSON Schema `object`, as
// produced by internal/schemagen.Generate).
func Compile(schemaDoc map[string]any) (*Schema, error) {
	url := fmt.Sprintf("mem://mcpserver/schema/%d", atomic.AddInt64(&resourceSeq, 1))

	c := jsonschema.NewCompiler()
	if err := c.AddResource(url, schemaDoc); err != nil {
		return nil, fmt.Errorf("validate: add schema resource: %w", err)
	}
	s, err := c.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("validate: compile schema: %w", err)
	}
	return &Schema{schema: s}, nil
}

// Schema wraps a compiled jsonschema.Schema.
type Schema struct {
	schema *jsonschema.Schema
}

// Validate checks args against the compiled schema.
func (s *Schema) Validate(args map[string]any) error {
	if s == nil || s.schema == nil {
		return nil
	}
	if args == nil {
		args = map[string]any{}
	}
	return s.schema.Validate(args)
}

// cache memoizes compiled schemas by a caller-supplied key so
// that a tool called repeatedly doesn't recompile its schema every time.
var cache sync.Map // map[string]*Schema, keyed by the caller-supplied key

// CompileCached compiles schemaDoc once per distinct key and reuses the
// result on subsequent calls.
func CompileCached(key string, schemaDoc map[string]any) (*Schema, error) {
	if v, ok := cache.Load(key); ok {
		return v.(*Schema), nil
	}
	s, err := Compile(schemaDoc)
	if err != nil {
		return nil, err
	}
	cache.Store(key, s)
	return s, nil
}
