// Package discover implements the directive-comment scan that populates
// the Registry's discovered (non-manual) catalog entries (spec.md §4.2).
//
// Go has no runtime annotations, so methods that should be exposed carry a
// one-line structured doc-comment directive immediately above their
// declaration:
//
//	//mcp:tool name=echo description="echo the input back"
//	func (h *EchoHandler) Echo(p EchoParams) (any, error) { ... }
//
// The handler instance itself must have registered under its type name via
// internal/handler.Register from an init() in the package that defines it;
// the Discoverer pairs the AST-level directive with that live instance
// through handler.Method, then builds the catalog entry's Invoke closure
// by marshalling arguments against the method's declared Params type.
package discover

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"reflect"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/mehmetkoksal-w/mcpserver/internal/config"
	"github.com/mehmetkoksal-w/mcpserver/internal/fsutil"
	"github.com/mehmetkoksal-w/mcpserver/internal/handler"
	"github.com/mehmetkoksal-w/mcpserver/internal/mcptype"
	"github.com/mehmetkoksal-w/mcpserver/internal/registry"
	"github.com/mehmetkoksal-w/mcpserver/internal/schemagen"
)

// Discoverer walks a directory tree parsing //mcp:* directive comments and
// registering the handlers they name into a Registry.
type Discoverer struct {
	reg *registry.Registry
	log zerolog.Logger
}

// New creates a Discoverer over reg.
func New(reg *registry.Registry, log zerolog.Logger) *Discoverer {
	return &Discoverer{reg: reg, log: log}
}

// Run walks cfg.BaseDir honoring cfg.IncludeGlobs/ExcludeGlobs and
// registers every directive-annotated method it finds. A single malformed
// file logs a warning and discovery continues with the next one — it
// never aborts the scan (spec.md §4.2).
func (d *Discoverer) Run(cfg config.Discovery) error {
	files, err := fsutil.ListFiles(cfg.BaseDir, cfg.IncludeGlobs, cfg.ExcludeGlobs)
	if err != nil {
		return fmt.Errorf("discover: walk %s: %w", cfg.BaseDir, err)
	}

	for _, rel := range files {
		path := cfg.BaseDir + "/" + rel
		if err := d.scanFile(path); err != nil {
			d.log.Warn().Str("file", path).Err(err).Msg("discovery: skipping file")
		}
	}
	return nil
}

func (d *Discoverer) scanFile(path string) error {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, path, nil, parser.ParseComments)
	if err != nil {
		return fmt.Errorf("parse: %w", err)
	}

	for _, decl := range file.Decls {
		fn, ok := decl.(*ast.FuncDecl)
		if !ok || fn.Recv == nil || len(fn.Recv.List) != 1 || fn.Doc == nil {
			continue
		}
		typeName := receiverTypeName(fn.Recv.List[0].Type)
		if typeName == "" {
			continue
		}
		if _, ok := handler.Resolve(typeName); !ok {
			continue
		}
		directive, rest, ok := parseDirectiveLine(fn.Doc.Text())
		if !ok {
			continue
		}
		if err := d.registerDirective(directive, rest, typeName, fn.Name.Name); err != nil {
			d.log.Warn().Str("file", path).Str("func", fn.Name.Name).Err(err).Msg("discovery: skipping directive")
		}
	}
	return nil
}

func receiverTypeName(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.StarExpr:
		return receiverTypeName(t.X)
	case *ast.Ident:
		return t.Name
	default:
		return ""
	}
}

// parseDirectiveLine finds the first "//mcp:kind key=val ..." line in a
// doc comment block and returns the kind plus the unparsed remainder.
func parseDirectiveLine(doc string) (kind string, rest string, ok bool) {
	for _, line := range strings.Split(doc, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "mcp:") {
			continue
		}
		line = strings.TrimPrefix(line, "mcp:")
		fields := strings.SplitN(line, " ", 2)
		kind = fields[0]
		if len(fields) == 2 {
			rest = fields[1]
		}
		return kind, rest, true
	}
	return "", "", false
}

// directiveArgs parses "key=value" or `key="quoted value"` pairs separated
// by whitespace.
func directiveArgs(rest string) map[string]string {
	out := map[string]string{}
	i := 0
	for i < len(rest) {
		for i < len(rest) && rest[i] == ' ' {
			i++
		}
		start := i
		for i < len(rest) && rest[i] != '=' {
			i++
		}
		if i >= len(rest) {
			break
		}
		key := strings.TrimSpace(rest[start:i])
		i++ // skip '='
		var val string
		if i < len(rest) && rest[i] == '"' {
			i++
			vstart := i
			for i < len(rest) && rest[i] != '"' {
				i++
			}
			val = rest[vstart:i]
			if i < len(rest) {
				i++ // skip closing quote
			}
		} else {
			vstart := i
			for i < len(rest) && rest[i] != ' ' {
				i++
			}
			val = rest[vstart:i]
		}
		if key != "" {
			out[key] = val
		}
	}
	return out
}

func (d *Discoverer) registerDirective(kind, rest, typeName, methodName string) error {
	args := directiveArgs(rest)
	m, err := handler.Method(typeName, methodName)
	if err != nil {
		return fmt.Errorf("method %s.%s not found on registered instance: %w", typeName, methodName, err)
	}

	switch kind {
	case "tool":
		name := args["name"]
		if name == "" {
			return fmt.Errorf("//mcp:tool requires name=")
		}
		paramsType, err := paramsTypeOf(m)
		if err != nil {
			return err
		}
		tool := mcptype.Tool{
			Name:        name,
			Description: args["description"],
			InputSchema: schemagen.Generate(paramsType),
			Handler:     newHandlerRef(typeName, methodName),
		}
		d.reg.RegisterTool(tool, false)

	case "resource":
		uri := args["uri"]
		if uri == "" {
			return fmt.Errorf("//mcp:resource requires uri=")
		}
		if _, err := paramsTypeOf(m); err != nil {
			return err
		}
		res := mcptype.Resource{
			URI:         uri,
			Name:        args["name"],
			Description: args["description"],
			MimeType:    args["mimeType"],
			Handler:     newHandlerRef(typeName, methodName),
		}
		d.reg.RegisterResource(res, false)

	case "resourceTemplate":
		tmpl := args["uriTemplate"]
		if tmpl == "" {
			return fmt.Errorf("//mcp:resourceTemplate requires uriTemplate=")
		}
		if _, err := paramsTypeOf(m); err != nil {
			return err
		}
		tpl := mcptype.ResourceTemplate{
			URITemplate: tmpl,
			Name:        args["name"],
			Description: args["description"],
			MimeType:    args["mimeType"],
			Handler:     newHandlerRef(typeName, methodName),
		}
		return d.reg.RegisterTemplate(tpl, false)

	case "completion":
		param := args["param"]
		if param == "" {
			return fmt.Errorf("//mcp:completion requires param=")
		}
		target := args["for"]
		if target == "" {
			return fmt.Errorf("//mcp:completion requires for=")
		}
		if err := checkCompletionSignature(m); err != nil {
			return err
		}
		provider := reflectCompletionProvider{method: m}

		refKind := args["ref"]
		if refKind == "" {
			refKind = "template"
		}
		switch refKind {
		case "template":
			if !d.reg.AttachTemplateCompletion(target, param, provider) {
				return fmt.Errorf("completion target template %q is not registered", target)
			}
		case "prompt":
			if !d.reg.AttachPromptCompletion(target, param, provider) {
				return fmt.Errorf("completion target prompt %q is not registered", target)
			}
		default:
			return fmt.Errorf("//mcp:completion has unknown ref=%q", refKind)
		}

	case "prompt":
		name := args["name"]
		if name == "" {
			return fmt.Errorf("//mcp:prompt requires name=")
		}
		paramsType, err := paramsTypeOf(m)
		if err != nil {
			return err
		}
		prompt := mcptype.Prompt{
			Name:        name,
			Description: args["description"],
			Arguments:   promptArgumentsOf(paramsType),
			Handler:     newHandlerRef(typeName, methodName),
		}
		d.reg.RegisterPrompt(prompt, false)

	default:
		return fmt.Errorf("unknown directive kind %q", kind)
	}
	return nil
}

// checkCompletionSignature verifies m matches mcptype.CompletionProvider's
// Complete method shape: func(prefix string, offset, limit int) (values
// []string, total int, hasMore bool).
func checkCompletionSignature(m reflect.Value) error {
	t := m.Type()
	if t.NumIn() != 3 || t.In(0).Kind() != reflect.String || t.In(1).Kind() != reflect.Int || t.In(2).Kind() != reflect.Int {
		return fmt.Errorf("//mcp:completion method must take (prefix string, offset, limit int)")
	}
	wantOut0 := reflect.TypeOf([]string(nil))
	if t.NumOut() != 3 || t.Out(0) != wantOut0 || t.Out(1).Kind() != reflect.Int || t.Out(2).Kind() != reflect.Bool {
		return fmt.Errorf("//mcp:completion method must return ([]string, int, bool)")
	}
	return nil
}

// reflectCompletionProvider adapts a reflected method matching
// checkCompletionSignature into a mcptype.CompletionProvider.
type reflectCompletionProvider struct {
	method reflect.Value
}

func (p reflectCompletionProvider) Complete(prefix string, offset, limit int) ([]string, int, bool) {
	out := p.method.Call([]reflect.Value{
		reflect.ValueOf(prefix),
		reflect.ValueOf(offset),
		reflect.ValueOf(limit),
	})
	values, _ := out[0].Interface().([]string)
	total, _ := out[1].Interface().(int)
	hasMore, _ := out[2].Interface().(bool)
	return values, total, hasMore
}

func paramsTypeOf(m reflect.Value) (reflect.Type, error) {
	mt := m.Type()
	if mt.NumIn() != 1 {
		return nil, fmt.Errorf("handler method must take exactly one Params argument, got %d", mt.NumIn())
	}
	return mt.In(0), nil
}

func promptArgumentsOf(paramsType reflect.Type) []mcptype.PromptArgument {
	t := paramsType
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil
	}
	var out []mcptype.PromptArgument
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.PkgPath != "" {
			continue
		}
		name := strings.ToLower(f.Name[:1]) + f.Name[1:]
		required := f.Type.Kind() != reflect.Ptr
		if raw, ok := f.Tag.Lookup("mcp"); ok {
			for _, part := range strings.Split(raw, ",") {
				kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
				if len(kv) == 2 && kv[0] == "name" {
					name = kv[1]
				}
				if len(kv) == 2 && kv[0] == "required" {
					required, _ = strconv.ParseBool(kv[1])
				}
			}
		}
		out = append(out, mcptype.PromptArgument{Name: name, Required: required})
	}
	return out
}

// newHandlerRef builds the catalog entry's handler reference, deferring
// resolution and argument marshalling to handler.BuildInvoke.
func newHandlerRef(typeName, methodName string) mcptype.HandlerRef {
	return mcptype.HandlerRef{
		ClassID: typeName,
		Method:  methodName,
		Invoke:  handler.BuildInvoke(typeName, methodName),
	}
}
