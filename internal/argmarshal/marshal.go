// Package argmarshal coerces a JSON-decoded arguments map into a handler's
// typed Params struct, following the coercion rules in spec.md §4.3.
package argmarshal

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// InvalidParamsError names the offending parameter, matching spec.md §7's
// requirement that argument errors name the parameter precisely.
type InvalidParamsError struct {
	Param string
	Msg   string
}

func (e *InvalidParamsError) Error() string {
	return fmt.Sprintf("invalid argument %q: %s", e.Param, e.Msg)
}

// Marshal builds a new value of paramsType (a struct type) from args,
// applying: (1) direct coercion for supplied values, (2) tag default,
// (3) null for nullable fields, (4) omission for optional fields, else
// InvalidParamsError. Unknown extra keys in args are ignored.
func Marshal(paramsType reflect.Type, args map[string]any) (reflect.Value, error) {
	ptrResult := false
	target := paramsType
	if target.Kind() == reflect.Ptr {
		ptrResult = true
		target = target.Elem()
	}
	if target.Kind() != reflect.Struct {
		return reflect.Value{}, fmt.Errorf("argmarshal: params type must be a struct, got %s", target.Kind())
	}

	out := reflect.New(target).Elem()

	for i := 0; i < target.NumField(); i++ {
		f := target.Field(i)
		if f.PkgPath != "" {
			continue
		}
		name, defVal, hasDefault := fieldTagInfo(f)
		if name == "" {
			name = strings.ToLower(f.Name[:1]) + f.Name[1:]
		}

		raw, supplied := args[name]
		fv := out.Field(i)

		switch {
		case supplied && raw != nil:
			coerced, err := coerceValue(fv.Type(), raw)
			if err != nil {
				return reflect.Value{}, &InvalidParamsError{Param: name, Msg: err.Error()}
			}
			fv.Set(coerced)
		case hasDefault:
			coerced, err := coerceDefaultLiteral(fv.Type(), defVal)
			if err != nil {
				return reflect.Value{}, &InvalidParamsError{Param: name, Msg: err.Error()}
			}
			fv.Set(coerced)
		case fv.Kind() == reflect.Ptr:
			fv.Set(reflect.Zero(fv.Type()))
		case isOptionalSlice(fv):
			// variadic-with-zero-args analogue: leave empty slice as zero value.
		default:
			return reflect.Value{}, &InvalidParamsError{Param: name, Msg: "missing required argument"}
		}
	}

	if ptrResult {
		ptr := reflect.New(target)
		ptr.Elem().Set(out)
		return ptr, nil
	}
	return out, nil
}

func isOptionalSlice(fv reflect.Value) bool {
	return fv.Kind() == reflect.Slice
}

// ToMap converts a struct value produced by Marshal back into a plain
// map[string]any, using the same mcp-tag field-name mapping, so callers can
// validate the coerced representation against the generated JSON Schema
// after coercion rather than before it. Unset pointer fields are omitted,
// mirroring how an absent argument is represented on the wire.
func ToMap(v reflect.Value) map[string]any {
	for v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil
	}

	t := v.Type()
	out := map[string]any{}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.PkgPath != "" {
			continue
		}
		name, _, _ := fieldTagInfo(f)
		if name == "" {
			name = strings.ToLower(f.Name[:1]) + f.Name[1:]
		}
		fv := v.Field(i)
		if fv.Kind() == reflect.Ptr && fv.IsNil() {
			continue
		}
		out[name] = fv.Interface()
	}
	return out
}

func fieldTagInfo(f reflect.StructField) (name, def string, hasDefault bool) {
	raw, ok := f.Tag.Lookup("mcp")
	if !ok {
		return "", "", false
	}
	for _, part := range strings.Split(raw, ",") {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch kv[0] {
		case "name":
			name = kv[1]
		case "default":
			def = kv[1]
			hasDefault = true
		}
	}
	return name, def, hasDefault
}

// coerceValue implements the per-type coercion table from spec.md §4.3
// step 1.
func coerceValue(ft reflect.Type, raw any) (reflect.Value, error) {
	if ft.Kind() == reflect.Ptr {
		inner, err := coerceValue(ft.Elem(), raw)
		if err != nil {
			return reflect.Value{}, err
		}
		ptr := reflect.New(ft.Elem())
		ptr.Elem().Set(inner)
		return ptr, nil
	}

	switch ft.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := coerceInt(raw)
		if err != nil {
			return reflect.Value{}, err
		}
		v := reflect.New(ft).Elem()
		v.SetInt(n)
		return v, nil
	case reflect.Bool:
		b, err := coerceBool(raw)
		if err != nil {
			return reflect.Value{}, err
		}
		return reflect.ValueOf(b), nil
	case reflect.Float32, reflect.Float64:
		f, err := coerceFloat(raw)
		if err != nil {
			return reflect.Value{}, err
		}
		v := reflect.New(ft).Elem()
		v.SetFloat(f)
		return v, nil
	case reflect.String:
		s := coerceString(raw)
		v := reflect.New(ft).Elem()
		v.SetString(s)
		return v, nil
	case reflect.Slice:
		return coerceSlice(ft, raw)
	case reflect.Map:
		return coerceMap(ft, raw)
	case reflect.Struct:
		return coerceStruct(ft, raw)
	default:
		rv := reflect.ValueOf(raw)
		if rv.Type().AssignableTo(ft) {
			return rv, nil
		}
		return reflect.Value{}, fmt.Errorf("cannot coerce %T to %s", raw, ft)
	}
}

func coerceInt(raw any) (int64, error) {
	switch v := raw.(type) {
	case float64:
		if v != float64(int64(v)) {
			return 0, fmt.Errorf("expected integer, got decimal %v", v)
		}
		return int64(v), nil
	case int:
		return int64(v), nil
	case int64:
		return v, nil
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return 0, fmt.Errorf("expected integer, got empty string")
		}
		if strings.Contains(trimmed, ".") {
			return 0, fmt.Errorf("expected integer, got decimal %q", v)
		}
		n, err := strconv.ParseInt(trimmed, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("expected integer, got %q", v)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("expected integer, got %T", raw)
	}
}

func coerceBool(raw any) (bool, error) {
	switch v := raw.(type) {
	case bool:
		return v, nil
	case float64:
		if v == 0 {
			return false, nil
		}
		if v == 1 {
			return true, nil
		}
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "0", "false":
			return false, nil
		case "1", "true":
			return true, nil
		}
	}
	return false, fmt.Errorf("expected boolean, got %v", raw)
}

func coerceFloat(raw any) (float64, error) {
	switch v := raw.(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, fmt.Errorf("expected number, got %q", v)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("expected number, got %T", raw)
	}
}

func coerceString(raw any) string {
	switch v := raw.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func coerceSlice(ft reflect.Type, raw any) (reflect.Value, error) {
	items, ok := raw.([]any)
	if !ok {
		return reflect.Value{}, fmt.Errorf("expected array, got %T", raw)
	}
	out := reflect.MakeSlice(ft, len(items), len(items))
	for i, item := range items {
		coerced, err := coerceValue(ft.Elem(), item)
		if err != nil {
			return reflect.Value{}, fmt.Errorf("index %d: %w", i, err)
		}
		out.Index(i).Set(coerced)
	}
	return out, nil
}

func coerceMap(ft reflect.Type, raw any) (reflect.Value, error) {
	m, ok := raw.(map[string]any)
	if !ok {
		return reflect.Value{}, fmt.Errorf("expected object, got %T", raw)
	}
	out := reflect.MakeMapWithSize(ft, len(m))
	for k, val := range m {
		coerced, err := coerceValue(ft.Elem(), val)
		if err != nil {
			return reflect.Value{}, fmt.Errorf("key %q: %w", k, err)
		}
		out.SetMapIndex(reflect.ValueOf(k), coerced)
	}
	return out, nil
}

func coerceStruct(ft reflect.Type, raw any) (reflect.Value, error) {
	m, ok := raw.(map[string]any)
	if !ok {
		return reflect.Value{}, fmt.Errorf("expected object, got %T", raw)
	}
	sub, err := Marshal(ft, m)
	if err != nil {
		return reflect.Value{}, err
	}
	return sub, nil
}

func coerceDefaultLiteral(ft reflect.Type, lit string) (reflect.Value, error) {
	if ft.Kind() == reflect.String {
		v := reflect.New(ft).Elem()
		v.SetString(lit)
		return v, nil
	}
	switch ft.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return coerceValue(ft, lit)
	case reflect.Bool:
		return coerceValue(ft, lit)
	case reflect.Float32, reflect.Float64:
		return coerceValue(ft, lit)
	default:
		return reflect.Zero(ft), nil
	}
}
