// Package handler provides the small resolve-by-identifier table that
// stands in for a dependency-injection container (spec.md §9): handler
// instances register themselves here, keyed by their Go type name, so the
// Discoverer can pair a source-level directive comment with the live value
// whose methods it reflects over.
package handler

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/mehmetkoksal-w/mcpserver/internal/argmarshal"
)

var (
	mu        sync.RWMutex
	instances = map[string]any{}
)

// Register associates name (conventionally the unqualified Go type name of
// instance, e.g. "GreeterHandler") with a live handler instance. Call from
// an init() in the package that defines the handler type.
func Register(name string, instance any) {
	mu.Lock()
	defer mu.Unlock()
	instances[name] = instance
}

// Resolve looks up a previously registered instance by name.
func Resolve(name string) (any, bool) {
	mu.RLock()
	defer mu.RUnlock()
	v, ok := instances[name]
	return v, ok
}

// Method resolves a handler instance by type name and returns the
// reflect.Value of its method by that name, failing with ConfigurationError
// semantics per spec.md §4.1: "class must exist, method must exist and be
// public, non-static, non-constructor/destructor".
func Method(typeName, methodName string) (reflect.Value, error) {
	inst, ok := Resolve(typeName)
	if !ok {
		return reflect.Value{}, fmt.Errorf("handler: unknown class %q", typeName)
	}
	v := reflect.ValueOf(inst)
	m := v.MethodByName(methodName)
	if !m.IsValid() {
		return reflect.Value{}, fmt.Errorf("handler: class %q has no public method %q", typeName, methodName)
	}
	return m, nil
}

// ParamsType resolves classID.methodName and returns its declared Params
// struct type, if it has one. Handlers whose method takes a raw
// map[string]any (no reflection-derived Params type) report false, since
// such handlers have no coercion step to validate the output of.
func ParamsType(classID, methodName string) (reflect.Type, bool) {
	m, err := Method(classID, methodName)
	if err != nil || m.Type().NumIn() != 1 {
		return nil, false
	}
	t := m.Type().In(0)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, false
	}
	return m.Type().In(0), true
}

// Invokable reports whether an instance exposes a public parameter-accepting
// Invoke or Call method — the Go analogue of "an invokable is any class
// exposing a public parameter-accepting call method" (spec.md §4.1).
func Invokable(typeName string) (reflect.Value, bool) {
	inst, ok := Resolve(typeName)
	if !ok {
		return reflect.Value{}, false
	}
	v := reflect.ValueOf(inst)
	for _, candidate := range []string{"Invoke", "Call"} {
		m := v.MethodByName(candidate)
		if m.IsValid() && m.Type().NumIn() >= 1 {
			return m, true
		}
	}
	return reflect.Value{}, false
}

// BuildInvoke resolves classID.methodName and returns a closure that
// marshals a raw arguments map against the method's declared Params type
// and calls it, unwrapping its (any, error) return pair. Resolution is
// deferred to first call rather than done eagerly, so a cache-rehydrated
// catalog entry (restored before every handler package's init() has
// necessarily run, e.g. during partial test setups) only fails if it is
// actually invoked.
func BuildInvoke(classID, methodName string) func(args map[string]any) (any, error) {
	return func(args map[string]any) (any, error) {
		m, err := Method(classID, methodName)
		if err != nil {
			return nil, err
		}
		if m.Type().NumIn() != 1 {
			return nil, fmt.Errorf("handler: %s.%s must take exactly one Params argument", classID, methodName)
		}
		pv, err := argmarshal.Marshal(m.Type().In(0), args)
		if err != nil {
			return nil, err
		}
		out := m.Call([]reflect.Value{pv})
		if len(out) > 1 && !out[1].IsNil() {
			return nil, out[1].Interface().(error)
		}
		return out[0].Interface(), nil
	}
}

// reset clears the registry; unexported, for this package's own tests that
// need a clean slate between cases.
func reset() {
	mu.Lock()
	defer mu.Unlock()
	instances = map[string]any{}
}
