package handler

import "testing"

type greeter struct{}

func (g *greeter) Greet(name string) string { return "Hello, " + name + "!" }

func TestRegisterAndMethod(t *testing.T) {
	reset()
	defer reset()

	Register("greeter", &greeter{})

	m, err := Method("greeter", "Greet")
	if err != nil {
		t.Fatalf("Method: %v", err)
	}
	if m.Type().NumIn() != 1 {
		t.Errorf("NumIn = %d, want 1", m.Type().NumIn())
	}
}

func TestMethodUnknownClass(t *testing.T) {
	reset()
	if _, err := Method("nope", "Greet"); err == nil {
		t.Error("expected error for unknown class")
	}
}

func TestMethodUnknownMethod(t *testing.T) {
	reset()
	defer reset()
	Register("greeter", &greeter{})
	if _, err := Method("greeter", "Nope"); err == nil {
		t.Error("expected error for unknown method")
	}
}
