package cache

import (
	"context"
	"path/filepath"
	"testing"
)

func TestPutListRoundTrip(t *testing.T) {
	c, err := Open(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer c.Close()

	ctx := context.Background()
	if err := c.Put(ctx, "tool", "greet", []byte(`{"name":"greet"}`)); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := c.Put(ctx, "tool", "echo", []byte(`{"name":"echo"}`)); err != nil {
		t.Fatalf("Put: %v", err)
	}

	entries, err := c.List(ctx, "tool")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
}

func TestPutUpsertsExistingKey(t *testing.T) {
	c, err := Open(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer c.Close()

	ctx := context.Background()
	c.Put(ctx, "tool", "greet", []byte(`{"v":1}`))
	c.Put(ctx, "tool", "greet", []byte(`{"v":2}`))

	entries, err := c.List(ctx, "tool")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1 (upsert)", len(entries))
	}
	if string(entries[0].Payload) != `{"v":2}` {
		t.Errorf("payload = %s, want latest value", entries[0].Payload)
	}
}

func TestDeleteKind(t *testing.T) {
	c, err := Open(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer c.Close()

	ctx := context.Background()
	c.Put(ctx, "resource", "config://a", []byte(`{}`))
	if err := c.DeleteKind(ctx, "resource"); err != nil {
		t.Fatalf("DeleteKind: %v", err)
	}
	entries, err := c.List(ctx, "resource")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("got %d entries after DeleteKind, want 0", len(entries))
	}
}
