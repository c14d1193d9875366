package examplehandlers

import (
	"fmt"
	"sync"
)

// Notes backs an in-memory scratchpad wired manually into the Registry
// from cmd/mcpserver, without a directive comment — the demonstration of
// the other catalog registration path alongside TimeHandler/GreeterHandler.
type Notes struct {
	mu     sync.Mutex
	nextID int
	byID   map[string]string
}

// NewNotes creates an empty scratchpad.
func NewNotes() *Notes {
	return &Notes{byID: make(map[string]string)}
}

// CreateNoteParams names the note body to store.
type CreateNoteParams struct {
	Text string `mcp:"name=text,description=Note body to store"`
}

// Create stores text and returns the assigned note ID.
func (n *Notes) Create(p CreateNoteParams) (any, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.nextID++
	id := fmt.Sprintf("%d", n.nextID)
	n.byID[id] = p.Text
	return map[string]any{"id": id}, nil
}

// Read returns the note stored under the uri's captured id variable.
func (n *Notes) Read(args map[string]any) (any, error) {
	id, _ := args["id"].(string)
	n.mu.Lock()
	defer n.mu.Unlock()
	text, ok := n.byID[id]
	if !ok {
		return nil, fmt.Errorf("note %q not found", id)
	}
	return text, nil
}
