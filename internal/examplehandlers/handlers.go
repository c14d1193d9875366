// Package examplehandlers demonstrates both catalog registration paths:
// TimeHandler's method carries a //mcp:tool directive and is picked up by
// the Discoverer, while Notes (in manual.go) is wired directly into the
// Registry from cmd/mcpserver without ever touching a directive comment.
package examplehandlers

import (
	"time"

	"github.com/mehmetkoksal-w/mcpserver/internal/handler"
)

func init() {
	handler.Register("TimeHandler", &TimeHandler{})
	handler.Register("GreeterHandler", &GreeterHandler{})
}

// TimeHandler exposes the current server time as a discovered tool.
type TimeHandler struct{}

// CurrentTimeParams takes an optional IANA zone name, defaulting to UTC.
type CurrentTimeParams struct {
	Zone string `mcp:"name=zone,default=UTC,description=IANA time zone name"`
}

//mcp:tool name=current_time description="Returns the current time in the requested zone"
func (h *TimeHandler) CurrentTime(p CurrentTimeParams) (any, error) {
	loc, err := time.LoadLocation(p.Zone)
	if err != nil {
		loc = time.UTC
	}
	return time.Now().In(loc).Format(time.RFC3339), nil
}

// GreeterHandler backs a discovered prompt.
type GreeterHandler struct{}

// GreetParams names who to greet and in which language.
type GreetParams struct {
	Name     string `mcp:"name=name,description=Person to greet"`
	Language string `mcp:"name=language,default=en,enum=en|tr|fr,description=Greeting language"`
}

//mcp:prompt name=greeting description="Produces a friendly greeting prompt"
func (h *GreeterHandler) Greet(p GreetParams) (any, error) {
	greetings := map[string]string{
		"en": "Hello",
		"tr": "Merhaba",
		"fr": "Bonjour",
	}
	word, ok := greetings[p.Language]
	if !ok {
		word = greetings["en"]
	}
	return map[string]any{"user": word + ", " + p.Name + "!"}, nil
}
