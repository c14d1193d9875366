// Package uritemplate implements RFC 6570 Level-1 URI template parsing and
// matching: simple {var} expressions only, one capture per path segment.
package uritemplate

import (
	"fmt"
	"regexp"
	"strings"
)

// Template is a compiled RFC 6570 Level-1 template, anchored end to end so
// that matching is unambiguous.
type Template struct {
	raw      string
	re       *regexp.Regexp
	varNames []string
}

var varExpr = regexp.MustCompile(`\{([A-Za-z0-9_]+)\}`)

// Compile parses a Level-1 template ("scheme://{a}/{b}/literal") into an
// anchored regular expression where each {var} becomes a per-segment
// capture group "(?P<var>[^/]+)" — unreserved-per-segment per RFC 3986,
// never spanning a "/" (spec.md §8's "captures are per-segment" boundary
// behavior).
func Compile(raw string) (*Template, error) {
	if raw == "" {
		return nil, fmt.Errorf("uritemplate: empty template")
	}

	var names []string
	var pattern strings.Builder
	pattern.WriteByte('^')

	last := 0
	for _, loc := range varExpr.FindAllStringSubmatchIndex(raw, -1) {
		start, end := loc[0], loc[1]
		nameStart, nameEnd := loc[2], loc[3]
		pattern.WriteString(regexp.QuoteMeta(raw[last:start]))
		name := raw[nameStart:nameEnd]
		names = append(names, name)
		pattern.WriteString(fmt.Sprintf("(?P<%s>[^/]+)", name))
		last = end
	}
	pattern.WriteString(regexp.QuoteMeta(raw[last:]))
	pattern.WriteByte('$')

	re, err := regexp.Compile(pattern.String())
	if err != nil {
		return nil, fmt.Errorf("uritemplate: compile %q: %w", raw, err)
	}
	return &Template{raw: raw, re: re, varNames: names}, nil
}

// String returns the original template text.
func (t *Template) String() string { return t.raw }

// Variables returns the ordered list of variable names this template
// captures.
func (t *Template) Variables() []string {
	out := make([]string, len(t.varNames))
	copy(out, t.varNames)
	return out
}

// Match attempts to match uri against the template. On success it returns
// the captured variables keyed by name and ok=true.
func (t *Template) Match(uri string) (vars map[string]string, ok bool) {
	m := t.re.FindStringSubmatch(uri)
	if m == nil {
		return nil, false
	}
	vars = make(map[string]string, len(t.varNames))
	for i, name := range t.re.SubexpNames() {
		if i == 0 || name == "" {
			continue
		}
		vars[name] = m[i]
	}
	return vars, true
}
