// Package config loads the server's recognized-option set from an
// optional JSONC file, falling back to defaults. Follows the teacher's
// LoadPalaceConfig/LoadGuardrails "not fatal, use defaults" idiom.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mehmetkoksal-w/mcpserver/internal/jsonc"
	"github.com/mehmetkoksal-w/mcpserver/internal/mcptype"
)

// Discovery configures the directive-comment scan that feeds the
// Registry's discovered (non-manual) entries.
type Discovery struct {
	BaseDir      string   `json:"baseDir"`
	IncludeGlobs []string `json:"includeGlobs,omitempty"`
	ExcludeGlobs []string `json:"excludeGlobs,omitempty"`
}

// Config is the server's recognized-option set.
type Config struct {
	ServerName               string `json:"serverName"`
	ServerVersion             string `json:"serverVersion"`
	CacheTTLSeconds           int    `json:"cacheTtlSeconds"`
	SessionGCIntervalSeconds  int    `json:"sessionGcIntervalSeconds"`
	PaginationPageSize        int    `json:"paginationPageSize"`
	HTTPHost                  string `json:"httpHost"`
	HTTPPort                  int    `json:"httpPort"`
	HTTPPathPrefix            string `json:"httpPathPrefix"`
	CachePath                 string `json:"cachePath"`

	Discovery Discovery `json:"discovery"`

	// Capabilities is not itself loaded from JSONC (the shape is fixed by
	// what the server actually implements); it is always the default.
	Capabilities mcptype.Capabilities `json:"-"`
}

func defaultExcludeGlobs() []string {
	return []string{
		".git/**",
		"vendor/**",
		"node_modules/**",
		"**/*_test.go",
		"**/.DS_Store",
	}
}

// Default returns the built-in option defaults.
func Default() *Config {
	return &Config{
		ServerName:               "mcpserver",
		ServerVersion:             "0.1.0",
		CacheTTLSeconds:          3600,
		SessionGCIntervalSeconds: 300,
		PaginationPageSize:       50,
		HTTPHost:                 "127.0.0.1",
		HTTPPort:                 8765,
		HTTPPathPrefix:           "/mcp",
		CachePath:                ".mcpserver/cache.db",
		Discovery: Discovery{
			BaseDir:      ".",
			IncludeGlobs: []string{"**/*.go"},
			ExcludeGlobs: defaultExcludeGlobs(),
		},
		Capabilities: mcptype.Capabilities{
			Tools:     &mcptype.ToolsCapability{ListChanged: true},
			Resources: &mcptype.ResourcesCapability{Subscribe: true, ListChanged: true},
			Prompts:   &mcptype.PromptsCapability{ListChanged: true},
			Logging:   &mcptype.LoggingCapability{},
		},
	}
}

// overlay is the subset of Config actually read from a JSONC file; it
// excludes Capabilities, which is never user-configurable.
type overlay struct {
	ServerName               string    `json:"serverName"`
	ServerVersion             string    `json:"serverVersion"`
	CacheTTLSeconds           int       `json:"cacheTtlSeconds"`
	SessionGCIntervalSeconds  int       `json:"sessionGcIntervalSeconds"`
	PaginationPageSize        int       `json:"paginationPageSize"`
	HTTPHost                  string    `json:"httpHost"`
	HTTPPort                  int       `json:"httpPort"`
	HTTPPathPrefix            string    `json:"httpPathPrefix"`
	CachePath                 string    `json:"cachePath"`
	Discovery                 Discovery `json:"discovery"`
}

// Load reads path as JSONC and overlays non-zero fields onto the
// defaults. A missing file is not fatal: Load returns the defaults
// unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("stat config %s: %w", path, err)
	}

	var o overlay
	if err := jsonc.DecodeFile(path, &o); err != nil {
		return nil, err
	}

	if o.ServerName != "" {
		cfg.ServerName = o.ServerName
	}
	if o.ServerVersion != "" {
		cfg.ServerVersion = o.ServerVersion
	}
	if o.CacheTTLSeconds != 0 {
		cfg.CacheTTLSeconds = o.CacheTTLSeconds
	}
	if o.SessionGCIntervalSeconds != 0 {
		cfg.SessionGCIntervalSeconds = o.SessionGCIntervalSeconds
	}
	if o.PaginationPageSize != 0 {
		cfg.PaginationPageSize = o.PaginationPageSize
	}
	if o.HTTPHost != "" {
		cfg.HTTPHost = o.HTTPHost
	}
	if o.HTTPPort != 0 {
		cfg.HTTPPort = o.HTTPPort
	}
	if o.HTTPPathPrefix != "" {
		cfg.HTTPPathPrefix = o.HTTPPathPrefix
	}
	if o.CachePath != "" {
		cfg.CachePath = o.CachePath
	}
	if o.Discovery.BaseDir != "" {
		cfg.Discovery.BaseDir = o.Discovery.BaseDir
	}
	if len(o.Discovery.IncludeGlobs) > 0 {
		cfg.Discovery.IncludeGlobs = normalizeGlobs(o.Discovery.IncludeGlobs)
	}
	if len(o.Discovery.ExcludeGlobs) > 0 {
		cfg.Discovery.ExcludeGlobs = mergeGlobs(defaultExcludeGlobs(), o.Discovery.ExcludeGlobs)
	}

	return cfg, nil
}

// mergeGlobs appends user globs onto defaults, de-duplicating and
// normalizing path separators, preserving first-seen order.
func mergeGlobs(defaults, user []string) []string {
	seen := make(map[string]struct{})
	var merged []string
	appendIfMissing := func(globs []string) {
		for _, g := range globs {
			norm := normalizeGlob(g)
			if norm == "" {
				continue
			}
			if _, ok := seen[norm]; ok {
				continue
			}
			seen[norm] = struct{}{}
			merged = append(merged, norm)
		}
	}
	appendIfMissing(defaults)
	appendIfMissing(user)
	return merged
}

func normalizeGlobs(globs []string) []string {
	out := make([]string, 0, len(globs))
	for _, g := range globs {
		if norm := normalizeGlob(g); norm != "" {
			out = append(out, norm)
		}
	}
	return out
}

func normalizeGlob(g string) string {
	trimmed := strings.TrimSpace(g)
	if trimmed == "" {
		return ""
	}
	trimmed = strings.ReplaceAll(trimmed, "\\", "/")
	for strings.Contains(trimmed, "//") {
		trimmed = strings.ReplaceAll(trimmed, "//", "/")
	}
	return filepath.ToSlash(trimmed)
}
