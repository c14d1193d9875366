// Package cache persists the Registry's discovered catalog entries to a
// local SQLite database, so that a restart does not require rescanning
// the workspace. Modeled on the teacher's memory.Open: WAL mode, a
// busy_timeout pragma, schema created on first open.
package cache

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Cache wraps a SQLite connection holding the discovered-entry snapshot.
type Cache struct {
	db *sql.DB
}

// Entry is one cached catalog row: Kind is "tool", "resource",
// "resourceTemplate", or "prompt"; Key is the entry's name or URI
// template; Payload is its JSON-encoded catalog value.
type Entry struct {
	Kind           string
	Key            string
	Payload        []byte
	SchemaVersion  int
	UpdatedAt      time.Time
}

const currentSchemaVersion = 1

// Open creates or opens the cache database at path, ensuring its parent
// directory and schema exist.
func Open(path string) (*Cache, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create cache dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open cache db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(context.Background(), p); err != nil {
			db.Close()
			return nil, fmt.Errorf("set pragma: %w", err)
		}
	}

	c := &Cache{db: db}
	if err := c.ensureSchema(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return c, nil
}

func (c *Cache) ensureSchema(ctx context.Context) error {
	_, err := c.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS cache_entries (
			kind           TEXT NOT NULL,
			key            TEXT NOT NULL,
			payload        BLOB NOT NULL,
			schema_version INTEGER NOT NULL,
			updated_at     TIMESTAMP NOT NULL,
			PRIMARY KEY (kind, key)
		)`)
	return err
}

// Close closes the underlying database connection.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Put upserts a cache entry.
func (c *Cache) Put(ctx context.Context, kind, key string, payload []byte) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO cache_entries (kind, key, payload, schema_version, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(kind, key) DO UPDATE SET
			payload = excluded.payload,
			schema_version = excluded.schema_version,
			updated_at = excluded.updated_at
	`, kind, key, payload, currentSchemaVersion, time.Now().UTC())
	return err
}

// DeleteKind removes every entry of the given kind, used before a bulk
// re-save of a freshly rediscovered catalog.
func (c *Cache) DeleteKind(ctx context.Context, kind string) error {
	_, err := c.db.ExecContext(ctx, `DELETE FROM cache_entries WHERE kind = ?`, kind)
	return err
}

// List returns every cached entry of the given kind whose schema_version
// matches the current build, ordered by last write, oldest first (an upsert
// moves an entry to the end). Entries from a stale
// schema version are silently skipped — the caller is expected to
// rediscover and resave them.
func (c *Cache) List(ctx context.Context, kind string) ([]Entry, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT key, payload, schema_version, updated_at
		FROM cache_entries
		WHERE kind = ? AND schema_version = ?
		ORDER BY updated_at ASC
	`, kind, currentSchemaVersion)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		e.Kind = kind
		if err := rows.Scan(&e.Key, &e.Payload, &e.SchemaVersion, &e.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
