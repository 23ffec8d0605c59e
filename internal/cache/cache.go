// Package cache is a SQLite-backed, content-addressed cache so
// recompiling an unchanged source is a lookup rather than a re-parse.
package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/aozora-toolkit/compiler/internal/lint"
	"github.com/aozora-toolkit/compiler/internal/xhtml"
)

const migrationsSQL = `
CREATE TABLE IF NOT EXISTS compiled_documents (
	content_hash TEXT PRIMARY KEY,
	title        TEXT NOT NULL,
	xhtml        TEXT NOT NULL,
	toc_json     TEXT NOT NULL,
	diags_json   TEXT NOT NULL,
	created_at   TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// Entry is one cached compilation result.
type Entry struct {
	Title       string
	XHTML       string
	TOC         []xhtml.TocEntry
	Diagnostics []lint.Diagnostic
}

// Cache wraps a SQLite connection holding compiled documents keyed by
// content hash.
type Cache struct {
	db *sql.DB
}

// Open opens (creating if necessary) the SQLite database at path and
// ensures its schema is current.
func Open(path string) (*Cache, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("cache: opening %s: %w", path, err)
	}
	if err := EnsureSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Cache{db: db}, nil
}

// EnsureSchema runs an idempotent CREATE TABLE IF NOT EXISTS plus any
// additive-column migrations the schema has picked up since its first
// version. Safe to call on every startup.
func EnsureSchema(db *sql.DB) error {
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return fmt.Errorf("cache: enabling foreign keys: %w", err)
	}
	if _, err := db.Exec(migrationsSQL); err != nil {
		return fmt.Errorf("cache: creating schema: %w", err)
	}
	if err := ensureColumnExists(db, "compiled_documents", "compiler_version", "TEXT DEFAULT ''"); err != nil {
		return fmt.Errorf("cache: migrating schema: %w", err)
	}
	return nil
}

// ensureColumnExists adds column to table if it is not already
// present. Kept as a standalone helper (rather than inlined into
// EnsureSchema) so future schema growth follows the same additive
// pattern without touching the CREATE TABLE statement.
func ensureColumnExists(db *sql.DB, table, column, definition string) error {
	rows, err := db.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return fmt.Errorf("cache: checking table info: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var cid int
		var name, ctype string
		var notnull, pk int
		var dfltVal interface{}
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dfltVal, &pk); err != nil {
			return fmt.Errorf("cache: scanning table info: %w", err)
		}
		if name == column {
			return nil
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	query := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s;", table, column, definition)
	if _, err := db.Exec(query); err != nil {
		return fmt.Errorf("cache: adding column %s: %w", column, err)
	}
	return nil
}

// Close closes the underlying database connection.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Get returns the cached Entry for hash, if any. A miss (ok == false)
// is not an error; callers fall through to a full compile.
func (c *Cache) Get(hash string) (Entry, bool, error) {
	var e Entry
	var tocJSON, diagsJSON string
	err := c.db.QueryRow(
		`SELECT title, xhtml, toc_json, diags_json FROM compiled_documents WHERE content_hash = ?`,
		hash,
	).Scan(&e.Title, &e.XHTML, &tocJSON, &diagsJSON)
	if err == sql.ErrNoRows {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("cache: looking up %s: %w", hash, err)
	}
	if err := json.Unmarshal([]byte(tocJSON), &e.TOC); err != nil {
		return Entry{}, false, fmt.Errorf("cache: decoding cached toc for %s: %w", hash, err)
	}
	if err := json.Unmarshal([]byte(diagsJSON), &e.Diagnostics); err != nil {
		return Entry{}, false, fmt.Errorf("cache: decoding cached diagnostics for %s: %w", hash, err)
	}
	return e, true, nil
}

// DBExecutor is the subset of *sql.DB that PutTx needs, satisfied by
// both *sql.DB and *sql.Tx. internal/batch uses this to group many
// Puts from one compilation batch into a single SQLite transaction
// instead of one transaction per document.
type DBExecutor interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
}

// Put stores e under hash, replacing any existing entry. A Put error
// propagates to the caller: a cache that silently never persists is a
// bug, not a feature.
func (c *Cache) Put(hash string, e Entry) error {
	return PutTx(c.db, hash, e)
}

// PutTx is Put against an explicit executor (typically an open
// *sql.Tx), so a caller batching many writes can commit them together.
func PutTx(ex DBExecutor, hash string, e Entry) error {
	tocJSON, err := json.Marshal(e.TOC)
	if err != nil {
		return fmt.Errorf("cache: encoding toc: %w", err)
	}
	diagsJSON, err := json.Marshal(e.Diagnostics)
	if err != nil {
		return fmt.Errorf("cache: encoding diagnostics: %w", err)
	}
	_, err = ex.Exec(
		`INSERT INTO compiled_documents (content_hash, title, xhtml, toc_json, diags_json)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(content_hash) DO UPDATE SET
		   title = excluded.title,
		   xhtml = excluded.xhtml,
		   toc_json = excluded.toc_json,
		   diags_json = excluded.diags_json`,
		hash, e.Title, e.XHTML, string(tocJSON), string(diagsJSON),
	)
	if err != nil {
		return fmt.Errorf("cache: storing %s: %w", hash, err)
	}
	return nil
}

// BeginTx starts a transaction against the cache's database, for
// callers (internal/batch) that want to group several PutTx calls into
// one commit.
func (c *Cache) BeginTx(ctx context.Context) (*sql.Tx, error) {
	return c.db.BeginTx(ctx, nil)
}
