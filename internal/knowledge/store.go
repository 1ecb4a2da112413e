// Package knowledge implements the persistent knowledge store for thoughtbox.
//
// It keeps products, taxonomy items, entities, relationships, export
// history and workspace settings in a local SQLite database. Every
// operation returns a tagged *Error on failure (not found, validation,
// store unavailable). Multi-row mutations run in one transaction.
package knowledge

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// DBFile is the database filename inside Config.DataDir.
const DBFile = "thoughtbox.db"

// ─── Config ──────────────────────────────────────────────────────────────────

// Config holds store configuration.
type Config struct {
	DataDir string
	// Now is the clock used for timestamps. Defaults to time.Now.
	Now func() time.Time
}

// ─── Store ───────────────────────────────────────────────────────────────────

// Store is the knowledge store backed by SQLite.
type Store struct {
	db    *sql.DB
	cfg   Config
	hooks storeHooks
}

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

type queryer interface {
	Query(query string, args ...any) (*sql.Rows, error)
}

type rowQueryer interface {
	QueryRow(query string, args ...any) *sql.Row
}

// dbtx is satisfied by both *sql.DB and *sql.Tx.
type dbtx interface {
	execer
	queryer
	rowQueryer
}

type storeHooks struct {
	exec    func(db execer, query string, args ...any) (sql.Result, error)
	query   func(db queryer, query string, args ...any) (*sql.Rows, error)
	beginTx func(db *sql.DB) (*sql.Tx, error)
	commit  func(tx *sql.Tx) error
}

func (s *Store) execHook(db execer, query string, args ...any) (sql.Result, error) {
	if s.hooks.exec != nil {
		return s.hooks.exec(db, query, args...)
	}
	return db.Exec(query, args...)
}

func (s *Store) queryHook(db queryer, query string, args ...any) (*sql.Rows, error) {
	if s.hooks.query != nil {
		return s.hooks.query(db, query, args...)
	}
	return db.Query(query, args...)
}

func (s *Store) beginTxHook() (*sql.Tx, error) {
	if s.hooks.beginTx != nil {
		return s.hooks.beginTx(s.db)
	}
	return s.db.Begin()
}

func (s *Store) commitHook(tx *sql.Tx) error {
	if s.hooks.commit != nil {
		return s.hooks.commit(tx)
	}
	return tx.Commit()
}

// New creates a Store with the given configuration.
// It creates the data directory if needed, opens SQLite with WAL mode and
// foreign keys on every pooled connection, and runs migrations.
func New(cfg Config) (*Store, error) {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
		return nil, fmt.Errorf("knowledge: create data dir: %w", err)
	}

	dbPath := filepath.Join(cfg.DataDir, DBFile)
	dsn := "file:" + dbPath +
		"?_pragma=journal_mode(WAL)" +
		"&_pragma=busy_timeout(5000)" +
		"&_pragma=synchronous(NORMAL)" +
		"&_pragma=foreign_keys(1)"
	db, err := openDB("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("knowledge: open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("knowledge: ping database: %w", err)
	}

	s := &Store{db: db, cfg: cfg}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("knowledge: migration: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ─── Migrations ──────────────────────────────────────────────────────────────

const schema = `
	CREATE TABLE IF NOT EXISTS products (
		id               TEXT PRIMARY KEY,
		name             TEXT NOT NULL,
		description      TEXT,
		icon             TEXT,
		created_at       TEXT NOT NULL,
		updated_at       TEXT NOT NULL,
		last_activity_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS taxonomy_items (
		id         TEXT PRIMARY KEY,
		kind       TEXT    NOT NULL CHECK (kind IN ('persona', 'feature_area', 'dimension', 'dimension_value')),
		scope_id   TEXT    NOT NULL,
		name       TEXT    NOT NULL,
		archived   INTEGER NOT NULL DEFAULT 0,
		created_at TEXT    NOT NULL,
		updated_at TEXT    NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_tax_scope ON taxonomy_items(kind, scope_id);

	CREATE TABLE IF NOT EXISTS entities (
		id             TEXT PRIMARY KEY,
		product_id     TEXT NOT NULL,
		type           TEXT NOT NULL,
		title          TEXT NOT NULL DEFAULT '',
		body           TEXT NOT NULL DEFAULT '',
		status         TEXT,
		metadata       TEXT,
		promoted_to_id TEXT,
		created_at     TEXT NOT NULL,
		updated_at     TEXT NOT NULL,
		FOREIGN KEY (product_id)     REFERENCES products(id) ON DELETE CASCADE,
		FOREIGN KEY (promoted_to_id) REFERENCES entities(id) ON DELETE SET NULL
	);

	CREATE INDEX IF NOT EXISTS idx_ent_product ON entities(product_id, created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_ent_type    ON entities(type);
	CREATE INDEX IF NOT EXISTS idx_ent_updated ON entities(updated_at);

	CREATE TABLE IF NOT EXISTS entity_personas (
		entity_id  TEXT    NOT NULL,
		persona_id TEXT    NOT NULL,
		position   INTEGER NOT NULL,
		PRIMARY KEY (entity_id, persona_id),
		FOREIGN KEY (entity_id)  REFERENCES entities(id)       ON DELETE CASCADE,
		FOREIGN KEY (persona_id) REFERENCES taxonomy_items(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS entity_features (
		entity_id  TEXT    NOT NULL,
		feature_id TEXT    NOT NULL,
		position   INTEGER NOT NULL,
		PRIMARY KEY (entity_id, feature_id),
		FOREIGN KEY (entity_id)  REFERENCES entities(id)       ON DELETE CASCADE,
		FOREIGN KEY (feature_id) REFERENCES taxonomy_items(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS entity_dimension_values (
		entity_id TEXT    NOT NULL,
		value_id  TEXT    NOT NULL,
		position  INTEGER NOT NULL,
		PRIMARY KEY (entity_id, value_id),
		FOREIGN KEY (entity_id) REFERENCES entities(id)       ON DELETE CASCADE,
		FOREIGN KEY (value_id)  REFERENCES taxonomy_items(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_ep_persona ON entity_personas(persona_id);
	CREATE INDEX IF NOT EXISTS idx_ef_feature ON entity_features(feature_id);
	CREATE INDEX IF NOT EXISTS idx_edv_value  ON entity_dimension_values(value_id);

	CREATE TABLE IF NOT EXISTS relationships (
		id         TEXT PRIMARY KEY,
		product_id TEXT NOT NULL,
		source_id  TEXT NOT NULL,
		target_id  TEXT NOT NULL,
		type       TEXT NOT NULL DEFAULT 'relates_to',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		CHECK (source_id <> target_id),
		FOREIGN KEY (product_id) REFERENCES products(id) ON DELETE CASCADE,
		FOREIGN KEY (source_id)  REFERENCES entities(id) ON DELETE CASCADE,
		FOREIGN KEY (target_id)  REFERENCES entities(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_rel_source  ON relationships(source_id);
	CREATE INDEX IF NOT EXISTS idx_rel_target  ON relationships(target_id);
	CREATE INDEX IF NOT EXISTS idx_rel_product ON relationships(product_id);

	CREATE TABLE IF NOT EXISTS export_records (
		id             TEXT PRIMARY KEY,
		scope          TEXT    NOT NULL,
		product_id     TEXT,
		mode           TEXT    NOT NULL,
		since          TEXT,
		include_linked INTEGER NOT NULL DEFAULT 0,
		total          INTEGER NOT NULL,
		counts         TEXT    NOT NULL,
		output_path    TEXT    NOT NULL,
		created_at     TEXT    NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_export_created ON export_records(created_at DESC);

	CREATE TABLE IF NOT EXISTS settings (
		id                       INTEGER PRIMARY KEY CHECK (id = 1),
		workspace_path           TEXT    NOT NULL,
		last_product_id          TEXT,
		restore_last_product     INTEGER NOT NULL,
		default_export_mode      TEXT    NOT NULL,
		default_incremental_days INTEGER NOT NULL,
		include_linked_context   INTEGER NOT NULL
	);
`

func (s *Store) migrate() error {
	_, err := s.execHook(s.db, schema)
	return err
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

// timeLayout is fixed-width so that lexical order equals time order.
const timeLayout = "2006-01-02T15:04:05.000Z"

func (s *Store) now() time.Time {
	return s.cfg.Now().UTC().Truncate(time.Millisecond)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(v string) (time.Time, error) {
	t, err := time.Parse(timeLayout, v)
	if err != nil {
		// Tolerate rows written by hand or by older builds.
		return time.Parse(time.RFC3339Nano, v)
	}
	return t, nil
}

func newID() string {
	return uuid.NewString()
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// withTx runs fn inside a transaction and commits it. Any error rolls back.
func (s *Store) withTx(op string, fn func(tx *sql.Tx) error) error {
	tx, err := s.beginTxHook()
	if err != nil {
		return unavailable(op, fmt.Errorf("begin transaction: %w", err))
	}
	defer tx.Rollback() //nolint:errcheck

	if err := fn(tx); err != nil {
		return unavailable(op, err)
	}
	if err := s.commitHook(tx); err != nil {
		return unavailable(op, fmt.Errorf("commit transaction: %w", err))
	}
	return nil
}

