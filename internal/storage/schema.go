package storage

import (
	"database/sql"
	"fmt"

	"github.com/mvp-joe/project-cortex/internal/ir"
)

// SchemaVersion is the current schema version this binary understands.
// Opening a store stamped with a higher version fails with SchemaMismatch
// rather than silently misreading rows.
const SchemaVersion = 1

// CreateSchema creates every table, index, and FTS virtual table for the
// code graph store. Safe to call on an already-initialized database:
// table creation uses CREATE TABLE IF NOT EXISTS throughout.
func CreateSchema(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin schema transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return fmt.Errorf("enable foreign keys: %w", err)
	}

	tables := []struct {
		name string
		ddl  string
	}{
		{"commit_snapshot", createCommitSnapshotTable},
		{"file", createFileTable},
		{"symbol", createSymbolTable},
		{"edge", createEdgeTable},
		{"occurrence", createOccurrenceTable},
		{"schema_meta", createSchemaMetaTable},
	}
	for _, t := range tables {
		if _, err := tx.Exec(t.ddl); err != nil {
			return fmt.Errorf("create %s table: %w", t.name, err)
		}
	}

	for i, idx := range getAllIndexes() {
		if _, err := tx.Exec(idx); err != nil {
			return fmt.Errorf("create index %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema transaction: %w", err)
	}

	// FTS5 virtual tables and their sync triggers must be created outside
	// the transaction; SQLite disallows DDL on virtual tables mid-transaction
	// alongside ordinary table DDL in some configurations.
	if _, err := db.Exec(createSymbolFTSTable); err != nil {
		return fmt.Errorf("create symbol_fts table: %w", err)
	}
	if err := createFTSTriggers(db); err != nil {
		return fmt.Errorf("create fts triggers: %w", err)
	}

	return stampSchemaVersion(db)
}

func stampSchemaVersion(db *sql.DB) error {
	_, err := db.Exec(
		`INSERT INTO schema_meta (key, value) VALUES ('schema_version', ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		fmt.Sprintf("%d", SchemaVersion),
	)
	return err
}

// GetSchemaVersion returns the schema version stamped on db, or 0 if the
// database has never had CreateSchema run against it.
func GetSchemaVersion(db *sql.DB) (int, error) {
	var exists int
	err := db.QueryRow(
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_meta'",
	).Scan(&exists)
	if err != nil {
		return 0, fmt.Errorf("check schema_meta existence: %w", err)
	}
	if exists == 0 {
		return 0, nil
	}
	var v int
	err = db.QueryRow("SELECT value FROM schema_meta WHERE key = 'schema_version'").Scan(&v)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("query schema version: %w", err)
	}
	return v, nil
}

// EnsureSchema opens (creating if absent) the schema, failing with
// SchemaMismatch if the stamped version is newer than this binary knows.
func EnsureSchema(db *sql.DB) error {
	v, err := GetSchemaVersion(db)
	if err != nil {
		return err
	}
	if v == 0 {
		return CreateSchema(db)
	}
	if v > SchemaVersion {
		return ir.NewError(ir.KindSchemaMismatch, "schema", "",
			fmt.Errorf("schema version %d is newer than supported version %d", v, SchemaVersion))
	}
	return nil
}

const createCommitSnapshotTable = `
CREATE TABLE IF NOT EXISTS commit_snapshot (
    commit_id TEXT PRIMARY KEY,
    timestamp INTEGER NOT NULL,
    parent TEXT
)
`

const createFileTable = `
CREATE TABLE IF NOT EXISTS file (
    commit_id TEXT NOT NULL,
    path TEXT NOT NULL,
    content_hash TEXT NOT NULL,
    language TEXT NOT NULL,
    PRIMARY KEY (commit_id, path),
    FOREIGN KEY (commit_id) REFERENCES commit_snapshot(commit_id) ON DELETE CASCADE
)
`

const createSymbolTable = `
CREATE TABLE IF NOT EXISTS symbol (
    id TEXT NOT NULL,
    commit_id TEXT NOT NULL,
    kind TEXT NOT NULL,
    name TEXT NOT NULL,
    fqn TEXT NOT NULL,
    signature TEXT,
    sig_hash TEXT NOT NULL,
    language TEXT NOT NULL,
    file_path TEXT NOT NULL,
    span_start INTEGER NOT NULL,
    span_end INTEGER NOT NULL,
    visibility TEXT,
    doc TEXT,
    PRIMARY KEY (id),
    UNIQUE (commit_id, fqn, sig_hash),
    FOREIGN KEY (commit_id) REFERENCES commit_snapshot(commit_id) ON DELETE CASCADE
)
`

const createEdgeTable = `
CREATE TABLE IF NOT EXISTS edge (
    row_id TEXT PRIMARY KEY,
    commit_id TEXT NOT NULL,
    type TEXT NOT NULL,
    src TEXT NOT NULL DEFAULT '',
    dst TEXT NOT NULL DEFAULT '',
    file_src TEXT NOT NULL DEFAULT '',
    file_dst TEXT NOT NULL DEFAULT '',
    resolution TEXT NOT NULL,
    provenance TEXT NOT NULL DEFAULT '',
    meta TEXT NOT NULL DEFAULT '{}',
    UNIQUE (commit_id, src, dst, type, resolution, file_src, file_dst),
    FOREIGN KEY (commit_id) REFERENCES commit_snapshot(commit_id) ON DELETE CASCADE
)
`

const createOccurrenceTable = `
CREATE TABLE IF NOT EXISTS occurrence (
    row_id TEXT PRIMARY KEY,
    commit_id TEXT NOT NULL,
    file_path TEXT NOT NULL,
    symbol_id TEXT NOT NULL DEFAULT '',
    role TEXT NOT NULL,
    start_line INTEGER NOT NULL,
    start_col INTEGER NOT NULL,
    end_line INTEGER NOT NULL,
    end_col INTEGER NOT NULL,
    token TEXT NOT NULL,
    UNIQUE (commit_id, file_path, symbol_id, role, start_line, start_col, end_line, end_col, token),
    FOREIGN KEY (commit_id) REFERENCES commit_snapshot(commit_id) ON DELETE CASCADE
)
`

const createSchemaMetaTable = `
CREATE TABLE IF NOT EXISTS schema_meta (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
)
`

const createSymbolFTSTable = `
CREATE VIRTUAL TABLE IF NOT EXISTS symbol_fts USING fts5(
    symbol_id UNINDEXED,
    name,
    fqn,
    doc,
    token,
    tokenize = "unicode61 separators '._'"
)
`

func getAllIndexes() []string {
	return []string{
		"CREATE INDEX IF NOT EXISTS idx_symbol_commit_fqn ON symbol(commit_id, fqn)",
		"CREATE INDEX IF NOT EXISTS idx_symbol_file ON symbol(commit_id, file_path)",
		"CREATE INDEX IF NOT EXISTS idx_symbol_name ON symbol(name)",
		"CREATE INDEX IF NOT EXISTS idx_edge_src ON edge(src, type, commit_id)",
		"CREATE INDEX IF NOT EXISTS idx_edge_dst ON edge(dst, type, commit_id)",
		"CREATE INDEX IF NOT EXISTS idx_edge_file_src ON edge(file_src, type, commit_id)",
		"CREATE INDEX IF NOT EXISTS idx_edge_file_dst ON edge(file_dst, type, commit_id)",
		"CREATE INDEX IF NOT EXISTS idx_occurrence_symbol ON occurrence(symbol_id, commit_id)",
		"CREATE INDEX IF NOT EXISTS idx_occurrence_file ON occurrence(file_path, commit_id)",
		"CREATE INDEX IF NOT EXISTS idx_file_commit ON file(commit_id)",
	}
}

// createFTSTriggers keeps symbol_fts in sync with symbol via insert and
// delete triggers, and keeps its token column in sync with every
// occurrence recorded against a symbol (so a search matches any call
// site's literal text, not just the declaration) via occurrence insert
// and delete triggers.
func createFTSTriggers(db *sql.DB) error {
	triggers := []string{
		`CREATE TRIGGER IF NOT EXISTS symbol_fts_insert AFTER INSERT ON symbol
		BEGIN
			DELETE FROM symbol_fts WHERE symbol_id = NEW.id;
			INSERT INTO symbol_fts(symbol_id, name, fqn, doc, token)
			VALUES (NEW.id, NEW.name, NEW.fqn, COALESCE(NEW.doc, ''), '');
		END`,
		`CREATE TRIGGER IF NOT EXISTS symbol_fts_delete AFTER DELETE ON symbol
		BEGIN
			DELETE FROM symbol_fts WHERE symbol_id = OLD.id;
		END`,
		`CREATE TRIGGER IF NOT EXISTS occurrence_fts_insert AFTER INSERT ON occurrence
		WHEN NEW.symbol_id != ''
		BEGIN
			UPDATE symbol_fts SET token = (
				SELECT COALESCE(GROUP_CONCAT(token, ' '), '') FROM occurrence WHERE symbol_id = NEW.symbol_id
			) WHERE symbol_id = NEW.symbol_id;
		END`,
		`CREATE TRIGGER IF NOT EXISTS occurrence_fts_delete AFTER DELETE ON occurrence
		WHEN OLD.symbol_id != ''
		BEGIN
			UPDATE symbol_fts SET token = (
				SELECT COALESCE(GROUP_CONCAT(token, ' '), '') FROM occurrence WHERE symbol_id = OLD.symbol_id
			) WHERE symbol_id = OLD.symbol_id;
		END`,
	}
	for i, trig := range triggers {
		if _, err := db.Exec(trig); err != nil {
			return fmt.Errorf("create trigger %d: %w", i+1, err)
		}
	}
	return nil
}
