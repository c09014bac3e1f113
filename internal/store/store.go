package store

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// Store is the SQLite session index: which files were indexed, what each
// declared, and the diagnostics each produced. The type graph itself lives
// in the registry and is never written here.
type Store struct {
	db *sql.DB
}

// NewStore opens a SQLite database at dbPath. MemoryPath (or "") opens an
// in-memory database limited to a single connection, since every
// connection to ":memory:" would otherwise see its own empty database.
func NewStore(dbPath string) (*Store, error) {
	memory := dbPath == "" || dbPath == MemoryPath
	dsn := dbPath + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=30000"
	if memory {
		dsn = MemoryPath + "?_foreign_keys=ON"
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if memory {
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for use in transactions.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Migrate creates all tables and indexes. Idempotent.
func (s *Store) Migrate() error {
	_, err := s.db.Exec(schemaDDL)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS files (
  id              INTEGER PRIMARY KEY,
  path            TEXT NOT NULL UNIQUE,
  asset_kind      TEXT NOT NULL,
  hash            TEXT,
  line_count      INTEGER DEFAULT 0,
  last_indexed    TIMESTAMP
);

CREATE TABLE IF NOT EXISTS declarations (
  id              INTEGER PRIMARY KEY,
  file_id         INTEGER NOT NULL REFERENCES files(id),
  name            TEXT NOT NULL,
  kind            TEXT NOT NULL,
  type_expr       TEXT,
  start_line      INTEGER,
  start_col       INTEGER,
  end_line        INTEGER,
  end_col         INTEGER
);

CREATE TABLE IF NOT EXISTS diagnostics (
  id              INTEGER PRIMARY KEY,
  file_id         INTEGER NOT NULL REFERENCES files(id),
  kind            TEXT NOT NULL,
  severity        TEXT NOT NULL,
  message         TEXT NOT NULL,
  start_line      INTEGER,
  start_col       INTEGER,
  end_line        INTEGER,
  end_col         INTEGER
);

CREATE TABLE IF NOT EXISTS metadata (
  key             TEXT PRIMARY KEY,
  value           TEXT
);

CREATE INDEX IF NOT EXISTS idx_files_asset_kind ON files(asset_kind);
CREATE INDEX IF NOT EXISTS idx_declarations_file ON declarations(file_id);
CREATE INDEX IF NOT EXISTS idx_declarations_name ON declarations(name);
CREATE INDEX IF NOT EXISTS idx_diagnostics_file ON diagnostics(file_id);
CREATE INDEX IF NOT EXISTS idx_diagnostics_severity ON diagnostics(severity);
`

// DeleteFileData transactionally removes a file and everything recorded
// for it.
func (s *Store) DeleteFileData(fileID int64) error {
	return s.DeleteFiles([]int64{fileID})
}

// DeleteFiles removes several files and their declarations and
// diagnostics in one transaction.
func (s *Store) DeleteFiles(fileIDs []int64) error {
	if len(fileIDs) == 0 {
		return nil
	}
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := deleteFileRowsTx(tx, fileIDs, true); err != nil {
		return err
	}
	return tx.Commit()
}

// deleteFileRowsTx deletes the declarations and diagnostics of fileIDs,
// and the files themselves when withFiles is set. Children go first to
// respect FK constraints.
func deleteFileRowsTx(tx *sql.Tx, fileIDs []int64, withFiles bool) error {
	placeholders := placeholderList(len(fileIDs))
	args := int64sToArgs(fileIDs)
	queries := []string{
		"DELETE FROM declarations WHERE file_id IN (" + placeholders + ")",
		"DELETE FROM diagnostics WHERE file_id IN (" + placeholders + ")",
	}
	if withFiles {
		queries = append(queries, "DELETE FROM files WHERE id IN ("+placeholders+")")
	}
	for _, q := range queries {
		if _, err := tx.Exec(q, args...); err != nil {
			table := strings.Fields(q)[2]
			return fmt.Errorf("delete %s: %w", table, err)
		}
	}
	return nil
}
