package store

import (
	"database/sql"
	"fmt"
)

// CommitBatch writes a BatchedStore to SQLite within a single transaction.
// Stored rows of the files marked with Replace are deleted first, then the
// buffered declarations and diagnostics are inserted with real
// (AUTOINCREMENT) IDs.
func (s *Store) CommitBatch(batch *BatchedStore) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("commit batch: begin: %w", err)
	}
	defer tx.Rollback()

	if replaced := batch.ReplacedFiles(); len(replaced) > 0 {
		if err := deleteFileRowsTx(tx, replaced, false); err != nil {
			return fmt.Errorf("commit batch: %w", err)
		}
	}

	batch.mu.Lock()
	defer batch.mu.Unlock()

	for i := range batch.Declarations {
		d := &batch.Declarations[i]
		if _, err := insertDeclarationTx(tx, d); err != nil {
			return fmt.Errorf("commit batch: declaration %q: %w", d.Name, err)
		}
	}
	for i := range batch.Diagnostics {
		d := &batch.Diagnostics[i]
		if _, err := insertDiagnosticTx(tx, d); err != nil {
			return fmt.Errorf("commit batch: diagnostic %q: %w", d.Message, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}
	batch.Declarations = nil
	batch.Diagnostics = nil
	batch.replaced = make(map[int64]bool)
	return nil
}

func insertDeclarationTx(tx *sql.Tx, d *Declaration) (int64, error) {
	res, err := tx.Exec(
		`INSERT INTO declarations (file_id, name, kind, type_expr, start_line, start_col, end_line, end_col)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		d.FileID, d.Name, d.Kind, d.TypeExpr, d.StartLine, d.StartCol, d.EndLine, d.EndCol,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func insertDiagnosticTx(tx *sql.Tx, d *Diagnostic) (int64, error) {
	res, err := tx.Exec(
		`INSERT INTO diagnostics (file_id, kind, severity, message, start_line, start_col, end_line, end_col)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		d.FileID, d.Kind, d.Severity, d.Message, d.StartLine, d.StartCol, d.EndLine, d.EndCol,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}
