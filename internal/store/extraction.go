package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// --- File operations ---

func (s *Store) InsertFile(f *File) (int64, error) {
	res, err := s.db.Exec(
		"INSERT INTO files (path, asset_kind, hash, line_count, last_indexed) VALUES (?, ?, ?, ?, ?)",
		f.Path, f.AssetKind, f.Hash, f.LineCount, f.LastIndexed,
	)
	if err != nil {
		return 0, fmt.Errorf("insert file: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	f.ID = id
	return id, nil
}

// UpdateFile rewrites the bookkeeping columns of an existing file row.
func (s *Store) UpdateFile(f *File) error {
	_, err := s.db.Exec(
		"UPDATE files SET asset_kind = ?, hash = ?, line_count = ?, last_indexed = ? WHERE id = ?",
		f.AssetKind, f.Hash, f.LineCount, f.LastIndexed, f.ID,
	)
	if err != nil {
		return fmt.Errorf("update file: %w", err)
	}
	return nil
}

// UpsertFile inserts f or, when its path is already indexed, updates the
// existing row. f.ID is set either way.
func (s *Store) UpsertFile(f *File) error {
	existing, err := s.FileByPath(f.Path)
	if err != nil {
		return err
	}
	if existing == nil {
		_, err := s.InsertFile(f)
		return err
	}
	f.ID = existing.ID
	return s.UpdateFile(f)
}

const fileCols = "id, path, asset_kind, hash, line_count, last_indexed"

func scanFile(scanner interface{ Scan(...any) error }) (*File, error) {
	f := &File{}
	err := scanner.Scan(&f.ID, &f.Path, &f.AssetKind, &f.Hash, &f.LineCount, &f.LastIndexed)
	return f, err
}

func (s *Store) FileByPath(path string) (*File, error) {
	f, err := scanFile(s.db.QueryRow("SELECT "+fileCols+" FROM files WHERE path = ?", path))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("file by path: %w", err)
	}
	return f, nil
}

// FileByID returns the file row with id, or nil.
func (s *Store) FileByID(id int64) (*File, error) {
	f, err := scanFile(s.db.QueryRow("SELECT "+fileCols+" FROM files WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("file by id: %w", err)
	}
	return f, nil
}

func (s *Store) queryFiles(query string, args ...any) ([]*File, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var files []*File
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan file: %w", err)
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

// Files returns every indexed file ordered by path.
func (s *Store) Files() ([]*File, error) {
	return s.queryFiles("SELECT " + fileCols + " FROM files ORDER BY path")
}

// FilesByAssetKind returns the files of one asset kind ordered by path.
func (s *Store) FilesByAssetKind(kind string) ([]*File, error) {
	return s.queryFiles("SELECT "+fileCols+" FROM files WHERE asset_kind = ? ORDER BY path", kind)
}

// FilesNotIn returns the indexed files whose path is not in paths.
func (s *Store) FilesNotIn(paths []string) ([]*File, error) {
	if len(paths) == 0 {
		return s.Files()
	}
	return s.queryFiles(
		"SELECT "+fileCols+" FROM files WHERE path NOT IN ("+placeholderList(len(paths))+") ORDER BY path",
		stringsToArgs(paths)...,
	)
}

// --- Declaration operations ---

func (s *Store) InsertDeclaration(d *Declaration) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO declarations (file_id, name, kind, type_expr, start_line, start_col, end_line, end_col)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		d.FileID, d.Name, d.Kind, d.TypeExpr, d.StartLine, d.StartCol, d.EndLine, d.EndCol,
	)
	if err != nil {
		return 0, fmt.Errorf("insert declaration: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	d.ID = id
	return id, nil
}

// DeclarationCols is the column list for declaration queries.
const DeclarationCols = "id, file_id, name, kind, type_expr, start_line, start_col, end_line, end_col"

func scanDeclaration(scanner interface{ Scan(...any) error }) (*Declaration, error) {
	d := &Declaration{}
	err := scanner.Scan(&d.ID, &d.FileID, &d.Name, &d.Kind, &d.TypeExpr,
		&d.StartLine, &d.StartCol, &d.EndLine, &d.EndCol)
	return d, err
}

func (s *Store) queryDeclarations(query string, args ...any) ([]*Declaration, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var decls []*Declaration
	for rows.Next() {
		d, err := scanDeclaration(rows)
		if err != nil {
			return nil, fmt.Errorf("scan declaration: %w", err)
		}
		decls = append(decls, d)
	}
	return decls, rows.Err()
}

func (s *Store) DeclarationsByFile(fileID int64) ([]*Declaration, error) {
	return s.queryDeclarations("SELECT "+DeclarationCols+" FROM declarations WHERE file_id = ? ORDER BY id", fileID)
}

// DeclarationsByName returns every declaration of name in insertion order.
func (s *Store) DeclarationsByName(name string) ([]*Declaration, error) {
	return s.queryDeclarations("SELECT "+DeclarationCols+" FROM declarations WHERE name = ? ORDER BY id", name)
}

// DeclaringFiles returns the paths of the files that declare name.
func (s *Store) DeclaringFiles(name string) ([]string, error) {
	rows, err := s.db.Query(
		`SELECT DISTINCT f.path FROM declarations d JOIN files f ON f.id = d.file_id
		 WHERE d.name = ? ORDER BY f.path`, name)
	if err != nil {
		return nil, fmt.Errorf("declaring files: %w", err)
	}
	defer rows.Close()
	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("scan path: %w", err)
		}
		paths = append(paths, p)
	}
	return paths, rows.Err()
}

// --- Diagnostic operations ---

func (s *Store) InsertDiagnostic(d *Diagnostic) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO diagnostics (file_id, kind, severity, message, start_line, start_col, end_line, end_col)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		d.FileID, d.Kind, d.Severity, d.Message, d.StartLine, d.StartCol, d.EndLine, d.EndCol,
	)
	if err != nil {
		return 0, fmt.Errorf("insert diagnostic: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	d.ID = id
	return id, nil
}

const diagnosticCols = "id, file_id, kind, severity, message, start_line, start_col, end_line, end_col"

func (s *Store) queryDiagnostics(query string, args ...any) ([]*Diagnostic, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var diags []*Diagnostic
	for rows.Next() {
		d := &Diagnostic{}
		if err := rows.Scan(&d.ID, &d.FileID, &d.Kind, &d.Severity, &d.Message,
			&d.StartLine, &d.StartCol, &d.EndLine, &d.EndCol); err != nil {
			return nil, fmt.Errorf("scan diagnostic: %w", err)
		}
		diags = append(diags, d)
	}
	return diags, rows.Err()
}

func (s *Store) DiagnosticsByFile(fileID int64) ([]*Diagnostic, error) {
	return s.queryDiagnostics("SELECT "+diagnosticCols+" FROM diagnostics WHERE file_id = ? ORDER BY start_line, start_col, id", fileID)
}

func (s *Store) AllDiagnostics() ([]*Diagnostic, error) {
	return s.queryDiagnostics("SELECT " + diagnosticCols + " FROM diagnostics ORDER BY file_id, start_line, start_col, id")
}

// DiagnosticCounts returns the number of diagnostics per severity.
func (s *Store) DiagnosticCounts() (map[string]int, error) {
	rows, err := s.db.Query("SELECT severity, COUNT(*) FROM diagnostics GROUP BY severity")
	if err != nil {
		return nil, fmt.Errorf("diagnostic counts: %w", err)
	}
	defer rows.Close()
	counts := make(map[string]int)
	for rows.Next() {
		var sev string
		var n int
		if err := rows.Scan(&sev, &n); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		counts[sev] = n
	}
	return counts, rows.Err()
}

// --- Metadata ---

func (s *Store) SetMeta(key, value string) error {
	_, err := s.db.Exec(
		"INSERT INTO metadata (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value,
	)
	if err != nil {
		return fmt.Errorf("set metadata %s: %w", key, err)
	}
	return nil
}

// Meta returns the value stored under key, or "" when unset.
func (s *Store) Meta(key string) (string, error) {
	var v string
	err := s.db.QueryRow("SELECT value FROM metadata WHERE key = ?", key).Scan(&v)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("metadata %s: %w", key, err)
	}
	return v, nil
}

// --- Ad-hoc queries ---

// ErrNotSelect is returned by Select for statements other than SELECT.
var ErrNotSelect = errors.New("only SELECT queries are allowed")

// Rows is the result of an ad-hoc query.
type Rows struct {
	Columns []string
	Values  [][]any
}

// Maps returns each row keyed by column name.
func (r *Rows) Maps() []map[string]any {
	out := make([]map[string]any, 0, len(r.Values))
	for _, vals := range r.Values {
		row := make(map[string]any, len(r.Columns))
		for i, col := range r.Columns {
			row[col] = vals[i]
		}
		out = append(out, row)
	}
	return out
}

// Select runs a read-only SQL query. Text columns come back as strings.
func (s *Store) Select(ctx context.Context, query string, args ...any) (*Rows, error) {
	if !strings.HasPrefix(strings.ToUpper(strings.TrimSpace(query)), "SELECT") {
		return nil, ErrNotSelect
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("select: columns: %w", err)
	}
	out := &Rows{Columns: cols}
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("select: scan: %w", err)
		}
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		out.Values = append(out.Values, values)
	}
	return out, rows.Err()
}
