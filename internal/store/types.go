package store

import "time"

type File struct {
	ID          int64
	Path        string
	AssetKind   string
	Hash        string
	LineCount   int
	LastIndexed time.Time
}

// Declaration is one global a file declared, flattened for SQL access.
type Declaration struct {
	ID        int64
	FileID    int64
	Name      string
	Kind      string
	TypeExpr  string
	StartLine int
	StartCol  int
	EndLine   int
	EndCol    int
}

type Diagnostic struct {
	ID        int64
	FileID    int64
	Kind      string
	Severity  string
	Message   string
	StartLine int
	StartCol  int
	EndLine   int
	EndCol    int
}
