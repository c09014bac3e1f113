package main

import (
	"github.com/jward/feather"
	"github.com/jward/feather/scripts/lint"
)

// CLIResult is the top-level JSON envelope for all commands.
type CLIResult struct {
	Command    string `json:"command"`
	Results    any    `json:"results"`
	TotalCount *int   `json:"total_count,omitempty"`
	Error      string `json:"error,omitempty"`
}

// CLIIndex is the result of the index command.
type CLIIndex struct {
	Summary     *feather.Summary     `json:"summary"`
	Diagnostics []feather.Diagnostic `json:"diagnostics"`
}

// CLIPosition is the result of query at: the global referenced at a
// position and where it is defined.
type CLIPosition struct {
	Symbol      feather.SymbolInfo `json:"symbol"`
	Definitions []feather.Location `json:"definitions"`
}

// CLIRows is the result of query sql.
type CLIRows struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

// CLIFindings is the result of the lint command.
type CLIFindings []lint.Finding
