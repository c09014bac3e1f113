package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/jward/feather"
)

// formatLocationsText formats locations as "file:line:col" lines.
func formatLocationsText(w io.Writer, locs []feather.Location) {
	for _, loc := range locs {
		fmt.Fprintf(w, "%s:%d:%d\n", loc.File, loc.StartLine, loc.StartCol)
	}
}

// formatSymbolsText formats symbols as aligned columns.
func formatSymbolsText(w io.Writer, syms []feather.SymbolInfo) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tTYPE\tNATIVE\tFILE\tLINE")
	for _, s := range syms {
		file, line := "", 0
		if s.Definition != nil {
			file, line = s.Definition.File, s.Definition.StartLine
		}
		fmt.Fprintf(tw, "%s\t%s\t%t\t%s\t%d\n", s.Name, s.Type, s.Native, file, line)
	}
	tw.Flush()
}

// formatTypeText formats one type with its members and signature.
func formatTypeText(w io.Writer, t feather.TypeInfo) {
	fmt.Fprintf(w, "%s: %s\n", t.Name, t.Type)
	if t.Parent != "" {
		fmt.Fprintf(w, "Parent: %s\n", t.Parent)
	}
	if t.Constructs != "" {
		fmt.Fprintf(w, "Constructs: %s\n", t.Constructs)
	}
	if len(t.Params) > 0 {
		fmt.Fprintln(w, "Params:")
		for _, p := range t.Params {
			name := p.Name
			if p.Optional {
				name = "[" + name + "]"
			}
			fmt.Fprintf(w, "  %s: %s\n", name, p.Type)
		}
	}
	if t.Returns != "" {
		fmt.Fprintf(w, "Returns: %s\n", t.Returns)
	}
	if len(t.Members) > 0 {
		fmt.Fprintln(w, "Members:")
		for _, m := range t.Members {
			fmt.Fprintf(w, "  %s: %s\n", m.Name, m.Type)
		}
	}
}

// formatHierarchyText formats a struct hierarchy as an indented chain.
func formatHierarchyText(w io.Writer, h *feather.TypeHierarchy) {
	for i := len(h.Ancestors) - 1; i >= 0; i-- {
		fmt.Fprintf(w, "%s%s\n", strings.Repeat("  ", len(h.Ancestors)-1-i), h.Ancestors[i])
	}
	indent := strings.Repeat("  ", len(h.Ancestors))
	fmt.Fprintf(w, "%s%s *\n", indent, h.Type.Name)
	for _, c := range h.Children {
		fmt.Fprintf(w, "%s  %s\n", indent, c)
	}
}

// formatDiagnosticsText formats diagnostics one per line.
func formatDiagnosticsText(w io.Writer, diags []feather.Diagnostic) {
	for _, d := range diags {
		fmt.Fprintln(w, d.String())
	}
}

// formatSummaryText formats a project summary as readable text.
func formatSummaryText(w io.Writer, s *feather.Summary) {
	fmt.Fprintln(w, "Project Summary")
	fmt.Fprintln(w, "===============")
	fmt.Fprintf(w, "Runtime: %s\n", s.Runtime)
	fmt.Fprintf(w, "Files: %d\n", s.Files)
	for _, kind := range sortedKeys(s.Assets) {
		name := kind
		if name == "" {
			name = "(other)"
		}
		fmt.Fprintf(w, "  %s: %d\n", name, s.Assets[kind])
	}
	fmt.Fprintf(w, "Globals: %d (%d functions)\n", s.Globals, s.Functions)
	fmt.Fprintf(w, "Built-ins: %d\n", s.BuiltIns)
	fmt.Fprintf(w, "Types: %d\n", s.Types)
	if len(s.Diagnostics) > 0 {
		fmt.Fprintln(w, "Diagnostics:")
		for _, sev := range sortedKeys(s.Diagnostics) {
			fmt.Fprintf(w, "  %s: %d\n", sev, s.Diagnostics[sev])
		}
	}
}

// formatRowsText formats SQL results as aligned columns.
func formatRowsText(w io.Writer, rows CLIRows) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.ToUpper(strings.Join(rows.Columns, "\t")))
	for _, row := range rows.Rows {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = fmt.Sprint(v)
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	tw.Flush()
}

// outputResultText dispatches to the appropriate text formatter based on the
// result type. It writes to os.Stdout.
func outputResultText(result CLIResult) error {
	w := io.Writer(os.Stdout)

	switch v := result.Results.(type) {
	case []feather.Location:
		formatLocationsText(w, v)
	case []feather.SymbolInfo:
		formatSymbolsText(w, v)
	case feather.SymbolInfo:
		fmt.Fprintln(w, v.Code)
		if v.Description != "" {
			fmt.Fprintln(w, v.Description)
		}
	case feather.TypeInfo:
		formatTypeText(w, v)
	case *feather.TypeHierarchy:
		formatHierarchyText(w, v)
	case CLIPosition:
		fmt.Fprintln(w, v.Symbol.Code)
		formatLocationsText(w, v.Definitions)
	case []feather.Diagnostic:
		formatDiagnosticsText(w, v)
	case *feather.Summary:
		formatSummaryText(w, v)
	case CLIIndex:
		formatSummaryText(w, v.Summary)
		if len(v.Diagnostics) > 0 {
			fmt.Fprintln(w)
			formatDiagnosticsText(w, v.Diagnostics)
		}
	case CLIRows:
		formatRowsText(w, v)
	case CLIFindings:
		for _, f := range v {
			fmt.Fprintln(w, f.String())
		}
	case string:
		fmt.Fprintln(w, v)
	case nil:
		// No output for nil results (e.g., at with no match).
	default:
		return fmt.Errorf("unsupported result type for text format: %T", v)
	}

	// Pagination footer.
	if result.TotalCount != nil {
		count := *result.TotalCount
		shown := resultLen(result.Results)
		if shown < count {
			fmt.Fprintf(w, "\nShowing %d of %d results\n", shown, count)
		}
	}

	return nil
}

// resultLen returns the length of a result slice, or 1 for a single value.
func resultLen(v any) int {
	switch r := v.(type) {
	case []feather.Location:
		return len(r)
	case []feather.SymbolInfo:
		return len(r)
	case []feather.Diagnostic:
		return len(r)
	case CLIFindings:
		return len(r)
	case nil:
		return 0
	default:
		return 1
	}
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// validFormats lists accepted values for --format.
var validFormats = []string{"json", "text"}

// validateFormat checks that the --format flag value is recognized.
func validateFormat(format string) error {
	for _, f := range validFormats {
		if format == f {
			return nil
		}
	}
	return fmt.Errorf("invalid format %q: must be %s", format, strings.Join(validFormats, " or "))
}
