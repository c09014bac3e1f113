package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jward/feather"
)

var (
	flagRoot     string
	flagLimit    int
	flagOffset   int
	flagUserOnly bool
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Query the globals and types of a project",
	Long:  "Index the project and run one query against it. All line and column numbers are 1-based.",
}

func init() {
	queryCmd.PersistentFlags().StringVar(&flagRoot, "root", ".", "project directory")
	queryCmd.PersistentFlags().IntVar(&flagLimit, "limit", 50, "pagination limit (max 500)")
	queryCmd.PersistentFlags().IntVar(&flagOffset, "offset", 0, "pagination offset")
	queryCmd.PersistentFlags().BoolVar(&flagUserOnly, "user", false, "leave built-in symbols out of listings")

	queryCmd.AddCommand(globalCmd)
	queryCmd.AddCommand(typeCmd)
	queryCmd.AddCommand(hierarchyCmd)
	queryCmd.AddCommand(atCmd)
	queryCmd.AddCommand(referencesCmd)
	queryCmd.AddCommand(hoverCmd)
	queryCmd.AddCommand(completeCmd)
	queryCmd.AddCommand(listCmd("functions", "List global functions and constructors", (*feather.QueryBuilder).Functions))
	queryCmd.AddCommand(listCmd("variables", "List writable globals", (*feather.QueryBuilder).Variables))
	queryCmd.AddCommand(listCmd("constants", "List read-only globals", (*feather.QueryBuilder).Constants))
	queryCmd.AddCommand(listCmd("globals", "List every global", (*feather.QueryBuilder).Globals))
	queryCmd.AddCommand(diagnosticsCmd)
	queryCmd.AddCommand(summaryCmd)
	queryCmd.AddCommand(sqlCmd)
}

// --- Helpers ---

// withQuery indexes the --root project and runs fn against it.
func withQuery(cmd *cobra.Command, name string, fn func(q *feather.QueryBuilder) (any, error)) error {
	p, err := openProject(cmd.Context(), []string{flagRoot})
	if err != nil {
		return outputError(name, err)
	}
	defer p.engine.Close()

	q := p.engine.Query()
	if flagUserOnly {
		q = q.UserOnly()
	}
	results, err := fn(q)
	if err != nil {
		return outputError(name, err)
	}
	return outputResult(CLIResult{Command: name, Results: results})
}

// resolveFilePath converts a file argument to an absolute path.
// If the path is already absolute, it's returned as-is.
// Otherwise, it's resolved relative to the current working directory.
func resolveFilePath(file string) (string, error) {
	if filepath.IsAbs(file) {
		return file, nil
	}
	abs, err := filepath.Abs(file)
	if err != nil {
		return "", fmt.Errorf("resolving file path %q: %w", file, err)
	}
	return abs, nil
}

// parseIntArg parses a positional argument as a positive integer with a
// clear error.
func parseIntArg(value, name string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: must be a positive integer", name, value)
	}
	if n < 1 {
		return 0, fmt.Errorf("invalid %s %q: must be at least 1", name, value)
	}
	return n, nil
}

// paginate applies --limit and --offset to a listing.
func paginate[T any](items []T) ([]T, int) {
	total := len(items)
	limit := flagLimit
	if limit <= 0 || limit > 500 {
		limit = 500
	}
	start := min(max(flagOffset, 0), total)
	end := min(start+limit, total)
	return items[start:end], total
}

// outputResult marshals a CLIResult to stdout in the selected format.
func outputResult(result CLIResult) error {
	if flagFormat == "text" {
		return outputResultText(result)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// outputError writes an error in the selected format and returns it so RunE
// can propagate it to Cobra. In JSON mode the error is written to stdout as a
// CLIResult envelope. In text mode it goes to stderr.
func outputError(command string, err error) error {
	errorHandled = true
	if flagFormat == "text" {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		return err
	}
	result := CLIResult{
		Command: command,
		Error:   err.Error(),
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(result)
	return err
}

// --- Commands ---

var globalCmd = &cobra.Command{
	Use:   "global <name>",
	Short: "Show a global symbol",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withQuery(cmd, "global", func(q *feather.QueryBuilder) (any, error) {
			sym, ok := q.Global(args[0])
			if !ok {
				return nil, fmt.Errorf("no global named %q", args[0])
			}
			return sym, nil
		})
	},
}

var typeCmd = &cobra.Command{
	Use:   "type <name>",
	Short: "Show a named type, or the type of an enum or function",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withQuery(cmd, "type", func(q *feather.QueryBuilder) (any, error) {
			t, ok := q.Type(args[0])
			if !ok {
				return nil, fmt.Errorf("no type named %q", args[0])
			}
			return t, nil
		})
	},
}

var hierarchyCmd = &cobra.Command{
	Use:   "hierarchy <struct|constructor>",
	Short: "Show the inheritance chain and children of a struct",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withQuery(cmd, "hierarchy", func(q *feather.QueryBuilder) (any, error) {
			h, ok := q.TypeHierarchy(args[0])
			if !ok {
				return nil, fmt.Errorf("no struct named %q", args[0])
			}
			return h, nil
		})
	},
}

var atCmd = &cobra.Command{
	Use:   "at <file> <line> <col>",
	Short: "Show the global referenced at a position and its definition",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		file, err := resolveFilePath(args[0])
		if err != nil {
			return outputError("at", err)
		}
		line, err := parseIntArg(args[1], "line")
		if err != nil {
			return outputError("at", err)
		}
		col, err := parseIntArg(args[2], "col")
		if err != nil {
			return outputError("at", err)
		}
		return withQuery(cmd, "at", func(q *feather.QueryBuilder) (any, error) {
			sym, ok := q.SymbolAt(file, line, col)
			if !ok {
				// No symbol at the position is not an error.
				return nil, nil
			}
			return CLIPosition{Symbol: sym, Definitions: q.DefinitionAt(file, line, col)}, nil
		})
	},
}

var referencesCmd = &cobra.Command{
	Use:   "references <name>",
	Short: "List the recorded references to a global",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withQuery(cmd, "references", func(q *feather.QueryBuilder) (any, error) {
			refs := q.ReferencesTo(args[0])
			if refs == nil {
				refs = []feather.Location{}
			}
			return refs, nil
		})
	},
}

var hoverCmd = &cobra.Command{
	Use:   "hover <name>",
	Short: "Render the signature and description of a global",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withQuery(cmd, "hover", func(q *feather.QueryBuilder) (any, error) {
			text, ok := q.Hover(args[0])
			if !ok {
				return nil, fmt.Errorf("no global named %q", args[0])
			}
			return text, nil
		})
	},
}

var completeCmd = &cobra.Command{
	Use:   "complete <prefix>",
	Short: "List globals starting with a prefix",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withQuery(cmd, "complete", func(q *feather.QueryBuilder) (any, error) {
			page, _ := paginate(q.Complete(args[0]))
			return page, nil
		})
	},
}

// listCmd builds a command printing one paginated symbol listing.
func listCmd(name, short string, list func(*feather.QueryBuilder) []feather.SymbolInfo) *cobra.Command {
	return &cobra.Command{
		Use:   name,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := openProject(cmd.Context(), []string{flagRoot})
			if err != nil {
				return outputError(name, err)
			}
			defer p.engine.Close()

			q := p.engine.Query()
			if flagUserOnly {
				q = q.UserOnly()
			}
			page, total := paginate(list(q))
			return outputResult(CLIResult{Command: name, Results: page, TotalCount: &total})
		},
	}
}

var diagnosticsCmd = &cobra.Command{
	Use:   "diagnostics [file]",
	Short: "List diagnostics for one file or the whole project",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var file string
		if len(args) > 0 {
			var err error
			if file, err = resolveFilePath(args[0]); err != nil {
				return outputError("diagnostics", err)
			}
		}
		return withQuery(cmd, "diagnostics", func(q *feather.QueryBuilder) (any, error) {
			diags, err := q.Diagnostics(file)
			if diags == nil {
				diags = []feather.Diagnostic{}
			}
			return diags, err
		})
	},
}

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Count files, globals, types and diagnostics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withQuery(cmd, "summary", func(q *feather.QueryBuilder) (any, error) {
			return q.Summary()
		})
	},
}

var sqlCmd = &cobra.Command{
	Use:   "sql <query> [args...]",
	Short: "Run a read-only SQL query against the session index",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		queryArgs := make([]any, 0, len(args)-1)
		for _, a := range args[1:] {
			queryArgs = append(queryArgs, a)
		}
		return withQuery(cmd, "sql", func(q *feather.QueryBuilder) (any, error) {
			rows, err := q.SQL(cmd.Context(), args[0], queryArgs...)
			if err != nil {
				return nil, err
			}
			values := rows.Values
			if values == nil {
				values = [][]any{}
			}
			return CLIRows{Columns: rows.Columns, Rows: values}, nil
		})
	},
}
