// Package lint runs the built-in Risor lint rules against an indexed
// project. Each rule is one .risor script that calls report(symbol, message)
// for every problem it finds.
package lint

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"sort"
	"strings"

	"github.com/risor-io/risor/object"
)

const ext = ".risor"

//go:embed *.risor
var rules embed.FS

// Runner runs a script loaded from fsys. *feather.Engine implements it.
type Runner interface {
	RunScriptFS(ctx context.Context, fsys fs.FS, name string, extras map[string]any) error
}

// Finding is one reported problem.
type Finding struct {
	Rule    string `json:"rule"`
	Name    string `json:"name"`
	File    string `json:"file,omitempty"`
	Line    int    `json:"line,omitempty"`
	Col     int    `json:"col,omitempty"`
	Message string `json:"message"`
}

func (f Finding) String() string {
	if f.File == "" {
		return fmt.Sprintf("%s: %s", f.Rule, f.Message)
	}
	return fmt.Sprintf("%s:%d:%d: %s: %s", f.File, f.Line, f.Col, f.Rule, f.Message)
}

// Rules returns the names of the built-in rules.
func Rules() []string {
	entries, err := fs.ReadDir(rules, ".")
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ext) {
			names = append(names, strings.TrimSuffix(e.Name(), ext))
		}
	}
	return names
}

// Run runs the named rules, or every rule when none are named, and returns
// the findings ordered by file and position.
func Run(ctx context.Context, r Runner, names ...string) ([]Finding, error) {
	all := Rules()
	if len(names) == 0 {
		names = all
	}
	var findings []Finding
	for _, name := range names {
		if !slices.Contains(all, name) {
			return nil, fmt.Errorf("lint: unknown rule %q", name)
		}
		extras := map[string]any{"report": reportFn(name, &findings)}
		if err := r.RunScriptFS(ctx, rules, path.Clean(name+ext), extras); err != nil {
			return nil, fmt.Errorf("lint: %s: %w", name, err)
		}
	}
	sort.SliceStable(findings, func(i, j int) bool {
		a, b := findings[i], findings[j]
		if a.File != b.File {
			return a.File < b.File
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.Rule < b.Rule
	})
	return findings, nil
}

// reportFn creates the "report" host function.
//
// report(symbol, message)
func reportFn(rule string, out *[]Finding) *object.Builtin {
	return object.NewBuiltin("report", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 2 {
			return object.NewArgsError("report", 2, len(args))
		}
		sym, ok := args[0].(*object.Map)
		if !ok {
			return object.Errorf("report: expected a symbol map, got %s", args[0].Type())
		}
		msg, ok := args[1].(*object.String)
		if !ok {
			return object.Errorf("report: message must be a string, got %s", args[1].Type())
		}
		fields := sym.Value()
		f := Finding{Rule: rule, Message: msg.Value()}
		if s, ok := fields["name"].(*object.String); ok {
			f.Name = s.Value()
		}
		if s, ok := fields["file"].(*object.String); ok {
			f.File = s.Value()
		}
		if n, ok := fields["line"].(*object.Int); ok {
			f.Line = int(n.Value())
		}
		if n, ok := fields["col"].(*object.Int); ok {
			f.Col = int(n.Value())
		}
		*out = append(*out, f)
		return object.Nil
	})
}
