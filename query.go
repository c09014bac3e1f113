package feather

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/jward/feather/internal/project"
	"github.com/jward/feather/internal/syntax"
)

// QueryBuilder provides read access to the registry and session index.
// Every call takes the engine's read lock and returns copies, so results
// stay valid while indexing continues.
type QueryBuilder struct {
	engine   *Engine
	userOnly bool
}

// Location represents a source code position range. Lines and columns are
// 1-based.
type Location struct {
	File      string `json:"file"`
	StartLine int    `json:"start_line"`
	StartCol  int    `json:"start_col"`
	EndLine   int    `json:"end_line"`
	EndCol    int    `json:"end_col"`
}

func locationOf(rng syntax.Range) Location {
	return Location{
		File:      rng.File(),
		StartLine: rng.Start.Line,
		StartCol:  rng.Start.Column,
		EndLine:   rng.End.Line,
		EndCol:    rng.End.Column,
	}
}

// SymbolInfo is a snapshot of one symbol.
type SymbolInfo struct {
	Name        string    `json:"name"`
	Kind        string    `json:"kind"`
	Type        string    `json:"type"`
	Code        string    `json:"code"`
	Description string    `json:"description,omitempty"`
	Writable    bool      `json:"writable"`
	Global      bool      `json:"global"`
	Native      bool      `json:"native"`
	Definition  *Location `json:"definition,omitempty"`
	References  int       `json:"references"`
}

func symbolInfo(sym *project.Symbol) SymbolInfo {
	info := SymbolInfo{
		Name:        sym.Name,
		Kind:        string(sym.Type.Kind),
		Type:        sym.Type.String(),
		Code:        sym.Code(),
		Description: sym.Description,
		Writable:    sym.Flags.Writable,
		Global:      sym.Flags.Global,
		Native:      sym.Native,
		References:  len(sym.Refs),
	}
	if sym.Range != nil {
		loc := locationOf(*sym.Range)
		info.Definition = &loc
	}
	return info
}

// ParamInfo is one parameter of a callable type.
type ParamInfo struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Optional    bool   `json:"optional"`
	Description string `json:"description,omitempty"`
}

// TypeInfo is a snapshot of one named type.
type TypeInfo struct {
	Name       string       `json:"name"`
	Kind       string       `json:"kind"`
	Type       string       `json:"type"`
	Parent     string       `json:"parent,omitempty"`
	Members    []SymbolInfo `json:"members,omitempty"`
	Params     []ParamInfo  `json:"params,omitempty"`
	Returns    string       `json:"returns,omitempty"`
	Constructs string       `json:"constructs,omitempty"`
	Definition *Location    `json:"definition,omitempty"`
	References int          `json:"references"`
}

func typeInfo(name string, t *project.Type) TypeInfo {
	info := TypeInfo{
		Name:       name,
		Kind:       string(t.Kind),
		Type:       t.String(),
		References: len(t.Refs),
	}
	if t.Parent != nil && t.Parent.Name != "" && t.Parent.Name != string(t.Parent.Kind) {
		info.Parent = t.Parent.String()
	}
	for _, m := range t.Members() {
		info.Members = append(info.Members, symbolInfo(m))
	}
	for _, p := range t.Params {
		info.Params = append(info.Params, ParamInfo{
			Name:        p.Name,
			Type:        p.Type.String(),
			Optional:    p.Optional,
			Description: p.Description,
		})
	}
	if t.Returns != nil {
		info.Returns = t.Returns.String()
	}
	if t.Constructs != nil {
		info.Constructs = t.Constructs.String()
	}
	if t.Def != nil {
		loc := locationOf(*t.Def)
		info.Definition = &loc
	}
	return info
}

// UserOnly returns a QueryBuilder whose symbol lists leave out built-ins.
func (q *QueryBuilder) UserOnly() *QueryBuilder {
	return &QueryBuilder{engine: q.engine, userOnly: true}
}

func (q *QueryBuilder) view(fn func(reg *project.Registry)) {
	q.engine.View(fn)
}

func (q *QueryBuilder) infos(syms []*project.Symbol) []SymbolInfo {
	out := make([]SymbolInfo, 0, len(syms))
	for _, sym := range syms {
		if q.userOnly && sym.Native {
			continue
		}
		out = append(out, symbolInfo(sym))
	}
	return out
}

// Global returns the global symbol called name.
func (q *QueryBuilder) Global(name string) (SymbolInfo, bool) {
	var (
		info SymbolInfo
		ok   bool
	)
	q.view(func(reg *project.Registry) {
		if sym := reg.GetGlobal(name); sym != nil {
			info, ok = symbolInfo(sym), true
		}
	})
	return info, ok
}

// Type returns the named type. Besides registry names such as
// "Struct.Enemy" or "Constant.Colour", the name of a global enum, function
// or constructor returns that global's type.
func (q *QueryBuilder) Type(name string) (TypeInfo, bool) {
	var (
		info TypeInfo
		ok   bool
	)
	q.view(func(reg *project.Registry) {
		if t := reg.Type(name); t != nil {
			info, ok = typeInfo(name, t), true
			return
		}
		if sym := reg.GetGlobal(name); sym != nil && (sym.Type.Kind == project.KindEnum || sym.Type.Kind.IsCallable()) {
			info, ok = typeInfo(name, sym.Type), true
		}
	})
	return info, ok
}

// Types returns the names of all registered types.
func (q *QueryBuilder) Types() []string {
	var names []string
	q.view(func(reg *project.Registry) {
		names = reg.Types()
	})
	return names
}

// Globals returns every global symbol ordered by name.
func (q *QueryBuilder) Globals() []SymbolInfo {
	var out []SymbolInfo
	q.view(func(reg *project.Registry) {
		out = q.infos(reg.Symbols())
	})
	return out
}

// Functions returns the global functions and constructors.
func (q *QueryBuilder) Functions() []SymbolInfo {
	var out []SymbolInfo
	q.view(func(reg *project.Registry) {
		out = q.infos(reg.Functions())
	})
	return out
}

// Variables returns the writable globals that are not callable.
func (q *QueryBuilder) Variables() []SymbolInfo {
	var out []SymbolInfo
	q.view(func(reg *project.Registry) {
		out = q.infos(reg.Variables())
	})
	return out
}

// Constants returns the read-only globals that are not callable.
func (q *QueryBuilder) Constants() []SymbolInfo {
	var out []SymbolInfo
	q.view(func(reg *project.Registry) {
		out = q.infos(reg.Constants())
	})
	return out
}

// Complete returns the globals whose name starts with prefix, compared
// case-insensitively, with exact-case matches first.
func (q *QueryBuilder) Complete(prefix string) []SymbolInfo {
	lower := strings.ToLower(prefix)
	var out []SymbolInfo
	q.view(func(reg *project.Registry) {
		var matches []*project.Symbol
		for _, sym := range reg.Symbols() {
			if strings.HasPrefix(strings.ToLower(sym.Name), lower) {
				matches = append(matches, sym)
			}
		}
		sort.SliceStable(matches, func(i, j int) bool {
			return strings.HasPrefix(matches[i].Name, prefix) && !strings.HasPrefix(matches[j].Name, prefix)
		})
		out = q.infos(matches)
	})
	return out
}

// DefinitionAt finds the definition of the global referenced at the given
// position. Line and col are 1-based.
func (q *QueryBuilder) DefinitionAt(file string, line, col int) []Location {
	var out []Location
	q.view(func(reg *project.Registry) {
		for _, sym := range reg.Symbols() {
			if sym.Range == nil || !refAt(sym, file, line, col) {
				continue
			}
			out = append(out, locationOf(*sym.Range))
		}
	})
	return out
}

// SymbolAt returns the global referenced at the given position.
func (q *QueryBuilder) SymbolAt(file string, line, col int) (SymbolInfo, bool) {
	var (
		info SymbolInfo
		ok   bool
	)
	q.view(func(reg *project.Registry) {
		for _, sym := range reg.Symbols() {
			if refAt(sym, file, line, col) {
				info, ok = symbolInfo(sym), true
				return
			}
		}
	})
	return info, ok
}

func refAt(sym *project.Symbol, file string, line, col int) bool {
	for _, ref := range sym.Refs {
		if ref.Start.File == file && ref.Range().Contains(line, col) {
			return true
		}
	}
	return false
}

// ReferencesTo returns every recorded reference to the global called name.
func (q *QueryBuilder) ReferencesTo(name string) []Location {
	var out []Location
	q.view(func(reg *project.Registry) {
		sym := reg.GetGlobal(name)
		if sym == nil {
			return
		}
		for _, ref := range sym.Refs {
			out = append(out, locationOf(ref.Range()))
		}
	})
	return out
}

// Hover renders the signature and description of the global called name.
func (q *QueryBuilder) Hover(name string) (string, bool) {
	info, ok := q.Global(name)
	if !ok {
		return "", false
	}
	text := info.Code
	if info.Description != "" {
		text += "\n\n" + info.Description
	}
	return text, true
}

// Diagnostic is one recorded problem.
type Diagnostic struct {
	File     string   `json:"file,omitempty"`
	Kind     string   `json:"kind"`
	Severity string   `json:"severity"`
	Message  string   `json:"message"`
	Location Location `json:"location"`
}

func (d Diagnostic) String() string {
	if d.File == "" {
		return fmt.Sprintf("%s: %s", d.Severity, d.Message)
	}
	return fmt.Sprintf("%s:%d:%d: %s: %s", d.File, d.Location.StartLine, d.Location.StartCol, d.Severity, d.Message)
}

// Diagnostics returns the diagnostics recorded for file, or for every file
// plus the built-in spec when file is empty.
func (q *QueryBuilder) Diagnostics(file string) ([]Diagnostic, error) {
	s := q.engine.store
	files, err := s.Files()
	if err != nil {
		return nil, fmt.Errorf("diagnostics: %w", err)
	}
	paths := make(map[int64]string, len(files))
	for _, f := range files {
		paths[f.ID] = f.Path
	}

	var out []Diagnostic
	if file == "" {
		q.engine.mu.RLock()
		for _, d := range q.engine.specDiags {
			out = append(out, Diagnostic{Kind: d.Kind, Severity: string(d.Severity), Message: d.Message})
		}
		q.engine.mu.RUnlock()
	}

	var rows []*StoredDiagnostic
	if file == "" {
		rows, err = s.AllDiagnostics()
	} else {
		f, ferr := s.FileByPath(file)
		if ferr != nil {
			return nil, fmt.Errorf("diagnostics: lookup file: %w", ferr)
		}
		if f == nil {
			return out, nil
		}
		rows, err = s.DiagnosticsByFile(f.ID)
	}
	if err != nil {
		return nil, fmt.Errorf("diagnostics: %w", err)
	}
	for _, d := range rows {
		path := paths[d.FileID]
		out = append(out, Diagnostic{
			File:     path,
			Kind:     d.Kind,
			Severity: d.Severity,
			Message:  d.Message,
			Location: Location{File: path, StartLine: d.StartLine, StartCol: d.StartCol, EndLine: d.EndLine, EndCol: d.EndCol},
		})
	}
	return out, nil
}

// Summary describes the indexed project.
type Summary struct {
	Runtime     string         `json:"runtime"`
	Files       int            `json:"files"`
	Assets      map[string]int `json:"assets"`
	Globals     int            `json:"globals"`
	Functions   int            `json:"functions"`
	BuiltIns    int            `json:"built_ins"`
	Types       int            `json:"types"`
	Diagnostics map[string]int `json:"diagnostics"`
}

// Summary counts files, globals, types and diagnostics.
func (q *QueryBuilder) Summary() (*Summary, error) {
	s := q.engine.store
	files, err := s.Files()
	if err != nil {
		return nil, fmt.Errorf("summary: %w", err)
	}
	counts, err := s.DiagnosticCounts()
	if err != nil {
		return nil, fmt.Errorf("summary: %w", err)
	}
	version, err := s.Meta("runtime")
	if err != nil {
		return nil, fmt.Errorf("summary: %w", err)
	}

	sum := &Summary{
		Runtime:     version,
		Files:       len(files),
		Assets:      make(map[string]int),
		Diagnostics: counts,
	}
	for _, f := range files {
		sum.Assets[f.AssetKind]++
	}
	q.view(func(reg *project.Registry) {
		for _, sym := range reg.Symbols() {
			if sym.Native {
				sum.BuiltIns++
				continue
			}
			sum.Globals++
			if sym.Type.Kind.IsCallable() {
				sum.Functions++
			}
		}
		sum.Types = len(reg.Types())
	})
	return sum, nil
}

// SQL runs a read-only query against the session index.
func (q *QueryBuilder) SQL(ctx context.Context, query string, args ...any) (*Rows, error) {
	rows, err := q.engine.store.Select(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sql: %w", err)
	}
	return rows, nil
}
