package runtime

import (
	"context"
	"fmt"

	"github.com/risor-io/risor/object"

	"github.com/jward/feather/internal/project"
	"github.com/jward/feather/internal/store"
)

// Registry and store host functions. Risor scripts only see plain maps and
// lists; registry objects are never proxied so scripts cannot mutate them.

// makeGlobalFn creates the "global" host function.
//
// global(name) → map or nil
func makeGlobalFn(view ViewFunc) *object.Builtin {
	return object.NewBuiltin("global", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("global", 1, len(args))
		}
		name, err := toString(args[0])
		if err != nil {
			return object.Errorf("global: %v", err)
		}
		var result object.Object = object.Nil
		view(func(reg *project.Registry) {
			if sym := reg.GetGlobal(name); sym != nil {
				result = symbolToMap(sym)
			}
		})
		return result
	})
}

// makeSymbolListFn creates a zero-argument host function listing symbols.
func makeSymbolListFn(name string, view ViewFunc, list func(*project.Registry) []*project.Symbol) *object.Builtin {
	return object.NewBuiltin(name, func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 0 {
			return object.NewArgsError(name, 0, len(args))
		}
		var results []object.Object
		view(func(reg *project.Registry) {
			for _, sym := range list(reg) {
				results = append(results, symbolToMap(sym))
			}
		})
		if results == nil {
			results = []object.Object{}
		}
		return object.NewList(results)
	})
}

// makeTypeOfFn creates the "type_of" host function. It accepts a global
// name or a registered type name and returns the rendered type.
//
// type_of(name) → string or nil
func makeTypeOfFn(view ViewFunc) *object.Builtin {
	return object.NewBuiltin("type_of", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("type_of", 1, len(args))
		}
		name, err := toString(args[0])
		if err != nil {
			return object.Errorf("type_of: %v", err)
		}
		var result object.Object = object.Nil
		view(func(reg *project.Registry) {
			if sym := reg.GetGlobal(name); sym != nil {
				result = object.NewString(sym.Type.String())
			} else if t := reg.Type(name); t != nil {
				result = object.NewString(t.String())
			}
		})
		return result
	})
}

// makeTypesFn creates the "types" host function.
//
// types() → []string
func makeTypesFn(view ViewFunc) *object.Builtin {
	return object.NewBuiltin("types", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 0 {
			return object.NewArgsError("types", 0, len(args))
		}
		var names []string
		view(func(reg *project.Registry) {
			names = reg.Types()
		})
		results := make([]object.Object, len(names))
		for i, n := range names {
			results[i] = object.NewString(n)
		}
		return object.NewList(results)
	})
}

// makeDiagnosticsFn creates the "diagnostics" host function. With no
// argument it lists every stored diagnostic.
//
// diagnostics([path]) → []map
func makeDiagnosticsFn(s *store.Store) *object.Builtin {
	return object.NewBuiltin("diagnostics", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) > 1 {
			return object.Errorf("diagnostics: expected at most 1 argument (path), got %d", len(args))
		}
		paths := make(map[int64]string)
		var diags []*store.Diagnostic
		if len(args) == 1 {
			path, err := toString(args[0])
			if err != nil {
				return object.Errorf("diagnostics: %v", err)
			}
			f, err := s.FileByPath(path)
			if err != nil {
				return object.Errorf("diagnostics: %v", err)
			}
			if f == nil {
				return object.NewList([]object.Object{})
			}
			paths[f.ID] = f.Path
			if diags, err = s.DiagnosticsByFile(f.ID); err != nil {
				return object.Errorf("diagnostics: %v", err)
			}
		} else {
			files, err := s.Files()
			if err != nil {
				return object.Errorf("diagnostics: %v", err)
			}
			for _, f := range files {
				paths[f.ID] = f.Path
			}
			if diags, err = s.AllDiagnostics(); err != nil {
				return object.Errorf("diagnostics: %v", err)
			}
		}

		results := make([]object.Object, 0, len(diags))
		for _, d := range diags {
			results = append(results, object.NewMap(map[string]object.Object{
				"file":     object.NewString(paths[d.FileID]),
				"kind":     object.NewString(d.Kind),
				"severity": object.NewString(d.Severity),
				"message":  object.NewString(d.Message),
				"line":     object.NewInt(int64(d.StartLine)),
				"col":      object.NewInt(int64(d.StartCol)),
			}))
		}
		return object.NewList(results)
	})
}

// makeFilesFn creates the "files" host function. With no argument it lists
// every indexed file.
//
// files([asset_kind]) → []map
func makeFilesFn(s *store.Store) *object.Builtin {
	return object.NewBuiltin("files", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) > 1 {
			return object.Errorf("files: expected at most 1 argument (asset_kind), got %d", len(args))
		}
		var files []*store.File
		var err error
		if len(args) == 1 {
			kind, convErr := toString(args[0])
			if convErr != nil {
				return object.Errorf("files: %v", convErr)
			}
			files, err = s.FilesByAssetKind(kind)
		} else {
			files, err = s.Files()
		}
		if err != nil {
			return object.Errorf("files: %v", err)
		}
		results := make([]object.Object, 0, len(files))
		for _, f := range files {
			results = append(results, object.NewMap(map[string]object.Object{
				"path":       object.NewString(f.Path),
				"asset_kind": object.NewString(f.AssetKind),
				"hash":       object.NewString(f.Hash),
				"lines":      object.NewInt(int64(f.LineCount)),
			}))
		}
		return object.NewList(results)
	})
}

// makeDeclarationsFn creates the "declarations" host function. Every file
// that declared name contributes its rows, so a global assigned from
// several files lists each site.
//
// declarations(name) → []map
func makeDeclarationsFn(s *store.Store) *object.Builtin {
	return object.NewBuiltin("declarations", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("declarations", 1, len(args))
		}
		name, err := toString(args[0])
		if err != nil {
			return object.Errorf("declarations: %v", err)
		}
		decls, err := s.DeclarationsByName(name)
		if err != nil {
			return object.Errorf("declarations: %v", err)
		}
		paths := make(map[int64]string)
		results := make([]object.Object, 0, len(decls))
		for _, d := range decls {
			path, ok := paths[d.FileID]
			if !ok {
				f, err := s.FileByID(d.FileID)
				if err != nil {
					return object.Errorf("declarations: %v", err)
				}
				if f != nil {
					path = f.Path
				}
				paths[d.FileID] = path
			}
			results = append(results, object.NewMap(map[string]object.Object{
				"name": object.NewString(d.Name),
				"kind": object.NewString(d.Kind),
				"type": object.NewString(d.TypeExpr),
				"file": object.NewString(path),
				"line": object.NewInt(int64(d.StartLine)),
				"col":  object.NewInt(int64(d.StartCol)),
			}))
		}
		return object.NewList(results)
	})
}

// makeDeclaringFilesFn creates the "declaring_files" host function.
//
// declaring_files(name) → []string
func makeDeclaringFilesFn(s *store.Store) *object.Builtin {
	return object.NewBuiltin("declaring_files", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("declaring_files", 1, len(args))
		}
		name, err := toString(args[0])
		if err != nil {
			return object.Errorf("declaring_files: %v", err)
		}
		paths, err := s.DeclaringFiles(name)
		if err != nil {
			return object.Errorf("declaring_files: %v", err)
		}
		results := make([]object.Object, len(paths))
		for i, p := range paths {
			results[i] = object.NewString(p)
		}
		return object.NewList(results)
	})
}

// makeDBQueryFn creates a db_query bridge that executes read-only SQL
// against the session index. Returns a list of maps (column name → value).
//
// db_query(sql, args...) → []map
func makeDBQueryFn(s *store.Store) *object.Builtin {
	return object.NewBuiltin("db_query", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) < 1 {
			return object.Errorf("db_query: expected at least 1 argument (sql), got %d", len(args))
		}
		sqlStr, err := toString(args[0])
		if err != nil {
			return object.Errorf("db_query: %v", err)
		}

		var queryArgs []any
		for _, arg := range args[1:] {
			switch v := arg.(type) {
			case *object.Int:
				queryArgs = append(queryArgs, v.Value())
			case *object.Float:
				queryArgs = append(queryArgs, v.Value())
			case *object.String:
				queryArgs = append(queryArgs, v.Value())
			case *object.Bool:
				queryArgs = append(queryArgs, v.Value())
			case *object.NilType:
				queryArgs = append(queryArgs, nil)
			default:
				queryArgs = append(queryArgs, fmt.Sprintf("%v", arg))
			}
		}

		rows, err := s.Select(ctx, sqlStr, queryArgs...)
		if err != nil {
			return object.Errorf("db_query: %v", err)
		}

		results := make([]object.Object, 0, len(rows.Values))
		for _, vals := range rows.Values {
			row := make(map[string]object.Object, len(rows.Columns))
			for i, col := range rows.Columns {
				row[col] = sqlValueToObject(vals[i])
			}
			results = append(results, object.NewMap(row))
		}
		return object.NewList(results)
	})
}

// symbolToMap converts a registry symbol to a Risor map.
func symbolToMap(sym *project.Symbol) object.Object {
	m := map[string]object.Object{
		"name":        object.NewString(sym.Name),
		"type":        object.NewString(sym.Type.String()),
		"kind":        object.NewString(string(sym.Type.Kind)),
		"code":        object.NewString(sym.Code()),
		"description": object.NewString(sym.Description),
		"writable":    object.NewBool(sym.Flags.Writable),
		"global":      object.NewBool(sym.Flags.Global),
		"native":      object.NewBool(sym.Native),
		"refs":        object.NewInt(int64(len(sym.Refs))),
	}
	if sym.Range != nil {
		m["file"] = object.NewString(sym.Range.File())
		m["line"] = object.NewInt(int64(sym.Range.Start.Line))
		m["col"] = object.NewInt(int64(sym.Range.Start.Column))
	}
	return object.NewMap(m)
}

func toString(obj object.Object) (string, error) {
	if s, ok := obj.(*object.String); ok {
		return s.Value(), nil
	}
	return "", fmt.Errorf("expected string, got %s", obj.Type())
}

// sqlValueToObject converts a database value to a Risor object.
func sqlValueToObject(v any) object.Object {
	if v == nil {
		return object.Nil
	}
	switch val := v.(type) {
	case int64:
		return object.NewInt(val)
	case float64:
		return object.NewFloat(val)
	case string:
		return object.NewString(val)
	case bool:
		return object.NewBool(val)
	case []byte:
		return object.NewString(string(val))
	default:
		return object.NewString(fmt.Sprintf("%v", val))
	}
}
