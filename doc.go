// Package feather builds a semantic index of GameMaker Language projects:
// the global functions, constructors, enums, macros and variables a
// project declares, typed against GameMaker's built-in catalog.
//
// # Pipeline
//
// For each source file, feather parses GML with tree-sitter, walks the
// resulting syntax tree for global declarations, and registers or updates
// them in a session-wide registry. Re-indexing a file updates the symbols
// and types it declared in place, so pointers and names held by callers
// stay valid across edits.
//
// # Usage
//
//	e, err := feather.New()
//	if err != nil { ... }
//	defer e.Close()
//
//	ctx := context.Background()
//	err = e.IndexDirectory(ctx, "path/to/project")
//
//	q := e.Query()
//	sym, ok := q.Global("scr_damage")
//	locs := q.DefinitionAt("scripts/scr_player/scr_player.gml", 10, 5)
//
// # Query API
//
// The [QueryBuilder] returned by [Engine.Query] reads a consistent
// snapshot of the registry:
//
//   - [QueryBuilder.Global] and [QueryBuilder.Type] look up one symbol or
//     named type.
//   - [QueryBuilder.Functions], [QueryBuilder.Variables] and
//     [QueryBuilder.Constants] list globals by category.
//   - [QueryBuilder.Complete] lists globals by name prefix.
//   - [QueryBuilder.DefinitionAt] and [QueryBuilder.ReferencesTo] map
//     between use sites and declarations.
//   - [QueryBuilder.TypeHierarchy] and [QueryBuilder.Subtypes] walk
//     constructor inheritance.
//   - [QueryBuilder.Diagnostics] reports malformed declarations and
//     annotations.
//
// # Configuration
//
// [ConfigOptions] turns a feather.toml (see internal/config) into engine
// options: include and exclude globs, asset folders, watch debounce and
// the built-in catalog to load.
//
// # Incremental Indexing
//
// [Engine.IndexFiles] detects unchanged files via content hashing and skips
// them. [Engine.RemoveFile] drops the globals a deleted file declared, and
// [Engine.Watch] keeps the index current as files change on disk.
//
// # Scripts
//
// [Engine.RunScript] runs Risor scripts against the index. Scripts see the
// registry through host functions such as global, functions and type_of,
// and the session index through files, declarations, diagnostics and
// db_query. See the
// internal/runtime package for the full set of globals. The lint rules in
// scripts/lint are written this way.
package feather
