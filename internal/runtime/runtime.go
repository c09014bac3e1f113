// Package runtime embeds a Risor VM for scripting against an indexed
// project: registry lookups, the session index, and tree-sitter access to
// GML sources.
package runtime

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/risor-io/risor"
	"github.com/risor-io/risor/importer"
	"github.com/risor-io/risor/object"

	"github.com/jward/feather/internal/project"
	"github.com/jward/feather/internal/store"
)

// ScriptExtension is the extension of Risor scripts and importable modules.
const ScriptExtension = ".risor"

// ViewFunc runs fn with read access to the registry. The engine passes a
// function that holds its read lock for the duration of fn.
type ViewFunc func(fn func(reg *project.Registry))

// Runtime embeds a Risor VM and exposes registry, store and tree-sitter
// host functions to scripts.
type Runtime struct {
	store      *store.Store
	view       ViewFunc
	logger     *slog.Logger
	scriptsDir string
	fsys       fs.FS
	trees      *treeSources
}

// RuntimeOption configures a Runtime.
type RuntimeOption func(*Runtime)

// WithRuntimeFS configures the Runtime to load scripts from an fs.FS
// instead of from disk. Also configures the Risor importer to use
// FSImporter for import statement resolution.
func WithRuntimeFS(fsys fs.FS) RuntimeOption {
	return func(r *Runtime) {
		r.fsys = fsys
	}
}

// WithRegistry exposes the registry host functions (global, globals,
// type_of, types, functions, variables, constants) through view.
func WithRegistry(view ViewFunc) RuntimeOption {
	return func(r *Runtime) {
		r.view = view
	}
}

// WithRuntimeLogger routes the script log object to logger.
func WithRuntimeLogger(logger *slog.Logger) RuntimeOption {
	return func(r *Runtime) {
		r.logger = logger
	}
}

// NewRuntime creates a Runtime wired to the given Store and scripts directory.
// The Store may be nil, in which case db_query and diagnostics are absent.
func NewRuntime(s *store.Store, scriptsDir string, opts ...RuntimeOption) *Runtime {
	r := &Runtime{
		store:      s,
		scriptsDir: scriptsDir,
		trees:      newTreeSources(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return r
}

// Close releases the query patterns compiled by scripts.
func (r *Runtime) Close() {
	r.trees.close()
}

// RunScript loads and executes a Risor script with all standard globals
// plus any extra globals provided by the caller.
func (r *Runtime) RunScript(ctx context.Context, scriptPath string, extraGlobals map[string]any) error {
	src, err := r.LoadScript(scriptPath)
	if err != nil {
		return err
	}
	return r.eval(ctx, src, scriptPath, extraGlobals)
}

// RunSource executes Risor source code directly with all standard globals
// plus any extra globals. Useful for testing without script files.
func (r *Runtime) RunSource(ctx context.Context, source string, extraGlobals map[string]any) error {
	return r.eval(ctx, source, "<inline>", extraGlobals)
}

func (r *Runtime) eval(ctx context.Context, source, label string, extraGlobals map[string]any) error {
	globals := r.buildGlobals(extraGlobals)

	var opts []risor.Option
	for name, val := range globals {
		opts = append(opts, risor.WithGlobal(name, val))
	}

	// Wire importer so Risor import statements resolve correctly.
	if imp := r.buildImporter(globals); imp != nil {
		opts = append(opts, risor.WithImporter(imp))
	}

	r.logger.Debug("running script", "script", label)
	_, err := risor.Eval(ctx, source, opts...)
	if err != nil {
		return fmt.Errorf("runtime: script %s: %w", label, err)
	}
	return nil
}

// buildImporter returns a Risor importer configured for the Runtime's script source.
// Returns nil if neither fs.FS nor scriptsDir is configured.
func (r *Runtime) buildImporter(globals map[string]any) importer.Importer {
	globalNames := make([]string, 0, len(globals))
	for name := range globals {
		globalNames = append(globalNames, name)
	}

	if r.fsys != nil {
		return importer.NewFSImporter(importer.FSImporterOptions{
			GlobalNames: globalNames,
			SourceFS:    r.fsys,
			Extensions:  []string{ScriptExtension},
		})
	}
	if r.scriptsDir != "" {
		return importer.NewLocalImporter(importer.LocalImporterOptions{
			GlobalNames: globalNames,
			SourceDir:   r.scriptsDir,
			Extensions:  []string{ScriptExtension},
		})
	}
	return nil
}

// LoadScript reads a .risor file and returns its source code.
// When an fs.FS is configured, uses fs.ReadFile on that filesystem.
// Otherwise, uses os.ReadFile with scriptsDir as the base directory.
func (r *Runtime) LoadScript(path string) (string, error) {
	if r.fsys != nil {
		fsPath := strings.TrimPrefix(filepath.ToSlash(path), "/")
		data, err := fs.ReadFile(r.fsys, fsPath)
		if err != nil {
			return "", fmt.Errorf("runtime: loading script %s from fs: %w", fsPath, err)
		}
		return string(data), nil
	}

	fullPath := path
	if !filepath.IsAbs(path) {
		fullPath = filepath.Join(r.scriptsDir, path)
	}

	data, err := os.ReadFile(fullPath)
	if err != nil {
		return "", fmt.Errorf("runtime: loading script %s: %w", fullPath, err)
	}
	return string(data), nil
}

// buildGlobals constructs the full set of globals exposed to Risor scripts.
func (r *Runtime) buildGlobals(extra map[string]any) map[string]any {
	globals := map[string]any{
		"parse":      makeParseFn("parse", r.trees, true),
		"parse_src":  makeParseFn("parse_src", r.trees, false),
		"node_text":  makeNodeTextFn(r.trees),
		"node_child": makeNodeChildFn(),
		"query":      makeQueryFn(r.trees),
		"log":        mustProxy(&logObject{logger: r.logger.With("source", "script")}),
	}

	if r.view != nil {
		globals["global"] = makeGlobalFn(r.view)
		globals["globals"] = makeSymbolListFn("globals", r.view, (*project.Registry).Symbols)
		globals["functions"] = makeSymbolListFn("functions", r.view, (*project.Registry).Functions)
		globals["variables"] = makeSymbolListFn("variables", r.view, (*project.Registry).Variables)
		globals["constants"] = makeSymbolListFn("constants", r.view, (*project.Registry).Constants)
		globals["type_of"] = makeTypeOfFn(r.view)
		globals["types"] = makeTypesFn(r.view)
	}

	// Expose the Store if available (nil during some tests).
	if r.store != nil {
		globals["diagnostics"] = makeDiagnosticsFn(r.store)
		globals["db_query"] = makeDBQueryFn(r.store)
		globals["files"] = makeFilesFn(r.store)
		globals["declarations"] = makeDeclarationsFn(r.store)
		globals["declaring_files"] = makeDeclaringFilesFn(r.store)
	}

	for k, v := range extra {
		globals[k] = v
	}
	return globals
}

func mustProxy(v any) object.Object {
	p, err := object.NewProxy(v)
	if err != nil {
		panic(fmt.Sprintf("runtime: proxy error: %v", err))
	}
	return p
}
