package feather

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	goruntime "runtime"
	"strings"
	"sync"
	"time"

	"github.com/jward/feather/internal/extract"
	"github.com/jward/feather/internal/gml"
	"github.com/jward/feather/internal/metrics"
	"github.com/jward/feather/internal/project"
	"github.com/jward/feather/internal/runtime"
	"github.com/jward/feather/internal/specs"
	"github.com/jward/feather/internal/store"
	"github.com/jward/feather/internal/syntax"
)

// AssetKindResolver maps a file path to the GameMaker asset it belongs to.
type AssetKindResolver func(path string) extract.AssetKind

// Engine orchestrates the feather pipeline: file discovery, change
// detection, parsing, global declaration extraction and query access.
//
// The registry is guarded by a readers-writer lock. Any number of queries
// may run at once; indexing and removal hold the write lock while they
// touch the registry.
type Engine struct {
	mu        sync.RWMutex
	registry  *project.Registry
	store     *store.Store
	parser    syntax.Parser
	logger    *slog.Logger
	metrics   *metrics.Metrics
	parallel  int
	assetKind AssetKindResolver
	filter    func(rel string) bool
	debounce  time.Duration

	spec      *project.Spec
	specPath  string
	specDiags []project.Diagnostic
}

// Option configures an Engine.
type Option func(*Engine)

// WithParser replaces the tree-sitter GML parser.
func WithParser(p syntax.Parser) Option {
	return func(e *Engine) {
		e.parser = p
	}
}

// WithSpec seeds the registry from spec instead of the embedded catalog.
func WithSpec(spec *project.Spec) Option {
	return func(e *Engine) {
		e.spec = spec
	}
}

// WithSpecFile seeds the registry from the GmlSpec.xml file at path.
func WithSpecFile(path string) Option {
	return func(e *Engine) {
		e.specPath = path
	}
}

// WithLogger sets the structured logger. The default discards output.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithParallel sets the number of parse workers. Zero or less uses one
// worker per CPU; one parses serially.
func WithParallel(n int) Option {
	return func(e *Engine) {
		e.parallel = n
	}
}

// WithAssetKindResolver overrides how a file path maps to its asset kind.
func WithAssetKindResolver(fn AssetKindResolver) Option {
	return func(e *Engine) {
		if fn != nil {
			e.assetKind = fn
		}
	}
}

// WithMetrics records indexing metrics on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithFilter restricts IndexDirectory and Watch to the files for which
// keep returns true. keep receives slash-separated paths relative to the
// indexed root.
func WithFilter(keep func(rel string) bool) Option {
	return func(e *Engine) {
		e.filter = keep
	}
}

// WithDebounce sets how long Watch waits for file changes to settle.
func WithDebounce(d time.Duration) Option {
	return func(e *Engine) {
		e.debounce = d
	}
}

// New creates an Engine with an in-memory session index and a registry
// seeded from the built-in spec.
func New(opts ...Option) (*Engine, error) {
	e := &Engine{
		parser:    gml.NewParser(),
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		assetKind: DefaultAssetKind,
		debounce:  250 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.parallel <= 0 {
		e.parallel = goruntime.NumCPU()
	}

	spec := e.spec
	if e.specPath != "" {
		var err error
		if spec, err = project.LoadSpecFile(e.specPath); err != nil {
			return nil, fmt.Errorf("feather: load spec: %w", err)
		}
	}
	if spec == nil {
		var err error
		if spec, err = specs.Default(); err != nil {
			return nil, fmt.Errorf("feather: load embedded spec: %w", err)
		}
	}

	s, err := store.NewStore(store.MemoryPath)
	if err != nil {
		return nil, fmt.Errorf("feather: create store: %w", err)
	}
	if err := s.Migrate(); err != nil {
		s.Close()
		return nil, fmt.Errorf("feather: migrate: %w", err)
	}
	e.store = s

	e.registry = project.NewRegistry(project.WithRegistryLogger(e.logger))
	e.specDiags = e.registry.LoadSpec(spec)
	if err := s.SetMeta("runtime", spec.Runtime); err != nil {
		s.Close()
		return nil, fmt.Errorf("feather: %w", err)
	}
	e.refreshGaugesLocked()
	return e, nil
}

// Close releases the Engine's session index.
func (e *Engine) Close() error {
	return e.store.Close()
}

// Store returns the underlying session index for direct access.
func (e *Engine) Store() *Store {
	return e.store
}

// View runs fn with read access to the registry. fn must not retain the
// registry, or anything reachable from it, after returning.
func (e *Engine) View(fn func(reg *project.Registry)) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	fn(e.registry)
}

// Query returns a new QueryBuilder over the Engine's current state.
func (e *Engine) Query() *QueryBuilder {
	return &QueryBuilder{engine: e}
}

// DefaultAssetKind classifies a path by the nearest "scripts" or "objects"
// directory above it, as GameMaker lays out project folders.
func DefaultAssetKind(path string) extract.AssetKind {
	dir := filepath.Dir(filepath.ToSlash(path))
	parts := strings.Split(filepath.ToSlash(dir), "/")
	for i := len(parts) - 1; i >= 0; i-- {
		switch parts[i] {
		case string(extract.AssetScript):
			return extract.AssetScript
		case string(extract.AssetObject):
			return extract.AssetObject
		}
	}
	return ""
}

// ApplyTree extracts the global declarations of an already parsed file.
// Earlier declarations from the same path are updated in place, and globals
// the file no longer declares stay registered until RemoveFile. References
// accumulate across applications. An internal consistency failure is
// returned as an error wrapping project.ErrInvariant and leaves the rest of
// the file unapplied.
func (e *Engine) ApplyTree(path string, asset extract.AssetKind, root *syntax.Node) (*extract.Result, error) {
	if root == nil {
		return nil, fmt.Errorf("feather: apply %s: nil syntax tree", path)
	}
	f := &store.File{
		Path:        path,
		AssetKind:   string(asset),
		LineCount:   root.Range.End.Line,
		LastIndexed: time.Now(),
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	res, err := e.applyLocked(f, asset, root)
	e.refreshGaugesLocked()
	return res, err
}

func (e *Engine) applyLocked(f *store.File, asset extract.AssetKind, root *syntax.Node) (*extract.Result, error) {
	start := time.Now()
	res, extractErr := extract.GlobalDeclarations(e.registry, extract.File{Path: f.Path, Asset: asset, Root: root})
	e.metrics.ObserveApply(time.Since(start).Seconds())
	if res == nil {
		return nil, fmt.Errorf("feather: %w", extractErr)
	}
	res.Diagnostics = append(syntaxErrors(root), res.Diagnostics...)

	if extractErr != nil {
		if errors.Is(extractErr, project.ErrInvariant) {
			e.metrics.Invariant()
		}
		e.logger.Error("extraction stopped", "path", f.Path, "error", extractErr)
		// Forget the hash so the next pass retries the file.
		f.Hash = ""
	}

	if err := e.recordLocked(f, res); err != nil {
		return res, fmt.Errorf("feather: record %s: %w", f.Path, err)
	}
	e.logger.Debug("applied file", "path", f.Path, "declared", len(res.Declared), "diagnostics", len(res.Diagnostics))
	if extractErr != nil {
		return res, fmt.Errorf("feather: %w", extractErr)
	}
	return res, nil
}

// declaredNamesLocked returns the globals f declares, plus any global
// whose declaration site is still in f after an edit dropped it.
func (e *Engine) declaredNamesLocked(f *store.File) ([]string, error) {
	decls, err := e.store.DeclarationsByFile(f.ID)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(decls))
	var names []string
	for _, d := range decls {
		if !seen[d.Name] {
			seen[d.Name] = true
			names = append(names, d.Name)
		}
	}
	for _, sym := range e.registry.Symbols() {
		if !sym.Native && !seen[sym.Name] && sym.Range != nil && sym.Range.File() == f.Path {
			seen[sym.Name] = true
			names = append(names, sym.Name)
		}
	}
	return names, nil
}

// dropRefsLocked forgets every reference recorded in a removed file.
func (e *Engine) dropRefsLocked(path string) {
	for _, sym := range e.registry.Symbols() {
		if sym.Native {
			continue
		}
		sym.DropRefsIn(path)
		sym.Type.DropRefsIn(path)
		if sym.Type.Kind == project.KindEnum {
			for _, m := range sym.Type.Members() {
				m.DropRefsIn(path)
			}
		}
	}
}

// removeGlobalLocked unregisters a global declared by the removed file at
// path. A global another file still declares is kept and re-stamped to
// that declaration.
func (e *Engine) removeGlobalLocked(path, name string) {
	sym := e.registry.GetGlobal(name)
	if sym == nil || sym.Native {
		return
	}
	if sym.Range != nil && sym.Range.File() != path {
		return
	}
	decls, err := e.store.DeclarationsByName(name)
	if err != nil {
		e.logger.Warn("lookup declarations", "name", name, "error", err)
		return
	}
	for _, d := range decls {
		other, err := e.store.FileByID(d.FileID)
		if err != nil || other == nil || other.Path == path {
			continue
		}
		if d.StartLine > 0 {
			rng := declarationRange(other.Path, d)
			sym.DefinedAt(rng)
			sym.Type.DefinedAt(rng)
		}
		e.logger.Debug("global still declared", "name", name, "path", other.Path)
		return
	}
	e.registry.RemoveGlobal(name)
	e.logger.Debug("removed global", "name", name, "path", path)
}

func (e *Engine) recordLocked(f *store.File, res *extract.Result) error {
	if err := e.store.UpsertFile(f); err != nil {
		return err
	}
	batch := store.NewBatchedStore(e.store)
	batch.Replace(f.ID)
	if err := writeResult(batch, f, res); err != nil {
		return err
	}
	return e.store.CommitBatch(batch)
}

// writeResult records the declarations and diagnostics of one applied file.
func writeResult(ds store.DataStore, f *store.File, res *extract.Result) error {
	for _, sym := range res.Declared {
		if _, err := ds.InsertDeclaration(declarationRow(f, sym)); err != nil {
			return err
		}
	}
	for _, d := range res.Diagnostics {
		if _, err := ds.InsertDiagnostic(diagnosticRow(f.ID, d)); err != nil {
			return err
		}
	}
	return nil
}

func declarationRange(path string, d *store.Declaration) syntax.Range {
	return syntax.Range{
		Start: syntax.Position{File: path, Line: d.StartLine, Column: d.StartCol},
		End:   syntax.Position{File: path, Line: d.EndLine, Column: d.EndCol},
	}
}

func declarationRow(f *store.File, sym *project.Symbol) *store.Declaration {
	d := &store.Declaration{
		FileID:   f.ID,
		Name:     sym.Name,
		Kind:     string(sym.Type.Kind),
		TypeExpr: sym.Type.String(),
	}
	if sym.Range != nil && sym.Range.File() == f.Path {
		d.StartLine, d.StartCol = sym.Range.Start.Line, sym.Range.Start.Column
		d.EndLine, d.EndCol = sym.Range.End.Line, sym.Range.End.Column
	}
	return d
}

func diagnosticRow(fileID int64, d project.Diagnostic) *store.Diagnostic {
	return &store.Diagnostic{
		FileID:    fileID,
		Kind:      d.Kind,
		Severity:  string(d.Severity),
		Message:   d.Message,
		StartLine: d.Range.Start.Line,
		StartCol:  d.Range.Start.Column,
		EndLine:   d.Range.End.Line,
		EndCol:    d.Range.End.Column,
	}
}

// syntaxErrors reports the outermost error nodes of a tree.
func syntaxErrors(root *syntax.Node) []project.Diagnostic {
	var diags []project.Diagnostic
	syntax.Walk(root, func(n *syntax.Node) bool {
		if n.Kind != syntax.KindError {
			return true
		}
		msg := "syntax error"
		if n.Text != "" {
			msg = "syntax error: " + n.Text
		}
		d := project.Warningf(project.DiagnosticParser, n.Range, "%s", msg)
		d.Severity = project.SeverityError
		diags = append(diags, d)
		return false
	})
	return diags
}

// RemoveFile drops path from the index and removes the globals whose
// declaration site is in it. Globals also declared by another indexed file
// are kept and point at that declaration. A removed global declared again
// later comes back as the same Symbol.
func (e *Engine) RemoveFile(path string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	f, err := e.store.FileByPath(path)
	if err != nil {
		return fmt.Errorf("feather: remove %s: %w", path, err)
	}
	if f == nil {
		return nil
	}
	names, err := e.declaredNamesLocked(f)
	if err != nil {
		return fmt.Errorf("feather: remove %s: %w", path, err)
	}
	e.dropRefsLocked(path)
	for _, name := range names {
		e.removeGlobalLocked(path, name)
	}
	if err := e.store.DeleteFiles([]int64{f.ID}); err != nil {
		return fmt.Errorf("feather: remove %s: %w", path, err)
	}
	e.metrics.FileDone(metrics.OutcomeRemoved)
	e.refreshGaugesLocked()
	e.logger.Info("removed file", "path", path, "globals", len(names))
	return nil
}

func (e *Engine) refreshGaugesLocked() {
	if e.metrics == nil {
		return
	}
	symbols := 0
	for _, sym := range e.registry.Symbols() {
		if !sym.Native {
			symbols++
		}
	}
	e.metrics.SetRegistrySize(symbols, len(e.registry.Types()))
	if counts, err := e.store.DiagnosticCounts(); err == nil {
		e.metrics.SetDiagnostics(counts)
	}
}

// skipDirs are directories never indexed by IndexDirectory or Watch.
var skipDirs = map[string]bool{
	"node_modules": true,
	"datafiles":    true,
	"options":      true,
}

// IndexDirectory discovers the GML files under root and indexes them.
// If root is inside a git repository, git ls-files is used to respect
// .gitignore; otherwise the filesystem is walked. Files indexed from root
// earlier that have since disappeared are removed.
func (e *Engine) IndexDirectory(ctx context.Context, root string) error {
	paths, err := e.gitListFiles(root)
	if err != nil {
		e.logger.Debug("git ls-files unavailable, walking", "root", root, "error", err)
		paths, err = e.walkListFiles(root)
		if err != nil {
			return err
		}
	}

	stale, err := e.store.FilesNotIn(paths)
	if err != nil {
		return fmt.Errorf("feather: list stale files: %w", err)
	}
	for _, f := range stale {
		if within(root, f.Path) {
			if err := e.RemoveFile(f.Path); err != nil {
				return err
			}
		}
	}
	return e.IndexFiles(ctx, paths)
}

func within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// accepts reports whether path, found under root, should be indexed.
func (e *Engine) accepts(root, path string) bool {
	if !gml.IsSource(path) {
		return false
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	dirs := strings.Split(rel, "/")
	for _, dir := range dirs[:len(dirs)-1] {
		if strings.HasPrefix(dir, ".") || skipDirs[dir] {
			return false
		}
	}
	return e.filter == nil || e.filter(rel)
}

// gitListFiles uses git ls-files to discover tracked and untracked (but not
// ignored) files under root.
func (e *Engine) gitListFiles(root string) ([]string, error) {
	cmd := exec.Command("git", "ls-files", "--cached", "--others", "--exclude-standard")
	cmd.Dir = root
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("git ls-files: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	var paths []string
	for _, line := range strings.Split(stdout.String(), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		absPath := filepath.Join(root, line)
		if e.accepts(root, absPath) {
			paths = append(paths, absPath)
		}
	}
	return paths, nil
}

// walkListFiles discovers files by walking the filesystem, skipping hidden
// directories and skipDirs.
func (e *Engine) walkListFiles(root string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			name := d.Name()
			if path != root && (strings.HasPrefix(name, ".") || skipDirs[name]) {
				return filepath.SkipDir
			}
			return nil
		}
		if e.accepts(root, path) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("feather: walk directory: %w", err)
	}
	return paths, nil
}

// RunScript runs the Risor script at path with the registry, session index
// and tree-sitter host functions. Imports resolve next to the script.
func (e *Engine) RunScript(ctx context.Context, path string, extras map[string]any) error {
	rt := e.newRuntime(filepath.Dir(path))
	defer rt.Close()
	return rt.RunScript(ctx, filepath.Base(path), extras)
}

// RunScriptFS runs the script name loaded from fsys.
func (e *Engine) RunScriptFS(ctx context.Context, fsys fs.FS, name string, extras map[string]any) error {
	rt := e.newRuntime("", runtime.WithRuntimeFS(fsys))
	defer rt.Close()
	return rt.RunScript(ctx, name, extras)
}

// RunSource runs inline Risor source.
func (e *Engine) RunSource(ctx context.Context, src string, extras map[string]any) error {
	rt := e.newRuntime("")
	defer rt.Close()
	return rt.RunSource(ctx, src, extras)
}

func (e *Engine) newRuntime(dir string, opts ...runtime.RuntimeOption) *runtime.Runtime {
	opts = append([]runtime.RuntimeOption{
		runtime.WithRegistry(e.View),
		runtime.WithRuntimeLogger(e.logger),
	}, opts...)
	return runtime.NewRuntime(e.store, dir, opts...)
}

// readSource reads a file for indexing.
func readSource(path string) ([]byte, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return src, nil
}
