// Package project holds the type algebra, symbols and the session-wide
// registry of named types and global symbols.
//
// A Registry is not safe for concurrent use. Callers serialize mutation
// and keep readers from overlapping with writers; the feather Engine does
// this with a readers-writer lock.
package project

import (
	"io"
	"log/slog"
	"slices"
	"sort"
	"strings"

	"github.com/jward/feather/internal/typeexpr"
)

// GlobalSelfName is the name of the struct that mirrors global.<name> access.
const GlobalSelfName = "global"

// Registry is the table of all named types and global symbols of a project.
type Registry struct {
	symbols  map[string]*Symbol
	retired  map[string]*Symbol
	types    map[string]*Type
	self     *Type
	instance *Type
	spec     *Spec
	logger   *slog.Logger
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithRegistryLogger sets the logger used for load summaries and skipped
// spec entries.
func WithRegistryLogger(l *slog.Logger) RegistryOption {
	return func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewRegistry creates a registry seeded with one canonical type per
// primitive kind and an empty global-self struct.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		symbols: make(map[string]*Symbol),
		retired: make(map[string]*Symbol),
		types:   make(map[string]*Type, len(kinds)),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}
	for _, k := range kinds {
		r.types[string(k)] = NewType(k).Named(string(k))
	}
	r.self = r.CreateStructType().Named(GlobalSelfName)
	r.self.Global = true
	r.instance = r.CreateStructType().Named("instance")
	return r
}

// CreateType returns a new type derived from the canonical type of kind.
func (r *Registry) CreateType(kind Kind) (*Type, error) {
	canonical := r.types[string(kind)]
	if canonical == nil || canonical.Kind != kind {
		return nil, invariantf("create type", "no canonical type for kind %q", kind)
	}
	return canonical.Derive(), nil
}

// CreateStructType returns a new struct type derived from the canonical
// Struct.
func (r *Registry) CreateStructType() *Type {
	return r.types[string(KindStruct)].Derive()
}

// EnsureType registers t under name unless a type is already registered
// there, and returns the registered type. A dotted name already bound to a
// different type is an invariant violation.
func (r *Registry) EnsureType(name string, t *Type) (*Type, error) {
	existing, ok := r.types[name]
	if !ok {
		r.types[name] = t
		return t, nil
	}
	if existing != t && strings.Contains(name, ".") {
		return nil, invariantf("ensure type", "type %q is already registered with a different identity", name).
			With("existing", existing.String()).
			With("candidate", t.String())
	}
	return existing, nil
}

// Type returns the type registered under name, or nil.
func (r *Registry) Type(name string) *Type {
	return r.types[name]
}

// Types returns all registered type names in sorted order.
func (r *Registry) Types() []string {
	names := make([]string, 0, len(r.types))
	for name := range r.types {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RemoveType unregisters name if it is bound to t.
func (r *Registry) RemoveType(name string, t *Type) bool {
	if r.types[name] != t {
		return false
	}
	delete(r.types, name)
	return true
}

// GetGlobal returns the global symbol called name, or nil.
func (r *Registry) GetGlobal(name string) *Symbol {
	return r.symbols[name]
}

// AddGlobal registers sym as a global. When exposeAsSelfMember is set the
// symbol is also placed in the global-self struct so global.<name>
// resolves to it. Registering a second symbol under a taken name is an
// invariant violation.
func (r *Registry) AddGlobal(sym *Symbol, exposeAsSelfMember bool) error {
	if existing := r.symbols[sym.Name]; existing != nil && existing != sym {
		return invariantf("add global", "global %q is already registered", sym.Name)
	}
	r.symbols[sym.Name] = sym
	delete(r.retired, sym.Name)
	if exposeAsSelfMember {
		r.self.putMember(sym)
	}
	return nil
}

// RemoveGlobal drops the global called name, its global-self mirror, and
// the struct type of a constructor. It reports whether anything was removed.
// The symbol is retired rather than forgotten: Revive hands the same
// instance back when the name is declared again.
func (r *Registry) RemoveGlobal(name string) bool {
	sym := r.symbols[name]
	removed := r.self.RemoveMember(name)
	if sym == nil {
		return removed
	}
	delete(r.symbols, name)
	if sym.Type != nil && sym.Type.Constructs != nil {
		r.RemoveType("Struct."+name, sym.Type.Constructs)
	}
	if !sym.Native {
		r.retired[name] = sym
	}
	return true
}

// Revive re-registers the symbol last removed under name and returns it,
// or returns nil when there is none. A constructor gets its struct type
// back unless another struct took the name meanwhile, in which case the
// link is cleared so the next declaration adopts the registered one.
func (r *Registry) Revive(name string) *Symbol {
	sym := r.retired[name]
	if sym == nil || r.symbols[name] != nil {
		return nil
	}
	delete(r.retired, name)
	r.symbols[name] = sym
	if sym.Type == nil || sym.Type.Constructs == nil {
		return sym
	}
	if c := sym.Type.Constructs; c != nil {
		structName := "Struct." + name
		if existing := r.types[structName]; existing != nil && existing != c {
			sym.Type.Constructs = nil
		} else {
			r.types[structName] = c
		}
	}
	return sym
}

// GlobalSelf returns the struct that mirrors global.<name> access.
func (r *Registry) GlobalSelf() *Type {
	return r.self
}

// Instance returns the struct holding built-in instance variables.
func (r *Registry) Instance() *Type {
	return r.instance
}

// Spec returns the loaded built-in spec, or nil.
func (r *Registry) Spec() *Spec {
	return r.spec
}

// Symbols returns every global symbol sorted by name.
func (r *Registry) Symbols() []*Symbol {
	return r.filter(func(*Symbol) bool { return true })
}

// Functions returns the global functions and constructors.
func (r *Registry) Functions() []*Symbol {
	return r.filter(isFunction)
}

// Variables returns the writable, non-function globals.
func (r *Registry) Variables() []*Symbol {
	return r.filter(func(s *Symbol) bool { return !isFunction(s) && s.Flags.Writable })
}

// Constants returns the read-only, non-function globals.
func (r *Registry) Constants() []*Symbol {
	return r.filter(func(s *Symbol) bool { return !isFunction(s) && !s.Flags.Writable })
}

func isFunction(s *Symbol) bool {
	return s.Type != nil && s.Type.Kind.IsCallable()
}

func (r *Registry) filter(keep func(*Symbol) bool) []*Symbol {
	var out []*Symbol
	for _, s := range r.symbols {
		if keep(s) {
			out = append(out, s)
		}
	}
	slices.SortFunc(out, func(a, b *Symbol) int { return strings.Compare(a.Name, b.Name) })
	return out
}

// ResolveType parses annotation text against the registry. Registered
// names such as "Struct.Player" or "Constant.Colour" resolve to a type
// derived from the registered one; everything else goes through
// FromIdentifier. Sub-annotations dropped from non-containers are
// described in the returned notes.
func (r *Registry) ResolveType(text string) (*Type, []string, error) {
	node, err := typeexpr.Parse(text)
	if err != nil {
		return nil, nil, err
	}
	b := annotationBuilder{resolve: r.resolveName}
	t, err := b.build(node)
	if err != nil {
		return nil, nil, err
	}
	return t, b.dropped, nil
}

func (r *Registry) resolveName(name string) *Type {
	if t := r.types[name]; t != nil {
		return t.Derive()
	}
	if kind, ok := LookupKind(name); ok {
		return r.types[string(kind)].Derive()
	}
	return nil
}
