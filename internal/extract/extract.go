// Package extract discovers global declarations in one file's syntax tree
// and registers or updates them in a project.Registry.
//
// Re-extracting a file reuses the symbols and types registered by earlier
// passes, so identities held by callers stay valid across edits.
package extract

import (
	"fmt"

	"github.com/jward/feather/internal/project"
	"github.com/jward/feather/internal/syntax"
)

// AssetKind tags the GameMaker resource a file belongs to.
type AssetKind string

const (
	AssetScript AssetKind = "scripts"
	AssetObject AssetKind = "objects"
)

// IsScript reports whether top-level functions in this asset are global.
func (k AssetKind) IsScript() bool {
	return k == AssetScript
}

// File is one parsed source file.
type File struct {
	Path  string
	Asset AssetKind
	Root  *syntax.Node
}

// Result lists what one extraction pass registered.
type Result struct {
	// Declared holds each global symbol declared or touched by the file,
	// in first-seen order.
	Declared    []*project.Symbol
	Diagnostics []project.Diagnostic
}

// GlobalDeclarations walks file and registers its global declarations in
// reg. Malformed declarations become diagnostics; an error is returned only
// for internal-consistency failures, in which case the walk stops.
func GlobalDeclarations(reg *project.Registry, file File) (*Result, error) {
	if file.Root == nil {
		return nil, fmt.Errorf("extract: %s: nil syntax tree", file.Path)
	}
	w := &walker{
		reg:    reg,
		file:   file,
		scopes: []*syntax.Node{file.Root},
		seen:   make(map[*project.Symbol]bool),
		result: &Result{},
	}
	w.walk(file.Root)
	if w.err != nil {
		return w.result, fmt.Errorf("extract: %s: %w", file.Path, w.err)
	}
	if len(w.scopes) != 1 {
		return w.result, fmt.Errorf("extract: %s: %w", file.Path,
			&project.InvariantError{Op: "extract", Message: fmt.Sprintf("scope depth %d after walk", len(w.scopes))})
	}
	return w.result, nil
}

type walker struct {
	reg    *project.Registry
	file   File
	scopes []*syntax.Node
	seen   map[*project.Symbol]bool
	result *Result
	err    error
}

func (w *walker) atFileScope() bool {
	return w.scopes[len(w.scopes)-1] == w.file.Root
}

func (w *walker) warn(kind string, rng syntax.Range, format string, args ...any) {
	w.result.Diagnostics = append(w.result.Diagnostics, project.Warningf(kind, rng, format, args...))
}

func (w *walker) declared(sym *project.Symbol) {
	if sym == nil || w.seen[sym] {
		return
	}
	w.seen[sym] = true
	w.result.Declared = append(w.result.Declared, sym)
}

func (w *walker) walk(n *syntax.Node) {
	if n == nil || w.err != nil {
		return
	}
	switch n.Kind {
	case syntax.KindFunction:
		w.function(n)
	case syntax.KindEnum:
		w.enum(n)
	case syntax.KindMacro:
		if n.Identifier() == nil {
			w.warn(project.DiagnosticDeclaration, n.Range, "macro without a name")
			return
		}
		w.declared(w.register(n, project.KindMacro, false))
	case syntax.KindGlobalVar:
		for _, id := range n.ChildrenOf(syntax.KindIdentifier) {
			w.declared(w.register(id, project.KindUnknown, true))
		}
	case syntax.KindAccessor:
		w.accessor(n)
		w.walkChildren(n)
	case syntax.KindAssignment:
		w.assignment(n)
	default:
		w.walkChildren(n)
	}
}

func (w *walker) walkChildren(n *syntax.Node) {
	for _, c := range n.Children {
		w.walk(c)
	}
}

func (w *walker) function(n *syntax.Node) {
	if w.atFileScope() && w.file.Asset.IsScript() && n.Identifier() != nil {
		kind := project.KindFunction
		if n.Field(syntax.FieldConstructor) != nil {
			kind = project.KindConstructor
		}
		if sym := w.register(n, kind, false); sym != nil {
			w.describeFunction(sym, n)
			w.declared(sym)
		}
	}

	w.scopes = append(w.scopes, n)
	w.walk(n.Field(syntax.FieldBody))
	w.scopes = w.scopes[:len(w.scopes)-1]
}

func (w *walker) enum(n *syntax.Node) {
	id := n.Identifier()
	if id == nil {
		w.warn(project.DiagnosticDeclaration, n.Range, "enum without a name")
		return
	}
	sym := w.register(n, project.KindEnum, false)
	if sym == nil {
		return
	}
	w.declared(sym)
	enumType := sym.Type

	for i, m := range n.ChildrenOf(syntax.KindEnumMember) {
		memberID := m.Identifier()
		if memberID == nil {
			w.warn(project.DiagnosticDeclaration, m.Range, "enum %s: member without a name", id.Text)
			continue
		}
		name := memberID.Text
		member := enumType.Member(name)
		if member == nil {
			memberType, err := w.reg.CreateType(project.KindEnumMember)
			if err != nil {
				w.err = err
				return
			}
			memberType.Named(name)
			if member, err = enumType.AddMemberType(name, memberType); err != nil {
				w.err = err
				return
			}
			member.SetWritable(false)
		}
		member.Index = i
		member.DefinedAt(memberID.Range)
		member.Type.DefinedAt(memberID.Range)
		member.AddRef(memberID.Range, member.Type)
	}
}

// accessor registers global.<name> as a member of the global-self struct.
func (w *walker) accessor(n *syntax.Node) *project.Symbol {
	obj := n.Field(syntax.FieldObject)
	prop := n.Field(syntax.FieldProperty)
	if obj == nil || obj.Kind != syntax.KindIdentifier || obj.Text != syntax.GlobalKeyword {
		return nil
	}
	if prop == nil || prop.Kind != syntax.KindIdentifier || prop.Text == "" {
		w.warn(project.DiagnosticDeclaration, n.Range, "global accessor without a member name")
		return nil
	}
	sym := w.register(prop, project.KindUnknown, true)
	w.declared(sym)
	return sym
}

func (w *walker) assignment(n *syntax.Node) {
	left := n.Field(syntax.FieldLeft)
	right := n.Field(syntax.FieldRight)

	var target *project.Symbol
	if left != nil && left.Kind == syntax.KindAccessor {
		target = w.accessor(left)
		w.walkChildren(left)
	} else {
		w.walk(left)
	}
	w.walk(right)
	if w.err != nil || target == nil || right == nil {
		return
	}
	w.infer(target, right)
}

// RegisterGlobalDeclaration creates or updates the global symbol declared
// by decl. decl is either the declaring node (its name field is used) or
// the identifier itself. It returns nil when decl has no identifier or the
// declaration conflicts with an existing global.
func RegisterGlobalDeclaration(reg *project.Registry, decl *syntax.Node, kind project.Kind, exposeAsSelfMember bool) (*project.Symbol, []project.Diagnostic, error) {
	w := &walker{reg: reg, result: &Result{}}
	sym := w.register(decl, kind, exposeAsSelfMember)
	return sym, w.result.Diagnostics, w.err
}

func (w *walker) register(decl *syntax.Node, kind project.Kind, exposeAsSelfMember bool) *project.Symbol {
	id := decl
	if decl.Kind != syntax.KindIdentifier {
		id = decl.Identifier()
	}
	if id == nil || id.Text == "" {
		return nil
	}
	name := id.Text
	rng := id.Range

	declared, err := w.reg.CreateType(kind)
	if err != nil {
		w.err = err
		return nil
	}
	declared.Named(name).DefinedAt(rng).Global = true

	sym := w.reg.GetGlobal(name)
	if sym == nil {
		sym = w.revive(name, declared, kind)
	}
	if sym == nil {
		sym = project.NewSymbol(name).AddType(declared)
		if isReadOnly(kind) {
			sym.SetWritable(false)
		}
		if kind == project.KindConstructor && !w.link(declared, name) {
			return nil
		}
		if err := w.reg.AddGlobal(sym, exposeAsSelfMember); err != nil {
			w.err = err
			return nil
		}
	} else {
		if sym.Native {
			w.warn(project.DiagnosticDeclaration, rng, "%s shadows a built-in", name)
			return nil
		}
		if !w.reconcile(sym, declared, kind, rng) {
			return nil
		}
		if exposeAsSelfMember {
			if err := w.reg.AddGlobal(sym, true); err != nil {
				w.err = err
				return nil
			}
		}
	}

	sym.DefinedAt(rng).SetGlobal(true)
	sym.AddRef(rng, sym.Type)
	sym.Type.AddRef(rng)
	return sym
}

// revive brings back a global removed with its file, keeping its
// identity. A declaration of a different kind replaces its type.
func (w *walker) revive(name string, declared *project.Type, kind project.Kind) *project.Symbol {
	sym := w.reg.Revive(name)
	if sym == nil {
		return nil
	}
	if sym.Type != nil && (sym.Type.Kind == kind || kind == project.KindUnknown) {
		return sym
	}
	if sym.Type != nil && sym.Type.Constructs != nil {
		w.reg.RemoveType("Struct."+name, sym.Type.Constructs)
	}
	sym.Type = declared
	sym.SetWritable(!isReadOnly(kind))
	return sym
}

// reconcile fits a redeclaration of sym into its existing type. A
// declaration of the same kind keeps the existing type. An Unknown type, or
// a callable changing between function and constructor, is superseded by
// the new declaration. Any other kind change is reported and skipped.
func (w *walker) reconcile(sym *project.Symbol, declared *project.Type, kind project.Kind, rng syntax.Range) bool {
	current := sym.Type
	switch {
	case kind == project.KindUnknown:
	case current.Kind == project.KindUnknown:
		sym.AddType(declared)
		if isReadOnly(kind) {
			sym.SetWritable(false)
		}
	case current.Kind == kind:
		current.DefinedAt(rng)
	case current.Kind.IsCallable() && kind.IsCallable():
		if current.Constructs != nil && kind != project.KindConstructor {
			w.reg.RemoveType("Struct."+sym.Name, current.Constructs)
		}
		sym.Type = declared
	default:
		w.warn(project.DiagnosticDeclaration, rng, "%s redeclared as %s, previously %s", sym.Name, kind, current.Kind)
		return false
	}
	if sym.Type.Kind == project.KindConstructor && sym.Type.Constructs == nil {
		return w.link(sym.Type, sym.Name)
	}
	return true
}

// link attaches the Struct.<name> type built by a constructor, reusing one
// that is already registered.
func (w *walker) link(ctor *project.Type, name string) bool {
	structName := "Struct." + name
	structType := w.reg.Type(structName)
	if structType == nil || structType.Kind != project.KindStruct {
		structType = w.reg.CreateStructType().Named(name)
		if _, err := w.reg.EnsureType(structName, structType); err != nil {
			w.err = err
			return false
		}
	}
	structType.Global = true
	if ctor.Def != nil {
		structType.DefinedAt(*ctor.Def)
	}
	ctor.Constructs = structType
	return true
}

func isReadOnly(kind project.Kind) bool {
	switch kind {
	case project.KindFunction, project.KindConstructor, project.KindEnum, project.KindMacro:
		return true
	}
	return false
}
