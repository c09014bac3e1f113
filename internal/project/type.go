package project

import (
	"maps"
	"slices"
	"strings"

	"github.com/jward/feather/internal/syntax"
)

// Param is one parameter of a Function or Constructor type.
type Param struct {
	Name        string
	Type        *Type
	Optional    bool
	Description string
}

// Type is a node in the type graph. A *Type is a stable identity: merging
// mutates it in place so every holder of the pointer observes the result.
//
// Aggregates (Struct, Enum) carry a member table. Containers (Array,
// Id.Ds*) carry Items. Unions carry Types. Callables carry Params,
// Returns, Context and, for constructors, Constructs.
type Type struct {
	Kind Kind
	Name string

	// Parent is the type this one was derived from.
	Parent *Type

	Items *Type
	Types []*Type

	Params     []Param
	Returns    *Type
	Context    *Type
	Constructs *Type

	Global bool
	Def    *syntax.Range
	Refs   []syntax.Range

	members     map[string]*Symbol
	memberOrder []string
}

// NewType returns a fresh, underived type of the given kind.
func NewType(kind Kind) *Type {
	return &Type{Kind: kind}
}

// Derive returns a new type of the same kind whose Parent is t.
func (t *Type) Derive() *Type {
	return &Type{Kind: t.Kind, Parent: t}
}

// Named sets the type's name and returns t.
func (t *Type) Named(name string) *Type {
	t.Name = name
	return t
}

// DefinedAt records the declaration site and returns t.
func (t *Type) DefinedAt(rng syntax.Range) *Type {
	t.Def = &rng
	return t
}

// AddRef records a reference site.
func (t *Type) AddRef(rng syntax.Range) {
	t.Refs = append(t.Refs, rng)
}

// DropRefsIn removes every reference site located in file.
func (t *Type) DropRefsIn(file string) {
	kept := t.Refs[:0]
	for _, r := range t.Refs {
		if r.File() != file {
			kept = append(kept, r)
		}
	}
	t.Refs = kept
}

// Is reports whether t has the given kind.
func (t *Type) Is(kind Kind) bool {
	return t != nil && t.Kind == kind
}

// DerivesFrom reports whether other is t or an ancestor of t.
func (t *Type) DerivesFrom(other *Type) bool {
	for cur := t; cur != nil; cur = cur.Parent {
		if cur == other {
			return true
		}
	}
	return false
}

// Member returns the named member, or nil.
func (t *Type) Member(name string) *Symbol {
	if t == nil {
		return nil
	}
	return t.members[name]
}

// Members returns the members in insertion order. Enum members are ordered
// by their Index.
func (t *Type) Members() []*Symbol {
	out := make([]*Symbol, 0, len(t.memberOrder))
	for _, name := range t.memberOrder {
		out = append(out, t.members[name])
	}
	if t.Kind == KindEnum {
		slices.SortStableFunc(out, func(a, b *Symbol) int { return a.Index - b.Index })
	}
	return out
}

// AddMemberType sets the type of the named member, creating the member if
// needed. An existing member keeps its identity; its type is replaced.
func (t *Type) AddMemberType(name string, memberType *Type) (*Symbol, error) {
	sym, err := t.ensureMember(name)
	if err != nil {
		return nil, err
	}
	sym.Type = memberType
	return sym, nil
}

// AddMember inserts sym under its own name, replacing any existing member
// of that name.
func (t *Type) AddMember(sym *Symbol) error {
	if !t.Kind.HasMembers() {
		return invariantf("add member", "%s cannot hold members", t).With("member", sym.Name)
	}
	t.putMember(sym)
	return nil
}

// RemoveMember deletes the named member and reports whether it existed.
func (t *Type) RemoveMember(name string) bool {
	if _, ok := t.members[name]; !ok {
		return false
	}
	delete(t.members, name)
	t.memberOrder = slices.DeleteFunc(t.memberOrder, func(n string) bool { return n == name })
	return true
}

func (t *Type) ensureMember(name string) (*Symbol, error) {
	if !t.Kind.HasMembers() {
		return nil, invariantf("add member", "%s cannot hold members", t).With("member", name)
	}
	if sym := t.members[name]; sym != nil {
		return sym, nil
	}
	sym := NewSymbol(name)
	t.putMember(sym)
	return sym, nil
}

func (t *Type) putMember(sym *Symbol) {
	if t.members == nil {
		t.members = make(map[string]*Symbol)
	}
	if _, ok := t.members[sym.Name]; !ok {
		t.memberOrder = append(t.memberOrder, sym.Name)
	}
	t.members[sym.Name] = sym
}

// AddItemType widens the item type of a container.
func (t *Type) AddItemType(item *Type) error {
	if !t.Kind.IsContainer() {
		return invariantf("add item type", "%s is not a container", t)
	}
	if t.Items == nil {
		t.Items = item
		return nil
	}
	t.Items = Merge(t.Items, item)
	return nil
}

// String renders the type in annotation syntax.
func (t *Type) String() string {
	if t == nil {
		return string(KindUnknown)
	}
	switch {
	case t.Kind == KindUnion:
		parts := make([]string, len(t.Types))
		for i, m := range t.Types {
			parts[i] = m.String()
		}
		return strings.Join(parts, "|")
	case t.Kind.IsContainer() && t.Items != nil:
		return string(t.Kind) + "<" + t.Items.String() + ">"
	case t.Kind == KindStruct:
		switch name := t.structName(); {
		case name == "":
			return string(KindStruct)
		case strings.Contains(name, "."):
			return name
		default:
			return "Struct." + name
		}
	case t.Kind == KindConstructor && t.Constructs != nil:
		return "Constructor<" + t.Constructs.String() + ">"
	}
	if strings.HasPrefix(t.Name, "Constant.") {
		return t.Name
	}
	if t.Parent != nil && strings.HasPrefix(t.Parent.Name, "Constant.") {
		return t.Parent.Name
	}
	return string(t.Kind)
}

// structName returns the nearest struct name along the parent chain,
// skipping the canonical Struct.
func (t *Type) structName() string {
	for cur := t; cur != nil; cur = cur.Parent {
		if cur.Name != "" && cur.Name != string(KindStruct) {
			return cur.Name
		}
	}
	return ""
}

// clone returns a shallow copy of t that owns its slices and member table.
func (t *Type) clone() *Type {
	c := *t
	c.Types = slices.Clone(t.Types)
	c.Params = slices.Clone(t.Params)
	c.Refs = slices.Clone(t.Refs)
	c.members = maps.Clone(t.members)
	c.memberOrder = slices.Clone(t.memberOrder)
	return &c
}
