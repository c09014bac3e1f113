package project

import (
	"strings"

	"github.com/jward/feather/internal/syntax"
)

// Flags describe how a symbol may be used.
type Flags struct {
	Readable bool
	Writable bool
	Global   bool
}

// Symbol is a named entity: a global variable, function, macro, enum, or a
// member of a struct or enum.
type Symbol struct {
	Name        string
	Type        *Type
	Flags       Flags
	Refs        []Reference
	Description string
	Range       *syntax.Range

	// Index is the ordinal of an enum member.
	Index int
	// Native marks symbols loaded from the built-in spec.
	Native bool
}

// NewSymbol returns a readable, writable symbol of Unknown type.
func NewSymbol(name string) *Symbol {
	return &Symbol{
		Name:  name,
		Type:  NewType(KindUnknown),
		Flags: Flags{Readable: true, Writable: true},
	}
}

// SetWritable sets the writable flag and returns s.
func (s *Symbol) SetWritable(writable bool) *Symbol {
	s.Flags.Writable = writable
	return s
}

// SetGlobal sets the global flag and returns s.
func (s *Symbol) SetGlobal(global bool) *Symbol {
	s.Flags.Global = global
	return s
}

// AddType attaches type evidence. An Unknown type is replaced outright;
// anything else is widened with Merge.
func (s *Symbol) AddType(t *Type) *Symbol {
	switch {
	case t == nil:
	case s.Type == nil || s.Type.Kind == KindUnknown:
		s.Type = t
	default:
		s.Type = Merge(s.Type, t)
	}
	return s
}

// DefinedAt records the declaration site and returns s.
func (s *Symbol) DefinedAt(rng syntax.Range) *Symbol {
	s.Range = &rng
	return s
}

// AddRef records a reference to s at rng with the type observed there.
func (s *Symbol) AddRef(rng syntax.Range, t *Type) Reference {
	ref := NewReference(s, rng, t)
	s.Refs = append(s.Refs, ref)
	return ref
}

// RefsIn returns the references located in file.
func (s *Symbol) RefsIn(file string) []Reference {
	var out []Reference
	for _, r := range s.Refs {
		if r.Start.File == file {
			out = append(out, r)
		}
	}
	return out
}

// DropRefsIn removes every reference located in file.
func (s *Symbol) DropRefsIn(file string) {
	kept := s.Refs[:0]
	for _, r := range s.Refs {
		if r.Start.File != file {
			kept = append(kept, r)
		}
	}
	s.Refs = kept
}

// Code renders a one-line signature for hover text.
func (s *Symbol) Code() string {
	t := s.Type
	if t == nil || !t.Kind.IsCallable() {
		return s.Name + ": " + t.String()
	}
	var b strings.Builder
	if t.Kind == KindConstructor {
		b.WriteString("constructor ")
	} else {
		b.WriteString("function ")
	}
	b.WriteString(s.Name)
	b.WriteByte('(')
	for i, p := range t.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		name := p.Name
		if p.Optional {
			name = "[" + name + "]"
		}
		b.WriteString(name)
		if p.Type != nil && p.Type.Kind != KindUnknown {
			b.WriteString(": ")
			b.WriteString(p.Type.String())
		}
	}
	b.WriteByte(')')
	if t.Returns != nil && t.Returns.Kind != KindUnknown {
		b.WriteString(" -> ")
		b.WriteString(t.Returns.String())
	}
	return b.String()
}

// Reference is one use of a symbol.
type Reference struct {
	Symbol *Symbol
	Type   *Type
	Start  syntax.Position
	End    syntax.Position
}

// NewReference builds a reference to sym spanning rng.
func NewReference(sym *Symbol, rng syntax.Range, t *Type) Reference {
	return Reference{Symbol: sym, Type: t, Start: rng.Start, End: rng.End}
}

// Range returns the span of the reference.
func (r Reference) Range() syntax.Range {
	return syntax.Range{Start: r.Start, End: r.End}
}
