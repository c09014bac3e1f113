package feather

import (
	"sort"

	"github.com/jward/feather/internal/project"
)

// TypeHierarchy is the inheritance view of one struct type.
type TypeHierarchy struct {
	Type TypeInfo `json:"type"`
	// Ancestors lists parent structs, nearest first. The built-in Struct
	// root is left out.
	Ancestors []string `json:"ancestors"`
	// Children lists the structs that directly inherit from Type.
	Children []string `json:"children"`
	// Constructor is the global that builds Type, if any.
	Constructor string `json:"constructor,omitempty"`
}

// TypeHierarchy returns the inheritance view of a struct. name is either a
// registered struct name such as "Struct.Enemy" or the name of the
// constructor that builds it.
func (q *QueryBuilder) TypeHierarchy(name string) (*TypeHierarchy, bool) {
	var (
		h  *TypeHierarchy
		ok bool
	)
	q.view(func(reg *project.Registry) {
		typeName, t := structByName(reg, name)
		if t == nil {
			return
		}
		ok = true
		h = &TypeHierarchy{
			Type:      typeInfo(typeName, t),
			Ancestors: []string{},
			Children:  []string{},
		}
		for p := t.Parent; p != nil && p.Name != "" && p.Name != string(project.KindStruct); p = p.Parent {
			h.Ancestors = append(h.Ancestors, p.String())
		}
		for _, other := range reg.Types() {
			if ot := reg.Type(other); ot != t && ot.Kind == project.KindStruct && ot.Parent == t {
				h.Children = append(h.Children, other)
			}
		}
		for _, sym := range reg.Symbols() {
			if sym.Type.Constructs == t {
				h.Constructor = sym.Name
				break
			}
		}
	})
	return h, ok
}

// Subtypes returns every struct that inherits from name, directly or not,
// in sorted order.
func (q *QueryBuilder) Subtypes(name string) []string {
	var out []string
	q.view(func(reg *project.Registry) {
		_, t := structByName(reg, name)
		if t == nil {
			return
		}
		for _, other := range reg.Types() {
			ot := reg.Type(other)
			if ot != t && ot.Kind == project.KindStruct && ot.DerivesFrom(t) {
				out = append(out, other)
			}
		}
	})
	sort.Strings(out)
	return out
}

func structByName(reg *project.Registry, name string) (string, *project.Type) {
	if t := reg.Type(name); t != nil && t.Kind == project.KindStruct {
		return name, t
	}
	if sym := reg.GetGlobal(name); sym != nil && sym.Type.Constructs != nil {
		return "Struct." + name, sym.Type.Constructs
	}
	return "", nil
}
