package project

import (
	"fmt"
	"strings"

	"github.com/jward/feather/internal/typeexpr"
)

// Merge widens original with incoming and returns original. original keeps
// its identity in every case:
//
//   - a nil or Unknown incoming changes nothing
//   - Any and Mixed absorb everything
//   - an Unknown original takes on incoming's shape
//   - any other non-union original becomes a union whose first member is a
//     copy of its previous shape
//   - incoming is then appended to the union, flattening an incoming union
//
// Unions are never deduplicated.
func Merge(original, incoming *Type) *Type {
	if original == nil {
		return incoming
	}
	if incoming == nil || incoming.Kind == KindUnknown {
		return original
	}
	if original.Kind == KindAny || original.Kind == KindMixed {
		return original
	}
	if original.Kind == KindUnknown {
		*original = *incoming.clone()
		return original
	}

	if original.Kind != KindUnion {
		previous := original.clone()
		*original = Type{Kind: KindUnion, Types: []*Type{previous}}
		if incoming == original {
			incoming = previous
		}
	}
	if incoming.Kind == KindUnion {
		original.Types = append(original.Types, incoming.Types...)
	} else {
		original.Types = append(original.Types, incoming)
	}
	return original
}

// FromIdentifier maps a type name to a fresh type. A dotted name that is
// itself a primitive kind ("Id.DsMap") wins; otherwise the leading
// component is matched, so "Struct.Player" yields a Struct. Names that do
// not look like type identifiers are an error; well-formed but unknown
// names yield Unknown.
func FromIdentifier(name string) (*Type, error) {
	if !isTypeIdentifier(name) {
		return nil, fmt.Errorf("project: invalid type identifier %q", name)
	}
	if kind, ok := LookupKind(name); ok {
		return NewType(kind), nil
	}
	head, _, _ := strings.Cut(name, ".")
	if kind, ok := LookupKind(head); ok {
		return NewType(kind), nil
	}
	return NewType(KindUnknown), nil
}

func isTypeIdentifier(name string) bool {
	if name == "" {
		return false
	}
	c := name[0]
	if !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z') {
		return false
	}
	for i := 1; i < len(name); i++ {
		c := name[i]
		if !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '.' || c == '_') {
			return false
		}
	}
	return true
}

// FromAnnotation builds a type from a parsed annotation. Unions produce a
// Union type; an identifier with a sub-annotation becomes a container whose
// item type is the sub-annotation. A sub-annotation on a kind that holds no
// items is dropped and the identifier's own type kept.
func FromAnnotation(node *typeexpr.Node) (*Type, error) {
	b := annotationBuilder{}
	return b.build(node)
}

// ParseType parses annotation text and builds the corresponding type.
func ParseType(text string) (*Type, error) {
	node, err := typeexpr.Parse(text)
	if err != nil {
		return nil, err
	}
	return FromAnnotation(node)
}

type typeResolver func(name string) *Type

// annotationBuilder turns annotation nodes into types, recording the
// sub-annotations it had to drop.
type annotationBuilder struct {
	resolve typeResolver
	dropped []string
}

func (b *annotationBuilder) build(node *typeexpr.Node) (*Type, error) {
	if node == nil {
		return NewType(KindUnknown), nil
	}
	if node.IsUnion() {
		folded := NewType(KindUnknown)
		for _, m := range node.Union {
			member, err := b.build(m)
			if err != nil {
				return nil, err
			}
			Merge(folded, member)
		}
		return folded, nil
	}

	var t *Type
	if b.resolve != nil {
		t = b.resolve(node.Identifier)
	}
	if t == nil {
		var err error
		if t, err = FromIdentifier(node.Identifier); err != nil {
			return nil, err
		}
		if t.Kind == KindStruct {
			if _, name, ok := strings.Cut(node.Identifier, "."); ok {
				t.Name = name
			}
		}
	}
	if node.Of == nil {
		return t, nil
	}
	if !t.Kind.IsContainer() {
		b.dropped = append(b.dropped, fmt.Sprintf("%s cannot have item type %s", node.Identifier, node.Of))
		return t, nil
	}
	items, err := b.build(node.Of)
	if err != nil {
		return nil, err
	}
	if err := t.AddItemType(items); err != nil {
		return nil, fmt.Errorf("project: %s cannot have item type %s: %w", node.Identifier, node.Of, err)
	}
	return t, nil
}
