// Package syntax defines the syntax tree handed to the engine by a parser.
//
// The engine never parses source text itself. Any parser that can produce
// a tree of Nodes with the kinds and fields below can drive extraction; the
// internal/gml package provides one built on tree-sitter.
package syntax

import "context"

// Kind identifies the grammatical category of a Node.
type Kind string

const (
	KindProgram       Kind = "program"
	KindBlock         Kind = "block"
	KindFunction      Kind = "function"       // fields: name?, parameters, body, constructor?, parent?, docs?
	KindParameters    Kind = "parameters"     // children: KindParameter
	KindParameter     Kind = "parameter"      // fields: name, value?
	KindEnum          Kind = "enum"           // fields: name; children: KindEnumMember
	KindEnumMember    Kind = "enum_member"    // fields: name, value?
	KindMacro         Kind = "macro"          // fields: name, value?
	KindGlobalVar     Kind = "globalvar"      // children: KindIdentifier
	KindIdentifier    Kind = "identifier"     // Text holds the name
	KindAccessor      Kind = "accessor"       // fields: object, property
	KindAssignment    Kind = "assignment"     // fields: left, right
	KindNumber        Kind = "number"         // Text holds the literal
	KindString        Kind = "string"         // Text holds the literal
	KindBool          Kind = "bool"           // Text is "true" or "false"
	KindUndefined     Kind = "undefined"      // the undefined literal
	KindArrayLiteral  Kind = "array_literal"  // children: elements
	KindStructLiteral Kind = "struct_literal" // children: KindProperty
	KindProperty      Kind = "property"       // fields: name, value
	KindDoc           Kind = "doc"            // Text holds a JSDoc comment block
	KindError         Kind = "error"          // unparseable source; children hold what was recovered
	KindOther         Kind = "other"
)

// Field names used by the extractor.
const (
	FieldName        = "name"
	FieldParameters  = "parameters"
	FieldBody        = "body"
	FieldConstructor = "constructor"
	FieldParent      = "parent"
	FieldDocs        = "docs"
	FieldObject      = "object"
	FieldProperty    = "property"
	FieldLeft        = "left"
	FieldRight       = "right"
	FieldValue       = "value"
)

// GlobalKeyword is the root identifier of `global.<name>` accessors.
const GlobalKeyword = "global"

// Node is one node of a syntax tree.
type Node struct {
	Kind     Kind
	Text     string
	Range    Range
	Children []*Node

	fields map[string]*Node
}

// NewNode creates a node with the given children.
func NewNode(kind Kind, rng Range, children ...*Node) *Node {
	n := &Node{Kind: kind, Range: rng}
	for _, c := range children {
		if c != nil {
			n.Children = append(n.Children, c)
		}
	}
	return n
}

// NewLeaf creates a node carrying token text.
func NewLeaf(kind Kind, text string, rng Range) *Node {
	return &Node{Kind: kind, Text: text, Range: rng}
}

// SetField attaches child under name. The child is also appended to
// Children so plain walks still reach it. A nil child is ignored.
func (n *Node) SetField(name string, child *Node) *Node {
	if child == nil {
		return n
	}
	if n.fields == nil {
		n.fields = make(map[string]*Node)
	}
	if _, exists := n.fields[name]; !exists {
		n.Children = append(n.Children, child)
	}
	n.fields[name] = child
	return n
}

// Field returns the child registered under name, or nil.
func (n *Node) Field(name string) *Node {
	if n == nil || n.fields == nil {
		return nil
	}
	return n.fields[name]
}

// Identifier returns the node's name field when it is an identifier.
func (n *Node) Identifier() *Node {
	id := n.Field(FieldName)
	if id == nil || id.Kind != KindIdentifier || id.Text == "" {
		return nil
	}
	return id
}

// ChildrenOf returns the direct children of the given kind.
func (n *Node) ChildrenOf(kind Kind) []*Node {
	var out []*Node
	for _, c := range n.Children {
		if c.Kind == kind {
			out = append(out, c)
		}
	}
	return out
}

// Walk visits n and its descendants depth-first. If fn returns false the
// children of that node are skipped.
func Walk(n *Node, fn func(*Node) bool) {
	if n == nil {
		return
	}
	if !fn(n) {
		return
	}
	for _, c := range n.Children {
		Walk(c, fn)
	}
}

// Parser turns source text into a syntax tree.
type Parser interface {
	Parse(ctx context.Context, path string, src []byte) (*Node, error)
}
