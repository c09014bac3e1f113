package gml

import (
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/feather/internal/syntax"
)

// converter maps a tree-sitter TypeScript tree over rewritten GML onto
// syntax nodes, restoring the constructs rewrite removed.
type converter struct {
	path string
	src  *source
}

func (c *converter) rng(n *sitter.Node) syntax.Range {
	return c.src.span(c.path, int(n.StartByte()), int(n.EndByte()))
}

func (c *converter) text(n *sitter.Node) string {
	return n.Content(c.src.text)
}

func (c *converter) program(root *sitter.Node) *syntax.Node {
	prog := syntax.NewNode(syntax.KindProgram, c.src.span(c.path, 0, len(c.src.text)))
	children := c.children(root)
	for _, m := range c.src.macros {
		children = append(children, c.macro(m))
	}
	sort.SliceStable(children, func(i, j int) bool {
		return children[i].Range.Start.Offset < children[j].Range.Start.Offset
	})
	prog.Children = append(prog.Children, children...)
	return prog
}

func (c *converter) macro(m macro) *syntax.Node {
	n := syntax.NewNode(syntax.KindMacro, c.src.span(c.path, m.nameStart, m.end))
	n.SetField(syntax.FieldName, syntax.NewLeaf(syntax.KindIdentifier, m.name,
		c.src.span(c.path, m.nameStart, m.nameStart+len(m.name))))
	if m.value != "" {
		n.SetField(syntax.FieldValue, syntax.NewLeaf(syntax.KindOther, m.value,
			c.src.span(c.path, m.valueStart, m.valueStart+len(m.value))))
	}
	return n
}

func (c *converter) children(n *sitter.Node) []*syntax.Node {
	var out []*syntax.Node
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if child := c.convert(n.NamedChild(i)); child != nil {
			out = append(out, child)
		}
	}
	return out
}

func (c *converter) convert(n *sitter.Node) *syntax.Node {
	if n == nil {
		return nil
	}
	if n.IsMissing() {
		return syntax.NewLeaf(syntax.KindError, "missing "+n.Type(), c.rng(n))
	}
	switch n.Type() {
	case "comment":
		return nil
	case "ERROR":
		return syntax.NewNode(syntax.KindError, c.rng(n), c.children(n)...)
	case "statement_block", "class_body":
		return syntax.NewNode(syntax.KindBlock, c.rng(n), c.children(n)...)

	case "function_declaration", "generator_function_declaration",
		"function_expression", "function", "generator_function", "arrow_function", "method_definition":
		return c.function(n)
	case "formal_parameters":
		return c.parameters(n)
	case "required_parameter", "optional_parameter", "assignment_pattern":
		return c.parameter(n)

	case "enum_declaration":
		return c.enum(n)
	case "variable_declaration":
		if c.src.globalvars[int(n.StartByte())] {
			return c.globalvar(n)
		}
		return syntax.NewNode(syntax.KindOther, c.rng(n), c.children(n)...)

	case "member_expression":
		acc := syntax.NewNode(syntax.KindAccessor, c.rng(n))
		acc.SetField(syntax.FieldObject, c.convert(n.ChildByFieldName("object")))
		acc.SetField(syntax.FieldProperty, c.convert(n.ChildByFieldName("property")))
		return acc
	case "assignment_expression":
		as := syntax.NewNode(syntax.KindAssignment, c.rng(n))
		as.SetField(syntax.FieldLeft, c.convert(n.ChildByFieldName("left")))
		as.SetField(syntax.FieldRight, c.convert(n.ChildByFieldName("right")))
		return as

	case "identifier", "property_identifier", "shorthand_property_identifier",
		"type_identifier", "this", "super":
		return syntax.NewLeaf(syntax.KindIdentifier, c.text(n), c.rng(n))
	case "number":
		return syntax.NewLeaf(syntax.KindNumber, c.text(n), c.rng(n))
	case "string", "template_string":
		return syntax.NewLeaf(syntax.KindString, c.text(n), c.rng(n))
	case "true", "false":
		return syntax.NewLeaf(syntax.KindBool, c.text(n), c.rng(n))
	case "undefined":
		return syntax.NewLeaf(syntax.KindUndefined, c.text(n), c.rng(n))
	case "array":
		return syntax.NewNode(syntax.KindArrayLiteral, c.rng(n), c.children(n)...)
	case "object":
		return syntax.NewNode(syntax.KindStructLiteral, c.rng(n), c.children(n)...)
	case "pair":
		p := syntax.NewNode(syntax.KindProperty, c.rng(n))
		p.SetField(syntax.FieldName, c.convert(n.ChildByFieldName("key")))
		p.SetField(syntax.FieldValue, c.convert(n.ChildByFieldName("value")))
		return p
	case "parenthesized_expression":
		if n.NamedChildCount() == 1 {
			return c.convert(n.NamedChild(0))
		}
	}

	other := syntax.NewNode(syntax.KindOther, c.rng(n), c.children(n)...)
	other.Text = n.Type()
	return other
}

func (c *converter) function(n *sitter.Node) *syntax.Node {
	fn := syntax.NewNode(syntax.KindFunction, c.rng(n))
	fn.SetField(syntax.FieldName, c.convert(n.ChildByFieldName("name")))

	params := n.ChildByFieldName("parameters")
	if params != nil {
		fn.SetField(syntax.FieldParameters, c.parameters(params))
	} else if single := n.ChildByFieldName("parameter"); single != nil {
		// x => ...
		list := syntax.NewNode(syntax.KindParameters, c.rng(single))
		p := syntax.NewNode(syntax.KindParameter, c.rng(single))
		p.SetField(syntax.FieldName, c.convert(single))
		list.Children = append(list.Children, p)
		fn.SetField(syntax.FieldParameters, list)
	}

	if params != nil {
		if mark, ok := c.src.ctors[int(params.EndByte())-1]; ok {
			at := int(params.EndByte())
			fn.SetField(syntax.FieldConstructor, syntax.NewLeaf(syntax.KindOther, "constructor", c.src.span(c.path, at, at)))
			if mark.parent != "" {
				fn.SetField(syntax.FieldParent, syntax.NewLeaf(syntax.KindIdentifier, mark.parent,
					c.src.span(c.path, mark.parentStart, mark.parentStart+len(mark.parent))))
			}
		}
	}

	if docs := c.docs(n); docs != nil {
		fn.SetField(syntax.FieldDocs, docs)
	}
	fn.SetField(syntax.FieldBody, c.convert(n.ChildByFieldName("body")))
	return fn
}

// docs collects the comments directly above a declaration. A blank line
// ends the block.
func (c *converter) docs(n *sitter.Node) *syntax.Node {
	var comments []*sitter.Node
	next := n
	for prev := n.PrevNamedSibling(); prev != nil && prev.Type() == "comment"; prev = prev.PrevNamedSibling() {
		if next.StartPoint().Row-prev.EndPoint().Row > 1 {
			break
		}
		comments = append(comments, prev)
		next = prev
	}
	if len(comments) == 0 {
		return nil
	}
	lines := make([]string, 0, len(comments))
	for i := len(comments) - 1; i >= 0; i-- {
		lines = append(lines, c.text(comments[i]))
	}
	first, last := comments[len(comments)-1], comments[0]
	return syntax.NewLeaf(syntax.KindDoc, strings.Join(lines, "\n"),
		c.src.span(c.path, int(first.StartByte()), int(last.EndByte())))
}

func (c *converter) parameters(n *sitter.Node) *syntax.Node {
	list := syntax.NewNode(syntax.KindParameters, c.rng(n))
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		switch child.Type() {
		case "comment":
			continue
		case "identifier":
			p := syntax.NewNode(syntax.KindParameter, c.rng(child))
			p.SetField(syntax.FieldName, c.convert(child))
			list.Children = append(list.Children, p)
		default:
			list.Children = append(list.Children, c.parameter(child))
		}
	}
	return list
}

func (c *converter) parameter(n *sitter.Node) *syntax.Node {
	p := syntax.NewNode(syntax.KindParameter, c.rng(n))
	name := n.ChildByFieldName("pattern")
	if name == nil {
		name = n.ChildByFieldName("left")
	}
	p.SetField(syntax.FieldName, c.convert(name))
	value := n.ChildByFieldName("value")
	if value == nil {
		value = n.ChildByFieldName("right")
	}
	p.SetField(syntax.FieldValue, c.convert(value))
	return p
}

func (c *converter) enum(n *sitter.Node) *syntax.Node {
	e := syntax.NewNode(syntax.KindEnum, c.rng(n))
	e.SetField(syntax.FieldName, c.convert(n.ChildByFieldName("name")))
	body := n.ChildByFieldName("body")
	if body == nil {
		return e
	}
	for i := 0; i < int(body.NamedChildCount()); i++ {
		child := body.NamedChild(i)
		m := syntax.NewNode(syntax.KindEnumMember, c.rng(child))
		switch child.Type() {
		case "comment":
			continue
		case "enum_assignment":
			m.SetField(syntax.FieldName, c.convert(child.ChildByFieldName("name")))
			m.SetField(syntax.FieldValue, c.convert(child.ChildByFieldName("value")))
		default:
			m.SetField(syntax.FieldName, c.convert(child))
		}
		e.Children = append(e.Children, m)
	}
	return e
}

func (c *converter) globalvar(n *sitter.Node) *syntax.Node {
	g := syntax.NewNode(syntax.KindGlobalVar, c.rng(n))
	for i := 0; i < int(n.NamedChildCount()); i++ {
		decl := n.NamedChild(i)
		if decl.Type() != "variable_declarator" {
			continue
		}
		if name := decl.ChildByFieldName("name"); name != nil && name.Type() == "identifier" {
			g.Children = append(g.Children, c.convert(name))
		}
	}
	return g
}
