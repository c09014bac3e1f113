// Package typeexpr parses Feather type annotations such as
// "Array<Real>", "Struct.Player" or "Real|String|Undefined".
package typeexpr

import (
	"fmt"
	"strings"

	"github.com/viant/parsly"
)

// Node is one node of a parsed annotation. Exactly one of Identifier or
// Union is set; Of is the optional sub-annotation of an identifier
// (the element type in Array<Real>).
type Node struct {
	Identifier string
	Of         *Node
	Union      []*Node
	Offset     int
}

// IsUnion reports whether n is a union node.
func (n *Node) IsUnion() bool {
	return n.Union != nil
}

// String renders the node back into annotation syntax.
func (n *Node) String() string {
	if n == nil {
		return ""
	}
	if n.IsUnion() {
		parts := make([]string, len(n.Union))
		for i, m := range n.Union {
			parts[i] = m.String()
		}
		return strings.Join(parts, "|")
	}
	if n.Of != nil {
		return n.Identifier + "<" + n.Of.String() + ">"
	}
	return n.Identifier
}

// Parse parses a complete annotation. A single type without separators is
// returned as a leaf; anything with | or , at the top level is a union.
func Parse(text string) (*Node, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("typeexpr: empty type")
	}
	cursor := parsly.NewCursor("", []byte(text), 0)
	node, err := parseUnion(cursor)
	if err != nil {
		return nil, err
	}
	skipWhitespace(cursor)
	if cursor.Pos < cursor.InputSize {
		return nil, fmt.Errorf("typeexpr: unexpected %q at offset %d in %q", cursor.Input[cursor.Pos], cursor.Pos, text)
	}
	return node, nil
}

func parseUnion(cursor *parsly.Cursor) (*Node, error) {
	start := cursor.Pos
	var members []*Node
	for {
		member, err := parseType(cursor)
		if err != nil {
			return nil, err
		}
		members = append(members, member)
		skipWhitespace(cursor)
		matched := cursor.MatchAny(pipeMatcher, commaMatcher)
		if matched.Code != pipeToken && matched.Code != commaToken {
			break
		}
	}
	if len(members) == 1 {
		return members[0], nil
	}
	return &Node{Union: members, Offset: start}, nil
}

func parseType(cursor *parsly.Cursor) (*Node, error) {
	skipWhitespace(cursor)
	matched := cursor.MatchOne(identifierMatcher)
	if matched.Code != identifierToken {
		return nil, fmt.Errorf("typeexpr: %w", cursor.NewError(identifierMatcher))
	}
	node := &Node{Identifier: matched.Text(cursor), Offset: matched.Offset}

	skipWhitespace(cursor)
	open := cursor.MatchAny(angleOpenMatcher, squareOpenMatcher)
	var closer *parsly.Token
	switch open.Code {
	case angleOpenToken:
		closer = angleCloseMatcher
	case squareOpenToken:
		closer = squareCloseMatcher
	default:
		return node, nil
	}

	of, err := parseUnion(cursor)
	if err != nil {
		return nil, err
	}
	skipWhitespace(cursor)
	if closed := cursor.MatchOne(closer); closed.Code != closer.Code {
		return nil, fmt.Errorf("typeexpr: %w", cursor.NewError(closer))
	}
	node.Of = of
	return node, nil
}

func skipWhitespace(cursor *parsly.Cursor) {
	_ = cursor.MatchOne(whitespaceMatcher)
}
