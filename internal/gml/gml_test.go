package gml

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/feather/internal/syntax"
)

func parseGML(t *testing.T, src string) *syntax.Node {
	t.Helper()
	root, err := NewParser().Parse(context.Background(), "scripts/test/test.gml", []byte(src))
	require.NoError(t, err)
	require.NotNil(t, root)
	return root
}

// find returns the first node of kind in a depth-first walk.
func find(root *syntax.Node, kind syntax.Kind) *syntax.Node {
	var found *syntax.Node
	syntax.Walk(root, func(n *syntax.Node) bool {
		if found != nil {
			return false
		}
		if n.Kind == kind {
			found = n
			return false
		}
		return true
	})
	return found
}

func findAll(root *syntax.Node, kind syntax.Kind) []*syntax.Node {
	var out []*syntax.Node
	syntax.Walk(root, func(n *syntax.Node) bool {
		if n.Kind == kind {
			out = append(out, n)
		}
		return true
	})
	return out
}

// =============================================================================
// Rewrite
// =============================================================================

func TestRewrite_PreservesLength(t *testing.T) {
	t.Parallel()

	src := "#macro SPEED 4\n#region setup\nglobalvar a, b;\nfunction Foo(x) : Bar(x) constructor {\n}\n#endregion\n"
	s := rewrite([]byte(src))

	assert.Len(t, s.text, len(src))
	for i := range src {
		if src[i] == '\n' {
			assert.Equal(t, byte('\n'), s.text[i], "newline at %d", i)
		}
	}
}

func TestRewrite_Macro(t *testing.T) {
	t.Parallel()

	tests := []struct {
		src   string
		name  string
		value string
	}{
		{"#macro SPEED 4\n", "SPEED", "4"},
		{"  #macro DEBUG true", "DEBUG", "true"},
		{"#macro Release:DEBUG false\n", "DEBUG", "false"},
		{"#macro EMPTY\n", "EMPTY", ""},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			s := rewrite([]byte(tt.src))
			require.Len(t, s.macros, 1)
			assert.Equal(t, tt.name, s.macros[0].name)
			assert.Equal(t, tt.value, s.macros[0].value)
			assert.Equal(t, tt.name, tt.src[s.macros[0].nameStart:s.macros[0].nameStart+len(tt.name)])
			assert.NotContains(t, string(s.text), "#macro")
		})
	}
}

func TestRewrite_IgnoresCommentsAndStrings(t *testing.T) {
	t.Parallel()

	src := "// globalvar a;\nvar s = \"constructor\";\n/* #macro X 1 */\n"
	s := rewrite([]byte(src))

	assert.Equal(t, src, string(s.text))
	assert.Empty(t, s.macros)
	assert.Empty(t, s.globalvars)
	assert.Empty(t, s.ctors)
}

func TestRewrite_Globalvar(t *testing.T) {
	t.Parallel()

	s := rewrite([]byte("globalvar score;\nmy_globalvar = 1;\n"))
	assert.Equal(t, "var       score;\nmy_globalvar = 1;\n", string(s.text))
	assert.Equal(t, map[int]bool{0: true}, s.globalvars)
}

func TestRewrite_Constructor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		src    string
		want   string
		parent string
	}{
		{
			name: "plain",
			src:  "function Foo(a) constructor {}",
			want: "function Foo(a)             {}",
		},
		{
			name:   "inherits",
			src:    "function Foo(a) : Bar(a, 1) constructor {}",
			want:   "function Foo(a)                         {}",
			parent: "Bar",
		},
		{
			name: "anonymous",
			src:  "Foo = function() constructor {}",
			want: "Foo = function()             {}",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := rewrite([]byte(tt.src))
			assert.Equal(t, tt.want, string(s.text))
			require.Len(t, s.ctors, 1)
			for _, mark := range s.ctors {
				assert.Equal(t, tt.parent, mark.parent)
			}
		})
	}
}

func TestSourcePosition(t *testing.T) {
	t.Parallel()

	s := rewrite([]byte("ab\ncd\n\nef"))
	tests := []struct {
		offset, line, col int
	}{
		{0, 1, 1},
		{1, 1, 2},
		{3, 2, 1},
		{7, 4, 1},
		{8, 4, 2},
	}
	for _, tt := range tests {
		pos := s.position("f.gml", tt.offset)
		assert.Equal(t, tt.line, pos.Line, "offset %d", tt.offset)
		assert.Equal(t, tt.col, pos.Column, "offset %d", tt.offset)
		assert.Equal(t, tt.offset, pos.Offset)
	}
}

// =============================================================================
// Parse
// =============================================================================

func TestParse_Function(t *testing.T) {
	t.Parallel()

	root := parseGML(t, "/// @param {Real} amount\nfunction hurt(amount, crit = false) {\n\treturn amount;\n}\n")
	assert.Equal(t, syntax.KindProgram, root.Kind)

	fn := find(root, syntax.KindFunction)
	require.NotNil(t, fn)
	id := fn.Identifier()
	require.NotNil(t, id)
	assert.Equal(t, "hurt", id.Text)
	assert.Equal(t, 2, id.Range.Start.Line)
	assert.Equal(t, 10, id.Range.Start.Column)

	params := fn.Field(syntax.FieldParameters).ChildrenOf(syntax.KindParameter)
	require.Len(t, params, 2)
	assert.Equal(t, "amount", params[0].Identifier().Text)
	assert.Nil(t, params[0].Field(syntax.FieldValue))
	assert.Equal(t, "crit", params[1].Identifier().Text)
	assert.NotNil(t, params[1].Field(syntax.FieldValue))

	docs := fn.Field(syntax.FieldDocs)
	require.NotNil(t, docs)
	assert.Contains(t, docs.Text, "@param {Real} amount")
	assert.Nil(t, fn.Field(syntax.FieldConstructor))
}

func TestParse_Constructor(t *testing.T) {
	t.Parallel()

	root := parseGML(t, "function Enemy(hp) : Entity(hp) constructor {\n\tself.hp = hp;\n}\n")
	fn := find(root, syntax.KindFunction)
	require.NotNil(t, fn)
	assert.Equal(t, "Enemy", fn.Identifier().Text)
	assert.NotNil(t, fn.Field(syntax.FieldConstructor))

	parent := fn.Field(syntax.FieldParent)
	require.NotNil(t, parent)
	assert.Equal(t, "Entity", parent.Text)
	assert.Equal(t, 22, parent.Range.Start.Column)
}

func TestParse_Enum(t *testing.T) {
	t.Parallel()

	root := parseGML(t, "enum Colour {\n\tred,\n\tgreen = 5,\n\tblue\n}\n")
	e := find(root, syntax.KindEnum)
	require.NotNil(t, e)
	assert.Equal(t, "Colour", e.Identifier().Text)

	members := e.ChildrenOf(syntax.KindEnumMember)
	require.Len(t, members, 3)
	names := make([]string, len(members))
	for i, m := range members {
		names[i] = m.Identifier().Text
	}
	assert.Equal(t, []string{"red", "green", "blue"}, names)
	assert.NotNil(t, members[1].Field(syntax.FieldValue))
}

func TestParse_MacroAndGlobalvar(t *testing.T) {
	t.Parallel()

	root := parseGML(t, "#macro MAX_HP 100\nglobalvar lives, coins;\n")

	m := find(root, syntax.KindMacro)
	require.NotNil(t, m)
	assert.Equal(t, "MAX_HP", m.Identifier().Text)
	assert.Equal(t, "100", m.Field(syntax.FieldValue).Text)

	g := find(root, syntax.KindGlobalVar)
	require.NotNil(t, g)
	ids := g.ChildrenOf(syntax.KindIdentifier)
	require.Len(t, ids, 2)
	assert.Equal(t, "lives", ids[0].Text)
	assert.Equal(t, "coins", ids[1].Text)
}

func TestParse_GlobalAssignment(t *testing.T) {
	t.Parallel()

	root := parseGML(t, "global.score = 10;\nglobal.name = \"ada\";\n")
	assigns := findAll(root, syntax.KindAssignment)
	require.Len(t, assigns, 2)

	left := assigns[0].Field(syntax.FieldLeft)
	require.Equal(t, syntax.KindAccessor, left.Kind)
	assert.Equal(t, "global", left.Field(syntax.FieldObject).Text)
	assert.Equal(t, "score", left.Field(syntax.FieldProperty).Text)
	assert.Equal(t, syntax.KindNumber, assigns[0].Field(syntax.FieldRight).Kind)
	assert.Equal(t, syntax.KindString, assigns[1].Field(syntax.FieldRight).Kind)
}

func TestParse_Literals(t *testing.T) {
	t.Parallel()

	root := parseGML(t, "global.cfg = { speed: 2, tags: [\"a\"], on: true, none: undefined };\n")
	obj := find(root, syntax.KindStructLiteral)
	require.NotNil(t, obj)

	props := obj.ChildrenOf(syntax.KindProperty)
	require.Len(t, props, 4)
	kinds := make([]syntax.Kind, len(props))
	for i, p := range props {
		kinds[i] = p.Field(syntax.FieldValue).Kind
	}
	assert.Equal(t, []syntax.Kind{syntax.KindNumber, syntax.KindArrayLiteral, syntax.KindBool, syntax.KindUndefined}, kinds)
}

func TestParse_SyntaxError(t *testing.T) {
	t.Parallel()

	root := parseGML(t, "function broken( {\n}\nglobalvar ok;\n")
	assert.NotNil(t, find(root, syntax.KindError))
}

func TestParseTree(t *testing.T) {
	t.Parallel()

	tree, err := ParseTree(context.Background(), []byte("globalvar x;\n"))
	require.NoError(t, err)
	defer tree.Close()
	assert.Equal(t, "program", tree.RootNode().Type())
	assert.Equal(t, "var       x;\n", string(tree.Source))
}

func TestIsSource(t *testing.T) {
	t.Parallel()

	assert.True(t, IsSource("scripts/a/a.gml"))
	assert.True(t, IsSource("A.GML"))
	assert.False(t, IsSource("a.yy"))
}
