package extract

import (
	"testing"

	"github.com/jward/feather/internal/project"
	"github.com/jward/feather/internal/syntax"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const scriptPath = "scripts/scr_game/scr_game.gml"

// =============================================================================
// Tree builders
// =============================================================================

func at(line, col, width int) syntax.Range {
	return syntax.Range{
		Start: syntax.Position{File: scriptPath, Line: line, Column: col},
		End:   syntax.Position{File: scriptPath, Line: line, Column: col + width},
	}
}

func ident(name string, line, col int) *syntax.Node {
	return syntax.NewLeaf(syntax.KindIdentifier, name, at(line, col, len(name)))
}

func program(children ...*syntax.Node) *syntax.Node {
	return syntax.NewNode(syntax.KindProgram, at(1, 1, 0), children...)
}

func block(line int, children ...*syntax.Node) *syntax.Node {
	return syntax.NewNode(syntax.KindBlock, at(line, 1, 1), children...)
}

type fnOpt func(fn *syntax.Node, line int)

func params(names ...string) fnOpt {
	return func(fn *syntax.Node, line int) {
		list := syntax.NewNode(syntax.KindParameters, at(line, 1, 1))
		for i, name := range names {
			p := syntax.NewNode(syntax.KindParameter, at(line, 20+i*5, len(name)))
			p.SetField(syntax.FieldName, ident(name, line, 20+i*5))
			list.Children = append(list.Children, p)
		}
		fn.SetField(syntax.FieldParameters, list)
	}
}

func optionalParam(name string) fnOpt {
	return func(fn *syntax.Node, line int) {
		list := fn.Field(syntax.FieldParameters)
		if list == nil {
			list = syntax.NewNode(syntax.KindParameters, at(line, 1, 1))
			fn.SetField(syntax.FieldParameters, list)
		}
		p := syntax.NewNode(syntax.KindParameter, at(line, 40, len(name)))
		p.SetField(syntax.FieldName, ident(name, line, 40))
		p.SetField(syntax.FieldValue, syntax.NewLeaf(syntax.KindNumber, "0", at(line, 45, 1)))
		list.Children = append(list.Children, p)
	}
}

func constructor(parent string) fnOpt {
	return func(fn *syntax.Node, line int) {
		fn.SetField(syntax.FieldConstructor, syntax.NewLeaf(syntax.KindOther, "constructor", at(line, 60, 11)))
		if parent != "" {
			fn.SetField(syntax.FieldParent, ident(parent, line, 50))
		}
	}
}

func docs(text string) fnOpt {
	return func(fn *syntax.Node, line int) {
		fn.SetField(syntax.FieldDocs, syntax.NewLeaf(syntax.KindDoc, text, at(line-1, 1, len(text))))
	}
}

func body(children ...*syntax.Node) fnOpt {
	return func(fn *syntax.Node, line int) {
		fn.SetField(syntax.FieldBody, block(line, children...))
	}
}

func function(name string, line int, opts ...fnOpt) *syntax.Node {
	fn := syntax.NewNode(syntax.KindFunction, at(line, 1, 30))
	if name != "" {
		fn.SetField(syntax.FieldName, ident(name, line, 10))
	}
	for _, opt := range opts {
		opt(fn, line)
	}
	if fn.Field(syntax.FieldBody) == nil {
		fn.SetField(syntax.FieldBody, block(line))
	}
	return fn
}

func enum(name string, line int, members ...string) *syntax.Node {
	e := syntax.NewNode(syntax.KindEnum, at(line, 1, 20))
	if name != "" {
		e.SetField(syntax.FieldName, ident(name, line, 6))
	}
	for i, m := range members {
		member := syntax.NewNode(syntax.KindEnumMember, at(line+1+i, 5, len(m)))
		member.SetField(syntax.FieldName, ident(m, line+1+i, 5))
		e.Children = append(e.Children, member)
	}
	return e
}

func globalAccess(name string, line int) *syntax.Node {
	acc := syntax.NewNode(syntax.KindAccessor, at(line, 1, 7+len(name)))
	acc.SetField(syntax.FieldObject, ident(syntax.GlobalKeyword, line, 1))
	acc.SetField(syntax.FieldProperty, ident(name, line, 8))
	return acc
}

func assign(left, right *syntax.Node) *syntax.Node {
	n := syntax.NewNode(syntax.KindAssignment, left.Range)
	n.SetField(syntax.FieldLeft, left)
	n.SetField(syntax.FieldRight, right)
	return n
}

func number(text string, line int) *syntax.Node {
	return syntax.NewLeaf(syntax.KindNumber, text, at(line, 20, len(text)))
}

func str(text string, line int) *syntax.Node {
	return syntax.NewLeaf(syntax.KindString, text, at(line, 20, len(text)))
}

func extract(t *testing.T, reg *project.Registry, asset AssetKind, root *syntax.Node) *Result {
	t.Helper()
	res, err := GlobalDeclarations(reg, File{Path: scriptPath, Asset: asset, Root: root})
	require.NoError(t, err)
	return res
}

// =============================================================================
// Functions and scoping
// =============================================================================

func TestGlobalDeclarations_ScriptFunctionIsGlobal(t *testing.T) {
	t.Parallel()
	reg := project.NewRegistry()
	res := extract(t, reg, AssetScript, program(function("Foo", 1)))

	sym := reg.GetGlobal("Foo")
	require.NotNil(t, sym)
	assert.Equal(t, project.KindFunction, sym.Type.Kind)
	assert.Equal(t, "Foo", sym.Type.Name)
	assert.True(t, sym.Type.Global)
	assert.True(t, sym.Flags.Global)
	assert.False(t, sym.Flags.Writable)
	require.NotNil(t, sym.Range)
	assert.Equal(t, 1, sym.Range.Start.Line)
	assert.Equal(t, 10, sym.Range.Start.Column)
	assert.Len(t, sym.Refs, 1)
	assert.Len(t, sym.Type.Refs, 1)
	assert.Equal(t, []*project.Symbol{sym}, res.Declared)
	assert.Empty(t, res.Diagnostics)
}

func TestGlobalDeclarations_ObjectEventFunctionIsLocal(t *testing.T) {
	t.Parallel()
	reg := project.NewRegistry()
	res := extract(t, reg, AssetObject, program(function("helper", 1)))
	assert.Nil(t, reg.GetGlobal("helper"))
	assert.Empty(t, res.Declared)
}

func TestGlobalDeclarations_NestedFunctionIsLocal(t *testing.T) {
	t.Parallel()
	reg := project.NewRegistry()
	root := program(
		function("Outer", 1, body(function("Inner", 2), function("Foo", 3))),
		function("Foo", 10),
	)
	extract(t, reg, AssetScript, root)

	require.NotNil(t, reg.GetGlobal("Outer"))
	assert.Nil(t, reg.GetGlobal("Inner"))

	foo := reg.GetGlobal("Foo")
	require.NotNil(t, foo)
	assert.Equal(t, 10, foo.Range.Start.Line, "nested Foo neither registers nor collides")
	assert.Len(t, foo.Refs, 1)
}

func TestGlobalDeclarations_NilRoot(t *testing.T) {
	t.Parallel()
	_, err := GlobalDeclarations(project.NewRegistry(), File{Path: scriptPath})
	assert.Error(t, err)
}

func TestGlobalDeclarations_Idempotent(t *testing.T) {
	t.Parallel()
	reg := project.NewRegistry()
	root := func() *syntax.Node {
		return program(
			function("Foo", 1, params("a", "b")),
			enum("Dir", 5, "Up", "Down"),
			assign(globalAccess("score", 9), number("0", 9)),
		)
	}

	extract(t, reg, AssetScript, root())
	foo := reg.GetGlobal("Foo")
	fooType := foo.Type
	dir := reg.GetGlobal("Dir")
	up := dir.Type.Member("Up")
	score := reg.GetGlobal("score")
	scoreType := score.Type

	extract(t, reg, AssetScript, root())

	assert.Same(t, foo, reg.GetGlobal("Foo"))
	assert.Same(t, fooType, foo.Type)
	assert.Len(t, foo.Type.Params, 2)
	assert.Len(t, foo.Refs, 2, "only reference lists grow")

	assert.Same(t, dir, reg.GetGlobal("Dir"))
	assert.Same(t, up, dir.Type.Member("Up"))
	assert.Len(t, dir.Type.Members(), 2)

	assert.Same(t, score, reg.GetGlobal("score"))
	assert.Same(t, scoreType, score.Type)
	assert.Equal(t, project.KindReal, score.Type.Kind, "same-site evidence is not merged twice")
}

func TestGlobalDeclarations_IdentityStableAcrossEdits(t *testing.T) {
	t.Parallel()
	reg := project.NewRegistry()
	extract(t, reg, AssetScript, program(function("Foo", 1)))
	before := reg.GetGlobal("Foo")

	extract(t, reg, AssetScript, program(function("Bar", 1), function("Foo", 7, params("x"))))
	after := reg.GetGlobal("Foo")

	assert.Same(t, before, after)
	assert.Equal(t, 7, after.Range.Start.Line)
	require.Len(t, after.Type.Params, 1)
	assert.Equal(t, "x", after.Type.Params[0].Name)
}

func TestGlobalDeclarations_FunctionThenConstructor(t *testing.T) {
	t.Parallel()
	reg := project.NewRegistry()
	extract(t, reg, AssetScript, program(function("Foo", 1)))
	sym := reg.GetGlobal("Foo")
	require.Equal(t, project.KindFunction, sym.Type.Kind)

	extract(t, reg, AssetScript, program(function("Foo", 3, params("a"), constructor(""))))

	assert.Same(t, sym, reg.GetGlobal("Foo"))
	assert.Equal(t, 3, sym.Range.Start.Line)
	assert.Equal(t, project.KindConstructor, sym.Type.Kind)

	structType := sym.Type.Constructs
	require.NotNil(t, structType)
	assert.Equal(t, project.KindStruct, structType.Kind)
	assert.Equal(t, "Foo", structType.Name)
	assert.True(t, structType.Global)
	assert.Same(t, structType, reg.Type("Struct.Foo"))
	assert.Equal(t, "constructor Foo(a)", sym.Code())
}

func TestGlobalDeclarations_ConstructorReusesStruct(t *testing.T) {
	t.Parallel()
	reg := project.NewRegistry()
	extract(t, reg, AssetScript, program(function("Foo", 1, constructor(""))))
	first := reg.GetGlobal("Foo").Type.Constructs

	extract(t, reg, AssetScript, program(function("Foo", 1, constructor(""))))
	assert.Same(t, first, reg.GetGlobal("Foo").Type.Constructs)
}

func TestGlobalDeclarations_ConstructorThenFunctionDropsStruct(t *testing.T) {
	t.Parallel()
	reg := project.NewRegistry()
	extract(t, reg, AssetScript, program(function("Foo", 1, constructor(""))))
	require.NotNil(t, reg.Type("Struct.Foo"))

	extract(t, reg, AssetScript, program(function("Foo", 1)))
	assert.Equal(t, project.KindFunction, reg.GetGlobal("Foo").Type.Kind)
	assert.Nil(t, reg.Type("Struct.Foo"))

	extract(t, reg, AssetScript, program(function("Foo", 1, constructor(""))))
	assert.Same(t, reg.Type("Struct.Foo"), reg.GetGlobal("Foo").Type.Constructs)
}

func TestGlobalDeclarations_ConstructorInheritance(t *testing.T) {
	t.Parallel()
	reg := project.NewRegistry()
	// Child is seen before its parent is declared.
	extract(t, reg, AssetScript, program(function("Child", 1, constructor("Base"))))
	child := reg.GetGlobal("Child").Type.Constructs
	placeholder := reg.Type("Struct.Base")
	require.NotNil(t, placeholder)
	assert.Same(t, placeholder, child.Parent)

	extract(t, reg, AssetScript, program(function("Base", 5, constructor(""))))
	assert.Same(t, placeholder, reg.GetGlobal("Base").Type.Constructs, "parent adopts the placeholder")
	assert.True(t, child.DerivesFrom(reg.Type("Struct")))
}

func TestGlobalDeclarations_InheritanceCycleIsReported(t *testing.T) {
	t.Parallel()
	reg := project.NewRegistry()
	extract(t, reg, AssetScript, program(function("A", 1, constructor("B"))))
	res := extract(t, reg, AssetScript, program(function("B", 5, constructor("A"))))
	require.Len(t, res.Diagnostics, 1)
	assert.Contains(t, res.Diagnostics[0].Message, "cannot inherit")
	assert.Same(t, reg.Type("Struct"), reg.Type("Struct.B").Parent)
}

func TestGlobalDeclarations_ParamsAndDocs(t *testing.T) {
	t.Parallel()
	reg := project.NewRegistry()
	doc := "/// @description Deals damage\n/// @param {Real} amount How much\n/// @param {Struct.Enemy} [target]\n/// @returns {Bool}"
	extract(t, reg, AssetScript, program(
		function("hurt", 2, docs(doc), params("amount", "target"), optionalParam("crit")),
	))

	sym := reg.GetGlobal("hurt")
	require.NotNil(t, sym)
	assert.Equal(t, "Deals damage", sym.Description)
	require.Len(t, sym.Type.Params, 3)

	amount := sym.Type.Params[0]
	assert.Equal(t, project.KindReal, amount.Type.Kind)
	assert.Equal(t, "How much", amount.Description)
	assert.False(t, amount.Optional)

	target := sym.Type.Params[1]
	assert.True(t, target.Optional)
	assert.Equal(t, "Struct.Enemy", target.Type.String())

	assert.True(t, sym.Type.Params[2].Optional, "default value makes a parameter optional")
	require.NotNil(t, sym.Type.Returns)
	assert.Equal(t, project.KindBool, sym.Type.Returns.Kind)
	assert.Equal(t, "function hurt(amount: Real, [target]: Struct.Enemy, [crit]) -> Bool", sym.Code())
}

func TestGlobalDeclarations_BadAnnotationFallsBackToUnknown(t *testing.T) {
	t.Parallel()
	reg := project.NewRegistry()
	res := extract(t, reg, AssetScript, program(
		function("f", 2, docs("/// @param {Array<} a"), params("a")),
	))
	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, project.DiagnosticAnnotation, res.Diagnostics[0].Kind)
	assert.Equal(t, project.KindUnknown, reg.GetGlobal("f").Type.Params[0].Type.Kind)
}

func TestGlobalDeclarations_ItemsOnNonContainerKeepLeaf(t *testing.T) {
	t.Parallel()
	reg := project.NewRegistry()
	res := extract(t, reg, AssetScript, program(
		function("f", 2, docs("/// @param {Struct<Real>} a"), params("a")),
	))
	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, project.DiagnosticAnnotation, res.Diagnostics[0].Kind)
	assert.Contains(t, res.Diagnostics[0].Message, "cannot have item type")
	assert.Equal(t, project.KindStruct, reg.GetGlobal("f").Type.Params[0].Type.Kind)
}

func TestGlobalDeclarations_BuiltinShadowing(t *testing.T) {
	t.Parallel()
	reg := project.NewRegistry()
	fn, _ := reg.CreateType(project.KindFunction)
	builtin := project.NewSymbol("abs").AddType(fn)
	builtin.Native = true
	require.NoError(t, reg.AddGlobal(builtin, false))

	res := extract(t, reg, AssetScript, program(function("abs", 1)))
	require.Len(t, res.Diagnostics, 1)
	assert.Contains(t, res.Diagnostics[0].Message, "shadows a built-in")
	assert.Same(t, fn, reg.GetGlobal("abs").Type)
}

// =============================================================================
// Enums, macros, globalvar
// =============================================================================

func TestGlobalDeclarations_EnumReindexKeepsIdentity(t *testing.T) {
	t.Parallel()
	reg := project.NewRegistry()
	extract(t, reg, AssetScript, program(enum("Dir", 1, "Up", "Down")))

	dir := reg.GetGlobal("Dir")
	require.NotNil(t, dir)
	assert.Equal(t, project.KindEnum, dir.Type.Kind)
	up := dir.Type.Member("Up")
	down := dir.Type.Member("Down")
	require.NotNil(t, up)
	require.NotNil(t, down)
	assert.Equal(t, 0, up.Index)
	assert.Equal(t, 1, down.Index)
	assert.Equal(t, project.KindEnumMember, up.Type.Kind)

	extract(t, reg, AssetScript, program(enum("Dir", 1, "Down", "Up")))

	assert.Same(t, up, dir.Type.Member("Up"))
	assert.Same(t, down, dir.Type.Member("Down"))
	assert.Equal(t, 1, up.Index)
	assert.Equal(t, 0, down.Index)
	assert.Len(t, up.Refs, 2, "references from before the re-declaration persist")
	assert.Equal(t, []string{"Down", "Up"}, []string{dir.Type.Members()[0].Name, dir.Type.Members()[1].Name})
}

func TestGlobalDeclarations_EnumMembersAreNotPruned(t *testing.T) {
	t.Parallel()
	reg := project.NewRegistry()
	extract(t, reg, AssetScript, program(enum("Dir", 1, "Up", "Down", "Left")))
	extract(t, reg, AssetScript, program(enum("Dir", 1, "Up")))
	assert.Len(t, reg.GetGlobal("Dir").Type.Members(), 3)
}

func TestGlobalDeclarations_EnumInObjectIsGlobal(t *testing.T) {
	t.Parallel()
	reg := project.NewRegistry()
	extract(t, reg, AssetObject, program(enum("State", 1, "Idle")))
	require.NotNil(t, reg.GetGlobal("State"))
}

func TestGlobalDeclarations_EnumCollision(t *testing.T) {
	t.Parallel()
	reg := project.NewRegistry()
	extract(t, reg, AssetScript, program(function("Dir", 1)))
	res := extract(t, reg, AssetScript, program(enum("Dir", 3, "Up")))

	require.Len(t, res.Diagnostics, 1)
	assert.Contains(t, res.Diagnostics[0].Message, "redeclared as Enum")
	assert.Equal(t, project.KindFunction, reg.GetGlobal("Dir").Type.Kind)
}

func TestGlobalDeclarations_MissingIdentifiers(t *testing.T) {
	t.Parallel()
	reg := project.NewRegistry()
	res := extract(t, reg, AssetScript, program(
		enum("", 1, "A"),
		syntax.NewNode(syntax.KindMacro, at(4, 1, 6)),
		function("", 6),
	))
	assert.Empty(t, reg.Symbols())
	assert.Len(t, res.Diagnostics, 2, "anonymous functions are not malformed")
}

func TestGlobalDeclarations_Macro(t *testing.T) {
	t.Parallel()
	reg := project.NewRegistry()
	m := syntax.NewNode(syntax.KindMacro, at(1, 1, 20))
	m.SetField(syntax.FieldName, ident("MAX_HP", 1, 8))
	extract(t, reg, AssetScript, program(m))

	sym := reg.GetGlobal("MAX_HP")
	require.NotNil(t, sym)
	assert.Equal(t, project.KindMacro, sym.Type.Kind)
	assert.Contains(t, reg.Constants(), sym)
}

func TestGlobalDeclarations_GlobalVar(t *testing.T) {
	t.Parallel()
	reg := project.NewRegistry()
	gv := syntax.NewNode(syntax.KindGlobalVar, at(1, 1, 20), ident("lives", 1, 11), ident("level", 1, 18))
	res := extract(t, reg, AssetObject, program(gv))

	for _, name := range []string{"lives", "level"} {
		sym := reg.GetGlobal(name)
		require.NotNil(t, sym, name)
		assert.Equal(t, project.KindUnknown, sym.Type.Kind)
		assert.Same(t, sym, reg.GlobalSelf().Member(name))
	}
	assert.Len(t, res.Declared, 2)
}

// =============================================================================
// global.<name> and inference
// =============================================================================

func TestGlobalDeclarations_GlobalScoreScenario(t *testing.T) {
	t.Parallel()
	reg := project.NewRegistry()
	extract(t, reg, AssetObject, program(globalAccess("score", 1)))

	member := reg.GlobalSelf().Member("score")
	require.NotNil(t, member)
	assert.Equal(t, project.KindUnknown, member.Type.Kind)
	assert.Same(t, member, reg.GetGlobal("score"))

	extract(t, reg, AssetObject, program(assign(globalAccess("score", 3), number("0", 3))))
	assert.Same(t, member, reg.GlobalSelf().Member("score"))
	assert.Equal(t, project.KindReal, member.Type.Kind, "Unknown is replaced, not unioned")
}

func TestGlobalDeclarations_InferenceWidens(t *testing.T) {
	t.Parallel()
	reg := project.NewRegistry()
	extract(t, reg, AssetObject, program(
		assign(globalAccess("name", 1), str(`"Ann"`, 1)),
		assign(globalAccess("name", 2), number("3", 2)),
	))
	assert.Equal(t, "String|Real", reg.GetGlobal("name").Type.String())
}

func TestGlobalDeclarations_InferenceLiterals(t *testing.T) {
	t.Parallel()
	reg := project.NewRegistry()

	arr := syntax.NewNode(syntax.KindArrayLiteral, at(1, 20, 10), number("1", 1), str(`"a"`, 1))
	prop := syntax.NewNode(syntax.KindProperty, at(2, 22, 6))
	prop.SetField(syntax.FieldName, ident("hp", 2, 22))
	prop.SetField(syntax.FieldValue, number("10", 2))
	obj := syntax.NewNode(syntax.KindStructLiteral, at(2, 20, 12), prop)
	lambda := function("", 3, params("x"))

	extract(t, reg, AssetObject, program(
		assign(globalAccess("items", 1), arr),
		assign(globalAccess("stats", 2), obj),
		assign(globalAccess("cb", 3), lambda),
		assign(globalAccess("flag", 4), syntax.NewLeaf(syntax.KindBool, "true", at(4, 20, 4))),
		assign(globalAccess("nothing", 5), syntax.NewLeaf(syntax.KindUndefined, "undefined", at(5, 20, 9))),
		assign(globalAccess("copy", 6), ident("other", 6, 20)),
	))

	assert.Equal(t, "Array<Real|String>", reg.GetGlobal("items").Type.String())
	stats := reg.GetGlobal("stats").Type
	assert.Equal(t, project.KindStruct, stats.Kind)
	assert.Equal(t, project.KindReal, stats.Member("hp").Type.Kind)
	cb := reg.GetGlobal("cb")
	assert.Equal(t, project.KindFunction, cb.Type.Kind)
	assert.Len(t, cb.Type.Params, 1)
	assert.Equal(t, project.KindBool, reg.GetGlobal("flag").Type.Kind)
	assert.Equal(t, project.KindUndefined, reg.GetGlobal("nothing").Type.Kind)
	assert.Equal(t, project.KindUnknown, reg.GetGlobal("copy").Type.Kind)
}

func TestGlobalDeclarations_AccessorDoesNotOverrideDeclaration(t *testing.T) {
	t.Parallel()
	reg := project.NewRegistry()
	extract(t, reg, AssetScript, program(function("Foo", 1)))
	extract(t, reg, AssetObject, program(globalAccess("Foo", 3)))

	sym := reg.GetGlobal("Foo")
	assert.Equal(t, project.KindFunction, sym.Type.Kind)
	assert.Same(t, sym, reg.GlobalSelf().Member("Foo"))
}

func TestRegisterGlobalDeclaration(t *testing.T) {
	t.Parallel()
	reg := project.NewRegistry()

	sym, diags, err := RegisterGlobalDeclaration(reg, syntax.NewNode(syntax.KindFunction, at(1, 1, 1)), project.KindFunction, false)
	require.NoError(t, err)
	assert.Nil(t, sym, "missing identifier is a no-op")
	assert.Empty(t, diags)

	sym, _, err = RegisterGlobalDeclaration(reg, ident("lives", 2, 1), project.KindUnknown, true)
	require.NoError(t, err)
	require.NotNil(t, sym)
	assert.Same(t, sym, reg.GlobalSelf().Member("lives"))

	_, _, err = RegisterGlobalDeclaration(reg, ident("x", 3, 1), project.Kind("Banana"), false)
	assert.ErrorIs(t, err, project.ErrInvariant)
}

// =============================================================================
// Doc comments
// =============================================================================

func TestParseDoc(t *testing.T) {
	t.Parallel()
	doc := parseDoc(`/**
 * Spawns an enemy.
 * @param {Real} x Horizontal position
 * @param {Real} [y=0] Vertical position
 * @arg kind
 * @return {Struct.Enemy}
 */`)
	assert.Equal(t, "Spawns an enemy.", doc.description)
	assert.Equal(t, "Struct.Enemy", doc.returns)
	require.Len(t, doc.params, 3)
	assert.Equal(t, docParam{typ: "Real", description: "Horizontal position"}, doc.params["x"])
	assert.Equal(t, docParam{typ: "Real", optional: true, description: "Vertical position"}, doc.params["y"])
	assert.Equal(t, docParam{}, doc.params["kind"])
}
