package feather

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/feather/internal/config"
)

// newConfiguredEngine loads root/feather.toml and builds an engine from it,
// the way the CLI does.
func newConfiguredEngine(t *testing.T, root string) *Engine {
	t.Helper()
	cfg, err := config.LoadDir(root)
	require.NoError(t, err)
	return newTestEngine(t, ConfigOptions(root, cfg)...)
}

// TestIntegration_ConfiguredProject runs the full pipeline: config →
// IndexDirectory → queries → script.
func TestIntegration_ConfiguredProject(t *testing.T) {
	t.Parallel()
	root := copyProject(t)
	// rooms/ is not in the include list of feather.toml.
	writeFile(t, filepath.Join(root, "rooms", "rm_start", "RoomCreationCode.gml"), "global.room_flag = 1;\n")

	e := newConfiguredEngine(t, root)
	ctx := context.Background()
	require.NoError(t, e.IndexDirectory(ctx, root))

	sum, err := e.Query().Summary()
	require.NoError(t, err)
	assert.Equal(t, 3, sum.Files)
	assert.Equal(t, map[string]int{"scripts": 2, "objects": 1}, sum.Assets)

	_, ok := e.Query().Global("room_flag")
	assert.False(t, ok)

	hover, ok := e.Query().Hover("hurt")
	require.True(t, ok)
	assert.Contains(t, hover, "function hurt(amount: Real) -> Real")

	require.NoError(t, e.RunSource(ctx, `
f := functions()
names := []
for _, s := range f {
	if !s["native"] {
		names.append(s["name"])
	}
}
assert(len(names) == 3, "expected 3 user functions")
`, nil))
}

// TestIntegration_AssetTable checks that the [assets] table decides which
// files declare global functions.
func TestIntegration_AssetTable(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	writeFile(t, filepath.Join(root, config.FileName), `
include = ["**.gml"]

[assets]
lib = "scripts"
scripts = ""
`)
	writeFile(t, filepath.Join(root, "lib", "util.gml"), "function util_clamp(x) { return x; }\n")
	writeFile(t, filepath.Join(root, "scripts", "scr_a", "scr_a.gml"), "function not_global() {}\n")

	e := newConfiguredEngine(t, root)
	require.NoError(t, e.IndexDirectory(context.Background(), root))

	_, ok := e.Query().Global("util_clamp")
	assert.True(t, ok)
	_, ok = e.Query().Global("not_global")
	assert.False(t, ok)
}

// TestIntegration_SpecOverride checks that a spec path in feather.toml
// replaces the embedded catalog.
func TestIntegration_SpecOverride(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	writeFile(t, filepath.Join(root, config.FileName), `spec = "spec/GmlSpec.xml"`)
	writeFile(t, filepath.Join(root, "spec", "GmlSpec.xml"), `<?xml version="1.0" encoding="utf-8"?>
<GameMakerLanguageSpec>
  <Runtime>test-runtime</Runtime>
  <Functions>
    <Function Name="custom_builtin" ReturnType="Real" Deprecated="false" Pure="true">
      <Description>Only in the override.</Description>
    </Function>
  </Functions>
</GameMakerLanguageSpec>
`)

	e := newConfiguredEngine(t, root)
	sum, err := e.Query().Summary()
	require.NoError(t, err)
	assert.Equal(t, "test-runtime", sum.Runtime)
	assert.Equal(t, 1, sum.BuiltIns)

	sym, ok := e.Query().Global("custom_builtin")
	require.True(t, ok)
	assert.Equal(t, "Only in the override.", sym.Description)
}

// TestIntegration_ReindexAfterEdit edits, adds and deletes files between
// IndexDirectory passes. Globals an edit drops stay registered until their
// file is deleted.
func TestIntegration_ReindexAfterEdit(t *testing.T) {
	t.Parallel()
	root := copyProject(t)
	e := newConfiguredEngine(t, root)
	ctx := context.Background()
	require.NoError(t, e.IndexDirectory(ctx, root))

	writeFile(t, filepath.Join(root, combatPath), "function heal(amount) {\n\treturn amount;\n}\n")
	writeFile(t, filepath.Join(root, "scripts", "scr_ui", "scr_ui.gml"), "#macro UI_SCALE 2\n")
	require.NoError(t, os.Remove(filepath.Join(root, playerPath)))
	require.NoError(t, e.IndexDirectory(ctx, root))

	q := e.Query().UserOnly()
	assert.Equal(t, []string{"Enemy", "Entity", "heal", "hurt"}, names(q.Functions()))
	assert.Equal(t, []string{"Colour", "MAX_HP", "UI_SCALE"}, names(q.Constants()))
	_, ok := q.TypeHierarchy("Struct.Enemy")
	assert.True(t, ok)

	sum, err := e.Query().Summary()
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"scripts": 3}, sum.Assets)

	require.NoError(t, os.Remove(filepath.Join(root, combatPath)))
	require.NoError(t, e.IndexDirectory(ctx, root))

	q = e.Query().UserOnly()
	assert.Empty(t, q.Functions())
	_, ok = q.TypeHierarchy("Struct.Enemy")
	assert.False(t, ok)

	sum, err = e.Query().Summary()
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"scripts": 2}, sum.Assets)
}
