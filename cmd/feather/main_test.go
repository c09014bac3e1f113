package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// findProjectRoot
// =============================================================================

func TestFindProjectRoot_ConfigFile(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "feather.toml"), nil, 0o644))

	assert.Equal(t, root, findProjectRoot(root))
}

func TestFindProjectRoot_YypFile(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "Game.yyp"), []byte("{}"), 0o644))

	assert.Equal(t, root, findProjectRoot(root))
}

func TestFindProjectRoot_NestedSubdirectory(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "Game.yyp"), []byte("{}"), 0o644))
	deep := filepath.Join(root, "scripts", "scr_combat")
	require.NoError(t, os.MkdirAll(deep, 0o755))

	assert.Equal(t, root, findProjectRoot(deep))
}

func TestFindProjectRoot_YypDirectoryIgnored(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	dir := filepath.Join(root, "odd.yyp")
	require.NoError(t, os.Mkdir(dir, 0o755))

	assert.False(t, isProjectRoot(root))
}

func TestFindProjectRoot_NoProjectAncestor(t *testing.T) {
	t.Parallel()
	// TempDir has no project marker anywhere in its ancestry
	// (unless /tmp itself holds one, which would be unusual).
	dir := t.TempDir()

	assert.Equal(t, dir, findProjectRoot(dir))
}

// =============================================================================
// resolveTargetDir
// =============================================================================

func TestResolveTargetDir(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	file := filepath.Join(dir, "scr.gml")
	require.NoError(t, os.WriteFile(file, nil, 0o644))

	got, err := resolveTargetDir([]string{dir})
	require.NoError(t, err)
	assert.Equal(t, dir, got)

	_, err = resolveTargetDir([]string{file})
	assert.ErrorContains(t, err, "not a directory")

	_, err = resolveTargetDir([]string{filepath.Join(dir, "missing")})
	assert.ErrorContains(t, err, "directory not found")
}

// =============================================================================
// Argument helpers
// =============================================================================

func TestParseIntArg(t *testing.T) {
	t.Parallel()
	tests := []struct {
		value   string
		want    int
		wantErr string
	}{
		{"1", 1, ""},
		{"42", 42, ""},
		{"0", 0, "must be at least 1"},
		{"-3", 0, "must be at least 1"},
		{"abc", 0, "must be a positive integer"},
		{"", 0, "must be a positive integer"},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Parallel()
			got, err := parseIntArg(tt.value, "line")
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// TestPaginate mutates the package-level pagination flags, so it does not
// run in parallel.
func TestPaginate(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}
	tests := []struct {
		name          string
		limit, offset int
		want          []int
	}{
		{"default", 0, 0, []int{1, 2, 3, 4, 5}},
		{"limit", 2, 0, []int{1, 2}},
		{"offset", 2, 2, []int{3, 4}},
		{"offset past end", 2, 10, []int{}},
		{"negative offset", 0, -1, []int{1, 2, 3, 4, 5}},
	}
	t.Cleanup(func() { flagLimit, flagOffset = 0, 0 })
	for _, tt := range tests {
		flagLimit, flagOffset = tt.limit, tt.offset
		got, total := paginate(items)
		assert.Equal(t, tt.want, got, tt.name)
		assert.Equal(t, 5, total, tt.name)
	}
}

func TestValidateFormat(t *testing.T) {
	t.Parallel()
	assert.NoError(t, validateFormat("json"))
	assert.NoError(t, validateFormat("text"))
	assert.ErrorContains(t, validateFormat("yaml"), `invalid format "yaml"`)
}

func TestNewLogger(t *testing.T) {
	t.Parallel()
	for _, level := range []string{"debug", "info", "warn", "error", "INFO"} {
		_, err := newLogger(level)
		assert.NoError(t, err, level)
	}
	_, err := newLogger("loud")
	assert.ErrorContains(t, err, "invalid log level")
}
