package feather

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypeHierarchy(t *testing.T) {
	t.Parallel()
	e, _ := indexedProject(t)
	q := e.Query()

	h, ok := q.TypeHierarchy("Struct.Entity")
	require.True(t, ok)
	assert.Equal(t, "Struct.Entity", h.Type.Name)
	assert.Empty(t, h.Ancestors)
	assert.Equal(t, []string{"Struct.Enemy"}, h.Children)
	assert.Equal(t, "Entity", h.Constructor)

	byCtor, ok := q.TypeHierarchy("Enemy")
	require.True(t, ok)
	assert.Equal(t, "Struct.Enemy", byCtor.Type.Name)
	assert.Equal(t, []string{"Struct.Entity"}, byCtor.Ancestors)
	assert.Empty(t, byCtor.Children)

	_, ok = q.TypeHierarchy("hurt")
	assert.False(t, ok, "functions construct nothing")
	_, ok = q.TypeHierarchy("missing")
	assert.False(t, ok)
}

func TestTypeHierarchy_ParentDeclaredLater(t *testing.T) {
	t.Parallel()
	e, root := indexedProject(t)
	boss := filepath.Join(root, "scripts", "scr_boss", "scr_boss.gml")
	writeFile(t, boss, "function Boss() : Elite() constructor {}\n")
	require.NoError(t, e.IndexFiles(context.Background(), []string{boss}))

	elite := filepath.Join(root, "scripts", "scr_elite", "scr_elite.gml")
	writeFile(t, elite, "function Elite() : Enemy() constructor {}\n")
	require.NoError(t, e.IndexFiles(context.Background(), []string{elite}))

	h, ok := e.Query().TypeHierarchy("Boss")
	require.True(t, ok)
	assert.Equal(t, []string{"Struct.Elite", "Struct.Enemy", "Struct.Entity"}, h.Ancestors)

	assert.Equal(t, []string{"Struct.Boss", "Struct.Elite", "Struct.Enemy"}, e.Query().Subtypes("Entity"))
	assert.Empty(t, e.Query().Subtypes("Boss"))
	assert.Nil(t, e.Query().Subtypes("missing"))
}
