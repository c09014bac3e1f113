package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBatchedStore_DeclarationsByFile_ReturnsBufferedDeclarations(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	f := insertTestFile(t, s, "scripts/a/a.gml", "scripts")

	batch := NewBatchedStore(s)

	id1, err := batch.InsertDeclaration(&Declaration{FileID: f.ID, Name: "Foo", Kind: "Function"})
	require.NoError(t, err)
	assert.Negative(t, id1, "batched IDs should be negative")

	id2, err := batch.InsertDeclaration(&Declaration{FileID: f.ID, Name: "Bar", Kind: "Enum"})
	require.NoError(t, err)
	assert.Negative(t, id2)
	assert.NotEqual(t, id1, id2)

	decls, err := batch.DeclarationsByFile(f.ID)
	require.NoError(t, err)
	require.Len(t, decls, 2)
	assert.Equal(t, "Foo", decls[0].Name)
	assert.Equal(t, "Bar", decls[1].Name)
}

func TestBatchedStore_DeclarationsByFile_MergesWithDatabase(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	f := insertTestFile(t, s, "scripts/a/a.gml", "scripts")
	insertTestDeclaration(t, s, f.ID, "Existing", "Function")

	batch := NewBatchedStore(s)
	_, err := batch.InsertDeclaration(&Declaration{FileID: f.ID, Name: "New", Kind: "Enum"})
	require.NoError(t, err)

	decls, err := batch.DeclarationsByFile(f.ID)
	require.NoError(t, err)
	require.Len(t, decls, 2)
	assert.Equal(t, "Existing", decls[0].Name)
	assert.Equal(t, "New", decls[1].Name)
}

func TestBatchedStore_Replace(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	f := insertTestFile(t, s, "scripts/a/a.gml", "scripts")
	insertTestDeclaration(t, s, f.ID, "Old", "Function")

	batch := NewBatchedStore(s)
	_, err := batch.InsertDeclaration(&Declaration{FileID: f.ID, Name: "Stale", Kind: "Function"})
	require.NoError(t, err)

	batch.Replace(f.ID)
	_, err = batch.InsertDeclaration(&Declaration{FileID: f.ID, Name: "New", Kind: "Function"})
	require.NoError(t, err)

	decls, err := batch.DeclarationsByFile(f.ID)
	require.NoError(t, err)
	require.Len(t, decls, 1)
	assert.Equal(t, "New", decls[0].Name)
	assert.Equal(t, []int64{f.ID}, batch.ReplacedFiles())
}

func TestCommitBatch(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	a := insertTestFile(t, s, "scripts/a/a.gml", "scripts")
	b := insertTestFile(t, s, "scripts/b/b.gml", "scripts")
	insertTestDeclaration(t, s, a.ID, "Old", "Function")
	insertTestDeclaration(t, s, b.ID, "Untouched", "Function")
	_, err := s.InsertDiagnostic(&Diagnostic{FileID: a.ID, Kind: "declaration", Severity: "warning", Message: "old"})
	require.NoError(t, err)

	batch := NewBatchedStore(s)
	batch.Replace(a.ID)
	_, err = batch.InsertDeclaration(&Declaration{FileID: a.ID, Name: "New", Kind: "Constructor"})
	require.NoError(t, err)
	_, err = batch.InsertDiagnostic(&Diagnostic{FileID: a.ID, Kind: "annotation", Severity: "warning", Message: "new"})
	require.NoError(t, err)

	require.NoError(t, s.CommitBatch(batch))
	assert.True(t, batch.Empty())

	decls, err := s.DeclarationsByFile(a.ID)
	require.NoError(t, err)
	require.Len(t, decls, 1)
	assert.Equal(t, "New", decls[0].Name)
	assert.Positive(t, decls[0].ID)

	diags, err := s.DiagnosticsByFile(a.ID)
	require.NoError(t, err)
	require.Len(t, diags, 1)
	assert.Equal(t, "new", diags[0].Message)

	untouched, err := s.DeclarationsByFile(b.ID)
	require.NoError(t, err)
	assert.Len(t, untouched, 1)
}

func TestCommitBatch_RollsBackOnError(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	a := insertTestFile(t, s, "scripts/a/a.gml", "scripts")
	insertTestDeclaration(t, s, a.ID, "Old", "Function")

	batch := NewBatchedStore(s)
	batch.Replace(a.ID)
	// No such file: the foreign key rejects the insert.
	_, err := batch.InsertDeclaration(&Declaration{FileID: 9999, Name: "Orphan", Kind: "Function"})
	require.NoError(t, err)

	require.Error(t, s.CommitBatch(batch))

	decls, err := s.DeclarationsByFile(a.ID)
	require.NoError(t, err)
	require.Len(t, decls, 1)
	assert.Equal(t, "Old", decls[0].Name)
}
