package store

import (
	"sort"
	"sync"
)

// BatchedStore buffers extraction results in memory using fake (negative)
// IDs until CommitBatch writes them in one transaction. Files passed to
// Replace have their previously stored rows dropped at commit.
//
// Thread safety: the mutex protects fake ID allocation and slice appends.
// Read queries pass through to the underlying Store.
type BatchedStore struct {
	store *Store // for read passthrough
	mu    sync.Mutex

	Declarations []Declaration
	Diagnostics  []Diagnostic

	replaced   map[int64]bool
	nextFakeID int64 // starts at -1, decrements
}

// Compile-time check: *BatchedStore satisfies DataStore.
var _ DataStore = (*BatchedStore)(nil)

// NewBatchedStore creates a BatchedStore backed by the given Store for read queries.
func NewBatchedStore(s *Store) *BatchedStore {
	return &BatchedStore{
		store:      s,
		replaced:   make(map[int64]bool),
		nextFakeID: -1,
	}
}

func (b *BatchedStore) allocFakeID() int64 {
	id := b.nextFakeID
	b.nextFakeID--
	return id
}

// Replace marks fileID so its stored declarations and diagnostics are
// replaced by the buffered ones at commit, and drops anything already
// buffered for it.
func (b *BatchedStore) Replace(fileID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.replaced[fileID] = true

	decls := b.Declarations[:0]
	for _, d := range b.Declarations {
		if d.FileID != fileID {
			decls = append(decls, d)
		}
	}
	b.Declarations = decls

	diags := b.Diagnostics[:0]
	for _, d := range b.Diagnostics {
		if d.FileID != fileID {
			diags = append(diags, d)
		}
	}
	b.Diagnostics = diags
}

// ReplacedFiles returns the file IDs marked with Replace, ascending.
func (b *BatchedStore) ReplacedFiles() []int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	ids := make([]int64, 0, len(b.replaced))
	for id := range b.replaced {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Empty reports whether the batch has nothing to commit.
func (b *BatchedStore) Empty() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.replaced) == 0 && len(b.Declarations) == 0 && len(b.Diagnostics) == 0
}

func (b *BatchedStore) InsertDeclaration(d *Declaration) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fakeID := b.allocFakeID()
	d.ID = fakeID
	b.Declarations = append(b.Declarations, *d)
	return fakeID, nil
}

func (b *BatchedStore) InsertDiagnostic(d *Diagnostic) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fakeID := b.allocFakeID()
	d.ID = fakeID
	b.Diagnostics = append(b.Diagnostics, *d)
	return fakeID, nil
}

// DeclarationsByFile returns the declarations for a file. A file marked
// with Replace reports only its buffered declarations; otherwise buffered
// ones are merged with those already in the database.
func (b *BatchedStore) DeclarationsByFile(fileID int64) ([]*Declaration, error) {
	b.mu.Lock()
	replaced := b.replaced[fileID]
	b.mu.Unlock()

	var out []*Declaration
	if !replaced {
		dbDecls, err := b.store.DeclarationsByFile(fileID)
		if err != nil {
			return nil, err
		}
		out = dbDecls
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.Declarations {
		if b.Declarations[i].FileID == fileID {
			out = append(out, &b.Declarations[i])
		}
	}
	return out, nil
}
