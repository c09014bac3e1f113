package feather

import "github.com/jward/feather/internal/store"

// Public type aliases for internal store types used in the QueryBuilder API.
// These are Go type aliases (=) identical to the internal types at compile
// time. External consumers use these names; no conversion is needed.

type Store = store.Store
type File = store.File
type Declaration = store.Declaration
type StoredDiagnostic = store.Diagnostic
type Rows = store.Rows
