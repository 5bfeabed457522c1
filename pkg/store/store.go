// Package store provides the public constructor for the SQLite row store
// while keeping its implementation internal.
package store

import (
	"github.com/mesh-intelligence/tablekit/internal/store"
	"github.com/mesh-intelligence/tablekit/pkg/types"
)

// NewStore creates a detached SQLite row store. Call Attach with a Config
// before use.
//
// Example:
//
//	rows := store.NewStore()
//	err := rows.Attach(types.Config{
//	    Backend: types.BackendSQLite,
//	    DataDir: ".tablekit-db",
//	})
//	defer rows.Detach()
func NewStore() types.RowStore {
	return store.NewStore()
}
