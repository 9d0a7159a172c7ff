// Package db opens the light client database.
package db

import (
	"context"

	"github.com/ComposableFi/composable-sub011/db/iface"
	"github.com/ComposableFi/composable-sub011/db/kv"
)

// Database is the full access database interface.
type Database = iface.Database

// ReadOnlyDatabase is the read only database interface.
type ReadOnlyDatabase = iface.ReadOnlyDatabase

// NewDB initializes a new DB.
func NewDB(ctx context.Context, dirPath string) (Database, error) {
	return kv.NewKVStore(ctx, dirPath)
}
