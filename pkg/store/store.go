// Package store exposes the factory for opening a heapoverflow Store while
// keeping backend implementations internal.
package store

import (
	"context"

	"github.com/mesh-intelligence/heapoverflow/internal/postgres"
	"github.com/mesh-intelligence/heapoverflow/internal/sqlite"
	"github.com/mesh-intelligence/heapoverflow/pkg/types"
)

// Open validates config and opens the backend it names.
//
// Example:
//
//	s, err := store.Open(ctx, types.Config{
//	    Backend: types.BackendSQLite,
//	    DataDir: "/var/lib/heapoverflow",
//	})
//	defer s.Close()
func Open(ctx context.Context, config types.Config) (types.Store, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	switch config.Backend {
	case types.BackendPostgres:
		return postgres.Open(ctx, config.DatabaseURL)
	default:
		return sqlite.Open(config)
	}
}
