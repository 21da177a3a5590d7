// Package sqlite implements the SQLite storage backend for heapoverflow.
// The database lives in a single file under the configured data directory
// and is opened with the pure-Go modernc driver.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/heapoverflow/pkg/types"
)

// DatabaseFile is the name of the SQLite file inside DataDir.
const DatabaseFile = "heapoverflow.db"

var _ types.Store = (*Backend)(nil)

// Backend implements types.Store on top of SQLite.
type Backend struct {
	mu       sync.RWMutex
	attached bool
	config   types.Config
	db       *sql.DB

	categories     *categoriesTable
	questions      *questionsTable
	cachedMessages *cachedMessagesTable
}

// NewBackend creates a new SQLite backend instance.
// The backend is not attached; call Attach with a Config to initialize.
func NewBackend() *Backend {
	b := &Backend{}
	b.categories = &categoriesTable{backend: b}
	b.questions = &questionsTable{backend: b}
	b.cachedMessages = &cachedMessagesTable{backend: b}
	return b
}

// Open creates a backend and attaches it in one step.
func Open(config types.Config) (*Backend, error) {
	b := NewBackend()
	if err := b.Attach(config); err != nil {
		return nil, err
	}
	return b, nil
}

// Attach initializes the backend with the given configuration.
// Creates DataDir if it does not exist and applies the schema.
// Returns ErrAlreadyOpen if already attached.
func (b *Backend) Attach(config types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return types.ErrAlreadyOpen
	}

	if err := config.Validate(); err != nil {
		return err
	}

	dataDir := config.DataDir
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	dsn := filepath.Join(dataDir, DatabaseFile) + "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	// A single connection serializes writers and avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	for _, ddl := range append(append([]string{}, schemaDDL...), indexDDL...) {
		if _, err := db.Exec(ddl); err != nil {
			db.Close()
			return fmt.Errorf("applying schema: %w", err)
		}
	}

	b.db = db
	b.config = config
	b.attached = true
	return nil
}

// Detach releases all resources held by the backend. After Detach, all
// operations return ErrStoreDetached. Detach is idempotent.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil
	}

	if b.db != nil {
		if err := b.db.Close(); err != nil {
			return err
		}
		b.db = nil
	}
	b.attached = false
	return nil
}

// Close is Detach, satisfying types.Store.
func (b *Backend) Close() error {
	return b.Detach()
}

// Ping verifies the database connection.
func (b *Backend) Ping(ctx context.Context) error {
	db, err := b.conn()
	if err != nil {
		return err
	}
	return db.PingContext(ctx)
}

// Categories returns the categories table.
func (b *Backend) Categories() types.CategoryTable { return b.categories }

// Questions returns the questions table.
func (b *Backend) Questions() types.QuestionTable { return b.questions }

// CachedMessages returns the cached message slot table.
func (b *Backend) CachedMessages() types.CachedMessageTable { return b.cachedMessages }

// conn returns the open database handle, or ErrStoreDetached.
func (b *Backend) conn() (*sql.DB, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrStoreDetached
	}
	return b.db, nil
}
