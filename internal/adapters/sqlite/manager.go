package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"sync"

	"github.com/trinavo/tenancy/internal/adapters/sqlite/gormsqlite"
	"github.com/trinavo/tenancy/internal/core/domain"
	"github.com/trinavo/tenancy/internal/core/ports"
)

// Manager opens each tenant's database at most once per process and hands
// out the shared handle on every later bind. Safe for concurrent use.
type Manager struct {
	mu   sync.Mutex
	open map[string]*tenantDatabase
}

var (
	_ ports.DatabaseManager = (*Manager)(nil)
	_ io.Closer             = (*Manager)(nil)
)

func NewManager() *Manager {
	return &Manager{open: map[string]*tenantDatabase{}}
}

func (m *Manager) Get(_ context.Context, res domain.RuntimeResourceSet) (ports.TenantDatabase, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if db, ok := m.open[res.DatabasePath]; ok {
		return db, nil
	}

	db, err := gormsqlite.Open(res.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("open tenant db %s: %w", res.Slug, err)
	}

	td := &tenantDatabase{db: db}
	m.open[res.DatabasePath] = td
	return td, nil
}

func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var firstErr error
	for path, td := range m.open {
		if err := td.db.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(m.open, path)
	}
	return firstErr
}

type tenantDatabase struct {
	db *gormsqlite.DB
}

func (t *tenantDatabase) SQLDB() (*sql.DB, error) {
	return t.db.WriteSQLDB()
}

func (t *tenantDatabase) Users() ports.UserRepository {
	return NewUserRepository(t.db)
}
