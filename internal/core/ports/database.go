package ports

import (
	"context"
	"database/sql"

	"github.com/trinavo/tenancy/internal/core/domain"
)

// TenantDatabase is an open handle to one tenant's isolated database.
type TenantDatabase interface {
	SQLDB() (*sql.DB, error)
	Users() UserRepository
}

// DatabaseManager opens (at most once per path) the database named by a
// resource set.
type DatabaseManager interface {
	Get(ctx context.Context, res domain.RuntimeResourceSet) (TenantDatabase, error)
}

// SchemaRunner applies the combined schema sources and the seed data to a
// tenant database. Both operations are idempotent.
type SchemaRunner interface {
	Migrate(ctx context.Context, db *sql.DB) error
	Seed(ctx context.Context, db *sql.DB) error
}
