// Package migrations bundles the schema sources applied to every tenant
// database: the application schema, the bundled auth schema, and the seed
// data. Each source keeps its own goose version table so the three can be
// re-run independently and idempotently.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"sync"

	"github.com/trinavo/tenancy/internal/core/ports"

	"github.com/pressly/goose/v3"
)

//go:embed files/*.sql
var appFS embed.FS

//go:embed authfiles/*.sql
var authFS embed.FS

//go:embed seedfiles/*.sql
var seedFS embed.FS

// Runner applies the combined sources through goose. goose configuration
// is process-global, so runs are serialized.
type Runner struct {
	mu sync.Mutex
}

var _ ports.SchemaRunner = (*Runner)(nil)

func NewRunner() *Runner {
	return &Runner{}
}

func (r *Runner) Migrate(ctx context.Context, db *sql.DB) error {
	if err := r.run(ctx, db, appFS, "files", "goose_db_version"); err != nil {
		return fmt.Errorf("app migrations: %w", err)
	}
	if err := r.run(ctx, db, authFS, "authfiles", "goose_auth_version"); err != nil {
		return fmt.Errorf("auth migrations: %w", err)
	}
	return nil
}

func (r *Runner) Seed(ctx context.Context, db *sql.DB) error {
	if err := r.run(ctx, db, seedFS, "seedfiles", "goose_seed_version"); err != nil {
		return fmt.Errorf("seeds: %w", err)
	}
	return nil
}

func (r *Runner) run(ctx context.Context, db *sql.DB, fsys fs.FS, dir, table string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	goose.SetBaseFS(fsys)
	defer goose.SetBaseFS(nil)
	goose.SetTableName(table)
	defer goose.SetTableName("goose_db_version")

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, dir); err != nil {
		return fmt.Errorf("run migrations in %s: %w", dir, err)
	}
	return nil
}
