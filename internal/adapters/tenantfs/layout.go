// Package tenantfs owns the per-tenant directory tree:
//
//	<storageRoot>/tenants/<slug>/database/database.sqlite
//	<storageRoot>/tenants/<slug>/.provision.json
//	<storageRoot>/private/tenants/<slug>
//	<storageRoot>/public/tenants/<slug>
package tenantfs

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/trinavo/tenancy/internal/core/domain"
	"github.com/trinavo/tenancy/internal/core/ports"
)

const stateFileName = ".provision.json"

type Layout struct{}

var _ ports.TenantStorage = (*Layout)(nil)

func NewLayout() *Layout {
	return &Layout{}
}

// EnsureLayout creates the tenant's directories. Pre-existing directories
// are fine; provisioning may be a retry.
func (l *Layout) EnsureLayout(res domain.RuntimeResourceSet) error {
	dirs := []string{
		filepath.Dir(res.DatabasePath),
		res.PrivateRoot,
		res.PublicRoot,
		filepath.Dir(res.LogPath),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}
	return nil
}

func (l *Layout) DatabaseExists(res domain.RuntimeResourceSet) bool {
	info, err := os.Stat(res.DatabasePath)
	return err == nil && !info.IsDir()
}

func (l *Layout) TouchDatabase(res domain.RuntimeResourceSet) error {
	f, err := os.OpenFile(res.DatabasePath, os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("touch %s: %w", res.DatabasePath, err)
	}
	return f.Close()
}

func (l *Layout) LoadState(res domain.RuntimeResourceSet) (domain.ProvisionState, error) {
	raw, err := os.ReadFile(statePath(res))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.ProvisionState{}, domain.ErrNotFound
		}
		return domain.ProvisionState{}, fmt.Errorf("read provision state: %w", err)
	}

	var state domain.ProvisionState
	if err := json.Unmarshal(raw, &state); err != nil {
		return domain.ProvisionState{}, fmt.Errorf("decode provision state: %w", err)
	}
	return state, nil
}

func (l *Layout) SaveState(res domain.RuntimeResourceSet, state domain.ProvisionState) error {
	raw, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("encode provision state: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(statePath(res)), 0o755); err != nil {
		return fmt.Errorf("mkdir tenant root: %w", err)
	}
	if err := os.WriteFile(statePath(res), raw, 0o644); err != nil {
		return fmt.Errorf("write provision state: %w", err)
	}
	return nil
}

// statePath puts the record next to the database directory, at the root of
// the tenant's tree.
func statePath(res domain.RuntimeResourceSet) string {
	return filepath.Join(filepath.Dir(filepath.Dir(res.DatabasePath)), stateFileName)
}
