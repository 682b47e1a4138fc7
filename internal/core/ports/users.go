package ports

import (
	"context"

	"github.com/trinavo/tenancy/internal/core/domain"
)

// UserRepository is scoped to one tenant's database. The implementation is
// decided at composition time, never resolved by name at call time.
type UserRepository interface {
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Create(ctx context.Context, user domain.User) error
	AssignAdminRoles(ctx context.Context, userID string) error
}
