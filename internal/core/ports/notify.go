package ports

import (
	"context"

	"github.com/trinavo/tenancy/internal/core/domain"
)

// WelcomeNotifier delivers the first-login credentials to a freshly created
// tenant administrator. The transport is out of scope here; webhook and
// log-only implementations exist.
type WelcomeNotifier interface {
	SendWelcome(ctx context.Context, user domain.User, password string, res domain.RuntimeResourceSet) error
}
