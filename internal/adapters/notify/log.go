package notify

import (
	"context"

	"github.com/trinavo/tenancy/internal/core/domain"
	"github.com/trinavo/tenancy/internal/core/ports"

	"go.uber.org/zap"
)

// LogNotifier is the development fallback when no webhook is configured.
// It records that a welcome was due without logging the password.
type LogNotifier struct {
	logger *zap.Logger
}

var _ ports.WelcomeNotifier = (*LogNotifier)(nil)

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) SendWelcome(_ context.Context, user domain.User, _ string, res domain.RuntimeResourceSet) error {
	n.logger.Info("welcome notification suppressed: no webhook configured",
		zap.String("tenant", res.Slug),
		zap.String("email", user.Email),
		zap.String("login_url", res.BaseURL),
	)
	return nil
}
