package usecase

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/trinavo/tenancy/internal/core/domain"
	"github.com/trinavo/tenancy/internal/core/ports"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const passwordLength = 12

const passwordAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Provisioner performs first-time tenant setup: storage tree, database
// file, migrations, seeds, and the administrator account. Runs for the
// same slug are serialized by a per-slug lock, and a durable state record
// keeps partial failures retriable instead of masked.
type Provisioner struct {
	switcher *ResourceSwitcher
	storage  ports.TenantStorage
	dbs      ports.DatabaseManager
	schema   ports.SchemaRunner
	notifier ports.WelcomeNotifier
	channels ports.TenantLoggers
	logger   *zap.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewProvisioner(
	switcher *ResourceSwitcher,
	storage ports.TenantStorage,
	dbs ports.DatabaseManager,
	schema ports.SchemaRunner,
	notifier ports.WelcomeNotifier,
	channels ports.TenantLoggers,
	logger *zap.Logger,
) *Provisioner {
	return &Provisioner{
		switcher: switcher,
		storage:  storage,
		dbs:      dbs,
		schema:   schema,
		notifier: notifier,
		channels: channels,
		logger:   logger,
		locks:    map[string]*sync.Mutex{},
	}
}

// Initialize provisions slug if it has not been provisioned yet. Calling it
// for an already provisioned tenant performs no writes. A run that failed
// part-way leaves the state record at in_progress, and the next call re-runs
// the sequence; every step tolerates partially applied prior work.
func (p *Provisioner) Initialize(ctx context.Context, slug, userName, email string) error {
	res, err := p.switcher.Switch(slug, "")
	if err != nil {
		return err
	}

	lock := p.lockFor(slug)
	lock.Lock()
	defer lock.Unlock()

	done, err := p.alreadyProvisioned(res)
	if err != nil {
		return err
	}
	if done {
		return nil
	}

	log := p.channelFor(res)
	log.Info("provisioning tenant", zap.String("slug", slug))

	if err := p.storage.EnsureLayout(res); err != nil {
		return fmt.Errorf("ensure tenant layout: %w", err)
	}

	if err := p.storage.SaveState(res, domain.ProvisionState{
		Slug:      slug,
		Status:    domain.ProvisionInProgress,
		StartedAt: time.Now().UTC(),
	}); err != nil {
		return fmt.Errorf("record provisioning start: %w", err)
	}

	if err := p.storage.TouchDatabase(res); err != nil {
		return fmt.Errorf("create database file: %w", err)
	}

	db, err := p.dbs.Get(ctx, res)
	if err != nil {
		return fmt.Errorf("open tenant database: %w", err)
	}
	sqlDB, err := db.SQLDB()
	if err != nil {
		return fmt.Errorf("resolve tenant sql db: %w", err)
	}

	if err := p.schema.Migrate(ctx, sqlDB); err != nil {
		return fmt.Errorf("migrate tenant database: %w", err)
	}
	if err := p.schema.Seed(ctx, sqlDB); err != nil {
		return fmt.Errorf("seed tenant database: %w", err)
	}

	if err := p.createAdminUser(ctx, db.Users(), res, userName, email); err != nil {
		return err
	}

	state := domain.ProvisionState{
		Slug:        slug,
		Status:      domain.ProvisionComplete,
		StartedAt:   time.Now().UTC(),
		CompletedAt: time.Now().UTC(),
	}
	if err := p.storage.SaveState(res, state); err != nil {
		return fmt.Errorf("record provisioning completion: %w", err)
	}

	log.Info("tenant provisioned", zap.String("slug", slug), zap.String("admin_email", email))
	return nil
}

// IsProvisioned reports whether the tenant's state record and database
// artifact mark setup as complete.
func (p *Provisioner) IsProvisioned(res domain.RuntimeResourceSet) bool {
	done, err := p.alreadyProvisioned(res)
	return err == nil && done
}

func (p *Provisioner) alreadyProvisioned(res domain.RuntimeResourceSet) (bool, error) {
	state, err := p.storage.LoadState(res)
	switch {
	case err == nil:
		return state.Status == domain.ProvisionComplete && p.storage.DatabaseExists(res), nil
	case errors.Is(err, domain.ErrNotFound):
		// Tenants provisioned before state records existed have a
		// database file and nothing else.
		return p.storage.DatabaseExists(res), nil
	default:
		return false, fmt.Errorf("load provisioning state: %w", err)
	}
}

func (p *Provisioner) createAdminUser(ctx context.Context, users ports.UserRepository, res domain.RuntimeResourceSet, userName, email string) error {
	exists, err := users.ExistsByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("check admin user: %w", err)
	}
	if exists {
		return nil
	}

	password, err := randomPassword(passwordLength)
	if err != nil {
		return fmt.Errorf("generate password: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	user := domain.User{
		ID:              uuid.NewString(),
		Name:            userName,
		Email:           email,
		PasswordHash:    string(hash),
		EmailVerifiedAt: now,
		CreatedAt:       now,
	}

	if err := users.Create(ctx, user); err != nil {
		return fmt.Errorf("create admin user: %w", err)
	}
	if err := users.AssignAdminRoles(ctx, user.ID); err != nil {
		return fmt.Errorf("assign admin roles: %w", err)
	}
	if err := p.notifier.SendWelcome(ctx, user, password, res); err != nil {
		return fmt.Errorf("send welcome notification: %w", err)
	}
	return nil
}

func (p *Provisioner) lockFor(slug string) *sync.Mutex {
	p.mu.Lock()
	defer p.mu.Unlock()
	lock, ok := p.locks[slug]
	if !ok {
		lock = &sync.Mutex{}
		p.locks[slug] = lock
	}
	return lock
}

func (p *Provisioner) channelFor(res domain.RuntimeResourceSet) *zap.Logger {
	if p.channels == nil {
		return p.logger
	}
	log, err := p.channels.For(res)
	if err != nil {
		p.logger.Warn("open tenant log channel", zap.String("slug", res.Slug), zap.Error(err))
		return p.logger
	}
	return log
}

func randomPassword(length int) (string, error) {
	out := make([]byte, length)
	alphabetLen := big.NewInt(int64(len(passwordAlphabet)))
	for i := range out {
		n, err := rand.Int(rand.Reader, alphabetLen)
		if err != nil {
			return "", err
		}
		out[i] = passwordAlphabet[n.Int64()]
	}
	return string(out), nil
}
