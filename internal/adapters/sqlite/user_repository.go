package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/trinavo/tenancy/internal/adapters/sqlite/gormsqlite"
	"github.com/trinavo/tenancy/internal/core/domain"
	"github.com/trinavo/tenancy/internal/core/ports"

	"gorm.io/gorm/clause"
)

type userModel struct {
	ID              string     `gorm:"column:id;primaryKey"`
	Name            string     `gorm:"column:name;not null"`
	Email           string     `gorm:"column:email;not null;uniqueIndex"`
	PasswordHash    string     `gorm:"column:password_hash;not null"`
	EmailVerifiedAt *time.Time `gorm:"column:email_verified_at"`
	CreatedAt       time.Time  `gorm:"column:created_at;not null"`
	UpdatedAt       time.Time  `gorm:"column:updated_at;not null"`
}

func (userModel) TableName() string {
	return "users"
}

type roleModel struct {
	ID   int64  `gorm:"column:id;primaryKey"`
	Name string `gorm:"column:name;not null"`
}

func (roleModel) TableName() string {
	return "roles"
}

type userRoleModel struct {
	UserID string `gorm:"column:user_id;primaryKey"`
	RoleID int64  `gorm:"column:role_id;primaryKey"`
}

func (userRoleModel) TableName() string {
	return "user_roles"
}

// UserRepository persists users and role assignments inside one tenant's
// database.
type UserRepository struct {
	db *gormsqlite.DB
}

var _ ports.UserRepository = (*UserRepository)(nil)

func NewUserRepository(db *gormsqlite.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.db.ReadTX(ctx, func(tx *gormsqlite.Tx) error {
		return tx.Model(&userModel{}).Where("email = ?", email).Count(&count).Error
	})
	if err != nil {
		return false, fmt.Errorf("count users by email: %w", err)
	}
	return count > 0, nil
}

func (r *UserRepository) Create(ctx context.Context, user domain.User) error {
	model := userModel{
		ID:           user.ID,
		Name:         user.Name,
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		CreatedAt:    user.CreatedAt,
		UpdatedAt:    user.CreatedAt,
	}
	if !user.EmailVerifiedAt.IsZero() {
		verifiedAt := user.EmailVerifiedAt
		model.EmailVerifiedAt = &verifiedAt
	}

	err := r.db.WriteTX(ctx, func(tx *gormsqlite.Tx) error {
		return tx.Create(&model).Error
	})
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// AssignAdminRoles grants the administrative role set. Role rows come from
// the seed step; re-assigning an already granted role is a no-op.
func (r *UserRepository) AssignAdminRoles(ctx context.Context, userID string) error {
	err := r.db.WriteTX(ctx, func(tx *gormsqlite.Tx) error {
		var roles []roleModel
		if err := tx.Where("name IN ?", domain.AdminRoles).Find(&roles).Error; err != nil {
			return err
		}
		if len(roles) == 0 {
			return fmt.Errorf("admin roles %v not seeded", domain.AdminRoles)
		}
		for _, role := range roles {
			assignment := userRoleModel{UserID: userID, RoleID: role.ID}
			err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&assignment).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("assign admin roles: %w", err)
	}
	return nil
}
