package domain

import "time"

type User struct {
	ID              string
	Name            string
	Email           string
	PasswordHash    string
	EmailVerifiedAt time.Time
	CreatedAt       time.Time
}

// AdminRoles is the role set granted to a tenant's first user. The role
// rows themselves are created by the seed step.
var AdminRoles = []string{"super_admin", "admin"}
