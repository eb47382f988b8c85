package user

import (
	"time"

	"github.com/google/uuid"
)

// Role is the user's group within the fixed hierarchy
// user < moderator < admin.
type Role string

const (
	RoleUser      Role = "user"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
)

// ParseRole validates a role name coming from the outside.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleUser, RoleModerator, RoleAdmin:
		return Role(s), true
	}
	return "", false
}

func (r Role) rank() int {
	switch r {
	case RoleAdmin:
		return 2
	case RoleModerator:
		return 1
	case RoleUser:
		return 0
	}
	return -1
}

// RoleAtLeast reports whether actual grants the privileges of required.
// Pure function over the two roles, no I/O.
func RoleAtLeast(actual, required Role) bool {
	return actual.rank() >= required.rank()
}

type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // never expose the hash in JSON
	IsActive     bool      `json:"is_active"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
