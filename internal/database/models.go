package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// UserGroup is one of the three fixed roles: user, moderator, admin.
// Rows are seeded by migration and never created at runtime.
type UserGroup struct {
	bun.BaseModel `bun:"table:user_groups,alias:ug"`

	ID   int64  `bun:"id,pk,autoincrement"`
	Name string `bun:"name,notnull,unique"`
}

type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID           uuid.UUID `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	Email        string    `bun:"email,notnull,unique"`
	PasswordHash string    `bun:"password_hash,notnull"`
	IsActive     bool      `bun:"is_active,notnull,default:false"`
	GroupID      int64     `bun:"group_id,notnull"`
	CreatedAt    time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt    time.Time `bun:"updated_at,notnull,default:current_timestamp"`

	Group *UserGroup `bun:"rel:belongs-to,join:group_id=id"`
}

// ActivationToken proves email ownership. One per user; deleting the
// user cascades to the token.
type ActivationToken struct {
	bun.BaseModel `bun:"table:activation_tokens,alias:at"`

	ID        int64     `bun:"id,pk,autoincrement"`
	UserID    uuid.UUID `bun:"user_id,notnull,type:uuid,unique"`
	Token     string    `bun:"token,notnull,unique"`
	ExpiresAt time.Time `bun:"expires_at,notnull"`

	User *User `bun:"rel:belongs-to,join:user_id=id"`
}

// PasswordResetToken: at most one row per user at any time.
type PasswordResetToken struct {
	bun.BaseModel `bun:"table:password_reset_tokens,alias:prt"`

	ID        int64     `bun:"id,pk,autoincrement"`
	UserID    uuid.UUID `bun:"user_id,notnull,type:uuid,unique"`
	Token     string    `bun:"token,notnull,unique"`
	ExpiresAt time.Time `bun:"expires_at,notnull"`

	User *User `bun:"rel:belongs-to,join:user_id=id"`
}

// RefreshToken: many rows per user, one per live session.
type RefreshToken struct {
	bun.BaseModel `bun:"table:refresh_tokens,alias:rt"`

	ID        int64     `bun:"id,pk,autoincrement"`
	UserID    uuid.UUID `bun:"user_id,notnull,type:uuid"`
	Token     string    `bun:"token,notnull,unique"`
	ExpiresAt time.Time `bun:"expires_at,notnull"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`

	User *User `bun:"rel:belongs-to,join:user_id=id"`
}

type UserProfile struct {
	bun.BaseModel `bun:"table:user_profiles,alias:up"`

	ID          int64      `bun:"id,pk,autoincrement"`
	UserID      uuid.UUID  `bun:"user_id,notnull,type:uuid,unique"`
	FirstName   *string    `bun:"first_name"`
	LastName    *string    `bun:"last_name"`
	Gender      *string    `bun:"gender"`
	DateOfBirth *time.Time `bun:"date_of_birth,type:date"`
	Info        *string    `bun:"info"`
	Avatar      *string    `bun:"avatar"`

	User *User `bun:"rel:belongs-to,join:user_id=id"`
}
