package auth

import (
	"time"

	"github.com/google/uuid"
)

type ActivationToken struct {
	UserID    uuid.UUID
	Token     string
	ExpiresAt time.Time
}

type PasswordResetToken struct {
	UserID    uuid.UUID
	Token     string
	ExpiresAt time.Time
}

type RefreshToken struct {
	UserID    uuid.UUID
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
}

func (t *ActivationToken) IsExpired(now time.Time) bool {
	return t.ExpiresAt.Before(now)
}

func (t *PasswordResetToken) IsExpired(now time.Time) bool {
	return t.ExpiresAt.Before(now)
}

// TokenPair is returned by a successful login.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}
