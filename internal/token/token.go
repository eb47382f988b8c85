package token

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token has expired")
)

// Claims carries the verified content of an access or refresh token.
type Claims struct {
	UserID    uuid.UUID
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Manager issues and verifies the two token classes. Access and refresh
// tokens are signed with distinct secrets, so a token of one class never
// verifies as the other.
//
// Implementations include JWTManager (HS256/HS384/HS512) and
// PasetoManager (PASETO v4.local).
type Manager interface {
	CreateAccessToken(userID uuid.UUID) (string, error)
	CreateRefreshToken(userID uuid.UUID) (string, error)
	DecodeAccessToken(tokenStr string) (*Claims, error)
	DecodeRefreshToken(tokenStr string) (*Claims, error)
}
