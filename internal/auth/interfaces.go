package auth

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/moviehub/theater-api/internal/user"
)

// UserStore is the credential store surface the auth service needs.
// Implemented by user.Repository.
type UserStore interface {
	Create(ctx context.Context, email, passwordHash, activationToken string, activationExpiresAt time.Time) (*user.User, error)
	GetByEmail(ctx context.Context, email string) (*user.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*user.User, error)
	Activate(ctx context.Context, id uuid.UUID) error
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	SetRole(ctx context.Context, id uuid.UUID, role user.Role) error
}

// TokenStore manages the create/consume/expire lifecycle of the three
// persisted token kinds. Implemented by Repository.
type TokenStore interface {
	// Activation tokens: one per user, replaced on resend.
	ReplaceActivationToken(ctx context.Context, userID uuid.UUID, token string, expiresAt time.Time) error
	GetActivationToken(ctx context.Context, userID uuid.UUID) (*ActivationToken, error)
	DeleteActivationToken(ctx context.Context, userID uuid.UUID) error
	// ConsumeActivationToken flips the user active and deletes the token
	// in one transaction.
	ConsumeActivationToken(ctx context.Context, userID uuid.UUID) error

	// Reset tokens: at most one per user at a time.
	ReplaceResetToken(ctx context.Context, userID uuid.UUID, token string, expiresAt time.Time) error
	GetResetToken(ctx context.Context, userID uuid.UUID) (*PasswordResetToken, error)
	DeleteResetToken(ctx context.Context, userID uuid.UUID) error
	// CompletePasswordReset stores the new hash and deletes the reset
	// token in one transaction.
	CompletePasswordReset(ctx context.Context, userID uuid.UUID, passwordHash string) error

	// Refresh tokens: one row per live session, many per user.
	StoreRefreshToken(ctx context.Context, userID uuid.UUID, token string, expiresAt time.Time) error
	HasRefreshToken(ctx context.Context, token string) (bool, error)
	DeleteRefreshToken(ctx context.Context, userID uuid.UUID, token string) error

	// DeleteExpired removes expired rows of all three kinds.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// EmailSender defines the outbound notification surface.
// Implemented by email.Service.
type EmailSender interface {
	SendActivationEmail(ctx context.Context, toEmail, token string) error
	SendActivationCompleteEmail(ctx context.Context, toEmail string) error
	SendPasswordResetEmail(ctx context.Context, toEmail, token string) error
	SendPasswordResetCompleteEmail(ctx context.Context, toEmail string) error
}
