package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"net/mail"
	"time"

	"github.com/google/uuid"

	"github.com/moviehub/theater-api/internal/logging"
	"github.com/moviehub/theater-api/internal/password"
	"github.com/moviehub/theater-api/internal/token"
	"github.com/moviehub/theater-api/internal/user"
)

var (
	ErrEmailRequired    = errors.New("email is required")
	ErrInvalidEmail     = errors.New("invalid email format")
	ErrPasswordRequired = errors.New("password is required")

	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountInactive    = errors.New("user account is not activated")
	ErrAlreadyActive      = errors.New("user account is already active")

	ErrInvalidActivationToken = errors.New("invalid or expired activation token")
	ErrInvalidResetToken      = errors.New("invalid email or reset token")

	ErrInvalidRefreshToken  = errors.New("invalid refresh token")
	ErrRefreshTokenExpired  = errors.New("refresh token has expired")
	ErrRefreshTokenNotFound = errors.New("refresh token not found")

	ErrUserNotFound     = errors.New("user not found")
	ErrWrongOldPassword = errors.New("old password is incorrect")
)

// Service handles account and session business logic.
type Service struct {
	users        UserStore
	tokens       TokenStore
	tokenManager token.Manager
	hasher       *password.Hasher
	emails       EmailSender
	logger       *logging.Logger

	refreshTokenDuration    time.Duration
	activationTokenDuration time.Duration
	resetTokenDuration      time.Duration
}

func NewService(
	users UserStore,
	tokens TokenStore,
	tokenManager token.Manager,
	hasher *password.Hasher,
	emails EmailSender,
	logger *logging.Logger,
	refreshTokenDuration time.Duration,
	activationTokenDuration time.Duration,
	resetTokenDuration time.Duration,
) *Service {
	return &Service{
		users:                   users,
		tokens:                  tokens,
		tokenManager:            tokenManager,
		hasher:                  hasher,
		emails:                  emails,
		logger:                  logger,
		refreshTokenDuration:    refreshTokenDuration,
		activationTokenDuration: activationTokenDuration,
		resetTokenDuration:      resetTokenDuration,
	}
}

// Register creates a new inactive account and sends the activation email.
func (s *Service) Register(ctx context.Context, email, pass string) (*user.User, error) {
	if email == "" {
		return nil, ErrEmailRequired
	}
	if len(email) > 254 {
		return nil, ErrInvalidEmail
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, ErrInvalidEmail
	}
	if pass == "" {
		return nil, ErrPasswordRequired
	}
	if err := password.Validate(pass); err != nil {
		return nil, err
	}

	passwordHash, err := s.hasher.Hash(pass)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	activationToken, err := generateRandomToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate activation token: %w", err)
	}

	// User row and activation token are written in one transaction.
	expiresAt := time.Now().Add(s.activationTokenDuration)
	newUser, err := s.users.Create(ctx, email, passwordHash, activationToken, expiresAt)
	if err != nil {
		if errors.Is(err, user.ErrDuplicateEmail) {
			return nil, user.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	// Send activation email in a goroutine so a slow SMTP server does
	// not hold the request. The account stays registerable-but-inactive
	// if delivery fails; the user can ask for a resend.
	go func() {
		emailCtx := context.Background()
		if err := s.emails.SendActivationEmail(emailCtx, newUser.Email, activationToken); err != nil {
			s.logger.Warn("failed to send activation email", "email", newUser.Email, "error", err)
		}
	}()

	return newUser, nil
}

// Activate marks the account active when the presented token matches the
// stored one. An expired token is deleted on the spot so the row does not
// linger until the next cleanup sweep.
func (s *Service) Activate(ctx context.Context, email, activationToken string) error {
	existingUser, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return ErrInvalidActivationToken
		}
		return fmt.Errorf("failed to get user: %w", err)
	}

	if existingUser.IsActive {
		return ErrAlreadyActive
	}

	stored, err := s.tokens.GetActivationToken(ctx, existingUser.ID)
	if err != nil {
		if errors.Is(err, ErrActivationTokenNotFound) {
			return ErrInvalidActivationToken
		}
		return fmt.Errorf("failed to get activation token: %w", err)
	}

	if !tokensEqual(stored.Token, activationToken) {
		return ErrInvalidActivationToken
	}

	if stored.IsExpired(time.Now()) {
		if err := s.tokens.DeleteActivationToken(ctx, existingUser.ID); err != nil {
			s.logger.Warn("failed to delete expired activation token", "user_id", existingUser.ID, "error", err)
		}
		return ErrInvalidActivationToken
	}

	if err := s.tokens.ConsumeActivationToken(ctx, existingUser.ID); err != nil {
		return fmt.Errorf("failed to activate user: %w", err)
	}

	go func() {
		emailCtx := context.Background()
		if err := s.emails.SendActivationCompleteEmail(emailCtx, existingUser.Email); err != nil {
			s.logger.Warn("failed to send activation complete email", "email", existingUser.Email, "error", err)
		}
	}()

	return nil
}

// ResendActivation issues a fresh activation token and re-sends the email.
// Always returns nil so callers cannot probe which emails are registered.
func (s *Service) ResendActivation(ctx context.Context, email string) error {
	existingUser, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, user.ErrNotFound) {
			s.logger.Warn("failed to get user for activation resend", "error", err)
		}
		return nil
	}

	if existingUser.IsActive {
		return nil
	}

	activationToken, err := generateRandomToken()
	if err != nil {
		s.logger.Warn("failed to generate activation token", "error", err)
		return nil
	}

	expiresAt := time.Now().Add(s.activationTokenDuration)
	if err := s.tokens.ReplaceActivationToken(ctx, existingUser.ID, activationToken, expiresAt); err != nil {
		s.logger.Warn("failed to replace activation token", "user_id", existingUser.ID, "error", err)
		return nil
	}

	go func() {
		emailCtx := context.Background()
		if err := s.emails.SendActivationEmail(emailCtx, existingUser.Email, activationToken); err != nil {
			s.logger.Warn("failed to resend activation email", "email", existingUser.Email, "error", err)
		}
	}()

	return nil
}

// RequestPasswordReset stores a reset token and emails a reset link.
// Always returns nil so callers cannot probe which emails are registered.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	existingUser, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, user.ErrNotFound) {
			s.logger.Warn("failed to get user for password reset", "error", err)
		}
		return nil
	}

	// Inactive accounts get the same silence as unknown ones: no token
	// row, no email.
	if !existingUser.IsActive {
		return nil
	}

	resetToken, err := generateRandomToken()
	if err != nil {
		s.logger.Warn("failed to generate reset token", "error", err)
		return nil
	}

	expiresAt := time.Now().Add(s.resetTokenDuration)
	if err := s.tokens.ReplaceResetToken(ctx, existingUser.ID, resetToken, expiresAt); err != nil {
		s.logger.Warn("failed to store reset token", "user_id", existingUser.ID, "error", err)
		return nil
	}

	go func() {
		emailCtx := context.Background()
		if err := s.emails.SendPasswordResetEmail(emailCtx, existingUser.Email, resetToken); err != nil {
			s.logger.Warn("failed to send password reset email", "email", existingUser.Email, "error", err)
		}
	}()

	return nil
}

// CompletePasswordReset sets a new password for the user identified by
// email when the reset token matches. Existing sessions stay valid.
func (s *Service) CompletePasswordReset(ctx context.Context, email, resetToken, newPassword string) error {
	if newPassword == "" {
		return ErrPasswordRequired
	}
	if err := password.Validate(newPassword); err != nil {
		return err
	}

	existingUser, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return ErrInvalidResetToken
		}
		return fmt.Errorf("failed to get user: %w", err)
	}

	// Inactive accounts cannot hold a usable reset token.
	if !existingUser.IsActive {
		return ErrInvalidResetToken
	}

	stored, err := s.tokens.GetResetToken(ctx, existingUser.ID)
	if err != nil {
		if errors.Is(err, ErrResetTokenNotFound) {
			return ErrInvalidResetToken
		}
		return fmt.Errorf("failed to get reset token: %w", err)
	}

	if !tokensEqual(stored.Token, resetToken) {
		return ErrInvalidResetToken
	}

	if stored.IsExpired(time.Now()) {
		if err := s.tokens.DeleteResetToken(ctx, existingUser.ID); err != nil {
			s.logger.Warn("failed to delete expired reset token", "user_id", existingUser.ID, "error", err)
		}
		return ErrInvalidResetToken
	}

	passwordHash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.tokens.CompletePasswordReset(ctx, existingUser.ID, passwordHash); err != nil {
		return fmt.Errorf("failed to complete password reset: %w", err)
	}

	go func() {
		emailCtx := context.Background()
		if err := s.emails.SendPasswordResetCompleteEmail(emailCtx, existingUser.Email); err != nil {
			s.logger.Warn("failed to send reset complete email", "email", existingUser.Email, "error", err)
		}
	}()

	return nil
}

// Login authenticates the user and opens a new session. Existing
// sessions on other devices are untouched.
func (s *Service) Login(ctx context.Context, email, pass string) (*TokenPair, error) {
	if email == "" || pass == "" {
		return nil, ErrInvalidCredentials
	}

	existingUser, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !s.hasher.Verify(existingUser.PasswordHash, pass) {
		return nil, ErrInvalidCredentials
	}

	if !existingUser.IsActive {
		return nil, ErrAccountInactive
	}

	accessToken, err := s.tokenManager.CreateAccessToken(existingUser.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to create access token: %w", err)
	}

	refreshToken, err := s.tokenManager.CreateRefreshToken(existingUser.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to create refresh token: %w", err)
	}

	expiresAt := time.Now().Add(s.refreshTokenDuration)
	if err := s.tokens.StoreRefreshToken(ctx, existingUser.ID, refreshToken, expiresAt); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "bearer",
	}, nil
}

// Refresh exchanges a valid refresh token for a new access token.
// The refresh token itself is not rotated.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (string, error) {
	claims, err := s.tokenManager.DecodeRefreshToken(refreshToken)
	if err != nil {
		if errors.Is(err, token.ErrTokenExpired) {
			return "", ErrRefreshTokenExpired
		}
		return "", ErrInvalidRefreshToken
	}

	// The signature alone is not enough: logout removes the row, and a
	// removed session must not mint new access tokens.
	exists, err := s.tokens.HasRefreshToken(ctx, refreshToken)
	if err != nil {
		return "", fmt.Errorf("failed to look up refresh token: %w", err)
	}
	if !exists {
		return "", ErrRefreshTokenNotFound
	}

	existingUser, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return "", ErrUserNotFound
		}
		return "", fmt.Errorf("failed to get user: %w", err)
	}

	accessToken, err := s.tokenManager.CreateAccessToken(existingUser.ID)
	if err != nil {
		return "", fmt.Errorf("failed to create access token: %w", err)
	}

	return accessToken, nil
}

// Logout closes the session identified by the refresh token. Calling it
// for an already-closed session is a no-op.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	claims, err := s.tokenManager.DecodeRefreshToken(refreshToken)
	if err != nil {
		if errors.Is(err, token.ErrTokenExpired) {
			return ErrRefreshTokenExpired
		}
		return ErrInvalidRefreshToken
	}

	if err := s.tokens.DeleteRefreshToken(ctx, claims.UserID, refreshToken); err != nil {
		return fmt.Errorf("failed to delete refresh token: %w", err)
	}
	return nil
}

// ChangePassword updates the password of an authenticated user after
// verifying the old one.
func (s *Service) ChangePassword(ctx context.Context, userID uuid.UUID, oldPassword, newPassword string) error {
	if newPassword == "" {
		return ErrPasswordRequired
	}
	if err := password.Validate(newPassword); err != nil {
		return err
	}

	existingUser, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to get user: %w", err)
	}

	if !s.hasher.Verify(existingUser.PasswordHash, oldPassword) {
		return ErrWrongOldPassword
	}

	passwordHash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.users.UpdatePassword(ctx, userID, passwordHash); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	return nil
}

// AdminActivate activates an account directly, bypassing the emailed
// token. The pending activation token, if any, is removed.
func (s *Service) AdminActivate(ctx context.Context, userID uuid.UUID) error {
	existingUser, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to get user: %w", err)
	}

	if existingUser.IsActive {
		return ErrAlreadyActive
	}

	if err := s.users.Activate(ctx, userID); err != nil {
		return fmt.Errorf("failed to activate user: %w", err)
	}

	if err := s.tokens.DeleteActivationToken(ctx, userID); err != nil {
		s.logger.Warn("failed to delete activation token after admin activation", "user_id", userID, "error", err)
	}

	return nil
}

// ChangeRole moves the user into another group.
func (s *Service) ChangeRole(ctx context.Context, userID uuid.UUID, role user.Role) error {
	if err := s.users.SetRole(ctx, userID, role); err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to set role: %w", err)
	}
	return nil
}

// generateRandomToken creates a cryptographically secure random token
// for activation and reset links.
func generateRandomToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

func tokensEqual(stored, presented string) bool {
	return subtle.ConstantTimeCompare([]byte(stored), []byte(presented)) == 1
}
