package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/moviehub/theater-api/internal/database"
)

var (
	ErrActivationTokenNotFound = errors.New("activation token not found")
	ErrResetTokenNotFound      = errors.New("password reset token not found")
)

// Repository is the relational token lifecycle store. Invariants like
// "one reset token per user" rely on the unique constraints and the
// delete-then-insert ordering inside a single transaction, not on any
// in-process locking.
type Repository struct {
	db *bun.DB
}

func NewRepository(db *bun.DB) *Repository {
	return &Repository{db: db}
}

// ReplaceActivationToken deletes any previous activation token for the
// user and inserts a fresh one in the same transaction.
func (r *Repository) ReplaceActivationToken(ctx context.Context, userID uuid.UUID, token string, expiresAt time.Time) error {
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().
			Model((*database.ActivationToken)(nil)).
			Where("user_id = ?", userID).
			Exec(ctx); err != nil {
			return fmt.Errorf("failed to delete old activation token: %w", err)
		}

		dbToken := &database.ActivationToken{
			UserID:    userID,
			Token:     token,
			ExpiresAt: expiresAt,
		}
		if _, err := tx.NewInsert().
			Model(dbToken).
			Exec(ctx); err != nil {
			return fmt.Errorf("failed to insert activation token: %w", err)
		}

		return nil
	})
}

func (r *Repository) GetActivationToken(ctx context.Context, userID uuid.UUID) (*ActivationToken, error) {
	dbToken := new(database.ActivationToken)
	err := r.db.NewSelect().
		Model(dbToken).
		Where("user_id = ?", userID).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrActivationTokenNotFound
		}
		return nil, fmt.Errorf("failed to get activation token: %w", err)
	}

	return &ActivationToken{
		UserID:    dbToken.UserID,
		Token:     dbToken.Token,
		ExpiresAt: dbToken.ExpiresAt,
	}, nil
}

func (r *Repository) DeleteActivationToken(ctx context.Context, userID uuid.UUID) error {
	_, err := r.db.NewDelete().
		Model((*database.ActivationToken)(nil)).
		Where("user_id = ?", userID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete activation token: %w", err)
	}

	return nil
}

// ConsumeActivationToken activates the user and deletes the activation
// token atomically.
func (r *Repository) ConsumeActivationToken(ctx context.Context, userID uuid.UUID) error {
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewUpdate().
			Model((*database.User)(nil)).
			Set("is_active = ?", true).
			Set("updated_at = NOW()").
			Where("id = ?", userID).
			Exec(ctx); err != nil {
			return fmt.Errorf("failed to activate user: %w", err)
		}

		if _, err := tx.NewDelete().
			Model((*database.ActivationToken)(nil)).
			Where("user_id = ?", userID).
			Exec(ctx); err != nil {
			return fmt.Errorf("failed to delete activation token: %w", err)
		}

		return nil
	})
}

// ReplaceResetToken deletes any previous reset token for the user and
// inserts exactly one new one. Concurrent requests race on this and the
// last writer wins.
func (r *Repository) ReplaceResetToken(ctx context.Context, userID uuid.UUID, token string, expiresAt time.Time) error {
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().
			Model((*database.PasswordResetToken)(nil)).
			Where("user_id = ?", userID).
			Exec(ctx); err != nil {
			return fmt.Errorf("failed to delete old reset token: %w", err)
		}

		dbToken := &database.PasswordResetToken{
			UserID:    userID,
			Token:     token,
			ExpiresAt: expiresAt,
		}
		if _, err := tx.NewInsert().
			Model(dbToken).
			Exec(ctx); err != nil {
			return fmt.Errorf("failed to insert reset token: %w", err)
		}

		return nil
	})
}

func (r *Repository) GetResetToken(ctx context.Context, userID uuid.UUID) (*PasswordResetToken, error) {
	dbToken := new(database.PasswordResetToken)
	err := r.db.NewSelect().
		Model(dbToken).
		Where("user_id = ?", userID).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrResetTokenNotFound
		}
		return nil, fmt.Errorf("failed to get reset token: %w", err)
	}

	return &PasswordResetToken{
		UserID:    dbToken.UserID,
		Token:     dbToken.Token,
		ExpiresAt: dbToken.ExpiresAt,
	}, nil
}

func (r *Repository) DeleteResetToken(ctx context.Context, userID uuid.UUID) error {
	_, err := r.db.NewDelete().
		Model((*database.PasswordResetToken)(nil)).
		Where("user_id = ?", userID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete reset token: %w", err)
	}

	return nil
}

// CompletePasswordReset stores the new password hash and deletes the
// consumed reset token atomically.
func (r *Repository) CompletePasswordReset(ctx context.Context, userID uuid.UUID, passwordHash string) error {
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewUpdate().
			Model((*database.User)(nil)).
			Set("password_hash = ?", passwordHash).
			Set("updated_at = NOW()").
			Where("id = ?", userID).
			Exec(ctx); err != nil {
			return fmt.Errorf("failed to update password: %w", err)
		}

		if _, err := tx.NewDelete().
			Model((*database.PasswordResetToken)(nil)).
			Where("user_id = ?", userID).
			Exec(ctx); err != nil {
			return fmt.Errorf("failed to delete reset token: %w", err)
		}

		return nil
	})
}

func (r *Repository) StoreRefreshToken(ctx context.Context, userID uuid.UUID, token string, expiresAt time.Time) error {
	dbToken := &database.RefreshToken{
		UserID:    userID,
		Token:     token,
		ExpiresAt: expiresAt,
	}

	_, err := r.db.NewInsert().
		Model(dbToken).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to store refresh token: %w", err)
	}

	return nil
}

// HasRefreshToken reports whether the exact token row is still present.
// A missing row means the session was logged out or swept.
func (r *Repository) HasRefreshToken(ctx context.Context, token string) (bool, error) {
	count, err := r.db.NewSelect().
		Model((*database.RefreshToken)(nil)).
		Where("token = ?", token).
		Count(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to look up refresh token: %w", err)
	}

	return count > 0, nil
}

// DeleteRefreshToken removes the session row matching (user, token).
// Deleting zero rows is not an error, so logout retries are idempotent.
func (r *Repository) DeleteRefreshToken(ctx context.Context, userID uuid.UUID, token string) error {
	_, err := r.db.NewDelete().
		Model((*database.RefreshToken)(nil)).
		Where("user_id = ?", userID).
		Where("token = ?", token).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete refresh token: %w", err)
	}

	return nil
}

// DeleteExpired removes expired activation, reset and refresh tokens.
// Run periodically by the cleanup job.
func (r *Repository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	var total int64

	res, err := r.db.NewDelete().
		Model((*database.ActivationToken)(nil)).
		Where("expires_at < ?", now).
		Exec(ctx)
	if err != nil {
		return total, fmt.Errorf("failed to delete expired activation tokens: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil {
		total += n
	}

	res, err = r.db.NewDelete().
		Model((*database.PasswordResetToken)(nil)).
		Where("expires_at < ?", now).
		Exec(ctx)
	if err != nil {
		return total, fmt.Errorf("failed to delete expired reset tokens: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil {
		total += n
	}

	res, err = r.db.NewDelete().
		Model((*database.RefreshToken)(nil)).
		Where("expires_at < ?", now).
		Exec(ctx)
	if err != nil {
		return total, fmt.Errorf("failed to delete expired refresh tokens: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil {
		total += n
	}

	return total, nil
}
