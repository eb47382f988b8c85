package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/moviehub/theater-api/internal/database"
)

var (
	ErrNotFound       = errors.New("user not found")
	ErrDuplicateEmail = errors.New("email already exists")
	ErrGroupNotFound  = errors.New("user group not found")
)

// Repository handles user data persistence
type Repository struct {
	db *bun.DB
}

func NewRepository(db *bun.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new inactive user together with its activation token
// in one transaction. Either both rows exist afterwards or neither does.
func (r *Repository) Create(ctx context.Context, email, passwordHash, activationToken string, activationExpiresAt time.Time) (*User, error) {
	var created *User

	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		group := new(database.UserGroup)
		err := tx.NewSelect().
			Model(group).
			Where("name = ?", string(RoleUser)).
			Scan(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrGroupNotFound
			}
			return fmt.Errorf("failed to get default group: %w", err)
		}

		dbUser := &database.User{
			Email:        strings.ToLower(email),
			PasswordHash: passwordHash,
			IsActive:     false,
			GroupID:      group.ID,
		}

		if _, err := tx.NewInsert().
			Model(dbUser).
			Returning("*").
			Exec(ctx); err != nil {
			if isUniqueViolation(err) {
				return ErrDuplicateEmail
			}
			return fmt.Errorf("failed to create user: %w", err)
		}

		dbToken := &database.ActivationToken{
			UserID:    dbUser.ID,
			Token:     activationToken,
			ExpiresAt: activationExpiresAt,
		}
		if _, err := tx.NewInsert().
			Model(dbToken).
			Exec(ctx); err != nil {
			return fmt.Errorf("failed to create activation token: %w", err)
		}

		created = mapDBUserToModel(dbUser, group)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return created, nil
}

// GetByEmail retrieves a user by email, group included
func (r *Repository) GetByEmail(ctx context.Context, email string) (*User, error) {
	dbUser := new(database.User)
	err := r.db.NewSelect().
		Model(dbUser).
		Relation("Group").
		Where("u.email = ?", strings.ToLower(email)).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return mapDBUserToModel(dbUser, dbUser.Group), nil
}

// GetByID retrieves a user by ID, group included
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	dbUser := new(database.User)
	err := r.db.NewSelect().
		Model(dbUser).
		Relation("Group").
		Where("u.id = ?", id).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}

	return mapDBUserToModel(dbUser, dbUser.Group), nil
}

// Activate flips the active flag on
func (r *Repository) Activate(ctx context.Context, userID uuid.UUID) error {
	result, err := r.db.NewUpdate().
		Model((*database.User)(nil)).
		Set("is_active = ?", true).
		Set("updated_at = NOW()").
		Where("id = ?", userID).
		Exec(ctx)

	if err != nil {
		return fmt.Errorf("failed to activate user: %w", err)
	}

	return requireRowsAffected(result)
}

// UpdatePassword updates a user's password hash
func (r *Repository) UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) error {
	result, err := r.db.NewUpdate().
		Model((*database.User)(nil)).
		Set("password_hash = ?", passwordHash).
		Set("updated_at = NOW()").
		Where("id = ?", userID).
		Exec(ctx)

	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	return requireRowsAffected(result)
}

// SetRole moves the user into another group
func (r *Repository) SetRole(ctx context.Context, userID uuid.UUID, role Role) error {
	group := new(database.UserGroup)
	err := r.db.NewSelect().
		Model(group).
		Where("name = ?", string(role)).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrGroupNotFound
		}
		return fmt.Errorf("failed to get group: %w", err)
	}

	result, err := r.db.NewUpdate().
		Model((*database.User)(nil)).
		Set("group_id = ?", group.ID).
		Set("updated_at = NOW()").
		Where("id = ?", userID).
		Exec(ctx)

	if err != nil {
		return fmt.Errorf("failed to set user group: %w", err)
	}

	return requireRowsAffected(result)
}

func requireRowsAffected(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "duplicate key value violates unique constraint")
}

// mapDBUserToModel converts database model to domain model
func mapDBUserToModel(dbu *database.User, group *database.UserGroup) *User {
	role := RoleUser
	if group != nil {
		role = Role(group.Name)
	}

	return &User{
		ID:           dbu.ID,
		Email:        dbu.Email,
		PasswordHash: dbu.PasswordHash,
		IsActive:     dbu.IsActive,
		Role:         role,
		CreatedAt:    dbu.CreatedAt,
		UpdatedAt:    dbu.UpdatedAt,
	}
}
