package profile

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
	ErrNotFound = errors.New("profile not found")
	ErrExists   = errors.New("profile already exists")
)

// Profile is a user's public profile. All fields except the owner are
// optional.
type Profile struct {
	UserID      uuid.UUID `json:"user_id"`
	FirstName   *string   `json:"first_name"`
	LastName    *string   `json:"last_name"`
	Gender      *string   `json:"gender"`
	DateOfBirth *string   `json:"date_of_birth"`
	Info        *string   `json:"info"`
	AvatarURL   *string   `json:"avatar"`
}

type Repository struct {
	db *bun.DB
}

func NewRepository(db *bun.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts the user's profile. Each user gets at most one.
func (r *Repository) Create(ctx context.Context, p *Profile) error {
	dbProfile := &database.UserProfile{
		UserID:      p.UserID,
		FirstName:   p.FirstName,
		LastName:    p.LastName,
		Gender:      p.Gender,
		Info:        p.Info,
		Avatar:      p.AvatarURL,
		DateOfBirth: parseDate(p.DateOfBirth),
	}

	_, err := r.db.NewInsert().
		Model(dbProfile).
		Exec(ctx)
	if err != nil {
		if strings.Contains(err.Error(), "duplicate key value violates unique constraint") {
			return ErrExists
		}
		return fmt.Errorf("failed to create profile: %w", err)
	}

	return nil
}

// GetByUserID retrieves a user's profile.
func (r *Repository) GetByUserID(ctx context.Context, userID uuid.UUID) (*Profile, error) {
	dbProfile := new(database.UserProfile)
	err := r.db.NewSelect().
		Model(dbProfile).
		Where("user_id = ?", userID).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	return &Profile{
		UserID:      dbProfile.UserID,
		FirstName:   dbProfile.FirstName,
		LastName:    dbProfile.LastName,
		Gender:      dbProfile.Gender,
		Info:        dbProfile.Info,
		AvatarURL:   dbProfile.Avatar,
		DateOfBirth: formatDate(dbProfile.DateOfBirth),
	}, nil
}

func parseDate(s *string) *time.Time {
	if s == nil || *s == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02", *s)
	if err != nil {
		return nil
	}
	return &t
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format("2006-01-02")
	return &s
}
