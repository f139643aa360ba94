package profiles

import (
	"context"
	"errors"
	"fmt"

	"corralx-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RepositoryInterface resolves marketplace profiles. Authentication happens
// upstream; this repository only reads identities for authorization checks,
// receipt snapshots and notification emails.
type RepositoryInterface interface {
	FindByID(ctx context.Context, profileID int64) (*models.Profile, error)
	FindByUserID(ctx context.Context, userID string) (*models.Profile, error)
}

// Repository implements RepositoryInterface over Postgres.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new profiles repository.
func NewRepository(db *pgxpool.Pool) RepositoryInterface {
	return &Repository{db: db}
}

func (r *Repository) FindByID(ctx context.Context, profileID int64) (*models.Profile, error) {
	return r.findBy(ctx, `WHERE id = $1`, profileID)
}

func (r *Repository) FindByUserID(ctx context.Context, userID string) (*models.Profile, error) {
	return r.findBy(ctx, `WHERE user_id = $1`, userID)
}

func (r *Repository) findBy(ctx context.Context, where string, arg interface{}) (*models.Profile, error) {
	profile := &models.Profile{}
	query := `
		SELECT id, user_id, display_name, legal_name, email, is_seller, ranch_id, created_at, updated_at
		FROM profiles ` + where

	err := r.db.QueryRow(ctx, query, arg).Scan(
		&profile.ID, &profile.UserID, &profile.DisplayName, &profile.LegalName, &profile.Email,
		&profile.IsSeller, &profile.RanchID, &profile.CreatedAt, &profile.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("repository.findBy: %w", err)
	}
	return profile, nil
}
