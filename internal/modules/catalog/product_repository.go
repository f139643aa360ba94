package catalog

import (
	"context"
	"errors"
	"fmt"

	"corralx-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RepositoryInterface is the slice of the catalog the order engine consumes:
// product lookup for authorization/pricing and the quantity gate. Inventory
// management itself lives elsewhere.
type RepositoryInterface interface {
	FindByID(ctx context.Context, productID int64) (*models.Product, error)
	QuantityAvailable(ctx context.Context, productID int64) (int, error)
}

// Repository implements RepositoryInterface over Postgres.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new catalog repository.
func NewRepository(db *pgxpool.Pool) RepositoryInterface {
	return &Repository{db: db}
}

func (r *Repository) FindByID(ctx context.Context, productID int64) (*models.Product, error) {
	product := &models.Product{}
	query := `
		SELECT id, ranch_id, seller_profile_id, name, description, unit_price, currency, quantity_available, created_at, updated_at
		FROM products
		WHERE id = $1`

	err := r.db.QueryRow(ctx, query, productID).Scan(
		&product.ID, &product.RanchID, &product.SellerProfileID, &product.Name, &product.Description,
		&product.UnitPrice, &product.Currency, &product.QuantityAvailable, &product.CreatedAt, &product.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("repository.FindByID: %w", err)
	}
	return product, nil
}

// QuantityAvailable reads the current availability without a lock. Callers
// that need the check to hold across a write use the locked re-check inside
// the orders repository transaction instead.
func (r *Repository) QuantityAvailable(ctx context.Context, productID int64) (int, error) {
	var available int
	err := r.db.QueryRow(ctx, `SELECT quantity_available FROM products WHERE id = $1`, productID).Scan(&available)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, models.ErrNotFound
		}
		return 0, fmt.Errorf("repository.QuantityAvailable: %w", err)
	}
	return available, nil
}
