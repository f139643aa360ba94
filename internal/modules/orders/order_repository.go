package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"corralx-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// uniqueViolation is the Postgres error code the reviews unique index
// raises; it is the final backstop behind the in-transaction pre-check.
const uniqueViolation = "23505"

// StatusChange carries the side data of a transition: the reason for
// rejections/cancellations and the pickup date for deliveries.
type StatusChange struct {
	Reason           string
	ActualPickupDate *time.Time
}

// RepositoryInterface defines the contract for order persistence. The
// composite methods each run read -> guard -> write in one transaction with
// the order row locked, so the guards hold under concurrent requests.
type RepositoryInterface interface {
	Create(ctx context.Context, order *models.Order) (*models.Order, error)
	FindByID(ctx context.Context, orderID int64) (*models.Order, error)
	ListByProfile(ctx context.Context, profileID int64, page, limit int) ([]*models.Order, int, error)
	Amend(ctx context.Context, orderID int64, req models.AmendOrderRequest) (*models.Order, error)
	ChangeStatus(ctx context.Context, orderID int64, to models.OrderStatus, change StatusChange) (*models.Order, error)
	SaveReceiptIfAbsent(ctx context.Context, orderID int64, receiptNumber string, receiptData []byte) (bool, error)
	SubmitReviews(ctx context.Context, orderID int64, reviews []*models.Review) (*models.Order, bool, error)
	ListReviews(ctx context.Context, orderID int64) ([]*models.Review, error)
}

// Repository implements RepositoryInterface over Postgres.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new order repository.
func NewRepository(db *pgxpool.Pool) RepositoryInterface {
	return &Repository{db: db}
}

const orderColumns = `id, product_id, buyer_profile_id, seller_profile_id, ranch_id, conversation_id,
	quantity, unit_price, total_price, currency, status,
	delivery_method, pickup_location, delivery_address, delivery_notes,
	delivery_cost, delivery_cost_currency, delivery_provider, tracking_number,
	expected_pickup_date, actual_pickup_date,
	buyer_notes, seller_notes, rejection_reason, cancellation_reason,
	receipt_number, receipt_data,
	accepted_at, rejected_at, delivered_at, completed_at, cancelled_at,
	created_at, updated_at`

// scanOrder is a helper to scan a row into an Order model.
func scanOrder(row pgx.Row) (*models.Order, error) {
	var o models.Order
	err := row.Scan(
		&o.ID, &o.ProductID, &o.BuyerProfileID, &o.SellerProfileID, &o.RanchID, &o.ConversationID,
		&o.Quantity, &o.UnitPrice, &o.TotalPrice, &o.Currency, &o.Status,
		&o.DeliveryMethod, &o.PickupLocation, &o.DeliveryAddress, &o.DeliveryNotes,
		&o.DeliveryCost, &o.DeliveryCostCurrency, &o.DeliveryProvider, &o.TrackingNumber,
		&o.ExpectedPickupDate, &o.ActualPickupDate,
		&o.BuyerNotes, &o.SellerNotes, &o.RejectionReason, &o.CancellationReason,
		&o.ReceiptNumber, &o.ReceiptData,
		&o.AcceptedAt, &o.RejectedAt, &o.DeliveredAt, &o.CompletedAt, &o.CancelledAt,
		&o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan order: %w", err)
	}
	return &o, nil
}

// lockOrder reads the order row FOR UPDATE inside tx, serializing every
// concurrent mutation of the same order.
func lockOrder(ctx context.Context, tx pgx.Tx, orderID int64) (*models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1 FOR UPDATE`
	return scanOrder(tx.QueryRow(ctx, query, orderID))
}

// lockProductAvailability reads the product's availability FOR UPDATE so
// the quantity check and the order write commit atomically with respect to
// racing buyers. Stock is not decremented here; fulfillment reconciles it.
func lockProductAvailability(ctx context.Context, tx pgx.Tx, productID int64) (int, error) {
	var available int
	err := tx.QueryRow(ctx, `SELECT quantity_available FROM products WHERE id = $1 FOR UPDATE`, productID).Scan(&available)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, models.ErrNotFound
		}
		return 0, fmt.Errorf("lock product %d: %w", productID, err)
	}
	return available, nil
}

// Create inserts a new pending order after re-validating the requested
// quantity against the locked product row.
func (r *Repository) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("repository.Create.Begin: %w", err)
	}
	defer tx.Rollback(ctx)

	available, err := lockProductAvailability(ctx, tx, order.ProductID)
	if err != nil {
		return nil, fmt.Errorf("repository.Create: %w", err)
	}
	if order.Quantity > available {
		return nil, models.ErrInsufficientStock
	}

	query := `
		INSERT INTO orders (
			product_id, buyer_profile_id, seller_profile_id, ranch_id, conversation_id,
			quantity, unit_price, total_price, currency, status,
			delivery_method, pickup_location, delivery_address, delivery_notes,
			delivery_cost, delivery_cost_currency, expected_pickup_date, buyer_notes
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 'pending', $10, $11, $12, $13, $14, $15, $16, $17)
		RETURNING ` + orderColumns

	created, err := scanOrder(tx.QueryRow(ctx, query,
		order.ProductID, order.BuyerProfileID, order.SellerProfileID, order.RanchID, order.ConversationID,
		order.Quantity, order.UnitPrice, order.TotalPrice, order.Currency,
		order.DeliveryMethod, order.PickupLocation, order.DeliveryAddress, order.DeliveryNotes,
		order.DeliveryCost, order.DeliveryCostCurrency, order.ExpectedPickupDate, order.BuyerNotes,
	))
	if err != nil {
		return nil, fmt.Errorf("repository.Create: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("repository.Create.Commit: %w", err)
	}
	return created, nil
}

// FindByID retrieves a single order by its ID.
func (r *Repository) FindByID(ctx context.Context, orderID int64) (*models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	order, err := scanOrder(r.db.QueryRow(ctx, query, orderID))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("repository.FindByID: %w", err)
	}
	return order, nil
}

// ListByProfile retrieves the orders a profile participates in, as buyer or
// seller, newest first.
func (r *Repository) ListByProfile(ctx context.Context, profileID int64, page, limit int) ([]*models.Order, int, error) {
	offset := (page - 1) * limit
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE buyer_profile_id = $1 OR seller_profile_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.db.Query(ctx, query, profileID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("repository.ListByProfile.Query: %w", err)
	}
	defer rows.Close()

	var orders []*models.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("repository.ListByProfile.Scan: %w", err)
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("repository.ListByProfile.Rows: %w", err)
	}

	var total int
	err = r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM orders WHERE buyer_profile_id = $1 OR seller_profile_id = $1`,
		profileID).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("repository.ListByProfile.Count: %w", err)
	}

	return orders, total, nil
}

// Amend applies the seller's changes to a pending order, re-validating
// quantity against the locked product row and recomputing the total.
func (r *Repository) Amend(ctx context.Context, orderID int64, req models.AmendOrderRequest) (*models.Order, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("repository.Amend.Begin: %w", err)
	}
	defer tx.Rollback(ctx)

	order, err := lockOrder(ctx, tx, orderID)
	if err != nil {
		return nil, fmt.Errorf("repository.Amend: %w", err)
	}
	if order.Status != models.OrderStatusPending {
		return nil, models.ErrOrderNotPending
	}

	if req.Quantity != nil && *req.Quantity != order.Quantity {
		available, err := lockProductAvailability(ctx, tx, order.ProductID)
		if err != nil {
			return nil, fmt.Errorf("repository.Amend: %w", err)
		}
		if *req.Quantity > available {
			return nil, models.ErrInsufficientStock
		}
		order.Quantity = *req.Quantity
	}
	if req.UnitPrice != nil {
		order.UnitPrice = *req.UnitPrice
	}
	if req.DeliveryMethod != nil {
		order.DeliveryMethod = *req.DeliveryMethod
	}
	if req.PickupLocation != nil {
		order.PickupLocation = *req.PickupLocation
	}
	if req.DeliveryAddress != nil {
		order.DeliveryAddress = req.DeliveryAddress
	}
	if req.DeliveryNotes != nil {
		order.DeliveryNotes = req.DeliveryNotes
	}
	if req.DeliveryCost != nil {
		order.DeliveryCost = *req.DeliveryCost
	}
	if req.DeliveryCostCurrency != nil {
		order.DeliveryCostCurrency = *req.DeliveryCostCurrency
	}
	if req.DeliveryProvider != nil {
		order.DeliveryProvider = req.DeliveryProvider
	}
	if req.TrackingNumber != nil {
		order.TrackingNumber = req.TrackingNumber
	}
	if req.ExpectedPickupDate != nil {
		order.ExpectedPickupDate = req.ExpectedPickupDate
	}
	if req.SellerNotes != nil {
		order.SellerNotes = req.SellerNotes
	}
	order.Recalculate()

	query := `
		UPDATE orders SET
			quantity = $2, unit_price = $3, total_price = $4,
			delivery_method = $5, pickup_location = $6, delivery_address = $7, delivery_notes = $8,
			delivery_cost = $9, delivery_cost_currency = $10, delivery_provider = $11, tracking_number = $12,
			expected_pickup_date = $13, seller_notes = $14, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + orderColumns

	updated, err := scanOrder(tx.QueryRow(ctx, query, orderID,
		order.Quantity, order.UnitPrice, order.TotalPrice,
		order.DeliveryMethod, order.PickupLocation, order.DeliveryAddress, order.DeliveryNotes,
		order.DeliveryCost, order.DeliveryCostCurrency, order.DeliveryProvider, order.TrackingNumber,
		order.ExpectedPickupDate, order.SellerNotes,
	))
	if err != nil {
		return nil, fmt.Errorf("repository.Amend.Update: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("repository.Amend.Commit: %w", err)
	}
	return updated, nil
}

// ChangeStatus performs a guarded transition. The guard runs against the
// locked row, so a concurrent transition on the same order observes the
// committed state of whichever request won, never the stale read.
func (r *Repository) ChangeStatus(ctx context.Context, orderID int64, to models.OrderStatus, change StatusChange) (*models.Order, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("repository.ChangeStatus.Begin: %w", err)
	}
	defer tx.Rollback(ctx)

	order, err := lockOrder(ctx, tx, orderID)
	if err != nil {
		return nil, fmt.Errorf("repository.ChangeStatus: %w", err)
	}
	if !order.Status.CanTransitionTo(to) {
		return nil, models.ErrInvalidTransition
	}

	set := `status = $2, updated_at = NOW()`
	args := []interface{}{orderID, to}
	switch to {
	case models.OrderStatusAccepted:
		set += `, accepted_at = NOW()`
	case models.OrderStatusRejected:
		set += `, rejected_at = NOW(), rejection_reason = $3`
		args = append(args, change.Reason)
	case models.OrderStatusCancelled:
		set += `, cancelled_at = NOW(), cancellation_reason = $3`
		args = append(args, change.Reason)
	case models.OrderStatusDelivered:
		pickup := change.ActualPickupDate
		if pickup == nil {
			now := time.Now()
			pickup = &now
		}
		set += `, delivered_at = NOW(), actual_pickup_date = $3`
		args = append(args, pickup)
	case models.OrderStatusCompleted:
		set += `, completed_at = NOW()`
	}

	query := `UPDATE orders SET ` + set + ` WHERE id = $1 RETURNING ` + orderColumns
	updated, err := scanOrder(tx.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, fmt.Errorf("repository.ChangeStatus.Update: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("repository.ChangeStatus.Commit: %w", err)
	}
	return updated, nil
}

// translateReviewInsertError maps the unique-index violation onto the same
// duplicate error the in-transaction pre-check returns. The index is the
// final backstop; callers cannot tell which check caught them.
func translateReviewInsertError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return models.ErrReviewAlreadySubmitted
	}
	return fmt.Errorf("repository.SubmitReviews.Insert: %w", err)
}

// SaveReceiptIfAbsent persists the snapshot only if none exists yet. The
// conditional WHERE makes lazy generation idempotent under concurrent
// requests: exactly one writer wins, everyone else reads the stored bytes.
func (r *Repository) SaveReceiptIfAbsent(ctx context.Context, orderID int64, receiptNumber string, receiptData []byte) (bool, error) {
	cmdTag, err := r.db.Exec(ctx, `
		UPDATE orders
		SET receipt_number = $2, receipt_data = $3, updated_at = NOW()
		WHERE id = $1 AND receipt_data IS NULL`,
		orderID, receiptNumber, receiptData)
	if err != nil {
		return false, fmt.Errorf("repository.SaveReceiptIfAbsent: %w", err)
	}
	return cmdTag.RowsAffected() > 0, nil
}

// SubmitReviews inserts the reviewer's rating rows and, when both
// participants have now reviewed, completes the order. Everything happens
// in one transaction with the order row locked; completion itself is an
// atomic conditional update so that of two racing submissions exactly one
// observes completed == true.
func (r *Repository) SubmitReviews(ctx context.Context, orderID int64, reviews []*models.Review) (*models.Order, bool, error) {
	if len(reviews) == 0 {
		return nil, false, models.ErrRatingRequired
	}
	reviewerID := reviews[0].ReviewerProfileID

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("repository.SubmitReviews.Begin: %w", err)
	}
	defer tx.Rollback(ctx)

	order, err := lockOrder(ctx, tx, orderID)
	if err != nil {
		return nil, false, fmt.Errorf("repository.SubmitReviews: %w", err)
	}
	if order.Status != models.OrderStatusDelivered && order.Status != models.OrderStatusCompleted {
		return nil, false, models.ErrReviewNotAllowed
	}

	var alreadyReviewed bool
	err = tx.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM reviews WHERE order_id = $1 AND reviewer_profile_id = $2)`,
		orderID, reviewerID).Scan(&alreadyReviewed)
	if err != nil {
		return nil, false, fmt.Errorf("repository.SubmitReviews.PreCheck: %w", err)
	}
	if alreadyReviewed {
		return nil, false, models.ErrReviewAlreadySubmitted
	}

	insert := `
		INSERT INTO reviews (order_id, reviewer_profile_id, target, product_id, ranch_id, rating, comment, is_verified_purchase, is_approved)
		VALUES ($1, $2, $3, $4, $5, $6, $7, TRUE, TRUE)`
	for _, review := range reviews {
		if _, err := tx.Exec(ctx, insert,
			review.OrderID, review.ReviewerProfileID, review.Target, review.ProductID,
			review.RanchID, review.Rating, review.Comment,
		); err != nil {
			return nil, false, translateReviewInsertError(err)
		}
	}

	var reviewerCount int
	err = tx.QueryRow(ctx, `
		SELECT COUNT(DISTINCT reviewer_profile_id)
		FROM reviews
		WHERE order_id = $1 AND reviewer_profile_id IN ($2, $3)`,
		orderID, order.BuyerProfileID, order.SellerProfileID).Scan(&reviewerCount)
	if err != nil {
		return nil, false, fmt.Errorf("repository.SubmitReviews.Count: %w", err)
	}

	completed := false
	if reviewerCount == 2 {
		cmdTag, err := tx.Exec(ctx, `
			UPDATE orders
			SET status = $2, completed_at = NOW(), updated_at = NOW()
			WHERE id = $1 AND status = $3`,
			orderID, models.OrderStatusCompleted, models.OrderStatusDelivered)
		if err != nil {
			return nil, false, fmt.Errorf("repository.SubmitReviews.Complete: %w", err)
		}
		completed = cmdTag.RowsAffected() > 0
	}

	updated, err := scanOrder(tx.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, orderID))
	if err != nil {
		return nil, false, fmt.Errorf("repository.SubmitReviews.Reload: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, false, fmt.Errorf("repository.SubmitReviews.Commit: %w", err)
	}
	return updated, completed, nil
}

// ListReviews returns the order's review rows, oldest first.
func (r *Repository) ListReviews(ctx context.Context, orderID int64) ([]*models.Review, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, order_id, reviewer_profile_id, target, product_id, ranch_id, rating, comment, is_verified_purchase, is_approved, created_at
		FROM reviews
		WHERE order_id = $1
		ORDER BY created_at ASC, id ASC`,
		orderID)
	if err != nil {
		return nil, fmt.Errorf("repository.ListReviews.Query: %w", err)
	}
	defer rows.Close()

	var reviews []*models.Review
	for rows.Next() {
		var review models.Review
		if err := rows.Scan(
			&review.ID, &review.OrderID, &review.ReviewerProfileID, &review.Target, &review.ProductID,
			&review.RanchID, &review.Rating, &review.Comment, &review.IsVerifiedPurchase, &review.IsApproved,
			&review.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("repository.ListReviews.Scan: %w", err)
		}
		reviews = append(reviews, &review)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository.ListReviews.Rows: %w", err)
	}
	return reviews, nil
}
