package orders

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"corralx-backend/internal/models"
	"corralx-backend/internal/modules/catalog"
	"corralx-backend/internal/modules/profiles"
	"corralx-backend/pkg/notify"
)

// ServiceInterface defines the contract for the order lifecycle engine.
// Every method takes the acting profile id explicitly; nothing below the
// handler reads ambient auth state.
type ServiceInterface interface {
	CreateOrder(ctx context.Context, buyerProfileID int64, req models.CreateOrderRequest) (*models.Order, error)
	GetOrder(ctx context.Context, profileID, orderID int64) (*models.Order, error)
	ListMyOrders(ctx context.Context, profileID int64, page, limit int) ([]*models.Order, int, error)
	AmendOrder(ctx context.Context, profileID, orderID int64, req models.AmendOrderRequest) (*models.Order, error)

	AcceptOrder(ctx context.Context, profileID, orderID int64) (*models.Order, error)
	RejectOrder(ctx context.Context, profileID, orderID int64, reason string) (*models.Order, error)
	DeliverOrder(ctx context.Context, profileID, orderID int64, req models.DeliverOrderRequest) (*models.Order, error)
	CancelOrder(ctx context.Context, profileID, orderID int64, reason string) (*models.Order, error)

	GetReceipt(ctx context.Context, profileID, orderID int64) (*models.Receipt, error)
	SubmitReviews(ctx context.Context, profileID, orderID int64, req models.SubmitReviewsRequest) (*models.Order, error)
	ListReviews(ctx context.Context, profileID, orderID int64) ([]*models.Review, error)
}

// Service implements the order lifecycle logic.
type Service struct {
	repo      RepositoryInterface
	catalog   catalog.RepositoryInterface
	profiles  profiles.RepositoryInterface
	publisher notify.Publisher
}

// NewService creates a new order service.
func NewService(
	repo RepositoryInterface,
	catalogRepo catalog.RepositoryInterface,
	profileRepo profiles.RepositoryInterface,
	publisher notify.Publisher,
) ServiceInterface {
	return &Service{
		repo:      repo,
		catalog:   catalogRepo,
		profiles:  profileRepo,
		publisher: publisher,
	}
}

// publish emits a lifecycle event after the transition has committed.
// Failures are logged and swallowed: the persisted order is the source of
// truth, not the notification.
func (s *Service) publish(ctx context.Context, eventName string, order *models.Order) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, eventName, order); err != nil {
		log.Printf("orders: publish %s for order %d failed: %v", eventName, order.ID, err)
	}
}

// CreateOrder records a buyer's purchase intent as a pending order.
func (s *Service) CreateOrder(ctx context.Context, buyerProfileID int64, req models.CreateOrderRequest) (*models.Order, error) {
	if _, err := s.profiles.FindByID(ctx, buyerProfileID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrForbidden
		}
		return nil, fmt.Errorf("service.CreateOrder.Profile: %w", err)
	}

	product, err := s.catalog.FindByID(ctx, req.ProductID)
	if err != nil {
		return nil, fmt.Errorf("service.CreateOrder.Product: %w", err)
	}
	if product.SellerProfileID == buyerProfileID {
		return nil, models.ErrSelfPurchase
	}

	// Advisory read of the inventory gate; the authoritative check runs
	// against the locked product row inside the create transaction.
	available, err := s.catalog.QuantityAvailable(ctx, req.ProductID)
	if err != nil {
		return nil, fmt.Errorf("service.CreateOrder.Quantity: %w", err)
	}
	if req.Quantity > available {
		return nil, models.ErrInsufficientStock
	}

	unitPrice := product.UnitPrice
	if req.UnitPrice != nil {
		unitPrice = *req.UnitPrice
	}
	currency := product.Currency
	if req.Currency != "" {
		currency = req.Currency
	}
	costCurrency := req.DeliveryCostCurrency
	if costCurrency == "" {
		costCurrency = currency
	}

	order := &models.Order{
		ProductID:            product.ID,
		BuyerProfileID:       buyerProfileID,
		SellerProfileID:      product.SellerProfileID,
		RanchID:              product.RanchID,
		ConversationID:       req.ConversationID,
		Quantity:             req.Quantity,
		UnitPrice:            unitPrice,
		Currency:             currency,
		Status:               models.OrderStatusPending,
		DeliveryMethod:       req.DeliveryMethod,
		PickupLocation:       req.PickupLocation,
		DeliveryAddress:      req.DeliveryAddress,
		DeliveryNotes:        req.DeliveryNotes,
		DeliveryCost:         req.DeliveryCost,
		DeliveryCostCurrency: costCurrency,
		ExpectedPickupDate:   req.ExpectedPickupDate,
		BuyerNotes:           req.BuyerNotes,
	}
	order.Recalculate()

	created, err := s.repo.Create(ctx, order)
	if err != nil {
		return nil, fmt.Errorf("service.CreateOrder: %w", err)
	}

	s.publish(ctx, notify.EventCreated, created)
	return created, nil
}

// GetOrder retrieves a single order for one of its participants.
func (s *Service) GetOrder(ctx context.Context, profileID, orderID int64) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("service.GetOrder: %w", err)
	}
	if !order.IsParticipant(profileID) {
		return nil, models.ErrForbidden
	}
	return order, nil
}

// ListMyOrders retrieves the caller's orders, as buyer or seller.
func (s *Service) ListMyOrders(ctx context.Context, profileID int64, page, limit int) ([]*models.Order, int, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	orders, total, err := s.repo.ListByProfile(ctx, profileID, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("service.ListMyOrders: %w", err)
	}
	return orders, total, nil
}

// AmendOrder applies the seller's changes to a pending order. The
// non-pending rejection here is an authorization-level check; the state
// guard repeats it against the locked row inside the transaction.
func (s *Service) AmendOrder(ctx context.Context, profileID, orderID int64, req models.AmendOrderRequest) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("service.AmendOrder: %w", err)
	}
	if order.SellerProfileID != profileID {
		return nil, models.ErrForbidden
	}
	if order.Status != models.OrderStatusPending {
		return nil, models.ErrOrderNotPending
	}

	updated, err := s.repo.Amend(ctx, orderID, req)
	if err != nil {
		return nil, fmt.Errorf("service.AmendOrder: %w", err)
	}

	s.publish(ctx, notify.EventUpdated, updated)
	return updated, nil
}

// AcceptOrder is the seller's pending -> accepted transition.
func (s *Service) AcceptOrder(ctx context.Context, profileID, orderID int64) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("service.AcceptOrder: %w", err)
	}
	if order.SellerProfileID != profileID {
		return nil, models.ErrForbidden
	}

	updated, err := s.repo.ChangeStatus(ctx, orderID, models.OrderStatusAccepted, StatusChange{})
	if err != nil {
		return nil, fmt.Errorf("service.AcceptOrder: %w", err)
	}

	s.publish(ctx, notify.EventAccepted, updated)
	return updated, nil
}

// RejectOrder is the seller's pending -> rejected transition; a reason is
// required and stored on the order.
func (s *Service) RejectOrder(ctx context.Context, profileID, orderID int64, reason string) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("service.RejectOrder: %w", err)
	}
	if order.SellerProfileID != profileID {
		return nil, models.ErrForbidden
	}

	updated, err := s.repo.ChangeStatus(ctx, orderID, models.OrderStatusRejected, StatusChange{Reason: reason})
	if err != nil {
		return nil, fmt.Errorf("service.RejectOrder: %w", err)
	}

	s.publish(ctx, notify.EventRejected, updated)
	return updated, nil
}

// DeliverOrder is the buyer's accepted -> delivered confirmation.
func (s *Service) DeliverOrder(ctx context.Context, profileID, orderID int64, req models.DeliverOrderRequest) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("service.DeliverOrder: %w", err)
	}
	if order.BuyerProfileID != profileID {
		return nil, models.ErrForbidden
	}

	updated, err := s.repo.ChangeStatus(ctx, orderID, models.OrderStatusDelivered, StatusChange{ActualPickupDate: req.ActualPickupDate})
	if err != nil {
		return nil, fmt.Errorf("service.DeliverOrder: %w", err)
	}

	s.publish(ctx, notify.EventDelivered, updated)
	return updated, nil
}

// CancelOrder lets either participant cancel while the state machine still
// allows it; a reason is required and stored on the order.
func (s *Service) CancelOrder(ctx context.Context, profileID, orderID int64, reason string) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("service.CancelOrder: %w", err)
	}
	if !order.IsParticipant(profileID) {
		return nil, models.ErrNotParticipant
	}

	updated, err := s.repo.ChangeStatus(ctx, orderID, models.OrderStatusCancelled, StatusChange{Reason: reason})
	if err != nil {
		return nil, fmt.Errorf("service.CancelOrder: %w", err)
	}

	s.publish(ctx, notify.EventCancelled, updated)
	return updated, nil
}

// GetReceipt lazily materializes the receipt snapshot the first time a
// participant asks for it on a non-pending order, then returns the stored
// bytes verbatim forever after.
func (s *Service) GetReceipt(ctx context.Context, profileID, orderID int64) (*models.Receipt, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("service.GetReceipt: %w", err)
	}
	if !order.IsParticipant(profileID) {
		return nil, models.ErrForbidden
	}
	if order.Status == models.OrderStatusPending {
		return nil, models.ErrReceiptUnavailable
	}
	if order.ReceiptData != nil && order.ReceiptNumber != nil {
		return &models.Receipt{ReceiptNumber: *order.ReceiptNumber, ReceiptData: order.ReceiptData}, nil
	}

	product, err := s.catalog.FindByID(ctx, order.ProductID)
	if err != nil {
		return nil, fmt.Errorf("service.GetReceipt.Product: %w", err)
	}
	seller, err := s.profiles.FindByID(ctx, order.SellerProfileID)
	if err != nil {
		return nil, fmt.Errorf("service.GetReceipt.Seller: %w", err)
	}
	buyer, err := s.profiles.FindByID(ctx, order.BuyerProfileID)
	if err != nil {
		return nil, fmt.Errorf("service.GetReceipt.Buyer: %w", err)
	}

	number, data, err := buildReceipt(order, product, seller, buyer, time.Now())
	if err != nil {
		return nil, fmt.Errorf("service.GetReceipt: %w", err)
	}

	won, err := s.repo.SaveReceiptIfAbsent(ctx, orderID, number, data)
	if err != nil {
		return nil, fmt.Errorf("service.GetReceipt: %w", err)
	}
	if !won {
		// A concurrent request persisted the snapshot first; serve theirs.
		stored, err := s.repo.FindByID(ctx, orderID)
		if err != nil {
			return nil, fmt.Errorf("service.GetReceipt.Reload: %w", err)
		}
		if stored.ReceiptData == nil || stored.ReceiptNumber == nil {
			return nil, fmt.Errorf("service.GetReceipt: receipt still absent after conditional save on order %d", orderID)
		}
		return &models.Receipt{ReceiptNumber: *stored.ReceiptNumber, ReceiptData: stored.ReceiptData}, nil
	}
	return &models.Receipt{ReceiptNumber: number, ReceiptData: data}, nil
}

// SubmitReviews records a participant's ratings and triggers the
// delivered -> completed transition once both sides have reviewed. The
// repository serializes racing submissions on the order row and completes
// with an atomic conditional update, so exactly one of two concurrent
// requests observes the completion and emits the event.
func (s *Service) SubmitReviews(ctx context.Context, profileID, orderID int64, req models.SubmitReviewsRequest) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("service.SubmitReviews: %w", err)
	}
	if !order.IsParticipant(profileID) {
		return nil, models.ErrNotParticipant
	}
	if order.Status != models.OrderStatusDelivered && order.Status != models.OrderStatusCompleted {
		return nil, models.ErrReviewNotAllowed
	}

	rows, err := buildReviewRows(order, profileID, req)
	if err != nil {
		return nil, err
	}

	updated, completedNow, err := s.repo.SubmitReviews(ctx, orderID, rows)
	if err != nil {
		return nil, fmt.Errorf("service.SubmitReviews: %w", err)
	}

	if completedNow {
		s.publish(ctx, notify.EventCompleted, updated)
	}
	return updated, nil
}

// buildReviewRows maps the caller's role to the ledger rows it must write:
// the buyer rates the product and the seller, the seller rates the buyer.
// ProductID is carried on every row for analytics joins; the Target
// discriminant alone identifies the rated party.
func buildReviewRows(order *models.Order, profileID int64, req models.SubmitReviewsRequest) ([]*models.Review, error) {
	productID := order.ProductID

	switch profileID {
	case order.BuyerProfileID:
		if req.ProductRating == nil || req.SellerRating == nil {
			return nil, models.ErrRatingRequired
		}
		return []*models.Review{
			{
				OrderID:           order.ID,
				ReviewerProfileID: profileID,
				Target:            models.ReviewTargetProduct,
				ProductID:         &productID,
				RanchID:           order.RanchID,
				Rating:            *req.ProductRating,
				Comment:           req.ProductComment,
			},
			{
				OrderID:           order.ID,
				ReviewerProfileID: profileID,
				Target:            models.ReviewTargetCounterparty,
				ProductID:         &productID,
				RanchID:           order.RanchID,
				Rating:            *req.SellerRating,
				Comment:           req.SellerComment,
			},
		}, nil
	case order.SellerProfileID:
		if req.BuyerRating == nil {
			return nil, models.ErrRatingRequired
		}
		return []*models.Review{
			{
				OrderID:           order.ID,
				ReviewerProfileID: profileID,
				Target:            models.ReviewTargetCounterparty,
				ProductID:         &productID,
				RanchID:           order.RanchID,
				Rating:            *req.BuyerRating,
				Comment:           req.BuyerComment,
			},
		}, nil
	}
	return nil, models.ErrNotParticipant
}

// ListReviews returns the order's review ledger to a participant.
func (s *Service) ListReviews(ctx context.Context, profileID, orderID int64) ([]*models.Review, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("service.ListReviews: %w", err)
	}
	if !order.IsParticipant(profileID) {
		return nil, models.ErrForbidden
	}
	reviews, err := s.repo.ListReviews(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("service.ListReviews: %w", err)
	}
	return reviews, nil
}
