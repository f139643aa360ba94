package orders_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"corralx-backend/internal/models"
	"corralx-backend/internal/modules/orders"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- fakes ---

// fakeOrderRepo mirrors the guard semantics of the real repository: state
// checks run against the stored row, completion is a conditional update,
// and review uniqueness is enforced on (order, reviewer, target).
type fakeOrderRepo struct {
	mu           sync.Mutex
	nextID       int64
	ordersByID   map[int64]*models.Order
	reviews      []*models.Review
	availability map[int64]int
}

func newFakeOrderRepo(availability map[int64]int) *fakeOrderRepo {
	return &fakeOrderRepo{
		nextID:       1,
		ordersByID:   make(map[int64]*models.Order),
		availability: availability,
	}
}

func cloneOrder(o *models.Order) *models.Order {
	cp := *o
	if o.ReceiptData != nil {
		cp.ReceiptData = append([]byte(nil), o.ReceiptData...)
	}
	return &cp
}

func (r *fakeOrderRepo) Create(_ context.Context, order *models.Order) (*models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if order.Quantity > r.availability[order.ProductID] {
		return nil, models.ErrInsufficientStock
	}
	cp := cloneOrder(order)
	cp.ID = r.nextID
	r.nextID++
	cp.Status = models.OrderStatusPending
	cp.CreatedAt = time.Now()
	cp.UpdatedAt = cp.CreatedAt
	r.ordersByID[cp.ID] = cp
	return cloneOrder(cp), nil
}

func (r *fakeOrderRepo) FindByID(_ context.Context, orderID int64) (*models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.ordersByID[orderID]
	if !ok {
		return nil, models.ErrNotFound
	}
	return cloneOrder(o), nil
}

func (r *fakeOrderRepo) ListByProfile(_ context.Context, profileID int64, _, _ int) ([]*models.Order, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var result []*models.Order
	for _, o := range r.ordersByID {
		if o.BuyerProfileID == profileID || o.SellerProfileID == profileID {
			result = append(result, cloneOrder(o))
		}
	}
	return result, len(result), nil
}

func (r *fakeOrderRepo) Amend(_ context.Context, orderID int64, req models.AmendOrderRequest) (*models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.ordersByID[orderID]
	if !ok {
		return nil, models.ErrNotFound
	}
	if o.Status != models.OrderStatusPending {
		return nil, models.ErrOrderNotPending
	}
	if req.Quantity != nil {
		if *req.Quantity > r.availability[o.ProductID] {
			return nil, models.ErrInsufficientStock
		}
		o.Quantity = *req.Quantity
	}
	if req.UnitPrice != nil {
		o.UnitPrice = *req.UnitPrice
	}
	o.Recalculate()
	if req.SellerNotes != nil {
		o.SellerNotes = req.SellerNotes
	}
	o.UpdatedAt = time.Now()
	return cloneOrder(o), nil
}

func (r *fakeOrderRepo) ChangeStatus(_ context.Context, orderID int64, to models.OrderStatus, change orders.StatusChange) (*models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.ordersByID[orderID]
	if !ok {
		return nil, models.ErrNotFound
	}
	if !o.Status.CanTransitionTo(to) {
		return nil, models.ErrInvalidTransition
	}
	now := time.Now()
	o.Status = to
	o.UpdatedAt = now
	switch to {
	case models.OrderStatusAccepted:
		o.AcceptedAt = &now
	case models.OrderStatusRejected:
		o.RejectedAt = &now
		reason := change.Reason
		o.RejectionReason = &reason
	case models.OrderStatusCancelled:
		o.CancelledAt = &now
		reason := change.Reason
		o.CancellationReason = &reason
	case models.OrderStatusDelivered:
		o.DeliveredAt = &now
		pickup := change.ActualPickupDate
		if pickup == nil {
			pickup = &now
		}
		o.ActualPickupDate = pickup
	case models.OrderStatusCompleted:
		o.CompletedAt = &now
	}
	return cloneOrder(o), nil
}

func (r *fakeOrderRepo) SaveReceiptIfAbsent(_ context.Context, orderID int64, receiptNumber string, receiptData []byte) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.ordersByID[orderID]
	if !ok {
		return false, models.ErrNotFound
	}
	if o.ReceiptData != nil {
		return false, nil
	}
	num := receiptNumber
	o.ReceiptNumber = &num
	o.ReceiptData = append([]byte(nil), receiptData...)
	return true, nil
}

func (r *fakeOrderRepo) SubmitReviews(_ context.Context, orderID int64, rows []*models.Review) (*models.Order, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(rows) == 0 {
		return nil, false, models.ErrRatingRequired
	}
	o, ok := r.ordersByID[orderID]
	if !ok {
		return nil, false, models.ErrNotFound
	}
	if o.Status != models.OrderStatusDelivered && o.Status != models.OrderStatusCompleted {
		return nil, false, models.ErrReviewNotAllowed
	}

	reviewerID := rows[0].ReviewerProfileID
	for _, existing := range r.reviews {
		if existing.OrderID == orderID && existing.ReviewerProfileID == reviewerID {
			return nil, false, models.ErrReviewAlreadySubmitted
		}
	}
	for _, row := range rows {
		for _, existing := range r.reviews {
			if existing.OrderID == row.OrderID &&
				existing.ReviewerProfileID == row.ReviewerProfileID &&
				existing.Target == row.Target {
				return nil, false, models.ErrReviewAlreadySubmitted
			}
		}
		cp := *row
		r.reviews = append(r.reviews, &cp)
	}

	reviewers := map[int64]bool{}
	for _, existing := range r.reviews {
		if existing.OrderID == orderID &&
			(existing.ReviewerProfileID == o.BuyerProfileID || existing.ReviewerProfileID == o.SellerProfileID) {
			reviewers[existing.ReviewerProfileID] = true
		}
	}

	completed := false
	if len(reviewers) == 2 && o.Status == models.OrderStatusDelivered {
		now := time.Now()
		o.Status = models.OrderStatusCompleted
		o.CompletedAt = &now
		completed = true
	}
	return cloneOrder(o), completed, nil
}

func (r *fakeOrderRepo) ListReviews(_ context.Context, orderID int64) ([]*models.Review, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var result []*models.Review
	for _, review := range r.reviews {
		if review.OrderID == orderID {
			cp := *review
			result = append(result, &cp)
		}
	}
	return result, nil
}

type fakeCatalogRepo struct {
	mu       sync.Mutex
	products map[int64]*models.Product
}

func (r *fakeCatalogRepo) FindByID(_ context.Context, productID int64) (*models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[productID]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *fakeCatalogRepo) QuantityAvailable(_ context.Context, productID int64) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[productID]
	if !ok {
		return 0, models.ErrNotFound
	}
	return p.QuantityAvailable, nil
}

type fakeProfileRepo struct {
	profiles map[int64]*models.Profile
}

func (r *fakeProfileRepo) FindByID(_ context.Context, profileID int64) (*models.Profile, error) {
	p, ok := r.profiles[profileID]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *fakeProfileRepo) FindByUserID(_ context.Context, userID string) (*models.Profile, error) {
	for _, p := range r.profiles {
		if p.UserID == userID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, models.ErrNotFound
}

// recordingPublisher captures published lifecycle events.
type recordingPublisher struct {
	mu     sync.Mutex
	events []string
}

func (p *recordingPublisher) Publish(_ context.Context, eventName string, order *models.Order) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, fmt.Sprintf("%s:%d", eventName, order.ID))
	return nil
}

func (p *recordingPublisher) count(eventName string, orderID int64) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, e := range p.events {
		if e == fmt.Sprintf("%s:%d", eventName, orderID) {
			n++
		}
	}
	return n
}

// --- test fixture ---

const (
	buyerID   = int64(100)
	sellerID  = int64(200)
	otherID   = int64(300)
	productID = int64(10)
	ranchID   = int64(20)
)

type fixture struct {
	svc     orders.ServiceInterface
	repo    *fakeOrderRepo
	catalog *fakeCatalogRepo
	pub     *recordingPublisher
}

func newFixture() *fixture {
	legalName := "Rancho El Encinal S.A. de C.V."
	catalogRepo := &fakeCatalogRepo{products: map[int64]*models.Product{
		productID: {
			ID:                productID,
			RanchID:           ranchID,
			SellerProfileID:   sellerID,
			Name:              "Becerros Angus",
			Description:       "Lote de becerros Angus, 12 meses",
			UnitPrice:         300,
			Currency:          "MXN",
			QuantityAvailable: 8,
		},
	}}
	profileRepo := &fakeProfileRepo{profiles: map[int64]*models.Profile{
		buyerID:  {ID: buyerID, UserID: "u-buyer", DisplayName: "Juan Comprador", Email: "buyer@example.com"},
		sellerID: {ID: sellerID, UserID: "u-seller", DisplayName: "Rancho El Encinal", LegalName: &legalName, Email: "seller@example.com", IsSeller: true},
		otherID:  {ID: otherID, UserID: "u-other", DisplayName: "Tercero", Email: "other@example.com"},
	}}
	repo := newFakeOrderRepo(map[int64]int{productID: 8})
	pub := &recordingPublisher{}

	return &fixture{
		svc:     orders.NewService(repo, catalogRepo, profileRepo, pub),
		repo:    repo,
		catalog: catalogRepo,
		pub:     pub,
	}
}

func (f *fixture) createOrder(t *testing.T, quantity int) *models.Order {
	t.Helper()
	order, err := f.svc.CreateOrder(context.Background(), buyerID, models.CreateOrderRequest{
		ProductID:      productID,
		Quantity:       quantity,
		DeliveryMethod: models.DeliveryBuyerTransport,
		PickupLocation: models.PickupRanch,
	})
	require.NoError(t, err)
	return order
}

func (f *fixture) deliveredOrder(t *testing.T) *models.Order {
	t.Helper()
	ctx := context.Background()
	order := f.createOrder(t, 5)
	_, err := f.svc.AcceptOrder(ctx, sellerID, order.ID)
	require.NoError(t, err)
	delivered, err := f.svc.DeliverOrder(ctx, buyerID, order.ID, models.DeliverOrderRequest{})
	require.NoError(t, err)
	return delivered
}

// --- creation ---

func TestCreateOrder(t *testing.T) {
	f := newFixture()
	order := f.createOrder(t, 5)

	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.Equal(t, 300.0, order.UnitPrice)
	assert.Equal(t, 1500.0, order.TotalPrice)
	assert.Equal(t, "MXN", order.Currency)
	assert.Equal(t, sellerID, order.SellerProfileID)
	assert.Equal(t, ranchID, order.RanchID)
	assert.Equal(t, 1, f.pub.count("created", order.ID))
}

func TestCreateOrderWithPriceOverride(t *testing.T) {
	f := newFixture()
	override := 450.0
	order, err := f.svc.CreateOrder(context.Background(), buyerID, models.CreateOrderRequest{
		ProductID:      productID,
		Quantity:       2,
		UnitPrice:      &override,
		DeliveryMethod: models.DeliverySellerTransport,
		PickupLocation: models.PickupOther,
	})
	require.NoError(t, err)
	assert.Equal(t, 900.0, order.TotalPrice)
}

func TestCreateOrderRoundsMoneyToCents(t *testing.T) {
	f := newFixture()
	override := 333.333
	order, err := f.svc.CreateOrder(context.Background(), buyerID, models.CreateOrderRequest{
		ProductID:      productID,
		Quantity:       5,
		UnitPrice:      &override,
		DeliveryCost:   12.999,
		DeliveryMethod: models.DeliveryBuyerTransport,
		PickupLocation: models.PickupRanch,
	})
	require.NoError(t, err)

	assert.Equal(t, 333.33, order.UnitPrice)
	assert.Equal(t, 1666.65, order.TotalPrice)
	assert.Equal(t, 13.0, order.DeliveryCost)
}

func TestCreateOrderSelfPurchase(t *testing.T) {
	f := newFixture()
	_, err := f.svc.CreateOrder(context.Background(), sellerID, models.CreateOrderRequest{
		ProductID:      productID,
		Quantity:       1,
		DeliveryMethod: models.DeliveryBuyerTransport,
		PickupLocation: models.PickupRanch,
	})
	assert.ErrorIs(t, err, models.ErrSelfPurchase)
}

func TestCreateOrderInsufficientStock(t *testing.T) {
	f := newFixture()
	_, err := f.svc.CreateOrder(context.Background(), buyerID, models.CreateOrderRequest{
		ProductID:      productID,
		Quantity:       50,
		DeliveryMethod: models.DeliveryBuyerTransport,
		PickupLocation: models.PickupRanch,
	})
	assert.ErrorIs(t, err, models.ErrInsufficientStock)
}

// --- amendment ---

func TestAmendOrderRecomputesTotal(t *testing.T) {
	f := newFixture()
	order := f.createOrder(t, 5)

	newPrice := 350.0
	updated, err := f.svc.AmendOrder(context.Background(), sellerID, order.ID, models.AmendOrderRequest{UnitPrice: &newPrice})
	require.NoError(t, err)

	assert.Equal(t, 350.0, updated.UnitPrice)
	assert.Equal(t, 1750.0, updated.TotalPrice)
	assert.Equal(t, 1, f.pub.count("updated", order.ID))
}

func TestAmendOrderRoundsMoneyToCents(t *testing.T) {
	f := newFixture()
	order := f.createOrder(t, 5)

	newPrice := 123.456
	updated, err := f.svc.AmendOrder(context.Background(), sellerID, order.ID, models.AmendOrderRequest{UnitPrice: &newPrice})
	require.NoError(t, err)

	assert.Equal(t, 123.46, updated.UnitPrice)
	assert.Equal(t, 617.3, updated.TotalPrice)
}

func TestAmendOrderBuyerForbidden(t *testing.T) {
	f := newFixture()
	order := f.createOrder(t, 5)

	newPrice := 350.0
	_, err := f.svc.AmendOrder(context.Background(), buyerID, order.ID, models.AmendOrderRequest{UnitPrice: &newPrice})
	assert.ErrorIs(t, err, models.ErrForbidden)
}

func TestAmendOrderNotPending(t *testing.T) {
	f := newFixture()
	order := f.createOrder(t, 5)
	_, err := f.svc.AcceptOrder(context.Background(), sellerID, order.ID)
	require.NoError(t, err)

	newPrice := 350.0
	_, err = f.svc.AmendOrder(context.Background(), sellerID, order.ID, models.AmendOrderRequest{UnitPrice: &newPrice})
	assert.ErrorIs(t, err, models.ErrOrderNotPending)
}

func TestAmendOrderQuantityRevalidated(t *testing.T) {
	f := newFixture()
	order := f.createOrder(t, 5)

	tooMany := 9
	_, err := f.svc.AmendOrder(context.Background(), sellerID, order.ID, models.AmendOrderRequest{Quantity: &tooMany})
	assert.ErrorIs(t, err, models.ErrInsufficientStock)
}

// --- transitions ---

func TestRejectOrderStoresReason(t *testing.T) {
	f := newFixture()
	order := f.createOrder(t, 5)

	rejected, err := f.svc.RejectOrder(context.Background(), sellerID, order.ID, "out of stock")
	require.NoError(t, err)

	assert.Equal(t, models.OrderStatusRejected, rejected.Status)
	require.NotNil(t, rejected.RejectedAt)
	require.NotNil(t, rejected.RejectionReason)
	assert.Equal(t, "out of stock", *rejected.RejectionReason)
	assert.Equal(t, 1, f.pub.count("rejected", order.ID))
}

func TestAcceptOrderSellerOnly(t *testing.T) {
	f := newFixture()
	order := f.createOrder(t, 5)

	_, err := f.svc.AcceptOrder(context.Background(), buyerID, order.ID)
	assert.ErrorIs(t, err, models.ErrForbidden)

	accepted, err := f.svc.AcceptOrder(context.Background(), sellerID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusAccepted, accepted.Status)
	require.NotNil(t, accepted.AcceptedAt)
}

func TestDeliverOrderBuyerOnly(t *testing.T) {
	f := newFixture()
	order := f.createOrder(t, 5)
	_, err := f.svc.AcceptOrder(context.Background(), sellerID, order.ID)
	require.NoError(t, err)

	_, err = f.svc.DeliverOrder(context.Background(), sellerID, order.ID, models.DeliverOrderRequest{})
	assert.ErrorIs(t, err, models.ErrForbidden)

	delivered, err := f.svc.DeliverOrder(context.Background(), buyerID, order.ID, models.DeliverOrderRequest{})
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusDelivered, delivered.Status)
	require.NotNil(t, delivered.DeliveredAt)
	require.NotNil(t, delivered.ActualPickupDate)
}

func TestTransitionFromIllegalState(t *testing.T) {
	f := newFixture()
	order := f.createOrder(t, 5)

	_, err := f.svc.AcceptOrder(context.Background(), sellerID, order.ID)
	require.NoError(t, err)

	// accepted -> accepted has no edge
	_, err = f.svc.AcceptOrder(context.Background(), sellerID, order.ID)
	assert.ErrorIs(t, err, models.ErrInvalidTransition)

	// accepted -> rejected has no edge either
	_, err = f.svc.RejectOrder(context.Background(), sellerID, order.ID, "too late")
	assert.ErrorIs(t, err, models.ErrInvalidTransition)
}

func TestCancelOrderEitherParticipant(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	order := f.createOrder(t, 5)
	cancelled, err := f.svc.CancelOrder(ctx, buyerID, order.ID, "changed my mind")
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCancelled, cancelled.Status)
	require.NotNil(t, cancelled.CancellationReason)
	assert.Equal(t, "changed my mind", *cancelled.CancellationReason)

	second := f.createOrder(t, 2)
	_, err = f.svc.AcceptOrder(ctx, sellerID, second.ID)
	require.NoError(t, err)
	_, err = f.svc.CancelOrder(ctx, sellerID, second.ID, "animals fell ill")
	require.NoError(t, err)

	third := f.createOrder(t, 1)
	_, err = f.svc.CancelOrder(ctx, otherID, third.ID, "not mine")
	assert.ErrorIs(t, err, models.ErrNotParticipant)
}

// --- access control ---

func TestGetOrderParticipantOnly(t *testing.T) {
	f := newFixture()
	order := f.createOrder(t, 5)

	_, err := f.svc.GetOrder(context.Background(), otherID, order.ID)
	assert.ErrorIs(t, err, models.ErrForbidden)

	got, err := f.svc.GetOrder(context.Background(), sellerID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, got.ID)
}

// --- receipts ---

func TestReceiptPendingUnavailable(t *testing.T) {
	f := newFixture()
	order := f.createOrder(t, 5)

	_, err := f.svc.GetReceipt(context.Background(), buyerID, order.ID)
	assert.ErrorIs(t, err, models.ErrReceiptUnavailable)
}

func TestReceiptGeneratedOnceAndStable(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	order := f.createOrder(t, 5)
	_, err := f.svc.AcceptOrder(ctx, sellerID, order.ID)
	require.NoError(t, err)

	first, err := f.svc.GetReceipt(ctx, buyerID, order.ID)
	require.NoError(t, err)
	assert.Regexp(t, `^CRX-\d{8}-\d{8}$`, first.ReceiptNumber)
	assert.Contains(t, string(first.ReceiptData), "Becerros Angus")

	// Editing the product afterwards must not leak into the snapshot.
	f.catalog.products[productID].Name = "RENAMED"
	f.catalog.products[productID].UnitPrice = 9999

	second, err := f.svc.GetReceipt(ctx, sellerID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ReceiptNumber, second.ReceiptNumber)
	assert.Equal(t, first.ReceiptData, second.ReceiptData)
}

// --- reviews & completion ---

func TestReviewFlowCompletesOrder(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	order := f.deliveredOrder(t)

	five, four := 5, 4
	afterBuyer, err := f.svc.SubmitReviews(ctx, buyerID, order.ID, models.SubmitReviewsRequest{
		ProductRating: &five,
		SellerRating:  &four,
	})
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusDelivered, afterBuyer.Status)

	reviews, err := f.svc.ListReviews(ctx, buyerID, order.ID)
	require.NoError(t, err)
	assert.Len(t, reviews, 2)

	afterSeller, err := f.svc.SubmitReviews(ctx, sellerID, order.ID, models.SubmitReviewsRequest{
		BuyerRating: &five,
	})
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCompleted, afterSeller.Status)
	require.NotNil(t, afterSeller.CompletedAt)

	reviews, err = f.svc.ListReviews(ctx, sellerID, order.ID)
	require.NoError(t, err)
	assert.Len(t, reviews, 3)

	assert.Equal(t, 1, f.pub.count("completed", order.ID))
}

func TestReviewTargets(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	order := f.deliveredOrder(t)

	five, four := 5, 4
	_, err := f.svc.SubmitReviews(ctx, buyerID, order.ID, models.SubmitReviewsRequest{
		ProductRating: &five,
		SellerRating:  &four,
	})
	require.NoError(t, err)
	_, err = f.svc.SubmitReviews(ctx, sellerID, order.ID, models.SubmitReviewsRequest{
		BuyerRating: &five,
	})
	require.NoError(t, err)

	reviews, err := f.svc.ListReviews(ctx, buyerID, order.ID)
	require.NoError(t, err)

	targets := map[string]int{}
	for _, review := range reviews {
		targets[fmt.Sprintf("%d/%s", review.ReviewerProfileID, review.Target)]++
		require.NotNil(t, review.ProductID)
		assert.Equal(t, productID, *review.ProductID)
		assert.Equal(t, ranchID, review.RanchID)
	}
	assert.Equal(t, 1, targets[fmt.Sprintf("%d/product", buyerID)])
	assert.Equal(t, 1, targets[fmt.Sprintf("%d/counterparty", buyerID)])
	assert.Equal(t, 1, targets[fmt.Sprintf("%d/counterparty", sellerID)])
}

func TestReviewDuplicateRejected(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	order := f.deliveredOrder(t)

	five, four := 5, 4
	req := models.SubmitReviewsRequest{ProductRating: &five, SellerRating: &four}
	_, err := f.svc.SubmitReviews(ctx, buyerID, order.ID, req)
	require.NoError(t, err)

	_, err = f.svc.SubmitReviews(ctx, buyerID, order.ID, req)
	assert.ErrorIs(t, err, models.ErrReviewAlreadySubmitted)
}

func TestReviewMissingRating(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	order := f.deliveredOrder(t)

	five := 5
	_, err := f.svc.SubmitReviews(ctx, buyerID, order.ID, models.SubmitReviewsRequest{ProductRating: &five})
	assert.ErrorIs(t, err, models.ErrRatingRequired)

	_, err = f.svc.SubmitReviews(ctx, sellerID, order.ID, models.SubmitReviewsRequest{SellerRating: &five})
	assert.ErrorIs(t, err, models.ErrRatingRequired)
}

func TestReviewNonParticipantRefused(t *testing.T) {
	f := newFixture()
	order := f.deliveredOrder(t)

	five := 5
	_, err := f.svc.SubmitReviews(context.Background(), otherID, order.ID, models.SubmitReviewsRequest{BuyerRating: &five})
	assert.ErrorIs(t, err, models.ErrNotParticipant)
}

func TestReviewBeforeDelivery(t *testing.T) {
	f := newFixture()
	order := f.createOrder(t, 5)

	five, four := 5, 4
	_, err := f.svc.SubmitReviews(context.Background(), buyerID, order.ID, models.SubmitReviewsRequest{
		ProductRating: &five,
		SellerRating:  &four,
	})
	assert.ErrorIs(t, err, models.ErrReviewNotAllowed)
}

// TestCompletionFiresOnce races the two submissions: whatever the
// interleaving, exactly one of them observes the completion and exactly one
// completed event is published.
func TestCompletionFiresOnce(t *testing.T) {
	f := newFixture()
	order := f.deliveredOrder(t)

	five, four := 5, 4
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, _ = f.svc.SubmitReviews(context.Background(), buyerID, order.ID, models.SubmitReviewsRequest{
			ProductRating: &five,
			SellerRating:  &four,
		})
	}()
	go func() {
		defer wg.Done()
		_, _ = f.svc.SubmitReviews(context.Background(), sellerID, order.ID, models.SubmitReviewsRequest{
			BuyerRating: &five,
		})
	}()
	wg.Wait()

	final, err := f.svc.GetOrder(context.Background(), buyerID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCompleted, final.Status)
	require.NotNil(t, final.CompletedAt)
	assert.Equal(t, 1, f.pub.count("completed", order.ID))
}
