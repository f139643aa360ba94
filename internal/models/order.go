package models

import (
	"encoding/json"
	"math"
	"time"
)

// DeliveryMethod says who moves the animals.
type DeliveryMethod string

const (
	DeliveryBuyerTransport   DeliveryMethod = "buyer_transport"
	DeliverySellerTransport  DeliveryMethod = "seller_transport"
	DeliveryExternal         DeliveryMethod = "external_delivery"
	DeliveryCorralX          DeliveryMethod = "corralx_delivery"
)

// PickupLocation says where the buyer collects the animals.
type PickupLocation string

const (
	PickupRanch PickupLocation = "ranch"
	PickupOther PickupLocation = "other"
)

// Order is the order aggregate. It is created once by a buyer and afterwards
// mutated only through the guarded transition methods of the orders service;
// total_price is always unit_price * quantity.
type Order struct {
	ID              int64  `json:"id"`
	ProductID       int64  `json:"product_id"`
	BuyerProfileID  int64  `json:"buyer_profile_id"`
	SellerProfileID int64  `json:"seller_profile_id"`
	RanchID         int64  `json:"ranch_id"`
	ConversationID  *int64 `json:"conversation_id,omitempty"`

	Quantity   int     `json:"quantity"`
	UnitPrice  float64 `json:"unit_price"`
	TotalPrice float64 `json:"total_price"`
	Currency   string  `json:"currency"`

	Status OrderStatus `json:"status"`

	DeliveryMethod       DeliveryMethod `json:"delivery_method"`
	PickupLocation       PickupLocation `json:"pickup_location"`
	DeliveryAddress      *string        `json:"delivery_address,omitempty"`
	DeliveryNotes        *string        `json:"delivery_notes,omitempty"`
	DeliveryCost         float64        `json:"delivery_cost"`
	DeliveryCostCurrency string         `json:"delivery_cost_currency"`
	DeliveryProvider     *string        `json:"delivery_provider,omitempty"`
	TrackingNumber       *string        `json:"tracking_number,omitempty"`
	ExpectedPickupDate   *time.Time     `json:"expected_pickup_date,omitempty"`
	ActualPickupDate     *time.Time     `json:"actual_pickup_date,omitempty"`

	BuyerNotes         *string `json:"buyer_notes,omitempty"`
	SellerNotes        *string `json:"seller_notes,omitempty"`
	RejectionReason    *string `json:"rejection_reason,omitempty"`
	CancellationReason *string `json:"cancellation_reason,omitempty"`

	ReceiptNumber *string         `json:"receipt_number,omitempty"`
	ReceiptData   json.RawMessage `json:"receipt_data,omitempty"`

	AcceptedAt  *time.Time `json:"accepted_at,omitempty"`
	RejectedAt  *time.Time `json:"rejected_at,omitempty"`
	DeliveredAt *time.Time `json:"delivered_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsParticipant reports whether profileID is the buyer or the seller.
func (o *Order) IsParticipant(profileID int64) bool {
	return o.BuyerProfileID == profileID || o.SellerProfileID == profileID
}

// Counterparty returns the other participant's profile id.
func (o *Order) Counterparty(profileID int64) int64 {
	if o.BuyerProfileID == profileID {
		return o.SellerProfileID
	}
	return o.BuyerProfileID
}

// RoundMoney rounds a monetary amount to cents. All amounts are stored as
// NUMERIC(_,2); rounding before the write keeps total_price consistent with
// the stored unit_price instead of letting the column casts round them
// independently.
func RoundMoney(v float64) float64 {
	return math.Round(v*100) / 100
}

// Recalculate rounds the monetary inputs to cents and keeps the derived
// total in sync with its factors.
func (o *Order) Recalculate() {
	o.UnitPrice = RoundMoney(o.UnitPrice)
	o.DeliveryCost = RoundMoney(o.DeliveryCost)
	o.TotalPrice = RoundMoney(o.UnitPrice * float64(o.Quantity))
}

// CreateOrderRequest is the buyer's purchase intent.
type CreateOrderRequest struct {
	ProductID            int64          `json:"product_id" validate:"required,gt=0"`
	Quantity             int            `json:"quantity" validate:"required,gt=0"`
	UnitPrice            *float64       `json:"unit_price,omitempty" validate:"omitempty,gt=0"`
	Currency             string         `json:"currency,omitempty" validate:"omitempty,iso4217"`
	DeliveryMethod       DeliveryMethod `json:"delivery_method" validate:"required,oneof=buyer_transport seller_transport external_delivery corralx_delivery"`
	PickupLocation       PickupLocation `json:"pickup_location" validate:"required,oneof=ranch other"`
	DeliveryAddress      *string        `json:"delivery_address,omitempty"`
	DeliveryNotes        *string        `json:"delivery_notes,omitempty"`
	DeliveryCost         float64        `json:"delivery_cost,omitempty" validate:"omitempty,gte=0"`
	DeliveryCostCurrency string         `json:"delivery_cost_currency,omitempty" validate:"omitempty,iso4217"`
	ExpectedPickupDate   *time.Time     `json:"expected_pickup_date,omitempty"`
	BuyerNotes           *string        `json:"buyer_notes,omitempty"`
	ConversationID       *int64         `json:"conversation_id,omitempty" validate:"omitempty,gt=0"`
}

// AmendOrderRequest carries the seller's amendments to a pending order.
// Only non-nil fields are applied.
type AmendOrderRequest struct {
	Quantity             *int            `json:"quantity,omitempty" validate:"omitempty,gt=0"`
	UnitPrice            *float64        `json:"unit_price,omitempty" validate:"omitempty,gt=0"`
	DeliveryMethod       *DeliveryMethod `json:"delivery_method,omitempty" validate:"omitempty,oneof=buyer_transport seller_transport external_delivery corralx_delivery"`
	PickupLocation       *PickupLocation `json:"pickup_location,omitempty" validate:"omitempty,oneof=ranch other"`
	DeliveryAddress      *string         `json:"delivery_address,omitempty"`
	DeliveryNotes        *string         `json:"delivery_notes,omitempty"`
	DeliveryCost         *float64        `json:"delivery_cost,omitempty" validate:"omitempty,gte=0"`
	DeliveryCostCurrency *string         `json:"delivery_cost_currency,omitempty" validate:"omitempty,iso4217"`
	DeliveryProvider     *string         `json:"delivery_provider,omitempty"`
	TrackingNumber       *string         `json:"tracking_number,omitempty"`
	ExpectedPickupDate   *time.Time      `json:"expected_pickup_date,omitempty"`
	SellerNotes          *string         `json:"seller_notes,omitempty"`
}

// RejectOrderRequest requires the seller to say why.
type RejectOrderRequest struct {
	Reason string `json:"reason" validate:"required,min=2"`
}

// CancelOrderRequest requires the cancelling participant to say why.
type CancelOrderRequest struct {
	Reason string `json:"reason" validate:"required,min=2"`
}

// DeliverOrderRequest lets the buyer record when pickup actually happened;
// it defaults to now.
type DeliverOrderRequest struct {
	ActualPickupDate *time.Time `json:"actual_pickup_date,omitempty"`
}

// Receipt is the response shape of the receipt endpoint: the stored number
// plus the snapshot bytes exactly as persisted.
type Receipt struct {
	ReceiptNumber string          `json:"receipt_number"`
	ReceiptData   json.RawMessage `json:"receipt_data"`
}
