package models

import "time"

// ReviewTarget says what a review row rates. The source of the rating is
// always a participant of the order; the target is either the traded product
// or the other participant.
type ReviewTarget string

const (
	ReviewTargetProduct      ReviewTarget = "product"
	ReviewTargetCounterparty ReviewTarget = "counterparty"
)

// Review is one rating row in the append-only review ledger. Rows are
// immutable once inserted; (order_id, reviewer_profile_id, target) is unique.
// ProductID is stored on every row for analytics joins but carries no
// semantics; Target is what identifies the rated party.
type Review struct {
	ID                 int64        `json:"id"`
	OrderID            int64        `json:"order_id"`
	ReviewerProfileID  int64        `json:"reviewer_profile_id"`
	Target             ReviewTarget `json:"target"`
	ProductID          *int64       `json:"product_id,omitempty"`
	RanchID            int64        `json:"ranch_id"`
	Rating             int          `json:"rating"`
	Comment            *string      `json:"comment,omitempty"`
	IsVerifiedPurchase bool         `json:"is_verified_purchase"`
	IsApproved         bool         `json:"is_approved"`
	CreatedAt          time.Time    `json:"created_at"`
}

// SubmitReviewsRequest carries a participant's ratings for an order. The
// buyer must send product_rating and seller_rating; the seller must send
// buyer_rating. The service decides which fields apply from the caller's
// role on the order.
type SubmitReviewsRequest struct {
	ProductRating  *int    `json:"product_rating,omitempty" validate:"omitempty,min=1,max=5"`
	ProductComment *string `json:"product_comment,omitempty"`
	SellerRating   *int    `json:"seller_rating,omitempty" validate:"omitempty,min=1,max=5"`
	SellerComment  *string `json:"seller_comment,omitempty"`
	BuyerRating    *int    `json:"buyer_rating,omitempty" validate:"omitempty,min=1,max=5"`
	BuyerComment   *string `json:"buyer_comment,omitempty"`
}
