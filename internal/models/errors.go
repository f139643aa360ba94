package models

import "errors"

var (
	// ErrNotFound is returned when a requested resource is not found.
	ErrNotFound = errors.New("resource not found")

	// ErrForbidden is returned when the caller is a valid profile but not
	// allowed to perform the action (wrong role, or not a participant).
	ErrForbidden = errors.New("not allowed to perform this action")

	// ErrNotParticipant is returned when the caller is neither the buyer
	// nor the seller of the order.
	ErrNotParticipant = errors.New("caller is not a participant of this order")

	// ErrSelfPurchase is returned when a seller tries to order their own
	// product.
	ErrSelfPurchase = errors.New("cannot order your own product")

	// ErrInsufficientStock is returned when the requested quantity exceeds
	// the product's reported availability at the moment of the check.
	ErrInsufficientStock = errors.New("requested quantity exceeds available stock")

	// ErrOrderNotPending is returned when the seller tries to amend an
	// order that has already left the pending state.
	ErrOrderNotPending = errors.New("only pending orders can be amended")

	// ErrInvalidTransition is returned when a transition is attempted from
	// a state that has no edge to the requested one. It is an expected
	// outcome under concurrent use, not a programming error.
	ErrInvalidTransition = errors.New("order cannot transition from its current state")

	// ErrReceiptUnavailable is returned when a receipt is requested for an
	// order that is still pending.
	ErrReceiptUnavailable = errors.New("receipt is not available while the order is pending")

	// ErrReviewNotAllowed is returned when reviews are submitted for an
	// order that has not been delivered yet.
	ErrReviewNotAllowed = errors.New("reviews can only be submitted for delivered orders")

	// ErrReviewAlreadySubmitted is returned when a participant tries to
	// review the same order twice, whether caught by the pre-check or by
	// the unique index.
	ErrReviewAlreadySubmitted = errors.New("review has already been submitted for this order")

	// ErrRatingRequired is returned when the submission is missing the
	// rating(s) the caller's role must provide.
	ErrRatingRequired = errors.New("required rating is missing")
)
