package models

import "time"

// Product is the slice of the catalog this service consumes: ownership for
// authorization, the listed price as the default unit price, and the
// quantity gate checked at order creation and amendment.
type Product struct {
	ID                int64     `json:"id"`
	RanchID           int64     `json:"ranch_id"`
	SellerProfileID   int64     `json:"seller_profile_id"`
	Name              string    `json:"name"`
	Description       string    `json:"description"`
	UnitPrice         float64   `json:"unit_price"`
	Currency          string    `json:"currency"`
	QuantityAvailable int       `json:"quantity_available"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}
