package models

import "time"

// Profile is a marketplace identity, distinct from the login account.
// Authentication happens upstream; this service only resolves participants
// and reads identities into receipt snapshots and notification emails.
type Profile struct {
	ID          int64     `json:"id"`
	UserID      string    `json:"user_id"`
	DisplayName string    `json:"display_name"`
	LegalName   *string   `json:"legal_name,omitempty"`
	Email       string    `json:"email"`
	IsSeller    bool      `json:"is_seller"`
	RanchID     *int64    `json:"ranch_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
