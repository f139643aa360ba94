package orders

import (
	"encoding/json"
	"fmt"
	"time"

	"corralx-backend/internal/models"
)

// receiptNumberPrefix + zero-padded order id + issue date form the globally
// unique receipt number, e.g. CRX-00000042-20260830.
const receiptNumberPrefix = "CRX"

func formatReceiptNumber(orderID int64, issuedAt time.Time) string {
	return fmt.Sprintf("%s-%08d-%s", receiptNumberPrefix, orderID, issuedAt.Format("20060102"))
}

// receiptParty is a participant's identity as it stood at issue time.
type receiptParty struct {
	ProfileID   int64   `json:"profile_id"`
	DisplayName string  `json:"display_name"`
	LegalName   *string `json:"legal_name,omitempty"`
}

// receiptProduct is the traded product as it stood at issue time.
type receiptProduct struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	RanchID     int64  `json:"ranch_id"`
}

// receiptSnapshot is the immutable point-in-time copy of the deal. Once
// persisted it is never regenerated, even if the underlying product or
// profile rows change later: it is an audit trail, not a live view.
type receiptSnapshot struct {
	ReceiptNumber string         `json:"receipt_number"`
	IssuedAt      time.Time      `json:"issued_at"`
	OrderID       int64          `json:"order_id"`
	Seller        receiptParty   `json:"seller"`
	Buyer         receiptParty   `json:"buyer"`
	Product       receiptProduct `json:"product"`

	Quantity   int     `json:"quantity"`
	UnitPrice  float64 `json:"unit_price"`
	TotalPrice float64 `json:"total_price"`
	Currency   string  `json:"currency"`

	DeliveryMethod       models.DeliveryMethod `json:"delivery_method"`
	PickupLocation       models.PickupLocation `json:"pickup_location"`
	DeliveryCost         float64               `json:"delivery_cost"`
	DeliveryCostCurrency string                `json:"delivery_cost_currency"`
}

// buildReceipt captures the deal at this instant and returns the receipt
// number plus the serialized snapshot to persist verbatim.
func buildReceipt(order *models.Order, product *models.Product, seller, buyer *models.Profile, issuedAt time.Time) (string, []byte, error) {
	number := formatReceiptNumber(order.ID, issuedAt)
	snapshot := receiptSnapshot{
		ReceiptNumber: number,
		IssuedAt:      issuedAt.UTC(),
		OrderID:       order.ID,
		Seller: receiptParty{
			ProfileID:   seller.ID,
			DisplayName: seller.DisplayName,
			LegalName:   seller.LegalName,
		},
		Buyer: receiptParty{
			ProfileID:   buyer.ID,
			DisplayName: buyer.DisplayName,
			LegalName:   buyer.LegalName,
		},
		Product: receiptProduct{
			ID:          product.ID,
			Name:        product.Name,
			Description: product.Description,
			RanchID:     product.RanchID,
		},
		Quantity:             order.Quantity,
		UnitPrice:            order.UnitPrice,
		TotalPrice:           order.TotalPrice,
		Currency:             order.Currency,
		DeliveryMethod:       order.DeliveryMethod,
		PickupLocation:       order.PickupLocation,
		DeliveryCost:         order.DeliveryCost,
		DeliveryCostCurrency: order.DeliveryCostCurrency,
	}

	data, err := json.Marshal(snapshot)
	if err != nil {
		return "", nil, fmt.Errorf("marshal receipt snapshot: %w", err)
	}
	return number, data, nil
}
