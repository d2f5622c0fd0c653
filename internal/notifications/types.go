package notifications

import (
	"time"

	"github.com/google/uuid"

	"github.com/sampleforge/sampleforge-backend/pkg/enums"
)

// GrantLink is one downloadable sample inside a purchase confirmation.
type GrantLink struct {
	SampleID     uuid.UUID `json:"sampleId"`
	SampleTitle  string    `json:"sampleTitle"`
	Token        string    `json:"token"`
	MaxDownloads int       `json:"maxDownloads"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

// PackGroup collects the grants of one pack for presentation.
type PackGroup struct {
	PackID    uuid.UUID   `json:"packId"`
	PackTitle string      `json:"packTitle"`
	Grants    []GrantLink `json:"grants"`
}

// PurchaseConfirmation is the payload fulfillment hands to the notification
// pipeline once grants are minted.
type PurchaseConfirmation struct {
	OrderID       uuid.UUID      `json:"orderId"`
	CustomerEmail string         `json:"customerEmail"`
	TotalCents    int            `json:"totalCents"`
	Currency      enums.Currency `json:"currency"`
	Packs         []PackGroup    `json:"packs"`
}
