package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/sampleforge/sampleforge-backend/pkg/enums"
)

// Order is the purchase ledger row. OwnerAccountID stays null for guest
// purchases until the order is claimed; CustomerEmail is always present
// once the payment session completes.
type Order struct {
	ID               uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OwnerAccountID   *uuid.UUID        `gorm:"column:owner_account_id;type:uuid;index"`
	CustomerEmail    string            `gorm:"column:customer_email;not null;index"`
	Currency         enums.Currency    `gorm:"column:currency;not null;default:'USD'"`
	SubtotalCents    int               `gorm:"column:subtotal_cents;not null"`
	TaxCents         int               `gorm:"column:tax_cents;not null;default:0"`
	TotalCents       int               `gorm:"column:total_cents;not null"`
	Status           enums.OrderStatus `gorm:"column:status;type:order_status;not null;default:'pending'"`
	PaymentSessionID *string           `gorm:"column:payment_session_id;index"`
	LineItems        []OrderLineItem   `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt        time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
