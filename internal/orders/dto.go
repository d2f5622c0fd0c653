package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/sampleforge/sampleforge-backend/pkg/enums"
)

// StatusView is the minimal polling payload for the post-checkout success
// page. It carries no customer data so it is safe to serve unauthenticated.
type StatusView struct {
	OrderID   uuid.UUID         `json:"orderId"`
	Status    enums.OrderStatus `json:"status"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

// Summary is the account-facing order listing row.
type Summary struct {
	OrderID    uuid.UUID         `json:"orderId"`
	Status     enums.OrderStatus `json:"status"`
	TotalCents int               `json:"totalCents"`
	Currency   enums.Currency    `json:"currency"`
	ItemCount  int               `json:"itemCount"`
	CreatedAt  time.Time         `json:"createdAt"`
}

// ClaimResult reports how many historical guest orders were attached to the
// account.
type ClaimResult struct {
	ClaimedCount int64 `json:"claimedCount"`
}
