package intent

import (
	"context"
	"errors"

	"github.com/SSG-Realive/Realive-sub001/domain"
)

// CheckoutInfo describes an in-flight order so the payment-success callback
// can finish the approval after the provider redirect.
type CheckoutInfo struct {
	CheckoutID string                 `json:"checkout_id"`
	UserID     string                 `json:"user_id"`
	Token      string                 `json:"token"`
	OrderID    string                 `json:"order_id"`
	Amount     int64                  `json:"amount"`
	Shipping   domain.ShippingInfo    `json:"shipping"`
	Context    domain.PurchaseContext `json:"context"`
}

// Store is the transient purchase-intent handoff: single writer (the product
// page), single reader (the context loader). Consumers clear their own
// entries so a refresh cannot replay a stale purchase.
type Store interface {
	WriteDirectBuy(ctx context.Context, userID string, in domain.DirectBuyIntent) error
	ConsumeDirectBuy(ctx context.Context, userID string) (*domain.DirectBuyIntent, error)
	ClearDirectBuy(ctx context.Context, userID string) error

	WriteCheckoutInfo(ctx context.Context, orderID string, info *CheckoutInfo) error
	ConsumeCheckoutInfo(ctx context.Context, orderID string) (*CheckoutInfo, error)
}

var ErrIntentNotFound = errors.New("purchase intent not found")
