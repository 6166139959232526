package domain

import (
	"fmt"
	"time"
)

// PaymentRequest is what gets handed to the hosted checkout. Amount must
// equal PriceBreakdown.FinalAmount exactly; the provider validates this
// independently and fails the transaction on mismatch.
type PaymentRequest struct {
	OrderID             string `json:"orderId"`
	OrderName           string `json:"orderName"`
	Amount              int64  `json:"amount"`
	SuccessURL          string `json:"successUrl"`
	FailURL             string `json:"failUrl"`
	CustomerEmail       string `json:"customerEmail"`
	CustomerName        string `json:"customerName"`
	CustomerMobilePhone string `json:"customerMobilePhone"`
}

// BuildOrderID produces the client-generated provider order id, unique per
// attempt.
func BuildOrderID(ctx *PurchaseContext) string {
	ts := time.Now().UnixMilli()
	switch ctx.Kind {
	case PurchaseKindDirect:
		return fmt.Sprintf("direct_%d_%d", ctx.Items[0].ProductID, ts)
	case PurchaseKindAuctionWin:
		return fmt.Sprintf("auction_%d_%d", ctx.AuctionID, ts)
	default:
		return fmt.Sprintf("cart_%d", ts)
	}
}

// OrderName summarises the purchase for the provider's checkout page.
func OrderName(ctx *PurchaseContext) string {
	if len(ctx.Items) == 0 {
		return "주문"
	}
	first := ctx.Items[0].ProductName
	if len(ctx.Items) > 1 {
		return fmt.Sprintf("%s 외 %d건", first, len(ctx.Items)-1)
	}
	return first
}

// PaymentApprovalRequest is sent to the commerce backend to finalise a
// provider-authorized charge. It must never be constructed without the
// (paymentKey, orderId, amount) triple produced by a successful provider
// interaction; that triple is the only evidence of authorization to charge.
type PaymentApprovalRequest struct {
	ReceiverName    string         `json:"receiverName"`
	Phone           string         `json:"phone"`
	DeliveryAddress string         `json:"deliveryAddress"`
	PaymentMethod   string         `json:"paymentMethod"`
	PaymentKey      string         `json:"paymentKey"`
	TossOrderID     string         `json:"tossOrderId"`
	ProductID       int64          `json:"productId,omitempty"`
	Quantity        int            `json:"quantity,omitempty"`
	OrderItems      []CartLineItem `json:"orderItems,omitempty"`
	Amount          int64          `json:"amount"`
}

type OutcomeKind string

const (
	OutcomeRedirected OutcomeKind = "REDIRECTED"
	OutcomeAuthorized OutcomeKind = "AUTHORIZED"
	OutcomeFailed     OutcomeKind = "FAILED"
)

// PaymentOutcome is the tagged result of a payment request. Classification
// happens at the provider boundary: a rejection that nonetheless carries the
// full (paymentKey, orderId, amount) triple means the provider already
// authorized the charge and is an AUTHORIZED outcome, not a failure.
type PaymentOutcome struct {
	Kind        OutcomeKind `json:"kind"`
	RedirectURL string      `json:"redirect_url,omitempty"`
	PaymentKey  string      `json:"payment_key,omitempty"`
	OrderID     string      `json:"order_id,omitempty"`
	Amount      int64       `json:"amount,omitempty"`
	Reason      string      `json:"reason,omitempty"`
}
