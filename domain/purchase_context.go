package domain

import "time"

type PurchaseKind string

const (
	PurchaseKindDirect     PurchaseKind = "DIRECT"
	PurchaseKindCart       PurchaseKind = "CART"
	PurchaseKindAuctionWin PurchaseKind = "AUCTION_WIN"
)

func (k PurchaseKind) Valid() bool {
	return k == PurchaseKindDirect || k == PurchaseKindCart || k == PurchaseKindAuctionWin
}

type CartLineItem struct {
	ProductID    int64  `json:"product_id" bson:"product_id"`
	ProductName  string `json:"product_name" bson:"product_name"`
	UnitPrice    int64  `json:"unit_price" bson:"unit_price"`
	Quantity     int    `json:"quantity" bson:"quantity"`
	ThumbnailURL string `json:"thumbnail_url,omitempty" bson:"thumbnail_url,omitempty"`
}

func (i CartLineItem) Subtotal() int64 {
	return i.UnitPrice * int64(i.Quantity)
}

// PurchaseContext identifies what is being bought. It is resolved once when a
// checkout begins and stays immutable for the life of the session.
type PurchaseContext struct {
	Kind  PurchaseKind   `json:"kind"`
	Items []CartLineItem `json:"items"`

	// Auction-win fields, zero for the other kinds.
	AuctionID       int64      `json:"auction_id,omitempty"`
	PaymentDeadline *time.Time `json:"payment_deadline,omitempty"`
	DeadlinePassed  bool       `json:"deadline_passed,omitempty"`
}

// DirectBuyIntent is the one-shot handoff written by the product page before
// it navigates to checkout. Consumed exactly once by the context loader.
type DirectBuyIntent struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

func (i DirectBuyIntent) Valid() bool {
	return i.ProductID > 0 && i.Quantity > 0
}
