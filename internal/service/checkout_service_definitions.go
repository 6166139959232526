package service

import (
	"context"

	"github.com/SSG-Realive/Realive-sub001/domain"
	"github.com/SSG-Realive/Realive-sub001/internal/backend"
	"github.com/SSG-Realive/Realive-sub001/internal/cart"
	"github.com/SSG-Realive/Realive-sub001/internal/intent"
	"github.com/SSG-Realive/Realive-sub001/internal/payment"
	r "github.com/SSG-Realive/Realive-sub001/internal/repository"
	"golang.org/x/sync/singleflight"
)

// BackendClient is the slice of the commerce REST API the checkout flow uses.
type BackendClient interface {
	GetProfile(ctx context.Context, token string) (*domain.PurchaserProfile, error)
	GetDirectPaymentInfo(ctx context.Context, token string, productID int64, quantity int) (*backend.DirectPaymentInfo, error)
	GetAuctionWin(ctx context.Context, token string, auctionID int64) (*backend.AuctionWin, error)
	ApproveDirectPayment(ctx context.Context, token string, req *domain.PaymentApprovalRequest) (*backend.ApprovalResult, error)
	ApproveAuctionPayment(ctx context.Context, token string, auctionID int64, req *domain.PaymentApprovalRequest) (*backend.ApprovalResult, error)
}

type CartReader interface {
	GetCart(ctx context.Context, userID string) (*cart.Cart, error)
	Clear(ctx context.Context, userID string) error
}

type BeginRequest struct {
	Kind      domain.PurchaseKind
	ProductID int64
	Quantity  int
	AuctionID int64
}

// CheckoutView is what the handlers render back to the frontend.
type CheckoutView struct {
	CheckoutID string                 `json:"checkout_id"`
	Status     domain.CheckoutStatus  `json:"status"`
	Context    domain.PurchaseContext `json:"context"`
	Price      domain.PriceBreakdown  `json:"price"`
	Shipping   domain.ShippingInfo    `json:"shipping"`
}

// Confirmation is the terminal success view of a checkout.
type Confirmation struct {
	CheckoutID  string                `json:"checkout_id"`
	OrderID     int64                 `json:"order_id"`
	TossOrderID string                `json:"toss_order_id"`
	Items       []domain.CartLineItem `json:"items"`
	Price       domain.PriceBreakdown `json:"price"`
	Shipping    domain.ShippingInfo   `json:"shipping"`
}

// PayResult is the tagged answer to a pay request: a redirect to the hosted
// checkout, an inline confirmation, or a recoverable rejection.
type PayResult struct {
	Kind         domain.OutcomeKind `json:"kind"`
	RedirectURL  string             `json:"redirect_url,omitempty"`
	Confirmation *Confirmation      `json:"confirmation,omitempty"`
	Reason       string             `json:"reason,omitempty"`
}

type CheckoutService struct {
	repo     r.SessionRepo
	backend  BackendClient
	provider payment.Provider
	carts    CartReader
	intents  intent.Store

	sfg           singleflight.Group // dedupes concurrent profile fetches
	deliveryFee   int64
	publicBaseURL string
}

func NewCheckoutService(
	repo r.SessionRepo,
	backendClient BackendClient,
	provider payment.Provider,
	carts CartReader,
	intents intent.Store,
	deliveryFee int64,
	publicBaseURL string,
) *CheckoutService {
	return &CheckoutService{
		repo:          repo,
		backend:       backendClient,
		provider:      provider,
		carts:         carts,
		intents:       intents,
		deliveryFee:   deliveryFee,
		publicBaseURL: publicBaseURL,
	}
}
