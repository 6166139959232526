package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SSG-Realive/Realive-sub001/domain"
	"github.com/SSG-Realive/Realive-sub001/internal/cart"
	"github.com/SSG-Realive/Realive-sub001/internal/intent"
)

// loadContext resolves what is being purchased. Consuming the direct-buy
// intent clears it, so a refresh cannot replay a stale purchase.
func (s *CheckoutService) loadContext(ctx context.Context, token, userID string, req *BeginRequest) (*domain.PurchaseContext, error) {
	switch req.Kind {
	case domain.PurchaseKindDirect:
		return s.loadDirectContext(ctx, token, userID, req)
	case domain.PurchaseKindCart:
		return s.loadCartContext(ctx, userID)
	case domain.PurchaseKindAuctionWin:
		return s.loadAuctionContext(ctx, token, req.AuctionID)
	default:
		return nil, fmt.Errorf("%w: unknown purchase kind %q", ErrInvalidContext, req.Kind)
	}
}

func (s *CheckoutService) loadDirectContext(ctx context.Context, token, userID string, req *BeginRequest) (*domain.PurchaseContext, error) {
	in := domain.DirectBuyIntent{ProductID: req.ProductID, Quantity: req.Quantity}
	if !in.Valid() {
		stored, err := s.intents.ConsumeDirectBuy(ctx, userID)
		if errors.Is(err, intent.ErrIntentNotFound) {
			return nil, ErrInvalidContext
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read purchase intent: %w", err)
		}
		in = *stored
	} else {
		// An explicit request supersedes whatever the product page left
		// behind; drop the stored entry either way.
		_ = s.intents.ClearDirectBuy(ctx, userID)
	}

	if !in.Valid() {
		return nil, ErrInvalidContext
	}

	info, err := s.backend.GetDirectPaymentInfo(ctx, token, in.ProductID, in.Quantity)
	if err != nil {
		return nil, err
	}

	return &domain.PurchaseContext{
		Kind: domain.PurchaseKindDirect,
		Items: []domain.CartLineItem{{
			ProductID:    info.ProductID,
			ProductName:  info.ProductName,
			UnitPrice:    info.Price,
			Quantity:     info.Quantity,
			ThumbnailURL: info.ImageURL,
		}},
	}, nil
}

func (s *CheckoutService) loadCartContext(ctx context.Context, userID string) (*domain.PurchaseContext, error) {
	c, err := s.carts.GetCart(ctx, userID)
	if errors.Is(err, cart.ErrCartNotFound) {
		return nil, ErrEmptyCart
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cart: %w", err)
	}
	if len(c.Items) == 0 {
		return nil, ErrEmptyCart
	}

	return &domain.PurchaseContext{
		Kind:  domain.PurchaseKindCart,
		Items: c.Items,
	}, nil
}

func (s *CheckoutService) loadAuctionContext(ctx context.Context, token string, auctionID int64) (*domain.PurchaseContext, error) {
	if auctionID <= 0 {
		return nil, ErrInvalidContext
	}

	win, err := s.backend.GetAuctionWin(ctx, token, auctionID)
	if err != nil {
		return nil, err
	}
	if win.Paid {
		return nil, ErrAlreadyPaid
	}

	pc := &domain.PurchaseContext{
		Kind:      domain.PurchaseKindAuctionWin,
		AuctionID: win.AuctionID,
		Items: []domain.CartLineItem{{
			ProductID:    win.ProductID,
			ProductName:  win.ProductName,
			UnitPrice:    win.WinningBid,
			Quantity:     1,
			ThumbnailURL: win.ImageURL,
		}},
		PaymentDeadline: win.PaymentDeadline,
	}
	// A passed deadline still renders; it is surfaced, not enforced here.
	if win.PaymentDeadline != nil && win.PaymentDeadline.Before(time.Now()) {
		pc.DeadlinePassed = true
	}
	return pc, nil
}
