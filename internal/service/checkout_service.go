package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/SSG-Realive/Realive-sub001/domain"
	r "github.com/SSG-Realive/Realive-sub001/internal/repository"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Begin resolves the purchase context and the purchaser profile concurrently,
// persists a new checkout session and reports its readiness. The provider is
// never touched when the context is invalid.
func (s *CheckoutService) Begin(ctx context.Context, token, userID string, req *BeginRequest) (*CheckoutView, error) {
	var (
		purchase *domain.PurchaseContext
		profile  *domain.PurchaserProfile
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		loaded, err := s.loadContext(gctx, token, userID, req)
		if err != nil {
			return err
		}
		purchase = loaded
		return nil
	})
	g.Go(func() error {
		fetched, err := s.getProfile(gctx, token)
		if err != nil {
			return err
		}
		profile = fetched
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	price := domain.ComputePrice(purchase.Items, s.deliveryFee)

	contextJSON, err := json.Marshal(purchase)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal purchase context: %w", err)
	}
	shipping := domain.ShippingInfo{}.SeedFrom(profile)
	shippingJSON, err := json.Marshal(shipping)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal shipping info: %w", err)
	}

	session := &r.CheckoutSession{
		ID:           uuid.NewString(),
		UserID:       userID,
		Kind:         purchase.Kind,
		Status:       s.readiness(profile, price),
		Amount:       price.FinalAmount,
		ShippingJSON: shippingJSON,
		ContextJSON:  contextJSON,
	}
	if err := s.repo.CreateSession(ctx, session); err != nil {
		return nil, err
	}

	return &CheckoutView{
		CheckoutID: session.ID,
		Status:     session.Status,
		Context:    *purchase,
		Price:      price,
		Shipping:   shipping,
	}, nil
}

func (s *CheckoutService) Get(ctx context.Context, userID, checkoutID string) (*CheckoutView, error) {
	session, err := s.repo.GetSession(ctx, checkoutID)
	if err != nil {
		return nil, err
	}
	// Someone else's session is indistinguishable from a missing one.
	if session.UserID != userID {
		return nil, r.ErrSessionNotFound
	}
	return s.viewOf(session)
}

// readiness is the conjunction gate: the provider handshake, the profile and
// a non-zero amount are independent asynchronous preconditions and READY
// requires all three at once.
func (s *CheckoutService) readiness(profile *domain.PurchaserProfile, price domain.PriceBreakdown) domain.CheckoutStatus {
	if profile != nil && price.FinalAmount > 0 && s.provider.Loaded() {
		return domain.CheckoutStatusReady
	}
	return domain.CheckoutStatusProviderLoading
}

// getProfile fetches the purchaser profile once per token even under
// concurrent requests.
func (s *CheckoutService) getProfile(ctx context.Context, token string) (*domain.PurchaserProfile, error) {
	v, err, _ := s.sfg.Do("profile:"+token, func() (interface{}, error) {
		return s.backend.GetProfile(ctx, token)
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.PurchaserProfile), nil
}

func (s *CheckoutService) viewOf(session *r.CheckoutSession) (*CheckoutView, error) {
	var purchase domain.PurchaseContext
	if err := json.Unmarshal(session.ContextJSON, &purchase); err != nil {
		return nil, fmt.Errorf("failed to unmarshal purchase context: %w", err)
	}
	var shipping domain.ShippingInfo
	if len(session.ShippingJSON) > 0 {
		if err := json.Unmarshal(session.ShippingJSON, &shipping); err != nil {
			return nil, fmt.Errorf("failed to unmarshal shipping info: %w", err)
		}
	}

	return &CheckoutView{
		CheckoutID: session.ID,
		Status:     session.Status,
		Context:    purchase,
		Price:      domain.ComputePrice(purchase.Items, s.deliveryFee),
		Shipping:   shipping,
	}, nil
}
