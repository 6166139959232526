package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/SSG-Realive/Realive-sub001/domain"
	"github.com/SSG-Realive/Realive-sub001/internal/intent"
	"github.com/SSG-Realive/Realive-sub001/internal/payment"
	r "github.com/SSG-Realive/Realive-sub001/internal/repository"
)

// Pay validates the shipping form, hands the payment to the hosted checkout
// and dispatches on the tagged outcome. The provider is only reached after
// validation passes and the session is READY.
func (s *CheckoutService) Pay(ctx context.Context, token, userID, checkoutID string, shipping domain.ShippingInfo) (*PayResult, error) {
	if err := shipping.Validate(); err != nil {
		return nil, err
	}

	session, err := s.repo.GetSession(ctx, checkoutID)
	if err != nil {
		return nil, err
	}
	// Someone else's session is indistinguishable from a missing one.
	if session.UserID != userID {
		return nil, r.ErrSessionNotFound
	}
	if session.Status.IsTerminal() {
		return nil, fmt.Errorf("%w: checkout already %s", IllegalTransitionError, session.Status)
	}

	var purchase domain.PurchaseContext
	if err := json.Unmarshal(session.ContextJSON, &purchase); err != nil {
		return nil, fmt.Errorf("failed to unmarshal purchase context: %w", err)
	}

	profile, err := s.getProfile(ctx, token)
	if err != nil {
		return nil, err
	}

	// The user may have clicked before the handshake finished; re-evaluate
	// the readiness conjunction instead of failing on the stale status.
	if session.Status == domain.CheckoutStatusProviderLoading ||
		session.Status == domain.CheckoutStatusInitiated {
		price := domain.ComputePrice(purchase.Items, s.deliveryFee)
		next := s.readiness(profile, price)
		if next != domain.CheckoutStatusReady {
			return nil, ErrNotReady
		}
		if err := s.repo.UpdateStatus(ctx, session.ID, domain.CheckoutStatusReady); err != nil {
			return nil, err
		}
		session.Status = domain.CheckoutStatusReady
	}

	if !domain.CanTransitionTo(session.Status, domain.CheckoutStatusRequesting) {
		return nil, IllegalTransitionError
	}

	price := domain.ComputePrice(purchase.Items, s.deliveryFee)
	orderID := domain.BuildOrderID(&purchase)

	if err := s.repo.SetOrder(ctx, session.ID, domain.CheckoutStatusRequesting, orderID); err != nil {
		return nil, err
	}

	// The blob the success callback consumes after the provider redirect.
	info := &intent.CheckoutInfo{
		CheckoutID: session.ID,
		UserID:     session.UserID,
		Token:      token,
		OrderID:    orderID,
		Amount:     price.FinalAmount,
		Shipping:   shipping,
		Context:    purchase,
	}
	if err := s.intents.WriteCheckoutInfo(ctx, orderID, info); err != nil {
		return nil, err
	}

	payReq := &domain.PaymentRequest{
		OrderID:             orderID,
		OrderName:           domain.OrderName(&purchase),
		Amount:              price.FinalAmount,
		SuccessURL:          s.publicBaseURL + "/payments/success",
		FailURL:             s.publicBaseURL + "/payments/fail",
		CustomerEmail:       profile.Email,
		CustomerName:        profile.Name,
		CustomerMobilePhone: domain.NormalizePhone(shipping.Phone),
	}

	outcome, err := s.provider.RequestPayment(ctx, payReq)
	if err != nil {
		// Leave the session retryable unless the provider is gone for good.
		if revertErr := s.repo.UpdateStatus(ctx, session.ID, domain.CheckoutStatusReady); revertErr != nil {
			log.Printf("failed to revert session %s to READY: %v", session.ID, revertErr)
		}
		if errors.Is(err, payment.ErrUnavailable) || errors.Is(err, payment.ErrNotReady) {
			return nil, err
		}
		return nil, fmt.Errorf("payment request failed: %w", err)
	}

	switch outcome.Kind {
	case domain.OutcomeRedirected:
		if err := s.repo.UpdateStatus(ctx, session.ID, domain.CheckoutStatusRedirected); err != nil {
			return nil, err
		}
		return &PayResult{Kind: domain.OutcomeRedirected, RedirectURL: outcome.RedirectURL}, nil

	case domain.OutcomeAuthorized:
		confirmation, err := s.approve(ctx, token, session.ID, shipping, &purchase,
			outcome.PaymentKey, outcome.OrderID, outcome.Amount)
		if err != nil {
			return nil, err
		}
		return &PayResult{Kind: domain.OutcomeAuthorized, Confirmation: confirmation}, nil

	default:
		// Recoverable rejection: back to READY so the user keeps their
		// shipping entries and can retry.
		if err := s.repo.UpdateStatus(ctx, session.ID, domain.CheckoutStatusReady); err != nil {
			return nil, err
		}
		return &PayResult{Kind: domain.OutcomeFailed, Reason: outcome.Reason}, nil
	}
}
