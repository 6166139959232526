package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/SSG-Realive/Realive-sub001/domain"
	"github.com/SSG-Realive/Realive-sub001/internal/backend"
	"github.com/SSG-Realive/Realive-sub001/internal/intent"
	r "github.com/SSG-Realive/Realive-sub001/internal/repository"
)

// approve finalizes a provider-authorized charge with the commerce backend.
// It is idempotent on the provider order id: a retried approval returns the
// recorded confirmation instead of posting again.
func (s *CheckoutService) approve(
	ctx context.Context,
	token, checkoutID string,
	shipping domain.ShippingInfo,
	purchase *domain.PurchaseContext,
	paymentKey, orderID string,
	amount int64,
) (*Confirmation, error) {

	if existing, err := s.repo.GetSessionByOrderID(ctx, orderID); err == nil &&
		existing.Status == domain.CheckoutStatusCompleted {
		return confirmationFrom(existing)
	}

	session, err := s.repo.GetSession(ctx, checkoutID)
	if err != nil {
		return nil, err
	}
	if amount != session.Amount {
		return nil, fmt.Errorf("%w: authorized %d, expected %d", ErrAmountMismatch, amount, session.Amount)
	}
	if !domain.CanTransitionTo(session.Status, domain.CheckoutStatusAuthorized) {
		return nil, IllegalTransitionError
	}

	if err := s.repo.SetPayment(ctx, checkoutID, domain.CheckoutStatusAuthorized, paymentKey); err != nil {
		return nil, err
	}

	approval := &domain.PaymentApprovalRequest{
		ReceiverName:    shipping.ReceiverName,
		Phone:           domain.NormalizePhone(shipping.Phone),
		DeliveryAddress: shipping.Address,
		PaymentMethod:   "CARD",
		PaymentKey:      paymentKey,
		TossOrderID:     orderID,
		Amount:          amount,
	}

	var result *backend.ApprovalResult
	switch purchase.Kind {
	case domain.PurchaseKindAuctionWin:
		result, err = s.backend.ApproveAuctionPayment(ctx, token, purchase.AuctionID, approval)
	case domain.PurchaseKindCart:
		approval.OrderItems = purchase.Items
		result, err = s.backend.ApproveDirectPayment(ctx, token, approval)
	default:
		approval.ProductID = purchase.Items[0].ProductID
		approval.Quantity = purchase.Items[0].Quantity
		result, err = s.backend.ApproveDirectPayment(ctx, token, approval)
	}
	if err != nil {
		if failErr := s.repo.UpdateStatus(ctx, checkoutID, domain.CheckoutStatusFailed); failErr != nil {
			log.Printf("failed to mark session %s FAILED: %v", checkoutID, failErr)
		}
		if errors.Is(err, backend.ErrUnauthorized) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrApprovalFailed, err)
	}

	price := domain.ComputePrice(purchase.Items, s.deliveryFee)
	confirmation := &Confirmation{
		CheckoutID:  checkoutID,
		OrderID:     result.OrderID,
		TossOrderID: orderID,
		Items:       purchase.Items,
		Price:       price,
		Shipping:    shipping,
	}

	payload, err := json.Marshal(map[string]interface{}{
		"checkout_id":   checkoutID,
		"user_id":       session.UserID,
		"order_id":      result.OrderID,
		"toss_order_id": orderID,
		"kind":          purchase.Kind,
		"items":         purchase.Items,
		"total_amount":  price.FinalAmount,
		"completed_at":  time.Now(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal completion payload: %w", err)
	}

	if err := s.repo.CompleteSession(ctx, checkoutID, payload); err != nil {
		return nil, err
	}

	s.cleanupAfterCompletion(session.UserID, orderID, purchase.Kind)

	return confirmation, nil
}

// cleanupAfterCompletion drops the transient purchase state a completed
// checkout leaves behind. Failures only log; the order itself is done.
func (s *CheckoutService) cleanupAfterCompletion(userID, orderID string, kind domain.PurchaseKind) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := s.intents.ClearDirectBuy(ctx, userID); err != nil {
		log.Printf("failed to clear direct-buy intent for %s: %v", userID, err)
	}
	// Already gone on the callback path; the inline-authorized path still
	// holds it.
	if _, err := s.intents.ConsumeCheckoutInfo(ctx, orderID); err != nil &&
		!errors.Is(err, intent.ErrIntentNotFound) {
		log.Printf("failed to drop checkout info for %s: %v", orderID, err)
	}
	if kind == domain.PurchaseKindCart {
		if err := s.carts.Clear(ctx, userID); err != nil {
			log.Printf("failed to clear cart for %s: %v", userID, err)
		}
	}
}

// HandleSuccess is the continuation of the hosted-checkout redirect. The
// provider calls back with the (paymentKey, orderId, amount) triple; the
// in-flight order blob supplies everything else.
func (s *CheckoutService) HandleSuccess(ctx context.Context, paymentKey, orderID string, amount int64) (*Confirmation, error) {
	info, err := s.intents.ConsumeCheckoutInfo(ctx, orderID)
	if errors.Is(err, intent.ErrIntentNotFound) {
		// The blob is consumed on first use; a replayed callback falls back
		// to the recorded session.
		session, lookupErr := s.repo.GetSessionByOrderID(ctx, orderID)
		if lookupErr != nil {
			return nil, ErrInvalidContext
		}
		if session.Status == domain.CheckoutStatusCompleted {
			return confirmationFrom(session)
		}
		return nil, ErrInvalidContext
	}
	if err != nil {
		return nil, err
	}

	if amount != info.Amount {
		// The consume already deleted the blob, but it is the only record
		// carrying the credentials for approval. Put it back so a bogus
		// callback cannot lock out the provider's genuine one.
		if writeErr := s.intents.WriteCheckoutInfo(ctx, orderID, info); writeErr != nil {
			log.Printf("failed to restore checkout info for %s: %v", orderID, writeErr)
		}
		return nil, fmt.Errorf("%w: callback reports %d, expected %d", ErrAmountMismatch, amount, info.Amount)
	}

	return s.approve(ctx, info.Token, info.CheckoutID, info.Shipping, &info.Context, paymentKey, orderID, amount)
}

// HandleFail returns the session to READY after the provider reported a
// recoverable failure, keeping the user's shipping entries usable.
func (s *CheckoutService) HandleFail(ctx context.Context, orderID, code, message string) error {
	if _, err := s.intents.ConsumeCheckoutInfo(ctx, orderID); err != nil &&
		!errors.Is(err, intent.ErrIntentNotFound) {
		log.Printf("failed to drop checkout info for %s: %v", orderID, err)
	}

	session, err := s.repo.GetSessionByOrderID(ctx, orderID)
	if err != nil {
		return err
	}
	if session.Status.IsTerminal() {
		return nil
	}

	log.Printf("payment failed for session %s: %s %s", session.ID, code, message)
	return s.repo.UpdateStatus(ctx, session.ID, domain.CheckoutStatusReady)
}

func confirmationFrom(session *r.CheckoutSession) (*Confirmation, error) {
	var payload struct {
		CheckoutID  string                `json:"checkout_id"`
		OrderID     int64                 `json:"order_id"`
		TossOrderID string                `json:"toss_order_id"`
		Items       []domain.CartLineItem `json:"items"`
		TotalAmount int64                 `json:"total_amount"`
	}
	if err := json.Unmarshal(session.CompletedPayload, &payload); err != nil {
		return nil, fmt.Errorf("failed to unmarshal completion payload: %w", err)
	}

	var shipping domain.ShippingInfo
	if len(session.ShippingJSON) > 0 {
		if err := json.Unmarshal(session.ShippingJSON, &shipping); err != nil {
			return nil, fmt.Errorf("failed to unmarshal shipping info: %w", err)
		}
	}

	var itemsTotal int64
	for _, item := range payload.Items {
		itemsTotal += item.Subtotal()
	}

	return &Confirmation{
		CheckoutID:  payload.CheckoutID,
		OrderID:     payload.OrderID,
		TossOrderID: payload.TossOrderID,
		Items:       payload.Items,
		Price: domain.PriceBreakdown{
			ItemsTotal:  itemsTotal,
			DeliveryFee: payload.TotalAmount - itemsTotal,
			FinalAmount: payload.TotalAmount,
		},
		Shipping: shipping,
	}, nil
}
