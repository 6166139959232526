package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransitionTo(t *testing.T) {
	assert.True(t, CanTransitionTo(CheckoutStatusInitiated, CheckoutStatusReady))
	assert.True(t, CanTransitionTo(CheckoutStatusReady, CheckoutStatusRequesting))
	assert.True(t, CanTransitionTo(CheckoutStatusRequesting, CheckoutStatusRedirected))
	assert.True(t, CanTransitionTo(CheckoutStatusRequesting, CheckoutStatusAuthorized))
	assert.True(t, CanTransitionTo(CheckoutStatusRequesting, CheckoutStatusReady)) // recoverable rejection
	assert.True(t, CanTransitionTo(CheckoutStatusRedirected, CheckoutStatusAuthorized))
	assert.True(t, CanTransitionTo(CheckoutStatusAuthorized, CheckoutStatusCompleted))

	assert.False(t, CanTransitionTo(CheckoutStatusInitiated, CheckoutStatusRequesting))
	assert.False(t, CanTransitionTo(CheckoutStatusCompleted, CheckoutStatusReady))
	assert.False(t, CanTransitionTo(CheckoutStatusFailed, CheckoutStatusReady))
	assert.False(t, CanTransitionTo(CheckoutStatusCompleted, CheckoutStatusFailed))
}

func TestIsTerminal(t *testing.T) {
	assert.True(t, CheckoutStatusCompleted.IsTerminal())
	assert.True(t, CheckoutStatusFailed.IsTerminal())
	assert.False(t, CheckoutStatusReady.IsTerminal())
	assert.False(t, CheckoutStatusRedirected.IsTerminal())
}

func TestBuildOrderID(t *testing.T) {
	direct := &PurchaseContext{
		Kind:  PurchaseKindDirect,
		Items: []CartLineItem{{ProductID: 42, Quantity: 1}},
	}
	assert.Regexp(t, `^direct_42_\d+$`, BuildOrderID(direct))

	auction := &PurchaseContext{Kind: PurchaseKindAuctionWin, AuctionID: 7}
	assert.Regexp(t, `^auction_7_\d+$`, BuildOrderID(auction))

	cart := &PurchaseContext{Kind: PurchaseKindCart}
	assert.Regexp(t, `^cart_\d+$`, BuildOrderID(cart))
}

func TestOrderNameFromCheckout(t *testing.T) {
	ctx := &PurchaseContext{
		Kind: PurchaseKindCart,
		Items: []CartLineItem{
			{ProductName: "의자"},
			{ProductName: "조명"},
			{ProductName: "책상"},
		},
	}
	assert.Equal(t, "의자 외 2건", OrderName(ctx))

	single := &PurchaseContext{Kind: PurchaseKindDirect, Items: []CartLineItem{{ProductName: "의자"}}}
	assert.Equal(t, "의자", OrderName(single))
}
