package intent

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/SSG-Realive/Realive-sub001/domain"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestRedis creates a miniredis server and returns a RedisStore instance
func setupTestRedis(t *testing.T) (*RedisStore, *miniredis.Miniredis, func()) {
	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	store := NewRedisStore(client, 30*time.Minute)

	cleanup := func() {
		client.Close()
		mr.Close()
	}

	return store, mr, cleanup
}

func TestConsumeDirectBuy_ClearsEntry(t *testing.T) {
	store, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	ctx := context.Background()
	userID := "user123"

	err := store.WriteDirectBuy(ctx, userID, domain.DirectBuyIntent{ProductID: 42, Quantity: 2})
	require.NoError(t, err)

	in, err := store.ConsumeDirectBuy(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(42), in.ProductID)
	assert.Equal(t, 2, in.Quantity)

	// One-shot: the key must be gone so a refresh cannot replay the purchase.
	assert.False(t, mr.Exists(directBuyKey(userID)))

	_, err = store.ConsumeDirectBuy(ctx, userID)
	assert.ErrorIs(t, err, ErrIntentNotFound)
}

func TestConsumeDirectBuy_NotFound(t *testing.T) {
	store, _, cleanup := setupTestRedis(t)
	defer cleanup()

	_, err := store.ConsumeDirectBuy(context.Background(), "nobody")
	assert.ErrorIs(t, err, ErrIntentNotFound)
}

func TestConsumeDirectBuy_InvalidJSON(t *testing.T) {
	store, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	require.NoError(t, mr.Set(directBuyKey("user123"), "{not json"))

	_, err := store.ConsumeDirectBuy(context.Background(), "user123")
	require.ErrorContains(t, err, "unmarshal direct-buy intent failed")
}

func TestCheckoutInfo_RoundTrip(t *testing.T) {
	store, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	ctx := context.Background()
	info := &CheckoutInfo{
		CheckoutID: "chk-1",
		UserID:     "user123",
		OrderID:    "direct_42_1700000000000",
		Amount:     103000,
		Shipping: domain.ShippingInfo{
			ReceiverName: "김민수",
			Phone:        "010-1234-5678",
			Address:      "서울시 마포구",
		},
		Context: domain.PurchaseContext{
			Kind:  domain.PurchaseKindDirect,
			Items: []domain.CartLineItem{{ProductID: 42, UnitPrice: 50000, Quantity: 2}},
		},
	}

	require.NoError(t, store.WriteCheckoutInfo(ctx, info.OrderID, info))

	// Key holds the JSON blob under the expected name.
	raw, err := mr.Get(checkoutInfoKey(info.OrderID))
	require.NoError(t, err)
	var stored CheckoutInfo
	require.NoError(t, json.Unmarshal([]byte(raw), &stored))
	assert.Equal(t, int64(103000), stored.Amount)

	got, err := store.ConsumeCheckoutInfo(ctx, info.OrderID)
	require.NoError(t, err)
	assert.Equal(t, "chk-1", got.CheckoutID)
	assert.Equal(t, domain.PurchaseKindDirect, got.Context.Kind)

	_, err = store.ConsumeCheckoutInfo(ctx, info.OrderID)
	assert.ErrorIs(t, err, ErrIntentNotFound)
}

func TestWriteDirectBuy_SetsTTL(t *testing.T) {
	store, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	require.NoError(t, store.WriteDirectBuy(context.Background(), "user123",
		domain.DirectBuyIntent{ProductID: 1, Quantity: 1}))

	assert.Greater(t, mr.TTL(directBuyKey("user123")), time.Duration(0))
}
