package intent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/SSG-Realive/Realive-sub001/domain"
	"github.com/redis/go-redis/v9"
)

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{
		client: client,
		ttl:    ttl,
	}
}

type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func (r *RedisStore) WriteDirectBuy(ctx context.Context, userID string, in domain.DirectBuyIntent) error {
	data, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal direct-buy intent failed: %w", err)
	}
	if err := r.client.Set(ctx, directBuyKey(userID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

// ConsumeDirectBuy reads and deletes the intent in one round trip so a page
// refresh cannot replay the same purchase.
func (r *RedisStore) ConsumeDirectBuy(ctx context.Context, userID string) (*domain.DirectBuyIntent, error) {
	data, err := r.client.GetDel(ctx, directBuyKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrIntentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis getdel failed: %w", err)
	}

	var in domain.DirectBuyIntent
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, fmt.Errorf("unmarshal direct-buy intent failed: %w", err)
	}
	return &in, nil
}

func (r *RedisStore) ClearDirectBuy(ctx context.Context, userID string) error {
	if err := r.client.Del(ctx, directBuyKey(userID)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func (r *RedisStore) WriteCheckoutInfo(ctx context.Context, orderID string, info *CheckoutInfo) error {
	data, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("marshal checkout info failed: %w", err)
	}
	if err := r.client.Set(ctx, checkoutInfoKey(orderID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r *RedisStore) ConsumeCheckoutInfo(ctx context.Context, orderID string) (*CheckoutInfo, error) {
	data, err := r.client.GetDel(ctx, checkoutInfoKey(orderID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrIntentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis getdel failed: %w", err)
	}

	var info CheckoutInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("unmarshal checkout info failed: %w", err)
	}
	return &info, nil
}

func directBuyKey(userID string) string {
	return fmt.Sprintf("intent:direct:%s", userID)
}

func checkoutInfoKey(orderID string) string {
	return fmt.Sprintf("checkout:info:%s", orderID)
}
