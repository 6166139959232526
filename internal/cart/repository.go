package cart

import (
	"context"
	"errors"
	"time"

	"github.com/SSG-Realive/Realive-sub001/domain"
)

type Cart struct {
	ID        string                `bson:"_id,omitempty" json:"-"`
	UserID    string                `bson:"user_id" json:"user_id"`
	Items     []domain.CartLineItem `bson:"items" json:"items"`
	CreatedAt time.Time             `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time             `bson:"updated_at" json:"updated_at"`
}

type Repository interface {
	GetCart(ctx context.Context, userID string) (*Cart, error)
	DeleteCart(ctx context.Context, userID string) error
}

var ErrCartNotFound = errors.New("cart not found")
