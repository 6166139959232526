package payment

import (
	"context"
	"errors"

	"github.com/SSG-Realive/Realive-sub001/domain"
)

// Provider is the hosted-checkout integration surface. Loaded reports whether
// the startup handshake (the script-load analog) has completed; RequestPayment
// resolves to a tagged outcome instead of making callers shape-check errors.
type Provider interface {
	Loaded() bool
	RequestPayment(ctx context.Context, req *domain.PaymentRequest) (*domain.PaymentOutcome, error)
}

var (
	// ErrNotReady means the handshake is still in flight; the caller may
	// retry once it completes.
	ErrNotReady = errors.New("payment provider is still initializing")
	// ErrUnavailable means the handshake itself failed. Fatal and
	// user-visible; there is no automatic retry.
	ErrUnavailable = errors.New("payment system failed to initialize")
)
