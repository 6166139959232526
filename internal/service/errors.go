package service

import "errors"

var (
	// ErrInvalidContext is terminal: the purchase intent is missing or
	// malformed and the user must restart from the originating page.
	ErrInvalidContext = errors.New("purchase context is missing or invalid")
	ErrEmptyCart      = errors.New("cart is empty, nothing to checkout")
	ErrAlreadyPaid    = errors.New("this auction win is already paid")
	ErrNotReady       = errors.New("checkout is not ready for payment")
	// ErrApprovalFailed is distinct from a provider rejection: the provider
	// already authorized the charge, so the user must contact support
	// instead of retrying.
	ErrApprovalFailed      = errors.New("payment approval failed; the charge may already have been taken")
	ErrAmountMismatch      = errors.New("authorized amount does not match the checkout amount")
	IllegalTransitionError = errors.New("illegal transition of checkout status")
)
