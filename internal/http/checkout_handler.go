package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/SSG-Realive/Realive-sub001/domain"
	"github.com/SSG-Realive/Realive-sub001/internal/backend"
	"github.com/SSG-Realive/Realive-sub001/internal/payment"
	"github.com/SSG-Realive/Realive-sub001/internal/repository"
	"github.com/SSG-Realive/Realive-sub001/internal/service"
	"github.com/go-chi/chi/v5"
)

// CheckoutFlow is the slice of the checkout service the HTTP layer uses.
type CheckoutFlow interface {
	Begin(ctx context.Context, token, userID string, req *service.BeginRequest) (*service.CheckoutView, error)
	Get(ctx context.Context, userID, checkoutID string) (*service.CheckoutView, error)
	Pay(ctx context.Context, token, userID, checkoutID string, shipping domain.ShippingInfo) (*service.PayResult, error)
}

type CheckoutHandler struct {
	flow    CheckoutFlow
	timeout time.Duration
}

func NewCheckoutHandler(flow CheckoutFlow, timeout time.Duration) *CheckoutHandler {
	return &CheckoutHandler{
		flow:    flow,
		timeout: timeout,
	}
}

type BeginCheckoutRequestDTO struct {
	Kind      string `json:"kind"`
	ProductID int64  `json:"product_id,omitempty"`
	Quantity  int    `json:"quantity,omitempty"`
	AuctionID int64  `json:"auction_id,omitempty"`
}

type PayRequestDTO struct {
	ReceiverName string `json:"receiver_name"`
	Phone        string `json:"phone"`
	Address      string `json:"address"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// POST /api/v1/checkout
func (h *CheckoutHandler) BeginCheckout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	token, userID := getAuthFromContext(r.Context())
	if token == "" || userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	var req BeginCheckoutRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	kind := domain.PurchaseKind(req.Kind)
	switch kind {
	case domain.PurchaseKindDirect, domain.PurchaseKindCart, domain.PurchaseKindAuctionWin:
	default:
		respondError(w, http.StatusBadRequest, "invalid_kind",
			"kind must be one of DIRECT, CART, AUCTION_WIN")
		return
	}

	view, err := h.flow.Begin(ctx, token, userID, &service.BeginRequest{
		Kind:      kind,
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
		AuctionID: req.AuctionID,
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, view)
}

// GET /api/v1/checkout/{checkout_id}
func (h *CheckoutHandler) GetCheckout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	token, userID := getAuthFromContext(r.Context())
	if token == "" || userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	checkoutID := chi.URLParam(r, "checkout_id")
	if checkoutID == "" {
		respondError(w, http.StatusBadRequest, "missing_checkout_id", "checkout_id is required")
		return
	}

	view, err := h.flow.Get(ctx, userID, checkoutID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, view)
}

// POST /api/v1/checkout/{checkout_id}/pay
func (h *CheckoutHandler) Pay(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	token, userID := getAuthFromContext(r.Context())
	if token == "" || userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	checkoutID := chi.URLParam(r, "checkout_id")
	if checkoutID == "" {
		respondError(w, http.StatusBadRequest, "missing_checkout_id", "checkout_id is required")
		return
	}

	var req PayRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	result, err := h.flow.Pay(ctx, token, userID, checkoutID, domain.ShippingInfo{
		ReceiverName: req.ReceiverName,
		Phone:        req.Phone,
		Address:      req.Address,
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error:   message,
		Code:    code,
		Details: "",
	})
}

// handleServiceError maps service errors to HTTP statuses. Terminal context
// errors and validation errors are 4xx; provider and approval failures are
// 502 so the frontend can tell "you did something wrong" from "we did".
func handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidContext):
		respondError(w, http.StatusBadRequest, "invalid_context",
			"purchase context is missing or invalid, restart from the product page")
	case errors.Is(err, service.ErrEmptyCart):
		respondError(w, http.StatusBadRequest, "empty_cart", "cart is empty")
	case errors.Is(err, service.ErrAlreadyPaid):
		respondError(w, http.StatusConflict, "already_paid", "this auction win is already paid")
	case errors.Is(err, domain.ErrShippingIncomplete):
		respondError(w, http.StatusBadRequest, "invalid_shipping",
			"receiver name, phone and address are all required")
	case errors.Is(err, domain.ErrInvalidPhone):
		respondError(w, http.StatusBadRequest, "invalid_phone", "phone number is not valid")
	case errors.Is(err, service.ErrNotReady), errors.Is(err, payment.ErrNotReady):
		respondError(w, http.StatusConflict, "not_ready", "checkout is not ready for payment yet")
	case errors.Is(err, service.IllegalTransitionError):
		respondError(w, http.StatusConflict, "illegal_state", "checkout is not in a payable state")
	case errors.Is(err, service.ErrAmountMismatch):
		respondError(w, http.StatusBadRequest, "amount_mismatch",
			"authorized amount does not match the checkout amount")
	case errors.Is(err, service.ErrApprovalFailed):
		respondError(w, http.StatusBadGateway, "approval_failed",
			"payment approval failed, contact support before retrying")
	case errors.Is(err, payment.ErrUnavailable):
		respondError(w, http.StatusBadGateway, "provider_unavailable",
			"payment provider is unavailable")
	case errors.Is(err, backend.ErrUnauthorized):
		respondError(w, http.StatusUnauthorized, "unauthorized", "session expired, log in again")
	case errors.Is(err, backend.ErrNotFound):
		respondError(w, http.StatusNotFound, "not_found", "resource not found")
	case errors.Is(err, repository.ErrSessionNotFound):
		respondError(w, http.StatusNotFound, "checkout_not_found", "checkout session not found")
	default:
		log.Printf("unhandled service error (request %s): %v", getRequestID(r.Context()), err)
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
