package http

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/SSG-Realive/Realive-sub001/internal/service"
)

// ApprovalFlow is the callback side of the checkout service: the provider
// redirects the browser here after the hosted checkout.
type ApprovalFlow interface {
	HandleSuccess(ctx context.Context, paymentKey, orderID string, amount int64) (*service.Confirmation, error)
	HandleFail(ctx context.Context, orderID, code, message string) error
}

type CallbackHandler struct {
	flow            ApprovalFlow
	frontendBaseURL string
	timeout         time.Duration
}

func NewCallbackHandler(flow ApprovalFlow, frontendBaseURL string, timeout time.Duration) *CallbackHandler {
	return &CallbackHandler{
		flow:            flow,
		frontendBaseURL: frontendBaseURL,
		timeout:         timeout,
	}
}

// GET /payments/success?paymentKey=..&orderId=..&amount=..
//
// The provider appends the query params; there is no Authorization header on
// this request, the stored checkout info carries the credentials.
func (h *CallbackHandler) Success(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	q := r.URL.Query()
	paymentKey := q.Get("paymentKey")
	orderID := q.Get("orderId")
	amountStr := q.Get("amount")
	if paymentKey == "" || orderID == "" || amountStr == "" {
		respondError(w, http.StatusBadRequest, "invalid_callback",
			"paymentKey, orderId and amount are required")
		return
	}
	amount, err := strconv.ParseInt(amountStr, 10, 64)
	if err != nil || amount <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_callback", "amount must be a positive integer")
		return
	}

	confirmation, err := h.flow.HandleSuccess(ctx, paymentKey, orderID, amount)
	if err != nil {
		if h.frontendBaseURL != "" {
			h.redirectFail(w, r, orderID, err)
			return
		}
		handleServiceError(w, r, err)
		return
	}

	if h.frontendBaseURL != "" {
		v := url.Values{}
		v.Set("checkoutId", confirmation.CheckoutID)
		v.Set("orderId", strconv.FormatInt(confirmation.OrderID, 10))
		http.Redirect(w, r, h.frontendBaseURL+"/order/complete?"+v.Encode(), http.StatusSeeOther)
		return
	}
	respondJSON(w, http.StatusOK, confirmation)
}

// GET /payments/fail?code=..&message=..&orderId=..
func (h *CallbackHandler) Fail(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	q := r.URL.Query()
	orderID := q.Get("orderId")
	code := q.Get("code")
	message := q.Get("message")

	if orderID != "" {
		if err := h.flow.HandleFail(ctx, orderID, code, message); err != nil {
			handleServiceError(w, r, err)
			return
		}
	}

	if h.frontendBaseURL != "" {
		v := url.Values{}
		v.Set("code", code)
		v.Set("message", message)
		http.Redirect(w, r, h.frontendBaseURL+"/order/fail?"+v.Encode(), http.StatusSeeOther)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "FAILED", "code": code, "message": message})
}

func (h *CallbackHandler) redirectFail(w http.ResponseWriter, r *http.Request, orderID string, err error) {
	v := url.Values{}
	v.Set("orderId", orderID)
	v.Set("message", err.Error())
	http.Redirect(w, r, h.frontendBaseURL+"/order/fail?"+v.Encode(), http.StatusSeeOther)
}
