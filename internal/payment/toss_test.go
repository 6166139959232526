package payment

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/SSG-Realive/Realive-sub001/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *TossClient {
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewTossClient(srv.URL, "test_ck_123", "test_sk_456")
}

func paymentRequest() *domain.PaymentRequest {
	return &domain.PaymentRequest{
		OrderID:    "direct_42_1700000000000",
		OrderName:  "빈티지 책상",
		Amount:     103000,
		SuccessURL: "http://localhost:8080/payments/success",
		FailURL:    "http://localhost:8080/payments/fail",
	}
}

func TestHandshake_Success(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/ready", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	})

	require.NoError(t, client.Handshake(context.Background()))
	assert.True(t, client.Loaded())
}

func TestHandshake_Failure(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	assert.Error(t, client.Handshake(context.Background()))
	assert.False(t, client.Loaded())
}

func TestRequestPayment_BeforeHandshake(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	_, err := client.RequestPayment(context.Background(), paymentRequest())
	assert.ErrorIs(t, err, ErrNotReady)
}

func TestRequestPayment_AfterFailedHandshake(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/ready" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	require.Error(t, client.Handshake(context.Background()))

	_, err := client.RequestPayment(context.Background(), paymentRequest())
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestRequestPayment_Redirected(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/ready" {
			w.WriteHeader(http.StatusOK)
			return
		}
		assert.Equal(t, "/v1/payments", r.URL.Path)
		assert.Equal(t, "test_ck_123", r.Header.Get("X-Client-Key"))
		w.Write([]byte(`{"checkoutUrl":"https://pay.example.com/c/abc"}`))
	})
	require.NoError(t, client.Handshake(context.Background()))

	outcome, err := client.RequestPayment(context.Background(), paymentRequest())

	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeRedirected, outcome.Kind)
	assert.Equal(t, "https://pay.example.com/c/abc", outcome.RedirectURL)
}

func TestRequestPayment_InlineAuthorization(t *testing.T) {
	// Some integration paths authorize before any redirect and report the
	// triple inside an error response. That is a success, not a failure.
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/ready" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"code":"ALREADY_PROCESSED","paymentKey":"pk_1","orderId":"direct_42_1700000000000","amount":103000}`))
	})
	require.NoError(t, client.Handshake(context.Background()))

	outcome, err := client.RequestPayment(context.Background(), paymentRequest())

	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeAuthorized, outcome.Kind)
	assert.Equal(t, "pk_1", outcome.PaymentKey)
	assert.Equal(t, "direct_42_1700000000000", outcome.OrderID)
	assert.Equal(t, int64(103000), outcome.Amount)
}

func TestRequestPayment_GenuineFailure(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/ready" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"code":"INVALID_AMOUNT","message":"amount does not match"}`))
	})
	require.NoError(t, client.Handshake(context.Background()))

	outcome, err := client.RequestPayment(context.Background(), paymentRequest())

	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeFailed, outcome.Kind)
	assert.Equal(t, "amount does not match", outcome.Reason)
}

func TestRequestPayment_LazyReinitAfterSessionDrop(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/ready" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.Write([]byte(`{"checkoutUrl":"https://pay.example.com/c/abc"}`))
	})
	require.NoError(t, client.Handshake(context.Background()))

	// Simulate the instance being gone while the handshake is still good.
	client.mu.Lock()
	client.sess = nil
	client.mu.Unlock()

	outcome, err := client.RequestPayment(context.Background(), paymentRequest())

	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeRedirected, outcome.Kind)
}

func TestClassifyResponse_PartialTripleIsFailure(t *testing.T) {
	// paymentKey without amount is not evidence of authorization.
	outcome, err := classifyResponse(http.StatusConflict,
		[]byte(`{"code":"X","message":"partial","paymentKey":"pk_1","orderId":"o_1"}`))

	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeFailed, outcome.Kind)
}
