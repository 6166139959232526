package payment

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/SSG-Realive/Realive-sub001/domain"
)

// session is the initialized provider handle, the counterpart of the widget
// instance the hosted script constructs in the browser.
type session struct {
	clientKey string
}

type TossClient struct {
	baseURL   string
	clientKey string
	secretKey string
	http      *http.Client

	mu           sync.Mutex
	sess         *session
	loaded       bool
	handshakeErr error
}

func NewTossClient(baseURL, clientKey, secretKey string) *TossClient {
	return &TossClient{
		baseURL:   baseURL,
		clientKey: clientKey,
		secretKey: secretKey,
		http:      &http.Client{Timeout: 15 * time.Second},
	}
}

// Handshake validates the publishable client key against the provider and
// constructs the session. Run once at startup, concurrently with everything
// else; Loaded flips only after it succeeds.
func (c *TossClient) Handshake(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/ready", nil)
	if err != nil {
		return c.failHandshake(fmt.Errorf("build handshake request failed: %w", err))
	}
	req.Header.Set("Authorization", c.basicAuth())

	resp, err := c.http.Do(req)
	if err != nil {
		return c.failHandshake(fmt.Errorf("provider handshake failed: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return c.failHandshake(fmt.Errorf("provider handshake returned %d: %s", resp.StatusCode, string(body)))
	}

	c.mu.Lock()
	c.loaded = true
	c.handshakeErr = nil
	c.sess = &session{clientKey: c.clientKey}
	c.mu.Unlock()
	return nil
}

func (c *TossClient) failHandshake(err error) error {
	c.mu.Lock()
	c.handshakeErr = err
	c.mu.Unlock()
	return err
}

func (c *TossClient) Loaded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loaded
}

// ensureSession returns the provider session, lazily re-initializing it when
// the handshake already succeeded but the handle is gone (a request racing
// session invalidation). Only a failed or missing handshake is an error.
func (c *TossClient) ensureSession() (*session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sess != nil {
		return c.sess, nil
	}
	if c.loaded {
		c.sess = &session{clientKey: c.clientKey}
		return c.sess, nil
	}
	if c.handshakeErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, c.handshakeErr)
	}
	return nil, ErrNotReady
}

// RequestPayment submits the payment to the hosted checkout and classifies
// the answer into a tagged outcome. A rejection body that carries the full
// (paymentKey, orderId, amount) triple means the provider authorized the
// charge before redirecting, so it is an AUTHORIZED outcome.
func (c *TossClient) RequestPayment(ctx context.Context, payReq *domain.PaymentRequest) (*domain.PaymentOutcome, error) {
	sess, err := c.ensureSession()
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(payReq)
	if err != nil {
		return nil, fmt.Errorf("marshal payment request failed: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/payments", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build payment request failed: %w", err)
	}
	req.Header.Set("Authorization", c.basicAuth())
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Client-Key", sess.clientKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("payment request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		// Session invalidated provider-side; drop it so the next attempt
		// re-initializes through ensureSession.
		c.mu.Lock()
		c.sess = nil
		c.mu.Unlock()
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read payment response failed: %w", err)
	}

	return classifyResponse(resp.StatusCode, body)
}

// providerResponse is the union of every body shape the hosted checkout
// returns: a redirect handle, an inline authorization, or an error.
type providerResponse struct {
	CheckoutURL string `json:"checkoutUrl"`
	PaymentKey  string `json:"paymentKey"`
	OrderID     string `json:"orderId"`
	Amount      int64  `json:"amount"`
	Code        string `json:"code"`
	Message     string `json:"message"`
}

func classifyResponse(status int, body []byte) (*domain.PaymentOutcome, error) {
	var pr providerResponse
	if err := json.Unmarshal(body, &pr); err != nil {
		return nil, fmt.Errorf("unmarshal payment response failed: %w", err)
	}

	if pr.PaymentKey != "" && pr.OrderID != "" && pr.Amount > 0 {
		return &domain.PaymentOutcome{
			Kind:       domain.OutcomeAuthorized,
			PaymentKey: pr.PaymentKey,
			OrderID:    pr.OrderID,
			Amount:     pr.Amount,
		}, nil
	}

	if status < 400 && pr.CheckoutURL != "" {
		return &domain.PaymentOutcome{
			Kind:        domain.OutcomeRedirected,
			RedirectURL: pr.CheckoutURL,
		}, nil
	}

	reason := pr.Message
	if reason == "" {
		reason = fmt.Sprintf("provider returned status %d", status)
	}
	return &domain.PaymentOutcome{
		Kind:   domain.OutcomeFailed,
		Reason: reason,
	}, nil
}

func (c *TossClient) basicAuth() string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(c.secretKey+":"))
}
