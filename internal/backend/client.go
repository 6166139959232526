package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/SSG-Realive/Realive-sub001/domain"
	"github.com/sony/gobreaker/v2"
)

var (
	ErrUnauthorized = errors.New("backend rejected the bearer token")
	ErrNotFound     = errors.New("backend resource not found")
	// ErrApprovalRejected means the backend refused an already-authorized
	// charge. Money may have moved on the provider side, so callers must not
	// blind-retry.
	ErrApprovalRejected = errors.New("backend rejected the payment approval")

	errClientRejected = errors.New("backend rejected the request")
)

// DirectPaymentInfo mirrors the backend's direct-payment-info DTO.
type DirectPaymentInfo struct {
	ProductID   int64  `json:"productId"`
	ProductName string `json:"productName"`
	Price       int64  `json:"price"`
	Quantity    int    `json:"quantity"`
	ImageURL    string `json:"imageUrl"`
}

// AuctionWin mirrors the backend's auction-win detail DTO.
type AuctionWin struct {
	AuctionID       int64      `json:"auctionId"`
	ProductID       int64      `json:"productId"`
	ProductName     string     `json:"productName"`
	WinningBid      int64      `json:"winningBid"`
	ImageURL        string     `json:"imageUrl"`
	Paid            bool       `json:"paid"`
	PaymentDeadline *time.Time `json:"paymentDeadline"`
}

type ApprovalResult struct {
	OrderID int64  `json:"orderId"`
	Status  string `json:"status"`
}

// Client talks to the Realive commerce REST API. Every call carries the
// purchaser's bearer token and an explicit timeout; calls go through a
// circuit breaker so a struggling backend fails fast instead of piling up.
type Client struct {
	baseURL string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[[]byte]
	timeout time.Duration
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	settings := gobreaker.Settings{
		Name:    "realive-backend",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// 4xx answers are the backend doing its job, not the backend being
		// down; only transport-level failures should trip the breaker.
		IsSuccessful: func(err error) bool {
			return err == nil ||
				errors.Is(err, ErrUnauthorized) ||
				errors.Is(err, ErrNotFound) ||
				errors.Is(err, errClientRejected)
		},
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{},
		breaker: gobreaker.NewCircuitBreaker[[]byte](settings),
		timeout: timeout,
	}
}

func (c *Client) GetProfile(ctx context.Context, token string) (*domain.PurchaserProfile, error) {
	body, err := c.doJSON(ctx, http.MethodGet, "/customer/profile", token, nil)
	if err != nil {
		return nil, err
	}

	var profile domain.PurchaserProfile
	if err := json.Unmarshal(body, &profile); err != nil {
		return nil, fmt.Errorf("unmarshal profile failed: %w", err)
	}
	return &profile, nil
}

func (c *Client) GetDirectPaymentInfo(ctx context.Context, token string, productID int64, quantity int) (*DirectPaymentInfo, error) {
	q := url.Values{}
	q.Set("productId", strconv.FormatInt(productID, 10))
	q.Set("quantity", strconv.Itoa(quantity))

	body, err := c.doJSON(ctx, http.MethodGet,
		"/customer/mypage/orders/direct-payment-info?"+q.Encode(), token, nil)
	if err != nil {
		return nil, err
	}

	var info DirectPaymentInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("unmarshal direct payment info failed: %w", err)
	}
	return &info, nil
}

func (c *Client) GetAuctionWin(ctx context.Context, token string, auctionID int64) (*AuctionWin, error) {
	body, err := c.doJSON(ctx, http.MethodGet,
		fmt.Sprintf("/customer/auction-wins/%d", auctionID), token, nil)
	if err != nil {
		return nil, err
	}

	var win AuctionWin
	if err := json.Unmarshal(body, &win); err != nil {
		return nil, fmt.Errorf("unmarshal auction win failed: %w", err)
	}
	return &win, nil
}

func (c *Client) ApproveDirectPayment(ctx context.Context, token string, req *domain.PaymentApprovalRequest) (*ApprovalResult, error) {
	return c.approve(ctx, "/customer/mypage/orders/direct-payment", token, req)
}

func (c *Client) ApproveAuctionPayment(ctx context.Context, token string, auctionID int64, req *domain.PaymentApprovalRequest) (*ApprovalResult, error) {
	return c.approve(ctx, fmt.Sprintf("/customer/auction-wins/%d/payment", auctionID), token, req)
}

func (c *Client) approve(ctx context.Context, path, token string, req *domain.PaymentApprovalRequest) (*ApprovalResult, error) {
	body, err := c.doJSON(ctx, http.MethodPost, path, token, req)
	if err != nil {
		if errors.Is(err, ErrUnauthorized) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrApprovalRejected, err)
	}

	var result ApprovalResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("unmarshal approval result failed: %w", err)
	}
	return &result, nil
}

func (c *Client) doJSON(ctx context.Context, method, path, token string, payload any) ([]byte, error) {
	return c.breaker.Execute(func() ([]byte, error) {
		reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()

		var reqBody io.Reader
		if payload != nil {
			data, err := json.Marshal(payload)
			if err != nil {
				return nil, fmt.Errorf("marshal request failed: %w", err)
			}
			reqBody = bytes.NewReader(data)
		}

		req, err := http.NewRequestWithContext(reqCtx, method, c.baseURL+path, reqBody)
		if err != nil {
			return nil, fmt.Errorf("build request failed: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, fmt.Errorf("backend request failed: %w", err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("read backend response failed: %w", err)
		}

		switch {
		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			return nil, ErrUnauthorized
		case resp.StatusCode == http.StatusNotFound:
			return nil, ErrNotFound
		case resp.StatusCode >= 500:
			return nil, fmt.Errorf("backend returned %d: %s", resp.StatusCode, string(body))
		case resp.StatusCode >= 400:
			return nil, fmt.Errorf("%w: %d: %s", errClientRejected, resp.StatusCode, string(body))
		}

		return body, nil
	})
}
