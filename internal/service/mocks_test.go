package service

import (
	"context"
	"sync"

	"github.com/SSG-Realive/Realive-sub001/domain"
	"github.com/SSG-Realive/Realive-sub001/internal/backend"
	"github.com/SSG-Realive/Realive-sub001/internal/cart"
	"github.com/SSG-Realive/Realive-sub001/internal/intent"
	r "github.com/SSG-Realive/Realive-sub001/internal/repository"
)

// MockRepository implements r.SessionRepo with an in-memory map so flow
// tests can follow a session across transitions.
type MockRepository struct {
	mu       sync.Mutex
	sessions map[string]*r.CheckoutSession
	outbox   []*r.OutboxEvent
	nextID   int64

	CreateErr error
	UpdateErr error
}

func NewMockRepository() *MockRepository {
	return &MockRepository{sessions: make(map[string]*r.CheckoutSession)}
}

func (m *MockRepository) Close() error               { return nil }
func (m *MockRepository) RunMigrations(string) error { return nil }

func (m *MockRepository) CreateSession(_ context.Context, s *r.CheckoutSession) error {
	if m.CreateErr != nil {
		return m.CreateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *s
	m.sessions[s.ID] = &copied
	return nil
}

func (m *MockRepository) GetSession(_ context.Context, id string) (*r.CheckoutSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, r.ErrSessionNotFound
	}
	copied := *s
	return &copied, nil
}

func (m *MockRepository) GetSessionByOrderID(_ context.Context, orderID string) (*r.CheckoutSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sessions {
		if s.OrderID.Valid && s.OrderID.String == orderID {
			copied := *s
			return &copied, nil
		}
	}
	return nil, r.ErrOrderIDNotFound
}

func (m *MockRepository) UpdateStatus(_ context.Context, id string, status domain.CheckoutStatus) error {
	if m.UpdateErr != nil {
		return m.UpdateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return r.ErrSessionNotFound
	}
	s.Status = status
	return nil
}

func (m *MockRepository) SetOrder(_ context.Context, id string, status domain.CheckoutStatus, orderID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return r.ErrSessionNotFound
	}
	s.Status = status
	s.OrderID.String = orderID
	s.OrderID.Valid = true
	return nil
}

func (m *MockRepository) SetPayment(_ context.Context, id string, status domain.CheckoutStatus, paymentKey string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return r.ErrSessionNotFound
	}
	s.Status = status
	s.PaymentKey.String = paymentKey
	s.PaymentKey.Valid = true
	return nil
}

func (m *MockRepository) CompleteSession(_ context.Context, id string, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return r.ErrSessionNotFound
	}
	s.Status = domain.CheckoutStatusCompleted
	s.CompletedPayload = payload
	m.nextID++
	m.outbox = append(m.outbox, &r.OutboxEvent{ID: m.nextID, SessionID: id, Payload: payload})
	return nil
}

func (m *MockRepository) GetUnprocessedEvents(context.Context, int) ([]*r.OutboxEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.outbox, nil
}

func (m *MockRepository) MarkEventAsProcessed(context.Context, int64) error { return nil }

func (m *MockRepository) GetStuckSessions(context.Context) ([]*r.CheckoutSession, error) {
	return nil, nil
}

func (m *MockRepository) session(id string) *r.CheckoutSession {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions[id]
}

// MockBackend implements BackendClient.
type MockBackend struct {
	Profile    *domain.PurchaserProfile
	ProfileErr error

	DirectInfo    *backend.DirectPaymentInfo
	DirectInfoErr error

	Win    *backend.AuctionWin
	WinErr error

	ApprovalResult  *backend.ApprovalResult
	ApprovalErr     error
	ApproveCalls    int
	LastApproval    *domain.PaymentApprovalRequest
	LastAuctionID   int64
	AuctionApproved bool
}

func (m *MockBackend) GetProfile(context.Context, string) (*domain.PurchaserProfile, error) {
	if m.ProfileErr != nil {
		return nil, m.ProfileErr
	}
	return m.Profile, nil
}

func (m *MockBackend) GetDirectPaymentInfo(context.Context, string, int64, int) (*backend.DirectPaymentInfo, error) {
	if m.DirectInfoErr != nil {
		return nil, m.DirectInfoErr
	}
	return m.DirectInfo, nil
}

func (m *MockBackend) GetAuctionWin(context.Context, string, int64) (*backend.AuctionWin, error) {
	if m.WinErr != nil {
		return nil, m.WinErr
	}
	return m.Win, nil
}

func (m *MockBackend) ApproveDirectPayment(_ context.Context, _ string, req *domain.PaymentApprovalRequest) (*backend.ApprovalResult, error) {
	m.ApproveCalls++
	m.LastApproval = req
	if m.ApprovalErr != nil {
		return nil, m.ApprovalErr
	}
	return m.ApprovalResult, nil
}

func (m *MockBackend) ApproveAuctionPayment(_ context.Context, _ string, auctionID int64, req *domain.PaymentApprovalRequest) (*backend.ApprovalResult, error) {
	m.ApproveCalls++
	m.LastApproval = req
	m.LastAuctionID = auctionID
	m.AuctionApproved = true
	if m.ApprovalErr != nil {
		return nil, m.ApprovalErr
	}
	return m.ApprovalResult, nil
}

// MockProvider implements payment.Provider.
type MockProvider struct {
	IsLoaded     bool
	Outcome      *domain.PaymentOutcome
	Err          error
	RequestCalls int
	LastRequest  *domain.PaymentRequest
}

func (m *MockProvider) Loaded() bool { return m.IsLoaded }

func (m *MockProvider) RequestPayment(_ context.Context, req *domain.PaymentRequest) (*domain.PaymentOutcome, error) {
	m.RequestCalls++
	m.LastRequest = req
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Outcome, nil
}

// MockCarts implements CartReader.
type MockCarts struct {
	Cart    *cart.Cart
	GetErr  error
	Cleared []string
}

func (m *MockCarts) GetCart(context.Context, string) (*cart.Cart, error) {
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	return m.Cart, nil
}

func (m *MockCarts) Clear(_ context.Context, userID string) error {
	m.Cleared = append(m.Cleared, userID)
	return nil
}

// MockIntents implements intent.Store in memory.
type MockIntents struct {
	mu     sync.Mutex
	direct map[string]domain.DirectBuyIntent
	infos  map[string]*intent.CheckoutInfo
}

func NewMockIntents() *MockIntents {
	return &MockIntents{
		direct: make(map[string]domain.DirectBuyIntent),
		infos:  make(map[string]*intent.CheckoutInfo),
	}
}

func (m *MockIntents) WriteDirectBuy(_ context.Context, userID string, in domain.DirectBuyIntent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.direct[userID] = in
	return nil
}

func (m *MockIntents) ConsumeDirectBuy(_ context.Context, userID string) (*domain.DirectBuyIntent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	in, ok := m.direct[userID]
	if !ok {
		return nil, intent.ErrIntentNotFound
	}
	delete(m.direct, userID)
	return &in, nil
}

func (m *MockIntents) ClearDirectBuy(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.direct, userID)
	return nil
}

func (m *MockIntents) WriteCheckoutInfo(_ context.Context, orderID string, info *intent.CheckoutInfo) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.infos[orderID] = info
	return nil
}

func (m *MockIntents) ConsumeCheckoutInfo(_ context.Context, orderID string) (*intent.CheckoutInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	info, ok := m.infos[orderID]
	if !ok {
		return nil, intent.ErrIntentNotFound
	}
	delete(m.infos, orderID)
	return info, nil
}

func (m *MockIntents) hasDirect(userID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.direct[userID]
	return ok
}
