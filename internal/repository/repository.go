package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/SSG-Realive/Realive-sub001/domain"
	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

var (
	ErrSessionNotFound = errors.New("checkout session not found")
	ErrOrderIDNotFound = errors.New("no session recorded for this order id")
)

// CheckoutSession is the persisted record of one checkout attempt. OrderID is
// the client-generated provider order id and doubles as the idempotency key
// for the approval step.
type CheckoutSession struct {
	ID               string
	UserID           string
	Kind             domain.PurchaseKind
	Status           domain.CheckoutStatus
	OrderID          sql.NullString
	PaymentKey       sql.NullString
	Amount           int64
	ShippingJSON     []byte
	ContextJSON      []byte
	CompletedPayload []byte
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type OutboxEvent struct {
	ID        int64
	SessionID string
	Payload   []byte
	CreatedAt time.Time
}

type SessionRepo interface {
	Close() error
	RunMigrations(migrationsDirPath string) error
	CreateSession(ctx context.Context, session *CheckoutSession) error
	GetSession(ctx context.Context, id string) (*CheckoutSession, error)
	GetSessionByOrderID(ctx context.Context, orderID string) (*CheckoutSession, error)
	UpdateStatus(ctx context.Context, id string, status domain.CheckoutStatus) error
	SetOrder(ctx context.Context, id string, status domain.CheckoutStatus, orderID string) error
	SetPayment(ctx context.Context, id string, status domain.CheckoutStatus, paymentKey string) error
	CompleteSession(ctx context.Context, id string, payload []byte) error
	GetUnprocessedEvents(ctx context.Context, limit int) ([]*OutboxEvent, error)
	MarkEventAsProcessed(ctx context.Context, id int64) error
	GetStuckSessions(ctx context.Context) ([]*CheckoutSession, error)
}

type Repository struct {
	db     *sql.DB
	driver string
}

// NewRepository opens the session store. Driver is "postgres" in production
// and "sqlite" in tests, mirroring the two storage paths the migrations ship
// for.
func NewRepository(driver, dataSourceName string) (*Repository, error) {
	db, err := sql.Open(driver, dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if e2 := db.Ping(); e2 != nil {
		return nil, fmt.Errorf("failed to ping database: %w", e2)
	}

	if driver == "postgres" {
		db.SetMaxOpenConns(100)
		db.SetMaxIdleConns(10)
	}

	return &Repository{db: db, driver: driver}, nil
}

func (r *Repository) RunMigrations(migrationsDirPath string) error {
	var (
		m   *migrate.Migrate
		err error
	)

	switch r.driver {
	case "postgres":
		pgDriver, e := migratepg.WithInstance(r.db, &migratepg.Config{
			MigrationsTable: "checkout_schema_migrations",
		})
		if e != nil {
			return fmt.Errorf("could not create migration driver: %w", e)
		}
		m, err = migrate.NewWithDatabaseInstance(
			fmt.Sprintf("file://%s/postgres", migrationsDirPath), "postgres", pgDriver)
	default:
		liteDriver, e := migratesqlite.WithInstance(r.db, &migratesqlite.Config{})
		if e != nil {
			return fmt.Errorf("could not create migration driver: %w", e)
		}
		m, err = migrate.NewWithDatabaseInstance(
			fmt.Sprintf("file://%s/sqlite", migrationsDirPath), "sqlite", liteDriver)
	}
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if e2 := m.Up(); e2 != nil && !errors.Is(e2, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", e2)
	}

	return nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}

// rebind rewrites ? placeholders to $N for postgres; sqlite takes ? as is.
func (r *Repository) rebind(query string) string {
	if r.driver != "postgres" {
		return query
	}
	var b strings.Builder
	n := 0
	for _, c := range query {
		if c == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(c)
	}
	return b.String()
}

func (r *Repository) CreateSession(ctx context.Context, s *CheckoutSession) error {
	now := time.Now().UTC()
	s.CreatedAt = now
	s.UpdatedAt = now

	query := r.rebind(`INSERT INTO checkout_sessions
		(id, user_id, kind, status, order_id, payment_key, amount, shipping, context, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)

	_, err := r.db.ExecContext(ctx, query,
		s.ID, s.UserID, string(s.Kind), s.Status.String(), s.OrderID, s.PaymentKey,
		s.Amount, string(s.ShippingJSON), string(s.ContextJSON), s.CreatedAt, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create checkout session: %w", err)
	}
	return nil
}

const sessionColumns = `id, user_id, kind, status, order_id, payment_key, amount,
	shipping, context, completed_payload, created_at, updated_at`

func (r *Repository) GetSession(ctx context.Context, id string) (*CheckoutSession, error) {
	query := r.rebind(`SELECT ` + sessionColumns + ` FROM checkout_sessions WHERE id = ?`)
	return r.scanSession(r.db.QueryRowContext(ctx, query, id), ErrSessionNotFound)
}

func (r *Repository) GetSessionByOrderID(ctx context.Context, orderID string) (*CheckoutSession, error) {
	query := r.rebind(`SELECT ` + sessionColumns + ` FROM checkout_sessions WHERE order_id = ?`)
	return r.scanSession(r.db.QueryRowContext(ctx, query, orderID), ErrOrderIDNotFound)
}

func (r *Repository) scanSession(row *sql.Row, notFound error) (*CheckoutSession, error) {
	var (
		s                     CheckoutSession
		kind, status          string
		shipping, contextJSON string
		completedPayload      sql.NullString
	)
	err := row.Scan(&s.ID, &s.UserID, &kind, &status, &s.OrderID, &s.PaymentKey,
		&s.Amount, &shipping, &contextJSON, &completedPayload, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan checkout session: %w", err)
	}
	s.Kind = domain.PurchaseKind(kind)
	s.Status = domain.CheckoutStatus(status)
	s.ShippingJSON = []byte(shipping)
	s.ContextJSON = []byte(contextJSON)
	if completedPayload.Valid {
		s.CompletedPayload = []byte(completedPayload.String)
	}
	return &s, nil
}

func (r *Repository) UpdateStatus(ctx context.Context, id string, status domain.CheckoutStatus) error {
	query := r.rebind(`UPDATE checkout_sessions SET status = ?, updated_at = ? WHERE id = ?`)
	result, err := r.db.ExecContext(ctx, query, status.String(), time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update session status: %w", err)
	}
	return requireRow(result)
}

func (r *Repository) SetOrder(ctx context.Context, id string, status domain.CheckoutStatus, orderID string) error {
	query := r.rebind(`UPDATE checkout_sessions SET status = ?, order_id = ?, updated_at = ? WHERE id = ?`)
	result, err := r.db.ExecContext(ctx, query, status.String(), orderID, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to set session order: %w", err)
	}
	return requireRow(result)
}

func (r *Repository) SetPayment(ctx context.Context, id string, status domain.CheckoutStatus, paymentKey string) error {
	query := r.rebind(`UPDATE checkout_sessions SET status = ?, payment_key = ?, updated_at = ? WHERE id = ?`)
	result, err := r.db.ExecContext(ctx, query, status.String(), paymentKey, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to set session payment: %w", err)
	}
	return requireRow(result)
}

// CompleteSession marks the session COMPLETED and writes the outbox event in
// the same transaction, so a completed checkout always has an event to
// publish.
func (r *Repository) CompleteSession(ctx context.Context, id string, payload []byte) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()

	updateQuery := r.rebind(`UPDATE checkout_sessions
		SET status = ?, completed_payload = ?, updated_at = ? WHERE id = ?`)
	result, err := tx.ExecContext(ctx, updateQuery,
		domain.CheckoutStatusCompleted.String(), string(payload), now, id)
	if err != nil {
		return fmt.Errorf("failed to complete session: %w", err)
	}
	if err := requireRow(result); err != nil {
		return err
	}

	insertQuery := r.rebind(`INSERT INTO checkout_outbox (session_id, payload, created_at)
		VALUES (?, ?, ?)`)
	if _, err := tx.ExecContext(ctx, insertQuery, id, string(payload), now); err != nil {
		return fmt.Errorf("failed to insert outbox event: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit completion: %w", err)
	}
	return nil
}

func (r *Repository) GetUnprocessedEvents(ctx context.Context, limit int) ([]*OutboxEvent, error) {
	query := r.rebind(`SELECT id, session_id, payload, created_at FROM checkout_outbox
		WHERE processed_at IS NULL ORDER BY id LIMIT ?`)
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query outbox: %w", err)
	}
	defer rows.Close()

	var events []*OutboxEvent
	for rows.Next() {
		var (
			ev      OutboxEvent
			payload string
		)
		if err := rows.Scan(&ev.ID, &ev.SessionID, &payload, &ev.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan outbox event: %w", err)
		}
		ev.Payload = []byte(payload)
		events = append(events, &ev)
	}
	return events, rows.Err()
}

func (r *Repository) MarkEventAsProcessed(ctx context.Context, id int64) error {
	query := r.rebind(`UPDATE checkout_outbox SET processed_at = ? WHERE id = ?`)
	result, err := r.db.ExecContext(ctx, query, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to mark event as processed: %w", err)
	}
	return requireRow(result)
}

// GetStuckSessions finds COMPLETED sessions that have no outbox event at all,
// which can only happen if an old write path crashed between the two
// statements before completion became transactional.
func (r *Repository) GetStuckSessions(ctx context.Context) ([]*CheckoutSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM checkout_sessions s
		WHERE s.status = 'COMPLETED'
		  AND NOT EXISTS (SELECT 1 FROM checkout_outbox o WHERE o.session_id = s.id)`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query stuck sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*CheckoutSession
	for rows.Next() {
		var (
			s                     CheckoutSession
			kind, status          string
			shipping, contextJSON string
			completedPayload      sql.NullString
		)
		if err := rows.Scan(&s.ID, &s.UserID, &kind, &status, &s.OrderID, &s.PaymentKey,
			&s.Amount, &shipping, &contextJSON, &completedPayload, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan stuck session: %w", err)
		}
		s.Kind = domain.PurchaseKind(kind)
		s.Status = domain.CheckoutStatus(status)
		s.ShippingJSON = []byte(shipping)
		s.ContextJSON = []byte(contextJSON)
		if completedPayload.Valid {
			s.CompletedPayload = []byte(completedPayload.String)
		}
		sessions = append(sessions, &s)
	}
	return sessions, rows.Err()
}

func requireRow(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return ErrSessionNotFound
	}
	return nil
}
