// Package postgres implements the checkout session ledger on PostgreSQL.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/hienohelma/storefront/internal/domain"
	"github.com/hienohelma/storefront/pkg/database"
	apperrors "github.com/hienohelma/storefront/pkg/errors"
)

const sessionColumns = `id, cart_id, customer_id, provider, status, items,
			original_total, discount_total, total_amount, currency,
			redirect_url, provider_ref, failure_reason, payment,
			customer, shipment, created_at, updated_at`

// CheckoutRepository implements repository.CheckoutRepository using PostgreSQL.
type CheckoutRepository struct {
	db database.DBTX
}

// NewCheckoutRepository creates a new PostgreSQL-backed checkout repository.
func NewCheckoutRepository(db database.DBTX) *CheckoutRepository {
	return &CheckoutRepository{db: db}
}

// Create inserts a new checkout session into the database.
func (r *CheckoutRepository) Create(ctx context.Context, session *domain.CheckoutSession) error {
	itemsJSON, err := json.Marshal(session.Items)
	if err != nil {
		return fmt.Errorf("marshal items: %w", err)
	}
	paymentJSON, err := marshalPayment(session.Payment)
	if err != nil {
		return err
	}
	customerJSON, err := marshalOptional("customer", session.Customer)
	if err != nil {
		return err
	}
	shipmentJSON, err := marshalOptional("shipment", session.Shipment)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO checkout_sessions (` + sessionColumns + `
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9, $10,
			$11, $12, $13, $14,
			$15, $16, $17, $18
		)`

	_, err = r.db.Exec(ctx, query,
		session.ID,
		session.CartID,
		nullableString(session.CustomerID),
		string(session.Provider),
		session.Status,
		itemsJSON,
		session.OriginalTotal,
		session.DiscountTotal,
		session.TotalAmount,
		session.Currency,
		nullableString(session.RedirectURL),
		nullableString(session.ProviderRef),
		nullableString(session.FailureReason),
		paymentJSON,
		customerJSON,
		shipmentJSON,
		session.CreatedAt,
		session.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert checkout session: %w", err)
	}

	return nil
}

// GetByID retrieves a checkout session by its ID.
func (r *CheckoutRepository) GetByID(ctx context.Context, id string) (*domain.CheckoutSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM checkout_sessions WHERE id = $1`

	session, err := scanSession(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("checkout_session", id)
		}
		return nil, err
	}
	return session, nil
}

// Update stores the provider outcome of a checkout session.
func (r *CheckoutRepository) Update(ctx context.Context, session *domain.CheckoutSession) error {
	paymentJSON, err := marshalPayment(session.Payment)
	if err != nil {
		return err
	}

	session.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE checkout_sessions
		SET status = $1, redirect_url = $2, provider_ref = $3,
			failure_reason = $4, payment = $5, updated_at = $6
		WHERE id = $7`

	ct, err := r.db.Exec(ctx, query,
		session.Status,
		nullableString(session.RedirectURL),
		nullableString(session.ProviderRef),
		nullableString(session.FailureReason),
		paymentJSON,
		session.UpdatedAt,
		session.ID,
	)
	if err != nil {
		return fmt.Errorf("update checkout session: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("checkout_session", session.ID)
	}

	return nil
}

// ListByCart returns the checkout sessions of a cart, newest first.
func (r *CheckoutRepository) ListByCart(ctx context.Context, cartID string) ([]domain.CheckoutSession, error) {
	query := `SELECT ` + sessionColumns + `
		FROM checkout_sessions
		WHERE cart_id = $1
		ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, cartID)
	if err != nil {
		return nil, fmt.Errorf("list checkout sessions: %w", err)
	}
	defer rows.Close()

	sessions := []domain.CheckoutSession{}
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate checkout session rows: %w", err)
	}

	return sessions, nil
}

// scanSession scans one checkout session from a row or rows result.
func scanSession(row pgx.Row) (*domain.CheckoutSession, error) {
	var (
		session       domain.CheckoutSession
		provider      string
		itemsJSON     []byte
		paymentJSON   []byte
		customerJSON  []byte
		shipmentJSON  []byte
		customerID    *string
		redirectURL   *string
		providerRef   *string
		failureReason *string
	)

	err := row.Scan(
		&session.ID,
		&session.CartID,
		&customerID,
		&provider,
		&session.Status,
		&itemsJSON,
		&session.OriginalTotal,
		&session.DiscountTotal,
		&session.TotalAmount,
		&session.Currency,
		&redirectURL,
		&providerRef,
		&failureReason,
		&paymentJSON,
		&customerJSON,
		&shipmentJSON,
		&session.CreatedAt,
		&session.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan checkout session: %w", err)
	}

	session.Provider = domain.PaymentMethod(provider)
	session.CustomerID = deref(customerID)
	session.RedirectURL = deref(redirectURL)
	session.ProviderRef = deref(providerRef)
	session.FailureReason = deref(failureReason)

	if len(itemsJSON) > 0 {
		if err := json.Unmarshal(itemsJSON, &session.Items); err != nil {
			return nil, fmt.Errorf("unmarshal items: %w", err)
		}
	}
	if session.Items == nil {
		session.Items = []domain.CheckoutItem{}
	}

	if len(paymentJSON) > 0 && string(paymentJSON) != "null" {
		var p domain.PaymentOptions
		if err := json.Unmarshal(paymentJSON, &p); err != nil {
			return nil, fmt.Errorf("unmarshal payment: %w", err)
		}
		session.Payment = &p
	}

	if len(customerJSON) > 0 && string(customerJSON) != "null" {
		var c domain.CustomerDetails
		if err := json.Unmarshal(customerJSON, &c); err != nil {
			return nil, fmt.Errorf("unmarshal customer: %w", err)
		}
		session.Customer = &c
	}
	if len(shipmentJSON) > 0 && string(shipmentJSON) != "null" {
		var sh domain.ShipmentSelection
		if err := json.Unmarshal(shipmentJSON, &sh); err != nil {
			return nil, fmt.Errorf("unmarshal shipment: %w", err)
		}
		session.Shipment = &sh
	}

	return &session, nil
}

func marshalPayment(p *domain.PaymentOptions) ([]byte, error) {
	if p == nil {
		return nil, nil
	}
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal payment: %w", err)
	}
	return data, nil
}

// marshalOptional encodes v as JSON, or returns nil for a nil pointer so the
// column stays NULL.
func marshalOptional[T any](name string, v *T) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", name, err)
	}
	return data, nil
}

// nullableString returns nil if the string is empty, otherwise a pointer to the string.
func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
