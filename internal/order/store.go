package order

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PG implements Store on a pgx connection pool.
type PG struct {
	Pool *pgxpool.Pool
}

const orderColumns = `id, order_number, email, total_amount, currency, payment_status,
	COALESCE(payment_provider, ''), COALESCE(payment_reference, ''), paid_at, created_at, updated_at`

func (s PG) GetByID(ctx context.Context, id string) (Order, error) {
	row := s.Pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	return scanOrder(row)
}

func (s PG) GetByReference(ctx context.Context, reference string) (Order, error) {
	row := s.Pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE payment_reference = $1`, reference)
	return scanOrder(row)
}

func (s PG) ClaimReference(ctx context.Context, id, provider, reference string) error {
	tag, err := s.Pool.Exec(ctx, `
		UPDATE orders
		SET payment_provider = $2,
		    payment_reference = $3,
		    payment_status = 'pending',
		    updated_at = now()
		WHERE id = $1
		  AND (payment_reference IS NULL OR payment_reference = '' OR payment_status = 'failed')`,
		id, provider, reference)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		if _, err := s.GetByID(ctx, id); err != nil {
			return err
		}
		return ErrReferenceTaken
	}
	return nil
}

func (s PG) MarkPaid(ctx context.Context, id string, paidAt time.Time) (bool, error) {
	tag, err := s.Pool.Exec(ctx, `
		UPDATE orders
		SET payment_status = 'paid', paid_at = $2, updated_at = now()
		WHERE id = $1 AND payment_status = 'pending'`,
		id, paidAt)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (s PG) MarkFailed(ctx context.Context, id string) (bool, error) {
	tag, err := s.Pool.Exec(ctx, `
		UPDATE orders
		SET payment_status = 'failed', updated_at = now()
		WHERE id = $1 AND payment_status = 'pending'`,
		id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (s PG) RecordEvent(ctx context.Context, ev Event) error {
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO payment_events (order_id, provider, reference, status, payload)
		VALUES ($1, $2, $3, $4, $5)`,
		ev.OrderID, ev.Provider, ev.Reference, ev.Status, ev.Payload)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (Order, error) {
	var o Order
	err := row.Scan(
		&o.ID, &o.OrderNumber, &o.Email, &o.TotalAmount, &o.Currency, &o.PaymentStatus,
		&o.PaymentProvider, &o.PaymentReference, &o.PaidAt, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Order{}, ErrNotFound
		}
		return Order{}, err
	}
	return o, nil
}
