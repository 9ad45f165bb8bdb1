package order

import (
	"context"
	"errors"
	"time"
)

// PaymentStatus tracks the payment lifecycle of an order. The state machine
// is pending -> paid (terminal) or pending -> failed; a failed order returns
// to pending only through a fresh payment initialisation that assigns a new
// reference. Once paid, no transition is valid.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
	PaymentFailed  PaymentStatus = "failed"
)

// Order mirrors the orders table. TotalAmount is stored in minor currency
// units (kobo/cents).
type Order struct {
	ID               string
	OrderNumber      string
	Email            string
	TotalAmount      int64
	Currency         string
	PaymentStatus    PaymentStatus
	PaymentProvider  string
	PaymentReference string
	PaidAt           *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

var (
	// ErrNotFound is returned when no order matches the given id or reference.
	ErrNotFound = errors.New("order not found")
	// ErrReferenceTaken is returned when an order already carries a payment
	// reference from a completed or in-flight attempt.
	ErrReferenceTaken = errors.New("order already has an active payment reference")
)

// Store is the order persistence contract consumed by the payment service.
type Store interface {
	GetByID(ctx context.Context, id string) (Order, error)
	GetByReference(ctx context.Context, reference string) (Order, error)

	// ClaimReference atomically assigns a payment reference and provider to
	// an order that has no active attempt (unset reference, or a previous
	// failed attempt) and resets its payment status to pending. It returns
	// ErrReferenceTaken when another attempt already holds the order.
	ClaimReference(ctx context.Context, id, provider, reference string) error

	// MarkPaid performs the conditional pending -> paid transition and
	// reports whether this call performed it. Zero rows affected means the
	// order was already paid and must be treated as idempotent success.
	MarkPaid(ctx context.Context, id string, paidAt time.Time) (bool, error)

	// MarkFailed performs the conditional pending -> failed transition. A
	// paid order is never downgraded.
	MarkFailed(ctx context.Context, id string) (bool, error)

	// RecordEvent appends to the immutable payment_events log.
	RecordEvent(ctx context.Context, ev Event) error
}

// Event is one row of the append-only payment audit log: every initialize
// and every verify outcome leaves a record with the raw provider payload so
// money movement can be reconciled manually if needed.
type Event struct {
	OrderID   string
	Provider  string
	Reference string
	Status    string
	Payload   []byte
}
