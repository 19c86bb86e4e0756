package invoice

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Repository provides access to invoices
type Repository interface {
	Create(ctx context.Context, inv *Invoice) error
	Get(ctx context.Context, id string) (*Invoice, error)
	ListByCustomer(ctx context.Context, customerID string) ([]*Invoice, error)
	Update(ctx context.Context, inv *Invoice) error
}

// Bridge is the subscription engine's view of the invoicing system. The
// engine never writes invoices directly; every invoice side effect goes
// through the bridge so that a host application can substitute its own
// accounts implementation.
type Bridge interface {
	// RaiseInvoice creates a pending invoice carrying a single line item
	// with the given callback data
	RaiseInvoice(ctx context.Context, req RaiseRequest) (*Invoice, error)

	// ChargeInvoice attempts to collect an invoice from a payment source
	ChargeInvoice(ctx context.Context, inv *Invoice, req ChargeRequest) (ChargeOutcome, error)

	// GetInvoice fetches an invoice by ID
	GetInvoice(ctx context.Context, id string) (*Invoice, error)

	// MarkZeroValuePaid settles a zero value invoice without touching the
	// payment gateway
	MarkZeroValuePaid(ctx context.Context, inv *Invoice) error
}

// RaiseRequest describes an invoice to be raised for one subscription term
type RaiseRequest struct {
	// CustomerID is the customer to bill
	CustomerID string

	// Currency is the invoice currency
	Currency string

	// Label is the line item description
	Label string

	// Amount is the line item price
	Amount decimal.Decimal

	// DueAt is when payment falls due, normally the start of the term
	// being billed
	DueAt time.Time

	// CallbackData routes payment events for the raised item
	CallbackData CallbackData
}
