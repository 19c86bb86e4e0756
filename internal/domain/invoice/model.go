package invoice

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/subkit/subkit/internal/types"
)

const (
	// CallbackIdentifier marks a line item as belonging to the subscription
	// engine; payment callbacks only act on items carrying it
	CallbackIdentifier = "INSTANCE_PAYMENT"

	// CallbackTypeInitial marks the invoice for the first term in a lineage
	CallbackTypeInitial = "INSTANCE_INITIAL"

	// CallbackTypeRenewal marks the invoice for a renewal term
	CallbackTypeRenewal = "INSTANCE_RENEWAL"
)

// CallbackData is attached to a line item so that payment events flowing
// back from the invoicing system can be routed to the instance that raised
// the item.
type CallbackData struct {
	// Identifier distinguishes subscription line items from anything else
	// on the invoice
	Identifier string `json:"identifier"`

	// Type records whether the item billed an initial term or a renewal
	Type string `json:"type"`

	// InstanceID is the subscription instance the item was raised for
	InstanceID string `json:"instance_id"`
}

// LineItem is a single billable line on an invoice
type LineItem struct {
	// ID is the unique identifier for the line item
	ID string `db:"id" json:"id"`

	// InvoiceID is the invoice the item belongs to
	InvoiceID string `db:"invoice_id" json:"invoice_id"`

	// Label is the display description of the item
	Label string `db:"label" json:"label"`

	// Amount is the price of the item in the invoice's currency
	Amount decimal.Decimal `db:"amount" json:"amount"`

	// CallbackData routes payment events for this item, if set
	CallbackData *CallbackData `db:"callback_data" json:"callback_data"`

	types.BaseModel
}

// Invoice is a demand for payment raised against a customer
type Invoice struct {
	// ID is the unique identifier for the invoice
	ID string `db:"id" json:"id"`

	// CustomerID is the customer the invoice is addressed to
	CustomerID string `db:"customer_id" json:"customer_id"`

	// Currency is the lowercase 3 letter ISO code the invoice is
	// denominated in
	Currency string `db:"currency" json:"currency"`

	// PaymentStatus is the settlement state of the invoice
	PaymentStatus types.PaymentStatus `db:"payment_status" json:"payment_status"`

	// DueAt is when payment falls due
	DueAt time.Time `db:"due_at" json:"due_at"`

	// PaidAt is when the invoice settled, if it has
	PaidAt *time.Time `db:"paid_at" json:"paid_at"`

	// LineItems are the billable lines on the invoice
	LineItems []*LineItem `json:"line_items"`

	types.BaseModel
}

// Total is the sum of the invoice's line item amounts
func (i *Invoice) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range i.LineItems {
		total = total.Add(item.Amount)
	}
	return total
}

// IsPaid reports whether the invoice has settled
func (i *Invoice) IsPaid() bool {
	return i.PaymentStatus.IsSettled()
}

// InstanceItem returns the line item carrying subscription callback data,
// or nil if the invoice has none. Matching is strictly on the callback
// identifier; items without callback data are skipped.
func (i *Invoice) InstanceItem() *LineItem {
	for _, item := range i.LineItems {
		if item.CallbackData != nil && item.CallbackData.Identifier == CallbackIdentifier {
			return item
		}
	}
	return nil
}
