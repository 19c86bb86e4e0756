package types

import (
	ierr "github.com/subkit/subkit/internal/errors"
)

// PaymentStatus is the lifecycle state of an invoice's payment
type PaymentStatus string

const (
	// PaymentStatusPending indicates the invoice has been raised but no
	// charge has settled yet
	PaymentStatusPending PaymentStatus = "pending"
	// PaymentStatusPaid indicates the invoice has been settled in full
	PaymentStatusPaid PaymentStatus = "paid"
	// PaymentStatusPaidProcessing indicates a charge is in flight and is
	// expected to settle asynchronously
	PaymentStatusPaidProcessing PaymentStatus = "paid_processing"
	// PaymentStatusFailed indicates the most recent charge attempt was
	// declined
	PaymentStatusFailed PaymentStatus = "failed"
	// PaymentStatusVoid indicates the invoice was written off
	PaymentStatusVoid PaymentStatus = "void"
)

func (s PaymentStatus) String() string {
	return string(s)
}

func (s PaymentStatus) Validate() error {
	allowed := []PaymentStatus{
		PaymentStatusPending,
		PaymentStatusPaid,
		PaymentStatusPaidProcessing,
		PaymentStatusFailed,
		PaymentStatusVoid,
	}
	for _, status := range allowed {
		if s == status {
			return nil
		}
	}
	return ierr.NewError("invalid payment status").
		WithHint("Invalid payment status").
		WithReportableDetails(map[string]any{
			"payment_status": s,
			"allowed":        allowed,
		}).
		Mark(ierr.ErrValidation)
}

// IsSettled reports whether the status counts as paid for the purposes of
// confirming a renewal. A charge in flight counts: the gateway has accepted
// it and settlement is expected.
func (s PaymentStatus) IsSettled() bool {
	return s == PaymentStatusPaid || s == PaymentStatusPaidProcessing
}
