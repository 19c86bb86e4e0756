package invoice

import "context"

// ChargeState is the terminal state of a single charge attempt
type ChargeState string

const (
	// ChargeStateComplete indicates the charge settled synchronously
	ChargeStateComplete ChargeState = "complete"
	// ChargeStateProcessing indicates the charge was accepted and will
	// settle asynchronously; a payment event will follow
	ChargeStateProcessing ChargeState = "processing"
	// ChargeStateRedirect indicates the payer must complete the charge
	// off-session, e.g. 3-D Secure
	ChargeStateRedirect ChargeState = "redirect"
	// ChargeStateFailed indicates the charge was declined
	ChargeStateFailed ChargeState = "failed"
)

// ChargeRequest describes one attempt to collect payment for an invoice
type ChargeRequest struct {
	// InvoiceID is the invoice being collected
	InvoiceID string `json:"invoice_id"`

	// SourceID is the payment source to charge
	SourceID string `json:"source_id"`

	// OffSession forces the charge to run without payer interaction;
	// gateways must decline rather than redirect when set
	OffSession bool `json:"off_session"`

	// SuccessURL is where the payer lands after completing a redirect
	SuccessURL string `json:"success_url,omitempty"`

	// ErrorURL is where the payer lands after abandoning a redirect
	ErrorURL string `json:"error_url,omitempty"`
}

// ChargeOutcome is the result of a charge attempt. It is a plain value:
// callers branch on State rather than on error types, and a declined charge
// is an outcome, not an error.
type ChargeOutcome struct {
	// State is the terminal state of the attempt
	State ChargeState `json:"state"`

	// RedirectURL is where to send the payer when State is redirect
	RedirectURL string `json:"redirect_url,omitempty"`

	// DeclineReason is the gateway's reason when State is failed
	DeclineReason string `json:"decline_reason,omitempty"`
}

// IsComplete reports whether the charge settled synchronously
func (o ChargeOutcome) IsComplete() bool {
	return o.State == ChargeStateComplete
}

// RequiresRedirect reports whether the payer must act before the charge
// can settle
func (o ChargeOutcome) RequiresRedirect() bool {
	return o.State == ChargeStateRedirect
}

// Gateway collects payment for invoices against stored sources
type Gateway interface {
	// Charge attempts to collect the invoice's balance from the given
	// source. Declines are reported through the outcome, not the error;
	// the error is reserved for infrastructure failures.
	Charge(ctx context.Context, req ChargeRequest) (ChargeOutcome, error)
}
