package dto

import (
	"time"

	"github.com/subkit/subkit/internal/domain/invoice"
	"github.com/subkit/subkit/internal/domain/subscription"
	"github.com/subkit/subkit/internal/validator"
)

// CreateSubscriptionRequest starts a new subscription lineage
type CreateSubscriptionRequest struct {
	CustomerID      string     `json:"customer_id" validate:"required"`
	PackageID       string     `json:"package_id" validate:"required"`
	SourceID        string     `json:"source_id" validate:"required"`
	Currency        string     `json:"currency" validate:"required,len=3"`
	CustomerPresent bool       `json:"customer_present"`
	SuccessURL      string     `json:"success_url" validate:"omitempty,url"`
	ErrorURL        string     `json:"error_url" validate:"omitempty,url"`
	Start           *time.Time `json:"start"`
}

func (r *CreateSubscriptionRequest) Validate() error {
	return validator.ValidateRequest(r)
}

// CancelSubscriptionRequest stops a term from renewing
type CancelSubscriptionRequest struct {
	Reason string `json:"reason" validate:"omitempty,max=150"`
}

func (r *CancelSubscriptionRequest) Validate() error {
	return validator.ValidateRequest(r)
}

// TerminateSubscriptionRequest ends a term immediately
type TerminateSubscriptionRequest struct {
	Reason string `json:"reason" validate:"omitempty,max=150"`
}

func (r *TerminateSubscriptionRequest) Validate() error {
	return validator.ValidateRequest(r)
}

// SwapSubscriptionRequest queues a package change for the next renewal
type SwapSubscriptionRequest struct {
	PackageID   string `json:"package_id" validate:"required"`
	Immediately bool   `json:"immediately"`
}

func (r *SwapSubscriptionRequest) Validate() error {
	return validator.ValidateRequest(r)
}

// SetAutoRenewRequest toggles a term's automatic renewal
type SetAutoRenewRequest struct {
	AutomaticRenew *bool `json:"automatic_renew" validate:"required"`
}

func (r *SetAutoRenewRequest) Validate() error {
	return validator.ValidateRequest(r)
}

// SubscriptionResponse wraps an instance for the API
type SubscriptionResponse struct {
	*subscription.Instance
}

// CreateSubscriptionResponse carries the created instance along with the
// outcome of the initial charge attempt. RedirectURL is set when the payer
// must complete payment interactively.
type CreateSubscriptionResponse struct {
	*subscription.Instance
	ChargeState invoice.ChargeState `json:"charge_state,omitempty"`
	RedirectURL string              `json:"redirect_url,omitempty"`
}

// IsSubscribedResponse reports a customer's subscription state
type IsSubscribedResponse struct {
	Subscribed bool `json:"subscribed"`
}

// ProcessRenewalsRequest drives the renewal batch for one date
type ProcessRenewalsRequest struct {
	Date           *time.Time `json:"date"`
	OnlyDueToRenew bool       `json:"only_due_to_renew"`
}

func (r *ProcessRenewalsRequest) Validate() error {
	return validator.ValidateRequest(r)
}

// RenewalResult records the outcome of one instance's renewal attempt
type RenewalResult struct {
	InstanceID    string `json:"instance_id"`
	NewInstanceID string `json:"new_instance_id,omitempty"`
	Outcome       string `json:"outcome"`
	Error         string `json:"error,omitempty"`
}

// ProcessRenewalsResponse summarizes a batch run
type ProcessRenewalsResponse struct {
	Date      string          `json:"date"`
	Processed int             `json:"processed"`
	Renewed   int             `json:"renewed"`
	Failed    int             `json:"failed"`
	Uncaught  int             `json:"uncaught"`
	Results   []RenewalResult `json:"results"`
}
