// Package payload defines the bodies carried by webhook events and the
// helper that wraps them into envelope form.
package payload

import (
	"context"
	"encoding/json"
	"time"

	"github.com/subkit/subkit/internal/domain/invoice"
	"github.com/subkit/subkit/internal/domain/subscription"
	ierr "github.com/subkit/subkit/internal/errors"
	"github.com/subkit/subkit/internal/types"
)

// InstancePayload carries a single instance, used by the created, cancelled,
// restored, terminated and swapped events
type InstancePayload struct {
	Instance *subscription.Instance `json:"instance"`
}

// InstanceModifiedPayload carries the before and after images of a mutation
type InstanceModifiedPayload struct {
	Before *subscription.Instance `json:"before"`
	After  *subscription.Instance `json:"after"`
}

// RenewalPayload carries the instances involved in a renewal outcome. New is
// nil when the renewal failed before a successor was created, and Error is
// empty on success.
type RenewalPayload struct {
	Old   *subscription.Instance `json:"old"`
	New   *subscription.Instance `json:"new,omitempty"`
	Error string                 `json:"error,omitempty"`
}

// InvoicePaymentPayload carries a settled invoice
type InvoicePaymentPayload struct {
	Invoice *invoice.Invoice `json:"invoice"`
}

// NewWebhookEvent wraps a payload body into the event envelope
func NewWebhookEvent(ctx context.Context, eventName string, body any) (*types.WebhookEvent, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to serialize webhook payload").
			Mark(ierr.ErrSystem)
	}

	return &types.WebhookEvent{
		ID:        types.GenerateUUIDWithPrefix(types.UUID_PREFIX_WEBHOOK_EVENT),
		EventName: eventName,
		UserID:    types.GetUserID(ctx),
		Timestamp: time.Now().UTC(),
		Payload:   raw,
	}, nil
}
