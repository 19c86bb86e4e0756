package types

import (
	"encoding/json"
	"time"
)

// WebhookEvent represents a webhook event to be delivered
type WebhookEvent struct {
	ID        string          `json:"id"`
	EventName string          `json:"event_name"`
	UserID    string          `json:"user_id"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

// instance lifecycle event names
const (
	WebhookEventInstanceCreated    = "subscription.instance.created"
	WebhookEventInstanceModified   = "subscription.instance.modified"
	WebhookEventInstanceCancelled  = "subscription.instance.cancelled"
	WebhookEventInstanceRestored   = "subscription.instance.restored"
	WebhookEventInstanceTerminated = "subscription.instance.terminated"
	WebhookEventInstanceSwapped    = "subscription.instance.swapped"
)

// renewal event names
const (
	WebhookEventRenewalShouldNotRenew    = "subscription.renewal.should_not_renew"
	WebhookEventRenewalCannotRenew       = "subscription.renewal.cannot_renew"
	WebhookEventRenewalFailed            = "subscription.renewal.failed"
	WebhookEventRenewalSucceeded         = "subscription.renewal.succeeded"
	WebhookEventRenewalUncaughtException = "subscription.renewal.uncaught_exception"
)

// invoice event names consumed by the engine
const (
	WebhookEventInvoicePaymentSucceeded = "invoice.payment.succeeded"
)
