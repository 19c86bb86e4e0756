package service

import (
	"encoding/json"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/subkit/subkit/internal/config"
	"github.com/subkit/subkit/internal/domain/invoice"
	ierr "github.com/subkit/subkit/internal/errors"
	"github.com/subkit/subkit/internal/logger"
	"github.com/subkit/subkit/internal/pubsub"
	pubsubRouter "github.com/subkit/subkit/internal/pubsub/router"
)

// InvoiceListener consumes invoice paid notifications and confirms the
// renewal of the instance each settled invoice billed. This is the
// asynchronous completion path for chain linking: redirect and
// delayed-settlement payments arrive here long after the renewal call
// returned.
type InvoiceListener struct {
	subscriptionService SubscriptionService
	subscriber          pubsub.Subscriber
	config              *config.Webhook
	logger              *logger.Logger
}

// NewInvoiceListener creates the invoice paid listener
func NewInvoiceListener(
	subs SubscriptionService,
	subscriber pubsub.Subscriber,
	cfg *config.Configuration,
	log *logger.Logger,
) *InvoiceListener {
	return &InvoiceListener{
		subscriptionService: subs,
		subscriber:          subscriber,
		config:              &cfg.Webhook,
		logger:              log,
	}
}

// RegisterHandler attaches the listener to the message router
func (l *InvoiceListener) RegisterHandler(router *pubsubRouter.Router) {
	router.AddNoPublishHandler(
		"invoice_paid_confirm_renewal",
		l.config.InvoicePaid,
		l.subscriber,
		l.processMessage,
	)
}

func (l *InvoiceListener) processMessage(msg *message.Message) error {
	var inv invoice.Invoice
	if err := json.Unmarshal(msg.Payload, &inv); err != nil {
		l.logger.Errorw("failed to unmarshal settled invoice",
			"error", err,
			"message_id", msg.UUID)
		// malformed payloads cannot be retried into shape
		return nil
	}

	item := inv.InstanceItem()
	if item == nil {
		// the invoice carries no subscription line item; nothing to confirm
		l.logger.Debugw("settled invoice has no subscription item", "invoice_id", inv.ID)
		return nil
	}

	if item.CallbackData.Type != invoice.CallbackTypeRenewal {
		// initial-term invoices settle the instance's first charge; only
		// renewal-typed items have a chain link waiting to be confirmed
		l.logger.Debugw("settled invoice billed an initial term, nothing to confirm",
			"invoice_id", inv.ID,
			"instance_id", item.CallbackData.InstanceID)
		return nil
	}

	l.logger.Infow("confirming renewal for settled invoice",
		"invoice_id", inv.ID,
		"instance_id", item.CallbackData.InstanceID)

	err := l.subscriptionService.ConfirmRenewal(msg.Context(), item.CallbackData.InstanceID)
	if err != nil {
		if ierr.IsFailedToRenew(err) || ierr.IsNotFound(err) {
			// the engine has already logged and evented the failure; a
			// redelivery would reach the same verdict
			return nil
		}
		return err
	}

	return nil
}
