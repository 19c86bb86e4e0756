// Package invoicing provides the default implementation of the invoicing
// bridge the subscription engine bills through. Host applications with their
// own accounts system can replace it by binding a different invoice.Bridge.
package invoicing

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/subkit/subkit/internal/config"
	"github.com/subkit/subkit/internal/domain/invoice"
	ierr "github.com/subkit/subkit/internal/errors"
	"github.com/subkit/subkit/internal/logger"
	"github.com/subkit/subkit/internal/pubsub"
	"github.com/subkit/subkit/internal/types"
)

type bridge struct {
	repo      invoice.Repository
	gateway   invoice.Gateway
	publisher pubsub.Publisher
	config    *config.Webhook
	logger    *logger.Logger
}

// NewBridge creates the default invoicing bridge over an invoice repository
// and a payment gateway. Settled invoices are announced on the invoice paid
// topic so renewal confirmation can run asynchronously.
func NewBridge(
	repo invoice.Repository,
	gateway invoice.Gateway,
	publisher pubsub.Publisher,
	cfg *config.Configuration,
	log *logger.Logger,
) invoice.Bridge {
	return &bridge{
		repo:      repo,
		gateway:   gateway,
		publisher: publisher,
		config:    &cfg.Webhook,
		logger:    log,
	}
}

func (b *bridge) RaiseInvoice(ctx context.Context, req invoice.RaiseRequest) (*invoice.Invoice, error) {
	if req.CustomerID == "" {
		return nil, ierr.NewError("customer is required to raise an invoice").
			WithHint("Customer is required to raise an invoice").
			Mark(ierr.ErrValidation)
	}

	invoiceID := types.GenerateUUIDWithPrefix(types.UUID_PREFIX_INVOICE)
	cb := req.CallbackData

	inv := &invoice.Invoice{
		ID:            invoiceID,
		CustomerID:    req.CustomerID,
		Currency:      req.Currency,
		PaymentStatus: types.PaymentStatusPending,
		DueAt:         req.DueAt,
		LineItems: []*invoice.LineItem{
			{
				ID:           types.GenerateUUIDWithPrefix(types.UUID_PREFIX_LINE_ITEM),
				InvoiceID:    invoiceID,
				Label:        req.Label,
				Amount:       req.Amount,
				CallbackData: &cb,
			},
		},
		BaseModel: types.GetDefaultBaseModel(ctx),
	}

	if err := b.repo.Create(ctx, inv); err != nil {
		return nil, err
	}

	b.logger.Infow("raised invoice",
		"invoice_id", inv.ID,
		"customer_id", inv.CustomerID,
		"amount", req.Amount.String(),
		"due_at", req.DueAt)

	return inv, nil
}

func (b *bridge) ChargeInvoice(ctx context.Context, inv *invoice.Invoice, req invoice.ChargeRequest) (invoice.ChargeOutcome, error) {
	req.InvoiceID = inv.ID

	outcome, err := b.gateway.Charge(ctx, req)
	if err != nil {
		return invoice.ChargeOutcome{}, err
	}

	settled := false
	switch outcome.State {
	case invoice.ChargeStateComplete:
		now := time.Now().UTC()
		inv.PaymentStatus = types.PaymentStatusPaid
		inv.PaidAt = &now
		settled = true
	case invoice.ChargeStateProcessing:
		inv.PaymentStatus = types.PaymentStatusPaidProcessing
		settled = true
	case invoice.ChargeStateFailed:
		inv.PaymentStatus = types.PaymentStatusFailed
	case invoice.ChargeStateRedirect:
		// payment is incomplete, not failed; the invoice stays pending
		// until the payer returns
	}

	if err := b.repo.Update(ctx, inv); err != nil {
		return invoice.ChargeOutcome{}, err
	}

	b.logger.Infow("charged invoice",
		"invoice_id", inv.ID,
		"state", outcome.State,
		"payment_status", inv.PaymentStatus)

	if settled {
		b.announcePaid(ctx, inv)
	}

	return outcome, nil
}

func (b *bridge) GetInvoice(ctx context.Context, id string) (*invoice.Invoice, error) {
	return b.repo.Get(ctx, id)
}

func (b *bridge) MarkZeroValuePaid(ctx context.Context, inv *invoice.Invoice) error {
	if !inv.Total().IsZero() {
		return ierr.NewError("invoice has a non zero balance").
			WithHint("Only zero value invoices can be settled without payment").
			WithReportableDetails(map[string]any{
				"invoice_id": inv.ID,
				"total":      inv.Total().String(),
			}).
			Mark(ierr.ErrInvalidOperation)
	}

	now := time.Now().UTC()
	inv.PaymentStatus = types.PaymentStatusPaid
	inv.PaidAt = &now

	if err := b.repo.Update(ctx, inv); err != nil {
		return err
	}

	b.announcePaid(ctx, inv)
	return nil
}

// announcePaid publishes the settled invoice on the invoice paid topic. The
// announcement is best effort; settlement itself has already been recorded.
func (b *bridge) announcePaid(ctx context.Context, inv *invoice.Invoice) {
	raw, err := json.Marshal(inv)
	if err != nil {
		b.logger.Errorw("failed to marshal settled invoice", "error", err, "invoice_id", inv.ID)
		return
	}

	msg := message.NewMessage(types.GenerateUUID(), raw)
	if err := b.publisher.Publish(ctx, b.config.InvoicePaid, msg); err != nil {
		b.logger.Errorw("failed to announce settled invoice",
			"error", err,
			"invoice_id", inv.ID,
			"topic", b.config.InvoicePaid)
	}
}
