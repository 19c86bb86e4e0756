package repository

import (
	"context"

	"github.com/subkit/subkit/internal/domain/invoice"
	"github.com/subkit/subkit/internal/logger"
)

type invoiceRepository struct {
	store  *InMemoryStore[*invoice.Invoice]
	logger *logger.Logger
}

// NewInvoiceRepository creates an in-memory invoice repository
func NewInvoiceRepository(log *logger.Logger) invoice.Repository {
	return &invoiceRepository{
		store:  NewInMemoryStore[*invoice.Invoice](),
		logger: log,
	}
}

func (r *invoiceRepository) Create(ctx context.Context, inv *invoice.Invoice) error {
	r.logger.Debugw("creating invoice", "invoice_id", inv.ID, "customer_id", inv.CustomerID)
	return r.store.Create(ctx, inv.ID, copyInvoice(inv))
}

func (r *invoiceRepository) Get(ctx context.Context, id string) (*invoice.Invoice, error) {
	inv, err := r.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return copyInvoice(inv), nil
}

func (r *invoiceRepository) ListByCustomer(ctx context.Context, customerID string) ([]*invoice.Invoice, error) {
	items, err := r.store.List(ctx, func(ctx context.Context, inv *invoice.Invoice) bool {
		return inv.CustomerID == customerID
	}, func(i, j *invoice.Invoice) bool {
		return i.DueAt.Before(j.DueAt)
	})
	if err != nil {
		return nil, err
	}
	result := make([]*invoice.Invoice, 0, len(items))
	for _, inv := range items {
		result = append(result, copyInvoice(inv))
	}
	return result, nil
}

func (r *invoiceRepository) Update(ctx context.Context, inv *invoice.Invoice) error {
	return r.store.Update(ctx, inv.ID, copyInvoice(inv))
}

func copyInvoice(inv *invoice.Invoice) *invoice.Invoice {
	cp := *inv
	cp.LineItems = make([]*invoice.LineItem, 0, len(inv.LineItems))
	for _, item := range inv.LineItems {
		itemCopy := *item
		if item.CallbackData != nil {
			cb := *item.CallbackData
			itemCopy.CallbackData = &cb
		}
		cp.LineItems = append(cp.LineItems, &itemCopy)
	}
	return &cp
}
