package repository

import (
	"context"

	"github.com/subkit/subkit/internal/domain/customer"
	ierr "github.com/subkit/subkit/internal/errors"
	"github.com/subkit/subkit/internal/logger"
)

type customerRepository struct {
	store  *InMemoryStore[*customer.Customer]
	logger *logger.Logger
}

// NewCustomerRepository creates an in-memory customer repository
func NewCustomerRepository(log *logger.Logger) customer.Repository {
	return &customerRepository{
		store:  NewInMemoryStore[*customer.Customer](),
		logger: log,
	}
}

func (r *customerRepository) Create(ctx context.Context, c *customer.Customer) error {
	r.logger.Debugw("creating customer", "customer_id", c.ID)
	cp := *c
	return r.store.Create(ctx, c.ID, &cp)
}

func (r *customerRepository) Get(ctx context.Context, id string) (*customer.Customer, error) {
	c, err := r.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	cp := *c
	return &cp, nil
}

func (r *customerRepository) GetByExternalID(ctx context.Context, externalID string) (*customer.Customer, error) {
	items, err := r.store.List(ctx, func(ctx context.Context, c *customer.Customer) bool {
		return c.ExternalID == externalID
	}, nil)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ierr.NewError("customer not found").
			WithHintf("No customer with external ID %s", externalID).
			Mark(ierr.ErrNotFound)
	}
	cp := *items[0]
	return &cp, nil
}

func (r *customerRepository) Update(ctx context.Context, c *customer.Customer) error {
	cp := *c
	return r.store.Update(ctx, c.ID, &cp)
}

func (r *customerRepository) Delete(ctx context.Context, id string) error {
	return r.store.Delete(ctx, id)
}
