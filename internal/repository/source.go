package repository

import (
	"context"

	"github.com/subkit/subkit/internal/domain/source"
	"github.com/subkit/subkit/internal/logger"
)

type sourceRepository struct {
	store  *InMemoryStore[*source.Source]
	logger *logger.Logger
}

// NewSourceRepository creates an in-memory payment source repository
func NewSourceRepository(log *logger.Logger) source.Repository {
	return &sourceRepository{
		store:  NewInMemoryStore[*source.Source](),
		logger: log,
	}
}

func (r *sourceRepository) Create(ctx context.Context, s *source.Source) error {
	r.logger.Debugw("creating payment source", "source_id", s.ID, "customer_id", s.CustomerID)
	cp := *s
	return r.store.Create(ctx, s.ID, &cp)
}

func (r *sourceRepository) Get(ctx context.Context, id string) (*source.Source, error) {
	s, err := r.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	cp := *s
	return &cp, nil
}

func (r *sourceRepository) ListByCustomer(ctx context.Context, customerID string) ([]*source.Source, error) {
	items, err := r.store.List(ctx, func(ctx context.Context, s *source.Source) bool {
		return s.CustomerID == customerID
	}, func(i, j *source.Source) bool {
		return i.ID < j.ID
	})
	if err != nil {
		return nil, err
	}
	result := make([]*source.Source, 0, len(items))
	for _, s := range items {
		cp := *s
		result = append(result, &cp)
	}
	return result, nil
}

func (r *sourceRepository) Update(ctx context.Context, s *source.Source) error {
	cp := *s
	return r.store.Update(ctx, s.ID, &cp)
}

func (r *sourceRepository) Delete(ctx context.Context, id string) error {
	return r.store.Delete(ctx, id)
}
