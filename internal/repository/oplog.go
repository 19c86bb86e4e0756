package repository

import (
	"context"

	"github.com/subkit/subkit/internal/domain/oplog"
	"github.com/subkit/subkit/internal/logger"
)

type oplogRepository struct {
	store  *InMemoryStore[*oplog.Entry]
	logger *logger.Logger
}

// NewOplogRepository creates an in-memory operation log repository
func NewOplogRepository(log *logger.Logger) oplog.Repository {
	return &oplogRepository{
		store:  NewInMemoryStore[*oplog.Entry](),
		logger: log,
	}
}

func (r *oplogRepository) Create(ctx context.Context, entry *oplog.Entry) error {
	cp := *entry
	return r.store.Create(ctx, entry.ID, &cp)
}

func (r *oplogRepository) ListByGroup(ctx context.Context, logGroup string) ([]*oplog.Entry, error) {
	return r.list(ctx, func(e *oplog.Entry) bool {
		return e.LogGroup == logGroup
	})
}

func (r *oplogRepository) ListByInstance(ctx context.Context, instanceID string) ([]*oplog.Entry, error) {
	return r.list(ctx, func(e *oplog.Entry) bool {
		return e.InstanceID == instanceID
	})
}

func (r *oplogRepository) list(ctx context.Context, match func(*oplog.Entry) bool) ([]*oplog.Entry, error) {
	items, err := r.store.List(ctx, func(ctx context.Context, e *oplog.Entry) bool {
		return match(e)
	}, func(i, j *oplog.Entry) bool {
		return i.CreatedAt.Before(j.CreatedAt)
	})
	if err != nil {
		return nil, err
	}
	result := make([]*oplog.Entry, 0, len(items))
	for _, e := range items {
		cp := *e
		result = append(result, &cp)
	}
	return result, nil
}
