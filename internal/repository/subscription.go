package repository

import (
	"context"
	"time"

	"github.com/subkit/subkit/internal/cache"
	"github.com/subkit/subkit/internal/domain/subscription"
	ierr "github.com/subkit/subkit/internal/errors"
	"github.com/subkit/subkit/internal/logger"
	"github.com/subkit/subkit/internal/types"
)

const instanceCacheExpiry = 5 * time.Minute

type subscriptionRepository struct {
	store  *InMemoryStore[*subscription.Instance]
	cache  cache.Cache
	logger *logger.Logger
}

// NewSubscriptionRepository creates an in-memory instance repository with a
// read cache in front of Get
func NewSubscriptionRepository(log *logger.Logger, c cache.Cache) subscription.Repository {
	return &subscriptionRepository{
		store:  NewInMemoryStore[*subscription.Instance](),
		cache:  c,
		logger: log,
	}
}

func (r *subscriptionRepository) Create(ctx context.Context, inst *subscription.Instance) error {
	r.logger.Debugw("creating instance",
		"instance_id", inst.ID,
		"customer_id", inst.CustomerID,
		"package_id", inst.PackageID)
	return r.store.Create(ctx, inst.ID, copyInstance(inst))
}

func (r *subscriptionRepository) Get(ctx context.Context, id string) (*subscription.Instance, error) {
	key := cache.GenerateKey(cache.PrefixInstance, id)
	if cached, found := r.cache.Get(ctx, key); found {
		if inst, ok := cached.(*subscription.Instance); ok {
			return copyInstance(inst), nil
		}
	}

	inst, err := r.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	r.cache.Set(ctx, key, copyInstance(inst), instanceCacheExpiry)
	return copyInstance(inst), nil
}

// GetBypassCache reads straight from the store. Mutation paths use it to
// return the post-write image rather than a stale cached one.
func (r *subscriptionRepository) GetBypassCache(ctx context.Context, id string) (*subscription.Instance, error) {
	inst, err := r.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return copyInstance(inst), nil
}

func (r *subscriptionRepository) Update(ctx context.Context, inst *subscription.Instance) error {
	if err := r.store.Update(ctx, inst.ID, copyInstance(inst)); err != nil {
		return err
	}
	r.cache.Delete(ctx, cache.GenerateKey(cache.PrefixInstance, inst.ID))
	return nil
}

// CreateRenewal inserts a renewal term, enforcing at most one successor per
// predecessor. The uniqueness check runs atomically with the insert, so a
// racing second renewal of the same lineage surfaces as an already-exists
// conflict instead of a silent double renewal.
func (r *subscriptionRepository) CreateRenewal(ctx context.Context, inst *subscription.Instance) error {
	if inst.PreviousInstanceID == "" {
		return ierr.NewError("renewal instance has no predecessor").
			WithHint("Renewal instances must reference the term they renew").
			Mark(ierr.ErrValidation)
	}

	r.logger.Debugw("creating renewal instance",
		"instance_id", inst.ID,
		"previous_instance_id", inst.PreviousInstanceID)

	return r.store.CreateUnique(ctx, inst.ID, copyInstance(inst), func(existing *subscription.Instance) bool {
		return existing.PreviousInstanceID != inst.PreviousInstanceID
	})
}

func (r *subscriptionRepository) ListByCustomer(ctx context.Context, customerID string) ([]*subscription.Instance, error) {
	return r.list(ctx, func(inst *subscription.Instance) bool {
		return inst.CustomerID == customerID
	})
}

func (r *subscriptionRepository) ListBySubscriptionEndDate(ctx context.Context, date time.Time) ([]*subscription.Instance, error) {
	return r.list(ctx, func(inst *subscription.Instance) bool {
		return types.SameDate(inst.SubscriptionEnd, date)
	})
}

func (r *subscriptionRepository) list(ctx context.Context, match func(*subscription.Instance) bool) ([]*subscription.Instance, error) {
	items, err := r.store.List(ctx, func(ctx context.Context, inst *subscription.Instance) bool {
		return match(inst)
	}, func(i, j *subscription.Instance) bool {
		return i.SubscriptionStart.Before(j.SubscriptionStart)
	})
	if err != nil {
		return nil, err
	}
	result := make([]*subscription.Instance, 0, len(items))
	for _, inst := range items {
		result = append(result, copyInstance(inst))
	}
	return result, nil
}

func copyInstance(inst *subscription.Instance) *subscription.Instance {
	cp := *inst
	if inst.DateCancel != nil {
		dc := *inst.DateCancel
		cp.DateCancel = &dc
	}
	return &cp
}
