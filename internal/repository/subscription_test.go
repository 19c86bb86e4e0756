package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/subkit/subkit/internal/cache"
	"github.com/subkit/subkit/internal/domain/subscription"
	ierr "github.com/subkit/subkit/internal/errors"
	"github.com/subkit/subkit/internal/logger"
)

func newTestSubscriptionRepo(t *testing.T) subscription.Repository {
	t.Helper()
	log, err := logger.NewLogger(nil)
	require.NoError(t, err)
	return NewSubscriptionRepository(log, cache.NewInMemoryCache())
}

func TestCreateRenewalEnforcesSinglePredecessor(t *testing.T) {
	ctx := context.Background()
	repo := newTestSubscriptionRepo(t)

	old := &subscription.Instance{ID: "inst_1", CustomerID: "cust_1"}
	require.NoError(t, repo.Create(ctx, old))

	first := &subscription.Instance{ID: "inst_2", CustomerID: "cust_1", PreviousInstanceID: "inst_1"}
	require.NoError(t, repo.CreateRenewal(ctx, first))

	second := &subscription.Instance{ID: "inst_3", CustomerID: "cust_1", PreviousInstanceID: "inst_1"}
	err := repo.CreateRenewal(ctx, second)
	require.Error(t, err)
	assert.True(t, ierr.IsAlreadyExists(err))

	// a renewal of a different predecessor is unaffected
	other := &subscription.Instance{ID: "inst_4", CustomerID: "cust_2", PreviousInstanceID: "inst_2"}
	require.NoError(t, repo.CreateRenewal(ctx, other))
}

func TestCreateRenewalRequiresPredecessor(t *testing.T) {
	ctx := context.Background()
	repo := newTestSubscriptionRepo(t)

	err := repo.CreateRenewal(ctx, &subscription.Instance{ID: "inst_1"})
	require.Error(t, err)
	assert.True(t, ierr.IsValidation(err))
}

func TestGetBypassCacheSeesFreshWrites(t *testing.T) {
	ctx := context.Background()
	repo := newTestSubscriptionRepo(t)

	inst := &subscription.Instance{ID: "inst_1", CustomerID: "cust_1", AutomaticRenew: true}
	require.NoError(t, repo.Create(ctx, inst))

	// prime the read cache
	cached, err := repo.Get(ctx, "inst_1")
	require.NoError(t, err)
	assert.True(t, cached.AutomaticRenew)

	inst.AutomaticRenew = false
	now := time.Now().UTC()
	inst.DateCancel = &now
	require.NoError(t, repo.Update(ctx, inst))

	fresh, err := repo.GetBypassCache(ctx, "inst_1")
	require.NoError(t, err)
	assert.False(t, fresh.AutomaticRenew)
	assert.NotNil(t, fresh.DateCancel)
}

func TestListBySubscriptionEndDate(t *testing.T) {
	ctx := context.Background()
	repo := newTestSubscriptionRepo(t)

	end := time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC)
	require.NoError(t, repo.Create(ctx, &subscription.Instance{ID: "inst_due", SubscriptionEnd: end}))
	require.NoError(t, repo.Create(ctx, &subscription.Instance{ID: "inst_later", SubscriptionEnd: end.AddDate(0, 0, 1)}))

	// same calendar date, different clock time
	due, err := repo.ListBySubscriptionEndDate(ctx, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, "inst_due", due[0].ID)
}
