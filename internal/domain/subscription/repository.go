package subscription

import (
	"context"
	"time"
)

// Repository provides access to subscription instances.
//
// Implementations must make CreateRenewal atomic with respect to the
// predecessor's chain state: two concurrent renewals of the same lineage
// must resolve to exactly one successful insert.
type Repository interface {
	Create(ctx context.Context, inst *Instance) error
	Get(ctx context.Context, id string) (*Instance, error)

	// GetBypassCache fetches the instance directly from the store,
	// skipping any read cache in front of it
	GetBypassCache(ctx context.Context, id string) (*Instance, error)

	Update(ctx context.Context, inst *Instance) error

	// CreateRenewal inserts a renewal instance if and only if no other
	// instance already names the same predecessor. A lineage renews at
	// most once per term; a second insert for the same predecessor fails
	// with an already-exists error.
	CreateRenewal(ctx context.Context, inst *Instance) error

	// ListByCustomer returns every instance belonging to a customer
	ListByCustomer(ctx context.Context, customerID string) ([]*Instance, error)

	// ListBySubscriptionEndDate returns the instances whose billing term
	// ends on the given calendar date
	ListBySubscriptionEndDate(ctx context.Context, date time.Time) ([]*Instance, error)
}
