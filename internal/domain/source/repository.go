package source

import "context"

// Repository provides access to payment sources
type Repository interface {
	Create(ctx context.Context, s *Source) error
	Get(ctx context.Context, id string) (*Source, error)
	ListByCustomer(ctx context.Context, customerID string) ([]*Source, error)
	Update(ctx context.Context, s *Source) error
	Delete(ctx context.Context, id string) error
}
