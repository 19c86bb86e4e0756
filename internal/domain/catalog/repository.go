package catalog

import "context"

// Repository provides access to package definitions
type Repository interface {
	Create(ctx context.Context, pkg *Package) error
	Get(ctx context.Context, id string) (*Package, error)
	List(ctx context.Context) ([]*Package, error)
	Update(ctx context.Context, pkg *Package) error
	Delete(ctx context.Context, id string) error
}
