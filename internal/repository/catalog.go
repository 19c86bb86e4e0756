package repository

import (
	"context"

	"github.com/subkit/subkit/internal/domain/catalog"
	"github.com/subkit/subkit/internal/logger"
)

type catalogRepository struct {
	store  *InMemoryStore[*catalog.Package]
	logger *logger.Logger
}

// NewCatalogRepository creates an in-memory package repository
func NewCatalogRepository(log *logger.Logger) catalog.Repository {
	return &catalogRepository{
		store:  NewInMemoryStore[*catalog.Package](),
		logger: log,
	}
}

func (r *catalogRepository) Create(ctx context.Context, pkg *catalog.Package) error {
	r.logger.Debugw("creating package", "package_id", pkg.ID)
	return r.store.Create(ctx, pkg.ID, copyPackage(pkg))
}

func (r *catalogRepository) Get(ctx context.Context, id string) (*catalog.Package, error) {
	pkg, err := r.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return copyPackage(pkg), nil
}

func (r *catalogRepository) List(ctx context.Context) ([]*catalog.Package, error) {
	items, err := r.store.List(ctx, nil, func(i, j *catalog.Package) bool {
		return i.ID < j.ID
	})
	if err != nil {
		return nil, err
	}
	result := make([]*catalog.Package, 0, len(items))
	for _, pkg := range items {
		result = append(result, copyPackage(pkg))
	}
	return result, nil
}

func (r *catalogRepository) Update(ctx context.Context, pkg *catalog.Package) error {
	return r.store.Update(ctx, pkg.ID, copyPackage(pkg))
}

func (r *catalogRepository) Delete(ctx context.Context, id string) error {
	return r.store.Delete(ctx, id)
}

func copyPackage(pkg *catalog.Package) *catalog.Package {
	cp := *pkg
	cp.Costs = make([]*catalog.Cost, 0, len(pkg.Costs))
	for _, cost := range pkg.Costs {
		costCopy := *cost
		cp.Costs = append(cp.Costs, &costCopy)
	}
	return &cp
}
