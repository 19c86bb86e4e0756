package service

import (
	"context"

	"github.com/subkit/subkit/internal/api/dto"
	"github.com/subkit/subkit/internal/domain/catalog"
)

// CatalogService manages the package catalog
type CatalogService interface {
	CreatePackage(ctx context.Context, req dto.CreatePackageRequest) (*catalog.Package, error)
	GetPackage(ctx context.Context, id string) (*catalog.Package, error)
	ListPackages(ctx context.Context) ([]*catalog.Package, error)
	DeactivatePackage(ctx context.Context, id string) (*catalog.Package, error)
}

type catalogService struct {
	ServiceParams
}

// NewCatalogService creates the catalog service
func NewCatalogService(params ServiceParams) CatalogService {
	return &catalogService{ServiceParams: params}
}

func (s *catalogService) CreatePackage(ctx context.Context, req dto.CreatePackageRequest) (*catalog.Package, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	pkg := req.ToPackage(ctx)
	if err := s.CatalogRepo.Create(ctx, pkg); err != nil {
		return nil, err
	}

	s.Logger.Infow("created package", "package_id", pkg.ID, "label", pkg.Label)
	return pkg, nil
}

func (s *catalogService) GetPackage(ctx context.Context, id string) (*catalog.Package, error) {
	return s.CatalogRepo.Get(ctx, id)
}

func (s *catalogService) ListPackages(ctx context.Context) ([]*catalog.Package, error) {
	return s.CatalogRepo.List(ctx)
}

// DeactivatePackage withdraws a package from sale. Existing instances keep
// billing; renewal eligibility checks will reject the package from then on.
func (s *catalogService) DeactivatePackage(ctx context.Context, id string) (*catalog.Package, error) {
	pkg, err := s.CatalogRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	pkg.IsActive = false
	if err := s.CatalogRepo.Update(ctx, pkg); err != nil {
		return nil, err
	}

	s.Logger.Infow("deactivated package", "package_id", pkg.ID)
	return pkg, nil
}
