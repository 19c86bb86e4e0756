package service

import (
	"context"

	"github.com/subkit/subkit/internal/api/dto"
	"github.com/subkit/subkit/internal/domain/customer"
	"github.com/subkit/subkit/internal/domain/source"
)

// CustomerService manages customers and their payment sources
type CustomerService interface {
	CreateCustomer(ctx context.Context, req dto.CreateCustomerRequest) (*customer.Customer, error)
	GetCustomer(ctx context.Context, id string) (*customer.Customer, error)
	GetCustomerByExternalID(ctx context.Context, externalID string) (*customer.Customer, error)

	CreateSource(ctx context.Context, req dto.CreateSourceRequest) (*source.Source, error)
	ListSources(ctx context.Context, customerID string) ([]*source.Source, error)
}

type customerService struct {
	ServiceParams
}

// NewCustomerService creates the customer service
func NewCustomerService(params ServiceParams) CustomerService {
	return &customerService{ServiceParams: params}
}

func (s *customerService) CreateCustomer(ctx context.Context, req dto.CreateCustomerRequest) (*customer.Customer, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	cust := req.ToCustomer(ctx)
	if err := s.CustomerRepo.Create(ctx, cust); err != nil {
		return nil, err
	}

	s.Logger.Infow("created customer", "customer_id", cust.ID, "external_id", cust.ExternalID)
	return cust, nil
}

func (s *customerService) GetCustomer(ctx context.Context, id string) (*customer.Customer, error) {
	return s.CustomerRepo.Get(ctx, id)
}

func (s *customerService) GetCustomerByExternalID(ctx context.Context, externalID string) (*customer.Customer, error) {
	return s.CustomerRepo.GetByExternalID(ctx, externalID)
}

func (s *customerService) CreateSource(ctx context.Context, req dto.CreateSourceRequest) (*source.Source, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	// the customer must exist before an instrument can be filed against it
	if _, err := s.CustomerRepo.Get(ctx, req.CustomerID); err != nil {
		return nil, err
	}

	src := req.ToSource(ctx)
	if err := s.SourceRepo.Create(ctx, src); err != nil {
		return nil, err
	}

	s.Logger.Infow("created payment source", "source_id", src.ID, "customer_id", src.CustomerID)
	return src, nil
}

func (s *customerService) ListSources(ctx context.Context, customerID string) ([]*source.Source, error) {
	return s.SourceRepo.ListByCustomer(ctx, customerID)
}
