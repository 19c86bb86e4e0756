package dto

import (
	"context"
	"time"

	"github.com/subkit/subkit/internal/domain/customer"
	"github.com/subkit/subkit/internal/domain/source"
	"github.com/subkit/subkit/internal/types"
	"github.com/subkit/subkit/internal/validator"
)

// CreateCustomerRequest registers a billable party
type CreateCustomerRequest struct {
	ExternalID string `json:"external_id" validate:"required"`
	Name       string `json:"name" validate:"required,max=255"`
	Email      string `json:"email" validate:"omitempty,email"`
}

func (r *CreateCustomerRequest) Validate() error {
	return validator.ValidateRequest(r)
}

// ToCustomer converts the request into a customer
func (r *CreateCustomerRequest) ToCustomer(ctx context.Context) *customer.Customer {
	return &customer.Customer{
		ID:         types.GenerateUUIDWithPrefix(types.UUID_PREFIX_CUSTOMER),
		ExternalID: r.ExternalID,
		Name:       r.Name,
		Email:      r.Email,
		BaseModel:  types.GetDefaultBaseModel(ctx),
	}
}

// CustomerResponse wraps a customer for the API
type CustomerResponse struct {
	*customer.Customer
}

// CreateSourceRequest stores a payment instrument for a customer
type CreateSourceRequest struct {
	CustomerID string     `json:"customer_id" validate:"required"`
	Label      string     `json:"label" validate:"required,max=255"`
	ExpiresAt  *time.Time `json:"expires_at"`
}

func (r *CreateSourceRequest) Validate() error {
	return validator.ValidateRequest(r)
}

// ToSource converts the request into a payment source
func (r *CreateSourceRequest) ToSource(ctx context.Context) *source.Source {
	return &source.Source{
		ID:         types.GenerateUUIDWithPrefix(types.UUID_PREFIX_SOURCE),
		CustomerID: r.CustomerID,
		Label:      r.Label,
		ExpiresAt:  r.ExpiresAt,
		BaseModel:  types.GetDefaultBaseModel(ctx),
	}
}

// SourceResponse wraps a payment source for the API
type SourceResponse struct {
	*source.Source
}
