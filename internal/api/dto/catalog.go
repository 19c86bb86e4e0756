package dto

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/subkit/subkit/internal/domain/catalog"
	"github.com/subkit/subkit/internal/types"
	"github.com/subkit/subkit/internal/validator"
)

// CreatePackageCostRequest is one per-currency price on a package
type CreatePackageCostRequest struct {
	Currency     string          `json:"currency" validate:"required,len=3"`
	ValueNormal  decimal.Decimal `json:"value_normal"`
	ValueInitial decimal.Decimal `json:"value_initial"`
}

// CreatePackageRequest defines a new billing plan
type CreatePackageRequest struct {
	Label                  string                     `json:"label" validate:"required,max=255"`
	Description            string                     `json:"description"`
	BillingPeriod          types.BillingPeriod        `json:"billing_period" validate:"required"`
	BillingDuration        int                        `json:"billing_duration" validate:"required,min=1"`
	ActiveFrom             *time.Time                 `json:"active_from"`
	ActiveTo               *time.Time                 `json:"active_to"`
	SupportsFreeTrial      bool                       `json:"supports_free_trial"`
	FreeTrialDuration      int                        `json:"free_trial_duration" validate:"omitempty,min=1"`
	SupportsCoolingOff     bool                       `json:"supports_cooling_off"`
	CoolingOffDuration     int                        `json:"cooling_off_duration" validate:"omitempty,min=1"`
	SupportsAutomaticRenew bool                       `json:"supports_automatic_renew"`
	Costs                  []CreatePackageCostRequest `json:"costs" validate:"required,min=1,dive"`
}

func (r *CreatePackageRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	return r.BillingPeriod.Validate()
}

// ToPackage converts the request into a package definition
func (r *CreatePackageRequest) ToPackage(ctx context.Context) *catalog.Package {
	pkgID := types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PACKAGE)
	base := types.GetDefaultBaseModel(ctx)

	costs := make([]*catalog.Cost, 0, len(r.Costs))
	for _, c := range r.Costs {
		costs = append(costs, &catalog.Cost{
			ID:           types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PACKAGE_COST),
			PackageID:    pkgID,
			Currency:     c.Currency,
			ValueNormal:  c.ValueNormal,
			ValueInitial: c.ValueInitial,
			BaseModel:    base,
		})
	}

	return &catalog.Package{
		ID:                     pkgID,
		Label:                  r.Label,
		Description:            r.Description,
		BillingPeriod:          r.BillingPeriod,
		BillingDuration:        r.BillingDuration,
		IsActive:               true,
		ActiveFrom:             r.ActiveFrom,
		ActiveTo:               r.ActiveTo,
		SupportsFreeTrial:      r.SupportsFreeTrial,
		FreeTrialDuration:      r.FreeTrialDuration,
		SupportsCoolingOff:     r.SupportsCoolingOff,
		CoolingOffDuration:     r.CoolingOffDuration,
		SupportsAutomaticRenew: r.SupportsAutomaticRenew,
		Costs:                  costs,
		BaseModel:              base,
	}
}

// PackageResponse wraps a package for the API
type PackageResponse struct {
	*catalog.Package
}

// ListPackagesResponse lists the catalog
type ListPackagesResponse struct {
	Items []*PackageResponse `json:"items"`
	Total int                `json:"total"`
}
