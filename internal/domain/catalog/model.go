package catalog

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/subkit/subkit/internal/types"
)

// Package represents a billing plan definition: how often it bills, what it
// costs per currency, and which optional periods (free trial, cooling off)
// it grants.
type Package struct {
	// ID is the unique identifier for the package
	ID string `db:"id" json:"id"`

	// Label is the customer facing name of the package
	Label string `db:"label" json:"label"`

	// Description is the long form description of the package
	Description string `db:"description" json:"description"`

	// BillingPeriod is the unit of one billing term
	BillingPeriod types.BillingPeriod `db:"billing_period" json:"billing_period"`

	// BillingDuration is the number of billing period units per term
	BillingDuration int `db:"billing_duration" json:"billing_duration"`

	// IsActive gates whether the package can be sold at all
	IsActive bool `db:"is_active" json:"is_active"`

	// ActiveFrom is the start of the package's sale window, if bounded
	ActiveFrom *time.Time `db:"active_from" json:"active_from"`

	// ActiveTo is the end of the package's sale window, if bounded
	ActiveTo *time.Time `db:"active_to" json:"active_to"`

	// SupportsFreeTrial grants a free trial of FreeTrialDuration days to the
	// first term in a lineage
	SupportsFreeTrial bool `db:"supports_free_trial" json:"supports_free_trial"`

	// FreeTrialDuration is the free trial length in days
	FreeTrialDuration int `db:"free_trial_duration" json:"free_trial_duration"`

	// SupportsCoolingOff grants a statutory cooling off period of
	// CoolingOffDuration days to the first term in a lineage
	SupportsCoolingOff bool `db:"supports_cooling_off" json:"supports_cooling_off"`

	// CoolingOffDuration is the cooling off length in days
	CoolingOffDuration int `db:"cooling_off_duration" json:"cooling_off_duration"`

	// SupportsAutomaticRenew marks whether instances of this package renew
	// automatically at the end of each term
	SupportsAutomaticRenew bool `db:"supports_automatic_renew" json:"supports_automatic_renew"`

	// Costs are the per-currency prices of the package
	Costs []*Cost `json:"costs"`

	types.BaseModel
}

// Cost is the price of a package in one currency
type Cost struct {
	// ID is the unique identifier for the cost
	ID string `db:"id" json:"id"`

	// PackageID is the package this cost belongs to
	PackageID string `db:"package_id" json:"package_id"`

	// Currency is the lowercase 3 letter ISO code the cost is denominated in
	Currency string `db:"currency" json:"currency"`

	// ValueNormal is the recurring price charged on renewal
	ValueNormal decimal.Decimal `db:"value_normal" json:"value_normal"`

	// ValueInitial is the price charged for the first term in a lineage
	ValueInitial decimal.Decimal `db:"value_initial" json:"value_initial"`

	types.BaseModel
}

// IsActiveAt determines whether the package can be sold at the given instant
func (p *Package) IsActiveAt(when time.Time) bool {
	return p.IsActive &&
		(p.ActiveFrom == nil || !p.ActiveFrom.After(when)) &&
		(p.ActiveTo == nil || !p.ActiveTo.Before(when))
}

// CostFor returns the package's cost entry for a currency, or nil if the
// package does not support the currency
func (p *Package) CostFor(currency string) *Cost {
	for _, cost := range p.Costs {
		if cost.Currency == currency {
			return cost
		}
	}
	return nil
}

// SupportsCurrency determines whether the package can be billed in a currency
func (p *Package) SupportsCurrency(currency string) bool {
	return p.CostFor(currency) != nil
}
