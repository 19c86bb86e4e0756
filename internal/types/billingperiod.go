package types

import (
	ierr "github.com/subkit/subkit/internal/errors"
)

// BillingPeriod is the unit a package bills in
type BillingPeriod string

const (
	BILLING_PERIOD_DAY   BillingPeriod = "DAY"
	BILLING_PERIOD_MONTH BillingPeriod = "MONTH"
	BILLING_PERIOD_YEAR  BillingPeriod = "YEAR"
)

func (b BillingPeriod) Validate() error {
	switch b {
	case BILLING_PERIOD_DAY, BILLING_PERIOD_MONTH, BILLING_PERIOD_YEAR:
		return nil
	default:
		return ierr.NewError("invalid billing period").
			WithHintf("Billing period must be one of %s, %s or %s",
				BILLING_PERIOD_DAY, BILLING_PERIOD_MONTH, BILLING_PERIOD_YEAR).
			Mark(ierr.ErrValidation)
	}
}
