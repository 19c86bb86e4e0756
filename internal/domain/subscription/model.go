package subscription

import (
	"time"

	"github.com/subkit/subkit/internal/types"
)

// Instance is one billing term of a customer's subscription to a package.
// Renewal terms for one subscription form a lineage, a chain of instances
// linked through PreviousInstanceID and NextInstanceID; exactly one instance
// in a lineage has no next pointer and is the current term.
type Instance struct {
	// ID is the unique identifier for the instance
	ID string `db:"id" json:"id"`

	// CustomerID is the customer the term belongs to
	CustomerID string `db:"customer_id" json:"customer_id"`

	// PackageID is the package the term bills
	PackageID string `db:"package_id" json:"package_id"`

	// ChangeToPackageID, when set, is the package the lineage will switch
	// to at the next renewal
	ChangeToPackageID string `db:"change_to_package_id" json:"change_to_package_id"`

	// SourceID is the payment source the term bills against
	SourceID string `db:"source_id" json:"source_id"`

	// Currency is the lowercase 3 letter ISO code the term bills in
	Currency string `db:"currency" json:"currency"`

	// FreeTrialStart and FreeTrialEnd bound the free trial window; the
	// window is zero length when the term carries no trial
	FreeTrialStart time.Time `db:"free_trial_start" json:"free_trial_start"`
	FreeTrialEnd   time.Time `db:"free_trial_end" json:"free_trial_end"`

	// SubscriptionStart and SubscriptionEnd bound the billing term itself
	SubscriptionStart time.Time `db:"subscription_start" json:"subscription_start"`
	SubscriptionEnd   time.Time `db:"subscription_end" json:"subscription_end"`

	// CoolingOffStart and CoolingOffEnd bound the statutory cooling off
	// window; zero length when the term carries none
	CoolingOffStart time.Time `db:"cooling_off_start" json:"cooling_off_start"`
	CoolingOffEnd   time.Time `db:"cooling_off_end" json:"cooling_off_end"`

	// AutomaticRenew marks whether the term renews at its end
	AutomaticRenew bool `db:"automatic_renew" json:"automatic_renew"`

	// CancelReason records why the term was cancelled, if it was
	CancelReason string `db:"cancel_reason" json:"cancel_reason"`

	// DateCancel is when the term was cancelled, if it was
	DateCancel *time.Time `db:"date_cancel" json:"date_cancel"`

	// InvoiceID is the invoice raised for this term, if one was
	InvoiceID string `db:"invoice_id" json:"invoice_id"`

	// PreviousInstanceID points to the term this one renewed; immutable
	// once set
	PreviousInstanceID string `db:"previous_instance_id" json:"previous_instance_id"`

	// NextInstanceID points to the term that renewed this one; set only
	// once the successor's invoice is observed paid
	NextInstanceID string `db:"next_instance_id" json:"next_instance_id"`

	// LogGroup correlates all log lines written while operating on this
	// instance's lifecycle
	LogGroup string `db:"log_group" json:"log_group"`

	types.BaseModel
}

// IsCancelled reports whether the instance has been cancelled. Cancellation
// is the pair of automatic renew being off and a cancel timestamp being
// recorded; either alone does not count.
func (i *Instance) IsCancelled() bool {
	return !i.AutomaticRenew && i.DateCancel != nil
}

// IsRenewal reports whether the instance is a renewal term rather than the
// first term in its lineage
func (i *Instance) IsRenewal() bool {
	return i.PreviousInstanceID != ""
}

// IsInFreeTrial reports whether the given instant falls within the free
// trial window, bounds inclusive
func (i *Instance) IsInFreeTrial(when time.Time) bool {
	return within(when, i.FreeTrialStart, i.FreeTrialEnd)
}

// IsInSubscription reports whether the given instant falls within the
// billing term, bounds inclusive
func (i *Instance) IsInSubscription(when time.Time) bool {
	return within(when, i.SubscriptionStart, i.SubscriptionEnd)
}

// IsInCoolingOff reports whether the given instant falls within the cooling
// off window, bounds inclusive
func (i *Instance) IsInCoolingOff(when time.Time) bool {
	return within(when, i.CoolingOffStart, i.CoolingOffEnd)
}

// EffectivePackageID is the package the lineage will bill at its next
// renewal: the pending swap target if one is set, else the current package
func (i *Instance) EffectivePackageID() string {
	if i.ChangeToPackageID != "" {
		return i.ChangeToPackageID
	}
	return i.PackageID
}

func within(when, start, end time.Time) bool {
	return !when.Before(start) && !when.After(end)
}
