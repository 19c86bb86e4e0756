package subscription

import (
	"time"

	"github.com/subkit/subkit/internal/domain/catalog"
	"github.com/subkit/subkit/internal/types"
)

// Period is a closed interval of time
type Period struct {
	Start time.Time
	End   time.Time
}

// IsZeroLength reports whether the period covers a single instant
func (p Period) IsZeroLength() bool {
	return p.Start.Equal(p.End)
}

// Periods holds the three computed windows of one billing term
type Periods struct {
	FreeTrial    Period
	Subscription Period
	CoolingOff   Period
}

// FreeTrialPeriod computes the free trial window for a term starting at the
// given instant. Packages without trial support get a zero length window
// anchored at the start.
func FreeTrialPeriod(pkg *catalog.Package, start time.Time) Period {
	if !pkg.SupportsFreeTrial {
		return Period{Start: start, End: start}
	}
	return Period{Start: start, End: start.AddDate(0, 0, pkg.FreeTrialDuration)}
}

// SubscriptionPeriod computes the billing term window for a term starting
// at the given instant
func SubscriptionPeriod(pkg *catalog.Package, start time.Time) (Period, error) {
	end, err := types.NextBillingDate(start, pkg.BillingDuration, pkg.BillingPeriod)
	if err != nil {
		return Period{}, err
	}
	return Period{Start: start, End: end}, nil
}

// CoolingOffPeriod computes the cooling off window for a term starting at
// the given instant. Packages without cooling off support get a zero length
// window anchored at the start.
func CoolingOffPeriod(pkg *catalog.Package, start time.Time) Period {
	if !pkg.SupportsCoolingOff {
		return Period{Start: start, End: start}
	}
	return Period{Start: start, End: start.AddDate(0, 0, pkg.CoolingOffDuration)}
}

// InitialPeriods computes the windows for the first term in a lineage. The
// billing term starts where the free trial ends; without trial support the
// trial window is zero length and the term starts at the given instant.
func InitialPeriods(pkg *catalog.Package, start time.Time) (Periods, error) {
	trial := FreeTrialPeriod(pkg, start)
	sub, err := SubscriptionPeriod(pkg, trial.End)
	if err != nil {
		return Periods{}, err
	}
	return Periods{
		FreeTrial:    trial,
		Subscription: sub,
		CoolingOff:   CoolingOffPeriod(pkg, start),
	}, nil
}

// RenewalPeriods computes the windows for a renewal term. Trial and cooling
// off apply only to the first term in a lineage, so both collapse to zero
// length at the new subscription start.
func RenewalPeriods(pkg *catalog.Package, start time.Time) (Periods, error) {
	sub, err := SubscriptionPeriod(pkg, start)
	if err != nil {
		return Periods{}, err
	}
	return Periods{
		FreeTrial:    Period{Start: start, End: start},
		Subscription: sub,
		CoolingOff:   Period{Start: start, End: start},
	}, nil
}
