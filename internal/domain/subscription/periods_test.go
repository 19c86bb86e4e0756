package subscription

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/subkit/subkit/internal/domain/catalog"
	"github.com/subkit/subkit/internal/types"
)

func monthlyPackage() *catalog.Package {
	return &catalog.Package{
		ID:              "pkg_monthly",
		BillingPeriod:   types.BILLING_PERIOD_MONTH,
		BillingDuration: 1,
	}
}

func TestFreeTrialPeriod(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("unsupported trial collapses to zero length at start", func(t *testing.T) {
		pkg := monthlyPackage()
		period := FreeTrialPeriod(pkg, start)
		assert.True(t, period.IsZeroLength())
		assert.True(t, period.Start.Equal(start))
	})

	t.Run("supported trial spans the configured days", func(t *testing.T) {
		pkg := monthlyPackage()
		pkg.SupportsFreeTrial = true
		pkg.FreeTrialDuration = 7
		period := FreeTrialPeriod(pkg, start)
		assert.True(t, period.Start.Equal(start))
		assert.True(t, period.End.Equal(start.AddDate(0, 0, 7)))
	})
}

func TestSubscriptionPeriod(t *testing.T) {
	t.Run("monthly term", func(t *testing.T) {
		start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		period, err := SubscriptionPeriod(monthlyPackage(), start)
		require.NoError(t, err)
		assert.True(t, period.Start.Equal(start))
		assert.True(t, period.End.Equal(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)))
	})

	t.Run("monthly term clamps at month end", func(t *testing.T) {
		start := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
		period, err := SubscriptionPeriod(monthlyPackage(), start)
		require.NoError(t, err)
		assert.True(t, period.End.Equal(time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)))
	})

	t.Run("yearly term", func(t *testing.T) {
		pkg := monthlyPackage()
		pkg.BillingPeriod = types.BILLING_PERIOD_YEAR
		start := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
		period, err := SubscriptionPeriod(pkg, start)
		require.NoError(t, err)
		assert.True(t, period.End.Equal(time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)))
	})

	t.Run("daily term with duration", func(t *testing.T) {
		pkg := monthlyPackage()
		pkg.BillingPeriod = types.BILLING_PERIOD_DAY
		pkg.BillingDuration = 14
		start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		period, err := SubscriptionPeriod(pkg, start)
		require.NoError(t, err)
		assert.True(t, period.End.Equal(time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)))
	})

	t.Run("zero duration is rejected", func(t *testing.T) {
		pkg := monthlyPackage()
		pkg.BillingDuration = 0
		_, err := SubscriptionPeriod(pkg, time.Now().UTC())
		require.Error(t, err)
	})
}

func TestRenewalPeriods(t *testing.T) {
	pkg := monthlyPackage()
	pkg.SupportsFreeTrial = true
	pkg.FreeTrialDuration = 7
	pkg.SupportsCoolingOff = true
	pkg.CoolingOffDuration = 14

	start := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	periods, err := RenewalPeriods(pkg, start)
	require.NoError(t, err)

	assert.True(t, periods.FreeTrial.IsZeroLength(), "renewal terms carry no trial")
	assert.True(t, periods.CoolingOff.IsZeroLength(), "renewal terms carry no cooling off")
	assert.True(t, periods.FreeTrial.Start.Equal(start))
	assert.True(t, periods.CoolingOff.Start.Equal(start))
	assert.True(t, periods.Subscription.Start.Equal(start))
	assert.True(t, periods.Subscription.End.Equal(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)))
}

func TestInitialPeriods(t *testing.T) {
	pkg := monthlyPackage()
	pkg.SupportsFreeTrial = true
	pkg.FreeTrialDuration = 7

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	periods, err := InitialPeriods(pkg, start)
	require.NoError(t, err)

	assert.False(t, periods.FreeTrial.IsZeroLength())
	assert.True(t, periods.CoolingOff.IsZeroLength())

	// the billing term starts where the trial ends
	trialEnd := start.AddDate(0, 0, 7)
	assert.True(t, periods.Subscription.Start.Equal(trialEnd))
	assert.True(t, periods.Subscription.End.Equal(trialEnd.AddDate(0, 1, 0)))
}

func TestInitialPeriodsWithoutTrialStartAtGivenInstant(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	periods, err := InitialPeriods(monthlyPackage(), start)
	require.NoError(t, err)

	assert.True(t, periods.Subscription.Start.Equal(start))
	assert.True(t, periods.Subscription.End.Equal(start.AddDate(0, 1, 0)))
}
