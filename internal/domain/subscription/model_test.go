package subscription

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestInstanceIsCancelled(t *testing.T) {
	now := time.Now().UTC()

	tests := []struct {
		name           string
		automaticRenew bool
		dateCancel     *time.Time
		want           bool
	}{
		{"renewing with no cancel date", true, nil, false},
		{"renewing with a cancel date", true, &now, false},
		{"not renewing with no cancel date", false, nil, false},
		{"not renewing with a cancel date", false, &now, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inst := &Instance{
				AutomaticRenew: tt.automaticRenew,
				DateCancel:     tt.dateCancel,
			}
			assert.Equal(t, tt.want, inst.IsCancelled())
		})
	}
}

func TestInstanceWindows(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	inst := &Instance{
		FreeTrialStart:    start,
		FreeTrialEnd:      start.AddDate(0, 0, 7),
		SubscriptionStart: start,
		SubscriptionEnd:   start.AddDate(0, 1, 0),
		CoolingOffStart:   start,
		CoolingOffEnd:     start,
	}

	t.Run("free trial bounds are inclusive", func(t *testing.T) {
		assert.True(t, inst.IsInFreeTrial(start))
		assert.True(t, inst.IsInFreeTrial(start.AddDate(0, 0, 3)))
		assert.True(t, inst.IsInFreeTrial(start.AddDate(0, 0, 7)))
		assert.False(t, inst.IsInFreeTrial(start.AddDate(0, 0, 8)))
	})

	t.Run("subscription window", func(t *testing.T) {
		assert.True(t, inst.IsInSubscription(start.AddDate(0, 0, 15)))
		assert.False(t, inst.IsInSubscription(start.AddDate(0, 2, 0)))
		assert.False(t, inst.IsInSubscription(start.AddDate(0, 0, -1)))
	})

	t.Run("zero length cooling off matches only its instant", func(t *testing.T) {
		assert.True(t, inst.IsInCoolingOff(start))
		assert.False(t, inst.IsInCoolingOff(start.Add(time.Second)))
	})
}

func TestInstanceEffectivePackageID(t *testing.T) {
	inst := &Instance{PackageID: "pkg_current"}
	assert.Equal(t, "pkg_current", inst.EffectivePackageID())

	inst.ChangeToPackageID = "pkg_next"
	assert.Equal(t, "pkg_next", inst.EffectivePackageID())
}

func TestInstanceIsRenewal(t *testing.T) {
	assert.False(t, (&Instance{}).IsRenewal())
	assert.True(t, (&Instance{PreviousInstanceID: "inst_1"}).IsRenewal())
}
