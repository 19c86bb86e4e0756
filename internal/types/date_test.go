package types

import (
	"testing"
	"time"
)

func TestAddClampedDate(t *testing.T) {
	tests := []struct {
		name   string
		start  time.Time
		years  int
		months int
		days   int
		want   time.Time
	}{
		{
			name:   "month end clamps to shorter month",
			start:  time.Date(2025, time.January, 31, 10, 30, 0, 0, time.UTC),
			months: 1,
			want:   time.Date(2025, time.February, 28, 10, 30, 0, 0, time.UTC),
		},
		{
			name:   "month end clamps to leap day",
			start:  time.Date(2024, time.January, 31, 0, 0, 0, 0, time.UTC),
			months: 1,
			want:   time.Date(2024, time.February, 29, 0, 0, 0, 0, time.UTC),
		},
		{
			name:  "leap day clamps on year step",
			start: time.Date(2024, time.February, 29, 0, 0, 0, 0, time.UTC),
			years: 1,
			want:  time.Date(2025, time.February, 28, 0, 0, 0, 0, time.UTC),
		},
		{
			name:   "months roll across year boundary",
			start:  time.Date(2024, time.November, 15, 0, 0, 0, 0, time.UTC),
			months: 2,
			want:   time.Date(2025, time.January, 15, 0, 0, 0, 0, time.UTC),
		},
		{
			name:  "day arithmetic rolls naturally",
			start: time.Date(2025, time.March, 30, 0, 0, 0, 0, time.UTC),
			days:  5,
			want:  time.Date(2025, time.April, 4, 0, 0, 0, 0, time.UTC),
		},
		{
			name:   "days apply after the month step is clamped",
			start:  time.Date(2025, time.January, 31, 0, 0, 0, 0, time.UTC),
			months: 1,
			days:   3,
			want:   time.Date(2025, time.March, 3, 0, 0, 0, 0, time.UTC),
		},
		{
			name:   "negative months normalize",
			start:  time.Date(2025, time.January, 31, 0, 0, 0, 0, time.UTC),
			months: -2,
			want:   time.Date(2024, time.November, 30, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AddClampedDate(tt.start, tt.years, tt.months, tt.days)
			if !got.Equal(tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNextBillingDate(t *testing.T) {
	tests := []struct {
		name    string
		start   time.Time
		unit    int
		period  BillingPeriod
		want    time.Time
		wantErr bool
	}{
		{
			name:   "monthly from month end",
			start:  time.Date(2025, time.January, 31, 0, 0, 0, 0, time.UTC),
			unit:   1,
			period: BILLING_PERIOD_MONTH,
			want:   time.Date(2025, time.February, 28, 0, 0, 0, 0, time.UTC),
		},
		{
			name:   "yearly",
			start:  time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC),
			unit:   1,
			period: BILLING_PERIOD_YEAR,
			want:   time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name:   "ten days",
			start:  time.Date(2025, time.March, 25, 0, 0, 0, 0, time.UTC),
			unit:   10,
			period: BILLING_PERIOD_DAY,
			want:   time.Date(2025, time.April, 4, 0, 0, 0, 0, time.UTC),
		},
		{
			name:    "zero unit is rejected",
			start:   time.Date(2025, time.March, 25, 0, 0, 0, 0, time.UTC),
			unit:    0,
			period:  BILLING_PERIOD_MONTH,
			wantErr: true,
		},
		{
			name:    "unknown period is rejected",
			start:   time.Date(2025, time.March, 25, 0, 0, 0, 0, time.UTC),
			unit:    1,
			period:  BillingPeriod("WEEKLY"),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NextBillingDate(tt.start, tt.unit, tt.period)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}
