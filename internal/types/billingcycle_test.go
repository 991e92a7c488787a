package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBillingCycleValidate(t *testing.T) {
	for _, c := range []BillingCycle{
		BillingCycleDaily,
		BillingCycleWeekly,
		BillingCycleMonthly,
		BillingCycleQuarterly,
		BillingCycleYearly,
	} {
		assert.NoError(t, c.Validate())
	}
	assert.Error(t, BillingCycle("fortnightly").Validate())
	assert.Error(t, BillingCycle("").Validate())
}

func TestAdvanceByClampsToMonthEnd(t *testing.T) {
	jan31 := time.Date(2025, time.January, 31, 10, 30, 0, 0, time.UTC)

	testCases := []struct {
		name     string
		cycle    BillingCycle
		value    int
		expected time.Time
	}{
		{
			name:     "monthly_jan31_clamps_to_feb28",
			cycle:    BillingCycleMonthly,
			value:    1,
			expected: time.Date(2025, time.February, 28, 10, 30, 0, 0, time.UTC),
		},
		{
			name:     "monthly_two_steps_land_on_mar31",
			cycle:    BillingCycleMonthly,
			value:    2,
			expected: time.Date(2025, time.March, 31, 10, 30, 0, 0, time.UTC),
		},
		{
			name:     "quarterly_jan31_clamps_to_apr30",
			cycle:    BillingCycleQuarterly,
			value:    1,
			expected: time.Date(2025, time.April, 30, 10, 30, 0, 0, time.UTC),
		},
		{
			name:     "yearly_keeps_the_day",
			cycle:    BillingCycleYearly,
			value:    1,
			expected: time.Date(2026, time.January, 31, 10, 30, 0, 0, time.UTC),
		},
		{
			name:     "daily_single_day_rolls_into_february",
			cycle:    BillingCycleDaily,
			value:    1,
			expected: time.Date(2025, time.February, 1, 10, 30, 0, 0, time.UTC),
		},
		{
			name:     "daily_14_days",
			cycle:    BillingCycleDaily,
			value:    14,
			expected: time.Date(2025, time.February, 14, 10, 30, 0, 0, time.UTC),
		},
		{
			name:     "weekly_2_weeks",
			cycle:    BillingCycleWeekly,
			value:    2,
			expected: time.Date(2025, time.February, 14, 10, 30, 0, 0, time.UTC),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.True(t, tc.cycle.AdvanceBy(jan31, tc.value).Equal(tc.expected))
		})
	}
}

func TestAdvanceByDaysCrossMonthBoundary(t *testing.T) {
	jan20 := time.Date(2025, time.January, 20, 0, 0, 0, 0, time.UTC)
	feb3 := time.Date(2025, time.February, 3, 0, 0, 0, 0, time.UTC)
	assert.True(t, BillingCycleDaily.AdvanceBy(jan20, 14).Equal(feb3))
	assert.True(t, BillingCycleWeekly.AdvanceBy(jan20, 2).Equal(feb3))
}

func TestAdvanceByLeapYear(t *testing.T) {
	jan31 := time.Date(2024, time.January, 31, 0, 0, 0, 0, time.UTC)
	feb29 := time.Date(2024, time.February, 29, 0, 0, 0, 0, time.UTC)
	assert.True(t, BillingCycleMonthly.Advance(jan31).Equal(feb29))
}

func TestAdvanceByNonPositiveValueIsIdentity(t *testing.T) {
	now := time.Date(2025, time.June, 15, 0, 0, 0, 0, time.UTC)
	assert.True(t, BillingCycleMonthly.AdvanceBy(now, 0).Equal(now))
	assert.True(t, BillingCycleMonthly.AdvanceBy(now, -3).Equal(now))
}

func TestFixedDays(t *testing.T) {
	assert.Equal(t, 1, BillingCycleDaily.FixedDays())
	assert.Equal(t, 7, BillingCycleWeekly.FixedDays())
	assert.Equal(t, 30, BillingCycleMonthly.FixedDays())
	assert.Equal(t, 90, BillingCycleQuarterly.FixedDays())
	assert.Equal(t, 365, BillingCycleYearly.FixedDays())
	assert.Equal(t, 0, BillingCycle("bogus").FixedDays())
}
