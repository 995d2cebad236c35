package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHourToPeriodCanonicalHours(t *testing.T) {
	for period, hour := range periodStartHours {
		got, ok := HourToPeriod(hour)
		require.True(t, ok, "hour %d", hour)
		assert.Equal(t, period, got, "hour %d", hour)
	}
}

func TestHourToPeriodSnapsNonCanonicalHours(t *testing.T) {
	cases := map[int]int{
		0:  0,
		5:  0,
		7:  0,
		12: 4,
		13: 4,
		18: 7,
		19: 7,
		23: 7,
	}

	for hour, want := range cases {
		got, ok := HourToPeriod(hour)
		require.True(t, ok, "hour %d", hour)
		assert.Equal(t, want, got, "hour %d", hour)
	}
}

func TestHourToPeriodEveryInRangeHourResolves(t *testing.T) {
	for hour := 0; hour < 24; hour++ {
		period, ok := HourToPeriod(hour)
		require.True(t, ok, "hour %d", hour)
		assert.GreaterOrEqual(t, period, 0)
		assert.Less(t, period, PeriodsPerDay)
	}
}

func TestHourToPeriodOutOfRange(t *testing.T) {
	for _, hour := range []int{-1, 24, 100} {
		_, ok := HourToPeriod(hour)
		assert.False(t, ok, "hour %d", hour)
	}
}

func TestPeriodStartHour(t *testing.T) {
	assert.Equal(t, 8, PeriodStartHour(0))
	assert.Equal(t, 11, PeriodStartHour(3))
	assert.Equal(t, 14, PeriodStartHour(4))
	assert.Equal(t, 17, PeriodStartHour(7))

	// out-of-range falls back to the first period
	assert.Equal(t, 8, PeriodStartHour(-1))
	assert.Equal(t, 8, PeriodStartHour(PeriodsPerDay))
}

func TestHourToPeriodRoundTripsThroughStartHour(t *testing.T) {
	for period := 0; period < PeriodsPerDay; period++ {
		got, ok := HourToPeriod(PeriodStartHour(period))
		require.True(t, ok)
		assert.Equal(t, period, got)
	}
}
