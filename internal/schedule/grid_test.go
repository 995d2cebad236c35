package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustDate(t *testing.T, value string) time.Time {
	t.Helper()
	d, err := time.Parse(dateLayout, value)
	require.NoError(t, err)
	return d
}

func TestGridMissingDatesReadFree(t *testing.T) {
	g := NewGrid()
	date := mustDate(t, "2026-09-10")

	for period := 0; period < PeriodsPerDay; period++ {
		assert.Equal(t, SlotFree, g.SlotAt(date, period))
	}
}

func TestGridReserveAndRelease(t *testing.T) {
	g := NewGrid()
	date := mustDate(t, "2026-09-10")

	require.True(t, g.Reserve(date, 2))
	assert.Equal(t, SlotBooked, g.SlotAt(date, 2))

	// second reserve on a booked cell fails without mutation
	assert.False(t, g.Reserve(date, 2))
	assert.Equal(t, SlotBooked, g.SlotAt(date, 2))

	require.True(t, g.Release(date, 2))
	assert.Equal(t, SlotFree, g.SlotAt(date, 2))

	// releasing a free cell is a no-op
	assert.False(t, g.Release(date, 2))
}

func TestGridReserveRejectsUnavailable(t *testing.T) {
	g := NewGrid()
	date := mustDate(t, "2026-09-10")

	g.SetAvailability(date, 3, false)
	assert.Equal(t, SlotUnavailable, g.SlotAt(date, 3))
	assert.False(t, g.Reserve(date, 3))
}

func TestGridSetAvailabilityLeavesBookedUntouched(t *testing.T) {
	g := NewGrid()
	date := mustDate(t, "2026-09-10")

	require.True(t, g.Reserve(date, 1))

	g.SetAvailability(date, 1, false)
	assert.Equal(t, SlotBooked, g.SlotAt(date, 1))

	g.SetAvailability(date, 1, true)
	assert.Equal(t, SlotBooked, g.SlotAt(date, 1))
}

func TestGridSetAvailabilityToggles(t *testing.T) {
	g := NewGrid()
	date := mustDate(t, "2026-09-10")

	g.SetAvailability(date, 0, false)
	assert.Equal(t, SlotUnavailable, g.SlotAt(date, 0))

	g.SetAvailability(date, 0, true)
	assert.Equal(t, SlotFree, g.SlotAt(date, 0))
}

func TestGridOutOfRangePeriodIsIgnored(t *testing.T) {
	g := NewGrid()
	date := mustDate(t, "2026-09-10")

	assert.False(t, g.Reserve(date, -1))
	assert.False(t, g.Reserve(date, PeriodsPerDay))
	g.SetAvailability(date, PeriodsPerDay, false)
	assert.Empty(t, g.Dates())
}

func TestGridEnsureFutureDays(t *testing.T) {
	g := NewGrid()
	today := mustDate(t, "2026-09-01")

	changed := g.EnsureFutureDays(today, WindowDays)
	require.True(t, changed)
	require.Len(t, g.Dates(), WindowDays)

	assert.Equal(t, "2026-09-01", g.Dates()[0])
	assert.Equal(t, "2026-09-14", g.Dates()[WindowDays-1])

	// idempotent on the second pass
	assert.False(t, g.EnsureFutureDays(today, WindowDays))
}

func TestGridEnsureFutureDaysPreservesExistingState(t *testing.T) {
	g := NewGrid()
	today := mustDate(t, "2026-09-01")

	require.True(t, g.Reserve(today.AddDate(0, 0, 3), 5))
	g.EnsureFutureDays(today, WindowDays)

	assert.Equal(t, SlotBooked, g.SlotAt(today.AddDate(0, 0, 3), 5))
}

func TestGridCleanupBefore(t *testing.T) {
	g := NewGrid()
	today := mustDate(t, "2026-09-01")

	g.EnsureFutureDays(today.AddDate(0, 0, -10), 10+WindowDays)
	require.Len(t, g.Dates(), 10+WindowDays)

	changed := g.CleanupBefore(today.AddDate(0, 0, -RetentionDays))
	require.True(t, changed)

	dates := g.Dates()
	assert.Equal(t, DateKey(today.AddDate(0, 0, -RetentionDays)), dates[0])
	assert.False(t, g.CleanupBefore(today.AddDate(0, 0, -RetentionDays)))
}

func TestGridSerializeRoundTrip(t *testing.T) {
	g := NewGrid()
	date := mustDate(t, "2026-09-10")

	require.True(t, g.Reserve(date, 7))
	g.SetAvailability(date, 2, false)
	g.EnsureFutureDays(date, 3)

	data, err := g.Serialize()
	require.NoError(t, err)

	parsed := ParseGrid(data)
	assert.Equal(t, g.Dates(), parsed.Dates())
	assert.Equal(t, SlotBooked, parsed.SlotAt(date, 7))
	assert.Equal(t, SlotUnavailable, parsed.SlotAt(date, 2))
	assert.Equal(t, SlotFree, parsed.SlotAt(date, 0))
}

func TestGridSerializeFormat(t *testing.T) {
	g := NewGrid()
	date := mustDate(t, "2026-09-10")

	g.SetAvailability(date, 2, false)
	require.True(t, g.Reserve(date, 7))

	data, err := g.Serialize()
	require.NoError(t, err)
	assert.JSONEq(t, `{"2026-09-10":"0,0,2,0,0,0,0,1"}`, string(data))
}

func TestParseGridDegradesGracefully(t *testing.T) {
	// not JSON at all
	g := ParseGrid([]byte("not json"))
	assert.Empty(t, g.Dates())

	// empty blob
	g = ParseGrid(nil)
	assert.Empty(t, g.Dates())

	// bad cells degrade to free, bad date keys are skipped
	g = ParseGrid([]byte(`{"2026-09-10":"0,x,9,1","oops":"1,1,1"}`))
	require.Equal(t, []string{"2026-09-10"}, g.Dates())
	date := mustDate(t, "2026-09-10")
	assert.Equal(t, SlotFree, g.SlotAt(date, 1))
	assert.Equal(t, SlotFree, g.SlotAt(date, 2))
	assert.Equal(t, SlotBooked, g.SlotAt(date, 3))
	// cells absent from a short row read free
	assert.Equal(t, SlotFree, g.SlotAt(date, 7))
}
