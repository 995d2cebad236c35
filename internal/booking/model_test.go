package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestOverlapsHalfOpenIntervals(t *testing.T) {
	base := time.Date(2026, 9, 3, 10, 0, 0, 0, time.UTC)
	appt := &Appointment{StartTime: base, DurationMinutes: 60}

	assert.Equal(t, base.Add(time.Hour), appt.EndTime())

	// identical interval
	assert.True(t, appt.Overlaps(base, base.Add(time.Hour)))

	// partial overlaps on either side
	assert.True(t, appt.Overlaps(base.Add(30*time.Minute), base.Add(90*time.Minute)))
	assert.True(t, appt.Overlaps(base.Add(-30*time.Minute), base.Add(30*time.Minute)))

	// contained and containing
	assert.True(t, appt.Overlaps(base.Add(15*time.Minute), base.Add(45*time.Minute)))
	assert.True(t, appt.Overlaps(base.Add(-time.Hour), base.Add(2*time.Hour)))

	// back-to-back intervals do not overlap
	assert.False(t, appt.Overlaps(base.Add(time.Hour), base.Add(2*time.Hour)))
	assert.False(t, appt.Overlaps(base.Add(-time.Hour), base))
}
