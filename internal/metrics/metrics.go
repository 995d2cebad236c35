package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BookingsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "booking_appointments_created_total",
		Help: "Appointments successfully created.",
	})

	BookingConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "booking_conflicts_total",
		Help: "Booking attempts rejected because the slot or interval was taken.",
	})

	SlotsReleased = promauto.NewCounter(prometheus.CounterOpts{
		Name: "booking_slots_released_total",
		Help: "Slots released by rejection or cancellation.",
	})

	SweepRuns = promauto.NewCounter(prometheus.CounterOpts{
		Name: "schedule_sweep_runs_total",
		Help: "Completed schedule window maintenance runs.",
	})
)
