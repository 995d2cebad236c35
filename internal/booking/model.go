package booking

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusRejected  Status = "rejected"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
)

// ActiveStatuses are the statuses that occupy a slot. Rejection,
// cancellation and completion are terminal values, never row removal.
var ActiveStatuses = []Status{StatusPending, StatusConfirmed}

// Appointment is one booking between a requester and an expert. The
// (date, period) it occupies is derived from StartTime on demand, never
// stored redundantly.
type Appointment struct {
	ID              uuid.UUID
	RequesterID     uuid.UUID
	ExpertUserID    uuid.UUID
	ExpertRecordID  uuid.UUID
	StartTime       time.Time
	DurationMinutes int
	Status          Status
	Description     string
	ContactInfo     string
	ExpertReply     *string
	RatingText      *string
	Rating          *int
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// EndTime is the exclusive end of the appointment's interval.
func (a *Appointment) EndTime() time.Time {
	return a.StartTime.Add(time.Duration(a.DurationMinutes) * time.Minute)
}

// Overlaps reports whether two half-open intervals [start, end) intersect.
func (a *Appointment) Overlaps(start, end time.Time) bool {
	return a.StartTime.Before(end) && a.EndTime().After(start)
}

// Detail is an appointment hydrated with display names for the API layer.
type Detail struct {
	Appointment
	RequesterName string
	ExpertName    string
}
