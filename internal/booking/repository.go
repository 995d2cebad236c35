package booking

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var ErrAppointmentNotFound = errors.New("appointment not found")

// Repository contains all ledger persistence needed by the coordinator.
type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)

	// ListActiveByExpertUser feeds the overlap check and the detailed
	// slot view: every pending or confirmed appointment of one expert.
	ListActiveByExpertUser(ctx context.Context, expertUserID uuid.UUID) ([]Appointment, error)

	Create(ctx context.Context, appt *Appointment) (*Appointment, error)

	// UpdateStatus transitions id from one of the given statuses to the
	// target, compare-and-swap style, returning ErrAppointmentNotFound
	// when no row matched. A non-nil reply is stored alongside.
	UpdateStatus(ctx context.Context, id uuid.UUID, to Status, reply *string, from ...Status) (*Appointment, error)

	SetRating(ctx context.Context, id uuid.UUID, ratingText string, rating int) (*Appointment, error)

	ListByRequester(ctx context.Context, requesterID uuid.UUID, limit, offset int) ([]Appointment, error)
	ListByExpertUser(ctx context.Context, expertUserID uuid.UUID, limit, offset int) ([]Appointment, error)
	CountByExpertUserAndStatus(ctx context.Context, expertUserID uuid.UUID, status Status) (int64, error)
}
