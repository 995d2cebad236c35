package schedule

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrScheduleNotFound = errors.New("schedule not found")

	// ErrStaleSchedule means the stored row changed between load and save.
	ErrStaleSchedule = errors.New("schedule was modified concurrently")
)

// Record is one persisted schedule row: the serialized grid of one expert
// record.
type Record struct {
	ID             uuid.UUID
	ExpertRecordID uuid.UUID
	Grid           *Grid
	UpdatedAt      time.Time
}

// Repository persists schedule records. Grids travel as serialized blobs;
// the manager owns deserialization and all mutation. Loads hand back a
// fresh copy each time; writers never share grid state through the repo.
type Repository interface {
	GetByExpertRecord(ctx context.Context, expertRecordID uuid.UUID) (*Record, error)
	Create(ctx context.Context, expertRecordID uuid.UUID, grid *Grid) (*Record, error)

	// Save is a compare-and-swap on the record's UpdatedAt: it fails with
	// ErrStaleSchedule when another writer saved since this record was
	// loaded, so overlapping whole-grid writes cannot erase each other's
	// cells. On success the record's UpdatedAt is advanced in place.
	Save(ctx context.Context, rec *Record) error

	// ListExpertRecordIDs feeds the daily sweep.
	ListExpertRecordIDs(ctx context.Context) ([]uuid.UUID, error)
}
