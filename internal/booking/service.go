package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/consultwise/expert-scheduling/internal/identity"
	"github.com/consultwise/expert-scheduling/internal/metrics"
	"github.com/consultwise/expert-scheduling/internal/notify"
	redisclient "github.com/consultwise/expert-scheduling/internal/redis"
	"github.com/consultwise/expert-scheduling/internal/schedule"
)

var (
	ErrInvalidDuration   = errors.New("duration must be positive")
	ErrInvalidRating     = errors.New("rating must be between 1 and 5")
	ErrOutsideWindow     = errors.New("start time is outside the bookable window")
	ErrRequesterNotFound = errors.New("requester not found")
	ErrExpertNotFound    = errors.New("expert not found")
	ErrTimeConflict      = errors.New("time range overlaps an existing appointment")
	ErrSlotTaken         = errors.New("slot is not free")
	ErrSlotContended     = errors.New("slot is currently being booked, please retry")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrNotRequester      = errors.New("only the requester may perform this action")
)

// ScheduleService is the slice of the schedule manager the coordinator
// needs. Satisfied by *schedule.Manager.
type ScheduleService interface {
	Reserve(ctx context.Context, expertRecordID uuid.UUID, date time.Time, period int) (bool, error)
	Release(ctx context.Context, expertRecordID uuid.UUID, date time.Time, period int) (bool, error)
	AvailableSlots(ctx context.Context, expertRecordID uuid.UUID) ([schedule.WindowDays][schedule.PeriodsPerDay]bool, error)
	BaseSlots(ctx context.Context, expertRecordID uuid.UUID) ([schedule.WindowDays][schedule.PeriodsPerDay]schedule.SlotState, error)
	SetAvailability(ctx context.Context, expertRecordID uuid.UUID, dayOffset, period int, available bool) error
	SetAvailabilityBatch(ctx context.Context, expertRecordID uuid.UUID, updates []schedule.AvailabilityUpdate) (int, error)
}

// Service is the booking coordinator: the only writer that touches both
// the appointment ledger and the slot grid, and the locus of the
// no-double-booking invariant.
type Service struct {
	repo     Repository
	sched    ScheduleService
	dir      identity.Directory
	locker   redisclient.Locker
	notifier notify.Notifier
	logger   *zap.Logger
	now      func() time.Time
}

func NewService(repo Repository, sched ScheduleService, dir identity.Directory, locker redisclient.Locker, notifier notify.Notifier, logger *zap.Logger) *Service {
	return &Service{
		repo:     repo,
		sched:    sched,
		dir:      dir,
		locker:   locker,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

// WithClock overrides the service clock. Tests only.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) today() time.Time {
	t := s.now()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func (s *Service) dayOffset(t time.Time) int {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return int(day.Sub(s.today()).Hours() / 24)
}

type CreateRequest struct {
	RequesterID     uuid.UUID
	ExpertUserID    uuid.UUID
	StartTime       time.Time
	DurationMinutes int
	Description     string
	ContactInfo     string
}

// Create books an appointment. Under the per-slot lock it checks the
// requested interval against every active ledger entry, then reserves the
// grid cell, and only then inserts the pending row. The grid's stored
// free/booked check is the concurrency guard; the interval overlap check
// catches requests that do not land on exact slot boundaries.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Appointment, error) {
	if req.DurationMinutes <= 0 {
		return nil, ErrInvalidDuration
	}

	ok, err := s.dir.UserExists(ctx, req.RequesterID)
	if err != nil {
		return nil, fmt.Errorf("check requester: %w", err)
	}
	if !ok {
		return nil, ErrRequesterNotFound
	}

	ok, err = s.dir.ExpertUserExists(ctx, req.ExpertUserID)
	if err != nil {
		return nil, fmt.Errorf("check expert: %w", err)
	}
	if !ok {
		return nil, ErrExpertNotFound
	}

	offset := s.dayOffset(req.StartTime)
	if offset < 0 || offset >= schedule.WindowDays {
		return nil, ErrOutsideWindow
	}

	period, ok := schedule.HourToPeriod(req.StartTime.Hour())
	if !ok {
		return nil, ErrOutsideWindow
	}

	recordID, err := s.dir.ResolveExpertRecordID(ctx, req.ExpertUserID)
	if err != nil {
		if errors.Is(err, identity.ErrUserNotFound) || errors.Is(err, identity.ErrNotAnExpert) {
			return nil, ErrExpertNotFound
		}
		return nil, fmt.Errorf("resolve expert record: %w", err)
	}

	var created *Appointment
	lockKey := redisclient.SlotLockKey(recordID, schedule.DateKey(req.StartTime), period)

	err = s.locker.WithLock(ctx, lockKey, func(lockCtx context.Context) error {
		active, err := s.repo.ListActiveByExpertUser(lockCtx, req.ExpertUserID)
		if err != nil {
			return fmt.Errorf("load active appointments: %w", err)
		}

		end := req.StartTime.Add(time.Duration(req.DurationMinutes) * time.Minute)
		for i := range active {
			if active[i].Overlaps(req.StartTime, end) {
				return ErrTimeConflict
			}
		}

		reserved, err := s.sched.Reserve(lockCtx, recordID, req.StartTime, period)
		if err != nil {
			return fmt.Errorf("reserve slot: %w", err)
		}
		if !reserved {
			return ErrSlotTaken
		}

		appt, err := s.repo.Create(lockCtx, &Appointment{
			RequesterID:     req.RequesterID,
			ExpertUserID:    req.ExpertUserID,
			ExpertRecordID:  recordID,
			StartTime:       req.StartTime,
			DurationMinutes: req.DurationMinutes,
			Status:          StatusPending,
			Description:     req.Description,
			ContactInfo:     req.ContactInfo,
		})
		if err != nil {
			// The cell must not stay booked without a ledger row.
			if _, relErr := s.sched.Release(lockCtx, recordID, req.StartTime, period); relErr != nil {
				s.logger.Error("failed to roll back reservation",
					zap.String("expert_record_id", recordID.String()),
					zap.Error(relErr))
			}
			return fmt.Errorf("create appointment: %w", err)
		}

		created = appt
		return nil
	})

	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrSlotContended
		}
		if errors.Is(err, ErrTimeConflict) || errors.Is(err, ErrSlotTaken) {
			metrics.BookingConflicts.Inc()
		}
		return nil, err
	}

	metrics.BookingsCreated.Inc()
	s.logger.Info("appointment created",
		zap.String("appointment_id", created.ID.String()),
		zap.String("expert_user_id", req.ExpertUserID.String()),
		zap.Time("start_time", req.StartTime))

	return created, nil
}

// Confirm moves a pending appointment to confirmed. The slot is already
// booked, so the grid is untouched.
func (s *Service) Confirm(ctx context.Context, id uuid.UUID, expertReply string) (*Appointment, error) {
	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if appt.Status != StatusPending {
		return nil, ErrInvalidTransition
	}

	updated, err := s.repo.UpdateStatus(ctx, id, StatusConfirmed, &expertReply, StatusPending)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return nil, ErrInvalidTransition
		}
		return nil, fmt.Errorf("confirm appointment: %w", err)
	}

	s.notifier.Notify(ctx, notify.EventAppointmentConfirmed, map[string]any{
		"appointment_id": updated.ID.String(),
		"requester_id":   updated.RequesterID.String(),
		"start_time":     updated.StartTime,
	})

	return updated, nil
}

// Reject moves a pending appointment to rejected and releases its slot.
func (s *Service) Reject(ctx context.Context, id uuid.UUID, expertReply string) (*Appointment, error) {
	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if appt.Status != StatusPending {
		return nil, ErrInvalidTransition
	}

	updated, err := s.repo.UpdateStatus(ctx, id, StatusRejected, &expertReply, StatusPending)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return nil, ErrInvalidTransition
		}
		return nil, fmt.Errorf("reject appointment: %w", err)
	}

	s.releaseSlotFor(ctx, updated)

	s.notifier.Notify(ctx, notify.EventAppointmentRejected, map[string]any{
		"appointment_id": updated.ID.String(),
		"requester_id":   updated.RequesterID.String(),
	})

	return updated, nil
}

// Cancel lets the original requester cancel a pending or confirmed
// appointment, releasing its slot.
func (s *Service) Cancel(ctx context.Context, id, requesterID uuid.UUID) (*Appointment, error) {
	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if appt.RequesterID != requesterID {
		return nil, ErrNotRequester
	}
	if appt.Status != StatusPending && appt.Status != StatusConfirmed {
		return nil, ErrInvalidTransition
	}

	updated, err := s.repo.UpdateStatus(ctx, id, StatusCancelled, nil, StatusPending, StatusConfirmed)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return nil, ErrInvalidTransition
		}
		return nil, fmt.Errorf("cancel appointment: %w", err)
	}

	s.releaseSlotFor(ctx, updated)

	return updated, nil
}

// Complete moves a confirmed appointment to completed. The slot stays
// booked; window cleanup reclaims it.
func (s *Service) Complete(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if appt.Status != StatusConfirmed {
		return nil, ErrInvalidTransition
	}

	updated, err := s.repo.UpdateStatus(ctx, id, StatusCompleted, nil, StatusConfirmed)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return nil, ErrInvalidTransition
		}
		return nil, fmt.Errorf("complete appointment: %w", err)
	}

	return updated, nil
}

// Rate attaches the requester's rating, any time after creation.
func (s *Service) Rate(ctx context.Context, id, requesterID uuid.UUID, ratingText string, rating int) (*Appointment, error) {
	if rating < 1 || rating > 5 {
		return nil, ErrInvalidRating
	}

	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if appt.RequesterID != requesterID {
		return nil, ErrNotRequester
	}

	updated, err := s.repo.SetRating(ctx, id, ratingText, rating)
	if err != nil {
		return nil, fmt.Errorf("rate appointment: %w", err)
	}
	return updated, nil
}

// releaseSlotFor frees the grid cell derived from the appointment's start
// time. An unresolvable expert record downgrades to a warning: leaving the
// ledger transition stuck would be worse than a stale cell that the
// detailed read reconciles over.
func (s *Service) releaseSlotFor(ctx context.Context, appt *Appointment) {
	recordID := appt.ExpertRecordID
	if recordID == uuid.Nil {
		var err error
		recordID, err = s.dir.ResolveExpertRecordID(ctx, appt.ExpertUserID)
		if err != nil {
			s.logger.Warn("skipping slot release, expert record unresolvable",
				zap.String("appointment_id", appt.ID.String()),
				zap.String("expert_user_id", appt.ExpertUserID.String()),
				zap.Error(err))
			return
		}
	}

	period, ok := schedule.HourToPeriod(appt.StartTime.Hour())
	if !ok {
		return
	}

	released, err := s.sched.Release(ctx, recordID, appt.StartTime, period)
	if err != nil {
		s.logger.Warn("slot release failed",
			zap.String("appointment_id", appt.ID.String()),
			zap.Error(err))
		return
	}
	if released {
		metrics.SlotsReleased.Inc()
	}
}

// Get returns one appointment hydrated with display names.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Detail, error) {
	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	detail := &Detail{Appointment: *appt}
	if name, err := s.dir.UserName(ctx, appt.RequesterID); err == nil {
		detail.RequesterName = name
	}
	if name, err := s.dir.UserName(ctx, appt.ExpertUserID); err == nil {
		detail.ExpertName = name
	}
	return detail, nil
}

// ListByRequester returns the requester's appointments, newest first.
func (s *Service) ListByRequester(ctx context.Context, requesterID uuid.UUID, limit, offset int) ([]Appointment, error) {
	limit, offset = clampPage(limit, offset)
	return s.repo.ListByRequester(ctx, requesterID, limit, offset)
}

// ListByExpertUser returns an expert's appointments, newest first.
func (s *Service) ListByExpertUser(ctx context.Context, expertUserID uuid.UUID, limit, offset int) ([]Appointment, error) {
	limit, offset = clampPage(limit, offset)
	return s.repo.ListByExpertUser(ctx, expertUserID, limit, offset)
}

// PendingCount reports how many requests await the expert's decision.
func (s *Service) PendingCount(ctx context.Context, expertUserID uuid.UUID) (int64, error) {
	return s.repo.CountByExpertUserAndStatus(ctx, expertUserID, StatusPending)
}

// AvailableSlots is the coarse availability read, straight off the grid.
func (s *Service) AvailableSlots(ctx context.Context, expertUserID uuid.UUID) ([schedule.WindowDays][schedule.PeriodsPerDay]bool, error) {
	var out [schedule.WindowDays][schedule.PeriodsPerDay]bool

	recordID, err := s.resolveExpert(ctx, expertUserID)
	if err != nil {
		return out, err
	}
	return s.sched.AvailableSlots(ctx, recordID)
}

// DetailedSlots is the reconciliation read: the stored grid as a baseline,
// with booked cells recomputed from live active ledger entries. The two
// can drift; for display the ledger wins.
func (s *Service) DetailedSlots(ctx context.Context, expertUserID uuid.UUID) ([schedule.WindowDays][schedule.PeriodsPerDay]schedule.SlotState, error) {
	var out [schedule.WindowDays][schedule.PeriodsPerDay]schedule.SlotState

	recordID, err := s.resolveExpert(ctx, expertUserID)
	if err != nil {
		return out, err
	}

	out, err = s.sched.BaseSlots(ctx, recordID)
	if err != nil {
		return out, err
	}

	active, err := s.repo.ListActiveByExpertUser(ctx, expertUserID)
	if err != nil {
		return out, fmt.Errorf("load active appointments: %w", err)
	}

	for i := range active {
		offset := s.dayOffset(active[i].StartTime)
		if offset < 0 || offset >= schedule.WindowDays {
			continue
		}
		period, ok := schedule.HourToPeriod(active[i].StartTime.Hour())
		if !ok {
			continue
		}
		out[offset][period] = schedule.SlotBooked
	}

	return out, nil
}

// IsExpertAvailable is the pre-check used before offering a time to a user.
func (s *Service) IsExpertAvailable(ctx context.Context, expertUserID uuid.UUID, t time.Time) (bool, error) {
	offset := s.dayOffset(t)
	if offset < 0 || offset >= schedule.WindowDays {
		return false, nil
	}
	period, ok := schedule.HourToPeriod(t.Hour())
	if !ok {
		return false, nil
	}

	slots, err := s.AvailableSlots(ctx, expertUserID)
	if err != nil {
		return false, err
	}
	return slots[offset][period], nil
}

// SetAvailability applies an expert's free/unavailable toggle.
func (s *Service) SetAvailability(ctx context.Context, expertUserID uuid.UUID, dayOffset, period int, available bool) error {
	recordID, err := s.resolveExpert(ctx, expertUserID)
	if err != nil {
		return err
	}
	return s.sched.SetAvailability(ctx, recordID, dayOffset, period, available)
}

// SetAvailabilityBatch applies a list of toggles as one grid mutation.
func (s *Service) SetAvailabilityBatch(ctx context.Context, expertUserID uuid.UUID, updates []schedule.AvailabilityUpdate) (int, error) {
	recordID, err := s.resolveExpert(ctx, expertUserID)
	if err != nil {
		return 0, err
	}
	return s.sched.SetAvailabilityBatch(ctx, recordID, updates)
}

func (s *Service) resolveExpert(ctx context.Context, expertUserID uuid.UUID) (uuid.UUID, error) {
	recordID, err := s.dir.ResolveExpertRecordID(ctx, expertUserID)
	if err != nil {
		if errors.Is(err, identity.ErrUserNotFound) || errors.Is(err, identity.ErrNotAnExpert) {
			return uuid.Nil, ErrExpertNotFound
		}
		return uuid.Nil, fmt.Errorf("resolve expert record: %w", err)
	}
	return recordID, nil
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
