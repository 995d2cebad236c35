package schedule

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrSlotOutOfRange = errors.New("day offset or period index out of range")

// maxSaveAttempts bounds how often a mutation is replayed when its
// compare-and-swap save loses to a concurrent writer.
const maxSaveAttempts = 3

// AvailabilityUpdate is one element of a batched availability change.
type AvailabilityUpdate struct {
	DayOffset   int  `json:"day_offset"`
	PeriodIndex int  `json:"period_index"`
	Available   bool `json:"available"`
}

// Manager owns the authoritative slot grid per expert record and its
// window lifecycle. All grid mutation goes through its state-checked
// operations. Mutations serialize per expert within this process; the
// repository's compare-and-swap save covers writers in other processes.
type Manager struct {
	repo   Repository
	logger *zap.Logger
	now    func() time.Time

	mu      sync.Mutex
	experts map[uuid.UUID]*sync.Mutex
}

func NewManager(repo Repository, logger *zap.Logger) *Manager {
	return &Manager{
		repo:    repo,
		logger:  logger,
		now:     time.Now,
		experts: make(map[uuid.UUID]*sync.Mutex),
	}
}

func (m *Manager) expertLock(expertRecordID uuid.UUID) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.experts[expertRecordID]
	if !ok {
		l = &sync.Mutex{}
		m.experts[expertRecordID] = l
	}
	return l
}

// WithClock overrides the manager's clock. Tests only.
func (m *Manager) WithClock(now func() time.Time) *Manager {
	m.now = now
	return m
}

// Today returns the start of the current day, the base of all day offsets.
func (m *Manager) Today() time.Time {
	t := m.now()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// GetOrCreate loads the expert's schedule record, creating an empty one if
// absent. On every load it re-derives the rolling window, materializing the
// next WindowDays days and dropping rows past retention, so the window
// stays current lazily as a side effect of use.
func (m *Manager) GetOrCreate(ctx context.Context, expertRecordID uuid.UUID) (*Record, error) {
	today := m.Today()

	for attempt := 0; ; attempt++ {
		rec, err := m.repo.GetByExpertRecord(ctx, expertRecordID)
		if errors.Is(err, ErrScheduleNotFound) {
			grid := NewGrid()
			grid.EnsureFutureDays(today, WindowDays)
			created, err := m.repo.Create(ctx, expertRecordID, grid)
			if err != nil {
				return nil, fmt.Errorf("create schedule: %w", err)
			}
			return created, nil
		}
		if err != nil {
			return nil, fmt.Errorf("load schedule: %w", err)
		}

		ensured := rec.Grid.EnsureFutureDays(today, WindowDays)
		cleaned := rec.Grid.CleanupBefore(today.AddDate(0, 0, -RetentionDays))
		if !ensured && !cleaned {
			return rec, nil
		}

		err = m.repo.Save(ctx, rec)
		if err == nil {
			return rec, nil
		}
		if !errors.Is(err, ErrStaleSchedule) || attempt >= maxSaveAttempts-1 {
			return nil, fmt.Errorf("save schedule window: %w", err)
		}
	}
}

// mutate loads the record, applies fn, and saves through the repository's
// compare-and-swap. The per-expert mutex serializes writers in this
// process; when the save still loses to a writer elsewhere, the whole
// sequence is replayed against the fresh state, so a slow writer can never
// erase cells another writer just persisted. fn reports whether anything
// changed; an unchanged grid is not saved.
func (m *Manager) mutate(ctx context.Context, expertRecordID uuid.UUID, fn func(rec *Record) bool) (bool, error) {
	l := m.expertLock(expertRecordID)
	l.Lock()
	defer l.Unlock()

	for attempt := 0; ; attempt++ {
		rec, err := m.GetOrCreate(ctx, expertRecordID)
		if err != nil {
			return false, err
		}

		if !fn(rec) {
			return false, nil
		}

		err = m.repo.Save(ctx, rec)
		if err == nil {
			return true, nil
		}
		if !errors.Is(err, ErrStaleSchedule) || attempt >= maxSaveAttempts-1 {
			return false, err
		}
	}
}

// AvailableSlots is the coarse read: free means bookable, anything else
// does not.
func (m *Manager) AvailableSlots(ctx context.Context, expertRecordID uuid.UUID) ([WindowDays][PeriodsPerDay]bool, error) {
	var out [WindowDays][PeriodsPerDay]bool

	rec, err := m.GetOrCreate(ctx, expertRecordID)
	if err != nil {
		return out, err
	}

	today := m.Today()
	for day := 0; day < WindowDays; day++ {
		row := rec.Grid.DayAt(today.AddDate(0, 0, day))
		for period := 0; period < PeriodsPerDay; period++ {
			out[day][period] = row[period] == SlotFree
		}
	}

	return out, nil
}

// BaseSlots returns the raw stored grid over the window, the baseline the
// detailed read overlays live ledger state onto.
func (m *Manager) BaseSlots(ctx context.Context, expertRecordID uuid.UUID) ([WindowDays][PeriodsPerDay]SlotState, error) {
	var out [WindowDays][PeriodsPerDay]SlotState

	rec, err := m.GetOrCreate(ctx, expertRecordID)
	if err != nil {
		return out, err
	}

	today := m.Today()
	for day := 0; day < WindowDays; day++ {
		out[day] = rec.Grid.DayAt(today.AddDate(0, 0, day))
	}

	return out, nil
}

// SetAvailability applies an expert's free/unavailable toggle to one cell.
// Booked cells are left untouched.
func (m *Manager) SetAvailability(ctx context.Context, expertRecordID uuid.UUID, dayOffset, period int, available bool) error {
	if dayOffset < 0 || dayOffset >= WindowDays || period < 0 || period >= PeriodsPerDay {
		return ErrSlotOutOfRange
	}

	date := m.Today().AddDate(0, 0, dayOffset)
	_, err := m.mutate(ctx, expertRecordID, func(rec *Record) bool {
		rec.Grid.SetAvailability(date, period, available)
		return true
	})
	return err
}

// SetAvailabilityBatch applies a list of toggles as one grid mutation and
// one persist. Out-of-range tuples are skipped, not fatal; the applied
// count is returned.
func (m *Manager) SetAvailabilityBatch(ctx context.Context, expertRecordID uuid.UUID, updates []AvailabilityUpdate) (int, error) {
	valid := make([]AvailabilityUpdate, 0, len(updates))
	for _, u := range updates {
		if u.DayOffset < 0 || u.DayOffset >= WindowDays || u.PeriodIndex < 0 || u.PeriodIndex >= PeriodsPerDay {
			m.logger.Warn("skipping out-of-range availability update",
				zap.String("expert_record_id", expertRecordID.String()),
				zap.Int("day_offset", u.DayOffset),
				zap.Int("period_index", u.PeriodIndex))
			continue
		}
		valid = append(valid, u)
	}
	if len(valid) == 0 {
		return 0, nil
	}

	today := m.Today()
	_, err := m.mutate(ctx, expertRecordID, func(rec *Record) bool {
		for _, u := range valid {
			rec.Grid.SetAvailability(today.AddDate(0, 0, u.DayOffset), u.PeriodIndex, u.Available)
		}
		return true
	})
	if err != nil {
		return 0, err
	}
	return len(valid), nil
}

// Reserve transitions one cell free -> booked and persists. It reports
// false without mutation when the cell is not free. Callers must hold the
// per-slot lock; the stored-state check here is the actual double-booking
// guard, and the compare-and-swap save keeps writers on other slots of the
// same expert from erasing this cell.
func (m *Manager) Reserve(ctx context.Context, expertRecordID uuid.UUID, date time.Time, period int) (bool, error) {
	ok, err := m.mutate(ctx, expertRecordID, func(rec *Record) bool {
		return rec.Grid.Reserve(date, period)
	})
	if err != nil {
		return false, fmt.Errorf("persist reservation: %w", err)
	}
	return ok, nil
}

// Release transitions one cell booked -> free and persists.
func (m *Manager) Release(ctx context.Context, expertRecordID uuid.UUID, date time.Time, period int) (bool, error) {
	ok, err := m.mutate(ctx, expertRecordID, func(rec *Record) bool {
		return rec.Grid.Release(date, period)
	})
	if err != nil {
		return false, fmt.Errorf("persist release: %w", err)
	}
	return ok, nil
}

// Sweep runs window maintenance for every known expert record. One failing
// expert does not abort the rest.
func (m *Manager) Sweep(ctx context.Context) error {
	ids, err := m.repo.ListExpertRecordIDs(ctx)
	if err != nil {
		return fmt.Errorf("list expert records: %w", err)
	}

	for _, id := range ids {
		if _, err := m.GetOrCreate(ctx, id); err != nil {
			m.logger.Error("sweep failed for expert record",
				zap.String("expert_record_id", id.String()),
				zap.Error(err))
		}
	}

	m.logger.Info("schedule sweep complete", zap.Int("expert_records", len(ids)))
	return nil
}
