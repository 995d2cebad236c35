package booking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/consultwise/expert-scheduling/internal/identity"
	redisclient "github.com/consultwise/expert-scheduling/internal/redis"
	"github.com/consultwise/expert-scheduling/internal/schedule"
)

// memoryRepo is an in-memory Repository good enough to drive the
// coordinator through full booking lifecycles.
type memoryRepo struct {
	mu   sync.Mutex
	rows map[uuid.UUID]*Appointment
	fail bool // next Create fails
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{rows: make(map[uuid.UUID]*Appointment)}
}

func (r *memoryRepo) GetByID(_ context.Context, id uuid.UUID) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	appt, ok := r.rows[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	cp := *appt
	return &cp, nil
}

func (r *memoryRepo) ListActiveByExpertUser(_ context.Context, expertUserID uuid.UUID) ([]Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Appointment
	for _, appt := range r.rows {
		if appt.ExpertUserID != expertUserID {
			continue
		}
		if appt.Status == StatusPending || appt.Status == StatusConfirmed {
			out = append(out, *appt)
		}
	}
	return out, nil
}

func (r *memoryRepo) Create(_ context.Context, appt *Appointment) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		r.fail = false
		return nil, errors.New("insert failed")
	}
	cp := *appt
	cp.ID = uuid.New()
	cp.CreatedAt = time.Now()
	cp.UpdatedAt = cp.CreatedAt
	r.rows[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (r *memoryRepo) UpdateStatus(_ context.Context, id uuid.UUID, to Status, reply *string, from ...Status) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	appt, ok := r.rows[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	matched := false
	for _, s := range from {
		if appt.Status == s {
			matched = true
			break
		}
	}
	if !matched {
		return nil, ErrAppointmentNotFound
	}
	appt.Status = to
	if reply != nil {
		appt.ExpertReply = reply
	}
	appt.UpdatedAt = time.Now()
	cp := *appt
	return &cp, nil
}

func (r *memoryRepo) SetRating(_ context.Context, id uuid.UUID, ratingText string, rating int) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	appt, ok := r.rows[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	appt.RatingText = &ratingText
	appt.Rating = &rating
	cp := *appt
	return &cp, nil
}

func (r *memoryRepo) ListByRequester(_ context.Context, requesterID uuid.UUID, limit, offset int) ([]Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Appointment
	for _, appt := range r.rows {
		if appt.RequesterID == requesterID {
			out = append(out, *appt)
		}
	}
	return out, nil
}

func (r *memoryRepo) ListByExpertUser(_ context.Context, expertUserID uuid.UUID, limit, offset int) ([]Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Appointment
	for _, appt := range r.rows {
		if appt.ExpertUserID == expertUserID {
			out = append(out, *appt)
		}
	}
	return out, nil
}

func (r *memoryRepo) CountByExpertUserAndStatus(_ context.Context, expertUserID uuid.UUID, status Status) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, appt := range r.rows {
		if appt.ExpertUserID == expertUserID && appt.Status == status {
			n++
		}
	}
	return n, nil
}

// stubDirectory resolves a fixed set of users and experts.
type stubDirectory struct {
	users   map[uuid.UUID]string
	experts map[uuid.UUID]uuid.UUID // expert user id -> record id
}

func (d *stubDirectory) UserExists(_ context.Context, userID uuid.UUID) (bool, error) {
	_, ok := d.users[userID]
	return ok, nil
}

func (d *stubDirectory) ExpertUserExists(_ context.Context, userID uuid.UUID) (bool, error) {
	_, ok := d.experts[userID]
	return ok, nil
}

func (d *stubDirectory) ResolveExpertRecordID(_ context.Context, expertUserID uuid.UUID) (uuid.UUID, error) {
	id, ok := d.experts[expertUserID]
	if !ok {
		return uuid.Nil, identity.ErrNotAnExpert
	}
	return id, nil
}

func (d *stubDirectory) UserName(_ context.Context, userID uuid.UUID) (string, error) {
	name, ok := d.users[userID]
	if !ok {
		return "", identity.ErrUserNotFound
	}
	return name, nil
}

// mutexLocker serializes critical sections per key, the in-process
// equivalent of the redis slot lock.
type mutexLocker struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newMutexLocker() *mutexLocker {
	return &mutexLocker{locks: make(map[string]*sync.Mutex)}
}

func (l *mutexLocker) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	l.mu.Lock()
	m, ok := l.locks[key]
	if !ok {
		m = &sync.Mutex{}
		l.locks[key] = m
	}
	l.mu.Unlock()

	m.Lock()
	defer m.Unlock()
	return fn(ctx)
}

// contentionLocker always reports the lock as held elsewhere.
type contentionLocker struct{}

func (contentionLocker) WithLock(context.Context, string, func(ctx context.Context) error) error {
	return redisclient.ErrLockNotAcquired
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []string
}

func (n *recordingNotifier) Notify(_ context.Context, event string, _ map[string]any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
}

// memoryScheduleRepo backs a real schedule.Manager so the coordinator is
// exercised against actual grid state transitions. It keeps the Pg
// repository's contract: loads reparse a fresh grid from the stored blob,
// and Save is a compare-and-swap on the version carried in UpdatedAt.
type memoryScheduleRepo struct {
	mu   sync.Mutex
	rows map[uuid.UUID]*storedSchedule
}

type storedSchedule struct {
	id      uuid.UUID
	blob    []byte
	version int64
}

func newMemoryScheduleRepo() *memoryScheduleRepo {
	return &memoryScheduleRepo{rows: make(map[uuid.UUID]*storedSchedule)}
}

func (r *memoryScheduleRepo) GetByExpertRecord(_ context.Context, expertRecordID uuid.UUID) (*schedule.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[expertRecordID]
	if !ok {
		return nil, schedule.ErrScheduleNotFound
	}
	return &schedule.Record{
		ID:             row.id,
		ExpertRecordID: expertRecordID,
		Grid:           schedule.ParseGrid(row.blob),
		UpdatedAt:      time.Unix(0, row.version),
	}, nil
}

func (r *memoryScheduleRepo) Create(_ context.Context, expertRecordID uuid.UUID, grid *schedule.Grid) (*schedule.Record, error) {
	blob, err := grid.Serialize()
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[expertRecordID]
	if !ok {
		// like the upsert, an existing row wins over the new grid
		row = &storedSchedule{id: uuid.New(), blob: blob, version: 1}
		r.rows[expertRecordID] = row
	}
	return &schedule.Record{
		ID:             row.id,
		ExpertRecordID: expertRecordID,
		Grid:           schedule.ParseGrid(row.blob),
		UpdatedAt:      time.Unix(0, row.version),
	}, nil
}

func (r *memoryScheduleRepo) Save(_ context.Context, rec *schedule.Record) error {
	blob, err := rec.Grid.Serialize()
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[rec.ExpertRecordID]
	if !ok {
		return schedule.ErrScheduleNotFound
	}
	if !rec.UpdatedAt.Equal(time.Unix(0, row.version)) {
		return schedule.ErrStaleSchedule
	}
	row.blob = blob
	row.version++
	rec.UpdatedAt = time.Unix(0, row.version)
	return nil
}

func (r *memoryScheduleRepo) ListExpertRecordIDs(_ context.Context) ([]uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]uuid.UUID, 0, len(r.rows))
	for id := range r.rows {
		ids = append(ids, id)
	}
	return ids, nil
}

type fixture struct {
	svc       *Service
	repo      *memoryRepo
	notifier  *recordingNotifier
	requester uuid.UUID
	expert    uuid.UUID // expert user id
	record    uuid.UUID // expert record id
	today     time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	clock := func() time.Time {
		return time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)
	}

	requester := uuid.New()
	expertUser := uuid.New()
	expertRecord := uuid.New()

	dir := &stubDirectory{
		users: map[uuid.UUID]string{
			requester:  "Jordan Vale",
			expertUser: "Dr. Ryn",
		},
		experts: map[uuid.UUID]uuid.UUID{
			expertUser: expertRecord,
		},
	}

	logger := zap.NewNop()
	manager := schedule.NewManager(newMemoryScheduleRepo(), logger).WithClock(clock)
	repo := newMemoryRepo()
	notifier := &recordingNotifier{}

	svc := NewService(repo, manager, dir, newMutexLocker(), notifier, logger).WithClock(clock)

	return &fixture{
		svc:       svc,
		repo:      repo,
		notifier:  notifier,
		requester: requester,
		expert:    expertUser,
		record:    expertRecord,
		today:     time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (f *fixture) at(dayOffset, hour int) time.Time {
	return f.today.AddDate(0, 0, dayOffset).Add(time.Duration(hour) * time.Hour)
}

func (f *fixture) createReq(start time.Time) CreateRequest {
	return CreateRequest{
		RequesterID:     f.requester,
		ExpertUserID:    f.expert,
		StartTime:       start,
		DurationMinutes: 55,
		Description:     "follow-up session",
	}
}

func TestCreateBooksSlot(t *testing.T) {
	f := newFixture(t)

	appt, err := f.svc.Create(context.Background(), f.createReq(f.at(2, 10)))
	require.NoError(t, err)
	require.NotNil(t, appt)

	assert.Equal(t, StatusPending, appt.Status)
	assert.Equal(t, f.record, appt.ExpertRecordID)
	assert.NotEqual(t, uuid.Nil, appt.ID)

	slots, err := f.svc.AvailableSlots(context.Background(), f.expert)
	require.NoError(t, err)
	assert.False(t, slots[2][2], "booked slot must not read available")
	assert.True(t, slots[2][3])
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t)

	t.Run("non-positive duration", func(t *testing.T) {
		req := f.createReq(f.at(2, 10))
		req.DurationMinutes = 0
		_, err := f.svc.Create(context.Background(), req)
		assert.ErrorIs(t, err, ErrInvalidDuration)
	})

	t.Run("unknown requester", func(t *testing.T) {
		req := f.createReq(f.at(2, 10))
		req.RequesterID = uuid.New()
		_, err := f.svc.Create(context.Background(), req)
		assert.ErrorIs(t, err, ErrRequesterNotFound)
	})

	t.Run("unknown expert", func(t *testing.T) {
		req := f.createReq(f.at(2, 10))
		req.ExpertUserID = uuid.New()
		_, err := f.svc.Create(context.Background(), req)
		assert.ErrorIs(t, err, ErrExpertNotFound)
	})

	t.Run("start in the past", func(t *testing.T) {
		_, err := f.svc.Create(context.Background(), f.createReq(f.at(-1, 10)))
		assert.ErrorIs(t, err, ErrOutsideWindow)
	})

	t.Run("start beyond the window", func(t *testing.T) {
		_, err := f.svc.Create(context.Background(), f.createReq(f.at(schedule.WindowDays, 10)))
		assert.ErrorIs(t, err, ErrOutsideWindow)
	})
}

func TestCreateRejectsSameSlot(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(context.Background(), f.createReq(f.at(3, 14)))
	require.NoError(t, err)

	other := f.createReq(f.at(3, 14))
	other.RequesterID = f.requester
	_, err = f.svc.Create(context.Background(), other)
	assert.ErrorIs(t, err, ErrTimeConflict)
}

func TestCreateRejectsOverlappingInterval(t *testing.T) {
	f := newFixture(t)

	// [10:00, 10:55) is booked
	_, err := f.svc.Create(context.Background(), f.createReq(f.at(2, 10)))
	require.NoError(t, err)

	// [10:30, 11:00) overlaps it even though the hours differ
	overlapping := f.createReq(f.today.AddDate(0, 0, 2).Add(10*time.Hour + 30*time.Minute))
	overlapping.DurationMinutes = 30
	_, err = f.svc.Create(context.Background(), overlapping)
	assert.ErrorIs(t, err, ErrTimeConflict)

	// [11:00, 11:55) does not
	_, err = f.svc.Create(context.Background(), f.createReq(f.at(2, 11)))
	assert.NoError(t, err)
}

func TestCreateRejectsUnavailableSlot(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.svc.SetAvailability(context.Background(), f.expert, 2, 2, false))

	_, err := f.svc.Create(context.Background(), f.createReq(f.at(2, 10)))
	assert.ErrorIs(t, err, ErrSlotTaken)
}

func TestCreateMapsLockContention(t *testing.T) {
	f := newFixture(t)
	f.svc.locker = contentionLocker{}

	_, err := f.svc.Create(context.Background(), f.createReq(f.at(2, 10)))
	assert.ErrorIs(t, err, ErrSlotContended)
}

func TestCreateRollsBackReservationOnInsertFailure(t *testing.T) {
	f := newFixture(t)
	f.repo.fail = true

	_, err := f.svc.Create(context.Background(), f.createReq(f.at(2, 10)))
	require.Error(t, err)

	// the cell must be free again, so the retry succeeds
	_, err = f.svc.Create(context.Background(), f.createReq(f.at(2, 10)))
	assert.NoError(t, err)
}

func TestConcurrentCreateSameSlotBooksAtMostOnce(t *testing.T) {
	f := newFixture(t)
	start := f.at(5, 15)

	const attempts = 16
	var wg sync.WaitGroup
	results := make([]error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = f.svc.Create(context.Background(), f.createReq(start))
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range results {
		if err == nil {
			succeeded++
		} else {
			require.True(t,
				errors.Is(err, ErrTimeConflict) || errors.Is(err, ErrSlotTaken),
				"unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, succeeded)
}

func TestConcurrentCreateDistinctSlotsAllSucceed(t *testing.T) {
	f := newFixture(t)

	// distinct slots of the same expert race under different slot locks;
	// no booking may erase another's grid cell
	type cell struct{ day, hour int }
	cells := []cell{
		{1, 8}, {1, 10}, {2, 9}, {3, 14}, {4, 16}, {5, 11}, {6, 17}, {7, 15},
	}

	var wg sync.WaitGroup
	errs := make([]error, len(cells))
	for i, c := range cells {
		wg.Add(1)
		go func(i int, c cell) {
			defer wg.Done()
			_, errs[i] = f.svc.Create(context.Background(), f.createReq(f.at(c.day, c.hour)))
		}(i, c)
	}
	wg.Wait()

	for i, c := range cells {
		require.NoError(t, errs[i], "cell %+v", c)
	}

	// every reserved cell survived every other writer's save
	slots, err := f.svc.AvailableSlots(context.Background(), f.expert)
	require.NoError(t, err)
	for _, c := range cells {
		period, ok := schedule.HourToPeriod(c.hour)
		require.True(t, ok)
		assert.False(t, slots[c.day][period], "cell %+v", c)
	}

	// and each stays exclusively held: rebooking any of them conflicts
	_, err = f.svc.Create(context.Background(), f.createReq(f.at(1, 8)))
	assert.ErrorIs(t, err, ErrTimeConflict)
}

func TestConfirmLifecycle(t *testing.T) {
	f := newFixture(t)

	appt, err := f.svc.Create(context.Background(), f.createReq(f.at(2, 10)))
	require.NoError(t, err)

	confirmed, err := f.svc.Confirm(context.Background(), appt.ID, "see you then")
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, confirmed.Status)
	require.NotNil(t, confirmed.ExpertReply)
	assert.Equal(t, "see you then", *confirmed.ExpertReply)
	assert.Contains(t, f.notifier.events, "APPOINTMENT_CONFIRMED")

	// confirming twice is an invalid transition
	_, err = f.svc.Confirm(context.Background(), appt.ID, "again")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	// the slot stays booked through confirmation
	slots, err := f.svc.AvailableSlots(context.Background(), f.expert)
	require.NoError(t, err)
	assert.False(t, slots[2][2])
}

func TestRejectReleasesSlot(t *testing.T) {
	f := newFixture(t)

	appt, err := f.svc.Create(context.Background(), f.createReq(f.at(2, 10)))
	require.NoError(t, err)

	rejected, err := f.svc.Reject(context.Background(), appt.ID, "fully booked that week")
	require.NoError(t, err)
	assert.Equal(t, StatusRejected, rejected.Status)
	assert.Contains(t, f.notifier.events, "APPOINTMENT_REJECTED")

	slots, err := f.svc.AvailableSlots(context.Background(), f.expert)
	require.NoError(t, err)
	assert.True(t, slots[2][2], "rejected slot must be bookable again")
}

func TestCancelReleasesSlotAndAllowsRebooking(t *testing.T) {
	f := newFixture(t)
	start := f.at(2, 10)

	appt, err := f.svc.Create(context.Background(), f.createReq(start))
	require.NoError(t, err)

	cancelled, err := f.svc.Cancel(context.Background(), appt.ID, f.requester)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, cancelled.Status)

	// the ledger keeps the row
	got, err := f.svc.Get(context.Background(), appt.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, got.Status)

	// and the slot is bookable again
	_, err = f.svc.Create(context.Background(), f.createReq(start))
	assert.NoError(t, err)
}

func TestCancelRequiresRequester(t *testing.T) {
	f := newFixture(t)

	appt, err := f.svc.Create(context.Background(), f.createReq(f.at(2, 10)))
	require.NoError(t, err)

	_, err = f.svc.Cancel(context.Background(), appt.ID, uuid.New())
	assert.ErrorIs(t, err, ErrNotRequester)
}

func TestCancelConfirmedAppointment(t *testing.T) {
	f := newFixture(t)

	appt, err := f.svc.Create(context.Background(), f.createReq(f.at(2, 10)))
	require.NoError(t, err)
	_, err = f.svc.Confirm(context.Background(), appt.ID, "ok")
	require.NoError(t, err)

	cancelled, err := f.svc.Cancel(context.Background(), appt.ID, f.requester)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, cancelled.Status)
}

func TestCompleteKeepsSlotBooked(t *testing.T) {
	f := newFixture(t)

	appt, err := f.svc.Create(context.Background(), f.createReq(f.at(2, 10)))
	require.NoError(t, err)

	// complete requires confirmed first
	_, err = f.svc.Complete(context.Background(), appt.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = f.svc.Confirm(context.Background(), appt.ID, "ok")
	require.NoError(t, err)

	completed, err := f.svc.Complete(context.Background(), appt.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, completed.Status)

	slots, err := f.svc.AvailableSlots(context.Background(), f.expert)
	require.NoError(t, err)
	assert.False(t, slots[2][2], "completed slot is not reopened")
}

func TestRate(t *testing.T) {
	f := newFixture(t)

	appt, err := f.svc.Create(context.Background(), f.createReq(f.at(2, 10)))
	require.NoError(t, err)

	_, err = f.svc.Rate(context.Background(), appt.ID, f.requester, "great", 0)
	assert.ErrorIs(t, err, ErrInvalidRating)
	_, err = f.svc.Rate(context.Background(), appt.ID, f.requester, "great", 6)
	assert.ErrorIs(t, err, ErrInvalidRating)

	_, err = f.svc.Rate(context.Background(), appt.ID, uuid.New(), "great", 5)
	assert.ErrorIs(t, err, ErrNotRequester)

	rated, err := f.svc.Rate(context.Background(), appt.ID, f.requester, "very helpful", 5)
	require.NoError(t, err)
	require.NotNil(t, rated.Rating)
	assert.Equal(t, 5, *rated.Rating)
	require.NotNil(t, rated.RatingText)
	assert.Equal(t, "very helpful", *rated.RatingText)
}

func TestGetHydratesNames(t *testing.T) {
	f := newFixture(t)

	appt, err := f.svc.Create(context.Background(), f.createReq(f.at(2, 10)))
	require.NoError(t, err)

	detail, err := f.svc.Get(context.Background(), appt.ID)
	require.NoError(t, err)
	assert.Equal(t, "Jordan Vale", detail.RequesterName)
	assert.Equal(t, "Dr. Ryn", detail.ExpertName)
}

func TestGetUnknownAppointment(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrAppointmentNotFound)
}

func TestDetailedSlotsOverlaysLedger(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.svc.SetAvailability(context.Background(), f.expert, 1, 5, false))

	appt, err := f.svc.Create(context.Background(), f.createReq(f.at(2, 10)))
	require.NoError(t, err)

	detailed, err := f.svc.DetailedSlots(context.Background(), f.expert)
	require.NoError(t, err)
	assert.Equal(t, schedule.SlotBooked, detailed[2][2])
	assert.Equal(t, schedule.SlotUnavailable, detailed[1][5])
	assert.Equal(t, schedule.SlotFree, detailed[0][0])

	// once cancelled the ledger no longer marks the cell booked
	_, err = f.svc.Cancel(context.Background(), appt.ID, f.requester)
	require.NoError(t, err)

	detailed, err = f.svc.DetailedSlots(context.Background(), f.expert)
	require.NoError(t, err)
	assert.Equal(t, schedule.SlotFree, detailed[2][2])
}

func TestIsExpertAvailable(t *testing.T) {
	f := newFixture(t)

	ok, err := f.svc.IsExpertAvailable(context.Background(), f.expert, f.at(2, 10))
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = f.svc.Create(context.Background(), f.createReq(f.at(2, 10)))
	require.NoError(t, err)

	ok, err = f.svc.IsExpertAvailable(context.Background(), f.expert, f.at(2, 10))
	require.NoError(t, err)
	assert.False(t, ok)

	// outside the window is never available, without error
	ok, err = f.svc.IsExpertAvailable(context.Background(), f.expert, f.at(schedule.WindowDays, 10))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPendingCount(t *testing.T) {
	f := newFixture(t)

	first, err := f.svc.Create(context.Background(), f.createReq(f.at(2, 10)))
	require.NoError(t, err)
	_, err = f.svc.Create(context.Background(), f.createReq(f.at(3, 10)))
	require.NoError(t, err)

	count, err := f.svc.PendingCount(context.Background(), f.expert)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	_, err = f.svc.Confirm(context.Background(), first.ID, "ok")
	require.NoError(t, err)

	count, err = f.svc.PendingCount(context.Background(), f.expert)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestScheduleOpsRejectUnknownExpert(t *testing.T) {
	f := newFixture(t)
	unknown := uuid.New()

	_, err := f.svc.AvailableSlots(context.Background(), unknown)
	assert.ErrorIs(t, err, ErrExpertNotFound)

	_, err = f.svc.DetailedSlots(context.Background(), unknown)
	assert.ErrorIs(t, err, ErrExpertNotFound)

	err = f.svc.SetAvailability(context.Background(), unknown, 0, 0, false)
	assert.ErrorIs(t, err, ErrExpertNotFound)

	_, err = f.svc.SetAvailabilityBatch(context.Background(), unknown, nil)
	assert.ErrorIs(t, err, ErrExpertNotFound)
}

func TestClampPage(t *testing.T) {
	limit, offset := clampPage(0, -5)
	assert.Equal(t, 20, limit)
	assert.Zero(t, offset)

	limit, offset = clampPage(500, 40)
	assert.Equal(t, 100, limit)
	assert.Equal(t, 40, offset)

	limit, _ = clampPage(50, 0)
	assert.Equal(t, 50, limit)
}
