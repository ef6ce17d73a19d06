package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/Shivanand-hulikatti/zeromonos/internal/model"
	"github.com/Shivanand-hulikatti/zeromonos/internal/repository"
)

// memDB backs the fake stores. It mirrors the repository contracts,
// including the daily limit and the status compare-and-set.
type memDB struct {
	mu        sync.Mutex
	bookings  map[string]model.Booking
	order     []string
	history   []model.HistoryEntry
	employees map[string]model.Employee
	tasks     map[string]model.WorkTask
}

func newMemDB() *memDB {
	return &memDB{
		bookings:  map[string]model.Booking{},
		employees: map[string]model.Employee{},
		tasks:     map[string]model.WorkTask{},
	}
}

func (db *memDB) appendHistory(bookingID string, status model.BookingStatus, at time.Time) {
	db.history = append(db.history, model.HistoryEntry{
		ID:        int64(len(db.history) + 1),
		BookingID: bookingID,
		Status:    status,
		Timestamp: at,
	})
}

func (db *memDB) historyFor(bookingID string) []model.HistoryEntry {
	db.mu.Lock()
	defer db.mu.Unlock()
	var out []model.HistoryEntry
	for _, e := range db.history {
		if e.BookingID == bookingID {
			out = append(out, e)
		}
	}
	return out
}

func (db *memDB) updateBooking(b *model.Booking, from model.BookingStatus) error {
	stored, ok := db.bookings[b.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if from != "" && stored.Status != from {
		return repository.ErrStaleStatus
	}
	db.bookings[b.ID] = *b
	return nil
}

type fakeBookings struct {
	db      *memDB
	saveErr error
}

func (f *fakeBookings) Create(ctx context.Context, b *model.Booking, limit int, withHistory bool) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	count := 0
	for _, existing := range f.db.bookings {
		if existing.Municipality == b.Municipality && existing.Day().Equal(b.Day()) {
			count++
		}
	}
	if count >= limit {
		return repository.ErrBookingLimitReached
	}
	f.db.bookings[b.ID] = *b
	f.db.order = append(f.db.order, b.ID)
	if withHistory {
		f.db.appendHistory(b.ID, b.Status, b.CreatedAt)
	}
	return nil
}

func (f *fakeBookings) GetByToken(ctx context.Context, token string) (*model.Booking, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	for _, b := range f.db.bookings {
		if b.Token == token {
			return &b, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeBookings) GetByID(ctx context.Context, id string) (*model.Booking, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	b, ok := f.db.bookings[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &b, nil
}

func (f *fakeBookings) List(ctx context.Context) ([]model.Booking, error) {
	return f.ListByMunicipality(ctx, "")
}

func (f *fakeBookings) ListByMunicipality(ctx context.Context, municipality string) ([]model.Booking, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	var out []model.Booking
	for _, id := range f.db.order {
		b := f.db.bookings[id]
		if municipality == "" || b.Municipality == municipality {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeBookings) Save(ctx context.Context, b *model.Booking, from model.BookingStatus, at time.Time) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if err := f.db.updateBooking(b, from); err != nil {
		return err
	}
	f.db.appendHistory(b.ID, b.Status, at)
	return nil
}

type fakeHistory struct{ db *memDB }

func (f fakeHistory) ListByBooking(ctx context.Context, bookingID string) ([]model.HistoryEntry, error) {
	return f.db.historyFor(bookingID), nil
}

type fakeEmployees struct{ db *memDB }

func (f fakeEmployees) Create(ctx context.Context, e *model.Employee) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	f.db.employees[e.ID] = *e
	return nil
}

func (f fakeEmployees) GetByID(ctx context.Context, id string) (*model.Employee, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	e, ok := f.db.employees[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &e, nil
}

func (f fakeEmployees) List(ctx context.Context) ([]model.Employee, error) {
	return f.ListByMunicipality(ctx, "")
}

func (f fakeEmployees) ListByMunicipality(ctx context.Context, municipality string) ([]model.Employee, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	var out []model.Employee
	for _, e := range f.db.employees {
		if municipality == "" || e.Municipality == municipality {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

type fakeTasks struct {
	db *memDB
	// assignErr simulates a concurrent assignment winning after the pre-check.
	assignErr error
}

func (f *fakeTasks) hydrate(t model.WorkTask) *model.WorkTask {
	b := f.db.bookings[t.Booking.ID]
	e := f.db.employees[t.Employee.ID]
	t.Booking = &b
	t.Employee = &e
	return &t
}

func (f *fakeTasks) Assign(ctx context.Context, task *model.WorkTask, bookingFrom model.BookingStatus, at time.Time) error {
	if f.assignErr != nil {
		return f.assignErr
	}
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	for _, t := range f.db.tasks {
		if t.Booking.ID == task.Booking.ID {
			return repository.ErrTaskExists
		}
	}
	if err := f.db.updateBooking(task.Booking, bookingFrom); err != nil {
		return err
	}
	f.db.tasks[task.ID] = *task
	f.db.appendHistory(task.Booking.ID, task.Booking.Status, at)
	return nil
}

func (f *fakeTasks) Complete(ctx context.Context, task *model.WorkTask, bookingFrom model.BookingStatus, at time.Time) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	stored, ok := f.db.tasks[task.ID]
	if !ok || stored.Status == task.Status {
		return repository.ErrStaleStatus
	}
	if err := f.db.updateBooking(task.Booking, bookingFrom); err != nil {
		return err
	}
	f.db.tasks[task.ID] = *task
	f.db.appendHistory(task.Booking.ID, task.Booking.Status, at)
	return nil
}

func (f *fakeTasks) UpdateStatus(ctx context.Context, id string, status model.TaskStatus, completedAt *time.Time) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	t, ok := f.db.tasks[id]
	if !ok {
		return repository.ErrNotFound
	}
	t.Status = status
	t.CompletedAt = completedAt
	f.db.tasks[id] = t
	return nil
}

func (f *fakeTasks) Delete(ctx context.Context, id string, at time.Time) (bool, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	t, ok := f.db.tasks[id]
	if !ok {
		return false, repository.ErrNotFound
	}
	delete(f.db.tasks, id)

	b, ok := f.db.bookings[t.Booking.ID]
	if !ok || b.Status != model.BookingAssigned {
		return false, nil
	}
	b.Status = model.BookingReceived
	f.db.bookings[b.ID] = b
	f.db.appendHistory(b.ID, model.BookingReceived, at)
	return true, nil
}

func (f *fakeTasks) GetByID(ctx context.Context, id string) (*model.WorkTask, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	t, ok := f.db.tasks[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return f.hydrate(t), nil
}

func (f *fakeTasks) GetByBookingID(ctx context.Context, bookingID string) (*model.WorkTask, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	for _, t := range f.db.tasks {
		if t.Booking.ID == bookingID {
			return f.hydrate(t), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeTasks) List(ctx context.Context) ([]model.WorkTask, error) {
	return f.filter(func(model.WorkTask) bool { return true }), nil
}

func (f *fakeTasks) ListByEmployee(ctx context.Context, employeeID string) ([]model.WorkTask, error) {
	return f.filter(func(t model.WorkTask) bool { return t.Employee.ID == employeeID }), nil
}

func (f *fakeTasks) ListByStatus(ctx context.Context, status model.TaskStatus) ([]model.WorkTask, error) {
	return f.filter(func(t model.WorkTask) bool { return t.Status == status }), nil
}

func (f *fakeTasks) filter(keep func(model.WorkTask) bool) []model.WorkTask {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	var out []model.WorkTask
	for _, t := range f.db.tasks {
		if keep(t) {
			out = append(out, *f.hydrate(t))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AssignedAt.Before(out[j].AssignedAt) })
	return out
}

type recordingPublisher struct {
	mu   sync.Mutex
	keys []string
	err  error
}

func (p *recordingPublisher) PublishJSON(ctx context.Context, key string, v any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.keys = append(p.keys, key)
	return p.err
}

func (p *recordingPublisher) published() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.keys...)
}

var errBroker = errors.New("broker unavailable")

type fixture struct {
	db        *memDB
	bookings  *fakeBookings
	tasks     *fakeTasks
	pub       *recordingPublisher
	hook      *test.Hook
	bookSvc   *BookingService
	taskSvc   *TaskService
	staffSvc  *EmployeeService
	clockTick time.Time
}

func newFixture(opts BookingOptions) *fixture {
	db := newMemDB()
	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)

	f := &fixture{
		db:        db,
		bookings:  &fakeBookings{db: db},
		tasks:     &fakeTasks{db: db},
		pub:       &recordingPublisher{},
		hook:      hook,
		clockTick: time.Date(2025, 10, 1, 12, 0, 0, 0, time.UTC),
	}
	clock := func() time.Time {
		f.clockTick = f.clockTick.Add(time.Second)
		return f.clockTick
	}

	f.bookSvc = NewBookingService(f.bookings, fakeHistory{db: db}, f.pub, log, opts)
	f.bookSvc.now = clock
	f.taskSvc = NewTaskService(f.tasks, f.bookings, fakeEmployees{db: db}, f.pub, log)
	f.taskSvc.now = clock
	f.staffSvc = NewEmployeeService(fakeEmployees{db: db}, log)
	f.staffSvc.now = clock
	return f
}
