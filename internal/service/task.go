package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Shivanand-hulikatti/zeromonos/internal/events"
	"github.com/Shivanand-hulikatti/zeromonos/internal/model"
	"github.com/Shivanand-hulikatti/zeromonos/internal/repository"
)

// TaskService assigns bookings to employees and tracks the resulting work.
// It owns the one-task-per-booking rule.
type TaskService struct {
	tasks     TaskStore
	bookings  BookingStore
	employees EmployeeStore
	events    events.Publisher
	log       logrus.FieldLogger

	now func() time.Time
}

// NewTaskService constructs a TaskService with its dependencies.
func NewTaskService(
	tasks TaskStore,
	bookings BookingStore,
	employees EmployeeStore,
	pub events.Publisher,
	log logrus.FieldLogger,
) *TaskService {
	if pub == nil {
		pub = events.Nop{}
	}
	return &TaskService{
		tasks:     tasks,
		bookings:  bookings,
		employees: employees,
		events:    pub,
		log:       log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// AssignTask assigns the booking with the given token to an employee.
func (s *TaskService) AssignTask(ctx context.Context, req model.AssignTaskRequest) (*model.WorkTask, error) {
	req.BookingToken = strings.TrimSpace(req.BookingToken)
	req.EmployeeID = strings.TrimSpace(req.EmployeeID)
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	booking, err := s.bookings.GetByToken(ctx, req.BookingToken)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("get booking: %w", err)
	}
	return s.assign(ctx, booking, req.EmployeeID)
}

// AssignTaskByIDs assigns a booking, addressed by its internal id, to an
// employee.
func (s *TaskService) AssignTaskByIDs(ctx context.Context, bookingID, employeeID string) (*model.WorkTask, error) {
	if !isUUID(bookingID) {
		return nil, ErrBookingNotFound
	}
	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("get booking: %w", err)
	}
	return s.assign(ctx, booking, employeeID)
}

func (s *TaskService) assign(ctx context.Context, booking *model.Booking, employeeID string) (*model.WorkTask, error) {
	employee, err := s.getEmployee(ctx, employeeID)
	if err != nil {
		return nil, err
	}

	switch _, err := s.tasks.GetByBookingID(ctx, booking.ID); {
	case err == nil:
		return nil, ErrTaskAlreadyAssigned
	case !errors.Is(err, repository.ErrNotFound):
		return nil, fmt.Errorf("check existing task: %w", err)
	}

	from := booking.Status
	if !from.CanTransition(model.BookingAssigned) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, model.BookingAssigned)
	}
	assigned := *booking
	assigned.Status = model.BookingAssigned

	now := s.now()
	task := &model.WorkTask{
		ID:         uuid.NewString(),
		Booking:    &assigned,
		Employee:   employee,
		Status:     model.TaskAssigned,
		AssignedAt: now,
	}

	// The pre-check above gives a clean error in the common case; the unique
	// constraint behind Assign settles concurrent assignments.
	if err := s.tasks.Assign(ctx, task, from, now); err != nil {
		switch {
		case errors.Is(err, repository.ErrTaskExists):
			return nil, ErrTaskAlreadyAssigned
		case errors.Is(err, repository.ErrStaleStatus):
			return nil, ErrConcurrentUpdate
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("assign task: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"task_id":  task.ID,
		"token":    assigned.Token,
		"employee": employee.ID,
	}).Info("task assigned")
	publish(ctx, s.events, s.log, events.TaskAssigned, events.NewTaskEvent(task, now))
	publish(ctx, s.events, s.log, events.BookingStatusChanged, events.NewBookingEvent(&assigned, from, now))
	return task, nil
}

// CompleteTask closes a task with the crew's notes and completes its booking.
func (s *TaskService) CompleteTask(ctx context.Context, id, notes string) (*model.WorkTask, error) {
	task, err := s.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}
	if task.Status == model.TaskCompleted {
		return nil, ErrTaskAlreadyCompleted
	}

	from := task.Booking.Status
	if !from.CanTransition(model.BookingCompleted) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, model.BookingCompleted)
	}

	now := s.now()
	task.Status = model.TaskCompleted
	task.CompletedAt = &now
	task.Notes = strings.TrimSpace(notes)
	task.Booking.Status = model.BookingCompleted

	if err := s.tasks.Complete(ctx, task, from, now); err != nil {
		if errors.Is(err, repository.ErrStaleStatus) {
			return nil, ErrConcurrentUpdate
		}
		return nil, fmt.Errorf("complete task: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"task_id": task.ID,
		"token":   task.Booking.Token,
	}).Info("task completed")
	publish(ctx, s.events, s.log, events.TaskCompleted, events.NewTaskEvent(task, now))
	publish(ctx, s.events, s.log, events.BookingStatusChanged, events.NewBookingEvent(task.Booking, from, now))
	return task, nil
}

// UpdateTaskStatus overwrites a task's status. Moving to COMPLETED stamps
// the completion time; the booking is left alone.
func (s *TaskService) UpdateTaskStatus(ctx context.Context, id, status string) (*model.WorkTask, error) {
	status = strings.TrimSpace(status)
	if status == "" {
		return nil, fieldError("status", "required")
	}
	to, err := model.ParseTaskStatus(status)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	if !isUUID(id) {
		return nil, ErrTaskNotFound
	}

	var completedAt *time.Time
	if to == model.TaskCompleted {
		now := s.now()
		completedAt = &now
	}
	if err := s.tasks.UpdateStatus(ctx, id, to, completedAt); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("update task status: %w", err)
	}
	return s.GetTask(ctx, id)
}

// DeleteTask removes a task. A booking still ASSIGNED to it returns to
// RECEIVED so it can be assigned again.
func (s *TaskService) DeleteTask(ctx context.Context, id string) error {
	task, err := s.GetTask(ctx, id)
	if err != nil {
		return err
	}

	now := s.now()
	released, err := s.tasks.Delete(ctx, task.ID, now)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrTaskNotFound
		}
		return fmt.Errorf("delete task: %w", err)
	}

	entry := s.log.WithFields(logrus.Fields{"task_id": task.ID, "token": task.Booking.Token})
	if !released {
		entry.Info("task deleted")
		return nil
	}
	from := task.Booking.Status
	booking := *task.Booking
	booking.Status = model.BookingReceived
	entry.Info("task deleted, booking released")
	publish(ctx, s.events, s.log, events.BookingStatusChanged, events.NewBookingEvent(&booking, from, now))
	return nil
}

// GetTask returns a single task.
func (s *TaskService) GetTask(ctx context.Context, id string) (*model.WorkTask, error) {
	if !isUUID(id) {
		return nil, ErrTaskNotFound
	}
	task, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("get task: %w", err)
	}
	return task, nil
}

// GetAllTasks returns every task.
func (s *TaskService) GetAllTasks(ctx context.Context) ([]model.WorkTask, error) {
	return s.tasks.List(ctx)
}

// GetTasksByEmployee returns the tasks assigned to an existing employee.
func (s *TaskService) GetTasksByEmployee(ctx context.Context, employeeID string) ([]model.WorkTask, error) {
	employee, err := s.getEmployee(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	return s.tasks.ListByEmployee(ctx, employee.ID)
}

// GetTasksByStatus returns the tasks in a given status.
func (s *TaskService) GetTasksByStatus(ctx context.Context, status string) ([]model.WorkTask, error) {
	to, err := model.ParseTaskStatus(strings.TrimSpace(status))
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	return s.tasks.ListByStatus(ctx, to)
}

func (s *TaskService) getEmployee(ctx context.Context, id string) (*model.Employee, error) {
	if !isUUID(id) {
		return nil, ErrEmployeeNotFound
	}
	employee, err := s.employees.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrEmployeeNotFound
		}
		return nil, fmt.Errorf("get employee: %w", err)
	}
	return employee, nil
}
