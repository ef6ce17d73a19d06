// Package service implements business logic, validation, and orchestration
// between HTTP handlers and the repository layer.
package service

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Shivanand-hulikatti/zeromonos/internal/events"
	"github.com/Shivanand-hulikatti/zeromonos/internal/model"
)

var (
	// ErrBookingNotFound is returned for an unknown token or booking id.
	ErrBookingNotFound = errors.New("booking not found")
	// ErrEmployeeNotFound is returned for an unknown or malformed employee id.
	ErrEmployeeNotFound = errors.New("employee not found")
	// ErrTaskNotFound is returned for an unknown or malformed task id.
	ErrTaskNotFound = errors.New("task not found")

	// ErrBookingLimitReached means the municipality is full for that day.
	ErrBookingLimitReached = errors.New("booking limit reached for this municipality")
	// ErrAlreadyCancelled is returned when cancelling a cancelled booking.
	ErrAlreadyCancelled = errors.New("booking is already cancelled")
	// ErrInvalidStatus wraps a status string that names no known status.
	ErrInvalidStatus = errors.New("invalid status")
	// ErrInvalidTransition wraps a move the booking lifecycle does not allow.
	ErrInvalidTransition = errors.New("status transition not allowed")
	// ErrConcurrentUpdate means the booking changed between read and write.
	ErrConcurrentUpdate = errors.New("booking was modified concurrently")
	// ErrTaskAlreadyAssigned is returned when a booking already has a task.
	ErrTaskAlreadyAssigned = errors.New("booking already has a task assigned")
	// ErrTaskAlreadyCompleted is returned when completing a completed task.
	ErrTaskAlreadyCompleted = errors.New("task is already completed")
)

// ValidationError reports which request fields failed which rule.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+" "+e.Fields[name])
	}
	return "invalid request: " + strings.Join(parts, ", ")
}

func fieldError(field, tag string) error {
	return &ValidationError{Fields: map[string]string{field: tag}}
}

// BookingStore persists bookings. Create enforces the daily limit atomically;
// Save writes the booking and a history entry together.
type BookingStore interface {
	Create(ctx context.Context, b *model.Booking, limit int, withHistory bool) error
	GetByToken(ctx context.Context, token string) (*model.Booking, error)
	GetByID(ctx context.Context, id string) (*model.Booking, error)
	List(ctx context.Context) ([]model.Booking, error)
	ListByMunicipality(ctx context.Context, municipality string) ([]model.Booking, error)
	Save(ctx context.Context, b *model.Booking, from model.BookingStatus, at time.Time) error
}

// HistoryStore reads booking history.
type HistoryStore interface {
	ListByBooking(ctx context.Context, bookingID string) ([]model.HistoryEntry, error)
}

// EmployeeStore persists staff members.
type EmployeeStore interface {
	Create(ctx context.Context, e *model.Employee) error
	GetByID(ctx context.Context, id string) (*model.Employee, error)
	List(ctx context.Context) ([]model.Employee, error)
	ListByMunicipality(ctx context.Context, municipality string) ([]model.Employee, error)
}

// TaskStore persists work tasks. Assign, Complete and Delete also move the
// attached booking and record its history.
type TaskStore interface {
	Assign(ctx context.Context, task *model.WorkTask, bookingFrom model.BookingStatus, at time.Time) error
	Complete(ctx context.Context, task *model.WorkTask, bookingFrom model.BookingStatus, at time.Time) error
	UpdateStatus(ctx context.Context, id string, status model.TaskStatus, completedAt *time.Time) error
	Delete(ctx context.Context, id string, at time.Time) (released bool, err error)
	GetByID(ctx context.Context, id string) (*model.WorkTask, error)
	GetByBookingID(ctx context.Context, bookingID string) (*model.WorkTask, error)
	List(ctx context.Context) ([]model.WorkTask, error)
	ListByEmployee(ctx context.Context, employeeID string) ([]model.WorkTask, error)
	ListByStatus(ctx context.Context, status model.TaskStatus) ([]model.WorkTask, error)
}

var validate = newValidator()

// newValidator reports field names by their json tag.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func validateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate: %w", err)
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fe.Tag()
	}
	return &ValidationError{Fields: fields}
}

// isUUID guards queries against uuid columns; a malformed id can never match.
// Only the canonical 36-character form is accepted: uuid.Validate also takes
// urn:uuid: and braced ids, which the uuid columns may refuse to cast.
func isUUID(id string) bool {
	return len(id) == 36 && uuid.Validate(id) == nil
}

// newToken returns the first 8 hex characters of a random UUID, upper-cased.
func newToken() string {
	return strings.ToUpper(uuid.NewString()[:8])
}

func publish(ctx context.Context, pub events.Publisher, log logrus.FieldLogger, key string, payload any) {
	if err := pub.PublishJSON(ctx, key, payload); err != nil {
		log.WithField("event", key).WithError(err).Warn("publish event failed")
	}
}
