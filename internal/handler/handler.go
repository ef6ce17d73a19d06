// Package handler contains chi HTTP handlers that translate HTTP
// requests/responses to and from the service layer.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/Shivanand-hulikatti/zeromonos/internal/model"
	"github.com/Shivanand-hulikatti/zeromonos/internal/service"
)

// BookingService is the booking behaviour the handlers need.
type BookingService interface {
	CreateBooking(ctx context.Context, req model.CreateBookingRequest) (*model.Booking, error)
	GetBookingByToken(ctx context.Context, token string) (*model.Booking, bool, error)
	GetAllBookings(ctx context.Context) ([]model.Booking, error)
	GetBookingsByMunicipality(ctx context.Context, municipality string) ([]model.Booking, error)
	UpdateStatus(ctx context.Context, token, status string) (*model.Booking, error)
	Cancel(ctx context.Context, token string) (*model.Booking, error)
	GetStatusHistory(ctx context.Context, b *model.Booking) ([]model.HistoryEntry, error)
}

// EmployeeService is the staff behaviour the handlers need.
type EmployeeService interface {
	CreateEmployee(ctx context.Context, req model.CreateEmployeeRequest) (*model.Employee, error)
	GetEmployee(ctx context.Context, id string) (*model.Employee, error)
	GetAllEmployees(ctx context.Context) ([]model.Employee, error)
	GetEmployeesByMunicipality(ctx context.Context, municipality string) ([]model.Employee, error)
}

// TaskService is the work-task behaviour the handlers need.
type TaskService interface {
	AssignTask(ctx context.Context, req model.AssignTaskRequest) (*model.WorkTask, error)
	CompleteTask(ctx context.Context, id, notes string) (*model.WorkTask, error)
	UpdateTaskStatus(ctx context.Context, id, status string) (*model.WorkTask, error)
	DeleteTask(ctx context.Context, id string) error
	GetTask(ctx context.Context, id string) (*model.WorkTask, error)
	GetAllTasks(ctx context.Context) ([]model.WorkTask, error)
	GetTasksByEmployee(ctx context.Context, employeeID string) ([]model.WorkTask, error)
	GetTasksByStatus(ctx context.Context, status string) ([]model.WorkTask, error)
}

// Handler holds all HTTP handlers for the pickup API.
type Handler struct {
	bookings  BookingService
	employees EmployeeService
	tasks     TaskService
	log       logrus.FieldLogger
}

// New constructs a Handler.
func New(bookings BookingService, employees EmployeeService, tasks TaskService, log logrus.FieldLogger) *Handler {
	return &Handler{bookings: bookings, employees: employees, tasks: tasks, log: log}
}

// Routes returns the API router. It is meant to be mounted under /api.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Route("/bookings", func(r chi.Router) {
		r.Post("/", h.CreateBooking)
		r.Get("/", h.ListBookings)
		r.Get("/{token}", h.GetBooking)
		r.Put("/{token}/cancel", h.CancelBooking)
		r.Put("/{token}/status", h.UpdateBookingStatus)
		r.Get("/{token}/history", h.BookingHistory)
	})

	r.Route("/employees", func(r chi.Router) {
		r.Post("/", h.CreateEmployee)
		r.Get("/", h.ListEmployees)
		r.Get("/{id}", h.GetEmployee)
		r.Get("/municipality/{municipality}", h.ListEmployeesByMunicipality)
	})

	r.Route("/tasks", func(r chi.Router) {
		r.Post("/", h.AssignTask)
		r.Get("/", h.ListTasks)
		r.Get("/{id}", h.GetTask)
		r.Get("/employee/{id}", h.ListTasksByEmployee)
		r.Put("/{id}/complete", h.CompleteTask)
		r.Put("/{id}/status", h.UpdateTaskStatus)
		r.Delete("/{id}", h.DeleteTask)
	})

	return r
}

// ─── Helper utilities ─────────────────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, model.ErrorResponse{Error: msg})
}

// decodeJSON reads a single JSON object into dst. An empty body is accepted
// when allowEmpty is set and leaves dst untouched.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any, allowEmpty bool) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1 MB limit
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	err := dec.Decode(dst)
	if allowEmpty && errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// respondError maps service errors onto status codes. Anything unrecognised
// is logged and reported as a 500 without detail.
func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, model.ErrorResponse{Error: verr.Error(), Fields: verr.Fields})
	case errors.Is(err, service.ErrInvalidStatus):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrBookingNotFound),
		errors.Is(err, service.ErrEmployeeNotFound),
		errors.Is(err, service.ErrTaskNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrBookingLimitReached):
		writeError(w, http.StatusTooManyRequests, err.Error())
	case errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrAlreadyCancelled),
		errors.Is(err, service.ErrTaskAlreadyAssigned),
		errors.Is(err, service.ErrTaskAlreadyCompleted),
		errors.Is(err, service.ErrConcurrentUpdate):
		writeError(w, http.StatusConflict, err.Error())
	default:
		h.log.WithFields(logrus.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
		}).WithError(err).Error("request failed")
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// emptyIfNil keeps list endpoints returning [] rather than null.
func emptyIfNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

// ─── Health check ─────────────────────────────────────────────────────────────

// HealthCheck handles GET /health
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
