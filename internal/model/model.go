// Package model defines the core domain types for the bulky-waste pickup
// booking system.
package model

import "time"

// Booking is a citizen's pickup request for a municipality on a given date.
// Token is the public handle handed back to the citizen; ID stays internal.
type Booking struct {
	ID           string        `json:"id"`
	Token        string        `json:"token"`
	Description  string        `json:"description"`
	Municipality string        `json:"municipality"`
	Date         time.Time     `json:"date"`
	Status       BookingStatus `json:"status"`
	CreatedAt    time.Time     `json:"created_at"`
}

// Day returns the calendar date of the booking with the time of day dropped.
func (b *Booking) Day() time.Time {
	return DayOf(b.Date)
}

// DayOf truncates t to midnight of its own calendar date.
func DayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// HistoryEntry is an immutable record of a status a booking was saved with.
type HistoryEntry struct {
	ID        int64         `json:"id"`
	BookingID string        `json:"booking_id"`
	Status    BookingStatus `json:"status"`
	Timestamp time.Time     `json:"timestamp"`
}

// Employee is a member of municipal staff who can be assigned work tasks.
type Employee struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Municipality string    `json:"municipality"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// WorkTask binds one booking to the employee responsible for the pickup.
type WorkTask struct {
	ID          string     `json:"id"`
	Booking     *Booking   `json:"booking"`
	Employee    *Employee  `json:"assigned_employee"`
	Status      TaskStatus `json:"status"`
	AssignedAt  time.Time  `json:"assigned_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Notes       string     `json:"notes"`
}

// CreateBookingRequest is the payload for requesting a pickup.
type CreateBookingRequest struct {
	Description  string `json:"description" validate:"required"`
	Municipality string `json:"municipality" validate:"required"`
	Date         string `json:"date" validate:"required"`
}

// UpdateStatusRequest is the payload for a staff status change.
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// CreateEmployeeRequest is the payload for registering a staff member.
type CreateEmployeeRequest struct {
	Name         string `json:"name" validate:"required"`
	Email        string `json:"email" validate:"required,email"`
	Municipality string `json:"municipality" validate:"required"`
	Role         string `json:"role"`
}

// AssignTaskRequest is the payload for assigning a booking to an employee.
type AssignTaskRequest struct {
	BookingToken string `json:"booking_token" validate:"required"`
	EmployeeID   string `json:"employee_id" validate:"required"`
}

// CompleteTaskRequest is the payload for closing a work task.
type CompleteTaskRequest struct {
	Notes string `json:"notes"`
}

// ErrorResponse is a standard JSON error envelope.
type ErrorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}
