package events

import (
	"time"

	"github.com/Shivanand-hulikatti/zeromonos/internal/model"
)

// BookingEvent is the body of booking.* events.
type BookingEvent struct {
	BookingID    string              `json:"booking_id"`
	Token        string              `json:"token"`
	Municipality string              `json:"municipality"`
	Date         time.Time           `json:"date"`
	From         model.BookingStatus `json:"from,omitempty"`
	Status       model.BookingStatus `json:"status"`
	OccurredAt   time.Time           `json:"occurred_at"`
}

// NewBookingEvent describes b after a move from from (empty on creation).
func NewBookingEvent(b *model.Booking, from model.BookingStatus, at time.Time) BookingEvent {
	return BookingEvent{
		BookingID:    b.ID,
		Token:        b.Token,
		Municipality: b.Municipality,
		Date:         b.Date,
		From:         from,
		Status:       b.Status,
		OccurredAt:   at,
	}
}

// TaskEvent is the body of task.* events.
type TaskEvent struct {
	TaskID       string           `json:"task_id"`
	BookingToken string           `json:"booking_token"`
	EmployeeID   string           `json:"employee_id"`
	Status       model.TaskStatus `json:"status"`
	OccurredAt   time.Time        `json:"occurred_at"`
}

// NewTaskEvent describes t at time at.
func NewTaskEvent(t *model.WorkTask, at time.Time) TaskEvent {
	return TaskEvent{
		TaskID:       t.ID,
		BookingToken: t.Booking.Token,
		EmployeeID:   t.Employee.ID,
		Status:       t.Status,
		OccurredAt:   at,
	}
}
