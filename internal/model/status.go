package model

import "fmt"

// BookingStatus is the lifecycle state of a booking.
type BookingStatus string

const (
	BookingReceived   BookingStatus = "RECEIVED"
	BookingInProgress BookingStatus = "IN_PROGRESS"
	BookingAssigned   BookingStatus = "ASSIGNED"
	BookingCompleted  BookingStatus = "COMPLETED"
	BookingCancelled  BookingStatus = "CANCELLED"
)

// COMPLETED and CANCELLED have no outgoing edges.
var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingReceived:   {BookingInProgress, BookingAssigned, BookingCancelled},
	BookingInProgress: {BookingAssigned, BookingCompleted, BookingCancelled},
	BookingAssigned:   {BookingInProgress, BookingCompleted, BookingCancelled},
	BookingCompleted:  {},
	BookingCancelled:  {},
}

// ParseBookingStatus accepts only the closed set of booking statuses.
func ParseBookingStatus(s string) (BookingStatus, error) {
	status := BookingStatus(s)
	if _, ok := bookingTransitions[status]; !ok {
		return "", fmt.Errorf("unknown booking status: %q", s)
	}
	return status, nil
}

// CanTransition reports whether a booking may move from one status to another.
func (s BookingStatus) CanTransition(to BookingStatus) bool {
	for _, next := range bookingTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transitions are possible.
func (s BookingStatus) Terminal() bool {
	next, ok := bookingTransitions[s]
	return ok && len(next) == 0
}

// TaskStatus is the lifecycle state of a work task.
type TaskStatus string

const (
	TaskAssigned   TaskStatus = "ASSIGNED"
	TaskInProgress TaskStatus = "IN_PROGRESS"
	TaskCompleted  TaskStatus = "COMPLETED"
)

// ParseTaskStatus accepts only the closed set of task statuses.
func ParseTaskStatus(s string) (TaskStatus, error) {
	switch TaskStatus(s) {
	case TaskAssigned, TaskInProgress, TaskCompleted:
		return TaskStatus(s), nil
	default:
		return "", fmt.Errorf("unknown task status: %q", s)
	}
}
