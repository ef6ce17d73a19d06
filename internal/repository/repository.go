// Package repository implements all database queries for the booking system.
// It uses pgx directly (no ORM).
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Shivanand-hulikatti/zeromonos/internal/model"
)

var (
	// ErrNotFound is returned when a requested resource does not exist.
	ErrNotFound = errors.New("not found")

	// ErrBookingLimitReached is returned when the municipality already has
	// its daily quota of bookings for the requested date.
	ErrBookingLimitReached = errors.New("booking limit reached for this municipality")

	// ErrTaskExists is returned when a booking already has a work task.
	ErrTaskExists = errors.New("booking already has a task assigned")

	// ErrStaleStatus is returned when a status-guarded write finds the row
	// in a different status than the caller read.
	ErrStaleStatus = errors.New("status changed concurrently")
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// execer is the subset of pgx.Tx and pgxpool.Pool used by shared helpers.
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func pgErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// appendHistory writes one history entry inside the caller's transaction.
func appendHistory(ctx context.Context, db execer, bookingID string, status model.BookingStatus, at time.Time) error {
	_, err := db.Exec(ctx,
		`INSERT INTO booking_history (booking_id, status, recorded_at) VALUES ($1, $2, $3)`,
		bookingID, string(status), at,
	)
	if err != nil {
		return fmt.Errorf("insert history: %w", err)
	}
	return nil
}

// updateBooking persists the booking's mutable fields. A non-empty from turns
// the write into a compare-and-set on the current status.
func updateBooking(ctx context.Context, db execer, b *model.Booking, from model.BookingStatus) error {
	var (
		tag pgconn.CommandTag
		err error
	)
	if from == "" {
		tag, err = db.Exec(ctx,
			`UPDATE bookings SET description = $2, municipality = $3, pickup_date = $4, status = $5
			 WHERE id = $1`,
			b.ID, b.Description, b.Municipality, b.Date, string(b.Status),
		)
	} else {
		tag, err = db.Exec(ctx,
			`UPDATE bookings SET description = $2, municipality = $3, pickup_date = $4, status = $5
			 WHERE id = $1 AND status = $6`,
			b.ID, b.Description, b.Municipality, b.Date, string(b.Status), string(from),
		)
	}
	if err != nil {
		return fmt.Errorf("update booking: %w", err)
	}
	if tag.RowsAffected() == 0 {
		if from == "" {
			return ErrNotFound
		}
		return ErrStaleStatus
	}
	return nil
}
