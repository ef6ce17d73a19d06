package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Shivanand-hulikatti/zeromonos/internal/model"
)

const bookingColumns = `id, token, description, municipality, pickup_date, status, created_at`

// BookingRepository handles persistence for bookings.
type BookingRepository struct {
	db *pgxpool.Pool
}

// NewBookingRepository constructs a BookingRepository.
func NewBookingRepository(db *pgxpool.Pool) *BookingRepository {
	return &BookingRepository{db: db}
}

func scanBooking(row pgx.Row) (*model.Booking, error) {
	var b model.Booking
	var status string
	if err := row.Scan(&b.ID, &b.Token, &b.Description, &b.Municipality, &b.Date, &status, &b.CreatedAt); err != nil {
		return nil, err
	}
	b.Status = model.BookingStatus(status)
	return &b, nil
}

// Create admits and inserts b unless limit bookings already exist for its
// municipality on the same calendar date.
//
// A plain count-then-insert lets two concurrent requests both see limit-1
// bookings and both insert. Instead every creation first upserts the
// (municipality, day) row in booking_days and locks it FOR UPDATE, so
// creations for the same day run one at a time through count and insert.
// Each COUNT runs in a fresh READ COMMITTED snapshot taken after the lock is
// granted and therefore sees every booking committed before it.
//
// When withHistory is set the initial status is recorded in the same
// transaction.
func (r *BookingRepository) Create(ctx context.Context, b *model.Booking, limit int, withHistory bool) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	day := b.Day()

	if _, err := tx.Exec(ctx,
		`INSERT INTO booking_days (municipality, day) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		b.Municipality, day,
	); err != nil {
		return fmt.Errorf("upsert booking day: %w", err)
	}
	if _, err := tx.Exec(ctx,
		`SELECT 1 FROM booking_days WHERE municipality = $1 AND day = $2 FOR UPDATE`,
		b.Municipality, day,
	); err != nil {
		return fmt.Errorf("lock booking day: %w", err)
	}

	var count int
	if err := tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM bookings
		 WHERE municipality = $1 AND pickup_date >= $2 AND pickup_date < $3`,
		b.Municipality, day, day.AddDate(0, 0, 1),
	).Scan(&count); err != nil {
		return fmt.Errorf("count bookings for day: %w", err)
	}
	if count >= limit {
		return ErrBookingLimitReached
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO bookings (`+bookingColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		b.ID, b.Token, b.Description, b.Municipality, b.Date, string(b.Status), b.CreatedAt,
	); err != nil {
		return fmt.Errorf("insert booking: %w", err)
	}

	if withHistory {
		if err := appendHistory(ctx, tx, b.ID, b.Status, b.CreatedAt); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// GetByToken returns the booking with the given public token or ErrNotFound.
func (r *BookingRepository) GetByToken(ctx context.Context, token string) (*model.Booking, error) {
	b, err := scanBooking(r.db.QueryRow(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE token = $1`, token,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get booking by token: %w", err)
	}
	return b, nil
}

// GetByID returns the booking with the given internal id or ErrNotFound.
func (r *BookingRepository) GetByID(ctx context.Context, id string) (*model.Booking, error) {
	b, err := scanBooking(r.db.QueryRow(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get booking: %w", err)
	}
	return b, nil
}

// List returns all bookings ordered by creation time.
func (r *BookingRepository) List(ctx context.Context) ([]model.Booking, error) {
	return r.list(ctx,
		`SELECT `+bookingColumns+` FROM bookings ORDER BY created_at ASC`,
	)
}

// ListByMunicipality returns all bookings for one municipality.
func (r *BookingRepository) ListByMunicipality(ctx context.Context, municipality string) ([]model.Booking, error) {
	return r.list(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE municipality = $1 ORDER BY created_at ASC`,
		municipality,
	)
}

func (r *BookingRepository) list(ctx context.Context, sql string, args ...any) ([]model.Booking, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	defer rows.Close()

	var bookings []model.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}

// Save persists b and appends a history entry with its status in one
// transaction. A non-empty from makes the write conditional on the stored
// status still being from; otherwise ErrStaleStatus is returned.
func (r *BookingRepository) Save(ctx context.Context, b *model.Booking, from model.BookingStatus, at time.Time) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := updateBooking(ctx, tx, b, from); err != nil {
		return err
	}
	if err := appendHistory(ctx, tx, b.ID, b.Status, at); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
