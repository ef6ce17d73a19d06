package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Shivanand-hulikatti/zeromonos/internal/model"
)

// HistoryRepository reads the append-only booking status log. Writes happen
// inside BookingRepository and TaskRepository transactions.
type HistoryRepository struct {
	db *pgxpool.Pool
}

// NewHistoryRepository constructs a HistoryRepository.
func NewHistoryRepository(db *pgxpool.Pool) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// ListByBooking returns a booking's history in insertion order.
func (r *HistoryRepository) ListByBooking(ctx context.Context, bookingID string) ([]model.HistoryEntry, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, booking_id, status, recorded_at
		 FROM booking_history
		 WHERE booking_id = $1
		 ORDER BY id ASC`,
		bookingID,
	)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	var entries []model.HistoryEntry
	for rows.Next() {
		var e model.HistoryEntry
		var status string
		if err := rows.Scan(&e.ID, &e.BookingID, &status, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		e.Status = model.BookingStatus(status)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
