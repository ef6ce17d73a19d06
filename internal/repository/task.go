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

const taskSelect = `SELECT
	t.id, t.status, t.assigned_at, t.completed_at, t.notes,
	b.id, b.token, b.description, b.municipality, b.pickup_date, b.status, b.created_at,
	e.id, e.name, e.email, e.municipality, e.role, e.created_at
	FROM work_tasks t
	JOIN bookings b ON b.id = t.booking_id
	JOIN employees e ON e.id = t.employee_id`

// TaskRepository handles persistence for work tasks.
type TaskRepository struct {
	db *pgxpool.Pool
}

// NewTaskRepository constructs a TaskRepository.
func NewTaskRepository(db *pgxpool.Pool) *TaskRepository {
	return &TaskRepository{db: db}
}

func scanTask(row pgx.Row) (*model.WorkTask, error) {
	var (
		t             model.WorkTask
		b             model.Booking
		e             model.Employee
		taskStatus    string
		bookingStatus string
	)
	err := row.Scan(
		&t.ID, &taskStatus, &t.AssignedAt, &t.CompletedAt, &t.Notes,
		&b.ID, &b.Token, &b.Description, &b.Municipality, &b.Date, &bookingStatus, &b.CreatedAt,
		&e.ID, &e.Name, &e.Email, &e.Municipality, &e.Role, &e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	t.Status = model.TaskStatus(taskStatus)
	b.Status = model.BookingStatus(bookingStatus)
	t.Booking = &b
	t.Employee = &e
	return &t, nil
}

// Assign inserts task and moves its booking from bookingFrom to the booking's
// new status, appending a history entry. All three writes share one
// transaction. The UNIQUE constraint on work_tasks.booking_id is what
// guarantees one task per booking under concurrent assignment; a violation
// is reported as ErrTaskExists.
func (r *TaskRepository) Assign(ctx context.Context, task *model.WorkTask, bookingFrom model.BookingStatus, at time.Time) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx,
		`INSERT INTO work_tasks (id, booking_id, employee_id, status, assigned_at, notes)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		task.ID, task.Booking.ID, task.Employee.ID, string(task.Status), task.AssignedAt, task.Notes,
	)
	if err != nil {
		switch pgErrorCode(err) {
		case pgUniqueViolation:
			return ErrTaskExists
		case pgForeignKeyViolation:
			return ErrNotFound
		}
		return fmt.Errorf("insert task: %w", err)
	}

	if err := updateBooking(ctx, tx, task.Booking, bookingFrom); err != nil {
		return err
	}
	if err := appendHistory(ctx, tx, task.Booking.ID, task.Booking.Status, at); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Complete stores the task's completion fields and moves its booking from
// bookingFrom to the booking's new status with a history entry, in one
// transaction. A task that is already completed yields ErrStaleStatus.
func (r *TaskRepository) Complete(ctx context.Context, task *model.WorkTask, bookingFrom model.BookingStatus, at time.Time) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx,
		`UPDATE work_tasks SET status = $2, completed_at = $3, notes = $4
		 WHERE id = $1 AND status <> $2`,
		task.ID, string(task.Status), task.CompletedAt, task.Notes,
	)
	if err != nil {
		return fmt.Errorf("complete task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrStaleStatus
	}

	if err := updateBooking(ctx, tx, task.Booking, bookingFrom); err != nil {
		return err
	}
	if err := appendHistory(ctx, tx, task.Booking.ID, task.Booking.Status, at); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// UpdateStatus overwrites a task's status and its completion time. A nil
// completedAt clears the column, so a task reopened after COMPLETED carries
// no stale timestamp.
func (r *TaskRepository) UpdateStatus(ctx context.Context, id string, status model.TaskStatus, completedAt *time.Time) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE work_tasks SET status = $2, completed_at = $3 WHERE id = $1`,
		id, string(status), completedAt,
	)
	if err != nil {
		return fmt.Errorf("update task status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a task or returns ErrNotFound. A booking still ASSIGNED to
// the deleted task goes back to RECEIVED, with a history entry stamped at, in
// the same transaction; released reports whether that happened. Bookings
// that already moved on (IN_PROGRESS, COMPLETED, CANCELLED) keep their status.
func (r *TaskRepository) Delete(ctx context.Context, id string, at time.Time) (released bool, err error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var bookingID string
	err = tx.QueryRow(ctx, `DELETE FROM work_tasks WHERE id = $1 RETURNING booking_id`, id).Scan(&bookingID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, ErrNotFound
		}
		return false, fmt.Errorf("delete task: %w", err)
	}

	tag, err := tx.Exec(ctx,
		`UPDATE bookings SET status = $2 WHERE id = $1 AND status = $3`,
		bookingID, string(model.BookingReceived), string(model.BookingAssigned),
	)
	if err != nil {
		return false, fmt.Errorf("release booking: %w", err)
	}
	if released = tag.RowsAffected() == 1; released {
		if err := appendHistory(ctx, tx, bookingID, model.BookingReceived, at); err != nil {
			return false, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("commit transaction: %w", err)
	}
	return released, nil
}

// GetByID returns a single task with its booking and employee or ErrNotFound.
func (r *TaskRepository) GetByID(ctx context.Context, id string) (*model.WorkTask, error) {
	return r.get(ctx, taskSelect+` WHERE t.id = $1`, id)
}

// GetByBookingID returns the task attached to a booking or ErrNotFound.
func (r *TaskRepository) GetByBookingID(ctx context.Context, bookingID string) (*model.WorkTask, error) {
	return r.get(ctx, taskSelect+` WHERE t.booking_id = $1`, bookingID)
}

// List returns every task, oldest assignment first.
func (r *TaskRepository) List(ctx context.Context) ([]model.WorkTask, error) {
	return r.list(ctx, taskSelect+` ORDER BY t.assigned_at ASC`)
}

// ListByEmployee returns the tasks assigned to one employee.
func (r *TaskRepository) ListByEmployee(ctx context.Context, employeeID string) ([]model.WorkTask, error) {
	return r.list(ctx, taskSelect+` WHERE t.employee_id = $1 ORDER BY t.assigned_at ASC`, employeeID)
}

// ListByStatus returns the tasks currently in the given status.
func (r *TaskRepository) ListByStatus(ctx context.Context, status model.TaskStatus) ([]model.WorkTask, error) {
	return r.list(ctx, taskSelect+` WHERE t.status = $1 ORDER BY t.assigned_at ASC`, string(status))
}

func (r *TaskRepository) get(ctx context.Context, sql string, args ...any) (*model.WorkTask, error) {
	t, err := scanTask(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get task: %w", err)
	}
	return t, nil
}

func (r *TaskRepository) list(ctx context.Context, sql string, args ...any) ([]model.WorkTask, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []model.WorkTask
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}
