package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Shivanand-hulikatti/zeromonos/internal/model"
)

const employeeColumns = `id, name, email, municipality, role, created_at`

// EmployeeRepository handles persistence for staff members.
type EmployeeRepository struct {
	db *pgxpool.Pool
}

// NewEmployeeRepository constructs an EmployeeRepository.
func NewEmployeeRepository(db *pgxpool.Pool) *EmployeeRepository {
	return &EmployeeRepository{db: db}
}

// Create inserts a new employee.
func (r *EmployeeRepository) Create(ctx context.Context, e *model.Employee) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO employees (`+employeeColumns+`) VALUES ($1, $2, $3, $4, $5, $6)`,
		e.ID, e.Name, e.Email, e.Municipality, e.Role, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert employee: %w", err)
	}
	return nil
}

// GetByID returns a single employee or ErrNotFound.
func (r *EmployeeRepository) GetByID(ctx context.Context, id string) (*model.Employee, error) {
	var e model.Employee
	err := r.db.QueryRow(ctx,
		`SELECT `+employeeColumns+` FROM employees WHERE id = $1`, id,
	).Scan(&e.ID, &e.Name, &e.Email, &e.Municipality, &e.Role, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get employee: %w", err)
	}
	return &e, nil
}

// List returns every employee.
func (r *EmployeeRepository) List(ctx context.Context) ([]model.Employee, error) {
	return r.list(ctx, `SELECT `+employeeColumns+` FROM employees ORDER BY created_at ASC`)
}

// ListByMunicipality returns the employees working for one municipality.
func (r *EmployeeRepository) ListByMunicipality(ctx context.Context, municipality string) ([]model.Employee, error) {
	return r.list(ctx,
		`SELECT `+employeeColumns+` FROM employees WHERE municipality = $1 ORDER BY created_at ASC`,
		municipality,
	)
}

func (r *EmployeeRepository) list(ctx context.Context, sql string, args ...any) ([]model.Employee, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}
	defer rows.Close()

	var employees []model.Employee
	for rows.Next() {
		var e model.Employee
		if err := rows.Scan(&e.ID, &e.Name, &e.Email, &e.Municipality, &e.Role, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan employee: %w", err)
		}
		employees = append(employees, e)
	}
	return employees, rows.Err()
}
