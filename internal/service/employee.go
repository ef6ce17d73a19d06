package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Shivanand-hulikatti/zeromonos/internal/model"
	"github.com/Shivanand-hulikatti/zeromonos/internal/repository"
)

// EmployeeService manages staff records.
type EmployeeService struct {
	employees EmployeeStore
	log       logrus.FieldLogger
	now       func() time.Time
}

// NewEmployeeService constructs an EmployeeService.
func NewEmployeeService(employees EmployeeStore, log logrus.FieldLogger) *EmployeeService {
	return &EmployeeService{
		employees: employees,
		log:       log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// CreateEmployee validates and stores a new staff member. Emails are not
// required to be unique.
func (s *EmployeeService) CreateEmployee(ctx context.Context, req model.CreateEmployeeRequest) (*model.Employee, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	req.Municipality = strings.TrimSpace(req.Municipality)
	req.Role = strings.TrimSpace(req.Role)
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	e := &model.Employee{
		ID:           uuid.NewString(),
		Name:         req.Name,
		Email:        req.Email,
		Municipality: req.Municipality,
		Role:         req.Role,
		CreatedAt:    s.now(),
	}
	if err := s.employees.Create(ctx, e); err != nil {
		return nil, fmt.Errorf("create employee: %w", err)
	}
	s.log.WithFields(logrus.Fields{"employee": e.ID, "municipality": e.Municipality}).Info("employee created")
	return e, nil
}

// GetEmployee returns a single employee.
func (s *EmployeeService) GetEmployee(ctx context.Context, id string) (*model.Employee, error) {
	if !isUUID(id) {
		return nil, ErrEmployeeNotFound
	}
	e, err := s.employees.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrEmployeeNotFound
		}
		return nil, fmt.Errorf("get employee: %w", err)
	}
	return e, nil
}

// GetAllEmployees returns every employee.
func (s *EmployeeService) GetAllEmployees(ctx context.Context) ([]model.Employee, error) {
	return s.employees.List(ctx)
}

// GetEmployeesByMunicipality returns the staff of one municipality.
func (s *EmployeeService) GetEmployeesByMunicipality(ctx context.Context, municipality string) ([]model.Employee, error) {
	return s.employees.ListByMunicipality(ctx, strings.TrimSpace(municipality))
}
