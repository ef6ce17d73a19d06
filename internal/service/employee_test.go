package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/Shivanand-hulikatti/zeromonos/internal/model"
)

func TestCreateEmployee(t *testing.T) {
	f := newFixture(BookingOptions{})
	ctx := context.Background()

	e, err := f.staffSvc.CreateEmployee(ctx, model.CreateEmployeeRequest{
		Name:         " Ana Sousa ",
		Email:        "ana@example.pt",
		Municipality: "Porto",
	})
	if err != nil {
		t.Fatal(err)
	}
	if e.Name != "Ana Sousa" || e.Role != "" {
		t.Errorf("employee = %+v", e)
	}

	got, err := f.staffSvc.GetEmployee(ctx, e.ID)
	if err != nil || got.Email != e.Email {
		t.Errorf("GetEmployee = %+v, %v", got, err)
	}
}

func TestCreateEmployeeValidation(t *testing.T) {
	tests := []struct {
		name  string
		req   model.CreateEmployeeRequest
		field string
		tag   string
	}{
		{"missing name", model.CreateEmployeeRequest{Email: "a@b.pt", Municipality: "Porto"}, "name", "required"},
		{"missing email", model.CreateEmployeeRequest{Name: "Ana", Municipality: "Porto"}, "email", "required"},
		{"bad email", model.CreateEmployeeRequest{Name: "Ana", Email: "ana-at-porto", Municipality: "Porto"}, "email", "email"},
		{"missing municipality", model.CreateEmployeeRequest{Name: "Ana", Email: "a@b.pt"}, "municipality", "required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(BookingOptions{})
			_, err := f.staffSvc.CreateEmployee(context.Background(), tt.req)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("got %v, want *ValidationError", err)
			}
			if verr.Fields[tt.field] != tt.tag {
				t.Errorf("Fields = %v, want %s=%s", verr.Fields, tt.field, tt.tag)
			}
		})
	}
}

func TestEmployeeQueries(t *testing.T) {
	f := newFixture(BookingOptions{})
	ctx := context.Background()
	mustEmployee(t, f, "Porto")
	mustEmployee(t, f, "Porto")
	mustEmployee(t, f, "Faro")

	all, err := f.staffSvc.GetAllEmployees(ctx)
	if err != nil || len(all) != 3 {
		t.Errorf("GetAllEmployees = %d, %v", len(all), err)
	}
	porto, err := f.staffSvc.GetEmployeesByMunicipality(ctx, "Porto")
	if err != nil || len(porto) != 2 {
		t.Errorf("GetEmployeesByMunicipality(Porto) = %d, %v", len(porto), err)
	}

	id := uuid.NewString()
	for _, id := range []string{id, "7", "urn:uuid:" + id, "{" + id + "}"} {
		if _, err := f.staffSvc.GetEmployee(ctx, id); !errors.Is(err, ErrEmployeeNotFound) {
			t.Errorf("GetEmployee(%q): got %v, want ErrEmployeeNotFound", id, err)
		}
	}
}
