package medication

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

type Service struct {
	medications Repository
}

func NewService(repo Repository) *Service {
	return &Service{medications: repo}
}

func (s *Service) CreateMedication(ctx context.Context, m *Medication) error {
	if m.Name == "" {
		return fmt.Errorf("name is required")
	}
	if m.Form == "" {
		m.Form = FormTablet
	}
	if !validForms[m.Form] {
		return fmt.Errorf("invalid medication form: %s", m.Form)
	}
	return s.medications.Create(ctx, m)
}

func (s *Service) GetMedication(ctx context.Context, id uuid.UUID) (*Medication, error) {
	return s.medications.GetByID(ctx, id)
}

func (s *Service) UpdateMedication(ctx context.Context, m *Medication) error {
	if m.Form != "" && !validForms[m.Form] {
		return fmt.Errorf("invalid medication form: %s", m.Form)
	}
	return s.medications.Update(ctx, m)
}

func (s *Service) DeleteMedication(ctx context.Context, id uuid.UUID) error {
	return s.medications.Delete(ctx, id)
}

func (s *Service) ListMedications(ctx context.Context, limit, offset int) ([]*Medication, int, error) {
	return s.medications.List(ctx, limit, offset)
}

func (s *Service) SearchMedications(ctx context.Context, name string, limit, offset int) ([]*Medication, int, error) {
	return s.medications.Search(ctx, name, limit, offset)
}
