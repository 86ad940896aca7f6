package clinic

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

type Service struct {
	clinics         Repository
	defaultTimezone string
}

func NewService(repo Repository, defaultTimezone string) *Service {
	return &Service{clinics: repo, defaultTimezone: defaultTimezone}
}

func (s *Service) CreateClinic(ctx context.Context, cl *Clinic) error {
	if cl.Name == "" {
		return fmt.Errorf("name is required")
	}
	if cl.Timezone == "" {
		cl.Timezone = s.defaultTimezone
	}
	return s.clinics.Create(ctx, cl)
}

func (s *Service) GetClinic(ctx context.Context, id uuid.UUID) (*Clinic, error) {
	return s.clinics.GetByID(ctx, id)
}

func (s *Service) UpdateClinic(ctx context.Context, cl *Clinic) error {
	if cl.Name == "" {
		return fmt.Errorf("name is required")
	}
	return s.clinics.Update(ctx, cl)
}

func (s *Service) DeleteClinic(ctx context.Context, id uuid.UUID) error {
	return s.clinics.Delete(ctx, id)
}

func (s *Service) ListClinics(ctx context.Context, limit, offset int) ([]*Clinic, int, error) {
	return s.clinics.List(ctx, limit, offset)
}
