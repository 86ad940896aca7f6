package patient

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

type Service struct {
	patients        Repository
	caregivers      CaregiverRepository
	defaultTimezone string
}

func NewService(patients Repository, caregivers CaregiverRepository, defaultTimezone string) *Service {
	return &Service{patients: patients, caregivers: caregivers, defaultTimezone: defaultTimezone}
}

func (s *Service) CreatePatient(ctx context.Context, p *Patient) error {
	if p.FullName == "" {
		return fmt.Errorf("full_name is required")
	}
	if p.Timezone == "" {
		p.Timezone = s.defaultTimezone
	}
	if p.PrivacyMode == "" {
		p.PrivacyMode = PrivacyStandard
	}
	if p.PrivacyMode != PrivacyStandard && p.PrivacyMode != PrivacyDiscreet {
		return fmt.Errorf("invalid privacy_mode: %s", p.PrivacyMode)
	}
	return s.patients.Create(ctx, p)
}

func (s *Service) GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return s.patients.GetByID(ctx, id)
}

func (s *Service) UpdatePatient(ctx context.Context, p *Patient) error {
	if p.FullName == "" {
		return fmt.Errorf("full_name is required")
	}
	return s.patients.Update(ctx, p)
}

func (s *Service) DeletePatient(ctx context.Context, id uuid.UUID) error {
	return s.patients.Delete(ctx, id)
}

func (s *Service) ListPatients(ctx context.Context, clinicID *uuid.UUID, limit, offset int) ([]*Patient, int, error) {
	return s.patients.List(ctx, clinicID, limit, offset)
}

func (s *Service) AddCaregiver(ctx context.Context, cg *Caregiver) error {
	if cg.FullName == "" || cg.Phone == "" {
		return fmt.Errorf("full_name and phone are required")
	}
	switch cg.Channel {
	case ChannelSMS, ChannelWhatsApp, ChannelWebPush:
	case "":
		cg.Channel = ChannelSMS
	default:
		return fmt.Errorf("invalid channel: %s", cg.Channel)
	}
	if _, err := s.patients.GetByID(ctx, cg.PatientID); err != nil {
		return fmt.Errorf("patient not found: %w", err)
	}
	return s.caregivers.Create(ctx, cg)
}

func (s *Service) ListCaregivers(ctx context.Context, patientID uuid.UUID) ([]*Caregiver, error) {
	return s.caregivers.ListByPatient(ctx, patientID)
}

func (s *Service) RemoveCaregiver(ctx context.Context, id uuid.UUID) error {
	return s.caregivers.Delete(ctx, id)
}
