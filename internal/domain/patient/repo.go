package patient

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	Update(ctx context.Context, p *Patient) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, clinicID *uuid.UUID, limit, offset int) ([]*Patient, int, error)
}

type CaregiverRepository interface {
	Create(ctx context.Context, cg *Caregiver) error
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Caregiver, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
