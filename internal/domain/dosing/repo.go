package dosing

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type ScheduleRepository interface {
	Create(ctx context.Context, s *Schedule) error
	GetByID(ctx context.Context, id uuid.UUID) (*Schedule, error)
	Update(ctx context.Context, s *Schedule) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Schedule, int, error)
}

type DosePlanRepository interface {
	Create(ctx context.Context, p *DosePlan) error
	GetByID(ctx context.Context, id uuid.UUID) (*DosePlan, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status DoseStatus) error
	ListBySchedule(ctx context.Context, scheduleID uuid.UUID, limit, offset int) ([]*DosePlan, int, error)
}

type IntakeRepository interface {
	Create(ctx context.Context, in *DoseIntake) error
	ListByPlan(ctx context.Context, dosePlanID uuid.UUID) ([]*DoseIntake, error)
}

type TokenRepository interface {
	Create(ctx context.Context, t *ActionToken) error
	// Claim atomically marks an unused, unexpired token of the given
	// type and entity as used and returns it. Returns
	// ErrTokenNotClaimable when no such token exists, so concurrent
	// claims of the same token cannot both succeed.
	Claim(ctx context.Context, token string, entityID uuid.UUID, typ TokenType, now time.Time) (*ActionToken, error)
	// Find looks a token up without consuming it. Used to tell an
	// expired token apart from an unknown or spent one after a failed
	// claim. Returns ErrTokenNotClaimable when nothing matches.
	Find(ctx context.Context, token string, entityID uuid.UUID, typ TokenType) (*ActionToken, error)
}
