package dosing

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Action is what the patient chose from the notification.
const (
	ActionTaken  = "taken"
	ActionSnooze = "snooze"
	ActionSkip   = "skip"
)

// DefaultSnoozeMinutes applies when a snooze request carries no
// explicit duration.
const DefaultSnoozeMinutes = 30

// ActionResult echoes back what was resolved.
type ActionResult struct {
	Action     string    `json:"action"`
	DosePlanID uuid.UUID `json:"dosePlanId"`
}

type Service struct {
	schedules ScheduleRepository
	plans     DosePlanRepository
	intakes   IntakeRepository
	tokens    TokenRepository
	tokenTTL  time.Duration
	log       zerolog.Logger
	now       func() time.Time
}

func NewService(schedules ScheduleRepository, plans DosePlanRepository, intakes IntakeRepository, tokens TokenRepository, tokenTTL time.Duration, log zerolog.Logger) *Service {
	return &Service{
		schedules: schedules,
		plans:     plans,
		intakes:   intakes,
		tokens:    tokens,
		tokenTTL:  tokenTTL,
		log:       log,
		now:       time.Now,
	}
}

// ProcessAction resolves a dose plan from a notification action link.
// Each step is a guard; the first failing guard decides the error.
// The token claim doubles as the mark-used write, so a token can never
// be spent twice even under concurrent requests.
func (s *Service) ProcessAction(ctx context.Context, action, token string, dosePlanID uuid.UUID, snoozeMinutes int) (*ActionResult, error) {
	switch action {
	case ActionTaken, ActionSnooze, ActionSkip:
	default:
		return nil, ErrInvalidAction
	}

	now := s.now().UTC()
	if _, err := s.tokens.Claim(ctx, token, dosePlanID, TokenConfirmIntake, now); err != nil {
		if errors.Is(err, ErrTokenNotClaimable) {
			return nil, s.classifyTokenMiss(ctx, token, dosePlanID, now)
		}
		return nil, fmt.Errorf("claim token: %w", err)
	}

	if _, err := s.plans.GetByID(ctx, dosePlanID); err != nil {
		return nil, ErrDosePlanNotFound
	}

	if snoozeMinutes <= 0 {
		snoozeMinutes = DefaultSnoozeMinutes
	}
	intake := &DoseIntake{
		DosePlanID: dosePlanID,
		Status:     intakeStatusFor(action),
		Source:     SourceWebPush,
	}
	if action != ActionSkip {
		intake.TakenAtUTC = &now
	}
	if action == ActionSnooze {
		notes := fmt.Sprintf("Snoozed for %d minutes", snoozeMinutes)
		intake.Notes = &notes
	}
	if err := s.intakes.Create(ctx, intake); err != nil {
		s.log.Error().Err(err).Str("dose_plan_id", dosePlanID.String()).Msg("intake insert failed")
		return nil, ErrIntakeWriteFailed
	}

	// The intake row is the source of truth from here on. Status
	// update failures are logged but the action still succeeds.
	if status, ok := planStatusFor(action); ok {
		if err := s.plans.UpdateStatus(ctx, dosePlanID, status); err != nil {
			s.log.Warn().Err(err).Str("dose_plan_id", dosePlanID.String()).Msg("dose plan status update failed")
		}
	}

	// Snooze does not reschedule a follow-up notification yet. The
	// notification dispatcher owns that flow.

	return &ActionResult{Action: action, DosePlanID: dosePlanID}, nil
}

// classifyTokenMiss decides which 401 the caller gets after a claim
// found nothing. An existing unused token whose expiry passed reports
// expiry; anything else stays deliberately vague.
func (s *Service) classifyTokenMiss(ctx context.Context, token string, dosePlanID uuid.UUID, now time.Time) error {
	t, err := s.tokens.Find(ctx, token, dosePlanID, TokenConfirmIntake)
	if err != nil {
		return ErrInvalidToken
	}
	if t.UsedAt == nil && !now.Before(t.ExpiresAt) {
		return ErrTokenExpired
	}
	return ErrInvalidToken
}

func intakeStatusFor(action string) IntakeStatus {
	switch action {
	case ActionTaken:
		return IntakeOnTime
	case ActionSkip:
		return IntakeSkipped
	default:
		return IntakeLate
	}
}

// planStatusFor maps decisive actions to their terminal status.
// Snooze keeps the plan eligible for a future action, so it writes
// nothing and pending or notified stays as is.
func planStatusFor(action string) (DoseStatus, bool) {
	switch action {
	case ActionTaken:
		return DoseTaken, true
	case ActionSkip:
		return DoseSkipped, true
	default:
		return "", false
	}
}

// CreateActionToken mints a single-use token for a dose plan. The
// secret is 32 random bytes, hex encoded.
func (s *Service) CreateActionToken(ctx context.Context, dosePlanID uuid.UUID, typ TokenType) (*ActionToken, error) {
	if _, err := s.plans.GetByID(ctx, dosePlanID); err != nil {
		return nil, ErrDosePlanNotFound
	}
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}
	t := &ActionToken{
		Token:     hex.EncodeToString(buf),
		Type:      typ,
		EntityID:  dosePlanID,
		ExpiresAt: s.now().UTC().Add(s.tokenTTL),
	}
	if err := s.tokens.Create(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *Service) CreateSchedule(ctx context.Context, sch *Schedule) error {
	if sch.PatientID == uuid.Nil {
		return fmt.Errorf("patient_id is required")
	}
	if sch.MedicationID == uuid.Nil {
		return fmt.Errorf("medication_id is required")
	}
	if sch.DoseValue <= 0 {
		return fmt.Errorf("dose_value must be positive")
	}
	if sch.DoseUnit == "" {
		return fmt.Errorf("dose_unit is required")
	}
	if len(sch.Regimen) == 0 {
		sch.Regimen = []byte(`{}`)
	}
	if sch.StartDate.IsZero() {
		sch.StartDate = s.now().UTC().Truncate(24 * time.Hour)
	}
	return s.schedules.Create(ctx, sch)
}

func (s *Service) GetSchedule(ctx context.Context, id uuid.UUID) (*Schedule, error) {
	return s.schedules.GetByID(ctx, id)
}

func (s *Service) UpdateSchedule(ctx context.Context, sch *Schedule) error {
	if sch.DoseValue <= 0 {
		return fmt.Errorf("dose_value must be positive")
	}
	return s.schedules.Update(ctx, sch)
}

func (s *Service) DeleteSchedule(ctx context.Context, id uuid.UUID) error {
	return s.schedules.Delete(ctx, id)
}

func (s *Service) ListSchedules(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Schedule, int, error) {
	return s.schedules.ListByPatient(ctx, patientID, limit, offset)
}

func (s *Service) CreateDosePlan(ctx context.Context, p *DosePlan) error {
	if p.ScheduleID == uuid.Nil {
		return fmt.Errorf("schedule_id is required")
	}
	if p.PlannedAtUTC.IsZero() {
		return fmt.Errorf("planned_at_utc is required")
	}
	if p.WindowStartUTC.IsZero() || p.WindowEndUTC.IsZero() {
		return fmt.Errorf("dose window is required")
	}
	if !p.WindowStartUTC.Before(p.WindowEndUTC) {
		return fmt.Errorf("window_start_utc must precede window_end_utc")
	}
	return s.plans.Create(ctx, p)
}

func (s *Service) GetDosePlan(ctx context.Context, id uuid.UUID) (*DosePlan, error) {
	return s.plans.GetByID(ctx, id)
}

func (s *Service) ListDosePlans(ctx context.Context, scheduleID uuid.UUID, limit, offset int) ([]*DosePlan, int, error) {
	return s.plans.ListBySchedule(ctx, scheduleID, limit, offset)
}

func (s *Service) ListIntakes(ctx context.Context, dosePlanID uuid.UUID) ([]*DoseIntake, error) {
	return s.intakes.ListByPlan(ctx, dosePlanID)
}
