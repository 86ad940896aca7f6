package dosing

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type mockPlanRepo struct {
	plans        map[uuid.UUID]*DosePlan
	failOnUpdate bool
}

func newMockPlanRepo() *mockPlanRepo {
	return &mockPlanRepo{plans: make(map[uuid.UUID]*DosePlan)}
}

func (m *mockPlanRepo) Create(_ context.Context, p *DosePlan) error {
	p.ID = uuid.New()
	if p.Status == "" {
		p.Status = DosePending
	}
	m.plans[p.ID] = p
	return nil
}

func (m *mockPlanRepo) GetByID(_ context.Context, id uuid.UUID) (*DosePlan, error) {
	p, ok := m.plans[id]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	return p, nil
}

func (m *mockPlanRepo) UpdateStatus(_ context.Context, id uuid.UUID, status DoseStatus) error {
	if m.failOnUpdate {
		return fmt.Errorf("update refused")
	}
	p, ok := m.plans[id]
	if !ok {
		return fmt.Errorf("not found")
	}
	p.Status = status
	return nil
}

func (m *mockPlanRepo) ListBySchedule(_ context.Context, scheduleID uuid.UUID, limit, offset int) ([]*DosePlan, int, error) {
	var items []*DosePlan
	for _, p := range m.plans {
		if p.ScheduleID == scheduleID {
			items = append(items, p)
		}
	}
	return items, len(items), nil
}

type mockIntakeRepo struct {
	intakes    []*DoseIntake
	failCreate bool
}

func (m *mockIntakeRepo) Create(_ context.Context, in *DoseIntake) error {
	if m.failCreate {
		return fmt.Errorf("insert refused")
	}
	in.ID = uuid.New()
	m.intakes = append(m.intakes, in)
	return nil
}

func (m *mockIntakeRepo) ListByPlan(_ context.Context, dosePlanID uuid.UUID) ([]*DoseIntake, error) {
	var items []*DoseIntake
	for _, in := range m.intakes {
		if in.DosePlanID == dosePlanID {
			items = append(items, in)
		}
	}
	return items, nil
}

// mockTokenRepo mirrors the conditional-update claim: a token is
// handed out once and only while unexpired.
type mockTokenRepo struct {
	tokens map[string]*ActionToken
}

func newMockTokenRepo() *mockTokenRepo {
	return &mockTokenRepo{tokens: make(map[string]*ActionToken)}
}

func (m *mockTokenRepo) Create(_ context.Context, t *ActionToken) error {
	t.ID = uuid.New()
	m.tokens[t.Token] = t
	return nil
}

func (m *mockTokenRepo) Claim(_ context.Context, token string, entityID uuid.UUID, typ TokenType, now time.Time) (*ActionToken, error) {
	t, ok := m.tokens[token]
	if !ok || t.EntityID != entityID || t.Type != typ || t.UsedAt != nil || !t.ExpiresAt.After(now) {
		return nil, ErrTokenNotClaimable
	}
	t.UsedAt = &now
	return t, nil
}

func (m *mockTokenRepo) Find(_ context.Context, token string, entityID uuid.UUID, typ TokenType) (*ActionToken, error) {
	t, ok := m.tokens[token]
	if !ok || t.EntityID != entityID || t.Type != typ {
		return nil, ErrTokenNotClaimable
	}
	return t, nil
}

type mockScheduleRepo struct {
	schedules map[uuid.UUID]*Schedule
}

func newMockScheduleRepo() *mockScheduleRepo {
	return &mockScheduleRepo{schedules: make(map[uuid.UUID]*Schedule)}
}

func (m *mockScheduleRepo) Create(_ context.Context, s *Schedule) error {
	s.ID = uuid.New()
	m.schedules[s.ID] = s
	return nil
}

func (m *mockScheduleRepo) GetByID(_ context.Context, id uuid.UUID) (*Schedule, error) {
	s, ok := m.schedules[id]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	return s, nil
}

func (m *mockScheduleRepo) Update(_ context.Context, s *Schedule) error {
	m.schedules[s.ID] = s
	return nil
}

func (m *mockScheduleRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.schedules, id)
	return nil
}

func (m *mockScheduleRepo) ListByPatient(_ context.Context, patientID uuid.UUID, limit, offset int) ([]*Schedule, int, error) {
	var items []*Schedule
	for _, s := range m.schedules {
		if s.PatientID == patientID {
			items = append(items, s)
		}
	}
	return items, len(items), nil
}

type fixture struct {
	svc     *Service
	plans   *mockPlanRepo
	intakes *mockIntakeRepo
	tokens  *mockTokenRepo
}

func newFixture() *fixture {
	plans := newMockPlanRepo()
	intakes := &mockIntakeRepo{}
	tokens := newMockTokenRepo()
	svc := NewService(newMockScheduleRepo(), plans, intakes, tokens, 24*time.Hour, zerolog.Nop())
	return &fixture{svc: svc, plans: plans, intakes: intakes, tokens: tokens}
}

func (f *fixture) seedPlan(t *testing.T, status DoseStatus) *DosePlan {
	t.Helper()
	now := time.Now().UTC()
	p := &DosePlan{
		ScheduleID:     uuid.New(),
		PlannedAtUTC:   now,
		WindowStartUTC: now.Add(-30 * time.Minute),
		WindowEndUTC:   now.Add(30 * time.Minute),
		Status:         status,
	}
	if err := f.plans.Create(context.Background(), p); err != nil {
		t.Fatalf("seed plan: %v", err)
	}
	return p
}

func (f *fixture) seedToken(t *testing.T, planID uuid.UUID, expiresAt time.Time) *ActionToken {
	t.Helper()
	tok := &ActionToken{
		Token:     "tok-" + uuid.NewString(),
		Type:      TokenConfirmIntake,
		EntityID:  planID,
		ExpiresAt: expiresAt,
	}
	if err := f.tokens.Create(context.Background(), tok); err != nil {
		t.Fatalf("seed token: %v", err)
	}
	return tok
}

func TestProcessActionTaken(t *testing.T) {
	f := newFixture()
	plan := f.seedPlan(t, DosePending)
	tok := f.seedToken(t, plan.ID, time.Now().Add(time.Hour))

	res, err := f.svc.ProcessAction(context.Background(), ActionTaken, tok.Token, plan.ID, 0)
	if err != nil {
		t.Fatalf("process action: %v", err)
	}
	if res.Action != ActionTaken || res.DosePlanID != plan.ID {
		t.Errorf("unexpected result: %+v", res)
	}
	if len(f.intakes.intakes) != 1 {
		t.Fatalf("expected 1 intake, got %d", len(f.intakes.intakes))
	}
	in := f.intakes.intakes[0]
	if in.Status != IntakeOnTime {
		t.Errorf("expected on_time intake, got %s", in.Status)
	}
	if in.TakenAtUTC == nil {
		t.Error("expected taken_at_utc to be set")
	}
	if in.Source != SourceWebPush {
		t.Errorf("expected source web_push, got %s", in.Source)
	}
	if f.plans.plans[plan.ID].Status != DoseTaken {
		t.Errorf("expected plan status taken, got %s", f.plans.plans[plan.ID].Status)
	}
}

func TestProcessActionSkip(t *testing.T) {
	f := newFixture()
	plan := f.seedPlan(t, DosePending)
	tok := f.seedToken(t, plan.ID, time.Now().Add(time.Hour))

	if _, err := f.svc.ProcessAction(context.Background(), ActionSkip, tok.Token, plan.ID, 0); err != nil {
		t.Fatalf("process action: %v", err)
	}
	in := f.intakes.intakes[0]
	if in.Status != IntakeSkipped {
		t.Errorf("expected skipped intake, got %s", in.Status)
	}
	if in.TakenAtUTC != nil {
		t.Error("expected taken_at_utc to be null for skip")
	}
	if f.plans.plans[plan.ID].Status != DoseSkipped {
		t.Errorf("expected plan status skipped, got %s", f.plans.plans[plan.ID].Status)
	}
}

func TestProcessActionSnooze(t *testing.T) {
	f := newFixture()
	plan := f.seedPlan(t, DoseNotified)
	tok := f.seedToken(t, plan.ID, time.Now().Add(time.Hour))

	if _, err := f.svc.ProcessAction(context.Background(), ActionSnooze, tok.Token, plan.ID, 15); err != nil {
		t.Fatalf("process action: %v", err)
	}
	in := f.intakes.intakes[0]
	if in.Status != IntakeLate {
		t.Errorf("expected late intake, got %s", in.Status)
	}
	if in.Notes == nil || *in.Notes != "Snoozed for 15 minutes" {
		t.Errorf("unexpected notes: %v", in.Notes)
	}
	if f.plans.plans[plan.ID].Status != DoseNotified {
		t.Errorf("snooze must not change plan status, got %s", f.plans.plans[plan.ID].Status)
	}
}

func TestProcessActionSnoozeDefaultMinutes(t *testing.T) {
	f := newFixture()
	plan := f.seedPlan(t, DosePending)
	tok := f.seedToken(t, plan.ID, time.Now().Add(time.Hour))

	if _, err := f.svc.ProcessAction(context.Background(), ActionSnooze, tok.Token, plan.ID, 0); err != nil {
		t.Fatalf("process action: %v", err)
	}
	in := f.intakes.intakes[0]
	if in.Notes == nil || *in.Notes != "Snoozed for 30 minutes" {
		t.Errorf("expected default snooze note, got %v", in.Notes)
	}
}

func TestProcessActionInvalidAction(t *testing.T) {
	f := newFixture()
	plan := f.seedPlan(t, DosePending)
	tok := f.seedToken(t, plan.ID, time.Now().Add(time.Hour))

	_, err := f.svc.ProcessAction(context.Background(), "swallow", tok.Token, plan.ID, 0)
	if !errors.Is(err, ErrInvalidAction) {
		t.Fatalf("expected ErrInvalidAction, got %v", err)
	}
	if len(f.intakes.intakes) != 0 {
		t.Error("intake written for invalid action")
	}
}

func TestProcessActionTokenReuseRejected(t *testing.T) {
	f := newFixture()
	plan := f.seedPlan(t, DosePending)
	tok := f.seedToken(t, plan.ID, time.Now().Add(time.Hour))

	if _, err := f.svc.ProcessAction(context.Background(), ActionTaken, tok.Token, plan.ID, 0); err != nil {
		t.Fatalf("first use: %v", err)
	}
	_, err := f.svc.ProcessAction(context.Background(), ActionTaken, tok.Token, plan.ID, 0)
	if !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken on reuse, got %v", err)
	}
	if len(f.intakes.intakes) != 1 {
		t.Errorf("expected exactly one intake, got %d", len(f.intakes.intakes))
	}
}

func TestProcessActionExpiredToken(t *testing.T) {
	f := newFixture()
	plan := f.seedPlan(t, DosePending)
	tok := f.seedToken(t, plan.ID, time.Now().Add(-time.Minute))

	_, err := f.svc.ProcessAction(context.Background(), ActionTaken, tok.Token, plan.ID, 0)
	if !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
	if tok.UsedAt != nil {
		t.Error("expired token must not be consumed")
	}
}

func TestProcessActionUnknownToken(t *testing.T) {
	f := newFixture()
	plan := f.seedPlan(t, DosePending)

	_, err := f.svc.ProcessAction(context.Background(), ActionTaken, "no-such-token", plan.ID, 0)
	if !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestProcessActionTokenForOtherPlanRejected(t *testing.T) {
	f := newFixture()
	planA := f.seedPlan(t, DosePending)
	planB := f.seedPlan(t, DosePending)
	tok := f.seedToken(t, planA.ID, time.Now().Add(time.Hour))

	_, err := f.svc.ProcessAction(context.Background(), ActionTaken, tok.Token, planB.ID, 0)
	if !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for mismatched plan, got %v", err)
	}
	if tok.UsedAt != nil {
		t.Error("token for another plan must not be consumed")
	}
}

func TestProcessActionIntakeWriteFailure(t *testing.T) {
	f := newFixture()
	f.intakes.failCreate = true
	plan := f.seedPlan(t, DosePending)
	tok := f.seedToken(t, plan.ID, time.Now().Add(time.Hour))

	_, err := f.svc.ProcessAction(context.Background(), ActionTaken, tok.Token, plan.ID, 0)
	if !errors.Is(err, ErrIntakeWriteFailed) {
		t.Fatalf("expected ErrIntakeWriteFailed, got %v", err)
	}
	if f.plans.plans[plan.ID].Status != DosePending {
		t.Error("plan status must not change when intake insert fails")
	}
}

func TestProcessActionPlanUpdateFailureTolerated(t *testing.T) {
	f := newFixture()
	f.plans.failOnUpdate = true
	plan := f.seedPlan(t, DosePending)
	tok := f.seedToken(t, plan.ID, time.Now().Add(time.Hour))

	res, err := f.svc.ProcessAction(context.Background(), ActionTaken, tok.Token, plan.ID, 0)
	if err != nil {
		t.Fatalf("plan update failure must not fail the request: %v", err)
	}
	if res.Action != ActionTaken {
		t.Errorf("unexpected result: %+v", res)
	}
	if len(f.intakes.intakes) != 1 {
		t.Errorf("expected the intake to be recorded, got %d", len(f.intakes.intakes))
	}
}

func TestProcessActionMissingPlan(t *testing.T) {
	f := newFixture()
	ghost := uuid.New()
	tok := f.seedToken(t, ghost, time.Now().Add(time.Hour))

	_, err := f.svc.ProcessAction(context.Background(), ActionTaken, tok.Token, ghost, 0)
	if !errors.Is(err, ErrDosePlanNotFound) {
		t.Fatalf("expected ErrDosePlanNotFound, got %v", err)
	}
}

func TestCreateActionToken(t *testing.T) {
	f := newFixture()
	plan := f.seedPlan(t, DosePending)

	tok, err := f.svc.CreateActionToken(context.Background(), plan.ID, TokenConfirmIntake)
	if err != nil {
		t.Fatalf("create token: %v", err)
	}
	if len(tok.Token) != 64 {
		t.Errorf("expected 64 hex chars, got %d", len(tok.Token))
	}
	if !tok.ExpiresAt.After(time.Now()) {
		t.Error("token should expire in the future")
	}

	other, err := f.svc.CreateActionToken(context.Background(), plan.ID, TokenConfirmIntake)
	if err != nil {
		t.Fatalf("create second token: %v", err)
	}
	if other.Token == tok.Token {
		t.Error("token secrets must be unique")
	}
}

func TestCreateDosePlanValidatesWindow(t *testing.T) {
	f := newFixture()
	now := time.Now().UTC()
	p := &DosePlan{
		ScheduleID:     uuid.New(),
		PlannedAtUTC:   now,
		WindowStartUTC: now.Add(time.Hour),
		WindowEndUTC:   now,
	}
	if err := f.svc.CreateDosePlan(context.Background(), p); err == nil {
		t.Fatal("expected error for inverted window")
	}
}
