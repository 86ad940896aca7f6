package dosing

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dosecare/dosecare/internal/platform/db"
)

type scheduleRepoPG struct{ pool *pgxpool.Pool }

func NewScheduleRepoPG(pool *pgxpool.Pool) ScheduleRepository { return &scheduleRepoPG{pool: pool} }

func (r *scheduleRepoPG) conn(ctx context.Context) db.Queryer {
	if q := db.QueryerFromContext(ctx); q != nil {
		return q
	}
	return r.pool
}

const scheduleCols = `id, patient_id, medication_id, dose_value, dose_unit, regimen_json, start_date, end_date, timezone, prn, created_at, updated_at`

func (r *scheduleRepoPG) scanSchedule(row pgx.Row) (*Schedule, error) {
	var s Schedule
	err := row.Scan(&s.ID, &s.PatientID, &s.MedicationID, &s.DoseValue, &s.DoseUnit,
		&s.Regimen, &s.StartDate, &s.EndDate, &s.Timezone, &s.PRN, &s.CreatedAt, &s.UpdatedAt)
	return &s, err
}

func (r *scheduleRepoPG) Create(ctx context.Context, s *Schedule) error {
	s.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO schedules (id, patient_id, medication_id, dose_value, dose_unit, regimen_json, start_date, end_date, timezone, prn)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		s.ID, s.PatientID, s.MedicationID, s.DoseValue, s.DoseUnit, s.Regimen, s.StartDate, s.EndDate, s.Timezone, s.PRN)
	return err
}

func (r *scheduleRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Schedule, error) {
	return r.scanSchedule(r.conn(ctx).QueryRow(ctx, `SELECT `+scheduleCols+` FROM schedules WHERE id = $1`, id))
}

func (r *scheduleRepoPG) Update(ctx context.Context, s *Schedule) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE schedules SET dose_value=$2, dose_unit=$3, regimen_json=$4, start_date=$5,
			end_date=$6, timezone=$7, prn=$8, updated_at=NOW()
		WHERE id = $1`,
		s.ID, s.DoseValue, s.DoseUnit, s.Regimen, s.StartDate, s.EndDate, s.Timezone, s.PRN)
	return err
}

func (r *scheduleRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM schedules WHERE id = $1`, id)
	return err
}

func (r *scheduleRepoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Schedule, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM schedules WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+scheduleCols+` FROM schedules WHERE patient_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3`, patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Schedule
	for rows.Next() {
		s, err := r.scanSchedule(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, s)
	}
	return items, total, nil
}

type dosePlanRepoPG struct{ pool *pgxpool.Pool }

func NewDosePlanRepoPG(pool *pgxpool.Pool) DosePlanRepository { return &dosePlanRepoPG{pool: pool} }

func (r *dosePlanRepoPG) conn(ctx context.Context) db.Queryer {
	if q := db.QueryerFromContext(ctx); q != nil {
		return q
	}
	return r.pool
}

const dosePlanCols = `id, schedule_id, planned_at_utc, window_start_utc, window_end_utc, status, last_notified_at, created_at, updated_at`

func (r *dosePlanRepoPG) scanDosePlan(row pgx.Row) (*DosePlan, error) {
	var p DosePlan
	err := row.Scan(&p.ID, &p.ScheduleID, &p.PlannedAtUTC, &p.WindowStartUTC, &p.WindowEndUTC,
		&p.Status, &p.LastNotifiedAt, &p.CreatedAt, &p.UpdatedAt)
	return &p, err
}

func (r *dosePlanRepoPG) Create(ctx context.Context, p *DosePlan) error {
	p.ID = uuid.New()
	if p.Status == "" {
		p.Status = DosePending
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO dose_plans (id, schedule_id, planned_at_utc, window_start_utc, window_end_utc, status)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		p.ID, p.ScheduleID, p.PlannedAtUTC, p.WindowStartUTC, p.WindowEndUTC, p.Status)
	return err
}

func (r *dosePlanRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*DosePlan, error) {
	return r.scanDosePlan(r.conn(ctx).QueryRow(ctx, `SELECT `+dosePlanCols+` FROM dose_plans WHERE id = $1`, id))
}

func (r *dosePlanRepoPG) UpdateStatus(ctx context.Context, id uuid.UUID, status DoseStatus) error {
	_, err := r.conn(ctx).Exec(ctx, `UPDATE dose_plans SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	return err
}

func (r *dosePlanRepoPG) ListBySchedule(ctx context.Context, scheduleID uuid.UUID, limit, offset int) ([]*DosePlan, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM dose_plans WHERE schedule_id = $1`, scheduleID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+dosePlanCols+` FROM dose_plans WHERE schedule_id = $1
		ORDER BY planned_at_utc LIMIT $2 OFFSET $3`, scheduleID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*DosePlan
	for rows.Next() {
		p, err := r.scanDosePlan(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	return items, total, nil
}

type intakeRepoPG struct{ pool *pgxpool.Pool }

func NewIntakeRepoPG(pool *pgxpool.Pool) IntakeRepository { return &intakeRepoPG{pool: pool} }

func (r *intakeRepoPG) conn(ctx context.Context) db.Queryer {
	if q := db.QueryerFromContext(ctx); q != nil {
		return q
	}
	return r.pool
}

func (r *intakeRepoPG) Create(ctx context.Context, in *DoseIntake) error {
	in.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO dose_intakes (id, dose_plan_id, status, taken_at_utc, source, notes)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		in.ID, in.DosePlanID, in.Status, in.TakenAtUTC, in.Source, in.Notes)
	return err
}

func (r *intakeRepoPG) ListByPlan(ctx context.Context, dosePlanID uuid.UUID) ([]*DoseIntake, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, dose_plan_id, status, taken_at_utc, source, notes, created_at
		FROM dose_intakes WHERE dose_plan_id = $1 ORDER BY created_at`, dosePlanID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*DoseIntake
	for rows.Next() {
		var in DoseIntake
		if err := rows.Scan(&in.ID, &in.DosePlanID, &in.Status, &in.TakenAtUTC, &in.Source, &in.Notes, &in.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, &in)
	}
	return items, nil
}

type tokenRepoPG struct{ pool *pgxpool.Pool }

func NewTokenRepoPG(pool *pgxpool.Pool) TokenRepository { return &tokenRepoPG{pool: pool} }

func (r *tokenRepoPG) conn(ctx context.Context) db.Queryer {
	if q := db.QueryerFromContext(ctx); q != nil {
		return q
	}
	return r.pool
}

const tokenCols = `id, token, type, entity_id, expires_at, used_at, created_at`

func (r *tokenRepoPG) scanToken(row pgx.Row) (*ActionToken, error) {
	var t ActionToken
	err := row.Scan(&t.ID, &t.Token, &t.Type, &t.EntityID, &t.ExpiresAt, &t.UsedAt, &t.CreatedAt)
	return &t, err
}

func (r *tokenRepoPG) Create(ctx context.Context, t *ActionToken) error {
	t.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO action_tokens (id, token, type, entity_id, expires_at)
		VALUES ($1,$2,$3,$4,$5)`,
		t.ID, t.Token, t.Type, t.EntityID, t.ExpiresAt)
	return err
}

// Claim relies on a single conditional UPDATE so two concurrent
// requests for the same token cannot both see it unused.
func (r *tokenRepoPG) Claim(ctx context.Context, token string, entityID uuid.UUID, typ TokenType, now time.Time) (*ActionToken, error) {
	t, err := r.scanToken(r.conn(ctx).QueryRow(ctx, `
		UPDATE action_tokens SET used_at = $4
		WHERE token = $1 AND entity_id = $2 AND type = $3
			AND used_at IS NULL AND expires_at > $4
		RETURNING `+tokenCols,
		token, entityID, typ, now))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrTokenNotClaimable
	}
	return t, err
}

func (r *tokenRepoPG) Find(ctx context.Context, token string, entityID uuid.UUID, typ TokenType) (*ActionToken, error) {
	t, err := r.scanToken(r.conn(ctx).QueryRow(ctx, `
		SELECT `+tokenCols+` FROM action_tokens
		WHERE token = $1 AND entity_id = $2 AND type = $3`,
		token, entityID, typ))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrTokenNotClaimable
	}
	return t, err
}
