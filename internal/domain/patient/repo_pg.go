package patient

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dosecare/dosecare/internal/platform/db"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) db.Queryer {
	if q := db.QueryerFromContext(ctx); q != nil {
		return q
	}
	return r.pool
}

const patientCols = `id, clinic_id, full_name, phone, gender, dob, city, timezone, privacy_mode, consent_at, created_at, updated_at`

func (r *repoPG) scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(&p.ID, &p.ClinicID, &p.FullName, &p.Phone, &p.Gender, &p.DOB,
		&p.City, &p.Timezone, &p.PrivacyMode, &p.ConsentAt, &p.CreatedAt, &p.UpdatedAt)
	return &p, err
}

func (r *repoPG) Create(ctx context.Context, p *Patient) error {
	p.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO patients (id, clinic_id, full_name, phone, gender, dob, city, timezone, privacy_mode, consent_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		p.ID, p.ClinicID, p.FullName, p.Phone, p.Gender, p.DOB, p.City, p.Timezone, p.PrivacyMode, p.ConsentAt)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return r.scanPatient(r.conn(ctx).QueryRow(ctx, `SELECT `+patientCols+` FROM patients WHERE id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, p *Patient) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE patients SET clinic_id=$2, full_name=$3, phone=$4, gender=$5, dob=$6,
			city=$7, timezone=$8, privacy_mode=$9, consent_at=$10, updated_at=NOW()
		WHERE id = $1`,
		p.ID, p.ClinicID, p.FullName, p.Phone, p.Gender, p.DOB, p.City, p.Timezone, p.PrivacyMode, p.ConsentAt)
	return err
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM patients WHERE id = $1`, id)
	return err
}

func (r *repoPG) List(ctx context.Context, clinicID *uuid.UUID, limit, offset int) ([]*Patient, int, error) {
	where := ``
	args := []any{limit, offset}
	if clinicID != nil {
		where = ` WHERE clinic_id = $3`
		args = append(args, *clinicID)
	}

	var total int
	countArgs := args[2:]
	if err := r.conn(ctx).QueryRow(ctx, countQuery(where), countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx, `SELECT `+patientCols+` FROM patients`+where+` ORDER BY full_name LIMIT $1 OFFSET $2`, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Patient
	for rows.Next() {
		p, err := r.scanPatient(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	return items, total, nil
}

func countQuery(where string) string {
	if where == "" {
		return `SELECT COUNT(*) FROM patients`
	}
	return `SELECT COUNT(*) FROM patients WHERE clinic_id = $1`
}

type caregiverRepoPG struct{ pool *pgxpool.Pool }

func NewCaregiverRepoPG(pool *pgxpool.Pool) CaregiverRepository { return &caregiverRepoPG{pool: pool} }

func (r *caregiverRepoPG) conn(ctx context.Context) db.Queryer {
	if q := db.QueryerFromContext(ctx); q != nil {
		return q
	}
	return r.pool
}

func (r *caregiverRepoPG) Create(ctx context.Context, cg *Caregiver) error {
	cg.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO caregivers (id, patient_id, full_name, phone, channel, relation)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		cg.ID, cg.PatientID, cg.FullName, cg.Phone, cg.Channel, cg.Relation)
	return err
}

func (r *caregiverRepoPG) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Caregiver, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, patient_id, full_name, phone, channel, relation, created_at
		FROM caregivers WHERE patient_id = $1 ORDER BY created_at`, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*Caregiver
	for rows.Next() {
		var cg Caregiver
		if err := rows.Scan(&cg.ID, &cg.PatientID, &cg.FullName, &cg.Phone, &cg.Channel, &cg.Relation, &cg.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, &cg)
	}
	return items, nil
}

func (r *caregiverRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM caregivers WHERE id = $1`, id)
	return err
}
