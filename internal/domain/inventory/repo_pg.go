package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dosecare/dosecare/internal/platform/db"
)

type lotRepoPG struct{ pool *pgxpool.Pool }

func NewLotRepoPG(pool *pgxpool.Pool) LotRepository { return &lotRepoPG{pool: pool} }

func (r *lotRepoPG) conn(ctx context.Context) db.Queryer {
	if q := db.QueryerFromContext(ctx); q != nil {
		return q
	}
	return r.pool
}

const lotCols = `id, medication_id, owner_id, owner_type, lot_no, qty, expiry_date, added_at, updated_at`

func (r *lotRepoPG) scanLot(row pgx.Row) (*Lot, error) {
	var l Lot
	err := row.Scan(&l.ID, &l.MedicationID, &l.OwnerID, &l.OwnerType, &l.LotNo,
		&l.Qty, &l.ExpiryDate, &l.AddedAt, &l.UpdatedAt)
	return &l, err
}

func (r *lotRepoPG) Create(ctx context.Context, lot *Lot) error {
	lot.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO inventory_lots (id, medication_id, owner_id, owner_type, lot_no, qty, expiry_date)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		lot.ID, lot.MedicationID, lot.OwnerID, lot.OwnerType, lot.LotNo, lot.Qty, lot.ExpiryDate)
	return err
}

func (r *lotRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Lot, error) {
	return r.scanLot(r.conn(ctx).QueryRow(ctx, `SELECT `+lotCols+` FROM inventory_lots WHERE id = $1`, id))
}

func (r *lotRepoPG) AdjustQty(ctx context.Context, id uuid.UUID, delta int) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE inventory_lots SET qty = qty + $2, updated_at = NOW()
		WHERE id = $1 AND qty + $2 >= 0`, id, delta)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrInsufficientStock
	}
	return nil
}

func (r *lotRepoPG) ListByOwner(ctx context.Context, ownerType OwnerType, ownerID uuid.UUID, limit, offset int) ([]*Lot, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM inventory_lots WHERE owner_type = $1 AND owner_id = $2`,
		ownerType, ownerID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+lotCols+` FROM inventory_lots
		WHERE owner_type = $1 AND owner_id = $2
		ORDER BY expiry_date NULLS LAST, added_at
		LIMIT $3 OFFSET $4`, ownerType, ownerID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return r.collect(rows, total)
}

func (r *lotRepoPG) ListExpiring(ctx context.Context, before time.Time, limit, offset int) ([]*Lot, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM inventory_lots WHERE expiry_date IS NOT NULL AND expiry_date <= $1 AND qty > 0`,
		before).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+lotCols+` FROM inventory_lots
		WHERE expiry_date IS NOT NULL AND expiry_date <= $1 AND qty > 0
		ORDER BY expiry_date
		LIMIT $2 OFFSET $3`, before, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return r.collect(rows, total)
}

func (r *lotRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM inventory_lots WHERE id = $1`, id)
	return err
}

func (r *lotRepoPG) collect(rows pgx.Rows, total int) ([]*Lot, int, error) {
	var items []*Lot
	for rows.Next() {
		l, err := r.scanLot(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, l)
	}
	return items, total, nil
}

type txnRepoPG struct{ pool *pgxpool.Pool }

func NewTxnRepoPG(pool *pgxpool.Pool) TxnRepository { return &txnRepoPG{pool: pool} }

func (r *txnRepoPG) conn(ctx context.Context) db.Queryer {
	if q := db.QueryerFromContext(ctx); q != nil {
		return q
	}
	return r.pool
}

func (r *txnRepoPG) Create(ctx context.Context, txn *Txn) error {
	txn.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO inventory_txns (id, lot_id, delta, reason, dose_intake_id)
		VALUES ($1,$2,$3,$4,$5)`,
		txn.ID, txn.LotID, txn.Delta, txn.Reason, txn.DoseIntakeID)
	return err
}

func (r *txnRepoPG) ListByLot(ctx context.Context, lotID uuid.UUID, limit, offset int) ([]*Txn, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM inventory_txns WHERE lot_id = $1`, lotID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, lot_id, delta, reason, dose_intake_id, created_at
		FROM inventory_txns WHERE lot_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3`, lotID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Txn
	for rows.Next() {
		var t Txn
		if err := rows.Scan(&t.ID, &t.LotID, &t.Delta, &t.Reason, &t.DoseIntakeID, &t.CreatedAt); err != nil {
			return nil, 0, err
		}
		items = append(items, &t)
	}
	return items, total, nil
}
