package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dosecare/dosecare/internal/platform/db"
)

// ErrInsufficientStock is returned when an adjustment would drive a
// lot's quantity below zero.
var ErrInsufficientStock = errors.New("insufficient stock")

type Service struct {
	lots LotRepository
	txns TxnRepository
	pool *pgxpool.Pool
}

func NewService(lots LotRepository, txns TxnRepository, pool *pgxpool.Pool) *Service {
	return &Service{lots: lots, txns: txns, pool: pool}
}

func (s *Service) CreateLot(ctx context.Context, lot *Lot) error {
	if lot.MedicationID == uuid.Nil {
		return fmt.Errorf("medication_id is required")
	}
	if lot.OwnerID == uuid.Nil {
		return fmt.Errorf("owner_id is required")
	}
	if lot.OwnerType != OwnerClinic && lot.OwnerType != OwnerPatient {
		return fmt.Errorf("invalid owner_type: %s", lot.OwnerType)
	}
	if lot.Qty < 0 {
		return fmt.Errorf("qty must not be negative")
	}
	return s.lots.Create(ctx, lot)
}

func (s *Service) GetLot(ctx context.Context, id uuid.UUID) (*Lot, error) {
	return s.lots.GetByID(ctx, id)
}

// RecordMovement applies a quantity delta to a lot and writes the
// matching ledger entry in one transaction.
func (s *Service) RecordMovement(ctx context.Context, lotID uuid.UUID, delta int, reason TxnReason, doseIntakeID *uuid.UUID) (*Txn, error) {
	switch reason {
	case ReasonRestock, ReasonDispense, ReasonAdjust, ReasonExpire:
	default:
		return nil, fmt.Errorf("invalid reason: %s", reason)
	}
	if delta == 0 {
		return nil, fmt.Errorf("delta must not be zero")
	}

	txn := &Txn{LotID: lotID, Delta: delta, Reason: reason, DoseIntakeID: doseIntakeID}
	err := s.withTx(ctx, func(ctx context.Context) error {
		if err := s.lots.AdjustQty(ctx, lotID, delta); err != nil {
			return err
		}
		return s.txns.Create(ctx, txn)
	})
	if err != nil {
		return nil, err
	}
	return txn, nil
}

func (s *Service) withTx(ctx context.Context, fn func(context.Context) error) error {
	if s.pool == nil {
		return fn(ctx)
	}
	return db.WithTx(ctx, s.pool, fn)
}

func (s *Service) ListLotsByOwner(ctx context.Context, ownerType OwnerType, ownerID uuid.UUID, limit, offset int) ([]*Lot, int, error) {
	return s.lots.ListByOwner(ctx, ownerType, ownerID, limit, offset)
}

// ListExpiring returns non-empty lots whose expiry falls within the
// given horizon, soonest first.
func (s *Service) ListExpiring(ctx context.Context, within time.Duration, limit, offset int) ([]*Lot, int, error) {
	return s.lots.ListExpiring(ctx, time.Now().Add(within), limit, offset)
}

func (s *Service) ListTxns(ctx context.Context, lotID uuid.UUID, limit, offset int) ([]*Txn, int, error) {
	return s.txns.ListByLot(ctx, lotID, limit, offset)
}

func (s *Service) DeleteLot(ctx context.Context, id uuid.UUID) error {
	return s.lots.Delete(ctx, id)
}
