package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type LotRepository interface {
	Create(ctx context.Context, lot *Lot) error
	GetByID(ctx context.Context, id uuid.UUID) (*Lot, error)
	AdjustQty(ctx context.Context, id uuid.UUID, delta int) error
	ListByOwner(ctx context.Context, ownerType OwnerType, ownerID uuid.UUID, limit, offset int) ([]*Lot, int, error)
	ListExpiring(ctx context.Context, before time.Time, limit, offset int) ([]*Lot, int, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type TxnRepository interface {
	Create(ctx context.Context, txn *Txn) error
	ListByLot(ctx context.Context, lotID uuid.UUID, limit, offset int) ([]*Txn, int, error)
}
