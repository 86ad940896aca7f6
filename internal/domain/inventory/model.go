package inventory

import (
	"time"

	"github.com/google/uuid"
)

// OwnerType says whose stock a lot is.
type OwnerType string

const (
	OwnerClinic  OwnerType = "clinic"
	OwnerPatient OwnerType = "patient"
)

// TxnReason classifies a stock movement.
type TxnReason string

const (
	ReasonRestock  TxnReason = "restock"
	ReasonDispense TxnReason = "dispense"
	ReasonAdjust   TxnReason = "adjust"
	ReasonExpire   TxnReason = "expire"
)

// Lot maps to the inventory_lots table.
type Lot struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	MedicationID uuid.UUID  `db:"medication_id" json:"medication_id"`
	OwnerID      uuid.UUID  `db:"owner_id" json:"owner_id"`
	OwnerType    OwnerType  `db:"owner_type" json:"owner_type"`
	LotNo        *string    `db:"lot_no" json:"lot_no,omitempty"`
	Qty          int        `db:"qty" json:"qty"`
	ExpiryDate   *time.Time `db:"expiry_date" json:"expiry_date,omitempty"`
	AddedAt      time.Time  `db:"added_at" json:"added_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// Txn maps to the inventory_txns table. Lot quantity changes always go
// through a txn so the ledger explains the current balance.
type Txn struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	LotID        uuid.UUID  `db:"lot_id" json:"lot_id"`
	Delta        int        `db:"delta" json:"delta"`
	Reason       TxnReason  `db:"reason" json:"reason"`
	DoseIntakeID *uuid.UUID `db:"dose_intake_id" json:"dose_intake_id,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
}
