package medication

import (
	"time"

	"github.com/google/uuid"
)

// Form is the dosage form of a medication.
type Form string

const (
	FormTablet    Form = "tablet"
	FormCapsule   Form = "capsule"
	FormLiquid    Form = "liquid"
	FormInjection Form = "injection"
	FormInhaler   Form = "inhaler"
	FormCream     Form = "cream"
	FormDrops     Form = "drops"
	FormOther     Form = "other"
)

var validForms = map[Form]bool{
	FormTablet: true, FormCapsule: true, FormLiquid: true, FormInjection: true,
	FormInhaler: true, FormCream: true, FormDrops: true, FormOther: true,
}

// Medication maps to the medications table.
type Medication struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Form      Form      `db:"form" json:"form"`
	Strength  *string   `db:"strength" json:"strength,omitempty"`
	CodeType  *string   `db:"code_type" json:"code_type,omitempty"`
	CodeValue *string   `db:"code_value" json:"code_value,omitempty"`
	Notes     *string   `db:"notes" json:"notes,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
