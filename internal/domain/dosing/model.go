package dosing

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// DoseStatus is the lifecycle state of a planned dose.
type DoseStatus string

const (
	DosePending  DoseStatus = "pending"
	DoseNotified DoseStatus = "notified"
	DoseTaken    DoseStatus = "taken"
	DoseMissed   DoseStatus = "missed"
	DoseSkipped  DoseStatus = "skipped"
)

// IntakeStatus records how the patient responded to a dose.
type IntakeStatus string

const (
	IntakeOnTime  IntakeStatus = "on_time"
	IntakeLate    IntakeStatus = "late"
	IntakeMissed  IntakeStatus = "missed"
	IntakeSkipped IntakeStatus = "skipped"
)

// IntakeSource is the channel the response arrived on.
type IntakeSource string

const (
	SourceWebPush  IntakeSource = "web_push"
	SourceWhatsApp IntakeSource = "whatsapp"
	SourceSMS      IntakeSource = "sms"
	SourceWeb      IntakeSource = "web"
)

// TokenType classifies an action token.
type TokenType string

const (
	TokenConfirmIntake TokenType = "confirm_intake"
	TokenSnooze        TokenType = "snooze"
	TokenSkip          TokenType = "skip"
	TokenLogin         TokenType = "login"
)

// Schedule maps to the schedules table. The regimen (times of day,
// days of week) is stored as JSON since its shape varies by regimen
// kind.
type Schedule struct {
	ID           uuid.UUID       `db:"id" json:"id"`
	PatientID    uuid.UUID       `db:"patient_id" json:"patient_id"`
	MedicationID uuid.UUID       `db:"medication_id" json:"medication_id"`
	DoseValue    float64         `db:"dose_value" json:"dose_value"`
	DoseUnit     string          `db:"dose_unit" json:"dose_unit"`
	Regimen      json.RawMessage `db:"regimen_json" json:"regimen"`
	StartDate    time.Time       `db:"start_date" json:"start_date"`
	EndDate      *time.Time      `db:"end_date" json:"end_date,omitempty"`
	Timezone     string          `db:"timezone" json:"timezone"`
	PRN          bool            `db:"prn" json:"prn"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time       `db:"updated_at" json:"updated_at"`
}

// DosePlan is one scheduled occurrence of a dose with its window.
type DosePlan struct {
	ID             uuid.UUID  `db:"id" json:"id"`
	ScheduleID     uuid.UUID  `db:"schedule_id" json:"schedule_id"`
	PlannedAtUTC   time.Time  `db:"planned_at_utc" json:"planned_at_utc"`
	WindowStartUTC time.Time  `db:"window_start_utc" json:"window_start_utc"`
	WindowEndUTC   time.Time  `db:"window_end_utc" json:"window_end_utc"`
	Status         DoseStatus `db:"status" json:"status"`
	LastNotifiedAt *time.Time `db:"last_notified_at" json:"last_notified_at,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}

// DoseIntake is the append-only record of a response to a dose plan.
// Rows are never updated or deleted once written.
type DoseIntake struct {
	ID         uuid.UUID    `db:"id" json:"id"`
	DosePlanID uuid.UUID    `db:"dose_plan_id" json:"dose_plan_id"`
	Status     IntakeStatus `db:"status" json:"status"`
	TakenAtUTC *time.Time   `db:"taken_at_utc" json:"taken_at_utc,omitempty"`
	Source     IntakeSource `db:"source" json:"source"`
	Notes      *string      `db:"notes" json:"notes,omitempty"`
	CreatedAt  time.Time    `db:"created_at" json:"created_at"`
}

// ActionToken is a single-use credential tied to one entity. Valid
// while used_at is null and expires_at is in the future.
type ActionToken struct {
	ID        uuid.UUID  `db:"id" json:"id"`
	Token     string     `db:"token" json:"token"`
	Type      TokenType  `db:"type" json:"type"`
	EntityID  uuid.UUID  `db:"entity_id" json:"entity_id"`
	ExpiresAt time.Time  `db:"expires_at" json:"expires_at"`
	UsedAt    *time.Time `db:"used_at" json:"used_at,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
}
