package patient

import (
	"time"

	"github.com/google/uuid"
)

// PrivacyMode controls how much detail notifications carry.
type PrivacyMode string

const (
	PrivacyStandard PrivacyMode = "standard"
	PrivacyDiscreet PrivacyMode = "discreet"
)

// Patient maps to the patients table.
type Patient struct {
	ID          uuid.UUID   `db:"id" json:"id"`
	ClinicID    *uuid.UUID  `db:"clinic_id" json:"clinic_id,omitempty"`
	FullName    string      `db:"full_name" json:"full_name"`
	Phone       *string     `db:"phone" json:"phone,omitempty"`
	Gender      *string     `db:"gender" json:"gender,omitempty"`
	DOB         *time.Time  `db:"dob" json:"dob,omitempty"`
	City        *string     `db:"city" json:"city,omitempty"`
	Timezone    string      `db:"timezone" json:"timezone"`
	PrivacyMode PrivacyMode `db:"privacy_mode" json:"privacy_mode"`
	ConsentAt   *time.Time  `db:"consent_at" json:"consent_at,omitempty"`
	CreatedAt   time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time   `db:"updated_at" json:"updated_at"`
}

// CaregiverChannel is the channel a caregiver is reached on.
type CaregiverChannel string

const (
	ChannelSMS      CaregiverChannel = "sms"
	ChannelWhatsApp CaregiverChannel = "whatsapp"
	ChannelWebPush  CaregiverChannel = "web_push"
)

// Caregiver is a contact notified about a patient's doses.
type Caregiver struct {
	ID        uuid.UUID        `db:"id" json:"id"`
	PatientID uuid.UUID        `db:"patient_id" json:"patient_id"`
	FullName  string           `db:"full_name" json:"full_name"`
	Phone     string           `db:"phone" json:"phone"`
	Channel   CaregiverChannel `db:"channel" json:"channel"`
	Relation  *string          `db:"relation" json:"relation,omitempty"`
	CreatedAt time.Time        `db:"created_at" json:"created_at"`
}
