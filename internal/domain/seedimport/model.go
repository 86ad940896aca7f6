package seedimport

// Rows arrive pre-parsed from delimited text upstream, so every field
// is a string. Numeric and date fields are validated here before any
// store write.

type HospitalRow struct {
	HospitalID string `json:"hospital_id"`
	Name       string `json:"name"`
	Address    string `json:"address"`
	City       string `json:"city"`
	State      string `json:"state"`
	Pin        string `json:"pin"`
	Contact    string `json:"contact"`
	Type       string `json:"type"`
	Lat        string `json:"lat"`
	Lon        string `json:"lon"`
}

type MedicationRow struct {
	MedID        string `json:"med_id"`
	BrandName    string `json:"brand_name"`
	GenericName  string `json:"generic_name"`
	Dosage       string `json:"dosage"`
	Unit         string `json:"unit"`
	MRP          string `json:"mrp"`
	Manufacturer string `json:"manufacturer"`
}

type PatientRow struct {
	PatientID       string `json:"patient_id"`
	Name            string `json:"name"`
	Gender          string `json:"gender"`
	Age             string `json:"age"`
	City            string `json:"city"`
	Phone           string `json:"phone"`
	HospitalID      string `json:"hospital_id"`
	ConsentSMS      string `json:"consent_sms"`
	ConsentWhatsApp string `json:"consent_whatsapp"`
	ConsentPush     string `json:"consent_push"`
}

type InventoryRow struct {
	InvID      string `json:"inv_id"`
	HospitalID string `json:"hospital_id"`
	MedID      string `json:"med_id"`
	BatchNo    string `json:"batch_no"`
	Qty        string `json:"qty"`
	ExpiryDate string `json:"expiry_date"`
}

// Batch is the full import payload.
type Batch struct {
	Hospitals   []HospitalRow   `json:"hospitalData"`
	Medications []MedicationRow `json:"medicationData"`
	Patients    []PatientRow    `json:"patientData"`
	Inventory   []InventoryRow  `json:"inventoryData"`
}

// Results reports per-collection success counts and the accumulated
// per-record errors. A non-empty Errors list does not mean the import
// failed; independent records still land.
type Results struct {
	Clinics     int      `json:"clinics"`
	Medications int      `json:"medications"`
	Patients    int      `json:"patients"`
	Inventory   int      `json:"inventory"`
	Errors      []string `json:"errors"`
}
