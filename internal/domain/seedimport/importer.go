package seedimport

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/dosecare/dosecare/internal/domain/clinic"
	"github.com/dosecare/dosecare/internal/domain/inventory"
	"github.com/dosecare/dosecare/internal/domain/medication"
	"github.com/dosecare/dosecare/internal/domain/patient"
)

// The importer only needs the create operation from each domain
// service.
type ClinicCreator interface {
	CreateClinic(ctx context.Context, c *clinic.Clinic) error
}

type MedicationCreator interface {
	CreateMedication(ctx context.Context, m *medication.Medication) error
}

type PatientCreator interface {
	CreatePatient(ctx context.Context, p *patient.Patient) error
}

type LotCreator interface {
	CreateLot(ctx context.Context, lot *inventory.Lot) error
}

// Importer reconciles externally-keyed seed rows into internal
// records, remapping legacy ids to internal ids as it goes. The
// import is not idempotent: re-running the same batch duplicates
// rows that already imported successfully.
type Importer struct {
	clinics       ClinicCreator
	medications   MedicationCreator
	patients      PatientCreator
	lots          LotCreator
	recordTimeout time.Duration
	log           zerolog.Logger
	now           func() time.Time
}

func NewImporter(clinics ClinicCreator, medications MedicationCreator, patients PatientCreator, lots LotCreator, recordTimeout time.Duration, log zerolog.Logger) *Importer {
	return &Importer{
		clinics:       clinics,
		medications:   medications,
		patients:      patients,
		lots:          lots,
		recordTimeout: recordTimeout,
		log:           log,
		now:           time.Now,
	}
}

// Import processes the four collections in dependency order. A failed
// record is reported and skipped; the batch never aborts. Rows that
// reference a legacy id which did not import are skipped with a
// dependency error, never partially inserted.
func (im *Importer) Import(ctx context.Context, batch *Batch) *Results {
	res := &Results{Errors: []string{}}

	clinicIDs := im.importHospitals(ctx, batch.Hospitals, res)
	medIDs := im.importMedications(ctx, batch.Medications, res)
	im.importPatients(ctx, batch.Patients, clinicIDs, res)
	im.importInventory(ctx, batch.Inventory, clinicIDs, medIDs, res)

	im.log.Info().
		Int("clinics", res.Clinics).
		Int("medications", res.Medications).
		Int("patients", res.Patients).
		Int("inventory", res.Inventory).
		Int("errors", len(res.Errors)).
		Msg("seed import finished")
	return res
}

func (im *Importer) importHospitals(ctx context.Context, rows []HospitalRow, res *Results) map[string]clinic.Clinic {
	ids := make(map[string]clinic.Clinic, len(rows))
	for _, row := range rows {
		if row.Name == "" {
			res.Errors = append(res.Errors, fmt.Sprintf("Hospital %s: name is required", row.HospitalID))
			continue
		}
		c := &clinic.Clinic{Name: row.Name}
		if addr := hospitalAddress(row); addr != "" {
			c.Address = &addr
		}
		if err := im.withTimeout(ctx, func(ctx context.Context) error {
			return im.clinics.CreateClinic(ctx, c)
		}); err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("Hospital %s: %v", row.HospitalID, err))
			continue
		}
		ids[row.HospitalID] = *c
		res.Clinics++
	}
	return ids
}

func hospitalAddress(row HospitalRow) string {
	parts := make([]string, 0, 3)
	if row.Address != "" {
		parts = append(parts, row.Address)
	}
	if row.City != "" {
		parts = append(parts, row.City)
	}
	region := strings.TrimSpace(row.State + " " + row.Pin)
	if region != "" {
		parts = append(parts, region)
	}
	return strings.Join(parts, ", ")
}

func (im *Importer) importMedications(ctx context.Context, rows []MedicationRow, res *Results) map[string]medication.Medication {
	ids := make(map[string]medication.Medication, len(rows))
	for _, row := range rows {
		if row.BrandName == "" {
			res.Errors = append(res.Errors, fmt.Sprintf("Medication %s: brand_name is required", row.MedID))
			continue
		}
		m := &medication.Medication{
			Name: row.BrandName,
			Form: medication.ClassifyForm(row.BrandName, row.Unit),
		}
		if row.Dosage != "" {
			strength := strings.TrimSpace(row.Dosage + " " + row.Unit)
			m.Strength = &strength
		}
		if row.MedID != "" {
			codeType := "OTHER"
			codeValue := row.MedID
			m.CodeType = &codeType
			m.CodeValue = &codeValue
		}
		if notes := medicationNotes(row); notes != "" {
			m.Notes = &notes
		}
		if err := im.withTimeout(ctx, func(ctx context.Context) error {
			return im.medications.CreateMedication(ctx, m)
		}); err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("Medication %s: %v", row.MedID, err))
			continue
		}
		ids[row.MedID] = *m
		res.Medications++
	}
	return ids
}

func medicationNotes(row MedicationRow) string {
	parts := make([]string, 0, 3)
	if row.GenericName != "" {
		parts = append(parts, "Generic: "+row.GenericName)
	}
	if row.Manufacturer != "" {
		parts = append(parts, "Manufacturer: "+row.Manufacturer)
	}
	if row.MRP != "" {
		parts = append(parts, "MRP: "+row.MRP)
	}
	return strings.Join(parts, ", ")
}

func (im *Importer) importPatients(ctx context.Context, rows []PatientRow, clinicIDs map[string]clinic.Clinic, res *Results) {
	for _, row := range rows {
		if row.Name == "" {
			res.Errors = append(res.Errors, fmt.Sprintf("Patient %s: name is required", row.PatientID))
			continue
		}
		p := &patient.Patient{FullName: row.Name}
		if row.HospitalID != "" {
			c, ok := clinicIDs[row.HospitalID]
			if !ok {
				res.Errors = append(res.Errors, fmt.Sprintf("Patient %s: hospital %s not imported", row.PatientID, row.HospitalID))
				continue
			}
			id := c.ID
			p.ClinicID = &id
		}
		if row.Gender != "" {
			g := row.Gender
			p.Gender = &g
		}
		if row.Phone != "" {
			ph := row.Phone
			p.Phone = &ph
		}
		if row.City != "" {
			city := row.City
			p.City = &city
		}
		if age, err := strconv.Atoi(row.Age); err == nil && age > 0 {
			dob := time.Date(im.now().Year()-age, time.January, 1, 0, 0, 0, 0, time.UTC)
			p.DOB = &dob
		}
		if anyTrue(row.ConsentSMS, row.ConsentWhatsApp, row.ConsentPush) {
			consentAt := im.now().UTC()
			p.ConsentAt = &consentAt
		}
		if err := im.withTimeout(ctx, func(ctx context.Context) error {
			return im.patients.CreatePatient(ctx, p)
		}); err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("Patient %s: %v", row.PatientID, err))
			continue
		}
		res.Patients++
	}
}

func anyTrue(flags ...string) bool {
	for _, f := range flags {
		if strings.EqualFold(f, "true") {
			return true
		}
	}
	return false
}

func (im *Importer) importInventory(ctx context.Context, rows []InventoryRow, clinicIDs map[string]clinic.Clinic, medIDs map[string]medication.Medication, res *Results) {
	for _, row := range rows {
		c, haveClinic := clinicIDs[row.HospitalID]
		m, haveMed := medIDs[row.MedID]

		// Report every missing dependency, not just the first.
		if !haveClinic {
			res.Errors = append(res.Errors, fmt.Sprintf("Inventory %s: hospital %s not imported", row.InvID, row.HospitalID))
		}
		if !haveMed {
			res.Errors = append(res.Errors, fmt.Sprintf("Inventory %s: medication %s not imported", row.InvID, row.MedID))
		}
		if !haveClinic || !haveMed {
			continue
		}

		qty, err := strconv.Atoi(row.Qty)
		if err != nil || qty < 0 {
			res.Errors = append(res.Errors, fmt.Sprintf("Inventory %s: invalid qty %q", row.InvID, row.Qty))
			continue
		}
		lot := &inventory.Lot{
			MedicationID: m.ID,
			OwnerID:      c.ID,
			OwnerType:    inventory.OwnerClinic,
			Qty:          qty,
		}
		if row.BatchNo != "" {
			batch := row.BatchNo
			lot.LotNo = &batch
		}
		if row.ExpiryDate != "" {
			exp, err := time.Parse("2006-01-02", row.ExpiryDate)
			if err != nil {
				res.Errors = append(res.Errors, fmt.Sprintf("Inventory %s: invalid expiry_date %q", row.InvID, row.ExpiryDate))
				continue
			}
			lot.ExpiryDate = &exp
		}
		if err := im.withTimeout(ctx, func(ctx context.Context) error {
			return im.lots.CreateLot(ctx, lot)
		}); err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("Inventory %s: %v", row.InvID, err))
			continue
		}
		res.Inventory++
	}
}

// withTimeout bounds each store call so one stuck record cannot hang
// the whole batch.
func (im *Importer) withTimeout(ctx context.Context, fn func(context.Context) error) error {
	if im.recordTimeout <= 0 {
		return fn(ctx)
	}
	ctx, cancel := context.WithTimeout(ctx, im.recordTimeout)
	defer cancel()
	return fn(ctx)
}
