package medication

import (
	"context"
	"testing"

	"github.com/google/uuid"
)

type mockRepo struct {
	meds map[uuid.UUID]*Medication
}

func newMockRepo() *mockRepo {
	return &mockRepo{meds: make(map[uuid.UUID]*Medication)}
}

func (m *mockRepo) Create(_ context.Context, med *Medication) error {
	med.ID = uuid.New()
	m.meds[med.ID] = med
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Medication, error) {
	med, ok := m.meds[id]
	if !ok {
		return nil, errNotFound
	}
	return med, nil
}

func (m *mockRepo) Update(_ context.Context, med *Medication) error {
	if _, ok := m.meds[med.ID]; !ok {
		return errNotFound
	}
	m.meds[med.ID] = med
	return nil
}

func (m *mockRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.meds, id)
	return nil
}

func (m *mockRepo) List(_ context.Context, limit, offset int) ([]*Medication, int, error) {
	var items []*Medication
	for _, med := range m.meds {
		items = append(items, med)
	}
	return items, len(items), nil
}

func (m *mockRepo) Search(_ context.Context, name string, limit, offset int) ([]*Medication, int, error) {
	return m.List(nil, limit, offset)
}

var errNotFound = errString("not found")

type errString string

func (e errString) Error() string { return string(e) }

func newTestService() (*Service, *mockRepo) {
	repo := newMockRepo()
	return NewService(repo), repo
}

func TestCreateMedicationRequiresName(t *testing.T) {
	svc, _ := newTestService()
	err := svc.CreateMedication(context.Background(), &Medication{})
	if err == nil {
		t.Fatal("expected error for missing name")
	}
}

func TestCreateMedicationDefaultsForm(t *testing.T) {
	svc, repo := newTestService()
	m := &Medication{Name: "Paracetamol"}
	if err := svc.CreateMedication(context.Background(), m); err != nil {
		t.Fatalf("create: %v", err)
	}
	if repo.meds[m.ID].Form != FormTablet {
		t.Errorf("expected default form tablet, got %s", repo.meds[m.ID].Form)
	}
}

func TestCreateMedicationRejectsBadForm(t *testing.T) {
	svc, _ := newTestService()
	err := svc.CreateMedication(context.Background(), &Medication{Name: "X", Form: "gummy"})
	if err == nil {
		t.Fatal("expected error for invalid form")
	}
}
