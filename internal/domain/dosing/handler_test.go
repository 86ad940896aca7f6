package dosing

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

func postAction(t *testing.T, h *Handler, action, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	h.RegisterActionRoute(e)
	req := httptest.NewRequest(http.MethodPost, "/intake-action/"+action, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestIntakeActionSuccess(t *testing.T) {
	f := newFixture()
	plan := f.seedPlan(t, DosePending)
	tok := f.seedToken(t, plan.ID, time.Now().Add(time.Hour))
	h := NewHandler(f.svc)

	body := `{"actionToken":"` + tok.Token + `","dosePlanId":"` + plan.ID.String() + `"}`
	rec := postAction(t, h, "taken", body)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	out := decodeBody(t, rec)
	if out["success"] != true {
		t.Error("expected success true")
	}
	if out["action"] != "taken" {
		t.Errorf("expected action echoed, got %v", out["action"])
	}
	if out["dosePlanId"] != plan.ID.String() {
		t.Errorf("expected dose plan id echoed, got %v", out["dosePlanId"])
	}
	if out["message"] != "Medication taken recorded successfully" {
		t.Errorf("unexpected message: %v", out["message"])
	}
}

func TestIntakeActionInvalidAction(t *testing.T) {
	f := newFixture()
	plan := f.seedPlan(t, DosePending)
	tok := f.seedToken(t, plan.ID, time.Now().Add(time.Hour))
	h := NewHandler(f.svc)

	body := `{"actionToken":"` + tok.Token + `","dosePlanId":"` + plan.ID.String() + `"}`
	rec := postAction(t, h, "swallow", body)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if out := decodeBody(t, rec); out["error"] != "Invalid action" {
		t.Errorf("unexpected error body: %v", out)
	}
}

func TestIntakeActionUnknownToken(t *testing.T) {
	f := newFixture()
	plan := f.seedPlan(t, DosePending)
	h := NewHandler(f.svc)

	body := `{"actionToken":"nope","dosePlanId":"` + plan.ID.String() + `"}`
	rec := postAction(t, h, "taken", body)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if out := decodeBody(t, rec); out["error"] != "Invalid or expired action token" {
		t.Errorf("unexpected error body: %v", out)
	}
}

func TestIntakeActionExpiredToken(t *testing.T) {
	f := newFixture()
	plan := f.seedPlan(t, DosePending)
	tok := f.seedToken(t, plan.ID, time.Now().Add(-time.Minute))
	h := NewHandler(f.svc)

	body := `{"actionToken":"` + tok.Token + `","dosePlanId":"` + plan.ID.String() + `"}`
	rec := postAction(t, h, "taken", body)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if out := decodeBody(t, rec); out["error"] != "Action token has expired" {
		t.Errorf("unexpected error body: %v", out)
	}
}

func TestIntakeActionMissingPlan(t *testing.T) {
	f := newFixture()
	ghost := f.seedToken(t, uuid.New(), time.Now().Add(time.Hour))
	h := NewHandler(f.svc)

	body := `{"actionToken":"` + ghost.Token + `","dosePlanId":"` + ghost.EntityID.String() + `"}`
	rec := postAction(t, h, "taken", body)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if out := decodeBody(t, rec); out["error"] != "Dose plan not found" {
		t.Errorf("unexpected error body: %v", out)
	}
}

func TestIntakeActionIntakeWriteFailure(t *testing.T) {
	f := newFixture()
	f.intakes.failCreate = true
	plan := f.seedPlan(t, DosePending)
	tok := f.seedToken(t, plan.ID, time.Now().Add(time.Hour))
	h := NewHandler(f.svc)

	body := `{"actionToken":"` + tok.Token + `","dosePlanId":"` + plan.ID.String() + `"}`
	rec := postAction(t, h, "taken", body)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if out := decodeBody(t, rec); out["error"] != "Failed to record intake" {
		t.Errorf("unexpected error body: %v", out)
	}
}

func TestIntakeActionPreflight(t *testing.T) {
	f := newFixture()
	h := NewHandler(f.svc)
	e := echo.New()
	h.RegisterActionRoute(e)

	req := httptest.NewRequest(http.MethodOptions, "/intake-action/taken", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected empty 200 for preflight, got %d", rec.Code)
	}
}
