package schedule

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clinicdesk/clinicdesk/internal/platform/auth"
)

func reqCtx() context.Context { return context.Background() }

func newTestServer(t *testing.T) (*echo.Echo, *Service, *mockRuleRepo) {
	t.Helper()
	svc, repo, _, _, _ := newTestService()
	e := echo.New()
	e.Use(auth.DevAuthMiddleware())
	api := e.Group("/api/v1")
	NewHandler(svc).RegisterRoutes(api)
	return e, svc, repo
}

func doJSON(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestHandlerCreateRule(t *testing.T) {
	e, _, repo := newTestServer(t)
	doctor := uuid.New()

	body := `{
		"kind": "weekly_recurring",
		"day_of_week": 1,
		"is_available": true,
		"time_slots": [{"start_time": "09:00", "end_time": "17:00"}],
		"slot_duration": 30,
		"max_appointments": 16
	}`
	rec := doJSON(e, http.MethodPost, "/api/v1/doctors/"+doctor.String()+"/rules", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var created Rule
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if created.DoctorID != doctor {
		t.Errorf("doctor_id from the path must win, got %s", created.DoctorID)
	}
	if _, err := repo.GetByID(reqCtx(), created.ID); err != nil {
		t.Errorf("rule not stored: %v", err)
	}
}

func TestHandlerCreateRule_ValidationError(t *testing.T) {
	e, _, _ := newTestServer(t)
	doctor := uuid.New()

	// Available weekly rule without windows.
	body := `{"kind": "weekly_recurring", "day_of_week": 1, "is_available": true, "slot_duration": 30}`
	rec := doJSON(e, http.MethodPost, "/api/v1/doctors/"+doctor.String()+"/rules", body)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestHandlerCreateRule_BadDoctorID(t *testing.T) {
	e, _, _ := newTestServer(t)
	rec := doJSON(e, http.MethodPost, "/api/v1/doctors/not-a-uuid/rules", `{}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestHandlerGetRule_NotFound(t *testing.T) {
	e, _, _ := newTestServer(t)
	rec := doJSON(e, http.MethodGet, "/api/v1/rules/"+uuid.NewString(), "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestHandlerUpdateAndDeleteRule(t *testing.T) {
	e, svc, _ := newTestServer(t)
	doctor := uuid.New()

	r := validWeekly(doctor, 2)
	if err := svc.CreateRule(reqCtx(), r); err != nil {
		t.Fatalf("CreateRule: %v", err)
	}

	body := `{
		"day_of_week": 2,
		"is_available": true,
		"time_slots": [{"start_time": "08:00", "end_time": "12:00"}],
		"slot_duration": 60,
		"max_appointments": 4
	}`
	rec := doJSON(e, http.MethodPut, "/api/v1/rules/"+r.ID.String(), body)
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d, body = %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(e, http.MethodDelete, "/api/v1/rules/"+r.ID.String(), "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rec.Code)
	}
	rec = doJSON(e, http.MethodDelete, "/api/v1/rules/"+r.ID.String(), "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("second delete status = %d, want 404", rec.Code)
	}
}

func TestHandlerListRules_Paginated(t *testing.T) {
	e, svc, _ := newTestServer(t)
	doctor := uuid.New()
	for day := 1; day <= 3; day++ {
		if err := svc.CreateRule(reqCtx(), validWeekly(doctor, day)); err != nil {
			t.Fatalf("CreateRule: %v", err)
		}
	}

	rec := doJSON(e, http.MethodGet, "/api/v1/doctors/"+doctor.String()+"/rules?limit=2", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp struct {
		Total int `json:"total"`
		Limit int `json:"limit"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Total != 3 || resp.Limit != 2 {
		t.Errorf("total=%d limit=%d", resp.Total, resp.Limit)
	}
}

func TestHandlerListRules_ByDate(t *testing.T) {
	e, svc, _ := newTestServer(t)
	doctor := uuid.New()
	if err := svc.CreateRule(reqCtx(), validWeekly(doctor, 1)); err != nil {
		t.Fatalf("CreateRule: %v", err)
	}
	if err := svc.CreateRule(reqCtx(), validWeekly(doctor, 2)); err != nil {
		t.Fatalf("CreateRule: %v", err)
	}

	// 2026-03-02 is a monday; only the monday rule applies.
	rec := doJSON(e, http.MethodGet, "/api/v1/doctors/"+doctor.String()+"/rules?date=2026-03-02", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp struct {
		Data []Rule `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Data) != 1 {
		t.Fatalf("expected 1 rule for the date, got %d", len(resp.Data))
	}

	rec = doJSON(e, http.MethodGet, "/api/v1/doctors/"+doctor.String()+"/rules?date=nope", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad date status = %d, want 400", rec.Code)
	}
}

func TestHandlerSetWorkingDays(t *testing.T) {
	e, _, repo := newTestServer(t)
	doctor := uuid.New()

	body := `{
		"days": [1, 3, 5],
		"time_slots": [{"start_time": "09:00", "end_time": "13:00"}],
		"slot_duration": 20,
		"buffer_time": 5,
		"max_appointments": 10
	}`
	rec := doJSON(e, http.MethodPost, "/api/v1/doctors/"+doctor.String()+"/working-days", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	rules, _, _ := repo.ListByDoctor(reqCtx(), doctor, 10, 0)
	if len(rules) != 7 {
		t.Fatalf("expected 7 weekly rules, got %d", len(rules))
	}
}

func TestHandlerSetWorkingDays_Invalid(t *testing.T) {
	e, _, _ := newTestServer(t)
	doctor := uuid.New()
	rec := doJSON(e, http.MethodPost, "/api/v1/doctors/"+doctor.String()+"/working-days", `{"days": []}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}
