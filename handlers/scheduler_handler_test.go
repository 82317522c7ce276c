package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/onurcolak/unified-inbox-service/internal/scheduler"
	validatorpkg "github.com/onurcolak/unified-inbox-service/pkg/validator"
)

func serveScheduler(t *testing.T, h echo.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()

	e := echo.New()
	e.Validator = validatorpkg.New()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/scheduler", strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	if err := h(e.NewContext(req, rec)); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	return rec
}

func TestSchedulerHandler_StartStop(t *testing.T) {
	env := newTestEnv(t)
	sched := scheduler.NewScheduler(env.dispatcher, nil, 0, 3)
	h := NewSchedulerHandler(sched, context.Background())

	rec := serveScheduler(t, h.StartScheduler, `{"interval":0}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected 422 for a zero interval, got %d", rec.Code)
	}

	rec = serveScheduler(t, h.StartScheduler, `{"interval":3600}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !sched.IsRunning() {
		t.Fatal("expected the scheduler to run")
	}

	var status struct {
		Data scheduler.SchedulerStatus `json:"data"`
	}
	rec = serveScheduler(t, h.GetSchedulerStatus, "")
	decode(t, rec, &status)
	if !status.Data.Running || status.Data.Interval != "1h0m0s" {
		t.Errorf("unexpected status %+v", status.Data)
	}

	rec = serveScheduler(t, h.StopScheduler, "")
	if rec.Code != http.StatusOK || sched.IsRunning() {
		t.Errorf("expected the scheduler to stop, got %d", rec.Code)
	}
}

func TestHealth_ReportsComponents(t *testing.T) {
	env := newTestEnv(t)
	h := NewHealthHandler(env.db, env.cache, env.dispatcher)

	e := echo.New()
	rec := httptest.NewRecorder()
	if err := h.Health(e.NewContext(httptest.NewRequest(http.MethodGet, "/health", nil), rec)); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}

	var body struct {
		Status     string `json:"status"`
		Components map[string]struct {
			Status string `json:"status"`
		} `json:"components"`
	}
	decode(t, rec, &body)
	if body.Status != "ok" {
		t.Errorf("expected ok, got %q", body.Status)
	}
	if body.Components["redis"].Status != "up" || body.Components["dispatcher"].Status != "idle" {
		t.Errorf("unexpected components %+v", body.Components)
	}
}
