package handlers

import (
	"net/http"
	"testing"

	"github.com/onurcolak/unified-inbox-service/internal/domain"
)

func TestTemplateLifecycle(t *testing.T) {
	env := newTestEnv(t)

	rec := env.call(t, env.templateHandler.CreateTemplate, http.MethodPost, "/api/v1/templates", map[string]any{
		"name":    "Welcome",
		"body":    "Hi there",
		"channel": "SLACK",
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected 422 for an unsupported template channel, got %d", rec.Code)
	}

	rec = env.call(t, env.templateHandler.CreateTemplate, http.MethodPost, "/api/v1/templates", map[string]any{
		"name":    "Welcome",
		"body":    "Hi there",
		"channel": "WHATSAPP",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var created struct {
		Data domain.MessageTemplate `json:"data"`
	}
	decode(t, rec, &created)
	id := created.Data.ID

	rec = env.call(t, env.templateHandler.UpdateTemplate, http.MethodPut, "/api/v1/templates/"+id,
		map[string]any{"body": "Hello there"}, "id", id)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = env.call(t, env.templateHandler.DeleteTemplate, http.MethodDelete, "/api/v1/templates/"+id, nil, "id", id)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	rec = env.call(t, env.templateHandler.GetTemplates, http.MethodGet, "/api/v1/templates", nil)
	var list struct {
		Data []domain.MessageTemplate `json:"data"`
	}
	decode(t, rec, &list)
	if len(list.Data) != 0 {
		t.Errorf("expected deleted template to be hidden, got %d", len(list.Data))
	}

	rec = env.call(t, env.templateHandler.DeleteTemplate, http.MethodDelete, "/api/v1/templates/missing", nil, "id", "missing")
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", rec.Code)
	}
}
