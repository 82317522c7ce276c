package handlers

import (
	"net/http"
	"testing"

	"github.com/onurcolak/unified-inbox-service/internal/domain"
)

func TestCreateContact(t *testing.T) {
	env := newTestEnv(t)

	rec := env.call(t, env.contactHandler.CreateContact, http.MethodPost, "/api/v1/contacts", map[string]any{
		"name":  "Ada",
		"phone": "+15551230000",
		"tags":  []string{"vip"},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var created struct {
		Data domain.Contact `json:"data"`
	}
	decode(t, rec, &created)
	if created.Data.Status != domain.ContactLead || len(created.Data.Tags) != 1 {
		t.Errorf("unexpected contact %+v", created.Data)
	}

	rec = env.call(t, env.contactHandler.CreateContact, http.MethodPost, "/api/v1/contacts", map[string]any{"name": "Nobody"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 without phone or email, got %d", rec.Code)
	}

	rec = env.call(t, env.contactHandler.CreateContact, http.MethodPost, "/api/v1/contacts", map[string]any{"phone": "555"})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected 422 for a non E.164 phone, got %d", rec.Code)
	}
}

func TestGetContact_DetailAndNotFound(t *testing.T) {
	env := newTestEnv(t)
	contact := env.createContact(t, "+15551230000", "")
	env.postForm(t, env.webhookHandler.TwilioInbound, "/api/webhooks/twilio", inboundForm("hi", "SM-1"))

	rec := env.call(t, env.noteHandler.CreateNote, http.MethodPost, "/api/v1/notes", map[string]any{
		"contactId": contact.ID,
		"content":   "prefers mornings",
		"isPrivate": true,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected note to be created, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = env.call(t, env.contactHandler.GetContact, http.MethodGet, "/api/v1/contacts/"+contact.ID, nil, "id", contact.ID)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var detail struct {
		Data domain.ContactDetail `json:"data"`
	}
	decode(t, rec, &detail)
	if len(detail.Data.Messages) != 1 || detail.Data.Messages[0].Body != "hi" {
		t.Errorf("unexpected messages %+v", detail.Data.Messages)
	}
	if len(detail.Data.Notes) != 1 {
		t.Errorf("expected the author to see the private note, got %d", len(detail.Data.Notes))
	}

	rec = env.call(t, env.contactHandler.GetContact, http.MethodGet, "/api/v1/contacts/missing", nil, "id", "missing")
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", rec.Code)
	}
}

func TestUpdateAndListContacts(t *testing.T) {
	env := newTestEnv(t)
	contact := env.createContact(t, "+15551230000", "")
	env.createContact(t, "+15551230001", "")

	rec := env.call(t, env.contactHandler.UpdateContact, http.MethodPatch, "/api/v1/contacts/"+contact.ID,
		map[string]any{"status": "QUALIFIED"}, "id", contact.ID)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = env.call(t, env.contactHandler.UpdateContact, http.MethodPatch, "/api/v1/contacts/"+contact.ID,
		map[string]any{"status": "MAYBE"}, "id", contact.ID)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected 422 for an unknown status, got %d", rec.Code)
	}

	rec = env.call(t, env.contactHandler.GetContacts, http.MethodGet, "/api/v1/contacts?status=QUALIFIED", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var list struct {
		Data ContactListResponse `json:"data"`
	}
	decode(t, rec, &list)
	if len(list.Data.Contacts) != 1 || list.Data.Contacts[0].ID != contact.ID {
		t.Errorf("expected only the qualified contact, got %+v", list.Data.Contacts)
	}
}

func TestGetNotes_RequiresContact(t *testing.T) {
	env := newTestEnv(t)

	rec := env.call(t, env.noteHandler.GetNotes, http.MethodGet, "/api/v1/notes", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rec.Code)
	}
}
