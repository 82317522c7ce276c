package service

import (
	"context"
	"errors"
	"testing"

	"github.com/onurcolak/unified-inbox-service/internal/domain"
)

func TestContactService_Create(t *testing.T) {
	contacts := newFakeContacts()
	svc := NewContactService(contacts, newFakeMessages(), &fakeNotes{})
	ctx := context.Background()

	c := &domain.Contact{Name: strPtr("Ada"), Phone: strPtr("+15551230000"), Status: domain.ContactClosed}
	if err := svc.Create(ctx, c); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if c.Status != domain.ContactLead {
		t.Errorf("new contacts start as LEAD, got %s", c.Status)
	}

	invalid := []*domain.Contact{
		{Name: strPtr("nobody")},
		{Phone: strPtr("555-1234")},
		{Email: strPtr("not-an-email")},
	}
	for _, c := range invalid {
		if err := svc.Create(ctx, c); !errors.Is(err, domain.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput for %+v, got %v", c, err)
		}
	}
	if len(contacts.byID) != 1 {
		t.Errorf("expected only the valid contact to be stored, got %d", len(contacts.byID))
	}
}

func TestContactService_Get_ChronologicalHistory(t *testing.T) {
	messages := newFakeMessages()
	// ListRecent returns newest first.
	messages.recent = []domain.Message{{ID: "m3"}, {ID: "m2"}, {ID: "m1"}}
	notes := &fakeNotes{notes: []domain.Note{{ID: "n1", Content: "called"}}}
	svc := NewContactService(newFakeContacts(&domain.Contact{ID: "c1"}), messages, notes)

	detail, err := svc.Get(context.Background(), "c1", "u1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}

	got := []string{detail.Messages[0].ID, detail.Messages[1].ID, detail.Messages[2].ID}
	if got[0] != "m1" || got[1] != "m2" || got[2] != "m3" {
		t.Errorf("expected oldest first, got %v", got)
	}
	if len(detail.Notes) != 1 {
		t.Errorf("expected one note, got %d", len(detail.Notes))
	}

	if _, err := svc.Get(context.Background(), "missing", "u1"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestContactService_Update(t *testing.T) {
	contacts := newFakeContacts(&domain.Contact{ID: "c1", Status: domain.ContactLead})
	svc := NewContactService(contacts, newFakeMessages(), &fakeNotes{})
	ctx := context.Background()

	bogus := domain.ContactStatus("MAYBE")
	if _, err := svc.Update(ctx, "c1", domain.ContactUpdate{Status: &bogus}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}

	qualified := domain.ContactQualified
	if _, err := svc.Update(ctx, "c1", domain.ContactUpdate{Status: &qualified}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if len(contacts.updates) != 1 {
		t.Errorf("expected one update to reach the store, got %d", len(contacts.updates))
	}
}

func TestContactService_AddNote(t *testing.T) {
	notes := &fakeNotes{}
	svc := NewContactService(newFakeContacts(&domain.Contact{ID: "c1"}), newFakeMessages(), notes)
	ctx := context.Background()

	if err := svc.AddNote(ctx, &domain.Note{ContactID: "c1", UserID: "u1", Content: "  "}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for blank content, got %v", err)
	}
	if err := svc.AddNote(ctx, &domain.Note{ContactID: "c9", UserID: "u1", Content: "hi"}); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := svc.AddNote(ctx, &domain.Note{ContactID: "c1", UserID: "u1", Content: "hi", IsPrivate: true}); err != nil {
		t.Fatalf("AddNote: %v", err)
	}
	if len(notes.notes) != 1 {
		t.Errorf("expected one note, got %d", len(notes.notes))
	}
}
