package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/onurcolak/unified-inbox-service/internal/channel"
	"github.com/onurcolak/unified-inbox-service/internal/domain"
)

const recentMessagesLimit = 10

type contactRepository interface {
	Create(ctx context.Context, c *domain.Contact) error
	GetByID(ctx context.Context, id string) (*domain.Contact, error)
	List(ctx context.Context, filter domain.ContactFilter) ([]domain.ContactSummary, int64, error)
	Update(ctx context.Context, id string, u domain.ContactUpdate) (*domain.Contact, error)
}

type recentMessages interface {
	ListRecent(ctx context.Context, contactID string, limit int) ([]domain.Message, error)
}

type noteRepository interface {
	Create(ctx context.Context, n *domain.Note) error
	ListByContact(ctx context.Context, contactID, viewerID string) ([]domain.Note, error)
}

type ContactService struct {
	contacts contactRepository
	messages recentMessages
	notes    noteRepository
}

func NewContactService(contacts contactRepository, messages recentMessages, notes noteRepository) *ContactService {
	return &ContactService{contacts: contacts, messages: messages, notes: notes}
}

// Create stores a new LEAD. A phone or an email is required.
func (s *ContactService) Create(ctx context.Context, c *domain.Contact) error {
	if isBlank(c.Phone) && isBlank(c.Email) {
		return fmt.Errorf("phone or email is required: %w", domain.ErrInvalidInput)
	}
	if err := checkAddresses(c.Phone, c.Email); err != nil {
		return err
	}

	c.Status = domain.ContactLead
	return s.contacts.Create(ctx, c)
}

func (s *ContactService) List(ctx context.Context, filter domain.ContactFilter) ([]domain.ContactSummary, int64, error) {
	return s.contacts.List(ctx, filter)
}

// Get returns the profile with its latest messages in conversation order and the
// notes the viewer may see.
func (s *ContactService) Get(ctx context.Context, id, viewerID string) (*domain.ContactDetail, error) {
	contact, err := s.contacts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	recent, err := s.messages.ListRecent(ctx, id, recentMessagesLimit)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(recent)-1; i < j; i, j = i+1, j-1 {
		recent[i], recent[j] = recent[j], recent[i]
	}

	notes, err := s.notes.ListByContact(ctx, id, viewerID)
	if err != nil {
		return nil, err
	}

	return &domain.ContactDetail{Contact: *contact, Messages: recent, Notes: notes}, nil
}

func (s *ContactService) Update(ctx context.Context, id string, u domain.ContactUpdate) (*domain.Contact, error) {
	if u.Status != nil && !u.Status.Valid() {
		return nil, fmt.Errorf("status %q: %w", *u.Status, domain.ErrInvalidInput)
	}
	if err := checkAddresses(u.Phone, u.Email); err != nil {
		return nil, err
	}
	return s.contacts.Update(ctx, id, u)
}

func (s *ContactService) AddNote(ctx context.Context, n *domain.Note) error {
	if strings.TrimSpace(n.Content) == "" {
		return fmt.Errorf("content is required: %w", domain.ErrInvalidInput)
	}
	if _, err := s.contacts.GetByID(ctx, n.ContactID); err != nil {
		return err
	}
	return s.notes.Create(ctx, n)
}

func (s *ContactService) ListNotes(ctx context.Context, contactID, viewerID string) ([]domain.Note, error) {
	return s.notes.ListByContact(ctx, contactID, viewerID)
}

func isBlank(v *string) bool {
	return v == nil || strings.TrimSpace(*v) == ""
}

func checkAddresses(phone, email *string) error {
	if !isBlank(phone) && !channel.IsE164(*phone) {
		return fmt.Errorf("phone %q is not E.164: %w", *phone, domain.ErrInvalidInput)
	}
	if !isBlank(email) && !channel.IsEmail(*email) {
		return fmt.Errorf("email %q is malformed: %w", *email, domain.ErrInvalidInput)
	}
	return nil
}
