package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/onurcolak/unified-inbox-service/internal/channel"
	"github.com/onurcolak/unified-inbox-service/internal/domain"
	"github.com/onurcolak/unified-inbox-service/internal/events"
	"github.com/onurcolak/unified-inbox-service/pkg/logger"
)

type inboundContacts interface {
	FindByPhone(ctx context.Context, phone string) (*domain.Contact, error)
	Create(ctx context.Context, c *domain.Contact) error
	AdvanceStatus(ctx context.Context, id string, from, to domain.ContactStatus) (bool, error)
	Touch(ctx context.Context, id string) error
}

type inboundMessages interface {
	Create(ctx context.Context, m *domain.Message) error
	GetByExternalID(ctx context.Context, externalID string) (*domain.Message, error)
	ApplyStatus(ctx context.Context, id string, from, to domain.MessageStatus, errorMessage *string) (bool, error)
}

// InboundOutcome describes what a provider callback changed.
type InboundOutcome struct {
	Contact   *domain.Contact
	Message   *domain.Message
	Duplicate bool
}

// InboundService records provider callbacks: inbound messages and delivery receipts.
type InboundService struct {
	contacts  inboundContacts
	messages  inboundMessages
	publisher events.Publisher
	now       func() time.Time
}

func NewInboundService(contacts inboundContacts, messages inboundMessages, publisher events.Publisher) *InboundService {
	return &InboundService{
		contacts:  contacts,
		messages:  messages,
		publisher: publisher,
		now:       time.Now,
	}
}

// InboundFromForm flattens a Twilio inbound callback. Only MediaUrl0..NumMedia-1 are
// read and empty entries are dropped.
func InboundFromForm(form map[string]string) domain.InboundPayload {
	numMedia, err := strconv.Atoi(strings.TrimSpace(form["NumMedia"]))
	if err != nil || numMedia < 0 {
		numMedia = 0
	}

	var media []string
	for i := 0; i < numMedia; i++ {
		if u := form[fmt.Sprintf("MediaUrl%d", i)]; u != "" {
			media = append(media, u)
		}
	}

	return domain.InboundPayload{
		From:      form["From"],
		To:        form["To"],
		Body:      form["Body"],
		MessageID: form["MessageSid"],
		NumMedia:  numMedia,
		MediaURLs: media,
	}
}

// StatusCallbackFromForm reads a Twilio delivery receipt.
func StatusCallbackFromForm(form map[string]string) domain.StatusCallback {
	status := form["MessageStatus"]
	if status == "" {
		status = form["SmsStatus"]
	}
	return domain.StatusCallback{
		ExternalID:   form["MessageSid"],
		Status:       channel.NormalizeTwilioStatus(status),
		ErrorCode:    form["ErrorCode"],
		ErrorMessage: form["ErrorMessage"],
	}
}

func (s *InboundService) HandleInbound(ctx context.Context, p domain.InboundPayload) (*InboundOutcome, error) {
	ch := domain.ChannelSMS
	if channel.HasWhatsAppPrefix(p.From) || channel.HasWhatsAppPrefix(p.To) {
		ch = domain.ChannelWhatsApp
	}

	phone := channel.StripWhatsAppPrefix(strings.TrimSpace(p.From))
	if phone == "" {
		return nil, fmt.Errorf("inbound message has no sender")
	}

	contact, err := s.findOrCreateContact(ctx, phone)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC().Truncate(time.Millisecond)
	msg := &domain.Message{
		ContactID:   contact.ID,
		Channel:     ch,
		Direction:   domain.DirectionInbound,
		Status:      domain.StatusDelivered,
		Body:        p.Body,
		MediaURLs:   domain.StringList(p.MediaURLs),
		SentAt:      &now,
		DeliveredAt: &now,
		Metadata: domain.JSONMap{
			"from":     p.From,
			"to":       p.To,
			"numMedia": p.NumMedia,
		},
	}
	if p.MessageID != "" {
		sid := p.MessageID
		msg.ExternalID = &sid
	}

	if err := s.messages.Create(ctx, msg); err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			logger.Infof("Ignoring redelivered inbound message %s", p.MessageID)
			// A failed advance on the first delivery is retried here; the update is
			// conditional so repeating it is harmless.
			advanced, err := s.contacts.AdvanceStatus(ctx, contact.ID, domain.ContactLead, domain.ContactContacted)
			if err != nil {
				return nil, err
			}
			if advanced {
				contact.Status = domain.ContactContacted
			}
			return &InboundOutcome{Contact: contact, Duplicate: true}, nil
		}
		return nil, fmt.Errorf("failed to record inbound message: %w", err)
	}

	advanced, err := s.contacts.AdvanceStatus(ctx, contact.ID, domain.ContactLead, domain.ContactContacted)
	if err != nil {
		return nil, err
	}
	if advanced {
		contact.Status = domain.ContactContacted
	} else if err := s.contacts.Touch(ctx, contact.ID); err != nil {
		return nil, err
	}

	events.PublishOrLog(ctx, s.publisher, events.Event{
		Type:      events.MessageInbound,
		ContactID: contact.ID,
		MessageID: msg.ID,
		Channel:   ch,
		Status:    domain.StatusDelivered,
	})

	logger.Infof("Received %s message %s from %s", ch, p.MessageID, phone)

	return &InboundOutcome{Contact: contact, Message: msg}, nil
}

func (s *InboundService) findOrCreateContact(ctx context.Context, phone string) (*domain.Contact, error) {
	contact, err := s.contacts.FindByPhone(ctx, phone)
	if err == nil {
		return contact, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	name := phone
	number := phone
	contact = &domain.Contact{
		Name:   &name,
		Phone:  &number,
		Status: domain.ContactLead,
	}
	if err := s.contacts.Create(ctx, contact); err != nil {
		return nil, err
	}

	logger.Infof("Created contact %s for new sender %s", contact.ID, phone)
	return contact, nil
}

// HandleStatusCallback applies a delivery receipt if it moves the message forward.
// Unknown message ids and stale receipts are ignored.
func (s *InboundService) HandleStatusCallback(ctx context.Context, cb domain.StatusCallback) (bool, error) {
	if cb.ExternalID == "" {
		return false, nil
	}

	msg, err := s.messages.GetByExternalID(ctx, cb.ExternalID)
	if errors.Is(err, domain.ErrNotFound) {
		logger.Debugf("Status callback for unknown message %s", cb.ExternalID)
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if !domain.CanTransition(msg.Direction, msg.Status, cb.Status) {
		logger.Debugf("Ignoring status %s for message %s in %s", cb.Status, msg.ID, msg.Status)
		return false, nil
	}

	var errText *string
	if cb.Status == domain.StatusFailed {
		text := cb.ErrorMessage
		if text == "" && cb.ErrorCode != "" {
			text = "provider error code " + cb.ErrorCode
		}
		if text != "" {
			errText = &text
		}
	}

	applied, err := s.messages.ApplyStatus(ctx, msg.ID, msg.Status, cb.Status, errText)
	if err != nil {
		return false, err
	}

	if applied {
		events.PublishOrLog(ctx, s.publisher, events.Event{
			Type:      events.MessageStatusUpdate,
			ContactID: msg.ContactID,
			MessageID: msg.ID,
			Channel:   msg.Channel,
			Status:    cb.Status,
		})
	}

	return applied, nil
}
