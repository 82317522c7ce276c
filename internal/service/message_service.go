package service

import (
	"context"
	"fmt"
	"time"

	"github.com/onurcolak/unified-inbox-service/internal/channel"
	"github.com/onurcolak/unified-inbox-service/internal/domain"
	"github.com/onurcolak/unified-inbox-service/internal/events"
	"github.com/onurcolak/unified-inbox-service/pkg/logger"
)

type outboundMessages interface {
	Create(ctx context.Context, m *domain.Message) error
	List(ctx context.Context, filter domain.MessageFilter) ([]domain.Message, int64, error)
	MarkInboundRead(ctx context.Context, contactID string) (int64, error)
}

type messageScheduler interface {
	Schedule(ctx context.Context, in ScheduleInput) (*domain.ScheduledMessage, error)
}

// SendInput is an operator request to message a contact now or later.
type SendInput struct {
	ContactID    string
	UserID       string
	Channel      domain.Channel
	Body         string
	HTMLBody     *string
	Subject      *string
	MediaURLs    []string
	ScheduledFor *time.Time
}

// SendOutcome carries the row written for a send. Message is set for immediate sends,
// including failed ones; Scheduled is set when the send was queued.
type SendOutcome struct {
	Message   *domain.Message
	Scheduled *domain.ScheduledMessage
}

type MessageService struct {
	contacts  contactReader
	messages  outboundMessages
	scheduler messageScheduler
	senders   senderLookup
	publisher events.Publisher
	now       func() time.Time
}

func NewMessageService(
	contacts contactReader,
	messages outboundMessages,
	scheduler messageScheduler,
	senders senderLookup,
	publisher events.Publisher,
) *MessageService {
	return &MessageService{
		contacts:  contacts,
		messages:  messages,
		scheduler: scheduler,
		senders:   senders,
		publisher: publisher,
		now:       time.Now,
	}
}

// Send delivers a message immediately, or queues it when ScheduledFor is set.
// A provider failure is recorded as a FAILED message which is returned along with
// the error.
func (s *MessageService) Send(ctx context.Context, in SendInput) (*SendOutcome, error) {
	contact, err := s.contacts.GetByID(ctx, in.ContactID)
	if err != nil {
		return nil, err
	}

	to, err := channel.RecipientFor(*contact, in.Channel)
	if err != nil {
		return nil, err
	}

	sender, err := s.senders.For(in.Channel)
	if err != nil {
		return nil, err
	}

	if in.ScheduledFor != nil {
		scheduled, err := s.scheduler.Schedule(ctx, ScheduleInput{
			ContactID:    in.ContactID,
			UserID:       in.UserID,
			Channel:      in.Channel,
			Body:         in.Body,
			HTMLBody:     in.HTMLBody,
			Subject:      in.Subject,
			ScheduledFor: in.ScheduledFor,
		})
		if err != nil {
			return nil, err
		}
		return &SendOutcome{Scheduled: scheduled}, nil
	}

	payload := channel.Payload{To: to, Body: in.Body, MediaURLs: in.MediaURLs}
	if in.HTMLBody != nil {
		payload.HTMLBody = *in.HTMLBody
	}
	if in.Subject != nil {
		payload.Subject = *in.Subject
	}

	userID := in.UserID
	msg := &domain.Message{
		ContactID: in.ContactID,
		UserID:    &userID,
		Channel:   in.Channel,
		Direction: domain.DirectionOutbound,
		Body:      in.Body,
		HTMLBody:  in.HTMLBody,
		MediaURLs: domain.StringList(in.MediaURLs),
		Metadata:  domain.JSONMap{"to": to},
	}
	if in.Subject != nil {
		msg.Metadata["subject"] = *in.Subject
	}

	result, sendErr := sender.Send(ctx, payload)
	if sendErr != nil {
		errText := sendErr.Error()
		msg.Status = domain.StatusFailed
		msg.ErrorMessage = &errText

		if err := s.messages.Create(ctx, msg); err != nil {
			logger.Errorf("Failed to record failed send to contact %s: %v", in.ContactID, err)
			return nil, fmt.Errorf("%w (recording failed: %v)", sendErr, err)
		}

		events.PublishOrLog(ctx, s.publisher, events.Event{
			Type:      events.MessageFailed,
			ContactID: in.ContactID,
			MessageID: msg.ID,
			Channel:   in.Channel,
			Status:    domain.StatusFailed,
			Error:     errText,
		})

		return &SendOutcome{Message: msg}, sendErr
	}

	sentAt := s.now().UTC().Truncate(time.Millisecond)
	msg.Status = result.Status
	msg.SentAt = &sentAt
	if result.ID != "" {
		externalID := result.ID
		msg.ExternalID = &externalID
	}

	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("message sent as %s but not recorded: %w", result.ID, err)
	}

	events.PublishOrLog(ctx, s.publisher, events.Event{
		Type:      events.MessageSent,
		ContactID: in.ContactID,
		MessageID: msg.ID,
		Channel:   in.Channel,
		Status:    msg.Status,
	})

	logger.Infof("Sent %s message %s to contact %s (externalId: %s)", in.Channel, msg.ID, in.ContactID, result.ID)

	return &SendOutcome{Message: msg}, nil
}

func (s *MessageService) List(ctx context.Context, filter domain.MessageFilter) ([]domain.Message, int64, error) {
	return s.messages.List(ctx, filter)
}

// MarkRead marks every unread inbound message of the contact as READ.
func (s *MessageService) MarkRead(ctx context.Context, contactID string) (int64, error) {
	return s.messages.MarkInboundRead(ctx, contactID)
}
