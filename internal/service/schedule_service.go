package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/onurcolak/unified-inbox-service/internal/domain"
	"github.com/onurcolak/unified-inbox-service/pkg/logger"
)

type templateRepository interface {
	Create(ctx context.Context, t *domain.MessageTemplate) error
	GetByID(ctx context.Context, id string) (*domain.MessageTemplate, error)
	ListActive(ctx context.Context) ([]domain.MessageTemplate, error)
	Update(ctx context.Context, id string, u domain.TemplateUpdate) (*domain.MessageTemplate, error)
	Deactivate(ctx context.Context, id string) error
}

type scheduledRepository interface {
	Create(ctx context.Context, s *domain.ScheduledMessage) error
	GetByID(ctx context.Context, id string) (*domain.ScheduledMessage, error)
	List(ctx context.Context, status *domain.ScheduleStatus, page, pageSize int) ([]domain.ScheduledMessage, int64, error)
	Stats(ctx context.Context) (*domain.ScheduleStats, error)
	ListRetryable(ctx context.Context) ([]domain.ScheduledMessage, error)
	CreateRetry(ctx context.Context, failedID string, scheduledFor time.Time) (*domain.ScheduledMessage, error)
}

type contactReader interface {
	GetByID(ctx context.Context, id string) (*domain.Contact, error)
}

// ScheduleInput is a request to queue a message. Empty fields fall back to the template.
type ScheduleInput struct {
	ContactID    string
	UserID       string
	TemplateID   *string
	Channel      domain.Channel
	Body         string
	HTMLBody     *string
	Subject      *string
	ScheduledFor *time.Time
}

// ScheduleService owns templates and the scheduled-message queue.
type ScheduleService struct {
	templates templateRepository
	scheduled scheduledRepository
	contacts  contactReader
	now       func() time.Time
}

func NewScheduleService(templates templateRepository, scheduled scheduledRepository, contacts contactReader) *ScheduleService {
	return &ScheduleService{
		templates: templates,
		scheduled: scheduled,
		contacts:  contacts,
		now:       time.Now,
	}
}

func (s *ScheduleService) Schedule(ctx context.Context, in ScheduleInput) (*domain.ScheduledMessage, error) {
	if _, err := s.contacts.GetByID(ctx, in.ContactID); err != nil {
		return nil, err
	}

	now := s.now()
	msg := &domain.ScheduledMessage{
		ContactID:  in.ContactID,
		UserID:     in.UserID,
		TemplateID: in.TemplateID,
		Channel:    in.Channel,
		Body:       in.Body,
		HTMLBody:   in.HTMLBody,
		Subject:    in.Subject,
	}

	var delayDays *int
	if in.TemplateID != nil && *in.TemplateID != "" {
		tpl, err := s.templates.GetByID(ctx, *in.TemplateID)
		if err != nil {
			return nil, err
		}
		if !tpl.IsActive {
			return nil, fmt.Errorf("template %s: %w", tpl.ID, domain.ErrNotFound)
		}
		if strings.TrimSpace(msg.Body) == "" {
			msg.Body = tpl.Body
		}
		if msg.HTMLBody == nil {
			msg.HTMLBody = tpl.HTMLBody
		}
		if msg.Channel == "" {
			msg.Channel = tpl.Channel
		}
		delayDays = tpl.DelayDays
	}

	switch {
	case in.ScheduledFor != nil:
		msg.ScheduledFor = *in.ScheduledFor
	case delayDays != nil:
		msg.ScheduledFor = now.AddDate(0, 0, *delayDays)
	default:
		return nil, fmt.Errorf("scheduledFor or a template delay is required: %w", domain.ErrInvalidInput)
	}

	if !msg.Channel.Valid() {
		return nil, fmt.Errorf("channel %q: %w", msg.Channel, domain.ErrInvalidInput)
	}
	if strings.TrimSpace(msg.Body) == "" {
		return nil, fmt.Errorf("body is required: %w", domain.ErrInvalidInput)
	}
	if !msg.ScheduledFor.After(now) {
		return nil, domain.ErrScheduleInPast
	}

	if err := s.scheduled.Create(ctx, msg); err != nil {
		return nil, err
	}

	logger.Infof("Scheduled %s message %s for %s", msg.Channel, msg.ID, msg.ScheduledFor.Format(time.RFC3339))
	return msg, nil
}

func (s *ScheduleService) List(
	ctx context.Context,
	status *domain.ScheduleStatus,
	page, pageSize int,
) ([]domain.ScheduledMessage, int64, error) {
	return s.scheduled.List(ctx, status, page, pageSize)
}

func (s *ScheduleService) Stats(ctx context.Context) (*domain.ScheduleStats, error) {
	return s.scheduled.Stats(ctx)
}

// Reschedule queues a fresh copy of a FAILED item. Without a time the copy is due
// immediately.
func (s *ScheduleService) Reschedule(ctx context.Context, id string, at *time.Time) (*domain.ScheduledMessage, error) {
	when := s.now()
	if at != nil {
		if !at.After(when) {
			return nil, domain.ErrScheduleInPast
		}
		when = *at
	}

	retry, err := s.scheduled.CreateRetry(ctx, id, when)
	if err != nil {
		return nil, err
	}

	logger.Infof("Rescheduled failed message %s as %s", id, retry.ID)
	return retry, nil
}

// ReplayFailed queues a copy of every FAILED item that was not retried yet.
func (s *ScheduleService) ReplayFailed(ctx context.Context) (int64, error) {
	failed, err := s.scheduled.ListRetryable(ctx)
	if err != nil {
		return 0, err
	}

	var count int64
	now := s.now()
	for _, f := range failed {
		if _, err := s.scheduled.CreateRetry(ctx, f.ID, now); err != nil {
			if errors.Is(err, domain.ErrDuplicate) || errors.Is(err, domain.ErrInvalidTransition) {
				continue
			}
			return count, err
		}
		count++
	}

	logger.Infof("Replayed %d failed scheduled messages", count)
	return count, nil
}

func (s *ScheduleService) ListTemplates(ctx context.Context) ([]domain.MessageTemplate, error) {
	return s.templates.ListActive(ctx)
}

func (s *ScheduleService) CreateTemplate(ctx context.Context, t *domain.MessageTemplate) error {
	if err := validateTemplate(t.Channel, t.TriggerType, t.DelayDays); err != nil {
		return err
	}
	return s.templates.Create(ctx, t)
}

func (s *ScheduleService) UpdateTemplate(ctx context.Context, id string, u domain.TemplateUpdate) (*domain.MessageTemplate, error) {
	var ch domain.Channel
	if u.Channel != nil {
		ch = *u.Channel
	}
	var trigger domain.TriggerType
	if u.TriggerType != nil {
		trigger = *u.TriggerType
	}
	if err := validateTemplate(ch, trigger, u.DelayDays); err != nil {
		return nil, err
	}
	return s.templates.Update(ctx, id, u)
}

func (s *ScheduleService) DeleteTemplate(ctx context.Context, id string) error {
	return s.templates.Deactivate(ctx, id)
}

// validateTemplate checks the fields that are set; zero values are skipped.
func validateTemplate(ch domain.Channel, trigger domain.TriggerType, delayDays *int) error {
	switch ch {
	case "", domain.ChannelSMS, domain.ChannelEmail, domain.ChannelWhatsApp:
	default:
		return fmt.Errorf("templates support SMS, EMAIL and WHATSAPP, got %q: %w", ch, domain.ErrInvalidInput)
	}
	switch trigger {
	case "", domain.TriggerTimeBased, domain.TriggerEventBased:
	default:
		return fmt.Errorf("unknown trigger type %q: %w", trigger, domain.ErrInvalidInput)
	}
	if delayDays != nil && (*delayDays < 1 || *delayDays > 365) {
		return fmt.Errorf("delayDays must be between 1 and 365: %w", domain.ErrInvalidInput)
	}
	return nil
}
