package domain

import "time"

type ScheduledMessage struct {
	ID           string         `db:"id" json:"id"`
	ContactID    string         `db:"contact_id" json:"contactId"`
	UserID       string         `db:"user_id" json:"userId"`
	TemplateID   *string        `db:"template_id" json:"templateId,omitempty"`
	Channel      Channel        `db:"channel" json:"channel"`
	Body         string         `db:"body" json:"body"`
	HTMLBody     *string        `db:"html_body" json:"htmlBody,omitempty"`
	Subject      *string        `db:"subject" json:"subject,omitempty"`
	ScheduledFor time.Time      `db:"scheduled_for" json:"scheduledFor"`
	Status       ScheduleStatus `db:"status" json:"status"`
	SentAt       *time.Time     `db:"sent_at" json:"sentAt,omitempty"`
	ErrorMessage *string        `db:"error_message" json:"errorMessage,omitempty"`
	MessageID    *string        `db:"message_id" json:"messageId,omitempty"`
	// RetryOf points at the FAILED row this one was created to retry.
	RetryOf   *string   `db:"retry_of" json:"retryOf,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// DueMessage is a scheduled message joined with the recipient fields of its contact.
type DueMessage struct {
	ScheduledMessage
	ContactPhone *string `db:"contact_phone" json:"-"`
	ContactEmail *string `db:"contact_email" json:"-"`
}

// Recipient returns the contact projection used for address resolution.
func (d DueMessage) Recipient() Contact {
	return Contact{ID: d.ContactID, Phone: d.ContactPhone, Email: d.ContactEmail}
}

type ScheduleStats struct {
	Pending int64 `db:"pending" json:"pending"`
	Sent    int64 `db:"sent" json:"sent"`
	Failed  int64 `db:"failed" json:"failed"`
}

// DispatchResult is the outcome of one scheduled item within a tick.
type DispatchResult struct {
	ID         string         `json:"id"`
	Status     ScheduleStatus `json:"status"`
	MessageID  string         `json:"messageId,omitempty"`
	ExternalID string         `json:"externalId,omitempty"`
	Error      string         `json:"error,omitempty"`
	Success    bool           `json:"-"`
}

// DispatchReport aggregates one tick.
type DispatchReport struct {
	Total     int              `json:"total"`
	Processed int              `json:"processed"`
	Failed    int              `json:"failed"`
	Skipped   bool             `json:"skipped,omitempty"`
	Results   []DispatchResult `json:"results"`
	Timestamp time.Time        `json:"timestamp"`
}

type MessageTemplate struct {
	ID          string      `db:"id" json:"id"`
	Name        string      `db:"name" json:"name"`
	Body        string      `db:"body" json:"body"`
	HTMLBody    *string     `db:"html_body" json:"htmlBody,omitempty"`
	Channel     Channel     `db:"channel" json:"channel"`
	TriggerType TriggerType `db:"trigger_type" json:"triggerType"`
	DelayDays   *int        `db:"delay_days" json:"delayDays,omitempty"`
	IsActive    bool        `db:"is_active" json:"isActive"`
	CreatedAt   time.Time   `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time   `db:"updated_at" json:"updatedAt"`
}

type TemplateUpdate struct {
	Name        *string
	Body        *string
	HTMLBody    *string
	Channel     *Channel
	TriggerType *TriggerType
	DelayDays   *int
}
