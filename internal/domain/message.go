package domain

import "time"

type Message struct {
	ID           string        `db:"id" json:"id"`
	ContactID    string        `db:"contact_id" json:"contactId"`
	UserID       *string       `db:"user_id" json:"userId,omitempty"`
	Channel      Channel       `db:"channel" json:"channel"`
	Direction    Direction     `db:"direction" json:"direction"`
	Status       MessageStatus `db:"status" json:"status"`
	Body         string        `db:"body" json:"body"`
	HTMLBody     *string       `db:"html_body" json:"htmlBody,omitempty"`
	MediaURLs    StringList    `db:"media_urls" json:"mediaUrls,omitempty"`
	ExternalID   *string       `db:"external_id" json:"externalId,omitempty"`
	ScheduledFor *time.Time    `db:"scheduled_for" json:"scheduledFor,omitempty"`
	ErrorMessage *string       `db:"error_message" json:"errorMessage,omitempty"`
	Metadata     JSONMap       `db:"metadata" json:"metadata,omitempty"`
	CreatedAt    time.Time     `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time     `db:"updated_at" json:"updatedAt"`
	SentAt       *time.Time    `db:"sent_at" json:"sentAt,omitempty"`
	DeliveredAt  *time.Time    `db:"delivered_at" json:"deliveredAt,omitempty"`
	ReadAt       *time.Time    `db:"read_at" json:"readAt,omitempty"`
}

type MessageFilter struct {
	ContactID string
	Channel   *Channel
	Status    *MessageStatus
	Limit     int
	Offset    int
}

// SentMessageCache is the Valkey entry written for every dispatched scheduled message.
type SentMessageCache struct {
	MessageID  string    `json:"messageId"`
	ExternalID string    `json:"externalId"`
	Channel    Channel   `json:"channel"`
	SentAt     time.Time `json:"sentAt"`
}

// InboundPayload is the provider callback flattened to the fields the inbox needs.
type InboundPayload struct {
	From      string
	To        string
	Body      string
	MessageID string
	NumMedia  int
	MediaURLs []string
}

// StatusCallback is a provider delivery receipt for an outbound message.
type StatusCallback struct {
	ExternalID   string
	Status       MessageStatus
	ErrorCode    string
	ErrorMessage string
}
