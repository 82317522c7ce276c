package domain

// Channel is a messaging transport.
type Channel string

const (
	ChannelSMS      Channel = "SMS"
	ChannelWhatsApp Channel = "WHATSAPP"
	ChannelEmail    Channel = "EMAIL"
	ChannelTwitter  Channel = "TWITTER"
	ChannelFacebook Channel = "FACEBOOK"
	ChannelSlack    Channel = "SLACK"
)

func (c Channel) Valid() bool {
	switch c {
	case ChannelSMS, ChannelWhatsApp, ChannelEmail, ChannelTwitter, ChannelFacebook, ChannelSlack:
		return true
	}
	return false
}

// Direction is relative to the operator.
type Direction string

const (
	DirectionInbound  Direction = "INBOUND"
	DirectionOutbound Direction = "OUTBOUND"
)

type MessageStatus string

const (
	StatusPending   MessageStatus = "PENDING"
	StatusSent      MessageStatus = "SENT"
	StatusDelivered MessageStatus = "DELIVERED"
	StatusRead      MessageStatus = "READ"
	StatusFailed    MessageStatus = "FAILED"
	// StatusScheduled is accepted when reading rows written by older deployments.
	// New scheduled sends live in scheduled_messages.
	StatusScheduled MessageStatus = "SCHEDULED"
)

type ContactStatus string

const (
	ContactLead      ContactStatus = "LEAD"
	ContactContacted ContactStatus = "CONTACTED"
	ContactResponded ContactStatus = "RESPONDED"
	ContactQualified ContactStatus = "QUALIFIED"
	ContactClosed    ContactStatus = "CLOSED"
)

func (s ContactStatus) Valid() bool {
	switch s {
	case ContactLead, ContactContacted, ContactResponded, ContactQualified, ContactClosed:
		return true
	}
	return false
}

// ScheduleStatus is the lifecycle of a queued send. SENT and FAILED are terminal.
type ScheduleStatus string

const (
	SchedulePending ScheduleStatus = "PENDING"
	ScheduleSent    ScheduleStatus = "SENT"
	ScheduleFailed  ScheduleStatus = "FAILED"
)

type TriggerType string

const (
	TriggerTimeBased  TriggerType = "TIME_BASED"
	TriggerEventBased TriggerType = "EVENT_BASED"
)
