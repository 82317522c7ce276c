package domain

import "errors"

var (
	ErrInvalidRecipient     = errors.New("invalid recipient")
	ErrMissingRecipientInfo = errors.New("missing recipient info")
	ErrProviderUnavailable  = errors.New("provider unavailable")
	ErrProviderRejected     = errors.New("provider rejected message")
	ErrUnsupportedChannel   = errors.New("unsupported channel")
	ErrUnauthorized         = errors.New("unauthorized")

	ErrNotFound          = errors.New("not found")
	ErrDuplicate         = errors.New("duplicate")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrTickInProgress    = errors.New("dispatch tick already in progress")
	ErrInvalidInput      = errors.New("invalid input")
	ErrScheduleInPast    = errors.New("scheduled time must be in the future")
)
