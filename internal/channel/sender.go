// Package channel sends outbound messages through the provider wired to each channel.
package channel

import (
	"context"
	"fmt"
	"sort"

	"github.com/onurcolak/unified-inbox-service/internal/domain"
)

// Payload is the provider-independent outbound message.
type Payload struct {
	To        string
	Body      string
	HTMLBody  string
	Subject   string
	MediaURLs []string
	Metadata  map[string]any
}

// Result is the provider acknowledgement normalized to the inbox status enum.
type Result struct {
	ID     string
	Status domain.MessageStatus
}

// Sender validates recipients and delivers payloads for one channel.
// Send never retries and never persists anything.
type Sender interface {
	Channel() domain.Channel
	Validate(p Payload) bool
	Send(ctx context.Context, p Payload) (*Result, error)
}

// Registry selects the sender for a channel.
type Registry struct {
	senders map[domain.Channel]Sender
}

func NewRegistry(senders ...Sender) *Registry {
	r := &Registry{senders: make(map[domain.Channel]Sender, len(senders))}
	for _, s := range senders {
		r.senders[s.Channel()] = s
	}
	return r
}

func (r *Registry) For(ch domain.Channel) (Sender, error) {
	s, ok := r.senders[ch]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedChannel, ch)
	}
	return s, nil
}

// Channels lists the wired channels in a stable order.
func (r *Registry) Channels() []domain.Channel {
	out := make([]domain.Channel, 0, len(r.senders))
	for ch := range r.senders {
		out = append(out, ch)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// RecipientFor picks the contact address a channel delivers to.
func RecipientFor(contact domain.Contact, ch domain.Channel) (string, error) {
	var addr *string

	switch ch {
	case domain.ChannelSMS, domain.ChannelWhatsApp:
		addr = contact.Phone
	case domain.ChannelEmail:
		addr = contact.Email
	default:
		return "", fmt.Errorf("%w: %s", domain.ErrUnsupportedChannel, ch)
	}

	if addr == nil || *addr == "" {
		return "", fmt.Errorf("%w: contact %s has no address for %s", domain.ErrMissingRecipientInfo, contact.ID, ch)
	}
	return *addr, nil
}
