package channel

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/onurcolak/unified-inbox-service/environments"
	"github.com/onurcolak/unified-inbox-service/internal/domain"
	"github.com/onurcolak/unified-inbox-service/pkg/logger"
)

type twilioMessage struct {
	SID          string  `json:"sid"`
	Status       string  `json:"status"`
	ErrorCode    *int    `json:"error_code"`
	ErrorMessage *string `json:"error_message"`
}

type twilioError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
}

// TwilioClient calls the Programmable Messaging API.
type TwilioClient struct {
	httpClient *resty.Client
	accountSID string
}

func NewTwilioClient(cfg environments.TwilioConfig, timeout time.Duration) *TwilioClient {
	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(timeout).
		SetRetryCount(0).
		SetBasicAuth(cfg.AccountSID, cfg.AuthToken).
		SetHeader("Accept", "application/json")

	return &TwilioClient{
		httpClient: client,
		accountSID: cfg.AccountSID,
	}
}

func (c *TwilioClient) createMessage(ctx context.Context, from, to, body string, mediaURLs []string) (*Result, error) {
	form := url.Values{}
	form.Set("To", to)
	form.Set("From", from)
	form.Set("Body", body)
	for _, media := range mediaURLs {
		form.Add("MediaUrl", media)
	}

	var msg twilioMessage
	var apiErr twilioError

	startTime := time.Now()

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetFormDataFromValues(form).
		SetResult(&msg).
		SetError(&apiErr).
		Post(fmt.Sprintf("/2010-04-01/Accounts/%s/Messages.json", c.accountSID))

	if err != nil {
		return nil, fmt.Errorf("%w: twilio request failed: %v", domain.ErrProviderUnavailable, err)
	}

	logger.Debugf("Twilio request completed in %v (status: %d)", time.Since(startTime), resp.StatusCode())

	if resp.IsError() {
		return nil, providerStatusError("twilio", resp.StatusCode(), apiErr.Message)
	}

	status := NormalizeTwilioStatus(msg.Status)
	if status == domain.StatusFailed {
		detail := "message failed"
		if msg.ErrorMessage != nil {
			detail = *msg.ErrorMessage
		}
		return nil, fmt.Errorf("%w: twilio: %s", domain.ErrProviderRejected, detail)
	}

	return &Result{ID: msg.SID, Status: status}, nil
}

// providerStatusError maps an HTTP failure to the provider error taxonomy.
func providerStatusError(provider string, code int, detail string) error {
	if detail == "" {
		detail = http.StatusText(code)
	}
	if code >= http.StatusInternalServerError || code == http.StatusTooManyRequests {
		return fmt.Errorf("%w: %s returned %d: %s", domain.ErrProviderUnavailable, provider, code, detail)
	}
	return fmt.Errorf("%w: %s returned %d: %s", domain.ErrProviderRejected, provider, code, detail)
}

// NormalizeTwilioStatus maps a Twilio message status onto the inbox enum.
func NormalizeTwilioStatus(status string) domain.MessageStatus {
	switch strings.ToLower(status) {
	case "queued", "sending", "accepted", "scheduled":
		return domain.StatusPending
	case "sent":
		return domain.StatusSent
	case "delivered":
		return domain.StatusDelivered
	case "read":
		return domain.StatusRead
	case "failed", "undelivered":
		return domain.StatusFailed
	default:
		return domain.StatusSent
	}
}

type SMSSender struct {
	client *TwilioClient
	from   string
}

func NewSMSSender(client *TwilioClient, from string) *SMSSender {
	return &SMSSender{client: client, from: from}
}

func (s *SMSSender) Channel() domain.Channel { return domain.ChannelSMS }

func (s *SMSSender) Validate(p Payload) bool {
	return IsE164(p.To)
}

func (s *SMSSender) Send(ctx context.Context, p Payload) (*Result, error) {
	if !s.Validate(p) {
		return nil, fmt.Errorf("%w: %q is not an E.164 phone number", domain.ErrInvalidRecipient, p.To)
	}
	return s.client.createMessage(ctx, s.from, p.To, p.Body, p.MediaURLs)
}

type WhatsAppSender struct {
	client *TwilioClient
	from   string
}

func NewWhatsAppSender(client *TwilioClient, from string) *WhatsAppSender {
	return &WhatsAppSender{client: client, from: withWhatsAppPrefix(from)}
}

func (s *WhatsAppSender) Channel() domain.Channel { return domain.ChannelWhatsApp }

func (s *WhatsAppSender) Validate(p Payload) bool {
	return IsWhatsAppAddress(p.To)
}

func (s *WhatsAppSender) Send(ctx context.Context, p Payload) (*Result, error) {
	if !s.Validate(p) {
		return nil, fmt.Errorf("%w: %q is not a WhatsApp address", domain.ErrInvalidRecipient, p.To)
	}
	return s.client.createMessage(ctx, s.from, withWhatsAppPrefix(p.To), p.Body, p.MediaURLs)
}
