package channel

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/onurcolak/unified-inbox-service/environments"
	"github.com/onurcolak/unified-inbox-service/internal/domain"
	"github.com/onurcolak/unified-inbox-service/pkg/logger"
)

const defaultEmailSubject = "Message"

type resendEmail struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

type resendResponse struct {
	ID string `json:"id"`
}

type resendError struct {
	StatusCode int    `json:"statusCode"`
	Name       string `json:"name"`
	Message    string `json:"message"`
}

// EmailSender delivers through the Resend API.
type EmailSender struct {
	httpClient *resty.Client
	from       string
}

func NewEmailSender(cfg environments.ResendConfig, timeout time.Duration) *EmailSender {
	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(timeout).
		SetRetryCount(0).
		SetAuthToken(cfg.APIKey).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &EmailSender{httpClient: client, from: cfg.FromAddress}
}

func (s *EmailSender) Channel() domain.Channel { return domain.ChannelEmail }

func (s *EmailSender) Validate(p Payload) bool {
	return IsEmail(p.To)
}

func (s *EmailSender) Send(ctx context.Context, p Payload) (*Result, error) {
	if !s.Validate(p) {
		return nil, fmt.Errorf("%w: %q is not an email address", domain.ErrInvalidRecipient, p.To)
	}

	body := resendEmail{
		From:    s.from,
		To:      []string{p.To},
		Subject: emailSubject(p),
		HTML:    p.HTMLBody,
	}
	if body.HTML == "" {
		body.HTML = p.Body
	}

	var out resendResponse
	var apiErr resendError

	startTime := time.Now()

	resp, err := s.httpClient.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&out).
		SetError(&apiErr).
		Post("/emails")

	if err != nil {
		return nil, fmt.Errorf("%w: resend request failed: %v", domain.ErrProviderUnavailable, err)
	}

	logger.Debugf("Resend request completed in %v (status: %d)", time.Since(startTime), resp.StatusCode())

	if resp.IsError() {
		return nil, providerStatusError("resend", resp.StatusCode(), apiErr.Message)
	}

	return &Result{ID: out.ID, Status: domain.StatusSent}, nil
}

func emailSubject(p Payload) string {
	if p.Subject != "" {
		return p.Subject
	}
	if subject, ok := p.Metadata["subject"].(string); ok && subject != "" {
		return subject
	}
	return defaultEmailSubject
}
