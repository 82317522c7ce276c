package webhook

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/onurcolak/unified-inbox-service/pkg/logger"
)

// Alert is the JSON document posted to the operator alert webhook.
type Alert struct {
	Alert               string    `json:"alert"`
	RunNumber           int64     `json:"runNumber"`
	ConsecutiveFailures int       `json:"consecutiveFailures"`
	MessagesInBatch     int       `json:"messagesInBatch"`
	Timestamp           time.Time `json:"timestamp"`
	Message             string    `json:"message"`
}

// Client posts alerts to a single webhook URL.
type Client struct {
	httpClient *resty.Client
	webhookURL string
}

func NewWebhookClient(url string, timeout time.Duration) *Client {
	client := resty.New().
		SetTimeout(timeout).
		SetRetryCount(3).
		SetRetryWaitTime(500*time.Millisecond).
		SetRetryMaxWaitTime(2*time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &Client{
		httpClient: client,
		webhookURL: url,
	}
}

func (c *Client) SendAlert(ctx context.Context, alert Alert) error {
	startTime := time.Now()

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(alert).
		Post(c.webhookURL)

	duration := time.Since(startTime)

	if err != nil {
		return fmt.Errorf("failed to send alert: %w", err)
	}

	logger.Infof("Alert webhook %s completed in %v (status: %d)", c.webhookURL, duration, resp.StatusCode())

	if resp.StatusCode() != http.StatusOK && resp.StatusCode() != http.StatusNoContent {
		return fmt.Errorf("unexpected alert webhook status: %d, body: %s", resp.StatusCode(), resp.String())
	}

	return nil
}

func (c *Client) GetURL() string {
	return c.webhookURL
}
