package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/onurcolak/unified-inbox-service/internal/service"
	"github.com/onurcolak/unified-inbox-service/pkg/logger"
)

// TwiMLAck is the empty TwiML document that acknowledges a Twilio callback.
const TwiMLAck = `<?xml version="1.0" encoding="UTF-8"?><Response></Response>`

type WebhookHandler struct {
	service *service.InboundService
}

func NewWebhookHandler(service *service.InboundService) *WebhookHandler {
	return &WebhookHandler{service: service}
}

// TwilioInbound godoc
// @Summary Twilio inbound message webhook
// @Description Records an inbound SMS or WhatsApp message and acknowledges with empty TwiML
// @Tags webhooks
// @Accept x-www-form-urlencoded
// @Produce xml
// @Success 200 {string} string "TwiML acknowledgement"
// @Failure 500 {object} map[string]string
// @Router /api/webhooks/twilio [post]
func (h *WebhookHandler) TwilioInbound(c echo.Context) error {
	form, err := formMap(c)
	if err != nil {
		logger.Errorf("Failed to parse Twilio webhook: %v", err)
		return webhookFailed(c)
	}

	if _, err := h.service.HandleInbound(c.Request().Context(), service.InboundFromForm(form)); err != nil {
		logger.Errorf("Failed to process Twilio webhook %s: %v", form["MessageSid"], err)
		return webhookFailed(c)
	}

	return twimlAck(c)
}

// TwilioStatus godoc
// @Summary Twilio delivery status webhook
// @Description Applies a delivery receipt to the matching outbound message
// @Tags webhooks
// @Accept x-www-form-urlencoded
// @Produce xml
// @Success 200 {string} string "TwiML acknowledgement"
// @Failure 500 {object} map[string]string
// @Router /api/webhooks/twilio/status [post]
func (h *WebhookHandler) TwilioStatus(c echo.Context) error {
	form, err := formMap(c)
	if err != nil {
		logger.Errorf("Failed to parse Twilio status callback: %v", err)
		return webhookFailed(c)
	}

	if _, err := h.service.HandleStatusCallback(c.Request().Context(), service.StatusCallbackFromForm(form)); err != nil {
		logger.Errorf("Failed to apply Twilio status for %s: %v", form["MessageSid"], err)
		return webhookFailed(c)
	}

	return twimlAck(c)
}

func formMap(c echo.Context) (map[string]string, error) {
	values, err := c.FormParams()
	if err != nil {
		return nil, err
	}

	form := make(map[string]string, len(values))
	for k, v := range values {
		if len(v) > 0 {
			form[k] = v[0]
		}
	}
	return form, nil
}

func twimlAck(c echo.Context) error {
	return c.Blob(http.StatusOK, "text/xml", []byte(TwiMLAck))
}

func webhookFailed(c echo.Context) error {
	return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Webhook processing failed"})
}
