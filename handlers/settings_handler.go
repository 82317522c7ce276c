package handlers

import (
	"github.com/labstack/echo/v4"

	"github.com/onurcolak/unified-inbox-service/environments"
	"github.com/onurcolak/unified-inbox-service/internal/channel"
	"github.com/onurcolak/unified-inbox-service/internal/domain"
	"github.com/onurcolak/unified-inbox-service/pkg/response"
)

const twilioSandboxNumber = "+14155238886"

type channelLister interface {
	Channels() []domain.Channel
}

type SettingsHandler struct {
	twilio   environments.TwilioConfig
	resend   environments.ResendConfig
	channels channelLister
}

func NewSettingsHandler(cfg *environments.Config, channels channelLister) *SettingsHandler {
	return &SettingsHandler{
		twilio:   cfg.Twilio,
		resend:   cfg.Resend,
		channels: channels,
	}
}

type SettingsResponse struct {
	TwilioPhoneNumber    string           `json:"twilioPhoneNumber"`
	TwilioWhatsAppNumber string           `json:"twilioWhatsAppNumber"`
	TwilioConfigured     bool             `json:"twilioConfigured"`
	ResendConfigured     bool             `json:"resendConfigured"`
	Channels             []domain.Channel `json:"channels"`
}

type WhatsAppStatusResponse struct {
	Configured bool   `json:"configured"`
	Number     string `json:"number"`
	IsSandbox  bool   `json:"isSandbox"`
	Message    string `json:"message"`
}

// GetSettings godoc
// @Summary Provider settings
// @Description Returns which providers are configured. Secrets are never returned.
// @Tags settings
// @Produce json
// @Param Authorization header string true "Bearer operator token"
// @Success 200 {object} response.SuccessResponse{data=SettingsResponse}
// @Router /api/v1/settings [get]
func (h *SettingsHandler) GetSettings(c echo.Context) error {
	return response.Ok(c, SettingsResponse{
		TwilioPhoneNumber:    h.twilio.PhoneNumber,
		TwilioWhatsAppNumber: h.twilio.WhatsAppNumber,
		TwilioConfigured:     h.twilio.Configured(),
		ResendConfigured:     h.resend.APIKey != "",
		Channels:             h.channels.Channels(),
	})
}

// GetWhatsAppStatus godoc
// @Summary WhatsApp sender status
// @Tags settings
// @Produce json
// @Param Authorization header string true "Bearer operator token"
// @Success 200 {object} response.SuccessResponse{data=WhatsAppStatusResponse}
// @Router /api/v1/settings/whatsapp-status [get]
func (h *SettingsHandler) GetWhatsAppStatus(c echo.Context) error {
	number := channel.StripWhatsAppPrefix(h.twilio.WhatsAppNumber)
	configured := h.twilio.Configured() && number != ""
	sandbox := number == twilioSandboxNumber

	status := WhatsAppStatusResponse{
		Configured: configured,
		Number:     number,
		IsSandbox:  sandbox,
	}
	switch {
	case !configured:
		status.Message = "Set TWILIO_ACCOUNT_SID, TWILIO_AUTH_TOKEN and TWILIO_WHATSAPP_NUMBER to enable WhatsApp."
	case sandbox:
		status.Message = "Using the Twilio sandbox. Recipients must join the sandbox before they can receive messages."
	default:
		status.Message = "WhatsApp sender is configured."
	}

	return response.Ok(c, status)
}
