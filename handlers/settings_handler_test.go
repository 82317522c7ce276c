package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/onurcolak/unified-inbox-service/environments"
	"github.com/onurcolak/unified-inbox-service/internal/channel"
	"github.com/onurcolak/unified-inbox-service/internal/domain"
)

func TestSettings_WhatsAppSandbox(t *testing.T) {
	cfg := &environments.Config{
		Twilio: environments.TwilioConfig{
			AccountSID:     "AC123",
			AuthToken:      "secret",
			PhoneNumber:    "+15005550006",
			WhatsAppNumber: "whatsapp:+14155238886",
		},
	}
	h := NewSettingsHandler(cfg, channel.NewRegistry(&stubSender{ch: domain.ChannelSMS}, &stubSender{ch: domain.ChannelWhatsApp}))

	e := echo.New()
	rec := httptest.NewRecorder()
	if err := h.GetWhatsAppStatus(e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}

	var status struct {
		Data WhatsAppStatusResponse `json:"data"`
	}
	decode(t, rec, &status)
	if !status.Data.Configured || !status.Data.IsSandbox || status.Data.Number != "+14155238886" {
		t.Errorf("unexpected status %+v", status.Data)
	}

	rec = httptest.NewRecorder()
	if err := h.GetSettings(e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}

	var settings struct {
		Data SettingsResponse `json:"data"`
	}
	decode(t, rec, &settings)
	if !settings.Data.TwilioConfigured || settings.Data.ResendConfigured {
		t.Errorf("unexpected provider flags %+v", settings.Data)
	}
	if len(settings.Data.Channels) != 2 || settings.Data.Channels[0] != domain.ChannelSMS {
		t.Errorf("expected sorted wired channels, got %v", settings.Data.Channels)
	}
}
