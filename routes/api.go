package routes

import (
	"github.com/labstack/echo/v4"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/onurcolak/unified-inbox-service/environments"
	"github.com/onurcolak/unified-inbox-service/handlers"
	"github.com/onurcolak/unified-inbox-service/internal/middlewares"
)

type Handlers struct {
	Health    *handlers.HealthHandler
	Contact   *handlers.ContactHandler
	Note      *handlers.NoteHandler
	Message   *handlers.MessageHandler
	Template  *handlers.TemplateHandler
	Scheduled *handlers.ScheduledHandler
	Scheduler *handlers.SchedulerHandler
	Settings  *handlers.SettingsHandler
	Webhook   *handlers.WebhookHandler
}

// RegisterRoutes registers all API routes with middleware
func RegisterRoutes(e *echo.Echo, h Handlers, cfg *environments.Config) {
	e.GET("/health", h.Health.Health)
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// Provider webhooks authenticate with the Twilio signature when enabled
	webhooks := e.Group("/api/webhooks/twilio")
	if cfg.Twilio.ValidateWebhooks {
		webhooks.Use(middlewares.TwilioSignature(cfg.Twilio.AuthToken, cfg.Twilio.WebhookBaseURL))
	}
	webhooks.POST("", h.Webhook.TwilioInbound)
	webhooks.POST("/status", h.Webhook.TwilioStatus)

	// External cron trigger
	cron := e.Group("/api/scheduled-messages", middlewares.BearerSecret(cfg.Auth.CronSecret))
	cron.POST("/process", h.Scheduled.Process)
	cron.GET("/process", h.Scheduled.Process)

	v1 := e.Group("/api/v1")

	// Scheduler routes with their own API key
	schedulerGroup := v1.Group("/scheduler", middlewares.APIKeyAuth(cfg.Auth.SchedulerAPIKey))

	schedulerGroup.POST("/start", h.Scheduler.StartScheduler)
	schedulerGroup.POST("/stop", h.Scheduler.StopScheduler)
	schedulerGroup.GET("/status", h.Scheduler.GetSchedulerStatus)

	// Operator routes
	operatorAuth := middlewares.JWTAuth(cfg.Auth.JWTSecret)

	contacts := v1.Group("/contacts", operatorAuth)
	contacts.GET("", h.Contact.GetContacts)
	contacts.POST("", h.Contact.CreateContact)
	contacts.GET("/:id", h.Contact.GetContact)
	contacts.PATCH("/:id", h.Contact.UpdateContact)

	notes := v1.Group("/notes", operatorAuth)
	notes.GET("", h.Note.GetNotes)
	notes.POST("", h.Note.CreateNote)

	messages := v1.Group("/messages", operatorAuth)
	messages.GET("", h.Message.GetMessages)
	messages.POST("", h.Message.SendMessage)
	messages.PATCH("/mark-read", h.Message.MarkRead)

	templates := v1.Group("/templates", operatorAuth)
	templates.GET("", h.Template.GetTemplates)
	templates.POST("", h.Template.CreateTemplate)
	templates.PUT("/:id", h.Template.UpdateTemplate)
	templates.DELETE("/:id", h.Template.DeleteTemplate)

	scheduled := v1.Group("/scheduled-messages", operatorAuth)
	scheduled.GET("", h.Scheduled.GetScheduled)
	scheduled.POST("", h.Scheduled.CreateScheduled)
	scheduled.GET("/stats", h.Scheduled.GetStats)
	scheduled.POST("/replay", h.Scheduled.ReplayFailed)
	scheduled.POST("/:id/reschedule", h.Scheduled.Reschedule)
	scheduled.GET("/:id/cache", h.Scheduled.GetCached)

	settings := v1.Group("/settings", operatorAuth)
	settings.GET("", h.Settings.GetSettings)
	settings.GET("/whatsapp-status", h.Settings.GetWhatsAppStatus)
}
