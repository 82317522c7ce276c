package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/onurcolak/unified-inbox-service/internal/domain"
	"github.com/onurcolak/unified-inbox-service/internal/middlewares"
	"github.com/onurcolak/unified-inbox-service/internal/service"
	"github.com/onurcolak/unified-inbox-service/pkg/logger"
	"github.com/onurcolak/unified-inbox-service/pkg/response"
	"github.com/onurcolak/unified-inbox-service/pkg/validator"
)

type sentCacheReader interface {
	GetCachedMessage(ctx context.Context, scheduledID string) (*domain.SentMessageCache, error)
}

type ScheduledHandler struct {
	service    *service.ScheduleService
	dispatcher *service.Dispatcher
	cache      sentCacheReader
}

// NewScheduledHandler wires the queue endpoints. cache may be nil when Valkey is
// not configured.
func NewScheduledHandler(
	service *service.ScheduleService,
	dispatcher *service.Dispatcher,
	cache sentCacheReader,
) *ScheduledHandler {
	return &ScheduledHandler{service: service, dispatcher: dispatcher, cache: cache}
}

type CreateScheduledRequest struct {
	ContactID    string     `json:"contactId" validate:"required"`
	TemplateID   *string    `json:"templateId,omitempty"`
	Channel      string     `json:"channel" validate:"omitempty,channel"`
	Body         string     `json:"body" validate:"max=4096"`
	HTMLBody     *string    `json:"htmlBody,omitempty"`
	Subject      *string    `json:"subject,omitempty" validate:"omitempty,max=255"`
	ScheduledFor *time.Time `json:"scheduledFor,omitempty"`
}

type RescheduleRequest struct {
	ScheduledFor *time.Time `json:"scheduledFor,omitempty"`
}

// ProcessResponse is the cron trigger result. Processed counts every item handled in
// the tick, Sent only the successful ones.
type ProcessResponse struct {
	Processed int                     `json:"processed"`
	Sent      int                     `json:"sent"`
	Failed    int                     `json:"failed"`
	Total     int                     `json:"total"`
	Skipped   bool                    `json:"skipped"`
	Results   []domain.DispatchResult `json:"results"`
	Timestamp time.Time               `json:"timestamp"`
}

// CreateScheduled godoc
// @Summary Schedule a message
// @Description Body, channel and time fall back to the template when omitted
// @Tags scheduled-messages
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer operator token"
// @Param request body CreateScheduledRequest true "Scheduled message"
// @Success 201 {object} response.SuccessResponse{data=domain.ScheduledMessage}
// @Failure 400 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Failure 422 {object} validator.ValidationErrorResponse
// @Router /api/v1/scheduled-messages [post]
func (h *ScheduledHandler) CreateScheduled(c echo.Context) error {
	var req CreateScheduledRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, err)
	}

	if err := c.Validate(&req); err != nil {
		return validator.HandleValidationError(c, err)
	}

	msg, err := h.service.Schedule(c.Request().Context(), service.ScheduleInput{
		ContactID:    req.ContactID,
		UserID:       middlewares.UserID(c),
		TemplateID:   req.TemplateID,
		Channel:      domain.Channel(req.Channel),
		Body:         req.Body,
		HTMLBody:     req.HTMLBody,
		Subject:      req.Subject,
		ScheduledFor: req.ScheduledFor,
	})
	if err != nil {
		return writeError(c, err)
	}

	return response.Created(c, "Message scheduled successfully", msg)
}

// GetScheduled godoc
// @Summary List scheduled messages
// @Tags scheduled-messages
// @Produce json
// @Param Authorization header string true "Bearer operator token"
// @Param status query string false "PENDING, SENT or FAILED"
// @Param page query int false "Page number (default: 1)"
// @Param pageSize query int false "Page size (default: 20, max: 100)"
// @Success 200 {object} response.PaginatedResponse
// @Failure 400 {object} response.ErrorResponse
// @Router /api/v1/scheduled-messages [get]
func (h *ScheduledHandler) GetScheduled(c echo.Context) error {
	page, pageSize, err := parsePaginationParams(c)
	if err != nil {
		return response.BadRequest(c, err)
	}

	var status *domain.ScheduleStatus
	if v := c.QueryParam("status"); v != "" {
		parsed := domain.ScheduleStatus(v)
		status = &parsed
	}

	items, total, err := h.service.List(c.Request().Context(), status, page, pageSize)
	if err != nil {
		return response.InternalServerError(c, err)
	}

	return response.Paginated(c, items, page, pageSize, total)
}

// GetStats godoc
// @Summary Scheduled message statistics
// @Tags scheduled-messages
// @Produce json
// @Param Authorization header string true "Bearer operator token"
// @Success 200 {object} response.SuccessResponse
// @Router /api/v1/scheduled-messages/stats [get]
func (h *ScheduledHandler) GetStats(c echo.Context) error {
	stats, err := h.service.Stats(c.Request().Context())
	if err != nil {
		return response.InternalServerError(c, err)
	}

	return response.Ok(c, map[string]any{
		"pending": stats.Pending,
		"sent":    stats.Sent,
		"failed":  stats.Failed,
		"total":   stats.Pending + stats.Sent + stats.Failed,
	})
}

// GetCached godoc
// @Summary Cached dispatch result
// @Description Returns the Valkey entry written when the scheduled message was sent
// @Tags scheduled-messages
// @Produce json
// @Param Authorization header string true "Bearer operator token"
// @Param id path string true "Scheduled message id"
// @Success 200 {object} response.SuccessResponse{data=domain.SentMessageCache}
// @Failure 404 {object} response.ErrorResponse
// @Router /api/v1/scheduled-messages/{id}/cache [get]
func (h *ScheduledHandler) GetCached(c echo.Context) error {
	if h.cache == nil {
		return response.NotFound(c, "cache is not configured")
	}

	entry, err := h.cache.GetCachedMessage(c.Request().Context(), c.Param("id"))
	if err != nil {
		return response.InternalServerError(c, err)
	}
	if entry == nil {
		return response.NotFound(c, "no cached dispatch for this message")
	}

	return response.Ok(c, entry)
}

// Reschedule godoc
// @Summary Retry a failed scheduled message
// @Description Queues a new PENDING copy of a FAILED item. The failed row is kept.
// @Tags scheduled-messages
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer operator token"
// @Param id path string true "Failed scheduled message id"
// @Param request body RescheduleRequest false "New time, defaults to now"
// @Success 201 {object} response.SuccessResponse{data=domain.ScheduledMessage}
// @Failure 404 {object} response.ErrorResponse
// @Failure 409 {object} response.ErrorResponse
// @Router /api/v1/scheduled-messages/{id}/reschedule [post]
func (h *ScheduledHandler) Reschedule(c echo.Context) error {
	var req RescheduleRequest
	if c.Request().ContentLength > 0 {
		if err := c.Bind(&req); err != nil {
			return response.BadRequest(c, err)
		}
	}

	retry, err := h.service.Reschedule(c.Request().Context(), c.Param("id"), req.ScheduledFor)
	if err != nil {
		return writeError(c, err)
	}

	return response.Created(c, "Message rescheduled successfully", retry)
}

// ReplayFailed godoc
// @Summary Retry every failed scheduled message
// @Tags scheduled-messages
// @Produce json
// @Param Authorization header string true "Bearer operator token"
// @Success 200 {object} response.SuccessResponse
// @Router /api/v1/scheduled-messages/replay [post]
func (h *ScheduledHandler) ReplayFailed(c echo.Context) error {
	count, err := h.service.ReplayFailed(c.Request().Context())
	if err != nil {
		return response.InternalServerError(c, err)
	}

	return response.OkWithMessage(c, "Failed messages queued for retry", map[string]any{
		"replayedCount": count,
	})
}

// Process godoc
// @Summary Run one dispatch tick
// @Description Cron trigger. Sends every due scheduled message once.
// @Tags scheduled-messages
// @Produce json
// @Param Authorization header string true "Bearer cron secret"
// @Success 200 {object} ProcessResponse
// @Failure 401 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /api/scheduled-messages/process [post]
func (h *ScheduledHandler) Process(c echo.Context) error {
	report, err := h.dispatcher.RunOnce(c.Request().Context())
	if errors.Is(err, domain.ErrTickInProgress) {
		return c.JSON(http.StatusOK, ProcessResponse{
			Skipped:   true,
			Results:   []domain.DispatchResult{},
			Timestamp: time.Now().UTC(),
		})
	}
	if err != nil {
		logger.Errorf("Cron dispatch failed: %v", err)
		return response.InternalServerError(c, err)
	}

	return c.JSON(http.StatusOK, ProcessResponse{
		Processed: len(report.Results),
		Sent:      report.Processed,
		Failed:    report.Failed,
		Total:     report.Total,
		Skipped:   report.Skipped,
		Results:   report.Results,
		Timestamp: report.Timestamp,
	})
}
