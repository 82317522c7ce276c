package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/onurcolak/unified-inbox-service/internal/domain"
	"github.com/onurcolak/unified-inbox-service/internal/middlewares"
	"github.com/onurcolak/unified-inbox-service/internal/service"
	"github.com/onurcolak/unified-inbox-service/pkg/response"
	"github.com/onurcolak/unified-inbox-service/pkg/validator"
)

type MessageHandler struct {
	service *service.MessageService
}

func NewMessageHandler(service *service.MessageService) *MessageHandler {
	return &MessageHandler{service: service}
}

type SendMessageRequest struct {
	ContactID    string     `json:"contactId" validate:"required"`
	Channel      string     `json:"channel" validate:"required,channel"`
	Body         string     `json:"body" validate:"required,max=4096"`
	HTMLBody     *string    `json:"htmlBody,omitempty"`
	Subject      *string    `json:"subject,omitempty" validate:"omitempty,max=255"`
	MediaURLs    []string   `json:"mediaUrls,omitempty" validate:"omitempty,max=10,dive,url"`
	ScheduledFor *time.Time `json:"scheduledFor,omitempty"`
}

type MarkReadRequest struct {
	ContactID string `json:"contactId" validate:"required"`
}

type MessageListResponse struct {
	Messages   []domain.Message    `json:"messages"`
	Pagination response.Pagination `json:"pagination"`
}

// SendMessage godoc
// @Summary Send a message
// @Description Sends a message to a contact now, or queues it when scheduledFor is set
// @Tags messages
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer operator token"
// @Param message body SendMessageRequest true "Message to send"
// @Success 201 {object} response.SuccessResponse
// @Failure 400 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Failure 422 {object} validator.ValidationErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /api/v1/messages [post]
func (h *MessageHandler) SendMessage(c echo.Context) error {
	var req SendMessageRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, err)
	}

	if err := c.Validate(&req); err != nil {
		return validator.HandleValidationError(c, err)
	}

	outcome, err := h.service.Send(c.Request().Context(), service.SendInput{
		ContactID:    req.ContactID,
		UserID:       middlewares.UserID(c),
		Channel:      domain.Channel(req.Channel),
		Body:         req.Body,
		HTMLBody:     req.HTMLBody,
		Subject:      req.Subject,
		MediaURLs:    req.MediaURLs,
		ScheduledFor: req.ScheduledFor,
	})

	// The provider refused the send after the failed row was recorded.
	if err != nil && outcome != nil && outcome.Message != nil {
		if errors.Is(err, domain.ErrInvalidRecipient) {
			return response.BadRequestWithData(c, err, outcome.Message)
		}
		return response.InternalServerErrorWithData(c, fmt.Errorf("failed to send message: %w", err), outcome.Message)
	}
	if err != nil {
		return writeError(c, err)
	}

	if outcome.Scheduled != nil {
		return response.Created(c, "Message scheduled successfully", map[string]any{
			"scheduledMessage": outcome.Scheduled,
		})
	}

	return response.Created(c, "Message sent successfully", outcome.Message)
}

// GetMessages godoc
// @Summary List messages
// @Description Lists a contact's conversation, oldest first
// @Tags messages
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer operator token"
// @Param contactId query string false "Contact id"
// @Param channel query string false "Channel filter"
// @Param status query string false "Status filter"
// @Param limit query int false "Page size (default: 50, max: 200)"
// @Param offset query int false "Offset"
// @Success 200 {object} response.SuccessResponse{data=MessageListResponse}
// @Failure 400 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /api/v1/messages [get]
func (h *MessageHandler) GetMessages(c echo.Context) error {
	limit, offset, err := parseLimitOffset(c, 50, 200)
	if err != nil {
		return response.BadRequest(c, err)
	}

	filter := domain.MessageFilter{
		ContactID: c.QueryParam("contactId"),
		Limit:     limit,
		Offset:    offset,
	}
	if v := c.QueryParam("channel"); v != "" {
		ch := domain.Channel(v)
		if !ch.Valid() {
			return response.BadRequest(c, fmt.Errorf("unknown channel %q", v))
		}
		filter.Channel = &ch
	}
	if v := c.QueryParam("status"); v != "" {
		status := domain.MessageStatus(v)
		filter.Status = &status
	}

	messages, total, err := h.service.List(c.Request().Context(), filter)
	if err != nil {
		return response.InternalServerError(c, err)
	}
	if messages == nil {
		messages = []domain.Message{}
	}

	return response.Ok(c, MessageListResponse{
		Messages:   messages,
		Pagination: response.NewPagination(total, limit, offset),
	})
}

// MarkRead godoc
// @Summary Mark a conversation as read
// @Description Marks every unread inbound message of the contact as READ
// @Tags messages
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer operator token"
// @Param request body MarkReadRequest true "Contact"
// @Success 200 {object} map[string]any
// @Failure 422 {object} validator.ValidationErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /api/v1/messages/mark-read [patch]
func (h *MessageHandler) MarkRead(c echo.Context) error {
	var req MarkReadRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, err)
	}

	if err := c.Validate(&req); err != nil {
		return validator.HandleValidationError(c, err)
	}

	updated, err := h.service.MarkRead(c.Request().Context(), req.ContactID)
	if err != nil {
		return response.InternalServerError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"success":      true,
		"updatedCount": updated,
	})
}
