package handlers

import (
	"github.com/labstack/echo/v4"

	"github.com/onurcolak/unified-inbox-service/internal/domain"
	"github.com/onurcolak/unified-inbox-service/internal/service"
	"github.com/onurcolak/unified-inbox-service/pkg/response"
	"github.com/onurcolak/unified-inbox-service/pkg/validator"
)

type TemplateHandler struct {
	service *service.ScheduleService
}

func NewTemplateHandler(service *service.ScheduleService) *TemplateHandler {
	return &TemplateHandler{service: service}
}

type CreateTemplateRequest struct {
	Name        string  `json:"name" validate:"required,max=255"`
	Body        string  `json:"body" validate:"required,max=4096"`
	HTMLBody    *string `json:"htmlBody,omitempty"`
	Channel     string  `json:"channel" validate:"required,oneof=SMS EMAIL WHATSAPP"`
	TriggerType string  `json:"triggerType" validate:"omitempty,oneof=TIME_BASED EVENT_BASED"`
	DelayDays   *int    `json:"delayDays,omitempty" validate:"omitempty,min=1,max=365"`
}

type UpdateTemplateRequest struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,max=255"`
	Body        *string `json:"body,omitempty" validate:"omitempty,max=4096"`
	HTMLBody    *string `json:"htmlBody,omitempty"`
	Channel     *string `json:"channel,omitempty" validate:"omitempty,oneof=SMS EMAIL WHATSAPP"`
	TriggerType *string `json:"triggerType,omitempty" validate:"omitempty,oneof=TIME_BASED EVENT_BASED"`
	DelayDays   *int    `json:"delayDays,omitempty" validate:"omitempty,min=1,max=365"`
}

// GetTemplates godoc
// @Summary List active templates
// @Tags templates
// @Produce json
// @Param Authorization header string true "Bearer operator token"
// @Success 200 {object} response.SuccessResponse{data=[]domain.MessageTemplate}
// @Router /api/v1/templates [get]
func (h *TemplateHandler) GetTemplates(c echo.Context) error {
	templates, err := h.service.ListTemplates(c.Request().Context())
	if err != nil {
		return response.InternalServerError(c, err)
	}
	return response.Ok(c, templates)
}

// CreateTemplate godoc
// @Summary Create a template
// @Tags templates
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer operator token"
// @Param template body CreateTemplateRequest true "Template"
// @Success 201 {object} response.SuccessResponse{data=domain.MessageTemplate}
// @Failure 422 {object} validator.ValidationErrorResponse
// @Router /api/v1/templates [post]
func (h *TemplateHandler) CreateTemplate(c echo.Context) error {
	var req CreateTemplateRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, err)
	}

	if err := c.Validate(&req); err != nil {
		return validator.HandleValidationError(c, err)
	}

	tpl := &domain.MessageTemplate{
		Name:        req.Name,
		Body:        req.Body,
		HTMLBody:    req.HTMLBody,
		Channel:     domain.Channel(req.Channel),
		TriggerType: domain.TriggerType(req.TriggerType),
		DelayDays:   req.DelayDays,
	}
	if err := h.service.CreateTemplate(c.Request().Context(), tpl); err != nil {
		return writeError(c, err)
	}

	return response.Created(c, "Template created successfully", tpl)
}

// UpdateTemplate godoc
// @Summary Update a template
// @Tags templates
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer operator token"
// @Param id path string true "Template id"
// @Param template body UpdateTemplateRequest true "Fields to change"
// @Success 200 {object} response.SuccessResponse{data=domain.MessageTemplate}
// @Failure 404 {object} response.ErrorResponse
// @Router /api/v1/templates/{id} [put]
func (h *TemplateHandler) UpdateTemplate(c echo.Context) error {
	var req UpdateTemplateRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, err)
	}

	if err := c.Validate(&req); err != nil {
		return validator.HandleValidationError(c, err)
	}

	update := domain.TemplateUpdate{
		Name:      req.Name,
		Body:      req.Body,
		HTMLBody:  req.HTMLBody,
		DelayDays: req.DelayDays,
	}
	if req.Channel != nil {
		ch := domain.Channel(*req.Channel)
		update.Channel = &ch
	}
	if req.TriggerType != nil {
		trigger := domain.TriggerType(*req.TriggerType)
		update.TriggerType = &trigger
	}

	tpl, err := h.service.UpdateTemplate(c.Request().Context(), c.Param("id"), update)
	if err != nil {
		return writeError(c, err)
	}

	return response.OkWithMessage(c, "Template updated successfully", tpl)
}

// DeleteTemplate godoc
// @Summary Deactivate a template
// @Tags templates
// @Produce json
// @Param Authorization header string true "Bearer operator token"
// @Param id path string true "Template id"
// @Success 200 {object} response.SuccessResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /api/v1/templates/{id} [delete]
func (h *TemplateHandler) DeleteTemplate(c echo.Context) error {
	if err := h.service.DeleteTemplate(c.Request().Context(), c.Param("id")); err != nil {
		return writeError(c, err)
	}
	return response.OkWithMessage(c, "Template deleted successfully", nil)
}
