package handlers

import (
	"github.com/labstack/echo/v4"

	"github.com/onurcolak/unified-inbox-service/internal/domain"
	"github.com/onurcolak/unified-inbox-service/internal/middlewares"
	"github.com/onurcolak/unified-inbox-service/internal/service"
	"github.com/onurcolak/unified-inbox-service/pkg/response"
	"github.com/onurcolak/unified-inbox-service/pkg/validator"
)

type ContactHandler struct {
	service *service.ContactService
}

func NewContactHandler(service *service.ContactService) *ContactHandler {
	return &ContactHandler{service: service}
}

type CreateContactRequest struct {
	Name       *string  `json:"name,omitempty" validate:"omitempty,max=255"`
	Phone      *string  `json:"phone,omitempty" validate:"omitempty,e164"`
	Email      *string  `json:"email,omitempty" validate:"omitempty,email"`
	Tags       []string `json:"tags,omitempty" validate:"omitempty,max=50,dive,max=64"`
	QuickNotes *string  `json:"quickNotes,omitempty"`
}

type UpdateContactRequest struct {
	Name       *string   `json:"name,omitempty" validate:"omitempty,max=255"`
	Phone      *string   `json:"phone,omitempty" validate:"omitempty,e164"`
	Email      *string   `json:"email,omitempty" validate:"omitempty,email"`
	Status     *string   `json:"status,omitempty" validate:"omitempty,contact_status"`
	QuickNotes *string   `json:"quickNotes,omitempty"`
	Tags       *[]string `json:"tags,omitempty"`
}

type ContactListResponse struct {
	Contacts   []domain.ContactSummary `json:"contacts"`
	Pagination response.Pagination     `json:"pagination"`
}

// CreateContact godoc
// @Summary Create a contact
// @Description Creates a LEAD contact. A phone or an email is required.
// @Tags contacts
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer operator token"
// @Param contact body CreateContactRequest true "Contact"
// @Success 201 {object} response.SuccessResponse{data=domain.Contact}
// @Failure 400 {object} response.ErrorResponse
// @Failure 422 {object} validator.ValidationErrorResponse
// @Router /api/v1/contacts [post]
func (h *ContactHandler) CreateContact(c echo.Context) error {
	var req CreateContactRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, err)
	}

	if err := c.Validate(&req); err != nil {
		return validator.HandleValidationError(c, err)
	}

	contact := &domain.Contact{
		Name:       req.Name,
		Phone:      req.Phone,
		Email:      req.Email,
		Tags:       domain.StringList(req.Tags),
		QuickNotes: req.QuickNotes,
	}
	if err := h.service.Create(c.Request().Context(), contact); err != nil {
		return writeError(c, err)
	}

	return response.Created(c, "Contact created successfully", contact)
}

// GetContacts godoc
// @Summary List contacts
// @Description Lists contacts by most recent activity with their unread counts
// @Tags contacts
// @Produce json
// @Param Authorization header string true "Bearer operator token"
// @Param search query string false "Matches name, phone or email"
// @Param status query string false "Contact status"
// @Param limit query int false "Page size (default: 50, max: 200)"
// @Param offset query int false "Offset"
// @Success 200 {object} response.SuccessResponse{data=ContactListResponse}
// @Failure 400 {object} response.ErrorResponse
// @Router /api/v1/contacts [get]
func (h *ContactHandler) GetContacts(c echo.Context) error {
	limit, offset, err := parseLimitOffset(c, 50, 200)
	if err != nil {
		return response.BadRequest(c, err)
	}

	filter := domain.ContactFilter{
		Search: c.QueryParam("search"),
		Limit:  limit,
		Offset: offset,
	}
	if v := c.QueryParam("status"); v != "" {
		status := domain.ContactStatus(v)
		filter.Status = &status
	}

	contacts, total, err := h.service.List(c.Request().Context(), filter)
	if err != nil {
		return response.InternalServerError(c, err)
	}
	if contacts == nil {
		contacts = []domain.ContactSummary{}
	}

	return response.Ok(c, ContactListResponse{
		Contacts:   contacts,
		Pagination: response.NewPagination(total, limit, offset),
	})
}

// GetContact godoc
// @Summary Get a contact
// @Description Returns the contact with its 10 latest messages and visible notes
// @Tags contacts
// @Produce json
// @Param Authorization header string true "Bearer operator token"
// @Param id path string true "Contact id"
// @Success 200 {object} response.SuccessResponse{data=domain.ContactDetail}
// @Failure 404 {object} response.ErrorResponse
// @Router /api/v1/contacts/{id} [get]
func (h *ContactHandler) GetContact(c echo.Context) error {
	detail, err := h.service.Get(c.Request().Context(), c.Param("id"), middlewares.UserID(c))
	if err != nil {
		return writeError(c, err)
	}
	return response.Ok(c, detail)
}

// UpdateContact godoc
// @Summary Update a contact
// @Tags contacts
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer operator token"
// @Param id path string true "Contact id"
// @Param contact body UpdateContactRequest true "Fields to change"
// @Success 200 {object} response.SuccessResponse{data=domain.Contact}
// @Failure 404 {object} response.ErrorResponse
// @Failure 422 {object} validator.ValidationErrorResponse
// @Router /api/v1/contacts/{id} [patch]
func (h *ContactHandler) UpdateContact(c echo.Context) error {
	var req UpdateContactRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, err)
	}

	if err := c.Validate(&req); err != nil {
		return validator.HandleValidationError(c, err)
	}

	update := domain.ContactUpdate{
		Name:       req.Name,
		Phone:      req.Phone,
		Email:      req.Email,
		QuickNotes: req.QuickNotes,
		Tags:       req.Tags,
	}
	if req.Status != nil {
		status := domain.ContactStatus(*req.Status)
		update.Status = &status
	}

	contact, err := h.service.Update(c.Request().Context(), c.Param("id"), update)
	if err != nil {
		return writeError(c, err)
	}

	return response.OkWithMessage(c, "Contact updated successfully", contact)
}
