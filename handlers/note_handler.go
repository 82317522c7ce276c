package handlers

import (
	"fmt"

	"github.com/labstack/echo/v4"

	"github.com/onurcolak/unified-inbox-service/internal/domain"
	"github.com/onurcolak/unified-inbox-service/internal/middlewares"
	"github.com/onurcolak/unified-inbox-service/internal/service"
	"github.com/onurcolak/unified-inbox-service/pkg/response"
	"github.com/onurcolak/unified-inbox-service/pkg/validator"
)

type NoteHandler struct {
	service *service.ContactService
}

func NewNoteHandler(service *service.ContactService) *NoteHandler {
	return &NoteHandler{service: service}
}

type CreateNoteRequest struct {
	ContactID string `json:"contactId" validate:"required"`
	Title     string `json:"title" validate:"max=255"`
	Content   string `json:"content" validate:"required,max=10000"`
	IsPrivate bool   `json:"isPrivate"`
}

// GetNotes godoc
// @Summary List notes of a contact
// @Description Private notes are only returned to their author
// @Tags notes
// @Produce json
// @Param Authorization header string true "Bearer operator token"
// @Param contactId query string true "Contact id"
// @Success 200 {object} response.SuccessResponse{data=[]domain.Note}
// @Failure 400 {object} response.ErrorResponse
// @Router /api/v1/notes [get]
func (h *NoteHandler) GetNotes(c echo.Context) error {
	contactID := c.QueryParam("contactId")
	if contactID == "" {
		return response.BadRequest(c, fmt.Errorf("contactId is required"))
	}

	notes, err := h.service.ListNotes(c.Request().Context(), contactID, middlewares.UserID(c))
	if err != nil {
		return response.InternalServerError(c, err)
	}
	if notes == nil {
		notes = []domain.Note{}
	}

	return response.Ok(c, notes)
}

// CreateNote godoc
// @Summary Add a note to a contact
// @Tags notes
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer operator token"
// @Param note body CreateNoteRequest true "Note"
// @Success 201 {object} response.SuccessResponse{data=domain.Note}
// @Failure 404 {object} response.ErrorResponse
// @Failure 422 {object} validator.ValidationErrorResponse
// @Router /api/v1/notes [post]
func (h *NoteHandler) CreateNote(c echo.Context) error {
	var req CreateNoteRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, err)
	}

	if err := c.Validate(&req); err != nil {
		return validator.HandleValidationError(c, err)
	}

	note := &domain.Note{
		ContactID: req.ContactID,
		UserID:    middlewares.UserID(c),
		Title:     req.Title,
		Content:   req.Content,
		IsPrivate: req.IsPrivate,
	}
	if err := h.service.AddNote(c.Request().Context(), note); err != nil {
		return writeError(c, err)
	}

	return response.Created(c, "Note created successfully", note)
}
