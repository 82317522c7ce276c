package handlers

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/onurcolak/unified-inbox-service/internal/domain"
	"github.com/onurcolak/unified-inbox-service/pkg/response"
)

// writeError maps service errors to the response envelope.
func writeError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return response.NotFound(c, err.Error())
	case errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrScheduleInPast),
		errors.Is(err, domain.ErrMissingRecipientInfo),
		errors.Is(err, domain.ErrInvalidRecipient),
		errors.Is(err, domain.ErrUnsupportedChannel):
		return response.BadRequest(c, err)
	case errors.Is(err, domain.ErrDuplicate), errors.Is(err, domain.ErrInvalidTransition):
		return response.Conflict(c, err)
	case errors.Is(err, domain.ErrUnauthorized):
		return response.Unauthorized(c)
	default:
		return response.InternalServerError(c, err)
	}
}

func parsePaginationParams(c echo.Context) (int, int, error) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)

	pageStr := c.QueryParam("page")
	pageSizeStr := c.QueryParam("pageSize")

	page := defaultPage
	if pageStr != "" {
		p, err := strconv.Atoi(pageStr)
		if err != nil || p <= 0 {
			return 0, 0, fmt.Errorf("page must be a positive integer")
		}
		page = p
	}

	pageSize := defaultPageSize
	if pageSizeStr != "" {
		ps, err := strconv.Atoi(pageSizeStr)
		if err != nil || ps <= 0 || ps > maxPageSize {
			return 0, 0, fmt.Errorf("pageSize must be between 1 and %d", maxPageSize)
		}

		pageSize = ps
	}

	return page, pageSize, nil
}

// parseLimitOffset reads the inbox-style window used by contacts and messages.
func parseLimitOffset(c echo.Context, defaultLimit, maxLimit int) (int, int, error) {
	limit := defaultLimit
	if v := c.QueryParam("limit"); v != "" {
		l, err := strconv.Atoi(v)
		if err != nil || l <= 0 || l > maxLimit {
			return 0, 0, fmt.Errorf("limit must be between 1 and %d", maxLimit)
		}
		limit = l
	}

	offset := 0
	if v := c.QueryParam("offset"); v != "" {
		o, err := strconv.Atoi(v)
		if err != nil || o < 0 {
			return 0, 0, fmt.Errorf("offset must be a non-negative integer")
		}
		offset = o
	}

	return limit, offset, nil
}
