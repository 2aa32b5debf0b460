package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"canx-backend/internal/apperr"
	"canx-backend/internal/auth"
	"canx-backend/internal/dto"
	"canx-backend/internal/middleware"

	"github.com/labstack/echo/v4"
)

func ok(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, dto.Response{Success: true, Data: data})
}

func created(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusCreated, dto.Response{Success: true, Data: data})
}

func message(c echo.Context, msg string) error {
	return c.JSON(http.StatusOK, dto.Response{Success: true, Message: msg})
}

func bind(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return apperr.Validation("invalid request body")
	}
	return nil
}

func caller(c echo.Context) (*auth.Identity, error) {
	id, ok := middleware.Identity(c)
	if !ok {
		return nil, apperr.ErrUnauthorized
	}
	return id, nil
}

// authorizeOwner lets admins through and otherwise requires the caller to be ownerID.
func authorizeOwner(c echo.Context, ownerID string) error {
	id, err := caller(c)
	if err != nil {
		return err
	}
	if id.IsAdmin() || id.UserID == ownerID {
		return nil
	}
	return fmt.Errorf("%w: resource belongs to another user", apperr.ErrForbidden)
}

func queryBool(c echo.Context, name string) (*bool, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, apperr.Validation("query %s must be true or false", name)
	}
	return &v, nil
}

// queryTime parses an RFC 3339 or YYYY-MM-DD query parameter, defaulting to now.
func queryTime(c echo.Context, name string, now time.Time) (time.Time, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return now, nil
	}
	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, apperr.Validation("query %s must be RFC 3339 or YYYY-MM-DD", name)
}
