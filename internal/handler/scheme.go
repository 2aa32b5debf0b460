package handler

import (
	"time"

	"canx-backend/internal/dto"
	"canx-backend/internal/service"

	"github.com/labstack/echo/v4"
)

type SchemeHandler struct {
	schemeService service.SchemeService
}

func NewSchemeHandler(schemeService service.SchemeService) *SchemeHandler {
	return &SchemeHandler{
		schemeService: schemeService,
	}
}

func (h *SchemeHandler) List(c echo.Context) error {
	schemes, err := h.schemeService.List(c.Request().Context())
	if err != nil {
		return err
	}
	return ok(c, schemes)
}

func (h *SchemeHandler) Get(c echo.Context) error {
	scheme, err := h.schemeService.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return ok(c, scheme)
}

func (h *SchemeHandler) Create(c echo.Context) error {
	var req dto.SchemeRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	scheme, err := h.schemeService.Create(c.Request().Context(), &req)
	if err != nil {
		return err
	}
	return created(c, scheme)
}

func (h *SchemeHandler) Delete(c echo.Context) error {
	if err := h.schemeService.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return message(c, "scheme deleted")
}

func (h *SchemeHandler) ListRewards(c echo.Context) error {
	rewards, err := h.schemeService.ListRewards(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return ok(c, rewards)
}

func (h *SchemeHandler) Qualified(c echo.Context) error {
	at, err := queryTime(c, "at", time.Now())
	if err != nil {
		return err
	}

	qualified, err := h.schemeService.Qualified(c.Request().Context(), at)
	if err != nil {
		return err
	}
	return ok(c, qualified)
}

func (h *SchemeHandler) AddReward(c echo.Context) error {
	var req dto.RewardRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	reward, err := h.schemeService.AddReward(c.Request().Context(), req.UserID, req.SchemeID)
	if err != nil {
		return err
	}
	return created(c, reward)
}
