package handler

import (
	"canx-backend/internal/dto"
	"canx-backend/internal/service"

	"github.com/labstack/echo/v4"
)

type TierHandler struct {
	tierService service.TierService
}

func NewTierHandler(tierService service.TierService) *TierHandler {
	return &TierHandler{
		tierService: tierService,
	}
}

func (h *TierHandler) ListCashDiscounts(c echo.Context) error {
	rows, err := h.tierService.ListCashDiscounts(c.Request().Context())
	if err != nil {
		return err
	}
	return ok(c, rows)
}

func (h *TierHandler) CreateCashDiscount(c echo.Context) error {
	var req dto.CashDiscountRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	row, err := h.tierService.CreateCashDiscount(c.Request().Context(), &req)
	if err != nil {
		return err
	}
	return created(c, row)
}

func (h *TierHandler) UpdateCashDiscount(c echo.Context) error {
	var req dto.CashDiscountRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	row, err := h.tierService.UpdateCashDiscount(c.Request().Context(), c.Param("id"), &req)
	if err != nil {
		return err
	}
	return ok(c, row)
}

func (h *TierHandler) DeleteCashDiscount(c echo.Context) error {
	if err := h.tierService.DeleteCashDiscount(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return message(c, "cash discount deleted")
}

func (h *TierHandler) ListInterests(c echo.Context) error {
	rows, err := h.tierService.ListInterests(c.Request().Context())
	if err != nil {
		return err
	}
	return ok(c, rows)
}

func (h *TierHandler) CreateInterest(c echo.Context) error {
	var req dto.InterestRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	row, err := h.tierService.CreateInterest(c.Request().Context(), &req)
	if err != nil {
		return err
	}
	return created(c, row)
}

func (h *TierHandler) UpdateInterest(c echo.Context) error {
	var req dto.InterestRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	row, err := h.tierService.UpdateInterest(c.Request().Context(), c.Param("id"), &req)
	if err != nil {
		return err
	}
	return ok(c, row)
}

func (h *TierHandler) DeleteInterest(c echo.Context) error {
	if err := h.tierService.DeleteInterest(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return message(c, "interest deleted")
}
