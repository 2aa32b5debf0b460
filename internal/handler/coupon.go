package handler

import (
	"canx-backend/internal/dto"
	"canx-backend/internal/service"

	"github.com/labstack/echo/v4"
)

type CouponHandler struct {
	couponService service.CouponService
}

func NewCouponHandler(couponService service.CouponService) *CouponHandler {
	return &CouponHandler{
		couponService: couponService,
	}
}

// Validate prices a coupon for the caller without consuming it.
func (h *CouponHandler) Validate(c echo.Context) error {
	id, err := caller(c)
	if err != nil {
		return err
	}

	var req dto.ValidateCouponRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	coupon, discount, err := h.couponService.Validate(c.Request().Context(), req.Code, id.UserID, req.Subtotal)
	if err != nil {
		return err
	}
	return ok(c, dto.CouponValidation{
		Code:     coupon.Code,
		Discount: discount,
		Total:    req.Subtotal.Sub(discount),
	})
}

func (h *CouponHandler) List(c echo.Context) error {
	coupons, err := h.couponService.List(c.Request().Context())
	if err != nil {
		return err
	}
	return ok(c, coupons)
}

func (h *CouponHandler) Get(c echo.Context) error {
	coupon, err := h.couponService.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return ok(c, coupon)
}

func (h *CouponHandler) Create(c echo.Context) error {
	var req dto.CouponRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	coupon, err := h.couponService.Create(c.Request().Context(), &req)
	if err != nil {
		return err
	}
	return created(c, coupon)
}

func (h *CouponHandler) Update(c echo.Context) error {
	var req dto.CouponRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	coupon, err := h.couponService.Update(c.Request().Context(), c.Param("id"), &req)
	if err != nil {
		return err
	}
	return ok(c, coupon)
}

func (h *CouponHandler) Delete(c echo.Context) error {
	if err := h.couponService.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return message(c, "coupon deleted")
}
