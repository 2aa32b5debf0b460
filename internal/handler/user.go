package handler

import (
	"canx-backend/internal/dto"
	"canx-backend/internal/model"
	"canx-backend/internal/repository"
	"canx-backend/internal/service"

	"github.com/labstack/echo/v4"
)

type UserHandler struct {
	userService service.UserService
}

func NewUserHandler(userService service.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

func (h *UserHandler) Me(c echo.Context) error {
	id, err := caller(c)
	if err != nil {
		return err
	}

	user, err := h.userService.Get(c.Request().Context(), id.UserID)
	if err != nil {
		return err
	}
	return ok(c, user)
}

func (h *UserHandler) Ledger(c echo.Context) error {
	userID := c.Param("id")
	if err := authorizeOwner(c, userID); err != nil {
		return err
	}

	entries, err := h.userService.Ledger(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return ok(c, entries)
}

func (h *UserHandler) List(c echo.Context) error {
	approved, err := queryBool(c, "approved")
	if err != nil {
		return err
	}
	rejected, err := queryBool(c, "rejected")
	if err != nil {
		return err
	}

	users, err := h.userService.List(c.Request().Context(), repository.UserFilter{
		Role:     model.Role(c.QueryParam("role")),
		Approved: approved,
		Rejected: rejected,
	})
	if err != nil {
		return err
	}
	return ok(c, users)
}

func (h *UserHandler) Get(c echo.Context) error {
	user, err := h.userService.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return ok(c, user)
}

func (h *UserHandler) Create(c echo.Context) error {
	var req dto.UserRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	user, err := h.userService.Create(c.Request().Context(), &req)
	if err != nil {
		return err
	}
	return created(c, user)
}

func (h *UserHandler) Update(c echo.Context) error {
	var req dto.UserRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	user, err := h.userService.Update(c.Request().Context(), c.Param("id"), &req)
	if err != nil {
		return err
	}
	return ok(c, user)
}

func (h *UserHandler) Delete(c echo.Context) error {
	if err := h.userService.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return message(c, "user deleted")
}

func (h *UserHandler) Approve(c echo.Context) error {
	user, err := h.userService.ApproveCustomer(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return ok(c, user)
}

func (h *UserHandler) Reject(c echo.Context) error {
	user, err := h.userService.RejectCustomer(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return ok(c, user)
}

func (h *UserHandler) SetVendorAccess(c echo.Context) error {
	var req dto.VendorAccessRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	user, err := h.userService.SetVendorAccess(c.Request().Context(), c.Param("id"), req.VendorAccess)
	if err != nil {
		return err
	}
	return ok(c, user)
}

func (h *UserHandler) SetCreditLimit(c echo.Context) error {
	var req dto.CreditLimitRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	user, err := h.userService.SetCreditLimit(c.Request().Context(), c.Param("id"), req.CreditLimit)
	if err != nil {
		return err
	}
	return ok(c, user)
}
