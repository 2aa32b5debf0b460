package handler

import (
	"canx-backend/internal/dto"
	"canx-backend/internal/model"
	"canx-backend/internal/repository"
	"canx-backend/internal/service"

	"github.com/labstack/echo/v4"
)

type PaymentHandler struct {
	paymentService service.PaymentService
	orderService   service.OrderService
}

func NewPaymentHandler(paymentService service.PaymentService, orderService service.OrderService) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
		orderService:   orderService,
	}
}

func (h *PaymentHandler) Submit(c echo.Context) error {
	order, err := loadOrder(c, h.orderService)
	if err != nil {
		return err
	}

	var req dto.SubmitPaymentRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	payment, err := h.paymentService.Submit(c.Request().Context(), order.ID, &req)
	if err != nil {
		return err
	}
	return created(c, payment)
}

func (h *PaymentHandler) ListByOrder(c echo.Context) error {
	order, err := loadOrder(c, h.orderService)
	if err != nil {
		return err
	}

	payments, err := h.paymentService.List(c.Request().Context(), repository.PaymentFilter{OrderID: order.ID})
	if err != nil {
		return err
	}
	return ok(c, payments)
}

func (h *PaymentHandler) ChargeCard(c echo.Context) error {
	order, err := loadOrder(c, h.orderService)
	if err != nil {
		return err
	}

	var req dto.CardPaymentRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	payment, err := h.paymentService.ChargeCard(c.Request().Context(), order.ID, &req)
	if err != nil {
		return err
	}
	return created(c, payment)
}

func (h *PaymentHandler) List(c echo.Context) error {
	payments, err := h.paymentService.List(c.Request().Context(), repository.PaymentFilter{
		OrderID:    c.QueryParam("order"),
		CustomerID: c.QueryParam("customer"),
		Status:     model.PaymentState(c.QueryParam("status")),
	})
	if err != nil {
		return err
	}
	return ok(c, payments)
}

func (h *PaymentHandler) Approve(c echo.Context) error {
	var req dto.ApprovePaymentRequest
	if c.Request().ContentLength != 0 {
		if err := bind(c, &req); err != nil {
			return err
		}
	}

	payment, err := h.paymentService.Approve(c.Request().Context(), c.Param("id"), req.Amount)
	if err != nil {
		return err
	}
	return ok(c, payment)
}

func (h *PaymentHandler) Reject(c echo.Context) error {
	payment, err := h.paymentService.Reject(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return ok(c, payment)
}
