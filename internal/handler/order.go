package handler

import (
	"time"

	"canx-backend/internal/apperr"
	"canx-backend/internal/dto"
	"canx-backend/internal/model"
	"canx-backend/internal/repository"
	"canx-backend/internal/service"

	"github.com/labstack/echo/v4"
)

type OrderHandler struct {
	orderService service.OrderService
}

func NewOrderHandler(orderService service.OrderService) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
	}
}

// Create places an order for the caller. Admins place orders on a dealer's
// behalf and must name the dealer in customerId.
func (h *OrderHandler) Create(c echo.Context) error {
	id, err := caller(c)
	if err != nil {
		return err
	}

	var req dto.CreateOrderRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	customerID, onBehalf := id.UserID, false
	if id.IsAdmin() {
		if req.CustomerID == "" {
			return apperr.Validation("customerId is required when ordering on a dealer's behalf")
		}
		customerID, onBehalf = req.CustomerID, true
	}

	order, err := h.orderService.Create(c.Request().Context(), customerID, onBehalf, &req)
	if err != nil {
		return err
	}
	return created(c, order)
}

func (h *OrderHandler) List(c echo.Context) error {
	id, err := caller(c)
	if err != nil {
		return err
	}

	filter := repository.OrderFilter{
		CustomerID:    c.QueryParam("customer"),
		OrderStatus:   model.OrderStatus(c.QueryParam("orderStatus")),
		PaymentStatus: model.PaymentStatus(c.QueryParam("paymentStatus")),
	}
	if !id.IsAdmin() {
		filter.CustomerID = id.UserID
	}

	orders, err := h.orderService.List(c.Request().Context(), filter)
	if err != nil {
		return err
	}
	return ok(c, orders)
}

// loadOrder fetches the order named in the path and checks the caller may see it.
func loadOrder(c echo.Context, orderService service.OrderService) (*model.Order, error) {
	order, err := orderService.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return nil, err
	}
	if err := authorizeOwner(c, order.CustomerID); err != nil {
		return nil, err
	}
	return order, nil
}

func (h *OrderHandler) Get(c echo.Context) error {
	order, err := loadOrder(c, h.orderService)
	if err != nil {
		return err
	}
	return ok(c, order)
}

func (h *OrderHandler) Quote(c echo.Context) error {
	order, err := loadOrder(c, h.orderService)
	if err != nil {
		return err
	}
	at, err := queryTime(c, "at", time.Now())
	if err != nil {
		return err
	}

	quote, err := h.orderService.Quote(c.Request().Context(), order.ID, at)
	if err != nil {
		return err
	}
	return ok(c, quote)
}

func (h *OrderHandler) Approve(c echo.Context) error {
	order, err := h.orderService.Approve(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return ok(c, order)
}

func (h *OrderHandler) Update(c echo.Context) error {
	var req dto.UpdateOrderRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	order, err := h.orderService.Update(c.Request().Context(), c.Param("id"), &req)
	if err != nil {
		return err
	}
	return ok(c, order)
}

func (h *OrderHandler) Cancel(c echo.Context) error {
	if err := h.orderService.Cancel(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return message(c, "order cancelled")
}
