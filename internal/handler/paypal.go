package handler

import (
	"io"
	"net/http"

	"canx-backend/internal/apperr"
	"canx-backend/internal/dto"
	"canx-backend/internal/service"

	"github.com/labstack/echo/v4"
)

const successPage = `<!DOCTYPE html>
<html>
<head>
	<meta charset="utf-8">
	<title>Payment received</title>
	<style>
		body {
			font-family: Arial, sans-serif;
			text-align: center;
			margin-top: 80px;
		}
	</style>
</head>
<body>
	<h2>Payment approved</h2>
	<p>Your payment was captured and applied to your order. You can close this window.</p>
</body>
</html>
`

type PaypalHandler struct {
	paypalService service.PaypalService
	orderService  service.OrderService
}

func NewPaypalHandler(paypalService service.PaypalService, orderService service.OrderService) *PaypalHandler {
	return &PaypalHandler{
		paypalService: paypalService,
		orderService:  orderService,
	}
}

// Pay starts a PayPal checkout for part or all of an order's balance.
func (h *PaypalHandler) Pay(c echo.Context) error {
	order, err := loadOrder(c, h.orderService)
	if err != nil {
		return err
	}

	var req dto.PayRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	result, err := h.paypalService.Pay(c.Request().Context(), order.ID, &req)
	if err != nil {
		return err
	}
	return ok(c, result)
}

// HandleSuccess is the return URL PayPal redirects the buyer to after approval.
func (h *PaypalHandler) HandleSuccess(c echo.Context) error {
	orderID := c.QueryParam("token")
	if orderID == "" {
		return apperr.Validation("missing order token")
	}

	if _, err := h.paypalService.CaptureOrder(c.Request().Context(), orderID); err != nil {
		return err
	}
	return c.HTML(http.StatusOK, successPage)
}

func (h *PaypalHandler) PayPalWebhook(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return apperr.Validation("read webhook body")
	}

	if err := h.paypalService.HandleWebhook(c.Request().Context(), c.Request().Header, body); err != nil {
		return err
	}
	return c.NoContent(http.StatusOK)
}
