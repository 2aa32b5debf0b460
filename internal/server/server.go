package server

import (
	"context"
	"net/http"

	"canx-backend/internal/auth"
	"canx-backend/internal/dto"
	"canx-backend/internal/handler"
	"canx-backend/internal/metrics"
	appmw "canx-backend/internal/middleware"
	"canx-backend/internal/service"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Services groups everything the HTTP layer calls into.
type Services struct {
	User      service.UserService
	Catalogue service.CatalogueService
	Tier      service.TierService
	Coupon    service.CouponService
	Order     service.OrderService
	Payment   service.PaymentService
	Paypal    service.PaypalService
	Scheme    service.SchemeService
}

type Server struct {
	echo   *echo.Echo
	tokens auth.TokenManager

	userHandler      *handler.UserHandler
	catalogueHandler *handler.CatalogueHandler
	tierHandler      *handler.TierHandler
	couponHandler    *handler.CouponHandler
	orderHandler     *handler.OrderHandler
	paymentHandler   *handler.PaymentHandler
	paypalHandler    *handler.PaypalHandler
	schemeHandler    *handler.SchemeHandler
}

func NewServer(services Services, tokens auth.TokenManager, m *metrics.Metrics, gatherer prometheus.Gatherer, log zerolog.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = appmw.ErrorHandler(log)

	e.Use(middleware.RequestID())
	e.Use(appmw.RequestLogger(log))
	e.Use(appmw.Metrics(m))
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	s := &Server{
		echo:             e,
		tokens:           tokens,
		userHandler:      handler.NewUserHandler(services.User),
		catalogueHandler: handler.NewCatalogueHandler(services.Catalogue),
		tierHandler:      handler.NewTierHandler(services.Tier),
		couponHandler:    handler.NewCouponHandler(services.Coupon),
		orderHandler:     handler.NewOrderHandler(services.Order),
		paymentHandler:   handler.NewPaymentHandler(services.Payment, services.Order),
		paypalHandler:    handler.NewPaypalHandler(services.Paypal, services.Order),
		schemeHandler:    handler.NewSchemeHandler(services.Scheme),
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.echo.Group("/api")

	api.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, dto.Response{Success: true, Message: "ok"})
	})

	// -------- paypal callbacks --------
	api.GET("/paypal/success", s.paypalHandler.HandleSuccess)
	api.POST("/paypal/webhook", s.paypalHandler.PayPalWebhook)

	authed := api.Group("", appmw.AuthMiddleware(s.tokens))

	authed.GET("/me", s.userHandler.Me)
	authed.GET("/users/:id/ledger", s.userHandler.Ledger)

	authed.GET("/categories", s.catalogueHandler.ListCategories)
	authed.GET("/products", s.catalogueHandler.ListProducts)
	authed.GET("/products/:id", s.catalogueHandler.GetProduct)

	authed.GET("/cash-discounts", s.tierHandler.ListCashDiscounts)
	authed.GET("/interests", s.tierHandler.ListInterests)

	authed.POST("/coupons/validate", s.couponHandler.Validate)

	authed.POST("/orders", s.orderHandler.Create)
	authed.GET("/orders", s.orderHandler.List)
	authed.GET("/orders/:id", s.orderHandler.Get)
	authed.GET("/orders/:id/quote", s.orderHandler.Quote)

	authed.POST("/orders/:id/payments", s.paymentHandler.Submit)
	authed.GET("/orders/:id/payments", s.paymentHandler.ListByOrder)
	authed.POST("/orders/:id/payments/paypal", s.paypalHandler.Pay)
	authed.POST("/orders/:id/payments/card", s.paymentHandler.ChargeCard)

	authed.GET("/schemes", s.schemeHandler.List)
	authed.GET("/schemes/:id", s.schemeHandler.Get)

	// -------- admin --------
	admin := authed.Group("/admin", appmw.RequireAdmin())

	admin.GET("/users", s.userHandler.List)
	admin.POST("/users", s.userHandler.Create)
	admin.GET("/users/:id", s.userHandler.Get)
	admin.PUT("/users/:id", s.userHandler.Update)
	admin.DELETE("/users/:id", s.userHandler.Delete)
	admin.POST("/users/:id/approve", s.userHandler.Approve)
	admin.POST("/users/:id/reject", s.userHandler.Reject)
	admin.PUT("/users/:id/vendor-access", s.userHandler.SetVendorAccess)
	admin.PUT("/users/:id/credit-limit", s.userHandler.SetCreditLimit)

	admin.POST("/categories", s.catalogueHandler.CreateCategory)
	admin.PUT("/categories/:id", s.catalogueHandler.UpdateCategory)
	admin.DELETE("/categories/:id", s.catalogueHandler.DeleteCategory)
	admin.POST("/products", s.catalogueHandler.CreateProduct)
	admin.PUT("/products/:id", s.catalogueHandler.UpdateProduct)
	admin.DELETE("/products/:id", s.catalogueHandler.DeleteProduct)

	admin.POST("/cash-discounts", s.tierHandler.CreateCashDiscount)
	admin.PUT("/cash-discounts/:id", s.tierHandler.UpdateCashDiscount)
	admin.DELETE("/cash-discounts/:id", s.tierHandler.DeleteCashDiscount)
	admin.POST("/interests", s.tierHandler.CreateInterest)
	admin.PUT("/interests/:id", s.tierHandler.UpdateInterest)
	admin.DELETE("/interests/:id", s.tierHandler.DeleteInterest)

	admin.GET("/coupons", s.couponHandler.List)
	admin.GET("/coupons/:id", s.couponHandler.Get)
	admin.POST("/coupons", s.couponHandler.Create)
	admin.PUT("/coupons/:id", s.couponHandler.Update)
	admin.DELETE("/coupons/:id", s.couponHandler.Delete)

	admin.POST("/orders/:id/approve", s.orderHandler.Approve)
	admin.PUT("/orders/:id", s.orderHandler.Update)
	admin.DELETE("/orders/:id", s.orderHandler.Cancel)

	admin.GET("/payments", s.paymentHandler.List)
	admin.POST("/payments/:id/approve", s.paymentHandler.Approve)
	admin.POST("/payments/:id/reject", s.paymentHandler.Reject)

	admin.GET("/schemes/qualified", s.schemeHandler.Qualified)
	admin.POST("/schemes", s.schemeHandler.Create)
	admin.DELETE("/schemes/:id", s.schemeHandler.Delete)
	admin.GET("/schemes/:id/rewards", s.schemeHandler.ListRewards)
	admin.POST("/schemes/rewards", s.schemeHandler.AddReward)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) Start(address string) error {
	return s.echo.Start(address)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
