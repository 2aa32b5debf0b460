// Package app assembles the HTTP service with fx.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"canx-backend/internal/auth"
	"canx-backend/internal/client"
	"canx-backend/internal/config"
	"canx-backend/internal/logger"
	"canx-backend/internal/metrics"
	"canx-backend/internal/repository"
	"canx-backend/internal/server"
	"canx-backend/internal/service"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

// Options returns the full fx graph of the HTTP service. cfg is supplied by
// the caller so the CLI decides where configuration comes from.
func Options(cfg *config.Config) fx.Option {
	return fx.Options(
		Core(cfg),
		fx.Provide(newServer),
		fx.Invoke(runServer),
	)
}

// Core provides config, storage, clients, repositories and services without
// the HTTP server. Offline commands build on it.
func Core(cfg *config.Config) fx.Option {
	return fx.Options(
		fx.Supply(cfg),
		fx.Provide(
			newLogger,
			newDB,
			newRegistry,
			newMetrics,
			newTokenManager,
			func(cfg *config.Config, log zerolog.Logger) client.PaypalClient {
				return client.NewPaypalClient(&cfg.Paypal, logger.Component(log, "paypal"))
			},
			func(cfg *config.Config) client.BraintreeClient {
				return client.NewBraintreeClient(&cfg.BrainTree)
			},
		),
		repositories,
		services,
	)
}

var repositories = fx.Provide(
	repository.NewUserRepository,
	repository.NewCategoryRepository,
	repository.NewProductRepository,
	repository.NewOrderRepository,
	repository.NewPaymentRepository,
	repository.NewCashDiscountRepository,
	repository.NewInterestRepository,
	repository.NewCouponRepository,
	repository.NewSchemeRepository,
	repository.NewWebhookEventRepository,
	repository.NewLedgerRepository,
)

var services = fx.Provide(
	func(db *gorm.DB, users repository.UserRepository, ledger repository.LedgerRepository, log zerolog.Logger) service.UserService {
		return service.NewUserService(db, users, ledger, logger.Component(log, "users"))
	},
	func(cfg *config.Config, categories repository.CategoryRepository, products repository.ProductRepository) service.CatalogueService {
		return service.NewCatalogueService(categories, products, cfg.Billing.Currency)
	},
	service.NewTierService,
	service.NewCouponService,
	func(p orderParams) service.OrderService {
		return service.NewOrderService(p.DB, p.Orders, p.Products, p.Users, p.Coupons, p.Tiers,
			&p.Config.Billing, p.Metrics, logger.Component(p.Log, "orders"))
	},
	func(p paymentParams) service.PaymentService {
		return service.NewPaymentService(p.DB, p.Payments, p.Orders, p.Users, p.Tiers, p.Braintree,
			p.Metrics, logger.Component(p.Log, "payments"))
	},
	func(p paypalParams) service.PaypalService {
		return service.NewPaypalService(p.DB, p.Paypal, p.Config.BaseURL, p.Config.Billing.Currency,
			p.Orders, p.Events, p.Payments, p.Metrics, logger.Component(p.Log, "paypal"))
	},
	func(db *gorm.DB, schemes repository.SchemeRepository, users repository.UserRepository, log zerolog.Logger) service.SchemeService {
		return service.NewSchemeService(db, schemes, users, logger.Component(log, "schemes"))
	},
)

type orderParams struct {
	fx.In

	Config   *config.Config
	DB       *gorm.DB
	Orders   repository.OrderRepository
	Products repository.ProductRepository
	Users    repository.UserRepository
	Coupons  service.CouponService
	Tiers    service.TierService
	Metrics  *metrics.Metrics
	Log      zerolog.Logger
}

type paymentParams struct {
	fx.In

	DB        *gorm.DB
	Payments  repository.PaymentRepository
	Orders    repository.OrderRepository
	Users     repository.UserRepository
	Tiers     service.TierService
	Braintree client.BraintreeClient
	Metrics   *metrics.Metrics
	Log       zerolog.Logger
}

type paypalParams struct {
	fx.In

	Config   *config.Config
	DB       *gorm.DB
	Paypal   client.PaypalClient
	Orders   repository.OrderRepository
	Events   repository.WebhookEventRepository
	Payments service.PaymentService
	Metrics  *metrics.Metrics
	Log      zerolog.Logger
}

type serverParams struct {
	fx.In

	User      service.UserService
	Catalogue service.CatalogueService
	Tier      service.TierService
	Coupon    service.CouponService
	Order     service.OrderService
	Payment   service.PaymentService
	Paypal    service.PaypalService
	Scheme    service.SchemeService

	Tokens   auth.TokenManager
	Metrics  *metrics.Metrics
	Registry *prometheus.Registry
	Log      zerolog.Logger
}

func newLogger(cfg *config.Config) zerolog.Logger {
	return logger.New(cfg.Log, cfg.Environment)
}

func newDB(lc fx.Lifecycle, cfg *config.Config, log zerolog.Logger) (*gorm.DB, error) {
	db, err := client.InitDBClient(&cfg.Database)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			log.Info().Msg("closing database")
			return sqlDB.Close()
		},
	})
	return db, nil
}

func newRegistry() (*prometheus.Registry, error) {
	reg := prometheus.NewRegistry()
	if err := reg.Register(collectors.NewGoCollector()); err != nil {
		return nil, err
	}
	if err := reg.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{})); err != nil {
		return nil, err
	}
	return reg, nil
}

func newMetrics(reg *prometheus.Registry) (*metrics.Metrics, error) {
	return metrics.New(reg)
}

func newTokenManager(cfg *config.Config) (auth.TokenManager, error) {
	return auth.NewTokenManager(&cfg.Auth)
}

func newServer(p serverParams) *server.Server {
	return server.NewServer(server.Services{
		User:      p.User,
		Catalogue: p.Catalogue,
		Tier:      p.Tier,
		Coupon:    p.Coupon,
		Order:     p.Order,
		Payment:   p.Payment,
		Paypal:    p.Paypal,
		Scheme:    p.Scheme,
	}, p.Tokens, p.Metrics, p.Registry, logger.Component(p.Log, "http"))
}

func runServer(lc fx.Lifecycle, shutdowner fx.Shutdowner, cfg *config.Config, srv *server.Server, log zerolog.Logger) {
	addr := cfg.HTTP.Address()

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			log.Info().Str("addr", addr).Msg("starting HTTP server")
			go func() {
				if err := srv.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error().Err(err).Msg("HTTP server error")
					_ = shutdowner.Shutdown(fx.ExitCode(1))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info().Msg("shutting down HTTP server")
			if err := srv.Shutdown(ctx); err != nil {
				return fmt.Errorf("shutdown http server: %w", err)
			}
			return nil
		},
	})
}
