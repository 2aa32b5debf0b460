package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"go.uber.org/multierr"
)

type Config struct {
	Environment Environment
	Log         Log
	HTTP        HTTPServer
	BaseURL     string `env:"BASE_URL" envDefault:"http://localhost:8080"`

	Database  Database  `envPrefix:"DB_"`
	Auth      Auth      `envPrefix:"AUTH_"`
	Billing   Billing   `envPrefix:"BILLING_"`
	Paypal    Paypal    `envPrefix:"PAYPAL_"`
	BrainTree Braintree `envPrefix:"BRAINTREE_"`
}

type Database struct {
	Driver          string        `env:"DRIVER" envDefault:"sqlite"` // sqlite, mysql
	DSN             string        `env:"DSN" envDefault:"canx.db"`
	MaxIdleConns    int           `env:"MAX_IDLE_CONNS" envDefault:"10"`
	MaxOpenConns    int           `env:"MAX_OPEN_CONNS" envDefault:"50"`
	ConnMaxLifetime time.Duration `env:"CONN_MAX_LIFETIME" envDefault:"1h"`
}

type Auth struct {
	JWTSecret string        `env:"JWT_SECRET"`
	Issuer    string        `env:"ISSUER" envDefault:"canx"`
	TokenTTL  time.Duration `env:"TOKEN_TTL" envDefault:"24h"`
}

type Billing struct {
	Currency        string `env:"CURRENCY" envDefault:"INR"`
	CreditCycleDays int    `env:"CREDIT_CYCLE_DAYS" envDefault:"30"`
}

type Paypal struct {
	BaseApiURL   string `env:"BASE_API_URL" envDefault:"https://api-m.sandbox.paypal.com"`
	ClientID     string `env:"CLIENT_ID"`
	ClientSecret string `env:"CLIENT_SECRET"`
	WebhookID    string `env:"WEBHOOK_ID"`
}

type Braintree struct {
	Environment string `env:"ENVIRONMENT" envDefault:"sandbox"`
	MerchantID  string `env:"MERCHANT_ID"`
	PublicKey   string `env:"PUBLIC_KEY"`
	PrivateKey  string `env:"PRIVATE_KEY"`
}

type Environment struct {
	Name string `env:"ENVIRONMENT" envDefault:"development"`
}

type Log struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

type HTTPServer struct {
	Host string `env:"HTTP_HOST" envDefault:"0.0.0.0"`
	Port string `env:"HTTP_PORT" envDefault:"8080"`
}

func (c *HTTPServer) Address() string {
	return c.Host + ":" + c.Port
}

func (c *Config) IsProduction() bool {
	return c.Environment.Name == "production"
}

// Validate reports every problem in the config at once.
func (c *Config) Validate() error {
	var err error

	switch c.Database.Driver {
	case "sqlite", "mysql":
	default:
		err = multierr.Append(err, fmt.Errorf("DB_DRIVER %q not supported", c.Database.Driver))
	}
	if c.Database.DSN == "" {
		err = multierr.Append(err, errors.New("DB_DSN is required"))
	}
	if c.Auth.JWTSecret == "" {
		err = multierr.Append(err, errors.New("AUTH_JWT_SECRET is required"))
	}
	if c.Auth.TokenTTL <= 0 {
		err = multierr.Append(err, errors.New("AUTH_TOKEN_TTL must be positive"))
	}
	if c.Billing.CreditCycleDays <= 0 {
		err = multierr.Append(err, errors.New("BILLING_CREDIT_CYCLE_DAYS must be positive"))
	}
	if c.IsProduction() && c.Paypal.ClientID != "" && c.Paypal.WebhookID == "" {
		err = multierr.Append(err, errors.New("PAYPAL_WEBHOOK_ID is required when paypal is enabled in production"))
	}

	return err
}

// Load reads dotenv files into the environment, parses the config and
// validates it. Without files it reads ./.env when there is one; named files
// must exist.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load .env: %w", err)
		}
	} else if err := godotenv.Load(files...); err != nil {
		return nil, fmt.Errorf("load env file: %w", err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
