package app

import (
	"testing"
	"time"

	"canx-backend/internal/auth"
	"canx-backend/internal/config"
	"canx-backend/internal/model"
	"canx-backend/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
)

func TestOptionsGraphIsComplete(t *testing.T) {
	cfg := &config.Config{
		Database: config.Database{Driver: "sqlite", DSN: "file::memory:"},
		Auth:     config.Auth{JWTSecret: "secret", TokenTTL: time.Hour},
		Billing:  config.Billing{Currency: "INR", CreditCycleDays: 30},
		HTTP:     config.HTTPServer{Host: "127.0.0.1", Port: "0"},
	}

	require.NoError(t, fx.ValidateApp(Options(cfg)))
}

func TestCorePopulatesServices(t *testing.T) {
	cfg := &config.Config{
		Database: config.Database{Driver: "sqlite", DSN: "file:core?mode=memory&cache=shared", ConnMaxLifetime: time.Hour},
		Auth:     config.Auth{JWTSecret: "secret", TokenTTL: time.Hour},
		Billing:  config.Billing{Currency: "INR", CreditCycleDays: 30},
	}

	var users service.UserService
	var tokens auth.TokenManager
	app := fxtest.New(t, Core(cfg), fx.Populate(&users, &tokens))
	app.RequireStart()
	defer app.RequireStop()

	assert.NotNil(t, users)
	token, err := tokens.Issue("user-1", model.RoleAdmin)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
}
