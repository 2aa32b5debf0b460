package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"canx-backend/internal/auth"
	"canx-backend/internal/config"
	"canx-backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenCommand(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", "cli-secret")
	envFile = ""

	var out bytes.Buffer
	cmd := tokenCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--user", "user-7", "--role", "admin"})
	require.NoError(t, cmd.Execute())

	tokens, err := auth.NewTokenManager(&config.Auth{JWTSecret: "cli-secret", Issuer: "canx", TokenTTL: time.Hour})
	require.NoError(t, err)

	id, err := tokens.Parse(strings.TrimSpace(out.String()))
	require.NoError(t, err)
	assert.Equal(t, "user-7", id.UserID)
	assert.Equal(t, model.RoleAdmin, id.Role)
}

func TestTokenCommandRejectsUnknownRole(t *testing.T) {
	cmd := tokenCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--user", "user-7", "--role", "root"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "root")
}

func TestSeedCommand(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("AUTH_JWT_SECRET", "cli-secret")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_DSN", filepath.Join(dir, "canx.db"))
	envFile = ""

	var out bytes.Buffer
	cmd := seedCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--file", filepath.Join("testdata", "seed.yaml")})
	require.NoError(t, cmd.Execute())

	assert.Contains(t, out.String(), "admin ops@canx.test id=")
	assert.Contains(t, out.String(), "cash discounts: 3, interests: 2, categories: 3")
}

func TestNamedEnvFileMustExist(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", "cli-secret")
	envFile = filepath.Join(t.TempDir(), "staging.env")
	t.Cleanup(func() { envFile = "" })

	cmd := tokenCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--user", "user-7"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load env file")
}
