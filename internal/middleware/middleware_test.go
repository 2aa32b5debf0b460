package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"canx-backend/internal/apperr"
	"canx-backend/internal/auth"
	"canx-backend/internal/config"
	"canx-backend/internal/dto"
	"canx-backend/internal/metrics"
	"canx-backend/internal/model"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEcho(t *testing.T) (*echo.Echo, auth.TokenManager) {
	t.Helper()
	tokens, err := auth.NewTokenManager(&config.Auth{JWTSecret: "secret", Issuer: "canx", TokenTTL: time.Hour})
	require.NoError(t, err)

	e := echo.New()
	e.HTTPErrorHandler = ErrorHandler(zerolog.Nop())

	whoami := func(c echo.Context) error {
		id, _ := Identity(c)
		return c.JSON(http.StatusOK, dto.Response{Success: true, Data: id.UserID})
	}
	api := e.Group("/api", AuthMiddleware(tokens))
	api.GET("/me", whoami)
	api.GET("/admin/ping", whoami, RequireAdmin())
	return e, tokens
}

func call(e *echo.Echo, path, token string) (*httptest.ResponseRecorder, dto.Response) {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var body dto.Response
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	return rec, body
}

func TestAuthMiddleware(t *testing.T) {
	e, tokens := newEcho(t)

	rec, body := call(e, "/api/me", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, body.Success)

	rec, _ = call(e, "/api/me", "garbage")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	dealer, err := tokens.Issue("dealer-1", model.RoleUser)
	require.NoError(t, err)
	rec, body = call(e, "/api/me", dealer)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "dealer-1", body.Data)

	rec, body = call(e, "/api/admin/ping", dealer)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "admin role required", body.Message)

	admin, err := tokens.Issue("admin-1", model.RoleAdmin)
	require.NoError(t, err)
	rec, _ = call(e, "/api/admin/ping", admin)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestStatusFor(t *testing.T) {
	cases := map[error]int{
		apperr.NotFound("order"):                            http.StatusNotFound,
		apperr.Validation("bad"):                            http.StatusBadRequest,
		fmt.Errorf("wrap: %w", apperr.ErrOverpayment):       http.StatusBadRequest,
		apperr.ErrCreditLimitExceeded:                       http.StatusBadRequest,
		apperr.Conflict("dup"):                              http.StatusConflict,
		apperr.ErrInvalidTransition:                         http.StatusConflict,
		apperr.ErrCustomerNotApproved:                       http.StatusForbidden,
		fmt.Errorf("%w: signature", apperr.ErrUnauthorized): http.StatusUnauthorized,
		errors.New("boom"):                                  http.StatusInternalServerError,
	}
	for err, want := range cases {
		assert.Equal(t, want, StatusFor(err), err.Error())
	}
}

func TestErrorHandlerHidesInternalErrors(t *testing.T) {
	e := echo.New()
	e.HTTPErrorHandler = ErrorHandler(zerolog.Nop())
	e.GET("/boom", func(c echo.Context) error { return errors.New("dial tcp 10.0.0.1:3306: refused") })
	e.GET("/dup", func(c echo.Context) error { return apperr.Conflict("sku UREA is already used") })

	rec, body := call(e, "/boom", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Internal Server Error", body.Message)

	rec, body = call(e, "/dup", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "conflict: sku UREA is already used", body.Message)
}

func TestMetricsMiddleware(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := metrics.New(reg)
	require.NoError(t, err)

	e := echo.New()
	e.HTTPErrorHandler = ErrorHandler(zerolog.Nop())
	e.Use(Metrics(m))
	e.GET("/orders/:id", func(c echo.Context) error { return apperr.NotFound("order") })

	for i := 0; i < 2; i++ {
		rec, _ := call(e, "/orders/abc", "")
		require.Equal(t, http.StatusNotFound, rec.Code)
	}

	families, err := reg.Gather()
	require.NoError(t, err)

	var counted float64
	for _, mf := range families {
		if mf.GetName() != "canx_http_requests_total" {
			continue
		}
		for _, metric := range mf.GetMetric() {
			labels := map[string]string{}
			for _, l := range metric.GetLabel() {
				labels[l.GetName()] = l.GetValue()
			}
			if labels["route"] == "/orders/:id" && labels["code"] == "404" {
				counted = metric.GetCounter().GetValue()
			}
		}
	}
	assert.Equal(t, float64(2), counted)
}
