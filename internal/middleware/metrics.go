package middleware

import (
	"errors"
	"strconv"
	"time"

	"canx-backend/internal/metrics"

	"github.com/labstack/echo/v4"
)

// Metrics counts requests and observes latency per registered route.
func Metrics(m *metrics.Metrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			method := c.Request().Method

			m.Requests.WithLabelValues(route, method, strconv.Itoa(statusOf(c, err))).Inc()
			m.RequestDuration.WithLabelValues(route, method).Observe(time.Since(start).Seconds())
			return err
		}
	}
}

// statusOf guesses the status the error handler will write when err is not nil.
func statusOf(c echo.Context, err error) int {
	if err == nil {
		return c.Response().Status
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code
	}
	return StatusFor(err)
}
