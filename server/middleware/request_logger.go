package middleware

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// LogFieldRequestID is the field name for request ID.
const LogFieldRequestID = "request_id"

// RequestLogger tags every request with a generated request ID and logs
// method, path, status and duration with structured attributes.
func RequestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			requestID := uuid.New().String()
			c.Response().Header().Set(echo.HeaderXRequestID, requestID)
			start := time.Now()

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			slog.Info("request completed",
				slog.String(LogFieldRequestID, requestID),
				slog.String("method", c.Request().Method),
				slog.String("path", c.Request().RequestURI),
				slog.Int("status", c.Response().Status),
				slog.Int64("duration_ms", time.Since(start).Milliseconds()),
			)
			return err
		}
	}
}
