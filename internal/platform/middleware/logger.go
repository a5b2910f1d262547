package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/revcycle/revcycle/internal/platform/auth"
	"github.com/revcycle/revcycle/internal/platform/db"
)

// Logger emits one structured line per request. Financial mutations must
// be traceable to a person, so the line carries the authenticated actor id
// alongside the request id, and failed requests carry the classified error
// code the response envelope reports to the caller.
func Logger(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			rid, _ := c.Get("request_id").(string)

			err := next(c)

			// Read the request after the handler ran: the auth middleware
			// sits deeper in the chain and attaches the actor there.
			req := c.Request()

			evt := logger.Info()
			if err != nil {
				evt = logger.Error().Err(err).Str("error_code", db.CodeOf(err))
			}
			if actor := auth.UserIDFromContext(req.Context()); actor != "" {
				evt = evt.Str("actor", actor)
			}

			evt.
				Str("request_id", rid).
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Int("status", c.Response().Status).
				Dur("latency", time.Since(start)).
				Str("remote_ip", c.RealIP()).
				Msg("request")

			return err
		}
	}
}
