package middleware

import (
	"fmt"
	"net/http"
	"runtime"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/revcycle/revcycle/internal/platform/auth"
	"github.com/revcycle/revcycle/internal/platform/db"
	"github.com/revcycle/revcycle/pkg/result"
)

// Recovery converts a handler panic into the same classified-error
// envelope every other failure produces, so callers never see an echo
// default error page. The log line carries the request id and actor for
// correlation with the request log.
func Recovery(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				if r := recover(); r != nil {
					var stack [4096]byte
					n := runtime.Stack(stack[:], false)

					rid, _ := c.Get("request_id").(string)
					evt := logger.Error().
						Str("request_id", rid).
						Str("panic", fmt.Sprintf("%v", r)).
						Str("stack", string(stack[:n]))
					if actor := auth.UserIDFromContext(c.Request().Context()); actor != "" {
						evt = evt.Str("actor", actor)
					}
					evt.Msg("panic recovered")

					perr := db.NewError(db.KindInternal, "panic", "internal server error")
					err = c.JSON(http.StatusInternalServerError, result.Err(perr))
				}
			}()
			return next(c)
		}
	}
}
