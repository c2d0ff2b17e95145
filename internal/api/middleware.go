package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/nhle/planner/internal/auth"
	"github.com/nhle/planner/internal/planner"
)

// UserHeader carries the authenticated user id set by the upstream proxy.
const UserHeader = "X-User-ID"

// requireUser moves the user header into the request context.
func requireUser(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		id := c.Request().Header.Get(UserHeader)
		ctx := auth.WithUser(c.Request().Context(), id)
		if _, err := auth.UserFrom(ctx); err != nil {
			r := planner.ResultOf(err)
			return c.JSON(http.StatusUnauthorized, Response{Success: false, Message: r.Message, Error: r.Kind.String()})
		}
		c.SetRequest(c.Request().WithContext(ctx))
		return next(c)
	}
}

// requestLogger logs one line per request.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			req, res := c.Request(), c.Response()
			ev := log.Info()
			if res.Status >= http.StatusInternalServerError {
				ev = log.Warn()
			}
			ev.Str("method", req.Method).
				Str("path", req.URL.Path).
				Int("status", res.Status).
				Dur("latency", time.Since(start)).
				Msg("request")
			return nil
		}
	}
}
