package middleware

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/myndigheter/pkg/context"
)

// Context records the caller's request metadata and returns the request id
// in the response so clients can quote it when reporting a failed load.
func Context() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()

			id := req.Header.Get(echo.HeaderXRequestID)
			if id == "" {
				id = uuid.NewString()
			}
			c.Response().Header().Set(echo.HeaderXRequestID, id)

			ctx := context.WithRequest(req.Context(), context.Request{
				ID:       id,
				Method:   req.Method,
				Path:     req.URL.Path,
				RemoteIP: c.RealIP(),
			})
			c.SetRequest(req.WithContext(ctx))
			return next(c)
		}
	}
}
