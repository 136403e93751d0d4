package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/myndigheter/pkg/context"
	"github.com/Ramsey-B/myndigheter/pkg/metrics"
	"github.com/labstack/echo/v4"
)

// Logger logs one line per request and records request metrics. Errors are
// handed to the echo error handler here so the logged status is final.
func Logger(logger ectologger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			if err := next(c); err != nil {
				c.Error(err)
			}
			elapsed := time.Since(start)

			ctx := c.Request().Context()
			res := c.Response()
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			status := strconv.Itoa(res.Status)
			metrics.RecordAPIRequest(context.GetMethod(ctx), route, status, elapsed.Seconds())

			log := logger.WithContext(ctx).WithFields(map[string]any{
				"request_id":    context.GetRequestID(ctx),
				"method":        context.GetMethod(ctx),
				"path":          context.GetPath(ctx),
				"route":         route,
				"status":        res.Status,
				"remote_ip":     context.GetRemoteIP(ctx),
				"user_agent":    c.Request().UserAgent(),
				"response_time": elapsed.String(),
				"response_size": res.Size,
			})
			if res.Status >= http.StatusInternalServerError {
				log.Warn("Request failed")
				return nil
			}
			log.Info("Request")
			return nil
		}
	}
}
