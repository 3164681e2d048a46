package middleware

import (
	"strconv"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/fern/pkg/context"
)

// Logger emits one structured entry per request. Identity fields are read
// back from the request context stamped by Context, so a handler that
// attaches a run ID gets it in the request log.
func Logger(logger ectologger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			res := c.Response()
			start := time.Now()
			if err = next(c); err != nil {
				c.Error(err)
			}

			stop := time.Now()

			req := c.Request()
			ctx := req.Context()
			fields := map[string]interface{}{
				"request_id":    context.GetRequestID(ctx),
				"method":        context.GetMethod(ctx),
				"route":         context.GetRoute(ctx),
				"remote_ip":     context.GetRemoteIP(ctx),
				"referer":       context.GetReferer(ctx),
				"status":        res.Status,
				"uri":           req.RequestURI,
				"user_agent":    req.UserAgent(),
				"response_time": stop.Sub(start),
				"response_size": strconv.FormatInt(res.Size, 10),
			}
			if runID := context.GetRunID(ctx); runID != "" {
				fields["run_id"] = runID
			}

			logger.WithContext(ctx).WithFields(fields).Info("Request")

			return nil
		}
	}
}
