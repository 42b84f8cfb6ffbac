package middleware

import (
    "time"

    "github.com/labstack/echo/v4"
    "go.uber.org/zap"
)

// RequestLogger logs one line per request with its status and latency.
// 5xx responses are logged at error level and 4xx at warn.
func RequestLogger(log *zap.Logger) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            start := time.Now()
            err := next(c)
            if err != nil {
                // let the error handler write the response first
                c.Error(err)
            }
            req, res := c.Request(), c.Response()
            fields := []zap.Field{
                zap.String("request_id", res.Header().Get(echo.HeaderXRequestID)),
                zap.Int("status", res.Status),
                zap.String("method", req.Method),
                zap.String("path", req.URL.Path),
                zap.String("route", c.Path()),
                zap.String("query", req.URL.RawQuery),
                zap.String("ip", c.RealIP()),
                zap.Duration("latency", time.Since(start)),
                zap.Int64("bytes_out", res.Size),
            }
            if err != nil {
                fields = append(fields, zap.Error(err))
            }
            switch {
            case res.Status >= 500:
                log.Error("server error", fields...)
            case res.Status >= 400:
                log.Warn("client error", fields...)
            default:
                log.Info("request completed", fields...)
            }
            return nil
        }
    }
}
