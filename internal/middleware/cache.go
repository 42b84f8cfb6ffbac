package middleware

import (
    "bytes"
    "context"
    "crypto/sha256"
    "encoding/hex"
    "encoding/json"
    "errors"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"
    "go.uber.org/zap"

    "github.com/iliyamo/slot-booking/internal/config"
)

// captureWriter tees the response body into buf, up to limit bytes.
type captureWriter struct {
    http.ResponseWriter
    status    int
    buf       bytes.Buffer
    limit     int
    truncated bool
}

func (cw *captureWriter) WriteHeader(code int) { cw.status = code; cw.ResponseWriter.WriteHeader(code) }

func (cw *captureWriter) Write(b []byte) (int, error) {
    if !cw.truncated {
        if cw.limit > 0 && cw.buf.Len()+len(b) > cw.limit {
            cw.truncated = true
        } else {
            cw.buf.Write(b)
        }
    }
    return cw.ResponseWriter.Write(b)
}

// cachedResponse is what gets stored in Redis.
type cachedResponse struct {
    Status      int    `json:"s"`
    ContentType string `json:"ct"`
    Body        []byte `json:"b"`
}

// cacheKey hashes the path and raw query so equal requests share an entry.
func cacheKey(prefix string, r *http.Request) string {
    sum := sha256.Sum256([]byte(r.URL.Path + "?" + r.URL.RawQuery))
    return prefix + ":" + hex.EncodeToString(sum[:16])
}

// ResponseCache serves repeated GET requests from Redis for cfg.TTL.
// Only 200 responses are stored.  Responses carry X-Cache: HIT or MISS.
func ResponseCache(cfg config.CacheConfig, rdb *redis.Client, log *zap.Logger) echo.MiddlewareFunc {
    if !cfg.Enabled || rdb == nil {
        return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            req := c.Request()
            if req.Method != http.MethodGet {
                return next(c)
            }
            key := cacheKey(cfg.Prefix, req)

            if raw, err := rdb.Get(req.Context(), key).Bytes(); err == nil {
                var hit cachedResponse
                if json.Unmarshal(raw, &hit) == nil {
                    c.Response().Header().Set("X-Cache", "HIT")
                    return c.Blob(hit.Status, hit.ContentType, hit.Body)
                }
            } else if !errors.Is(err, redis.Nil) {
                log.Warn("cache read failed", zap.String("key", key), zap.Error(err))
            }

            cw := &captureWriter{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: cfg.MaxBodyBytes}
            c.Response().Writer = cw
            c.Response().Header().Set("X-Cache", "MISS")
            if err := next(c); err != nil {
                return err
            }
            if cw.status != http.StatusOK || cw.truncated {
                return nil
            }
            payload, err := json.Marshal(cachedResponse{
                Status:      cw.status,
                ContentType: c.Response().Header().Get(echo.HeaderContentType),
                Body:        cw.buf.Bytes(),
            })
            if err != nil {
                return nil
            }
            ctx, cancel := context.WithTimeout(context.Background(), time.Second)
            defer cancel()
            if err := rdb.Set(ctx, key, payload, cfg.TTL).Err(); err != nil {
                log.Warn("cache write failed", zap.String("key", key), zap.Error(err))
            }
            return nil
        }
    }
}
