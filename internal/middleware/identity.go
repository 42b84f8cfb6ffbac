package middleware

// identity.go turns the subject claim stored by the JWT middleware into a
// numeric user id.  Token subjects arrive as JSON numbers or strings.

import (
    "strconv"

    "github.com/labstack/echo/v4"
)

// UserID returns the authenticated user's id, or false for guests.
func UserID(c echo.Context) (uint64, bool) {
    switch v := c.Get(CtxUserID).(type) {
    case float64:
        if v > 0 && v == float64(uint64(v)) {
            return uint64(v), true
        }
    case string:
        if n, err := strconv.ParseUint(v, 10, 64); err == nil && n > 0 {
            return n, true
        }
    }
    return 0, false
}

// identityKey is the rate-limit identity of the caller.
func identityKey(c echo.Context) string {
    if id, ok := UserID(c); ok {
        return strconv.FormatUint(id, 10)
    }
    return "guest"
}
