package middleware // middleware holds the echo middleware shared by all routes

import (
    "errors"
    "net/http"
    "strings"

    "github.com/golang-jwt/jwt/v5"
    "github.com/labstack/echo/v4"
)

// Context keys set by the JWT middleware.
const (
    CtxUserID = "user_id"
    CtxRole   = "role"
)

var errNoBearer = errors.New("missing bearer token")

// JWTAuth returns an Echo middleware that validates an HS256 Bearer token
// and stores its subject and role claims in the request context under
// CtxUserID and CtxRole.  Requests without a valid token get 401.
func JWTAuth(secret string) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            if err := authenticate(c, secret); err != nil {
                return c.JSON(http.StatusUnauthorized, echo.Map{"statusCode": http.StatusUnauthorized, "message": err.Error()})
            }
            return next(c)
        }
    }
}

// OptionalJWT reads a Bearer token when one is sent and ignores its
// absence.  A token that is present but invalid is still rejected.
func OptionalJWT(secret string) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            err := authenticate(c, secret)
            if err != nil && !errors.Is(err, errNoBearer) {
                return c.JSON(http.StatusUnauthorized, echo.Map{"statusCode": http.StatusUnauthorized, "message": err.Error()})
            }
            return next(c)
        }
    }
}

func authenticate(c echo.Context, secret string) error {
    auth := c.Request().Header.Get("Authorization")
    if !strings.HasPrefix(auth, "Bearer ") {
        return errNoBearer
    }
    raw := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
    tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
        return []byte(secret), nil
    }, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
    if err != nil || !tok.Valid {
        return errors.New("invalid token")
    }
    claims, ok := tok.Claims.(jwt.MapClaims)
    if !ok {
        return errors.New("invalid claims")
    }
    // type assertions are left to UserID and RequireRole
    c.Set(CtxUserID, claims["sub"])
    c.Set(CtxRole, claims["role"])
    return nil
}
