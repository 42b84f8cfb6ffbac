package utils

import (
    "regexp"
    "testing"
    "time"

    "github.com/golang-jwt/jwt/v5"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func TestNewPaymentRefFormat(t *testing.T) {
    now := time.UnixMilli(1735689600123)
    ref := NewPaymentRef(now)
    assert.Regexp(t, regexp.MustCompile(`^ORD_[0-9A-F]{8}_1735689600123$`), ref)
    assert.NotEqual(t, ref, NewPaymentRef(now))
}

func TestNewAccessTokenClaims(t *testing.T) {
    tok, err := NewAccessToken("s3cret", 12, "ADMIN", time.Hour)
    require.NoError(t, err)
    assert.WithinDuration(t, time.Now().Add(time.Hour), tok.Exp, 5*time.Second)

    parsed, err := jwt.Parse(tok.Token, func(*jwt.Token) (interface{}, error) { return []byte("s3cret"), nil })
    require.NoError(t, err)
    claims := parsed.Claims.(jwt.MapClaims)
    assert.Equal(t, "ADMIN", claims["role"])
    assert.Equal(t, float64(12), claims["sub"])
}
