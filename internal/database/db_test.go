package database

import (
	"testing"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizedDSNPinsSessionToUTC(t *testing.T) {
	cases := map[string]string{
		"from config":    dsnFor("app", "secret", "db", "3306", "booking"),
		"bare test dsn":  "root@tcp(localhost:3306)/booking_test",
		"local time dsn": "root@tcp(localhost:3306)/booking_test?loc=Local&time_zone=%27SYSTEM%27",
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			out, err := normalizeDSN(in)
			require.NoError(t, err)
			cfg, err := mysql.ParseDSN(out)
			require.NoError(t, err)
			assert.Equal(t, "'+00:00'", cfg.Params["time_zone"])
			assert.Equal(t, time.UTC, cfg.Loc)
			assert.True(t, cfg.ParseTime)
			assert.True(t, cfg.ClientFoundRows)
		})
	}
}

func TestDSNForKeepsCredentialsAndCharset(t *testing.T) {
	cfg, err := mysql.ParseDSN(dsnFor("app", "secret", "db", "3307", "booking"))
	require.NoError(t, err)
	assert.Equal(t, "app", cfg.User)
	assert.Equal(t, "secret", cfg.Passwd)
	assert.Equal(t, "db:3307", cfg.Addr)
	assert.Equal(t, "booking", cfg.DBName)

	_, err = normalizeDSN("not a dsn")
	assert.Error(t, err)
}
