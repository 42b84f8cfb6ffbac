package database

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitStatements(t *testing.T) {
	src := "-- header\nCREATE TABLE a (id INT);\n\n  -- note\nCREATE TABLE b (id INT);\n"
	stmts := SplitStatements(src)
	assert.Equal(t, []string{"CREATE TABLE a (id INT)", "CREATE TABLE b (id INT)"}, stmts)
}

func TestEmbeddedMigrationsParse(t *testing.T) {
	raw, err := migrationFiles.ReadFile("migrations/001_init.sql")
	require.NoError(t, err)
	stmts := SplitStatements(string(raw))
	require.Len(t, stmts, 4)
	for _, table := range []string{"services", "slots", "bookings", "payments"} {
		found := false
		for _, s := range stmts {
			if strings.Contains(s, "CREATE TABLE IF NOT EXISTS "+table+" ") {
				found = true
			}
		}
		assert.True(t, found, table)
	}
}
