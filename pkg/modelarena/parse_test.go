package modelarena

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modelarena/modelarena/pkg/store/route"
)

func TestParseDefaults(t *testing.T) {
	cmd, config, err := Parse([]string{"run"})
	require.NoError(t, err)

	assert.IsType(t, &RunCommand{}, cmd)
	assert.Equal(t, route.ModeRelational, config.Mode)
	assert.Equal(t, "8080", config.ServerPort)
	assert.False(t, config.ReadOnly)
	assert.True(t, config.Policy.TransactionsEnabled)
}

func TestParseCommands(t *testing.T) {
	cmd, _, err := Parse([]string{"migrate"})
	require.NoError(t, err)
	assert.IsType(t, &MigrateCommand{}, cmd)

	cmd, _, err = Parse([]string{"cleanup"})
	require.NoError(t, err)
	assert.IsType(t, &CleanupCommand{}, cmd)
}

func TestParseFlags(t *testing.T) {
	cmd, config, err := Parse([]string{"-mode", "document", "-port", "9090", "-read-only", "run"})
	require.NoError(t, err)

	assert.IsType(t, &RunCommand{}, cmd)
	assert.Equal(t, route.ModeDocument, config.Mode)
	assert.Equal(t, "9090", config.ServerPort)
	assert.True(t, config.ReadOnly)
}

func TestParseMissingCommand(t *testing.T) {
	_, _, err := Parse(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "subcommand required")
}

func TestParseUnknownCommand(t *testing.T) {
	_, _, err := Parse([]string{"serve"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown command: serve")
}

func TestParseInvalidMode(t *testing.T) {
	_, _, err := Parse([]string{"-mode", "hybrid", "run"})
	require.Error(t, err)
}

func TestParsePolicyFromEnv(t *testing.T) {
	t.Setenv("CHECK_BALANCE", "false")
	t.Setenv("TRACK_BALANCE", "false")
	t.Setenv("SESSION_RETENTION", "720h")

	_, config, err := Parse([]string{"run"})
	require.NoError(t, err)

	assert.False(t, config.Policy.TransactionsEnabled)
	assert.False(t, config.Policy.BalanceEnabled)
	assert.Equal(t, 720*time.Hour, config.Policy.SessionRetention)
}

func TestParseConnectionFromEnv(t *testing.T) {
	t.Setenv("POSTGRES_DSN", "postgres://u:p@db:5432/arena")
	t.Setenv("SURREALDB_URL", "ws://surreal:8000/rpc")

	_, config, err := Parse([]string{"migrate"})
	require.NoError(t, err)

	assert.Equal(t, "postgres://u:p@db:5432/arena", config.PostgresDSN)
	assert.Equal(t, "ws://surreal:8000/rpc", config.SurrealDBURL)
}
