// Package modelarena wires the storage facade into a runnable application:
// configuration, backend selection, the HTTP surface, and the CLI commands.
package modelarena

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/modelarena/modelarena/pkg/store"
	"github.com/modelarena/modelarena/pkg/store/postgres"
	"github.com/modelarena/modelarena/pkg/store/route"
	"github.com/modelarena/modelarena/pkg/store/surreal"
)

// Config holds application configuration, read from flags and environment.
type Config struct {
	// Database configuration.
	PostgresDSN   string
	SurrealDBURL  string
	SurrealDBNS   string
	SurrealDBDB   string
	SurrealDBUser string
	SurrealDBPass string

	// Mode selects the backend: exactly one of document or relational,
	// bound once at startup.
	Mode route.Mode

	// ReadOnly starts the application in read-only maintenance mode.
	ReadOnly bool

	// Policy knobs for retention, TTL, quotas and billing gates.
	Policy store.Policy

	ServerPort string
}

// App holds the application state. The store field is the read-only wrapper
// around the mode router; handlers never touch a backend directly.
type App struct {
	store    store.Store
	router   *route.Router
	config   *Config
	log      zerolog.Logger
	readOnly bool
}

// New connects the backend the configured mode names and assembles the
// store stack: backend, router, read-only wrapper.
func New(config *Config, log zerolog.Logger) (*App, error) {
	var backend store.Store
	var err error

	switch config.Mode {
	case route.ModeRelational:
		backend, err = postgres.New(config.PostgresDSN, config.Policy)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
		}
		log.Info().Msg("connected to PostgreSQL")
	case route.ModeDocument:
		backend, err = surreal.New(
			config.SurrealDBURL,
			config.SurrealDBNS,
			config.SurrealDBDB,
			config.SurrealDBUser,
			config.SurrealDBPass,
			config.Policy,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to SurrealDB: %w", err)
		}
		log.Info().Msg("connected to SurrealDB")
	default:
		return nil, fmt.Errorf("no backend for mode %q", config.Mode)
	}

	app := &App{
		config:   config,
		log:      log,
		readOnly: config.ReadOnly,
	}
	app.router = route.New(config.Mode, backend, log)
	app.store = store.NewReadOnlyStore(app.router, app.IsReadOnly)
	return app, nil
}

// Close releases the backend connection.
func (a *App) Close() error {
	if a.store != nil {
		return a.store.Close()
	}
	return nil
}

// Store returns the assembled store stack, useful for tests.
func (a *App) Store() store.Store {
	return a.store
}

// SetReadOnly toggles maintenance mode at runtime. Writes are rejected at
// the store wrapper, so the change takes effect on the next operation
// without a restart.
func (a *App) SetReadOnly(readOnly bool) {
	a.readOnly = readOnly
	a.log.Info().Bool("read_only", readOnly).Msg("read-only mode changed")
}

// IsReadOnly reports whether writes are currently rejected. Checked by the
// read-only wrapper on every write, so it stays trivial.
func (a *App) IsReadOnly() bool {
	return a.readOnly
}

// getEnv returns the environment value for key, or the default when the
// variable is unset or empty.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return b
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return d
}
