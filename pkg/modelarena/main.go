package modelarena

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// Main parses args, builds the application, and runs the selected command.
// It is the whole entry point; cmd/modelarena only supplies the context,
// logger and os.Args, so tests can drive the binary without building it.
//
// Configuration comes from flags (mode, port, read-only) and environment
// variables:
//
//	POSTGRES_DSN       PostgreSQL connection string
//	SURREALDB_URL      SurrealDB WebSocket URL (default ws://localhost:8000/rpc)
//	SURREALDB_NS       SurrealDB namespace (default modelarena)
//	SURREALDB_DB       SurrealDB database (default modelarena)
//	SURREALDB_USER     SurrealDB username (default root)
//	SURREALDB_PASS     SurrealDB password (default root)
//	CHECK_BALANCE      Enable the transaction ledger (default false)
//	TRACK_BALANCE      Enable balance tracking alongside the ledger (default false)
//	SESSION_RETENTION  Ephemeral session retention window (default 24h)
//	FILE_TTL           Unlinked upload time to live (default 1h)
func Main(ctx context.Context, log zerolog.Logger, args []string) error {
	cmd, config, err := Parse(args)
	if err != nil {
		return fmt.Errorf("failed to parse configuration: %w", err)
	}

	app, err := New(config, log)
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}
	defer app.Close()

	switch c := cmd.(type) {
	case *MigrateCommand:
		if err := app.Migrate(ctx, c); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	case *RunCommand:
		if err := app.Run(ctx, c); err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case *CleanupCommand:
		if err := app.Cleanup(ctx, c); err != nil {
			return fmt.Errorf("cleanup failed: %w", err)
		}
	default:
		return fmt.Errorf("unknown command type: %T", cmd)
	}

	return nil
}
