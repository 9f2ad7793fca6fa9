package modelarena

import "context"

// Migrate applies the active backend's schema. Relational mode runs GORM
// AutoMigrate over every model; document mode defines the unique and lookup
// indexes. Both are idempotent.
func (a *App) Migrate(ctx context.Context, cmd *MigrateCommand) error {
	a.log.Info().Str("mode", string(a.config.Mode)).Msg("running schema migration")
	if err := a.store.Migrate(ctx); err != nil {
		return err
	}
	a.log.Info().Msg("schema migration complete")
	return nil
}

// Cleanup reclaims dead session rows: expired ephemeral sessions first,
// then sessions that never received a title or a response.
func (a *App) Cleanup(ctx context.Context, cmd *CleanupCommand) error {
	expired, err := a.store.PurgeExpiredSessions(ctx)
	if err != nil {
		return err
	}
	empty, err := a.store.DeleteEmptySessions(ctx)
	if err != nil {
		return err
	}
	a.log.Info().
		Int64("expired_sessions", expired).
		Int64("empty_sessions", empty).
		Msg("cleanup complete")
	return nil
}
