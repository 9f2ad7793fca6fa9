package modelarena

// Command is a discrete application operation with its own configuration.
// Parsing produces a Command; Main dispatches it to the matching App method.
type Command interface {
	// Name returns the CLI sub-command this command answers to.
	Name() string
}

// MigrateCommand applies the active backend's schema: GORM AutoMigrate for
// the relational mode, index definitions for the document mode. Safe to run
// repeatedly.
type MigrateCommand struct{}

func (c *MigrateCommand) Name() string {
	return "migrate"
}

// RunCommand starts the HTTP server over the storage facade.
type RunCommand struct{}

func (c *RunCommand) Name() string {
	return "run"
}

// CleanupCommand removes expired data: comparison sessions past their
// retention window and sessions that never received content.
type CleanupCommand struct{}

func (c *CleanupCommand) Name() string {
	return "cleanup"
}
