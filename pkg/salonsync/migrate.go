package salonsync

import (
	"context"
	"fmt"
)

// Migrate creates or updates the primary database schema. The mirror is
// schemaless and needs no migration; its tables appear on first write.
func (a *App) Migrate(ctx context.Context, cmd *MigrateCommand) error {
	a.log.Info().Msg("running primary schema migrations")
	if err := a.primary.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	a.log.Info().Msg("migrations completed")
	return nil
}
