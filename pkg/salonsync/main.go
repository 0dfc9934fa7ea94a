package salonsync

import (
	"context"
	"fmt"
)

// Main is the entry point for the salonsync application. It parses the
// arguments, builds the application, and executes the selected command.
// Callable directly from tests without building the binary; the context
// drives graceful shutdown.
//
// Configuration is read from these environment variables:
//
//	POSTGRES_DSN     - PostgreSQL connection string
//	SURREALDB_URL    - SurrealDB WebSocket URL (default: ws://localhost:8000/rpc)
//	SURREALDB_NS     - SurrealDB namespace (default: salonsync)
//	SURREALDB_DB     - SurrealDB database (default: salonsync)
//	SURREALDB_USER   - SurrealDB username (default: root)
//	SURREALDB_PASS   - SurrealDB password (default: root)
//	JWT_SECRET       - HMAC key for bearer tokens
//	PORT             - HTTP listen port (default: 8080)
func Main(ctx context.Context, args []string) error {
	cmd, config, err := Parse(args)
	if err != nil {
		return fmt.Errorf("failed to parse configuration: %w", err)
	}

	app, err := New(ctx, config)
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
	default:
		return fmt.Errorf("unknown command type: %T", cmd)
	}

	return nil
}
