package salonsync

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/salonsync/salonsync/pkg/auth"
	"github.com/salonsync/salonsync/pkg/models"
	"github.com/salonsync/salonsync/pkg/store/dualstore"
	"github.com/salonsync/salonsync/pkg/store/postgres"
	"github.com/salonsync/salonsync/pkg/store/surreal"
)

// Config holds application configuration, populated from flags and the
// environment by Parse.
type Config struct {
	PostgresDSN   string
	SurrealDBURL  string
	SurrealDBNS   string
	SurrealDBDB   string
	SurrealDBUser string
	SurrealDBPass string

	JWTSecret  string
	ServerPort string
}

// App holds the application state: both store connections, one dual-store
// adapter per entity, and the credential service.
type App struct {
	config  *Config
	log     zerolog.Logger
	primary *postgres.Store
	mirror  *surreal.Store
	creds   *auth.Service

	customers    *dualstore.Adapter[models.Customer]
	users        *dualstore.Adapter[models.User]
	stylists     *dualstore.Adapter[models.Stylist]
	profiles     *dualstore.Adapter[models.Profile]
	appointments *dualstore.Adapter[models.Appointment]
	earnings     *dualstore.Adapter[models.Earning]
	services     *dualstore.Adapter[models.ServiceOffering]
}

// New connects to both stores and wires up the per-entity adapters. The
// mirror connection is required: the application does not run in
// primary-only mode, it reports primary-only outcomes per operation instead.
func New(ctx context.Context, config *Config) (*App, error) {
	log := zerolog.New(os.Stderr).With().Timestamp().Logger()

	primary, err := postgres.Open(config.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	log.Info().Msg("connected to PostgreSQL")

	mirror, err := surreal.Open(ctx,
		config.SurrealDBURL,
		config.SurrealDBNS,
		config.SurrealDBDB,
		config.SurrealDBUser,
		config.SurrealDBPass,
	)
	if err != nil {
		primary.Close()
		return nil, fmt.Errorf("failed to connect to SurrealDB: %w", err)
	}
	log.Info().Msg("connected to SurrealDB")

	app := &App{
		config:  config,
		log:     log,
		primary: primary,
		mirror:  mirror,
		creds:   auth.NewService(primary, auth.NewMemoryRevocationList(), config.JWTSecret),

		customers:    newAdapter[models.Customer](primary, mirror, "customers"),
		users:        newAdapter[models.User](primary, mirror, "users"),
		stylists:     newAdapter[models.Stylist](primary, mirror, "stylists"),
		profiles:     newAdapter[models.Profile](primary, mirror, "profiles"),
		appointments: newAdapter[models.Appointment](primary, mirror, "appointments"),
		earnings:     newAdapter[models.Earning](primary, mirror, "earnings"),
		services:     newAdapter[models.ServiceOffering](primary, mirror, "services"),
	}
	return app, nil
}

func newAdapter[T models.Record](primary *postgres.Store, mirror *surreal.Store, table string) *dualstore.Adapter[T] {
	return dualstore.New[T](postgres.NewRepository[T](primary), surreal.NewTable[T](mirror, table))
}

// Close closes both store connections.
func (a *App) Close() error {
	var firstErr error
	if a.mirror != nil {
		if err := a.mirror.Close(); err != nil {
			firstErr = err
		}
	}
	if a.primary != nil {
		if err := a.primary.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// getEnv retrieves an environment variable with a fallback default. Empty
// values are treated the same as unset ones.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
