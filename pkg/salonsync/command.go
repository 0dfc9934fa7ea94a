package salonsync

// Command represents a discrete application operation with its specific
// configuration. Each implementation carries the options its operation
// needs; Parse produces one from the command line and Main routes it to the
// matching method on [App].
type Command interface {
	// Name returns the command identifier used for routing. It matches
	// the CLI sub-command name.
	Name() string
}

// MigrateCommand initializes or updates the primary database schema to
// match the current model definitions. SurrealDB is schemaless, so the
// mirror needs no migration step; tables appear on first write.
//
// Safe to run repeatedly: GORM's AutoMigrate only creates missing schema
// elements and never drops data.
type MigrateCommand struct{}

func (c *MigrateCommand) Name() string {
	return "migrate"
}

// RunCommand starts the HTTP server: the authentication endpoints, the
// per-entity resource endpoints backed by the dual-store adapters, and the
// appointment reporting endpoint. The server runs until the context is
// cancelled, then drains in-flight requests before exiting.
type RunCommand struct{}

func (c *RunCommand) Name() string {
	return "run"
}
