// Package database provides a unified interface for connecting to registry
// backends.
//
// The package supports multiple database backends (PostgreSQL and SQLite) and
// handles connection management, migrations, and schema validation
// automatically. The default registry store is the JSON file in package
// filesystem; these backends exist for deployments that want the registry in
// a real database.
//
// # Usage
//
//	cfg := database.Config{
//	    Type:  "sqlite",
//	    DSN:   "veriseal.db",
//	    Table: "veriseal_reports",
//	}
//
//	store, cleanup, err := database.Connect(ctx, cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer cleanup()
//
// The Connect function automatically:
//   - Opens the database connection
//   - Runs schema migrations
//   - Validates the schema
//   - Returns a ready-to-use RegistryStore
package database
