// Package database connects the SQL session backends.
//
// Sessions can be kept in PostgreSQL or SQLite so that logins survive a
// restart and, with PostgreSQL, are shared between replicas.
//
// # Usage
//
//	cfg := database.Config{
//	    Type:  "sqlite",
//	    DSN:   "sessions.db",
//	    Table: "r2gate_sessions",
//	}
//
//	sessions, cleanup, err := database.Connect(ctx, cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer cleanup()
//
// Connect opens the connection, creates the sessions table when missing and
// validates its columns before returning the store.
//
// # Subpackages
//
//   - database/postgres: PostgreSQL implementation using pgx
//   - database/sqlite: SQLite implementation using modernc.org/sqlite
package database
