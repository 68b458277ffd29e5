// Package config provides configuration loading and validation for r2gate.
//
// The package handles YAML configuration files, environment variables, and CLI flags
// with automatic merging and validation using go-playground/validator.
//
// # Configuration Precedence
//
// Values are loaded in this order (later sources override earlier ones):
//
//  1. Default values
//  2. Configuration file(s) - multiple files merged left-to-right
//  3. Environment variables (R2GATE_ prefix, then legacy names)
//  4. CLI flags
//
// # Usage
//
//	cfg, err := config.Load([]string{"config.yaml"}, cmd.Flags())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Store in context for subcommands
//	ctx = config.WithContext(ctx, cfg)
//
//	// Retrieve later
//	cfg, err = config.FromContext(ctx)
//
// # Environment Variables
//
// All config keys map to environment variables with the R2GATE_ prefix:
//   - server.port → R2GATE_SERVER_PORT
//   - session.type → R2GATE_SESSION_TYPE
//   - storage.s3.bucket → R2GATE_STORAGE_S3_BUCKET
//
// The variables of earlier deployments are still honored: SERVER_IP,
// SERVER_PORT, PRODUCTION, USERS_FILE, R2_ACCOUNT_ID, R2_ACCESS_KEY_ID,
// R2_SECRET_ACCESS_KEY and R2_BUCKET_NAME.
//
// # Configuration Structure
//
// The Config struct contains:
//   - Server: listen address, production mode, cookie domain, upload limit, static dir
//   - Auth: users file, inline users, session and cookie lifetimes
//   - Session: backend type (memory, redis, sqlite, postgres) and its connection
//   - Storage: backend type (s3, filesystem), key prefix, bucket credentials
//   - CORS: cross-origin resource sharing settings
//   - Log: logging level
//
// Bucket credentials are checked when the S3 store is built rather than at load
// time, so user management commands work without them.
package config
