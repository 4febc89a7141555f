// Package config manages application configuration for the CampusConnect API.
//
// Configuration is layered. Default supplies development values, an optional
// TOML file overrides them, and environment variables override both:
//
//	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
//	if err != nil { ... }
//	if err := cfg.Validate(); err != nil { ... }
//
// # Configuration Groups
//
//   - ServerConfig: HTTP server settings (port, timeouts, CORS origins)
//   - LogConfig: slog level, format and source annotations
//   - StorageConfig: driver (surrealdb, sqlite or postgres) and its connection settings
//   - JWTConfig: token signing keys and lifetime, bcrypt cost
//   - RateLimitConfig: per-caller request allowance
//   - JobsConfig: reference repair schedule
//   - DomainConfig: the zone event times are written in
//
// # Environment Variables
//
// Each group has a prefix and each field its own name, for example:
//
//	SERVER_PORT                  - HTTP server port (default: 8080)
//	SERVER_ALLOWED_ORIGINS       - comma separated CORS origins
//	LOG_LEVEL                    - debug, info, warn or error
//	STORAGE_DRIVER               - surrealdb, sqlite or postgres (default: sqlite)
//	STORAGE_SQL_DSN              - database/sql data source
//	STORAGE_SURREALDB_HOST       - SurrealDB host
//	JWT_PRIVATE_KEY_PATH         - RS256 signing key
//	RATE_LIMIT_RATE              - requests per window
//	JOBS_REPAIR_INTERVAL         - time between reference repair sweeps
//	DOMAIN_LOCATION              - IANA zone, e.g. Asia/Kolkata
//
// Config.String redacts passwords so the whole configuration can be logged at startup.
package config
