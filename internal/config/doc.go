// Package config provides centralized configuration management for the
// option pricing service. It handles loading configuration from multiple
// sources, validation, and provides a type-safe API for accessing
// configuration values throughout the application.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//	1. Environment variables (highest priority)
//	2. Configuration files (YAML)
//	3. Default values (lowest priority)
//
// # Environment Variables
//
// All environment variables follow the pattern OPTLATTICE_* for namespacing:
//
//	OPTLATTICE_SERVER_PORT=8080
//	OPTLATTICE_LOGGING_LEVEL=info
//	OPTLATTICE_PRICING_DEFAULT_STEPS=300
//	OPTLATTICE_PRICING_WORKERS=8
//	OPTLATTICE_SECURITY_RATE_LIMIT_RPS=100
//
// # Sections
//
//   - Server: HTTP listener address and timeouts
//   - Security: allowed origins and rate limiting
//   - Logging: level, format and output destination
//   - Pricing: lattice step bounds, chain worker count, result output dir
//   - WebSocket: buffer sizes and keepalive periods
//
// The Load function applies env over file over defaults, then validates the
// merged result; an invalid combination fails startup rather than being
// silently corrected (with the exception of the logging format, which is
// pinned to JSON).
package config
