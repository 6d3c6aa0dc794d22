// Package logging provides a structured logging system for mcporter, backed
// by the standard library's log/slog.
//
// # Log Levels
//   - Debug: detailed information for debugging and development
//   - Info: general informational messages about application operation
//   - Warn: warning messages that indicate potential issues
//   - Error: error messages for failures and exceptional conditions
//
// # Usage
//
//	import "mcporter/pkg/logging"
//
//	logging.InitForCLI(logging.LevelInfo, os.Stderr)
//	logging.Info("Runtime", "connected to %s", name)
//	logging.Debug("OAuthSession", "listening on %s", addr)
//	logging.Warn("OAuthDiscovery", "metadata fetch failed for %s", issuer)
//	logging.Error("Connect", err, "connect failed for %s", name)
//
// # Subsystem Organization
//
// Logs are tagged by subsystem to enable filtering: Runtime, ClientBuilder,
// OAuthSession, OAuthDiscovery, TokenRefresh, AuthFetch, Config, MCPDef.
//
// Security-sensitive events (token exchange, auth login/logout) go through
// Audit rather than Info, so they are easy to grep and never carry token
// values, only outcomes and truncated identifiers.
package logging
