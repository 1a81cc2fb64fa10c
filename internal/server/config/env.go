package config

import "strings"

// Environment variables read by parseEnv.
const (
	EnvSecretKey   = "LAB_JWT_SECRET"
	EnvDatabaseDSN = "LAB_DATABASE_DSN"
	EnvHTTPAddr    = "LAB_HTTP_ADDR"
	EnvEnvironment = "LAB_ENV"
	EnvLogLevel    = "LAB_LOG_LEVEL"
)

// parseEnv overlays values present in the environment. lookup is
// os.LookupEnv in production and a map in tests.
func parseEnv(config *Config, lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvSecretKey); ok && v != "" {
		config.SecretKey = v
	}
	if v, ok := lookup(EnvDatabaseDSN); ok && v != "" {
		config.DatabaseDSN = v
	}
	if v, ok := lookup(EnvHTTPAddr); ok && v != "" {
		config.HTTPAddr = v
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		config.LogLevel = v
	}
	if v, ok := lookup(EnvEnvironment); ok {
		config.Production = strings.EqualFold(strings.TrimSpace(v), "production")
	}
}
