package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func mapLookup(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestParseEnv(t *testing.T) {
	c := &Config{}
	c.LoadDefaults()

	parseEnv(c, mapLookup(map[string]string{
		EnvSecretKey:   "env-secret",
		EnvDatabaseDSN: "postgres://env",
		EnvHTTPAddr:    ":1234",
		EnvEnvironment: "Production",
		EnvLogLevel:    "warn",
	}))

	assert.Equal(t, "env-secret", c.SecretKey)
	assert.Equal(t, "postgres://env", c.DatabaseDSN)
	assert.Equal(t, ":1234", c.HTTPAddr)
	assert.True(t, c.Production)
	assert.Equal(t, "warn", c.LogLevel)
}

func TestParseEnv_EmptyValuesKeepExisting(t *testing.T) {
	c := &Config{SecretKey: "keep", HTTPAddr: ":8080", Production: true}

	parseEnv(c, mapLookup(map[string]string{
		EnvSecretKey:   "",
		EnvEnvironment: "development",
	}))

	assert.Equal(t, "keep", c.SecretKey)
	assert.Equal(t, ":8080", c.HTTPAddr)
	assert.False(t, c.Production)
}
