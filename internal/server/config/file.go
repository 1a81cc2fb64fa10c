package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/labcms/internal/flagx"
	"github.com/dmitrijs2005/labcms/internal/timex"
	"gopkg.in/yaml.v3"
)

// FileConfig is the on-disk shape of the configuration, shared by JSON and
// YAML. Durations accept strings such as "24h". Zero values leave the
// corresponding Config field untouched.
type FileConfig struct {
	HTTPAddr                string         `json:"http_addr" yaml:"http_addr"`
	DatabaseDSN             string         `json:"database_dsn" yaml:"database_dsn"`
	SecretKey               string         `json:"secret_key" yaml:"secret_key"`
	TokenIssuer             string         `json:"token_issuer" yaml:"token_issuer"`
	TokenAudience           string         `json:"token_audience" yaml:"token_audience"`
	TokenValidityDuration   timex.Duration `json:"token_validity_duration" yaml:"token_validity_duration"`
	Production              *bool          `json:"production" yaml:"production"`
	LogLevel                string         `json:"log_level" yaml:"log_level"`
	LoginRateBurst          int            `json:"login_rate_burst" yaml:"login_rate_burst"`
	LoginRatePerSecond      float64        `json:"login_rate_per_second" yaml:"login_rate_per_second"`
	DenylistRefreshInterval timex.Duration `json:"denylist_refresh_interval" yaml:"denylist_refresh_interval"`
	S3AccessKey             string         `json:"s3_access_key" yaml:"s3_access_key"`
	S3SecretKey             string         `json:"s3_secret_key" yaml:"s3_secret_key"`
	S3Bucket                string         `json:"s3_bucket" yaml:"s3_bucket"`
	S3Region                string         `json:"s3_region" yaml:"s3_region"`
	S3BaseEndpoint          string         `json:"s3_base_endpoint" yaml:"s3_base_endpoint"`
	S3PublicBaseURL         string         `json:"s3_public_base_url" yaml:"s3_public_base_url"`
}

// parseFile loads the file named by -c/-config, if any, and overlays it onto
// config. Files ending in .yaml or .yml are decoded as YAML, anything else as
// JSON. Unreadable or malformed files panic.
func parseFile(config *Config, args []string) {
	path := flagx.ConfigFileFlag(args)
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	fc := &FileConfig{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, fc)
	default:
		err = json.Unmarshal(data, fc)
	}
	if err != nil {
		panic(err)
	}

	fc.apply(config)
}

func (fc *FileConfig) apply(config *Config) {
	setString(&config.HTTPAddr, fc.HTTPAddr)
	setString(&config.DatabaseDSN, fc.DatabaseDSN)
	setString(&config.SecretKey, fc.SecretKey)
	setString(&config.TokenIssuer, fc.TokenIssuer)
	setString(&config.TokenAudience, fc.TokenAudience)
	if fc.TokenValidityDuration.Duration > 0 {
		config.TokenValidityDuration = fc.TokenValidityDuration.Duration
	}
	if fc.Production != nil {
		config.Production = *fc.Production
	}
	setString(&config.LogLevel, fc.LogLevel)
	if fc.LoginRateBurst > 0 {
		config.LoginRateBurst = fc.LoginRateBurst
	}
	if fc.LoginRatePerSecond > 0 {
		config.LoginRatePerSecond = fc.LoginRatePerSecond
	}
	if fc.DenylistRefreshInterval.Duration > 0 {
		config.DenylistRefreshInterval = fc.DenylistRefreshInterval.Duration
	}
	setString(&config.S3AccessKey, fc.S3AccessKey)
	setString(&config.S3SecretKey, fc.S3SecretKey)
	setString(&config.S3Bucket, fc.S3Bucket)
	setString(&config.S3Region, fc.S3Region)
	setString(&config.S3BaseEndpoint, fc.S3BaseEndpoint)
	setString(&config.S3PublicBaseURL, fc.S3PublicBaseURL)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
