package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/authkeeper/internal/timex"
)

// JsonConfig is the on-disk shape of the optional JSON config file. Durations
// accept "10s" style strings or integer nanoseconds. Absent or zero fields
// leave the current value alone.
type JsonConfig struct {
	EndpointAddrHTTP   string         `json:"endpoint_addr_http"`
	EndpointAddrGRPC   string         `json:"endpoint_addr_grpc"`
	DatabaseDSN        string         `json:"database_dsn"`
	UseMemoryStore     *bool          `json:"use_memory_store"`
	SigningKey         string         `json:"signing_key"`
	TokenIssuer        string         `json:"token_issuer"`
	TokenAudience      string         `json:"token_audience"`
	RateLimitPerMinute *int           `json:"rate_limit_per_minute"`
	ShutdownTimeout    timex.Duration `json:"shutdown_timeout"`
	LogLevel           string         `json:"log_level"`

	AuditS3Enabled     *bool          `json:"audit_s3_enabled"`
	AuditS3Prefix      string         `json:"audit_s3_prefix"`
	AuditBatchSize     int            `json:"audit_batch_size"`
	AuditFlushInterval timex.Duration `json:"audit_flush_interval"`
	S3AccessKey        string         `json:"s3_access_key"`
	S3SecretKey        string         `json:"s3_secret_key"`
	S3Bucket           string         `json:"s3_bucket"`
	S3Region           string         `json:"s3_region"`
	S3BaseEndpoint     string         `json:"s3_base_endpoint"`
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// parseJson overlays the JSON file at path onto config. An empty path is a
// no-op.
func parseJson(config *Config, path string) error {
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	if c.UseMemoryStore != nil {
		config.UseMemoryStore = *c.UseMemoryStore
	}
	setString(&config.SigningKey, c.SigningKey)
	setString(&config.TokenIssuer, c.TokenIssuer)
	setString(&config.TokenAudience, c.TokenAudience)
	if c.RateLimitPerMinute != nil {
		config.RateLimitPerMinute = *c.RateLimitPerMinute
	}
	if c.ShutdownTimeout.Duration > 0 {
		config.ShutdownTimeout = c.ShutdownTimeout.Duration
	}
	setString(&config.LogLevel, c.LogLevel)

	if c.AuditS3Enabled != nil {
		config.AuditS3Enabled = *c.AuditS3Enabled
	}
	setString(&config.AuditS3Prefix, c.AuditS3Prefix)
	if c.AuditBatchSize > 0 {
		config.AuditBatchSize = c.AuditBatchSize
	}
	if c.AuditFlushInterval.Duration > 0 {
		config.AuditFlushInterval = c.AuditFlushInterval.Duration
	}
	setString(&config.S3AccessKey, c.S3AccessKey)
	setString(&config.S3SecretKey, c.S3SecretKey)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)

	return nil
}
