package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const envPrefix = "AUTHKEEPER_"

func loadEnvFiles(paths ...string) error {
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

type lookupFunc func(string) (string, bool)

// parseEnv overlays AUTHKEEPER_* variables onto config.
func parseEnv(config *Config, lookup lookupFunc) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(envPrefix + name); ok && v != "" {
			*dst = v
		}
	}
	var errs []error
	boolean := func(name string, dst *bool) {
		if v, ok := lookup(envPrefix + name); ok && v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", envPrefix, name, err))
				return
			}
			*dst = b
		}
	}
	integer := func(name string, dst *int) {
		if v, ok := lookup(envPrefix + name); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", envPrefix, name, err))
				return
			}
			*dst = n
		}
	}
	duration := func(name string, dst *time.Duration) {
		if v, ok := lookup(envPrefix + name); ok && v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", envPrefix, name, err))
				return
			}
			*dst = d
		}
	}

	str("HTTP_ADDR", &config.EndpointAddrHTTP)
	str("GRPC_ADDR", &config.EndpointAddrGRPC)
	str("DATABASE_DSN", &config.DatabaseDSN)
	boolean("MEMORY_STORE", &config.UseMemoryStore)
	str("JWT_KEY", &config.SigningKey)
	str("JWT_ISSUER", &config.TokenIssuer)
	str("JWT_AUDIENCE", &config.TokenAudience)
	integer("RATE_LIMIT", &config.RateLimitPerMinute)
	duration("SHUTDOWN_TIMEOUT", &config.ShutdownTimeout)
	str("LOG_LEVEL", &config.LogLevel)

	boolean("AUDIT_S3_ENABLED", &config.AuditS3Enabled)
	str("AUDIT_S3_PREFIX", &config.AuditS3Prefix)
	integer("AUDIT_BATCH_SIZE", &config.AuditBatchSize)
	duration("AUDIT_FLUSH_INTERVAL", &config.AuditFlushInterval)
	str("S3_ACCESS_KEY", &config.S3AccessKey)
	str("S3_SECRET_KEY", &config.S3SecretKey)
	str("S3_BUCKET", &config.S3Bucket)
	str("S3_REGION", &config.S3Region)
	str("S3_ENDPOINT", &config.S3BaseEndpoint)

	return errors.Join(errs...)
}
