package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestParseJson_Overlay(t *testing.T) {
	p := writeFile(t, `{
		"endpoint_addr_http": ":7000",
		"signing_key": "file-key-file-key-file-key-file-key",
		"use_memory_store": true,
		"rate_limit_per_minute": 0,
		"shutdown_timeout": "2s",
		"audit_flush_interval": 5000000000,
		"s3_bucket": "from-file"
	}`)

	var c Config
	c.LoadDefaults()
	require.NoError(t, parseJson(&c, p))

	assert.Equal(t, ":7000", c.EndpointAddrHTTP)
	assert.Equal(t, ":50051", c.EndpointAddrGRPC)
	assert.Equal(t, "file-key-file-key-file-key-file-key", c.SigningKey)
	assert.True(t, c.UseMemoryStore)
	assert.Equal(t, 0, c.RateLimitPerMinute)
	assert.Equal(t, 2*time.Second, c.ShutdownTimeout)
	assert.Equal(t, 5*time.Second, c.AuditFlushInterval)
	assert.Equal(t, "from-file", c.S3Bucket)
	assert.Equal(t, "us-east-1", c.S3Region)
}

func TestParseJson_EmptyPath(t *testing.T) {
	var c Config
	c.LoadDefaults()
	require.NoError(t, parseJson(&c, ""))
	assert.Equal(t, ":8080", c.EndpointAddrHTTP)
}

func TestParseJson_Errors(t *testing.T) {
	var c Config
	assert.Error(t, parseJson(&c, filepath.Join(t.TempDir(), "nope.json")))
	assert.Error(t, parseJson(&c, writeFile(t, `{"shutdown_timeout": "forever"}`)))
	assert.Error(t, parseJson(&c, writeFile(t, `{`)))
}
