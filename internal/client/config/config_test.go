package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, "127.0.0.1:50051", c.ServerEndpointAddr)
	assert.Equal(t, 5*time.Second, c.RequestTimeout)
	assert.Equal(t, tokenFileName, filepath.Base(c.TokenFile))
}

func TestLoadConfig_FlagsOverrideDefaults(t *testing.T) {
	cfg, err := LoadConfig([]string{"login", "-a", "10.0.0.1:7000"})
	require.NoError(t, err)

	assert.Equal(t, "10.0.0.1:7000", cfg.ServerEndpointAddr)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
}

func TestParseJson(t *testing.T) {
	path := filepath.Join(t.TempDir(), "client.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"server_endpoint_addr":"h:1","request_timeout":"2s"}`), 0o600))

	var c Config
	c.LoadDefaults()
	tokenFile := c.TokenFile

	require.NoError(t, parseJson(&c, path))
	assert.Equal(t, "h:1", c.ServerEndpointAddr)
	assert.Equal(t, 2*time.Second, c.RequestTimeout)
	assert.Equal(t, tokenFile, c.TokenFile)
}

func TestParseJson_Errors(t *testing.T) {
	var c Config
	assert.NoError(t, parseJson(&c, ""))
	assert.Error(t, parseJson(&c, filepath.Join(t.TempDir(), "missing.json")))

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{"), 0o600))
	assert.Error(t, parseJson(&c, bad))
}
