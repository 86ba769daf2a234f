package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/flagx"
)

// Config holds runtime settings for the authkeeper CLI.
type Config struct {
	ServerEndpointAddr string
	RequestTimeout     time.Duration
	TokenFile          string
}

const tokenFileName = ".authkeeper_token"

// LoadDefaults populates c with sensible defaults. The token file lives in
// the user's home directory, or the working directory when that is unknown.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.RequestTimeout = 5 * time.Second

	c.TokenFile = tokenFileName
	if home, err := os.UserHomeDir(); err == nil {
		c.TokenFile = filepath.Join(home, tokenFileName)
	}
}

// LoadConfig builds a Config from defaults, the JSON file and then args.
func LoadConfig(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseJson(cfg, flagx.ConfigFile()); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	return cfg, nil
}
