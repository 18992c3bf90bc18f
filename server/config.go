package server

import (
	"fmt"

	"github.com/BurntSushi/toml"

	"github.com/flyvis/ngffview/ngffview"
	"github.com/flyvis/ngffview/source"
)

const (
	// DefaultWebAddress is the default address of the tile web server.
	DefaultWebAddress = "localhost:8000"
)

type localConfig struct {
	HTTPAddress string   `toml:"httpAddress"`
	CORSOrigins []string `toml:"corsOrigins"`
}

// Config is the TOML server configuration.
type Config struct {
	Server  localConfig
	Logging ngffview.LogConfig
	Source  sourceConfig
}

type sourceConfig struct {
	// Ref is the pyramid source root: a bucket URL or http(s) base URL.
	Ref string `toml:"ref"`

	source.Config
}

// LoadConfig loads the server configuration from a TOML file.
func LoadConfig(filename string) (*Config, error) {
	if filename == "" {
		return nil, fmt.Errorf("no server TOML configuration file provided")
	}
	var c Config
	if _, err := toml.DecodeFile(filename, &c); err != nil {
		return nil, fmt.Errorf("could not decode TOML config: %v", err)
	}
	if c.Server.HTTPAddress == "" {
		c.Server.HTTPAddress = DefaultWebAddress
	}
	if c.Source.Ref == "" {
		return nil, fmt.Errorf("config must set source.ref to the pyramid root")
	}
	return &c, nil
}
