package http

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadServerConfig reads server settings from a YAML file, filling unset
// fields from the defaults. A missing file yields the defaults.
func LoadServerConfig(path string) (ServerConfig, error) {
	config := DefaultServerConfig()
	if path == "" {
		return config, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil
		}
		return config, fmt.Errorf("failed to read server config %s: %w", path, err)
	}

	var file struct {
		Server ServerConfig `yaml:"server"`
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return config, fmt.Errorf("failed to parse server config %s: %w", path, err)
	}

	if file.Server.Host != "" {
		config.Host = file.Server.Host
	}
	if file.Server.Port != 0 {
		config.Port = file.Server.Port
	}
	if file.Server.ReadTimeout != 0 {
		config.ReadTimeout = file.Server.ReadTimeout
	}
	if file.Server.WriteTimeout != 0 {
		config.WriteTimeout = file.Server.WriteTimeout
	}
	if file.Server.IdleTimeout != 0 {
		config.IdleTimeout = file.Server.IdleTimeout
	}
	if file.Server.RateLimit != 0 {
		config.RateLimit = file.Server.RateLimit
	}
	if file.Server.RateBurst != 0 {
		config.RateBurst = file.Server.RateBurst
	}

	return config, nil
}
