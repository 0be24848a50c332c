package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/dns-browser/dns-browser/src/internal/log"
)

// LoadConfig reads the configuration file. A missing file is created with the default DNS list.
func LoadConfig(configPath string) (*Config, error) {
	configFile := filepath.Clean(configPath)

	if !filepath.IsAbs(configFile) {
		if path, err := filepath.Abs(configFile); err != nil {
			return nil, fmt.Errorf("failed to get absolute path: %v", err)
		} else {
			configFile = path
		}
	}

	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		cfg := DefaultConfig()
		cfg._absConfigFilePath = configFile
		if err := os.MkdirAll(filepath.Dir(configFile), 0755); err != nil {
			return nil, fmt.Errorf("failed to create parent directory: %v", err)
		}
		if err := cfg.WriteConfig(); err != nil {
			return nil, fmt.Errorf("failed to write default config: %v", err)
		}
		log.Infof("Created default configuration: %s", configFile)
		return cfg, nil
	}

	content, err := os.ReadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %v", err)
	}

	var config Config
	if err := toml.Unmarshal(content, &config); err != nil {
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			log.Errorf("%s", derr.String())
			row, col := derr.Position()
			log.Errorf("Error at line %d, column %d", row, col)
			return nil, fmt.Errorf("failed to parse config file")
		}
		return nil, fmt.Errorf("failed to parse config file: %v", err)
	}

	if config.General == nil {
		config.General = DefaultConfig().General
	}
	config._absConfigFilePath = configFile

	log.Debugf("Configuration file path: %s", configFile)
	log.Debugf("Configured DNS servers: %d", len(config.DNSServers))

	return &config, nil
}

func (c *Config) SerializeConfig() (*bytes.Buffer, error) {
	buf := bytes.Buffer{}
	enc := toml.NewEncoder(&buf)
	enc.SetIndentTables(true)
	if err := enc.Encode(c); err != nil {
		return nil, err
	}
	return &buf, nil
}

// WriteConfig atomically replaces the configuration file.
func (c *Config) WriteConfig() error {
	if c._absConfigFilePath == "" {
		return fmt.Errorf("config file path is not set")
	}
	config, err := c.SerializeConfig()
	if err != nil {
		return err
	}
	tmp := c._absConfigFilePath + ".tmp"
	if err := os.WriteFile(tmp, config.Bytes(), 0644); err != nil {
		return err
	}
	return os.Rename(tmp, c._absConfigFilePath)
}

// SetDNSServers replaces the DNS server list. The caller validates and persists.
func (c *Config) SetDNSServers(entries []*DNSServerEntry) {
	servers := make([]*DNSServerEntry, 0, len(entries))
	for _, e := range entries {
		if e == nil {
			continue
		}
		servers = append(servers, &DNSServerEntry{Name: e.Name, Host: e.Host})
	}
	c.DNSServers = servers
}
