package commands

import (
	"io"
	"os"

	"github.com/dns-browser/dns-browser/src/internal/config"
	domainerrors "github.com/dns-browser/dns-browser/src/internal/errors"
)

type Runner interface {
	Init(args []string, globalArgs *AppContext) error
	Run() error
	Name() string
}

type AppContext struct {
	ConfigPath string
	Verbose    bool
	// Stdout receives command output. Defaults to os.Stdout.
	Stdout io.Writer
}

func (c *AppContext) stdout() io.Writer {
	if c.Stdout == nil {
		return os.Stdout
	}
	return c.Stdout
}

// loadAndValidateConfigOrFail loads configuration from file and validates it.
// A missing file is created with the default DNS server list.
func loadAndValidateConfigOrFail(configPath string) (*config.Config, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, domainerrors.NewConfigError("failed to load configuration", err)
	}

	if err := cfg.ValidateConfig(); err != nil {
		return nil, domainerrors.NewConfigError("configuration validation failed", err)
	}

	return cfg, nil
}
