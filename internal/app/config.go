package app

import (
	"fmt"

	coreconfig "github.com/m3rciful/menubot/core/config"
	"github.com/m3rciful/menubot/internal/menu"
)

// Config is the full bot configuration: the core sections inline plus the
// menu content.
type Config struct {
	coreconfig.Config `yaml:",inline"`
	Menu              menu.Config `yaml:"menu"`
}

// CoreConfig returns the embedded core configuration.
func (c *Config) CoreConfig() *coreconfig.Config {
	return &c.Config
}

// LoadConfig reads path, applies .env and environment overrides and
// validates every section.
func LoadConfig(path string) (*Config, error) {
	var cfg Config
	if err := coreconfig.LoadInto(path, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize fills defaults and validates both the core and menu sections.
func (c *Config) Normalize() error {
	if err := coreconfig.Normalize(&c.Config); err != nil {
		return err
	}
	if err := c.Menu.Normalize(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}
