// Package config extends the core configuration with storage and content
// settings of the bot.
package config

import (
	"fmt"
	"strings"

	"github.com/m3rciful/polbot/bot/service"
	coreconfig "github.com/m3rciful/polbot/core/config"
	"github.com/m3rciful/polbot/core/storage"
)

// ContentConfig holds defaults for content created through the admin flow.
type ContentConfig struct {
	DefaultFileOrg string `yaml:"default_file_org" envconfig:"CONTENT_DEFAULT_FILE_ORG"`
}

// Config is the full bot configuration.
type Config struct {
	coreconfig.Config `yaml:",inline"`

	Storage storage.Config `yaml:"storage"`
	Content ContentConfig  `yaml:"content"`
}

// CoreConfig exposes the embedded core section.
func (c *Config) CoreConfig() *coreconfig.Config {
	if c == nil {
		return nil
	}
	return &c.Config
}

// Load reads path, applies environment overrides and normalizes the result.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := coreconfig.Load(path, &cfg); err != nil {
		return nil, err
	}
	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize validates every section and fills defaults.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}
	if err := coreconfig.Normalize(&cfg.Config); err != nil {
		return err
	}
	if err := cfg.Storage.Normalize(); err != nil {
		return err
	}
	cfg.Content.DefaultFileOrg = strings.TrimSpace(cfg.Content.DefaultFileOrg)
	if cfg.Content.DefaultFileOrg == "" {
		cfg.Content.DefaultFileOrg = service.DefaultFileOrganization
	}
	return nil
}
