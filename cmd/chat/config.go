package main

import (
	"fmt"

	"github.com/kbukum/chatstream/config"
	"github.com/kbukum/chatstream/llm"
	"github.com/kbukum/chatstream/validation"
)

const serviceName = "chat"

// Config is the REPL configuration, loaded from config.yml, .env and
// CHAT_* environment variables.
type Config struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Provider llm.ProviderConfig `yaml:"provider" mapstructure:"provider"`
}

var defaults = map[string]any{
	"name":              serviceName,
	"provider.base_url": "http://localhost:11434",
	"provider.model":    "qwen2.5:7b",
	"provider.dialect":  llm.DialectNative,
	// Logs share the terminal with the conversation.
	"logging.level": "warn",
}

// Validate checks the service and provider sections.
func (c *Config) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if err := validation.Validate(c.Provider); err != nil {
		return fmt.Errorf("config.provider: %w", err)
	}
	if _, err := llm.GetDialect(c.Provider.Dialect); err != nil {
		return fmt.Errorf("config.provider: %w", err)
	}
	return nil
}

func loadConfig(args []string) (*Config, error) {
	opts, err := config.ParseFlags(serviceName, args)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := config.LoadConfig(serviceName, &cfg, append(opts, config.WithDefaults(defaults))...); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
