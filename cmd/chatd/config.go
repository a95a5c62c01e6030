package main

import (
	"fmt"
	"time"

	"github.com/kbukum/chatstream/config"
	"github.com/kbukum/chatstream/llm"
	"github.com/kbukum/chatstream/observability"
	"github.com/kbukum/chatstream/server"
	"github.com/kbukum/chatstream/util"
	"github.com/kbukum/chatstream/validation"
	"github.com/kbukum/chatstream/version"
)

const serviceName = "chatd"

// Config is the chatd configuration, loaded from config.yml, .env and
// CHATD_* environment variables.
type Config struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Provider  llm.ProviderConfig   `yaml:"provider" mapstructure:"provider"`
	Server    server.Config        `yaml:"server" mapstructure:"server"`
	Telemetry observability.Config `yaml:"telemetry" mapstructure:"telemetry"`
	Chat      ChatConfig           `yaml:"chat" mapstructure:"chat"`
}

// ChatConfig bounds what clients may send.
type ChatConfig struct {
	// MaxMessageLength is the maximum user message length in characters.
	MaxMessageLength int `yaml:"max_message_length" mapstructure:"max_message_length"`
	// ExchangeTimeout bounds one exchange end to end. 0 means no limit
	// beyond the client connection.
	ExchangeTimeout time.Duration `yaml:"exchange_timeout" mapstructure:"exchange_timeout"`
	// EventKeepAlive is the interval between keep-alive comments on
	// /v1/events streams.
	EventKeepAlive time.Duration `yaml:"event_keep_alive" mapstructure:"event_keep_alive"`
}

var defaults = map[string]any{
	"name":              serviceName,
	"provider.base_url": "http://localhost:11434",
	"provider.model":    "qwen2.5:7b",
	"provider.dialect":  llm.DialectNative,

	"telemetry.sample_rate": 1.0,
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	c.ServiceConfig.ApplyDefaults()
	if c.Version == "" {
		c.Version = version.Short()
	}
	c.Server.ApplyDefaults()

	c.Telemetry.ServiceName = util.Coalesce(c.Telemetry.ServiceName, c.Name)
	c.Telemetry.ServiceVersion = util.Coalesce(c.Telemetry.ServiceVersion, c.Version)
	c.Telemetry.Environment = util.Coalesce(c.Telemetry.Environment, c.Environment)
	c.Telemetry.ApplyDefaults()

	if c.Chat.MaxMessageLength == 0 {
		c.Chat.MaxMessageLength = 32000
	}
	if c.Chat.EventKeepAlive == 0 {
		c.Chat.EventKeepAlive = 30 * time.Second
	}
}

// Validate checks every section.
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
	if err := c.Server.Validate(); err != nil {
		return err
	}
	if err := c.Telemetry.Validate(); err != nil {
		return err
	}
	if c.Chat.MaxMessageLength < 0 || c.Chat.ExchangeTimeout < 0 || c.Chat.EventKeepAlive < 0 {
		return fmt.Errorf("config.chat: limits must be non-negative")
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
