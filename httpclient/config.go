package httpclient

import (
	"fmt"
	"time"
)

const (
	defaultDialTimeout = 30 * time.Second
)

// Config configures the HTTP client.
//
// There is no overall request timeout: streamed responses may legitimately
// stay open for minutes. Bound an exchange with the request context instead.
type Config struct {
	// DialTimeout bounds connection establishment. Defaults to 30s.
	DialTimeout time.Duration `yaml:"dial_timeout" mapstructure:"dial_timeout"`

	// ResponseHeaderTimeout bounds the wait for response headers after the
	// request is written. Zero means no limit.
	ResponseHeaderTimeout time.Duration `yaml:"response_header_timeout" mapstructure:"response_header_timeout"`

	// Headers are default headers applied to all requests.
	Headers map[string]string `yaml:"headers" mapstructure:"headers"`
}

// ApplyDefaults fills in zero-value fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.DialTimeout == 0 {
		c.DialTimeout = defaultDialTimeout
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.DialTimeout < 0 {
		return fmt.Errorf("httpclient: dial timeout must not be negative")
	}
	if c.ResponseHeaderTimeout < 0 {
		return fmt.Errorf("httpclient: response header timeout must not be negative")
	}
	return nil
}
