package store

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Listen         string `yaml:"listen"`
	CallTimeoutSec int    `yaml:"call_timeout_seconds"`

	Terminal struct {
		Backend    string `yaml:"backend"` // MT5 or KITE
		GatewayURL string `yaml:"gateway_url"`
		Exchange   string `yaml:"exchange"`
	} `yaml:"terminal"`

	Resolver struct {
		StripUSDT *bool `yaml:"strip_usdt"`
	} `yaml:"resolver"`

	History struct {
		Backend string `yaml:"backend"` // FILE or REDIS
		Dir     string `yaml:"dir"`
		Redis   struct {
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Prefix   string `yaml:"prefix"`
		} `yaml:"redis"`
	} `yaml:"history"`

	Trade struct {
		Magic          int    `yaml:"magic"`
		Comment        string `yaml:"comment"`
		DefaultFilling string `yaml:"default_filling"` // FOK or RETURN
	} `yaml:"trade"`
}

// StripUSDT reports whether tickers ending in USDT are rewritten to USD
// before symbol resolution. Defaults to true; broker feeds list crypto
// pairs against USD while charting callers send exchange-style USDT pairs.
func (c *Config) StripUSDT() bool {
	if c.Resolver.StripUSDT == nil {
		return true
	}
	return *c.Resolver.StripUSDT
}

func (c *Config) Validate() error {
	switch c.Terminal.Backend {
	case "MT5", "KITE":
	default:
		return fmt.Errorf("unknown terminal backend %q", c.Terminal.Backend)
	}
	if c.Terminal.Backend == "MT5" && c.Terminal.GatewayURL == "" {
		return errors.New("terminal.gateway_url is required for the MT5 backend")
	}
	switch c.History.Backend {
	case "FILE", "REDIS":
	default:
		return fmt.Errorf("unknown history backend %q", c.History.Backend)
	}
	if c.History.Backend == "REDIS" && c.History.Redis.Addr == "" {
		return errors.New("history.redis.addr is required for the REDIS backend")
	}
	if c.CallTimeoutSec < 0 {
		return errors.New("call_timeout_seconds must not be negative")
	}
	return nil
}

func LoadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}

	if c.Listen == "" {
		c.Listen = "127.0.0.1:5000"
	}
	if c.CallTimeoutSec == 0 {
		c.CallTimeoutSec = 30
	}
	if c.Terminal.Backend == "" {
		c.Terminal.Backend = "MT5"
	}
	if c.Terminal.GatewayURL == "" && c.Terminal.Backend == "MT5" {
		c.Terminal.GatewayURL = "http://127.0.0.1:5050"
	}
	if c.History.Backend == "" {
		c.History.Backend = "FILE"
	}
	if c.History.Dir == "" {
		c.History.Dir = "history_cache"
	}
	if c.History.Redis.Prefix == "" {
		c.History.Redis.Prefix = "graphist:"
	}
	if c.Trade.Magic == 0 {
		c.Trade.Magic = 2026
	}
	if c.Trade.Comment == "" {
		c.Trade.Comment = "Pro Analyst Trade"
	}
	if c.Trade.DefaultFilling == "" {
		c.Trade.DefaultFilling = "FOK"
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &c, nil
}
