package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// AppConfig holds the main runtime configuration.
type AppConfig struct {
	Env         string           `yaml:"env"`
	Gateway     GatewayConfig    `yaml:"gateway"`
	Instrument  InstrumentConfig `yaml:"instrument"`
	Strategy    StrategyConfig   `yaml:"strategy"`
	Logging     LoggingConfig    `yaml:"logging"`
	MetricsAddr string           `yaml:"metricsAddr"` // empty disables the listener
}

type GatewayConfig struct {
	BaseURL   string  `yaml:"baseURL"`
	WSURL     string  `yaml:"wsURL"`
	User      string  `yaml:"user"`
	Password  string  `yaml:"password"`
	Account   string  `yaml:"account"`
	RestRate  float64 `yaml:"restRate"`  // tokens per second; 0 uses the default
	RestBurst int     `yaml:"restBurst"` // bucket size; 0 uses the default
}

// InstrumentConfig carries the static per-contract parameters. Reference
// data retrieval is out of scope; the values are supplied pre-validated.
type InstrumentConfig struct {
	Symbol         string  `yaml:"symbol"`
	TickSize       float64 `yaml:"tickSize"`
	PricePrecision int     `yaml:"pricePrecision"`
	MinPrice       float64 `yaml:"minPrice"`
	MaxPrice       float64 `yaml:"maxPrice"`
	Tolerance      float64 `yaml:"tolerance"`
}

type StrategyConfig struct {
	InitialSize      int64   `yaml:"initialSize"`      // contracts per side per cycle
	Spread           float64 `yaml:"spread"`           // static minimum-spread fallback
	SpreadWindow     int     `yaml:"spreadWindow"`     // sample history capacity
	ConfirmTimeoutMs int     `yaml:"confirmTimeoutMs"` // 0 disables the bound
}

type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json or console
}

// Load reads YAML config from path and applies basic validation.
func Load(path string) (AppConfig, error) {
	cfg, err := parse(path)
	if err != nil {
		return cfg, err
	}
	return cfg, Validate(cfg)
}

// LoadWithEnvOverrides loads config, overriding credentials from env vars if
// present. Validation runs after the overrides, so credentials may live only
// in the environment.
func LoadWithEnvOverrides(path string) (AppConfig, error) {
	cfg, err := parse(path)
	if err != nil {
		return cfg, err
	}
	if v := os.Getenv("MM_GATEWAY_USER"); v != "" {
		cfg.Gateway.User = v
	}
	if v := os.Getenv("MM_GATEWAY_PASSWORD"); v != "" {
		cfg.Gateway.Password = v
	}
	if v := os.Getenv("MM_GATEWAY_ACCOUNT"); v != "" {
		cfg.Gateway.Account = v
	}
	return cfg, Validate(cfg)
}

func parse(path string) (AppConfig, error) {
	var cfg AppConfig
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parse yaml: %w", err)
	}
	return cfg, nil
}

// Validate ensures required fields are present and sane.
func Validate(cfg AppConfig) error {
	if cfg.Env == "" {
		return errors.New("env is required")
	}
	if cfg.Gateway.BaseURL == "" || cfg.Gateway.WSURL == "" {
		return errors.New("gateway.baseURL/wsURL is required")
	}
	if cfg.Gateway.User == "" || cfg.Gateway.Password == "" {
		return errors.New("gateway.user/password is required (or env overrides)")
	}
	if cfg.Gateway.Account == "" {
		return errors.New("gateway.account is required")
	}
	i := cfg.Instrument
	if i.Symbol == "" {
		return errors.New("instrument.symbol is required")
	}
	if i.TickSize <= 0 {
		return fmt.Errorf("instrument %s tickSize must be > 0", i.Symbol)
	}
	if i.PricePrecision < 0 {
		return fmt.Errorf("instrument %s pricePrecision must be >= 0", i.Symbol)
	}
	if i.MinPrice < 0 || i.MaxPrice <= i.MinPrice {
		return fmt.Errorf("instrument %s price limits invalid", i.Symbol)
	}
	if i.Tolerance < 0 || i.Tolerance >= 1 {
		return fmt.Errorf("instrument %s tolerance must be in [0,1)", i.Symbol)
	}
	s := cfg.Strategy
	if s.InitialSize <= 0 {
		return errors.New("strategy.initialSize must be > 0")
	}
	if s.Spread <= 0 {
		return errors.New("strategy.spread must be > 0")
	}
	if s.SpreadWindow < 0 {
		return errors.New("strategy.spreadWindow must be >= 0")
	}
	if s.ConfirmTimeoutMs < 0 {
		return errors.New("strategy.confirmTimeoutMs must be >= 0")
	}
	return nil
}
