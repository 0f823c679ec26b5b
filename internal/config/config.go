package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	DataSource struct {
		Provider     string `yaml:"provider"` // "yahoo" or "alpaca"
		AlpacaKey    string `yaml:"alpaca_key"`
		AlpacaSecret string `yaml:"alpaca_secret"`
		AlpacaURL    string `yaml:"alpaca_url"`
	} `yaml:"data_source"`
	Strategy struct {
		Preset         string  `yaml:"preset"` // conservative / balanced / aggressive
		InitialCapital float64 `yaml:"initial_capital"`
		MaxPositions   int     `yaml:"max_positions"`
		MaxHoldingDays int     `yaml:"max_holding_days"`
		CashFloor      float64 `yaml:"cash_floor"`
	} `yaml:"strategy"`
	Scan struct {
		IntervalMinutes int      `yaml:"interval_minutes"`
		MaxStocks       int      `yaml:"max_stocks"`
		Symbols         []string `yaml:"symbols"`
	} `yaml:"scan"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("ALPACA_API_KEY"); v != "" {
		cfg.DataSource.AlpacaKey = v
	}
	if v := os.Getenv("ALPACA_API_SECRET"); v != "" {
		cfg.DataSource.AlpacaSecret = v
	}
	if v := os.Getenv("BNF_PRESET"); v != "" {
		cfg.Strategy.Preset = v
	}
	if v := os.Getenv("BNF_INITIAL_CAPITAL"); v != "" {
		if capital, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Strategy.InitialCapital = capital
		}
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}

	// Defaults
	if cfg.DataSource.Provider == "" {
		cfg.DataSource.Provider = "yahoo"
	}
	if cfg.Strategy.Preset == "" {
		cfg.Strategy.Preset = "balanced"
	}
	if cfg.Strategy.InitialCapital == 0 {
		cfg.Strategy.InitialCapital = 10000
	}
	if cfg.Strategy.MaxPositions == 0 {
		cfg.Strategy.MaxPositions = 10
	}
	if cfg.Strategy.MaxHoldingDays == 0 {
		cfg.Strategy.MaxHoldingDays = 3
	}
	if cfg.Strategy.CashFloor == 0 {
		cfg.Strategy.CashFloor = 1000
	}
	if cfg.Scan.IntervalMinutes == 0 {
		cfg.Scan.IntervalMinutes = 5
	}
	if cfg.Scan.MaxStocks == 0 {
		cfg.Scan.MaxStocks = 20
	}

	return cfg, nil
}

// Validate checks the strategy-level settings. A failure here is the only
// fatal error category; everything else degrades per symbol.
func (c *Config) Validate() error {
	if _, err := ResolvePreset(c.Strategy.Preset); err != nil {
		return err
	}
	if c.Strategy.InitialCapital <= 0 {
		return fmt.Errorf("strategy.initial_capital must be positive, got %.2f", c.Strategy.InitialCapital)
	}
	if c.Strategy.MaxPositions <= 0 {
		return fmt.Errorf("strategy.max_positions must be positive, got %d", c.Strategy.MaxPositions)
	}
	if c.Strategy.MaxHoldingDays <= 0 {
		return fmt.Errorf("strategy.max_holding_days must be positive, got %d", c.Strategy.MaxHoldingDays)
	}
	if c.DataSource.Provider != "yahoo" && c.DataSource.Provider != "alpaca" {
		return fmt.Errorf("data_source.provider must be yahoo or alpaca, got %q", c.DataSource.Provider)
	}
	return nil
}

// ValidateTelegram checks the fields required by the monitor command.
func (c *Config) ValidateTelegram() error {
	if c.Telegram.BotToken == "" {
		return fmt.Errorf("telegram.bot_token is required")
	}
	if c.Telegram.ChatID == "" {
		return fmt.Errorf("telegram.chat_id is required")
	}
	return nil
}
