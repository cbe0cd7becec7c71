package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"GoldMirror/internal/model"
	"GoldMirror/internal/strategy"
)

// Config holds all application configuration.
type Config struct {
	Symbols struct {
		Benchmark string   `yaml:"benchmark"`
		Stock     string   `yaml:"stock"`
		Watchlist []string `yaml:"watchlist"`
	} `yaml:"symbols"`
	DataSource struct {
		BaseURL string `yaml:"base_url"`
		APIKey  string `yaml:"api_key"`
		Months  int    `yaml:"months"`
	} `yaml:"data_source"`
	Strategy   strategy.Params         `yaml:"strategy"`
	Similarity model.SimilarityWeights `yaml:"similarity"`
	Schedule   struct {
		DailyCron string `yaml:"daily_cron"`
	} `yaml:"schedule"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
		AuthPath   string `yaml:"auth_path"`
	} `yaml:"database"`
	Server struct {
		Listen string `yaml:"listen"`
	} `yaml:"server"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable
// overrides and defaults.
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
	if v := os.Getenv("QUOTE_BASE_URL"); v != "" {
		cfg.DataSource.BaseURL = v
	}
	if v := os.Getenv("QUOTE_API_KEY"); v != "" {
		cfg.DataSource.APIKey = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("CRON_DAILY"); v != "" {
		cfg.Schedule.DailyCron = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		cfg.Server.Listen = v
	}
	if v := os.Getenv("BASE_INVESTMENT"); v != "" {
		var amount float64
		if _, err := fmt.Sscanf(v, "%f", &amount); err == nil {
			cfg.Strategy.BaseInvestment = amount
		}
	}

	// Defaults
	if cfg.Symbols.Benchmark == "" {
		cfg.Symbols.Benchmark = "XAU"
	}
	if cfg.Symbols.Stock == "" {
		cfg.Symbols.Stock = "002155"
	}
	if cfg.DataSource.Months == 0 {
		cfg.DataSource.Months = 3
	}
	if cfg.Schedule.DailyCron == "" {
		cfg.Schedule.DailyCron = "0 0 8 * * 1-5"
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/goldmirror.db"
	}
	if cfg.Database.AuthPath == "" {
		cfg.Database.AuthPath = "data/auth.db"
	}
	if cfg.Server.Listen == "" {
		cfg.Server.Listen = ":8888"
	}
	if (cfg.Strategy == strategy.Params{}) {
		cfg.Strategy = strategy.DefaultParams()
	}
	if (cfg.Similarity == model.SimilarityWeights{}) {
		cfg.Similarity = model.DefaultWeights()
	}

	return cfg, nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Symbols.Benchmark == "" || c.Symbols.Stock == "" {
		return fmt.Errorf("symbols.benchmark and symbols.stock are required")
	}
	if c.DataSource.Months <= 0 {
		return fmt.Errorf("data_source.months must be positive")
	}
	if err := c.Strategy.Validate(); err != nil {
		return fmt.Errorf("strategy: %w", err)
	}
	sum := c.Similarity.Correlation + c.Similarity.Trend + c.Similarity.Volatility +
		c.Similarity.Pattern + c.Similarity.Volume
	if sum <= 0 {
		return fmt.Errorf("similarity weights must sum to a positive value")
	}
	return nil
}
