package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"MarketBrief/internal/model"
)

// Config holds all application configuration.
type Config struct {
	Log struct {
		Level      string `yaml:"level" default:"info" validate:"oneof=trace debug info warn error"`
		Format     string `yaml:"format" default:"console" validate:"oneof=json console"`
		Output     string `yaml:"output" default:"stdout"`
		MaxSizeMB  int    `yaml:"max_size_mb" default:"100"`
		MaxBackups int    `yaml:"max_backups" default:"5"`
		MaxAgeDays int    `yaml:"max_age_days" default:"30"`
	} `yaml:"log"`
	Cache struct {
		Backend      string        `yaml:"backend" default:"file" validate:"oneof=file sqlite redis memory"`
		Dir          string        `yaml:"dir" default:"data/cache"`
		Path         string        `yaml:"path" default:"data/cache.db"`
		Redis        RedisConfig   `yaml:"redis"`
		FetchTimeout time.Duration `yaml:"fetch_timeout" default:"30s" validate:"gt=0"`
	} `yaml:"cache"`
	OpenAI struct {
		APIKey      string        `yaml:"api_key"`
		BaseURL     string        `yaml:"base_url"`
		Model       string        `yaml:"model" default:"gpt-4o"`
		MaxTokens   int           `yaml:"max_tokens" default:"4000" validate:"gt=0"`
		Temperature float32       `yaml:"temperature" default:"1" validate:"gte=0,lte=2"`
		Timeout     time.Duration `yaml:"timeout" default:"2m" validate:"gt=0"`
		CacheTTL    time.Duration `yaml:"cache_ttl" default:"24h" validate:"gt=0"`
	} `yaml:"openai"`
	Binance struct {
		APIKey     string `yaml:"api_key"`
		SecretKey  string `yaml:"secret_key"`
		BaseURL    string `yaml:"base_url"`
		FuturesURL string `yaml:"futures_url"`
		Depth      int    `yaml:"depth" default:"20" validate:"gt=0,lte=1000"`
	} `yaml:"binance"`
	AlphaVantage struct {
		APIKey string `yaml:"api_key"`
	} `yaml:"alpha_vantage"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Schedule struct {
		DailyCron string `yaml:"daily_cron" default:"0 0 8 * * *" validate:"required"`
	} `yaml:"schedule"`
	Market struct {
		Workers int           `yaml:"workers" default:"4" validate:"gte=1,lte=32"`
		Timeout time.Duration `yaml:"timeframe_timeout" default:"1m" validate:"gt=0"`
	} `yaml:"market"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path" default:"data/marketbrief.db"`
	} `yaml:"database"`
	Metrics struct {
		Addr string `yaml:"addr" default:":9090"`
	} `yaml:"metrics"`
	Assets []AssetConfig `yaml:"assets" validate:"dive"`
	Proxy  string        `yaml:"proxy"`
}

// RedisConfig selects the Redis server of the redis cache backend.
type RedisConfig struct {
	Addr     string `yaml:"addr" default:"localhost:6379"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix" default:"marketbrief"`
}

// AssetConfig is one entry of the analysed asset table.
type AssetConfig struct {
	Name   string `yaml:"name" validate:"required"`
	Ticker string `yaml:"ticker" validate:"required"`
	Class  string `yaml:"class" validate:"omitempty,oneof=equity macro crypto"`
	Group  string `yaml:"group" validate:"omitempty,oneof=macro trade"`
}

var validate = validator.New()

// Load reads .env, then the YAML file, fills defaults and applies
// environment variable overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{}
	if err := defaults.Set(cfg); err != nil {
		return nil, fmt.Errorf("set defaults: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(cfg)

	if len(cfg.Assets) == 0 {
		cfg.Assets = DefaultAssets()
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	set := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	set("OPENAI_API_KEY", &cfg.OpenAI.APIKey)
	set("OPENAI_MODEL", &cfg.OpenAI.Model)
	set("ALPHA_VANTAGE_API_KEY", &cfg.AlphaVantage.APIKey)
	set("BINANCE_API_KEY", &cfg.Binance.APIKey)
	set("BINANCE_SECRET_KEY", &cfg.Binance.SecretKey)
	set("TELEGRAM_BOT_TOKEN", &cfg.Telegram.BotToken)
	set("TELEGRAM_CHAT_ID", &cfg.Telegram.ChatID)
	set("CACHE_BACKEND", &cfg.Cache.Backend)
	set("CACHE_DIR", &cfg.Cache.Dir)
	set("REDIS_ADDR", &cfg.Cache.Redis.Addr)
	set("REDIS_PASSWORD", &cfg.Cache.Redis.Password)
	set("HTTPS_PROXY", &cfg.Proxy)
	set("LOG_LEVEL", &cfg.Log.Level)
	set("CRON_DAILY", &cfg.Schedule.DailyCron)
	set("SQLITE_PATH", &cfg.Database.SQLitePath)
	set("METRICS_ADDR", &cfg.Metrics.Addr)
	if v := os.Getenv("MARKET_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Market.Workers = n
		}
	}
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			e := verrs[0]
			return fmt.Errorf("config: %s failed %q (value %v)", e.Namespace(), e.Tag(), e.Value())
		}
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// RequireAnalysis checks the settings needed to call the language model.
func (c *Config) RequireAnalysis() error {
	if c.OpenAI.APIKey == "" {
		return errors.New("openai.api_key is required")
	}
	return nil
}

// RequireTelegram checks the settings needed to deliver briefs.
func (c *Config) RequireTelegram() error {
	if c.Telegram.BotToken == "" {
		return errors.New("telegram.bot_token is required")
	}
	if c.Telegram.ChatID == "" {
		return errors.New("telegram.chat_id is required")
	}
	return nil
}

// AssetTable converts the configured assets. A missing class is inferred
// from the ticker and a missing group defaults to trade.
func (c *Config) AssetTable() []model.Asset {
	out := make([]model.Asset, 0, len(c.Assets))
	for _, a := range c.Assets {
		asset := model.Asset{
			Name:   a.Name,
			Ticker: a.Ticker,
			Class:  model.AssetClass(a.Class),
			Group:  model.AssetGroup(a.Group),
		}
		if asset.Class == "" {
			asset.Class = model.ClassOf(a.Ticker)
		}
		if asset.Group == "" {
			asset.Group = model.GroupTrade
		}
		out = append(out, asset)
	}
	return out
}
