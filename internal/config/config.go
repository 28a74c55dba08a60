package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"StockAssistant/internal/retry"
)

// Supported backends.
const (
	LLMOpenAI = "openai"
	LLMGemini = "gemini"

	MarketYahoo     = "yahoo"
	MarketFinanceGo = "financego"
	MarketREST      = "rest"
)

// StagePolicy is the retry policy of one pipeline stage.
type StagePolicy struct {
	Retries      int           `yaml:"retries"`
	Timeout      time.Duration `yaml:"timeout"`
	InitialDelay time.Duration `yaml:"initial_delay"`
	MaxDelay     time.Duration `yaml:"max_delay"`
}

// Policy converts the config section to a retry.Policy.
func (s StagePolicy) Policy() retry.Policy {
	return retry.Policy{
		Retries:         s.Retries,
		InitialInterval: s.InitialDelay,
		MaxInterval:     s.MaxDelay,
		Timeout:         s.Timeout,
	}
}

// Config holds all application configuration.
type Config struct {
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		Workers  int    `yaml:"workers"`
	} `yaml:"telegram"`
	LLM struct {
		Backend      string `yaml:"backend"`
		OpenAIAPIKey string `yaml:"openai_api_key"`
		GeminiAPIKey string `yaml:"gemini_api_key"`
		Model        string `yaml:"model"`
		BaseURL      string `yaml:"base_url"`
	} `yaml:"llm"`
	Market struct {
		Provider string `yaml:"provider"`
		BaseURL  string `yaml:"base_url"`
		APIKey   string `yaml:"api_key"`
	} `yaml:"market"`
	Resolver  StagePolicy `yaml:"resolver"`
	Collector StagePolicy `yaml:"collector"`
	Redis     struct {
		Addr     string        `yaml:"addr"`
		Password string        `yaml:"password"`
		DB       int           `yaml:"db"`
		TTL      time.Duration `yaml:"ttl"`
	} `yaml:"redis"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Recorder struct {
		RetentionDays int `yaml:"retention_days"`
	} `yaml:"recorder"`
	Schedule struct {
		RetentionCron string `yaml:"retention_cron"`
		DigestCron    string `yaml:"digest_cron"`
	} `yaml:"schedule"`
	HTTP struct {
		Addr string `yaml:"addr"`
	} `yaml:"http"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	cfg.Resolver.Retries = -1
	cfg.Collector.Retries = -1

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
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.LLM.OpenAIAPIKey = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		cfg.LLM.GeminiAPIKey = v
	}
	if v := os.Getenv("LLM_BACKEND"); v != "" {
		cfg.LLM.Backend = v
	}
	if v := os.Getenv("MARKET_PROVIDER"); v != "" {
		cfg.Market.Provider = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		cfg.HTTP.Addr = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("TELEGRAM_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Telegram.Workers = n
		}
	}

	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Telegram.Workers <= 0 {
		c.Telegram.Workers = 8
	}
	if c.LLM.Backend == "" {
		c.LLM.Backend = LLMOpenAI
	}
	if c.Market.Provider == "" {
		c.Market.Provider = MarketYahoo
	}
	defaultStage(&c.Resolver, 2)
	defaultStage(&c.Collector, 3)
	if c.Redis.TTL == 0 {
		c.Redis.TTL = 30 * time.Second
	}
	if c.Database.SQLitePath == "" {
		c.Database.SQLitePath = "data/stock_assistant.db"
	}
	if c.Recorder.RetentionDays == 0 {
		c.Recorder.RetentionDays = 30
	}
	if c.Schedule.RetentionCron == "" {
		c.Schedule.RetentionCron = "0 30 3 * * *"
	}
	if c.Schedule.DigestCron == "" {
		c.Schedule.DigestCron = "0 0 9 * * *"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
}

// A negative retries value marks "unset"; an explicit 0 disables retries.
func defaultStage(s *StagePolicy, retries int) {
	if s.Retries < 0 {
		s.Retries = retries
	}
	if s.Timeout == 0 {
		s.Timeout = 5 * time.Second
	}
	if s.InitialDelay == 0 {
		s.InitialDelay = 500 * time.Millisecond
	}
	if s.MaxDelay == 0 {
		s.MaxDelay = 4 * time.Second
	}
}

// APIKey returns the key for the selected LLM backend.
func (c *Config) APIKey() string {
	if c.LLM.Backend == LLMGemini {
		return c.LLM.GeminiAPIKey
	}
	return c.LLM.OpenAIAPIKey
}

// Validate checks that the fields needed to answer queries are set.
func (c *Config) Validate() error {
	switch c.LLM.Backend {
	case LLMOpenAI, LLMGemini:
	default:
		return fmt.Errorf("llm.backend %q is not supported", c.LLM.Backend)
	}
	if c.APIKey() == "" {
		return fmt.Errorf("llm.%s_api_key is required", c.LLM.Backend)
	}
	switch c.Market.Provider {
	case MarketYahoo, MarketFinanceGo:
	case MarketREST:
		if c.Market.BaseURL == "" {
			return fmt.Errorf("market.base_url is required for the rest provider")
		}
	default:
		return fmt.Errorf("market.provider %q is not supported", c.Market.Provider)
	}
	if c.Telegram.Workers <= 0 {
		return fmt.Errorf("telegram.workers must be positive")
	}
	return nil
}

// ValidateServe additionally requires the chat transport credentials.
func (c *Config) ValidateServe() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Telegram.BotToken == "" {
		return fmt.Errorf("telegram.bot_token is required")
	}
	return nil
}
