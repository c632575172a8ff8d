package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"forex-signal-bot/src/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultPairs is the pair list used when none is configured.
var DefaultPairs = []string{"EURUSD", "GBPUSD", "USDJPY", "AUDUSD", "USDCAD", "NZDUSD", "EURGBP", "EURJPY"}

var supportedTimeframes = map[string]bool{"5m": true, "15m": true, "4h": true}

// -----------------------------------------------------------------------------

// Config wraps models.MConfig and provides business logic methods
type Config struct {
	*models.MConfig
}

// -----------------------------------------------------------------------------

// Default returns the built-in configuration that a YAML file overlays.
func Default() *Config {
	engine := models.DefaultEngineConfig()
	return &Config{MConfig: &models.MConfig{
		Name:     "Forex Signal Bot",
		Host:     "0.0.0.0",
		Port:     8000,
		Log:      models.MLogConfig{Level: "INFO", File: "forex_bot.log", RecentHistory: 1000},
		GrpcHost: "127.0.0.1",
		GrpcPort: 50051,
		Storage: models.MStorageConfig{
			DBType:            "sqlite",
			DBPath:            "forex_bot.db",
			SessionTTLMinutes: 60,
		},
		Network: models.MNetworkConfig{RequestTimeout: 30, MaxRetries: 2},
		DataSource: models.MDataSourceConfig{
			Sources:         []models.MSourceConfig{{Name: "yahoo", Type: "yahoo"}},
			CacheTTLSeconds: 60,
			CacheMaxEntries: 256,
		},
		Risk:       engine.Risk,
		Thresholds: engine.Thresholds,
		Analysis: models.MAnalysisConfig{
			MinBars:               engine.MinBars,
			Timeframes:            []string{"5m", "15m", "4h"},
			BatchWorkers:          4,
			RequestTimeoutSeconds: 60,
		},
		Telegram: models.MTelegramConfig{
			APIBaseURL:         "https://api.telegram.org",
			PollTimeoutSeconds: 30,
			Pairs:              append([]string(nil), DefaultPairs...),
		},
	}}
}

// -----------------------------------------------------------------------------

// LoadDotEnv loads KEY=VALUE files into the process environment. Missing
// files are skipped; variables already set win.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load env file '%s': %w", p, err)
		}
	}
	return nil
}

// -----------------------------------------------------------------------------

// NewConfig reads the YAML file over the defaults, applies environment
// overrides and validates the result.
func NewConfig(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", configPath, err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config.MConfig); err != nil {
		return nil, fmt.Errorf("failed to parse config from YAML: %w", err)
	}

	if err := config.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// -----------------------------------------------------------------------------

// ApplyEnv overlays environment variables. lookup is os.LookupEnv outside tests.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	get := func(key string) (string, bool) {
		v, ok := lookup(key)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}

	if v, ok := get("TELEGRAM_BOT_TOKEN"); ok {
		c.Telegram.BotToken = v
		c.Telegram.Enabled = true
	}
	if v, ok := get("TELEGRAM_CHAT_ID"); ok {
		c.Telegram.ChatID = v
	}
	if v, ok := get("DATABASE_URL"); ok {
		c.Storage.DBConnectionString = v
		if strings.HasPrefix(v, "postgres://") || strings.HasPrefix(v, "postgresql://") {
			c.Storage.DBType = "postgres"
		}
	}
	if v, ok := get("REDIS_ADDR"); ok {
		c.Storage.RedisAddr = v
	}
	if v, ok := get("REDIS_PASSWORD"); ok {
		c.Storage.RedisPassword = v
	}

	key, hasKey := get("BINANCE_API_KEY")
	secret, hasSecret := get("BINANCE_SECRET_KEY")
	for i := range c.DataSource.Sources {
		if !strings.EqualFold(c.DataSource.Sources[i].Type, "binance") {
			continue
		}
		if hasKey {
			c.DataSource.Sources[i].APIKey = key
		}
		if hasSecret {
			c.DataSource.Sources[i].APISecret = secret
		}
	}

	if v, ok := get("DEBUG_MODE"); ok {
		debug, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid DEBUG_MODE %q: %w", v, err)
		}
		c.Debug = debug
	}
	if v, ok := get("PORT"); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		c.Port = port
	}
	if v, ok := get("LOG_LEVEL"); ok {
		c.Log.Level = strings.ToUpper(v)
	}
	return nil
}

// -----------------------------------------------------------------------------

// Validate performs basic configuration validation
func (c *Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("application name cannot be empty")
	}
	if c.Host == "" {
		return fmt.Errorf("server host cannot be empty")
	}
	if c.Port <= 1024 || c.Port > 65535 {
		return fmt.Errorf("invalid server port number: %d (must be between 1025 and 65535)", c.Port)
	}
	if c.GrpcPort != 0 && (c.GrpcPort <= 1024 || c.GrpcPort > 65535) {
		return fmt.Errorf("invalid grpc port number: %d", c.GrpcPort)
	}

	switch c.Storage.DBType {
	case "sqlite":
		if c.Storage.DBPath == "" {
			return fmt.Errorf("database path cannot be empty for sqlite")
		}
	case "postgres":
		if c.Storage.DBConnectionString == "" {
			return fmt.Errorf("connection string cannot be empty for postgres")
		}
	case "redis":
		if c.Storage.RedisAddr == "" {
			return fmt.Errorf("redis address cannot be empty for redis")
		}
	case "memory":
	case "":
		return fmt.Errorf("database type cannot be empty")
	default:
		return fmt.Errorf("unknown database type %q", c.Storage.DBType)
	}

	if c.Network.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be greater than 0")
	}
	if c.Network.MaxRetries < 0 {
		return fmt.Errorf("max retries cannot be negative")
	}

	if c.DataSource.CacheTTLSeconds < 0 || c.DataSource.CacheMaxEntries < 0 {
		return fmt.Errorf("bar cache settings cannot be negative")
	}
	for i, src := range c.DataSource.Sources {
		if src.Name == "" {
			return fmt.Errorf("source %d must have a name", i)
		}
		switch strings.ToLower(src.Type) {
		case "yahoo", "binance":
		default:
			return fmt.Errorf("source '%s' has unknown type %q", src.Name, src.Type)
		}
	}

	if c.Risk.ATRSLMult <= 0 || c.Risk.ATRTPMult <= 0 {
		return fmt.Errorf("ATR multipliers must be greater than 0")
	}
	if c.Thresholds.MinScore < 0 || c.Thresholds.MinConfidence < 0 || c.Thresholds.MinRR < 0 {
		return fmt.Errorf("thresholds cannot be negative")
	}

	if c.Analysis.MinBars < 1 {
		return fmt.Errorf("min_bars must be at least 1")
	}
	if c.Analysis.BatchWorkers <= 0 {
		return fmt.Errorf("batch workers must be greater than 0")
	}
	for _, tf := range c.Analysis.Timeframes {
		if !supportedTimeframes[strings.ToLower(tf)] {
			return fmt.Errorf("unsupported timeframe %q in analysis.timeframes", tf)
		}
	}

	if c.Telegram.Enabled && c.Telegram.BotToken == "" {
		return fmt.Errorf("telegram is enabled but no bot token is set (TELEGRAM_BOT_TOKEN)")
	}

	return nil
}

// -----------------------------------------------------------------------------

// EngineConfig returns the read-only analysis configuration.
func (c *Config) EngineConfig() models.MEngineConfig {
	return models.MEngineConfig{
		Risk:       c.Risk,
		Thresholds: c.Thresholds,
		MinBars:    c.Analysis.MinBars,
	}
}

// -----------------------------------------------------------------------------

// Pairs returns the configured pair list, or DefaultPairs.
func (c *Config) Pairs() []string {
	if len(c.Telegram.Pairs) > 0 {
		return c.Telegram.Pairs
	}
	return DefaultPairs
}

// -----------------------------------------------------------------------------

// Save persists the current configuration to the specified YAML file path.
// Secrets are left out of the written file; the bot is re-enabled by
// TELEGRAM_BOT_TOKEN on the next load.
func (c *Config) Save(configPath string) error {
	clean := *c.MConfig
	clean.Telegram.BotToken = ""
	clean.Telegram.Enabled = false
	clean.Storage.RedisPassword = ""
	clean.Storage.DBConnectionString = ""
	clean.DataSource.Sources = make([]models.MSourceConfig, len(c.DataSource.Sources))
	for i, s := range c.DataSource.Sources {
		s.APIKey, s.APISecret = "", ""
		clean.DataSource.Sources[i] = s
	}

	data, err := yaml.Marshal(&clean)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config to file '%s': %w", configPath, err)
	}

	return nil
}
