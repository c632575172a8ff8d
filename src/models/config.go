package models

// MConfig Structure
type MConfig struct {
	Name       string            `yaml:"name"`
	Host       string            `yaml:"host"`
	Port       int               `yaml:"port"`
	Debug      bool              `yaml:"debug"`
	Log        MLogConfig        `yaml:"log"`
	GrpcHost   string            `yaml:"grpc_host"`
	GrpcPort   int               `yaml:"grpc_port"`
	Storage    MStorageConfig    `yaml:"storage"`
	Network    MNetworkConfig    `yaml:"network"`
	DataSource MDataSourceConfig `yaml:"data_source"`
	Risk       MRiskConfig       `yaml:"risk"`
	Thresholds MThresholdConfig  `yaml:"thresholds"`
	Analysis   MAnalysisConfig   `yaml:"analysis"`
	Telegram   MTelegramConfig   `yaml:"telegram"`
}

type MLogConfig struct {
	Level         string `yaml:"level"`
	File          string `yaml:"file"`
	RecentHistory int    `yaml:"recent_history"`
	Stderr        bool   `yaml:"stderr"` // console lines go to stderr instead of stdout
}

type MStorageConfig struct {
	DBType             string `yaml:"db_type"` // sqlite | postgres | redis | memory
	DBPath             string `yaml:"db_path"`
	DBConnectionString string `yaml:"db_connection_string"`
	RedisAddr          string `yaml:"redis_addr"`
	RedisPassword      string `yaml:"redis_password"`
	RedisDB            int    `yaml:"redis_db"`
	SessionTTLMinutes  int    `yaml:"session_ttl_minutes"`
}

type MNetworkConfig struct {
	Enabled        bool     `yaml:"enabled"`
	Proxies        []string `yaml:"proxies"`
	RequestTimeout int      `yaml:"timeout"`
	MaxRetries     int      `yaml:"retries"`
	UserAgent      string   `yaml:"user_agent"`
}

type MDataSourceConfig struct {
	Sources         []MSourceConfig `yaml:"sources"`
	CacheTTLSeconds int             `yaml:"cache_ttl_seconds"` // 0 disables the bar cache
	CacheMaxEntries int             `yaml:"cache_max_entries"`
}

type MSourceConfig struct {
	Name              string   `yaml:"name"`
	Type              string   `yaml:"type"` // yahoo | binance
	Symbols           []string `yaml:"symbols"`
	APIKey            string   `yaml:"api_key"`    // Optional
	APISecret         string   `yaml:"api_secret"` // Optional
	RequestsPerSecond float64  `yaml:"requests_per_second"`
}

type MRiskConfig struct {
	ATRSLMult float64 `yaml:"atr_sl_mult" json:"atr_sl_mult"`
	ATRTPMult float64 `yaml:"atr_tp_mult" json:"atr_tp_mult"`
}

type MThresholdConfig struct {
	MinScore      float64 `yaml:"min_score" json:"min_score"`
	MinConfidence float64 `yaml:"min_confidence" json:"min_confidence"`
	MinRR         float64 `yaml:"min_rr" json:"min_rr"`
}

type MAnalysisConfig struct {
	MinBars               int      `yaml:"min_bars"`
	Timeframes            []string `yaml:"timeframes"`
	BatchWorkers          int      `yaml:"batch_workers"`
	RequestTimeoutSeconds int      `yaml:"request_timeout_seconds"`
}

type MTelegramConfig struct {
	Enabled            bool     `yaml:"enabled"`
	BotToken           string   `yaml:"bot_token"`
	ChatID             string   `yaml:"chat_id"`
	APIBaseURL         string   `yaml:"api_base_url"`
	PollTimeoutSeconds int      `yaml:"poll_timeout_seconds"`
	Pairs              []string `yaml:"pairs"`
}

// -----------------------------------------------------------------------------

// MEngineConfig is the read-only configuration handed to each analysis call.
type MEngineConfig struct {
	Risk       MRiskConfig      `json:"risk"`
	Thresholds MThresholdConfig `json:"thresholds"`
	MinBars    int              `json:"min_bars"`
}

// DefaultEngineConfig returns the stock multipliers and thresholds.
func DefaultEngineConfig() MEngineConfig {
	return MEngineConfig{
		Risk:       MRiskConfig{ATRSLMult: 2.0, ATRTPMult: 3.0},
		Thresholds: MThresholdConfig{MinScore: 2.0, MinConfidence: 70.0, MinRR: 1.5},
		MinBars:    60,
	}
}
