package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Extract   ExtractConfig   `yaml:"extract" mapstructure:"extract"`
	Taxonomy  TaxonomyConfig  `yaml:"taxonomy" mapstructure:"taxonomy"`
	Comps     CompsConfig     `yaml:"comps" mapstructure:"comps"`
	Repair    RepairConfig    `yaml:"repair" mapstructure:"repair"`
	Scoring   ScoringConfig   `yaml:"scoring" mapstructure:"scoring"`
	Fetch     FetchConfig     `yaml:"fetch" mapstructure:"fetch"`
	OCR       OCRConfig       `yaml:"ocr" mapstructure:"ocr"`
	Notion    NotionConfig    `yaml:"notion" mapstructure:"notion"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// AnthropicConfig holds the semantic extraction service settings.
type AnthropicConfig struct {
	Key        string `yaml:"key" mapstructure:"key"`
	Model      string `yaml:"model" mapstructure:"model"`
	MaxTokens  int64  `yaml:"max_tokens" mapstructure:"max_tokens"`
	MaxRetries int    `yaml:"max_retries" mapstructure:"max_retries"`
}

// ExtractConfig configures the extraction pipeline.
type ExtractConfig struct {
	BatchSize       int `yaml:"batch_size" mapstructure:"batch_size"`
	MaxDocChars     int `yaml:"max_doc_chars" mapstructure:"max_doc_chars"`
	MaxRows         int `yaml:"max_rows" mapstructure:"max_rows"`
	HeaderScanRows  int `yaml:"header_scan_rows" mapstructure:"header_scan_rows"`
	MinMonthColumns int `yaml:"min_month_columns" mapstructure:"min_month_columns"`
	StaleAfterMins  int `yaml:"stale_after_mins" mapstructure:"stale_after_mins"`
}

// TaxonomyConfig configures the line-item matcher. OverlayPath points at an
// optional YAML file extending the built-in chart of accounts.
type TaxonomyConfig struct {
	FuzzyThreshold float64 `yaml:"fuzzy_threshold" mapstructure:"fuzzy_threshold"`
	OverlayPath    string  `yaml:"overlay_path" mapstructure:"overlay_path"`
}

// CompsConfig configures comparable-sale selection.
type CompsConfig struct {
	MinComps int `yaml:"min_comps" mapstructure:"min_comps"`
	MaxComps int `yaml:"max_comps" mapstructure:"max_comps"`
}

// RepairConfig configures cross-field validation heuristics.
type RepairConfig struct {
	DefaultUnitSF     float64 `yaml:"default_unit_sf" mapstructure:"default_unit_sf"`
	MinPlausiblePPU   float64 `yaml:"min_plausible_ppu" mapstructure:"min_plausible_ppu"`
	MaxPlausiblePPU   float64 `yaml:"max_plausible_ppu" mapstructure:"max_plausible_ppu"`
	UnitMismatchPrice float64 `yaml:"unit_mismatch_price" mapstructure:"unit_mismatch_price"`
	UnitMismatchUnits int     `yaml:"unit_mismatch_units" mapstructure:"unit_mismatch_units"`
}

// ScoringConfig holds default deal-score weights. Per-user overrides live in
// the store; these values apply when a user has never saved weights.
type ScoringConfig struct {
	LayerFinancial int `yaml:"layer_financial" mapstructure:"layer_financial"`
	LayerSentiment int `yaml:"layer_sentiment" mapstructure:"layer_sentiment"`
	LayerComps     int `yaml:"layer_comps" mapstructure:"layer_comps"`
	MetricCapRate  int `yaml:"metric_cap_rate" mapstructure:"metric_cap_rate"`
	MetricOpex     int `yaml:"metric_opex" mapstructure:"metric_opex"`
	MetricOcc      int `yaml:"metric_occupancy" mapstructure:"metric_occupancy"`
}

// FetchConfig configures document acquisition.
type FetchConfig struct {
	UserAgent      string  `yaml:"user_agent" mapstructure:"user_agent"`
	TimeoutSecs    int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RatePerSec     float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
	FTPTimeoutSecs int     `yaml:"ftp_timeout_secs" mapstructure:"ftp_timeout_secs"`
}

// OCRConfig configures PDF text extraction.
type OCRConfig struct {
	Provider      string `yaml:"provider" mapstructure:"provider"`
	PdfToTextPath string `yaml:"pdftotext_path" mapstructure:"pdftotext_path"`
	MistralKey    string `yaml:"mistral_api_key" mapstructure:"mistral_api_key"`
	MistralModel  string `yaml:"mistral_ocr_model" mapstructure:"mistral_ocr_model"`
}

// NotionConfig holds the deal-tracker export settings.
type NotionConfig struct {
	Token  string `yaml:"token" mapstructure:"token"`
	DealDB string `yaml:"deal_db" mapstructure:"deal_db"`
}

// ServerConfig configures the ingestion server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("UNDERWRITER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "underwriter.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("anthropic.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("anthropic.max_tokens", 4096)
	v.SetDefault("anthropic.max_retries", 3)
	v.SetDefault("extract.batch_size", 25)
	v.SetDefault("extract.max_doc_chars", 100000)
	v.SetDefault("extract.max_rows", 2000)
	v.SetDefault("extract.header_scan_rows", 20)
	v.SetDefault("extract.min_month_columns", 6)
	v.SetDefault("extract.stale_after_mins", 30)
	v.SetDefault("taxonomy.fuzzy_threshold", 70.0)
	v.SetDefault("comps.min_comps", 3)
	v.SetDefault("comps.max_comps", 15)
	v.SetDefault("repair.default_unit_sf", 900.0)
	v.SetDefault("repair.min_plausible_ppu", 20000.0)
	v.SetDefault("repair.max_plausible_ppu", 2000000.0)
	v.SetDefault("repair.unit_mismatch_price", 10000.0)
	v.SetDefault("repair.unit_mismatch_units", 10)
	v.SetDefault("scoring.layer_financial", 40)
	v.SetDefault("scoring.layer_sentiment", 20)
	v.SetDefault("scoring.layer_comps", 40)
	v.SetDefault("scoring.metric_cap_rate", 40)
	v.SetDefault("scoring.metric_opex", 30)
	v.SetDefault("scoring.metric_occupancy", 30)
	v.SetDefault("fetch.user_agent", "underwriting-cli/1.0")
	v.SetDefault("fetch.timeout_secs", 60)
	v.SetDefault("fetch.rate_per_sec", 2.0)
	v.SetDefault("fetch.ftp_timeout_secs", 30)
	v.SetDefault("ocr.provider", "local")
	v.SetDefault("ocr.pdftotext_path", "pdftotext")
	v.SetDefault("ocr.mistral_ocr_model", "pixtral-large-latest")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
