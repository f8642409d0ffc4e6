package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/noumi/internal/anomaly"
	"github.com/Veraticus/noumi/internal/common"
	"github.com/Veraticus/noumi/internal/model"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable override.
const EnvPrefix = "NOUMI"

// Config is the complete application configuration.
type Config struct {
	Logging  LoggingConfig  `mapstructure:"logging"`
	LLM      LLMConfig      `mapstructure:"llm"`
	Plaid    PlaidConfig    `mapstructure:"plaid"`
	Database DatabaseConfig `mapstructure:"database"`
	Server   ServerConfig   `mapstructure:"server"`
	Anomaly  AnomalyConfig  `mapstructure:"anomaly"`
	Streak   StreakConfig   `mapstructure:"streak"`
}

// DatabaseConfig locates the SQLite database.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr         string        `mapstructure:"addr"`
	CORSOrigins  []string      `mapstructure:"cors_origins"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	TLS          bool          `mapstructure:"tls"`
	CertDir      string        `mapstructure:"cert_dir"`
}

// AnomalyConfig selects and tunes the anomaly detector.
type AnomalyConfig struct {
	Method              string  `mapstructure:"method"`
	ZScoreScope         string  `mapstructure:"zscore_scope"`
	ThresholdMultiplier float64 `mapstructure:"threshold_multiplier"`
	ZScoreSigma         float64 `mapstructure:"zscore_sigma"`
	ZScoreMinSamples    int     `mapstructure:"zscore_min_samples"`
	LookbackDays        int     `mapstructure:"lookback_days"`
}

// StreakConfig tunes streak reporting.
type StreakConfig struct {
	ExcludeFutureDays bool `mapstructure:"exclude_future_days"`
}

// PlaidConfig holds Plaid API credentials.
type PlaidConfig struct {
	ClientID    string `mapstructure:"client_id"`
	Secret      string `mapstructure:"secret"`
	Environment string `mapstructure:"environment"`
}

// LLMConfig configures the optional narrative provider.
type LLMConfig struct {
	Provider    string        `mapstructure:"provider"`
	Model       string        `mapstructure:"model"`
	APIKey      string        `mapstructure:"api_key"`
	Temperature float64       `mapstructure:"temperature"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	CacheTTL    time.Duration `mapstructure:"cache_ttl"`
	RateLimit   int           `mapstructure:"rate_limit"` // requests per minute
}

// LoggingConfig configures slog.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("database.path", "~/.config/noumi/noumi.db")

	v.SetDefault("server.addr", ":8000")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("server.tls", false)
	v.SetDefault("server.cert_dir", DefaultDir+"/certs")

	v.SetDefault("anomaly.method", string(model.MethodCategoryMean))
	v.SetDefault("anomaly.threshold_multiplier", anomaly.DefaultThresholdMultiplier)
	v.SetDefault("anomaly.zscore_sigma", anomaly.DefaultZScoreSigma)
	v.SetDefault("anomaly.zscore_min_samples", anomaly.DefaultZScoreMinSamples)
	v.SetDefault("anomaly.zscore_scope", string(anomaly.ScopeUser))
	v.SetDefault("anomaly.lookback_days", 60)

	v.SetDefault("streak.exclude_future_days", false)

	v.SetDefault("plaid.environment", "sandbox")

	v.SetDefault("llm.temperature", 0.7)
	v.SetDefault("llm.max_tokens", 400)
	v.SetDefault("llm.cache_ttl", 24*time.Hour)
	v.SetDefault("llm.rate_limit", 30)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}

// BindEnv enables NOUMI_* environment overrides on v.
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// Load reads the configuration from v, applying defaults and validating.
func Load(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}

	cfg.Database.Path = ExpandPath(cfg.Database.Path)
	cfg.Server.CertDir = ExpandPath(cfg.Server.CertDir)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration for values the application cannot run with.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("%w: database.path is required", common.ErrMissingConfig)
	}
	if c.Anomaly.LookbackDays <= 0 {
		return fmt.Errorf("%w: anomaly.lookback_days must be positive", common.ErrInvalidConfig)
	}
	if _, err := anomaly.NewDetector(c.Anomaly.DetectorConfig()); err != nil {
		return fmt.Errorf("%w: %w", common.ErrInvalidConfig, err)
	}
	if _, err := common.ParseLevel(c.Logging.Level); err != nil {
		return err
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("%w: logging.format must be console or json, got %q", common.ErrInvalidConfig, c.Logging.Format)
	}
	switch c.Plaid.Environment {
	case "sandbox", "production":
	default:
		return fmt.Errorf("%w: unknown plaid.environment %q", common.ErrInvalidConfig, c.Plaid.Environment)
	}
	return nil
}

// DetectorConfig converts the anomaly section to detector settings.
func (a AnomalyConfig) DetectorConfig() anomaly.Config {
	method := model.DetectionMethod(a.Method)
	if a.Method == "category" {
		method = model.MethodCategoryMean
	}
	return anomaly.Config{
		Method:              method,
		ThresholdMultiplier: a.ThresholdMultiplier,
		ZScoreSigma:         a.ZScoreSigma,
		ZScoreMinSamples:    a.ZScoreMinSamples,
		ZScoreScope:         anomaly.Scope(a.ZScoreScope),
	}
}

// Lookback returns the transaction anomaly lookback window.
func (a AnomalyConfig) Lookback() time.Duration {
	return time.Duration(a.LookbackDays) * 24 * time.Hour
}
