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
	Fund      FundConfig      `yaml:"fund" mapstructure:"fund"`
	Dispatch  DispatchConfig  `yaml:"dispatch" mapstructure:"dispatch"`
	Probe     ProbeConfig     `yaml:"probe" mapstructure:"probe"`
	Scoring   ScoringConfig   `yaml:"scoring" mapstructure:"scoring"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// FundConfig configures the budget.
type FundConfig struct {
	Initial int64 `yaml:"initial" mapstructure:"initial"`
}

// DispatchConfig configures channel costs and quotas.
type DispatchConfig struct {
	PosterCost       int64 `yaml:"poster_cost" mapstructure:"poster_cost"`
	AnnouncementCost int64 `yaml:"announcement_cost" mapstructure:"announcement_cost"`
	MessageQuota     int   `yaml:"message_quota" mapstructure:"message_quota"`
}

// ProbeConfig configures the content audit policy. Zero thresholds keep
// the audit advisory.
type ProbeConfig struct {
	MinCredibility    int `yaml:"min_credibility" mapstructure:"min_credibility"`
	MinReasonableness int `yaml:"min_reasonableness" mapstructure:"min_reasonableness"`
}

// ScoringConfig configures the citizen survey fan-out.
type ScoringConfig struct {
	Concurrency   int     `yaml:"concurrency" mapstructure:"concurrency"`
	RatePerSecond float64 `yaml:"rate_per_second" mapstructure:"rate_per_second"`
	RateBurst     int     `yaml:"rate_burst" mapstructure:"rate_burst"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key       string `yaml:"key" mapstructure:"key"`
	Model     string `yaml:"model" mapstructure:"model"`
	MaxTokens int64  `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// ServerConfig configures the harness-facing HTTP server.
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
	v.SetEnvPrefix("AMBASSADOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("fund.initial", 100000)
	v.SetDefault("dispatch.poster_cost", 3000)
	v.SetDefault("dispatch.announcement_cost", 20000)
	v.SetDefault("dispatch.message_quota", 10)
	v.SetDefault("probe.min_credibility", 0)
	v.SetDefault("probe.min_reasonableness", 0)
	v.SetDefault("scoring.concurrency", 8)
	v.SetDefault("scoring.rate_per_second", 5)
	v.SetDefault("scoring.rate_burst", 10)
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.max_tokens", 1024)
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

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

// Validate checks the configuration for the given run mode ("serve" or
// "score") and reports every problem at once.
func (c *Config) Validate(mode string) error {
	var problems []string

	if c.Fund.Initial < 0 {
		problems = append(problems, "fund.initial must be >= 0")
	}
	if c.Dispatch.PosterCost <= 0 {
		problems = append(problems, "dispatch.poster_cost must be > 0")
	}
	if c.Dispatch.AnnouncementCost <= 0 {
		problems = append(problems, "dispatch.announcement_cost must be > 0")
	}
	if c.Dispatch.MessageQuota < 1 || c.Dispatch.MessageQuota > 100 {
		problems = append(problems, "dispatch.message_quota must be between 1 and 100")
	}
	if c.Probe.MinCredibility < 0 || c.Probe.MinCredibility > 100 {
		problems = append(problems, "probe.min_credibility must be between 0 and 100")
	}
	if c.Probe.MinReasonableness < 0 || c.Probe.MinReasonableness > 100 {
		problems = append(problems, "probe.min_reasonableness must be between 0 and 100")
	}
	if c.Scoring.Concurrency < 1 || c.Scoring.Concurrency > 64 {
		problems = append(problems, "scoring.concurrency must be between 1 and 64")
	}

	switch mode {
	case "serve":
		if c.Server.Port <= 0 {
			problems = append(problems, "server.port must be > 0")
		}
	case "score":
		if c.Anthropic.Key == "" {
			problems = append(problems, "anthropic.key is required")
		}
	default:
		problems = append(problems, "unknown mode "+mode)
	}

	if len(problems) > 0 {
		return eris.New("config: " + strings.Join(problems, "; "))
	}
	return nil
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
