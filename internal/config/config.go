package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Anthropic  AnthropicConfig  `yaml:"anthropic" mapstructure:"anthropic"`
	Google     GoogleConfig     `yaml:"google" mapstructure:"google"`
	Jina       JinaConfig       `yaml:"jina" mapstructure:"jina"`
	Perplexity PerplexityConfig `yaml:"perplexity" mapstructure:"perplexity"`
	Gmail      GmailConfig      `yaml:"gmail" mapstructure:"gmail"`
	SMTP       SMTPConfig       `yaml:"smtp" mapstructure:"smtp"`
	Outreach   OutreachConfig   `yaml:"outreach" mapstructure:"outreach"`
	Pipeline   PipelineConfig   `yaml:"pipeline" mapstructure:"pipeline"`
	Retry      RetryConfig      `yaml:"retry" mapstructure:"retry"`
	Batch      BatchConfig      `yaml:"batch" mapstructure:"batch"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the persistence backend for projects and session.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key         string `yaml:"key" mapstructure:"key"`
	HaikuModel  string `yaml:"haiku_model" mapstructure:"haiku_model"`
	SonnetModel string `yaml:"sonnet_model" mapstructure:"sonnet_model"`
	OpusModel   string `yaml:"opus_model" mapstructure:"opus_model"`
	MaxTokens   int64  `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// GoogleConfig holds Google Places settings used to ground discovery.
type GoogleConfig struct {
	PlacesKey     string `yaml:"places_key" mapstructure:"places_key"`
	PlacesBaseURL string `yaml:"places_base_url" mapstructure:"places_base_url"`
}

// JinaConfig holds Jina AI Reader settings.
type JinaConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// PerplexityConfig holds Perplexity API settings.
type PerplexityConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	Model   string `yaml:"model" mapstructure:"model"`
}

// GmailConfig holds the Gmail send credential. The OAuth flow that produces
// the access token happens outside this tool.
type GmailConfig struct {
	AccessToken string `yaml:"access_token" mapstructure:"access_token"`
	BaseURL     string `yaml:"base_url" mapstructure:"base_url"`
}

// SMTPConfig holds SMTP relay settings for the smtp transport.
type SMTPConfig struct {
	Host     string `yaml:"host" mapstructure:"host"`
	Port     int    `yaml:"port" mapstructure:"port"`
	Username string `yaml:"username" mapstructure:"username"`
	Password string `yaml:"password" mapstructure:"password"`
	From     string `yaml:"from" mapstructure:"from"`
}

// OutreachConfig selects the mail transport.
type OutreachConfig struct {
	Transport      string `yaml:"transport" mapstructure:"transport"`
	DefaultSubject string `yaml:"default_subject" mapstructure:"default_subject"`
}

// PipelineConfig configures stage behavior.
type PipelineConfig struct {
	Language         string `yaml:"language" mapstructure:"language"`
	StageTimeoutSecs int    `yaml:"stage_timeout_secs" mapstructure:"stage_timeout_secs"`
	AuditPageChars   int    `yaml:"audit_page_chars" mapstructure:"audit_page_chars"`
	DiscoveryMin     int    `yaml:"discovery_min" mapstructure:"discovery_min"`
	DiscoveryMax     int    `yaml:"discovery_max" mapstructure:"discovery_max"`
}

// StageTimeout returns the per-stage deadline.
func (p PipelineConfig) StageTimeout() time.Duration {
	if p.StageTimeoutSecs <= 0 {
		return 120 * time.Second
	}
	return time.Duration(p.StageTimeoutSecs) * time.Second
}

// RetryConfig configures the retry envelope around generative backend calls.
type RetryConfig struct {
	MaxRetries        int     `yaml:"max_retries" mapstructure:"max_retries"`
	InitialBackoffMs  int     `yaml:"initial_backoff_ms" mapstructure:"initial_backoff_ms"`
	MaxBackoffMs      int     `yaml:"max_backoff_ms" mapstructure:"max_backoff_ms"`
	Multiplier        float64 `yaml:"multiplier" mapstructure:"multiplier"`
	RequestsPerMinute int     `yaml:"requests_per_minute" mapstructure:"requests_per_minute"`
}

// BatchConfig configures multi-lead processing.
type BatchConfig struct {
	MaxConcurrentLeads int `yaml:"max_concurrent_leads" mapstructure:"max_concurrent_leads"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	APIToken       string   `yaml:"api_token" mapstructure:"api_token"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// secretKeys have no defaults, so they are bound explicitly for env lookup.
var secretKeys = []string{
	"store.database_url",
	"anthropic.key",
	"google.places_key",
	"jina.key",
	"perplexity.key",
	"gmail.access_token",
	"smtp.host",
	"smtp.username",
	"smtp.password",
	"smtp.from",
	"server.api_token",
}

// Load reads configuration from an optional .env file, an optional
// config.yaml and the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, eris.Wrap(err, "config: load .env")
	}

	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("PROSPECT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, k := range secretKeys {
		if err := v.BindEnv(k); err != nil {
			return nil, eris.Wrapf(err, "config: bind env %s", k)
		}
	}

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "prospect.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("batch.max_concurrent_leads", 3)
	v.SetDefault("anthropic.haiku_model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.sonnet_model", "claude-sonnet-4-5-20250929")
	v.SetDefault("anthropic.opus_model", "claude-opus-4-6")
	v.SetDefault("anthropic.max_tokens", 4096)
	v.SetDefault("google.places_base_url", "https://places.googleapis.com/v1")
	v.SetDefault("jina.base_url", "https://r.jina.ai")
	v.SetDefault("perplexity.base_url", "https://api.perplexity.ai")
	v.SetDefault("perplexity.model", "sonar-pro")
	v.SetDefault("gmail.base_url", "https://gmail.googleapis.com/gmail/v1")
	v.SetDefault("smtp.port", 587)
	v.SetDefault("outreach.transport", "gmail")
	v.SetDefault("pipeline.language", "fr")
	v.SetDefault("pipeline.stage_timeout_secs", 120)
	v.SetDefault("pipeline.audit_page_chars", 12000)
	v.SetDefault("pipeline.discovery_min", 5)
	v.SetDefault("pipeline.discovery_max", 8)
	v.SetDefault("retry.max_retries", 3)
	v.SetDefault("retry.initial_backoff_ms", 2000)
	v.SetDefault("retry.max_backoff_ms", 60000)
	v.SetDefault("retry.multiplier", 2.0)
	v.SetDefault("retry.requests_per_minute", 0)

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

// Validate checks the settings a command needs before it runs. Mode is one
// of "store", "pipeline", "send" or "serve". All problems are reported at once.
func (c *Config) Validate(mode string) error {
	var errs []string

	switch c.Store.Driver {
	case "sqlite", "postgres":
		if c.Store.DatabaseURL == "" {
			errs = append(errs, "store.database_url is required")
		}
	case "memory":
	default:
		errs = append(errs, fmt.Sprintf("store.driver %q is not one of sqlite, postgres, memory", c.Store.Driver))
	}

	if c.Batch.MaxConcurrentLeads < 1 || c.Batch.MaxConcurrentLeads > 20 {
		errs = append(errs, "batch.max_concurrent_leads must be between 1 and 20")
	}
	if c.Retry.MaxRetries < 0 {
		errs = append(errs, "retry.max_retries must be >= 0")
	}

	switch mode {
	case "store":
	case "pipeline":
		if c.Anthropic.Key == "" {
			errs = append(errs, "anthropic.key is required")
		}
	case "send":
		switch c.Outreach.Transport {
		case "gmail":
		case "smtp":
			if c.SMTP.Host == "" {
				errs = append(errs, "smtp.host is required for smtp transport")
			}
			if c.SMTP.From == "" {
				errs = append(errs, "smtp.from is required for smtp transport")
			}
		default:
			errs = append(errs, fmt.Sprintf("outreach.transport %q is not one of gmail, smtp", c.Outreach.Transport))
		}
	case "serve":
		if c.Server.Port <= 0 {
			errs = append(errs, "server.port must be > 0")
		}
		if c.Anthropic.Key == "" {
			errs = append(errs, "anthropic.key is required")
		}
	default:
		errs = append(errs, fmt.Sprintf("unknown mode %q", mode))
	}

	if len(errs) > 0 {
		return eris.New("config: " + strings.Join(errs, "; "))
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
