// Package config loads application configuration from file and environment
// and initializes the global logger.
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
	Firecrawl FirecrawlConfig `yaml:"firecrawl" mapstructure:"firecrawl"`
	Scrape    ScrapeConfig    `yaml:"scrape" mapstructure:"scrape"`
	Crawl     CrawlConfig     `yaml:"crawl" mapstructure:"crawl"`
	Content   ContentConfig   `yaml:"content" mapstructure:"content"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// FirecrawlConfig holds managed-service API settings. The base URL is
// validated at client construction, not here; this package only sources it.
type FirecrawlConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// ScrapeConfig configures single-page scraping defaults.
type ScrapeConfig struct {
	TimeoutSecs   int      `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxConcurrent int      `yaml:"max_concurrent" mapstructure:"max_concurrent"`
	Formats       []string `yaml:"formats" mapstructure:"formats"`
	Proxy         string   `yaml:"proxy" mapstructure:"proxy"`
}

// CrawlConfig configures crawl job defaults.
type CrawlConfig struct {
	MaxDepth        int  `yaml:"max_depth" mapstructure:"max_depth"`
	ChangeDetection bool `yaml:"change_detection" mapstructure:"change_detection"`
}

// ContentConfig configures content normalization.
type ContentConfig struct {
	PdfToTextPath string `yaml:"pdftotext_path" mapstructure:"pdftotext_path"`
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
	v.SetEnvPrefix("WEBFETCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("firecrawl.base_url", "https://api.firecrawl.dev")
	v.SetDefault("scrape.timeout_secs", 30)
	v.SetDefault("scrape.max_concurrent", 5)
	v.SetDefault("scrape.formats", []string{"markdown"})
	v.SetDefault("crawl.max_depth", 3)
	v.SetDefault("crawl.change_detection", true)
	v.SetDefault("content.pdftotext_path", "pdftotext")
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
