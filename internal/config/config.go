// Package config loads application configuration from file and environment
// and initializes the global logger.
package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	WebDriver WebDriverConfig `yaml:"webdriver" mapstructure:"webdriver"`
	Resolve   ResolveConfig   `yaml:"resolve" mapstructure:"resolve"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// WebDriverConfig configures the remote browser sessions.
type WebDriverConfig struct {
	// BasePort is the port of the first WebDriver server; session i connects
	// to BasePort+i.
	BasePort int `yaml:"base_port" mapstructure:"base_port"`
	// Sessions is the number of concurrent browser sessions.
	Sessions int `yaml:"sessions" mapstructure:"sessions"`
	// Headless hides the browser windows.
	Headless bool `yaml:"headless" mapstructure:"headless"`
}

// ResolveConfig configures lookup behavior.
type ResolveConfig struct {
	// Retries is how many extra attempts a timed-out or session-failed
	// lookup earns before being marked failed.
	Retries int `yaml:"retries" mapstructure:"retries"`
	// WaitTimeoutSecs bounds one lookup's wait for coordinates.
	WaitTimeoutSecs int `yaml:"wait_timeout_secs" mapstructure:"wait_timeout_secs"`
	// PollIntervalMs is how often the browser URL is re-read during a lookup.
	PollIntervalMs int `yaml:"poll_interval_ms" mapstructure:"poll_interval_ms"`
	// StableSecs is how long a coordinate-free URL must sit unchanged before
	// the place is declared not found.
	StableSecs int `yaml:"stable_secs" mapstructure:"stable_secs"`
	// SearchBaseURL is where free-text place names are searched.
	SearchBaseURL string `yaml:"search_base_url" mapstructure:"search_base_url"`
}

// WaitTimeout returns WaitTimeoutSecs as a duration.
func (c ResolveConfig) WaitTimeout() time.Duration {
	return time.Duration(c.WaitTimeoutSecs) * time.Second
}

// PollInterval returns PollIntervalMs as a duration.
func (c ResolveConfig) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMs) * time.Millisecond
}

// StableWindow returns StableSecs as a duration.
func (c ResolveConfig) StableWindow() time.Duration {
	return time.Duration(c.StableSecs) * time.Second
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
	v.SetEnvPrefix("PLACERESOLVE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("webdriver.base_port", 4444)
	v.SetDefault("webdriver.sessions", 4)
	v.SetDefault("webdriver.headless", true)
	v.SetDefault("resolve.retries", 2)
	v.SetDefault("resolve.wait_timeout_secs", 10)
	v.SetDefault("resolve.poll_interval_ms", 100)
	v.SetDefault("resolve.stable_secs", 3)
	v.SetDefault("resolve.search_base_url", "https://www.google.com/maps/search/")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

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
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
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
