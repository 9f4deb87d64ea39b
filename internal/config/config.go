// Package config loads runtime settings from defaults, an optional YAML file,
// a .env file and RECALLS_* environment variables.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. RECALLS_CACHE_TTL.
const EnvPrefix = "RECALLS"

// Config is the full application configuration.
type Config struct {
	Server   ServerConfig  `mapstructure:"server"`
	LogLevel string        `mapstructure:"log_level"`
	NHTSA    NHTSAConfig   `mapstructure:"nhtsa"`
	Cache    CacheConfig   `mapstructure:"cache"`
	Warmer   WarmerConfig  `mapstructure:"warmer"`
	Metrics  MetricsConfig `mapstructure:"metrics"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// Addr returns host:port for net/http.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// NHTSAConfig describes the upstream vPIC API.
type NHTSAConfig struct {
	BaseURL      string        `mapstructure:"base_url"`
	DocumentType int           `mapstructure:"document_type"`
	Timeout      time.Duration `mapstructure:"timeout"`
	MaxPages     int           `mapstructure:"max_pages"`
	MinPageRows  int           `mapstructure:"min_page_rows"`
}

// CacheConfig controls the per-year record cache.
type CacheConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

// WarmerConfig controls background pre-fetching. An empty Years list means
// the current year only.
type WarmerConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Interval time.Duration `mapstructure:"interval"`
	Years    []int         `mapstructure:"years"`
}

// MetricsConfig toggles the prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// Load reads configuration. path may name a config file or a directory to
// search for config.yaml; empty means ./config and the working directory.
func Load(path string) (*Config, error) {
	// A missing .env is normal outside development.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("server.port", EnvPrefix+"_SERVER_PORT", "PORT"); err != nil {
		return nil, fmt.Errorf("config: bind env: %w", err)
	}

	if err := readConfigFile(v, path); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings that would make the service unusable.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	if strings.TrimSpace(c.NHTSA.BaseURL) == "" {
		errs = append(errs, errors.New("nhtsa.base_url is required"))
	}
	if c.NHTSA.MaxPages < 1 {
		errs = append(errs, errors.New("nhtsa.max_pages must be at least 1"))
	}
	if c.Cache.TTL <= 0 {
		errs = append(errs, errors.New("cache.ttl must be positive"))
	}
	if c.Warmer.Enabled && c.Warmer.Interval <= 0 {
		errs = append(errs, errors.New("warmer.interval must be positive"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

func readConfigFile(v *viper.Viper, path string) error {
	if path != "" {
		info, err := os.Stat(path)
		if err != nil {
			return fmt.Errorf("config: %w", err)
		}
		if !info.IsDir() {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return fmt.Errorf("config: read file: %w", err)
			}
			return nil
		}
		v.AddConfigPath(path)
	}

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("config: read file: %w", err)
		}
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 7860)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "120s")

	v.SetDefault("log_level", "info")

	v.SetDefault("nhtsa.base_url", "https://vpic.nhtsa.dot.gov/api/vehicles")
	v.SetDefault("nhtsa.document_type", 565)
	v.SetDefault("nhtsa.timeout", "30s")
	v.SetDefault("nhtsa.max_pages", 10)
	v.SetDefault("nhtsa.min_page_rows", 10)

	v.SetDefault("cache.ttl", "30m")

	v.SetDefault("warmer.enabled", false)
	v.SetDefault("warmer.interval", "25m")
	v.SetDefault("warmer.years", []int{})

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}
