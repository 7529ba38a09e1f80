package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/bstardust/photo-timeline/pkg/common"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment variables that override the config file
const EnvPrefix = "PHOTO_TIMELINE"

// Config represents the application configuration
type Config struct {
	LogLevel string         `mapstructure:"log_level"`
	Pipeline PipelineConfig `mapstructure:"pipeline"`
	Geocode  GeocodeConfig  `mapstructure:"geocode"`
	Grouping GroupingConfig `mapstructure:"grouping"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Server   ServerConfig   `mapstructure:"server"`
}

// PipelineConfig represents batch processing configuration
type PipelineConfig struct {
	Concurrency    int           `mapstructure:"concurrency"`
	FetchTimeout   time.Duration `mapstructure:"fetch_timeout"`
	MaxSourceBytes int64         `mapstructure:"max_source_bytes"`
	JPEGQuality    int           `mapstructure:"jpeg_quality"`
	Timezone       string        `mapstructure:"timezone"`
}

// Location returns the timezone EXIF wall clock times are interpreted in
func (p PipelineConfig) Location() *time.Location {
	if p.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(p.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// GeocodeConfig represents the reverse-geocoding service and its cache
type GeocodeConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	BaseURL   string        `mapstructure:"base_url"`
	APIKey    string        `mapstructure:"api_key"`
	Language  string        `mapstructure:"language"`
	Timeout   time.Duration `mapstructure:"timeout"`
	Precision int32         `mapstructure:"precision"`
	Cache     CacheConfig   `mapstructure:"cache"`
}

// CacheConfig selects the geocode cache implementation
type CacheConfig struct {
	Kind     string        `mapstructure:"kind"`
	Size     int           `mapstructure:"size"`
	TTL      time.Duration `mapstructure:"ttl"`
	RedisURL string        `mapstructure:"redis_url"`
	Prefix   string        `mapstructure:"prefix"`
}

// GroupingConfig represents the grouping thresholds
type GroupingConfig struct {
	LocationPrecision int32  `mapstructure:"location_precision"`
	DateLayout        string `mapstructure:"date_layout"`
}

// StorageConfig represents the S3-compatible storage used for s3:// sources
type StorageConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	Region    string `mapstructure:"region"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl"`
}

// ServerConfig represents the HTTP API configuration
type ServerConfig struct {
	Addr         string `mapstructure:"addr"`
	MaxUploadMiB int64  `mapstructure:"max_upload_mib"`
}

// New creates a new configuration with default values
func New() *Config {
	return &Config{
		LogLevel: "info",
		Pipeline: PipelineConfig{
			Concurrency:    4,
			FetchTimeout:   30 * time.Second,
			MaxSourceBytes: 64 << 20,
			JPEGQuality:    80,
			Timezone:       "UTC",
		},
		Geocode: GeocodeConfig{
			Enabled:   true,
			BaseURL:   "https://maps.googleapis.com",
			Timeout:   10 * time.Second,
			Precision: 5,
			Cache: CacheConfig{
				Kind:   "memory",
				Size:   10000,
				TTL:    24 * time.Hour,
				Prefix: "geocode:",
			},
		},
		Grouping: GroupingConfig{
			LocationPrecision: 3,
			DateLayout:        "2006-01-02",
		},
		Storage: StorageConfig{
			Region: "us-east-1",
			UseSSL: true,
		},
		Server: ServerConfig{
			Addr:         ":8080",
			MaxUploadMiB: 200,
		},
	}
}

// Load reads the configuration from path (optional), a .env file in the working
// directory (optional) and PHOTO_TIMELINE_* environment variables, on top of the
// defaults from New.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, common.NewConfigError(fmt.Sprintf("failed to load .env: %v", err))
	}

	v := viper.New()
	setDefaults(v, New())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, common.NewConfigError(fmt.Sprintf("failed to read config file %s: %v", path, err))
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, common.NewConfigError(fmt.Sprintf("failed to decode config: %v", err))
	}

	if cfg.Geocode.APIKey == "" {
		// the conventional variable name used by most deployments
		cfg.Geocode.APIKey = os.Getenv("GOOGLE_MAPS_API_KEY")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// setDefaults registers every key so that AutomaticEnv can override it
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("log_level", d.LogLevel)

	v.SetDefault("pipeline.concurrency", d.Pipeline.Concurrency)
	v.SetDefault("pipeline.fetch_timeout", d.Pipeline.FetchTimeout)
	v.SetDefault("pipeline.max_source_bytes", d.Pipeline.MaxSourceBytes)
	v.SetDefault("pipeline.jpeg_quality", d.Pipeline.JPEGQuality)
	v.SetDefault("pipeline.timezone", d.Pipeline.Timezone)

	v.SetDefault("geocode.enabled", d.Geocode.Enabled)
	v.SetDefault("geocode.base_url", d.Geocode.BaseURL)
	v.SetDefault("geocode.api_key", d.Geocode.APIKey)
	v.SetDefault("geocode.language", d.Geocode.Language)
	v.SetDefault("geocode.timeout", d.Geocode.Timeout)
	v.SetDefault("geocode.precision", d.Geocode.Precision)
	v.SetDefault("geocode.cache.kind", d.Geocode.Cache.Kind)
	v.SetDefault("geocode.cache.size", d.Geocode.Cache.Size)
	v.SetDefault("geocode.cache.ttl", d.Geocode.Cache.TTL)
	v.SetDefault("geocode.cache.redis_url", d.Geocode.Cache.RedisURL)
	v.SetDefault("geocode.cache.prefix", d.Geocode.Cache.Prefix)

	v.SetDefault("grouping.location_precision", d.Grouping.LocationPrecision)
	v.SetDefault("grouping.date_layout", d.Grouping.DateLayout)

	v.SetDefault("storage.endpoint", d.Storage.Endpoint)
	v.SetDefault("storage.region", d.Storage.Region)
	v.SetDefault("storage.access_key", d.Storage.AccessKey)
	v.SetDefault("storage.secret_key", d.Storage.SecretKey)
	v.SetDefault("storage.use_ssl", d.Storage.UseSSL)

	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.max_upload_mib", d.Server.MaxUploadMiB)
}

// Validate checks the configuration for values the pipeline cannot work with
func (c *Config) Validate() error {
	if c.Pipeline.Concurrency < 1 {
		return common.NewConfigError("pipeline.concurrency must be at least 1")
	}
	if c.Pipeline.JPEGQuality < 1 || c.Pipeline.JPEGQuality > 100 {
		return common.NewConfigError("pipeline.jpeg_quality must be between 1 and 100")
	}
	if c.Pipeline.Timezone != "" {
		if _, err := time.LoadLocation(c.Pipeline.Timezone); err != nil {
			return common.NewConfigError(fmt.Sprintf("unknown pipeline.timezone %q", c.Pipeline.Timezone))
		}
	}
	if c.Geocode.Precision < 0 || c.Grouping.LocationPrecision < 0 {
		return common.NewConfigError("precision must not be negative")
	}
	if c.Grouping.DateLayout == "" {
		return common.NewConfigError("grouping.date_layout is required")
	}
	switch c.Geocode.Cache.Kind {
	case "memory", "lru":
	case "redis":
		if c.Geocode.Cache.RedisURL == "" {
			return common.NewConfigError("geocode.cache.redis_url is required for the redis cache")
		}
	default:
		return common.NewConfigError(fmt.Sprintf("unknown geocode cache kind %q", c.Geocode.Cache.Kind))
	}
	return nil
}
