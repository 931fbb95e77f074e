package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/samvad-hq/chroma-client/pkg/chroma"
)

// Config holds the application configuration loaded from files and environment variables.
type Config struct {
	AppName  string `mapstructure:"app_name"`
	Env      string `mapstructure:"app_env"`
	LogLevel string `mapstructure:"log_level"`

	ChromaHost           string `mapstructure:"chroma_host"`
	ChromaAPIBase        string `mapstructure:"chroma_api_base"`
	ChromaAPIVersion     string `mapstructure:"chroma_api_version"`
	ChromaTenant         string `mapstructure:"chroma_tenant"`
	ChromaDatabase       string `mapstructure:"chroma_database"`
	ChromaAPIKey         string `mapstructure:"chroma_api_key"`
	ChromaLog            int    `mapstructure:"chroma_log"`
	ChromaUseTLS         bool   `mapstructure:"chroma_use_tls"`
	ChromaTimeoutSeconds int64  `mapstructure:"chroma_timeout_seconds"`

	ManifestFile        string        `mapstructure:"manifest_file"`
	PublishersFile      string        `mapstructure:"publishers_file"`
	SyncIntervalSeconds int64         `mapstructure:"sync_interval"`
	SyncConcurrency     int           `mapstructure:"sync_concurrency"`
	ScrapeDelayMillis   int64         `mapstructure:"scrape_delay_ms"`
	ScrapeDelay         time.Duration `mapstructure:"-"`
	SyncInterval        time.Duration `mapstructure:"-"`
	ChromaTimeout       time.Duration `mapstructure:"-"`

	StorageType            string        `mapstructure:"storage_type"`
	BBoltPath              string        `mapstructure:"bbolt_path"`
	StorageTTLSeconds      int64         `mapstructure:"storage_ttl_seconds"`
	StorageCleanupSeconds  int64         `mapstructure:"storage_cleanup_interval_seconds"`
	StorageTTL             time.Duration `mapstructure:"-"`
	StorageCleanupInterval time.Duration `mapstructure:"-"`
}

// Load reads configuration from environment variables and config files.
func Load() (*Config, error) {
	_ = godotenv.Load("configs/.env")
	return load(viper.New())
}

func load(v *viper.Viper) (*Config, error) {
	v.SetDefault("app_name", "chroma-client")
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("chroma_host", "http://localhost:8000")
	v.SetDefault("chroma_api_base", chroma.DefaultAPIBase)
	v.SetDefault("chroma_api_version", chroma.DefaultAPIVersion)
	v.SetDefault("chroma_tenant", chroma.DefaultTenant)
	v.SetDefault("chroma_database", chroma.DefaultDatabase)
	v.SetDefault("chroma_api_key", "")
	v.SetDefault("chroma_log", int(chroma.LevelInfo))
	v.SetDefault("chroma_use_tls", false)
	v.SetDefault("chroma_timeout_seconds", 30)
	v.SetDefault("manifest_file", "./configs/manifest.yaml")
	v.SetDefault("publishers_file", "")
	v.SetDefault("sync_interval", 0) // seconds; 0 runs a single pass
	v.SetDefault("sync_concurrency", 4)
	v.SetDefault("scrape_delay_ms", 250)
	v.SetDefault("storage_type", "bbolt")
	v.SetDefault("bbolt_path", "./data/sync.db")
	v.SetDefault("storage_ttl_seconds", int64((30*24*time.Hour)/time.Second))
	v.SetDefault("storage_cleanup_interval_seconds", int64((12*time.Hour)/time.Second))

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if strings.TrimSpace(cfg.ChromaHost) == "" {
		return nil, fmt.Errorf("invalid chroma_host (must not be empty)")
	}
	if cfg.ChromaTimeoutSeconds <= 0 {
		return nil, fmt.Errorf("invalid chroma_timeout_seconds (must be positive seconds)")
	}
	cfg.ChromaTimeout = time.Duration(cfg.ChromaTimeoutSeconds) * time.Second

	if cfg.SyncIntervalSeconds < 0 {
		return nil, fmt.Errorf("invalid sync_interval (must not be negative)")
	}
	cfg.SyncInterval = time.Duration(cfg.SyncIntervalSeconds) * time.Second
	if cfg.SyncConcurrency <= 0 {
		cfg.SyncConcurrency = 1
	}
	if cfg.ScrapeDelayMillis < 0 {
		return nil, fmt.Errorf("invalid scrape_delay_ms (must not be negative)")
	}
	cfg.ScrapeDelay = time.Duration(cfg.ScrapeDelayMillis) * time.Millisecond

	if cfg.StorageTTLSeconds <= 0 {
		return nil, fmt.Errorf("invalid storage_ttl_seconds (must be positive seconds)")
	}
	if cfg.StorageCleanupSeconds <= 0 {
		return nil, fmt.Errorf("invalid storage_cleanup_interval_seconds (must be positive seconds)")
	}
	cfg.StorageTTL = time.Duration(cfg.StorageTTLSeconds) * time.Second
	cfg.StorageCleanupInterval = time.Duration(cfg.StorageCleanupSeconds) * time.Second

	return &cfg, nil
}

// ChromaConfiguration builds the client configuration. The logger is attached by the caller.
func (c *Config) ChromaConfiguration(log chroma.Logger) *chroma.Configuration {
	cc := chroma.NewConfiguration(c.ChromaHost)
	cc.APIBase = c.ChromaAPIBase
	cc.APIVersion = c.ChromaAPIVersion
	cc.Tenant = c.ChromaTenant
	cc.Database = c.ChromaDatabase
	cc.APIKey = c.ChromaAPIKey
	cc.LogLevel = chroma.Level(c.ChromaLog)
	cc.UseTLS = c.ChromaUseTLS
	cc.Timeout = c.ChromaTimeout
	cc.Logger = log
	return cc
}
