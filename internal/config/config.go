package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goodtune/svcint/internal/activity"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// DefaultPath is used when no --config flag is given.
const DefaultPath = "~/.config/svcint/config.yaml"

// Config holds the complete application configuration
type Config struct {
	Activities ActivitiesConfig `mapstructure:"activities"`
	Registry   RegistryConfig   `mapstructure:"registry"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Server     ServerConfig     `mapstructure:"server"`
	Cache      CacheConfig      `mapstructure:"cache"`
}

// ActivitiesConfig locates the activity export
type ActivitiesConfig struct {
	Path        string `mapstructure:"path"`
	ErrorPolicy string `mapstructure:"error_policy"` // "skip" or "fail"
}

// RegistryConfig locates the component registry
type RegistryConfig struct {
	Path string `mapstructure:"path"`
}

// StorageConfig defines where report snapshots are kept
type StorageConfig struct {
	Type      string      `mapstructure:"type"` // "bolt", "redis" or "none"
	Path      string      `mapstructure:"path"`
	Retention string      `mapstructure:"retention"`
	Redis     RedisConfig `mapstructure:"redis"`
}

// RedisConfig defines Redis connection settings
type RedisConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Password     string `mapstructure:"password"`
	DB           int    `mapstructure:"db"`
	PoolSize     int    `mapstructure:"pool_size"`
	MinIdleConns int    `mapstructure:"min_idle_conns"`
	DialTimeout  string `mapstructure:"dial_timeout"`
	ReadTimeout  string `mapstructure:"read_timeout"`
	WriteTimeout string `mapstructure:"write_timeout"`
}

// LoggingConfig defines logging behavior
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ServerConfig defines the serve command's listeners and refresh behaviour
type ServerConfig struct {
	BindAddress     string `mapstructure:"bind_address"`
	APIPort         int    `mapstructure:"api_port"`
	MetricsPort     int    `mapstructure:"metrics_port"`
	RefreshInterval string `mapstructure:"refresh_interval"`
	Watch           bool   `mapstructure:"watch"`
}

// CacheConfig sizes the parsed activity log cache
type CacheConfig struct {
	Size int `mapstructure:"size"`
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	SetDefaults(v)

	path, err := homedir.Expand(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to expand config path: %w", err)
	}

	// Configure viper
	v.SetConfigFile(path)
	v.SetEnvPrefix("SVCINT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, use defaults and environment variables
	}

	// Unmarshal config
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Validate config
	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Default returns the configuration made of defaults only.
func Default() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	_ = v.Unmarshal(&cfg)
	return &cfg
}

// SetDefaults sets default configuration values
func SetDefaults(v *viper.Viper) {
	// Input defaults
	v.SetDefault("activities.path", "~/Downloads/Activities.csv")
	v.SetDefault("activities.error_policy", "skip")
	v.SetDefault("registry.path", "~/.config/svcint/registry.json")

	// Storage defaults
	v.SetDefault("storage.type", "bolt")
	v.SetDefault("storage.path", "~/.local/share/svcint/history.bolt")
	v.SetDefault("storage.retention", "8760h")
	v.SetDefault("storage.redis.host", "localhost")
	v.SetDefault("storage.redis.port", 6379)
	v.SetDefault("storage.redis.password", "")
	v.SetDefault("storage.redis.db", 0)
	v.SetDefault("storage.redis.pool_size", 10)
	v.SetDefault("storage.redis.min_idle_conns", 1)
	v.SetDefault("storage.redis.dial_timeout", "5s")
	v.SetDefault("storage.redis.read_timeout", "3s")
	v.SetDefault("storage.redis.write_timeout", "3s")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")

	// Server defaults
	v.SetDefault("server.bind_address", "127.0.0.1")
	v.SetDefault("server.api_port", 8480)
	v.SetDefault("server.metrics_port", 9480)
	v.SetDefault("server.refresh_interval", "5m")
	v.SetDefault("server.watch", true)

	// Cache defaults
	v.SetDefault("cache.size", 16)
}

// ValidKeys returns every configuration key that has a default.
func ValidKeys() map[string]bool {
	v := viper.New()
	SetDefaults(v)

	keys := make(map[string]bool)
	for _, key := range v.AllKeys() {
		keys[key] = true
	}
	return keys
}

// validate validates the configuration
func validate(cfg *Config) error {
	if cfg.Activities.Path == "" {
		return fmt.Errorf("activities path is required")
	}
	if cfg.Registry.Path == "" {
		return fmt.Errorf("registry path is required")
	}
	if _, err := activity.ParsePolicy(cfg.Activities.ErrorPolicy); err != nil {
		return err
	}

	if err := validatePort("API", cfg.Server.APIPort); err != nil {
		return err
	}
	if err := validatePort("metrics", cfg.Server.MetricsPort); err != nil {
		return err
	}
	if _, err := time.ParseDuration(cfg.Server.RefreshInterval); err != nil {
		return fmt.Errorf("invalid refresh_interval: %w", err)
	}

	if cfg.Cache.Size <= 0 {
		return fmt.Errorf("invalid cache size: %d", cfg.Cache.Size)
	}

	switch cfg.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid logging level: %s", cfg.Logging.Level)
	}

	return validateStorage(&cfg.Storage)
}

func validateStorage(cfg *StorageConfig) error {
	if cfg.Type == "" {
		cfg.Type = "bolt"
	}
	if _, err := time.ParseDuration(cfg.Retention); err != nil {
		return fmt.Errorf("invalid storage retention: %w", err)
	}

	switch cfg.Type {
	case "none":
		return nil
	case "redis":
		for name, value := range map[string]string{
			"dial_timeout":  cfg.Redis.DialTimeout,
			"read_timeout":  cfg.Redis.ReadTimeout,
			"write_timeout": cfg.Redis.WriteTimeout,
		} {
			if _, err := time.ParseDuration(value); err != nil {
				return fmt.Errorf("invalid redis %s: %w", name, err)
			}
		}
		return nil
	case "bolt":
		if cfg.Path == "" {
			return fmt.Errorf("storage path is required")
		}
		path, err := homedir.Expand(cfg.Path)
		if err != nil {
			return fmt.Errorf("invalid storage path: %w", err)
		}
		cfg.Path = filepath.Clean(path)
		return nil
	default:
		return fmt.Errorf("unsupported storage type: %s (must be bolt, redis or none)", cfg.Type)
	}
}

func validatePort(name string, port int) error {
	if port <= 0 || port > 65535 {
		return fmt.Errorf("invalid %s port: %d", name, port)
	}
	return nil
}
