package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable the loader reads,
// e.g. AMORA_BACKEND_BASE_URL.
const EnvPrefix = "AMORA"

// Default values applied before files and environment variables are read.
const (
	DefaultBaseURL        = "http://localhost:8000"
	DefaultRequestTimeout = 10 * time.Second
	DefaultProbeTimeout   = 3 * time.Second
	DefaultStorageDriver  = "file"
	DefaultStoragePath    = ".amora-data"
	DefaultLogLevel       = "info"
	DefaultLogFormat      = "json"
	DefaultDevServerAddr  = ":8000"
	DefaultTokenLifetime  = 30 * time.Minute
)

// ErrMissingSecret is returned by RequireDevServer when no signing secret is set.
var ErrMissingSecret = errors.New("devserver.secret is required (AMORA_DEVSERVER_SECRET)")

// Options tune where Load looks for configuration.
type Options struct {
	// ConfigFile, when set, is read instead of searching for amora.yaml.
	ConfigFile string
	// EnvFile, when set, is loaded with godotenv before the environment is read.
	// A missing file is not an error.
	EnvFile string
}

// Load configuration from environment variables and optionally config files.
// Environment variables take precedence over values from config files.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	return LoadWithOptions(Options{EnvFile: ".env"})
}

// LoadWithOptions is Load with explicit file locations.
func LoadWithOptions(opts Options) (*Config, error) {
	if opts.EnvFile != "" {
		if err := godotenv.Load(opts.EnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load env file %s: %w", opts.EnvFile, err)
		}
	}

	v := viper.New()
	setDefaults(v)

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
	} else {
		v.SetConfigName("amora")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.amora")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// setDefaults registers every key so AutomaticEnv can resolve it during Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("backend.base_url", DefaultBaseURL)
	v.SetDefault("backend.request_timeout", DefaultRequestTimeout)
	v.SetDefault("connectivity.probe_timeout", DefaultProbeTimeout)
	v.SetDefault("connectivity.probe_schedule", "")
	v.SetDefault("storage.driver", DefaultStorageDriver)
	v.SetDefault("storage.path", DefaultStoragePath)
	v.SetDefault("storage.database_url", "")
	v.SetDefault("storage.redis_addr", "")
	v.SetDefault("log.level", DefaultLogLevel)
	v.SetDefault("log.format", DefaultLogFormat)
	v.SetDefault("devserver.addr", DefaultDevServerAddr)
	v.SetDefault("devserver.secret", "")
	v.SetDefault("devserver.token_lifetime", DefaultTokenLifetime)
}

// RequireDevServer checks the settings the development backend cannot start
// without.
func (c *Config) RequireDevServer() error {
	if c.DevServer.Secret == "" {
		return ErrMissingSecret
	}
	return nil
}
