package config

import "time"

// Config holds all client configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Backend      BackendConfig      `mapstructure:"backend"      validate:"required"`
	Connectivity ConnectivityConfig `mapstructure:"connectivity" validate:"required"`
	Storage      StorageConfig      `mapstructure:"storage"      validate:"required"`
	Log          LogConfig          `mapstructure:"log"          validate:"required"`
	DevServer    DevServerConfig    `mapstructure:"devserver"`
}

// BackendConfig describes how to reach the authoritative simulation API.
type BackendConfig struct {
	BaseURL        string        `mapstructure:"base_url"        validate:"required,url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" validate:"gt=0"`
}

// ConnectivityConfig controls the reachability probe.
type ConnectivityConfig struct {
	ProbeTimeout time.Duration `mapstructure:"probe_timeout" validate:"gt=0"`
	// ProbeSchedule is a cron spec such as "@every 30s". Empty disables periodic probing;
	// the startup probe always runs.
	ProbeSchedule string `mapstructure:"probe_schedule"`
}

// StorageConfig selects the durable key/value backend used in offline mode.
type StorageConfig struct {
	Driver      string `mapstructure:"driver"       validate:"required,oneof=file memory postgres redis"`
	Path        string `mapstructure:"path"         validate:"required_if=Driver file"`
	DatabaseURL string `mapstructure:"database_url" validate:"required_if=Driver postgres"`
	RedisAddr   string `mapstructure:"redis_addr"   validate:"required_if=Driver redis"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"  validate:"required,oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"required,oneof=json text"`
}

// DevServerConfig configures the in-memory development backend. Only
// cmd/devserver reads it; RequireDevServer enforces the secret.
type DevServerConfig struct {
	Addr          string        `mapstructure:"addr"           validate:"required"`
	Secret        string        `mapstructure:"secret"         validate:"omitempty,min=32"`
	TokenLifetime time.Duration `mapstructure:"token_lifetime" validate:"gt=0"`
}
