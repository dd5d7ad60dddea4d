/*
Package config loads service configuration.

SOURCES (highest precedence first):
  1. Environment variables, prefix LUNARLOG_ ("server.port" -> LUNARLOG_SERVER_PORT)
  2. Config file given with --config, or ./lunarlog.yaml if present
  3. Defaults below

A .env file in the working directory is loaded into the environment first.

KEYS:
  server.port          HTTP port (default 8080)
  server.cors_origins  Allowed CORS origins
  database.path        SQLite path or ":memory:" (default lunarlog.db)
  log.level            debug | info | warn | error (default info)
  log.format           console | json (default console)
  reminders.enabled    Run the reminder scheduler (default true)
  reminders.schedule   Cron expression (default "0 8 * * *")
*/
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server" validate:"required"`
	Database  DatabaseConfig  `mapstructure:"database" validate:"required"`
	Log       LogConfig       `mapstructure:"log" validate:"required"`
	Reminders RemindersConfig `mapstructure:"reminders"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port        int      `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	CORSOrigins []string `mapstructure:"cors_origins"`
}

// DatabaseConfig contains storage settings.
type DatabaseConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"required,oneof=console json"`
}

// RemindersConfig contains scheduler settings.
type RemindersConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule" validate:"required_if=Enabled true"`
}

const envPrefix = "LUNARLOG"

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_origins", []string{"http://localhost:5173", "http://localhost:8080"})
	v.SetDefault("database.path", "lunarlog.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("reminders.enabled", true)
	v.SetDefault("reminders.schedule", "0 8 * * *")
}

// New returns a viper instance with defaults and env binding set up.
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads configuration from the environment and an optional file.
// An empty path looks for lunarlog.{yaml,json,toml} in the working directory.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	v := New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("lunarlog")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	return FromViper(v)
}

// FromViper unmarshals and validates configuration from v.
func FromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the struct tags.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
