package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Auth     AuthConfig     `mapstructure:"auth"`
	// EntitiesFile optionally points at a JSON document overriding the
	// built-in entity descriptors.
	EntitiesFile string `mapstructure:"entities_file"`
}

type ServerConfig struct {
	Port      int    `mapstructure:"port"`
	StaticDir string `mapstructure:"static_dir"`
}

type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	PoolSize int    `mapstructure:"pool_size"`
	Path     string `mapstructure:"path"` // directory for SQLite database files
}

type AuthConfig struct {
	// JWTSecret signs access tokens. Required unless dev_mode is set,
	// in which case a fixed development secret is substituted.
	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
	DevMode   bool          `mapstructure:"dev_mode"`

	// Bootstrap account created when the users table is empty.
	BootstrapUsername string `mapstructure:"bootstrap_username"`
	BootstrapPassword string `mapstructure:"bootstrap_password"`
}

// DevJWTSecret is the well-known signing key used only when dev_mode
// is enabled and no jwt_secret is configured.
const DevJWTSecret = "dev-insecure-secret"

var ErrMissingJWTSecret = errors.New("auth.jwt_secret is required (set auth.dev_mode to use the insecure development key)")

// DSN returns the driver-specific data source name.
func (d DatabaseConfig) DSN() string {
	if d.Driver == "sqlite" {
		if d.Name == ":memory:" {
			return ":memory:"
		}
		return filepath.Join(d.Path, d.Name+".db")
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		d.User, d.Password, d.Host, d.Port, d.Name)
}

// IsSQLite returns true if the driver is sqlite.
func (d DatabaseConfig) IsSQLite() bool {
	return d.Driver == "sqlite"
}

func Load() (*Config, error) {
	viper.SetConfigName("app")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("../..")

	viper.SetDefault("server.port", 5000)
	viper.SetDefault("server.static_dir", "./public")
	viper.SetDefault("database.driver", "sqlite")
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.pool_size", 10)
	viper.SetDefault("database.path", "./data")
	viper.SetDefault("database.name", "lims")
	viper.SetDefault("auth.token_ttl", "8h")
	viper.SetDefault("auth.bootstrap_username", "admin")
	viper.SetDefault("auth.bootstrap_password", "admin")
	viper.SetDefault("entities_file", "")

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		// no config file: defaults plus environment
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.Auth.JWTSecret == "" && !cfg.Auth.DevMode {
		return nil, ErrMissingJWTSecret
	}

	return &cfg, nil
}
