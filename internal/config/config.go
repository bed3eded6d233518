// Package config defines the data structures related to configuration and
// includes functions for loading and validating it.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/iwvelando/credit-calculator/pkg/constants"
	"github.com/iwvelando/credit-calculator/pkg/validation"
	"github.com/spf13/viper"
)

// Configuration holds all configuration for credit-calculator.
type Configuration struct {
	Server   ServerConfig   `mapstructure:"server" yaml:"server"`
	Database DatabaseConfig `mapstructure:"database" yaml:"database"`
	Cache    CacheConfig    `mapstructure:"cache" yaml:"cache"`
	Logging  LoggingConfig  `mapstructure:"logging" yaml:"logging,omitempty"`
	Output   OutputConfig   `mapstructure:"output" yaml:"output,omitempty"`
}

// ServerConfig defines runtime parameters for the HTTP server.
type ServerConfig struct {
	Address         string          `mapstructure:"address" yaml:"address"`
	MaxBodySize     string          `mapstructure:"maxBodySize" yaml:"maxBodySize"`
	ReadTimeout     time.Duration   `mapstructure:"readTimeout" yaml:"readTimeout"`
	WriteTimeout    time.Duration   `mapstructure:"writeTimeout" yaml:"writeTimeout"`
	IdleTimeout     time.Duration   `mapstructure:"idleTimeout" yaml:"idleTimeout"`
	ShutdownTimeout time.Duration   `mapstructure:"shutdownTimeout" yaml:"shutdownTimeout"`
	AllowedOrigins  []string        `mapstructure:"allowedOrigins" yaml:"allowedOrigins"`
	RateLimit       RateLimitConfig `mapstructure:"rateLimit" yaml:"rateLimit"`

	maxBodySizeBytes int64
}

// RateLimitConfig holds per-client request limits. A zero rate disables limiting.
type RateLimitConfig struct {
	RequestsPerMinute int `mapstructure:"requestsPerMinute" yaml:"requestsPerMinute"`
	Burst             int `mapstructure:"burst" yaml:"burst"`
}

// DatabaseConfig selects and configures the calculation repository.
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver" yaml:"driver"` // memory, postgres
	Host            string        `mapstructure:"host" yaml:"host"`
	Port            int           `mapstructure:"port" yaml:"port"`
	User            string        `mapstructure:"user" yaml:"user"`
	Password        string        `mapstructure:"password" yaml:"password"`
	Name            string        `mapstructure:"name" yaml:"name"`
	SSLMode         string        `mapstructure:"sslMode" yaml:"sslMode"`
	MaxOpenConns    int           `mapstructure:"maxOpenConns" yaml:"maxOpenConns"`
	MaxIdleConns    int           `mapstructure:"maxIdleConns" yaml:"maxIdleConns"`
	ConnMaxLifetime time.Duration `mapstructure:"connMaxLifetime" yaml:"connMaxLifetime"`
}

// CacheConfig selects and configures the calculation cache.
type CacheConfig struct {
	Driver   string        `mapstructure:"driver" yaml:"driver"` // none, memory, redis
	Address  string        `mapstructure:"address" yaml:"address"`
	Password string        `mapstructure:"password" yaml:"password"`
	DB       int           `mapstructure:"db" yaml:"db"`
	TTL      time.Duration `mapstructure:"ttl" yaml:"ttl"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `mapstructure:"level" yaml:"level,omitempty"`           // debug, info, warn, error
	Format     string `mapstructure:"format" yaml:"format,omitempty"`         // json, console
	OutputFile string `mapstructure:"outputFile" yaml:"outputFile,omitempty"` // optional file output
}

// OutputConfig holds CLI output configuration options
type OutputConfig struct {
	Format         string `mapstructure:"format" yaml:"format,omitempty"` // pretty, csv, json, yaml
	Locale         string `mapstructure:"locale" yaml:"locale,omitempty"`
	CurrencySymbol string `mapstructure:"currencySymbol" yaml:"currencySymbol,omitempty"`
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.address", constants.DefaultServerAddress)
	v.SetDefault("server.maxBodySize", fmt.Sprintf("%d", constants.DefaultMaxBodySizeBytes))
	v.SetDefault("server.readTimeout", 15*time.Second)
	v.SetDefault("server.writeTimeout", 15*time.Second)
	v.SetDefault("server.idleTimeout", 60*time.Second)
	v.SetDefault("server.shutdownTimeout", 10*time.Second)
	v.SetDefault("server.allowedOrigins", []string{"*"})
	v.SetDefault("server.rateLimit.requestsPerMinute", 0)
	v.SetDefault("server.rateLimit.burst", 0)

	v.SetDefault("database.driver", constants.StorageDriverMemory)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "credit_calculator")
	v.SetDefault("database.sslMode", "disable")
	v.SetDefault("database.maxOpenConns", 25)
	v.SetDefault("database.maxIdleConns", 5)
	v.SetDefault("database.connMaxLifetime", time.Hour)

	v.SetDefault("cache.driver", constants.CacheDriverNone)
	v.SetDefault("cache.address", "localhost:6379")
	v.SetDefault("cache.password", "")
	v.SetDefault("cache.db", 0)
	v.SetDefault("cache.ttl", 10*time.Minute)

	v.SetDefault("logging.level", "")
	v.SetDefault("logging.format", "")
	v.SetDefault("logging.outputFile", "")

	v.SetDefault("output.format", constants.OutputFormatPretty)
	v.SetDefault("output.locale", constants.DefaultLocale)
	v.SetDefault("output.currencySymbol", constants.DefaultCurrencySymbol)

	return v
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there. A missing file yields the defaults; environment
// variables prefixed with CREDIT_ override either.
func LoadConfiguration(configPath string) (*Configuration, error) {
	if configPath == "" {
		return LoadConfigurationFromReader(nil)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return LoadConfigurationFromReader(nil)
		}
		return nil, fmt.Errorf("error reading config file, %w", err)
	}
	return LoadConfigurationFromReader(bytes.NewReader(data))
}

// LoadConfigurationFromReader loads YAML configuration from r. A nil reader
// yields the defaults.
func LoadConfigurationFromReader(r io.Reader) (*Configuration, error) {
	v := newViper()
	if r != nil {
		if err := v.ReadConfig(r); err != nil {
			return nil, fmt.Errorf("error reading config data, %w", err)
		}
	}

	var configuration Configuration
	if err := v.Unmarshal(&configuration); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %w", err)
	}

	if err := configuration.Validate(); err != nil {
		return nil, err
	}
	return &configuration, nil
}

// Validate normalizes the configuration and rejects unsupported values.
func (c *Configuration) Validate() error {
	if strings.TrimSpace(c.Server.Address) == "" {
		c.Server.Address = constants.DefaultServerAddress
	}

	size, err := ParseSize(c.Server.MaxBodySize)
	if err != nil {
		return err
	}
	if size <= 0 {
		size = constants.DefaultMaxBodySizeBytes
	}
	c.Server.maxBodySizeBytes = size

	if c.Server.RateLimit.RequestsPerMinute < 0 {
		return fmt.Errorf("server.rateLimit.requestsPerMinute must not be negative, got %d", c.Server.RateLimit.RequestsPerMinute)
	}

	switch c.Database.Driver {
	case constants.StorageDriverMemory, constants.StorageDriverPostgres:
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}

	switch c.Cache.Driver {
	case constants.CacheDriverNone, constants.CacheDriverMemory, constants.CacheDriverRedis:
	default:
		return fmt.Errorf("unsupported cache driver %q", c.Cache.Driver)
	}

	if err := validation.ValidateOutputFormat(c.Output.Format); err != nil {
		return err
	}

	return nil
}

// MaxBodySizeBytes returns the configured request body limit in bytes.
func (c ServerConfig) MaxBodySizeBytes() int64 {
	if c.maxBodySizeBytes <= 0 {
		return constants.DefaultMaxBodySizeBytes
	}
	return c.maxBodySizeBytes
}

// DSN returns the lib/pq connection string for the database.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}
