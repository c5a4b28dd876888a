package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/username/shift-calendar/internal/grid"
	"github.com/username/shift-calendar/internal/rotation"
)

// Storage drivers
const (
	DriverFile   = "file"
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
)

// Config represents application configuration
type Config struct {
	Storage  StorageConfig  `mapstructure:"storage"`
	Calendar CalendarConfig `mapstructure:"calendar"`
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
}

// StorageConfig selects where calendar state is persisted
type StorageConfig struct {
	Driver string `mapstructure:"driver"` // file, memory, sqlite or mysql
	Path   string `mapstructure:"path"`   // state file for the file driver
	DSN    string `mapstructure:"dsn"`    // data source for sqlite/mysql
}

// CalendarConfig represents calendar configuration
type CalendarConfig struct {
	CatalogFile string       `mapstructure:"catalog_file"` // optional fixed holiday table
	Colors      grid.Palette `mapstructure:"colors"`
}

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Address        string   `mapstructure:"address"`
	Timeout        string   `mapstructure:"timeout"`
	IdleTimeout    string   `mapstructure:"idle_timeout"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// LogConfig represents logging configuration
type LogConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

// Default returns the configuration used when no file is present
func Default() *Config {
	palette := grid.DefaultPalette()
	return &Config{
		Storage: StorageConfig{
			Driver: DriverFile,
			Path:   defaultStatePath(),
		},
		Calendar: CalendarConfig{Colors: palette},
		Server: ServerConfig{
			Address:        "localhost:8080",
			Timeout:        "10s",
			IdleTimeout:    "60s",
			AllowedOrigins: []string{"*"},
		},
		Log: LogConfig{Level: "info"},
	}
}

func defaultStatePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "shiftcal-state.json"
	}
	return home + "/.shiftcal/state.json"
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("storage.driver", d.Storage.Driver)
	v.SetDefault("storage.path", d.Storage.Path)
	v.SetDefault("storage.dsn", "")
	v.SetDefault("calendar.catalog_file", "")
	v.SetDefault("calendar.colors.holiday", d.Calendar.Colors.Holiday)
	v.SetDefault("calendar.colors.weekend", d.Calendar.Colors.Weekend)
	v.SetDefault("calendar.colors.default", d.Calendar.Colors.Default)
	v.SetDefault("server.address", d.Server.Address)
	v.SetDefault("server.timeout", d.Server.Timeout)
	v.SetDefault("server.idle_timeout", d.Server.IdleTimeout)
	v.SetDefault("server.allowed_origins", d.Server.AllowedOrigins)
	v.SetDefault("log.file", "")
	v.SetDefault("log.level", d.Log.Level)
}

// Load loads configuration from file. An explicit configPath must exist;
// when searching the default locations a missing file yields the defaults.
func Load(configPath string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.shiftcal")
		v.AddConfigPath("/etc/shiftcal")
	}

	v.SetEnvPrefix("SHIFTCAL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	config.ExpandEnvVars()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case DriverFile:
		if c.Storage.Path == "" {
			return fmt.Errorf("storage.path is required for file driver")
		}
	case DriverMemory:
	case DriverSQLite, DriverMySQL:
		if c.Storage.DSN == "" {
			return fmt.Errorf("storage.dsn is required for %s driver", c.Storage.Driver)
		}
	default:
		return fmt.Errorf("storage.driver must be one of file, memory, sqlite, mysql, got '%s'", c.Storage.Driver)
	}

	colors := map[string]string{
		"holiday": c.Calendar.Colors.Holiday,
		"weekend": c.Calendar.Colors.Weekend,
		"default": c.Calendar.Colors.Default,
	}
	for name, color := range colors {
		if color != "" && !rotation.IsColor(color) {
			return fmt.Errorf("calendar.colors.%s must be a #rgb or #rrggbb color, got '%s'", name, color)
		}
	}

	if c.Server.Address == "" {
		return fmt.Errorf("server.address is required")
	}
	for key, raw := range map[string]string{"server.timeout": c.Server.Timeout, "server.idle_timeout": c.Server.IdleTimeout} {
		if raw == "" {
			continue
		}
		if d, err := time.ParseDuration(raw); err != nil || d < 0 {
			return fmt.Errorf("%s must be a positive duration, got '%s'", key, raw)
		}
	}

	return nil
}

// GetTimeout returns the request timeout. Default: 10s
func (c *ServerConfig) GetTimeout() time.Duration {
	return parseDuration(c.Timeout, 10*time.Second)
}

// GetIdleTimeout returns the keep-alive timeout. Default: 60s
func (c *ServerConfig) GetIdleTimeout() time.Duration {
	return parseDuration(c.IdleTimeout, 60*time.Second)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	duration, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}
	return duration
}

// ExpandEnvVars expands environment variables in config strings
func (c *Config) ExpandEnvVars() {
	c.Storage.Path = os.ExpandEnv(c.Storage.Path)
	c.Storage.DSN = os.ExpandEnv(c.Storage.DSN)
	c.Calendar.CatalogFile = os.ExpandEnv(c.Calendar.CatalogFile)
	c.Log.File = os.ExpandEnv(c.Log.File)
}
