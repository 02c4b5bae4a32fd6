// Package config loads server configuration from defaults, an optional YAML
// file, and FERIE_* environment variables, in that order.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/warp/ferie/factory"
)

// Config defines server configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	DB        DBConfig        `yaml:"db"`
	Log       LogConfig       `yaml:"log"`
	Season    SeasonConfig    `yaml:"season"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	CORS      CORSConfig      `yaml:"cors"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type DBConfig struct {
	Path string `yaml:"path"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// SeasonConfig selects the preset new seasons get when the request names
// none, and adds presets beyond the built-in ones.
type SeasonConfig struct {
	DefaultRules string              `yaml:"default_rules"`
	Rules        []factory.RulesJSON `yaml:"rules"`
}

type SchedulerConfig struct {
	Enabled      bool          `yaml:"enabled"`
	Interval     time.Duration `yaml:"interval"`
	MaxCarryover float64       `yaml:"max_carryover"`
}

type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 3000,
		},
		DB: DBConfig{
			Path: "holidays.db",
		},
		Log: LogConfig{
			Level: "info",
		},
		Season: SeasonConfig{
			DefaultRules: factory.PresetFerieloven,
		},
		Scheduler: SchedulerConfig{
			Enabled:      true,
			Interval:     time.Hour,
			MaxCarryover: 5,
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{"http://localhost:5173", "http://localhost:3000"},
		},
	}
}

// Load reads configuration from path (if non-empty, else FERIE_CONFIG_PATH)
// and environment variables.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("FERIE_CONFIG_PATH")
	}
	if path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail later at startup.
func (c Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.DB.Path == "" {
		return fmt.Errorf("db path is required")
	}
	if c.Scheduler.Enabled && c.Scheduler.Interval <= 0 {
		return fmt.Errorf("scheduler interval must be positive")
	}
	if c.Scheduler.MaxCarryover < 0 {
		return fmt.Errorf("scheduler max_carryover must not be negative")
	}
	return nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	if host := os.Getenv("FERIE_SERVER_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if portStr := os.Getenv("FERIE_SERVER_PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return fmt.Errorf("invalid FERIE_SERVER_PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	if dbPath := os.Getenv("FERIE_DB_PATH"); dbPath != "" {
		cfg.DB.Path = dbPath
	}
	if level := os.Getenv("FERIE_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
	if rules := os.Getenv("FERIE_DEFAULT_RULES"); rules != "" {
		cfg.Season.DefaultRules = rules
	}
	if enabled := os.Getenv("FERIE_SCHEDULER_ENABLED"); enabled != "" {
		b, err := strconv.ParseBool(enabled)
		if err != nil {
			return fmt.Errorf("invalid FERIE_SCHEDULER_ENABLED: %w", err)
		}
		cfg.Scheduler.Enabled = b
	}
	if interval := os.Getenv("FERIE_SCHEDULER_INTERVAL"); interval != "" {
		d, err := time.ParseDuration(interval)
		if err != nil {
			return fmt.Errorf("invalid FERIE_SCHEDULER_INTERVAL: %w", err)
		}
		cfg.Scheduler.Interval = d
	}
	if origins := os.Getenv("FERIE_CORS_ORIGINS"); origins != "" {
		cfg.CORS.AllowedOrigins = strings.Split(origins, ",")
	}
	return nil
}
