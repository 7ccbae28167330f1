// Package config loads reservy settings from defaults, an optional YAML file,
// a .env file and the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override (RESERVY_SERVER_ADDR, ...).
const EnvPrefix = "RESERVY"

// Config is the full application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Places   PlacesConfig   `mapstructure:"places"`
	LLM      LLMConfig      `mapstructure:"llm"`
	Store    StoreConfig    `mapstructure:"store"`
	Calendar CalendarConfig `mapstructure:"calendar"`
	Slots    SlotsConfig    `mapstructure:"slots"`
	Client   ClientConfig   `mapstructure:"client"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ToolTimeout     time.Duration `mapstructure:"tool_timeout"`
	MaxConcurrency  int           `mapstructure:"max_concurrency"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type PlacesConfig struct {
	APIKey         string        `mapstructure:"api_key"`
	BaseURL        string        `mapstructure:"base_url"`
	Timeout        time.Duration `mapstructure:"timeout"`
	SearchTimeout  time.Duration `mapstructure:"search_timeout"`
	DetailsLimit   int           `mapstructure:"details_limit"`
	DetailsWorkers int           `mapstructure:"details_workers"`
}

type LLMConfig struct {
	APIKey  string        `mapstructure:"api_key"`
	Model   string        `mapstructure:"model"`
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// StoreConfig selects the reservation store. Driver is "memory" or "sqlite".
type StoreConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

type CalendarConfig struct {
	Dir string `mapstructure:"dir"`
}

// SlotsConfig seeds the mock availability generator. Zero means a random seed.
type SlotsConfig struct {
	Seed uint64 `mapstructure:"seed"`
}

// ClientConfig is used by the assistant and the tools subcommands.
type ClientConfig struct {
	ServerURL string        `mapstructure:"server_url"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	// Traces logs one debug event per tool span.
	Traces bool `mapstructure:"traces"`
}

// Load reads configuration. configPath may be empty, in which case reservy.yaml
// is looked up in the working directory and /etc/reservy and may be absent.
// A .env file in the working directory is loaded first without overriding
// variables already set.
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/reservy")
		v.SetConfigName("reservy")
		v.SetConfigType("yaml")
	}
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// Unprefixed names kept for existing deployments.
	for key, legacy := range map[string]string{
		"places.api_key":    "GOOGLE_PLACES_API_KEY",
		"llm.api_key":       "GEMINI_API_KEY",
		"client.server_url": "MCP_SERVER_URL",
	} {
		envKey := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, envKey, legacy); err != nil {
			return nil, err
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8000")
	v.SetDefault("server.tool_timeout", 15*time.Second)
	v.SetDefault("server.max_concurrency", 10)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("places.api_key", "")
	v.SetDefault("places.base_url", "https://maps.googleapis.com")
	v.SetDefault("places.timeout", 10*time.Second)
	v.SetDefault("places.search_timeout", 30*time.Second)
	v.SetDefault("places.details_limit", 5)
	v.SetDefault("places.details_workers", 5)

	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.model", "gemini-2.0-flash")
	v.SetDefault("llm.base_url", "https://generativelanguage.googleapis.com")
	v.SetDefault("llm.timeout", 30*time.Second)

	v.SetDefault("store.driver", "memory")
	v.SetDefault("store.dsn", "reservy.db")

	v.SetDefault("calendar.dir", ".")

	v.SetDefault("slots.seed", 0)

	v.SetDefault("client.server_url", "http://localhost:8000")
	v.SetDefault("client.timeout", 60*time.Second)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.traces", false)
}

// Validate rejects settings the application cannot start with.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case "memory":
	case "sqlite":
		if c.Store.DSN == "" {
			return errors.New("config: store.dsn is required for the sqlite driver")
		}
	default:
		return fmt.Errorf("config: unknown store.driver %q (want memory or sqlite)", c.Store.Driver)
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("config: unknown log.format %q (want console or json)", c.Log.Format)
	}
	if c.Server.MaxConcurrency < 0 {
		return errors.New("config: server.max_concurrency must not be negative")
	}
	if c.Places.DetailsLimit < 0 {
		return errors.New("config: places.details_limit must not be negative")
	}
	if c.Places.DetailsWorkers <= 0 {
		return errors.New("config: places.details_workers must be positive")
	}
	return nil
}
