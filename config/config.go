package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"verinest-onboarding/shared"
)

// Config represents the application configuration
type Config struct {
	Temporal TemporalConfig `yaml:"temporal"`
	API      APIConfig      `yaml:"api"`
	Upload   UploadConfig   `yaml:"upload"`
	Store    StoreConfig    `yaml:"store"`
	Events   EventsConfig   `yaml:"events"`
	Server   ServerConfig   `yaml:"server"`
	Logging  LoggingConfig  `yaml:"logging"`
	Wizard   WizardConfig   `yaml:"wizard"`
}

// TemporalConfig points clients and workers at a Temporal frontend.
type TemporalConfig struct {
	HostPort  string `yaml:"host_port"`
	Namespace string `yaml:"namespace"`
}

// APIConfig is the remote verification backend.
type APIConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// UploadConfig is the media host used for document and selfie images.
type UploadConfig struct {
	URL    string `yaml:"url"`
	Preset string `yaml:"preset"`
}

// StoreConfig selects the wizard state backend.
type StoreConfig struct {
	Driver        string        `yaml:"driver"` // memory, file, redis, sqlite
	Path          string        `yaml:"path"`   // directory for file, database file for sqlite
	RedisAddr     string        `yaml:"redis_addr"`
	RedisPassword string        `yaml:"redis_password"`
	RedisDB       int           `yaml:"redis_db"`
	TTL           time.Duration `yaml:"ttl"`
}

// EventsConfig selects where wizard outcomes are published.
type EventsConfig struct {
	Driver  string   `yaml:"driver"` // log, kafka
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

// ServerConfig is the HTTP session API listener.
type ServerConfig struct {
	Addr         string        `yaml:"addr"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// LoggingConfig configures zap.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, console
}

// WizardConfig overrides the idle timeline of hosted sessions.
type WizardConfig struct {
	FirstReminder  time.Duration `yaml:"first_reminder"`
	SecondReminder time.Duration `yaml:"second_reminder"`
	Abandon        time.Duration `yaml:"abandon"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Temporal: TemporalConfig{
			HostPort:  "localhost:7233",
			Namespace: "default",
		},
		API: APIConfig{
			BaseURL: "https://api.verinest.xyz",
			Timeout: 30 * time.Second,
		},
		Upload: UploadConfig{
			URL: "https://api.cloudinary.com/v1_1/verinest/image/upload",
		},
		Store: StoreConfig{
			Driver: "file",
			Path:   ".verinest/wizard",
			TTL:    7 * 24 * time.Hour,
		},
		Events: EventsConfig{
			Driver: "log",
			Topic:  "verification.events",
		},
		Server: ServerConfig{
			Addr:         ":8080",
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// LoadConfig loads configuration from .env, the YAML file at configPath and environment variables,
// in increasing order of precedence.
func LoadConfig(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	config := Default()

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, config); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		case !errors.Is(err, fs.ErrNotExist):
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	overrideWithEnv(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func overrideWithEnv(config *Config) {
	if v := os.Getenv("TEMPORAL_HOST_PORT"); v != "" {
		config.Temporal.HostPort = v
	}
	if v := os.Getenv("TEMPORAL_NAMESPACE"); v != "" {
		config.Temporal.Namespace = v
	}
	if v := os.Getenv("VERINEST_API_URL"); v != "" {
		config.API.BaseURL = v
	}
	if v := os.Getenv("VERINEST_UPLOAD_URL"); v != "" {
		config.Upload.URL = v
	}
	if v := os.Getenv("VERINEST_UPLOAD_PRESET"); v != "" {
		config.Upload.Preset = v
	}
	if v := os.Getenv("WIZARD_STORE_DRIVER"); v != "" {
		config.Store.Driver = v
	}
	if v := os.Getenv("WIZARD_STORE_PATH"); v != "" {
		config.Store.Path = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		config.Store.RedisAddr = v
	}
	if v := os.Getenv("REDIS_DB"); v != "" {
		if db, err := strconv.Atoi(v); err == nil {
			config.Store.RedisDB = db
		}
	}
	if v := os.Getenv("KAFKA_BROKER"); v != "" {
		config.Events.Driver = "kafka"
		config.Events.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("SERVER_ADDR"); v != "" {
		config.Server.Addr = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}
}

// Validate rejects unknown drivers and missing connection settings.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case "memory":
	case "file", "sqlite":
		if c.Store.Path == "" {
			return fmt.Errorf("store driver %q requires a path", c.Store.Driver)
		}
	case "redis":
		if c.Store.RedisAddr == "" {
			return fmt.Errorf("store driver redis requires redis_addr")
		}
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}

	switch c.Events.Driver {
	case "log":
	case "kafka":
		if len(c.Events.Brokers) == 0 || c.Events.Topic == "" {
			return fmt.Errorf("events driver kafka requires brokers and topic")
		}
	default:
		return fmt.Errorf("unknown events driver %q", c.Events.Driver)
	}

	if c.API.BaseURL == "" {
		return fmt.Errorf("api base_url is required")
	}
	return nil
}

// Timeline converts the wizard settings to workflow input; zero values fall back to the defaults.
func (w WizardConfig) Timeline() shared.Timeline {
	return shared.Timeline{
		FirstReminder:  w.FirstReminder,
		SecondReminder: w.SecondReminder,
		Abandon:        w.Abandon,
	}.WithDefaults()
}
