package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config defines console configuration.
type Config struct {
	API       APIConfig       `yaml:"api"`
	Storage   StorageConfig   `yaml:"storage"`
	Views     ViewsConfig     `yaml:"views"`
	Log       LogConfig       `yaml:"log"`
	Transport TransportConfig `yaml:"transport"`
	Server    ServerConfig    `yaml:"server"`
}

type APIConfig struct {
	BaseURL string        `yaml:"base_url" env:"TASKDESK_API_BASE_URL"`
	Timeout time.Duration `yaml:"timeout" env:"TASKDESK_API_TIMEOUT"`
}

type StorageConfig struct {
	Path string `yaml:"path" env:"TASKDESK_STORAGE_PATH"`
}

type ViewsConfig struct {
	PageSize int `yaml:"page_size" env:"TASKDESK_VIEWS_PAGE_SIZE"`
}

type LogConfig struct {
	Level string `yaml:"level" env:"TASKDESK_LOG_LEVEL"`
	Path  string `yaml:"path" env:"TASKDESK_LOG_PATH"`
}

type TransportConfig struct {
	Mode string `yaml:"mode" env:"TASKDESK_TRANSPORT_MODE"`
}

type ServerConfig struct {
	Host string `yaml:"host" env:"TASKDESK_SERVER_HOST"`
	Port int    `yaml:"port" env:"TASKDESK_SERVER_PORT"`
	// AuthToken, when set, is required as a bearer token on /mcp in HTTP mode.
	AuthToken      string        `yaml:"auth_token" env:"TASKDESK_SERVER_AUTH_TOKEN"`
	SessionTimeout time.Duration `yaml:"session_timeout" env:"TASKDESK_SERVER_SESSION_TIMEOUT"`
}

// Transport modes.
const (
	ModeStdio = "stdio"
	ModeHTTP  = "http"
)

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		API: APIConfig{
			BaseURL: "http://localhost:5000/api",
			Timeout: 15 * time.Second,
		},
		Storage: StorageConfig{
			Path: "taskdesk.db",
		},
		Views: ViewsConfig{
			PageSize: 5,
		},
		Log: LogConfig{
			Level: "info",
		},
		Transport: TransportConfig{
			Mode: ModeStdio,
		},
		Server: ServerConfig{
			Host:           "0.0.0.0",
			Port:           8080,
			SessionTimeout: 30 * time.Minute,
		},
	}
}

// Load reads configuration from defaults, then an optional YAML file named by
// TASKDESK_CONFIG_PATH, then TASKDESK_* environment variables.
func Load() (Config, error) {
	cfg := Default()

	if path := os.Getenv("TASKDESK_CONFIG_PATH"); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the console cannot start with.
func (c Config) Validate() error {
	var errs []error
	if c.API.BaseURL == "" {
		errs = append(errs, errors.New("api.base_url is required"))
	}
	if c.API.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("api.timeout must be positive, got %s", c.API.Timeout))
	}
	if c.Views.PageSize < 1 {
		errs = append(errs, fmt.Errorf("views.page_size must be at least 1, got %d", c.Views.PageSize))
	}
	if c.Transport.Mode != ModeStdio && c.Transport.Mode != ModeHTTP {
		errs = append(errs, fmt.Errorf("transport.mode must be %q or %q, got %q", ModeStdio, ModeHTTP, c.Transport.Mode))
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port out of range: %d", c.Server.Port))
	}
	return errors.Join(errs...)
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
