package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultPath is read when no path is given and BETLEDGER_CONFIG is unset.
const DefaultPath = "betledger.toml"

type Config struct {
	General GeneralConfig `toml:"general" yaml:"general"`
	Gateway GatewayConfig `toml:"gateway" yaml:"gateway"`
	Server  ServerConfig  `toml:"server" yaml:"server"`
	UI      UIConfig      `toml:"ui" yaml:"ui"`
}

type GeneralConfig struct {
	LogLevel      string `toml:"log_level" yaml:"log_level"`
	LogFile       string `toml:"log_file" yaml:"log_file"`
	LogMaxSizeMB  int    `toml:"log_max_size_mb" yaml:"log_max_size_mb"`
	LogMaxBackups int    `toml:"log_max_backups" yaml:"log_max_backups"`
	LogMaxAgeDays int    `toml:"log_max_age_days" yaml:"log_max_age_days"`
}

// GatewayConfig configures the REST client. A zero Timeout leaves requests
// bounded only by the transport.
type GatewayConfig struct {
	BaseURL   string   `toml:"base_url" yaml:"base_url"`
	Timeout   Duration `toml:"timeout" yaml:"timeout"`
	UserAgent string   `toml:"user_agent" yaml:"user_agent"`
}

type ServerConfig struct {
	Addr           string   `toml:"addr" yaml:"addr"`
	DatabaseType   string   `toml:"database_type" yaml:"database_type"`
	DatabaseURL    string   `toml:"database_url" yaml:"database_url"`
	CORSOrigins    []string `toml:"cors_origins" yaml:"cors_origins"`
	RequestTimeout Duration `toml:"request_timeout" yaml:"request_timeout"`
	SeedMethods    []string `toml:"seed_methods" yaml:"seed_methods"`
}

type UIConfig struct {
	NotificationTTL Duration `toml:"notification_ttl" yaml:"notification_ttl"`
}

// Duration wraps time.Duration for TOML and YAML unmarshaling.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// UnmarshalYAML accepts the same duration strings as the TOML decoder.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	return d.UnmarshalText([]byte(node.Value))
}

// Load reads the config file at path (TOML, or YAML for .yaml/.yml), after
// loading a .env file if one exists, then applies environment overrides.
// A missing file is only an error when the path was given explicitly.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	explicit := path != ""
	if !explicit {
		if p := os.Getenv("BETLEDGER_CONFIG"); p != "" {
			path, explicit = p, true
		} else {
			path = DefaultPath
		}
	}

	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := decode(path, data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("reading config: %w", err)
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decode(path string, data []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, cfg)
	default:
		return toml.Unmarshal(data, cfg)
	}
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("BETLEDGER_API_URL"); v != "" {
		cfg.Gateway.BaseURL = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Server.DatabaseURL = v
	}
	if v := os.Getenv("BETLEDGER_DB_TYPE"); v != "" {
		cfg.Server.DatabaseType = v
	}
	if v := os.Getenv("BETLEDGER_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.General.LogLevel = v
	}
	if v := os.Getenv("LOG_FILE"); v != "" {
		cfg.General.LogFile = v
	}
}

// Validate rejects settings no component can run with.
func (c *Config) Validate() error {
	if c.Gateway.BaseURL == "" {
		return fmt.Errorf("gateway.base_url is required")
	}
	switch c.Server.DatabaseType {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("server.database_type must be sqlite or postgres, got %q", c.Server.DatabaseType)
	}
	if c.Gateway.Timeout.Duration < 0 {
		return fmt.Errorf("gateway.timeout must not be negative")
	}
	return nil
}

func DefaultConfig() *Config {
	return &Config{
		General: GeneralConfig{
			LogLevel:      "info",
			LogMaxSizeMB:  100,
			LogMaxBackups: 3,
			LogMaxAgeDays: 7,
		},
		Gateway: GatewayConfig{
			BaseURL:   "http://localhost:5000",
			UserAgent: "betledger",
		},
		Server: ServerConfig{
			Addr:           ":5000",
			DatabaseType:   "sqlite",
			DatabaseURL:    "./data/betledger.db",
			CORSOrigins:    []string{"*"},
			RequestTimeout: Duration{30 * time.Second},
			SeedMethods:    []string{"lay 0x1", "lay 1x0"},
		},
		UI: UIConfig{
			NotificationTTL: Duration{3 * time.Second},
		},
	}
}
