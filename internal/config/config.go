package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	defaultConfigName     = "config.yaml"
	defaultPort           = 5000
	defaultLogCapacity    = 1000
	defaultTimeout        = 30 * time.Second
	defaultSimulatedDelay = 2 * time.Second
	defaultHealthInterval = 10 * time.Second
	defaultHealthTimeout  = 2 * time.Second

	TransferSimulated = "simulated"
	TransferAgent     = "agent"
)

type Config struct {
	Port         int             `yaml:"port" validate:"min=1,max=65535"`
	DatabasePath string          `yaml:"database_path"`
	Seed         bool            `yaml:"seed"`
	LogCapacity  int             `yaml:"log_capacity" validate:"min=1"`
	Log          LogConfig       `yaml:"log"`
	Migration    MigrationConfig `yaml:"migration"`
	Health       HealthConfig    `yaml:"health"`
}

type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=console json"`
	// File, when set, receives the log as well, rotated by size.
	File string `yaml:"file"`
}

type MigrationConfig struct {
	Timeout        time.Duration `yaml:"timeout" validate:"gt=0"`
	Transfer       string        `yaml:"transfer" validate:"oneof=simulated agent"`
	SimulatedDelay time.Duration `yaml:"simulated_delay" validate:"gte=0"`
	FailureRate    float64       `yaml:"failure_rate" validate:"gte=0,lte=1"`
}

type HealthConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Interval time.Duration `yaml:"interval" validate:"gt=0"`
	Timeout  time.Duration `yaml:"timeout" validate:"gt=0"`
}

// Default is the configuration written on first run.
func Default() Config {
	return Config{
		Port:        defaultPort,
		Seed:        true,
		LogCapacity: defaultLogCapacity,
		Log:         LogConfig{Level: "info", Format: "console"},
		Migration: MigrationConfig{
			Timeout:        defaultTimeout,
			Transfer:       TransferSimulated,
			SimulatedDelay: defaultSimulatedDelay,
		},
		Health: HealthConfig{
			Interval: defaultHealthInterval,
			Timeout:  defaultHealthTimeout,
		},
	}
}

// IsDev reports whether SHUTTLE_DEV asks for the development profile.
func IsDev() bool {
	v, _ := strconv.ParseBool(os.Getenv("SHUTTLE_DEV"))
	return v
}

func AppName() string {
	if IsDev() {
		return "shuttle-dev"
	}
	return "shuttle"
}

// Dir is the per-user directory holding config.yaml.
func Dir() (string, error) {
	userConfigDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(userConfigDir, AppName()), nil
}

// GetPort is the gateway port as seen from the environment, for clients that
// do not read the config file.
func GetPort() int {
	if port, err := strconv.Atoi(os.Getenv("SHUTTLE_PORT")); err == nil && port > 0 {
		return port
	}
	return defaultPort
}

func LoadConfig(configDir string) (*Config, error) {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return nil, err
	}

	configPath := filepath.Join(configDir, defaultConfigName)

	cfg := Default()
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := writeConfig(configPath, cfg); err != nil {
			return nil, err
		}
	} else {
		file, err := os.ReadFile(configPath)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(file, &cfg); err != nil {
			return nil, fmt.Errorf("error parsing %s: %w", configPath, err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("SHUTTLE_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid SHUTTLE_PORT %q: %w", v, err)
		}
		cfg.Port = port
	}
	if v, ok := os.LookupEnv("SHUTTLE_DB"); ok {
		cfg.DatabasePath = v
	}
	return nil
}

var validate = validator.New()

func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func writeConfig(configPath string, cfg Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(configPath, data, 0644)
}
