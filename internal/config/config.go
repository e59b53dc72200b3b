package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Backend strategy names.
const (
	StrategySQLite = "sqlite"
	StrategyTimew  = "timew"
)

// Config defines tracker configuration.
type Config struct {
	Backend BackendConfig `yaml:"backend"`
	DB      DBConfig      `yaml:"db"`
	Overlay OverlayConfig `yaml:"overlay"`
	Tracker TrackerConfig `yaml:"tracker"`
	Log     LogConfig     `yaml:"log"`
}

type BackendConfig struct {
	// Strategy selects the interval store: "sqlite" or "timew".
	Strategy string `yaml:"strategy"`
	// Command is the external tracker binary for the timew strategy.
	Command string `yaml:"command"`
	// TimeoutSeconds bounds each external command invocation.
	TimeoutSeconds int `yaml:"timeout_seconds"`
	// DeletePolicy is "soft" or "hard"; empty picks the strategy default
	// (hard for sqlite, soft for timew).
	DeletePolicy string `yaml:"delete_policy"`
}

type DBConfig struct {
	Path string `yaml:"path"`
}

type OverlayConfig struct {
	AnnotationsPath string `yaml:"annotations_path"`
	HiddenTagsPath  string `yaml:"hidden_tags_path"`
}

type TrackerConfig struct {
	// DefaultTask is started when no tag is given, created on demand.
	DefaultTask string `yaml:"default_task"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// Load reads configuration from an optional YAML file and environment
// variables.
func Load() (Config, error) {
	cfg := Config{
		Backend: BackendConfig{
			Strategy:       StrategySQLite,
			Command:        "timew",
			TimeoutSeconds: 10,
		},
		DB: DBConfig{
			Path: "stint.db",
		},
		Overlay: OverlayConfig{
			AnnotationsPath: "annotations.json",
			HiddenTagsPath:  "hidden_tags.json",
		},
		Tracker: TrackerConfig{
			DefaultTask: "Daily task",
		},
		Log: LogConfig{
			Level: "info",
		},
	}

	if path := os.Getenv("STINT_CONFIG_PATH"); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if strategy := os.Getenv("STINT_BACKEND_STRATEGY"); strategy != "" {
		cfg.Backend.Strategy = strategy
	}
	if command := os.Getenv("STINT_BACKEND_COMMAND"); command != "" {
		cfg.Backend.Command = command
	}
	if timeoutStr := os.Getenv("STINT_BACKEND_TIMEOUT_SECONDS"); timeoutStr != "" {
		timeout, err := strconv.Atoi(timeoutStr)
		if err != nil {
			return Config{}, fmt.Errorf("invalid STINT_BACKEND_TIMEOUT_SECONDS: %w", err)
		}
		cfg.Backend.TimeoutSeconds = timeout
	}
	if dbPath := os.Getenv("STINT_DB_PATH"); dbPath != "" {
		cfg.DB.Path = dbPath
	}
	if level := os.Getenv("STINT_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}

	if cfg.Backend.DeletePolicy == "" {
		if cfg.Backend.Strategy == StrategyTimew {
			cfg.Backend.DeletePolicy = "soft"
		} else {
			cfg.Backend.DeletePolicy = "hard"
		}
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (cfg Config) validate() error {
	switch cfg.Backend.Strategy {
	case StrategySQLite, StrategyTimew:
	default:
		return fmt.Errorf("unknown backend strategy %q", cfg.Backend.Strategy)
	}

	switch cfg.Backend.DeletePolicy {
	case "soft", "hard":
	default:
		return fmt.Errorf("unknown delete policy %q", cfg.Backend.DeletePolicy)
	}

	if cfg.Backend.Strategy == StrategyTimew && cfg.Backend.DeletePolicy == "hard" {
		return fmt.Errorf("the timew backend cannot hard-delete interval history")
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
