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

// Config defines agent configuration.
type Config struct {
	API        APIConfig        `yaml:"api"`
	DB         DBConfig         `yaml:"db"`
	Log        LogConfig        `yaml:"log"`
	Capture    CaptureConfig    `yaml:"capture"`
	Sync       SyncConfig       `yaml:"sync"`
	Screenshot ScreenshotConfig `yaml:"screenshot"`
}

type APIConfig struct {
	BaseURL        string        `yaml:"base_url" validate:"required,url"`
	Token          string        `yaml:"token"`
	RequestTimeout time.Duration `yaml:"request_timeout" validate:"gt=0"`
}

type DBConfig struct {
	Path string `yaml:"path" validate:"required"`
}

type LogConfig struct {
	Level string `yaml:"level" validate:"oneof=debug info warn error"`
}

type CaptureConfig struct {
	PeriodLength  time.Duration `yaml:"period_length" validate:"gt=0"`
	IdlePoll      time.Duration `yaml:"idle_poll" validate:"gt=0"`
	IdleThreshold time.Duration `yaml:"idle_threshold" validate:"gt=0"`
}

type SyncConfig struct {
	DrainInterval  time.Duration `yaml:"drain_interval" validate:"gt=0"`
	OfflineBackoff time.Duration `yaml:"offline_backoff" validate:"gt=0"`
	VetoCooldown   time.Duration `yaml:"veto_cooldown" validate:"gt=0"`
}

type ScreenshotConfig struct {
	Enabled bool   `yaml:"enabled"`
	Dir     string `yaml:"dir" validate:"required"`
}

// Load reads configuration from an optional YAML file and environment variables.
func Load() (Config, error) {
	cfg := defaults()

	if path := os.Getenv("WORKPULSE_CONFIG_PATH"); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if url := os.Getenv("WORKPULSE_API_URL"); url != "" {
		cfg.API.BaseURL = url
	}
	if token := os.Getenv("WORKPULSE_API_TOKEN"); token != "" {
		cfg.API.Token = token
	}
	if dbPath := os.Getenv("WORKPULSE_DB_PATH"); dbPath != "" {
		cfg.DB.Path = dbPath
	}
	if level := os.Getenv("WORKPULSE_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
	if dir := os.Getenv("WORKPULSE_SCREENSHOT_DIR"); dir != "" {
		cfg.Screenshot.Dir = dir
	}
	if raw := os.Getenv("WORKPULSE_SCREENSHOTS_ENABLED"); raw != "" {
		enabled, err := strconv.ParseBool(raw)
		if err != nil {
			return Config{}, fmt.Errorf("invalid WORKPULSE_SCREENSHOTS_ENABLED: %w", err)
		}
		cfg.Screenshot.Enabled = enabled
	}

	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

func defaults() Config {
	dataDir := defaultDataDir()
	return Config{
		API: APIConfig{
			BaseURL:        "https://api.workpulse.dev",
			RequestTimeout: 15 * time.Second,
		},
		DB: DBConfig{
			Path: filepath.Join(dataDir, "workpulse.db"),
		},
		Log: LogConfig{
			Level: "info",
		},
		Capture: CaptureConfig{
			PeriodLength:  10 * time.Minute,
			IdlePoll:      30 * time.Second,
			IdleThreshold: 60 * time.Second,
		},
		Sync: SyncConfig{
			DrainInterval:  30 * time.Second,
			OfflineBackoff: 30 * time.Second,
			VetoCooldown:   5 * time.Minute,
		},
		Screenshot: ScreenshotConfig{
			Enabled: true,
			Dir:     filepath.Join(dataDir, "screenshots"),
		},
	}
}

func defaultDataDir() string {
	cfgDir, err := os.UserConfigDir()
	if err != nil {
		return "."
	}
	return filepath.Join(cfgDir, "workpulse")
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
