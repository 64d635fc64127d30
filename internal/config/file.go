package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
)

const (
	currentSchemaVersion = 1
	configFileMode       = 0o600
	configDirMode        = 0o700
	tempFilePattern      = ".config-*.toml.tmp"
)

var ErrConfigExists = errors.New("config file already exists")

// fileSchema is the on-disk layout. Durations are strings so the file stays
// hand-editable ("10s", "1m30s").
type fileSchema struct {
	Version      int                `toml:"version"`
	SecretsDir   string             `toml:"secrets_dir"`
	Server       serverSchema       `toml:"server"`
	MockAPI      serverSchema       `toml:"mock_api"`
	Reasoning    reasoningSchema    `toml:"reasoning"`
	Commerce     commerceSchema     `toml:"commerce"`
	Store        storeSchema        `toml:"store"`
	Escalations  escalationsSchema  `toml:"escalations"`
	Orchestrator orchestratorSchema `toml:"orchestrator"`
	Persona      personaSchema      `toml:"persona"`
	Log          logSchema          `toml:"log"`
	Tracing      tracingSchema      `toml:"tracing"`
}

type serverSchema struct {
	Addr string `toml:"addr"`
}

type reasoningSchema struct {
	BaseURL           string  `toml:"base_url"`
	FastModel         string  `toml:"fast_model"`
	SmartModel        string  `toml:"smart_model"`
	APIKeySecret      string  `toml:"api_key_secret"`
	Timeout           string  `toml:"timeout"`
	RetryTimeout      string  `toml:"retry_timeout"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
	Burst             int     `toml:"burst"`
}

type commerceSchema struct {
	Mode         string `toml:"mode"`
	BaseURL      string `toml:"base_url"`
	APIKeySecret string `toml:"api_key_secret"`
	Timeout      string `toml:"timeout"`
	RetryTimeout string `toml:"retry_timeout"`
}

type storeSchema struct {
	Driver string `toml:"driver"`
	Path   string `toml:"path"`
}

type escalationsSchema struct {
	Path string `toml:"path"`
}

type orchestratorSchema struct {
	ConfidenceThreshold int    `toml:"confidence_threshold"`
	ShiftThreshold      int    `toml:"shift_threshold"`
	MaxIterations       int    `toml:"max_iterations"`
	MaxSupervisorRuns   int    `toml:"max_supervisor_runs"`
	MaxInputChars       int    `toml:"max_input_chars"`
	ReflectionReviewer  bool   `toml:"reflection_reviewer"`
	GeneratedSummary    bool   `toml:"generated_summary"`
	Timezone            string `toml:"timezone"`
}

type personaSchema struct {
	AgentName   string `toml:"agent_name"`
	LeadName    string `toml:"lead_name"`
	LeadTitle   string `toml:"lead_title"`
	LeadPronoun string `toml:"lead_pronoun"`
}

type logSchema struct {
	Level string `toml:"level"`
	JSON  bool   `toml:"json"`
}

type tracingSchema struct {
	Enabled bool `toml:"enabled"`
}

func toSchema(cfg Config) fileSchema {
	return fileSchema{
		Version:    currentSchemaVersion,
		SecretsDir: cfg.SecretsDir,
		Server:     serverSchema{Addr: cfg.Server.Addr},
		MockAPI:    serverSchema{Addr: cfg.MockAPI.Addr},
		Reasoning: reasoningSchema{
			BaseURL:           cfg.Reasoning.BaseURL,
			FastModel:         cfg.Reasoning.FastModel,
			SmartModel:        cfg.Reasoning.SmartModel,
			APIKeySecret:      cfg.Reasoning.APIKeySecret,
			Timeout:           formatDuration(cfg.Reasoning.Timeout),
			RetryTimeout:      formatDuration(cfg.Reasoning.RetryTimeout),
			RequestsPerSecond: cfg.Reasoning.RequestsPerSecond,
			Burst:             cfg.Reasoning.Burst,
		},
		Commerce: commerceSchema{
			Mode:         cfg.Commerce.Mode,
			BaseURL:      cfg.Commerce.BaseURL,
			APIKeySecret: cfg.Commerce.APIKeySecret,
			Timeout:      formatDuration(cfg.Commerce.Timeout),
			RetryTimeout: formatDuration(cfg.Commerce.RetryTimeout),
		},
		Store:       storeSchema{Driver: cfg.Store.Driver, Path: cfg.Store.Path},
		Escalations: escalationsSchema{Path: cfg.Escalations.Path},
		Orchestrator: orchestratorSchema{
			ConfidenceThreshold: cfg.Orchestrator.ConfidenceThreshold,
			ShiftThreshold:      cfg.Orchestrator.ShiftThreshold,
			MaxIterations:       cfg.Orchestrator.MaxIterations,
			MaxSupervisorRuns:   cfg.Orchestrator.MaxSupervisorRuns,
			MaxInputChars:       cfg.Orchestrator.MaxInputChars,
			ReflectionReviewer:  cfg.Orchestrator.ReflectionReviewer,
			GeneratedSummary:    cfg.Orchestrator.GeneratedSummary,
			Timezone:            cfg.Orchestrator.Timezone,
		},
		Persona: personaSchema{
			AgentName:   cfg.Persona.AgentName,
			LeadName:    cfg.Persona.LeadName,
			LeadTitle:   cfg.Persona.LeadTitle,
			LeadPronoun: cfg.Persona.LeadPronoun,
		},
		Log:     logSchema{Level: cfg.Log.Level, JSON: cfg.Log.JSON},
		Tracing: tracingSchema{Enabled: cfg.Tracing.Enabled},
	}
}

func formatDuration(d time.Duration) string {
	if d <= 0 {
		return ""
	}
	return d.String()
}

// Encode renders cfg as the TOML a config file would contain.
func Encode(cfg Config) ([]byte, error) {
	data, err := toml.Marshal(toSchema(cfg))
	if err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}

	return data, nil
}

// Defaults returns the built-in configuration without reading any file or
// environment variable.
func Defaults() (Config, error) {
	dir, err := DefaultDir()
	if err != nil {
		return Config{}, err
	}

	v := viper.New()
	setDefaults(v, dir)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode default config: %w", err)
	}

	return cfg, nil
}

// Write stores cfg at path atomically. An existing file is only replaced
// when overwrite is set.
func Write(path string, cfg Config, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%w: %s", ErrConfigExists, path)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), configDirMode); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	data, err := Encode(cfg)
	if err != nil {
		return err
	}

	tempFile, err := os.CreateTemp(filepath.Dir(path), tempFilePattern)
	if err != nil {
		return fmt.Errorf("create temp config file: %w", err)
	}

	tempName := tempFile.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tempName)
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("write temp config file: %w", err)
	}

	if err := tempFile.Chmod(configFileMode); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("chmod temp config file: %w", err)
	}

	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("close temp config file: %w", err)
	}

	if err := os.Rename(tempName, path); err != nil {
		return fmt.Errorf("replace config file: %w", err)
	}

	cleanup = false

	return nil
}

// checkVersion rejects files written by a newer hda.
func checkVersion(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}

	var header struct {
		Version int `toml:"version"`
	}
	if err := toml.Unmarshal(data, &header); err != nil {
		return fmt.Errorf("decode config file %s: %w", path, err)
	}
	if header.Version > currentSchemaVersion {
		return fmt.Errorf("unsupported config schema version %d (current %d)", header.Version, currentSchemaVersion)
	}

	return nil
}
