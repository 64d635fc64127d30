package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	configName = "config"
	configType = "toml"
	configDir  = ".config/hda"
	envPrefix  = "HDA"

	StoreMemory = "memory"
	StoreBadger = "badger"

	CommerceMock = "mock"
	CommerceHTTP = "http"
)

type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	MockAPI      MockAPIConfig      `mapstructure:"mock_api"`
	Reasoning    ReasoningConfig    `mapstructure:"reasoning"`
	Commerce     CommerceConfig     `mapstructure:"commerce"`
	Store        StoreConfig        `mapstructure:"store"`
	Escalations  EscalationsConfig  `mapstructure:"escalations"`
	Orchestrator OrchestratorConfig `mapstructure:"orchestrator"`
	Persona      PersonaConfig      `mapstructure:"persona"`
	Log          LogConfig          `mapstructure:"log"`
	Tracing      TracingConfig      `mapstructure:"tracing"`
	SecretsDir   string             `mapstructure:"secrets_dir"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

type MockAPIConfig struct {
	Addr string `mapstructure:"addr"`
}

type ReasoningConfig struct {
	BaseURL           string        `mapstructure:"base_url"`
	FastModel         string        `mapstructure:"fast_model"`
	SmartModel        string        `mapstructure:"smart_model"`
	APIKeySecret      string        `mapstructure:"api_key_secret"`
	Timeout           time.Duration `mapstructure:"timeout"`
	RetryTimeout      time.Duration `mapstructure:"retry_timeout"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	Burst             int           `mapstructure:"burst"`
}

type CommerceConfig struct {
	// Mode is "mock" for the in-process store or "http" for a remote API.
	Mode         string        `mapstructure:"mode"`
	BaseURL      string        `mapstructure:"base_url"`
	APIKeySecret string        `mapstructure:"api_key_secret"`
	Timeout      time.Duration `mapstructure:"timeout"`
	RetryTimeout time.Duration `mapstructure:"retry_timeout"`
}

type StoreConfig struct {
	Driver string `mapstructure:"driver"`
	Path   string `mapstructure:"path"`
}

type EscalationsConfig struct {
	Path string `mapstructure:"path"`
}

type OrchestratorConfig struct {
	ConfidenceThreshold int    `mapstructure:"confidence_threshold"`
	ShiftThreshold      int    `mapstructure:"shift_threshold"`
	MaxIterations       int    `mapstructure:"max_iterations"`
	MaxSupervisorRuns   int    `mapstructure:"max_supervisor_runs"`
	MaxInputChars       int    `mapstructure:"max_input_chars"`
	ReflectionReviewer  bool   `mapstructure:"reflection_reviewer"`
	GeneratedSummary    bool   `mapstructure:"generated_summary"`
	Timezone            string `mapstructure:"timezone"`
}

type PersonaConfig struct {
	AgentName   string `mapstructure:"agent_name"`
	LeadName    string `mapstructure:"lead_name"`
	LeadTitle   string `mapstructure:"lead_title"`
	LeadPronoun string `mapstructure:"lead_pronoun"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

type TracingConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// DefaultDir is ~/.config/hda.
func DefaultDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}

	return filepath.Join(homeDir, configDir), nil
}

// DefaultPath is the config file read when no --config flag is given.
func DefaultPath() (string, error) {
	dir, err := DefaultDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(dir, configName+"."+configType), nil
}

func setDefaults(v *viper.Viper, dir string) {
	v.SetDefault("server.addr", "127.0.0.1:8080")
	v.SetDefault("mock_api.addr", "127.0.0.1:8090")

	v.SetDefault("reasoning.base_url", "https://api.openai.com/v1")
	v.SetDefault("reasoning.fast_model", "gpt-4o-mini")
	v.SetDefault("reasoning.smart_model", "gpt-4o")
	v.SetDefault("reasoning.api_key_secret", "reasoning_api_key")
	v.SetDefault("reasoning.timeout", 10*time.Second)
	v.SetDefault("reasoning.retry_timeout", 15*time.Second)
	v.SetDefault("reasoning.requests_per_second", 5.0)
	v.SetDefault("reasoning.burst", 5)

	v.SetDefault("commerce.mode", CommerceMock)
	v.SetDefault("commerce.base_url", "http://127.0.0.1:8090")
	v.SetDefault("commerce.api_key_secret", "commerce_api_key")
	v.SetDefault("commerce.timeout", 10*time.Second)
	v.SetDefault("commerce.retry_timeout", 15*time.Second)

	v.SetDefault("store.driver", StoreBadger)
	v.SetDefault("store.path", filepath.Join(dir, "sessions"))
	v.SetDefault("escalations.path", filepath.Join(dir, "escalations.db"))
	v.SetDefault("secrets_dir", filepath.Join(dir, "secrets"))

	v.SetDefault("orchestrator.confidence_threshold", 80)
	v.SetDefault("orchestrator.shift_threshold", 85)
	v.SetDefault("orchestrator.max_iterations", 6)
	v.SetDefault("orchestrator.max_supervisor_runs", 2)
	v.SetDefault("orchestrator.max_input_chars", 5000)
	v.SetDefault("orchestrator.reflection_reviewer", true)
	v.SetDefault("orchestrator.generated_summary", false)
	v.SetDefault("orchestrator.timezone", "UTC")

	v.SetDefault("persona.agent_name", "Caz")
	v.SetDefault("persona.lead_name", "Monica")
	v.SetDefault("persona.lead_title", "Head of CS")
	v.SetDefault("persona.lead_pronoun", "She")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", false)
	v.SetDefault("tracing.enabled", false)
}

// Load reads defaults, then the TOML file, then HDA_* environment variables.
// A missing file at the default location is not an error; a missing file at
// an explicit path is.
func Load(v *viper.Viper, path string) (Config, error) {
	if v == nil {
		v = viper.New()
	}

	dir, err := DefaultDir()
	if err != nil {
		return Config{}, err
	}
	setDefaults(v, dir)

	v.SetConfigType(configType)
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(configName)
		v.AddConfigPath(dir)
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &configNotFound) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	} else if err := checkVersion(v.ConfigFileUsed()); err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error

	switch c.Store.Driver {
	case StoreMemory:
	case StoreBadger:
		if strings.TrimSpace(c.Store.Path) == "" {
			errs = append(errs, errors.New("store.path is required for the badger driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("store.driver %q is not one of memory, badger", c.Store.Driver))
	}

	switch c.Commerce.Mode {
	case CommerceMock:
	case CommerceHTTP:
		if strings.TrimSpace(c.Commerce.BaseURL) == "" {
			errs = append(errs, errors.New("commerce.base_url is required in http mode"))
		}
	default:
		errs = append(errs, fmt.Errorf("commerce.mode %q is not one of mock, http", c.Commerce.Mode))
	}

	for name, value := range map[string]int{
		"orchestrator.confidence_threshold": c.Orchestrator.ConfidenceThreshold,
		"orchestrator.shift_threshold":      c.Orchestrator.ShiftThreshold,
	} {
		if value < 0 || value > 100 {
			errs = append(errs, fmt.Errorf("%s must be between 0 and 100, got %d", name, value))
		}
	}

	if _, err := time.LoadLocation(c.Orchestrator.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("orchestrator.timezone: %w", err))
	}

	if c.Reasoning.RequestsPerSecond < 0 {
		errs = append(errs, errors.New("reasoning.requests_per_second must not be negative"))
	}

	return errors.Join(errs...)
}

// Location resolves the configured timezone. Validate has already checked it.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Orchestrator.Timezone)
	if err != nil {
		return time.UTC
	}

	return loc
}
