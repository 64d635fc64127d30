package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:8080", cfg.Server.Addr)
	assert.Equal(t, StoreBadger, cfg.Store.Driver)
	assert.Equal(t, CommerceMock, cfg.Commerce.Mode)
	assert.Equal(t, 10*time.Second, cfg.Reasoning.Timeout)
	assert.Equal(t, 15*time.Second, cfg.Reasoning.RetryTimeout)
	assert.Equal(t, 80, cfg.Orchestrator.ConfidenceThreshold)
	assert.Equal(t, 85, cfg.Orchestrator.ShiftThreshold)
	assert.True(t, cfg.Orchestrator.ReflectionReviewer)
	assert.Equal(t, "Monica", cfg.Persona.LeadName)
	assert.Equal(t, time.UTC, cfg.Location())
}

func TestLoadFileThenEnvironment(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("HDA_REASONING_SMART_MODEL", "gpt-env")

	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
version = 1

[reasoning]
smart_model = "gpt-file"
fast_model = "gpt-file-mini"
timeout = "3s"

[store]
driver = "memory"

[orchestrator]
confidence_threshold = 70
timezone = "America/New_York"
`), 0o600))

	cfg, err := Load(viper.New(), path)
	require.NoError(t, err)

	assert.Equal(t, "gpt-env", cfg.Reasoning.SmartModel)
	assert.Equal(t, "gpt-file-mini", cfg.Reasoning.FastModel)
	assert.Equal(t, 3*time.Second, cfg.Reasoning.Timeout)
	assert.Equal(t, StoreMemory, cfg.Store.Driver)
	assert.Equal(t, 70, cfg.Orchestrator.ConfidenceThreshold)
	assert.Equal(t, "America/New_York", cfg.Location().String())
}

func TestLoadExplicitMissingFileFails(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	_, err := Load(viper.New(), filepath.Join(t.TempDir(), "nope.toml"))
	require.Error(t, err)
	assert.ErrorContains(t, err, "read config file")
}

func TestLoadRejectsNewerSchema(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("version = 9\n"), 0o600))

	_, err := Load(viper.New(), path)
	require.Error(t, err)
	assert.ErrorContains(t, err, "unsupported config schema version 9")
}

func TestValidate(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	base, err := Defaults()
	require.NoError(t, err)
	require.NoError(t, base.Validate())

	testCases := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "unknown driver", mutate: func(c *Config) { c.Store.Driver = "redis" }, wantErr: "store.driver"},
		{name: "badger without path", mutate: func(c *Config) { c.Store.Path = " " }, wantErr: "store.path"},
		{name: "unknown commerce mode", mutate: func(c *Config) { c.Commerce.Mode = "grpc" }, wantErr: "commerce.mode"},
		{name: "http without base url", mutate: func(c *Config) { c.Commerce.Mode = CommerceHTTP; c.Commerce.BaseURL = "" }, wantErr: "commerce.base_url"},
		{name: "threshold out of range", mutate: func(c *Config) { c.Orchestrator.ShiftThreshold = 101 }, wantErr: "orchestrator.shift_threshold"},
		{name: "bad timezone", mutate: func(c *Config) { c.Orchestrator.Timezone = "Mars/Olympus" }, wantErr: "orchestrator.timezone"},
		{name: "negative rate", mutate: func(c *Config) { c.Reasoning.RequestsPerSecond = -1 }, wantErr: "requests_per_second"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base
			tc.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.ErrorContains(t, err, tc.wantErr)
		})
	}
}

func TestWriteRoundTrip(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := Defaults()
	require.NoError(t, err)
	cfg.Reasoning.SmartModel = "gpt-written"
	cfg.Commerce.RetryTimeout = 90 * time.Second

	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	require.NoError(t, Write(path, cfg, false))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(configFileMode), info.Mode().Perm())

	loaded, err := Load(viper.New(), path)
	require.NoError(t, err)
	assert.Equal(t, "gpt-written", loaded.Reasoning.SmartModel)
	assert.Equal(t, 90*time.Second, loaded.Commerce.RetryTimeout)

	err = Write(path, cfg, false)
	require.ErrorIs(t, err, ErrConfigExists)
	require.NoError(t, Write(path, cfg, true))
}

func TestEncodeUsesReadableDurations(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := Defaults()
	require.NoError(t, err)

	data, err := Encode(cfg)
	require.NoError(t, err)
	assert.Contains(t, string(data), "timeout = '10s'")
	assert.Contains(t, string(data), "version = 1")
}
