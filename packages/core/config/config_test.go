package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 30000, cfg.Timeout)
	assert.True(t, cfg.GetFollowRedirects())
	assert.True(t, cfg.GetValidateSSL())
	assert.True(t, cfg.IsDefault())
	assert.NoError(t, cfg.Validate())
}

func TestFindAndLoadConfig(t *testing.T) {
	t.Run("no file returns defaults", func(t *testing.T) {
		cfg, err := FindAndLoadConfig(t.TempDir())
		require.NoError(t, err)
		assert.True(t, cfg.IsDefault())
	})

	t.Run("rc file overlays defaults", func(t *testing.T) {
		dir := t.TempDir()
		content := `{"timeout": 5000, "validateSSL": false, "headers": {"X-Team": "core"}, "variables": {"host": "localhost"}}`
		require.NoError(t, os.WriteFile(filepath.Join(dir, ".decorestrc"), []byte(content), 0644))

		cfg, err := FindAndLoadConfig(dir)
		require.NoError(t, err)
		assert.Equal(t, 5000, cfg.Timeout)
		assert.False(t, cfg.GetValidateSSL())
		assert.True(t, cfg.GetFollowRedirects())
		assert.Equal(t, map[string]string{"X-Team": "core"}, cfg.Headers)
		assert.Equal(t, "localhost", cfg.Variables["host"])
	})

	t.Run("invalid values are rejected", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "decorest.config.json"), []byte(`{"logLevel": "loud"}`), 0644))

		_, err := FindAndLoadConfig(dir)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "LogLevel")
	})

	t.Run("malformed json", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "cfg.json")
		require.NoError(t, os.WriteFile(path, []byte(`{`), 0644))

		_, err := LoadConfig(path)
		assert.Error(t, err)
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "negative timeout", mutate: func(c *Config) { c.Timeout = -1 }, wantErr: "Timeout"},
		{name: "bad proxy", mutate: func(c *Config) { c.Proxy = "::nope" }, wantErr: "Proxy"},
		{name: "negative rate", mutate: func(c *Config) { c.RateLimit = -2 }, wantErr: "RateLimit"},
		{name: "empty header name", mutate: func(c *Config) { c.Headers = map[string]string{"": "x"} }, wantErr: "Headers"},
		{name: "proxy url", mutate: func(c *Config) { c.Proxy = "http://proxy.local:3128" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestMerge(t *testing.T) {
	base := DefaultConfig()
	base.Headers = map[string]string{"A": "1", "B": "1"}

	merged := base.Merge(&Config{
		Timeout:     1000,
		ValidateSSL: BoolPtr(false),
		Headers:     map[string]string{"B": "2"},
		Variables:   map[string]string{"v": "x"},
	})

	assert.Equal(t, 1000, merged.Timeout)
	assert.False(t, merged.GetValidateSSL())
	assert.True(t, merged.GetFollowRedirects())
	assert.Equal(t, map[string]string{"A": "1", "B": "2"}, merged.Headers)
	assert.Equal(t, map[string]string{"v": "x"}, merged.Variables)
	assert.Equal(t, "1", base.Headers["B"], "base must not be mutated")

	assert.Same(t, base, base.Merge(nil))
}

func TestClientOptions(t *testing.T) {
	cfg := DefaultConfig()
	assert.Len(t, cfg.ClientOptions(), 4)

	cfg.Proxy = "http://proxy.local"
	cfg.Headers = map[string]string{"X": "y"}
	cfg.RateLimit = 5
	assert.Len(t, cfg.ClientOptions(), 7)
}

func TestSaveConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".decorestrc")
	cfg := DefaultConfig()
	cfg.RequestIDHeader = "X-Request-ID"
	require.NoError(t, cfg.SaveConfig(path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "X-Request-ID", loaded.RequestIDHeader)
}
