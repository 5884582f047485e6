package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envFrom(values map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := values[key]
		return v, ok
	}
}

func TestResolver_Credential(t *testing.T) {
	tests := []struct {
		name     string
		buildKey string
		runtime  *RuntimeConfig
		expected string
	}{
		{
			name:     "build-time value wins",
			buildKey: "test-key",
			runtime:  &RuntimeConfig{APIKey: "x"},
			expected: "test-key",
		},
		{
			name:     "runtime fallback when build value absent",
			runtime:  &RuntimeConfig{APIKey: "x"},
			expected: "x",
		},
		{
			name:     "undefined sentinel is ignored",
			buildKey: "undefined",
			runtime:  &RuntimeConfig{APIKey: "x"},
			expected: "x",
		},
		{
			name:     "nothing configured",
			expected: "",
		},
		{
			name:     "undefined sentinel and no runtime key",
			buildKey: "undefined",
			runtime:  &RuntimeConfig{},
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewResolverWithBuildKey(tt.buildKey, tt.runtime)
			assert.Equal(t, tt.expected, r.Credential())
		})
	}
}

func TestNewResolver_CapturesBuildKey(t *testing.T) {
	original := BuildAPIKey
	t.Cleanup(func() { BuildAPIKey = original })

	BuildAPIKey = "test-key"
	r := NewResolver(nil)
	BuildAPIKey = ""

	assert.Equal(t, "test-key", r.Credential())
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), envFrom(nil))
	require.NoError(t, err)

	assert.Equal(t, DefaultBaseURL, cfg.BaseURL)
	assert.Equal(t, DefaultPollInterval, cfg.PollInterval)
	assert.Equal(t, DefaultStreamBuffer, cfg.StreamBuffer)
	assert.Equal(t, DefaultHistoryLimit, cfg.HistoryLimit)
	assert.Empty(t, cfg.APIKey)
}

func TestLoad_FileAndEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `base_url: http://api.internal:9000
api_key: from-file
team: sales
poll_interval: 2s
stream_buffer: 50
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg, err := Load(path, envFrom(map[string]string{EnvAPIKey: "from-env"}))
	require.NoError(t, err)

	assert.Equal(t, "http://api.internal:9000", cfg.BaseURL)
	assert.Equal(t, "from-env", cfg.APIKey)
	assert.Equal(t, "sales", cfg.Team)
	assert.Equal(t, 2*time.Second, cfg.PollInterval)
	assert.Equal(t, 50, cfg.StreamBuffer)
	assert.Equal(t, DefaultHistoryLimit, cfg.HistoryLimit)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("base_url: [unterminated"), 0600))

	_, err := Load(path, nil)
	assert.Error(t, err)
}

func TestValidate_RejectsNegativeValues(t *testing.T) {
	cfg := Default()
	cfg.PollInterval = -time.Second
	assert.Error(t, cfg.Validate())
}

func TestSave_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := Default()
	cfg.Team = "ops"
	cfg.APIKey = "secret"
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}
