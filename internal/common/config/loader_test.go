// internal/common/config/loader_test.go
package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
app:
  name: test-builder
  environment: test
output:
  path: test_agents
generation:
  remote_enabled: false
logging:
  level: debug
  format: console
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadFromFile(path)

	require.NoError(t, err)
	assert.Equal(t, "test-builder", cfg.App.Name)
	assert.Equal(t, "test_agents", cfg.Output.Path)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)

	// Defaults are still applied on top of the file.
	assert.Equal(t, 10000, cfg.Generation.ConnectTimeout)
	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, "pipecat-docs", cfg.Knowledge.Index)
}

func TestLoadFromFile_MissingFile(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestElasticsearchConfig_GetURL(t *testing.T) {
	tests := []struct {
		name     string
		cfg      ElasticsearchConfig
		expected string
	}{
		{
			name:     "url field wins",
			cfg:      ElasticsearchConfig{URL: "http://es:9200", Addresses: []string{"http://other:9200"}},
			expected: "http://es:9200",
		},
		{
			name:     "falls back to first address",
			cfg:      ElasticsearchConfig{Addresses: []string{"http://a:9200", "http://b:9200"}},
			expected: "http://a:9200",
		},
		{
			name:     "empty config",
			cfg:      ElasticsearchConfig{},
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.cfg.GetURL())
		})
	}
}
