// internal/common/database/elasticsearch_test.go
package database

import (
	"testing"

	"agent-builder/internal/common/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewElasticsearch(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.ElasticsearchConfig
	}{
		{
			name: "addresses list",
			cfg:  config.ElasticsearchConfig{Addresses: []string{"http://localhost:9200"}},
		},
		{
			name: "single url fallback",
			cfg:  config.ElasticsearchConfig{URL: "http://localhost:9200"},
		},
		{
			name: "with credentials",
			cfg: config.ElasticsearchConfig{
				Addresses: []string{"http://localhost:9200"},
				Username:  "elastic",
				Password:  "changeme",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewElasticsearch(tt.cfg)
			require.NoError(t, err)
			assert.NotNil(t, client.Client)
		})
	}
}
