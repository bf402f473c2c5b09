// internal/knowledge/search_test.go
package knowledge

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"testing"
	"time"

	"agent-builder/internal/common/config"
	"agent-builder/internal/common/errors"
	"agent-builder/internal/common/logger"
	"agent-builder/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

type fakeStore struct {
	calls    int
	err      error
	response string
}

func (f *fakeStore) Search(ctx context.Context, index string, query string) ([]byte, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return []byte(f.response), nil
}

const sampleSearchResponse = `{
  "hits": {
    "hits": [
      {"_id": "doc-1", "_score": 2.5, "_source": {"content": "Pipeline basics", "section": "guides"}},
      {"_id": "doc-2", "_score": 1.1, "_source": {"content": "Transport setup", "section": "reference"}}
    ]
  }
}`

func createTestService(t *testing.T, store DocumentStore, cache *redis.Client) *Service {
	cfg := config.KnowledgeConfig{
		Index:          "pipecat-docs",
		CacheTTL:       60,
		ChunksPerQuery: 2,
	}
	return NewService(store, cache, cfg, logger.NewTestLogger(t))
}

func createTestRequirements() *models.AgentRequirements {
	return &models.AgentRequirements{
		Name:      "Knowledge Agent",
		UseCase:   "customer_service",
		Channels:  []string{"web"},
		Languages: []string{"en"},
	}
}

// ==========================
// Query Building Tests
// ==========================

func TestBuildQueries(t *testing.T) {
	req := &models.AgentRequirements{
		UseCase:   "healthcare",
		Channels:  []string{"phone", "web"},
		Languages: []string{"es", "en"},
	}

	queries := buildQueries(req)

	assert.Equal(t, []string{
		"healthcare agent",
		"pipecat phone web integration",
		"speech to text es",
		"pipeline configuration examples",
	}, queries)
}

// ==========================
// Search Tests
// ==========================

func TestService_Context_SearchesAndCaches(t *testing.T) {
	mr := miniredis.RunT(t)
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := &fakeStore{response: sampleSearchResponse}

	service := createTestService(t, store, cache)

	chunks, err := service.Context(context.Background(), createTestRequirements())

	require.NoError(t, err)
	// Two hits per query, four queries.
	assert.Len(t, chunks, 8)
	assert.Equal(t, "doc-1", chunks[0].ID)
	assert.Equal(t, "Pipeline basics", chunks[0].Content)
	assert.Equal(t, 4, store.calls)

	// Second run is served entirely from the cache.
	chunks, err = service.Context(context.Background(), createTestRequirements())
	require.NoError(t, err)
	assert.Len(t, chunks, 8)
	assert.Equal(t, 4, store.calls)
}

func TestService_Context_CacheExpiry(t *testing.T) {
	mr := miniredis.RunT(t)
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := &fakeStore{response: sampleSearchResponse}

	service := createTestService(t, store, cache)

	_, err := service.Context(context.Background(), createTestRequirements())
	require.NoError(t, err)
	require.Equal(t, 4, store.calls)

	mr.FastForward(61 * time.Second)

	_, err = service.Context(context.Background(), createTestRequirements())
	require.NoError(t, err)
	assert.Equal(t, 8, store.calls)
}

func TestService_Context_CacheHit(t *testing.T) {
	cache, mock := redismock.NewClientMock()
	cached, err := json.Marshal([]Chunk{{ID: "cached-1", Content: "from cache"}})
	require.NoError(t, err)

	for _, key := range []string{
		"knowledge:customer_service-agent",
		"knowledge:pipecat-web-integration",
		"knowledge:speech-to-text-en",
		"knowledge:pipeline-configuration-examples",
	} {
		mock.ExpectGet(key).SetVal(string(cached))
	}

	store := &fakeStore{response: sampleSearchResponse}
	service := createTestService(t, store, cache)

	chunks, err := service.Context(context.Background(), createTestRequirements())

	require.NoError(t, err)
	assert.Len(t, chunks, 4)
	assert.Equal(t, "from cache", chunks[0].Content)
	assert.Zero(t, store.calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestService_Context_NoCacheConfigured(t *testing.T) {
	store := &fakeStore{response: sampleSearchResponse}
	service := createTestService(t, store, nil)

	chunks, err := service.Context(context.Background(), createTestRequirements())

	require.NoError(t, err)
	assert.Len(t, chunks, 8)
}

func TestService_Context_StoreError(t *testing.T) {
	store := &fakeStore{err: stderrors.New("cluster unreachable")}
	service := createTestService(t, store, nil)

	_, err := service.Context(context.Background(), createTestRequirements())

	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeKnowledgeSource))
}

// ==========================
// Conversion Tests
// ==========================

func TestAsContext(t *testing.T) {
	chunks := []Chunk{
		{ID: "a", Content: "alpha", Section: "guides"},
		{ID: "b", Content: "beta"},
	}

	ctx := AsContext(chunks)

	require.Len(t, ctx, 2)
	assert.Equal(t, "alpha", ctx[0]["content"])
	assert.Equal(t, "a", ctx[0]["id"])
	metadata, ok := ctx[0]["metadata"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "guides", metadata["section"])
}
