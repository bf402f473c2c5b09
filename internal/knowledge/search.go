// internal/knowledge/search.go
package knowledge

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"agent-builder/internal/common/config"
	"agent-builder/internal/common/errors"
	"agent-builder/internal/common/logger"
	"agent-builder/internal/common/metrics"
	"agent-builder/internal/models"

	"github.com/redis/go-redis/v9"
)

// Chunk is one documentation fragment returned by a search.
type Chunk struct {
	ID      string  `json:"id,omitempty"`
	Content string  `json:"content"`
	Section string  `json:"section,omitempty"`
	Score   float64 `json:"score,omitempty"`
}

// DocumentStore runs a raw JSON search against an index. Implemented by
// database.ElasticsearchClient.
type DocumentStore interface {
	Search(ctx context.Context, index string, query string) ([]byte, error)
}

// Service searches the vectorized Pipecat documentation, with a Redis cache
// in front of Elasticsearch. Builds proceed without knowledge context when
// the search fails, so every error here is non-fatal to callers.
type Service struct {
	store          DocumentStore
	cache          *redis.Client
	index          string
	cacheTTL       time.Duration
	chunksPerQuery int
	logger         logger.Logger
}

func NewService(store DocumentStore, cache *redis.Client, cfg config.KnowledgeConfig, log logger.Logger) *Service {
	return &Service{
		store:          store,
		cache:          cache,
		index:          cfg.Index,
		cacheTTL:       time.Duration(cfg.CacheTTL) * time.Second,
		chunksPerQuery: cfg.ChunksPerQuery,
		logger:         log,
	}
}

// Context gathers documentation chunks relevant to the requirements. It runs
// one search per derived query and concatenates the results in query order.
func (s *Service) Context(ctx context.Context, req *models.AgentRequirements) ([]Chunk, error) {
	queries := buildQueries(req)

	var chunks []Chunk
	for _, query := range queries {
		results, err := s.search(ctx, query)
		if err != nil {
			return nil, errors.NewKnowledgeSourceError(fmt.Errorf("search %q: %w", query, err))
		}
		chunks = append(chunks, results...)
	}

	s.logger.Info("Gathered knowledge context", map[string]interface{}{
		"agent_name": req.Name,
		"queries":    len(queries),
		"chunks":     len(chunks),
	})

	return chunks, nil
}

// AsContext converts chunks into the generic mapping the remote generation
// protocol carries.
func AsContext(chunks []Chunk) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(chunks))
	for _, chunk := range chunks {
		out = append(out, map[string]interface{}{
			"content":  chunk.Content,
			"metadata": map[string]interface{}{"section": chunk.Section},
			"id":       chunk.ID,
		})
	}
	return out
}

// buildQueries derives the per-build search queries from the requirements.
func buildQueries(req *models.AgentRequirements) []string {
	return []string{
		fmt.Sprintf("%s agent", req.UseCase),
		fmt.Sprintf("pipecat %s integration", strings.Join(req.Channels, " ")),
		fmt.Sprintf("speech to text %s", req.PrimaryLanguage()),
		"pipeline configuration examples",
	}
}

func (s *Service) search(ctx context.Context, query string) ([]Chunk, error) {
	key := cacheKey(query)

	if s.cache != nil {
		cached, err := s.cache.Get(ctx, key).Result()
		if err == nil {
			var chunks []Chunk
			if err := json.Unmarshal([]byte(cached), &chunks); err == nil {
				metrics.KnowledgeCacheHits.Inc()
				return chunks, nil
			}
			// Corrupt cache entry: fall through to a fresh search.
		} else if err != redis.Nil {
			s.logger.Warn("Knowledge cache read failed", map[string]interface{}{
				"key":   key,
				"error": err.Error(),
			})
		}
	}
	metrics.KnowledgeCacheMisses.Inc()

	chunks, err := s.searchStore(ctx, query)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if payload, err := json.Marshal(chunks); err == nil {
			if err := s.cache.Set(ctx, key, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn("Knowledge cache write failed", map[string]interface{}{
					"key":   key,
					"error": err.Error(),
				})
			}
		}
	}

	return chunks, nil
}

func (s *Service) searchStore(ctx context.Context, query string) ([]Chunk, error) {
	body := fmt.Sprintf(`{
  "size": %d,
  "query": {
    "multi_match": {
      "query": %q,
      "fields": ["content", "title", "section"]
    }
  }
}`, s.chunksPerQuery, query)

	raw, err := s.store.Search(ctx, s.index, body)
	if err != nil {
		return nil, err
	}

	var response struct {
		Hits struct {
			Hits []struct {
				ID     string  `json:"_id"`
				Score  float64 `json:"_score"`
				Source struct {
					Content string `json:"content"`
					Section string `json:"section"`
				} `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.Unmarshal(raw, &response); err != nil {
		return nil, fmt.Errorf("parse search response: %w", err)
	}

	chunks := make([]Chunk, 0, len(response.Hits.Hits))
	for _, hit := range response.Hits.Hits {
		chunks = append(chunks, Chunk{
			ID:      hit.ID,
			Content: hit.Source.Content,
			Section: hit.Source.Section,
			Score:   hit.Score,
		})
	}

	return chunks, nil
}

func cacheKey(query string) string {
	return "knowledge:" + strings.ReplaceAll(strings.ToLower(query), " ", "-")
}
