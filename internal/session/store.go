// internal/session/store.go
package session

import (
	"context"
	"database/sql"
	"time"

	"agent-builder/internal/common/errors"
	"agent-builder/internal/common/logger"

	"github.com/google/uuid"
)

// Build session statuses.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusCancelled = "cancelled"
)

// Record is one build session row.
type Record struct {
	ID              string
	AgentName       string
	UseCase         string
	Status          string
	Source          string
	FilesGenerated  int
	KnowledgeChunks int
	OutputDir       string
	Error           string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Store persists build sessions in Postgres.
type Store struct {
	db     *sql.DB
	logger logger.Logger
}

func NewStore(db *sql.DB, log logger.Logger) *Store {
	return &Store{db: db, logger: log}
}

// Create inserts a running session and returns its id.
func (s *Store) Create(ctx context.Context, agentName, useCase string) (string, error) {
	id := uuid.NewString()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO build_sessions (id, agent_name, use_case, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())`,
		id, agentName, useCase, StatusRunning,
	)
	if err != nil {
		return "", errors.NewSessionStoreError(err)
	}

	s.logger.Info("Created build session", map[string]interface{}{
		"session_id": id,
		"agent_name": agentName,
	})

	return id, nil
}

// RecordMetrics stores per-session counters as the build progresses.
func (s *Store) RecordMetrics(ctx context.Context, id string, source string, filesGenerated, knowledgeChunks int) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE build_sessions
		SET source = $2, files_generated = $3, knowledge_chunks = $4, updated_at = NOW()
		WHERE id = $1`,
		id, source, filesGenerated, knowledgeChunks,
	)
	if err != nil {
		return errors.NewSessionStoreError(err)
	}
	return nil
}

// Finish marks a session terminal. errorMessage is empty on success.
func (s *Store) Finish(ctx context.Context, id, status, outputDir, errorMessage string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE build_sessions
		SET status = $2, output_dir = $3, error = $4, updated_at = NOW()
		WHERE id = $1`,
		id, status, outputDir, errorMessage,
	)
	if err != nil {
		return errors.NewSessionStoreError(err)
	}

	s.logger.Info("Finished build session", map[string]interface{}{
		"session_id": id,
		"status":     status,
	})

	return nil
}

// Get returns one session by id.
func (s *Store) Get(ctx context.Context, id string) (*Record, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, agent_name, use_case, status, COALESCE(source, ''),
		       COALESCE(files_generated, 0), COALESCE(knowledge_chunks, 0),
		       COALESCE(output_dir, ''), COALESCE(error, ''), created_at, updated_at
		FROM build_sessions WHERE id = $1`, id)

	var rec Record
	err := row.Scan(
		&rec.ID, &rec.AgentName, &rec.UseCase, &rec.Status, &rec.Source,
		&rec.FilesGenerated, &rec.KnowledgeChunks,
		&rec.OutputDir, &rec.Error, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return nil, errors.NewSessionStoreError(err)
	}

	return &rec, nil
}

// ListRecent returns the newest sessions first.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, agent_name, use_case, status, COALESCE(source, ''),
		       COALESCE(files_generated, 0), COALESCE(knowledge_chunks, 0),
		       COALESCE(output_dir, ''), COALESCE(error, ''), created_at, updated_at
		FROM build_sessions ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, errors.NewSessionStoreError(err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(
			&rec.ID, &rec.AgentName, &rec.UseCase, &rec.Status, &rec.Source,
			&rec.FilesGenerated, &rec.KnowledgeChunks,
			&rec.OutputDir, &rec.Error, &rec.CreatedAt, &rec.UpdatedAt,
		); err != nil {
			return nil, errors.NewSessionStoreError(err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewSessionStoreError(err)
	}

	return records, nil
}
