// internal/session/store_test.go
package session

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"agent-builder/internal/common/errors"
	"agent-builder/internal/common/logger"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

func createTestStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewStore(db, logger.NewTestLogger(t)), mock
}

// ==========================
// Core Functionality Tests
// ==========================

func TestStore_Create(t *testing.T) {
	store, mock := createTestStore(t)

	mock.ExpectExec("INSERT INTO build_sessions").
		WithArgs(sqlmock.AnyArg(), "Test Agent", "customer_service", StatusRunning).
		WillReturnResult(sqlmock.NewResult(1, 1))

	id, err := store.Create(context.Background(), "Test Agent", "customer_service")

	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Create_DatabaseError(t *testing.T) {
	store, mock := createTestStore(t)

	mock.ExpectExec("INSERT INTO build_sessions").
		WillReturnError(stderrors.New("connection reset"))

	_, err := store.Create(context.Background(), "Test Agent", "customer_service")

	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeSessionStoreFailed))
}

func TestStore_RecordMetrics(t *testing.T) {
	store, mock := createTestStore(t)

	mock.ExpectExec("UPDATE build_sessions").
		WithArgs("session-1", "template", 5, 8).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := store.RecordMetrics(context.Background(), "session-1", "template", 5, 8)

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Finish(t *testing.T) {
	tests := []struct {
		name         string
		status       string
		outputDir    string
		errorMessage string
	}{
		{name: "completed", status: StatusCompleted, outputDir: "generated_agents/test-agent"},
		{name: "failed", status: StatusFailed, errorMessage: "generation failed"},
		{name: "cancelled", status: StatusCancelled, errorMessage: "context canceled"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, mock := createTestStore(t)

			mock.ExpectExec("UPDATE build_sessions").
				WithArgs("session-1", tt.status, tt.outputDir, tt.errorMessage).
				WillReturnResult(sqlmock.NewResult(0, 1))

			err := store.Finish(context.Background(), "session-1", tt.status, tt.outputDir, tt.errorMessage)

			require.NoError(t, err)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestStore_Get(t *testing.T) {
	store, mock := createTestStore(t)
	now := time.Now()

	rows := sqlmock.NewRows([]string{
		"id", "agent_name", "use_case", "status", "source",
		"files_generated", "knowledge_chunks", "output_dir", "error",
		"created_at", "updated_at",
	}).AddRow("session-1", "Test Agent", "customer_service", StatusCompleted, "cascade",
		6, 8, "generated_agents/test-agent", "", now, now)

	mock.ExpectQuery("SELECT (.+) FROM build_sessions WHERE id").
		WithArgs("session-1").
		WillReturnRows(rows)

	rec, err := store.Get(context.Background(), "session-1")

	require.NoError(t, err)
	assert.Equal(t, "Test Agent", rec.AgentName)
	assert.Equal(t, StatusCompleted, rec.Status)
	assert.Equal(t, "cascade", rec.Source)
	assert.Equal(t, 6, rec.FilesGenerated)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_ListRecent(t *testing.T) {
	store, mock := createTestStore(t)
	now := time.Now()

	rows := sqlmock.NewRows([]string{
		"id", "agent_name", "use_case", "status", "source",
		"files_generated", "knowledge_chunks", "output_dir", "error",
		"created_at", "updated_at",
	}).
		AddRow("session-2", "Newer", "sales", StatusRunning, "", 0, 0, "", "", now, now).
		AddRow("session-1", "Older", "support", StatusFailed, "template", 4, 0, "", "timeout", now, now)

	mock.ExpectQuery("SELECT (.+) FROM build_sessions ORDER BY created_at DESC").
		WithArgs(10).
		WillReturnRows(rows)

	records, err := store.ListRecent(context.Background(), 10)

	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "Newer", records[0].AgentName)
	assert.Equal(t, "timeout", records[1].Error)
	assert.NoError(t, mock.ExpectationsWereMet())
}
