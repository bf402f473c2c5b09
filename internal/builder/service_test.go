// internal/builder/service_test.go
package builder

import (
	"context"
	stderrors "errors"
	"testing"

	"agent-builder/internal/common/config"
	"agent-builder/internal/common/errors"
	"agent-builder/internal/common/logger"
	"agent-builder/internal/generation"
	"agent-builder/internal/generation/templates"
	outvalidator "agent-builder/internal/generation/validator"
	"agent-builder/internal/knowledge"
	"agent-builder/internal/models"
	"agent-builder/internal/notify"
	"agent-builder/internal/session"
	"agent-builder/internal/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

type fakeKnowledge struct {
	chunks []knowledge.Chunk
	err    error
}

func (f *fakeKnowledge) Context(ctx context.Context, req *models.AgentRequirements) ([]knowledge.Chunk, error) {
	return f.chunks, f.err
}

type fakeGenerator struct {
	result *generation.Result
	err    error
	gotCtx []map[string]interface{}
}

func (f *fakeGenerator) Build(ctx context.Context, req *models.AgentRequirements, knowledgeContext []map[string]interface{}) (*generation.Result, error) {
	f.gotCtx = knowledgeContext
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type fakeSink struct {
	dir   string
	err   error
	saved models.FileSet
}

func (f *fakeSink) Save(req *models.AgentRequirements, files models.FileSet) (string, error) {
	f.saved = files
	if f.err != nil {
		return "", f.err
	}
	return f.dir, nil
}

type sessionEvent struct {
	Kind   string
	Status string
	Source string
}

type fakeSessions struct {
	events    []sessionEvent
	createErr error
}

func (f *fakeSessions) Create(ctx context.Context, agentName, useCase string) (string, error) {
	f.events = append(f.events, sessionEvent{Kind: "create"})
	if f.createErr != nil {
		return "", f.createErr
	}
	return "session-1", nil
}

func (f *fakeSessions) RecordMetrics(ctx context.Context, id, source string, filesGenerated, knowledgeChunks int) error {
	f.events = append(f.events, sessionEvent{Kind: "metrics", Source: source})
	return nil
}

func (f *fakeSessions) Finish(ctx context.Context, id, status, outputDir, errorMessage string) error {
	f.events = append(f.events, sessionEvent{Kind: "finish", Status: status})
	return nil
}

type fakeNotifier struct {
	events []notify.BuildEvent
	err    error
}

func (f *fakeNotifier) NotifyBuildFinished(ctx context.Context, event notify.BuildEvent) error {
	f.events = append(f.events, event)
	return f.err
}

func createTestRequirements() *models.AgentRequirements {
	return &models.AgentRequirements{
		Name:        "Test Agent",
		Description: "An agent for testing",
		UseCase:     "customer_service",
		Channels:    []string{"web"},
		Languages:   []string{"en"},
	}
}

func createTestService(t *testing.T, opts Options) *Service {
	t.Helper()
	if opts.Validator == nil {
		opts.Validator = validation.NewValidator(config.LimitsConfig{}, logger.NewNoOpLogger())
	}
	if opts.Output == nil {
		opts.Output = outvalidator.NewValidator(logger.NewNoOpLogger())
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewTestLogger(t)
	}
	return NewService(opts)
}

func templateResult(req *models.AgentRequirements) *generation.Result {
	return &generation.Result{
		Files:  templates.NewGenerator().Generate(req),
		Source: generation.SourceTemplate,
	}
}

// ==========================
// Core Functionality Tests
// ==========================

func TestService_Build_Success(t *testing.T) {
	req := createTestRequirements()
	gen := &fakeGenerator{result: templateResult(req)}
	sink := &fakeSink{dir: "generated_agents/test-agent"}
	sessions := &fakeSessions{}
	notifier := &fakeNotifier{}

	svc := createTestService(t, Options{
		Generator: gen,
		Sink:      sink,
		Sessions:  sessions,
		Notifier:  notifier,
	})

	outcome, err := svc.Build(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, "session-1", outcome.SessionID)
	assert.Equal(t, "generated_agents/test-agent", outcome.OutputDir)
	assert.Equal(t, generation.SourceTemplate, outcome.Source)
	assert.True(t, outcome.Validation.Valid)
	assert.NotEmpty(t, sink.saved)

	// Sizing estimate rides along on the outcome.
	assert.Equal(t, "simple", outcome.Estimate.Complexity)
	assert.Greater(t, outcome.Estimate.MemoryMB, 0)
	assert.Greater(t, outcome.Estimate.CPUUnits, 0.0)

	// Session lifecycle: create, metrics, finish completed.
	require.Len(t, sessions.events, 3)
	assert.Equal(t, "create", sessions.events[0].Kind)
	assert.Equal(t, "metrics", sessions.events[1].Kind)
	assert.Equal(t, session.StatusCompleted, sessions.events[2].Status)

	require.Len(t, notifier.events, 1)
	assert.Equal(t, session.StatusCompleted, notifier.events[0].Status)
	assert.Equal(t, "Test Agent", notifier.events[0].AgentName)
}

func TestService_Build_ValidationFailure(t *testing.T) {
	req := createTestRequirements()
	req.Channels = []string{"carrier-pigeon"}
	gen := &fakeGenerator{result: templateResult(createTestRequirements())}

	svc := createTestService(t, Options{Generator: gen, Sink: &fakeSink{dir: "x"}})

	_, err := svc.Build(context.Background(), req)

	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeRequirementsInvalid))
	assert.Nil(t, gen.gotCtx) // generation never ran
}

func TestService_Build_GenerationFailure(t *testing.T) {
	gen := &fakeGenerator{err: errors.NewCodeGenerationError("both paths failed", stderrors.New("template engine returned no files"))}
	sessions := &fakeSessions{}
	notifier := &fakeNotifier{}

	svc := createTestService(t, Options{
		Generator: gen,
		Sink:      &fakeSink{dir: "x"},
		Sessions:  sessions,
		Notifier:  notifier,
	})

	_, err := svc.Build(context.Background(), createTestRequirements())

	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeCodeGenerationFailed))

	last := sessions.events[len(sessions.events)-1]
	assert.Equal(t, "finish", last.Kind)
	assert.Equal(t, session.StatusFailed, last.Status)

	require.Len(t, notifier.events, 1)
	assert.Equal(t, session.StatusFailed, notifier.events[0].Status)
}

func TestService_Build_CancellationIsNotFailure(t *testing.T) {
	gen := &fakeGenerator{err: errors.NewBuildCancelledError(context.Canceled)}
	sessions := &fakeSessions{}

	svc := createTestService(t, Options{
		Generator: gen,
		Sink:      &fakeSink{dir: "x"},
		Sessions:  sessions,
	})

	_, err := svc.Build(context.Background(), createTestRequirements())

	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeBuildCancelled))

	last := sessions.events[len(sessions.events)-1]
	assert.Equal(t, session.StatusCancelled, last.Status)
}

func TestService_Build_PersistenceFailure(t *testing.T) {
	req := createTestRequirements()
	gen := &fakeGenerator{result: templateResult(req)}
	sink := &fakeSink{err: errors.NewPersistenceError("generated_agents/test-agent", stderrors.New("disk full"))}
	sessions := &fakeSessions{}

	svc := createTestService(t, Options{Generator: gen, Sink: sink, Sessions: sessions})

	_, err := svc.Build(context.Background(), req)

	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodePersistenceFailed))

	last := sessions.events[len(sessions.events)-1]
	assert.Equal(t, session.StatusFailed, last.Status)
}

func TestService_Build_InvalidOutputStillPersisted(t *testing.T) {
	req := createTestRequirements()
	// A file set missing required files fails output validation.
	gen := &fakeGenerator{result: &generation.Result{
		Files:  models.FileSet{"bot.py": "import pipecat\nimport asyncio\n"},
		Source: generation.SourceRemote,
	}}
	sink := &fakeSink{dir: "generated_agents/test-agent"}

	svc := createTestService(t, Options{Generator: gen, Sink: sink})

	outcome, err := svc.Build(context.Background(), req)

	require.NoError(t, err)
	assert.False(t, outcome.Validation.Valid)
	assert.NotEmpty(t, outcome.Validation.Errors)
	assert.NotEmpty(t, sink.saved) // persist-then-report
}

func TestService_Build_KnowledgeFailureIsNonFatal(t *testing.T) {
	req := createTestRequirements()
	gen := &fakeGenerator{result: templateResult(req)}
	know := &fakeKnowledge{err: stderrors.New("elasticsearch unreachable")}

	svc := createTestService(t, Options{
		Generator: gen,
		Knowledge: know,
		Sink:      &fakeSink{dir: "x"},
	})

	outcome, err := svc.Build(context.Background(), req)

	require.NoError(t, err)
	assert.NotNil(t, outcome)
	assert.Empty(t, gen.gotCtx)
}

func TestService_Build_KnowledgeChunksPassedToGenerator(t *testing.T) {
	req := createTestRequirements()
	gen := &fakeGenerator{result: templateResult(req)}
	know := &fakeKnowledge{chunks: []knowledge.Chunk{
		{ID: "doc-1", Content: "pipeline setup", Section: "getting-started", Score: 1.5},
	}}

	svc := createTestService(t, Options{
		Generator: gen,
		Knowledge: know,
		Sink:      &fakeSink{dir: "x"},
	})

	_, err := svc.Build(context.Background(), req)

	require.NoError(t, err)
	require.Len(t, gen.gotCtx, 1)
	assert.Equal(t, "pipeline setup", gen.gotCtx[0]["content"])
}

func TestService_Build_OptionalCollaboratorsMayBeNil(t *testing.T) {
	req := createTestRequirements()
	gen := &fakeGenerator{result: templateResult(req)}

	svc := createTestService(t, Options{Generator: gen, Sink: &fakeSink{dir: "x"}})

	outcome, err := svc.Build(context.Background(), req)

	require.NoError(t, err)
	assert.Empty(t, outcome.SessionID)
}

func TestService_Build_SessionCreateFailureIsNonFatal(t *testing.T) {
	req := createTestRequirements()
	gen := &fakeGenerator{result: templateResult(req)}
	sessions := &fakeSessions{createErr: stderrors.New("postgres down")}

	svc := createTestService(t, Options{Generator: gen, Sink: &fakeSink{dir: "x"}, Sessions: sessions})

	outcome, err := svc.Build(context.Background(), req)

	require.NoError(t, err)
	assert.Empty(t, outcome.SessionID)
}

func TestService_Build_ValidationWarningsSurfaced(t *testing.T) {
	req := createTestRequirements()
	req.UseCase = "interplanetary_support"
	gen := &fakeGenerator{result: templateResult(req)}

	svc := createTestService(t, Options{Generator: gen, Sink: &fakeSink{dir: "x"}})

	outcome, err := svc.Build(context.Background(), req)

	require.NoError(t, err)
	assert.NotEmpty(t, outcome.Warnings)
}
