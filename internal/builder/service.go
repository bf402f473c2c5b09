// internal/builder/service.go
package builder

import (
	"context"
	stderrors "errors"
	"time"

	"agent-builder/internal/common/errors"
	"agent-builder/internal/common/logger"
	"agent-builder/internal/common/metrics"
	"agent-builder/internal/common/observability"
	"agent-builder/internal/generation"
	outvalidator "agent-builder/internal/generation/validator"
	"agent-builder/internal/knowledge"
	"agent-builder/internal/models"
	"agent-builder/internal/notify"
	"agent-builder/internal/session"
	reqvalidation "agent-builder/internal/validation"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Build stages reported on failure.
const (
	StageValidation  = "validation"
	StageGeneration  = "generation"
	StagePersistence = "persistence"
)

// RequirementsValidator normalizes raw requirements or rejects them.
type RequirementsValidator interface {
	Validate(req *models.AgentRequirements) (*models.AgentRequirements, []string, error)
}

// KnowledgeProvider retrieves documentation chunks relevant to a build.
type KnowledgeProvider interface {
	Context(ctx context.Context, req *models.AgentRequirements) ([]knowledge.Chunk, error)
}

// Generator produces the agent file set, remote-first with template fallback.
type Generator interface {
	Build(ctx context.Context, req *models.AgentRequirements, knowledgeContext []map[string]interface{}) (*generation.Result, error)
}

// OutputValidator inspects a generated file set for structural problems.
type OutputValidator interface {
	Validate(files models.FileSet) outvalidator.Result
}

// Sink persists a file set to a per-agent directory.
type Sink interface {
	Save(req *models.AgentRequirements, files models.FileSet) (string, error)
}

// SessionRecorder tracks build sessions. All methods are best-effort from the
// builder's perspective; recording failures never fail a build.
type SessionRecorder interface {
	Create(ctx context.Context, agentName, useCase string) (string, error)
	RecordMetrics(ctx context.Context, id string, source string, filesGenerated, knowledgeChunks int) error
	Finish(ctx context.Context, id, status, outputDir, errorMessage string) error
}

// Notifier announces finished builds. Like session recording, notification
// failures are logged but never fail the build.
type Notifier interface {
	NotifyBuildFinished(ctx context.Context, event notify.BuildEvent) error
}

// Outcome is the result of a completed build session.
type Outcome struct {
	SessionID  string
	AgentName  string
	OutputDir  string
	Source     string
	Files      models.FileSet
	Warnings   []string
	Validation outvalidator.Result
	Estimate   reqvalidation.ResourceEstimate
}

// Service runs the full build pipeline: validation, knowledge retrieval,
// generation, output validation, persistence, session recording and
// notification. Knowledge, sessions and notifications are optional; any of
// those collaborators may be nil.
type Service struct {
	validator RequirementsValidator
	knowledge KnowledgeProvider
	generator Generator
	output    OutputValidator
	sink      Sink
	sessions  SessionRecorder
	notifier  Notifier
	obs       *observability.Observability
	tracer    *observability.Tracer
	logger    logger.Logger
}

type Options struct {
	Validator RequirementsValidator
	Knowledge KnowledgeProvider
	Generator Generator
	Output    OutputValidator
	Sink      Sink
	Sessions  SessionRecorder
	Notifier  Notifier
	Obs       *observability.Observability
	Tracer    *observability.Tracer
	Logger    logger.Logger
}

func NewService(opts Options) *Service {
	return &Service{
		validator: opts.Validator,
		knowledge: opts.Knowledge,
		generator: opts.Generator,
		output:    opts.Output,
		sink:      opts.Sink,
		sessions:  opts.Sessions,
		notifier:  opts.Notifier,
		obs:       opts.Obs,
		tracer:    opts.Tracer,
		logger:    opts.Logger,
	}
}

// Build runs one build session end to end. A failed build reports which stage
// failed through the error code; validation problems in the generated output
// are surfaced on the Outcome but do not block persistence.
func (s *Service) Build(ctx context.Context, raw *models.AgentRequirements) (*Outcome, error) {
	start := time.Now()
	metrics.BuildsActive.Inc()
	defer metrics.BuildsActive.Dec()

	ctx, span := s.startSpan(ctx, "builder.build", attribute.String("agent.name", raw.Name))
	defer span.End()

	req, warnings, err := s.validator.Validate(raw)
	if err != nil {
		return nil, s.fail(ctx, "", StageValidation, start, err)
	}

	estimate := reqvalidation.EstimateResources(req)

	sessionID := s.createSession(ctx, req)

	chunks := s.knowledgeContext(ctx, req)

	result, err := s.generator.Build(ctx, req, knowledge.AsContext(chunks))
	if err != nil {
		if errors.IsCode(err, errors.ErrCodeBuildCancelled) {
			s.finishSession(ctx, sessionID, session.StatusCancelled, "", err.Error())
			return nil, err
		}
		return nil, s.fail(ctx, sessionID, StageGeneration, start, err)
	}

	validation := s.output.Validate(result.Files)
	if !validation.Valid {
		s.logger.Warn("Generated output failed validation, persisting anyway", map[string]interface{}{
			"agent":  req.Name,
			"errors": validation.Errors,
		})
	}

	outputDir, err := s.sink.Save(req, result.Files)
	if err != nil {
		return nil, s.fail(ctx, sessionID, StagePersistence, start, err)
	}

	s.recordSessionMetrics(ctx, sessionID, result.Source, len(result.Files), len(chunks))
	s.finishSession(ctx, sessionID, session.StatusCompleted, outputDir, "")

	metrics.BuildsCompleted.WithLabelValues(result.Source).Inc()
	metrics.BuildDuration.WithLabelValues(result.Source).Observe(time.Since(start).Seconds())
	if s.obs != nil {
		s.obs.RecordBuildProcessed(ctx, "completed", result.Source)
		s.obs.RecordBuildDuration(ctx, time.Since(start), "completed")
	}

	outcome := &Outcome{
		SessionID:  sessionID,
		AgentName:  req.Name,
		OutputDir:  outputDir,
		Source:     result.Source,
		Files:      result.Files,
		Warnings:   append(warnings, validation.Warnings...),
		Validation: validation,
		Estimate:   estimate,
	}

	s.notify(ctx, notify.BuildEvent{
		SessionID: sessionID,
		AgentName: req.Name,
		Status:    session.StatusCompleted,
		Source:    result.Source,
		OutputDir: outputDir,
		Warnings:  outcome.Warnings,
	})

	s.logger.Info("Build completed", map[string]interface{}{
		"agent":      req.Name,
		"session":    sessionID,
		"source":     result.Source,
		"output":     outputDir,
		"files":      len(result.Files),
		"complexity": estimate.Complexity,
		"memory_mb":  estimate.MemoryMB,
	})

	return outcome, nil
}

func (s *Service) fail(ctx context.Context, sessionID, stage string, start time.Time, err error) error {
	code := "UNKNOWN"
	var stdErr *errors.StandardError
	if stderrors.As(err, &stdErr) {
		code = string(stdErr.Code)
	}

	metrics.BuildsFailed.WithLabelValues(stage, code).Inc()
	if s.obs != nil {
		s.obs.RecordBuildProcessed(ctx, "failed", stage)
		s.obs.RecordBuildDuration(ctx, time.Since(start), "failed")
	}

	s.finishSession(ctx, sessionID, session.StatusFailed, "", err.Error())
	s.notify(ctx, notify.BuildEvent{
		SessionID: sessionID,
		Status:    session.StatusFailed,
		Error:     err.Error(),
	})

	s.logger.Error("Build failed", map[string]interface{}{
		"stage":   stage,
		"session": sessionID,
		"error":   err.Error(),
	})
	return err
}

func (s *Service) createSession(ctx context.Context, req *models.AgentRequirements) string {
	if s.sessions == nil {
		return ""
	}
	id, err := s.sessions.Create(ctx, req.Name, req.UseCase)
	if err != nil {
		s.logger.Warn("Failed to create build session record", map[string]interface{}{
			"agent": req.Name,
			"error": err.Error(),
		})
		return ""
	}
	return id
}

func (s *Service) recordSessionMetrics(ctx context.Context, id, source string, files, chunks int) {
	if s.sessions == nil || id == "" {
		return
	}
	if err := s.sessions.RecordMetrics(ctx, id, source, files, chunks); err != nil {
		s.logger.Warn("Failed to record session metrics", map[string]interface{}{
			"session": id,
			"error":   err.Error(),
		})
	}
}

func (s *Service) finishSession(ctx context.Context, id, status, outputDir, errorMessage string) {
	if s.sessions == nil || id == "" {
		return
	}
	if err := s.sessions.Finish(ctx, id, status, outputDir, errorMessage); err != nil {
		s.logger.Warn("Failed to finish build session record", map[string]interface{}{
			"session": id,
			"error":   err.Error(),
		})
	}
}

func (s *Service) knowledgeContext(ctx context.Context, req *models.AgentRequirements) []knowledge.Chunk {
	if s.knowledge == nil {
		return nil
	}
	chunks, err := s.knowledge.Context(ctx, req)
	if err != nil {
		// Knowledge enrichment is best-effort; generation proceeds without it.
		s.logger.Warn("Knowledge retrieval failed", map[string]interface{}{
			"agent": req.Name,
			"error": err.Error(),
		})
		return nil
	}
	return chunks
}

func (s *Service) notify(ctx context.Context, event notify.BuildEvent) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.NotifyBuildFinished(ctx, event); err != nil {
		s.logger.Warn("Failed to send build notification", map[string]interface{}{
			"session": event.SessionID,
			"error":   err.Error(),
		})
	}
}

func (s *Service) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if s.tracer == nil {
		return noop.NewTracerProvider().Tracer("builder").Start(ctx, name)
	}
	return s.tracer.StartSpan(ctx, name, attrs...)
}
