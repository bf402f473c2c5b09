// internal/generation/orchestrator.go
package generation

import (
	"context"

	"agent-builder/internal/common/errors"
	"agent-builder/internal/common/logger"
	"agent-builder/internal/common/metrics"
	"agent-builder/internal/generation/cascade"
	"agent-builder/internal/generation/templates"
	"agent-builder/internal/models"
)

// Generation sources reported in Result.Source.
const (
	SourceRemote   = "cascade"
	SourceTemplate = "template"
)

// RemoteGenerator is the remote generation collaborator. Implemented by
// cascade.Client; replaced by fakes in tests.
type RemoteGenerator interface {
	Connect(ctx context.Context) error
	Close() error
	BuildCompleteAgent(ctx context.Context, req *models.AgentRequirements, knowledgeContext []map[string]interface{}) (*cascade.BuildResult, error)
}

// Result is what one orchestrated generation produced.
type Result struct {
	Files  models.FileSet
	Source string
	// Remote carries the enrichment sub-results when the remote path won.
	Remote *cascade.BuildResult
}

// Orchestrator tries remote generation first and falls back to the template
// engine. It fails only when both paths fail or the caller cancels.
type Orchestrator struct {
	remote    RemoteGenerator
	templates *templates.Generator
	logger    logger.Logger
}

// NewOrchestrator builds an orchestrator. Pass a nil remote to disable the
// remote path entirely.
func NewOrchestrator(remote RemoteGenerator, gen *templates.Generator, log logger.Logger) *Orchestrator {
	return &Orchestrator{
		remote:    remote,
		templates: gen,
		logger:    log,
	}
}

// Build produces the agent file set. The remote path gets a single attempt;
// any remote failure falls through to templates. Caller cancellation aborts
// the whole build with a distinct cancelled outcome instead of falling back.
func (o *Orchestrator) Build(ctx context.Context, req *models.AgentRequirements, knowledgeContext []map[string]interface{}) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.NewBuildCancelledError(err)
	}

	if o.remote != nil {
		result, err := o.buildRemote(ctx, req, knowledgeContext)
		if err == nil {
			return result, nil
		}
		if ctx.Err() != nil {
			return nil, errors.NewBuildCancelledError(ctx.Err())
		}

		reason := "connection"
		if errors.IsCode(err, errors.ErrCodeRemoteResultInvalid) {
			reason = "invalid_result"
		}
		metrics.RemoteFallbacks.WithLabelValues(reason).Inc()
		o.logger.Warn("Remote generation failed, using templates", map[string]interface{}{
			"agent_name": req.Name,
			"reason":     reason,
			"error":      err.Error(),
		})
	}

	if err := ctx.Err(); err != nil {
		return nil, errors.NewBuildCancelledError(err)
	}

	files := o.templates.Generate(req)
	if len(files) == 0 {
		return nil, errors.NewCodeGenerationError("template generation produced no files", nil)
	}

	return &Result{Files: files, Source: SourceTemplate}, nil
}

func (o *Orchestrator) buildRemote(ctx context.Context, req *models.AgentRequirements, knowledgeContext []map[string]interface{}) (*Result, error) {
	if err := o.remote.Connect(ctx); err != nil {
		return nil, err
	}
	defer o.remote.Close()

	remoteResult, err := o.remote.BuildCompleteAgent(ctx, req, knowledgeContext)
	if err != nil {
		return nil, err
	}
	if len(remoteResult.CodeFiles) == 0 {
		return nil, errors.NewRemoteResultInvalidError("remote build returned no code files")
	}

	o.logger.Info("Remote generation succeeded", map[string]interface{}{
		"agent_name": req.Name,
		"files":      len(remoteResult.CodeFiles),
	})

	return &Result{
		Files:  remoteResult.CodeFiles,
		Source: SourceRemote,
		Remote: remoteResult,
	}, nil
}
