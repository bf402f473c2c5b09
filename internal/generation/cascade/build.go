// internal/generation/cascade/build.go
package cascade

import (
	"context"
	"fmt"

	"agent-builder/internal/common/errors"
	"agent-builder/internal/models"
)

// BuildResult is the coarse outcome of a complete remote build. CodeFiles is
// the only required part; the enrichment results are best-effort and nil when
// their step failed or was skipped.
type BuildResult struct {
	CodeFiles            models.FileSet
	Optimization         map[string]interface{}
	KnowledgeIntegration map[string]interface{}
	DeploymentConfig     map[string]interface{}
	Validation           map[string]interface{}
	TestSuite            map[string]interface{}
}

// BuildCompleteAgent drives the full multi-step protocol. It fails only when
// the generate step fails or yields no code files; every other step degrades
// to a warning.
func (c *Client) BuildCompleteAgent(ctx context.Context, req *models.AgentRequirements, knowledgeContext []map[string]interface{}) (*BuildResult, error) {
	c.logger.Info("Starting complete remote agent build", map[string]interface{}{
		"agent_name": req.Name,
	})

	generateResult, err := c.Generate(ctx, req, knowledgeContext)
	if err != nil {
		return nil, err
	}

	codeFiles, err := extractCodeFiles(generateResult)
	if err != nil {
		return nil, err
	}

	result := &BuildResult{CodeFiles: codeFiles}

	if result.Optimization, err = c.Optimize(ctx, req); err != nil {
		c.warnStep("optimize", err)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}

	if len(req.KnowledgeSources) > 0 {
		if result.KnowledgeIntegration, err = c.IntegrateKnowledge(ctx, req.KnowledgeSources); err != nil {
			c.warnStep("integrate_knowledge", err)
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
		}
	}

	if result.DeploymentConfig, err = c.GenerateDeploymentConfig(ctx, req, codeFiles); err != nil {
		c.warnStep("generate_deployment", err)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}

	if result.Validation, err = c.ValidateCode(ctx, codeFiles); err != nil {
		c.warnStep("validate_code", err)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}

	if result.TestSuite, err = c.GenerateTests(ctx, codeFiles); err != nil {
		c.warnStep("generate_tests", err)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}

	return result, nil
}

func (c *Client) warnStep(step string, err error) {
	c.logger.Warn("Cascade enrichment step failed, continuing", map[string]interface{}{
		"step":  step,
		"error": err.Error(),
	})
}

// extractCodeFiles pulls the code_files mapping out of the generate result.
func extractCodeFiles(result map[string]interface{}) (models.FileSet, error) {
	raw, ok := result["code_files"]
	if !ok {
		return nil, errors.NewRemoteResultInvalidError("generate result has no code_files")
	}

	rawMap, ok := raw.(map[string]interface{})
	if !ok {
		return nil, errors.NewRemoteResultInvalidError(fmt.Sprintf("code_files has unexpected type %T", raw))
	}
	if len(rawMap) == 0 {
		return nil, errors.NewRemoteResultInvalidError("generate result has empty code_files")
	}

	files := make(models.FileSet, len(rawMap))
	for name, content := range rawMap {
		text, ok := content.(string)
		if !ok {
			return nil, errors.NewRemoteResultInvalidError(fmt.Sprintf("code_files[%s] is not a string", name))
		}
		files[name] = text
	}

	return files, nil
}
