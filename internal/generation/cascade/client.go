// internal/generation/cascade/client.go
package cascade

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"agent-builder/internal/common/config"
	"agent-builder/internal/common/errors"
	"agent-builder/internal/common/logger"
	"agent-builder/internal/models"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Request is one MCP-style request frame.
type Request struct {
	Method string                 `json:"method"`
	Params map[string]interface{} `json:"params"`
	ID     string                 `json:"id,omitempty"`
}

// Response is one MCP-style response frame.
type Response struct {
	Result map[string]interface{} `json:"result,omitempty"`
	Error  map[string]interface{} `json:"error,omitempty"`
	ID     string                 `json:"id,omitempty"`
}

// Client talks to the Cascade generation service over a websocket. Requests
// are strictly sequential on one connection; the client is not safe for
// concurrent use.
type Client struct {
	url            string
	connectTimeout time.Duration
	requestTimeout time.Duration
	logger         logger.Logger
	conn           *websocket.Conn
}

func NewClient(cfg config.GenerationConfig, log logger.Logger) *Client {
	return &Client{
		url:            cfg.RemoteURL,
		connectTimeout: config.GetDuration(cfg.ConnectTimeout),
		requestTimeout: config.GetDuration(cfg.RequestTimeout),
		logger:         log,
	}
}

// Connect dials the Cascade endpoint.
func (c *Client) Connect(ctx context.Context) error {
	dialCtx, cancel := context.WithTimeout(ctx, c.connectTimeout)
	defer cancel()

	c.logger.Info("Connecting to Cascade", map[string]interface{}{"url": c.url})

	conn, _, err := websocket.DefaultDialer.DialContext(dialCtx, c.url, nil)
	if err != nil {
		return errors.NewRemoteConnectionError(fmt.Errorf("dial %s: %w", c.url, err))
	}

	c.conn = conn
	return nil
}

// Close closes the websocket connection.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}

func (c *Client) call(ctx context.Context, method string, params map[string]interface{}) (map[string]interface{}, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if c.conn == nil {
		return nil, errors.NewRemoteConnectionError(fmt.Errorf("not connected to Cascade"))
	}

	deadline := time.Now().Add(c.requestTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	request := Request{
		Method: method,
		Params: params,
		ID:     uuid.NewString(),
	}

	c.conn.SetWriteDeadline(deadline)
	if err := c.conn.WriteJSON(request); err != nil {
		return nil, errors.NewRemoteConnectionError(fmt.Errorf("send %s: %w", method, err))
	}
	c.logger.Debug("Sent Cascade request", map[string]interface{}{"method": method, "id": request.ID})

	c.conn.SetReadDeadline(deadline)
	_, payload, err := c.conn.ReadMessage()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, errors.NewRemoteConnectionError(fmt.Errorf("receive %s: %w", method, err))
	}

	var response Response
	if err := json.Unmarshal(payload, &response); err != nil {
		return nil, errors.NewRemoteResultInvalidError(fmt.Sprintf("malformed %s response: %v", method, err))
	}
	if response.Error != nil {
		return nil, errors.NewRemoteResultInvalidError(fmt.Sprintf("%s failed: %v", method, response.Error))
	}

	return response.Result, nil
}

// Generate requests the base agent code. This is the only step whose result
// is required downstream.
func (c *Client) Generate(ctx context.Context, req *models.AgentRequirements, knowledgeContext []map[string]interface{}) (map[string]interface{}, error) {
	if knowledgeContext == nil {
		knowledgeContext = []map[string]interface{}{}
	}
	return c.call(ctx, "generate_code", map[string]interface{}{
		"task":              "generate_pipecat_agent",
		"requirements":      req,
		"knowledge_context": knowledgeContext,
		"framework_info": map[string]interface{}{
			"name":               "pipecat",
			"version":            "latest",
			"documentation_base": "vectorized",
		},
	})
}

// Optimize requests configuration tuning recommendations.
func (c *Client) Optimize(ctx context.Context, req *models.AgentRequirements) (map[string]interface{}, error) {
	return c.call(ctx, "optimize", map[string]interface{}{
		"task":         "optimize_pipecat_agent",
		"requirements": req,
		"performance_targets": map[string]interface{}{
			"latency_target_ms": 800,
			"concurrent_users":  100,
			"cost_optimization": true,
		},
	})
}

// IntegrateKnowledge requests knowledge-source integration code.
func (c *Client) IntegrateKnowledge(ctx context.Context, sources []models.KnowledgeSourceConfig) (map[string]interface{}, error) {
	return c.call(ctx, "integrate_knowledge", map[string]interface{}{
		"task":              "create_knowledge_integration",
		"knowledge_sources": sources,
		"integration_patterns": []string{
			"rag_pipeline",
			"context_injection",
			"function_calling",
			"real_time_search",
		},
	})
}

// GenerateDeploymentConfig requests the Pipecat Cloud deployment descriptor.
func (c *Client) GenerateDeploymentConfig(ctx context.Context, req *models.AgentRequirements, codeFiles models.FileSet) (map[string]interface{}, error) {
	return c.call(ctx, "generate_deployment", map[string]interface{}{
		"task":                "generate_deployment_config",
		"requirements":        req,
		"code_files":          codeFiles,
		"target_platform":     "pipecat_cloud",
		"deployment_settings": req.EffectiveDeployment(),
	})
}

// ValidateCode requests remote validation of the generated files.
func (c *Client) ValidateCode(ctx context.Context, codeFiles models.FileSet) (map[string]interface{}, error) {
	return c.call(ctx, "validate_code", map[string]interface{}{
		"task":       "validate_pipecat_code",
		"code_files": codeFiles,
		"validation_rules": []string{
			"syntax_check",
			"pipecat_imports",
			"pipeline_structure",
			"service_configuration",
			"deployment_readiness",
		},
	})
}

// GenerateTests requests a test suite for the generated files.
func (c *Client) GenerateTests(ctx context.Context, codeFiles models.FileSet) (map[string]interface{}, error) {
	return c.call(ctx, "generate_tests", map[string]interface{}{
		"task":       "generate_test_suite",
		"code_files": codeFiles,
		"test_types": []string{
			"unit_tests",
			"integration_tests",
			"performance_tests",
			"conversation_tests",
		},
	})
}
