// internal/deploy/deployer.go
package deploy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os/exec"
	"time"

	"agent-builder/internal/common/config"
	"agent-builder/internal/common/errors"
	"agent-builder/internal/common/logger"
	"agent-builder/internal/models"
)

// CommandRunner executes an external command and returns its combined output.
// The default implementation shells out to the local docker CLI.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// Deployment describes a completed Pipecat Cloud deployment.
type Deployment struct {
	AgentName string `json:"agent_name"`
	Image     string `json:"image"`
	SecretSet string `json:"secret_set"`
}

// Deployer pushes a generated agent image to Docker Hub and registers it
// with the Pipecat Cloud API.
type Deployer struct {
	config     config.DeploymentConfig
	runner     CommandRunner
	httpClient *http.Client
	logger     logger.Logger
}

func NewDeployer(cfg config.DeploymentConfig, log logger.Logger) *Deployer {
	return &Deployer{
		config:     cfg,
		runner:     execRunner{},
		httpClient: &http.Client{Timeout: time.Duration(cfg.Timeout) * time.Millisecond},
		logger:     log,
	}
}

// NewDeployerWithRunner allows tests to substitute the docker CLI.
func NewDeployerWithRunner(cfg config.DeploymentConfig, runner CommandRunner, client *http.Client, log logger.Logger) *Deployer {
	return &Deployer{
		config:     cfg,
		runner:     runner,
		httpClient: client,
		logger:     log,
	}
}

// Deploy builds and pushes the agent image from dir, uploads the secret set,
// and registers the agent with Pipecat Cloud. Stages run in order; the first
// failure aborts the deployment and names the stage in the returned error.
func (d *Deployer) Deploy(ctx context.Context, req *models.AgentRequirements, dir string, secrets map[string]string) (*Deployment, error) {
	slug := models.Slug(req.Name)
	image := fmt.Sprintf("%s/%s:latest", d.config.DockerHubUsername, slug)
	secretSet := fmt.Sprintf("%s-secrets", slug)

	d.logger.Info("Starting deployment", map[string]interface{}{
		"agent": slug,
		"image": image,
	})

	if err := d.dockerLogin(ctx); err != nil {
		return nil, errors.NewDeploymentError("docker_login", err)
	}
	if err := d.dockerBuild(ctx, image, dir); err != nil {
		return nil, errors.NewDeploymentError("docker_build", err)
	}
	if err := d.dockerPush(ctx, image); err != nil {
		return nil, errors.NewDeploymentError("docker_push", err)
	}
	if len(secrets) > 0 {
		if err := d.uploadSecrets(ctx, secretSet, secrets); err != nil {
			return nil, errors.NewDeploymentError("secrets", err)
		}
	}
	if err := d.registerAgent(ctx, req, slug, image, secretSet); err != nil {
		return nil, errors.NewDeploymentError("deploy", err)
	}

	d.logger.Info("Deployment completed", map[string]interface{}{
		"agent": slug,
		"image": image,
	})

	return &Deployment{AgentName: slug, Image: image, SecretSet: secretSet}, nil
}

func (d *Deployer) dockerLogin(ctx context.Context) error {
	out, err := d.runner.Run(ctx, "docker", "login",
		"--username", d.config.DockerHubUsername,
		"--password", d.config.DockerHubToken)
	if err != nil {
		return fmt.Errorf("docker login failed: %w: %s", err, string(out))
	}
	return nil
}

func (d *Deployer) dockerBuild(ctx context.Context, image, dir string) error {
	out, err := d.runner.Run(ctx, "docker", "build", "--platform", "linux/arm64", "-t", image, dir)
	if err != nil {
		return fmt.Errorf("docker build failed: %w: %s", err, string(out))
	}
	return nil
}

func (d *Deployer) dockerPush(ctx context.Context, image string) error {
	out, err := d.runner.Run(ctx, "docker", "push", image)
	if err != nil {
		return fmt.Errorf("docker push failed: %w: %s", err, string(out))
	}
	return nil
}

func (d *Deployer) uploadSecrets(ctx context.Context, secretSet string, secrets map[string]string) error {
	body := map[string]interface{}{"secrets": secrets}
	return d.apiRequest(ctx, http.MethodPut, fmt.Sprintf("/secrets/%s", secretSet), body)
}

func (d *Deployer) registerAgent(ctx context.Context, req *models.AgentRequirements, slug, image, secretSet string) error {
	deployment := req.EffectiveDeployment()
	body := map[string]interface{}{
		"name":       slug,
		"image":      image,
		"secret_set": secretSet,
		"scaling": map[string]int{
			"min_agents": deployment.ScalingMin,
			"max_agents": deployment.ScalingMax,
		},
	}
	return d.apiRequest(ctx, http.MethodPost, "/agents", body)
}

func (d *Deployer) apiRequest(ctx context.Context, method, path string, body interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request body: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, d.config.APIBaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+d.config.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := d.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%s %s returned %d: %s", method, path, resp.StatusCode, string(detail))
	}
	return nil
}
