// cmd/agent-builder/main.go
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"agent-builder/internal/builder"
	awsclients "agent-builder/internal/common/aws"
	"agent-builder/internal/common/config"
	"agent-builder/internal/common/database"
	"agent-builder/internal/common/logger"
	"agent-builder/internal/common/observability"
	"agent-builder/internal/deploy"
	"agent-builder/internal/generation"
	"agent-builder/internal/generation/cascade"
	"agent-builder/internal/generation/templates"
	outvalidator "agent-builder/internal/generation/validator"
	"agent-builder/internal/knowledge"
	"agent-builder/internal/models"
	"agent-builder/internal/notify"
	"agent-builder/internal/session"
	"agent-builder/internal/sink"
	"agent-builder/internal/validation"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	requirementsPath := flag.String("requirements", "", "path to a requirements JSON document")
	configPath := flag.String("config", "", "path to a config file (default: search configs/)")
	deployAfterBuild := flag.Bool("deploy", false, "deploy the agent to Pipecat Cloud after a successful build")
	serve := flag.Bool("serve", false, "keep serving health and metrics endpoints after the build")
	flag.Parse()

	zapLog := logger.New("info", "console")
	defer zapLog.Sync()

	zapLog.Info("Starting agent builder...")

	cfg, err := loadConfig(*configPath)
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	log := logger.NewStructured(cfg.Logging.Level, cfg.Logging.Format)

	obs := observability.New("agent-builder")
	defer obs.Shutdown()

	tracer, err := observability.NewTracer("agent-builder", cfg.Tracing.JaegerEndpoint)
	if err != nil {
		zapLog.Fatal("tracer init failed", zap.Error(err))
	}
	defer tracer.Shutdown()

	ctx := context.Background()

	// --- Init PostgreSQL with retry (sessions) ---
	var sessions builder.SessionRecorder
	if cfg.Sessions.Enabled {
		var pg *database.PostgresClient
		err = retryWithBackoff(func() error {
			var err error
			pg, err = database.NewPostgres(cfg.Database.Postgres)
			if err != nil {
				return err
			}
			return pg.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "PostgreSQL connection")

		if err != nil {
			zapLog.Fatal("postgres failed after retries", zap.Error(err))
		}
		defer pg.Close()
		zapLog.Info("PostgreSQL connected successfully")

		sessions = session.NewStore(pg.GetDB(), log)
	}

	// --- Init Elasticsearch + Redis with retry (knowledge search) ---
	var knowledgeService builder.KnowledgeProvider
	if cfg.Knowledge.Enabled {
		var esClient *database.ElasticsearchClient
		err = retryWithBackoff(func() error {
			var err error
			esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return esClient.Ping()
		}, 15, 2*time.Second, zapLog, "Elasticsearch connection")

		if err != nil {
			zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
		}
		zapLog.Info("Elasticsearch connected successfully")

		var redisClient *database.RedisClient
		err = retryWithBackoff(func() error {
			var err error
			redisClient, err = database.NewRedis(cfg.Database.Redis)
			if err != nil {
				return err
			}
			return redisClient.Ping(ctx)
		}, 10, 2*time.Second, zapLog, "Redis connection")

		if err != nil {
			// The knowledge cache is an optimization; search still works without it.
			zapLog.Warn("redis unavailable, knowledge search runs uncached", zap.Error(err))
			knowledgeService = knowledge.NewService(esClient, nil, cfg.Knowledge, log)
		} else {
			defer redisClient.Close()
			zapLog.Info("Redis connected successfully")
			knowledgeService = knowledge.NewService(esClient, redisClient.Client, cfg.Knowledge, log)
		}
	}

	// --- Init notification clients ---
	var notifier builder.Notifier
	if cfg.Notifications.Email.Enabled || cfg.Notifications.SMS.Enabled {
		var email notify.EmailSender
		var sms notify.SMSPublisher

		if cfg.Notifications.Email.Enabled {
			sesClient, err := awsclients.NewSESClient(ctx, cfg.Notifications.AWS.Region)
			if err != nil {
				zapLog.Fatal("ses client failed", zap.Error(err))
			}
			email = sesClient
		}
		if cfg.Notifications.SMS.Enabled {
			snsClient, err := awsclients.NewSNSClient(ctx, cfg.Notifications.AWS.Region)
			if err != nil {
				zapLog.Fatal("sns client failed", zap.Error(err))
			}
			sms = snsClient
		}

		notifier = notify.NewNotifier(email, sms, cfg.Notifications, log)
		zapLog.Info("Notification clients initialized")
	}

	// --- Init generation pipeline ---
	var remote generation.RemoteGenerator
	if cfg.Generation.RemoteEnabled && cfg.Generation.RemoteURL != "" {
		remote = cascade.NewClient(cfg.Generation, log)
		zapLog.Info("Remote generation enabled", zap.String("url", cfg.Generation.RemoteURL))
	}

	orchestrator := generation.NewOrchestrator(remote, templates.NewGenerator(), log)

	service := builder.NewService(builder.Options{
		Validator: validation.NewValidator(cfg.Limits, log),
		Knowledge: knowledgeService,
		Generator: orchestrator,
		Output:    outvalidator.NewValidator(log),
		Sink:      sink.NewFileSink(cfg.Output.Path, log),
		Sessions:  sessions,
		Notifier:  notifier,
		Obs:       obs,
		Tracer:    tracer,
		Logger:    log,
	})

	// --- Health & Metrics Server ---
	go func() {
		http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "healthy",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "ready",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.Handle("/metrics", promhttp.Handler())
		addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
		zapLog.Info("Health/Metrics server listening", zap.String("addr", addr))
		if err := http.ListenAndServe(addr, nil); err != nil {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Run the build ---
	req, err := loadRequirements(*requirementsPath)
	if err != nil {
		zapLog.Fatal("requirements load failed", zap.Error(err))
	}

	buildCtx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	outcome, err := service.Build(buildCtx, req)
	if err != nil {
		zapLog.Fatal("build failed", zap.Error(err))
	}

	zapLog.Info("Agent built",
		zap.String("agent", outcome.AgentName),
		zap.String("session", outcome.SessionID),
		zap.String("source", outcome.Source),
		zap.String("output", outcome.OutputDir),
		zap.Int("files", len(outcome.Files)),
	)
	for _, warning := range outcome.Warnings {
		zapLog.Warn("build warning", zap.String("warning", warning))
	}

	if *deployAfterBuild {
		if !cfg.Deployment.Enabled {
			zapLog.Fatal("deployment requested but deployment.enabled is false")
		}
		deployer := deploy.NewDeployer(cfg.Deployment, log)
		result, err := deployer.Deploy(buildCtx, req, outcome.OutputDir, deploymentSecrets(cfg))
		if err != nil {
			zapLog.Fatal("deployment failed", zap.Error(err))
		}
		zapLog.Info("Agent deployed",
			zap.String("agent", result.AgentName),
			zap.String("image", result.Image),
			zap.String("secret_set", result.SecretSet),
		)
	}

	if !*serve {
		zapLog.Info("Agent builder finished")
		return
	}

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received")
	zapLog.Info("Agent builder stopped gracefully")
}

// loadConfig reads configuration from an explicit file when one is given,
// otherwise from the standard search paths.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromFile(path)
	}
	return config.Load()
}

// loadRequirements reads and schema-checks a requirements document, falling
// back to a built-in sample when no path is given.
func loadRequirements(path string) (*models.AgentRequirements, error) {
	if path == "" {
		return sampleRequirements(), nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read requirements file: %w", err)
	}

	if err := validation.ValidateDocument(raw); err != nil {
		return nil, err
	}

	var req models.AgentRequirements
	if err := json.Unmarshal(raw, &req); err != nil {
		return nil, fmt.Errorf("parse requirements file: %w", err)
	}
	return &req, nil
}

func sampleRequirements() *models.AgentRequirements {
	return &models.AgentRequirements{
		Name:        "Demo Voice Agent",
		Description: "A demo customer service voice agent built from the default sample.",
		UseCase:     "customer_service",
		Channels:    []string{"web"},
		Languages:   []string{"en"},
	}
}

// deploymentSecrets collects the provider API keys configured locally into the
// secret set uploaded alongside the agent.
func deploymentSecrets(cfg *config.Config) map[string]string {
	secrets := map[string]string{}
	if cfg.APIKeys.OpenAI != "" {
		secrets["OPENAI_API_KEY"] = cfg.APIKeys.OpenAI
	}
	if cfg.APIKeys.Deepgram != "" {
		secrets["DEEPGRAM_API_KEY"] = cfg.APIKeys.Deepgram
	}
	if cfg.APIKeys.Cartesia != "" {
		secrets["CARTESIA_API_KEY"] = cfg.APIKeys.Cartesia
	}
	return secrets
}
