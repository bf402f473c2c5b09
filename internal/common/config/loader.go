// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

func Load() (*Config, error) {
	// Load .env from multiple possible locations
	loadEnvFile()

	// Base config
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("../../configs")
	viper.AddConfigPath(".")

	// Enable ENV override like OPENAI_API_KEY
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	// 1. Load base config
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	// 2. Load environment-specific config
	envConfigFile := fmt.Sprintf("config.%s", env)
	viper.SetConfigName(envConfigFile)
	_ = viper.MergeInConfig() // ignore error if not found

	// 3. Expand ${VAR} placeholders
	expandEnvVars(viper.GetViper())

	// 4. Unmarshal final config
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	// 5. Direct override if still empty
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// loadEnvFile tries .env in the working directory, its parents, and the
// project root so tests run from nested packages still pick up credentials.
func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
		"../../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				fmt.Printf("✅ Loaded .env from: %s\n", path)
				return
			}
		}
	}

	fmt.Printf("⚠️  .env file not found in any location, using system environment variables\n")
}

// findProjectRoot walks up directories looking for go.mod
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			break
		}
		dir = parent
	}

	return ""
}

// expandEnvVars resolves ${VAR} and $VAR placeholders in string values
func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		val := v.Get(key)

		if strVal, ok := val.(string); ok {
			if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
				expanded := os.ExpandEnv(strVal)
				if expanded != strVal && expanded != "" {
					v.Set(key, expanded)
				}
			}
		}
	}
}

// overrideEmptyConfig fills fields from well-known env vars when the config
// files left them empty
func overrideEmptyConfig(cfg *Config) {
	// Agent runtime API keys
	if cfg.APIKeys.OpenAI == "" {
		if val := os.Getenv("OPENAI_API_KEY"); val != "" {
			cfg.APIKeys.OpenAI = val
		}
	}
	if cfg.APIKeys.Deepgram == "" {
		if val := os.Getenv("DEEPGRAM_API_KEY"); val != "" {
			cfg.APIKeys.Deepgram = val
		}
	}
	if cfg.APIKeys.Cartesia == "" {
		if val := os.Getenv("CARTESIA_API_KEY"); val != "" {
			cfg.APIKeys.Cartesia = val
		}
	}

	// Remote generation backend
	if cfg.Generation.RemoteURL == "" {
		if val := os.Getenv("CASCADE_WS_URL"); val != "" {
			cfg.Generation.RemoteURL = val
		}
	}

	// Deployment credentials
	if cfg.Deployment.DockerHubUsername == "" {
		if val := os.Getenv("DOCKERHUB_USERNAME"); val != "" {
			cfg.Deployment.DockerHubUsername = val
		}
	}
	if cfg.Deployment.DockerHubToken == "" {
		if val := os.Getenv("DOCKERHUB_TOKEN"); val != "" {
			cfg.Deployment.DockerHubToken = val
		}
	}
	if cfg.Deployment.APIKey == "" {
		if val := os.Getenv("PIPECAT_CLOUD_API_KEY"); val != "" {
			cfg.Deployment.APIKey = val
		}
	}

	// Database overrides
	if cfg.Database.Postgres.User == "" {
		if val := os.Getenv("DB_USER"); val != "" {
			cfg.Database.Postgres.User = val
		}
	}
	if cfg.Database.Postgres.Password == "" {
		if val := os.Getenv("DB_PASSWORD"); val != "" {
			cfg.Database.Postgres.Password = val
		}
	}
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile() // Load env file first

	viper.SetConfigFile(path)
	viper.SetConfigType("yaml")

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	// Expand environment variables before unmarshal
	expandEnvVars(viper.GetViper())

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets default values for optional configuration fields
func applyDefaults(cfg *Config) {
	// App defaults
	if cfg.App.Name == "" {
		cfg.App.Name = "agent-builder"
	}
	if cfg.App.Environment == "" {
		cfg.App.Environment = "development"
	}

	// Output defaults
	if cfg.Output.Path == "" {
		cfg.Output.Path = "generated_agents"
	}

	// Generation defaults
	if cfg.Generation.ConnectTimeout == 0 {
		cfg.Generation.ConnectTimeout = 10000
	}
	if cfg.Generation.RequestTimeout == 0 {
		cfg.Generation.RequestTimeout = 120000
	}

	// Knowledge defaults
	if cfg.Knowledge.Index == "" {
		cfg.Knowledge.Index = "pipecat-docs"
	}
	if cfg.Knowledge.CacheTTL == 0 {
		cfg.Knowledge.CacheTTL = 3600
	}
	if cfg.Knowledge.ChunksPerQuery == 0 {
		cfg.Knowledge.ChunksPerQuery = 5
	}

	// Database defaults
	if cfg.Database.Postgres.Port == 0 {
		cfg.Database.Postgres.Port = 5432
	}
	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 25
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 5
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}

	// Elasticsearch URL fallback
	if cfg.Database.Elasticsearch.URL == "" && len(cfg.Database.Elasticsearch.Addresses) > 0 {
		cfg.Database.Elasticsearch.URL = cfg.Database.Elasticsearch.Addresses[0]
	}

	// Limits defaults
	if cfg.Limits.MaxKnowledgeSources == 0 {
		cfg.Limits.MaxKnowledgeSources = 10
	}
	if cfg.Limits.MaxIntegrations == 0 {
		cfg.Limits.MaxIntegrations = 20
	}
	if cfg.Limits.MaxLanguages == 0 {
		cfg.Limits.MaxLanguages = 10
	}

	// Deployment defaults
	if cfg.Deployment.APIBaseURL == "" {
		cfg.Deployment.APIBaseURL = "https://api.pipecat.daily.co/v1"
	}
	if cfg.Deployment.Timeout == 0 {
		cfg.Deployment.Timeout = 300000
	}

	// Notification defaults
	if cfg.Notifications.AWS.Region == "" {
		cfg.Notifications.AWS.Region = "us-east-1"
	}

	// HTTP defaults
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 8080
	}

	// Logging defaults
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}
}

// validateConfig validates critical configuration fields
func validateConfig(cfg *Config) error {
	if cfg.Output.Path == "" {
		return fmt.Errorf("output.path is required")
	}

	if cfg.Generation.RemoteEnabled && cfg.Generation.RemoteURL == "" {
		return fmt.Errorf("generation.remote_url is required when remote generation is enabled")
	}

	if cfg.Knowledge.Enabled {
		if len(cfg.Database.Elasticsearch.Addresses) == 0 && cfg.Database.Elasticsearch.URL == "" {
			return fmt.Errorf("database.elasticsearch.addresses or url is required when knowledge search is enabled")
		}
		if cfg.Database.Redis.Address == "" {
			return fmt.Errorf("database.redis.address is required when knowledge search is enabled")
		}
	}

	if cfg.Sessions.Enabled {
		if cfg.Database.Postgres.Host == "" {
			return fmt.Errorf("database.postgres.host is required when session tracking is enabled")
		}
		if cfg.Database.Postgres.Database == "" {
			return fmt.Errorf("database.postgres.database is required when session tracking is enabled")
		}
		if cfg.Database.Postgres.User == "" {
			return fmt.Errorf("database.postgres.user is required when session tracking is enabled")
		}
	}

	if cfg.Deployment.Enabled && cfg.Deployment.APIKey == "" {
		return fmt.Errorf("deployment.api_key is required when deployment is enabled")
	}

	if cfg.Limits.MaxKnowledgeSources < 0 || cfg.Limits.MaxIntegrations < 0 || cfg.Limits.MaxLanguages < 0 {
		return fmt.Errorf("limits values must be non-negative")
	}

	return nil
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}
