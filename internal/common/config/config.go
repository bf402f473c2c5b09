// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig          `mapstructure:"app"`
	Output        OutputConfig       `mapstructure:"output"`
	Generation    GenerationConfig   `mapstructure:"generation"`
	Knowledge     KnowledgeConfig    `mapstructure:"knowledge"`
	Sessions      SessionsConfig     `mapstructure:"sessions"`
	Database      DatabaseConfig     `mapstructure:"database"`
	Limits        LimitsConfig       `mapstructure:"limits"`
	Deployment    DeploymentConfig   `mapstructure:"deployment"`
	Notifications NotificationConfig `mapstructure:"notifications"`
	APIKeys       APIKeysConfig      `mapstructure:"api_keys"`
	HTTP          HTTPConfig         `mapstructure:"http"`
	Tracing       TracingConfig      `mapstructure:"tracing"`
	Logging       LoggingConfig      `mapstructure:"logging"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

// OutputConfig controls where generated agent directories are written.
type OutputConfig struct {
	Path string `mapstructure:"path"`
}

// GenerationConfig controls the remote generation path. When Enabled is false
// or URL is empty the orchestrator goes straight to templates.
type GenerationConfig struct {
	RemoteEnabled  bool   `mapstructure:"remote_enabled"`
	RemoteURL      string `mapstructure:"remote_url"`
	ConnectTimeout int    `mapstructure:"connect_timeout"` // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

// KnowledgeConfig controls the documentation search subsystem.
type KnowledgeConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	Index          string `mapstructure:"index"`
	CacheTTL       int    `mapstructure:"cache_ttl"` // seconds
	ChunksPerQuery int    `mapstructure:"chunks_per_query"`
}

// SessionsConfig controls Postgres-backed build session records.
type SessionsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Addresses  []string `mapstructure:"addresses"`
	Username   string   `mapstructure:"username"`
	Password   string   `mapstructure:"password"`
	SSLEnabled bool     `mapstructure:"ssl_enabled"`
	URL        string   `mapstructure:"url"` // Single URL for backwards compatibility
}

// GetURL returns the first address or the URL field
func (e ElasticsearchConfig) GetURL() string {
	if e.URL != "" {
		return e.URL
	}
	if len(e.Addresses) > 0 {
		return e.Addresses[0]
	}
	return ""
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// LimitsConfig bounds what a single requirements document may ask for.
type LimitsConfig struct {
	MaxKnowledgeSources int `mapstructure:"max_knowledge_sources"`
	MaxIntegrations     int `mapstructure:"max_integrations"`
	MaxLanguages        int `mapstructure:"max_languages"`
}

// DeploymentConfig holds settings for the Pipecat Cloud deployer.
type DeploymentConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	DockerHubUsername string `mapstructure:"docker_hub_username"`
	DockerHubToken    string `mapstructure:"docker_hub_token"`
	APIBaseURL        string `mapstructure:"api_base_url"`
	APIKey            string `mapstructure:"api_key"`
	Timeout           int    `mapstructure:"timeout"` // milliseconds
}

// NotificationConfig holds settings for build result notifications.
type NotificationConfig struct {
	Email struct {
		Enabled   bool   `mapstructure:"enabled"`
		FromEmail string `mapstructure:"from_email"`
		ToEmail   string `mapstructure:"to_email"`
	} `mapstructure:"email"`
	SMS struct {
		Enabled  bool   `mapstructure:"enabled"`
		TopicARN string `mapstructure:"topic_arn"`
	} `mapstructure:"sms"`
	AWS struct {
		Region string `mapstructure:"region"`
	} `mapstructure:"aws"`
}

// APIKeysConfig holds the credentials the generated agents depend on. They are
// checked before a build starts so a generated agent is never silently missing
// its runtime keys.
type APIKeysConfig struct {
	OpenAI   string `mapstructure:"openai"`
	Deepgram string `mapstructure:"deepgram"`
	Cartesia string `mapstructure:"cartesia"`
}

// HTTPConfig holds the health/metrics listener settings.
type HTTPConfig struct {
	Port int `mapstructure:"port"`
}

// TracingConfig holds the Jaeger collector settings. An empty endpoint
// disables span export.
type TracingConfig struct {
	JaegerEndpoint string `mapstructure:"jaeger_endpoint"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
