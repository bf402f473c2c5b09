// internal/models/requirements.go
package models

import "strings"

// Channel is a delivery channel the generated agent is reachable on.
type Channel string

const (
	ChannelPhone    Channel = "phone"
	ChannelWeb      Channel = "web"
	ChannelMobile   Channel = "mobile"
	ChannelWhatsApp Channel = "whatsapp"
	ChannelTelegram Channel = "telegram"
)

// ParseChannel normalizes a raw channel string. Unknown values map to
// ChannelWeb so generation stays total.
func ParseChannel(raw string) Channel {
	switch Channel(strings.ToLower(strings.TrimSpace(raw))) {
	case ChannelPhone:
		return ChannelPhone
	case ChannelWeb:
		return ChannelWeb
	case ChannelMobile:
		return ChannelMobile
	case ChannelWhatsApp:
		return ChannelWhatsApp
	case ChannelTelegram:
		return ChannelTelegram
	default:
		return ChannelWeb
	}
}

// AIServiceConfig describes one selected AI service (STT, LLM or TTS).
type AIServiceConfig struct {
	Name     string `json:"name" mapstructure:"name"`
	Provider string `json:"provider" mapstructure:"provider"`
	Model    string `json:"model,omitempty" mapstructure:"model"`
	VoiceID  string `json:"voice_id,omitempty" mapstructure:"voice_id"`
	Language string `json:"language,omitempty" mapstructure:"language"`
}

// KnowledgeSourceConfig describes one knowledge source the agent should use.
type KnowledgeSourceConfig struct {
	Type              string                 `json:"type" mapstructure:"type"` // web, document, api, database
	Source            string                 `json:"source" mapstructure:"source"`
	ProcessingOptions map[string]interface{} `json:"processing_options,omitempty" mapstructure:"processing_options"`
}

// DeploymentConfig holds the target deployment settings for the agent.
type DeploymentConfig struct {
	Platform    string `json:"platform" mapstructure:"platform"`
	ScalingMin  int    `json:"scaling_min" mapstructure:"scaling_min"`
	ScalingMax  int    `json:"scaling_max" mapstructure:"scaling_max"`
	Region      string `json:"region" mapstructure:"region"`
	Environment string `json:"environment" mapstructure:"environment"`
}

// DefaultDeployment returns the deployment settings used when the caller
// supplied none.
func DefaultDeployment() *DeploymentConfig {
	return &DeploymentConfig{
		Platform:    "pipecat-cloud",
		ScalingMin:  1,
		ScalingMax:  5,
		Region:      "us-west-2",
		Environment: "production",
	}
}

// AgentRequirements is the validated, immutable description of the agent to
// build. It is produced by the validation layer and treated as read-only by
// everything downstream.
type AgentRequirements struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	UseCase     string `json:"use_case"`

	Channels    []string `json:"channels"`
	Languages   []string `json:"languages"`
	Personality string   `json:"personality"`

	STTService *AIServiceConfig `json:"stt_service,omitempty"`
	LLMService *AIServiceConfig `json:"llm_service,omitempty"`
	TTSService *AIServiceConfig `json:"tts_service,omitempty"`

	KnowledgeSources []KnowledgeSourceConfig `json:"knowledge_sources,omitempty"`
	Integrations     []string                `json:"integrations,omitempty"`
	Deployment       *DeploymentConfig       `json:"deployment,omitempty"`
}

// PrimaryLanguage returns languages[0], defaulting to English.
func (r *AgentRequirements) PrimaryLanguage() string {
	if len(r.Languages) == 0 {
		return "en"
	}
	return r.Languages[0]
}

// HasChannel reports whether the given channel was requested.
func (r *AgentRequirements) HasChannel(ch Channel) bool {
	for _, raw := range r.Channels {
		if ParseChannel(raw) == ch {
			return true
		}
	}
	return false
}

// EffectiveDeployment returns the explicit deployment config or the default.
func (r *AgentRequirements) EffectiveDeployment() *DeploymentConfig {
	if r.Deployment != nil {
		return r.Deployment
	}
	return DefaultDeployment()
}
