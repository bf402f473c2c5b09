// internal/generation/templates/generator_test.go
package templates

import (
	"strings"
	"testing"

	"agent-builder/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

func createTestRequirements() *models.AgentRequirements {
	return &models.AgentRequirements{
		Name:        "Test Agent",
		Description: "A test agent",
		UseCase:     "customer_service",
		Channels:    []string{"web"},
		Languages:   []string{"en"},
		STTService:  &models.AIServiceConfig{Name: "deepgram", Provider: "deepgram"},
		LLMService:  &models.AIServiceConfig{Name: "openai", Provider: "openai"},
		TTSService:  &models.AIServiceConfig{Name: "cartesia", Provider: "cartesia"},
	}
}

func requireRequiredFiles(t *testing.T, files models.FileSet) {
	t.Helper()
	for _, name := range models.RequiredFiles {
		require.Contains(t, files, name)
		require.NotEmpty(t, files[name])
	}
}

// ==========================
// Core Functionality Tests
// ==========================

func TestGenerator_Generate_BasicAgent(t *testing.T) {
	gen := NewGenerator()
	files := gen.Generate(createTestRequirements())

	requireRequiredFiles(t, files)

	bot := files[models.FileBot]
	assert.Contains(t, bot, "Test Agent")
	assert.Contains(t, bot, "DeepgramSTTService")
	assert.Contains(t, bot, "OpenAILLMService")
	assert.Contains(t, bot, "CartesiaTTSService")
	assert.Contains(t, bot, "Pipeline")
	assert.Contains(t, bot, "asyncio")
}

func TestGenerator_Generate_ServiceSelection(t *testing.T) {
	tests := []struct {
		name        string
		stt         *models.AIServiceConfig
		llm         *models.AIServiceConfig
		tts         *models.AIServiceConfig
		wantInBot   []string
		wantPackage []string
	}{
		{
			name:        "all defaults when services absent",
			wantInBot:   []string{"DeepgramSTTService", "OpenAILLMService", "CartesiaTTSService"},
			wantPackage: []string{"deepgram-sdk", "openai", "cartesia"},
		},
		{
			name:        "anthropic llm with elevenlabs tts",
			llm:         &models.AIServiceConfig{Name: "claude", Provider: "anthropic", Model: "claude-sonnet-4"},
			tts:         &models.AIServiceConfig{Name: "elevenlabs", Provider: "elevenlabs"},
			wantInBot:   []string{"AnthropicLLMService", "claude-sonnet-4", "ElevenLabsTTSService"},
			wantPackage: []string{"anthropic", "elevenlabs"},
		},
		{
			name:      "unknown providers fall back to default blocks",
			stt:       &models.AIServiceConfig{Name: "mystery", Provider: "acme-stt"},
			llm:       &models.AIServiceConfig{Name: "mystery", Provider: "acme-llm"},
			tts:       &models.AIServiceConfig{Name: "mystery", Provider: "acme-tts"},
			wantInBot: []string{"DeepgramSTTService", "OpenAILLMService", "CartesiaTTSService"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := createTestRequirements()
			req.STTService = tt.stt
			req.LLMService = tt.llm
			req.TTSService = tt.tts

			files := NewGenerator().Generate(req)
			requireRequiredFiles(t, files)

			bot := files[models.FileBot]
			for _, want := range tt.wantInBot {
				assert.Contains(t, bot, want)
			}
			for _, pkg := range tt.wantPackage {
				assert.Contains(t, files[models.FileRequirements], pkg)
			}

			// Exactly one construction per service slot.
			assert.Equal(t, 1, strings.Count(bot, "stt = "))
			assert.Equal(t, 1, strings.Count(bot, "llm = "))
			assert.Equal(t, 1, strings.Count(bot, "tts = "))
		})
	}
}

func TestGenerator_Generate_PhoneTransport(t *testing.T) {
	req := createTestRequirements()
	req.Name = "Phone Agent"
	req.Channels = []string{"phone"}
	req.STTService = nil
	req.LLMService = nil
	req.TTSService = nil

	files := NewGenerator().Generate(req)
	bot := files[models.FileBot]

	assert.Contains(t, bot, "DailyParams")
	assert.Contains(t, bot, "DailyTransport")
	assert.NotContains(t, bot, "SmallWebRTCTransport")
	assert.Contains(t, files[models.FileEnvExample], "DAILY_ROOM_URL")
}

func TestGenerator_Generate_BothTransportsCoexist(t *testing.T) {
	req := createTestRequirements()
	req.Channels = []string{"phone", "web"}

	bot := NewGenerator().Generate(req)[models.FileBot]

	assert.Contains(t, bot, "DailyTransport")
	assert.Contains(t, bot, "SmallWebRTCTransport")
}

func TestGenerator_Generate_Multilingual(t *testing.T) {
	req := createTestRequirements()
	req.Languages = []string{"en", "es", "fr"}

	bot := NewGenerator().Generate(req)[models.FileBot]

	assert.Contains(t, bot, "SUPPORTED_LANGUAGES")
	for _, lang := range req.Languages {
		assert.Contains(t, bot, `"`+lang+`"`)
	}
	assert.Contains(t, bot, `PRIMARY_LANGUAGE = "en"`)
}

func TestGenerator_Generate_SingleLanguageOmitsMultilingualBlock(t *testing.T) {
	bot := NewGenerator().Generate(createTestRequirements())[models.FileBot]
	assert.NotContains(t, bot, "SUPPORTED_LANGUAGES")
}

func TestGenerator_Generate_KnowledgeSources(t *testing.T) {
	req := createTestRequirements()
	req.KnowledgeSources = []models.KnowledgeSourceConfig{
		{Type: "web", Source: "https://example.com/docs"},
	}

	files := NewGenerator().Generate(req)

	require.Contains(t, files, models.FileKnowledge)
	bot := files[models.FileBot]
	knowledge := files[models.FileKnowledge]

	// The exported symbol and the entry-point reference must match.
	assert.Contains(t, knowledge, "class KnowledgeProcessor")
	assert.Contains(t, bot, "from knowledge_processor import KnowledgeProcessor")
	assert.Contains(t, bot, "KnowledgeProcessor(sources=KNOWLEDGE_SOURCES)")
	assert.Contains(t, bot, "https://example.com/docs")
	assert.Contains(t, files[models.FileRequirements], "aiohttp")
}

func TestGenerator_Generate_NoKnowledgeSourcesOmitsModule(t *testing.T) {
	files := NewGenerator().Generate(createTestRequirements())
	assert.NotContains(t, files, models.FileKnowledge)
	assert.NotContains(t, files[models.FileBot], "knowledge_processor")
}

func TestGenerator_Generate_Manifest(t *testing.T) {
	req := createTestRequirements()
	req.Integrations = []string{"twilio", "slack", "unknown-system"}

	manifest := NewGenerator().Generate(req)[models.FileRequirements]

	lines := strings.Split(strings.TrimSpace(manifest), "\n")
	assert.Equal(t, "pipecat-ai[daily,silero,webrtc]", lines[0])
	assert.Contains(t, manifest, "twilio")
	assert.Contains(t, manifest, "slack-sdk")
	// Unknown integrations are omitted, not errored.
	assert.NotContains(t, manifest, "unknown-system")
}

func TestGenerator_Generate_Dockerfile(t *testing.T) {
	dockerfile := NewGenerator().Generate(createTestRequirements())[models.FileDockerfile]

	assert.Contains(t, dockerfile, "FROM python:")
	assert.Contains(t, dockerfile, "COPY requirements.txt")
	assert.Contains(t, dockerfile, "pip install")
	assert.Contains(t, dockerfile, `CMD ["python", "bot.py"]`)
}

func TestGenerator_Generate_DeployConfig(t *testing.T) {
	req := createTestRequirements()
	req.Name = "Deploy Test_Agent"
	req.Deployment = &models.DeploymentConfig{
		Platform:   "pipecat-cloud",
		ScalingMin: 2,
		ScalingMax: 8,
	}

	deploy := NewGenerator().Generate(req)[models.FileDeployConfig]

	assert.Contains(t, deploy, `agent_name = "deploy-test-agent"`)
	assert.Contains(t, deploy, "image = ")
	assert.Contains(t, deploy, `secret_set = "deploy-test-agent-secrets"`)
	assert.Contains(t, deploy, "[scaling]")
	assert.Contains(t, deploy, "min_agents = 2")
	assert.Contains(t, deploy, "max_agents = 8")
}

func TestGenerator_Generate_DefaultScaling(t *testing.T) {
	deploy := NewGenerator().Generate(createTestRequirements())[models.FileDeployConfig]

	assert.Contains(t, deploy, "min_agents = 1")
	assert.Contains(t, deploy, "max_agents = 5")
}

// ==========================
// Property Tests
// ==========================

func TestGenerator_Generate_EscapesFreeTextInPythonStrings(t *testing.T) {
	gen := NewGenerator()

	req := createTestRequirements()
	req.Description = `Writes docstrings like """this one""" and paths like C:\agents\`
	req.Personality = `Says "hi" a lot`
	files := gen.Generate(req)

	bot := files[models.FileBot]

	// The only triple-quote delimiters left are the real ones: the module
	// docstring pair and the SYSTEM_INSTRUCTION pair.
	assert.Equal(t, 4, strings.Count(bot, `"""`))
	assert.Contains(t, bot, `\"\"\"this one\"\"\"`)
	assert.Contains(t, bot, `C:\\agents\\`)
	assert.Contains(t, bot, `Says \"hi\" a lot`)
	assert.NotContains(t, bot, `"""this one"""`)
}

func TestGenerator_Generate_Deterministic(t *testing.T) {
	req := createTestRequirements()
	req.Languages = []string{"en", "es"}
	req.KnowledgeSources = []models.KnowledgeSourceConfig{
		{Type: "web", Source: "https://example.com"},
	}
	req.Integrations = []string{"twilio"}

	gen := NewGenerator()
	first := gen.Generate(req)
	second := gen.Generate(req)

	require.Equal(t, first.Names(), second.Names())
	for name := range first {
		assert.Equal(t, first[name], second[name], "file %s differs between runs", name)
	}
}

func TestGenerator_Generate_Totality(t *testing.T) {
	tests := []struct {
		name string
		req  *models.AgentRequirements
	}{
		{
			name: "minimal all-defaults requirements",
			req: &models.AgentRequirements{
				Name:        "Minimal",
				Description: "Bare minimum",
				UseCase:     "other",
			},
		},
		{
			name: "unknown channel degrades to web",
			req: &models.AgentRequirements{
				Name:        "Odd Channel",
				Description: "Unknown channel value",
				UseCase:     "other",
				Channels:    []string{"carrier-pigeon"},
			},
		},
		{
			name: "maximal requirements",
			req: &models.AgentRequirements{
				Name:        "Maximal Agent",
				Description: "Everything populated",
				UseCase:     "customer_service",
				Channels:    []string{"phone", "web", "whatsapp"},
				Languages:   []string{"en", "es", "fr", "de"},
				Personality: "warm and efficient",
				STTService:  &models.AIServiceConfig{Name: "deepgram", Provider: "deepgram"},
				LLMService:  &models.AIServiceConfig{Name: "claude", Provider: "anthropic", Model: "claude-sonnet-4"},
				TTSService:  &models.AIServiceConfig{Name: "elevenlabs", Provider: "elevenlabs", VoiceID: "v-123"},
				KnowledgeSources: []models.KnowledgeSourceConfig{
					{Type: "web", Source: "https://example.com/docs"},
					{Type: "document", Source: "guides/faq.md"},
				},
				Integrations: []string{"twilio", "slack", "notion"},
				Deployment:   &models.DeploymentConfig{ScalingMin: 1, ScalingMax: 20},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			files := NewGenerator().Generate(tt.req)
			requireRequiredFiles(t, files)

			wantKnowledge := len(tt.req.KnowledgeSources) > 0
			assert.Equal(t, wantKnowledge, len(files[models.FileKnowledge]) > 0)
		})
	}
}
