// internal/generation/templates/providers.go
package templates

import (
	"strings"

	"agent-builder/internal/models"
)

// Provider variants are closed per service axis. Unknown raw values map to
// the Default variant so generation stays total; Default renders the same
// block as the documented default provider for that axis.
type (
	STTProvider string
	LLMProvider string
	TTSProvider string
)

const (
	STTDeepgram STTProvider = "deepgram"
	STTOpenAI   STTProvider = "openai"
	STTDefault  STTProvider = "default"

	LLMOpenAI    LLMProvider = "openai"
	LLMAnthropic LLMProvider = "anthropic"
	LLMGoogle    LLMProvider = "google"
	LLMDefault   LLMProvider = "default"

	TTSCartesia   TTSProvider = "cartesia"
	TTSElevenLabs TTSProvider = "elevenlabs"
	TTSOpenAI     TTSProvider = "openai"
	TTSDefault    TTSProvider = "default"
)

// serviceBlock is one renderable provider slot: the import line and the
// constructor snippet for bot.py, the manifest line for requirements.txt and
// the env var for .env.example. An empty PipPackage emits no manifest line.
type serviceBlock struct {
	ImportLine   string
	Construction string
	PipPackage   string
	EnvVar       string
}

func ParseSTTProvider(svc *models.AIServiceConfig) STTProvider {
	if svc == nil {
		return STTDeepgram
	}
	switch STTProvider(strings.ToLower(svc.Provider)) {
	case STTDeepgram:
		return STTDeepgram
	case STTOpenAI:
		return STTOpenAI
	default:
		return STTDefault
	}
}

func ParseLLMProvider(svc *models.AIServiceConfig) LLMProvider {
	if svc == nil {
		return LLMOpenAI
	}
	switch LLMProvider(strings.ToLower(svc.Provider)) {
	case LLMOpenAI:
		return LLMOpenAI
	case LLMAnthropic:
		return LLMAnthropic
	case LLMGoogle:
		return LLMGoogle
	default:
		return LLMDefault
	}
}

func ParseTTSProvider(svc *models.AIServiceConfig) TTSProvider {
	if svc == nil {
		return TTSCartesia
	}
	switch TTSProvider(strings.ToLower(svc.Provider)) {
	case TTSCartesia:
		return TTSCartesia
	case TTSElevenLabs:
		return TTSElevenLabs
	case TTSOpenAI:
		return TTSOpenAI
	default:
		return TTSDefault
	}
}

var sttBlocks = map[STTProvider]serviceBlock{
	STTDeepgram: {
		ImportLine:   "from pipecat.services.deepgram.stt import DeepgramSTTService",
		Construction: `stt = DeepgramSTTService(api_key=os.getenv("DEEPGRAM_API_KEY"))`,
		PipPackage:   "deepgram-sdk",
		EnvVar:       "DEEPGRAM_API_KEY",
	},
	STTOpenAI: {
		ImportLine:   "from pipecat.services.openai.stt import OpenAISTTService",
		Construction: `stt = OpenAISTTService(api_key=os.getenv("OPENAI_API_KEY"))`,
		PipPackage:   "openai",
		EnvVar:       "OPENAI_API_KEY",
	},
}

var llmBlocks = map[LLMProvider]serviceBlock{
	LLMOpenAI: {
		ImportLine:   "from pipecat.services.openai.llm import OpenAILLMService",
		Construction: `llm = OpenAILLMService(api_key=os.getenv("OPENAI_API_KEY"), model="%MODEL%")`,
		PipPackage:   "openai",
		EnvVar:       "OPENAI_API_KEY",
	},
	LLMAnthropic: {
		ImportLine:   "from pipecat.services.anthropic.llm import AnthropicLLMService",
		Construction: `llm = AnthropicLLMService(api_key=os.getenv("ANTHROPIC_API_KEY"), model="%MODEL%")`,
		PipPackage:   "anthropic",
		EnvVar:       "ANTHROPIC_API_KEY",
	},
	LLMGoogle: {
		ImportLine:   "from pipecat.services.google.llm import GoogleLLMService",
		Construction: `llm = GoogleLLMService(api_key=os.getenv("GOOGLE_API_KEY"), model="%MODEL%")`,
		PipPackage:   "google-generativeai",
		EnvVar:       "GOOGLE_API_KEY",
	},
}

var ttsBlocks = map[TTSProvider]serviceBlock{
	TTSCartesia: {
		ImportLine:   "from pipecat.services.cartesia.tts import CartesiaTTSService",
		Construction: `tts = CartesiaTTSService(api_key=os.getenv("CARTESIA_API_KEY"), voice_id="%VOICE%")`,
		PipPackage:   "cartesia",
		EnvVar:       "CARTESIA_API_KEY",
	},
	TTSElevenLabs: {
		ImportLine:   "from pipecat.services.elevenlabs.tts import ElevenLabsTTSService",
		Construction: `tts = ElevenLabsTTSService(api_key=os.getenv("ELEVENLABS_API_KEY"), voice_id="%VOICE%")`,
		PipPackage:   "elevenlabs",
		EnvVar:       "ELEVENLABS_API_KEY",
	},
	TTSOpenAI: {
		ImportLine:   "from pipecat.services.openai.tts import OpenAITTSService",
		Construction: `tts = OpenAITTSService(api_key=os.getenv("OPENAI_API_KEY"), voice="%VOICE%")`,
		PipPackage:   "openai",
		EnvVar:       "OPENAI_API_KEY",
	},
}

func init() {
	// Default variants reuse the documented default provider block per axis.
	sttBlocks[STTDefault] = sttBlocks[STTDeepgram]
	llmBlocks[LLMDefault] = llmBlocks[LLMOpenAI]
	ttsBlocks[TTSDefault] = ttsBlocks[TTSCartesia]
}

const (
	defaultLLMModel = "gpt-4o"
	defaultVoiceID  = "79a125e8-cd45-4c13-8a67-188112f4dd22"
)

// sttBlockFor resolves a block with the caller's overrides applied.
func sttBlockFor(svc *models.AIServiceConfig) serviceBlock {
	return sttBlocks[ParseSTTProvider(svc)]
}

func llmBlockFor(svc *models.AIServiceConfig) serviceBlock {
	block := llmBlocks[ParseLLMProvider(svc)]
	model := defaultLLMModel
	if svc != nil && svc.Model != "" {
		model = svc.Model
	}
	block.Construction = strings.ReplaceAll(block.Construction, "%MODEL%", model)
	return block
}

func ttsBlockFor(svc *models.AIServiceConfig) serviceBlock {
	block := ttsBlocks[ParseTTSProvider(svc)]
	voice := defaultVoiceID
	if svc != nil && svc.VoiceID != "" {
		voice = svc.VoiceID
	}
	block.Construction = strings.ReplaceAll(block.Construction, "%VOICE%", voice)
	return block
}

// integrationPackages maps integration names to pip packages. Integrations
// without a mapping are omitted from the manifest.
var integrationPackages = map[string]string{
	"twilio":          "twilio",
	"telnyx":          "telnyx",
	"plivo":           "plivo",
	"zendesk":         "zenpy",
	"salesforce":      "simple-salesforce",
	"hubspot":         "hubspot-api-client",
	"slack":           "slack-sdk",
	"discord":         "discord.py",
	"google_calendar": "google-api-python-client",
	"notion":          "notion-client",
	"airtable":        "pyairtable",
}

// integrationEnvVars maps integration names to the env vars their SDKs read.
var integrationEnvVars = map[string][]string{
	"twilio":     {"TWILIO_ACCOUNT_SID", "TWILIO_AUTH_TOKEN"},
	"telnyx":     {"TELNYX_API_KEY"},
	"plivo":      {"PLIVO_AUTH_ID", "PLIVO_AUTH_TOKEN"},
	"zendesk":    {"ZENDESK_API_TOKEN"},
	"salesforce": {"SALESFORCE_ACCESS_TOKEN"},
	"hubspot":    {"HUBSPOT_API_KEY"},
	"slack":      {"SLACK_BOT_TOKEN"},
	"discord":    {"DISCORD_BOT_TOKEN"},
	"notion":     {"NOTION_API_KEY"},
	"airtable":   {"AIRTABLE_API_KEY"},
}
