// internal/generation/templates/bot.go
package templates

import (
	"fmt"
	"strings"
	"text/template"

	"agent-builder/internal/models"
)

// botData holds data for the entry-point template
type botData struct {
	Name            string
	Description     string
	UseCase         string
	SystemPrompt    string
	ServiceImports  []string
	Constructions   []string
	PhoneTransport  bool
	WebTransport    bool
	Knowledge       bool
	KnowledgeLines  []string
	Multilingual    bool
	Languages       []string
	PrimaryLanguage string
}

var botTemplate = template.Must(template.New("bot").Parse(`"""{{.Name}} - {{.Description}}

Generated Pipecat agent for use case: {{.UseCase}}.
"""

import os
import asyncio

from dotenv import load_dotenv
from loguru import logger

from pipecat.audio.vad.silero import SileroVADAnalyzer
from pipecat.pipeline.pipeline import Pipeline
from pipecat.pipeline.runner import PipelineRunner
from pipecat.pipeline.task import PipelineParams, PipelineTask
from pipecat.processors.aggregators.llm_context import LLMContext
from pipecat.processors.aggregators.llm_response_universal import LLMContextAggregatorPair
from pipecat.transports.base_transport import TransportParams
{{- if .PhoneTransport}}
from pipecat.transports.daily.transport import DailyParams, DailyTransport
{{- end}}
{{- if .WebTransport}}
from pipecat.transports.webrtc.transport import SmallWebRTCTransport
{{- end}}
{{- range .ServiceImports}}
{{.}}
{{- end}}
{{- if .Knowledge}}
from knowledge_processor import KnowledgeProcessor
{{- end}}

load_dotenv(override=True)

SYSTEM_INSTRUCTION = """{{.SystemPrompt}}"""
{{- if .Multilingual}}

# Multilingual support: respond in whichever of these the user speaks.
SUPPORTED_LANGUAGES = [{{range $i, $l := .Languages}}{{if $i}}, {{end}}"{{$l}}"{{end}}]
PRIMARY_LANGUAGE = "{{.PrimaryLanguage}}"
{{- end}}
{{- if .Knowledge}}

KNOWLEDGE_SOURCES = [
{{- range .KnowledgeLines}}
    {{.}}
{{- end}}
]
{{- end}}


async def main():
{{- range .Constructions}}
    {{.}}
{{- end}}
{{- if .Knowledge}}

    knowledge = KnowledgeProcessor(sources=KNOWLEDGE_SOURCES)
    await knowledge.load()
{{- end}}

    context = LLMContext(
        messages=[{"role": "system", "content": SYSTEM_INSTRUCTION}],
    )
    context_aggregator = LLMContextAggregatorPair(context)
{{- if .PhoneTransport}}

    transport = DailyTransport(
        room_url=os.getenv("DAILY_ROOM_URL"),
        token=os.getenv("DAILY_TOKEN"),
        bot_name="{{.Name}}",
        params=DailyParams(
            audio_in_enabled=True,
            audio_out_enabled=True,
            vad_analyzer=SileroVADAnalyzer(),
        ),
    )
{{- end}}
{{- if .WebTransport}}

    transport = SmallWebRTCTransport(
        params=TransportParams(
            audio_in_enabled=True,
            audio_out_enabled=True,
            vad_analyzer=SileroVADAnalyzer(),
        ),
    )
{{- end}}

    pipeline = Pipeline([
        transport.input(),
        stt,
        context_aggregator.user(),
        llm,
        tts,
        transport.output(),
        context_aggregator.assistant(),
    ])

    task = PipelineTask(
        pipeline,
        params=PipelineParams(allow_interruptions=True),
    )

    runner = PipelineRunner()
    logger.info("Starting {{.Name}}")
    await runner.run(task)


if __name__ == "__main__":
    asyncio.run(main())
`))

// renderBot builds the entry-point file. Both transports may coexist; when
// both channels are requested the web transport assignment wins (single
// program stays valid either way).
func renderBot(req *models.AgentRequirements) string {
	stt := sttBlockFor(req.STTService)
	llm := llmBlockFor(req.LLMService)
	tts := ttsBlockFor(req.TTSService)

	phone := req.HasChannel(models.ChannelPhone)
	web := !phone || hasNonPhoneChannel(req)

	data := botData{
		Name:            pyEscape(req.Name),
		Description:     pyEscape(req.Description),
		UseCase:         pyEscape(req.UseCase),
		SystemPrompt:    pyEscape(systemPrompt(req)),
		ServiceImports:  []string{stt.ImportLine, llm.ImportLine, tts.ImportLine},
		Constructions:   []string{stt.Construction, llm.Construction, tts.Construction},
		PhoneTransport:  phone,
		WebTransport:    web,
		Knowledge:       len(req.KnowledgeSources) > 0,
		KnowledgeLines:  knowledgeSourceLines(req),
		Multilingual:    len(req.Languages) > 1,
		Languages:       req.Languages,
		PrimaryLanguage: req.PrimaryLanguage(),
	}

	var sb strings.Builder
	if err := botTemplate.Execute(&sb, data); err != nil {
		// Templates are parsed at init and the data type is fixed, so an
		// execution failure means a programming error.
		panic(fmt.Sprintf("bot template execution failed: %v", err))
	}
	return sb.String()
}

// pyEscape makes free text safe inside a Python string literal. Backslashes
// are escaped before quotes so a trailing backslash can never swallow the
// closing delimiter, and escaped quotes can never terminate it early.
func pyEscape(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `"`, `\"`)
}

func hasNonPhoneChannel(req *models.AgentRequirements) bool {
	for _, raw := range req.Channels {
		if models.ParseChannel(raw) != models.ChannelPhone {
			return true
		}
	}
	return false
}

func systemPrompt(req *models.AgentRequirements) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("You are %s, a voice assistant for %s.\n", req.Name, req.UseCase))
	sb.WriteString(req.Description)
	if req.Personality != "" {
		sb.WriteString("\nPersonality: " + req.Personality)
	}
	if len(req.Languages) > 1 {
		sb.WriteString("\nYou support multiple languages: " + strings.Join(req.Languages, ", "))
		sb.WriteString(".\nAlways respond in the language the user speaks. Default to " + req.PrimaryLanguage() + ".")
	} else {
		sb.WriteString("\nRespond in " + req.PrimaryLanguage() + ".")
	}
	sb.WriteString("\nKeep responses short and conversational; they will be spoken aloud.")
	return sb.String()
}

func knowledgeSourceLines(req *models.AgentRequirements) []string {
	lines := make([]string, 0, len(req.KnowledgeSources))
	for _, ks := range req.KnowledgeSources {
		lines = append(lines, fmt.Sprintf(`{"type": %q, "source": %q},`, ks.Type, ks.Source))
	}
	return lines
}
