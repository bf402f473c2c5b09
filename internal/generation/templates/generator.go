// internal/generation/templates/generator.go
package templates

import (
	"fmt"
	"strings"

	"agent-builder/internal/models"
)

// Generator renders a complete agent source tree from validated requirements.
// It is stateless and deterministic: the same requirements always produce
// byte-identical output, and no in-range field combination can make it fail.
type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// Generate returns the full file set for an agent. Always non-empty: the four
// required files are unconditional, knowledge_processor.py is present iff
// knowledge sources were requested.
func (g *Generator) Generate(req *models.AgentRequirements) models.FileSet {
	files := models.FileSet{
		models.FileBot:          renderBot(req),
		models.FileRequirements: renderManifest(req),
		models.FileDockerfile:   renderDockerfile(),
		models.FileDeployConfig: renderDeployConfig(req),
		models.FileEnvExample:   renderEnvExample(req),
	}

	if len(req.KnowledgeSources) > 0 {
		files[models.FileKnowledge] = renderKnowledgeProcessor(req)
	}

	return files
}

// renderManifest emits the dependency manifest: the base runtime line, one
// line per selected provider and one per integration with a known package
// mapping. Unknown integrations are omitted, duplicates collapsed, source
// order preserved.
func renderManifest(req *models.AgentRequirements) string {
	lines := []string{"pipecat-ai[daily,silero,webrtc]"}
	seen := map[string]bool{}

	for _, pkg := range []string{
		sttBlockFor(req.STTService).PipPackage,
		llmBlockFor(req.LLMService).PipPackage,
		ttsBlockFor(req.TTSService).PipPackage,
	} {
		if pkg != "" && !seen[pkg] {
			seen[pkg] = true
			lines = append(lines, pkg)
		}
	}

	for _, integration := range req.Integrations {
		pkg, known := integrationPackages[integration]
		if known && !seen[pkg] {
			seen[pkg] = true
			lines = append(lines, pkg)
		}
	}

	for _, ks := range req.KnowledgeSources {
		if ks.Type == "web" && !seen["aiohttp"] {
			seen["aiohttp"] = true
			lines = append(lines, "aiohttp")
		}
	}

	lines = append(lines, "python-dotenv", "loguru")
	return strings.Join(lines, "\n") + "\n"
}

// renderDockerfile emits the fixed container skeleton. It is parameterized by
// nothing beyond the entry-point filename.
func renderDockerfile() string {
	return fmt.Sprintf(`FROM python:3.11-slim

WORKDIR /app

COPY %s .
RUN pip install --no-cache-dir -r %s

COPY . .

CMD ["python", "%s"]
`, models.FileRequirements, models.FileRequirements, models.FileBot)
}

// renderDeployConfig emits the Pipecat Cloud deployment descriptor.
func renderDeployConfig(req *models.AgentRequirements) string {
	slug := models.Slug(req.Name)
	deployment := req.EffectiveDeployment()

	return fmt.Sprintf(`agent_name = "%s"
image = "your-dockerhub-username/%s:latest"
secret_set = "%s-secrets"

[scaling]
min_agents = %d
max_agents = %d
`, slug, slug, slug, deployment.ScalingMin, deployment.ScalingMax)
}

// renderEnvExample emits one line per env var the generated agent reads,
// ordered stt/llm/tts then integrations.
func renderEnvExample(req *models.AgentRequirements) string {
	var lines []string
	seen := map[string]bool{}

	addVar := func(name string) {
		if name != "" && !seen[name] {
			seen[name] = true
			lines = append(lines, name+"=your-"+strings.ToLower(strings.ReplaceAll(name, "_", "-")))
		}
	}

	addVar(sttBlockFor(req.STTService).EnvVar)
	addVar(llmBlockFor(req.LLMService).EnvVar)
	addVar(ttsBlockFor(req.TTSService).EnvVar)

	if req.HasChannel(models.ChannelPhone) {
		addVar("DAILY_ROOM_URL")
		addVar("DAILY_TOKEN")
	}

	for _, integration := range req.Integrations {
		for _, envVar := range integrationEnvVars[integration] {
			addVar(envVar)
		}
	}

	return strings.Join(lines, "\n") + "\n"
}

// renderKnowledgeProcessor emits the auxiliary knowledge module. The exported
// symbol must match what the entry point imports.
func renderKnowledgeProcessor(req *models.AgentRequirements) string {
	var sb strings.Builder
	sb.WriteString(`"""Knowledge processing for ` + req.Name + `."""

import asyncio
from typing import Any, Dict, List

from loguru import logger


class KnowledgeProcessor:
    """Loads and queries the agent's configured knowledge sources."""

    def __init__(self, sources: List[Dict[str, Any]]):
        self.sources = sources
        self.chunks: List[str] = []

    async def load(self):
        for source in self.sources:
            try:
                await self._load_source(source)
            except Exception as e:
                logger.warning(f"Failed to load knowledge source {source['source']}: {e}")
        logger.info(f"Loaded {len(self.chunks)} knowledge chunks")

    async def _load_source(self, source: Dict[str, Any]):
        kind = source.get("type")
        if kind == "web":
            await self._load_web(source["source"])
        elif kind == "document":
            await self._load_document(source["source"])
        else:
            logger.warning(f"Unsupported knowledge source type: {kind}")

    async def _load_web(self, url: str):
        import aiohttp

        async with aiohttp.ClientSession() as session:
            async with session.get(url) as response:
                text = await response.text()
                self.chunks.extend(self._split(text))

    async def _load_document(self, path: str):
        loop = asyncio.get_event_loop()
        text = await loop.run_in_executor(None, lambda: open(path, encoding="utf-8").read())
        self.chunks.extend(self._split(text))

    def _split(self, text: str, size: int = 1000) -> List[str]:
        return [text[i:i + size] for i in range(0, len(text), size)]

    def query(self, question: str, limit: int = 3) -> List[str]:
        terms = question.lower().split()
        scored = []
        for chunk in self.chunks:
            lowered = chunk.lower()
            score = sum(1 for term in terms if term in lowered)
            if score > 0:
                scored.append((score, chunk))
        scored.sort(key=lambda pair: pair[0], reverse=True)
        return [chunk for _, chunk in scored[:limit]]
`)
	return sb.String()
}
