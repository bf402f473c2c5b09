// internal/sink/sink.go
package sink

import (
	"os"
	"path/filepath"

	"agent-builder/internal/common/errors"
	"agent-builder/internal/common/logger"
	"agent-builder/internal/models"
)

// FileSink persists generated file sets to disk. One directory per agent,
// named by the slugged agent name; resubmitting the same name overwrites
// (last-write-wins, no versioning). A failure mid-write leaves a partial
// directory behind; the caller treats the whole save as failed.
type FileSink struct {
	outputPath string
	logger     logger.Logger
}

func NewFileSink(outputPath string, log logger.Logger) *FileSink {
	return &FileSink{outputPath: outputPath, logger: log}
}

// Save writes every file verbatim as UTF-8 and returns the agent directory.
func (s *FileSink) Save(req *models.AgentRequirements, files models.FileSet) (string, error) {
	dir := filepath.Join(s.outputPath, models.Slug(req.Name))

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.NewPersistenceError(dir, err)
	}

	for _, name := range files.Names() {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(files[name]), 0o644); err != nil {
			return "", errors.NewPersistenceError(path, err)
		}
	}

	s.logger.Info("Saved generated agent files", map[string]interface{}{
		"agent_name": req.Name,
		"directory":  dir,
		"files":      len(files),
	})

	return dir, nil
}
