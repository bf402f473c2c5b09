// internal/models/fileset.go
package models

import (
	"sort"
	"strings"
)

// Well-known file names within a generated agent directory.
const (
	FileBot          = "bot.py"
	FileRequirements = "requirements.txt"
	FileDockerfile   = "Dockerfile"
	FileDeployConfig = "pcc-deploy.toml"
	FileKnowledge    = "knowledge_processor.py"
	FileEnvExample   = ".env.example"
)

// RequiredFiles lists the files every generated agent must contain.
var RequiredFiles = []string{FileBot, FileRequirements, FileDockerfile, FileDeployConfig}

// FileSet maps generated file names to their full text content. One FileSet
// is produced per build and never reused.
type FileSet map[string]string

// Names returns the file names in sorted order.
func (fs FileSet) Names() []string {
	names := make([]string, 0, len(fs))
	for name := range fs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Missing returns the required files absent from the set.
func (fs FileSet) Missing() []string {
	var missing []string
	for _, name := range RequiredFiles {
		if _, ok := fs[name]; !ok {
			missing = append(missing, name)
		}
	}
	return missing
}

// Slug converts a human-readable agent name into an identifier used for both
// deployment names and output directories: lowercase, with spaces and
// underscores collapsed to single hyphens. The same name always yields the
// same slug, so re-building an agent overwrites its previous output.
func Slug(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '_':
			return '-'
		default:
			return r
		}
	}, s)
	for strings.Contains(s, "--") {
		s = strings.ReplaceAll(s, "--", "-")
	}
	return strings.Trim(s, "-")
}
