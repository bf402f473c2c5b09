// internal/generation/validator/validator.go
package validator

import (
	"fmt"
	"strings"

	"agent-builder/internal/common/logger"
	"agent-builder/internal/common/metrics"
	"agent-builder/internal/models"
)

// Result is the outcome of validating one generated file set. Valid is true
// iff no errors were recorded; warnings never affect it.
type Result struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// expectedIdentifiers must appear in the entry point; absence is a warning.
var expectedIdentifiers = []string{"pipecat", "asyncio"}

// Validator structurally checks generated file sets. It never returns an
// error: every internal failure becomes an entry in the result.
type Validator struct {
	logger logger.Logger
}

func NewValidator(log logger.Logger) *Validator {
	return &Validator{logger: log}
}

// Validate runs all checks in order and accumulates findings; it never
// short-circuits. The result is advisory: callers persist the file set
// regardless and report findings afterwards.
func (v *Validator) Validate(files models.FileSet) Result {
	result := Result{}

	for _, name := range files.Missing() {
		result.Errors = append(result.Errors, fmt.Sprintf("required file missing: %s", name))
	}

	if bot, ok := files[models.FileBot]; ok {
		if err := checkPythonSyntax(bot); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("bot.py has invalid syntax: %v", err))
		}

		for _, identifier := range expectedIdentifiers {
			if !strings.Contains(bot, identifier) {
				result.Warnings = append(result.Warnings, fmt.Sprintf("bot.py does not reference %q", identifier))
			}
		}
	}

	if manifest, ok := files[models.FileRequirements]; ok {
		if !strings.Contains(manifest, "pipecat-ai") {
			result.Warnings = append(result.Warnings, "requirements.txt does not include pipecat-ai")
		}
	}

	result.Valid = len(result.Errors) == 0

	metrics.ValidationIssues.WithLabelValues("error").Add(float64(len(result.Errors)))
	metrics.ValidationIssues.WithLabelValues("warning").Add(float64(len(result.Warnings)))

	v.logger.Info("Output validation completed", map[string]interface{}{
		"valid":    result.Valid,
		"errors":   len(result.Errors),
		"warnings": len(result.Warnings),
	})

	return result
}
