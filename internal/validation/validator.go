// internal/validation/validator.go
package validation

import (
	"fmt"

	"agent-builder/internal/common/config"
	"agent-builder/internal/common/errors"
	"agent-builder/internal/common/logger"
	"agent-builder/internal/models"
)

var validChannels = map[string]bool{
	"phone": true, "web": true, "mobile": true, "whatsapp": true, "telegram": true,
}

var validLanguages = map[string]bool{
	"en": true, "es": true, "fr": true, "de": true, "it": true, "pt": true,
	"zh": true, "ja": true, "ko": true, "ru": true, "ar": true, "hi": true,
}

var knownUseCases = map[string]bool{
	"customer_service": true, "personal_assistant": true, "education": true,
	"healthcare": true, "sales": true, "support": true, "entertainment": true,
	"business": true, "creative": true, "other": true,
}

var knownIntegrations = map[string]bool{
	"twilio": true, "telnyx": true, "plivo": true, "exotel": true,
	"zendesk": true, "salesforce": true, "hubspot": true,
	"slack": true, "teams": true, "discord": true,
	"whatsapp": true, "telegram": true,
	"google_calendar": true, "outlook": true,
	"notion": true, "airtable": true,
}

var telephonyIntegrations = []string{"twilio", "telnyx", "plivo"}

// Validator checks agent requirements for completeness, safety and resource
// limits before a build starts.
type Validator struct {
	limits config.LimitsConfig
	logger logger.Logger
}

func NewValidator(limits config.LimitsConfig, log logger.Logger) *Validator {
	return &Validator{limits: limits, logger: log}
}

// Validate returns a normalized copy of the requirements plus non-fatal
// warnings. Any returned error carries ErrCodeRequirementsInvalid or
// ErrCodeResourceLimitReached.
func (v *Validator) Validate(req *models.AgentRequirements) (*models.AgentRequirements, []string, error) {
	v.logger.Info("Validating agent requirements", map[string]interface{}{
		"agent_name": req.Name,
		"use_case":   req.UseCase,
	})

	out := *req
	var warnings []string

	name, err := ValidateAgentName(req.Name)
	if err != nil {
		return nil, nil, err
	}
	out.Name = name

	description, err := ValidateDescription(req.Description)
	if err != nil {
		return nil, nil, err
	}
	out.Description = description

	if !knownUseCases[req.UseCase] {
		warnings = append(warnings, fmt.Sprintf("unknown use case: %s", req.UseCase))
	}

	for _, ch := range req.Channels {
		if !validChannels[ch] {
			return nil, nil, errors.NewRequirementsInvalidError(fmt.Sprintf("invalid channel: %s", ch))
		}
	}
	if len(out.Channels) == 0 {
		out.Channels = []string{"web"}
	}

	for _, lang := range req.Languages {
		if !validLanguages[lang] {
			return nil, nil, errors.NewRequirementsInvalidError(fmt.Sprintf("unsupported language: %s", lang))
		}
	}
	if len(out.Languages) == 0 {
		out.Languages = []string{"en"}
	}

	for _, ks := range req.KnowledgeSources {
		if err := v.validateKnowledgeSource(ks); err != nil {
			return nil, nil, err
		}
	}

	for _, integration := range req.Integrations {
		if !knownIntegrations[integration] {
			warnings = append(warnings, fmt.Sprintf("unknown integration: %s", integration))
		}
	}

	if err := validateDeployment(req.EffectiveDeployment()); err != nil {
		return nil, nil, err
	}

	if err := v.validateResourceLimits(req); err != nil {
		return nil, nil, err
	}

	warnings = append(warnings, compatibilityWarnings(&out)...)

	v.logger.Info("Requirements validation completed", map[string]interface{}{
		"agent_name": out.Name,
		"warnings":   len(warnings),
	})

	return &out, warnings, nil
}

func (v *Validator) validateKnowledgeSource(ks models.KnowledgeSourceConfig) error {
	switch ks.Type {
	case "web":
		return ValidateURL(ks.Source)
	case "document":
		return ValidateFilePath(ks.Source)
	case "api", "database":
		return nil
	default:
		return errors.NewRequirementsInvalidError(fmt.Sprintf("invalid knowledge source type: %s", ks.Type))
	}
}

func validateDeployment(d *models.DeploymentConfig) error {
	if d.ScalingMin < 0 {
		return errors.NewRequirementsInvalidError("minimum scaling cannot be negative")
	}
	if d.ScalingMax < d.ScalingMin {
		return errors.NewRequirementsInvalidError("maximum scaling cannot be less than minimum")
	}
	if d.ScalingMax > 100 {
		return errors.NewRequirementsInvalidError("maximum scaling too high (limit: 100)")
	}
	return nil
}

// A limit of zero means unconfigured and is not enforced.
func (v *Validator) validateResourceLimits(req *models.AgentRequirements) error {
	if v.limits.MaxKnowledgeSources > 0 && len(req.KnowledgeSources) > v.limits.MaxKnowledgeSources {
		return errors.NewResourceLimitError(fmt.Sprintf("too many knowledge sources (max: %d)", v.limits.MaxKnowledgeSources))
	}
	if v.limits.MaxIntegrations > 0 && len(req.Integrations) > v.limits.MaxIntegrations {
		return errors.NewResourceLimitError(fmt.Sprintf("too many integrations (max: %d)", v.limits.MaxIntegrations))
	}
	if v.limits.MaxLanguages > 0 && len(req.Languages) > v.limits.MaxLanguages {
		return errors.NewResourceLimitError(fmt.Sprintf("too many languages (max: %d)", v.limits.MaxLanguages))
	}
	return nil
}

// compatibilityWarnings flags service/channel combinations that work but tend
// to surprise in production.
func compatibilityWarnings(req *models.AgentRequirements) []string {
	var warnings []string

	if req.STTService != nil && req.STTService.Provider == "deepgram" {
		switch req.PrimaryLanguage() {
		case "en", "es", "fr", "de":
		default:
			warnings = append(warnings, fmt.Sprintf("deepgram may have limited support for language: %s", req.PrimaryLanguage()))
		}
	}

	if req.HasChannel(models.ChannelPhone) {
		hasTelephony := false
		for _, integration := range req.Integrations {
			for _, t := range telephonyIntegrations {
				if integration == t {
					hasTelephony = true
				}
			}
		}
		if !hasTelephony {
			warnings = append(warnings, "phone channel requires telephony integration (twilio, telnyx, or plivo)")
		}
	}

	return warnings
}

// ResourceEstimate is a coarse sizing hint recorded with the build session.
type ResourceEstimate struct {
	CPUUnits   float64 `json:"estimated_cpu_units"`
	MemoryMB   int     `json:"estimated_memory_mb"`
	StorageMB  int     `json:"estimated_storage_mb"`
	Complexity string  `json:"complexity_score"`
}

// EstimateResources produces a sizing estimate from the feature surface of the
// requirements.
func EstimateResources(req *models.AgentRequirements) ResourceEstimate {
	cpu := 1.0
	memory := 512
	storage := 100

	cpu += float64(len(req.Languages)) * 0.2
	cpu += float64(len(req.KnowledgeSources)) * 0.3
	cpu += float64(len(req.Integrations)) * 0.1

	memory += len(req.KnowledgeSources) * 100
	memory += len(req.Languages) * 50
	storage += len(req.KnowledgeSources) * 200

	if req.HasChannel(models.ChannelPhone) {
		cpu += 0.5
		memory += 200
	}

	score := len(req.Channels) + len(req.Languages)*2 + len(req.KnowledgeSources)*3 + len(req.Integrations)*2
	complexity := "simple"
	switch {
	case score > 15:
		complexity = "complex"
	case score > 5:
		complexity = "moderate"
	}

	return ResourceEstimate{
		CPUUnits:   float64(int(cpu*100)) / 100,
		MemoryMB:   memory,
		StorageMB:  storage,
		Complexity: complexity,
	}
}
