// internal/validation/schema.go
package validation

import (
	"fmt"

	"agent-builder/internal/common/errors"

	"github.com/xeipuuv/gojsonschema"
)

// requirementsSchema is the JSON schema a raw requirements document must
// satisfy before it is unmarshalled into models.AgentRequirements.
const requirementsSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["name", "description", "use_case"],
  "properties": {
    "name": {"type": "string", "minLength": 1, "maxLength": 100},
    "description": {"type": "string", "minLength": 1, "maxLength": 1000},
    "use_case": {"type": "string", "minLength": 1},
    "channels": {"type": "array", "items": {"type": "string"}},
    "languages": {"type": "array", "items": {"type": "string"}},
    "personality": {"type": "string"},
    "stt_service": {"$ref": "#/definitions/service"},
    "llm_service": {"$ref": "#/definitions/service"},
    "tts_service": {"$ref": "#/definitions/service"},
    "knowledge_sources": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["type", "source"],
        "properties": {
          "type": {"type": "string", "enum": ["web", "document", "api", "database"]},
          "source": {"type": "string", "minLength": 1},
          "processing_options": {"type": "object"}
        }
      }
    },
    "integrations": {"type": "array", "items": {"type": "string"}},
    "deployment": {
      "type": "object",
      "properties": {
        "platform": {"type": "string"},
        "scaling_min": {"type": "integer", "minimum": 0},
        "scaling_max": {"type": "integer", "minimum": 0},
        "region": {"type": "string"},
        "environment": {"type": "string"}
      }
    }
  },
  "definitions": {
    "service": {
      "type": "object",
      "required": ["name", "provider"],
      "properties": {
        "name": {"type": "string"},
        "provider": {"type": "string"},
        "model": {"type": "string"},
        "voice_id": {"type": "string"},
        "language": {"type": "string"}
      }
    }
  }
}`

// ValidateDocument checks a raw requirements JSON document against the schema.
func ValidateDocument(raw []byte) error {
	schemaLoader := gojsonschema.NewStringLoader(requirementsSchema)
	documentLoader := gojsonschema.NewBytesLoader(raw)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return errors.NewRequirementsInvalidError(fmt.Sprintf("schema validation error: %v", err))
	}

	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return errors.NewRequirementsInvalidError(fmt.Sprintf("requirements document invalid: %v", errs))
	}

	return nil
}
