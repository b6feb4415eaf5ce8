package document

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// ErrInvalidDocument indicates the initial document does not match its
// kind's schema. Malformed documents are rejected when a session is opened
// rather than failing on later field access.
var ErrInvalidDocument = errors.New("document does not match schema")

const entityDef = `
    "entity": {
      "type": "object",
      "required": ["id"],
      "properties": { "id": { "type": "string", "minLength": 1 } }
    }`

var schemaSources = map[Kind]string{
	KindOutline: `{
  "type": "object",
  "required": ["title", "sections"],
  "properties": {
    "title": { "type": "string" },
    "sections": {
      "type": "array",
      "minItems": 1,
      "items": {
        "allOf": [{ "$ref": "#/definitions/entity" }],
        "properties": {
          "title": { "type": "string" },
          "content": { "type": "string" },
          "included": { "type": "boolean" }
        }
      }
    }
  },
  "definitions": {` + entityDef + `}
}`,
	KindValueSummary: `{
  "type": "object",
  "required": ["title", "achievements", "metrics"],
  "properties": {
    "title": { "type": "string" },
    "achievements": { "type": "array", "items": { "$ref": "#/definitions/entity" } },
    "metrics": { "type": "array", "items": { "$ref": "#/definitions/entity" } },
    "roi": {
      "type": "object",
      "properties": {
        "investment": { "type": "number" },
        "value_delivered": { "type": "number" },
        "target_value": { "type": "number" }
      }
    }
  },
  "definitions": {` + entityDef + `}
}`,
	KindNegotiationBrief: `{
  "type": "object",
  "required": ["title", "objectives", "concessions", "risks"],
  "properties": {
    "title": { "type": "string" },
    "stance": { "type": "string" },
    "target_outcome": { "type": "string" },
    "objectives": { "type": "array", "items": { "$ref": "#/definitions/entity" } },
    "concessions": { "type": "array", "items": { "$ref": "#/definitions/entity" } },
    "risks": { "type": "array", "items": { "$ref": "#/definitions/entity" } }
  },
  "definitions": {` + entityDef + `}
}`,
	KindExecutiveBriefing: `{
  "type": "object",
  "required": ["title", "highlights", "asks", "risks"],
  "properties": {
    "title": { "type": "string" },
    "summary": { "type": "string" },
    "highlights": { "type": "array", "items": { "$ref": "#/definitions/entity" } },
    "asks": { "type": "array", "items": { "$ref": "#/definitions/entity" } },
    "risks": { "type": "array", "items": { "$ref": "#/definitions/entity" } }
  },
  "definitions": {` + entityDef + `}
}`,
	KindTrainingProgram: `{
  "type": "object",
  "required": ["title", "modules", "resources"],
  "properties": {
    "title": { "type": "string" },
    "audience": { "type": "string" },
    "modules": { "type": "array", "items": { "$ref": "#/definitions/entity" } },
    "resources": { "type": "array", "items": { "$ref": "#/definitions/entity" } }
  },
  "definitions": {` + entityDef + `}
}`,
	KindRenewalPipeline: `{
  "type": "object",
  "required": ["title", "accounts"],
  "properties": {
    "title": { "type": "string" },
    "stage_filter": { "type": "string" },
    "sort_by": { "type": "string" },
    "accounts": {
      "type": "array",
      "items": {
        "allOf": [{ "$ref": "#/definitions/entity" }],
        "properties": {
          "name": { "type": "string" },
          "stage": { "type": "string" },
          "arr": { "type": "number" },
          "health_score": { "type": "number" },
          "renewal_date": { "type": "string" },
          "included": { "type": "boolean" }
        }
      }
    }
  },
  "definitions": {` + entityDef + `}
}`,
	KindResolutionPlan: `{
  "type": "object",
  "required": ["title", "issues", "actions"],
  "properties": {
    "title": { "type": "string" },
    "issues": { "type": "array", "items": { "$ref": "#/definitions/entity" } },
    "actions": {
      "type": "array",
      "items": {
        "allOf": [{ "$ref": "#/definitions/entity" }],
        "properties": {
          "related_issue_ids": { "type": "array", "items": { "type": "string" } }
        }
      }
    }
  },
  "definitions": {` + entityDef + `}
}`,
	KindChampionPlan: `{
  "type": "object",
  "required": ["title", "champions", "activities"],
  "properties": {
    "title": { "type": "string" },
    "champions": { "type": "array", "items": { "$ref": "#/definitions/entity" } },
    "activities": {
      "type": "array",
      "items": {
        "allOf": [{ "$ref": "#/definitions/entity" }],
        "properties": {
          "champion_ids": { "type": "array", "items": { "type": "string" } }
        }
      }
    }
  },
  "definitions": {` + entityDef + `}
}`,
	KindFeatureCampaign: `{
  "type": "object",
  "required": ["title", "features", "channels"],
  "properties": {
    "title": { "type": "string" },
    "features": { "type": "array", "items": { "$ref": "#/definitions/entity" } },
    "channels": { "type": "array", "items": { "$ref": "#/definitions/entity" } }
  },
  "definitions": {` + entityDef + `}
}`,
}

var schemaLoaders = func() map[Kind]gojsonschema.JSONLoader {
	loaders := make(map[Kind]gojsonschema.JSONLoader, len(schemaSources))
	for kind, src := range schemaSources {
		loaders[kind] = gojsonschema.NewStringLoader(src)
	}
	return loaders
}()

// Validate checks a document against its kind's schema.
func Validate(k Kind, doc map[string]any) error {
	loader, ok := schemaLoaders[k]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownKind, k)
	}

	result, err := gojsonschema.Validate(loader, gojsonschema.NewGoLoader(doc))
	if err != nil {
		return fmt.Errorf("validate %s document: %w", k, err)
	}
	if result.Valid() {
		return nil
	}

	issues := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		issues = append(issues, desc.String())
	}
	return fmt.Errorf("%w: %s", ErrInvalidDocument, strings.Join(issues, "; "))
}
