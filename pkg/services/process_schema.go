package services

import (
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

const processDocumentSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["processes"],
  "properties": {
    "processes": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["title", "steps"],
        "properties": {
          "id": {"type": "string"},
          "title": {"type": "string", "minLength": 1},
          "description": {"type": "string"},
          "steps": {
            "type": "array",
            "items": {
              "type": "object",
              "required": ["id", "title", "assignee_type", "assignee_id"],
              "properties": {
                "id": {"type": "string", "minLength": 1},
                "title": {"type": "string", "minLength": 1},
                "description": {"type": "string"},
                "assignee_type": {"enum": ["position", "user"]},
                "assignee_id": {"type": "string", "minLength": 1},
                "order": {"type": "integer", "minimum": 0}
              }
            }
          }
        }
      }
    }
  }
}`

var processSchemaLoader = gojsonschema.NewStringLoader(processDocumentSchema)

func validateProcessDocument(raw []byte) error {
	result, err := gojsonschema.Validate(processSchemaLoader, gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return NewValidationError("ImportDocument", "invalid_json", err.Error(), ErrInvalidDocument)
	}

	if !result.Valid() {
		var errs []string
		for _, desc := range result.Errors() {
			errs = append(errs, desc.String())
		}

		return NewValidationError("ImportDocument", "schema_violation", strings.Join(errs, "; "), ErrInvalidDocument)
	}

	return nil
}
