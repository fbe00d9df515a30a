package store

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// documentSchema describes the persisted library. Parameters are optional so
// files written before parameters existed still load. Ids must be non-empty.
const documentSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "definitions": {
    "header": {
      "type": "object",
      "required": ["key", "value"],
      "properties": {
        "key": {"type": "string"},
        "value": {"type": "string"}
      }
    },
    "parameter": {
      "type": "object",
      "required": ["key", "value"],
      "properties": {
        "type": {"type": "string"},
        "key": {"type": "string"},
        "value": {"type": "string"}
      }
    },
    "request": {
      "type": "object",
      "required": ["id", "name", "method", "url"],
      "properties": {
        "id": {"type": "string", "minLength": 1},
        "name": {"type": "string"},
        "method": {"type": "string"},
        "url": {"type": "string"},
        "headers": {"type": ["array", "null"], "items": {"$ref": "#/definitions/header"}},
        "parameters": {"type": ["array", "null"], "items": {"$ref": "#/definitions/parameter"}},
        "body": {"type": ["string", "null"]}
      }
    },
    "collection": {
      "type": "object",
      "required": ["id", "name"],
      "properties": {
        "id": {"type": "string", "minLength": 1},
        "name": {"type": "string"},
        "apis": {"type": ["array", "null"], "items": {"$ref": "#/definitions/request"}}
      }
    }
  },
  "type": "object",
  "properties": {
    "collections": {"type": ["array", "null"], "items": {"$ref": "#/definitions/collection"}},
    "apis": {"type": ["array", "null"], "items": {"$ref": "#/definitions/request"}}
  }
}`

var schemaLoader = gojsonschema.NewStringLoader(documentSchema)

// validateDocument checks raw JSON against documentSchema.
func validateDocument(data []byte) error {
	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}

	if result.Valid() {
		return nil
	}

	var errs []string
	for _, desc := range result.Errors() {
		errs = append(errs, desc.String())
	}
	return fmt.Errorf("schema validation failed: %s", strings.Join(errs, "; "))
}
