package cmsloader

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

const entrySchemaURL = "entry.schema.json"

// entrySchema is the JSON Schema every entry's data must satisfy.
const entrySchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["title", "published"],
  "additionalProperties": false,
  "properties": {
    "title": {"type": "string", "minLength": 1},
    "published": {"type": "string", "format": "date-time"},
    "updated": {"type": "string", "format": "date-time"},
    "draft": {"type": "boolean"},
    "description": {"type": "string"},
    "author": {"type": "string"},
    "series": {"type": "string"},
    "tags": {"type": "array", "items": {"type": "string"}},
    "coverImage": {"$ref": "#/$defs/image"},
    "cardImage": {"$ref": "#/$defs/image"},
    "toc": {"type": "boolean"},
    "seoTitle": {"type": "string"},
    "seoDescription": {"type": "string"}
  },
  "$defs": {
    "image": {
      "type": "object",
      "required": ["src", "alt"],
      "additionalProperties": false,
      "properties": {
        "src": {"type": "string", "minLength": 1},
        "alt": {"type": "string"},
        "width": {"type": "integer", "exclusiveMinimum": 0},
        "height": {"type": "integer", "exclusiveMinimum": 0}
      }
    }
  }
}`

var (
	compiledOnce   sync.Once
	compiledSchema *jsonschema.Schema
	compileErr     error
)

func schema() (*jsonschema.Schema, error) {
	compiledOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020
		compiler.AssertFormat = true
		if err := compiler.AddResource(entrySchemaURL, strings.NewReader(entrySchema)); err != nil {
			compileErr = err
			return
		}
		compiledSchema, compileErr = compiler.Compile(entrySchemaURL)
	})
	return compiledSchema, compileErr
}

// ValidateData checks data against the entry schema. Data is round-tripped
// through JSON first, so the check sees exactly what is stored.
func ValidateData(id string, data interface{}) error {
	s, err := schema()
	if err != nil {
		return fmt.Errorf("cmsloader: compile entry schema: %w", err)
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("cmsloader: encode entry %s: %w", id, err)
	}
	var doc interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("cmsloader: decode entry %s: %w", id, err)
	}
	if err := s.Validate(doc); err != nil {
		var verr *jsonschema.ValidationError
		if errors.As(err, &verr) {
			return &ValidationError{ID: id, Issues: collectIssues(verr)}
		}
		return &ValidationError{ID: id, Issues: []ValidationIssue{{Location: "#", Message: err.Error()}}}
	}
	return nil
}

func collectIssues(err *jsonschema.ValidationError) []ValidationIssue {
	var issues []ValidationIssue
	var walk func(*jsonschema.ValidationError)
	walk = func(node *jsonschema.ValidationError) {
		if len(node.Causes) == 0 {
			issues = append(issues, ValidationIssue{
				Location: "#" + strings.TrimPrefix(node.InstanceLocation, "#"),
				Message:  node.Message,
			})
			return
		}
		for _, cause := range node.Causes {
			walk(cause)
		}
	}
	walk(err)
	return issues
}
