package auditor

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/felixgeelhaar/specaudit/pkg/domain/catalog"
	"github.com/xeipuuv/gojsonschema"
)

// ResultsSchemaJSON describes the verdict payload an auditor returns.
const ResultsSchemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "array",
  "items": {
    "type": "object",
    "required": ["specification", "status"],
    "properties": {
      "specification": { "type": "string" },
      "status": { "type": "string", "enum": ["correct", "incorrect"] },
      "explanation": { "type": ["string", "null"] },
      "problematic_options": {
        "type": ["array", "null"],
        "items": { "type": "string" }
      }
    }
  }
}`

var resultsSchemaLoader = gojsonschema.NewStringLoader(ResultsSchemaJSON)

// SchemaError lists the violations of a verdict payload.
type SchemaError struct {
	Issues []string
}

func (e *SchemaError) Error() string {
	return "audit results do not match schema: " + strings.Join(e.Issues, "; ")
}

// DecodeResults validates a verdict payload against the schema and decodes it.
// Payloads wrapped as {"results": [...]} are accepted as well.
func DecodeResults(data []byte) ([]catalog.AuditResult, error) {
	payload := unwrapResults(data)

	result, err := gojsonschema.Validate(resultsSchemaLoader, gojsonschema.NewBytesLoader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to validate audit results: %w", err)
	}
	if !result.Valid() {
		issues := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			issues = append(issues, desc.String())
		}
		return nil, &SchemaError{Issues: issues}
	}

	var results []catalog.AuditResult
	if err := json.Unmarshal(payload, &results); err != nil {
		return nil, fmt.Errorf("failed to decode audit results: %w", err)
	}
	return results, nil
}

func unwrapResults(data []byte) []byte {
	var wrapped struct {
		Results json.RawMessage `json:"results"`
	}
	if err := json.Unmarshal(data, &wrapped); err == nil && len(wrapped.Results) > 0 {
		return wrapped.Results
	}
	return data
}
