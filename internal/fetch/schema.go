package fetch

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// recordArraySchema describes the body of a successful listing response.
// Text fields are optional; the fields the formatter cannot do without are required.
const recordArraySchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "array",
  "items": {
    "type": "object",
    "properties": {
      "guid":         {"type": ["string", "number", "null"]},
      "id":           {"type": ["string", "number", "null"]},
      "company":      {"type": "string"},
      "first_name":   {"type": "string"},
      "last_name":    {"type": "string"},
      "email":        {"type": "string"},
      "loan_amount":  {"type": "number", "minimum": 0},
      "date_created": {"type": "string", "format": "date-time"},
      "expiry_date":  {"type": "string", "format": "date-time"}
    },
    "required": ["loan_amount", "date_created", "expiry_date"]
  }
}`

// maxReportedViolations caps how many schema violations end up in an error message.
const maxReportedViolations = 3

// errSchemaViolation is wrapped by validation failures.
var errSchemaViolation = errors.New("response does not match record schema")

// schemaValidator validates raw response bodies against recordArraySchema.
type schemaValidator struct {
	schema *gojsonschema.Schema
}

// newSchemaValidator compiles recordArraySchema.
func newSchemaValidator() (*schemaValidator, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(recordArraySchema))
	if err != nil {
		return nil, fmt.Errorf("compiling record schema: %w", err)
	}
	return &schemaValidator{schema: schema}, nil
}

// Validate returns nil when body is a valid record array.
func (v *schemaValidator) Validate(body []byte) error {
	result, err := v.schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return fmt.Errorf("validation error: %w", err)
	}

	if result.Valid() {
		return nil
	}

	violations := result.Errors()
	msgs := make([]string, 0, maxReportedViolations)
	for i, desc := range violations {
		if i == maxReportedViolations {
			msgs = append(msgs, fmt.Sprintf("and %d more", len(violations)-maxReportedViolations))
			break
		}
		msgs = append(msgs, desc.String())
	}
	return fmt.Errorf("%w: %s", errSchemaViolation, strings.Join(msgs, "; "))
}
