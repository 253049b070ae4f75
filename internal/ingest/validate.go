package ingest

import (
	"bytes"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// eventSchema is deliberately loose about unknown fields: the extension has
// shipped several payload shapes over time and we only reject what we could
// never store.
const eventSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["name"],
  "properties": {
    "name": {"type": "string", "minLength": 1},
    "title": {"type": "string"},
    "company": {"type": "string"},
    "location": {"type": "string"},
    "email": {"type": "string"},
    "linkedin_url": {"type": "string"},
    "website": {"type": "string"},
    "website_text": {"type": "string"},
    "profile_url": {"type": "string"},
    "profile_html": {"type": "string"},
    "contactInfo": {
      "type": "object",
      "properties": {
        "email": {"type": "string"},
        "linkedinUrl": {"type": "string"},
        "websites": {
          "type": "array",
          "items": {
            "type": "object",
            "properties": {
              "url": {"type": "string"},
              "text": {"type": "string"}
            }
          }
        }
      }
    }
  }
}`

var compiledEventSchema = mustCompileEventSchema()

func mustCompileEventSchema() *jsonschema.Schema {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader([]byte(eventSchema)))
	if err != nil {
		panic(err)
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource("event.json", doc); err != nil {
		panic(err)
	}
	return c.MustCompile("event.json")
}

// ValidateSchema checks a raw webhook body against the event schema.
func ValidateSchema(raw []byte) error {
	v, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("%w: not valid JSON: %v", ErrInvalidPayload, err)
	}
	if err := compiledEventSchema.Validate(v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return nil
}
