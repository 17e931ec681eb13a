package linkcode

import (
	"encoding/json"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// linkPayloadSchema describes the wire shape a decoded token must satisfy
// before it is trusted as an agreement payload.
const linkPayloadSchema = `{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type": "object",
	"required": ["id", "title", "recipientAddress", "amount"],
	"properties": {
		"id": {"type": "string", "minLength": 1},
		"title": {"type": "string", "minLength": 1},
		"recipientAddress": {"type": "string", "minLength": 1},
		"amount": {"type": "string", "minLength": 1},
		"description": {"type": "string"},
		"creatorAddress": {"type": "string"},
		"createdAt": {"type": "string"}
	}
}`

var payloadSchema = jsonschema.MustCompileString("agreement-link.schema.json", linkPayloadSchema)

// validateShape checks raw JSON against the payload schema. Any failure,
// including non-JSON input, reports false.
func validateShape(raw []byte) bool {
	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		return false
	}
	return payloadSchema.Validate(value) == nil
}
