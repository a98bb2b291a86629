package predictor

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// Artifact documents are validated before decode so a corrupt or truncated
// file degrades the store instead of producing a half-usable model.

const classifierSchema = `{
	"type": "object",
	"required": ["model_type", "classes"],
	"properties": {
		"model_type": {"type": "string", "enum": ["random_forest", "logistic_regression"]},
		"classes": {"type": "array", "items": {"type": "integer"}, "minItems": 1},
		"n_features": {"type": "integer", "minimum": 1},
		"trees": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["feature", "threshold", "children_left", "children_right", "value"],
				"properties": {
					"feature": {"type": "array", "items": {"type": "integer"}},
					"threshold": {"type": "array", "items": {"type": "number"}},
					"children_left": {"type": "array", "items": {"type": "integer"}},
					"children_right": {"type": "array", "items": {"type": "integer"}},
					"value": {"type": "array", "items": {"type": "array", "items": {"type": "number"}}}
				}
			}
		},
		"coef": {"type": "array", "items": {"type": "number"}},
		"intercept": {"type": "number"}
	}
}`

const scalerSchema = `{
	"type": "object",
	"required": ["mean", "scale"],
	"properties": {
		"mean": {"type": "array", "items": {"type": "number"}, "minItems": 1},
		"scale": {"type": "array", "items": {"type": "number"}, "minItems": 1}
	}
}`

const encodersSchema = `{
	"type": "object",
	"additionalProperties": {
		"type": "array",
		"items": {"type": "string"},
		"minItems": 1
	}
}`

func validateArtifact(name, schema string, data []byte) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(schema),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return fmt.Errorf("validate %s: %w", name, err)
	}

	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return fmt.Errorf("%s failed schema validation: %v", name, errs)
	}

	return nil
}
