package nlu

import (
	"encoding/json"
	"fmt"

	"github.com/itchyny/gojq"

	"github.com/shinobi1046-lgtm/scriptflow/pkg/errors"
	"github.com/shinobi1046-lgtm/scriptflow/pkg/schema"
)

// Response schemas for the two NLU tasks. Provider output must pass the
// schema check before it is unmarshaled; anything else is a
// MalformedResponseError and the fallback chain advances.

var intentSchema = map[string]interface{}{
	"type":     "object",
	"required": []interface{}{"intent", "trigger_app", "action_apps"},
	"properties": map[string]interface{}{
		"intent":      map[string]interface{}{"type": "string"},
		"trigger_app": map[string]interface{}{"type": "string"},
		"action_apps": map[string]interface{}{
			"type":  "array",
			"items": map[string]interface{}{"type": "string"},
		},
		"confidence": map[string]interface{}{"type": "number"},
	},
}

var questionsSchema = map[string]interface{}{
	"type":     "object",
	"required": []interface{}{"questions"},
	"properties": map[string]interface{}{
		"questions": map[string]interface{}{
			"type":     "array",
			"minItems": float64(1),
			"items": map[string]interface{}{
				"type":     "object",
				"required": []interface{}{"id", "prompt", "kind", "category"},
				"properties": map[string]interface{}{
					"id":     map[string]interface{}{"type": "string"},
					"prompt": map[string]interface{}{"type": "string"},
					"kind": map[string]interface{}{
						"type": "string",
						"enum": []interface{}{"choice", "text"},
					},
					"choices": map[string]interface{}{
						"type":  "array",
						"items": map[string]interface{}{"type": "string"},
					},
					"required": map[string]interface{}{"type": "boolean"},
					"category": map[string]interface{}{
						"type": "string",
						"enum": []interface{}{"trigger", "filter", "destination", "permission"},
					},
				},
			},
		},
	},
}

// decoder performs strict decode-then-validate of provider payloads.
type decoder struct {
	validator schema.Validator
}

func newDecoder() *decoder {
	return &decoder{validator: schema.NewValidator()}
}

// decode parses raw provider output, optionally applies a gojq extraction
// query, validates against the task schema, and unmarshals the result.
func (d *decoder) decode(provider, raw string, query *gojq.Code, task Task) (*Result, error) {
	var payload interface{}
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, &errors.MalformedResponseError{
			Provider: provider,
			Reason:   "response body is not valid JSON",
			Cause:    err,
		}
	}

	if query != nil {
		extracted, err := runExtraction(query, payload)
		if err != nil {
			return nil, &errors.MalformedResponseError{
				Provider: provider,
				Reason:   "extraction query produced no result",
				Cause:    err,
			}
		}
		payload = extracted
	}

	taskSchema := intentSchema
	if task == TaskGenerateQuestions {
		taskSchema = questionsSchema
	}
	if err := d.validator.Validate(taskSchema, payload); err != nil {
		return nil, &errors.MalformedResponseError{
			Provider: provider,
			Reason:   err.Error(),
			Cause:    err,
		}
	}

	// Round-trip through JSON to land in the typed result. The payload has
	// already passed validation, so failures here are programming errors.
	buf, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("re-encoding validated payload: %w", err)
	}

	switch task {
	case TaskAnalyzeIntent:
		var intent IntentResult
		if err := json.Unmarshal(buf, &intent); err != nil {
			return nil, fmt.Errorf("decoding validated intent: %w", err)
		}
		intent.Source = provider
		return &Result{Intent: &intent, Source: provider}, nil
	case TaskGenerateQuestions:
		var wrapper struct {
			Questions []Question `json:"questions"`
		}
		if err := json.Unmarshal(buf, &wrapper); err != nil {
			return nil, fmt.Errorf("decoding validated questions: %w", err)
		}
		return &Result{Questions: wrapper.Questions, Source: provider}, nil
	default:
		return nil, fmt.Errorf("unknown task %q", task)
	}
}

// runExtraction evaluates a compiled gojq query and returns its first result.
func runExtraction(query *gojq.Code, payload interface{}) (interface{}, error) {
	iter := query.Run(payload)
	value, ok := iter.Next()
	if !ok {
		return nil, fmt.Errorf("query returned no values")
	}
	if err, isErr := value.(error); isErr {
		return nil, err
	}
	return value, nil
}

// compileQuery compiles a gojq extraction expression. An empty expression
// returns nil (no extraction).
func compileQuery(expression string) (*gojq.Code, error) {
	if expression == "" {
		return nil, nil
	}
	parsed, err := gojq.Parse(expression)
	if err != nil {
		return nil, fmt.Errorf("parsing response query %q: %w", expression, err)
	}
	code, err := gojq.Compile(parsed)
	if err != nil {
		return nil, fmt.Errorf("compiling response query %q: %w", expression, err)
	}
	return code, nil
}
