package schema

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustDecode(t *testing.T, raw string) interface{} {
	t.Helper()
	var data interface{}
	require.NoError(t, json.Unmarshal([]byte(raw), &data))
	return data
}

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
	},
}

func TestValidate_IntentPayload(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		name    string
		payload string
		wantErr string
	}{
		{
			name:    "conforming payload",
			payload: `{"intent":"email_automation","trigger_app":"gmail","action_apps":["sheets"]}`,
		},
		{
			name:    "missing required field",
			payload: `{"intent":"email_automation","trigger_app":"gmail"}`,
			wantErr: "missing required field: action_apps",
		},
		{
			name:    "wrong item type",
			payload: `{"intent":"x","trigger_app":"gmail","action_apps":[42]}`,
			wantErr: "$.action_apps[0]",
		},
		{
			name:    "extra fields allowed",
			payload: `{"intent":"x","trigger_app":"gmail","action_apps":[],"confidence":0.4}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(intentSchema, mustDecode(t, tt.payload))
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestValidate_Enum(t *testing.T) {
	v := NewValidator()
	s := map[string]interface{}{
		"type": "string",
		"enum": []interface{}{"choice", "text"},
	}

	assert.NoError(t, v.Validate(s, "choice"))
	err := v.Validate(s, "dropdown")
	require.Error(t, err)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "enum", verr.Keyword)
}

func TestValidate_MinItems(t *testing.T) {
	v := NewValidator()
	s := map[string]interface{}{
		"type":     "array",
		"minItems": float64(1),
		"items":    map[string]interface{}{"type": "string"},
	}

	assert.Error(t, v.Validate(s, mustDecode(t, `[]`)))
	assert.NoError(t, v.Validate(s, mustDecode(t, `["q1"]`)))
}

func TestValidate_Integer(t *testing.T) {
	v := NewValidator()
	s := map[string]interface{}{"type": "integer"}

	assert.NoError(t, v.Validate(s, float64(3)))
	assert.Error(t, v.Validate(s, 3.5))
}
