package plugin

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateConfig(t *testing.T) {
	manifest := Manifest{
		Name: "keyboard",
		ConfigSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"tool": {"type": "string", "enum": ["xdotool", "osascript", "powershell"]},
				"delayMs": {"type": "integer", "minimum": 0}
			},
			"additionalProperties": false
		}`),
	}

	tests := []struct {
		name    string
		config  string
		wantErr bool
	}{
		{name: "empty config", config: "", wantErr: false},
		{name: "valid", config: `{"tool":"xdotool","delayMs":5}`, wantErr: false},
		{name: "unknown tool", config: `{"tool":"ydotool"}`, wantErr: true},
		{name: "negative delay", config: `{"delayMs":-1}`, wantErr: true},
		{name: "extra field", config: `{"colour":"red"}`, wantErr: true},
		{name: "not json", config: `{`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateConfig(manifest, json.RawMessage(tt.config))
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateConfig_NoSchema(t *testing.T) {
	assert.NoError(t, ValidateConfig(Manifest{Name: "free"}, json.RawMessage(`{"anything":1}`)))
}
