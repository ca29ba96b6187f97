package llm_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/docqd/internal/config"
	"github.com/fyrsmithlabs/docqd/internal/llm"
)

func TestNewGenerator(t *testing.T) {
	tests := []struct {
		name      string
		cfg       config.LLMConfig
		wantError bool
	}{
		{
			name: "ollama",
			cfg:  config.LLMConfig{Provider: "ollama", BaseURL: "http://localhost:11434", Model: "llama3.2:latest"},
		},
		{
			name: "openai",
			cfg:  config.LLMConfig{Provider: "openai", BaseURL: "https://api.openai.com/v1", Model: "gpt-4o-mini", APIKey: "sk-test"},
		},
		{
			name:      "unknown provider",
			cfg:       config.LLMConfig{Provider: "bard"},
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen, err := llm.NewGenerator(tt.cfg)
			if tt.wantError {
				require.Error(t, err)
				assert.ErrorIs(t, err, llm.ErrInvalidConfig)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, gen)
		})
	}
}
