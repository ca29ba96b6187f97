package embeddings_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/docqd/internal/embeddings"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name      string
		config    embeddings.Config
		wantError bool
	}{
		{
			name:   "valid",
			config: embeddings.Config{BaseURL: "http://localhost:11434/v1", Model: "nomic-embed-text"},
		},
		{
			name:      "missing base url",
			config:    embeddings.Config{Model: "nomic-embed-text"},
			wantError: true,
		},
		{
			name:      "missing model",
			config:    embeddings.Config{BaseURL: "http://localhost:11434/v1"},
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantError {
				require.Error(t, err)
				assert.ErrorIs(t, err, embeddings.ErrInvalidConfig)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestNewService_InvalidConfig(t *testing.T) {
	_, err := embeddings.NewService(embeddings.Config{})
	require.Error(t, err)
	assert.ErrorIs(t, err, embeddings.ErrInvalidConfig)
}

func TestService_Embed_EmptyInput(t *testing.T) {
	svc, err := embeddings.NewService(embeddings.Config{
		BaseURL: "http://localhost:11434/v1",
		Model:   "nomic-embed-text",
	})
	require.NoError(t, err)

	_, err = svc.Embed(context.Background(), nil)
	assert.ErrorIs(t, err, embeddings.ErrEmptyInput)

	_, err = svc.EmbedQuery(context.Background(), "")
	assert.ErrorIs(t, err, embeddings.ErrEmptyInput)
}
