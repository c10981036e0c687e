package openai

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewEmbedderOptionsOverrideDefaults(t *testing.T) {
	embedder := NewEmbedder("dummy-key",
		WithEmbeddingModel("custom-model"),
		WithEmbeddingDimension(42),
	)

	assert.Equal(t, "custom-model", embedder.ModelName())
	assert.Equal(t, 42, embedder.Dimension())
}

func TestNewClientRequiresAPIKey(t *testing.T) {
	_, err := NewClient("", "gpt-4o-mini")
	assert.ErrorIs(t, err, ErrAPIKeyNotSet)
}

func TestNewClientDefaultsModel(t *testing.T) {
	client, err := NewClient("dummy-key", "")
	assert.NoError(t, err)
	assert.Equal(t, DefaultChatModel, client.ModelName())
}
