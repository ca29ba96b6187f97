package vectorstore_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/docqd/internal/config"
	"github.com/fyrsmithlabs/docqd/internal/vectorstore"
)

func TestNewStore_Chromem(t *testing.T) {
	cfg := config.Default()
	cfg.VectorStore.Provider = "chromem"

	store, err := vectorstore.NewStore(cfg, zap.NewNop())
	require.NoError(t, err)
	defer store.Close()

	assert.IsType(t, &vectorstore.ChromemStore{}, store)
}

func TestNewStore_UnknownProvider(t *testing.T) {
	cfg := config.Default()
	cfg.VectorStore.Provider = "pinecone"

	_, err := vectorstore.NewStore(cfg, zap.NewNop())
	require.Error(t, err)
	assert.ErrorIs(t, err, vectorstore.ErrInvalidConfig)
}
