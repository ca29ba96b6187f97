package vectorstore

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/docqd/internal/config"
)

// NewStore creates a Store based on the configuration.
//
// The factory examines VectorStoreConfig.Provider:
//   - "chromem" (default): embedded ChromemStore, no external service
//   - "qdrant": external Qdrant server over gRPC
func NewStore(cfg *config.Config, logger *zap.Logger) (Store, error) {
	switch cfg.VectorStore.Provider {
	case "chromem", "":
		return NewChromemStore(ChromemConfig{
			Path:     cfg.VectorStore.Chromem.Path,
			Compress: cfg.VectorStore.Chromem.Compress,
		}, logger)

	case "qdrant":
		return NewQdrantStore(QdrantConfig{
			Host:       cfg.VectorStore.Qdrant.Host,
			Port:       cfg.VectorStore.Qdrant.Port,
			VectorSize: uint64(cfg.VectorStore.Qdrant.VectorSize),
			UseTLS:     cfg.VectorStore.Qdrant.UseTLS,
		})

	default:
		return nil, fmt.Errorf("%w: unsupported vectorstore provider %q (supported: chromem, qdrant)",
			ErrInvalidConfig, cfg.VectorStore.Provider)
	}
}
