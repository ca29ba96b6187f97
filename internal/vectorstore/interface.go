// Package vectorstore stores chunk embeddings and serves nearest-neighbor
// retrieval by query embedding.
package vectorstore

import (
	"context"
	"errors"
	"regexp"

	"github.com/fyrsmithlabs/docqd/internal/chunker"
)

// Sentinel errors for vector store operations.
var (
	// ErrInvalidConfig indicates invalid configuration.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrInvalidCollectionName indicates collection name validation failure.
	ErrInvalidCollectionName = errors.New("invalid collection name")

	// ErrVectorMismatch indicates chunks and vectors of different lengths.
	ErrVectorMismatch = errors.New("chunks and vectors length mismatch")

	// ErrConnectionFailed indicates the external store is unreachable.
	ErrConnectionFailed = errors.New("failed to connect to vector store")
)

// collectionNamePattern validates collection names.
// Pattern: lowercase letters, numbers, underscores, 1-64 characters.
var collectionNamePattern = regexp.MustCompile(`^[a-z0-9_]{1,64}$`)

// ValidateCollectionName validates a collection name against naming rules.
// Rejects uppercase, special characters, path traversal, and spaces.
func ValidateCollectionName(name string) error {
	if !collectionNamePattern.MatchString(name) {
		return ErrInvalidCollectionName
	}
	return nil
}

// Hit is a retrieved chunk with its similarity score.
type Hit struct {
	// Chunk is the stored chunk.
	Chunk chunker.Chunk

	// Score is the similarity score (higher is more similar).
	Score float32
}

// Store is the interface for vector storage operations.
//
// Collections scope chunks per session so that one session's uploads are
// never retrievable from another. Implementations must make Upsert and Clear
// atomic with respect to concurrent Query calls: a reader observes either
// the pre- or post-state, never a partial write.
//
// Implementations:
//   - ChromemStore: embedded chromem-go (default)
//   - QdrantStore: external Qdrant gRPC client
type Store interface {
	// Upsert stores chunks with their precomputed embeddings. Idempotent by
	// chunk ID: re-adding a chunk replaces the existing entry.
	Upsert(ctx context.Context, collection string, chunks []chunker.Chunk, vectors [][]float32) error

	// Query returns up to k hits ordered by descending similarity. An empty
	// or missing collection yields an empty slice, not an error.
	Query(ctx context.Context, collection string, vector []float32, k int) ([]Hit, error)

	// Count reports the number of chunks in a collection. A missing
	// collection counts as zero.
	Count(ctx context.Context, collection string) (int, error)

	// Clear removes all entries from a collection. No-op when the collection
	// is empty or missing.
	Clear(ctx context.Context, collection string) error

	// Close releases store resources.
	Close() error
}
