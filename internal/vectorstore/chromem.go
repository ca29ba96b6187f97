package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	chromem "github.com/philippgille/chromem-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/docqd/internal/chunker"
)

// chromemTracer for OpenTelemetry instrumentation.
var chromemTracer = otel.Tracer("docqd.vectorstore.chromem")

// ChromemConfig holds configuration for the chromem-go embedded store.
type ChromemConfig struct {
	// Path is the directory for persistent storage. Empty means in-memory
	// only; sessions then last for the process lifetime.
	Path string

	// Compress enables gzip compression for stored data.
	Compress bool
}

// ChromemStore implements Store using chromem-go.
//
// chromem-go is an embeddable vector database with no external service
// dependency. Chunks are stored with precomputed embeddings; queries run
// against those embeddings directly.
type ChromemStore struct {
	db     *chromem.DB
	config ChromemConfig
	logger *zap.Logger
}

// NewChromemStore creates a ChromemStore with the given configuration.
func NewChromemStore(config ChromemConfig, logger *zap.Logger) (*ChromemStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var db *chromem.DB
	if config.Path == "" {
		db = chromem.NewDB()
	} else {
		expanded, err := expandChromemPath(config.Path)
		if err != nil {
			return nil, fmt.Errorf("expanding path: %w", err)
		}
		if err := os.MkdirAll(expanded, 0755); err != nil {
			return nil, fmt.Errorf("creating directory %s: %w", expanded, err)
		}
		db, err = chromem.NewPersistentDB(expanded, config.Compress)
		if err != nil {
			return nil, fmt.Errorf("creating chromem DB: %w", err)
		}
		config.Path = expanded
	}

	logger.Info("chromem store initialized",
		zap.String("path", config.Path),
		zap.Bool("compress", config.Compress),
	)

	return &ChromemStore{db: db, config: config, logger: logger}, nil
}

// expandChromemPath expands ~ to home directory.
func expandChromemPath(path string) (string, error) {
	if strings.HasPrefix(path, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, path[1:]), nil
	}
	return path, nil
}

// embeddingsRequired rejects implicit embedding: all vectors are computed by
// the embeddings service before they reach the store.
func embeddingsRequired(context.Context, string) ([]float32, error) {
	return nil, errors.New("chunk reached store without a precomputed embedding")
}

func (s *ChromemStore) collection(name string) (*chromem.Collection, error) {
	if err := ValidateCollectionName(name); err != nil {
		return nil, fmt.Errorf("%w: %q", err, name)
	}
	col, err := s.db.GetOrCreateCollection(name, nil, embeddingsRequired)
	if err != nil {
		return nil, fmt.Errorf("getting/creating collection %s: %w", name, err)
	}
	return col, nil
}

// Upsert stores chunks with their embeddings, replacing entries with the
// same chunk ID.
func (s *ChromemStore) Upsert(ctx context.Context, collection string, chunks []chunker.Chunk, vectors [][]float32) error {
	ctx, span := chromemTracer.Start(ctx, "ChromemStore.Upsert")
	defer span.End()
	span.SetAttributes(
		attribute.String("collection", collection),
		attribute.Int("chunk_count", len(chunks)),
	)

	if len(chunks) != len(vectors) {
		return fmt.Errorf("%w: %d chunks, %d vectors", ErrVectorMismatch, len(chunks), len(vectors))
	}
	if len(chunks) == 0 {
		return nil
	}

	col, err := s.collection(collection)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	for i, c := range chunks {
		doc := chromem.Document{
			ID:        c.ID(),
			Content:   c.Text,
			Embedding: vectors[i],
			Metadata: map[string]string{
				"document_id": c.DocumentID,
				"index":       strconv.Itoa(c.Index),
				"overlap":     strconv.Itoa(c.Overlap),
			},
		}
		if err := col.AddDocument(ctx, doc); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return fmt.Errorf("adding chunk %s: %w", c.ID(), err)
		}
	}

	return nil
}

// Query returns up to k hits by descending similarity. Empty collections
// yield an empty slice.
func (s *ChromemStore) Query(ctx context.Context, collection string, vector []float32, k int) ([]Hit, error) {
	ctx, span := chromemTracer.Start(ctx, "ChromemStore.Query")
	defer span.End()
	span.SetAttributes(
		attribute.String("collection", collection),
		attribute.Int("k", k),
	)

	if k < 1 {
		return nil, fmt.Errorf("%w: k must be >= 1, got %d", ErrInvalidConfig, k)
	}

	col, err := s.collection(collection)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	// chromem rejects queries asking for more results than stored documents.
	count := col.Count()
	if count == 0 {
		return []Hit{}, nil
	}
	if k > count {
		k = count
	}

	results, err := col.QueryEmbedding(ctx, vector, k, nil, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("querying collection %s: %w", collection, err)
	}

	hits := make([]Hit, len(results))
	for i, r := range results {
		hits[i] = Hit{Chunk: resultChunk(r.ID, r.Content, r.Metadata), Score: r.Similarity}
	}

	span.SetAttributes(attribute.Int("hits", len(hits)))
	return hits, nil
}

// Count reports the number of chunks in a collection.
func (s *ChromemStore) Count(_ context.Context, collection string) (int, error) {
	if err := ValidateCollectionName(collection); err != nil {
		return 0, fmt.Errorf("%w: %q", err, collection)
	}
	col := s.db.GetCollection(collection, embeddingsRequired)
	if col == nil {
		return 0, nil
	}
	return col.Count(), nil
}

// Clear removes all entries from a collection. No-op when missing.
func (s *ChromemStore) Clear(ctx context.Context, collection string) error {
	_, span := chromemTracer.Start(ctx, "ChromemStore.Clear")
	defer span.End()
	span.SetAttributes(attribute.String("collection", collection))

	if err := ValidateCollectionName(collection); err != nil {
		return fmt.Errorf("%w: %q", err, collection)
	}
	if err := s.db.DeleteCollection(collection); err != nil {
		span.RecordError(err)
		return fmt.Errorf("clearing collection %s: %w", collection, err)
	}
	return nil
}

// Close releases resources. chromem holds no external connections.
func (s *ChromemStore) Close() error {
	return nil
}

// resultChunk rebuilds a chunk from stored content and metadata.
func resultChunk(id, content string, metadata map[string]string) chunker.Chunk {
	c := chunker.Chunk{Text: content}
	c.DocumentID = metadata["document_id"]
	if idx, err := strconv.Atoi(metadata["index"]); err == nil {
		c.Index = idx
	}
	if ov, err := strconv.Atoi(metadata["overlap"]); err == nil {
		c.Overlap = ov
	}
	if c.DocumentID == "" {
		// Fall back to splitting the stored ID ("<doc>_<index>").
		if p := strings.LastIndexByte(id, '_'); p > 0 {
			c.DocumentID = id[:p]
		}
	}
	return c
}

var _ Store = (*ChromemStore)(nil)
