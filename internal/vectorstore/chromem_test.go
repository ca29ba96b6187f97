package vectorstore_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/docqd/internal/chunker"
	"github.com/fyrsmithlabs/docqd/internal/vectorstore"
)

func newTestStore(t *testing.T) *vectorstore.ChromemStore {
	t.Helper()

	// In-memory store: per-session lifetime matches production defaults.
	store, err := vectorstore.NewChromemStore(vectorstore.ChromemConfig{}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

// unit returns a 4-dimensional unit vector with weight concentrated on axis.
func unit(axis int) []float32 {
	v := make([]float32, 4)
	v[axis] = 1
	return v
}

func testChunks(docID string, n int) []chunker.Chunk {
	chunks := make([]chunker.Chunk, n)
	for i := range chunks {
		chunks[i] = chunker.Chunk{DocumentID: docID, Index: i, Text: "chunk text"}
	}
	return chunks
}

func TestChromemStore_UpsertAndQuery(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	chunks := []chunker.Chunk{
		{DocumentID: "doc", Index: 0, Text: "about cats"},
		{DocumentID: "doc", Index: 1, Text: "about dogs"},
		{DocumentID: "doc", Index: 2, Text: "about fish"},
	}
	vectors := [][]float32{unit(0), unit(1), unit(2)}

	require.NoError(t, store.Upsert(ctx, "session_a", chunks, vectors))

	hits, err := store.Query(ctx, "session_a", unit(1), 2)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "about dogs", hits[0].Chunk.Text)
	assert.Equal(t, 1, hits[0].Chunk.Index)
	assert.Equal(t, "doc", hits[0].Chunk.DocumentID)
	assert.GreaterOrEqual(t, hits[0].Score, hits[1].Score)
}

func TestChromemStore_UpsertIdempotent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	chunks := testChunks("doc", 2)
	vectors := [][]float32{unit(0), unit(1)}

	require.NoError(t, store.Upsert(ctx, "session_a", chunks, vectors))
	require.NoError(t, store.Upsert(ctx, "session_a", chunks, vectors))

	count, err := store.Count(ctx, "session_a")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestChromemStore_QueryEmptyIndex(t *testing.T) {
	store := newTestStore(t)

	hits, err := store.Query(context.Background(), "nothing_here", unit(0), 5)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestChromemStore_QueryFewerThanK(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, "session_a", testChunks("doc", 1), [][]float32{unit(0)}))

	hits, err := store.Query(ctx, "session_a", unit(0), 10)
	require.NoError(t, err)
	assert.Len(t, hits, 1)
}

func TestChromemStore_QueryInvalidK(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Query(context.Background(), "session_a", unit(0), 0)
	require.Error(t, err)
}

func TestChromemStore_ClearIdempotent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, "session_a", testChunks("doc", 3),
		[][]float32{unit(0), unit(1), unit(2)}))

	require.NoError(t, store.Clear(ctx, "session_a"))
	count, err := store.Count(ctx, "session_a")
	require.NoError(t, err)
	assert.Zero(t, count)

	// Second clear of an already-empty collection is a no-op.
	require.NoError(t, store.Clear(ctx, "session_a"))
	require.NoError(t, store.Clear(ctx, "never_existed"))
}

func TestChromemStore_VectorMismatch(t *testing.T) {
	store := newTestStore(t)

	err := store.Upsert(context.Background(), "session_a", testChunks("doc", 2), [][]float32{unit(0)})
	require.Error(t, err)
	assert.ErrorIs(t, err, vectorstore.ErrVectorMismatch)
}

func TestChromemStore_CollectionIsolation(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, "session_a", testChunks("doc", 1), [][]float32{unit(0)}))

	hits, err := store.Query(ctx, "session_b", unit(0), 5)
	require.NoError(t, err)
	assert.Empty(t, hits, "session_b must not see session_a chunks")
}

func TestValidateCollectionName(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantError bool
	}{
		{name: "valid", input: "session_abc_123"},
		{name: "empty", input: "", wantError: true},
		{name: "uppercase", input: "Session", wantError: true},
		{name: "path traversal", input: "../etc", wantError: true},
		{name: "spaces", input: "my collection", wantError: true},
		{name: "too long", input: strings.Repeat("a", 80), wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := vectorstore.ValidateCollectionName(tt.input)
			if tt.wantError {
				assert.ErrorIs(t, err, vectorstore.ErrInvalidCollectionName)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
