package cache_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/docqd/internal/cache"
)

func TestNewKey_Stable(t *testing.T) {
	a := cache.NewKey("What is Alpha?", []string{"doc_0", "doc_1"}, "digest")
	b := cache.NewKey("What is Alpha?", []string{"doc_0", "doc_1"}, "digest")
	assert.Equal(t, a, b)
}

func TestNewKey_NormalizesQuestion(t *testing.T) {
	a := cache.NewKey("What is Alpha?", nil, "")
	b := cache.NewKey("  what   IS alpha?  ", nil, "")
	assert.Equal(t, a, b)
}

func TestNewKey_Distinguishes(t *testing.T) {
	base := cache.NewKey("q", []string{"c1", "c2"}, "m")

	assert.NotEqual(t, base, cache.NewKey("other q", []string{"c1", "c2"}, "m"))
	assert.NotEqual(t, base, cache.NewKey("q", []string{"c2", "c1"}, "m"), "chunk order changes the prompt")
	assert.NotEqual(t, base, cache.NewKey("q", []string{"c1"}, "m"))
	assert.NotEqual(t, base, cache.NewKey("q", []string{"c1", "c2"}, "other"))
}

func TestNewKey_NoFieldBleed(t *testing.T) {
	// Text must not shift between the question and chunk-id fields.
	a := cache.NewKey("qc1", []string{"c2"}, "")
	b := cache.NewKey("q", []string{"c1c2"}, "")
	assert.NotEqual(t, a, b)
}

func TestMemoryDigest(t *testing.T) {
	assert.Empty(t, cache.MemoryDigest(nil))

	a := cache.MemoryDigest([][2]string{{"q1", "a1"}})
	b := cache.MemoryDigest([][2]string{{"q1", "a1"}})
	c := cache.MemoryDigest([][2]string{{"q1", "a2"}})
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestCache_GetPut(t *testing.T) {
	c, err := cache.New(16, true)
	require.NoError(t, err)

	key := cache.NewKey("q", []string{"c"}, "")
	_, ok := c.Get(key)
	assert.False(t, ok)

	c.Put(key, "the answer")
	got, ok := c.Get(key)
	require.True(t, ok)
	assert.Equal(t, "the answer", got)
	assert.Equal(t, 1, c.Len())
}

func TestCache_Disabled(t *testing.T) {
	c, err := cache.New(16, false)
	require.NoError(t, err)

	key := cache.NewKey("q", nil, "")
	c.Put(key, "answer")

	_, ok := c.Get(key)
	assert.False(t, ok)
	assert.Zero(t, c.Len())
}

func TestCache_ClearIdempotent(t *testing.T) {
	c, err := cache.New(16, true)
	require.NoError(t, err)

	c.Put(cache.NewKey("q", nil, ""), "answer")
	c.Clear()
	assert.Zero(t, c.Len())
	c.Clear()
	assert.Zero(t, c.Len())
}

func TestCache_Eviction(t *testing.T) {
	c, err := cache.New(2, true)
	require.NoError(t, err)

	c.Put(cache.NewKey("q1", nil, ""), "a1")
	c.Put(cache.NewKey("q2", nil, ""), "a2")
	c.Put(cache.NewKey("q3", nil, ""), "a3")

	assert.Equal(t, 2, c.Len())
	_, ok := c.Get(cache.NewKey("q1", nil, ""))
	assert.False(t, ok, "oldest entry evicted")
}

func TestCache_ConcurrentClearAndGet(t *testing.T) {
	c, err := cache.New(64, true)
	require.NoError(t, err)

	key := cache.NewKey("q", nil, "")
	c.Put(key, "answer")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.Get(key)
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.Clear()
				c.Put(key, "answer")
			}
		}()
	}
	wg.Wait()
}
