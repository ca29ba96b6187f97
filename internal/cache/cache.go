// Package cache memoizes generated answers for identical (question, context,
// memory) triples so repeated questions skip inference entirely.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Key identifies one exact inference input. Two requests share a key only
// when they would produce bit-identical prompts.
type Key string

// NewKey derives a stable key from the normalized question, the ordered
// retrieved chunk ids, and the digest of the memory window that shaped the
// prompt. Chunk order matters: a different ranking composes a different
// prompt.
func NewKey(question string, chunkIDs []string, memoryDigest string) Key {
	h := sha256.New()
	h.Write([]byte(normalize(question)))
	h.Write([]byte{0})
	for _, id := range chunkIDs {
		h.Write([]byte(id))
		h.Write([]byte{0})
	}
	h.Write([]byte(memoryDigest))
	return Key(hex.EncodeToString(h.Sum(nil)))
}

// normalize lowercases and collapses whitespace so formatting-only variants
// of a question share a key.
func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// MemoryDigest hashes the question/answer pairs of a memory window.
func MemoryDigest(pairs [][2]string) string {
	if len(pairs) == 0 {
		return ""
	}
	h := sha256.New()
	for _, p := range pairs {
		h.Write([]byte(p[0]))
		h.Write([]byte{0})
		h.Write([]byte(p[1]))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Cache is a bounded, thread-safe answer cache. Entries are created lazily,
// never mutated, and evicted only by LRU pressure or an explicit Clear.
//
// The cache is advisory and strict: a miss always triggers real inference,
// and a hit returns exactly what inference produced for that key.
type Cache struct {
	entries *lru.Cache[Key, string]
	enabled bool
}

// New creates a cache holding up to maxEntries answers. A disabled cache
// misses on every Get and drops every Put, which turns memoization off
// without touching call sites.
func New(maxEntries int, enabled bool) (*Cache, error) {
	if maxEntries <= 0 {
		maxEntries = 512
	}
	entries, err := lru.New[Key, string](maxEntries)
	if err != nil {
		return nil, err
	}
	return &Cache{entries: entries, enabled: enabled}, nil
}

// Get returns the cached answer for key, if present.
func (c *Cache) Get(key Key) (string, bool) {
	if !c.enabled {
		return "", false
	}
	return c.entries.Get(key)
}

// Put stores an answer under key.
func (c *Cache) Put(key Key, answer string) {
	if !c.enabled {
		return
	}
	c.entries.Add(key, answer)
}

// Len returns the number of cached answers.
func (c *Cache) Len() int {
	return c.entries.Len()
}

// Clear removes all entries. Safe to call concurrently with in-flight
// lookups; concurrent readers observe either the old or the empty state.
func (c *Cache) Clear() {
	c.entries.Purge()
}
