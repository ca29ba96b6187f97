// Package session scopes one user's ongoing conversation: its memory and its
// vector index collection.
package session

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"

	"github.com/fyrsmithlabs/docqd/internal/memory"
)

// Session is the scope of one conversation. It exclusively owns its
// conversation memory; the collection name scopes its uploads in the vector
// store so other sessions cannot retrieve them.
type Session struct {
	// ID is the chat-channel identifier supplied by the caller.
	ID string

	// Memory is the session's conversation log.
	Memory *memory.Memory

	// Collection is the vector store collection holding this session's
	// document chunks.
	Collection string
}

// Manager creates and looks up sessions. Sessions live for the process
// lifetime; durability across restarts is out of scope.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager creates an empty session manager.
func NewManager() *Manager {
	return &Manager{sessions: make(map[string]*Session)}
}

// Get returns the session for id, creating it on first use.
func (m *Manager) Get(id string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[id]; ok {
		return s
	}
	s := &Session{
		ID:         id,
		Memory:     memory.New(),
		Collection: CollectionName(id),
	}
	m.sessions[id] = s
	return s
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// CollectionName derives the vector store collection name for a session id.
func CollectionName(sessionID string) string {
	return "session_" + sanitizeForCollectionName(sessionID)
}

// sanitizeForCollectionName maps a session id to a collection-safe string.
// Only lowercase alphanumerics and underscores survive in the readable
// prefix, so the sanitization is lossy ("user.42", "user_42" and "user 42"
// all flatten to "user_42"). Session ids are caller-supplied and scope
// retrieval, so the mapping must be injective: a hash of the original id is
// always appended, and two distinct ids never share a collection.
func sanitizeForCollectionName(s string) string {
	hash := sha256.Sum256([]byte(s))
	suffix := hex.EncodeToString(hash[:4])

	var result strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z':
			result.WriteRune(r)
		case r >= '0' && r <= '9':
			result.WriteRune(r)
		case r == '-' || r == ' ' || r == '_' || r == '.':
			result.WriteRune('_')
		}
	}

	prefix := result.String()
	if len(prefix) > 39 {
		prefix = prefix[:39]
	}
	if prefix == "" {
		return "h_" + suffix
	}
	return prefix + "_" + suffix
}
