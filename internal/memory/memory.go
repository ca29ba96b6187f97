// Package memory keeps the per-session conversation log used to build
// multi-turn prompts.
package memory

import (
	"sync"
	"time"
)

// Turn is one question/answer exchange. Turns are append-only and owned
// exclusively by one session's memory.
type Turn struct {
	// Index is the position of the turn in the conversation, starting at 0.
	Index int

	// Question is the user's question text.
	Question string

	// Answer is the generated answer text.
	Answer string

	// Timestamp is when the turn completed.
	Timestamp time.Time
}

// Memory is an ordered conversation log. Safe for the single-writer,
// concurrent-reader access pattern of one session.
type Memory struct {
	mu    sync.RWMutex
	turns []Turn
}

// New creates an empty conversation memory.
func New() *Memory {
	return &Memory{}
}

// Append adds a completed turn. The turn index is assigned by the memory.
func (m *Memory) Append(question, answer string) Turn {
	m.mu.Lock()
	defer m.mu.Unlock()

	turn := Turn{
		Index:     len(m.turns),
		Question:  question,
		Answer:    answer,
		Timestamp: time.Now(),
	}
	m.turns = append(m.turns, turn)
	return turn
}

// History returns all turns, oldest first.
func (m *Memory) History() []Turn {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Turn, len(m.turns))
	copy(out, m.turns)
	return out
}

// Len returns the number of turns.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.turns)
}

// Clear removes all turns. Idempotent.
func (m *Memory) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.turns = nil
}

// Window returns the most recent turns in chronological order, bounded by
// a turn count and a token budget. Without the bound, long sessions would
// grow the prompt without limit. A maxTurns or maxTokens of zero disables
// that bound.
func (m *Memory) Window(maxTurns, maxTokens int, counter TokenCounter) []Turn {
	m.mu.RLock()
	defer m.mu.RUnlock()

	turns := m.turns
	if maxTurns > 0 && len(turns) > maxTurns {
		turns = turns[len(turns)-maxTurns:]
	}

	if maxTokens <= 0 || counter == nil {
		out := make([]Turn, len(turns))
		copy(out, turns)
		return out
	}

	// Walk backwards so the most recent turns survive the budget, then
	// restore chronological order by slicing from the cut point.
	budget := maxTokens
	cut := len(turns)
	for i := len(turns) - 1; i >= 0; i-- {
		cost := counter.Count(turns[i].Question) + counter.Count(turns[i].Answer)
		if cost > budget {
			break
		}
		budget -= cost
		cut = i
	}

	out := make([]Turn, len(turns)-cut)
	copy(out, turns[cut:])
	return out
}
