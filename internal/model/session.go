package model

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session is one interactive conversation: a stable id and an append-only
// transcript. It lives only in memory.
type Session struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`

	mu         sync.RWMutex
	transcript []Message

	// turn is held while a request to the remote service is in flight.
	turn sync.Mutex
}

// NewSession creates a session whose transcript starts with the assistant
// greeting.
func NewSession(greeting string) *Session {
	s := &Session{
		ID:         uuid.NewString(),
		CreatedAt:  time.Now().UTC(),
		transcript: make([]Message, 0, 16),
	}
	s.transcript = append(s.transcript, NewMessage(RoleAssistant, greeting))
	return s
}

// Append adds a message at the end of the transcript and returns it.
func (s *Session) Append(role Role, content string) Message {
	msg := NewMessage(role, content)
	s.mu.Lock()
	s.transcript = append(s.transcript, msg)
	s.mu.Unlock()
	return msg
}

// Transcript returns a copy of the messages in display order.
func (s *Session) Transcript() []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	copied := make([]Message, len(s.transcript))
	copy(copied, s.transcript)
	return copied
}

// Len is the number of messages in the transcript.
func (s *Session) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.transcript)
}

// TryBeginTurn claims the session for one turn. It returns false if a turn
// is already in flight.
func (s *Session) TryBeginTurn() bool {
	return s.turn.TryLock()
}

// EndTurn releases the claim taken by TryBeginTurn.
func (s *Session) EndTurn() {
	s.turn.Unlock()
}

// SessionView is the JSON shape of a session.
type SessionView struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Messages  []Message `json:"messages"`
}

// View snapshots the session for rendering.
func (s *Session) View() SessionView {
	return SessionView{ID: s.ID, CreatedAt: s.CreatedAt, Messages: s.Transcript()}
}
