package services

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/hrnexus/nexus-web-ui/internal/models"
	"github.com/hrnexus/nexus-web-ui/internal/nexus"
)

// Memory implements the Store interface with in-process maps. Nothing survives a restart;
// it exists for local development and tests.
type Memory struct {
	mu            sync.RWMutex
	sessions      map[string]nexus.Session
	conversations map[string][]models.Message
	preferences   map[string]models.Preferences
	seq           uint64
}

// NewMemory creates an empty in-process store.
func NewMemory() *Memory {
	return &Memory{
		sessions:      make(map[string]nexus.Session),
		conversations: make(map[string][]models.Message),
		preferences:   make(map[string]models.Preferences),
	}
}

// Close is a no-op; it exists so all stores share a lifecycle.
func (m *Memory) Close() error {
	return nil
}

// Session retrieves the stored session for the given ID, zero when absent.
func (m *Memory) Session(_ context.Context, id string) (nexus.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessions[id], nil
}

// PutSession stores the session under the given ID.
func (m *Memory) PutSession(_ context.Context, id string, sess nexus.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[id] = sess
	return nil
}

// DeleteSession removes the session and its conversation.
func (m *Memory) DeleteSession(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	delete(m.conversations, id)
	return nil
}

// Messages retrieves the session's conversation in append order.
func (m *Memory) Messages(_ context.Context, sessionID string) ([]models.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.conversations[sessionID]), nil
}

// AddMessage appends a message to the session's conversation and returns its new ID.
func (m *Memory) AddMessage(_ context.Context, sessionID string, message models.Message) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	newID := fmt.Sprintf("%020d-%s", m.seq, message.ID)
	message.ID = newID
	m.conversations[sessionID] = append(m.conversations[sessionID], message)
	return newID, nil
}

// UpdateMessage replaces the stored message with the same ID. Unknown messages are silently
// ignored.
func (m *Memory) UpdateMessage(_ context.Context, sessionID string, message models.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	messages := m.conversations[sessionID]
	idx := slices.IndexFunc(messages, func(msg models.Message) bool { return msg.ID == message.ID })
	if idx == -1 {
		return nil
	}
	messages[idx] = message
	return nil
}

// ClearMessages drops the session's conversation while keeping the session itself.
func (m *Memory) ClearMessages(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.conversations, sessionID)
	return nil
}

// Preferences retrieves the user's console preferences, defaults when never saved.
func (m *Memory) Preferences(_ context.Context, userID string) (models.Preferences, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.preferences[userID], nil
}

// PutPreferences stores the user's console preferences.
func (m *Memory) PutPreferences(_ context.Context, userID string, prefs models.Preferences) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.preferences[userID] = prefs
	return nil
}
