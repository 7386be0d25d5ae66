package services

import (
	"errors"
	"sync"
	"time"

	"github.com/Navadeep1830/honeypot-api/internal/domain/models"
)

// ErrConversationNotFound is returned for lookups of unknown session ids
var ErrConversationNotFound = errors.New("conversation not found")

// ConversationStore owns all conversation state. Returned conversations are
// snapshots; mutate only through the store methods.
type ConversationStore interface {
	GetOrCreate(id string) *models.Conversation
	Get(id string) (*models.Conversation, error)
	Append(id string, role models.MessageRole, content string) (*models.Conversation, error)
	// UpdateConfidence raises the stored confidence to score if it is higher
	UpdateConfidence(id string, score float64) error
	// MarkScamDetected sets the scam and agent flags and raises confidence
	MarkScamDetected(id string, confidence float64) error
	Delete(id string) error
	// EvictOlderThan removes idle sessions and reports how many were removed.
	// Sessions with an in-flight request are skipped.
	EvictOlderThan(maxAge time.Duration) int
	// Lock serializes requests for one session until the returned func is called
	Lock(id string) (unlock func())
	Count() int
}

type keyLock struct {
	mu   sync.Mutex
	refs int
}

// MemoryConversationStore is an in-process ConversationStore
type MemoryConversationStore struct {
	mu            sync.RWMutex
	conversations map[string]*models.Conversation

	locksMu sync.Mutex
	locks   map[string]*keyLock

	now func() time.Time
}

// StoreOption configures a MemoryConversationStore
type StoreOption func(*MemoryConversationStore)

// WithClock overrides the time source
func WithClock(now func() time.Time) StoreOption {
	return func(s *MemoryConversationStore) {
		s.now = now
	}
}

// NewMemoryConversationStore creates an empty store
func NewMemoryConversationStore(opts ...StoreOption) *MemoryConversationStore {
	s := &MemoryConversationStore{
		conversations: make(map[string]*models.Conversation),
		locks:         make(map[string]*keyLock),
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetOrCreate returns the conversation for id, creating it if needed
func (s *MemoryConversationStore) GetOrCreate(id string) *models.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getOrCreateLocked(id).Snapshot()
}

func (s *MemoryConversationStore) getOrCreateLocked(id string) *models.Conversation {
	conv, ok := s.conversations[id]
	if !ok {
		conv = models.NewConversation(id, s.now())
		s.conversations[id] = conv
	}
	return conv
}

// Get returns a snapshot of an existing conversation
func (s *MemoryConversationStore) Get(id string) (*models.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conv, ok := s.conversations[id]
	if !ok {
		return nil, ErrConversationNotFound
	}
	return conv.Snapshot(), nil
}

// Append adds a message, creating the conversation if it does not exist
func (s *MemoryConversationStore) Append(id string, role models.MessageRole, content string) (*models.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv := s.getOrCreateLocked(id)
	now := s.now()
	conv.Messages = append(conv.Messages, models.Message{
		Role:      role,
		Content:   content,
		Timestamp: now,
	})
	conv.LastActivity = now
	return conv.Snapshot(), nil
}

// UpdateConfidence keeps the highest confidence seen for the session
func (s *MemoryConversationStore) UpdateConfidence(id string, score float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.conversations[id]
	if !ok {
		return ErrConversationNotFound
	}
	if score > conv.ConfidenceScore {
		conv.ConfidenceScore = score
	}
	return nil
}

// MarkScamDetected is idempotent; flags never revert and confidence never drops
func (s *MemoryConversationStore) MarkScamDetected(id string, confidence float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.conversations[id]
	if !ok {
		return ErrConversationNotFound
	}
	conv.ScamDetected = true
	conv.AgentActive = true
	if confidence > conv.ConfidenceScore {
		conv.ConfidenceScore = confidence
	}
	return nil
}

// Delete removes a conversation
func (s *MemoryConversationStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.conversations[id]; !ok {
		return ErrConversationNotFound
	}
	delete(s.conversations, id)
	return nil
}

// EvictOlderThan removes sessions idle for longer than maxAge
func (s *MemoryConversationStore) EvictOlderThan(maxAge time.Duration) int {
	cutoff := s.now().Add(-maxAge)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.locksMu.Lock()
	defer s.locksMu.Unlock()

	removed := 0
	for id, conv := range s.conversations {
		if !conv.LastActivity.Before(cutoff) {
			continue
		}
		if l, busy := s.locks[id]; busy && l.refs > 0 {
			continue
		}
		delete(s.conversations, id)
		removed++
	}
	return removed
}

// Lock acquires the per-session lock. Lock entries are reference counted and
// dropped once no request holds or waits on them.
func (s *MemoryConversationStore) Lock(id string) func() {
	s.locksMu.Lock()
	l, ok := s.locks[id]
	if !ok {
		l = &keyLock{}
		s.locks[id] = l
	}
	l.refs++
	s.locksMu.Unlock()

	l.mu.Lock()

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Unlock()
			s.locksMu.Lock()
			l.refs--
			if l.refs == 0 {
				delete(s.locks, id)
			}
			s.locksMu.Unlock()
		})
	}
}

// Count returns the number of live conversations
func (s *MemoryConversationStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.conversations)
}
