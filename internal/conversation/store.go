package conversation

import (
	"sync"

	"github.com/sirupsen/logrus"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is one message in a conversation, either from the user or from the
// assistant.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Store keeps a bounded per-user conversation history in memory. Histories
// are lost on restart; there is no persistence.
type Store struct {
	mu        sync.RWMutex
	maxPairs  int
	histories map[string][]Turn
}

// NewStore creates a store keeping at most maxPairs user/assistant exchanges
// per user.
func NewStore(maxPairs int) *Store {
	if maxPairs <= 0 {
		maxPairs = 10
	}
	return &Store{
		maxPairs:  maxPairs,
		histories: make(map[string][]Turn),
	}
}

// History returns a copy of the user's history in chronological order. It
// never creates an entry.
func (s *Store) History(userID string) []Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := s.histories[userID]
	if len(history) == 0 {
		return nil
	}
	out := make([]Turn, len(history))
	copy(out, history)
	return out
}

// Append records one exchange and trims the oldest pairs once the window
// bound is exceeded.
func (s *Store) Append(userID, userMessage, assistantReply string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	history := append(s.histories[userID],
		Turn{Role: RoleUser, Content: userMessage},
		Turn{Role: RoleAssistant, Content: assistantReply},
	)

	if max := s.maxPairs * 2; len(history) > max {
		history = history[len(history)-max:]
		logrus.Debugf("Trimmed conversation history for user %s", userID)
	}

	s.histories[userID] = history
}

// Reset clears the user's history. It reports whether an entry existed; the
// entry itself is kept (emptied), matching the distinct confirmation the
// caller shows in each case.
func (s *Store) Reset(userID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.histories[userID]; !ok {
		return false
	}
	s.histories[userID] = nil
	return true
}

// UserIDs lists the users that currently have a history entry.
func (s *Store) UserIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.histories))
	for id := range s.histories {
		ids = append(ids, id)
	}
	return ids
}
