// Package inmem provides an in-memory conversation-memory store.
package inmem

import (
	"context"
	"sync"
	"time"

	"github.com/forumkit/mentiond/internal/memory"
)

// Store is an in-memory implementation of memory.Store. Entries are held per
// conversation in insertion order.
type Store struct {
	mu     sync.RWMutex
	byID   map[string]*memory.Entry
	byConv map[string][]*memory.Entry
	now    func() time.Time
}

// New creates an empty store.
func New() *Store {
	return &Store{
		byID:   make(map[string]*memory.Entry),
		byConv: make(map[string][]*memory.Entry),
		now:    time.Now,
	}
}

func (s *Store) InsertIfAbsent(ctx context.Context, entry *memory.Entry) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[entry.MessageID]; exists {
		return false, nil
	}

	stored := *entry
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = s.now()
	}

	s.byID[stored.MessageID] = &stored
	s.byConv[stored.ConversationID] = append(s.byConv[stored.ConversationID], &stored)
	return true, nil
}

func (s *Store) History(ctx context.Context, conversationID string, limit int) ([]memory.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := s.byConv[conversationID]
	start := 0
	if limit > 0 && len(entries) > limit {
		start = len(entries) - limit
	}

	result := make([]memory.Entry, 0, len(entries)-start)
	for _, e := range entries[start:] {
		result = append(result, *e)
	}
	return result, nil
}

func (s *Store) Close() error {
	return nil
}
