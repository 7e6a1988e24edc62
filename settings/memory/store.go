package memory

import (
	"context"
	"sync"

	"github.com/code-payments/iap-sandwich/settings"
)

type InMemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewInMemory() settings.Store {
	return &InMemoryStore{
		values: map[string]string{},
	}
}

func (s *InMemoryStore) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values = make(map[string]string)
}

func (s *InMemoryStore) Get(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.values[key]
	if !ok {
		return "", settings.ErrNotFound
	}
	return value, nil
}

func (s *InMemoryStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[key] = value
	return nil
}
