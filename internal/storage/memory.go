package storage

import (
	"context"
	"sync"
)

type MemStore struct {
	mu   sync.RWMutex
	data map[Namespace]map[string][]byte
}

func NewMemStore() *MemStore {
	return &MemStore{data: map[Namespace]map[string][]byte{}}
}

func (s *MemStore) Get(_ context.Context, ns Namespace, key string) ([]byte, error) {
	if err := checkKey(ns, key); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.data[ns][key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), b...), nil
}

func (s *MemStore) Put(_ context.Context, ns Namespace, key string, data []byte) error {
	if err := checkKey(ns, key); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data[ns] == nil {
		s.data[ns] = map[string][]byte{}
	}
	s.data[ns][key] = append([]byte(nil), data...)
	return nil
}

func (s *MemStore) Delete(_ context.Context, ns Namespace, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data[ns], key)
	return nil
}
