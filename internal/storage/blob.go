package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

var ErrNotFound = errors.New("storage: not found")

// Namespace separates independent kinds of persisted state.
type Namespace string

const (
	NamespaceAttempt  Namespace = "attempt-state"
	NamespaceLesson   Namespace = "lesson-answers"
	NamespaceLanguage Namespace = "language-preference"
)

// Store is a namespaced key-value blob store. Get returns ErrNotFound when
// nothing was stored under the key. Values never expire.
type Store interface {
	Get(ctx context.Context, ns Namespace, key string) ([]byte, error)
	Put(ctx context.Context, ns Namespace, key string, data []byte) error
	Delete(ctx context.Context, ns Namespace, key string) error
}

func GetJSON(ctx context.Context, s Store, ns Namespace, key string, v any) error {
	b, err := s.Get(ctx, ns, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("storage: decode %s/%s: %w", ns, key, err)
	}
	return nil
}

func PutJSON(ctx context.Context, s Store, ns Namespace, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.Put(ctx, ns, key, b)
}

func checkKey(ns Namespace, key string) error {
	if ns == "" || key == "" {
		return errors.New("storage: empty namespace or key")
	}
	return nil
}
