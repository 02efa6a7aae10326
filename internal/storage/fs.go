package storage

import (
	"context"
	"errors"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
)

// FSStore keeps one JSON file per key under base/<namespace>/.
type FSStore struct{ base string }

func NewFSStore(base string) (*FSStore, error) {
	if base == "" {
		base = "./data"
	}
	if err := os.MkdirAll(base, 0o755); err != nil {
		return nil, err
	}
	return &FSStore{base: base}, nil
}

func (s *FSStore) path(ns Namespace, key string) string {
	// escaping keeps keys such as "../x" inside the namespace directory
	return filepath.Join(s.base, url.PathEscape(string(ns)), url.PathEscape(key)+".json")
}

func (s *FSStore) Get(_ context.Context, ns Namespace, key string) ([]byte, error) {
	if err := checkKey(ns, key); err != nil {
		return nil, err
	}
	b, err := os.ReadFile(s.path(ns, key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	return b, err
}

// Put writes to a temp file and renames it so readers never see a torn value.
func (s *FSStore) Put(_ context.Context, ns Namespace, key string, data []byte) error {
	if err := checkKey(ns, key); err != nil {
		return err
	}
	dst := s.path(ns, key)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(dst), ".tmp-*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, dst)
}

func (s *FSStore) Delete(_ context.Context, ns Namespace, key string) error {
	if err := checkKey(ns, key); err != nil {
		return err
	}
	err := os.Remove(s.path(ns, key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
