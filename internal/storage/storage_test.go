package storage_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/mind-engage/lessonrunner/internal/db"
	"github.com/mind-engage/lessonrunner/internal/storage"
)

// exerciseStore runs the behaviour every backend must share.
func exerciseStore(t *testing.T, s storage.Store) {
	t.Helper()
	ctx := context.Background()

	if _, err := s.Get(ctx, storage.NamespaceAttempt, "alice"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("get missing: %v", err)
	}
	if err := s.Put(ctx, storage.NamespaceAttempt, "alice", []byte(`{"currentIndex":1}`)); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := s.Put(ctx, storage.NamespaceAttempt, "alice", []byte(`{"currentIndex":2}`)); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	got, err := s.Get(ctx, storage.NamespaceAttempt, "alice")
	if err != nil || string(got) != `{"currentIndex":2}` {
		t.Fatalf("get = %q, %v", got, err)
	}

	// namespaces are independent
	if _, err := s.Get(ctx, storage.NamespaceLanguage, "alice"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("namespace leak: %v", err)
	}

	var v struct {
		Language string `json:"language"`
	}
	if err := storage.PutJSON(ctx, s, storage.NamespaceLanguage, "alice", map[string]string{"language": "ar"}); err != nil {
		t.Fatalf("put json: %v", err)
	}
	if err := storage.GetJSON(ctx, s, storage.NamespaceLanguage, "alice", &v); err != nil || v.Language != "ar" {
		t.Fatalf("get json = %+v, %v", v, err)
	}

	if err := s.Delete(ctx, storage.NamespaceAttempt, "alice"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.Get(ctx, storage.NamespaceAttempt, "alice"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("get after delete: %v", err)
	}
	if err := s.Delete(ctx, storage.NamespaceAttempt, "alice"); err != nil {
		t.Fatalf("delete twice: %v", err)
	}

	if err := s.Put(ctx, storage.NamespaceAttempt, "", []byte("x")); err == nil {
		t.Fatalf("empty key accepted")
	}
}

func TestMemStore(t *testing.T) {
	exerciseStore(t, storage.NewMemStore())
}

func TestFSStore(t *testing.T) {
	dir := t.TempDir()
	s, err := storage.NewFSStore(dir)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	exerciseStore(t, s)

	// traversal-looking keys stay inside the namespace directory
	ctx := context.Background()
	if err := s.Put(ctx, storage.NamespaceLesson, "../escape", []byte("{}")); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "escape.json")); err == nil {
		t.Fatalf("key escaped the namespace directory")
	}
	if b, err := s.Get(ctx, storage.NamespaceLesson, "../escape"); err != nil || string(b) != "{}" {
		t.Fatalf("get = %q, %v", b, err)
	}
}

func TestSQLStore_SQLite(t *testing.T) {
	ctx := context.Background()
	conn, err := db.Open(ctx, db.DriverSQLite, "file:storage_test?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer conn.Close()
	exerciseStore(t, storage.NewSQLStore(conn))
}
