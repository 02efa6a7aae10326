package preference_test

import (
	"context"
	"errors"
	"testing"

	"github.com/mind-engage/lessonrunner/internal/preference"
	"github.com/mind-engage/lessonrunner/internal/storage"
)

func TestService(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemStore()
	svc := preference.NewService(store)

	if l, err := svc.Get(ctx, "alice"); err != nil || l != preference.English {
		t.Fatalf("default = %q, %v", l, err)
	}
	if err := svc.Set(ctx, "alice", "AR"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if l, _ := svc.Get(ctx, "alice"); l != preference.Arabic {
		t.Fatalf("got %q", l)
	}
	if err := svc.Set(ctx, "alice", "fr"); !errors.Is(err, preference.ErrUnsupportedLanguage) {
		t.Fatalf("set fr: %v", err)
	}
	if l, _ := svc.Get(ctx, "bob"); l != preference.English {
		t.Fatalf("preferences leak across learners: %q", l)
	}

	b, err := store.Get(ctx, storage.NamespaceLanguage, "alice")
	if err != nil || string(b) != `{"language":"ar"}` {
		t.Fatalf("stored %q, %v", b, err)
	}
}
