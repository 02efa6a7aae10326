package preference

import (
	"context"
	"errors"
	"strings"

	"github.com/mind-engage/lessonrunner/internal/storage"
)

type Language string

const (
	English Language = "en"
	Arabic  Language = "ar"

	Default = English
)

var ErrUnsupportedLanguage = errors.New("preference: unsupported language")

func ParseLanguage(s string) (Language, error) {
	switch l := Language(strings.ToLower(strings.TrimSpace(s))); l {
	case English, Arabic:
		return l, nil
	}
	return "", ErrUnsupportedLanguage
}

type record struct {
	Language Language `json:"language"`
}

// Service stores each learner's display language in its own namespace.
type Service struct {
	store storage.Store
}

func NewService(store storage.Store) *Service { return &Service{store: store} }

// Get returns the stored language, or Default when none was set.
func (s *Service) Get(ctx context.Context, learnerID string) (Language, error) {
	var rec record
	err := storage.GetJSON(ctx, s.store, storage.NamespaceLanguage, learnerID, &rec)
	if errors.Is(err, storage.ErrNotFound) {
		return Default, nil
	}
	if err != nil {
		return Default, err
	}
	if l, err := ParseLanguage(string(rec.Language)); err == nil {
		return l, nil
	}
	return Default, nil
}

func (s *Service) Set(ctx context.Context, learnerID string, lang Language) error {
	l, err := ParseLanguage(string(lang))
	if err != nil {
		return err
	}
	return storage.PutJSON(ctx, s.store, storage.NamespaceLanguage, learnerID, record{Language: l})
}
