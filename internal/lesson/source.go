package lesson

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Source retrieves the current lesson definition.
type Source interface {
	Load(ctx context.Context) (Lesson, error)
}

var ErrEmptyLesson = errors.New("lesson has no id")

// Parse decodes a lesson document. format is "json" or "yaml".
func Parse(data []byte, format string) (Lesson, error) {
	var l Lesson
	switch strings.ToLower(format) {
	case "yaml", "yml":
		if err := yaml.Unmarshal(data, &l); err != nil {
			return Lesson{}, fmt.Errorf("lesson: yaml: %w", err)
		}
	case "json", "":
		if err := json.Unmarshal(data, &l); err != nil {
			return Lesson{}, fmt.Errorf("lesson: json: %w", err)
		}
	default:
		return Lesson{}, fmt.Errorf("lesson: unsupported format %q", format)
	}
	if strings.TrimSpace(l.ID) == "" {
		return Lesson{}, ErrEmptyLesson
	}
	return l, nil
}

// FileSource reads a lesson from disk; the extension picks the format.
type FileSource struct{ Path string }

func (s FileSource) Load(_ context.Context) (Lesson, error) {
	b, err := os.ReadFile(s.Path)
	if err != nil {
		return Lesson{}, err
	}
	return Parse(b, strings.TrimPrefix(filepath.Ext(s.Path), "."))
}

// HTTPSource fetches GET {BaseURL}/lesson from the content service.
type HTTPSource struct {
	BaseURL string
	Client  *http.Client
}

func NewHTTPSource(baseURL string) *HTTPSource {
	return &HTTPSource{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		Client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *HTTPSource) Load(ctx context.Context) (Lesson, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.BaseURL+"/lesson", nil)
	if err != nil {
		return Lesson{}, err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := s.Client.Do(req)
	if err != nil {
		return Lesson{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return Lesson{}, fmt.Errorf("lesson: content service status %d", resp.StatusCode)
	}
	b, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return Lesson{}, err
	}
	return Parse(b, "json")
}

// Static serves a fixed lesson. Handy for tests and single-lesson deployments.
type Static Lesson

func (s Static) Load(context.Context) (Lesson, error) { return Lesson(s), nil }
