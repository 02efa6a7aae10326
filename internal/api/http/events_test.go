package http_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	api "github.com/mind-engage/lessonrunner/internal/api/http"
	auth "github.com/mind-engage/lessonrunner/internal/auth/middleware"
	"github.com/mind-engage/lessonrunner/internal/db"
	"github.com/mind-engage/lessonrunner/internal/lesson"
	"github.com/mind-engage/lessonrunner/internal/preference"
	"github.com/mind-engage/lessonrunner/internal/session"
	"github.com/mind-engage/lessonrunner/internal/storage"
	syncx "github.com/mind-engage/lessonrunner/internal/sync"
)

func TestEventsFeed(t *testing.T) {
	conn, err := db.Open(context.Background(), db.DriverSQLite, "file:api_events_test?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer conn.Close()
	repo := syncx.NewEventRepo(conn, "site-a")

	one := lesson.Lesson{ID: "short", StreakIncrement: 1, Exercises: []lesson.Exercise{
		{ID: "ex1", Type: lesson.TypeMultipleChoice, Key: lesson.ChoiceKey("Paris")},
	}}
	store := storage.NewMemStore()
	m := session.NewManager(store, lesson.Static(one), session.WithNotifier(repo))
	defer m.Close()

	a := auth.NewAuthService("test-secret")
	r := chi.NewRouter()
	api.Mount(r, api.Deps{
		Auth:        a,
		LocalLogin:  true,
		ClientTick:  true,
		Admins:      []string{"root"},
		Sessions:    m,
		Preferences: preference.NewService(store),
		Events:      repo,
	})
	srv := httptest.NewServer(r)
	defer srv.Close()
	s := &testServer{Server: srv, auth: a}

	learner := s.login(t, "alice", "")
	s.do(t, learner, http.MethodPost, "/attempt/start", "", nil)
	s.do(t, learner, http.MethodPost, "/attempt/answers", `{"exerciseId":"ex1","answer":"Paris"}`, nil)
	s.do(t, learner, http.MethodPost, "/attempt/advance", "", nil)

	if code := s.do(t, learner, http.MethodGet, "/events", "", nil); code != http.StatusForbidden {
		t.Fatalf("learner reading events: %d", code)
	}

	admin := s.login(t, "root", "")
	var page struct {
		Events []struct {
			Seq    int64           `json:"seq"`
			SiteID string          `json:"site_id"`
			Type   string          `json:"type"`
			Data   json.RawMessage `json:"data"`
		} `json:"events"`
		Next int64 `json:"next"`
	}
	if code := s.do(t, admin, http.MethodGet, "/events?since=0", "", &page); code != http.StatusOK {
		t.Fatalf("admin events: %d", code)
	}
	if len(page.Events) != 1 || page.Events[0].Type != "AttemptSucceeded" || page.Events[0].SiteID != "site-a" {
		t.Fatalf("events = %+v", page.Events)
	}
	var sig map[string]any
	if err := json.Unmarshal(page.Events[0].Data, &sig); err != nil || sig["lesson_id"] != "short" {
		t.Fatalf("payload %s: %v", page.Events[0].Data, err)
	}
	if page.Next != page.Events[0].Seq {
		t.Fatalf("next = %d", page.Next)
	}

	var empty struct {
		Events []json.RawMessage `json:"events"`
	}
	s.do(t, admin, http.MethodGet, "/events?since=999", "", &empty)
	if empty.Events == nil || len(empty.Events) != 0 {
		t.Fatalf("past the end: %+v", empty)
	}
	if code := s.do(t, admin, http.MethodGet, "/events?since=-1", "", nil); code != http.StatusBadRequest {
		t.Fatalf("bad since: %d", code)
	}
}
