package http

import (
	"net/http"

	auth "github.com/mind-engage/lessonrunner/internal/auth/middleware"
	"github.com/mind-engage/lessonrunner/internal/lesson"
	"github.com/mind-engage/lessonrunner/internal/rbac"
	"github.com/mind-engage/lessonrunner/internal/session"
)

// GET /lesson
// Learners get the lesson without answer keys plus their own answers.
// Authors and admins get the lesson summary only.
func GetLessonHandler(m *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if rbac.RoleFromContext(ctx) != rbac.RoleLearner {
			l, err := m.Lesson(ctx)
			if err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, map[string]any{"lesson": l.Public()})
			return
		}
		pub, st, err := m.LessonFor(ctx, auth.SubjectFromContext(ctx))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, map[string]any{
			"lesson":  pub,
			"attempt": newAttemptView(pub, st, true),
		})
	}
}

// POST /lesson/refresh
func RefreshLessonHandler(m *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		l, err := m.Refresh(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		writeJSON(w, lessonSummary(l))
	}
}

func lessonSummary(l lesson.Lesson) map[string]any {
	ids := make([]string, 0, l.Len())
	for _, ex := range l.Exercises {
		ids = append(ids, ex.ID)
	}
	return map[string]any{"id": l.ID, "title": l.Title, "exercises": ids}
}
