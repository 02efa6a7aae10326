package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/lessonrunner/internal/attempt"
	auth "github.com/mind-engage/lessonrunner/internal/auth/middleware"
	"github.com/mind-engage/lessonrunner/internal/session"
)

type transition func(ctx context.Context, learnerID string) (attempt.State, error)

// respondState writes the attempt view, or the mapped error. A persistence
// failure still renders the new state.
func respondState(w http.ResponseWriter, r *http.Request, m *session.Manager, st attempt.State, err error) {
	persisted := true
	if err != nil {
		if !attempt.IsPersistError(err) {
			writeError(w, err)
			return
		}
		persisted = false
	}
	l, lerr := m.Lesson(r.Context())
	if lerr != nil {
		writeError(w, lerr)
		return
	}
	writeJSON(w, newAttemptView(l, st, persisted))
}

func transitionHandler(m *session.Manager, fn transition) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st, err := fn(r.Context(), auth.SubjectFromContext(r.Context()))
		respondState(w, r, m, st, err)
	}
}

// GET /attempt
func GetAttemptHandler(m *session.Manager) http.HandlerFunc { return transitionHandler(m, m.State) }

// POST /attempt/start
func StartAttemptHandler(m *session.Manager) http.HandlerFunc { return transitionHandler(m, m.Start) }

// POST /attempt/advance
func AdvanceHandler(m *session.Manager) http.HandlerFunc { return transitionHandler(m, m.Advance) }

// POST /attempt/tick
func TickHandler(m *session.Manager) http.HandlerFunc { return transitionHandler(m, m.Tick) }

// ServerTickedHandler answers POST /attempt/tick when the server's scheduler
// owns the timer, so a client cannot make it run faster.
func ServerTickedHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "timer is driven by the server", http.StatusConflict)
	}
}

// POST /attempt/restart
func RestartHandler(m *session.Manager) http.HandlerFunc { return transitionHandler(m, m.Restart) }

// DELETE /attempt/answers/{exerciseID}
func RetractHandler(m *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st, err := m.Retract(r.Context(), auth.SubjectFromContext(r.Context()), chi.URLParam(r, "exerciseID"))
		respondState(w, r, m, st, err)
	}
}

// POST /attempt/answers  { "exerciseId": "...", "answer": <json> }
func SubmitAnswerHandler(m *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ExerciseID string          `json:"exerciseId"`
			Answer     json.RawMessage `json:"answer"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if req.ExerciseID == "" || len(req.Answer) == 0 {
			http.Error(w, "exerciseId and answer required", http.StatusBadRequest)
			return
		}
		out, err := m.Submit(r.Context(), auth.SubjectFromContext(r.Context()), req.ExerciseID, req.Answer)
		persisted, already := true, false
		switch {
		case err == nil:
		case errors.Is(err, attempt.ErrAlreadyAnswered):
			already = true
		case attempt.IsPersistError(err):
			persisted = false
		default:
			writeError(w, err)
			return
		}
		l, err := m.Lesson(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, OutcomeView{
			ExerciseID:      out.ExerciseID,
			Correct:         out.Correct,
			ContentError:    out.ContentError,
			Explanation:     out.Explanation,
			Feedback:        out.Feedback,
			AlreadyAnswered: already,
			Attempt:         newAttemptView(l, out.State, persisted),
		})
	}
}
