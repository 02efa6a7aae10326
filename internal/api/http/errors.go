package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mind-engage/lessonrunner/internal/attempt"
	"github.com/mind-engage/lessonrunner/internal/lesson"
	"github.com/mind-engage/lessonrunner/internal/preference"
	"github.com/mind-engage/lessonrunner/internal/session"
)

// statusFor maps domain errors to HTTP status codes. Persistence failures are
// not listed: the transition happened, so handlers answer 200 with
// "persisted": false.
func statusFor(err error) int {
	switch {
	case errors.Is(err, attempt.ErrAttemptTerminated),
		errors.Is(err, attempt.ErrNotInProgress),
		errors.Is(err, attempt.ErrInvalidTransition),
		errors.Is(err, attempt.ErrNotCurrentExercise),
		errors.Is(err, attempt.ErrNotYetAnswered),
		errors.Is(err, attempt.ErrNotRetractable):
		return http.StatusConflict
	case errors.Is(err, attempt.ErrIncompleteSubmission):
		return http.StatusUnprocessableEntity
	case errors.Is(err, attempt.ErrUnknownExercise):
		return http.StatusNotFound
	case errors.Is(err, lesson.ErrBadAnswerJSON),
		errors.Is(err, session.ErrInvalidLearner),
		errors.Is(err, preference.ErrUnsupportedLanguage):
		return http.StatusBadRequest
	case errors.Is(err, session.ErrNoLesson):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	http.Error(w, err.Error(), statusFor(err))
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
