package session

import (
	"bytes"
	"context"
	"encoding/json"
	"time"

	"github.com/mind-engage/lessonrunner/internal/attempt"
	"github.com/mind-engage/lessonrunner/internal/storage"
)

// ContentKey holds the last lesson loaded from the content source inside
// the lesson namespace. Learner ids never start with an underscore.
const ContentKey = "_content"

// LessonAnswers is the lesson-answers record of one learner: which lesson
// they were working on and what they answered.
type LessonAnswers struct {
	LessonID string                     `json:"lesson_id"`
	Answers  map[string]json.RawMessage `json:"answers"`
	SavedAt  time.Time                  `json:"saved_at"`
}

// writeThrough persists every attempt snapshot of one learner, and the
// learner's answers whenever they changed.
type writeThrough struct {
	store     storage.Store
	learnerID string
	last      []byte // last answers written to the lesson namespace
}

func (w *writeThrough) SaveAttempt(ctx context.Context, snap attempt.Snapshot) error {
	if err := storage.PutJSON(ctx, w.store, storage.NamespaceAttempt, w.learnerID, snap); err != nil {
		return err
	}
	answers, err := json.Marshal(snap.Answers)
	if err != nil {
		return err
	}
	if w.last != nil && bytes.Equal(answers, w.last) {
		return nil
	}
	rec := LessonAnswers{LessonID: snap.LessonID, Answers: snap.Answers, SavedAt: snap.SavedAt}
	if err := storage.PutJSON(ctx, w.store, storage.NamespaceLesson, w.learnerID, rec); err != nil {
		return err
	}
	w.last = answers
	return nil
}
