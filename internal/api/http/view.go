package http

import (
	"encoding/json"

	"github.com/mind-engage/lessonrunner/internal/attempt"
	"github.com/mind-engage/lessonrunner/internal/lesson"
)

// AttemptView is the learner-facing rendering of an attempt.
type AttemptView struct {
	AttemptID         string                     `json:"attemptId,omitempty"`
	LessonID          string                     `json:"lessonId,omitempty"`
	Status            attempt.Status             `json:"status"`
	FailureReason     attempt.FailureReason      `json:"failureReason,omitempty"`
	CurrentIndex      int                        `json:"currentIndex"`
	CurrentExerciseID string                     `json:"currentExerciseId,omitempty"`
	TotalExercises    int                        `json:"totalExercises"`
	TrialsRemaining   int                        `json:"trialsRemaining"`
	Streak            int                        `json:"streak"`
	XP                int                        `json:"xp"`
	SecondsRemaining  int                        `json:"secondsRemaining"`
	Answers           map[string]json.RawMessage `json:"answers"`
	Grades            map[string]bool            `json:"grades"`
	Persisted         bool                       `json:"persisted"`
}

func newAttemptView(l lesson.Lesson, st attempt.State, persisted bool) AttemptView {
	v := AttemptView{
		AttemptID:        st.AttemptID,
		LessonID:         st.LessonID,
		Status:           st.Status,
		FailureReason:    st.FailureReason,
		CurrentIndex:     st.CurrentIndex,
		TotalExercises:   l.Len(),
		TrialsRemaining:  st.TrialsRemaining,
		Streak:           st.Streak,
		XP:               st.XP,
		SecondsRemaining: st.SecondsRemaining,
		Answers:          make(map[string]json.RawMessage, len(st.Answers)),
		Grades:           make(map[string]bool, len(st.Grades)),
		Persisted:        persisted,
	}
	if ex, ok := l.At(st.CurrentIndex); ok {
		v.CurrentExerciseID = ex.ID
	}
	for id, a := range st.Answers {
		if raw, err := lesson.EncodeAnswer(a); err == nil {
			v.Answers[id] = raw
		}
	}
	for id, g := range st.Grades {
		v.Grades[id] = g.Correct
	}
	return v
}

// OutcomeView is returned by POST /attempt/answers.
type OutcomeView struct {
	ExerciseID      string      `json:"exerciseId"`
	Correct         bool        `json:"correct"`
	ContentError    bool        `json:"contentError,omitempty"`
	Explanation     string      `json:"explanation,omitempty"`
	Feedback        []string    `json:"feedback,omitempty"`
	AlreadyAnswered bool        `json:"alreadyAnswered,omitempty"`
	Attempt         AttemptView `json:"attempt"`
}
