package event

import (
	"time"

	"github.com/google/uuid"

	"github.com/mind-engage/lessonrunner/internal/attempt"
)

type EventType string

const (
	EventTypeAttemptSucceeded EventType = "lesson.attempt.succeeded"
	EventTypeAttemptFailed    EventType = "lesson.attempt.failed"
)

type BaseEvent struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Timestamp int64     `json:"timestamp"`
	Version   string    `json:"version"`
}

type AttemptFinishedEvent struct {
	BaseEvent
	AttemptID        string `json:"attempt_id"`
	LessonID         string `json:"lesson_id"`
	LearnerID        string `json:"learner_id,omitempty"`
	Reason           string `json:"reason,omitempty"`
	Streak           int    `json:"streak"`
	XP               int    `json:"xp"`
	TrialsRemaining  int    `json:"trials_remaining"`
	SecondsRemaining int    `json:"seconds_remaining"`
}

// TypeFor maps a terminal outcome to its event type.
func TypeFor(outcome attempt.Status) EventType {
	if outcome == attempt.StatusSucceeded {
		return EventTypeAttemptSucceeded
	}
	return EventTypeAttemptFailed
}

func NewAttemptFinishedEvent(sig attempt.Signal) *AttemptFinishedEvent {
	ts := sig.At
	if ts.IsZero() {
		ts = time.Now()
	}
	return &AttemptFinishedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.NewString(),
			Type:      TypeFor(sig.Outcome),
			Timestamp: ts.Unix(),
			Version:   "1.0",
		},
		AttemptID:        sig.AttemptID,
		LessonID:         sig.LessonID,
		LearnerID:        sig.LearnerID,
		Reason:           string(sig.Reason),
		Streak:           sig.Streak,
		XP:               sig.XP,
		TrialsRemaining:  sig.TrialsRemaining,
		SecondsRemaining: sig.SecondsRemaining,
	}
}
