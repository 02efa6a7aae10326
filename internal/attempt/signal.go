package attempt

import (
	"context"
	"errors"
	"time"
)

// Signal announces a terminal transition. Everything else is pull-based.
type Signal struct {
	AttemptID        string        `json:"attempt_id"`
	LessonID         string        `json:"lesson_id"`
	LearnerID        string        `json:"learner_id,omitempty"`
	Outcome          Status        `json:"outcome"`
	Reason           FailureReason `json:"reason,omitempty"`
	Streak           int           `json:"streak"`
	XP               int           `json:"xp"`
	TrialsRemaining  int           `json:"trials_remaining"`
	SecondsRemaining int           `json:"seconds_remaining"`
	At               time.Time     `json:"at"`
}

// Notifier receives terminal signals. Failures are logged by the engine and
// never undo the transition.
type Notifier interface {
	Notify(ctx context.Context, sig Signal) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, sig Signal) error

func (f NotifierFunc) Notify(ctx context.Context, sig Signal) error { return f(ctx, sig) }

// Notifiers fans a signal out to every member and joins their errors.
type Notifiers []Notifier

func (ns Notifiers) Notify(ctx context.Context, sig Signal) error {
	var errs []error
	for _, n := range ns {
		if n == nil {
			continue
		}
		if err := n.Notify(ctx, sig); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Persister writes snapshots through to durable storage.
type Persister interface {
	SaveAttempt(ctx context.Context, snap Snapshot) error
}

type PersisterFunc func(ctx context.Context, snap Snapshot) error

func (f PersisterFunc) SaveAttempt(ctx context.Context, snap Snapshot) error { return f(ctx, snap) }
