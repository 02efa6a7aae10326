package session

import (
	"context"
	"errors"
	"time"

	"github.com/mind-engage/lessonrunner/internal/attempt"
	"github.com/mind-engage/lessonrunner/internal/logger"
)

// Ticker is anything with a one-second Tick transition.
type Ticker interface {
	Tick(ctx context.Context) (attempt.State, error)
}

// Scheduler drives Tick on a fixed cadence so the engine never owns a clock.
type Scheduler struct {
	Interval time.Duration
	Log      *logger.Logger
}

func NewScheduler(interval time.Duration, log *logger.Logger) *Scheduler {
	if interval <= 0 {
		interval = time.Second
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Scheduler{Interval: interval, Log: log}
}

// Run ticks until the attempt is terminal, no longer in progress, or ctx is
// done. It returns the last state seen.
func (s *Scheduler) Run(ctx context.Context, t Ticker) (attempt.State, error) {
	tk := time.NewTicker(s.Interval)
	defer tk.Stop()
	var last attempt.State
	for {
		select {
		case <-ctx.Done():
			return last, ctx.Err()
		case <-tk.C:
			st, err := t.Tick(ctx)
			last = st
			switch {
			case err == nil:
			case attempt.IsPersistError(err):
				s.Log.Warn("tick not persisted", "attempt_id", st.AttemptID, "error", err.Error())
			case errors.Is(err, attempt.ErrAttemptTerminated), errors.Is(err, attempt.ErrNotInProgress):
				return st, nil
			default:
				return st, err
			}
			if st.Status.Terminal() {
				return st, nil
			}
		}
	}
}
