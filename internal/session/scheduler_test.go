package session_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mind-engage/lessonrunner/internal/attempt"
	"github.com/mind-engage/lessonrunner/internal/lesson"
	"github.com/mind-engage/lessonrunner/internal/session"
)

func TestScheduler_RunsUntilTimeout(t *testing.T) {
	ctx := context.Background()
	e := attempt.New(lessonV1(), attempt.WithConfig(attempt.Config{TimerSeconds: 4}))
	if _, err := e.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	st, err := session.NewScheduler(time.Millisecond, nil).Run(ctx, e)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if st.Status != attempt.StatusFailed || st.FailureReason != attempt.ReasonTimeout || st.SecondsRemaining != 0 {
		t.Fatalf("state %+v", st)
	}
}

func TestScheduler_StopsOnCancel(t *testing.T) {
	e := attempt.New(lessonV1())
	if _, err := e.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := session.NewScheduler(time.Millisecond, nil).Run(ctx, e); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v", err)
	}
	if st := e.State(); st.SecondsRemaining != 300 {
		t.Fatalf("ticked after cancel: %d", st.SecondsRemaining)
	}
}

func TestScheduler_NotStartedReturns(t *testing.T) {
	e := attempt.New(lesson.Lesson{ID: "x"})
	st, err := session.NewScheduler(time.Millisecond, nil).Run(context.Background(), e)
	if err != nil || st.Status != attempt.StatusNotStarted {
		t.Fatalf("run: %+v %v", st, err)
	}
}
