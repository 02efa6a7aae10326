package session_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/mind-engage/lessonrunner/internal/attempt"
	"github.com/mind-engage/lessonrunner/internal/lesson"
	"github.com/mind-engage/lessonrunner/internal/session"
	"github.com/mind-engage/lessonrunner/internal/storage"
)

func lessonV1() lesson.Lesson {
	return lesson.Lesson{ID: "lesson-1", StreakIncrement: 1, XPPerCorrect: 10, Exercises: []lesson.Exercise{
		{ID: "ex1", Type: lesson.TypeMultipleChoice, Key: lesson.ChoiceKey("Paris")},
		{ID: "ex2", Type: lesson.TypeTypeAnswer, Key: lesson.AcceptedKey{"hola"}},
		{ID: "ex3", Type: lesson.TypeWordBank, Key: lesson.SequenceKey{"I", "like", "coffee"}},
	}}
}

func lessonV2() lesson.Lesson {
	return lesson.Lesson{ID: "lesson-2", StreakIncrement: 1, Exercises: []lesson.Exercise{
		{ID: "ex1", Type: lesson.TypeMultipleChoice, Key: lesson.ChoiceKey("Paris")},
		{ID: "ex4", Type: lesson.TypeTypeAnswer, Key: lesson.AcceptedKey{"gato"}},
	}}
}

// switchSource serves whatever lesson is set, or fails when err is set.
type switchSource struct {
	mu  sync.Mutex
	l   lesson.Lesson
	err error
}

func (s *switchSource) Load(context.Context) (lesson.Lesson, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.l, s.err
}

func (s *switchSource) set(l lesson.Lesson, err error) {
	s.mu.Lock()
	s.l, s.err = l, err
	s.mu.Unlock()
}

type failingStore struct{ storage.Store }

func (failingStore) Put(context.Context, storage.Namespace, string, []byte) error {
	return errors.New("write refused")
}

func TestManager_WriteThroughAndResume(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemStore()
	src := &switchSource{l: lessonV1()}

	m := session.NewManager(store, src)
	defer m.Close()
	if _, err := m.Start(ctx, "alice"); err != nil {
		t.Fatalf("start: %v", err)
	}
	out, err := m.Submit(ctx, "alice", "ex1", json.RawMessage(`"Paris"`))
	if err != nil || !out.Correct {
		t.Fatalf("submit: %+v %v", out, err)
	}
	if _, err := m.Advance(ctx, "alice"); err != nil {
		t.Fatalf("advance: %v", err)
	}

	var snap attempt.Snapshot
	if err := storage.GetJSON(ctx, store, storage.NamespaceAttempt, "alice", &snap); err != nil {
		t.Fatalf("attempt snapshot: %v", err)
	}
	if snap.CurrentIndex != 2 || snap.Streak != 1 || string(snap.Answers["ex1"]) != `"Paris"` {
		t.Fatalf("snapshot %+v", snap)
	}
	var la session.LessonAnswers
	if err := storage.GetJSON(ctx, store, storage.NamespaceLesson, "alice", &la); err != nil {
		t.Fatalf("lesson answers: %v", err)
	}
	if la.LessonID != "lesson-1" || string(la.Answers["ex1"]) != `"Paris"` {
		t.Fatalf("lesson answers %+v", la)
	}

	// a second process picks the attempt up where it was left
	m2 := session.NewManager(store, src)
	defer m2.Close()
	st, err := m2.State(ctx, "alice")
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	if st.Status != attempt.StatusInProgress || st.CurrentIndex != 2 || !st.Answered("ex1") {
		t.Fatalf("resumed state %+v", st)
	}
	if st, _ := m2.State(ctx, "bob"); st.Status != attempt.StatusNotStarted {
		t.Fatalf("bob should not be started: %+v", st)
	}
}

func TestManager_RefreshReconcilesAnswers(t *testing.T) {
	ctx := context.Background()
	src := &switchSource{l: lessonV1()}
	m := session.NewManager(storage.NewMemStore(), src)
	defer m.Close()

	_, _ = m.Start(ctx, "alice")
	_, _ = m.Submit(ctx, "alice", "ex1", json.RawMessage(`"Paris"`))

	src.set(lessonV2(), nil)
	l, err := m.Refresh(ctx)
	if err != nil || l.ID != "lesson-2" {
		t.Fatalf("refresh: %+v %v", l, err)
	}
	pub, st, err := m.LessonFor(ctx, "alice")
	if err != nil {
		t.Fatalf("lesson for: %v", err)
	}
	if pub.ID != "lesson-2" || pub.Exercises[0].Key != nil {
		t.Fatalf("public lesson %+v", pub)
	}
	if !st.Answered("ex1") || st.Answered("ex4") {
		t.Fatalf("answers after refresh %+v", st.Answers)
	}
	if st.LessonID != "lesson-2" || st.Streak != 1 {
		t.Fatalf("state after refresh %+v", st)
	}
}

func TestManager_LessonFallback(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemStore()
	src := &switchSource{l: lessonV1()}

	m := session.NewManager(store, src)
	if _, err := m.Lesson(ctx); err != nil {
		t.Fatalf("first load: %v", err)
	}
	m.Close()

	src.set(lesson.Lesson{}, errors.New("content service down"))
	m2 := session.NewManager(store, src)
	defer m2.Close()
	l, err := m2.Lesson(ctx)
	if err != nil {
		t.Fatalf("fallback: %v", err)
	}
	if l.ID != "lesson-1" || l.Len() != 3 {
		t.Fatalf("fallback lesson %+v", l)
	}
	if ex, _ := l.At(1); ex.Key != lesson.ChoiceKey("Paris") {
		t.Fatalf("stored lesson lost its keys: %#v", ex.Key)
	}
	if _, err := m2.Refresh(ctx); err == nil {
		t.Fatalf("refresh should surface source failure")
	}

	m3 := session.NewManager(storage.NewMemStore(), src)
	defer m3.Close()
	if _, err := m3.Lesson(ctx); !errors.Is(err, session.ErrNoLesson) {
		t.Fatalf("err = %v", err)
	}
}

func TestManager_RejectsReservedLearnerIDs(t *testing.T) {
	m := session.NewManager(storage.NewMemStore(), lesson.Static(lessonV1()))
	defer m.Close()
	for _, id := range []string{"", "  ", session.ContentKey} {
		if _, err := m.Start(context.Background(), id); !errors.Is(err, session.ErrInvalidLearner) {
			t.Fatalf("%q: err = %v", id, err)
		}
	}
}

func TestManager_PersistFailureKeepsProgress(t *testing.T) {
	ctx := context.Background()
	m := session.NewManager(failingStore{storage.NewMemStore()}, lesson.Static(lessonV1()))
	defer m.Close()

	st, err := m.Start(ctx, "alice")
	if !attempt.IsPersistError(err) {
		t.Fatalf("err = %v", err)
	}
	if st.Status != attempt.StatusInProgress {
		t.Fatalf("start not applied: %+v", st)
	}
	if st, _ := m.State(ctx, "alice"); st.CurrentIndex != 1 {
		t.Fatalf("in-memory state lost: %+v", st)
	}
}

func TestManager_SerialisesConcurrentTicks(t *testing.T) {
	ctx := context.Background()
	m := session.NewManager(storage.NewMemStore(), lesson.Static(lessonV1()),
		session.WithAttemptConfig(attempt.Config{TimerSeconds: 100}))
	defer m.Close()
	if _, err := m.Start(ctx, "alice"); err != nil {
		t.Fatalf("start: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = m.Tick(ctx, "alice")
		}()
	}
	wg.Wait()
	if st, _ := m.State(ctx, "alice"); st.SecondsRemaining != 80 {
		t.Fatalf("seconds = %d, want 80", st.SecondsRemaining)
	}
}

type signals struct {
	mu  sync.Mutex
	got []attempt.Signal
}

func (s *signals) Notify(_ context.Context, sig attempt.Signal) error {
	s.mu.Lock()
	s.got = append(s.got, sig)
	s.mu.Unlock()
	return nil
}

func (s *signals) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.got)
}

func TestManager_ServerTicking(t *testing.T) {
	ctx := context.Background()
	sig := &signals{}
	m := session.NewManager(storage.NewMemStore(), lesson.Static(lessonV1()),
		session.WithAttemptConfig(attempt.Config{TimerSeconds: 3}),
		session.WithNotifier(sig),
		session.WithScheduler(session.NewScheduler(2*time.Millisecond, nil)),
	)
	defer m.Close()

	if _, err := m.Start(ctx, "alice"); err != nil {
		t.Fatalf("start: %v", err)
	}
	deadline := time.Now().Add(5 * time.Second)
	for {
		st, _ := m.State(ctx, "alice")
		if st.Status == attempt.StatusFailed {
			if st.FailureReason != attempt.ReasonTimeout || st.SecondsRemaining != 0 {
				t.Fatalf("unexpected terminal state %+v", st)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("scheduler never expired the attempt: %+v", st)
		}
		time.Sleep(5 * time.Millisecond)
	}
	if sig.len() != 1 {
		t.Fatalf("signals = %d", sig.len())
	}

	// a restarted attempt gets a fresh scheduler
	if _, err := m.Restart(ctx, "alice"); err != nil {
		t.Fatalf("restart: %v", err)
	}
	deadline = time.Now().Add(5 * time.Second)
	for sig.len() < 2 {
		if time.Now().After(deadline) {
			t.Fatalf("restarted attempt not ticked")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
