package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/mind-engage/lessonrunner/internal/attempt"
	"github.com/mind-engage/lessonrunner/internal/grading"
	"github.com/mind-engage/lessonrunner/internal/lesson"
	"github.com/mind-engage/lessonrunner/internal/logger"
	"github.com/mind-engage/lessonrunner/internal/storage"
)

var (
	ErrNoLesson       = errors.New("session: no lesson available")
	ErrInvalidLearner = errors.New("session: invalid learner id")
)

// session owns the engine of one learner. mu serialises transitions.
type session struct {
	mu       sync.Mutex
	engine   *attempt.Engine
	stopTick context.CancelFunc // non-nil while a scheduler runs
	tickGen  int
	closed   bool // dropped by Refresh; callers must fetch a new session
}

// Tick is what the scheduler calls. Once the attempt leaves InProgress the
// scheduler is considered stopped, so a later Start or Restart can launch
// a new one.
func (s *session) Tick(ctx context.Context) (attempt.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return s.engine.State(), err
	}
	if s.closed {
		return s.engine.State(), context.Canceled
	}
	st, err := s.engine.Tick(ctx)
	if st.Status != attempt.StatusInProgress {
		s.stopTick = nil
	}
	return st, err
}

// Manager hands out one engine per learner, backed by a shared lesson and
// a namespaced store.
type Manager struct {
	store     storage.Store
	source    lesson.Source
	cfg       attempt.Config
	grader    grading.Grader
	notifier  attempt.Notifier
	scheduler *Scheduler
	log       *logger.Logger

	root   context.Context
	cancel context.CancelFunc

	lessonMu sync.Mutex
	current  *lesson.Lesson

	mu       sync.Mutex
	sessions map[string]*session
}

type Option func(*Manager)

func WithAttemptConfig(c attempt.Config) Option { return func(m *Manager) { m.cfg = c } }
func WithGrader(g grading.Grader) Option        { return func(m *Manager) { m.grader = g } }
func WithNotifier(n attempt.Notifier) Option    { return func(m *Manager) { m.notifier = n } }
func WithLogger(l *logger.Logger) Option        { return func(m *Manager) { m.log = l } }

// WithScheduler makes the manager tick in-progress attempts itself.
func WithScheduler(s *Scheduler) Option { return func(m *Manager) { m.scheduler = s } }

func NewManager(store storage.Store, source lesson.Source, opts ...Option) *Manager {
	m := &Manager{
		store:    store,
		source:   source,
		cfg:      attempt.DefaultConfig(),
		grader:   grading.NewDefaultGrader(),
		log:      logger.Nop(),
		sessions: map[string]*session{},
	}
	for _, o := range opts {
		o(m)
	}
	m.root, m.cancel = context.WithCancel(context.Background())
	return m
}

// Close stops every scheduler goroutine.
func (m *Manager) Close() {
	m.cancel()
}

// Lesson returns the current lesson, loading it on first use.
func (m *Manager) Lesson(ctx context.Context) (lesson.Lesson, error) {
	m.lessonMu.Lock()
	defer m.lessonMu.Unlock()
	if m.current != nil {
		return *m.current, nil
	}
	l, err := m.load(ctx)
	if err != nil {
		return lesson.Lesson{}, err
	}
	m.current = &l
	return l, nil
}

// Refresh re-fetches the lesson and drops every cached session. Each
// learner's next call rebuilds its engine from the stored snapshot,
// keeping answers for exercises that still exist.
func (m *Manager) Refresh(ctx context.Context) (lesson.Lesson, error) {
	l, err := m.source.Load(ctx)
	if err != nil {
		return lesson.Lesson{}, fmt.Errorf("refresh lesson: %w", err)
	}
	m.saveContent(ctx, l)

	m.lessonMu.Lock()
	m.current = &l
	m.lessonMu.Unlock()

	m.mu.Lock()
	old := m.sessions
	m.sessions = map[string]*session{}
	m.mu.Unlock()
	for _, s := range old {
		s.mu.Lock()
		s.closed = true
		if s.stopTick != nil {
			s.stopTick()
			s.stopTick = nil
		}
		s.mu.Unlock()
	}
	m.log.Info("lesson refreshed", "lesson_id", l.ID, "exercises", l.Len(), "dropped_sessions", len(old))
	return l, nil
}

// load asks the source first and falls back to the last stored copy.
func (m *Manager) load(ctx context.Context) (lesson.Lesson, error) {
	l, err := m.source.Load(ctx)
	if err == nil {
		m.saveContent(ctx, l)
		return l, nil
	}
	m.log.Warn("content source failed, using stored lesson", "error", err.Error())
	b, gerr := m.store.Get(ctx, storage.NamespaceLesson, ContentKey)
	if gerr != nil {
		return lesson.Lesson{}, fmt.Errorf("%w: %v", ErrNoLesson, err)
	}
	return lesson.Parse(b, "json")
}

func (m *Manager) saveContent(ctx context.Context, l lesson.Lesson) {
	if err := storage.PutJSON(ctx, m.store, storage.NamespaceLesson, ContentKey, l); err != nil {
		m.log.Error("store lesson content", "lesson_id", l.ID, "error", err.Error())
	}
}

func validLearner(id string) bool {
	return strings.TrimSpace(id) != "" && !strings.HasPrefix(id, "_")
}

// get returns the learner's session, resuming it from storage when absent.
func (m *Manager) get(ctx context.Context, learnerID string) (*session, error) {
	if !validLearner(learnerID) {
		return nil, ErrInvalidLearner
	}
	m.mu.Lock()
	if s, ok := m.sessions[learnerID]; ok {
		m.mu.Unlock()
		return s, nil
	}
	m.mu.Unlock()

	l, err := m.Lesson(ctx)
	if err != nil {
		return nil, err
	}
	e := attempt.New(l,
		attempt.WithConfig(m.cfg),
		attempt.WithGrader(m.grader),
		attempt.WithPersister(&writeThrough{store: m.store, learnerID: learnerID}),
		attempt.WithNotifier(m.notifier),
		attempt.WithLogger(m.log),
		attempt.WithLearner(learnerID),
	)

	var snap attempt.Snapshot
	err = storage.GetJSON(ctx, m.store, storage.NamespaceAttempt, learnerID, &snap)
	switch {
	case errors.Is(err, storage.ErrNotFound):
	case err != nil:
		// unreadable state is treated like no state; the learner starts over
		m.log.Warn("load attempt snapshot", "learner_id", learnerID, "error", err.Error())
	default:
		if _, err := e.Resume(ctx, snap); err != nil {
			m.log.Warn("resume attempt", "learner_id", learnerID, "error", err.Error())
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[learnerID]; ok {
		return s, nil
	}
	s := &session{engine: e}
	m.sessions[learnerID] = s
	if e.Status() == attempt.StatusInProgress {
		m.startTicking(s)
	}
	return s, nil
}

// startTicking launches the scheduler for s if one is configured and not
// already running. Callers hold s.mu or own s exclusively.
func (m *Manager) startTicking(s *session) {
	if m.scheduler == nil || s.stopTick != nil || s.closed {
		return
	}
	ctx, cancel := context.WithCancel(m.root)
	s.stopTick = cancel
	s.tickGen++
	gen := s.tickGen
	go func() {
		defer cancel()
		_, err := m.scheduler.Run(ctx, s)
		if err != nil && !errors.Is(err, context.Canceled) {
			m.log.Error("scheduler stopped", "error", err.Error())
		}
		s.mu.Lock()
		if s.tickGen == gen {
			s.stopTick = nil
		}
		s.mu.Unlock()
	}()
}

// lock returns the learner's live session with s.mu held. A session closed
// by a concurrent Refresh is skipped in favour of the rebuilt one.
func (m *Manager) lock(ctx context.Context, learnerID string) (*session, error) {
	for {
		s, err := m.get(ctx, learnerID)
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		if !s.closed {
			return s, nil
		}
		s.mu.Unlock()
	}
}

func (m *Manager) do(ctx context.Context, learnerID string, fn func(e *attempt.Engine) (attempt.State, error)) (attempt.State, error) {
	s, err := m.lock(ctx, learnerID)
	if err != nil {
		return attempt.State{}, err
	}
	defer s.mu.Unlock()
	st, err := fn(s.engine)
	if st.Status == attempt.StatusInProgress {
		m.startTicking(s)
	}
	return st, err
}

// State reads the learner's attempt without changing it.
func (m *Manager) State(ctx context.Context, learnerID string) (attempt.State, error) {
	return m.do(ctx, learnerID, func(e *attempt.Engine) (attempt.State, error) { return e.State(), nil })
}

func (m *Manager) Start(ctx context.Context, learnerID string) (attempt.State, error) {
	return m.do(ctx, learnerID, func(e *attempt.Engine) (attempt.State, error) { return e.Start(ctx) })
}

func (m *Manager) Advance(ctx context.Context, learnerID string) (attempt.State, error) {
	return m.do(ctx, learnerID, func(e *attempt.Engine) (attempt.State, error) { return e.Advance(ctx) })
}

func (m *Manager) Tick(ctx context.Context, learnerID string) (attempt.State, error) {
	return m.do(ctx, learnerID, func(e *attempt.Engine) (attempt.State, error) { return e.Tick(ctx) })
}

func (m *Manager) Restart(ctx context.Context, learnerID string) (attempt.State, error) {
	return m.do(ctx, learnerID, func(e *attempt.Engine) (attempt.State, error) { return e.Restart(ctx) })
}

func (m *Manager) Retract(ctx context.Context, learnerID, exerciseID string) (attempt.State, error) {
	return m.do(ctx, learnerID, func(e *attempt.Engine) (attempt.State, error) { return e.Retract(ctx, exerciseID) })
}

func (m *Manager) Submit(ctx context.Context, learnerID, exerciseID string, raw json.RawMessage) (attempt.Outcome, error) {
	var out attempt.Outcome
	_, err := m.do(ctx, learnerID, func(e *attempt.Engine) (attempt.State, error) {
		var err error
		out, err = e.SubmitRaw(ctx, exerciseID, raw)
		return out.State, err
	})
	return out, err
}

// LessonFor returns the learner-facing lesson and the learner's answers.
func (m *Manager) LessonFor(ctx context.Context, learnerID string) (lesson.Lesson, attempt.State, error) {
	s, err := m.lock(ctx, learnerID)
	if err != nil {
		return lesson.Lesson{}, attempt.State{}, err
	}
	defer s.mu.Unlock()
	return s.engine.Lesson().Public(), s.engine.State(), nil
}
