package attempt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mind-engage/lessonrunner/internal/grading"
	"github.com/mind-engage/lessonrunner/internal/lesson"
	"github.com/mind-engage/lessonrunner/internal/logger"
)

// Outcome is what Submit reports back for one exercise.
type Outcome struct {
	ExerciseID   string
	Correct      bool
	ContentError bool
	// Explanation is only set for incorrect answers.
	Explanation string
	Feedback    []string
	State       State
}

// Engine runs one attempt of one lesson. It is not safe for concurrent use;
// callers serialise transitions.
type Engine struct {
	lesson    lesson.Lesson
	cfg       Config
	grader    grading.Grader
	persister Persister
	notifier  Notifier
	log       *logger.Logger
	learnerID string
	now       func() time.Time
	newID     func() string

	state State
}

type Option func(*Engine)

func WithConfig(c Config) Option             { return func(e *Engine) { e.cfg = c.withDefaults() } }
func WithGrader(g grading.Grader) Option     { return func(e *Engine) { e.grader = g } }
func WithPersister(p Persister) Option       { return func(e *Engine) { e.persister = p } }
func WithNotifier(n Notifier) Option         { return func(e *Engine) { e.notifier = n } }
func WithLogger(l *logger.Logger) Option     { return func(e *Engine) { e.log = l } }
func WithLearner(id string) Option           { return func(e *Engine) { e.learnerID = id } }
func WithClock(now func() time.Time) Option  { return func(e *Engine) { e.now = now } }
func WithIDGenerator(f func() string) Option { return func(e *Engine) { e.newID = f } }

// New returns an engine for l in the NotStarted state.
func New(l lesson.Lesson, opts ...Option) *Engine {
	e := &Engine{
		lesson: l,
		cfg:    DefaultConfig(),
		grader: grading.NewDefaultGrader(),
		log:    logger.Nop(),
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, o := range opts {
		o(e)
	}
	e.state = freshState(e.cfg, l.ID)
	return e
}

func (e *Engine) Lesson() lesson.Lesson { return e.lesson }
func (e *Engine) Config() Config        { return e.cfg }
func (e *Engine) Status() Status        { return e.state.Status }

// State returns a copy of the current attempt.
func (e *Engine) State() State { return e.state.clone() }

// Snapshot returns the persisted form of the current attempt.
func (e *Engine) Snapshot() (Snapshot, error) { return snapshotOf(e.state, e.now()) }

// Start opens a fresh attempt on exercise 1.
func (e *Engine) Start(ctx context.Context) (State, error) {
	if e.state.Status != StatusNotStarted {
		if e.state.Status.Terminal() {
			return e.State(), ErrAttemptTerminated
		}
		return e.State(), ErrInvalidTransition
	}
	st := freshState(e.cfg, e.lesson.ID)
	st.AttemptID = e.newID()
	st.Status = StatusInProgress
	st.CurrentIndex = 1
	e.state = st
	e.log.Info("attempt started", "attempt_id", st.AttemptID, "lesson_id", st.LessonID, "learner_id", e.learnerID)
	if e.lesson.Len() == 0 {
		e.succeed()
	}
	return e.commit(ctx, "start")
}

// Submit grades ans for exerciseID and records it.
//
// A second submission for the same exercise is refused with
// ErrAlreadyAnswered; the returned Outcome then carries the verdict that
// was recorded the first time and no counter changes.
func (e *Engine) Submit(ctx context.Context, exerciseID string, ans lesson.Answer) (Outcome, error) {
	if err := e.requireActive(); err != nil {
		return Outcome{ExerciseID: exerciseID, State: e.State()}, err
	}
	ex, pos, ok := e.lesson.Find(exerciseID)
	if !ok {
		return Outcome{ExerciseID: exerciseID, State: e.State()}, ErrUnknownExercise
	}
	if e.state.Answered(exerciseID) {
		return e.recordedOutcome(ex), ErrAlreadyAnswered
	}
	if !e.open(pos) {
		return Outcome{ExerciseID: exerciseID, State: e.State()}, ErrNotCurrentExercise
	}

	if ans == nil {
		return Outcome{ExerciseID: exerciseID, State: e.State()}, ErrIncompleteSubmission
	}
	complete, err := grading.Complete(ex, ans)
	if err == nil && !complete {
		return Outcome{ExerciseID: exerciseID, State: e.State()}, ErrIncompleteSubmission
	}

	res, err := e.grader.Grade(ctx, ex, ans)
	g := Grade{Correct: res.Correct}
	if err != nil {
		g = Grade{ContentError: true}
		e.log.Warn("grading content error",
			"attempt_id", e.state.AttemptID,
			"exercise_id", ex.ID,
			"type", string(ex.Type),
			"error", err.Error(),
		)
	}

	if g.Correct {
		if !e.state.Credited[ex.ID] {
			e.state.Streak += e.lesson.StreakIncrement
			e.state.XP += e.lesson.XPPerCorrect
			e.state.Credited[ex.ID] = true
		}
	} else if e.state.TrialsRemaining > 0 {
		e.state.TrialsRemaining--
	}
	e.state.Answers[ex.ID] = ans
	e.state.Grades[ex.ID] = g

	if e.state.TrialsRemaining == 0 {
		e.fail(ReasonMistakes)
	}

	st, perr := e.commit(ctx, "submit")
	out := Outcome{
		ExerciseID:   ex.ID,
		Correct:      g.Correct,
		ContentError: g.ContentError,
		Feedback:     res.Feedback,
		State:        st,
	}
	if !g.Correct {
		out.Explanation = ex.Explanation
	}
	return out, perr
}

// SubmitRaw decodes a JSON submission with the exercise's type and submits it.
// Invalid JSON is returned as lesson.ErrBadAnswerJSON.
func (e *Engine) SubmitRaw(ctx context.Context, exerciseID string, raw json.RawMessage) (Outcome, error) {
	if err := e.requireActive(); err != nil {
		return Outcome{ExerciseID: exerciseID, State: e.State()}, err
	}
	ex, _, ok := e.lesson.Find(exerciseID)
	if !ok {
		return Outcome{ExerciseID: exerciseID, State: e.State()}, ErrUnknownExercise
	}
	ans, err := lesson.DecodeAnswer(ex.Type, raw)
	if err != nil {
		return Outcome{ExerciseID: exerciseID, State: e.State()}, fmt.Errorf("attempt: %w", err)
	}
	return e.Submit(ctx, exerciseID, ans)
}

// Retract removes the answer for the current, not yet advanced exercise so it
// can be answered again. Streak, xp and trials already applied stay as they
// are; the next submission is graded on its own.
func (e *Engine) Retract(ctx context.Context, exerciseID string) (State, error) {
	if err := e.requireActive(); err != nil {
		return e.State(), err
	}
	_, pos, ok := e.lesson.Find(exerciseID)
	if !ok {
		return e.State(), ErrUnknownExercise
	}
	if !e.state.Answered(exerciseID) {
		return e.State(), ErrNotYetAnswered
	}
	if pos != e.state.CurrentIndex {
		return e.State(), ErrNotRetractable
	}
	delete(e.state.Answers, exerciseID)
	delete(e.state.Grades, exerciseID)
	return e.commit(ctx, "retract")
}

// Advance moves past the current exercise once it has an answer. Moving past
// the last exercise completes the attempt.
func (e *Engine) Advance(ctx context.Context) (State, error) {
	if err := e.requireActive(); err != nil {
		return e.State(), err
	}
	if ex, ok := e.lesson.At(e.state.CurrentIndex); ok && !e.state.Answered(ex.ID) {
		return e.State(), ErrNotYetAnswered
	}
	e.state.CurrentIndex++
	if e.state.CurrentIndex > e.lesson.Len() {
		e.succeed()
	}
	return e.commit(ctx, "advance")
}

// Tick takes one second off the clock. Reaching zero fails the attempt
// whatever the remaining trials.
func (e *Engine) Tick(ctx context.Context) (State, error) {
	if err := e.requireActive(); err != nil {
		return e.State(), err
	}
	if e.state.SecondsRemaining > 0 {
		e.state.SecondsRemaining--
	}
	if e.state.SecondsRemaining == 0 {
		e.fail(ReasonTimeout)
	}
	return e.commit(ctx, "tick")
}

// Restart discards a finished attempt and opens a new one before the first
// exercise. The lesson is left as is.
func (e *Engine) Restart(ctx context.Context) (State, error) {
	if !e.state.Status.Terminal() {
		return e.State(), ErrInvalidTransition
	}
	st := freshState(e.cfg, e.lesson.ID)
	st.AttemptID = e.newID()
	st.Status = StatusInProgress
	e.state = st
	e.log.Info("attempt restarted", "attempt_id", st.AttemptID, "lesson_id", st.LessonID, "learner_id", e.learnerID)
	return e.commit(ctx, "restart")
}

// Resume loads a persisted attempt into a NotStarted engine, keeping answers
// for exercises the current lesson still has.
func (e *Engine) Resume(ctx context.Context, snap Snapshot) (State, error) {
	if e.state.Status != StatusNotStarted {
		return e.State(), ErrInvalidTransition
	}
	st, dropped, err := snap.reconcile(e.lesson)
	if err != nil {
		return e.State(), err
	}
	if st.AttemptID == "" && st.Status != StatusNotStarted {
		st.AttemptID = e.newID()
	}
	if len(dropped) > 0 {
		e.log.Info("resume dropped answers", "attempt_id", st.AttemptID, "exercise_ids", dropped)
	}
	for id, ans := range st.Answers {
		if _, ok := st.Grades[id]; ok {
			continue
		}
		// verdict only; the counters already carry its effect
		ex, _, _ := e.lesson.Find(id)
		res, gerr := e.grader.Grade(ctx, ex, ans)
		st.Grades[id] = Grade{Correct: gerr == nil && res.Correct, ContentError: gerr != nil}
	}
	for id, g := range st.Grades {
		if g.Correct {
			st.Credited[id] = true
		}
	}
	e.state = st
	return e.State(), nil
}

func (e *Engine) requireActive() error {
	switch {
	case e.state.Status.Terminal():
		return ErrAttemptTerminated
	case e.state.Status != StatusInProgress:
		return ErrNotInProgress
	}
	return nil
}

// open reports whether the exercise at pos currently accepts an answer:
// only the current one, or any unanswered one when revisiting is allowed.
func (e *Engine) open(pos int) bool {
	if pos == e.state.CurrentIndex {
		return true
	}
	return e.cfg.AllowRevisit && pos >= 1
}

func (e *Engine) recordedOutcome(ex lesson.Exercise) Outcome {
	g := e.state.Grades[ex.ID]
	out := Outcome{ExerciseID: ex.ID, Correct: g.Correct, ContentError: g.ContentError, State: e.State()}
	if !g.Correct {
		out.Explanation = ex.Explanation
	}
	return out
}

func (e *Engine) succeed() {
	e.state.Status = StatusSucceeded
	e.state.FailureReason = ReasonNone
}

func (e *Engine) fail(reason FailureReason) {
	e.state.Status = StatusFailed
	e.state.FailureReason = reason
}

// commit writes the snapshot through and, for terminal transitions, emits
// the outcome signal. A failed write leaves the in-memory state in place
// and is reported as *PersistError.
func (e *Engine) commit(ctx context.Context, op string) (State, error) {
	var perr error
	if e.persister != nil {
		snap, err := e.Snapshot()
		if err == nil {
			err = e.persister.SaveAttempt(ctx, snap)
		}
		if err != nil {
			e.log.Error("persist attempt failed", "attempt_id", e.state.AttemptID, "op", op, "error", err.Error())
			perr = &PersistError{Op: op, Err: err}
		}
	}
	if e.state.Status.Terminal() {
		e.signal(ctx)
	}
	return e.State(), perr
}

func (e *Engine) signal(ctx context.Context) {
	sig := Signal{
		AttemptID:        e.state.AttemptID,
		LessonID:         e.lesson.ID,
		LearnerID:        e.learnerID,
		Outcome:          e.state.Status,
		Reason:           e.state.FailureReason,
		Streak:           e.state.Streak,
		XP:               e.state.XP,
		TrialsRemaining:  e.state.TrialsRemaining,
		SecondsRemaining: e.state.SecondsRemaining,
		At:               e.now().UTC(),
	}
	e.log.Info("attempt finished", "attempt_id", sig.AttemptID, "outcome", string(sig.Outcome), "reason", string(sig.Reason), "learner_id", e.learnerID)
	if e.notifier == nil {
		return
	}
	if err := e.notifier.Notify(ctx, sig); err != nil && !errors.Is(err, context.Canceled) {
		e.log.Warn("outcome notify failed", "attempt_id", sig.AttemptID, "error", err.Error())
	}
}
