package attempt

import "github.com/mind-engage/lessonrunner/internal/lesson"

type Status string

const (
	StatusNotStarted Status = "not_started"
	StatusInProgress Status = "in_progress"
	StatusSucceeded  Status = "succeeded"
	StatusFailed     Status = "failed"
)

func (s Status) Terminal() bool { return s == StatusSucceeded || s == StatusFailed }

func (s Status) valid() bool {
	switch s {
	case StatusNotStarted, StatusInProgress, StatusSucceeded, StatusFailed:
		return true
	}
	return false
}

type FailureReason string

const (
	ReasonNone     FailureReason = ""
	ReasonTimeout  FailureReason = "timeout"
	ReasonMistakes FailureReason = "mistakes"
)

const (
	DefaultTrialBudget  = 3
	DefaultTimerSeconds = 300
)

// Config holds the per-attempt budgets.
type Config struct {
	TrialBudget  int
	TimerSeconds int
	// AllowRevisit lets a learner answer any unanswered exercise, not only
	// the current one.
	AllowRevisit bool
}

func DefaultConfig() Config {
	return Config{TrialBudget: DefaultTrialBudget, TimerSeconds: DefaultTimerSeconds}
}

func (c Config) withDefaults() Config {
	if c.TrialBudget <= 0 {
		c.TrialBudget = DefaultTrialBudget
	}
	if c.TimerSeconds <= 0 {
		c.TimerSeconds = DefaultTimerSeconds
	}
	return c
}

// Grade is the recorded verdict for one exercise.
type Grade struct {
	Correct      bool `json:"correct"`
	ContentError bool `json:"contentError,omitempty"`
}

// State is one lesson attempt. CurrentIndex is 0 before the first exercise
// and N while the learner is on exercise N (1-indexed).
type State struct {
	AttemptID        string
	LessonID         string
	Status           Status
	FailureReason    FailureReason
	CurrentIndex     int
	TrialsRemaining  int
	Streak           int
	XP               int
	SecondsRemaining int
	Answers          map[string]lesson.Answer
	Grades           map[string]Grade
	// Credited holds exercises whose correct verdict already paid streak
	// and xp in this attempt. It survives retraction.
	Credited         map[string]bool
}

func freshState(cfg Config, lessonID string) State {
	return State{
		LessonID:         lessonID,
		Status:           StatusNotStarted,
		TrialsRemaining:  cfg.TrialBudget,
		SecondsRemaining: cfg.TimerSeconds,
		Answers:          map[string]lesson.Answer{},
		Grades:           map[string]Grade{},
		Credited:         map[string]bool{},
	}
}

func (s State) Answered(exerciseID string) bool {
	_, ok := s.Answers[exerciseID]
	return ok
}

// clone copies the maps so callers cannot reach into engine state.
func (s State) clone() State {
	out := s
	out.Answers = make(map[string]lesson.Answer, len(s.Answers))
	for k, v := range s.Answers {
		out.Answers[k] = v
	}
	out.Grades = make(map[string]Grade, len(s.Grades))
	for k, v := range s.Grades {
		out.Grades[k] = v
	}
	out.Credited = make(map[string]bool, len(s.Credited))
	for k, v := range s.Credited {
		out.Credited[k] = v
	}
	return out
}
