package attempt

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/mind-engage/lessonrunner/internal/lesson"
)

// Snapshot is the persisted form of a State. The first five fields keep the
// layout older clients wrote; the rest are optional on read.
type Snapshot struct {
	CurrentIndex     int                        `json:"currentIndex"`
	TrialsRemaining  int                        `json:"trialsRemaining"`
	Streak           int                        `json:"streak"`
	SecondsRemaining int                        `json:"secondsRemaining"`
	Answers          map[string]json.RawMessage `json:"answers"`

	AttemptID     string           `json:"attemptId,omitempty"`
	LessonID      string           `json:"lessonId,omitempty"`
	Status        Status           `json:"status,omitempty"`
	FailureReason FailureReason    `json:"failureReason,omitempty"`
	XP            int              `json:"xp,omitempty"`
	Grades        map[string]Grade `json:"grades,omitempty"`
	Credited      []string         `json:"credited,omitempty"`
	SavedAt       time.Time        `json:"savedAt,omitempty"`
}

func snapshotOf(s State, at time.Time) (Snapshot, error) {
	answers := make(map[string]json.RawMessage, len(s.Answers))
	for id, a := range s.Answers {
		raw, err := lesson.EncodeAnswer(a)
		if err != nil {
			return Snapshot{}, fmt.Errorf("encode answer %s: %w", id, err)
		}
		answers[id] = raw
	}
	grades := make(map[string]Grade, len(s.Grades))
	for id, g := range s.Grades {
		grades[id] = g
	}
	var credited []string
	for id, ok := range s.Credited {
		if ok {
			credited = append(credited, id)
		}
	}
	sort.Strings(credited)
	return Snapshot{
		CurrentIndex:     s.CurrentIndex,
		TrialsRemaining:  s.TrialsRemaining,
		Streak:           s.Streak,
		SecondsRemaining: s.SecondsRemaining,
		Answers:          answers,
		AttemptID:        s.AttemptID,
		LessonID:         s.LessonID,
		Status:           s.Status,
		FailureReason:    s.FailureReason,
		XP:               s.XP,
		Grades:           grades,
		Credited:         credited,
		SavedAt:          at.UTC(),
	}, nil
}

// DecodeSnapshot parses a stored snapshot.
func DecodeSnapshot(b []byte) (Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(b, &s); err != nil {
		return Snapshot{}, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	return s, nil
}

// derivedStatus fills in the status for snapshots written without one.
func (s Snapshot) derivedStatus(n int) (Status, FailureReason) {
	if s.Status != "" {
		return s.Status, s.FailureReason
	}
	switch {
	case s.CurrentIndex <= 0:
		return StatusNotStarted, ReasonNone
	case s.SecondsRemaining <= 0:
		return StatusFailed, ReasonTimeout
	case s.TrialsRemaining <= 0:
		return StatusFailed, ReasonMistakes
	case s.CurrentIndex > n:
		return StatusSucceeded, ReasonNone
	}
	return StatusInProgress, ReasonNone
}

// reconcile rebuilds a State against l. Answers are kept for ids l still
// contains and decoded with that exercise's current type; everything else
// is dropped and reported. Kept answers without a stored grade (older
// snapshots) are left for the caller to re-grade.
func (s Snapshot) reconcile(l lesson.Lesson) (State, []string, error) {
	status, reason := s.derivedStatus(l.Len())
	if !status.valid() {
		return State{}, nil, fmt.Errorf("%w: status %q", ErrInvalidSnapshot, status)
	}
	if s.CurrentIndex < 0 || s.TrialsRemaining < 0 || s.SecondsRemaining < 0 {
		return State{}, nil, fmt.Errorf("%w: negative counter", ErrInvalidSnapshot)
	}

	st := State{
		AttemptID:        s.AttemptID,
		LessonID:         l.ID,
		Status:           status,
		FailureReason:    reason,
		CurrentIndex:     s.CurrentIndex,
		TrialsRemaining:  s.TrialsRemaining,
		Streak:           s.Streak,
		XP:               s.XP,
		SecondsRemaining: s.SecondsRemaining,
		Answers:          map[string]lesson.Answer{},
		Grades:           map[string]Grade{},
		Credited:         map[string]bool{},
	}
	for _, id := range s.Credited {
		if _, _, ok := l.Find(id); ok {
			st.Credited[id] = true
		}
	}

	var dropped []string
	for id, raw := range s.Answers {
		ex, _, ok := l.Find(id)
		if !ok {
			dropped = append(dropped, id)
			continue
		}
		a, err := lesson.DecodeAnswer(ex.Type, raw)
		if err != nil {
			dropped = append(dropped, id)
			continue
		}
		st.Answers[id] = a
		if g, ok := s.Grades[id]; ok {
			st.Grades[id] = g
		}
	}

	if st.Status == StatusInProgress && st.CurrentIndex > l.Len() {
		if l.Len() == 0 {
			st.Status = StatusSucceeded
		} else {
			st.CurrentIndex = l.Len()
		}
	}
	return st, dropped, nil
}
