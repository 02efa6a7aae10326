package attempt

import (
	"errors"
	"fmt"
)

// Protocol violations. None of them change the attempt.
var (
	ErrAlreadyAnswered      = errors.New("attempt: exercise already answered")
	ErrNotYetAnswered       = errors.New("attempt: current exercise not answered yet")
	ErrAttemptTerminated    = errors.New("attempt: attempt already finished")
	ErrNotInProgress        = errors.New("attempt: attempt not started")
	ErrInvalidTransition    = errors.New("attempt: transition not allowed in current state")
	ErrNotCurrentExercise   = errors.New("attempt: exercise is not open for answers")
	ErrUnknownExercise      = errors.New("attempt: unknown exercise")
	ErrIncompleteSubmission = errors.New("attempt: submission is incomplete")
	ErrNotRetractable       = errors.New("attempt: answer can no longer be retracted")
	ErrInvalidSnapshot      = errors.New("attempt: invalid snapshot")
)

// PersistError means the transition was applied in memory but the snapshot
// could not be written. The returned state is still valid.
type PersistError struct {
	Op  string
	Err error
}

func (e *PersistError) Error() string { return fmt.Sprintf("attempt: persist after %s: %v", e.Op, e.Err) }
func (e *PersistError) Unwrap() error { return e.Err }

// IsPersistError reports whether err only signals a failed write.
func IsPersistError(err error) bool {
	var pe *PersistError
	return errors.As(err, &pe)
}
