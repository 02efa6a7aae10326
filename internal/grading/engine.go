package grading

import (
	"context"
	"errors"

	"github.com/mind-engage/lessonrunner/internal/lesson"
)

var (
	// ErrInvalidSubmissionShape reports a submission (or answer key) whose
	// shape does not fit the exercise type. Callers grade it as incorrect.
	ErrInvalidSubmissionShape = errors.New("grading: submission shape does not match exercise type")
	ErrUnsupportedType        = errors.New("grading: unsupported exercise type")
)

// Result is the verdict for one submission.
type Result struct {
	Correct  bool
	Feedback []string // optional notes
}

// Strategy grades a single exercise type.
type Strategy interface {
	Grade(ctx context.Context, ex lesson.Exercise, ans lesson.Answer) (Result, error)
}

// Grader routes by exercise type to the correct Strategy.
type Grader interface {
	Grade(ctx context.Context, ex lesson.Exercise, ans lesson.Answer) (Result, error)
}

type defaultGrader struct {
	strategies map[lesson.ExerciseType]Strategy
}

func (g *defaultGrader) Grade(ctx context.Context, ex lesson.Exercise, ans lesson.Answer) (Result, error) {
	s, ok := g.strategies[ex.Type]
	if !ok {
		return Result{Feedback: []string{"no strategy available"}}, ErrUnsupportedType
	}
	return s.Grade(ctx, ex, ans)
}

// Engine options

type Option func(*config)

type config struct {
	overrides map[lesson.ExerciseType]Strategy
}

// WithStrategy replaces or adds the strategy for one exercise type.
func WithStrategy(t lesson.ExerciseType, s Strategy) Option {
	return func(c *config) { c.overrides[t] = s }
}

// NewDefaultGrader installs built-in strategies.
func NewDefaultGrader(opts ...Option) Grader {
	cfg := &config{overrides: map[lesson.ExerciseType]Strategy{}}
	for _, o := range opts {
		o(cfg)
	}
	strategies := map[lesson.ExerciseType]Strategy{
		lesson.TypeMultipleChoice: multipleChoiceStrategy{},
		lesson.TypeTypeAnswer:     typeAnswerStrategy{},
		lesson.TypeWordBank:       wordBankStrategy{},
		lesson.TypeMatchPairs:     matchPairsStrategy{},
	}
	for t, s := range cfg.overrides {
		strategies[t] = s
	}
	return &defaultGrader{strategies: strategies}
}

// --- Strategies ---

type multipleChoiceStrategy struct{}

func (multipleChoiceStrategy) Grade(_ context.Context, ex lesson.Exercise, ans lesson.Answer) (Result, error) {
	key, ok := ex.Key.(lesson.ChoiceKey)
	if !ok {
		return Result{}, ErrInvalidSubmissionShape
	}
	resp, ok := ans.(lesson.ChoiceAnswer)
	if !ok {
		return Result{}, ErrInvalidSubmissionShape
	}
	return Result{Correct: string(resp) == string(key)}, nil
}

type typeAnswerStrategy struct{}

func (typeAnswerStrategy) Grade(_ context.Context, ex lesson.Exercise, ans lesson.Answer) (Result, error) {
	key, ok := ex.Key.(lesson.AcceptedKey)
	if !ok {
		return Result{}, ErrInvalidSubmissionShape
	}
	resp, ok := ans.(lesson.TextAnswer)
	if !ok {
		return Result{}, ErrInvalidSubmissionShape
	}
	got := applyTolerance(string(resp), ex.Tolerance)
	for _, k := range key {
		if applyTolerance(k, ex.Tolerance) == got {
			return Result{Correct: true}, nil
		}
	}
	return Result{}, nil
}

type wordBankStrategy struct{}

func (wordBankStrategy) Grade(_ context.Context, ex lesson.Exercise, ans lesson.Answer) (Result, error) {
	key, ok := ex.Key.(lesson.SequenceKey)
	if !ok {
		return Result{}, ErrInvalidSubmissionShape
	}
	resp, ok := ans.(lesson.TokensAnswer)
	if !ok {
		return Result{}, ErrInvalidSubmissionShape
	}
	return Result{Correct: joinFold(resp) == joinFold(key)}, nil
}

type matchPairsStrategy struct{}

func (matchPairsStrategy) Grade(_ context.Context, ex lesson.Exercise, ans lesson.Answer) (Result, error) {
	key, ok := ex.Key.(lesson.PairsKey)
	if !ok {
		return Result{}, ErrInvalidSubmissionShape
	}
	resp, ok := ans.(lesson.PlacementsAnswer)
	if !ok {
		return Result{}, ErrInvalidSubmissionShape
	}
	res := Result{Correct: true}
	for slot := range resp {
		if slot < 0 || slot >= len(key) {
			res.Correct = false
			res.Feedback = append(res.Feedback, "placement outside of the pair slots")
			return res, nil
		}
	}
	for i, p := range key {
		if placed, ok := resp[i]; !ok || placed != p.Right {
			res.Correct = false
			break
		}
	}
	return res, nil
}
