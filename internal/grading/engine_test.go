package grading_test

import (
	"context"
	"errors"
	"testing"

	"github.com/mind-engage/lessonrunner/internal/grading"
	"github.com/mind-engage/lessonrunner/internal/lesson"
)

func TestGrade(t *testing.T) {
	g := grading.NewDefaultGrader()
	ctx := context.Background()

	hola := lesson.Exercise{ID: "t", Type: lesson.TypeTypeAnswer, Key: lesson.AcceptedKey{"hola"}}
	holaCI := hola
	holaCI.Tolerance = lesson.Tolerance{CaseInsensitive: true}
	holaTrim := hola
	holaTrim.Tolerance = lesson.Tolerance{CaseInsensitive: true, Trim: true}
	coffee := lesson.Exercise{ID: "w", Type: lesson.TypeWordBank, Key: lesson.SequenceKey{"I", "like", "coffee"}}
	pairs := lesson.Exercise{ID: "m", Type: lesson.TypeMatchPairs,
		Pairs: []lesson.Pair{{Left: "dog", Right: "perro"}, {Left: "cat", Right: "gato"}},
		Key:   lesson.PairsKey{{Left: "dog", Right: "perro"}, {Left: "cat", Right: "gato"}}}
	choice := lesson.Exercise{ID: "c", Type: lesson.TypeMultipleChoice, Key: lesson.ChoiceKey("Paris")}

	cases := []struct {
		name string
		ex   lesson.Exercise
		ans  lesson.Answer
		want bool
	}{
		{"choice exact", choice, lesson.ChoiceAnswer("Paris"), true},
		{"choice case differs", choice, lesson.ChoiceAnswer("paris"), false},
		{"text case insensitive", holaCI, lesson.TextAnswer("Hola"), true},
		{"text no tolerance", hola, lesson.TextAnswer("Hola"), false},
		{"text untrimmed", holaCI, lesson.TextAnswer(" hola "), false},
		{"text trimmed", holaTrim, lesson.TextAnswer("  HOLA "), true},
		{"text second accepted", lesson.Exercise{Type: lesson.TypeTypeAnswer, Key: lesson.AcceptedKey{"hola", "buenas"}}, lesson.TextAnswer("buenas"), true},
		{"word bank in order", coffee, lesson.TokensAnswer{"I", "like", "coffee"}, true},
		{"word bank folded", coffee, lesson.TokensAnswer{"i", "LIKE", "coffee"}, true},
		{"word bank reordered", coffee, lesson.TokensAnswer{"coffee", "like", "I"}, false},
		{"pairs matched", pairs, lesson.PlacementsAnswer{0: "perro", 1: "gato"}, true},
		{"pairs swapped", pairs, lesson.PlacementsAnswer{0: "gato", 1: "perro"}, false},
		{"pairs missing slot", pairs, lesson.PlacementsAnswer{0: "perro"}, false},
		{"pairs extra slot", pairs, lesson.PlacementsAnswer{0: "perro", 1: "gato", 2: "gato"}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := g.Grade(ctx, tc.ex, tc.ans)
			if err != nil {
				t.Fatalf("grade: %v", err)
			}
			if res.Correct != tc.want {
				t.Fatalf("correct = %v, want %v", res.Correct, tc.want)
			}
		})
	}
}

func TestGrade_ShapeMismatch(t *testing.T) {
	g := grading.NewDefaultGrader()
	ctx := context.Background()

	cases := []struct {
		name string
		ex   lesson.Exercise
		ans  lesson.Answer
	}{
		{"string for pairs", lesson.Exercise{Type: lesson.TypeMatchPairs, Key: lesson.PairsKey{{Left: "a", Right: "b"}}}, lesson.TextAnswer("b")},
		{"raw for choice", lesson.Exercise{Type: lesson.TypeMultipleChoice, Key: lesson.ChoiceKey("a")}, lesson.RawAnswer(`["a"]`)},
		{"malformed key", lesson.Exercise{Type: lesson.TypeMultipleChoice, Key: lesson.MalformedKey{Raw: []any{"a"}}}, lesson.ChoiceAnswer("a")},
		{"sequence key on text", lesson.Exercise{Type: lesson.TypeTypeAnswer, Key: lesson.SequenceKey{"a"}}, lesson.TextAnswer("a")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := g.Grade(ctx, tc.ex, tc.ans)
			if !errors.Is(err, grading.ErrInvalidSubmissionShape) {
				t.Fatalf("err = %v, want ErrInvalidSubmissionShape", err)
			}
			if res.Correct {
				t.Fatalf("shape mismatch graded correct")
			}
		})
	}
}

func TestGrade_UnknownType(t *testing.T) {
	g := grading.NewDefaultGrader()
	_, err := g.Grade(context.Background(), lesson.Exercise{Type: "listen_and_repeat"}, lesson.TextAnswer("x"))
	if !errors.Is(err, grading.ErrUnsupportedType) {
		t.Fatalf("err = %v", err)
	}
}

type alwaysRight struct{}

func (alwaysRight) Grade(context.Context, lesson.Exercise, lesson.Answer) (grading.Result, error) {
	return grading.Result{Correct: true}, nil
}

func TestWithStrategy_Overrides(t *testing.T) {
	g := grading.NewDefaultGrader(grading.WithStrategy(lesson.TypeWordBank, alwaysRight{}))
	res, err := g.Grade(context.Background(),
		lesson.Exercise{Type: lesson.TypeWordBank, Key: lesson.SequenceKey{"a"}}, lesson.TokensAnswer{"b"})
	if err != nil || !res.Correct {
		t.Fatalf("override not used: %+v %v", res, err)
	}
}

func TestComplete(t *testing.T) {
	coffee := lesson.Exercise{Type: lesson.TypeWordBank, Key: lesson.SequenceKey{"I", "like", "coffee"}}
	pairs := lesson.Exercise{Type: lesson.TypeMatchPairs, Pairs: []lesson.Pair{{Left: "dog"}, {Left: "cat"}}}

	cases := []struct {
		name     string
		ex       lesson.Exercise
		ans      lesson.Answer
		want     bool
		shapeErr bool
	}{
		{"choice selected", lesson.Exercise{Type: lesson.TypeMultipleChoice}, lesson.ChoiceAnswer("a"), true, false},
		{"choice empty", lesson.Exercise{Type: lesson.TypeMultipleChoice}, lesson.ChoiceAnswer(""), false, false},
		{"text empty", lesson.Exercise{Type: lesson.TypeTypeAnswer}, lesson.TextAnswer(""), false, false},
		{"text spaces only", lesson.Exercise{Type: lesson.TypeTypeAnswer}, lesson.TextAnswer("   "), true, false},
		{"text filled", lesson.Exercise{Type: lesson.TypeTypeAnswer}, lesson.TextAnswer(" hola"), true, false},
		{"bank short", coffee, lesson.TokensAnswer{"I", "like"}, false, false},
		{"bank hole", coffee, lesson.TokensAnswer{"I", "", "coffee"}, false, false},
		{"bank full", coffee, lesson.TokensAnswer{"coffee", "like", "I"}, true, false},
		{"pairs one slot", pairs, lesson.PlacementsAnswer{0: "perro"}, false, false},
		{"pairs all slots", pairs, lesson.PlacementsAnswer{0: "gato", 1: "perro"}, true, false},
		{"shape mismatch", pairs, lesson.TextAnswer("perro"), true, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := grading.Complete(tc.ex, tc.ans)
			if tc.shapeErr != errors.Is(err, grading.ErrInvalidSubmissionShape) {
				t.Fatalf("err = %v", err)
			}
			if got != tc.want {
				t.Fatalf("complete = %v, want %v", got, tc.want)
			}
		})
	}
}
