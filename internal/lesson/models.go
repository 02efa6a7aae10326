package lesson

import "sort"

type ExerciseType string

const (
	TypeMultipleChoice ExerciseType = "multiple_choice"
	TypeTypeAnswer     ExerciseType = "type_answer"
	TypeMatchPairs     ExerciseType = "match_pairs"
	TypeWordBank       ExerciseType = "word_bank"
)

// Tolerance relaxes exact-match grading. Only type_answer consults it.
// Transforms are applied case-fold first, then trim.
type Tolerance struct {
	CaseInsensitive bool `json:"caseInsensitive,omitempty" yaml:"caseInsensitive,omitempty"`
	Trim            bool `json:"trim,omitempty" yaml:"trim,omitempty"`
}

type Pair struct {
	Left  string `json:"left" yaml:"left"`
	Right string `json:"right" yaml:"right"`
}

// AnswerKey is the authoritative answer of an exercise. The concrete variant
// follows the exercise type; MalformedKey marks an authoring error.
type AnswerKey interface{ isAnswerKey() }

type (
	ChoiceKey    string   // multiple_choice
	AcceptedKey  []string // type_answer, any entry matches
	SequenceKey  []string // word_bank, exact order
	PairsKey     []Pair   // match_pairs
	MalformedKey struct{ Raw any }
)

func (ChoiceKey) isAnswerKey()    {}
func (AcceptedKey) isAnswerKey()  {}
func (SequenceKey) isAnswerKey()  {}
func (PairsKey) isAnswerKey()     {}
func (MalformedKey) isAnswerKey() {}

// Exercise is one immutable step of a lesson.
type Exercise struct {
	ID          string
	Type        ExerciseType
	Prompt      string
	Key         AnswerKey // nil in learner-facing copies
	Choices     []string
	Bank        []string
	Pairs       []Pair
	Tolerance   Tolerance
	Explanation string
}

type Lesson struct {
	ID              string     `json:"id" yaml:"id"`
	Title           string     `json:"title" yaml:"title"`
	StreakIncrement int        `json:"streak_increment" yaml:"streak_increment"`
	XPPerCorrect    int        `json:"xp_per_correct" yaml:"xp_per_correct"`
	Exercises       []Exercise `json:"exercises" yaml:"exercises"`
}

func (l Lesson) Len() int { return len(l.Exercises) }

// At returns the exercise at a 1-indexed position.
func (l Lesson) At(pos int) (Exercise, bool) {
	if pos < 1 || pos > len(l.Exercises) {
		return Exercise{}, false
	}
	return l.Exercises[pos-1], true
}

// Find looks an exercise up by id and returns its 1-indexed position.
func (l Lesson) Find(id string) (Exercise, int, bool) {
	for i, ex := range l.Exercises {
		if ex.ID == id {
			return ex, i + 1, true
		}
	}
	return Exercise{}, 0, false
}

// Public returns a copy that is safe to hand to learners: answer keys and
// explanations are removed, and match_pairs right-hand texts are moved into
// the bank in sorted order so slot positions give nothing away.
func (l Lesson) Public() Lesson {
	out := l
	out.Exercises = make([]Exercise, len(l.Exercises))
	for i, ex := range l.Exercises {
		ex.Key = nil
		ex.Explanation = ""
		if ex.Type == TypeMatchPairs {
			pairs := make([]Pair, len(ex.Pairs))
			rights := make([]string, 0, len(ex.Pairs))
			for j, p := range ex.Pairs {
				pairs[j] = Pair{Left: p.Left}
				rights = append(rights, p.Right)
			}
			sort.Strings(rights)
			ex.Pairs = pairs
			ex.Bank = rights
		}
		out.Exercises[i] = ex
	}
	return out
}
