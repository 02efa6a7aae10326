package grading

import "github.com/mind-engage/lessonrunner/internal/lesson"

// Complete reports whether a submission may be graded at all: every blank
// filled for word_bank and match_pairs, non-empty text for type_answer
// (whitespace counts; tolerance is left to grading), any selection for
// multiple_choice.
//
// A submission whose shape does not fit the type returns
// ErrInvalidSubmissionShape; it is considered gradeable (and will be graded
// incorrect) so callers should not reject it as incomplete.
func Complete(ex lesson.Exercise, ans lesson.Answer) (bool, error) {
	switch ex.Type {
	case lesson.TypeMultipleChoice:
		v, ok := ans.(lesson.ChoiceAnswer)
		if !ok {
			return true, ErrInvalidSubmissionShape
		}
		return v != "", nil

	case lesson.TypeTypeAnswer:
		v, ok := ans.(lesson.TextAnswer)
		if !ok {
			return true, ErrInvalidSubmissionShape
		}
		return v != "", nil

	case lesson.TypeWordBank:
		v, ok := ans.(lesson.TokensAnswer)
		if !ok {
			return true, ErrInvalidSubmissionShape
		}
		blanks := len(v)
		if key, ok := ex.Key.(lesson.SequenceKey); ok {
			blanks = len(key)
		}
		if blanks == 0 || len(v) < blanks {
			return false, nil
		}
		for _, tok := range v[:blanks] {
			if tok == "" {
				return false, nil
			}
		}
		return true, nil

	case lesson.TypeMatchPairs:
		v, ok := ans.(lesson.PlacementsAnswer)
		if !ok {
			return true, ErrInvalidSubmissionShape
		}
		if len(ex.Pairs) == 0 {
			return len(v) > 0, nil
		}
		for i := range ex.Pairs {
			if v[i] == "" {
				return false, nil
			}
		}
		return true, nil
	}
	return true, ErrUnsupportedType
}
