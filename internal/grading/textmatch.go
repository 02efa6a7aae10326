package grading

import (
	"strings"

	"github.com/mind-engage/lessonrunner/internal/lesson"
)

// applyTolerance case-folds, then trims, as requested by tol.
// Both the submission and every key entry go through it.
func applyTolerance(s string, tol lesson.Tolerance) string {
	if tol.CaseInsensitive {
		s = strings.ToLower(s)
	}
	if tol.Trim {
		s = strings.TrimSpace(s)
	}
	return s
}

// joinFold joins tokens with a single space, lowercases and trims.
// word_bank answers compare as whole sequences in this form.
func joinFold(tokens []string) string {
	return strings.TrimSpace(strings.ToLower(strings.Join(tokens, " ")))
}
