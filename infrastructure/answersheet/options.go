package answersheet

import (
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/cases"

	"github.com/ahrav/go-compass/internal/domain"
)

// ResolveOption maps user input to an option id of q. The input matches
// an option id case-insensitively or an option label after case folding.
// Anything else fails with a *domain.AnswerError carrying the closest
// option id as a suggestion when one is near enough.
func ResolveOption(q domain.Question, input string) (string, error) {
	folded := fold(input)
	if folded == "" {
		return "", &domain.AnswerError{QuestionID: q.ID, Option: input}
	}
	for _, o := range q.Options {
		if fold(o.ID) == folded {
			return o.ID, nil
		}
	}
	for _, o := range q.Options {
		if fold(o.Label) == folded {
			return o.ID, nil
		}
	}
	return "", &domain.AnswerError{QuestionID: q.ID, Option: input, Suggestion: suggest(q, folded)}
}

// suggest returns the id of the option whose label is closest to input,
// or "" when no label is within half of its length in edits. Ids are one
// or two characters, so only labels carry enough signal.
func suggest(q domain.Question, input string) string {
	best, bestDist := "", -1
	for _, o := range q.Options {
		label := fold(o.Label)
		d := levenshtein.ComputeDistance(input, label)
		limit := utf8.RuneCountInString(label) / 2
		if d > limit {
			continue
		}
		if bestDist < 0 || d < bestDist {
			best, bestDist = o.ID, d
		}
	}
	return best
}

func fold(s string) string {
	// cases.Caser keeps internal state, so each call folds with its own.
	return cases.Fold().String(strings.Join(strings.Fields(s), " "))
}
