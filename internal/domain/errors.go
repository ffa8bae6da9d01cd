package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Common domain errors returned by the scorer, the resolver and the
// boundaries that feed them.
var (
	// ErrInvalidAnswer indicates a selected option or question id that does
	// not exist in the catalog.
	ErrInvalidAnswer = errors.New("invalid answer")

	// ErrIncompleteAnswers indicates that not every catalog question has an
	// answer.
	ErrIncompleteAnswers = errors.New("incomplete answers")

	// ErrMalformedCatalog indicates a catalog that cannot be scored, such as
	// an unparsable weight expression.
	ErrMalformedCatalog = errors.New("malformed catalog")

	// ErrUnknownCategory indicates a category name outside the declared
	// families.
	ErrUnknownCategory = errors.New("unknown category")

	// ErrUnknownDomain indicates a domain name that is not declared.
	ErrUnknownDomain = errors.New("unknown domain")

	// ErrDuplicateSubject indicates a repeated subject under the reject
	// policy.
	ErrDuplicateSubject = errors.New("duplicate subject")

	// ErrScoreOutOfRange indicates an academic score outside [0, 100].
	ErrScoreOutOfRange = errors.New("score out of range")

	// ErrNonNumericScore indicates an academic score that is not a number.
	ErrNonNumericScore = errors.New("non-numeric score")

	// ErrInvalidTransition indicates a wizard step that is not allowed from
	// the current stage.
	ErrInvalidTransition = errors.New("invalid transition")

	// ErrInvalidConfiguration indicates that configuration is invalid or
	// incomplete.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrEmptyValue indicates that a required value is empty.
	ErrEmptyValue = errors.New("empty value")
)

// AnswerError describes an answer that could not be resolved against the
// catalog.
type AnswerError struct {
	QuestionID int
	Option     string
	// Suggestion is the closest valid option id, when one is close enough.
	Suggestion string
}

// Error implements the error interface for AnswerError.
func (e *AnswerError) Error() string {
	msg := fmt.Sprintf("invalid answer: question=%d, option=%q", e.QuestionID, e.Option)
	if e.Suggestion != "" {
		msg += fmt.Sprintf(" (did you mean %q?)", e.Suggestion)
	}
	return msg
}

// Unwrap lets errors.Is match ErrInvalidAnswer.
func (e *AnswerError) Unwrap() error { return ErrInvalidAnswer }

// CatalogError locates a catalog defect.
type CatalogError struct {
	// Source names the catalog, usually its file name.
	Source string
	// Location points at the offending entry, e.g. "question 4 option B".
	Location string
	Err      error
}

// Error implements the error interface for CatalogError.
func (e *CatalogError) Error() string {
	var b strings.Builder
	b.WriteString("malformed catalog")
	if e.Source != "" {
		b.WriteString(" " + e.Source)
	}
	if e.Location != "" {
		b.WriteString(": " + e.Location)
	}
	if e.Err != nil {
		b.WriteString(": " + e.Err.Error())
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *CatalogError) Unwrap() error { return e.Err }

// Is lets errors.Is match ErrMalformedCatalog for every CatalogError.
func (e *CatalogError) Is(target error) bool { return target == ErrMalformedCatalog }

// NewCatalogError creates a CatalogError.
func NewCatalogError(source, location string, err error) *CatalogError {
	return &CatalogError{Source: source, Location: location, Err: err}
}

// IncompleteError lists the questions still lacking an answer.
type IncompleteError struct {
	Missing []int
}

// Error implements the error interface for IncompleteError.
func (e *IncompleteError) Error() string {
	return fmt.Sprintf("incomplete answers: %d unanswered question(s) %v", len(e.Missing), e.Missing)
}

// Unwrap lets errors.Is match ErrIncompleteAnswers.
func (e *IncompleteError) Unwrap() error { return ErrIncompleteAnswers }

// TransitionError reports a wizard step attempted from the wrong stage.
type TransitionError struct {
	From   Stage
	Action string
	Reason string
}

// Error implements the error interface for TransitionError.
func (e *TransitionError) Error() string {
	msg := fmt.Sprintf("invalid transition: %s from stage %s", e.Action, e.From)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

// Unwrap lets errors.Is match ErrInvalidTransition.
func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }
