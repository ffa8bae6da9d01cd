package domain

import (
	"fmt"
	"math"
	"strings"
)

// Score bounds accepted for self-reported academic marks.
const (
	MinAcademicScore = 0.0
	MaxAcademicScore = 100.0
)

// DuplicatePolicy decides what happens when a subject is entered twice.
type DuplicatePolicy string

const (
	// DuplicateMerge treats a repeated subject as another term score of the
	// same subject, so the subject is still averaged and credited once.
	DuplicateMerge DuplicatePolicy = "merge"
	// DuplicateReject fails with ErrDuplicateSubject.
	DuplicateReject DuplicatePolicy = "reject"
)

// SubjectScore is one subject with its valid term scores.
type SubjectScore struct {
	Name   string    `json:"name"`
	Scores []float64 `json:"scores"`
}

// Average returns the mean of the term scores, or 0 when there are none.
func (s SubjectScore) Average() float64 {
	if len(s.Scores) == 0 {
		return 0
	}
	var sum float64
	for _, v := range s.Scores {
		sum += v
	}
	return sum / float64(len(s.Scores))
}

// AcademicRecord is an ordered list of subjects with at most one entry per
// normalized subject name. Add returns a new record; the receiver is left
// untouched.
type AcademicRecord struct {
	Subjects []SubjectScore `json:"subjects"`
	Policy   DuplicatePolicy `json:"policy,omitempty"`
}

// NewAcademicRecord returns an empty record using policy. An empty policy
// means DuplicateMerge.
func NewAcademicRecord(policy DuplicatePolicy) AcademicRecord {
	if policy == "" {
		policy = DuplicateMerge
	}
	return AcademicRecord{Policy: policy}
}

// SubjectKey normalizes a subject name for identity checks: surrounding and
// repeated whitespace is dropped and letters are lower-cased.
func SubjectKey(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

// CheckScore validates a single academic score.
func CheckScore(v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%w: %v", ErrNonNumericScore, v)
	}
	if v < MinAcademicScore || v > MaxAcademicScore {
		return fmt.Errorf("%w: %v not in [%g, %g]", ErrScoreOutOfRange, v, MinAcademicScore, MaxAcademicScore)
	}
	return nil
}

// Add returns a copy of the record with the subject's scores recorded. A
// subject with no scores is kept and averages to zero.
func (r AcademicRecord) Add(name string, scores ...float64) (AcademicRecord, error) {
	display := strings.Join(strings.Fields(name), " ")
	if display == "" {
		return r, fmt.Errorf("%w: subject name", ErrEmptyValue)
	}
	for _, v := range scores {
		if err := CheckScore(v); err != nil {
			return r, fmt.Errorf("subject %s: %w", display, err)
		}
	}

	policy := r.Policy
	if policy == "" {
		policy = DuplicateMerge
	}

	next := AcademicRecord{
		Subjects: make([]SubjectScore, len(r.Subjects), len(r.Subjects)+1),
		Policy:   policy,
	}
	for i, s := range r.Subjects {
		next.Subjects[i] = SubjectScore{Name: s.Name, Scores: append([]float64(nil), s.Scores...)}
	}

	key := SubjectKey(display)
	for i, s := range next.Subjects {
		if SubjectKey(s.Name) != key {
			continue
		}
		if policy == DuplicateReject {
			return r, fmt.Errorf("%w: %s", ErrDuplicateSubject, display)
		}
		next.Subjects[i].Scores = append(next.Subjects[i].Scores, scores...)
		return next, nil
	}

	next.Subjects = append(next.Subjects, SubjectScore{Name: display, Scores: append([]float64(nil), scores...)})
	return next, nil
}

// Len returns the number of distinct subjects.
func (r AcademicRecord) Len() int { return len(r.Subjects) }

// Subject returns the entry for name, matched by SubjectKey.
func (r AcademicRecord) Subject(name string) (SubjectScore, bool) {
	key := SubjectKey(name)
	for _, s := range r.Subjects {
		if SubjectKey(s.Name) == key {
			return s, true
		}
	}
	return SubjectScore{}, false
}

// SubjectRule maps subject-name keywords to a domain bucket.
type SubjectRule struct {
	Domain   Domain
	Keywords []string
}

// DefaultSubjectRules returns the subject classification table in priority
// order. The first rule with a keyword contained in the subject name wins.
func DefaultSubjectRules() []SubjectRule {
	return []SubjectRule{
		{Domain: DomainSTEM, Keywords: []string{"math", "science", "computer"}},
		{Domain: DomainHumanities, Keywords: []string{"social"}},
		{Domain: DomainCreative, Keywords: []string{"english", "language"}},
		{Domain: DomainBusiness, Keywords: []string{"business"}},
	}
}

// DefaultSubjects returns the subjects offered on the academic score form,
// in display order.
func DefaultSubjects() []string {
	return []string{"Math", "Science", "English", "Social Studies", "Second Language", "Computer", "Business Studies"}
}
