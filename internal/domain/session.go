package domain

import "fmt"

// Stage is a step of the quiz wizard.
type Stage int

// Wizard stages in the order a participant walks through them.
const (
	StageWelcome Stage = iota
	StageDetails
	StageQuestions
	StageAcademics
	StageReport
)

var stageNames = [...]string{
	StageWelcome:   "welcome",
	StageDetails:   "details",
	StageQuestions: "questions",
	StageAcademics: "academics",
	StageReport:    "report",
}

// String returns the lower-case stage name.
func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return fmt.Sprintf("stage(%d)", int(s))
	}
	return stageNames[s]
}

// MarshalText implements encoding.TextMarshaler.
func (s Stage) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Audience records who is filling in the quiz.
type Audience string

// Supported audiences.
const (
	AudienceStudent Audience = "student"
	AudienceParent  Audience = "parent"
)

// Student holds the participant details collected before the questions.
type Student struct {
	Name     string   `json:"name"`
	Contact  string   `json:"contact,omitempty"`
	Audience Audience `json:"audience,omitempty"`
}
