package application

import (
	"context"
	"fmt"
	"maps"
	"strings"

	"github.com/google/uuid"

	"github.com/ahrav/go-compass/internal/domain"
)

// Session is one participant's walk through the quiz:
//
//	welcome -> details -> questions (one section per theme) -> academics -> report
//
// A Session is an immutable value. Every transition returns a new Session
// and leaves the receiver untouched, so a caller can keep the previous
// value as an undo point or read it while a transition is computed.
type Session struct {
	id      string
	catalog *domain.Catalog
	state   domain.State
}

// NewSession starts a session for catalog at the welcome stage.
func NewSession(catalog *domain.Catalog) Session {
	return newSession(catalog, uuid.NewString())
}

func newSession(catalog *domain.Catalog, id string) Session {
	state := domain.NewState()
	state = domain.With(state, domain.KeyStage, domain.StageWelcome)
	state = domain.With(state, domain.KeySectionIndex, 0)
	state = domain.With(state, domain.KeyAnswers, map[int]string{})
	state = domain.With(state, domain.KeyAcademicRecord, domain.NewAcademicRecord(""))
	return Session{id: id, catalog: catalog, state: state}
}

// ID returns the session identifier.
func (s Session) ID() string { return s.id }

// Catalog returns the catalog the session walks through.
func (s Session) Catalog() *domain.Catalog { return s.catalog }

// Stage returns the current stage.
func (s Session) Stage() domain.Stage {
	stage, _ := domain.Get(s.state, domain.KeyStage)
	return stage
}

// Student returns the participant details, zero before SubmitDetails.
func (s Session) Student() domain.Student {
	student, _ := domain.Get(s.state, domain.KeyStudent)
	return student
}

// Answers returns a copy of the answers given so far.
func (s Session) Answers() map[int]string {
	answers, _ := domain.Get(s.state, domain.KeyAnswers)
	return maps.Clone(answers)
}

// Academics returns the submitted academic record.
func (s Session) Academics() domain.AcademicRecord {
	record, _ := domain.Get(s.state, domain.KeyAcademicRecord)
	return record
}

// Result returns the generated result once the report stage is reached.
func (s Session) Result() (domain.Result, bool) {
	return domain.Get(s.state, domain.KeyResult)
}

// Sections returns the section titles, one per catalog theme.
func (s Session) Sections() []string { return s.catalog.Themes() }

// SectionIndex returns the index of the section on screen.
func (s Session) SectionIndex() int {
	i, _ := domain.Get(s.state, domain.KeySectionIndex)
	return i
}

// CurrentSection returns the title and questions of the section on screen.
func (s Session) CurrentSection() (string, []domain.Question) {
	sections := s.Sections()
	i := s.SectionIndex()
	if i < 0 || i >= len(sections) {
		return "", nil
	}
	return sections[i], s.catalog.QuestionsInTheme(sections[i])
}

// Missing returns the unanswered question ids in catalog order.
func (s Session) Missing() []int {
	answers, _ := domain.Get(s.state, domain.KeyAnswers)
	return s.catalog.MissingAnswers(answers)
}

// Progress returns how many questions are answered out of the total.
func (s Session) Progress() (answered, total int) {
	total = len(s.catalog.Questions)
	return total - len(s.Missing()), total
}

func (s Session) with(state domain.State) Session {
	return Session{id: s.id, catalog: s.catalog, state: state}
}

func (s Session) require(action string, stage domain.Stage) error {
	if s.Stage() != stage {
		return &domain.TransitionError{From: s.Stage(), Action: action, Reason: fmt.Sprintf("requires stage %s", stage)}
	}
	return nil
}

func (s Session) moveTo(stage domain.Stage) domain.State {
	return domain.With(s.state, domain.KeyStage, stage)
}

// Start records who is taking the quiz and moves to the details form. An
// empty audience means a student.
func (s Session) Start(audience domain.Audience) (Session, error) {
	if err := s.require("start", domain.StageWelcome); err != nil {
		return s, err
	}
	switch audience {
	case "":
		audience = domain.AudienceStudent
	case domain.AudienceStudent, domain.AudienceParent:
	default:
		return s, &domain.TransitionError{From: s.Stage(), Action: "start", Reason: fmt.Sprintf("unknown audience %q", audience)}
	}
	state := s.moveTo(domain.StageDetails)
	state = domain.With(state, domain.KeyStudent, domain.Student{Audience: audience})
	return s.with(state), nil
}

// SubmitDetails stores the participant's name and optional contact and
// opens the first question section. The name is required.
func (s Session) SubmitDetails(name, contact string) (Session, error) {
	if err := s.require("submit details", domain.StageDetails); err != nil {
		return s, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return s, &domain.TransitionError{From: s.Stage(), Action: "submit details", Reason: "name is required"}
	}
	student := s.Student()
	student.Name = name
	student.Contact = strings.TrimSpace(contact)

	state := s.moveTo(domain.StageQuestions)
	state = domain.With(state, domain.KeyStudent, student)
	state = domain.With(state, domain.KeySectionIndex, 0)
	return s.with(state), nil
}

// Answer records the selected option of a question. Any catalog question
// may be answered while the question sections are open; answering again
// replaces the earlier choice.
func (s Session) Answer(questionID int, optionID string) (Session, error) {
	if err := s.require("answer", domain.StageQuestions); err != nil {
		return s, err
	}
	q, ok := s.catalog.Question(questionID)
	if !ok {
		return s, &domain.AnswerError{QuestionID: questionID, Option: optionID}
	}
	if _, ok := q.Option(optionID); !ok {
		return s, &domain.AnswerError{QuestionID: questionID, Option: optionID}
	}

	answers := s.Answers()
	answers[questionID] = optionID
	return s.with(domain.With(s.state, domain.KeyAnswers, answers)), nil
}

// NextSection opens the next question section. From the last section it
// moves on to the academic form.
func (s Session) NextSection() (Session, error) {
	if err := s.require("next section", domain.StageQuestions); err != nil {
		return s, err
	}
	i := s.SectionIndex()
	if i >= len(s.Sections())-1 {
		return s.with(s.moveTo(domain.StageAcademics)), nil
	}
	return s.with(domain.With(s.state, domain.KeySectionIndex, i+1)), nil
}

// PrevSection opens the previous question section.
func (s Session) PrevSection() (Session, error) {
	if err := s.require("previous section", domain.StageQuestions); err != nil {
		return s, err
	}
	i := s.SectionIndex()
	if i == 0 {
		return s, &domain.TransitionError{From: s.Stage(), Action: "previous section", Reason: "already at the first section"}
	}
	return s.with(domain.With(s.state, domain.KeySectionIndex, i-1)), nil
}

// ProceedToAcademics skips the remaining sections and opens the academic
// form. Unanswered questions are reported by GenerateReport.
func (s Session) ProceedToAcademics() (Session, error) {
	if err := s.require("proceed to academics", domain.StageQuestions); err != nil {
		return s, err
	}
	return s.with(s.moveTo(domain.StageAcademics)), nil
}

// SubmitAcademics stores the academic record, replacing any earlier one.
// Scores are validated when the record is built, so the record is taken
// as is.
func (s Session) SubmitAcademics(record domain.AcademicRecord) (Session, error) {
	if err := s.require("submit academics", domain.StageAcademics); err != nil {
		return s, err
	}
	return s.with(domain.With(s.state, domain.KeyAcademicRecord, record)), nil
}

// GenerateReport evaluates the session and moves to the report stage. It
// fails with a *domain.IncompleteError listing the unanswered questions
// while any remain, and the session stays on the academic form.
func (s Session) GenerateReport(ctx context.Context, evaluator Evaluator) (Session, error) {
	if err := s.require("generate report", domain.StageAcademics); err != nil {
		return s, err
	}
	if missing := s.Missing(); len(missing) > 0 {
		return s, &domain.IncompleteError{Missing: missing}
	}

	result, err := evaluator.Evaluate(ctx, Submission{
		SessionID: s.id,
		Student:   s.Student(),
		Answers:   s.Answers(),
		Academics: s.Academics(),
	})
	if err != nil {
		return s, err
	}

	state := s.moveTo(domain.StageReport)
	state = domain.With(state, domain.KeyResult, result)
	return s.with(state), nil
}

// Back returns to the previous screen. Answers and details are kept;
// leaving the report discards the generated result.
func (s Session) Back() (Session, error) {
	switch s.Stage() {
	case domain.StageDetails:
		return s.with(s.moveTo(domain.StageWelcome)), nil
	case domain.StageQuestions:
		if s.SectionIndex() > 0 {
			return s.PrevSection()
		}
		return s.with(s.moveTo(domain.StageDetails)), nil
	case domain.StageAcademics:
		state := s.moveTo(domain.StageQuestions)
		state = domain.With(state, domain.KeySectionIndex, max(len(s.Sections())-1, 0))
		return s.with(state), nil
	case domain.StageReport:
		return s.with(domain.Without(s.moveTo(domain.StageAcademics), domain.KeyResult)), nil
	default:
		return s, &domain.TransitionError{From: s.Stage(), Action: "back", Reason: "nothing before the welcome screen"}
	}
}

// Reset discards everything and starts a new session on the same catalog.
func (s Session) Reset() Session {
	return NewSession(s.catalog)
}

// SessionView is the JSON-friendly snapshot of a Session.
type SessionView struct {
	ID        string                `json:"id"`
	Stage     domain.Stage          `json:"stage"`
	Student   domain.Student        `json:"student"`
	Section   int                   `json:"section"`
	Sections  []string              `json:"sections"`
	Answers   map[int]string        `json:"answers"`
	Missing   []int                 `json:"missing"`
	Answered  int                   `json:"answered"`
	Total     int                   `json:"total"`
	Academics domain.AcademicRecord `json:"academics"`
	Result    *domain.Result        `json:"result,omitempty"`
}

// View returns a snapshot of the session.
func (s Session) View() SessionView {
	answered, total := s.Progress()
	v := SessionView{
		ID:        s.id,
		Stage:     s.Stage(),
		Student:   s.Student(),
		Section:   s.SectionIndex(),
		Sections:  s.Sections(),
		Answers:   s.Answers(),
		Missing:   s.Missing(),
		Answered:  answered,
		Total:     total,
		Academics: s.Academics(),
	}
	if r, ok := s.Result(); ok {
		v.Result = &r
	}
	return v
}
