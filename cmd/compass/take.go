package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ahrav/go-compass/infrastructure/answersheet"
	"github.com/ahrav/go-compass/internal/application"
	"github.com/ahrav/go-compass/internal/domain"
)

const backCommand = ":back"

func runTake(ctx context.Context, args []string, env *environment) error {
	fs, flags := newFlagSet("take", env)
	out := fs.String("out", "", "report directory (default: report.output_dir)")
	if err := parse(fs, args); err != nil {
		return err
	}
	a, err := newApp(ctx, flags)
	if err != nil {
		return err
	}
	defer func() { _ = a.logger.Sync() }()

	w := &wizard{
		in:        bufio.NewScanner(env.stdin),
		out:       env.stdout,
		evaluator: a.engine,
		policy:    a.cfg.DuplicatePolicy(),
	}
	result, err := w.run(ctx, application.NewSession(a.catalog))
	if err != nil {
		return err
	}
	printSummary(env.stdout, result)
	return a.publish(ctx, result, *out, env.stdout)
}

// wizard drives a Session from a line-oriented terminal.
type wizard struct {
	in        *bufio.Scanner
	out       io.Writer
	evaluator application.Evaluator
	policy    domain.DuplicatePolicy
}

// errInputClosed is returned when the input ends before the report.
var errInputClosed = errors.New("input closed before the quiz was finished")

func (w *wizard) prompt(format string, args ...any) (string, error) {
	fmt.Fprintf(w.out, format, args...)
	if !w.in.Scan() {
		if err := w.in.Err(); err != nil {
			return "", err
		}
		return "", errInputClosed
	}
	return strings.TrimSpace(w.in.Text()), nil
}

// run walks s to the report stage and returns the result.
func (w *wizard) run(ctx context.Context, s application.Session) (domain.Result, error) {
	for {
		if err := ctx.Err(); err != nil {
			return domain.Result{}, err
		}
		var err error
		switch s.Stage() {
		case domain.StageWelcome:
			s, err = w.welcome(s)
		case domain.StageDetails:
			s, err = w.details(s)
		case domain.StageQuestions:
			s, err = w.section(s)
		case domain.StageAcademics:
			s, err = w.academics(ctx, s)
		case domain.StageReport:
			result, _ := s.Result()
			return result, nil
		}
		if err != nil {
			return domain.Result{}, err
		}
	}
}

func (w *wizard) welcome(s application.Session) (application.Session, error) {
	fmt.Fprintf(w.out, "Welcome to the %s quiz.\n", s.Catalog().Name)
	fmt.Fprintln(w.out, "Answer each question with the option letter or its text. Type :back to go back.")
	for {
		in, err := w.prompt("Are you a student or a parent? [student] ")
		if err != nil {
			return s, err
		}
		next, err := s.Start(domain.Audience(strings.ToLower(in)))
		if err == nil {
			return next, nil
		}
		fmt.Fprintln(w.out, "Please type student or parent.")
	}
}

func (w *wizard) details(s application.Session) (application.Session, error) {
	for {
		name, err := w.prompt("Student name: ")
		if err != nil {
			return s, err
		}
		if name == backCommand {
			return s.Back()
		}
		if name == "" {
			fmt.Fprintln(w.out, "A name is required.")
			continue
		}
		contact, err := w.prompt("Contact (optional): ")
		if err != nil {
			return s, err
		}
		return s.SubmitDetails(name, contact)
	}
}

// section asks every question of the section on screen and moves on.
func (w *wizard) section(s application.Session) (application.Session, error) {
	title, questions := s.CurrentSection()
	if title != "" {
		fmt.Fprintf(w.out, "\n== %s (%d of %d) ==\n", title, s.SectionIndex()+1, len(s.Sections()))
	}
	for _, q := range questions {
		fmt.Fprintf(w.out, "\n%d. %s\n", q.ID, q.Prompt)
		for _, o := range q.Options {
			fmt.Fprintf(w.out, "   %s) %s\n", o.ID, o.Label)
		}
		for {
			in, err := w.prompt("> ")
			if err != nil {
				return s, err
			}
			if in == backCommand {
				return s.Back()
			}
			option, err := answersheet.ResolveOption(q, in)
			if err == nil {
				s, err = s.Answer(q.ID, option)
			}
			if err == nil {
				break
			}
			var ae *domain.AnswerError
			if errors.As(err, &ae) && ae.Suggestion != "" {
				fmt.Fprintf(w.out, "Not an option. Did you mean %s?\n", ae.Suggestion)
			} else {
				fmt.Fprintln(w.out, "Not an option, please pick one of the letters above.")
			}
		}
	}
	return s.NextSection()
}

// academics collects up to two term scores per default subject and
// generates the report.
func (w *wizard) academics(ctx context.Context, s application.Session) (application.Session, error) {
	fmt.Fprintln(w.out, "\n== Academic scores ==")
	fmt.Fprintln(w.out, "Enter your term scores out of 100. Leave a score blank to skip it.")

	var entries []answersheet.SubjectEntry
	for _, subject := range domain.DefaultSubjects() {
		entry := answersheet.SubjectEntry{Subject: subject}
		for term := 1; term <= 2; term++ {
			for {
				in, err := w.prompt("%s, term %d: ", subject, term)
				if err != nil {
					return s, err
				}
				if in == backCommand {
					return s.Back()
				}
				_, ok, err := answersheet.ParseScore(in)
				if err != nil {
					fmt.Fprintf(w.out, "%v. Try again.\n", err)
					continue
				}
				if ok {
					entry.Scores = append(entry.Scores, in)
				}
				break
			}
		}
		if len(entry.Scores) > 0 {
			entries = append(entries, entry)
		}
	}

	record, err := answersheet.BuildRecord(entries, w.policy)
	if err != nil {
		return s, err
	}
	if s, err = s.SubmitAcademics(record); err != nil {
		return s, err
	}

	next, err := s.GenerateReport(ctx, w.evaluator)
	var incomplete *domain.IncompleteError
	if errors.As(err, &incomplete) {
		fmt.Fprintf(w.out, "Please answer questions %v first.\n", incomplete.Missing)
		return s.Back()
	}
	return next, err
}
