package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"

	"go.uber.org/zap"

	"github.com/ahrav/go-compass/infrastructure/answersheet"
	"github.com/ahrav/go-compass/infrastructure/report"
	"github.com/ahrav/go-compass/internal/application"
	"github.com/ahrav/go-compass/internal/domain"
)

type errResp struct {
	Error      string `json:"error"`
	Missing    []int  `json:"missing,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

type startReq struct {
	Audience domain.Audience `json:"audience"`
}

type detailsReq struct {
	Name    string `json:"name"`
	Contact string `json:"contact"`
}

type answersReq struct {
	// Answers maps question id to an option id or label.
	Answers map[int]string `json:"answers"`
}

type academicsReq struct {
	Academics []answersheet.SubjectEntry `json:"academics"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) writeErr(w http.ResponseWriter, err error) {
	resp := errResp{Error: err.Error()}
	status := http.StatusInternalServerError

	var incomplete *domain.IncompleteError
	var answer *domain.AnswerError
	switch {
	case errors.As(err, &incomplete):
		status = http.StatusUnprocessableEntity
		resp.Missing = incomplete.Missing
	case errors.As(err, &answer):
		status = http.StatusUnprocessableEntity
		resp.Suggestion = answer.Suggestion
	case errors.Is(err, domain.ErrInvalidTransition):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrScoreOutOfRange),
		errors.Is(err, domain.ErrNonNumericScore),
		errors.Is(err, domain.ErrDuplicateSubject),
		errors.Is(err, domain.ErrEmptyValue):
		status = http.StatusUnprocessableEntity
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", zap.Error(err))
	}
	writeJSON(w, status, resp)
}

// decode reads a JSON body into v. An empty body leaves v zero.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, errResp{Error: fmt.Sprintf("invalid request body: %v", err)})
		return false
	}
	return true
}

func (s *Server) respond(w http.ResponseWriter, session application.Session, err error) {
	if err != nil {
		s.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session.View())
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) getCatalog(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.Session().Catalog())
}

func (s *Server) getSession(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.Session().View())
}

func (s *Server) start(w http.ResponseWriter, r *http.Request) {
	var req startReq
	if !decode(w, r, &req) {
		return
	}
	session, err := s.transition(func(cur application.Session) (application.Session, error) {
		return cur.Start(req.Audience)
	})
	s.respond(w, session, err)
}

func (s *Server) details(w http.ResponseWriter, r *http.Request) {
	var req detailsReq
	if !decode(w, r, &req) {
		return
	}
	session, err := s.transition(func(cur application.Session) (application.Session, error) {
		return cur.SubmitDetails(req.Name, req.Contact)
	})
	s.respond(w, session, err)
}

// answers applies every answer in question order. One bad answer rejects
// the whole request.
func (s *Server) answers(w http.ResponseWriter, r *http.Request) {
	var req answersReq
	if !decode(w, r, &req) {
		return
	}
	ids := make([]int, 0, len(req.Answers))
	for id := range req.Answers {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	session, err := s.transition(func(cur application.Session) (application.Session, error) {
		next := cur
		for _, id := range ids {
			q, ok := cur.Catalog().Question(id)
			if !ok {
				return cur, &domain.AnswerError{QuestionID: id, Option: req.Answers[id]}
			}
			option, err := answersheet.ResolveOption(q, req.Answers[id])
			if err != nil {
				return cur, err
			}
			if next, err = next.Answer(id, option); err != nil {
				return cur, err
			}
		}
		return next, nil
	})
	s.respond(w, session, err)
}

// step serves a transition that takes no input.
func (s *Server) step(fn func(application.Session) (application.Session, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		session, err := s.transition(fn)
		s.respond(w, session, err)
	}
}

func (s *Server) academics(w http.ResponseWriter, r *http.Request) {
	var req academicsReq
	if !decode(w, r, &req) {
		return
	}
	record, err := answersheet.BuildRecord(req.Academics, s.policy)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	session, err := s.transition(func(cur application.Session) (application.Session, error) {
		return cur.SubmitAcademics(record)
	})
	s.respond(w, session, err)
}

func (s *Server) generateReport(w http.ResponseWriter, r *http.Request) {
	session, err := s.transition(func(cur application.Session) (application.Session, error) {
		return cur.GenerateReport(r.Context(), s.evaluator)
	})
	s.respond(w, session, err)
}

func (s *Server) download(format string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, ok := s.Session().Result()
		if !ok {
			writeJSON(w, http.StatusConflict, errResp{Error: "no report has been generated"})
			return
		}
		renderer := s.renderers[format]

		var buf bytes.Buffer
		if err := renderer.Render(r.Context(), &buf, result); err != nil {
			s.writeErr(w, err)
			return
		}
		contentType := "text/plain; charset=utf-8"
		if format == report.FormatPDF {
			contentType = "application/pdf"
		}
		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Content-Disposition",
			fmt.Sprintf("attachment; filename=%q", report.FileName(result.Student, renderer.Extension())))
		_, _ = w.Write(buf.Bytes())
	}
}

func (s *Server) reset(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	s.session = s.session.Reset()
	session := s.session
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, session.View())
}
