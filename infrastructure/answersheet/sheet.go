// Package answersheet reads completed answer sheets and turns raw user
// input (option choices and academic marks) into validated domain values.
//
// A sheet is a JSON or YAML document:
//
//	student:
//	  name: Asha
//	answers:
//	  "1": A
//	  "2": Researching and gathering data
//	academics:
//	  - subject: Math
//	    scores: [90, "70"]
//
// Options may be given by id (case-insensitive) or by their exact label.
// Blank scores are treated as missing marks.
package answersheet

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"

	"github.com/ahrav/go-compass/internal/domain"
	"github.com/ahrav/go-compass/internal/ports"
)

// ErrInvalidSheet is returned when a sheet cannot be decoded or fails
// schema validation.
var ErrInvalidSheet = errors.New("invalid answer sheet")

//go:embed schema/answersheet.schema.json
var schemaJSON []byte

var schema = mustSchema()

func mustSchema() *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(schemaJSON))
	if err != nil {
		panic(fmt.Sprintf("answersheet: embedded schema: %v", err))
	}
	return s
}

// Format is the encoding of a sheet.
type Format string

// Supported sheet encodings.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath infers the sheet format from a file extension. Anything
// other than .json is read as YAML.
func FormatFromPath(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return FormatJSON
	}
	return FormatYAML
}

// Sheet is a decoded, schema-valid answer sheet. Answers and scores are
// still raw; Resolve checks them against a catalog.
type Sheet struct {
	// Catalog optionally names the catalog the sheet was filled in for.
	Catalog   string            `json:"catalog,omitempty"`
	Student   domain.Student    `json:"student"`
	Answers   map[string]string `json:"answers"`
	Academics []SubjectEntry    `json:"academics,omitempty"`
}

// SubjectEntry is one academic subject with its raw term scores. A score
// is a number, a numeric string or null.
type SubjectEntry struct {
	Subject string `json:"subject"`
	Scores  []any  `json:"scores,omitempty"`
}

// Resolved is a sheet checked against a catalog.
type Resolved struct {
	Student   domain.Student
	Answers   map[int]string
	Academics domain.AcademicRecord
}

// ParseFile reads a sheet, choosing the format from the extension.
func ParseFile(path string) (*Sheet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open answer sheet: %w", err)
	}
	defer f.Close()
	return Parse(f, FormatFromPath(path))
}

// Parse decodes and schema-validates a sheet.
func Parse(r io.Reader, format Format) (*Sheet, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read answer sheet: %w", err)
	}

	var doc any
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		if err := dec.Decode(&doc); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidSheet, err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidSheet, err)
		}
		doc = stringKeys(doc)
	default:
		return nil, fmt.Errorf("%w: %w %q", ErrInvalidSheet, ports.ErrUnsupportedFormat, format)
	}

	result, err := schema.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSheet, err)
	}
	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return nil, fmt.Errorf("%w: %s", ErrInvalidSheet, strings.Join(errs, "; "))
	}

	normalized, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSheet, err)
	}
	var sheet Sheet
	if err := json.Unmarshal(normalized, &sheet); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSheet, err)
	}
	return &sheet, nil
}

// stringKeys rewrites YAML mappings with non-string keys, such as the
// integer question ids of `1: A`, into JSON-compatible objects.
func stringKeys(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, val := range t {
			t[k] = stringKeys(val)
		}
		return t
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = stringKeys(val)
		}
		return out
	case []any:
		for i, val := range t {
			t[i] = stringKeys(val)
		}
		return t
	default:
		return v
	}
}

// Resolve checks every answer against catalog and builds the academic
// record under policy. Unanswered questions are not an error here; the
// engine reports them.
func (s *Sheet) Resolve(catalog *domain.Catalog, policy domain.DuplicatePolicy) (Resolved, error) {
	answers := make(map[int]string, len(s.Answers))

	keys := make([]string, 0, len(s.Answers))
	for k := range s.Answers {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b string) int {
		if len(a) != len(b) {
			return len(a) - len(b)
		}
		return strings.Compare(a, b)
	})

	for _, k := range keys {
		id, err := strconv.Atoi(k)
		if err != nil {
			return Resolved{}, fmt.Errorf("%w: question id %q", ErrInvalidSheet, k)
		}
		q, ok := catalog.Question(id)
		if !ok {
			return Resolved{}, &domain.AnswerError{QuestionID: id, Option: s.Answers[k]}
		}
		optionID, err := ResolveOption(q, s.Answers[k])
		if err != nil {
			return Resolved{}, err
		}
		answers[id] = optionID
	}

	record, err := BuildRecord(s.Academics, policy)
	if err != nil {
		return Resolved{}, err
	}

	student := s.Student
	if student.Audience == "" {
		student.Audience = domain.AudienceStudent
	}
	return Resolved{Student: student, Answers: answers, Academics: record}, nil
}

// BuildRecord parses the raw scores of entries into an academic record.
// Null and blank scores are skipped.
func BuildRecord(entries []SubjectEntry, policy domain.DuplicatePolicy) (domain.AcademicRecord, error) {
	record := domain.NewAcademicRecord(policy)
	for _, e := range entries {
		var scores []float64
		for _, raw := range e.Scores {
			v, ok, err := scoreValue(raw)
			if err != nil {
				return record, fmt.Errorf("subject %s: %w", e.Subject, err)
			}
			if ok {
				scores = append(scores, v)
			}
		}
		var err error
		if record, err = record.Add(e.Subject, scores...); err != nil {
			return record, err
		}
	}
	return record, nil
}

func scoreValue(raw any) (float64, bool, error) {
	switch v := raw.(type) {
	case nil:
		return 0, false, nil
	case float64:
		if err := domain.CheckScore(v); err != nil {
			return 0, false, err
		}
		return v, true, nil
	case json.Number:
		return ParseScore(v.String())
	case string:
		return ParseScore(v)
	default:
		return 0, false, fmt.Errorf("%w: %v", domain.ErrNonNumericScore, raw)
	}
}

// ParseScore parses one academic mark as typed by a user. A trailing "%"
// is allowed. The boolean is false for blank input, which means the mark
// is missing. NaN, infinities and values outside [0, 100] are rejected.
func ParseScore(input string) (float64, bool, error) {
	s := strings.TrimSpace(input)
	s = strings.TrimSpace(strings.TrimSuffix(s, "%"))
	if s == "" {
		return 0, false, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false, fmt.Errorf("%w: %q", domain.ErrNonNumericScore, input)
	}
	if err := domain.CheckScore(v); err != nil {
		return 0, false, err
	}
	return v, true, nil
}
